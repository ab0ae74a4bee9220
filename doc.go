/*
Package bffnt implements read/write support for the Nintendo Switch BFFNT
bitmap-font container and its texture pipeline.

A BFFNT file is a chunked binary container: a fixed root header followed by
tagged, length-prefixed chunks carrying font info (FINF), the glyph sheet
layout (TGLP), per-glyph metrics (CWDH), the character-code to glyph-index
mapping (CMAP, three sub-encodings) and one raw texture sheet blob per sheet
(TXSH). Chunks the package does not understand ride through verbatim so a
load/save cycle never destroys data.

Texture sheets are stored GPU-tiled (Tegra X1 block linear) in one of six
pixel formats: RGBA8888, LA8, A8, BC1, BC3 or BC4. The package converts
sheets to editable NRGBA rasters and back, and bridges the whole model to a
JSON + PNG sidecar for external editing workflows.

The core is synchronous and allocation-bounded: every operation is a pure
function over in-memory buffers, so callers may decode sheets concurrently.
A Font value itself is not safe for concurrent mutation.
*/
package bffnt

package bffnt

import (
	"fmt"
	"sort"
)

// FontInfo carries the font-wide constants from the FINF chunk.
type FontInfo struct {
	FontType       uint8
	Height         uint8
	Width          uint8
	Ascent         uint8
	LineFeed       uint16
	FallbackGlyph  uint16 // glyph index used for unmapped character codes
	DefaultLeft    int8
	DefaultWidth   uint8
	DefaultAdvance uint8
	Encoding       uint8 // bytes per character code: 1, 2 or 4
}

// GlyphLayout carries the sheet grid geometry from the TGLP chunk.
//
// SheetCount and SheetSize are recomputed on write from the actual sheet
// list; they are kept here so parsed values can be validated against it.
type GlyphLayout struct {
	CellWidth      uint8
	CellHeight     uint8
	SheetCount     uint8
	MaxGlyphWidth  uint8
	SheetSize      uint32
	Baseline       uint16
	Format         PixelFormat
	CellsPerRow    uint16
	CellsPerColumn uint16
	SheetWidth     uint16
	SheetHeight    uint16
}

// MetricRecord is the per-glyph width triple stored in CWDH chunks.
type MetricRecord struct {
	Left       int8  // distance from the left cell border to the ink
	GlyphWidth uint8 // ink width
	Advance    uint8 // total advance width
}

// MappingEntry is one character-code to glyph-index pair.
type MappingEntry struct {
	Code  uint32
	Glyph uint16
}

// opaqueChunk preserves an unrecognized chunk byte-for-byte.
type opaqueChunk struct {
	tag     string
	payload []byte
}

// Font is the in-memory model of one BFFNT file. It is built wholesale by
// Parse, mutated through its accessor methods and serialized by Encode.
// Concurrent mutation of a single Font must be serialized by the caller.
type Font struct {
	Version uint32
	Info    FontInfo
	Layout  GlyphLayout

	metricsFirst uint16
	metrics      []MetricRecord
	mapping      []MappingEntry // sorted by Code
	sheets       [][]byte       // raw tiled blobs, one per sheet
	opaque       []opaqueChunk
	order        []string // chunk tags in original file order
}

// GlyphCapacity returns the number of glyph cells across all sheets.
func (f *Font) GlyphCapacity() int {
	return len(f.sheets) * int(f.Layout.CellsPerRow) * int(f.Layout.CellsPerColumn)
}

// GlyphPosition resolves a glyph index to its sheet and cell coordinates.
func (f *Font) GlyphPosition(glyph uint16) (sheet, row, col int, err error) {
	perSheet := int(f.Layout.CellsPerRow) * int(f.Layout.CellsPerColumn)
	if perSheet == 0 || int(glyph) >= f.GlyphCapacity() {
		return 0, 0, 0, fmt.Errorf("%w: glyph %d of %d", ErrGlyphRange, glyph, f.GlyphCapacity())
	}

	local := int(glyph) % perSheet

	return int(glyph) / perSheet,
		local / int(f.Layout.CellsPerRow),
		local % int(f.Layout.CellsPerRow),
		nil
}

func (f *Font) defaultMetric() MetricRecord {
	return MetricRecord{
		Left:       f.Info.DefaultLeft,
		GlyphWidth: f.Info.DefaultWidth,
		Advance:    f.Info.DefaultAdvance,
	}
}

// Metric returns the width triple for a glyph, falling back to the FINF
// defaults for glyphs outside the stored CWDH coverage.
func (f *Font) Metric(glyph uint16) MetricRecord {
	i := int(glyph) - int(f.metricsFirst)
	if i < 0 || i >= len(f.metrics) {
		return f.defaultMetric()
	}

	return f.metrics[i]
}

// SetMetric stores the width triple for a glyph, extending the coverage
// range as needed; gaps are filled with the FINF defaults.
func (f *Font) SetMetric(glyph uint16, rec MetricRecord) {
	if len(f.metrics) == 0 {
		f.metricsFirst = glyph
		f.metrics = []MetricRecord{rec}
		return
	}

	g, first := int(glyph), int(f.metricsFirst)
	switch {
	case g < first:
		pad := make([]MetricRecord, first-g)
		for i := range pad {
			pad[i] = f.defaultMetric()
		}
		pad[0] = rec
		f.metrics = append(pad, f.metrics...)
		f.metricsFirst = glyph
	case g >= first+len(f.metrics):
		for first+len(f.metrics) <= g {
			f.metrics = append(f.metrics, f.defaultMetric())
		}
		f.metrics[g-first] = rec
	default:
		f.metrics[g-first] = rec
	}
}

// Metrics returns the first covered glyph index and a copy of the stored
// width records.
func (f *Font) Metrics() (uint16, []MetricRecord) {
	out := make([]MetricRecord, len(f.metrics))
	copy(out, f.metrics)

	return f.metricsFirst, out
}

// Resolve maps a character code to its glyph index, or to the fallback
// glyph when the code is unmapped.
func (f *Font) Resolve(code uint32) uint16 {
	if g, ok := f.Lookup(code); ok {
		return g
	}

	return f.Info.FallbackGlyph
}

// Lookup maps a character code to its glyph index.
func (f *Font) Lookup(code uint32) (uint16, bool) {
	i := sort.Search(len(f.mapping), func(i int) bool { return f.mapping[i].Code >= code })
	if i < len(f.mapping) && f.mapping[i].Code == code {
		return f.mapping[i].Glyph, true
	}

	return 0, false
}

// SetMapping maps a character code to a glyph index, replacing any
// previous mapping for the code.
func (f *Font) SetMapping(code uint32, glyph uint16) error {
	if int(glyph) >= f.GlyphCapacity() {
		return fmt.Errorf("%w: glyph %d of %d", ErrGlyphRange, glyph, f.GlyphCapacity())
	}

	i := sort.Search(len(f.mapping), func(i int) bool { return f.mapping[i].Code >= code })
	if i < len(f.mapping) && f.mapping[i].Code == code {
		f.mapping[i].Glyph = glyph
		return nil
	}

	f.mapping = append(f.mapping, MappingEntry{})
	copy(f.mapping[i+1:], f.mapping[i:])
	f.mapping[i] = MappingEntry{Code: code, Glyph: glyph}

	return nil
}

// RemoveMapping removes the mapping for a character code. It reports
// whether a mapping existed; the code then resolves to the fallback glyph.
func (f *Font) RemoveMapping(code uint32) bool {
	i := sort.Search(len(f.mapping), func(i int) bool { return f.mapping[i].Code >= code })
	if i >= len(f.mapping) || f.mapping[i].Code != code {
		return false
	}

	f.mapping = append(f.mapping[:i], f.mapping[i+1:]...)

	return true
}

// Mappings returns all code to glyph pairs ordered by character code.
func (f *Font) Mappings() []MappingEntry {
	out := make([]MappingEntry, len(f.mapping))
	copy(out, f.mapping)

	return out
}

// SheetCount returns the number of texture sheets.
func (f *Font) SheetCount() int {
	return len(f.sheets)
}

// SheetData returns a copy of the raw tiled blob of one sheet.
func (f *Font) SheetData(i int) ([]byte, error) {
	if i < 0 || i >= len(f.sheets) {
		return nil, fmt.Errorf("%w: sheet %d of %d", ErrSheetRange, i, len(f.sheets))
	}

	out := make([]byte, len(f.sheets[i]))
	copy(out, f.sheets[i])

	return out, nil
}

// ReplaceSheetData swaps the raw tiled blob of one sheet. The blob length
// must match the layout's format and dimensions.
func (f *Font) ReplaceSheetData(i int, blob []byte) error {
	if i < 0 || i >= len(f.sheets) {
		return fmt.Errorf("%w: sheet %d of %d", ErrSheetRange, i, len(f.sheets))
	}

	want := sheetDataLength(f.Layout.Format, int(f.Layout.SheetWidth), int(f.Layout.SheetHeight))
	if len(blob) != want {
		return fmt.Errorf("%w: sheet %d: expected %d bytes, got %d", ErrLayoutMismatch, i, want, len(blob))
	}

	f.sheets[i] = blob

	return nil
}

// validate checks the cross-chunk invariants of the model. Both Parse and
// Encode refuse models that fail it.
func (f *Font) validate() error {
	if !f.Layout.Format.valid() {
		return fmt.Errorf("%w: pixel format %d", ErrUnsupportedFormat, uint16(f.Layout.Format))
	}

	cw, ch := int(f.Layout.CellWidth), int(f.Layout.CellHeight)
	sw, sh := int(f.Layout.SheetWidth), int(f.Layout.SheetHeight)
	if cw == 0 || ch == 0 {
		return fmt.Errorf("%w: zero cell dimensions", ErrLayoutMismatch)
	}
	if sw%cw != 0 || sh%ch != 0 {
		return fmt.Errorf("%w: sheet %dx%d not a multiple of cell %dx%d", ErrLayoutMismatch, sw, sh, cw, ch)
	}
	if int(f.Layout.CellsPerRow) != sw/cw || int(f.Layout.CellsPerColumn) != sh/ch {
		return fmt.Errorf("%w: cell grid %dx%d does not cover sheet %dx%d", ErrLayoutMismatch,
			f.Layout.CellsPerRow, f.Layout.CellsPerColumn, sw, sh)
	}

	want := sheetDataLength(f.Layout.Format, sw, sh)
	for i, blob := range f.sheets {
		if len(blob) != want {
			return fmt.Errorf("%w: sheet %d: %d bytes, %s %dx%d needs %d", ErrLayoutMismatch,
				i, len(blob), f.Layout.Format, sw, sh, want)
		}
	}

	capacity := f.GlyphCapacity()
	if capacity > 0 && int(f.Info.FallbackGlyph) >= capacity {
		return fmt.Errorf("%w: fallback glyph %d of %d", ErrGlyphRange, f.Info.FallbackGlyph, capacity)
	}
	for _, e := range f.mapping {
		if int(e.Glyph) >= capacity {
			return fmt.Errorf("%w: code %#x maps to glyph %d of %d", ErrGlyphRange, e.Code, e.Glyph, capacity)
		}
	}

	if int(f.metricsFirst)+len(f.metrics) > maxUint16+1 {
		return fmt.Errorf("%w: metric range ends at %d", ErrSizeOverflow, int(f.metricsFirst)+len(f.metrics))
	}

	return nil
}

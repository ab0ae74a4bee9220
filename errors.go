package bffnt

import "errors"

var (
	// ErrBadSignature indicates a missing or foreign file signature.
	ErrBadSignature = errors.New("bad FFNT signature")
	// ErrTruncated indicates a declared size exceeds the available buffer.
	ErrTruncated = errors.New("truncated data")
	// ErrLayoutMismatch indicates cross-chunk layout fields disagree.
	ErrLayoutMismatch = errors.New("inconsistent layout")
	// ErrUnsupportedFormat indicates an unknown pixel format or chunk encoding.
	ErrUnsupportedFormat = errors.New("unsupported format")
	// ErrDimensionMismatch indicates dimensions unusable by a transform.
	ErrDimensionMismatch = errors.New("dimension mismatch")
	// ErrSidecarSchema indicates sidecar metadata and image set disagree.
	ErrSidecarSchema = errors.New("sidecar schema mismatch")

	// ErrSizeOverflow indicates a size or dimension exceeds supported limits.
	ErrSizeOverflow = errors.New("size overflow")
	// ErrGlyphRange indicates a glyph index outside the sheet grid capacity.
	ErrGlyphRange = errors.New("glyph index out of range")
	// ErrSheetRange indicates a sheet index outside the sheet list.
	ErrSheetRange = errors.New("sheet index out of range")

	// ErrCreateFile indicates an output file could not be created.
	ErrCreateFile = errors.New("create file failed")
	// ErrOpenFile indicates an input file could not be opened.
	ErrOpenFile = errors.New("open file failed")
	// ErrEncodeImage indicates sheet image encoding failed.
	ErrEncodeImage = errors.New("encode image failed")
	// ErrDecodeImage indicates sheet image decoding failed.
	ErrDecodeImage = errors.New("decode image failed")
	// ErrWriteSidecar indicates sidecar metadata write failed.
	ErrWriteSidecar = errors.New("write sidecar failed")
	// ErrReadSidecar indicates sidecar metadata read failed.
	ErrReadSidecar = errors.New("read sidecar failed")
)

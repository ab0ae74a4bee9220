package bffnt

import "fmt"

// PixelFormat identifies the on-disk encoding of a texture sheet.
// Values match the TextureFormat enum used by Nintendo font tooling.
type PixelFormat uint16

const (
	// FormatRGBA8888 is uncompressed 4 bytes per pixel.
	FormatRGBA8888 PixelFormat = 0
	// FormatLA8 is uncompressed luminance + alpha, 2 bytes per pixel.
	FormatLA8 PixelFormat = 5
	// FormatA8 is uncompressed single channel, 1 byte per pixel.
	FormatA8 PixelFormat = 8
	// FormatBC4 is block-compressed single channel, 8 bytes per 4x4 block.
	FormatBC4 PixelFormat = 12
	// FormatBC1 is block-compressed RGB with 1-bit alpha, 8 bytes per 4x4 block.
	FormatBC1 PixelFormat = 13
	// FormatBC3 is block-compressed RGBA, 16 bytes per 4x4 block.
	FormatBC3 PixelFormat = 15
)

func (f PixelFormat) String() string {
	switch f {
	case FormatRGBA8888:
		return "RGBA8888"
	case FormatLA8:
		return "LA8"
	case FormatA8:
		return "A8"
	case FormatBC4:
		return "BC4"
	case FormatBC1:
		return "BC1"
	case FormatBC3:
		return "BC3"
	default:
		return fmt.Sprintf("PixelFormat(%d)", uint16(f))
	}
}

func (f PixelFormat) valid() bool {
	switch f {
	case FormatRGBA8888, FormatLA8, FormatA8, FormatBC4, FormatBC1, FormatBC3:
		return true
	default:
		return false
	}
}

// blockDim returns the pixel width and height of one coding block.
func (f PixelFormat) blockDim() (int, int) {
	switch f {
	case FormatBC1, FormatBC3, FormatBC4:
		return 4, 4
	default:
		return 1, 1
	}
}

// blockBytes returns the byte size of one coding block.
func (f PixelFormat) blockBytes() int {
	switch f {
	case FormatRGBA8888:
		return 4
	case FormatLA8:
		return 2
	case FormatA8:
		return 1
	case FormatBC1, FormatBC4:
		return 8
	case FormatBC3:
		return 16
	default:
		return 0
	}
}

// parsePixelFormat validates a raw TGLP format field.
func parsePixelFormat(v uint16) (PixelFormat, error) {
	f := PixelFormat(v)
	if !f.valid() {
		return f, fmt.Errorf("%w: pixel format %d", ErrUnsupportedFormat, v)
	}

	return f, nil
}

// sheetDataLength returns the byte length of one sheet blob for the format
// and pixel dimensions, identical for the tiled and linear layouts.
func sheetDataLength(f PixelFormat, width, height int) int {
	bw, bh := f.blockDim()
	return ceilDiv(width, bw) * ceilDiv(height, bh) * f.blockBytes()
}

// formatByName resolves a sidecar format string.
func formatByName(name string) (PixelFormat, error) {
	for _, f := range []PixelFormat{
		FormatRGBA8888, FormatLA8, FormatA8, FormatBC4, FormatBC1, FormatBC3,
	} {
		if f.String() == name {
			return f, nil
		}
	}

	return 0, fmt.Errorf("%w: pixel format %q", ErrUnsupportedFormat, name)
}

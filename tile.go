package bffnt

import "fmt"

// Sheets are stored in the Tegra X1 block-linear layout: block rows are
// grouped into 512-byte GOBs (64 bytes wide, 8 rows tall), GOBs are stacked
// gobHeight-deep into tiles, and addressing inside a GOB interleaves the low
// row bits with the low column-byte bits. The transform moves opaque
// block-sized byte groups and carries no pixel-format semantics.
const (
	gobWidthBytes = 64
	gobRows       = 8
	gobBytes      = gobWidthBytes * gobRows
	maxGOBHeight  = 16
)

// gobHeightFor returns the GOB stacking height for a sheet with the given
// number of block rows: the next power of two of rows/8, capped at 16.
func gobHeightFor(blockRows int) int {
	h := pow2RoundUp(ceilDiv(blockRows, gobRows))
	if h > maxGOBHeight {
		h = maxGOBHeight
	}

	return h
}

// tiledOffset returns the byte offset of the block at (col, row) in the
// tiled layout. rowGOBs is the number of GOBs per block row, gobHeight the
// GOB stacking height.
func tiledOffset(col, row, blockBytes, rowGOBs, gobHeight int) int {
	xb := col * blockBytes

	base := (row/(gobRows*gobHeight))*gobBytes*gobHeight*rowGOBs +
		(xb/gobWidthBytes)*gobBytes*gobHeight +
		(row%(gobRows*gobHeight)/gobRows)*gobBytes

	return base +
		(xb%64/32)*256 +
		(row%8/2)*64 +
		(xb%32/16)*32 +
		(row%2)*16 +
		xb%16
}

// tileGeometry validates dimensions for the tiling transform and returns
// the block grid, block byte size, GOBs per row and GOB height.
//
// The transform is only defined where the tiled layout needs no padding:
// the byte width of a block row must be a multiple of 64 and the block row
// count a multiple of 8*gobHeight. Font sheets use power-of-two dimensions
// that always satisfy both.
func tileGeometry(width, height int, f PixelFormat) (cols, rows, bpb, rowGOBs, gobHeight int, err error) {
	if !f.valid() {
		return 0, 0, 0, 0, 0, fmt.Errorf("%w: pixel format %d", ErrUnsupportedFormat, uint16(f))
	}

	bw, bh := f.blockDim()
	if width <= 0 || height <= 0 || width%bw != 0 || height%bh != 0 {
		return 0, 0, 0, 0, 0, fmt.Errorf("%w: %dx%d not a multiple of %s block %dx%d",
			ErrDimensionMismatch, width, height, f, bw, bh)
	}

	cols, rows = width/bw, height/bh
	bpb = f.blockBytes()

	rowBytes := cols * bpb
	if rowBytes%gobWidthBytes != 0 {
		return 0, 0, 0, 0, 0, fmt.Errorf("%w: %s row of %d bytes not GOB aligned",
			ErrDimensionMismatch, f, rowBytes)
	}

	gobHeight = gobHeightFor(rows)
	if rows%(gobRows*gobHeight) != 0 {
		return 0, 0, 0, 0, 0, fmt.Errorf("%w: %d block rows not a multiple of tile height %d",
			ErrDimensionMismatch, rows, gobRows*gobHeight)
	}

	return cols, rows, bpb, rowBytes / gobWidthBytes, gobHeight, nil
}

// ToLinear converts a tiled sheet blob into linear row-major block order.
// It is the exact inverse of ToTiled for all accepted dimensions.
func ToLinear(tiled []byte, width, height int, f PixelFormat) ([]byte, error) {
	return retile(tiled, width, height, f, false)
}

// ToTiled converts a linear row-major sheet blob into the tiled layout.
func ToTiled(linear []byte, width, height int, f PixelFormat) ([]byte, error) {
	return retile(linear, width, height, f, true)
}

func retile(data []byte, width, height int, f PixelFormat, toTiled bool) ([]byte, error) {
	cols, rows, bpb, rowGOBs, gobHeight, err := tileGeometry(width, height, f)
	if err != nil {
		return nil, err
	}

	size := cols * rows * bpb
	if len(data) != size {
		return nil, fmt.Errorf("%w: %d bytes, %s %dx%d needs %d",
			ErrDimensionMismatch, len(data), f, width, height, size)
	}

	out := make([]byte, size)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			tiled := tiledOffset(col, row, bpb, rowGOBs, gobHeight)
			linear := (row*cols + col) * bpb

			if toTiled {
				copy(out[tiled:tiled+bpb], data[linear:linear+bpb])
			} else {
				copy(out[linear:linear+bpb], data[tiled:tiled+bpb])
			}
		}
	}

	return out, nil
}

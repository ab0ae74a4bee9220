package bffnt

import (
	"bytes"
	"fmt"
	"image"
)

// DecodeSheetData converts a raw tiled sheet blob into a linear NRGBA
// raster: the tiling transform first, then per-block decoding left to
// right, top to bottom.
func DecodeSheetData(blob []byte, layout GlyphLayout) (*image.NRGBA, error) {
	w, h := int(layout.SheetWidth), int(layout.SheetHeight)
	f := layout.Format

	linear, err := ToLinear(blob, w, h, f)
	if err != nil {
		return nil, err
	}

	codec := codecFor(f)
	bw, bh := f.blockDim()
	bpb := f.blockBytes()
	cols := w / bw

	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	var px [64]byte

	for by := 0; by < h/bh; by++ {
		for bx := 0; bx < cols; bx++ {
			src := linear[(by*cols+bx)*bpb:]
			codec.decode(src[:bpb], px[:])

			for py := 0; py < bh; py++ {
				off := img.PixOffset(bx*bw, by*bh+py)
				copy(img.Pix[off:off+bw*4], px[py*bw*4:(py+1)*bw*4])
			}
		}
	}

	return img, nil
}

// EncodeSheetData converts a linear NRGBA raster back into a raw tiled
// sheet blob in the layout's pixel format. The raster dimensions must
// exactly match the layout; there is no resizing.
func EncodeSheetData(img *image.NRGBA, layout GlyphLayout) ([]byte, error) {
	w, h := int(layout.SheetWidth), int(layout.SheetHeight)
	f := layout.Format

	if img.Bounds().Dx() != w || img.Bounds().Dy() != h {
		return nil, fmt.Errorf("%w: raster %dx%d, sheet is %dx%d",
			ErrDimensionMismatch, img.Bounds().Dx(), img.Bounds().Dy(), w, h)
	}
	if _, _, _, _, _, err := tileGeometry(w, h, f); err != nil {
		return nil, err
	}

	codec := codecFor(f)
	bw, bh := f.blockDim()
	bpb := f.blockBytes()
	cols := w / bw

	linear := make([]byte, sheetDataLength(f, w, h))
	var px [64]byte
	min := img.Bounds().Min

	for by := 0; by < h/bh; by++ {
		for bx := 0; bx < cols; bx++ {
			for py := 0; py < bh; py++ {
				off := img.PixOffset(min.X+bx*bw, min.Y+by*bh+py)
				copy(px[py*bw*4:(py+1)*bw*4], img.Pix[off:off+bw*4])
			}

			dst := linear[(by*cols+bx)*bpb:]
			codec.encode(px[:], dst[:bpb])
		}
	}

	return ToTiled(linear, w, h, f)
}

// DecodeSheet decodes one texture sheet into an editable NRGBA raster.
func (f *Font) DecodeSheet(i int) (*image.NRGBA, error) {
	if i < 0 || i >= len(f.sheets) {
		return nil, fmt.Errorf("%w: sheet %d of %d", ErrSheetRange, i, len(f.sheets))
	}

	return DecodeSheetData(f.sheets[i], f.Layout)
}

// ReplaceSheetRaster re-encodes an edited raster into sheet i. A raster
// pixel-identical to the current decode leaves the stored blob untouched,
// so reimporting unedited sheets is byte-lossless even for the lossy BC
// formats.
func (f *Font) ReplaceSheetRaster(i int, img *image.NRGBA) error {
	current, err := f.DecodeSheet(i)
	if err != nil {
		return err
	}
	if rasterEqual(current, img) {
		return nil
	}

	blob, err := EncodeSheetData(img, f.Layout)
	if err != nil {
		return err
	}
	f.sheets[i] = blob

	return nil
}

func rasterEqual(a, b *image.NRGBA) bool {
	if a.Bounds().Dx() != b.Bounds().Dx() || a.Bounds().Dy() != b.Bounds().Dy() {
		return false
	}

	w := a.Bounds().Dx() * 4
	for y := 0; y < a.Bounds().Dy(); y++ {
		ao := a.PixOffset(a.Bounds().Min.X, a.Bounds().Min.Y+y)
		bo := b.PixOffset(b.Bounds().Min.X, b.Bounds().Min.Y+y)
		if !bytes.Equal(a.Pix[ao:ao+w], b.Pix[bo:bo+w]) {
			return false
		}
	}

	return true
}

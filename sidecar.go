package bffnt

import (
	"encoding/json"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
)

// metadataName is the fixed name of the JSON document inside a sidecar
// directory.
const metadataName = "metadata.json"

// ExportOptions controls optional sidecar artifacts. The zero value
// exports metadata and plain sheet images only.
type ExportOptions struct {
	// GridGuides additionally writes sheet_N_grid.png files with the
	// glyph cell borders drawn over the sheet. Guide images are for
	// eyeballing alignment while editing and are ignored by Import.
	GridGuides bool
}

type sidecarInfo struct {
	FontType       uint8  `json:"fontType"`
	Height         uint8  `json:"height"`
	Width          uint8  `json:"width"`
	Ascent         uint8  `json:"ascent"`
	LineFeed       uint16 `json:"lineFeed"`
	FallbackGlyph  uint16 `json:"fallbackGlyph"`
	DefaultLeft    int8   `json:"defaultLeft"`
	DefaultWidth   uint8  `json:"defaultWidth"`
	DefaultAdvance uint8  `json:"defaultAdvance"`
	Encoding       uint8  `json:"encoding"`
}

type sidecarLayout struct {
	CellWidth      uint8  `json:"cellWidth"`
	CellHeight     uint8  `json:"cellHeight"`
	MaxGlyphWidth  uint8  `json:"maxGlyphWidth"`
	Baseline       uint16 `json:"baseline"`
	CellsPerRow    uint16 `json:"cellsPerRow"`
	CellsPerColumn uint16 `json:"cellsPerColumn"`
}

type sidecarMetric struct {
	GlyphIndex uint16 `json:"glyphIndex"`
	Left       int8   `json:"left"`
	Width      uint8  `json:"width"`
	Advance    uint8  `json:"advance"`
}

type sidecarMapping struct {
	Code       uint32 `json:"code"`
	GlyphIndex uint16 `json:"glyphIndex"`
}

type sidecarSheet struct {
	Index     int    `json:"index"`
	Format    string `json:"format"`
	Width     int    `json:"width"`
	Height    int    `json:"height"`
	ImageFile string `json:"imageFile"`
}

type sidecarDoc struct {
	Version uint32           `json:"version"`
	Info    sidecarInfo      `json:"info"`
	Layout  sidecarLayout    `json:"layout"`
	Metrics []sidecarMetric  `json:"metrics"`
	Mapping []sidecarMapping `json:"mapping"`
	Sheets  []sidecarSheet   `json:"sheets"`
}

// Export writes the font as an editable sidecar directory: one PNG per
// sheet plus a metadata.json describing everything the PNGs cannot carry.
// The directory is created if missing; existing files are overwritten.
func (f *Font) Export(dir string, opts *ExportOptions) error {
	if opts == nil {
		opts = &ExportOptions{}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: %v", ErrCreateFile, err)
	}

	doc := sidecarDoc{
		Version: f.Version,
		Info: sidecarInfo{
			FontType:       f.Info.FontType,
			Height:         f.Info.Height,
			Width:          f.Info.Width,
			Ascent:         f.Info.Ascent,
			LineFeed:       f.Info.LineFeed,
			FallbackGlyph:  f.Info.FallbackGlyph,
			DefaultLeft:    f.Info.DefaultLeft,
			DefaultWidth:   f.Info.DefaultWidth,
			DefaultAdvance: f.Info.DefaultAdvance,
			Encoding:       f.Info.Encoding,
		},
		Layout: sidecarLayout{
			CellWidth:      f.Layout.CellWidth,
			CellHeight:     f.Layout.CellHeight,
			MaxGlyphWidth:  f.Layout.MaxGlyphWidth,
			Baseline:       f.Layout.Baseline,
			CellsPerRow:    f.Layout.CellsPerRow,
			CellsPerColumn: f.Layout.CellsPerColumn,
		},
		Metrics: []sidecarMetric{},
		Mapping: []sidecarMapping{},
		Sheets:  []sidecarSheet{},
	}

	first, recs := f.Metrics()
	for i, rec := range recs {
		doc.Metrics = append(doc.Metrics, sidecarMetric{
			GlyphIndex: first + uint16(i),
			Left:       rec.Left,
			Width:      rec.GlyphWidth,
			Advance:    rec.Advance,
		})
	}
	for _, e := range f.Mappings() {
		doc.Mapping = append(doc.Mapping, sidecarMapping{Code: e.Code, GlyphIndex: e.Glyph})
	}

	for i := 0; i < f.SheetCount(); i++ {
		img, err := f.DecodeSheet(i)
		if err != nil {
			return err
		}

		name := fmt.Sprintf("sheet_%d.png", i)
		if err := writePNG(filepath.Join(dir, name), img); err != nil {
			return err
		}
		if opts.GridGuides {
			guide := drawCellGrid(img, int(f.Layout.CellWidth), int(f.Layout.CellHeight))
			guideName := fmt.Sprintf("sheet_%d_grid.png", i)
			if err := writePNG(filepath.Join(dir, guideName), guide); err != nil {
				return err
			}
		}

		doc.Sheets = append(doc.Sheets, sidecarSheet{
			Index:     i,
			Format:    f.Layout.Format.String(),
			Width:     int(f.Layout.SheetWidth),
			Height:    int(f.Layout.SheetHeight),
			ImageFile: name,
		})
	}

	blob, err := json.MarshalIndent(&doc, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWriteSidecar, err)
	}
	blob = append(blob, '\n')
	if err := os.WriteFile(filepath.Join(dir, metadataName), blob, 0o644); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteSidecar, err)
	}

	return nil
}

// Import applies a sidecar directory back onto the font: sheet rasters,
// glyph metrics, the character mapping and the editable header fields.
// The sidecar is validated against the font's layout before anything is
// mutated, so a failed import leaves the font untouched. Sheets whose
// decoded pixels are unchanged keep their original binary blobs.
func (f *Font) Import(dir string) error {
	blob, err := os.ReadFile(filepath.Join(dir, metadataName))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrReadSidecar, err)
	}

	var doc sidecarDoc
	if err := json.Unmarshal(blob, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrSidecarSchema, err)
	}

	if doc.Layout.CellWidth != f.Layout.CellWidth || doc.Layout.CellHeight != f.Layout.CellHeight ||
		doc.Layout.CellsPerRow != f.Layout.CellsPerRow || doc.Layout.CellsPerColumn != f.Layout.CellsPerColumn {
		return fmt.Errorf("%w: sidecar cell layout does not match the font", ErrSidecarSchema)
	}

	capacity := f.GlyphCapacity()
	for _, m := range doc.Metrics {
		if int(m.GlyphIndex) >= capacity {
			return fmt.Errorf("%w: metric for glyph %d, font holds %d", ErrSidecarSchema, m.GlyphIndex, capacity)
		}
	}
	for _, m := range doc.Mapping {
		if int(m.GlyphIndex) >= capacity {
			return fmt.Errorf("%w: mapping %#x to glyph %d, font holds %d", ErrSidecarSchema, m.Code, m.GlyphIndex, capacity)
		}
	}

	rasters := make(map[int]*image.NRGBA, len(doc.Sheets))
	for _, s := range doc.Sheets {
		if s.Index < 0 || s.Index >= f.SheetCount() {
			return fmt.Errorf("%w: sheet index %d, font holds %d", ErrSidecarSchema, s.Index, f.SheetCount())
		}
		if _, ok := rasters[s.Index]; ok {
			return fmt.Errorf("%w: duplicate sheet index %d", ErrSidecarSchema, s.Index)
		}
		format, err := formatByName(s.Format)
		if err != nil || format != f.Layout.Format {
			return fmt.Errorf("%w: sheet %d format %q, font uses %q", ErrSidecarSchema, s.Index, s.Format, f.Layout.Format)
		}
		if s.Width != int(f.Layout.SheetWidth) || s.Height != int(f.Layout.SheetHeight) {
			return fmt.Errorf("%w: sheet %d declared %dx%d, font uses %dx%d",
				ErrSidecarSchema, s.Index, s.Width, s.Height, f.Layout.SheetWidth, f.Layout.SheetHeight)
		}

		img, err := readPNG(filepath.Join(dir, s.ImageFile))
		if err != nil {
			return err
		}
		b := img.Bounds()
		if b.Dx() != s.Width || b.Dy() != s.Height {
			return fmt.Errorf("%w: sheet %d image is %dx%d, metadata declares %dx%d",
				ErrSidecarSchema, s.Index, b.Dx(), b.Dy(), s.Width, s.Height)
		}
		rasters[s.Index] = img
	}
	if len(rasters) != f.SheetCount() {
		return fmt.Errorf("%w: metadata describes %d of %d sheets", ErrSidecarSchema, len(rasters), f.SheetCount())
	}

	// Validation passed; mutate.
	f.Version = doc.Version
	f.Info = FontInfo{
		FontType:       doc.Info.FontType,
		Height:         doc.Info.Height,
		Width:          doc.Info.Width,
		Ascent:         doc.Info.Ascent,
		LineFeed:       doc.Info.LineFeed,
		FallbackGlyph:  doc.Info.FallbackGlyph,
		DefaultLeft:    doc.Info.DefaultLeft,
		DefaultWidth:   doc.Info.DefaultWidth,
		DefaultAdvance: doc.Info.DefaultAdvance,
		Encoding:       doc.Info.Encoding,
	}
	f.Layout.MaxGlyphWidth = doc.Layout.MaxGlyphWidth
	f.Layout.Baseline = doc.Layout.Baseline

	f.metricsFirst = 0
	f.metrics = nil
	for _, m := range doc.Metrics {
		f.SetMetric(m.GlyphIndex, MetricRecord{Left: m.Left, GlyphWidth: m.Width, Advance: m.Advance})
	}

	f.mapping = f.mapping[:0]
	for _, m := range doc.Mapping {
		if err := f.SetMapping(m.Code, m.GlyphIndex); err != nil {
			return err
		}
	}

	for idx, img := range rasters {
		if err := f.ReplaceSheetRaster(idx, img); err != nil {
			return err
		}
	}

	return nil
}

func writePNG(path string, img image.Image) error {
	fd, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrCreateFile, err)
	}
	defer fd.Close()

	if err := png.Encode(fd, img); err != nil {
		return fmt.Errorf("%w: %v", ErrEncodeImage, err)
	}
	if err := fd.Close(); err != nil {
		return fmt.Errorf("%w: %v", ErrWriteSidecar, err)
	}

	return nil
}

func readPNG(path string) (*image.NRGBA, error) {
	fd, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSidecarSchema, err)
	}
	defer fd.Close()

	img, err := png.Decode(fd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecodeImage, err)
	}

	// Editors save PNG in whatever color model suits them; normalize to
	// NRGBA before touching the texture pipeline.
	return imaging.Clone(img), nil
}

// drawCellGrid returns a copy of img with cell borders drawn in magenta.
func drawCellGrid(img *image.NRGBA, cellW, cellH int) *image.NRGBA {
	out := imaging.Clone(img)
	line := color.NRGBA{R: 255, A: 255, B: 255}

	b := out.Bounds()
	for x := 0; x < b.Dx(); x += cellW {
		for y := 0; y < b.Dy(); y++ {
			out.SetNRGBA(x, y, line)
		}
	}
	for y := 0; y < b.Dy(); y += cellH {
		for x := 0; x < b.Dx(); x++ {
			out.SetNRGBA(x, y, line)
		}
	}

	return out
}

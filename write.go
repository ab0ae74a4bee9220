package bffnt

import (
	"encoding/binary"
	"fmt"
)

type chunk struct {
	tag     string
	payload []byte
}

// Encode serializes the model back into the chunked binary layout. Output
// is deterministic: chunk sizes, the root header's file size and chunk
// count are recomputed from the model, never trusted from parse time.
// Opaque chunks are re-emitted verbatim at their original positions; the
// model itself is not mutated.
func (f *Font) Encode() ([]byte, error) {
	if err := f.validate(); err != nil {
		return nil, err
	}
	if len(f.sheets) > int(^uint8(0)) {
		return nil, fmt.Errorf("%w: %d sheets", ErrSizeOverflow, len(f.sheets))
	}

	payloads := map[string][]byte{
		tagFINF: f.encodeFINF(),
		tagTGLP: f.encodeTGLP(),
		tagCWDH: f.encodeCWDH(),
		tagCMAP: f.encodeCMAP(),
	}

	order := f.order
	if len(order) == 0 {
		order = []string{tagFINF, tagTGLP, tagTXSH, tagCWDH, tagCMAP}
	}

	var chunks []chunk
	emitted := make(map[string]bool)
	opaqueIdx := 0

	appendKind := func(tag string) {
		if emitted[tag] {
			return
		}
		emitted[tag] = true

		if tag == tagTXSH {
			for _, blob := range f.sheets {
				chunks = append(chunks, chunk{tag: tagTXSH, payload: blob})
			}
			return
		}
		if p := payloads[tag]; p != nil {
			chunks = append(chunks, chunk{tag: tag, payload: p})
		}
	}

	for _, tag := range order {
		switch tag {
		case tagFINF, tagTGLP, tagCWDH, tagCMAP, tagTXSH:
			appendKind(tag)
		default:
			if opaqueIdx < len(f.opaque) {
				o := f.opaque[opaqueIdx]
				opaqueIdx++
				chunks = append(chunks, chunk{tag: o.tag, payload: o.payload})
			}
		}
	}
	// Kinds that gained content since parse time still get written.
	for _, tag := range []string{tagFINF, tagTGLP, tagTXSH, tagCWDH, tagCMAP} {
		appendKind(tag)
	}

	total := rootHeaderSize
	for _, c := range chunks {
		total += align4(8 + len(c.payload))
	}

	fileSize, err := u32FromInt(total)
	if err != nil {
		return nil, err
	}
	chunkCount, err := u16FromInt(len(chunks))
	if err != nil {
		return nil, err
	}

	buf := make([]byte, total)
	copy(buf[0:4], fontMagic)
	binary.BigEndian.PutUint16(buf[4:], bomLittle)
	binary.LittleEndian.PutUint16(buf[6:], rootHeaderSize)
	binary.LittleEndian.PutUint32(buf[8:], f.Version)
	binary.LittleEndian.PutUint32(buf[12:], fileSize)
	binary.LittleEndian.PutUint16(buf[16:], chunkCount)

	off := rootHeaderSize
	for _, c := range chunks {
		size := align4(8 + len(c.payload))
		copy(buf[off:off+4], c.tag)
		binary.LittleEndian.PutUint32(buf[off+4:], uint32(size))
		copy(buf[off+8:], c.payload)
		off += size
	}

	return buf, nil
}

func (f *Font) encodeFINF() []byte {
	p := make([]byte, 12)
	p[0] = f.Info.FontType
	p[1] = f.Info.Height
	p[2] = f.Info.Width
	p[3] = f.Info.Ascent
	binary.LittleEndian.PutUint16(p[4:], f.Info.LineFeed)
	binary.LittleEndian.PutUint16(p[6:], f.Info.FallbackGlyph)
	p[8] = byte(f.Info.DefaultLeft)
	p[9] = f.Info.DefaultWidth
	p[10] = f.Info.DefaultAdvance
	p[11] = f.Info.Encoding

	return p
}

func (f *Font) encodeTGLP() []byte {
	p := make([]byte, 20)
	p[0] = f.Layout.CellWidth
	p[1] = f.Layout.CellHeight
	p[2] = uint8(len(f.sheets))
	p[3] = f.Layout.MaxGlyphWidth
	binary.LittleEndian.PutUint32(p[4:], uint32(sheetDataLength(
		f.Layout.Format, int(f.Layout.SheetWidth), int(f.Layout.SheetHeight))))
	binary.LittleEndian.PutUint16(p[8:], f.Layout.Baseline)
	binary.LittleEndian.PutUint16(p[10:], uint16(f.Layout.Format))
	binary.LittleEndian.PutUint16(p[12:], f.Layout.CellsPerRow)
	binary.LittleEndian.PutUint16(p[14:], f.Layout.CellsPerColumn)
	binary.LittleEndian.PutUint16(p[16:], f.Layout.SheetWidth)
	binary.LittleEndian.PutUint16(p[18:], f.Layout.SheetHeight)

	return p
}

func (f *Font) encodeCWDH() []byte {
	if len(f.metrics) == 0 {
		return nil
	}

	p := make([]byte, 4+3*len(f.metrics))
	binary.LittleEndian.PutUint16(p[0:], f.metricsFirst)
	binary.LittleEndian.PutUint16(p[2:], f.metricsFirst+uint16(len(f.metrics)-1))
	for i, rec := range f.metrics {
		p[4+3*i] = byte(rec.Left)
		p[4+3*i+1] = rec.GlyphWidth
		p[4+3*i+2] = rec.Advance
	}

	return p
}

// encodeCMAP re-encodes the mapping in the most compact applicable scheme:
// a direct range when both codes and glyph indices are contiguous runs,
// else the smaller of the table and scan encodings. This is a writer
// policy, not a format requirement; the chunk encoding may therefore
// change between load and save while the code to glyph function is
// preserved.
func (f *Font) encodeCMAP() []byte {
	m := f.mapping
	if len(m) == 0 {
		return nil
	}

	begin, end := m[0].Code, m[len(m)-1].Code

	direct := true
	for i, e := range m {
		if e.Code != begin+uint32(i) || uint32(e.Glyph) != uint32(m[0].Glyph)+uint32(i) {
			direct = false
			break
		}
	}

	head := func(method uint16, bodyLen int) []byte {
		p := make([]byte, 12+bodyLen)
		binary.LittleEndian.PutUint32(p[0:], begin)
		binary.LittleEndian.PutUint32(p[4:], end)
		binary.LittleEndian.PutUint16(p[8:], method)
		return p
	}

	if direct {
		p := head(cmapDirect, 4)
		binary.LittleEndian.PutUint16(p[12:], m[0].Glyph)
		return p
	}

	span := int64(end) - int64(begin) + 1
	tableBytes := 2 * span
	scanBytes := int64(4 + 8*len(m))

	// The scan count field is a u16, so larger mappings must take the
	// table encoding even when a scan chunk would be smaller.
	if tableBytes <= scanBytes || len(m) > maxUint16 {
		p := head(cmapTable, int(span)*2)
		for i := int64(0); i < span; i++ {
			binary.LittleEndian.PutUint16(p[12+2*i:], uint16(unmappedGlyph&0xffff))
		}
		for _, e := range m {
			binary.LittleEndian.PutUint16(p[12+2*int64(e.Code-begin):], e.Glyph)
		}
		return p
	}

	p := head(cmapScan, 4+8*len(m))
	binary.LittleEndian.PutUint16(p[12:], uint16(len(m)))
	for i, e := range m {
		entry := p[16+8*i:]
		binary.LittleEndian.PutUint32(entry, e.Code)
		binary.LittleEndian.PutUint16(entry[4:], e.Glyph)
	}

	return p
}

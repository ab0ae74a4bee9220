package bffnt

import (
	"encoding/binary"
	"fmt"
	"sort"
)

const (
	fontMagic      = "FFNT"
	bomLittle      = 0xFFFE // stored big-endian, so the file begins FF FE
	rootHeaderSize = 20

	tagFINF = "FINF"
	tagTGLP = "TGLP"
	tagCWDH = "CWDH"
	tagCMAP = "CMAP"
	tagTXSH = "TXSH"
)

// CMAP sub-encodings.
const (
	cmapDirect = 0
	cmapTable  = 1
	cmapScan   = 2
)

// unmappedGlyph marks a hole in table and scan CMAP payloads.
const unmappedGlyph = -1

type cwdhSection struct {
	first uint16
	recs  []MetricRecord
}

// Parse reads a complete font model from an in-memory BFFNT buffer.
// Parsing is all-or-nothing: on any error no partially initialized model
// is returned.
func Parse(data []byte) (*Font, error) {
	if len(data) < rootHeaderSize {
		return nil, fmt.Errorf("%w: %d bytes, root header needs %d", ErrTruncated, len(data), rootHeaderSize)
	}
	if string(data[0:4]) != fontMagic {
		return nil, fmt.Errorf("%w: %q", ErrBadSignature, data[0:4])
	}
	if bom := binary.BigEndian.Uint16(data[4:]); bom != bomLittle {
		return nil, fmt.Errorf("%w: byte order mark %#04x", ErrBadSignature, bom)
	}

	headerSize := int(binary.LittleEndian.Uint16(data[6:]))
	version := binary.LittleEndian.Uint32(data[8:])
	fileSize := int(binary.LittleEndian.Uint32(data[12:]))
	chunkCount := int(binary.LittleEndian.Uint16(data[16:]))

	if headerSize < rootHeaderSize || headerSize > len(data) {
		return nil, fmt.Errorf("%w: header size %d", ErrTruncated, headerSize)
	}
	if fileSize < headerSize || fileSize > len(data) {
		return nil, fmt.Errorf("%w: declared file size %d, buffer holds %d", ErrTruncated, fileSize, len(data))
	}

	font := &Font{Version: version}
	var haveFINF, haveTGLP bool
	var cwdhs []cwdhSection
	var entries []MappingEntry
	seen := make(map[uint32]struct{})

	off := headerSize
	for i := 0; i < chunkCount; i++ {
		if off+8 > fileSize {
			return nil, fmt.Errorf("%w: chunk %d header at %d", ErrTruncated, i, off)
		}

		tag := string(data[off : off+4])
		size := int(binary.LittleEndian.Uint32(data[off+4:]))
		if size < 8 || off+size > fileSize {
			return nil, fmt.Errorf("%w: chunk %q size %d at %d", ErrTruncated, tag, size, off)
		}
		payload := data[off+8 : off+size]

		var err error
		switch tag {
		case tagFINF:
			err = parseFINF(&font.Info, payload)
			haveFINF = true
		case tagTGLP:
			err = parseTGLP(&font.Layout, payload)
			haveTGLP = true
		case tagCWDH:
			var sec cwdhSection
			if sec, err = parseCWDH(payload); err == nil {
				cwdhs = append(cwdhs, sec)
			}
		case tagCMAP:
			// Earlier chunks win when ranges overlap.
			err = parseCMAP(payload, func(code uint32, glyph uint16) {
				if _, ok := seen[code]; ok {
					return
				}
				seen[code] = struct{}{}
				entries = append(entries, MappingEntry{Code: code, Glyph: glyph})
			})
		case tagTXSH:
			font.sheets = append(font.sheets, append([]byte(nil), payload...))
		default:
			font.opaque = append(font.opaque, opaqueChunk{tag: tag, payload: append([]byte(nil), payload...)})
		}
		if err != nil {
			return nil, err
		}

		font.order = append(font.order, tag)
		off += size
	}

	if !haveFINF {
		return nil, fmt.Errorf("%w: missing FINF chunk", ErrLayoutMismatch)
	}
	if !haveTGLP {
		return nil, fmt.Errorf("%w: missing TGLP chunk", ErrLayoutMismatch)
	}
	if len(font.sheets) != int(font.Layout.SheetCount) {
		return nil, fmt.Errorf("%w: TGLP declares %d sheets, file carries %d",
			ErrLayoutMismatch, font.Layout.SheetCount, len(font.sheets))
	}

	want := sheetDataLength(font.Layout.Format, int(font.Layout.SheetWidth), int(font.Layout.SheetHeight))
	if int(font.Layout.SheetSize) != want {
		return nil, fmt.Errorf("%w: TGLP sheet size %d, %s %dx%d needs %d", ErrLayoutMismatch,
			font.Layout.SheetSize, font.Layout.Format, font.Layout.SheetWidth, font.Layout.SheetHeight, want)
	}

	mergeMetrics(font, cwdhs)

	sort.Slice(entries, func(i, j int) bool { return entries[i].Code < entries[j].Code })
	font.mapping = entries

	if err := font.validate(); err != nil {
		return nil, err
	}

	return font, nil
}

func parseFINF(info *FontInfo, payload []byte) error {
	if len(payload) < 12 {
		return fmt.Errorf("%w: FINF payload %d bytes", ErrTruncated, len(payload))
	}

	info.FontType = payload[0]
	info.Height = payload[1]
	info.Width = payload[2]
	info.Ascent = payload[3]
	info.LineFeed = binary.LittleEndian.Uint16(payload[4:])
	info.FallbackGlyph = binary.LittleEndian.Uint16(payload[6:])
	info.DefaultLeft = int8(payload[8])
	info.DefaultWidth = payload[9]
	info.DefaultAdvance = payload[10]
	info.Encoding = payload[11]

	return nil
}

func parseTGLP(layout *GlyphLayout, payload []byte) error {
	if len(payload) < 20 {
		return fmt.Errorf("%w: TGLP payload %d bytes", ErrTruncated, len(payload))
	}

	layout.CellWidth = payload[0]
	layout.CellHeight = payload[1]
	layout.SheetCount = payload[2]
	layout.MaxGlyphWidth = payload[3]
	layout.SheetSize = binary.LittleEndian.Uint32(payload[4:])
	layout.Baseline = binary.LittleEndian.Uint16(payload[8:])

	format, err := parsePixelFormat(binary.LittleEndian.Uint16(payload[10:]))
	if err != nil {
		return err
	}
	layout.Format = format

	layout.CellsPerRow = binary.LittleEndian.Uint16(payload[12:])
	layout.CellsPerColumn = binary.LittleEndian.Uint16(payload[14:])
	layout.SheetWidth = binary.LittleEndian.Uint16(payload[16:])
	layout.SheetHeight = binary.LittleEndian.Uint16(payload[18:])

	return nil
}

func parseCWDH(payload []byte) (cwdhSection, error) {
	if len(payload) < 4 {
		return cwdhSection{}, fmt.Errorf("%w: CWDH payload %d bytes", ErrTruncated, len(payload))
	}

	first := binary.LittleEndian.Uint16(payload[0:])
	last := binary.LittleEndian.Uint16(payload[2:])
	if last < first {
		return cwdhSection{}, fmt.Errorf("%w: CWDH range %d..%d", ErrLayoutMismatch, first, last)
	}

	n := int(last) - int(first) + 1
	if len(payload) < 4+3*n {
		return cwdhSection{}, fmt.Errorf("%w: CWDH declares %d records in %d bytes", ErrTruncated, n, len(payload))
	}

	recs := make([]MetricRecord, n)
	for i := range recs {
		recs[i] = MetricRecord{
			Left:       int8(payload[4+3*i]),
			GlyphWidth: payload[4+3*i+1],
			Advance:    payload[4+3*i+2],
		}
	}

	return cwdhSection{first: first, recs: recs}, nil
}

// parseCMAP normalizes any of the three mapping encodings through the add
// callback.
func parseCMAP(payload []byte, add func(code uint32, glyph uint16)) error {
	if len(payload) < 12 {
		return fmt.Errorf("%w: CMAP payload %d bytes", ErrTruncated, len(payload))
	}

	begin := binary.LittleEndian.Uint32(payload[0:])
	end := binary.LittleEndian.Uint32(payload[4:])
	method := binary.LittleEndian.Uint16(payload[8:])
	if end < begin {
		return fmt.Errorf("%w: CMAP range %#x..%#x", ErrLayoutMismatch, begin, end)
	}

	span := uint64(end) - uint64(begin) + 1
	body := payload[12:]

	switch method {
	case cmapDirect:
		if span > uint64(maxUint16)+1 {
			return fmt.Errorf("%w: direct CMAP spans %d codes", ErrLayoutMismatch, span)
		}
		if len(body) < 2 {
			return fmt.Errorf("%w: direct CMAP payload", ErrTruncated)
		}
		offset := int(binary.LittleEndian.Uint16(body))
		for c := uint64(0); c < span; c++ {
			glyph := offset + int(c)
			if glyph >= maxUint16 {
				break
			}
			add(begin+uint32(c), uint16(glyph))
		}

	case cmapTable:
		if span > uint64(len(body))/2 {
			return fmt.Errorf("%w: table CMAP declares %d codes in %d bytes", ErrTruncated, span, len(body))
		}
		for c := uint64(0); c < span; c++ {
			glyph := int16(binary.LittleEndian.Uint16(body[2*c:]))
			if glyph == unmappedGlyph {
				continue
			}
			add(begin+uint32(c), uint16(glyph))
		}

	case cmapScan:
		if len(body) < 4 {
			return fmt.Errorf("%w: scan CMAP payload", ErrTruncated)
		}
		count := int(binary.LittleEndian.Uint16(body))
		if len(body) < 4+8*count {
			return fmt.Errorf("%w: scan CMAP declares %d entries in %d bytes", ErrTruncated, count, len(body))
		}
		for i := 0; i < count; i++ {
			entry := body[4+8*i:]
			glyph := int16(binary.LittleEndian.Uint16(entry[4:]))
			if glyph == unmappedGlyph {
				continue
			}
			add(binary.LittleEndian.Uint32(entry), uint16(glyph))
		}

	default:
		return fmt.Errorf("%w: CMAP method %d", ErrUnsupportedFormat, method)
	}

	return nil
}

// mergeMetrics folds any number of CWDH sections into one contiguous
// coverage range, filling gaps with the FINF defaults.
func mergeMetrics(font *Font, cwdhs []cwdhSection) {
	if len(cwdhs) == 0 {
		return
	}

	first, last := int(cwdhs[0].first), 0
	for _, sec := range cwdhs {
		if int(sec.first) < first {
			first = int(sec.first)
		}
		if end := int(sec.first) + len(sec.recs) - 1; end > last {
			last = end
		}
	}

	recs := make([]MetricRecord, last-first+1)
	for i := range recs {
		recs[i] = font.defaultMetric()
	}
	for _, sec := range cwdhs {
		copy(recs[int(sec.first)-first:], sec.recs)
	}

	font.metricsFirst = uint16(first)
	font.metrics = recs
}

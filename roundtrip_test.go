package bffnt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"reflect"
	"testing"
)

func TestEncodeParseRoundTrip(t *testing.T) {
	f := newTestFont(t)
	f.SetMetric(3, MetricRecord{Left: 1, GlyphWidth: 7, Advance: 8})
	f.SetMetric(5, MetricRecord{Left: 0, GlyphWidth: 4, Advance: 5})
	for i, code := range []uint32{0x20, 0x41, 0x42, 0x3042, 0x1F600} {
		if err := f.SetMapping(code, uint16(i)); err != nil {
			t.Fatalf("SetMapping: %v", err)
		}
	}

	first, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	parsed, err := Parse(first)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	if parsed.Version != f.Version {
		t.Fatalf("version %#x, want %#x", parsed.Version, f.Version)
	}
	if parsed.Info != f.Info {
		t.Fatalf("info %+v, want %+v", parsed.Info, f.Info)
	}
	if !reflect.DeepEqual(parsed.Mappings(), f.Mappings()) {
		t.Fatalf("mapping %+v, want %+v", parsed.Mappings(), f.Mappings())
	}

	gotFirst, gotRecs := parsed.Metrics()
	wantFirst, wantRecs := f.Metrics()
	if gotFirst != wantFirst || !reflect.DeepEqual(gotRecs, wantRecs) {
		t.Fatalf("metrics %d+%v, want %d+%v", gotFirst, gotRecs, wantFirst, wantRecs)
	}

	for i := 0; i < f.SheetCount(); i++ {
		want, _ := f.SheetData(i)
		got, err := parsed.SheetData(i)
		if err != nil {
			t.Fatalf("SheetData(%d): %v", i, err)
		}
		if !bytes.Equal(got, want) {
			t.Fatalf("sheet %d blob mismatch", i)
		}
	}

	second, err := parsed.Encode()
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}
	if !bytes.Equal(second, first) {
		t.Fatalf("re-encoded file differs: %d vs %d bytes", len(second), len(first))
	}
}

func TestOpaqueChunkPreserved(t *testing.T) {
	f := newTestFont(t)
	if err := f.SetMapping('A', 1); err != nil {
		t.Fatalf("SetMapping: %v", err)
	}

	// a kerning-style chunk this package does not interpret, wedged
	// between the texture sheets and the mapping
	f.opaque = append(f.opaque, opaqueChunk{
		tag:     "KRNG",
		payload: []byte{1, 0, 2, 0, 0x41, 0x00, 0x42, 0x00, 0xfe, 0xff, 0x00, 0x00},
	})
	f.order = []string{tagFINF, tagTGLP, tagTXSH, tagTXSH, tagCWDH, "KRNG", tagCMAP}

	first, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	if !bytes.Contains(first, []byte("KRNG")) {
		t.Fatalf("encoded file lost the KRNG chunk")
	}

	parsed, err := Parse(first)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(parsed.opaque) != 1 || parsed.opaque[0].tag != "KRNG" {
		t.Fatalf("opaque chunks after parse: %+v", parsed.opaque)
	}
	if !bytes.Equal(parsed.opaque[0].payload, f.opaque[0].payload) {
		t.Fatalf("KRNG payload changed across parse")
	}

	second, err := parsed.Encode()
	if err != nil {
		t.Fatalf("re-Encode: %v", err)
	}
	if !bytes.Equal(second, first) {
		t.Fatalf("re-encoded file with opaque chunk differs")
	}
}

func TestParseTruncated(t *testing.T) {
	f := newTestFont(t)
	data, err := f.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}

	for n := 0; n < len(data); n++ {
		if _, err := Parse(data[:n]); !errors.Is(err, ErrTruncated) {
			t.Fatalf("Parse of %d-byte prefix = %v, want ErrTruncated", n, err)
		}
	}
}

func TestParseBadSignature(t *testing.T) {
	f := newTestFont(t)
	data, _ := f.Encode()

	bad := append([]byte(nil), data...)
	bad[0] = 'X'
	if _, err := Parse(bad); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("bad magic = %v, want ErrBadSignature", err)
	}

	bad = append([]byte(nil), data...)
	bad[4], bad[5] = 0xfe, 0xff // big-endian byte order mark
	if _, err := Parse(bad); !errors.Is(err, ErrBadSignature) {
		t.Fatalf("bad byte order mark = %v, want ErrBadSignature", err)
	}
}

// patchTGLP rewrites a little-endian u16 field inside the TGLP payload.
func patchTGLP(t *testing.T, data []byte, fieldOff int, v uint16) []byte {
	t.Helper()

	i := bytes.Index(data, []byte(tagTGLP))
	if i < 0 {
		t.Fatalf("no TGLP chunk in encoded data")
	}

	out := append([]byte(nil), data...)
	binary.LittleEndian.PutUint16(out[i+8+fieldOff:], v)

	return out
}

func TestParseUnsupportedFormat(t *testing.T) {
	f := newTestFont(t)
	data, _ := f.Encode()

	bad := patchTGLP(t, data, 10, 7) // no format is assigned id 7
	if _, err := Parse(bad); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("format 7 = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseLayoutMismatch(t *testing.T) {
	f := newTestFont(t)
	data, _ := f.Encode()

	// declared sheet size disagrees with format and dimensions
	i := bytes.Index(data, []byte(tagTGLP))
	bad := append([]byte(nil), data...)
	binary.LittleEndian.PutUint32(bad[i+8+4:], 64*64+4)
	if _, err := Parse(bad); !errors.Is(err, ErrLayoutMismatch) {
		t.Fatalf("wrong sheet size = %v, want ErrLayoutMismatch", err)
	}

	// declared sheet count disagrees with the TXSH chunks present
	bad = append([]byte(nil), data...)
	bad[i+8+2] = 3
	if _, err := Parse(bad); !errors.Is(err, ErrLayoutMismatch) {
		t.Fatalf("wrong sheet count = %v, want ErrLayoutMismatch", err)
	}
}

func TestCMAPEncodingPolicy(t *testing.T) {
	direct := newTestFont(t)
	for i := uint32(0); i < 16; i++ {
		if err := direct.SetMapping(0x40+i, uint16(10+i)); err != nil {
			t.Fatalf("SetMapping: %v", err)
		}
	}
	if p := direct.encodeCMAP(); binary.LittleEndian.Uint16(p[8:]) != cmapDirect {
		t.Fatalf("contiguous run encoded with method %d, want direct", binary.LittleEndian.Uint16(p[8:]))
	}

	table := newTestFont(t)
	for i := uint32(0); i < 16; i++ {
		if i == 5 {
			continue // one hole keeps it compact but not contiguous
		}
		if err := table.SetMapping(0x40+i, uint16(10+i)); err != nil {
			t.Fatalf("SetMapping: %v", err)
		}
	}
	if p := table.encodeCMAP(); binary.LittleEndian.Uint16(p[8:]) != cmapTable {
		t.Fatalf("dense run with hole encoded with method %d, want table", binary.LittleEndian.Uint16(p[8:]))
	}

	scan := newTestFont(t)
	for i, code := range []uint32{0x20, 0x3042, 0x1F600} {
		if err := scan.SetMapping(code, uint16(i)); err != nil {
			t.Fatalf("SetMapping: %v", err)
		}
	}
	if p := scan.encodeCMAP(); binary.LittleEndian.Uint16(p[8:]) != cmapScan {
		t.Fatalf("sparse codes encoded with method %d, want scan", binary.LittleEndian.Uint16(p[8:]))
	}

	// a mapping too large for the u16 scan count must take the table
	// encoding instead of silently truncating the entry count
	big := newTestFont(t)
	for i := 0; i < 70000; i++ {
		if err := big.SetMapping(0x100+uint32(i)*5, uint16(i%128)); err != nil {
			t.Fatalf("SetMapping: %v", err)
		}
	}
	if p := big.encodeCMAP(); binary.LittleEndian.Uint16(p[8:]) != cmapTable {
		t.Fatalf("oversized mapping encoded with method %d, want table", binary.LittleEndian.Uint16(p[8:]))
	}

	data, err := big.Encode()
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	parsed, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := len(parsed.Mappings()); got != 70000 {
		t.Fatalf("round trip kept %d of 70000 mappings", got)
	}
	if !reflect.DeepEqual(parsed.Mappings(), big.Mappings()) {
		t.Fatalf("oversized mapping changed across round trip")
	}

	// all three re-encode to the same code to glyph function
	for _, f := range []*Font{direct, table, scan} {
		data, err := f.Encode()
		if err != nil {
			t.Fatalf("Encode: %v", err)
		}
		parsed, err := Parse(data)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if !reflect.DeepEqual(parsed.Mappings(), f.Mappings()) {
			t.Fatalf("mapping changed across round trip: %+v vs %+v", parsed.Mappings(), f.Mappings())
		}
	}
}

package bffnt

import (
	"bytes"
	"encoding/binary"
	"testing"
)

// decodeBlock runs one codec decode into a fresh 16-pixel buffer.
func decodeBlock(f PixelFormat, src []byte) [64]byte {
	var dst [64]byte
	codecFor(f).decode(src, dst[:])

	return dst
}

func TestDecodeBC1PunchThroughSelection(t *testing.T) {
	// c0 <= c1 selects the 3-color palette; index 3 is transparent black.
	src := make([]byte, 8)
	binary.LittleEndian.PutUint16(src[0:], 0x0000)
	binary.LittleEndian.PutUint16(src[2:], 0xffff)
	binary.LittleEndian.PutUint32(src[4:], 0xffffffff)

	px := decodeBlock(FormatBC1, src)
	for i := 0; i < 16; i++ {
		if px[i*4] != 0 || px[i*4+1] != 0 || px[i*4+2] != 0 || px[i*4+3] != 0 {
			t.Fatalf("pixel %d = %v, want transparent black", i, px[i*4:i*4+4])
		}
	}

	// c0 > c1 selects the 4-color palette; index 3 is the 2/3 interpolant.
	binary.LittleEndian.PutUint16(src[0:], 0xffff)
	binary.LittleEndian.PutUint16(src[2:], 0x0000)

	px = decodeBlock(FormatBC1, src)
	for i := 0; i < 16; i++ {
		if px[i*4] != 85 || px[i*4+1] != 85 || px[i*4+2] != 85 || px[i*4+3] != 255 {
			t.Fatalf("pixel %d = %v, want (85,85,85,255)", i, px[i*4:i*4+4])
		}
	}
}

func TestBC3SuppressesPunchThrough(t *testing.T) {
	// Same color block as the BC1 punch-through case, but inside a BC3
	// block it must decode as four opaque colors with alpha taken from
	// the scalar sub-block.
	src := make([]byte, 16)
	src[0], src[1] = 200, 200 // flat alpha
	binary.LittleEndian.PutUint16(src[8:], 0x0000)
	binary.LittleEndian.PutUint16(src[10:], 0xffff)
	binary.LittleEndian.PutUint32(src[12:], 0xffffffff)

	px := decodeBlock(FormatBC3, src)
	for i := 0; i < 16; i++ {
		// index 3 in four-color mode: (c0 + 2*c1) / 3 of black and white
		if px[i*4] != 170 || px[i*4+3] != 200 {
			t.Fatalf("pixel %d = %v, want (170,170,170,200)", i, px[i*4:i*4+4])
		}
	}
}

func TestBC4RoundTripExactPalette(t *testing.T) {
	// Endpoints 224 and 0 yield the exact 7-interpolant palette
	// {224, 0, 192, 160, 128, 96, 64, 32}; a block built from those
	// values must survive encode and decode untouched.
	vals := [16]uint8{224, 0, 192, 160, 128, 96, 64, 32, 224, 0, 192, 160, 128, 96, 64, 32}

	var px [64]byte
	for i, v := range vals {
		px[i*4], px[i*4+1], px[i*4+2], px[i*4+3] = v, v, v, v
	}

	var block [8]byte
	encodeBC4(px[:], block[:])

	got := decodeBlock(FormatBC4, block[:])
	for i, v := range vals {
		if got[i*4+3] != v {
			t.Fatalf("pixel %d = %d, want %d", i, got[i*4+3], v)
		}
		if got[i*4] != got[i*4+3] {
			t.Fatalf("pixel %d channels diverge: %v", i, got[i*4:i*4+4])
		}
	}
}

func TestBC4MatchesA8(t *testing.T) {
	// A coverage value decodes to the same NRGBA pixel through both the
	// A8 and the BC4 path.
	for _, v := range []uint8{0, 1, 96, 128, 200, 255} {
		a8 := decodeBlock(FormatA8, []byte{v})

		var flat [8]byte
		flat[0], flat[1] = v, v
		bc4 := decodeBlock(FormatBC4, flat[:])

		if !bytes.Equal(a8[:4], bc4[:4]) {
			t.Fatalf("value %d: A8 %v, BC4 %v", v, a8[:4], bc4[:4])
		}
	}
}

func TestScalarEncodeFlatBlock(t *testing.T) {
	var px [64]byte
	for i := 0; i < 16; i++ {
		px[i*4+3] = 173
	}

	var block [8]byte
	encodeBC4(px[:], block[:])
	if block[0] != 173 || block[1] != 173 {
		t.Fatalf("flat block endpoints %d/%d, want 173/173", block[0], block[1])
	}

	got := decodeBlock(FormatBC4, block[:])
	for i := 0; i < 16; i++ {
		if got[i*4+3] != 173 {
			t.Fatalf("pixel %d = %d, want 173", i, got[i*4+3])
		}
	}
}

func TestEncodeBC1PunchThrough(t *testing.T) {
	// Half the block transparent, half pure red. Red survives RGB565
	// exactly, and transparency must be exact by construction.
	var px [64]byte
	for i := 0; i < 16; i++ {
		if i%2 == 0 {
			continue // alpha 0
		}
		px[i*4], px[i*4+3] = 255, 255
	}

	var block [8]byte
	encodeBC1(px[:], block[:])

	c0 := binary.LittleEndian.Uint16(block[0:])
	c1 := binary.LittleEndian.Uint16(block[2:])
	if c0 > c1 {
		t.Fatalf("transparent block encoded in 4-color mode: c0=%#x c1=%#x", c0, c1)
	}

	got := decodeBlock(FormatBC1, block[:])
	for i := 0; i < 16; i++ {
		if i%2 == 0 {
			if got[i*4+3] != 0 {
				t.Fatalf("pixel %d alpha = %d, want 0", i, got[i*4+3])
			}
			continue
		}
		if got[i*4] != 255 || got[i*4+1] != 0 || got[i*4+2] != 0 || got[i*4+3] != 255 {
			t.Fatalf("pixel %d = %v, want opaque red", i, got[i*4:i*4+4])
		}
	}
}

func TestEncodeBC1AllTransparent(t *testing.T) {
	var px [64]byte // all alpha 0

	var block [8]byte
	encodeBC1(px[:], block[:])

	got := decodeBlock(FormatBC1, block[:])
	for i := 0; i < 16; i++ {
		if got[i*4+3] != 0 {
			t.Fatalf("pixel %d alpha = %d, want 0", i, got[i*4+3])
		}
	}
}

func TestEncodeBC3TwoTone(t *testing.T) {
	// Black and white pixels with palette-exact alphas round-trip
	// through BC3 without loss.
	var px [64]byte
	alphas := [16]uint8{224, 0, 192, 160, 128, 96, 64, 32, 224, 0, 192, 160, 128, 96, 64, 32}
	for i := 0; i < 16; i++ {
		v := uint8(0)
		if i >= 8 {
			v = 255
		}
		px[i*4], px[i*4+1], px[i*4+2], px[i*4+3] = v, v, v, alphas[i]
	}

	var block [16]byte
	encodeBC3(px[:], block[:])

	got := decodeBlock(FormatBC3, block[:])
	for i := 0; i < 16; i++ {
		want := uint8(0)
		if i >= 8 {
			want = 255
		}
		if got[i*4] != want || got[i*4+3] != alphas[i] {
			t.Fatalf("pixel %d = %v, want color %d alpha %d", i, got[i*4:i*4+4], want, alphas[i])
		}
	}
}

func TestEncodeDeterministic(t *testing.T) {
	var px [64]byte
	for i := range px {
		px[i] = byte((i*53 + 11) & 0xff)
	}

	for _, f := range []PixelFormat{FormatBC1, FormatBC3, FormatBC4} {
		codec := codecFor(f)
		n := f.blockBytes()

		a := make([]byte, n)
		b := make([]byte, n)
		codec.encode(px[:], a)
		codec.encode(px[:], b)
		if !bytes.Equal(a, b) {
			t.Fatalf("%s encode not deterministic", f)
		}
	}
}

func TestUncompressedBlockRoundTrip(t *testing.T) {
	tests := []struct {
		format PixelFormat
		px     [4]uint8
	}{
		{FormatRGBA8888, [4]uint8{12, 34, 56, 78}},
		{FormatLA8, [4]uint8{120, 120, 120, 45}}, // gray plus alpha
		{FormatA8, [4]uint8{99, 99, 99, 99}},     // coverage in every channel
	}

	for _, tt := range tests {
		codec := codecFor(tt.format)
		n := tt.format.blockBytes()

		block := make([]byte, n)
		codec.encode(tt.px[:], block)

		var got [64]byte
		codec.decode(block, got[:])
		if !bytes.Equal(got[:4], tt.px[:]) {
			t.Fatalf("%s: %v decoded as %v", tt.format, tt.px, got[:4])
		}
	}
}

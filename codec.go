package bffnt

import (
	"encoding/binary"
	"math"
)

// blockCodec converts one coding block between its on-disk bytes and
// row-major NRGBA pixels (blockDim pixels, 4 bytes each). The six formats
// are a closed set, dispatched through codecFor.
type blockCodec struct {
	decode func(src, dst []byte)
	encode func(src, dst []byte)
}

func codecFor(f PixelFormat) blockCodec {
	switch f {
	case FormatRGBA8888:
		return blockCodec{decodeRGBA8888, encodeRGBA8888}
	case FormatLA8:
		return blockCodec{decodeLA8, encodeLA8}
	case FormatA8:
		return blockCodec{decodeA8, encodeA8}
	case FormatBC1:
		return blockCodec{decodeBC1, encodeBC1}
	case FormatBC3:
		return blockCodec{decodeBC3, encodeBC3}
	case FormatBC4:
		return blockCodec{decodeBC4, encodeBC4}
	default:
		return blockCodec{}
	}
}

func decodeRGBA8888(src, dst []byte) {
	copy(dst[:4], src[:4])
}

func encodeRGBA8888(src, dst []byte) {
	copy(dst[:4], src[:4])
}

// A8 replicates the stored byte into every channel so a coverage mask
// decodes identically to the equivalent BC4 sheet.
func decodeA8(src, dst []byte) {
	v := src[0]
	dst[0], dst[1], dst[2], dst[3] = v, v, v, v
}

func encodeA8(src, dst []byte) {
	dst[0] = src[3]
}

func decodeLA8(src, dst []byte) {
	l, a := src[0], src[1]
	dst[0], dst[1], dst[2], dst[3] = l, l, l, a
}

func encodeLA8(src, dst []byte) {
	dst[0] = src[0]
	dst[1] = src[3]
}

// expand565 widens an RGB565 color to 8-bit channels.
func expand565(c uint16) (r, g, b uint8) {
	r5 := uint8(c >> 11 & 0x1f)
	g6 := uint8(c >> 5 & 0x3f)
	b5 := uint8(c & 0x1f)

	return r5<<3 | r5>>2, g6<<2 | g6>>4, b5<<3 | b5>>2
}

// pack565 quantizes 8-bit channels to RGB565.
func pack565(r, g, b uint8) uint16 {
	return uint16(r>>3)<<11 | uint16(g>>2)<<5 | uint16(b>>3)
}

// colorPalette builds the 4-entry BC1 palette. In four-color mode entries 2
// and 3 are the 1/3 and 2/3 interpolants; otherwise entry 2 is the midpoint
// and entry 3 transparent black.
func colorPalette(c0, c1 uint16, fourColor bool) [4][4]uint8 {
	var pal [4][4]uint8

	r0, g0, b0 := expand565(c0)
	r1, g1, b1 := expand565(c1)
	pal[0] = [4]uint8{r0, g0, b0, 255}
	pal[1] = [4]uint8{r1, g1, b1, 255}

	if fourColor {
		pal[2] = [4]uint8{
			uint8((2*int(r0) + int(r1)) / 3),
			uint8((2*int(g0) + int(g1)) / 3),
			uint8((2*int(b0) + int(b1)) / 3),
			255,
		}
		pal[3] = [4]uint8{
			uint8((int(r0) + 2*int(r1)) / 3),
			uint8((int(g0) + 2*int(g1)) / 3),
			uint8((int(b0) + 2*int(b1)) / 3),
			255,
		}
	} else {
		pal[2] = [4]uint8{
			uint8((int(r0) + int(r1)) / 2),
			uint8((int(g0) + int(g1)) / 2),
			uint8((int(b0) + int(b1)) / 2),
			255,
		}
		pal[3] = [4]uint8{}
	}

	return pal
}

// decodeBC1Block decodes the 8-byte color block shared by BC1 and BC3.
// BC1 selects the punch-through variant per block when c0 <= c1; BC3
// suppresses that test and always decodes four opaque colors.
func decodeBC1Block(src, dst []byte, forceFourColor bool) {
	c0 := binary.LittleEndian.Uint16(src[0:])
	c1 := binary.LittleEndian.Uint16(src[2:])
	bits := binary.LittleEndian.Uint32(src[4:])

	pal := colorPalette(c0, c1, forceFourColor || c0 > c1)
	for i := 0; i < 16; i++ {
		copy(dst[i*4:i*4+4], pal[bits>>(2*uint(i))&3][:])
	}
}

func decodeBC1(src, dst []byte) {
	decodeBC1Block(src, dst, false)
}

// alphaPalette builds the 8-entry scalar palette shared by BC3 alpha and
// BC4. The 6-interpolant table with implicit 0 and 255 is used when
// a0 <= a1.
func alphaPalette(a0, a1 uint8) [8]uint8 {
	pal := [8]uint8{a0, a1}

	if a0 > a1 {
		for k := 2; k < 8; k++ {
			pal[k] = uint8(((8-k)*int(a0) + (k-1)*int(a1)) / 7)
		}
	} else {
		for k := 2; k < 6; k++ {
			pal[k] = uint8(((6-k)*int(a0) + (k-1)*int(a1)) / 5)
		}
		pal[6] = 0
		pal[7] = 255
	}

	return pal
}

// scalarBits packs or unpacks the 48-bit, 3-bit-per-pixel index stream.
func scalarBits(src []byte) uint64 {
	var bits uint64
	for i := 0; i < 6; i++ {
		bits |= uint64(src[i]) << (8 * uint(i))
	}

	return bits
}

func decodeBC4(src, dst []byte) {
	pal := alphaPalette(src[0], src[1])
	bits := scalarBits(src[2:8])

	for i := 0; i < 16; i++ {
		v := pal[bits>>(3*uint(i))&7]
		dst[i*4], dst[i*4+1], dst[i*4+2], dst[i*4+3] = v, v, v, v
	}
}

func decodeBC3(src, dst []byte) {
	decodeBC1Block(src[8:16], dst, true)

	pal := alphaPalette(src[0], src[1])
	bits := scalarBits(src[2:8])
	for i := 0; i < 16; i++ {
		dst[i*4+3] = pal[bits>>(3*uint(i))&7]
	}
}

// scalarWeight maps a 7-interpolant palette index to its interpolation
// position between a0 (0) and a1 (1).
func scalarWeight(idx int) float64 {
	switch idx {
	case 0:
		return 0
	case 1:
		return 1
	default:
		return float64(idx-1) / 7
	}
}

func nearestScalar(pal [8]uint8, v uint8) int {
	best, bestDiff := 0, 256
	for k := 0; k < 8; k++ {
		d := int(pal[k]) - int(v)
		if d < 0 {
			d = -d
		}
		if d < bestDiff {
			best, bestDiff = k, d
		}
	}

	return best
}

// encodeScalarBlock encodes 16 scalar values as a BC3 alpha / BC4 block.
// Endpoints start from the value range in the 7-interpolant mode, then one
// least-squares pass refines them against the chosen indices. The result is
// deterministic for a given input.
func encodeScalarBlock(vals *[16]uint8, dst []byte) {
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}

	if lo == hi {
		dst[0], dst[1] = lo, lo
		for i := 2; i < 8; i++ {
			dst[i] = 0
		}
		return
	}

	a0, a1 := hi, lo
	pal := alphaPalette(a0, a1)

	var idx [16]int
	for i, v := range vals {
		idx[i] = nearestScalar(pal, v)
	}

	// Least-squares endpoint fit for the fixed index assignment.
	var s, u, w, p, q float64
	for i, v := range vals {
		t := scalarWeight(idx[i])
		s += (1 - t) * (1 - t)
		u += t * (1 - t)
		w += t * t
		p += float64(v) * (1 - t)
		q += float64(v) * t
	}
	if det := s*w - u*u; det > 1e-8 {
		x0 := clampByte((p*w - q*u) / det)
		x1 := clampByte((q*s - p*u) / det)
		if x0 > x1 {
			a0, a1 = x0, x1
			pal = alphaPalette(a0, a1)
		}
	}

	var bits uint64
	for i, v := range vals {
		bits |= uint64(nearestScalar(pal, v)) << (3 * uint(i))
	}

	dst[0], dst[1] = a0, a1
	for i := 0; i < 6; i++ {
		dst[2+i] = byte(bits >> (8 * uint(i)))
	}
}

func clampByte(v float64) uint8 {
	r := math.Round(v)
	if r < 0 {
		return 0
	}
	if r > 255 {
		return 255
	}

	return uint8(r)
}

func encodeBC4(src, dst []byte) {
	var vals [16]uint8
	for i := 0; i < 16; i++ {
		vals[i] = src[i*4+3]
	}

	encodeScalarBlock(&vals, dst)
}

// colorWeight maps a color palette index to its interpolation position.
func colorWeight(idx int, fourColor bool) float64 {
	switch idx {
	case 0:
		return 0
	case 1:
		return 1
	case 2:
		if fourColor {
			return 1.0 / 3
		}
		return 0.5
	default:
		return 2.0 / 3
	}
}

func nearestColor(pal *[4][4]uint8, n int, r, g, b int) int {
	best, bestDist := 0, 1<<31-1
	for k := 0; k < n; k++ {
		dr := int(pal[k][0]) - r
		dg := int(pal[k][1]) - g
		db := int(pal[k][2]) - b
		if d := dr*dr + dg*dg + db*db; d < bestDist {
			best, bestDist = k, d
		}
	}

	return best
}

// encodeColorBlock encodes the 8-byte color block shared by BC1 and BC3.
// punchThrough enables the BC1 1-bit-alpha variant for blocks holding
// pixels below half coverage; BC3 color blocks never use it.
func encodeColorBlock(src []byte, punchThrough bool, dst []byte) {
	var transparent [16]bool
	opaqueCount := 0
	minC := [3]int{255, 255, 255}
	maxC := [3]int{}

	for i := 0; i < 16; i++ {
		if punchThrough && src[i*4+3] < 128 {
			transparent[i] = true
			continue
		}
		opaqueCount++
		for c := 0; c < 3; c++ {
			v := int(src[i*4+c])
			if v < minC[c] {
				minC[c] = v
			}
			if v > maxC[c] {
				maxC[c] = v
			}
		}
	}

	if opaqueCount == 0 {
		// c0 <= c1 selects the punch-through palette; index 3 everywhere.
		binary.LittleEndian.PutUint16(dst[0:], 0)
		binary.LittleEndian.PutUint16(dst[2:], 0)
		binary.LittleEndian.PutUint32(dst[4:], 0xffffffff)
		return
	}

	hi := pack565(uint8(maxC[0]), uint8(maxC[1]), uint8(maxC[2]))
	lo := pack565(uint8(minC[0]), uint8(minC[1]), uint8(minC[2]))

	hasTransparent := opaqueCount < 16
	c0, c1 := orderEndpoints(hi, lo, hasTransparent)
	fourColor := !punchThrough || c0 > c1
	pal := colorPalette(c0, c1, fourColor)
	palN := 4
	if !fourColor {
		palN = 3
	}

	var idx [16]int
	for i := 0; i < 16; i++ {
		if transparent[i] {
			idx[i] = 3
			continue
		}
		idx[i] = nearestColor(&pal, palN, int(src[i*4]), int(src[i*4+1]), int(src[i*4+2]))
	}

	// One least-squares pass refines both endpoints against the chosen
	// indices, shared across channels.
	if c0 != c1 {
		var s, u, w float64
		var p, q [3]float64
		for i := 0; i < 16; i++ {
			if transparent[i] {
				continue
			}
			t := colorWeight(idx[i], fourColor)
			s += (1 - t) * (1 - t)
			u += t * (1 - t)
			w += t * t
			for c := 0; c < 3; c++ {
				p[c] += float64(src[i*4+c]) * (1 - t)
				q[c] += float64(src[i*4+c]) * t
			}
		}
		if det := s*w - u*u; det > 1e-8 {
			var e0, e1 [3]uint8
			for c := 0; c < 3; c++ {
				e0[c] = clampByte((p[c]*w - q[c]*u) / det)
				e1[c] = clampByte((q[c]*s - p[c]*u) / det)
			}
			r0 := pack565(e0[0], e0[1], e0[2])
			r1 := pack565(e1[0], e1[1], e1[2])
			if n0, n1 := orderEndpoints(r0, r1, hasTransparent); modeMatches(n0, n1, punchThrough, hasTransparent) {
				c0, c1 = n0, n1
				fourColor = !punchThrough || c0 > c1
				pal = colorPalette(c0, c1, fourColor)
				palN = 4
				if !fourColor {
					palN = 3
				}
				for i := 0; i < 16; i++ {
					if transparent[i] {
						idx[i] = 3
						continue
					}
					idx[i] = nearestColor(&pal, palN, int(src[i*4]), int(src[i*4+1]), int(src[i*4+2]))
				}
			}
		}
	}

	var bits uint32
	for i := 0; i < 16; i++ {
		bits |= uint32(idx[i]) << (2 * uint(i))
	}

	binary.LittleEndian.PutUint16(dst[0:], c0)
	binary.LittleEndian.PutUint16(dst[2:], c1)
	binary.LittleEndian.PutUint32(dst[4:], bits)
}

// orderEndpoints orders the endpoint pair for the required BC1 mode:
// c0 <= c1 when the block needs the transparent palette entry, c0 >= c1
// otherwise.
func orderEndpoints(a, b uint16, wantPunch bool) (uint16, uint16) {
	if wantPunch == (a <= b) {
		return a, b
	}

	return b, a
}

// modeMatches reports whether an endpoint ordering still selects the
// encoding mode the block requires.
func modeMatches(c0, c1 uint16, punchThrough, hasTransparent bool) bool {
	if punchThrough && hasTransparent {
		return c0 <= c1
	}

	return c0 >= c1
}

func encodeBC1(src, dst []byte) {
	encodeColorBlock(src, true, dst)
}

func encodeBC3(src, dst []byte) {
	var vals [16]uint8
	for i := 0; i < 16; i++ {
		vals[i] = src[i*4+3]
	}

	encodeScalarBlock(&vals, dst[0:8])
	encodeColorBlock(src, false, dst[8:16])
}

// SPDX-License-Identifier: MIT
// Copyright (c) 2026 WoozyMasta
// Source: github.com/woozymasta/bffnt

package bffnt

const (
	maxUint16 = int(^uint16(0))
	maxUint32 = uint64(^uint32(0))
)

// u16FromInt converts an int to a uint16.
func u16FromInt(n int) (uint16, error) {
	if n < 0 || n > maxUint16 {
		return 0, ErrSizeOverflow
	}

	return uint16(n), nil
}

// u32FromInt converts an int to a uint32.
func u32FromInt(n int) (uint32, error) {
	if n < 0 || uint64(n) > maxUint32 {
		return 0, ErrSizeOverflow
	}

	// #nosec G115 -- bounds checked above.
	return uint32(n), nil
}

// align4 rounds n up to the next 4-byte boundary.
func align4(n int) int {
	return (n + 3) &^ 3
}

// ceilDiv divides rounding up.
func ceilDiv(n, d int) int {
	return (n + d - 1) / d
}

// pow2RoundUp rounds x up to the nearest power of two.
func pow2RoundUp(x int) int {
	x--
	x |= x >> 1
	x |= x >> 2
	x |= x >> 4
	x |= x >> 8
	x |= x >> 16
	return x + 1
}

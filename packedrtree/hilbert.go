package packedrtree

import "math"

const (
	// HilbertOrder is the order of the Hilbert curve used to sort
	// leaves when building an Index.
	HilbertOrder = 16
	// hilbertMax is the maximum input X- or Y-coordinate of
	// hilbertFromXY.
	//
	// In a Hilbert curve of order N, X- and Y- coordinates range from
	// zero to 2^N-1, so in a Hilbert curve of order 1, the X- and Y-
	// coordinates range from 0 to 1, and so on.
	hilbertMax = (1 << HilbertOrder) - 1
)

// hilbertFromBox calculates the Hilbert curve index of the center of
// box b, in the context of a set of boxes bounded by the rectangle
// (ex, ey, ex+ew, ey+eh). The extent width ew and height eh must be
// non-zero.
//
// The center is scaled onto a grid of hilbertMax+1 cells per axis.
// Centers falling outside the extent, which can only happen when the
// stored coordinates were narrowed by the coordinate Kind, are clamped
// to the grid.
func hilbertFromBox(b *Box, ex, ey, ew, eh float64) uint32 {
	hx := toGrid(math.Floor(hilbertMax * (b.midX() - ex) / ew))
	hy := toGrid(math.Floor(hilbertMax * (b.midY() - ey) / eh))
	return hilbertFromXY(hx, hy)
}

func toGrid(v float64) uint32 {
	if !(v > 0) {
		return 0
	} else if v > hilbertMax {
		return hilbertMax
	}
	return uint32(v)
}

// Hilbert returns the position of the point (x, y) along a Hilbert
// curve of order HilbertOrder covering the square [0, 65535]².
func Hilbert(x, y uint16) uint32 {
	return hilbertFromXY(uint32(x), uint32(y))
}

// hilbertFromXY calculates the Hilbert curve index of a given
// two-dimensional coordinate.
//
// NOTES:
//   - Based on https://github.com/rawrunprotected/hilbert_curves, which
//     is in the public domain.
//   - Inputs must be in the range [0, hilbertMax]. The result is
//     fully determined by the inputs, so Index builds are
//     reproducible bit for bit.
func hilbertFromXY(x, y uint32) uint32 {
	a := x ^ y
	b := 0xFFFF ^ a
	c := 0xFFFF ^ (x | y)
	d := x & (y ^ 0xFFFF)

	A := a | (b >> 1)
	B := (a >> 1) ^ a
	C := ((c >> 1) ^ (b & (d >> 1))) ^ c
	D := ((a & (c >> 1)) ^ (d >> 1)) ^ d

	a = A
	b = B
	c = C
	d = D
	A = (a & (a >> 2)) ^ (b & (b >> 2))
	B = (a & (b >> 2)) ^ (b & ((a ^ b) >> 2))
	C ^= (a & (c >> 2)) ^ (b & (d >> 2))
	D ^= (b & (c >> 2)) ^ ((a ^ b) & (d >> 2))

	a = A
	b = B
	c = C
	d = D
	A = (a & (a >> 4)) ^ (b & (b >> 4))
	B = (a & (b >> 4)) ^ (b & ((a ^ b) >> 4))
	C ^= (a & (c >> 4)) ^ (b & (d >> 4))
	D ^= (b & (c >> 4)) ^ ((a ^ b) & (d >> 4))

	a = A
	b = B
	c = C
	d = D
	C ^= (a & (c >> 8)) ^ (b & (d >> 8))
	D ^= (b & (c >> 8)) ^ ((a ^ b) & (d >> 8))

	a = C ^ (C >> 1)
	b = D ^ (D >> 1)

	i0 := x ^ y
	i1 := b | (0xFFFF ^ (i0 | a))

	i0 = (i0 | (i0 << 8)) & 0x00FF00FF
	i0 = (i0 | (i0 << 4)) & 0x0F0F0F0F
	i0 = (i0 | (i0 << 2)) & 0x33333333
	i0 = (i0 | (i0 << 1)) & 0x55555555

	i1 = (i1 | (i1 << 8)) & 0x00FF00FF
	i1 = (i1 | (i1 << 4)) & 0x0F0F0F0F
	i1 = (i1 | (i1 << 2)) & 0x33333333
	i1 = (i1 | (i1 << 1)) & 0x55555555

	return (i1 << 1) | i0
}

// partialSort sorts leaves [left, right] by ascending Hilbert key,
// carrying each leaf's box and slot index along with its key. It is a
// quicksort with a middle pivot and Hoare partitioning, except that it
// stops recursing once a range lies entirely within one run of
// nodeSize leaves: the order inside a run never changes which parent a
// leaf gets.
func partialSort(keys []uint32, boxes *coords, indices *slots, left, right, nodeSize int) {
	if left/nodeSize >= right/nodeSize {
		return
	}

	pivot := keys[int(uint(left+right)>>1)]
	i := left - 1
	j := right + 1
	for {
		for {
			i++
			if keys[i] >= pivot {
				break
			}
		}
		for {
			j--
			if keys[j] <= pivot {
				break
			}
		}
		if i >= j {
			break
		}
		keys[i], keys[j] = keys[j], keys[i]
		boxes.swapNodes(i, j)
		indices.swap(i, j)
	}

	partialSort(keys, boxes, indices, left, j, nodeSize)
	partialSort(keys, boxes, indices, j+1, right, nodeSize)
}

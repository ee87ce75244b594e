// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package packedrtree

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// hilbertInputs should be kept sorted in order of relative Hilbert
// number.
//
// ...	[B]                 ^                  [C]
// ...	                    |
// ...                      |
// ...                      |
// ...                      |
// ...                      |
// ...                      |
// ...                      |
// ... <--------------------+-------------------->
// ...                      | [D]
// ...                      |
// ...                      |
// ...                      |
// ...                      |
// ...                      |
// ...                      |                  [E]
// ... [A]                  v                  [F]
var hilbertInputs = []struct {
	name     string
	b        Box
	expected uint32
}{
	{"A", Box{-10, -10, -8, -8}, 10526880},
	{"B", Box{-10, 8, -8, 10}, 1442182644},
	{"C", Box{8, 8, 10, 10}, 2852784648},
	{"D", Box{1, -2, 2, -1}, 3613351774},
	{"E", Box{8, -8, 10, -6}, 4220631320},
	{"F", Box{8, -10, 10, -8}, 4284440414},
}

var hilbertInputsBounds = EmptyBox

func init() {
	for i := range hilbertInputs {
		hilbertInputsBounds.Expand(&hilbertInputs[i].b)
	}
}

func TestHilbertFromXY(t *testing.T) {
	testCases := []struct {
		name     string
		x, y     uint32
		expected uint32
	}{
		{name: "Zero"},
		{name: "OneX", x: 1, y: 0, expected: 1},
		{name: "OneXY", x: 1, y: 1, expected: 2},
		{name: "OneY", x: 0, y: 1, expected: 3},
		{name: "TwoX", x: 2, y: 0, expected: 0xe},
		{name: "HalfX", x: 32767, y: 0, expected: 0x15555555},
		{name: "Center", x: 32768, y: 32768, expected: 0x80000000},
		{name: "Arbitrary", x: 12345, y: 54321, expected: 0x5cb00a42},
		{name: "MaxY", x: 0, y: hilbertMax, expected: 0x55555555},
		{name: "MaxXY", x: hilbertMax, y: hilbertMax, expected: 0xaaaaaaaa},
		{name: "MaxX", x: hilbertMax, y: 0, expected: 0xffffffff},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			actual := hilbertFromXY(testCase.x, testCase.y)

			assert.Equal(t, testCase.expected, actual)
			assert.Equal(t, testCase.expected, Hilbert(uint16(testCase.x), uint16(testCase.y)))
		})
	}

	t.Run("Bijective", func(t *testing.T) {
		const n = 1 << 6
		seen := make(map[uint32]bool, n*n)
		for x := uint32(0); x < n; x++ {
			for y := uint32(0); y < n; y++ {
				h := hilbertFromXY(x, y)
				require.False(t, seen[h], "duplicate Hilbert index %d at (%d, %d)", h, x, y)
				seen[h] = true
			}
		}
	})
}

func TestHilbertFromBox(t *testing.T) {
	t.Run("Origin", func(t *testing.T) {
		actual := hilbertFromBox(&Box{0, 0, 0, 0}, 0, 0, 1, 1)

		assert.Equal(t, uint32(0), actual)
	})

	t.Run("ClampedToGrid", func(t *testing.T) {
		below := hilbertFromBox(&Box{-5, -5, -5, -5}, 0, 0, 1, 1)
		above := hilbertFromBox(&Box{5, 0, 5, 0}, 0, 0, 1, 1)

		assert.Equal(t, uint32(0), below)
		assert.Equal(t, uint32(0xffffffff), above)
	})

	t.Run("hilbertInputs", func(t *testing.T) {
		b := hilbertInputsBounds
		var prev uint32
		for i := range hilbertInputs {
			input := &hilbertInputs[i]
			actual := hilbertFromBox(&input.b, b.XMin, b.YMin, b.Width(), b.Height())

			assert.Equal(t, input.expected, actual, input.name)
			assert.Greater(t, actual, prev, "%s must follow its predecessor", input.name)
			prev = actual
		}
	})
}

// newSortFixture builds coordinate and slot views holding n leaves,
// where leaf i has key keys[i] and a degenerate box at (i, i).
func newSortFixture(keys []uint32) (coords, slots) {
	n := len(keys)
	boxes := newCoords(make([]byte, 4*n*Float64.Width()), Float64)
	indices := newSlots(make([]byte, 4*n), n)
	for i := 0; i < n; i++ {
		boxes.setBox(4*i, &Box{float64(i), float64(i), float64(i), float64(i)})
		indices.set(i, i)
	}
	return boxes, indices
}

func TestPartialSort(t *testing.T) {
	for _, nodeSize := range []int{2, 3, 4, 16} {
		for _, n := range []int{1, 2, 5, 17, 64, 257} {
			t.Run(fmt.Sprintf("nodeSize=%d,n=%d", nodeSize, n), func(t *testing.T) {
				r := rand.New(rand.NewSource(int64(nodeSize*1000 + n)))
				keys := make([]uint32, n)
				for i := range keys {
					keys[i] = uint32(r.Intn(50))
				}
				original := append([]uint32(nil), keys...)
				boxes, indices := newSortFixture(keys)

				partialSort(keys, &boxes, &indices, 0, n-1, nodeSize)

				// Every run of nodeSize keys precedes the next run.
				for start := 0; start < n; start += nodeSize {
					end := min(start+nodeSize, n)
					for i := start; i < end; i++ {
						for j := end; j < n; j++ {
							require.LessOrEqual(t, keys[i], keys[j], "key at %d must not exceed key at %d", i, j)
						}
					}
				}
				// Boxes and slots travel with their keys.
				for i := 0; i < n; i++ {
					id := indices.at(i)
					assert.Equal(t, original[id], keys[i])
					assert.Equal(t, float64(id), boxes.at(4*i))
				}
				// The result is a permutation.
				sorted := append([]uint32(nil), keys...)
				sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
				sort.Slice(original, func(i, j int) bool { return original[i] < original[j] })
				assert.Equal(t, original, sorted)
			})
		}
	}

	t.Run("SkipsWithinRun", func(t *testing.T) {
		keys := []uint32{9, 8, 7, 6}
		boxes, indices := newSortFixture(keys)

		partialSort(keys, &boxes, &indices, 0, 3, 4)

		assert.Equal(t, []uint32{9, 8, 7, 6}, keys, "A single run must be left untouched.")
	})
}

func TestToGrid(t *testing.T) {
	assert.Equal(t, uint32(0), toGrid(math.NaN()))
	assert.Equal(t, uint32(0), toGrid(-1))
	assert.Equal(t, uint32(100), toGrid(100))
	assert.Equal(t, uint32(hilbertMax), toGrid(1e9))
}

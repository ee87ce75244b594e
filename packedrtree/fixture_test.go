// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package packedrtree

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// fixture is a fixed set of 100 boxes, each given as
// {minX, minY, maxX, maxY}. Item i of an Index built by fixtureIndex
// is fixture[i].
var fixture = [][4]float64{
	{8, 62, 11, 66},
	{57, 17, 57, 19},
	{76, 26, 79, 29},
	{36, 56, 38, 56},
	{92, 77, 96, 80},
	{87, 70, 90, 74},
	{43, 41, 47, 43},
	{0, 58, 2, 62},
	{76, 86, 80, 89},
	{27, 13, 27, 15},
	{71, 63, 75, 67},
	{25, 2, 27, 2},
	{87, 6, 88, 6},
	{22, 90, 23, 93},
	{22, 89, 22, 93},
	{57, 11, 61, 13},
	{61, 55, 63, 56},
	{17, 85, 21, 87},
	{33, 43, 37, 43},
	{6, 1, 7, 3},
	{80, 87, 80, 87},
	{23, 50, 26, 52},
	{58, 89, 58, 89},
	{12, 30, 15, 34},
	{32, 58, 36, 61},
	{41, 84, 44, 87},
	{44, 18, 44, 19},
	{13, 63, 15, 67},
	{52, 70, 54, 74},
	{57, 59, 58, 59},
	{17, 90, 20, 92},
	{48, 53, 52, 56},
	{92, 68, 92, 72},
	{26, 52, 30, 52},
	{56, 23, 57, 26},
	{88, 48, 88, 48},
	{66, 13, 67, 15},
	{7, 82, 8, 86},
	{46, 68, 50, 68},
	{37, 33, 38, 36},
	{6, 15, 8, 18},
	{85, 36, 89, 38},
	{82, 45, 84, 48},
	{12, 2, 16, 3},
	{26, 15, 26, 16},
	{55, 23, 59, 26},
	{76, 37, 79, 39},
	{86, 74, 90, 77},
	{16, 75, 18, 78},
	{44, 18, 45, 21},
	{52, 67, 54, 71},
	{59, 78, 62, 78},
	{24, 5, 24, 8},
	{64, 80, 64, 83},
	{66, 55, 70, 55},
	{0, 17, 2, 19},
	{15, 71, 18, 74},
	{87, 57, 87, 59},
	{6, 34, 7, 37},
	{34, 30, 37, 32},
	{51, 19, 53, 19},
	{72, 51, 73, 55},
	{29, 45, 30, 45},
	{94, 94, 96, 95},
	{7, 22, 11, 24},
	{86, 45, 87, 48},
	{33, 62, 34, 65},
	{18, 10, 21, 14},
	{64, 66, 67, 67},
	{64, 25, 65, 28},
	{27, 4, 31, 6},
	{84, 4, 85, 5},
	{48, 80, 50, 81},
	{1, 61, 3, 61},
	{71, 89, 74, 92},
	{40, 42, 43, 43},
	{27, 64, 28, 66},
	{46, 26, 50, 26},
	{53, 83, 57, 87},
	{14, 75, 15, 79},
	{31, 45, 34, 45},
	{89, 84, 92, 88},
	{84, 51, 85, 53},
	{67, 87, 67, 89},
	{39, 26, 43, 27},
	{47, 61, 47, 63},
	{23, 49, 25, 53},
	{12, 3, 14, 5},
	{16, 50, 19, 53},
	{63, 80, 64, 84},
	{22, 63, 22, 64},
	{26, 66, 29, 66},
	{2, 15, 3, 15},
	{74, 77, 77, 79},
	{64, 11, 68, 11},
	{38, 4, 39, 8},
	{83, 73, 87, 77},
	{85, 52, 89, 56},
	{74, 60, 76, 63},
	{62, 66, 65, 67},
}

func fixtureBox(i int) Box {
	f := fixture[i]
	return Box{f[0], f[1], f[2], f[3]}
}

// fixtureIndex builds a finished Index from the first n fixture boxes.
func fixtureIndex(t testing.TB, n int, opts ...Option) *Index {
	ix, err := New(n, opts...)
	require.NoError(t, err)
	for i := 0; i < n; i++ {
		id, err := ix.AddBox(fixtureBox(i))
		require.NoError(t, err)
		require.Equal(t, i, id)
	}
	require.NoError(t, ix.Finish(false))
	return ix
}

// randomBoxes generates n small boxes scattered over [0, 100)².
func randomBoxes(seed int64, n int) []Box {
	r := rand.New(rand.NewSource(seed))
	boxes := make([]Box, n)
	for i := range boxes {
		x, y := r.Float64()*99, r.Float64()*99
		boxes[i] = Box{x, y, x + r.Float64(), y + r.Float64()}
	}
	return boxes
}

func buildIndex(t testing.TB, boxes []Box, opts ...Option) *Index {
	ix, err := New(len(boxes), opts...)
	require.NoError(t, err)
	for i := range boxes {
		_, err = ix.AddBox(boxes[i])
		require.NoError(t, err)
	}
	require.NoError(t, ix.Finish(false))
	return ix
}

// bruteSearch returns, in ascending order, the positions of the boxes
// intersecting q.
func bruteSearch(boxes []Box, q Box, filter Filter) []int {
	r := make([]int, 0)
	for i := range boxes {
		if q.intersects(&boxes[i]) && (filter == nil || filter(i)) {
			r = append(r, i)
		}
	}
	return r
}

// bruteDistances returns, in ascending order, the squared distances
// from (x, y) to every box within maxDist admitted by filter.
func bruteDistances(boxes []Box, x, y, maxDist float64, filter Filter) []float64 {
	d := make([]float64, 0)
	for i := range boxes {
		if ds := boxes[i].distSq(x, y); ds <= maxDist*maxDist && (filter == nil || filter(i)) {
			d = append(d, ds)
		}
	}
	sort.Float64s(d)
	return d
}

func fixtureBoxes(n int) []Box {
	boxes := make([]Box, n)
	for i := range boxes {
		boxes[i] = fixtureBox(i)
	}
	return boxes
}

// sorted returns a sorted copy of ids. The copy is never nil, so it
// compares equal to an empty result from bruteSearch.
func sorted(ids []int) []int {
	s := append(make([]int, 0, len(ids)), ids...)
	sort.Ints(s)
	return s
}

// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package packedrtree

import "github.com/RoaringBitmap/roaring/v2"

// Filter decides whether the item with a given identifier may appear in
// query results. A nil Filter admits every item.
type Filter func(id int) bool

// InBitmap returns a Filter admitting only the identifiers present in
// bm. The bitmap is consulted at query time, not copied.
func InBitmap(bm *roaring.Bitmap) Filter {
	return func(id int) bool {
		return bm.Contains(uint32(id))
	}
}

// NotInBitmap returns a Filter admitting only the identifiers absent
// from bm. The bitmap is consulted at query time, not copied.
func NotInBitmap(bm *roaring.Bitmap) Filter {
	return func(id int) bool {
		return !bm.Contains(uint32(id))
	}
}

// SearchBitmap runs Search and returns the matching identifiers as a
// bitmap, which is convenient for combining the results of several
// queries with bitmap set operations.
func (ix *Index) SearchBitmap(b Box, filter Filter) (*roaring.Bitmap, error) {
	r, err := ix.SearchBox(b, filter)
	if err != nil {
		return nil, err
	}
	bm := roaring.New()
	for _, id := range r {
		bm.Add(uint32(id))
	}
	return bm, nil
}

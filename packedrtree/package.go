// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package packedrtree provides a static, packed Hilbert R-Tree spatial
// index over axis-aligned boxes, supporting box intersection search and
// best-first nearest-neighbor search.
//
// The index is bulk loaded: create it with New, Add every box, then
// call Finish. The finished tree occupies one flat byte slice with a
// fixed layout, so it can be written out with Marshal or Bytes and
// reloaded, without rebuilding, using FromBytes or Unmarshal, or
// searched in place within a stream using Seek.
package packedrtree

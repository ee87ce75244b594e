// Copyright 2023 The flatgeobuf (Go) Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package packedrtree

import (
	"errors"
	"fmt"
)

const packageName = "packedrtree: "

var (
	// ErrArgument is returned when a constructor or query receives an
	// invalid argument, for example a non-positive item count or an
	// unrecognized coordinate Kind.
	ErrArgument = textErr("invalid argument")
	// ErrCountMismatch is matched, via errors.Is, by every
	// CountMismatchError.
	ErrCountMismatch = textErr("item count mismatch")
	// ErrNotIndexed is returned when an Index is queried before Finish
	// has been called.
	ErrNotIndexed = textErr("data not yet indexed, call Finish")
	// ErrFinished is returned when attempting to modify an Index after
	// Finish has been called.
	ErrFinished = textErr("index already finished")
	// ErrFormat is returned when a byte buffer or stream does not
	// contain a valid serialized Index.
	ErrFormat = textErr("invalid index format")
)

// CountMismatchError indicates that the number of items added to an
// Index does not agree with the item count it was created with.
type CountMismatchError struct {
	// Added is the number of items added, or attempted to be added.
	Added int
	// Expected is the item count the Index was created with.
	Expected int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf(packageName+"added %d items when expected %d", e.Added, e.Expected)
}

// Unwrap returns ErrCountMismatch.
func (e *CountMismatchError) Unwrap() error { return ErrCountMismatch }

func textErr(text string) error {
	return errors.New(packageName + text)
}

func fmtErr(format string, a ...interface{}) error {
	return fmt.Errorf(packageName+format, a...)
}

func wrapErr(text string, err error, a ...interface{}) error {
	return fmt.Errorf(packageName+text+": %w", append(a, err)...)
}

// kindErr attaches a formatted detail message to one of the sentinel
// error kinds, e.g. ErrArgument.
func kindErr(kind error, format string, a ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{kind}, a...)...)
}

func textPanic(text string) {
	panic(packageName + text)
}

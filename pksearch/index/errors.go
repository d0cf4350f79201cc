// Copyright © 2023-2024 Wei Shen <shenwei356@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package index

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrTooShort means a sequence is shorter than k.
var ErrTooShort = errors.New("index: sequence too short")

// ErrIllegalChar means a sequence contains a base other than A, C, G, T, N.
var ErrIllegalChar = errors.New("index: illegal character")

// ErrInvariant is reported when internal data do not obey the invariants
// between the index, matcher and resolver. It is always fatal.
var ErrInvariant = errors.New("index: invariant violation")

// ErrInvalidK means the k-mer size is not positive.
var ErrInvalidK = errors.New("index: k should be positive")

// ErrBuilt occurs when calling Add or Build on a builder that has been built.
var ErrBuilt = errors.New("index: the index has been built")

// ErrTargetTooLong means the target is longer than the maximum supported length.
var ErrTargetTooLong = errors.New("index: target sequence too long")

// TooShortError records the length of a sequence shorter than k.
type TooShortError struct {
	Len int
	K   int
}

func (e *TooShortError) Error() string {
	return fmt.Sprintf("sequence length %d < k (%d)", e.Len, e.K)
}

// Is makes errors.Is(err, ErrTooShort) work.
func (e *TooShortError) Is(target error) bool { return target == ErrTooShort }

// IllegalCharError records the first illegal character and its 0-based position.
type IllegalCharError struct {
	Pos  int
	Char byte
}

func (e *IllegalCharError) Error() string {
	return fmt.Sprintf("illegal character '%c' at position %d", e.Char, e.Pos+1)
}

// Is makes errors.Is(err, ErrIllegalChar) work.
func (e *IllegalCharError) Is(target error) bool { return target == ErrIllegalChar }

// InvariantError describes a broken invariant.
type InvariantError struct {
	Msg string
}

func (e *InvariantError) Error() string {
	return "invariant violation: " + e.Msg
}

// Is makes errors.Is(err, ErrInvariant) work.
func (e *InvariantError) Is(target error) bool { return target == ErrInvariant }

func invariantf(format string, args ...interface{}) error {
	return &InvariantError{Msg: fmt.Sprintf(format, args...)}
}

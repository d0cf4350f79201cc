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
	"bytes"

	"github.com/zeebo/wyhash"
)

// Sequence is a named sequence. It should not be modified after creation.
type Sequence struct {
	ID  string
	Seq []byte

	hash uint64
}

// NewSequence creates a Sequence with a copy of the bases.
func NewSequence(id string, s []byte) *Sequence {
	seq := make([]byte, len(s))
	copy(seq, s)

	upper := make([]byte, len(s))
	for i, b := range s {
		upper[i] = upperTable[b]
	}

	return &Sequence{
		ID:   id,
		Seq:  seq,
		hash: wyhash.Hash(upper, wyhash.Hash([]byte(id), 1)),
	}
}

// Len returns the sequence length.
func (s *Sequence) Len() int { return len(s.Seq) }

// Hash returns a fingerprint computed from the ID and the upper-case bases.
func (s *Sequence) Hash() uint64 { return s.hash }

// Equal tells whether two sequences have the same ID and bases, case ignored.
func (s *Sequence) Equal(o *Sequence) bool {
	if s == o {
		return true
	}
	if s == nil || o == nil {
		return false
	}
	return s.hash == o.hash && s.ID == o.ID && bytes.EqualFold(s.Seq, o.Seq)
}

var upperTable [256]byte
var legalTable [256]bool
var baseTable [256]bool // concrete bases only

func init() {
	for i := 0; i < 256; i++ {
		upperTable[i] = byte(i)
	}
	for b := 'a'; b <= 'z'; b++ {
		upperTable[b] = byte(b - 'a' + 'A')
	}
	for _, b := range []byte("ACGTNacgtn") {
		legalTable[b] = true
	}
	for _, b := range []byte("ACGTacgt") {
		baseTable[b] = true
	}
}

// Validate checks if a sequence could be indexed or searched with k-mers of size k.
// It returns a *TooShortError if len(s) < k, or a *IllegalCharError for the first
// base not in A, C, G, T, N (case ignored).
func Validate(s []byte, k int) error {
	if len(s) < k {
		return &TooShortError{Len: len(s), K: k}
	}
	for i, b := range s {
		if !legalTable[b] {
			return &IllegalCharError{Pos: i, Char: b}
		}
	}
	return nil
}

// CountN returns the number of N and n in a sequence.
func CountN(s []byte) (n int) {
	for _, b := range s {
		if b == 'N' || b == 'n' {
			n++
		}
	}
	return n
}

// NProportion returns the proportion of N bases, 0 for an empty sequence.
func NProportion(s []byte) float64 {
	if len(s) == 0 {
		return 0
	}
	return float64(CountN(s)) / float64(len(s))
}

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
	"github.com/shenwei356/wfa"
)

// Alignment is a match of a query against a target, with the flanking
// parts of the query soft-clipped. There are no mismatches or gaps.
type Alignment struct {
	QueryID  string
	QueryLen int

	TargetIdx uint32
	TargetID  string
	TargetLen int

	Pos int // 1-based start position in the target

	Clip5    int // leading soft clip
	MatchLen int
	Clip3    int // trailing soft clip
}

// ToAlignment converts a match into an alignment.
// A negative trailing clip means the match lies outside of the query,
// which is reported as an *InvariantError.
func ToAlignment(m *Match, idx *Index) (*Alignment, error) {
	qlen := m.Query.Len()
	clip3 := qlen - m.Len - m.QBegin
	if clip3 < 0 {
		return nil, invariantf("negative soft clip length for query %s (length: %d, match start: %d, match length: %d)",
			m.Query.ID, qlen, m.QBegin, m.Len)
	}
	if m.QBegin < 0 || m.TBegin < 0 {
		return nil, invariantf("negative match start for query %s: %d, %d", m.Query.ID, m.QBegin, m.TBegin)
	}
	if int(m.Target) >= idx.NumTargets() {
		return nil, invariantf("target index out of range: %d", m.Target)
	}
	t := idx.Target(m.Target)

	return &Alignment{
		QueryID:  m.Query.ID,
		QueryLen: qlen,

		TargetIdx: m.Target,
		TargetID:  t.ID,
		TargetLen: t.Len(),

		Pos: m.TBegin + 1,

		Clip5:    m.QBegin,
		MatchLen: m.Len,
		Clip3:    clip3,
	}, nil
}

// QBegin returns the 1-based start position of the match in the query.
func (a *Alignment) QBegin() int { return a.Clip5 + 1 }

// QEnd returns the 1-based end position of the match in the query.
func (a *Alignment) QEnd() int { return a.Clip5 + a.MatchLen }

// TEnd returns the 1-based end position of the match in the target.
func (a *Alignment) TEnd() int { return a.Pos + a.MatchLen - 1 }

// CIGAR returns the CIGAR string, e.g., 2S4M2S.
func (a *Alignment) CIGAR() string {
	cigar := wfa.NewCIGAR()

	// operations are added in backtrace order, i.e., reversed.
	if a.Clip3 > 0 {
		cigar.AddN('S', uint32(a.Clip3))
	}
	cigar.AddN('M', uint32(a.MatchLen))
	if a.Clip5 > 0 {
		cigar.AddN('S', uint32(a.Clip5))
	}

	s := cigar.CIGAR()
	wfa.RecycleCIGAR(cigar)
	return s
}

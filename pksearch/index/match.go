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

	"github.com/shenwei356/pksearch/pksearch/util"
	"github.com/twotwotwo/sorts"
)

// RawHit is a k-mer shared by a query and a target.
type RawHit struct {
	Query  *Sequence
	QBegin int    // 0-based start of the k-mer in the query
	Target uint32 // target index
	TBegin int    // 0-based start of the k-mer in the target
}

func (h RawHit) String() string {
	return fmt.Sprintf("%s:%d->%d:%d", h.Query.ID, h.QBegin, h.Target, h.TBegin)
}

type rawHits []RawHit

func (h rawHits) Len() int { return len(h) }
func (h rawHits) Less(i, j int) bool {
	a, b := &h[i], &h[j]
	if a.Target != b.Target {
		return a.Target < b.Target
	}
	if a.TBegin != b.TBegin {
		return a.TBegin < b.TBegin
	}
	return a.QBegin < b.QBegin
}
func (h rawHits) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

// MatchAll returns all k-mer hits between a query and the targets,
// sorted by target, target position and query position.
// Windows containing Ns are expanded, so a query window may hit
// multiple positions. Identical hits are reported once.
//
// The query is validated first, and the *TooShortError or *IllegalCharError
// is returned unchanged.
func MatchAll(q *Sequence, idx *Index) ([]RawHit, error) {
	err := Validate(q.Seq, idx.k)
	if err != nil {
		return nil, err
	}

	hits := make([]RawHit, 0, 8)
	var t, o uint32
	eachKmer(q.Seq, idx.k, func(offset int, kmer []byte) {
		for _, v := range idx.lookup(kmer) {
			t, o = util.Unpack2Uint32(v)
			hits = append(hits, RawHit{Query: q, QBegin: offset, Target: t, TBegin: int(o)})
		}
	})
	if len(hits) < 2 {
		return hits, nil
	}

	sorts.Quicksort(rawHits(hits))

	// remove duplicates, which come from the same query window
	// expanded to several k-mers sharing a wildcard target window.
	j := 1
	for i := 1; i < len(hits); i++ {
		if hits[i].Target == hits[j-1].Target &&
			hits[i].TBegin == hits[j-1].TBegin &&
			hits[i].QBegin == hits[j-1].QBegin {
			continue
		}
		hits[j] = hits[i]
		j++
	}
	return hits[:j], nil
}

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
	"sort"
)

// PairKey identifies a query/target pair.
type PairKey struct {
	QueryID   string
	QueryHash uint64
	Target    uint32
}

// Key returns the query/target pair of a hit.
func (h RawHit) Key() PairKey {
	return PairKey{QueryID: h.Query.ID, QueryHash: h.Query.Hash(), Target: h.Target}
}

// Match is the representative k-mer match of a query/target pair.
type Match struct {
	Query  *Sequence
	Target uint32
	QBegin int // 0-based
	TBegin int // 0-based
	Len    int
}

// FirstMatch returns the "first" match of hits sharing one query and one target:
// the minimum query position and the minimum target position, computed
// independently. When hits are not collinear, the returned pair of positions
// might not be supported by any single hit.
//
// An *InvariantError is returned for empty hits or hits of different
// queries or targets.
func FirstMatch(hits []RawHit, k int) (*Match, error) {
	if len(hits) == 0 {
		return nil, invariantf("no hits for a query/target pair")
	}

	h := &hits[0]
	query, target := h.Query, h.Target
	qBegin, tBegin := h.QBegin, h.TBegin
	for i := 1; i < len(hits); i++ {
		h = &hits[i]
		if !h.Query.Equal(query) {
			return nil, invariantf("hits of multiple queries: %s, %s", query.ID, h.Query.ID)
		}
		if h.Target != target {
			return nil, invariantf("hits of multiple targets: %d, %d", target, h.Target)
		}
		if h.QBegin < qBegin {
			qBegin = h.QBegin
		}
		if h.TBegin < tBegin {
			tBegin = h.TBegin
		}
	}

	return &Match{
		Query:  query,
		Target: target,
		QBegin: qBegin,
		TBegin: tBegin,
		Len:    k,
	}, nil
}

// ResolveByPair groups hits by query/target pair and computes
// the first match of each pair.
func ResolveByPair(hits []RawHit, k int) (map[PairKey]*Match, error) {
	groups := make(map[PairKey][]RawHit, 8)
	var key PairKey
	for _, h := range hits {
		key = h.Key()
		groups[key] = append(groups[key], h)
	}

	matches := make(map[PairKey]*Match, len(groups))
	for key, group := range groups {
		m, err := FirstMatch(group, k)
		if err != nil {
			return nil, err
		}
		matches[key] = m
	}
	return matches, nil
}

// ResolveSorted is like ResolveByPair, but returns matches sorted by
// query ID and target index.
func ResolveSorted(hits []RawHit, k int) ([]*Match, error) {
	m, err := ResolveByPair(hits, k)
	if err != nil {
		return nil, err
	}

	keys := make([]PairKey, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := &keys[i], &keys[j]
		if a.QueryID != b.QueryID {
			return a.QueryID < b.QueryID
		}
		if a.QueryHash != b.QueryHash {
			return a.QueryHash < b.QueryHash
		}
		return a.Target < b.Target
	})

	matches := make([]*Match, len(keys))
	for i, key := range keys {
		matches[i] = m[key]
	}
	return matches, nil
}

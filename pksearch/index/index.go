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
	"math"
	"sort"

	"github.com/pkg/errors"
	"github.com/shenwei356/kmers"
	"github.com/shenwei356/pksearch/pksearch/util"
	"github.com/twotwotwo/sorts/sortutil"
)

// MaxCodeK is the maximum k for which k-mers are stored as 2-bit codes.
// Larger k-mers are stored as strings.
const MaxCodeK = 32

// Position is an occurrence of a k-mer in a target.
type Position struct {
	Target uint32 // index of the target, see Index.Target
	Offset uint32 // 0-based start position of the k-mer
}

// Index maps concrete k-mers to their occurrences in a set of targets.
// It is read-only once built, so it can be shared by concurrent searchers.
type Index struct {
	k int

	// each value is a packed position:
	//   target index: 32 bits
	//   offset:       32 bits (0-based)
	// values of a k-mer are sorted and unique.
	codes map[uint64][]uint64 // k <= 32
	strs  map[string][]uint64 // k > 32

	targets []*Sequence // sorted by ID

	skipped    int // targets shorter than k
	duplicated int // targets sharing an ID with a previous one
}

// K returns the k-mer size.
func (idx *Index) K() int { return idx.k }

// NumTargets returns the number of indexed targets with distinct IDs.
func (idx *Index) NumTargets() int { return len(idx.targets) }

// Target returns the i-th target. Targets are sorted by ID.
func (idx *Index) Target(i uint32) *Sequence { return idx.targets[i] }

// NumKmers returns the number of distinct k-mers.
func (idx *Index) NumKmers() int {
	if idx.codes != nil {
		return len(idx.codes)
	}
	return len(idx.strs)
}

// Skipped returns the number of targets skipped for being shorter than k.
func (idx *Index) Skipped() int { return idx.skipped }

// Duplicated returns the number of targets whose ID appeared before.
// Their positions are merged into the first target with the same ID.
func (idx *Index) Duplicated() int { return idx.duplicated }

// Lookup returns the positions of a k-mer, case ignored.
// It returns nil if the k-mer is absent, has a different length than k,
// or contains a base other than A, C, G, T.
func (idx *Index) Lookup(kmer string) []Position {
	if len(kmer) != idx.k {
		return nil
	}
	buf := make([]byte, len(kmer))
	for i := 0; i < len(kmer); i++ {
		if !baseTable[kmer[i]] {
			return nil
		}
		buf[i] = upperTable[kmer[i]]
	}
	values := idx.lookup(buf)
	if len(values) == 0 {
		return nil
	}
	return unpackPositions(values)
}

// lookup returns the packed positions of an upper-case concrete k-mer.
// kmers.Encode maps ambiguous bases to concrete ones, so callers must
// not pass any base other than A, C, G, T.
// The returned slice must not be modified.
func (idx *Index) lookup(kmer []byte) []uint64 {
	if idx.codes != nil {
		code, err := kmers.Encode(kmer)
		if err != nil {
			return nil
		}
		return idx.codes[code]
	}
	return idx.strs[string(kmer)]
}

// Walk calls fn for every k-mer in lexicographic order,
// until fn returns false.
func (idx *Index) Walk(fn func(kmer []byte, positions []Position) bool) {
	if idx.codes != nil {
		codes := make([]uint64, 0, len(idx.codes))
		for code := range idx.codes {
			codes = append(codes, code)
		}
		// 2-bit codes of A<C<G<T keep the lexicographic order
		sortutil.Uint64s(codes)
		for _, code := range codes {
			if !fn(kmers.MustDecode(code, idx.k), unpackPositions(idx.codes[code])) {
				return
			}
		}
		return
	}

	keys := make([]string, 0, len(idx.strs))
	for key := range idx.strs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !fn([]byte(key), unpackPositions(idx.strs[key])) {
			return
		}
	}
}

func unpackPositions(values []uint64) []Position {
	positions := make([]Position, len(values))
	for i, v := range values {
		t, o := util.Unpack2Uint32(v)
		positions[i] = Position{Target: t, Offset: o}
	}
	return positions
}

// eachKmer slides a k-length window across s and calls fn for every
// concrete k-mer of every window. s should be validated.
func eachKmer(s []byte, k int, fn func(offset int, kmer []byte)) {
	var i int
	f := func(kmer []byte) { fn(i, kmer) }
	for i = 0; i <= len(s)-k; i++ {
		ExpandFunc(s[i:i+k], f)
	}
}

// -----------------------------------------------------------------------

// Builder builds an Index from targets added one by one.
type Builder struct {
	k     int
	built bool

	codes map[uint64][]uint64
	strs  map[string][]uint64

	ordinals map[string]uint32 // target ID -> ordinal
	seqs     []*Sequence        // by ordinal

	skipped    int
	duplicated int
}

var mapInitSize = 1 << 10

// NewBuilder creates a Builder for k-mers of size k.
func NewBuilder(k int) (*Builder, error) {
	if k < 1 {
		return nil, ErrInvalidK
	}
	b := &Builder{
		k:        k,
		ordinals: make(map[string]uint32, 128),
		seqs:     make([]*Sequence, 0, 128),
	}
	if k <= MaxCodeK {
		b.codes = make(map[uint64][]uint64, mapInitSize)
	} else {
		b.strs = make(map[string][]uint64, mapInitSize)
	}
	return b, nil
}

// Skipped returns the number of targets skipped so far.
func (b *Builder) Skipped() int { return b.skipped }

// Add indexes all k-mers of a target. A target shorter than k is skipped
// and counted, and (false, nil) is returned. A target containing illegal
// characters returns an error, which should stop the building.
func (b *Builder) Add(s *Sequence) (bool, error) {
	if b.built {
		return false, ErrBuilt
	}

	err := Validate(s.Seq, b.k)
	if err != nil {
		if errors.Is(err, ErrTooShort) {
			b.skipped++
			return false, nil
		}
		return false, errors.Wrapf(err, "target %s", s.ID)
	}
	if uint64(len(s.Seq)) > math.MaxUint32 {
		return false, errors.Wrapf(ErrTargetTooLong, "target %s", s.ID)
	}

	ord, ok := b.ordinals[s.ID]
	if ok {
		b.duplicated++
	} else {
		ord = uint32(len(b.seqs))
		b.ordinals[s.ID] = ord
		b.seqs = append(b.seqs, s)
	}

	if b.codes != nil {
		var code uint64
		eachKmer(s.Seq, b.k, func(offset int, kmer []byte) {
			code, err = kmers.Encode(kmer)
			if err != nil { // impossible for validated k-mers
				panic(err)
			}
			b.codes[code] = append(b.codes[code], util.Pack2Uint32(ord, uint32(offset)))
		})
	} else {
		var key string
		eachKmer(s.Seq, b.k, func(offset int, kmer []byte) {
			key = string(kmer)
			b.strs[key] = append(b.strs[key], util.Pack2Uint32(ord, uint32(offset)))
		})
	}

	return true, nil
}

// Build finishes the index. Targets are sorted by ID, and positions of
// each k-mer are sorted by target ID and offset, with duplicates removed.
// The builder can not be used anymore.
func (b *Builder) Build() (*Index, error) {
	if b.built {
		return nil, ErrBuilt
	}
	b.built = true

	// rank targets by ID
	order := make([]uint32, len(b.seqs))
	for i := range order {
		order[i] = uint32(i)
	}
	sort.Slice(order, func(i, j int) bool { return b.seqs[order[i]].ID < b.seqs[order[j]].ID })

	rank := make([]uint32, len(b.seqs))
	targets := make([]*Sequence, len(b.seqs))
	for r, o := range order {
		rank[o] = uint32(r)
		targets[r] = b.seqs[o]
	}

	remap := func(values []uint64) []uint64 {
		var o, p uint32
		for i, v := range values {
			o, p = util.Unpack2Uint32(v)
			values[i] = util.Pack2Uint32(rank[o], p)
		}
		util.UniqUint64s(&values)
		return values
	}
	for key, values := range b.codes {
		b.codes[key] = remap(values)
	}
	for key, values := range b.strs {
		b.strs[key] = remap(values)
	}

	idx := &Index{
		k:          b.k,
		codes:      b.codes,
		strs:       b.strs,
		targets:    targets,
		skipped:    b.skipped,
		duplicated: b.duplicated,
	}

	b.codes, b.strs, b.ordinals, b.seqs = nil, nil, nil, nil

	return idx, nil
}

// Build builds an Index from a list of targets.
func Build(targets []*Sequence, k int) (*Index, error) {
	b, err := NewBuilder(k)
	if err != nil {
		return nil, err
	}
	for _, s := range targets {
		if _, err = b.Add(s); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

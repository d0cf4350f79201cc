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
	"strings"
	"testing"

	"github.com/pkg/errors"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		s       string
		k       int
		wantErr error
		pos     int
		char    byte
	}{
		{"ACGT", 4, nil, 0, 0},
		{"acgtn", 4, nil, 0, 0},
		{"ACG", 4, ErrTooShort, 0, 0},
		{"", 1, ErrTooShort, 0, 0},
		{"ACGXT", 4, ErrIllegalChar, 3, 'X'},
		{"ACGT-", 4, ErrIllegalChar, 4, '-'},
		{"RCGT", 2, ErrIllegalChar, 0, 'R'},
	}

	for i, test := range tests {
		err := Validate([]byte(test.s), test.k)
		if test.wantErr == nil {
			if err != nil {
				t.Errorf("#%d: unexpected error: %s", i, err)
			}
			continue
		}
		if !errors.Is(err, test.wantErr) {
			t.Errorf("#%d: unexpected error: %v, expected %v", i, err, test.wantErr)
			continue
		}
		if test.wantErr == ErrIllegalChar {
			var e *IllegalCharError
			if !errors.As(err, &e) {
				t.Errorf("#%d: error type should be *IllegalCharError", i)
				continue
			}
			if e.Pos != test.pos || e.Char != test.char {
				t.Errorf("#%d: unexpected illegal char: %c at %d, expected %c at %d", i, e.Char, e.Pos, test.char, test.pos)
			}
		}
	}
}

func TestNProportion(t *testing.T) {
	if p := NProportion([]byte("ACNnACGTAC")); p != 0.2 {
		t.Errorf("unexpected N proportion: %f", p)
	}
	if p := NProportion(nil); p != 0 {
		t.Errorf("unexpected N proportion of empty sequence: %f", p)
	}
}

func TestSequenceEqual(t *testing.T) {
	a := NewSequence("s", []byte("ACGT"))
	b := NewSequence("s", []byte("acgt"))
	c := NewSequence("s", []byte("ACGA"))
	d := NewSequence("x", []byte("ACGT"))

	if !a.Equal(b) || a.Hash() != b.Hash() {
		t.Errorf("sequences differing only in case should be equal")
	}
	if a.Equal(c) || a.Equal(d) {
		t.Errorf("sequences with different IDs or bases should not be equal")
	}

	s := []byte("ACGT")
	e := NewSequence("e", s)
	s[0] = 'T'
	if e.Seq[0] != 'A' {
		t.Errorf("NewSequence should copy the bases")
	}
}

func TestExpand(t *testing.T) {
	list := Expand([]byte("acgt"))
	if len(list) != 1 || list[0] != "ACGT" {
		t.Errorf("unexpected expansion of a concrete window: %v", list)
	}

	list = Expand([]byte("ACNT"))
	want := []string{"ACAT", "ACCT", "ACGT", "ACTT"}
	if strings.Join(list, ",") != strings.Join(want, ",") {
		t.Errorf("unexpected expansion: %v, expected %v", list, want)
	}

	for _, window := range []string{"NNAC", "nAnTn", "NNNNN", "ANCGNNTA"} {
		m := CountN([]byte(window))
		list = Expand([]byte(window))

		n := 1
		for i := 0; i < m; i++ {
			n *= 4
		}
		if len(list) != n {
			t.Errorf("%s: unexpected number of expanded k-mers: %d, expected %d", window, len(list), n)
		}

		upper := strings.ToUpper(window)
		seen := make(map[string]struct{}, len(list))
		for i, s := range list {
			if _, ok := seen[s]; ok {
				t.Errorf("%s: duplicated k-mer: %s", window, s)
			}
			seen[s] = struct{}{}

			if len(s) != len(window) {
				t.Errorf("%s: unexpected k-mer length: %s", window, s)
			}
			for j := 0; j < len(s); j++ {
				if upper[j] == 'N' {
					if strings.IndexByte("ACGT", s[j]) < 0 {
						t.Errorf("%s: N should be replaced with A, C, G or T: %s", window, s)
					}
				} else if s[j] != upper[j] {
					t.Errorf("%s: non-N base changed: %s", window, s)
				}
			}
			if i > 0 && list[i-1] >= s {
				t.Errorf("%s: k-mers should be sorted: %s, %s", window, list[i-1], s)
			}
		}
	}
}

func mustBuild(t *testing.T, k int, seqs ...*Sequence) *Index {
	idx, err := Build(seqs, k)
	if err != nil {
		t.Fatal(err)
	}
	return idx
}

func TestIndexAllOffsets(t *testing.T) {
	for _, k := range []int{3, 5, 33} {
		s := "ACGGTCATGCATTGACCAGTACGATCAGTCAGGCATTACAGCAT"
		target := NewSequence("t1", []byte(s))
		idx := mustBuild(t, k, target)

		if idx.NumTargets() != 1 {
			t.Errorf("k=%d: unexpected number of targets: %d", k, idx.NumTargets())
		}

		for i := 0; i <= len(s)-k; i++ {
			found := false
			for _, p := range idx.Lookup(s[i : i+k]) {
				if idx.Target(p.Target).ID == "t1" && int(p.Offset) == i {
					found = true
				}
			}
			if !found {
				t.Errorf("k=%d: k-mer %s at %d not found", k, s[i:i+k], i)
			}
		}

		var n int
		idx.Walk(func(kmer []byte, positions []Position) bool {
			n += len(positions)
			return true
		})
		if n != len(s)-k+1 {
			t.Errorf("k=%d: unexpected number of positions: %d, expected %d", k, n, len(s)-k+1)
		}
	}
}

func TestIndexWildcardTarget(t *testing.T) {
	idx := mustBuild(t, 4, NewSequence("t1", []byte("ACNT")))
	if idx.NumKmers() != 4 {
		t.Errorf("unexpected number of k-mers: %d", idx.NumKmers())
	}
	for _, kmer := range []string{"ACAT", "ACCT", "ACGT", "acTT"} {
		positions := idx.Lookup(kmer)
		if len(positions) != 1 || positions[0].Offset != 0 {
			t.Errorf("unexpected positions of %s: %v", kmer, positions)
		}
	}
	if positions := idx.Lookup("ACNT"); positions != nil {
		t.Errorf("wildcard k-mers should not be found: %v", positions)
	}
	if positions := idx.Lookup("ACG"); positions != nil {
		t.Errorf("k-mers of a different length should not be found: %v", positions)
	}

	// ambiguous bases must not be encoded as concrete ones
	idx = mustBuild(t, 4, NewSequence("t1", []byte("ACATGG")))
	if positions := idx.Lookup("ACAT"); len(positions) != 1 {
		t.Errorf("unexpected positions of ACAT: %v", positions)
	}
	for _, kmer := range []string{"ACNT", "MCAT", "acRT", "BCAT", "AC-T"} {
		if positions := idx.Lookup(kmer); positions != nil {
			t.Errorf("non-ACGT k-mer %s should not be found: %v", kmer, positions)
		}
	}
}

func TestBuilderSkipAndFail(t *testing.T) {
	b, err := NewBuilder(5)
	if err != nil {
		t.Fatal(err)
	}

	ok, err := b.Add(NewSequence("short", []byte("ACGT")))
	if ok || err != nil {
		t.Errorf("a short target should be skipped without error: %v, %v", ok, err)
	}
	if b.Skipped() != 1 {
		t.Errorf("unexpected number of skipped targets: %d", b.Skipped())
	}

	_, err = b.Add(NewSequence("bad", []byte("ACGTRACGT")))
	if !errors.Is(err, ErrIllegalChar) {
		t.Errorf("an illegal character in a target should be an error: %v", err)
	}

	if _, err = NewBuilder(0); err != ErrInvalidK {
		t.Errorf("k=0 should be rejected: %v", err)
	}

	idx, err := b.Build()
	if err != nil {
		t.Fatal(err)
	}
	if idx.Skipped() != 1 {
		t.Errorf("unexpected number of skipped targets: %d", idx.Skipped())
	}
	if _, err = b.Build(); err != ErrBuilt {
		t.Errorf("building twice should fail: %v", err)
	}
	if _, err = b.Add(NewSequence("s", []byte("ACGTACGT"))); err != ErrBuilt {
		t.Errorf("adding after building should fail: %v", err)
	}
}

func TestIndexOrderAndDedup(t *testing.T) {
	idx := mustBuild(t, 4,
		NewSequence("t2", []byte("ACGTACGT")),
		NewSequence("t1", []byte("TTACGT")),
		NewSequence("t2", []byte("ACGTAA")), // same ID, positions merged
	)

	if idx.NumTargets() != 2 || idx.Duplicated() != 1 {
		t.Errorf("unexpected numbers of targets: %d, %d", idx.NumTargets(), idx.Duplicated())
	}
	if idx.Target(0).ID != "t1" || idx.Target(1).ID != "t2" {
		t.Errorf("targets should be sorted by ID")
	}

	positions := idx.Lookup("ACGT")
	want := []Position{{0, 2}, {1, 0}, {1, 4}}
	if len(positions) != len(want) {
		t.Fatalf("unexpected positions: %v, expected %v", positions, want)
	}
	for i, p := range positions {
		if p != want[i] {
			t.Errorf("unexpected positions: %v, expected %v", positions, want)
			break
		}
	}
}

func TestMatchAll(t *testing.T) {
	idx := mustBuild(t, 4, NewSequence("T1", []byte("ACGTACGT")))
	q := NewSequence("Q1", []byte("TTACGTTT"))

	hits, err := MatchAll(q, idx)
	if err != nil {
		t.Fatal(err)
	}
	// ACGT at query 2 hits target 0 and 4, TACG at query 1 hits target 3
	want := [][2]int{{2, 0}, {1, 3}, {2, 4}}
	if len(hits) != len(want) {
		t.Fatalf("unexpected hits: %v", hits)
	}
	for i, h := range hits {
		if h.Target != 0 || h.QBegin != want[i][0] || h.TBegin != want[i][1] {
			t.Errorf("unexpected hit: %s", h)
		}
	}

	// exact substring
	s := "GATTACAGGCTTAGC"
	idx = mustBuild(t, 6, NewSequence("t", []byte(s)))
	q = NewSequence("q", []byte("CC"+s[5:12]+"AA"))
	hits, err = MatchAll(q, idx)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, h := range hits {
		if h.TBegin == 5 && h.QBegin == 2 {
			found = true
		}
	}
	if !found {
		t.Errorf("hit of the shared substring not found: %v", hits)
	}

	// errors are returned unchanged
	_, err = MatchAll(NewSequence("short", []byte("ACG")), mustBuild(t, 4, NewSequence("T1", []byte("ACGT"))))
	var e *TooShortError
	if !errors.As(err, &e) {
		t.Errorf("unexpected error: %v", err)
	}
	_, err = MatchAll(NewSequence("bad", []byte("ACGTACGT*")), idx)
	if !errors.Is(err, ErrIllegalChar) {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestMatchAllWildcards(t *testing.T) {
	idx := mustBuild(t, 4, NewSequence("T1", []byte("ACNTGG")))

	hits, err := MatchAll(NewSequence("Q", []byte("AAACGT")), idx)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 || hits[0].QBegin != 2 || hits[0].TBegin != 0 {
		t.Errorf("unexpected hits: %v", hits)
	}

	// the query window ACNT expands to four k-mers all hitting T1:0
	hits, err = MatchAll(NewSequence("Q", []byte("ACNT")), idx)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 1 {
		t.Errorf("duplicated hits should be removed: %v", hits)
	}

	// one query window hitting two target positions
	idx = mustBuild(t, 3, NewSequence("T1", []byte("ACAGGACT")))
	hits, err = MatchAll(NewSequence("Q", []byte("ACN")), idx)
	if err != nil {
		t.Fatal(err)
	}
	if len(hits) != 2 || hits[0].TBegin != 0 || hits[1].TBegin != 5 {
		t.Errorf("unexpected hits: %v", hits)
	}
}

func TestCaseInsensitive(t *testing.T) {
	upper := mustBuild(t, 5, NewSequence("T", []byte("ACGTTGCANAGGT")))
	lower := mustBuild(t, 5, NewSequence("T", []byte("acgttgcanaggt")))

	q1 := NewSequence("Q", []byte("TTGCAAAG"))
	q2 := NewSequence("Q", []byte("ttgcaaag"))

	h1, err := MatchAll(q1, upper)
	if err != nil {
		t.Fatal(err)
	}
	for _, c := range []struct {
		idx *Index
		q   *Sequence
	}{{upper, q2}, {lower, q1}, {lower, q2}} {
		h2, err := MatchAll(c.q, c.idx)
		if err != nil {
			t.Fatal(err)
		}
		if len(h1) != len(h2) {
			t.Errorf("unexpected hits: %v, expected %v", h2, h1)
			continue
		}
		for i := range h1 {
			if h1[i].QBegin != h2[i].QBegin || h1[i].TBegin != h2[i].TBegin || h1[i].Target != h2[i].Target {
				t.Errorf("unexpected hits: %v, expected %v", h2, h1)
				break
			}
		}
	}
}

func TestFirstMatch(t *testing.T) {
	q := NewSequence("Q", []byte("ACGTACGTAC"))

	_, err := FirstMatch(nil, 4)
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("empty hits should be an invariant violation: %v", err)
	}

	// minima of the two axes come from different hits
	hits := []RawHit{
		{Query: q, QBegin: 4, Target: 0, TBegin: 1},
		{Query: q, QBegin: 1, Target: 0, TBegin: 9},
	}
	m, err := FirstMatch(hits, 4)
	if err != nil {
		t.Fatal(err)
	}
	if m.QBegin != 1 || m.TBegin != 1 || m.Len != 4 {
		t.Errorf("unexpected match: %+v", m)
	}

	_, err = FirstMatch(append(hits, RawHit{Query: q, QBegin: 0, Target: 1}), 4)
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("hits of multiple targets should be an invariant violation: %v", err)
	}
	q2 := NewSequence("Q2", []byte("ACGTACGTAC"))
	_, err = FirstMatch(append(hits, RawHit{Query: q2, QBegin: 0, Target: 0}), 4)
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("hits of multiple queries should be an invariant violation: %v", err)
	}
}

func TestResolveByPair(t *testing.T) {
	q1 := NewSequence("Q1", []byte("ACGTACGTAC"))
	q2 := NewSequence("Q2", []byte("ACGTACGTAC"))
	hits := []RawHit{
		{Query: q1, QBegin: 3, Target: 1, TBegin: 5},
		{Query: q1, QBegin: 2, Target: 1, TBegin: 7},
		{Query: q1, QBegin: 6, Target: 0, TBegin: 0},
		{Query: q2, QBegin: 0, Target: 1, TBegin: 2},
	}

	m, err := ResolveByPair(hits, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(m) != 3 {
		t.Fatalf("unexpected number of pairs: %d", len(m))
	}
	r := m[PairKey{QueryID: "Q1", QueryHash: q1.Hash(), Target: 1}]
	if r == nil || r.QBegin != 2 || r.TBegin != 5 {
		t.Errorf("unexpected match: %+v", r)
	}

	list, err := ResolveSorted(hits, 4)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 3 ||
		list[0].Query != q1 || list[0].Target != 0 ||
		list[1].Query != q1 || list[1].Target != 1 ||
		list[2].Query != q2 {
		t.Errorf("unexpected order of matches")
	}
}

func TestToAlignment(t *testing.T) {
	idx := mustBuild(t, 4, NewSequence("T1", []byte("ACGTACGT")))
	q := NewSequence("Q1", []byte("TTACGTTT"))

	hits, err := MatchAll(q, idx)
	if err != nil {
		t.Fatal(err)
	}
	matches, err := ResolveSorted(hits, idx.K())
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("unexpected number of matches: %d", len(matches))
	}
	// hits: (2, 0), (1, 3), (2, 4). The minima of the two axes are taken
	// independently, so the match starts at query 1 and target 0.
	m := matches[0]
	if m.QBegin != 1 || m.TBegin != 0 || m.Len != 4 {
		t.Errorf("unexpected match: %+v", m)
	}

	a, err := ToAlignment(m, idx)
	if err != nil {
		t.Fatal(err)
	}
	if a.Clip5 != 1 || a.MatchLen != 4 || a.Clip3 != 3 || a.Pos != 1 || a.TargetID != "T1" {
		t.Errorf("unexpected alignment: %+v", a)
	}
	if c := a.CIGAR(); c != "1S4M3S" {
		t.Errorf("unexpected CIGAR: %s", c)
	}

	// a single hit
	idx = mustBuild(t, 4, NewSequence("T1", []byte("ACGTAAAA")))
	hits, err = MatchAll(q, idx)
	if err != nil {
		t.Fatal(err)
	}
	matches, err = ResolveSorted(hits, idx.K())
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) != 1 {
		t.Fatalf("unexpected number of matches: %d", len(matches))
	}
	a, err = ToAlignment(matches[0], idx)
	if err != nil {
		t.Fatal(err)
	}
	if a.Clip5 != 2 || a.MatchLen != 4 || a.Clip3 != 2 || a.Pos != 1 {
		t.Errorf("unexpected alignment: %+v", a)
	}
	if c := a.CIGAR(); c != "2S4M2S" {
		t.Errorf("unexpected CIGAR: %s", c)
	}
	if a.QBegin() != 3 || a.QEnd() != 6 || a.TEnd() != 4 {
		t.Errorf("unexpected coordinates: %d-%d, %d-%d", a.QBegin(), a.QEnd(), a.Pos, a.TEnd())
	}

	a, _ = ToAlignment(&Match{Query: NewSequence("q", []byte("ACGT")), QBegin: 0, TBegin: 3, Len: 4}, idx)
	if c := a.CIGAR(); c != "4M" {
		t.Errorf("unexpected CIGAR: %s", c)
	}

	_, err = ToAlignment(&Match{Query: q, QBegin: 6, Len: 4}, idx)
	if !errors.Is(err, ErrInvariant) {
		t.Errorf("a negative soft clip should be an invariant violation: %v", err)
	}
}

func TestIdempotence(t *testing.T) {
	idx := mustBuild(t, 5,
		NewSequence("a", []byte("ACGTNACGTTTGCA")),
		NewSequence("b", []byte("GGACGTAACGTTT")))
	q := NewSequence("q", []byte("TACGTAACGTTTGC"))

	run := func() string {
		hits, err := MatchAll(q, idx)
		if err != nil {
			t.Fatal(err)
		}
		matches, err := ResolveSorted(hits, idx.K())
		if err != nil {
			t.Fatal(err)
		}
		var sb strings.Builder
		for _, h := range hits {
			sb.WriteString(h.String())
			sb.WriteByte(';')
		}
		for _, m := range matches {
			a, err := ToAlignment(m, idx)
			if err != nil {
				t.Fatal(err)
			}
			sb.WriteString(a.TargetID + a.CIGAR())
			sb.WriteByte(';')
		}
		return sb.String()
	}

	r1, r2 := run(), run()
	if r1 != r2 {
		t.Errorf("results differ between runs: %s, %s", r1, r2)
	}
}

func TestCIGAR(t *testing.T) {
	tests := []struct {
		clip5, matchLen, clip3 int
		cigar                  string
	}{
		{0, 4, 0, "4M"},
		{2, 4, 0, "2S4M"},
		{0, 4, 3, "4M3S"},
		{1, 4, 3, "1S4M3S"},
		{10, 31, 120, "10S31M120S"},
	}
	for _, test := range tests {
		a := &Alignment{Clip5: test.clip5, MatchLen: test.matchLen, Clip3: test.clip3}
		// twice, as records are recycled
		for i := 0; i < 2; i++ {
			if c := a.CIGAR(); c != test.cigar {
				t.Errorf("unexpected CIGAR for %d/%d/%d: %s, expected %s",
					test.clip5, test.matchLen, test.clip3, c, test.cigar)
			}
		}
	}
}

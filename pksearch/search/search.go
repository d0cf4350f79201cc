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

package search

import (
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
	"github.com/shenwei356/pksearch/pksearch/index"
)

// ErrTooManyN means the proportion of Ns in a query exceeds the threshold.
var ErrTooManyN = errors.New("search: too many Ns")

// TooManyNError records the N proportion of a skipped query.
type TooManyNError struct {
	Proportion float64
	Max        float64
}

func (e *TooManyNError) Error() string {
	return fmt.Sprintf("proportion of Ns %.4f > %.4f", e.Proportion, e.Max)
}

// Is makes errors.Is(err, ErrTooManyN) work.
func (e *TooManyNError) Is(target error) bool { return target == ErrTooManyN }

// Status is the final state of a query.
type Status uint8

const (
	Unmapped Status = iota
	Unique
	Multi
	SkippedTooShort
	SkippedIllegalChar
	SkippedTooManyN

	numStatus
)

var statusNames = [numStatus]string{
	Unmapped:           "unmapped",
	Unique:             "unique",
	Multi:              "multi",
	SkippedTooShort:    "too_short",
	SkippedIllegalChar: "illegal_char",
	SkippedTooManyN:    "too_many_n",
}

func (s Status) String() string {
	if s < numStatus {
		return statusNames[s]
	}
	return fmt.Sprintf("Status(%d)", uint8(s))
}

// Skipped tells if the query was skipped before matching.
func (s Status) Skipped() bool {
	return s == SkippedTooShort || s == SkippedIllegalChar || s == SkippedTooManyN
}

// Result is the outcome of searching a query.
type Result struct {
	Query      *index.Sequence
	Status     Status
	Alignments []*index.Alignment // sorted by target ID

	Reason error // why the query was skipped
}

// Options contains the options for searching.
type Options struct {
	MaxNProportion float64 // maximum proportion of Ns in a query
	Threads        int     // number of queries searched concurrently
}

// DefaultOptions is the default options.
var DefaultOptions = Options{
	MaxNProportion: 0.05,
	Threads:        1,
}

// CheckOptions checks the options.
func CheckOptions(opt *Options) error {
	if opt.MaxNProportion < 0 || opt.MaxNProportion > 1 {
		return fmt.Errorf("invalid maximum proportion of Ns: %f, valid range: [0, 1]", opt.MaxNProportion)
	}
	if opt.Threads < 1 {
		return fmt.Errorf("invalid number of threads: %d, should be >= 1", opt.Threads)
	}
	return nil
}

// Searcher searches queries against an index.
// It is safe for concurrent use.
type Searcher struct {
	idx *index.Index
	opt Options

	match func(q *index.Sequence, idx *index.Index) ([]index.RawHit, error)
}

// NewSearcher creates a Searcher.
func NewSearcher(idx *index.Index, opt *Options) (*Searcher, error) {
	if opt == nil {
		opt = &DefaultOptions
	}
	if err := CheckOptions(opt); err != nil {
		return nil, err
	}
	return &Searcher{
		idx:   idx,
		opt:   *opt,
		match: index.MatchAll,
	}, nil
}

// skipStatus returns the skip status of a validation error.
func skipStatus(err error) (Status, bool) {
	switch {
	case errors.Is(err, index.ErrTooShort):
		return SkippedTooShort, true
	case errors.Is(err, index.ErrIllegalChar):
		return SkippedIllegalChar, true
	case errors.Is(err, ErrTooManyN):
		return SkippedTooManyN, true
	}
	return 0, false
}

// Search searches a query. Queries that are too short, contain illegal
// characters or too many Ns are returned with a skip status and a reason.
// The returned error is only for fatal errors, e.g., broken invariants.
func (s *Searcher) Search(q *index.Sequence) (*Result, error) {
	r := &Result{Query: q}
	k := s.idx.K()

	// validating
	err := index.Validate(q.Seq, k)
	if err == nil {
		// filtering
		if p := index.NProportion(q.Seq); p > s.opt.MaxNProportion {
			err = &TooManyNError{Proportion: p, Max: s.opt.MaxNProportion}
		}
	}
	if err != nil {
		status, ok := skipStatus(err)
		if !ok {
			return nil, errors.Wrapf(err, "query %s", q.ID)
		}
		r.Status = status
		r.Reason = err
		return r, nil
	}

	// matching
	hits, err := s.match(q, s.idx)
	if err != nil {
		if status, ok := skipStatus(err); ok {
			r.Status = status
			r.Reason = err
			return r, nil
		}
		return nil, errors.Wrapf(err, "query %s", q.ID)
	}

	matches, err := index.ResolveSorted(hits, k)
	if err != nil {
		return nil, errors.Wrapf(err, "query %s", q.ID)
	}

	if len(matches) > 0 {
		r.Alignments = make([]*index.Alignment, 0, len(matches))
	}
	for _, m := range matches {
		a, err := index.ToAlignment(m, s.idx)
		if err != nil {
			return nil, errors.Wrapf(err, "query %s", q.ID)
		}
		r.Alignments = append(r.Alignments, a)
	}

	// classifying
	switch len(r.Alignments) {
	case 0:
		r.Status = Unmapped
	case 1:
		r.Status = Unique
	default:
		r.Status = Multi
	}
	return r, nil
}

// Source provides queries one by one, and returns io.EOF at the end.
type Source interface {
	Next() (*index.Sequence, error)
}

// Sink receives results of all queries, including skipped ones.
type Sink interface {
	Write(r *Result) error
}

// Run searches all queries from src and sends the results to sink.
// With more than one thread, queries are searched concurrently, and the order
// of results might be different from the input.
// Any fatal error stops the run, the summary so far is returned along with it.
func (s *Searcher) Run(src Source, sink Sink) (*Summary, error) {
	if s.opt.Threads <= 1 {
		return s.runSerial(src, sink)
	}
	return s.runParallel(src, sink)
}

func (s *Searcher) runSerial(src Source, sink Sink) (*Summary, error) {
	summary := NewSummary()
	for {
		q, err := src.Next()
		if err != nil {
			if err == io.EOF {
				break
			}
			return summary, err
		}

		r, err := s.Search(q)
		if err != nil {
			return summary, err
		}

		summary.Add(r)
		if err = sink.Write(r); err != nil {
			return summary, err
		}
	}
	return summary, nil
}

// firstError keeps the first error set by multiple goroutines.
type firstError struct {
	mu  sync.Mutex
	err error
}

func (e *firstError) Set(err error) {
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
}

func (e *firstError) Get() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

func (s *Searcher) runParallel(src Source, sink Sink) (*Summary, error) {
	summary := NewSummary()
	var fatal firstError

	// the only goroutine touching the sink and the summary.
	// Nothing is written after a fatal error.
	ch := make(chan *Result, s.opt.Threads)
	done := make(chan int)
	go func() {
		var failed bool
		for r := range ch {
			if failed || fatal.Get() != nil {
				failed = true
				continue
			}
			summary.Add(r)
			if err := sink.Write(r); err != nil {
				fatal.Set(err)
				failed = true
			}
		}
		done <- 1
	}()

	var wg sync.WaitGroup
	tokens := make(chan int, s.opt.Threads)

	for fatal.Get() == nil {
		q, err := src.Next()
		if err != nil {
			if err != io.EOF {
				fatal.Set(err)
			}
			break
		}

		tokens <- 1
		wg.Add(1)
		go func(q *index.Sequence) {
			defer func() {
				<-tokens
				wg.Done()
			}()

			r, err := s.Search(q)
			if err != nil {
				fatal.Set(err)
				return
			}
			ch <- r
		}(q)
	}
	wg.Wait()
	close(ch)
	<-done

	return summary, fatal.Get()
}

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
	"os"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
	"github.com/shenwei356/go-logging"
	"gonum.org/v1/gonum/stat"
)

// Summary counts queries of each status.
type Summary struct {
	counts [numStatus]uint64

	// number of targets -> number of mapped queries
	hist map[int]uint64
}

// NewSummary creates an empty Summary.
func NewSummary() *Summary {
	return &Summary{hist: make(map[int]uint64, 8)}
}

// Add counts a result.
func (s *Summary) Add(r *Result) {
	s.counts[r.Status]++
	if n := len(r.Alignments); n > 0 {
		s.hist[n]++
	}
}

// Count returns the number of queries of a status.
func (s *Summary) Count(status Status) uint64 { return s.counts[status] }

// Total returns the number of all queries.
func (s *Summary) Total() (n uint64) {
	for _, c := range s.counts {
		n += c
	}
	return n
}

// Mapped returns the number of queries with at least one alignment.
func (s *Summary) Mapped() uint64 { return s.counts[Unique] + s.counts[Multi] }

// TargetsPerQuery returns the mean and standard deviation of
// the number of targets hit by mapped queries.
func (s *Summary) TargetsPerQuery() (float64, float64) {
	if len(s.hist) == 0 {
		return 0, 0
	}

	ns := make([]int, 0, len(s.hist))
	for n := range s.hist {
		ns = append(ns, n)
	}
	sort.Ints(ns)

	x := make([]float64, len(ns))
	w := make([]float64, len(ns))
	for i, n := range ns {
		x[i] = float64(n)
		w[i] = float64(s.hist[n])
	}

	if s.Mapped() < 2 {
		return stat.Mean(x, w), 0
	}
	return stat.MeanStdDev(x, w)
}

// Log writes the summary.
func (s *Summary) Log(log *logging.Logger, k int, maxNProportion float64) {
	mean, std := s.TargetsPerQuery()

	log.Info()
	log.Info("RESULTS")
	log.Infof("  queries processed: %d", s.Total())
	log.Infof("  queries mapped uniquely: %d", s.counts[Unique])
	log.Infof("  queries mapped to multiple targets: %d", s.counts[Multi])
	log.Infof("  queries unmapped: %d", s.counts[Unmapped])
	if s.Mapped() > 0 {
		log.Infof("  targets per mapped query: %.2f ± %.2f", mean, std)
	}
	if c := s.counts[SkippedTooShort]; c > 0 {
		log.Warningf("  queries skipped because they were shorter than %d: %d", k, c)
	}
	if c := s.counts[SkippedIllegalChar]; c > 0 {
		log.Warningf("  queries skipped because they contain an illegal character: %d", c)
	}
	if c := s.counts[SkippedTooManyN]; c > 0 {
		log.Warningf("  queries skipped because they contain > %g Ns: %d", maxNProportion, c)
	}
	log.Info()
}

// SummaryInfo is the summary saved in a TOML file.
type SummaryInfo struct {
	K              int     `toml:"k" comment:"k-mer size"`
	MaxNProportion float64 `toml:"max-n-proportion" comment:"maximum proportion of Ns in a query"`

	Queries     uint64 `toml:"queries"`
	Unique      uint64 `toml:"unique"`
	Multi       uint64 `toml:"multi"`
	Unmapped    uint64 `toml:"unmapped"`
	TooShort    uint64 `toml:"too-short"`
	IllegalChar uint64 `toml:"illegal-char"`
	TooManyN    uint64 `toml:"too-many-n"`

	TargetsPerQueryMean  float64 `toml:"targets-per-query-mean" comment:"number of targets hit by a mapped query"`
	TargetsPerQueryStdev float64 `toml:"targets-per-query-stdev"`
}

// Info returns the summary info.
func (s *Summary) Info(k int, maxNProportion float64) *SummaryInfo {
	mean, std := s.TargetsPerQuery()
	return &SummaryInfo{
		K:              k,
		MaxNProportion: maxNProportion,

		Queries:     s.Total(),
		Unique:      s.counts[Unique],
		Multi:       s.counts[Multi],
		Unmapped:    s.counts[Unmapped],
		TooShort:    s.counts[SkippedTooShort],
		IllegalChar: s.counts[SkippedIllegalChar],
		TooManyN:    s.counts[SkippedTooManyN],

		TargetsPerQueryMean:  mean,
		TargetsPerQueryStdev: std,
	}
}

// WriteSummaryInfo saves the summary info to a TOML file.
func WriteSummaryInfo(file string, info *SummaryInfo) error {
	fh, err := os.Create(file)
	if err != nil {
		return errors.Wrapf(err, "failed to write summary file: %s", file)
	}

	err = toml.NewEncoder(fh).Encode(info)
	if err != nil {
		fh.Close()
		return errors.Wrapf(err, "failed to write summary file: %s", file)
	}

	return fh.Close()
}

// ReadSummaryInfo reads the summary info from a TOML file.
func ReadSummaryInfo(file string) (*SummaryInfo, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read summary file: %s", file)
	}

	info := &SummaryInfo{}
	err = toml.Unmarshal(data, info)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to parse summary file: %s", file)
	}
	return info, nil
}

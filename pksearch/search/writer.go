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

	"github.com/shenwei356/pksearch/pksearch/index"
)

// MAPQ is the mapping quality of all alignments, 255 for unknown.
const MAPQ = 255

// SAMWriter writes alignments in SAM format.
// Only the first alignment of a query is primary, others are flagged as
// secondary (0x100) with SEQ omitted.
type SAMWriter struct {
	w io.Writer
}

// NewSAMWriter creates a SAMWriter and writes the header,
// with one @SQ line for each target in the index.
func NewSAMWriter(w io.Writer, idx *index.Index, program string, version string) (*SAMWriter, error) {
	_, err := fmt.Fprintf(w, "@HD\tVN:1.6\tSO:unsorted\tGO:query\n")
	if err != nil {
		return nil, err
	}
	var t *index.Sequence
	for i := 0; i < idx.NumTargets(); i++ {
		t = idx.Target(uint32(i))
		_, err = fmt.Fprintf(w, "@SQ\tSN:%s\tLN:%d\n", t.ID, t.Len())
		if err != nil {
			return nil, err
		}
	}
	_, err = fmt.Fprintf(w, "@PG\tID:%s\tPN:%s\tVN:%s\n", program, program, version)
	if err != nil {
		return nil, err
	}
	return &SAMWriter{w: w}, nil
}

// Write writes the alignments of a query, skipped and unmapped queries are ignored.
func (w *SAMWriter) Write(r *Result) error {
	var flag int
	var seq []byte
	for i, a := range r.Alignments {
		if i == 0 {
			flag, seq = 0, r.Query.Seq
		} else {
			flag, seq = 0x100, starSEQ // secondary alignment
		}
		_, err := fmt.Fprintf(w.w, "%s\t%d\t%s\t%d\t%d\t%s\t*\t0\t0\t%s\t*\tNM:i:0\n",
			a.QueryID, flag, a.TargetID, a.Pos, MAPQ, a.CIGAR(), seq)
		if err != nil {
			return err
		}
	}
	return nil
}

var starSEQ = []byte{'*'}

// TSVWriter writes alignments in a tab-delimited format with 1-based positions.
type TSVWriter struct {
	w io.Writer
}

// NewTSVWriter creates a TSVWriter and writes the header line.
func NewTSVWriter(w io.Writer) (*TSVWriter, error) {
	_, err := fmt.Fprintf(w, "query\tqlen\ttargets\ttarget\ttlen\tqstart\tqend\ttstart\ttend\tclip5\tlen\tclip3\tcigar\n")
	if err != nil {
		return nil, err
	}
	return &TSVWriter{w: w}, nil
}

// Write writes the alignments of a query, skipped and unmapped queries are ignored.
func (w *TSVWriter) Write(r *Result) error {
	targets := len(r.Alignments)
	for _, a := range r.Alignments {
		_, err := fmt.Fprintf(w.w, "%s\t%d\t%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%d\t%s\n",
			a.QueryID, a.QueryLen, targets, a.TargetID, a.TargetLen,
			a.QBegin(), a.QEnd(), a.Pos, a.TEnd(),
			a.Clip5, a.MatchLen, a.Clip3, a.CIGAR())
		if err != nil {
			return err
		}
	}
	return nil
}

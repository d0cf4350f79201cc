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
	"io"

	"github.com/pkg/errors"
	"github.com/shenwei356/bio/seqio/fastx"
	"github.com/shenwei356/pksearch/pksearch/index"
)

// FastxSource reads queries from FASTA/Q files one by one.
type FastxSource struct {
	files  []string
	i      int
	reader *fastx.Reader
}

// NewFastxSource creates a FastxSource from plain or gzipped FASTA/Q files,
// "-" for stdin.
func NewFastxSource(files []string) *FastxSource {
	return &FastxSource{files: files}
}

// Next returns the next query, or io.EOF after the last file.
func (s *FastxSource) Next() (*index.Sequence, error) {
	var err error
	for {
		if s.reader == nil {
			if s.i >= len(s.files) {
				return nil, io.EOF
			}
			s.reader, err = fastx.NewReader(nil, s.files[s.i], "")
			if err != nil {
				return nil, errors.Wrapf(err, "failed to read file: %s", s.files[s.i])
			}
			s.i++
		}

		record, err := s.reader.Read()
		if err != nil {
			if err == io.EOF {
				s.reader.Close()
				s.reader = nil
				continue
			}
			return nil, errors.Wrapf(err, "failed to read file: %s", s.files[s.i-1])
		}

		return index.NewSequence(string(record.ID), record.Seq.Seq), nil
	}
}

// Close closes the current file.
func (s *FastxSource) Close() {
	if s.reader != nil {
		s.reader.Close()
		s.reader = nil
	}
}

// SliceSource provides queries from a list.
type SliceSource struct {
	seqs []*index.Sequence
	i    int
}

// NewSliceSource creates a SliceSource.
func NewSliceSource(seqs []*index.Sequence) *SliceSource {
	return &SliceSource{seqs: seqs}
}

// Next returns the next query, or io.EOF at the end.
func (s *SliceSource) Next() (*index.Sequence, error) {
	if s.i >= len(s.seqs) {
		return nil, io.EOF
	}
	s.i++
	return s.seqs[s.i-1], nil
}

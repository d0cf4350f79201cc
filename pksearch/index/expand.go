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

import "bytes"

// Bases are the concrete bases an N stands for, in lexicographic order.
var Bases = [4]byte{'A', 'C', 'G', 'T'}

// Expand returns all concrete upper-case versions of a window,
// with every N (case ignored) replaced by A, C, G or T.
// A window with m Ns yields 4^m distinct strings, in lexicographic order.
func Expand(window []byte) []string {
	var list []string
	if m := CountN(window); m < 16 {
		list = make([]string, 0, 1<<(m<<1))
	}
	ExpandFunc(window, func(kmer []byte) {
		list = append(list, string(kmer))
	})
	return list
}

// ExpandFunc is like Expand, but calls fn for every concrete k-mer.
// The slice passed to fn is reused between calls.
func ExpandFunc(window []byte, fn func(kmer []byte)) {
	buf := make([]byte, len(window))
	for i, b := range window {
		buf[i] = upperTable[b]
	}
	expandN(buf, 0, fn)
}

// expandN substitutes the first N at or after position from, recursively.
func expandN(buf []byte, from int, fn func(kmer []byte)) {
	i := bytes.IndexByte(buf[from:], 'N')
	if i < 0 {
		fn(buf)
		return
	}
	i += from
	for _, b := range Bases {
		buf[i] = b
		expandN(buf, i+1, fn)
	}
	buf[i] = 'N'
}

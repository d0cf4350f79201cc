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

package util

import (
	"testing"
)

func TestUniqUint64s(t *testing.T) {
	tests := []struct {
		in   []uint64
		want []uint64
	}{
		{[]uint64{}, []uint64{}},
		{[]uint64{7}, []uint64{7}},
		{[]uint64{3, 1, 2}, []uint64{1, 2, 3}},
		{[]uint64{1, 1, 2}, []uint64{1, 2}},
		{[]uint64{2, 1, 2}, []uint64{1, 2}},
		{[]uint64{2, 2, 1, 1}, []uint64{1, 2}},
		{[]uint64{5, 5, 5}, []uint64{5}},
		{[]uint64{9, 1, 9, 3, 1, 3, 0}, []uint64{0, 1, 3, 9}},
	}

	for i, test := range tests {
		list := append([]uint64{}, test.in...)
		UniqUint64s(&list)
		if len(list) != len(test.want) {
			t.Errorf("#%d: unexpected length: %d, expected %d: %v", i, len(list), len(test.want), list)
			continue
		}
		for j, v := range list {
			if v != test.want[j] {
				t.Errorf("#%d: unexpected result: %v, expected %v", i, list, test.want)
				break
			}
		}
	}
}

func TestPack2Uint32(t *testing.T) {
	var a, b uint32 = 3, 1 << 31
	v := Pack2Uint32(a, b)
	_a, _b := Unpack2Uint32(v)
	if _a != a || _b != b {
		t.Errorf("unexpected unpacked values: %d, %d", _a, _b)
	}

	if !(Pack2Uint32(1, 100) < Pack2Uint32(2, 0)) {
		t.Errorf("packed values should be ordered by the first value")
	}
	if !(Pack2Uint32(2, 3) < Pack2Uint32(2, 4)) {
		t.Errorf("packed values should be ordered by the second value")
	}
}

//
//  Copyright 2023 PayPal Inc.
//
//  Licensed to the Apache Software Foundation (ASF) under one or more
//  contributor license agreements.  See the NOTICE file distributed with
//  this work for additional information regarding copyright ownership.
//  The ASF licenses this file to You under the Apache License, Version 2.0
//  (the "License"); you may not use this file except in compliance with
//  the License.  You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
//  Unless required by applicable law or agreed to in writing, software
//  distributed under the License is distributed on an "AS IS" BASIS,
//  WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
//  See the License for the specific language governing permissions and
//  limitations under the License.
//

package buffer

import "io"

// View is a lightweight scatter/gather descriptor over a logical byte
// range that may straddle multiple segments. A sub-range is expressed
// by discounts on the first and last element, so Adjust is pure
// cursor arithmetic and never moves bytes. Views borrow storage from
// a Store for the duration of one call chain and hold no allocation
// of their own; the documented Store mutations invalidate them.
type View struct {
	elems [][]byte
	// firstDiscount hides bytes at the front of elems[0];
	// finalDiscount hides bytes at the end of elems[len(elems)-1].
	firstDiscount int
	finalDiscount int
}

// MakeView wraps raw byte windows in a View. Used by tests and by
// callers feeding a parser from memory they own.
func MakeView(elems ...[]byte) View {
	kept := make([][]byte, 0, len(elems))
	for _, e := range elems {
		if len(e) > 0 {
			kept = append(kept, e)
		}
	}
	return View{elems: kept}
}

// Len returns the number of bytes the view describes.
func (v View) Len() int {
	var n int
	for _, e := range v.elems {
		n += len(e)
	}
	return n - v.firstDiscount - v.finalDiscount
}

// Empty reports whether the view describes no bytes.
func (v View) Empty() bool {
	return v.Len() == 0
}

// Segments returns the byte windows the view describes, with the
// discounts applied. Only slice headers are produced; no bytes move.
func (v View) Segments() [][]byte {
	if len(v.elems) == 0 {
		return nil
	}
	out := make([][]byte, len(v.elems))
	copy(out, v.elems)
	out[0] = out[0][v.firstDiscount:]
	last := len(out) - 1
	out[last] = out[last][:len(out[last])-v.finalDiscount]
	if len(out[last]) == 0 && last > 0 {
		out = out[:last]
	}
	if len(out) > 0 && len(out[0]) == 0 {
		out = out[1:]
	}
	return out
}

// Adjust re-expresses the view as the sub-range [pos, pos+limit) of
// itself, clamped to the available bytes. The result shares the same
// underlying storage; only the element range and discounts change.
func (v View) Adjust(pos, limit int) View {
	segs := v.Segments()
	if limit <= 0 || len(segs) == 0 {
		return View{}
	}
	first := 0
	for first < len(segs) && pos >= len(segs[first]) {
		pos -= len(segs[first])
		first++
	}
	if first == len(segs) {
		return View{}
	}

	remaining := limit
	last := first
	finalDiscount := 0
	for {
		avail := len(segs[last])
		if last == first {
			avail -= pos
		}
		if remaining <= avail {
			finalDiscount = avail - remaining
			break
		}
		remaining -= avail
		if last == len(segs)-1 {
			finalDiscount = 0
			break
		}
		last++
	}
	return View{
		elems:         segs[first : last+1],
		firstDiscount: pos,
		finalDiscount: finalDiscount,
	}
}

// CopyTo copies the view's bytes into dst, returning the number
// copied.
func (v View) CopyTo(dst []byte) int {
	var n int
	for _, seg := range v.Segments() {
		if n == len(dst) {
			break
		}
		n += copy(dst[n:], seg)
	}
	return n
}

// CopyFrom fills a mutable view from src, returning the number of
// bytes written.
func (v View) CopyFrom(src []byte) int {
	var n int
	for _, seg := range v.Segments() {
		if n == len(src) {
			break
		}
		n += copy(seg, src[n:])
	}
	return n
}

// Bytes flattens the view into one contiguous slice. Single-element
// views are returned without copying.
func (v View) Bytes() []byte {
	segs := v.Segments()
	switch len(segs) {
	case 0:
		return nil
	case 1:
		return segs[0]
	}
	out := make([]byte, 0, v.Len())
	for _, seg := range segs {
		out = append(out, seg...)
	}
	return out
}

// WriteTo writes the view's bytes to w.
func (v View) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, seg := range v.Segments() {
		n, err := w.Write(seg)
		total += int64(n)
		if err != nil {
			return total, err
		}
		if n < len(seg) {
			return total, io.ErrShortWrite
		}
	}
	return total, nil
}

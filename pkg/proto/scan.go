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

package proto

import "bytes"

// scanner is a forward-only cursor over the byte windows of one view.
// It tracks how many bytes of the view have been consumed so Put can
// report an exact count; it never writes to the windows.
type scanner struct {
	segs     [][]byte
	seg      int
	off      int
	consumed int
	total    int
}

func newScanner(segs [][]byte) scanner {
	var total int
	for _, s := range segs {
		total += len(s)
	}
	return scanner{segs: segs, total: total}
}

func (sc *scanner) remaining() int {
	return sc.total - sc.consumed
}

// skip advances the cursor n bytes. Caller guarantees n <= remaining.
func (sc *scanner) skip(n int) {
	sc.consumed += n
	for n > 0 {
		left := len(sc.segs[sc.seg]) - sc.off
		if n < left {
			sc.off += n
			return
		}
		n -= left
		sc.seg++
		sc.off = 0
	}
}

// byteAt returns the byte at relative offset i from the cursor.
// Caller guarantees i < remaining.
func (sc *scanner) byteAt(i int) byte {
	seg, off := sc.seg, sc.off
	for {
		left := len(sc.segs[seg]) - off
		if i < left {
			return sc.segs[seg][off+i]
		}
		i -= left
		seg++
		off = 0
	}
}

// indexLF returns the relative offset of the first '\n' at or after
// the cursor, or -1.
func (sc *scanner) indexLF() int {
	base := 0
	seg, off := sc.seg, sc.off
	for seg < len(sc.segs) {
		if i := bytes.IndexByte(sc.segs[seg][off:], '\n'); i >= 0 {
			return base + i
		}
		base += len(sc.segs[seg]) - off
		seg++
		off = 0
	}
	return -1
}

// take returns the next n bytes and advances past them. When the
// range lies in a single window the underlying bytes are returned
// without copying; otherwise they are gathered into *scratch, which
// is grown as needed and reused across calls.
func (sc *scanner) take(n int, scratch *[]byte) []byte {
	if n == 0 {
		return nil
	}
	if left := len(sc.segs[sc.seg]) - sc.off; n <= left {
		b := sc.segs[sc.seg][sc.off : sc.off+n]
		sc.skip(n)
		return b
	}
	if cap(*scratch) < n {
		*scratch = make([]byte, 0, n)
	}
	buf := (*scratch)[:0]
	for len(buf) < n {
		left := sc.segs[sc.seg][sc.off:]
		want := n - len(buf)
		if want > len(left) {
			want = len(left)
		}
		buf = append(buf, left[:want]...)
		sc.skip(want)
	}
	*scratch = buf
	return buf
}

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

// Package buffer implements a growable segmented byte store with
// zero-copy scatter/gather views.
//
// A Store holds bytes in an ordered arena of fixed segments instead of
// one reallocating array, so growth never relocates readable bytes and
// appending stays O(1) as a message accumulates across many deliveries.
// Readable bytes are exposed through Data, writable bytes through
// Prepare; Commit promotes prepared bytes to readable and Consume
// retires readable bytes from the front, freeing fully consumed
// segments that are no longer the write target.
package buffer

import (
	"errors"
	"math"
)

const (
	kDefaultMinBlockSize = 4096
)

// ErrTooLarge is returned by Prepare when satisfying the request would
// push the total held bytes past the configured maximum. Input size is
// peer-controlled, so this is a returned error, not a panic.
var ErrTooLarge = errors.New("buffer: max size exceeded")

type (
	// Store owns an ordered sequence of segments. The last segment is
	// the current write target; all others hold only committed bytes.
	// A Store is not safe for concurrent use; one operation owns it at
	// a time.
	Store struct {
		segs     []*segment
		size     int // committed readable bytes
		maxSize  int
		minBlock int

		// prepared write regions from the last Prepare call, in order.
		// At most two: the old tail's spare capacity and one fresh
		// segment.
		prep     [2]prepPart
		nPrep    int
		prepared int
	}

	prepPart struct {
		seg *segment
		off int
		n   int
	}
)

// NewStore creates a Store bounded by maxSize total bytes.
// maxSize <= 0 means unbounded.
func NewStore(maxSize int) *Store {
	if maxSize <= 0 {
		maxSize = math.MaxInt
	}
	return &Store{maxSize: maxSize, minBlock: kDefaultMinBlockSize}
}

// SetMinBlockSize sets the minimum allocation unit used when a new
// segment is needed. Must be called before the first Prepare.
func (s *Store) SetMinBlockSize(n int) {
	if n > 0 {
		s.minBlock = n
	}
}

// Size returns the number of committed readable bytes.
func (s *Store) Size() int {
	return s.size
}

// MaxSize returns the configured byte limit.
func (s *Store) MaxSize() int {
	return s.maxSize
}

// Capacity returns the total allocated bytes across all segments.
func (s *Store) Capacity() int {
	var n int
	for _, seg := range s.segs {
		n += seg.capacity()
	}
	return n
}

// Prepare ensures exactly n writable bytes at the tail and returns a
// mutable view over them. The bytes may be split across the tail
// segment's spare capacity and one newly allocated segment sized at
// least the minimum block size. Any view from a previous Prepare is
// invalidated. Returns ErrTooLarge if Size()+n would exceed MaxSize().
func (s *Store) Prepare(n int) (View, error) {
	s.nPrep = 0
	s.prepared = 0
	if n <= 0 {
		return View{}, nil
	}
	if s.size+n > s.maxSize {
		return View{}, ErrTooLarge
	}

	remaining := n
	if len(s.segs) > 0 {
		tail := s.segs[len(s.segs)-1]
		if avail := tail.available(); avail > 0 {
			take := avail
			if take > remaining {
				take = remaining
			}
			s.prep[s.nPrep] = prepPart{seg: tail, off: tail.end, n: take}
			s.nPrep++
			remaining -= take
		}
	}
	if remaining > 0 {
		capacity := remaining
		if capacity < s.minBlock {
			capacity = s.minBlock
		}
		seg := newSegment(capacity)
		s.segs = append(s.segs, seg)
		s.prep[s.nPrep] = prepPart{seg: seg, off: 0, n: remaining}
		s.nPrep++
	}
	s.prepared = n

	elems := make([][]byte, 0, s.nPrep)
	for i := 0; i < s.nPrep; i++ {
		p := s.prep[i]
		elems = append(elems, p.seg.data[p.off:p.off+p.n])
	}
	return View{elems: elems}, nil
}

// Commit promotes min(n, prepared) bytes from the prepared region to
// readable. The rest of the prepared region is discarded; its storage
// stays with the tail segment for future use. Views from Prepare are
// invalidated; views from Data remain valid.
func (s *Store) Commit(n int) {
	if n > s.prepared {
		n = s.prepared
	}
	for i := 0; i < s.nPrep && n > 0; i++ {
		p := s.prep[i]
		take := p.n
		if take > n {
			take = n
		}
		p.seg.acquire(take)
		s.size += take
		n -= take
	}
	s.nPrep = 0
	s.prepared = 0
}

// Consume retires n readable bytes from the front, clamped to Size().
// A segment whose readable bytes are fully consumed is erased and
// freed unless it is the current write target. Views obtained earlier
// are invalidated.
func (s *Store) Consume(n int) {
	if n > s.size {
		n = s.size
	}
	s.size -= n
	i := 0
	for ; i < len(s.segs) && n > 0; i++ {
		seg := s.segs[i]
		used := seg.used()
		if n < used {
			seg.drop(n)
			n = 0
			break
		}
		n -= used
		if i == len(s.segs)-1 || s.isPrepped(seg) {
			// write target, or backing an outstanding prepared
			// region: the allocation must stay put
			seg.drop(used)
			break
		}
		s.segs[i] = nil
	}
	// compact the erased prefix; clear the vacated tail slots so the
	// freed segments do not outlive the slice header
	j := 0
	for ; j < len(s.segs) && s.segs[j] == nil; j++ {
	}
	if j > 0 {
		k := copy(s.segs, s.segs[j:])
		for i := k; i < len(s.segs); i++ {
			s.segs[i] = nil
		}
		s.segs = s.segs[:k]
	}
}

func (s *Store) isPrepped(seg *segment) bool {
	for i := 0; i < s.nPrep; i++ {
		if s.prep[i].seg == seg {
			return true
		}
	}
	return false
}

// Data returns a read-only view over all committed readable bytes.
// The view borrows from the Store and is invalidated by Consume and
// by a Prepare that allocates.
func (s *Store) Data() View {
	elems := make([][]byte, 0, len(s.segs))
	for _, seg := range s.segs {
		if seg.used() > 0 {
			elems = append(elems, seg.window())
		}
	}
	return View{elems: elems}
}

// Reset drops all bytes and all but the first segment, keeping one
// allocation for reuse. Used by the store pool.
func (s *Store) Reset() {
	if len(s.segs) > 1 {
		s.segs = s.segs[:1]
	}
	if len(s.segs) == 1 {
		s.segs[0].clear()
	}
	s.size = 0
	s.nPrep = 0
	s.prepared = 0
}

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

import (
	"bytes"
	"testing"
)

// append commits the given bytes through the prepare/commit cycle.
func mustAppend(t *testing.T, s *Store, b []byte) {
	t.Helper()
	v, err := s.Prepare(len(b))
	if err != nil {
		t.Fatalf("Prepare(%d): %v", len(b), err)
	}
	if n := v.CopyFrom(b); n != len(b) {
		t.Fatalf("CopyFrom copied %d of %d", n, len(b))
	}
	s.Commit(len(b))
}

func TestPrepareCommitGrowsSize(t *testing.T) {
	s := NewStore(0)
	if s.Size() != 0 {
		t.Fatalf("new store size = %d", s.Size())
	}
	v, err := s.Prepare(100)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if v.Len() != 100 {
		t.Fatalf("prepared view len = %d, want 100", v.Len())
	}
	if s.Size() != 0 {
		t.Fatalf("size changed before commit: %d", s.Size())
	}
	s.Commit(100)
	if s.Size() != 100 {
		t.Fatalf("size after commit = %d, want 100", s.Size())
	}
}

func TestCommitShortDiscardsRemainder(t *testing.T) {
	s := NewStore(0)
	v, err := s.Prepare(50)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	v.CopyFrom(bytes.Repeat([]byte{'x'}, 50))
	s.Commit(20)
	if s.Size() != 20 {
		t.Fatalf("size after short commit = %d, want 20", s.Size())
	}
	// the discarded 30 bytes must not surface later
	mustAppend(t, s, []byte("yy"))
	if s.Size() != 22 {
		t.Fatalf("size = %d, want 22", s.Size())
	}
	want := append(bytes.Repeat([]byte{'x'}, 20), 'y', 'y')
	if got := s.Data().Bytes(); !bytes.Equal(got, want) {
		t.Fatalf("data = %q, want %q", got, want)
	}
}

func TestCommitClampsToPrepared(t *testing.T) {
	s := NewStore(0)
	if _, err := s.Prepare(10); err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	s.Commit(99)
	if s.Size() != 10 {
		t.Fatalf("size = %d, want 10", s.Size())
	}
}

func TestConsumeNeverReExposes(t *testing.T) {
	s := NewStore(0)
	s.SetMinBlockSize(8)

	var all []byte
	for _, part := range []string{"alpha", "beta", "gammagamma", "delta"} {
		mustAppend(t, s, []byte(part))
		all = append(all, part...)
	}
	if got := s.Data().Bytes(); !bytes.Equal(got, all) {
		t.Fatalf("data = %q, want %q", got, all)
	}

	for consumed := 0; s.Size() > 0; {
		prev := s.Size()
		n := 7
		if n > prev {
			n = prev
		}
		s.Consume(n)
		consumed += n
		if s.Size() != prev-n {
			t.Fatalf("size after consume = %d, want %d", s.Size(), prev-n)
		}
		if got := s.Data().Bytes(); !bytes.Equal(got, all[consumed:]) {
			t.Fatalf("data after consume(%d) = %q, want %q", consumed, got, all[consumed:])
		}
	}
}

func TestConsumeClampsToSize(t *testing.T) {
	s := NewStore(0)
	mustAppend(t, s, []byte("abc"))
	s.Consume(10)
	if s.Size() != 0 {
		t.Fatalf("size = %d, want 0", s.Size())
	}
	s.Consume(1)
	if s.Size() != 0 {
		t.Fatalf("size = %d, want 0", s.Size())
	}
}

func TestPrepareTooLarge(t *testing.T) {
	s := NewStore(16)
	if _, err := s.Prepare(17); err != ErrTooLarge {
		t.Fatalf("Prepare(17) err = %v, want ErrTooLarge", err)
	}
	mustAppend(t, s, bytes.Repeat([]byte{'a'}, 10))
	if _, err := s.Prepare(7); err != ErrTooLarge {
		t.Fatalf("Prepare(7) err = %v, want ErrTooLarge", err)
	}
	if _, err := s.Prepare(6); err != nil {
		t.Fatalf("Prepare(6) err = %v", err)
	}
	// consumed bytes free their budget
	s.Commit(6)
	s.Consume(16)
	if _, err := s.Prepare(16); err != nil {
		t.Fatalf("Prepare(16) after consume err = %v", err)
	}
}

func TestPrepareSpansSegments(t *testing.T) {
	s := NewStore(0)
	s.SetMinBlockSize(8)
	mustAppend(t, s, []byte("12345"))

	// 3 spare bytes in the tail, so 6 must straddle two segments
	v, err := s.Prepare(6)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if v.Len() != 6 {
		t.Fatalf("view len = %d, want 6", v.Len())
	}
	if len(v.Segments()) != 2 {
		t.Fatalf("segments = %d, want 2", len(v.Segments()))
	}
	v.CopyFrom([]byte("abcdef"))
	s.Commit(6)
	if got := s.Data().Bytes(); !bytes.Equal(got, []byte("12345abcdef")) {
		t.Fatalf("data = %q", got)
	}
}

func TestConsumeKeepsOutstandingPrepare(t *testing.T) {
	s := NewStore(0)
	s.SetMinBlockSize(8)
	mustAppend(t, s, []byte("abcdefgh"))

	v, err := s.Prepare(4)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	s.Consume(8)

	// the prepared window must still be writable after the consume
	v.CopyFrom([]byte("wxyz"))
	s.Commit(4)
	if got := s.Data().Bytes(); !bytes.Equal(got, []byte("wxyz")) {
		t.Fatalf("data = %q, want %q", got, "wxyz")
	}
}

func TestConsumeReleasesSegmentRefs(t *testing.T) {
	s := NewStore(0)
	s.SetMinBlockSize(8)
	for i := 0; i < 4; i++ {
		mustAppend(t, s, bytes.Repeat([]byte{byte('a' + i)}, 8))
	}
	nSegs := len(s.segs)
	if nSegs < 4 {
		t.Fatalf("segments = %d, want >= 4", nSegs)
	}

	// erase the first three segments; the compacted slice must not
	// keep the freed segments alive in its backing array
	s.Consume(24)
	backing := s.segs[:cap(s.segs)]
	for i := len(s.segs); i < len(backing); i++ {
		if backing[i] != nil {
			t.Fatalf("slot %d still references a freed segment", i)
		}
	}
	if got := s.Data().Bytes(); !bytes.Equal(got, bytes.Repeat([]byte{'d'}, 8)) {
		t.Fatalf("data = %q", got)
	}
}

func TestReset(t *testing.T) {
	s := NewStore(0)
	s.SetMinBlockSize(8)
	mustAppend(t, s, bytes.Repeat([]byte{'z'}, 100))
	s.Reset()
	if s.Size() != 0 {
		t.Fatalf("size after reset = %d", s.Size())
	}
	if s.Capacity() == 0 {
		t.Fatal("reset dropped every allocation")
	}
	mustAppend(t, s, []byte("fresh"))
	if got := s.Data().Bytes(); !bytes.Equal(got, []byte("fresh")) {
		t.Fatalf("data = %q", got)
	}
}

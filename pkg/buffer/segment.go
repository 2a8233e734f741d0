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

// segment is one heap allocation holding part of a Store's bytes.
// data[begin:end] is the used (readable) sub-range; data[end:] is
// capacity available to Prepare. Segments are owned by the Store and
// referenced by index only.
type segment struct {
	data  []byte
	begin int
	end   int
}

func newSegment(capacity int) *segment {
	return &segment{data: make([]byte, capacity)}
}

// used returns the number of readable bytes held.
func (s *segment) used() int {
	return s.end - s.begin
}

// available returns the writable capacity past the used range.
func (s *segment) available() int {
	return len(s.data) - s.end
}

func (s *segment) capacity() int {
	return len(s.data)
}

// window returns the readable sub-range without copying.
func (s *segment) window() []byte {
	return s.data[s.begin:s.end]
}

// acquire promotes n writable bytes to used. Caller guarantees
// n <= available().
func (s *segment) acquire(n int) {
	s.end += n
}

// drop consumes n used bytes from the front. Caller guarantees
// n <= used().
func (s *segment) drop(n int) {
	s.begin += n
}

func (s *segment) clear() {
	s.begin = 0
	s.end = 0
}

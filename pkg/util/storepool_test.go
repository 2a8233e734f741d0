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

package util

import (
	"testing"
)

func TestSyncStorePool(t *testing.T) {
	p := NewSyncStorePool(1024)
	s := p.Get()
	if s == nil {
		t.Fatal("Get returned nil")
	}
	v, err := s.Prepare(10)
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	v.CopyFrom([]byte("0123456789"))
	s.Commit(10)
	p.Put(s)

	// a recycled store must come back empty
	s = p.Get()
	if s.Size() != 0 {
		t.Fatalf("recycled store size = %d", s.Size())
	}
}

func TestChanStorePool(t *testing.T) {
	p := NewChanStorePool(2, 1024)
	a, b, c := p.Get(), p.Get(), p.Get()
	p.Put(a)
	p.Put(b)
	p.Put(c) // over capacity, dropped
	if got := p.Get(); got.Size() != 0 {
		t.Fatalf("pooled store size = %d", got.Size())
	}
}

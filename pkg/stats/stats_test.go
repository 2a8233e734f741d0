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

package stats

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestOpStat(t *testing.T) {
	var st OpStat
	for i := 0; i < 10; i++ {
		st.Put(time.Duration(i+1)*time.Millisecond, nil)
	}
	st.Put(5*time.Millisecond, errors.New("boom"))

	d := st.Get()
	if d.NumOps() != 11 {
		t.Fatalf("ops = %d", d.NumOps())
	}
	if d.NumErrors() != 1 {
		t.Fatalf("errors = %d", d.NumErrors())
	}
	if avg := d.Avg(); avg < time.Millisecond || avg > 10*time.Millisecond {
		t.Fatalf("avg = %v", avg)
	}

	st.Reset()
	if d := st.Get(); d.NumOps() != 0 || d.NumErrors() != 0 {
		t.Fatalf("after reset: %+v", d)
	}
}

func TestIOStatsPrettyPrint(t *testing.T) {
	var s IOStats
	s.MessagesIn.Add(3)
	s.BytesIn.Add(100)
	s.BytesOut.Add(200)
	s.Parse.Put(time.Millisecond, nil)

	var buf bytes.Buffer
	s.PrettyPrint(&buf)
	if buf.Len() == 0 {
		t.Fatal("empty output")
	}
}

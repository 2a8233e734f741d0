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

// Package stats records per-message timings and byte totals for the
// framing layer.
package stats

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/HdrHistogram/hdrhistogram-go"

	"framebuf/pkg/util"
)

type (
	// OpStat aggregates latency for one operation kind.
	OpStat struct {
		mtx       sync.Mutex
		hist      *hdrhistogram.Histogram
		total     time.Duration
		numErrors int64
	}

	StatData struct {
		numOps     int64
		numErrors  int64
		avgLatency time.Duration
		maxLatency time.Duration
		p50Latency time.Duration
		p99Latency time.Duration
	}

	// IOStats is the per-connection ledger the service keeps: message
	// and byte counters plus a parse-latency histogram.
	IOStats struct {
		MessagesIn util.AtomicUint64Counter
		BytesIn    util.AtomicUint64Counter
		BytesOut   util.AtomicUint64Counter
		Parse      OpStat
	}
)

func (s *OpStat) init() {
	if s.hist == nil {
		s.hist = hdrhistogram.New(1, int64(time.Hour), 3)
	}
}

// Put records one completed operation.
func (s *OpStat) Put(tm time.Duration, err error) {
	s.mtx.Lock()
	s.init()
	s.hist.RecordValues(int64(tm), 1)
	s.total += tm
	if err != nil {
		s.numErrors++
	}
	s.mtx.Unlock()
}

func (s *OpStat) Get() (stat StatData) {
	s.mtx.Lock()
	s.init()
	stat.numOps = s.hist.TotalCount()
	stat.numErrors = s.numErrors
	stat.maxLatency = time.Duration(s.hist.Max())
	stat.p50Latency = time.Duration(s.hist.ValueAtQuantile(50.))
	stat.p99Latency = time.Duration(s.hist.ValueAtQuantile(99.))
	if stat.numOps != 0 {
		stat.avgLatency = s.total / time.Duration(stat.numOps)
	}
	s.mtx.Unlock()
	return
}

func (s *OpStat) Reset() {
	s.mtx.Lock()
	s.init()
	s.hist.Reset()
	s.total = 0
	s.numErrors = 0
	s.mtx.Unlock()
}

// PrettyPrint writes a one-block summary, junoload style.
func (d *StatData) PrettyPrint(w io.Writer) {
	fmt.Fprintf(w, "count:\t%d\n", d.numOps)
	fmt.Fprintf(w, "errors:\t%d\n", d.numErrors)
	fmt.Fprintf(w, "avg:\t%s\n", d.avgLatency)
	fmt.Fprintf(w, "p50:\t%s\n", d.p50Latency)
	fmt.Fprintf(w, "p99:\t%s\n", d.p99Latency)
	fmt.Fprintf(w, "max:\t%s\n", d.maxLatency)
}

func (d *StatData) NumOps() int64 { return d.numOps }

func (d *StatData) NumErrors() int64 { return d.numErrors }

func (d *StatData) Avg() time.Duration { return d.avgLatency }

func (s *IOStats) PrettyPrint(w io.Writer) {
	fmt.Fprintf(w, "messages in:\t%d\n", s.MessagesIn.Get())
	fmt.Fprintf(w, "bytes in:\t%d\n", s.BytesIn.Get())
	fmt.Fprintf(w, "bytes out:\t%d\n", s.BytesOut.Get())
	data := s.Parse.Get()
	data.PrettyPrint(w)
}

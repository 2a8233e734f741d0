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

// Package io drives a store/parser pair against a transport. Each
// driver is a resumable machine with an explicit step enum; it owns
// its store and parser exclusively for the life of one operation and
// reports the outcome through exactly one completion path.
package io

import (
	goio "io"
	"net"
	"time"

	"github.com/golang/glog"
	uuid "github.com/satori/go.uuid"

	"framebuf/pkg/buffer"
	"framebuf/pkg/errors"
	"framebuf/pkg/proto"
	"framebuf/pkg/stats"
)

// Transport is the subset of net.Conn the drivers need. Deadlines
// surface timeouts as ordinary read/write errors.
type Transport interface {
	goio.Reader
	goio.Writer
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// read op steps
const (
	kStepStart = iota
	kStepRead
	kStepParse
	kStepDone
)

// ReadOp reads one complete message from a transport into a parser.
// Bytes left in the store after completion belong to the next message
// and stay buffered for the next operation on the same store.
type ReadOp struct {
	id     uuid.UUID
	tr     Transport
	store  *buffer.Store
	parser *proto.Parser
	config Config

	step    int
	eof     bool
	err     error
	started time.Time
	iostats *stats.IOStats
}

func NewReadOp(tr Transport, s *buffer.Store, p *proto.Parser, conf Config) *ReadOp {
	conf.SetDefaultIfNotDefined()
	return &ReadOp{
		id:     uuid.NewV1(),
		tr:     tr,
		store:  s,
		parser: p,
		config: conf,
		step:   kStepStart,
	}
}

// SetStats attaches a ledger; counters and parse latency are recorded
// on completion.
func (op *ReadOp) SetStats(st *stats.IOStats) {
	op.iostats = st
}

func (op *ReadOp) ID() string {
	return op.id.String()
}

// Err returns the terminal error after Run finished, nil on success.
func (op *ReadOp) Err() error {
	return op.err
}

// Run resumes the operation until the parser completes or an error
// terminates it. The terminal outcome is delivered once; calling Run
// again just repeats it.
func (op *ReadOp) Run() error {
	if op.step == kStepDone {
		return op.err
	}
	if op.started.IsZero() {
		op.started = time.Now()
	}
	for {
		switch op.step {
		case kStepStart:
			// buffered bytes skip the transport round-trip
			if op.store.Size() > 0 {
				op.step = kStepParse
			} else {
				op.step = kStepRead
			}

		case kStepRead:
			_, err := op.fill()
			if err != nil && err != goio.EOF {
				return op.complete(err)
			}
			if err == goio.EOF {
				op.eof = true
			}
			op.step = kStepParse

		case kStepParse:
			consumed, err := op.parser.Put(op.store.Data())
			op.store.Consume(consumed)
			switch {
			case err == nil:
				if op.parser.IsDone() {
					return op.complete(nil)
				}
				// header pause in non-eager mode; keep going
			case err == proto.ErrNeedMore:
				if op.eof {
					return op.complete(op.parser.PutEOF())
				}
				op.step = kStepRead
			default:
				return op.complete(err)
			}
		}
	}
}

// fill prepares writable space and performs one transport read into it,
// committing whatever arrived.
func (op *ReadOp) fill() (int, error) {
	want := op.config.ReadChunkSize
	if room := op.config.MaxBufferSize - op.store.Size(); want > room {
		want = room
	}
	if want <= 0 {
		return 0, buffer.ErrTooLarge
	}
	v, err := op.store.Prepare(want)
	if err != nil {
		return 0, err
	}
	if d := op.config.ReadTimeout.Duration; d > 0 {
		op.tr.SetReadDeadline(time.Now().Add(d))
	}
	window := v.Segments()[0]
	n, err := op.tr.Read(window)
	if n > 0 {
		op.store.Commit(n)
		if op.iostats != nil {
			op.iostats.BytesIn.Add(uint64(n))
		}
	} else {
		op.store.Commit(0)
	}
	if ne, ok := err.(net.Error); ok && ne.Timeout() {
		err = errors.ErrReadTimeout
	}
	return n, err
}

func (op *ReadOp) complete(err error) error {
	op.step = kStepDone
	op.err = err
	if op.iostats != nil {
		op.iostats.Parse.Put(time.Since(op.started), err)
		if err == nil {
			op.iostats.MessagesIn.Add(1)
		}
	}
	if err != nil {
		glog.V(1).Infof("read op %s: %v", op.id, err)
	}
	return err
}

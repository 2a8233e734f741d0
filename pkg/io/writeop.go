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

package io

import (
	"net"
	"time"

	"framebuf/pkg/buffer"
	"framebuf/pkg/errors"
	"framebuf/pkg/stats"
)

// WriteOp flushes a store's readable bytes to the transport, consuming
// them as they are written.
type WriteOp struct {
	tr      Transport
	store   *buffer.Store
	config  Config
	done    bool
	err     error
	iostats *stats.IOStats
}

func NewWriteOp(tr Transport, s *buffer.Store, conf Config) *WriteOp {
	conf.SetDefaultIfNotDefined()
	return &WriteOp{tr: tr, store: s, config: conf}
}

func (op *WriteOp) SetStats(st *stats.IOStats) {
	op.iostats = st
}

func (op *WriteOp) Err() error {
	return op.err
}

func (op *WriteOp) Run() error {
	if op.done {
		return op.err
	}
	for op.store.Size() > 0 {
		if d := op.config.WriteTimeout.Duration; d > 0 {
			op.tr.SetWriteDeadline(time.Now().Add(d))
		}
		n, err := op.store.Data().WriteTo(op.tr)
		op.store.Consume(int(n))
		if op.iostats != nil && n > 0 {
			op.iostats.BytesOut.Add(uint64(n))
		}
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				err = errors.ErrWriteTimeout
			}
			return op.complete(err)
		}
	}
	return op.complete(nil)
}

func (op *WriteOp) complete(err error) error {
	op.done = true
	op.err = err
	return err
}

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
	goio "io"
	"time"

	"framebuf/pkg/buffer"
)

// BufferedStream is a read-relay over a transport: reads drain the
// store first and only hit the transport when the store is empty.
// Useful when a handshake may have over-read past its own frames and
// the surplus must be replayed to the next reader.
type BufferedStream struct {
	tr     Transport
	store  *buffer.Store
	config Config
}

func NewBufferedStream(tr Transport, s *buffer.Store, conf Config) *BufferedStream {
	conf.SetDefaultIfNotDefined()
	return &BufferedStream{tr: tr, store: s, config: conf}
}

// Buffered returns the number of bytes that can be read without
// touching the transport.
func (b *BufferedStream) Buffered() int {
	return b.store.Size()
}

func (b *BufferedStream) Read(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if b.store.Size() == 0 {
		// no buffered bytes; skip the copy and read straight through
		return b.tr.Read(p)
	}
	n := b.store.Data().CopyTo(p)
	b.store.Consume(n)
	return n, nil
}

// Fill reads from the transport until at least n bytes are buffered.
// It returns the number buffered and the first error encountered.
func (b *BufferedStream) Fill(n int) (int, error) {
	for b.store.Size() < n {
		want := n - b.store.Size()
		if want < b.config.ReadChunkSize {
			want = b.config.ReadChunkSize
		}
		v, err := b.store.Prepare(want)
		if err != nil {
			return b.store.Size(), err
		}
		m, err := b.tr.Read(v.Segments()[0])
		b.store.Commit(m)
		if err != nil {
			if err == goio.EOF && b.store.Size() >= n {
				break
			}
			return b.store.Size(), err
		}
	}
	return b.store.Size(), nil
}

func (b *BufferedStream) Write(p []byte) (int, error) {
	return b.tr.Write(p)
}

// deadline passthrough so a BufferedStream can stand in as a Transport

func (b *BufferedStream) SetReadDeadline(t time.Time) error {
	return b.tr.SetReadDeadline(t)
}

func (b *BufferedStream) SetWriteDeadline(t time.Time) error {
	return b.tr.SetWriteDeadline(t)
}

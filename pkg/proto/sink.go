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

import (
	"bytes"
	"io"

	"github.com/golang/snappy"

	"framebuf/pkg/buffer"
)

type (
	// BodySink receives raw body byte ranges from the parser. The
	// view borrows parser input and is only valid for the duration of
	// the call; implementations copy what they retain.
	BodySink interface {
		OnBody(v buffer.View) error
	}

	// CaptureSink accumulates the body in memory, optionally
	// snappy-compressed for large captures held at rest.
	CaptureSink struct {
		buf      bytes.Buffer
		zw       *snappy.Writer
		captured int64
	}

	// DiscardSink counts and drops body bytes.
	DiscardSink struct {
		n int64
	}

	// WriterSink streams body bytes to an io.Writer.
	WriterSink struct {
		W io.Writer
	}
)

// NewCaptureSink returns a sink that stores the body verbatim.
func NewCaptureSink() *CaptureSink {
	return &CaptureSink{}
}

// NewCompressedCaptureSink returns a sink that stores the body in
// snappy framing; use Reader to stream it back out decompressed.
func NewCompressedCaptureSink() *CaptureSink {
	s := &CaptureSink{}
	s.zw = snappy.NewBufferedWriter(&s.buf)
	return s
}

func (s *CaptureSink) OnBody(v buffer.View) error {
	for _, seg := range v.Segments() {
		var err error
		if s.zw != nil {
			_, err = s.zw.Write(seg)
		} else {
			_, err = s.buf.Write(seg)
		}
		if err != nil {
			return err
		}
		s.captured += int64(len(seg))
	}
	return nil
}

// Len returns the number of body bytes captured (before compression).
func (s *CaptureSink) Len() int64 {
	return s.captured
}

// Bytes returns the uncompressed captured body.
func (s *CaptureSink) Bytes() []byte {
	if s.zw == nil {
		return s.buf.Bytes()
	}
	s.zw.Flush()
	out, err := io.ReadAll(snappy.NewReader(bytes.NewReader(s.buf.Bytes())))
	if err != nil {
		return nil
	}
	return out
}

// Reader returns a reader over the captured body, decompressing if
// the sink was created compressed.
func (s *CaptureSink) Reader() io.Reader {
	if s.zw == nil {
		return bytes.NewReader(s.buf.Bytes())
	}
	s.zw.Flush()
	return snappy.NewReader(bytes.NewReader(s.buf.Bytes()))
}

// CompressedLen returns the stored size, after compression if any.
func (s *CaptureSink) CompressedLen() int {
	if s.zw != nil {
		s.zw.Flush()
	}
	return s.buf.Len()
}

func (s *DiscardSink) OnBody(v buffer.View) error {
	s.n += int64(v.Len())
	return nil
}

// Count returns the number of bytes discarded.
func (s *DiscardSink) Count() int64 {
	return s.n
}

func (s WriterSink) OnBody(v buffer.View) error {
	_, err := v.WriteTo(s.W)
	return err
}

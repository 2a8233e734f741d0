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
	"strconv"

	"framebuf/pkg/buffer"
)

type (
	// RequestHead is a request start line plus header fields, ready
	// to serialize into a Store for transmission.
	RequestHead struct {
		Method  string
		Target  string
		Version int
		Fields  Fields
	}

	// ResponseHead is the response-side counterpart.
	ResponseHead struct {
		Version int
		Status  int
		Reason  string
		Fields  Fields
	}
)

func versionString(v int) string {
	if v == 10 {
		return "HTTP/1.0"
	}
	return "HTTP/1.1"
}

func fieldsWireSize(f *Fields) int {
	n := 0
	for i := 0; i < f.Len(); i++ {
		fld := f.At(i)
		n += len(fld.Name) + 2 + len(fld.Value) + 2
	}
	return n + 2 // terminating blank line
}

func encodeFields(b []byte, f *Fields) []byte {
	for i := 0; i < f.Len(); i++ {
		fld := f.At(i)
		b = append(b, fld.Name...)
		b = append(b, ':', ' ')
		b = append(b, fld.Value...)
		b = append(b, '\r', '\n')
	}
	return append(b, '\r', '\n')
}

// Encode serializes the head into the store's writable region and
// commits it, ready for a gather write to the transport.
func (h *RequestHead) Encode(s *buffer.Store) error {
	size := len(h.Method) + 1 + len(h.Target) + 1 + 8 + 2
	size += fieldsWireSize(&h.Fields)

	v, err := s.Prepare(size)
	if err != nil {
		return err
	}
	b := make([]byte, 0, size)
	b = append(b, h.Method...)
	b = append(b, ' ')
	b = append(b, h.Target...)
	b = append(b, ' ')
	b = append(b, versionString(h.Version)...)
	b = append(b, '\r', '\n')
	b = encodeFields(b, &h.Fields)

	v.CopyFrom(b)
	s.Commit(len(b))
	return nil
}

// Encode serializes the head into the store's writable region and
// commits it.
func (h *ResponseHead) Encode(s *buffer.Store) error {
	status := strconv.Itoa(h.Status)
	size := 8 + 1 + len(status) + 1 + len(h.Reason) + 2
	size += fieldsWireSize(&h.Fields)

	v, err := s.Prepare(size)
	if err != nil {
		return err
	}
	b := make([]byte, 0, size)
	b = append(b, versionString(h.Version)...)
	b = append(b, ' ')
	b = append(b, status...)
	b = append(b, ' ')
	b = append(b, h.Reason...)
	b = append(b, '\r', '\n')
	b = encodeFields(b, &h.Fields)

	v.CopyFrom(b)
	s.Commit(len(b))
	return nil
}

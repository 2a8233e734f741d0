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

// Package proto implements an incremental parser for CRLF-framed
// messages: a start line, header fields, and a body framed by
// Content-Length, chunked transfer coding, or transport close.
//
// The parser is resumable: Put consumes whatever prefix of the given
// view it can and reports ErrNeedMore when it stops at a byte
// boundary; the unconsumed suffix must be presented again, unmodified,
// on the next call. Wire-format violations are terminal typed errors
// and the parser instance must not be reused after one.
package proto

import "fmt"

// MessageKind selects which start-line grammar a Parser accepts.
type MessageKind int

const (
	KindRequest MessageKind = iota
	KindResponse
)

// parser states
const (
	kStateStartLine = iota
	kStateFields
	kStateBodyFixed
	kStateChunkSize
	kStateChunkData
	kStateChunkDataEnd
	kStateTrailers
	kStateBodyToEOF
	kStateComplete
	kStateFailed
)

// framing modes, resolved once all header fields are seen
const (
	kFramingNone = iota
	kFramingContentLength
	kFramingChunked
	kFramingCloseDelimited
)

const (
	kDefaultHeaderLimit = 64 * 1024
	kMaxChunkSizeDigits = 16
	kMaxChunkLineSize   = 4096
)

// ProtocolError is a wire-format or parser-contract violation.
type ProtocolError struct {
	what string
}

func NewProtocolError(err error) *ProtocolError {
	return &ProtocolError{what: err.Error()}
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("proto: %s", e.what)
}

var (
	// ErrNeedMore is a control-flow signal, not a failure: the parser
	// consumed what it could and needs additional input to proceed.
	ErrNeedMore = &ProtocolError{what: "need more input"}

	// terminal errors; the parser is unusable after any of these
	ErrBadContentLength   = &ProtocolError{what: "conflicting content lengths"}
	ErrBodyLimitExceeded  = &ProtocolError{what: "body limit exceeded"}
	ErrPartialMessage     = &ProtocolError{what: "partial message at eof"}
	ErrUnsupportedVersion = &ProtocolError{what: "unsupported protocol version"}
	ErrMalformedLine      = &ProtocolError{what: "malformed line"}
	ErrMalformedField     = &ProtocolError{what: "malformed header field"}
	ErrMalformedChunk     = &ProtocolError{what: "malformed chunk framing"}
	ErrHeaderLimit        = &ProtocolError{what: "header limit exceeded"}

	// ErrParserDone is returned by Put after the message completed or
	// failed; a Parser handles exactly one message.
	ErrParserDone = &ProtocolError{what: "parser finished, not reusable"}
)

// StartLine carries the parsed first line of a message: method, target
// and version for requests; version, status and reason for responses.
// Version is major*10+minor, e.g. 10 and 11.
type StartLine struct {
	Method  string
	Target  string
	Status  int
	Reason  string
	Version int
}

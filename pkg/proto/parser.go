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
	"strconv"

	"framebuf/pkg/buffer"
)

// Parser incrementally decodes one message from successive views.
//
// Put never reports more bytes consumed than the view holds, and
// leaves any unconsumed suffix untouched so the caller can present it
// again. A nil error from Put means progress was made and the caller
// should check IsDone or call Put again; ErrNeedMore means additional
// input is required. All other errors are terminal.
type Parser struct {
	kind    MessageKind
	state   int
	failure error

	start   StartLine
	fields  Fields
	framing int

	contentLength int64
	remaining     int64 // fixed-body or current-chunk bytes left
	bodyTotal     int64

	headerBytes int
	headerLimit int
	bodyLimit   int64

	eager      bool
	skip       bool
	gotSome    bool
	started    bool
	headerDone bool

	sink    BodySink
	scratch []byte
}

// NewParser creates a parser for one message of the given kind.
func NewParser(kind MessageKind) *Parser {
	return &Parser{
		kind:        kind,
		headerLimit: kDefaultHeaderLimit,
		bodyLimit:   -1,
	}
}

// SetEager controls body batching: when true, body bytes are handed to
// the sink as soon as they are available; when false (the default) the
// parser pauses once the header completes and delivers chunked data
// only in whole-chunk units. Fixed before the first Put.
func (p *Parser) SetEager(eager bool) {
	if !p.started {
		p.eager = eager
	}
}

// SetSkip makes the parser consume the body byte-for-byte without
// invoking the sink. Fixed before the first Put.
func (p *Parser) SetSkip(skip bool) {
	if !p.started {
		p.skip = skip
	}
}

// SetBodyLimit caps the total body bytes; n < 0 means unlimited.
// Exceeding the cap is the terminal ErrBodyLimitExceeded, distinct
// from ErrPartialMessage. Fixed before the first Put.
func (p *Parser) SetBodyLimit(n int64) {
	if !p.started {
		p.bodyLimit = n
	}
}

// SetHeaderLimit caps the total header bytes accepted before the
// parser fails with ErrHeaderLimit. Fixed before the first Put.
func (p *Parser) SetHeaderLimit(n int) {
	if !p.started && n > 0 {
		p.headerLimit = n
	}
}

// SetBodySink directs body bytes to sink. The sink only ever receives
// raw byte ranges; it must copy anything it retains.
func (p *Parser) SetBodySink(sink BodySink) {
	p.sink = sink
}

// Start returns the parsed start line. Valid once IsHeaderDone.
func (p *Parser) Start() StartLine {
	return p.start
}

// Header returns the header (and, after a chunked body, trailer)
// fields parsed so far.
func (p *Parser) Header() *Fields {
	return &p.fields
}

// IsDone reports whether the complete message has been parsed.
func (p *Parser) IsDone() bool {
	return p.state == kStateComplete
}

// IsHeaderDone reports whether the start line and all header fields
// have been parsed and framing has been resolved.
func (p *Parser) IsHeaderDone() bool {
	return p.headerDone
}

// NeedEOF reports whether the body is close-delimited, so the message
// only completes via PutEOF.
func (p *Parser) NeedEOF() bool {
	return p.framing == kFramingCloseDelimited
}

// Chunked reports whether chunked framing was resolved.
func (p *Parser) Chunked() bool {
	return p.framing == kFramingChunked
}

// ContentLength returns the resolved fixed body length, if framing is
// length-delimited.
func (p *Parser) ContentLength() (int64, bool) {
	if p.framing != kFramingContentLength {
		return 0, false
	}
	return p.contentLength, true
}

// GotSome reports whether any input byte has ever been presented,
// letting a caller distinguish "nothing received yet" from "received
// some, want more".
func (p *Parser) GotSome() bool {
	return p.gotSome
}

// BodyBytes returns the number of body bytes consumed so far.
func (p *Parser) BodyBytes() int64 {
	return p.bodyTotal
}

// Put feeds the parser the readable bytes described by v and returns
// how many of them were consumed. The consumed prefix must be dropped
// from the caller's buffer (Store.Consume); the rest must reappear,
// unmodified, at the front of the next view.
func (p *Parser) Put(v buffer.View) (int, error) {
	switch p.state {
	case kStateComplete, kStateFailed:
		return 0, ErrParserDone
	}
	p.started = true
	if v.Len() > 0 {
		p.gotSome = true
	}
	sc := newScanner(v.Segments())

	for {
		switch p.state {
		case kStateStartLine:
			line, err := p.nextLine(&sc, true)
			if err != nil {
				return p.finish(&sc, err)
			}
			if err = p.parseStartLine(line); err != nil {
				return p.fail(&sc, err)
			}
			p.state = kStateFields

		case kStateFields:
			line, err := p.nextLine(&sc, true)
			if err != nil {
				return p.finish(&sc, err)
			}
			if len(line) != 0 {
				if err = p.parseField(line); err != nil {
					return p.fail(&sc, err)
				}
				continue
			}
			if err = p.resolveFraming(); err != nil {
				return p.fail(&sc, err)
			}
			p.headerDone = true
			if p.state == kStateComplete {
				return sc.consumed, nil
			}
			if !p.eager {
				// pause at the header boundary; the caller decides
				// whether and how to read the body
				return sc.consumed, nil
			}

		case kStateBodyFixed:
			avail := sc.remaining()
			if avail == 0 {
				return sc.consumed, ErrNeedMore
			}
			take := avail
			if int64(take) > p.remaining {
				take = int(p.remaining)
			}
			if err := p.deliver(v, sc.consumed, take); err != nil {
				return p.fail(&sc, err)
			}
			sc.skip(take)
			p.remaining -= int64(take)
			if p.remaining > 0 {
				return sc.consumed, ErrNeedMore
			}
			p.state = kStateComplete
			return sc.consumed, nil

		case kStateChunkSize:
			size, err := p.nextChunkSize(&sc)
			if err != nil {
				return p.finish(&sc, err)
			}
			if size == 0 {
				p.state = kStateTrailers
				continue
			}
			p.remaining = size
			p.state = kStateChunkData

		case kStateChunkData:
			if !p.eager {
				// whole-chunk batching: wait for the chunk body and
				// its trailing CRLF before consuming anything
				if int64(sc.remaining()) < p.remaining+2 {
					return sc.consumed, ErrNeedMore
				}
			}
			avail := sc.remaining()
			if avail == 0 {
				return sc.consumed, ErrNeedMore
			}
			take := avail
			if int64(take) > p.remaining {
				take = int(p.remaining)
			}
			if err := p.deliver(v, sc.consumed, take); err != nil {
				return p.fail(&sc, err)
			}
			sc.skip(take)
			p.remaining -= int64(take)
			if p.remaining > 0 {
				return sc.consumed, ErrNeedMore
			}
			p.state = kStateChunkDataEnd

		case kStateChunkDataEnd:
			if sc.remaining() < 2 {
				return sc.consumed, ErrNeedMore
			}
			if sc.byteAt(0) != '\r' || sc.byteAt(1) != '\n' {
				return p.fail(&sc, ErrMalformedChunk)
			}
			sc.skip(2)
			p.state = kStateChunkSize

		case kStateTrailers:
			line, err := p.nextLine(&sc, true)
			if err != nil {
				return p.finish(&sc, err)
			}
			if len(line) != 0 {
				if err = p.parseField(line); err != nil {
					return p.fail(&sc, err)
				}
				continue
			}
			p.state = kStateComplete
			return sc.consumed, nil

		case kStateBodyToEOF:
			avail := sc.remaining()
			if avail == 0 {
				return sc.consumed, ErrNeedMore
			}
			if err := p.deliver(v, sc.consumed, avail); err != nil {
				return p.fail(&sc, err)
			}
			sc.skip(avail)
			return sc.consumed, ErrNeedMore
		}
	}
}

// PutEOF finalizes the message at end of stream. It completes a
// close-delimited body; on a message whose framing still expects
// bytes it fails with ErrPartialMessage.
func (p *Parser) PutEOF() error {
	switch p.state {
	case kStateComplete:
		return nil
	case kStateFailed:
		return ErrParserDone
	case kStateBodyToEOF:
		p.state = kStateComplete
		return nil
	default:
		p.state = kStateFailed
		p.failure = ErrPartialMessage
		return ErrPartialMessage
	}
}

func (p *Parser) finish(sc *scanner, err error) (int, error) {
	if err != ErrNeedMore {
		return p.fail(sc, err)
	}
	return sc.consumed, ErrNeedMore
}

func (p *Parser) fail(sc *scanner, err error) (int, error) {
	p.state = kStateFailed
	p.failure = err
	return sc.consumed, err
}

func (p *Parser) deliver(v buffer.View, pos, n int) error {
	if p.bodyLimit >= 0 && p.bodyTotal+int64(n) > p.bodyLimit {
		return ErrBodyLimitExceeded
	}
	p.bodyTotal += int64(n)
	if p.skip || p.sink == nil {
		return nil
	}
	return p.sink.OnBody(v.Adjust(pos, n))
}

// nextLine scans for the next CRLF-terminated line and consumes it,
// returning the line without its terminator. The returned bytes are
// only valid until the next scanner use; anything retained is copied
// into strings by the callers.
func (p *Parser) nextLine(sc *scanner, account bool) ([]byte, error) {
	i := sc.indexLF()
	if i < 0 {
		if account && p.headerBytes+sc.remaining() > p.headerLimit {
			return nil, ErrHeaderLimit
		}
		return nil, ErrNeedMore
	}
	if i == 0 || sc.byteAt(i-1) != '\r' {
		return nil, ErrMalformedLine
	}
	if account {
		p.headerBytes += i + 1
		if p.headerBytes > p.headerLimit {
			return nil, ErrHeaderLimit
		}
	}
	line := sc.take(i-1, &p.scratch)
	sc.skip(2)
	return line, nil
}

// nextChunkSize parses a chunk-size line: hex digits, optional
// ';'-delimited extensions (ignored), CRLF.
func (p *Parser) nextChunkSize(sc *scanner) (int64, error) {
	i := sc.indexLF()
	if i < 0 {
		if sc.remaining() > kMaxChunkLineSize {
			return 0, ErrMalformedChunk
		}
		return 0, ErrNeedMore
	}
	if i == 0 || sc.byteAt(i-1) != '\r' {
		return 0, ErrMalformedChunk
	}
	line := sc.take(i-1, &p.scratch)
	sc.skip(2)
	if j := bytes.IndexByte(line, ';'); j >= 0 {
		line = line[:j]
	}
	if len(line) == 0 || len(line) > kMaxChunkSizeDigits {
		return 0, ErrMalformedChunk
	}
	var size int64
	for _, c := range line {
		var d int64
		switch {
		case c >= '0' && c <= '9':
			d = int64(c - '0')
		case c >= 'a' && c <= 'f':
			d = int64(c-'a') + 10
		case c >= 'A' && c <= 'F':
			d = int64(c-'A') + 10
		default:
			return 0, ErrMalformedChunk
		}
		size = size<<4 | d
		if size < 0 {
			return 0, ErrMalformedChunk
		}
	}
	return size, nil
}

func (p *Parser) parseStartLine(line []byte) error {
	if p.kind == KindRequest {
		return p.parseRequestLine(line)
	}
	return p.parseStatusLine(line)
}

func (p *Parser) parseRequestLine(line []byte) error {
	i := bytes.IndexByte(line, ' ')
	if i <= 0 {
		return ErrMalformedLine
	}
	j := bytes.IndexByte(line[i+1:], ' ')
	if j <= 0 {
		return ErrMalformedLine
	}
	j += i + 1
	version, err := parseVersion(line[j+1:])
	if err != nil {
		return err
	}
	p.start.Method = string(line[:i])
	p.start.Target = string(line[i+1 : j])
	p.start.Version = version
	return nil
}

func (p *Parser) parseStatusLine(line []byte) error {
	i := bytes.IndexByte(line, ' ')
	if i <= 0 {
		return ErrMalformedLine
	}
	version, err := parseVersion(line[:i])
	if err != nil {
		return err
	}
	rest := line[i+1:]
	if len(rest) < 3 {
		return ErrMalformedLine
	}
	status := 0
	for _, c := range rest[:3] {
		if c < '0' || c > '9' {
			return ErrMalformedLine
		}
		status = status*10 + int(c-'0')
	}
	reason := ""
	if len(rest) > 3 {
		if rest[3] != ' ' {
			return ErrMalformedLine
		}
		reason = string(rest[4:])
	}
	p.start.Version = version
	p.start.Status = status
	p.start.Reason = reason
	return nil
}

func parseVersion(b []byte) (int, error) {
	if len(b) != 8 || !bytes.HasPrefix(b, []byte("HTTP/")) || b[6] != '.' {
		return 0, ErrMalformedLine
	}
	major, minor := b[5], b[7]
	if major < '0' || major > '9' || minor < '0' || minor > '9' {
		return 0, ErrMalformedLine
	}
	if major != '1' || (minor != '0' && minor != '1') {
		return 0, ErrUnsupportedVersion
	}
	return int(major-'0')*10 + int(minor-'0'), nil
}

func (p *Parser) parseField(line []byte) error {
	i := bytes.IndexByte(line, ':')
	if i <= 0 {
		return ErrMalformedField
	}
	name := line[:i]
	if bytes.IndexByte(name, ' ') >= 0 || bytes.IndexByte(name, '\t') >= 0 {
		return ErrMalformedField
	}
	value := trimOWS(line[i+1:])
	p.fields.Add(string(name), string(value))
	return nil
}

func trimOWS(b []byte) []byte {
	for len(b) > 0 && (b[0] == ' ' || b[0] == '\t') {
		b = b[1:]
	}
	for len(b) > 0 && (b[len(b)-1] == ' ' || b[len(b)-1] == '\t') {
		b = b[:len(b)-1]
	}
	return b
}

// resolveFraming applies the wire precedence once all header fields
// are seen: a chunked Transfer-Encoding wins over any Content-Length;
// every Content-Length occurrence (comma-split within a field and
// across repeats) must reduce to one value; with neither, requests
// have no body and responses are close-delimited.
func (p *Parser) resolveFraming() error {
	for _, te := range p.fields.Values("Transfer-Encoding") {
		for _, tok := range splitComma(te) {
			if equalFoldASCII(tok, "chunked") {
				p.framing = kFramingChunked
				p.state = kStateChunkSize
				return nil
			}
		}
	}

	var length uint64
	seen := false
	for _, cl := range p.fields.Values("Content-Length") {
		for _, tok := range splitComma(cl) {
			n, err := strconv.ParseUint(tok, 10, 63)
			if err != nil {
				return ErrBadContentLength
			}
			if seen && n != length {
				return ErrBadContentLength
			}
			length = n
			seen = true
		}
	}
	if seen {
		if p.bodyLimit >= 0 && int64(length) > p.bodyLimit {
			return ErrBodyLimitExceeded
		}
		p.framing = kFramingContentLength
		p.contentLength = int64(length)
		if length == 0 {
			p.state = kStateComplete
		} else {
			p.remaining = int64(length)
			p.state = kStateBodyFixed
		}
		return nil
	}

	if p.kind == KindRequest {
		p.framing = kFramingNone
		p.state = kStateComplete
		return nil
	}
	p.framing = kFramingCloseDelimited
	p.state = kStateBodyToEOF
	return nil
}

func splitComma(s string) []string {
	parts := make([]string, 0, 2)
	for len(s) > 0 {
		i := 0
		for i < len(s) && s[i] != ',' {
			i++
		}
		part := s[:i]
		for len(part) > 0 && (part[0] == ' ' || part[0] == '\t') {
			part = part[1:]
		}
		for len(part) > 0 && (part[len(part)-1] == ' ' || part[len(part)-1] == '\t') {
			part = part[:len(part)-1]
		}
		parts = append(parts, part)
		if i == len(s) {
			break
		}
		s = s[i+1:]
	}
	return parts
}

func equalFoldASCII(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if ca >= 'A' && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if cb >= 'A' && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}

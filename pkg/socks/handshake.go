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

package socks

import (
	"net"

	"github.com/golang/glog"

	"framebuf/pkg/buffer"
	pkgio "framebuf/pkg/io"
)

// handshake steps
const (
	kStepSendMethods = iota
	kStepReadMethod
	kStepSendAuth
	kStepReadAuthReply
	kStepSendConnect
	kStepReadReplyBase
	kStepReadReplyRest
	kStepDone
)

type Config struct {
	Host        string // target host: IP literal, or name with UseHostname
	Port        uint16
	Username    string
	Password    string
	UseHostname bool
	IO          pkgio.Config
}

// Handshaker performs the CONNECT negotiation with a SOCKS5 proxy on
// an already-established transport. It owns its two stores for the
// duration of the handshake; bytes the proxy sends past the final
// reply stay buffered in the read store for the caller to replay.
type Handshaker struct {
	config Config
	tr     pkgio.Transport
	out    *buffer.Store
	in     *pkgio.BufferedStream
	inbuf  *buffer.Store

	step       int
	err        error
	chosen     uint8
	domainLen  int
	replyBytes []byte
	BoundAddr  string
	BoundPort  uint16
}

func NewHandshaker(tr pkgio.Transport, conf Config) *Handshaker {
	conf.IO.SetDefaultIfNotDefined()
	inbuf := buffer.NewStore(conf.IO.MaxBufferSize)
	return &Handshaker{
		config: conf,
		tr:     tr,
		out:    buffer.NewStore(conf.IO.MaxBufferSize),
		in:     pkgio.NewBufferedStream(tr, inbuf, conf.IO),
		inbuf:  inbuf,
	}
}

// Stream returns the read side after the handshake; it replays any
// bytes the proxy delivered beyond the final reply.
func (h *Handshaker) Stream() *pkgio.BufferedStream {
	return h.in
}

// Run drives the handshake to its single completion. A validation
// failure at any step aborts immediately with the step's named error.
func (h *Handshaker) Run() error {
	if h.step == kStepDone {
		return h.err
	}
	for {
		switch h.step {
		case kStepSendMethods:
			h.step = kStepReadMethod
			if err := h.sendMethods(); err != nil {
				return h.complete(err)
			}

		case kStepReadMethod:
			b, err := h.readExactly(2)
			if err != nil {
				return h.complete(err)
			}
			if b[0] != kVersion5 {
				return h.complete(ErrUnsupportedVersion)
			}
			h.chosen = b[1]
			switch h.chosen {
			case kAuthUserPass:
				if h.config.Username == "" {
					return h.complete(ErrUsernameRequired)
				}
				h.step = kStepSendAuth
			case kAuthNone:
				h.step = kStepSendConnect
			case kAuthNoAcceptable:
				return h.complete(ErrNoAcceptableMethods)
			default:
				return h.complete(ErrUnsupportedAuthVersion)
			}

		case kStepSendAuth:
			h.step = kStepReadAuthReply
			if err := h.sendAuth(); err != nil {
				return h.complete(err)
			}

		case kStepReadAuthReply:
			b, err := h.readExactly(2)
			if err != nil {
				return h.complete(err)
			}
			if b[0] != kAuthVersion {
				return h.complete(ErrUnsupportedAuthVersion)
			}
			if b[1] != 0x00 {
				return h.complete(ErrAuthFailed)
			}
			h.step = kStepSendConnect

		case kStepSendConnect:
			h.step = kStepReadReplyBase
			if err := h.sendConnect(); err != nil {
				return h.complete(err)
			}

		case kStepReadReplyBase:
			// base read assumes the short (IPv4) reply shape; longer
			// address forms are topped up in the next step
			b, err := h.readExactly(10)
			if err != nil {
				return h.complete(err)
			}
			if b[0] != kVersion5 {
				return h.complete(ErrUnsupportedVersion)
			}
			atyp := b[3]
			switch atyp {
			case kAtypIPv4:
				h.domainLen = 0
			case kAtypDomain:
				h.domainLen = int(b[4])
				if h.domainLen < 3 {
					return h.complete(ErrGeneralFailure)
				}
			case kAtypIPv6:
				h.domainLen = 0
			default:
				return h.complete(ErrGeneralFailure)
			}
			h.replyBytes = append([]byte(nil), b...)
			h.step = kStepReadReplyRest

		case kStepReadReplyRest:
			var extra int
			switch h.replyBytes[3] {
			case kAtypDomain:
				extra = h.domainLen - 3
			case kAtypIPv6:
				extra = 12
			}
			if extra > 0 {
				b, err := h.readExactly(extra)
				if err != nil {
					return h.complete(err)
				}
				h.replyBytes = append(h.replyBytes, b...)
			}
			if status := h.replyBytes[1]; status != kStatusSucceeded {
				return h.complete(statusError(status))
			}
			h.decodeBound()
			glog.V(1).Infof("socks: remote host %s:%d", h.BoundAddr, h.BoundPort)
			return h.complete(nil)
		}
	}
}

func (h *Handshaker) complete(err error) error {
	h.step = kStepDone
	h.err = err
	return err
}

// flush writes the out store to the transport and leaves it empty.
func (h *Handshaker) flush() error {
	return pkgio.NewWriteOp(h.tr, h.out, h.config.IO).Run()
}

// readExactly buffers n bytes from the transport and consumes them.
func (h *Handshaker) readExactly(n int) ([]byte, error) {
	if _, err := h.in.Fill(n); err != nil {
		return nil, err
	}
	b := make([]byte, n)
	h.inbuf.Data().Adjust(0, n).CopyTo(b)
	h.inbuf.Consume(n)
	return b, nil
}

func (h *Handshaker) put(b []byte) error {
	v, err := h.out.Prepare(len(b))
	if err != nil {
		return err
	}
	v.CopyFrom(b)
	h.out.Commit(len(b))
	return nil
}

func (h *Handshaker) sendMethods() error {
	msg := []byte{kVersion5, 1, kAuthNone}
	if h.config.Username != "" {
		msg = []byte{kVersion5, 2, kAuthNone, kAuthUserPass}
	}
	if err := h.put(msg); err != nil {
		return err
	}
	return h.flush()
}

func (h *Handshaker) sendAuth() error {
	u, p := h.config.Username, h.config.Password
	msg := make([]byte, 0, len(u)+len(p)+3)
	msg = append(msg, kAuthVersion, byte(len(u)))
	msg = append(msg, u...)
	msg = append(msg, byte(len(p)))
	msg = append(msg, p...)
	if err := h.put(msg); err != nil {
		return err
	}
	return h.flush()
}

func (h *Handshaker) sendConnect() error {
	msg := make([]byte, 0, 7+len(h.config.Host))
	msg = append(msg, kVersion5, kCmdConnect, 0)
	if h.config.UseHostname {
		if len(h.config.Host) > 255 {
			return ErrBadAddress
		}
		msg = append(msg, kAtypDomain, byte(len(h.config.Host)))
		msg = append(msg, h.config.Host...)
	} else {
		ip := net.ParseIP(h.config.Host)
		if ip == nil {
			return ErrBadAddress
		}
		if v4 := ip.To4(); v4 != nil {
			msg = append(msg, kAtypIPv4)
			msg = append(msg, v4...)
		} else {
			msg = append(msg, kAtypIPv6)
			msg = append(msg, ip.To16()...)
		}
	}
	msg = append(msg, byte(h.config.Port>>8), byte(h.config.Port))
	if err := h.put(msg); err != nil {
		return err
	}
	return h.flush()
}

// decodeBound extracts the proxy-side bound address from the full
// reply bytes.
func (h *Handshaker) decodeBound() {
	b := h.replyBytes
	switch b[3] {
	case kAtypIPv4:
		h.BoundAddr = net.IP(b[4:8]).String()
		h.BoundPort = uint16(b[8])<<8 | uint16(b[9])
	case kAtypDomain:
		end := 5 + h.domainLen
		h.BoundAddr = string(b[5:end])
		h.BoundPort = uint16(b[end])<<8 | uint16(b[end+1])
	case kAtypIPv6:
		h.BoundAddr = net.IP(b[4:20]).String()
		h.BoundPort = uint16(b[20])<<8 | uint16(b[21])
	}
}

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

// Package socks implements the client side of the SOCKS5 handshake as
// an explicit-step machine over a segment store. Each wire reply is
// validated before the next step; a validation failure maps to a named
// error and aborts the sequence.
package socks

import "framebuf/pkg/errors"

// wire constants
const (
	kVersion5   = 0x05
	kCmdConnect = 0x01

	kAuthNone         = 0x00
	kAuthUserPass     = 0x02
	kAuthNoAcceptable = 0xFF

	kAuthVersion = 0x01

	kAtypIPv4   = 0x01
	kAtypDomain = 0x03
	kAtypIPv6   = 0x04
)

// reply status codes
const (
	kStatusSucceeded uint8 = iota
	kStatusGeneralFailure
	kStatusRulesetDenied
	kStatusNetworkUnreachable
	kStatusHostUnreachable
	kStatusConnectionRefused
	kStatusTTLExpired
	kStatusCommandNotSupported
	kStatusAtypNotSupported
)

// handshake error numbers, continuing the transport error space
const (
	KErrGeneralFailure uint32 = iota + 100
	KErrRulesetDenied
	KErrNetworkUnreachable
	KErrConnectionRefused
	KErrTTLExpired
	KErrCommandNotSupported
	KErrAtypNotSupported
	KErrUnassigned
	KErrUnsupportedVersion
	KErrNoAcceptableMethods
	KErrUnsupportedAuthVersion
	KErrUsernameRequired
	KErrAuthFailed
	KErrBadAddress
)

var (
	ErrGeneralFailure      = errors.NewError("socks: general failure", KErrGeneralFailure)
	ErrRulesetDenied       = errors.NewError("socks: connection not allowed by ruleset", KErrRulesetDenied)
	ErrNetworkUnreachable  = errors.NewError("socks: network unreachable", KErrNetworkUnreachable)
	ErrConnectionRefused   = errors.NewError("socks: connection refused", KErrConnectionRefused)
	ErrTTLExpired          = errors.NewError("socks: ttl expired", KErrTTLExpired)
	ErrCommandNotSupported = errors.NewError("socks: command not supported", KErrCommandNotSupported)
	ErrAtypNotSupported    = errors.NewError("socks: address type not supported", KErrAtypNotSupported)
	ErrUnassigned          = errors.NewError("socks: unassigned reply status", KErrUnassigned)

	ErrUnsupportedVersion     = errors.NewError("socks: unsupported version", KErrUnsupportedVersion)
	ErrNoAcceptableMethods    = errors.NewError("socks: no acceptable auth methods", KErrNoAcceptableMethods)
	ErrUnsupportedAuthVersion = errors.NewError("socks: unsupported auth version", KErrUnsupportedAuthVersion)
	ErrUsernameRequired       = errors.NewError("socks: username required", KErrUsernameRequired)
	ErrAuthFailed             = errors.NewError("socks: authentication failed", KErrAuthFailed)
	ErrBadAddress             = errors.NewError("socks: bad target address", KErrBadAddress)
)

// statusError maps a non-zero reply status to its named error. Codes
// the reply switch does not name fall through to ErrUnassigned.
func statusError(status uint8) error {
	switch status {
	case kStatusGeneralFailure:
		return ErrGeneralFailure
	case kStatusRulesetDenied:
		return ErrRulesetDenied
	case kStatusNetworkUnreachable:
		return ErrNetworkUnreachable
	case kStatusConnectionRefused:
		return ErrConnectionRefused
	case kStatusTTLExpired:
		return ErrTTLExpired
	case kStatusCommandNotSupported:
		return ErrCommandNotSupported
	case kStatusAtypNotSupported:
		return ErrAtypNotSupported
	default:
		return ErrUnassigned
	}
}

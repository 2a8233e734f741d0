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
	"bytes"
	goio "io"
	"net"
	"testing"
	"time"

	pkgio "framebuf/pkg/io"
	"framebuf/pkg/util"
)

type exchange struct {
	expect []byte
	reply  []byte
}

// runProxy scripts the proxy side of a handshake on the pipe's peer
// end. Mismatched client bytes fail the test.
func runProxy(t *testing.T, conn net.Conn, script []exchange) chan struct{} {
	t.Helper()
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i, ex := range script {
			got := make([]byte, len(ex.expect))
			if _, err := goio.ReadFull(conn, got); err != nil {
				t.Errorf("proxy step %d read: %v", i, err)
				return
			}
			if !bytes.Equal(got, ex.expect) {
				t.Errorf("proxy step %d got % x, want % x", i, got, ex.expect)
				return
			}
			if len(ex.reply) > 0 {
				if _, err := conn.Write(ex.reply); err != nil {
					t.Errorf("proxy step %d write: %v", i, err)
					return
				}
			}
		}
	}()
	return done
}

func testIOConfig() pkgio.Config {
	return pkgio.Config{
		ReadTimeout:  util.Duration{Duration: 2 * time.Second},
		WriteTimeout: util.Duration{Duration: 2 * time.Second},
	}
}

func TestHandshakeNoAuthIPv4(t *testing.T) {
	client, proxy := net.Pipe()
	defer client.Close()

	script := []exchange{
		{[]byte{0x05, 0x01, 0x00}, []byte{0x05, 0x00}},
		{[]byte{0x05, 0x01, 0x00, 0x01, 10, 0, 0, 1, 0x01, 0xBB},
			[]byte{0x05, 0x00, 0x00, 0x01, 192, 168, 0, 7, 0x30, 0x39}},
	}
	done := runProxy(t, proxy, script)

	hs := NewHandshaker(client, Config{Host: "10.0.0.1", Port: 443, IO: testIOConfig()})
	if err := hs.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	<-done
	if hs.BoundAddr != "192.168.0.7" || hs.BoundPort != 12345 {
		t.Fatalf("bound %s:%d", hs.BoundAddr, hs.BoundPort)
	}
	// repeated Run repeats the terminal outcome
	if err := hs.Run(); err != nil {
		t.Fatalf("second Run: %v", err)
	}
}

func TestHandshakeUserPassDomainReply(t *testing.T) {
	client, proxy := net.Pipe()
	defer client.Close()

	script := []exchange{
		{[]byte{0x05, 0x02, 0x00, 0x02}, []byte{0x05, 0x02}},
		{append(append([]byte{0x01, 0x02}, "me"...), append([]byte{0x03}, "pwd"...)...),
			[]byte{0x01, 0x00}},
		{append([]byte{0x05, 0x01, 0x00, 0x03, 0x0B}, append([]byte("example.com"), 0x00, 0x50)...),
			append([]byte{0x05, 0x00, 0x00, 0x03, 0x09}, append([]byte("localhost"), 0x1F, 0x90)...)},
	}
	done := runProxy(t, proxy, script)

	hs := NewHandshaker(client, Config{
		Host:        "example.com",
		Port:        80,
		Username:    "me",
		Password:    "pwd",
		UseHostname: true,
		IO:          testIOConfig(),
	})
	if err := hs.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	<-done
	if hs.BoundAddr != "localhost" || hs.BoundPort != 8080 {
		t.Fatalf("bound %s:%d", hs.BoundAddr, hs.BoundPort)
	}
}

func TestHandshakeIPv6Reply(t *testing.T) {
	client, proxy := net.Pipe()
	defer client.Close()

	v6 := net.ParseIP("2001:db8::1").To16()
	reply := append([]byte{0x05, 0x00, 0x00, 0x04}, append(v6, 0x00, 0x50)...)
	script := []exchange{
		{[]byte{0x05, 0x01, 0x00}, []byte{0x05, 0x00}},
		{append([]byte{0x05, 0x01, 0x00, 0x04}, append(v6, 0x01, 0xBB)...), reply},
	}
	done := runProxy(t, proxy, script)

	hs := NewHandshaker(client, Config{Host: "2001:db8::1", Port: 443, IO: testIOConfig()})
	if err := hs.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	<-done
	if hs.BoundAddr != "2001:db8::1" || hs.BoundPort != 80 {
		t.Fatalf("bound %s:%d", hs.BoundAddr, hs.BoundPort)
	}
}

func TestHandshakeNoAcceptableMethods(t *testing.T) {
	client, proxy := net.Pipe()
	defer client.Close()

	done := runProxy(t, proxy, []exchange{
		{[]byte{0x05, 0x01, 0x00}, []byte{0x05, 0xFF}},
	})

	hs := NewHandshaker(client, Config{Host: "10.0.0.1", Port: 80, IO: testIOConfig()})
	if err := hs.Run(); err != ErrNoAcceptableMethods {
		t.Fatalf("Run = %v, want ErrNoAcceptableMethods", err)
	}
	<-done
}

func TestHandshakeAuthRejected(t *testing.T) {
	client, proxy := net.Pipe()
	defer client.Close()

	done := runProxy(t, proxy, []exchange{
		{[]byte{0x05, 0x02, 0x00, 0x02}, []byte{0x05, 0x02}},
		{append(append([]byte{0x01, 0x02}, "me"...), append([]byte{0x03}, "bad"...)...),
			[]byte{0x01, 0x01}},
	})

	hs := NewHandshaker(client, Config{
		Host: "10.0.0.1", Port: 80,
		Username: "me", Password: "bad",
		IO: testIOConfig(),
	})
	if err := hs.Run(); err != ErrAuthFailed {
		t.Fatalf("Run = %v, want ErrAuthFailed", err)
	}
	<-done
}

func TestHandshakeAuthRequiredWithoutUsername(t *testing.T) {
	client, proxy := net.Pipe()
	defer client.Close()

	done := runProxy(t, proxy, []exchange{
		{[]byte{0x05, 0x01, 0x00}, []byte{0x05, 0x02}},
	})

	hs := NewHandshaker(client, Config{Host: "10.0.0.1", Port: 80, IO: testIOConfig()})
	if err := hs.Run(); err != ErrUsernameRequired {
		t.Fatalf("Run = %v, want ErrUsernameRequired", err)
	}
	<-done
}

func TestHandshakeReplyStatuses(t *testing.T) {
	cases := []struct {
		status byte
		want   error
	}{
		{0x01, ErrGeneralFailure},
		{0x02, ErrRulesetDenied},
		{0x03, ErrNetworkUnreachable},
		{0x04, ErrUnassigned},
		{0x05, ErrConnectionRefused},
		{0x06, ErrTTLExpired},
		{0x07, ErrCommandNotSupported},
		{0x08, ErrAtypNotSupported},
		{0x09, ErrUnassigned},
	}
	for _, c := range cases {
		client, proxy := net.Pipe()
		script := []exchange{
			{[]byte{0x05, 0x01, 0x00}, []byte{0x05, 0x00}},
			{[]byte{0x05, 0x01, 0x00, 0x01, 10, 0, 0, 1, 0x00, 0x50},
				[]byte{0x05, c.status, 0x00, 0x01, 0, 0, 0, 0, 0, 0}},
		}
		done := runProxy(t, proxy, script)

		hs := NewHandshaker(client, Config{Host: "10.0.0.1", Port: 80, IO: testIOConfig()})
		if err := hs.Run(); err != c.want {
			t.Errorf("status %#x: Run = %v, want %v", c.status, err, c.want)
		}
		<-done
		client.Close()
	}
}

func TestHandshakeBadAddress(t *testing.T) {
	client, proxy := net.Pipe()
	defer proxy.Close()
	defer client.Close()

	done := runProxy(t, proxy, []exchange{
		{[]byte{0x05, 0x01, 0x00}, []byte{0x05, 0x00}},
	})

	hs := NewHandshaker(client, Config{Host: "not an ip", Port: 80, IO: testIOConfig()})
	if err := hs.Run(); err != ErrBadAddress {
		t.Fatalf("Run = %v, want ErrBadAddress", err)
	}
	<-done
}

// Bytes the proxy pushes past the final reply must come back out of the
// replay stream untouched.
func TestHandshakeSurplusReplay(t *testing.T) {
	client, proxy := net.Pipe()
	defer client.Close()

	reply := append([]byte{0x05, 0x00, 0x00, 0x01, 127, 0, 0, 1, 0x00, 0x50},
		[]byte("early data")...)
	script := []exchange{
		{[]byte{0x05, 0x01, 0x00}, []byte{0x05, 0x00}},
		{[]byte{0x05, 0x01, 0x00, 0x01, 127, 0, 0, 1, 0x00, 0x50}, reply},
	}
	done := runProxy(t, proxy, script)

	hs := NewHandshaker(client, Config{Host: "127.0.0.1", Port: 80, IO: testIOConfig()})
	if err := hs.Run(); err != nil {
		t.Fatalf("Run: %v", err)
	}
	<-done

	st := hs.Stream()
	if st.Buffered() != 10 {
		t.Fatalf("buffered = %d, want 10", st.Buffered())
	}
	got := make([]byte, 16)
	n, err := st.Read(got)
	if err != nil || string(got[:n]) != "early data" {
		t.Fatalf("replay = %q, %v", got[:n], err)
	}
}

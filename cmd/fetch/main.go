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

// fetch issues one request against a server, optionally through a
// SOCKS5 proxy, and prints the parsed response.
package main

import (
	"flag"
	"fmt"
	"net"
	"os"
	"strconv"

	"github.com/golang/glog"

	"framebuf/pkg/buffer"
	"framebuf/pkg/cfg"
	pkgio "framebuf/pkg/io"
	"framebuf/pkg/proto"
	"framebuf/pkg/socks"
	"framebuf/pkg/util"
)

type appConfig struct {
	IO    pkgio.Config
	Proxy socks.Config
}

func main() {
	var (
		cfgFile   string
		addr      string
		target    string
		method    string
		proxyAddr string
		proxyUser string
		proxyPass string
		hostname  bool
		eager     bool
		bodyLimit int64
	)
	flag.StringVar(&cfgFile, "config", "", "configuration file")
	flag.StringVar(&addr, "addr", "", "server address, host:port")
	flag.StringVar(&target, "target", "/", "request target")
	flag.StringVar(&method, "method", "GET", "request method")
	flag.StringVar(&proxyAddr, "proxy", "", "SOCKS5 proxy address, host:port")
	flag.StringVar(&proxyUser, "proxy_user", "", "SOCKS5 username")
	flag.StringVar(&proxyPass, "proxy_pass", "", "SOCKS5 password")
	flag.BoolVar(&hostname, "hostname", false, "send hostname to the proxy instead of resolving")
	flag.BoolVar(&eager, "eager", false, "deliver body bytes as they arrive")
	flag.Int64Var(&bodyLimit, "body_limit", -1, "maximum body bytes to accept")
	flag.Parse()

	if addr == "" {
		glog.Exit("-addr is required")
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		glog.Exitf("bad -addr: %v", err)
	}

	appCfg := appConfig{IO: pkgio.DefaultConfig}
	if cfgFile != "" {
		var c cfg.Config
		if err := c.ReadFromTomlFile(cfgFile); err != nil {
			glog.Exitf("cannot read config %s: %v", cfgFile, err)
		}
		if err := c.WriteTo(&appCfg); err != nil {
			glog.Exitf("bad config %s: %v", cfgFile, err)
		}
	}

	var tr pkgio.Transport
	dialAddr := addr
	if proxyAddr != "" {
		dialAddr = proxyAddr
	}
	conn, err := net.Dial("tcp", dialAddr)
	if err != nil {
		glog.Exitf("cannot connect to %s: %v", dialAddr, err)
	}
	defer conn.Close()
	tr = conn

	if proxyAddr != "" {
		port, err := strconv.ParseUint(portStr, 10, 16)
		if err != nil {
			glog.Exitf("bad port in -addr: %v", err)
		}
		hsCfg := appCfg.Proxy
		hsCfg.Host = host
		hsCfg.Port = uint16(port)
		hsCfg.UseHostname = hostname
		hsCfg.IO = appCfg.IO
		if proxyUser != "" {
			hsCfg.Username = proxyUser
			hsCfg.Password = proxyPass
		}
		hs := socks.NewHandshaker(conn, hsCfg)
		if err := hs.Run(); err != nil {
			glog.Exitf("proxy handshake failed: %v", err)
		}
		// the stream replays anything the proxy over-delivered
		tr = hs.Stream()
	}

	head := proto.RequestHead{Method: method, Target: target, Version: 11}
	head.Fields.Add("Host", host)
	head.Fields.Add("Connection", "close")

	out := buffer.NewStore(appCfg.IO.MaxBufferSize)
	if err := head.Encode(out); err != nil {
		glog.Exitf("cannot encode request: %v", err)
	}
	if err := pkgio.NewWriteOp(tr, out, appCfg.IO).Run(); err != nil {
		glog.Exitf("cannot send request: %v", err)
	}

	parser := proto.NewParser(proto.KindResponse)
	parser.SetEager(eager)
	if bodyLimit >= 0 {
		parser.SetBodyLimit(bodyLimit)
	}
	sink := proto.NewCaptureSink()
	parser.SetBodySink(sink)

	in := buffer.NewStore(appCfg.IO.MaxBufferSize)
	op := pkgio.NewReadOp(tr, in, parser, appCfg.IO)
	if err := op.Run(); err != nil {
		glog.Exitf("read failed: %v", err)
	}

	w := util.NewBufioWriter(os.Stdout, 32*1024)
	defer func() {
		w.Flush()
		util.PutBufioWriter(w)
	}()

	start := parser.Start()
	fmt.Fprintf(w, "%d %s\n", start.Status, start.Reason)
	hdr := parser.Header()
	for i := 0; i < hdr.Len(); i++ {
		f := hdr.At(i)
		fmt.Fprintf(w, "%s: %s\n", f.Name, f.Value)
	}
	fmt.Fprintln(w)
	w.Write(sink.Bytes())
}

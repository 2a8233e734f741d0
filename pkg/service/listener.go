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

package service

import (
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/net/netutil"

	"framebuf/pkg/errors"
	"framebuf/pkg/stats"
	"framebuf/pkg/util"
)

type Listener struct {
	config      Config
	netListener net.Listener
	reqHandler  IRequestHandler
	connMgr     *ConnManager
	storePool   util.StorePool
	iostats     *stats.IOStats
	closed      int32
}

func NewListener(cfg Config, reqHandler IRequestHandler, st *stats.IOStats) (lsnr *Listener, err error) {
	cfg.SetDefaultIfNotDefined()
	ln := &Listener{
		config:     cfg,
		reqHandler: reqHandler,
		connMgr:    &ConnManager{},
		storePool:  util.NewSyncStorePool(cfg.IO.MaxBufferSize),
		iostats:    st,
	}
	nl, err := net.Listen(cfg.Network, cfg.Addr)
	if err != nil {
		return nil, err
	}
	// cap concurrent connections at accept time
	ln.netListener = netutil.LimitListener(nl, cfg.MaxConnections)
	return ln, nil
}

func (l *Listener) Addr() net.Addr {
	return l.netListener.Addr()
}

func (l *Listener) AcceptAndServe() error {
	conn, err := l.netListener.Accept()
	if err != nil {
		if atomic.LoadInt32(&l.closed) != 0 {
			return errors.ErrShutdownInProgress
		}
		return err
	}
	c := newConnection(conn, l.config, l.reqHandler, l.connMgr, l.storePool, l.iostats)
	c.Start()
	return nil
}

func (l *Listener) Close() error {
	atomic.StoreInt32(&l.closed, 1)
	return l.netListener.Close()
}

func (l *Listener) Shutdown() {
	l.Close()
	l.connMgr.Shutdown()
}

func (l *Listener) WaitForShutdownToComplete(d time.Duration) {
	l.connMgr.WaitForShutdownToComplete(d)
}

func (l *Listener) GetNumActiveConnections() int32 {
	return l.connMgr.GetNumActiveConnections()
}

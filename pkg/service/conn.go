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
	"strconv"
	"sync"

	"github.com/golang/glog"

	"framebuf/pkg/buffer"
	"framebuf/pkg/errors"
	pkgio "framebuf/pkg/io"
	"framebuf/pkg/proto"
	"framebuf/pkg/stats"
	"framebuf/pkg/util"
)

// Connection serves one inbound transport: a loop of read-message,
// handle, write-response. The read and write stores come from the
// shared pool and go back when the connection ends.
type Connection struct {
	conn       net.Conn
	config     Config
	handler    IRequestHandler
	mgr        *ConnManager
	pool       util.StorePool
	iostats    *stats.IOStats
	chStop     chan struct{}
	chActivity chan struct{}
	stopOnce   sync.Once
	closeOnce  sync.Once
}

func newConnection(conn net.Conn, config Config, handler IRequestHandler,
	mgr *ConnManager, pool util.StorePool, st *stats.IOStats) *Connection {
	return &Connection{
		conn:       conn,
		config:     config,
		handler:    handler,
		mgr:        mgr,
		pool:       pool,
		iostats:    st,
		chStop:     make(chan struct{}),
		chActivity: make(chan struct{}, 1),
	}
}

func (c *Connection) Start() {
	glog.V(1).Infof("start connection from %s", c.conn.RemoteAddr())
	c.mgr.TrackConn(c, true)
	go c.watchIdle()
	go c.serve()
}

func (c *Connection) Stop() {
	c.stopOnce.Do(func() {
		close(c.chStop)
	})
}

func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		glog.V(1).Infof("close connection from %s", c.conn.RemoteAddr())
		c.Stop()
		c.conn.Close()
		c.mgr.TrackConn(c, false)
	})
}

// watchIdle closes the connection when no complete message has
// arrived within the idle timeout, or when Stop is called.
func (c *Connection) watchIdle() {
	idleTimer := util.NewTimerWrapper(c.config.IO.IdleTimeout.Duration)
	idleTimer.Reset(c.config.IO.IdleTimeout.Duration)
	defer idleTimer.Stop()

	for {
		select {
		case <-c.chStop:
			c.Close()
			return
		case <-c.chActivity:
			idleTimer.Reset(c.config.IO.IdleTimeout.Duration)
		case <-idleTimer.GetTimeoutCh():
			glog.V(1).Infof("idle timeout, closing %s", c.conn.RemoteAddr())
			c.Close()
			return
		}
	}
}

func (c *Connection) touch() {
	select {
	case c.chActivity <- struct{}{}:
	default:
	}
}

func (c *Connection) serve() {
	defer c.Close()

	in := c.pool.Get()
	out := c.pool.Get()
	defer func() {
		c.pool.Put(in)
		c.pool.Put(out)
	}()

	// between messages the idle watchdog governs, not a per-read
	// deadline
	ioConf := c.config.IO
	ioConf.ReadTimeout.Duration = -1

	for {
		select {
		case <-c.chStop:
			return
		default:
		}

		parser := proto.NewParser(proto.KindRequest)
		sink := proto.NewCaptureSink()
		parser.SetBodySink(sink)

		op := pkgio.NewReadOp(c.conn, in, parser, ioConf)
		op.SetStats(c.iostats)
		if err := op.Run(); err != nil {
			// a close between messages is not a failure
			if !parser.GotSome() {
				err = errors.ErrConnectionClosed
				glog.V(2).Infof("read op %s: %v", op.ID(), err)
			} else {
				glog.V(1).Infof("read op %s: %v", op.ID(), err)
			}
			return
		}
		c.touch()

		req := &Request{
			OpID:   op.ID(),
			Start:  parser.Start(),
			Header: parser.Header(),
			Body:   sink.Bytes(),
		}
		head, body := c.handler.Handle(req)
		if _, ok := head.Fields.Get("Content-Length"); !ok {
			head.Fields.Add("Content-Length", strconv.Itoa(len(body)))
		}

		if err := c.send(out, &head, body); err != nil {
			glog.V(1).Infof("write response: %v", err)
			return
		}
	}
}

func (c *Connection) send(out *buffer.Store, head *proto.ResponseHead, body []byte) error {
	if err := head.Encode(out); err != nil {
		return err
	}
	if len(body) > 0 {
		v, err := out.Prepare(len(body))
		if err != nil {
			return err
		}
		v.CopyFrom(body)
		out.Commit(len(body))
	}
	wop := pkgio.NewWriteOp(c.conn, out, c.config.IO)
	wop.SetStats(c.iostats)
	return wop.Run()
}

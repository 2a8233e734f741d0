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
	"sync"
	"time"

	"github.com/golang/glog"

	"framebuf/pkg/util"
)

type ConnManager struct {
	mtx         sync.Mutex
	activeConns map[*Connection]struct{}
	wg          sync.WaitGroup
	count       util.AtomicCounter
}

func (m *ConnManager) TrackConn(c *Connection, add bool) {
	m.mtx.Lock()
	if m.activeConns == nil {
		m.activeConns = make(map[*Connection]struct{})
	}

	if add {
		m.activeConns[c] = struct{}{}
		m.wg.Add(1)
		m.count.Add(1)
		glog.V(1).Infof("add active conns: %d", len(m.activeConns))
	} else {
		delete(m.activeConns, c)
		m.wg.Done()
		m.count.Add(-1)
		glog.V(1).Infof("remove active conns: %d", len(m.activeConns))
	}
	m.mtx.Unlock()
}

func (m *ConnManager) Shutdown() {
	m.mtx.Lock()
	for c := range m.activeConns {
		c.Stop()
	}
	m.mtx.Unlock()
}

func (m *ConnManager) WaitForShutdownToComplete(timeout time.Duration) {
	done := make(chan bool)
	go func() {
		m.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
	}
}

func (m *ConnManager) GetNumActiveConnections() int32 {
	return m.count.Get()
}

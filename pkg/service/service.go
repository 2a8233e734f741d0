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

// Package service runs an inbound message server on top of the
// framing core: a limited listener, a manager tracking live
// connections, and a per-connection read/handle/write loop.
package service

import (
	"net"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/golang/glog"

	"framebuf/pkg/errors"
	"framebuf/pkg/stats"
)

type Service struct {
	listener       *Listener
	wg             sync.WaitGroup
	chDone         chan bool
	config         Config
	requestHandler IRequestHandler
	inShutdown     int32
	IOStats        stats.IOStats
}

func NewService(cfg Config, reqHandler IRequestHandler) (*Service, error) {
	cfg.SetDefaultIfNotDefined()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	svc := &Service{
		chDone:         make(chan bool),
		config:         cfg,
		requestHandler: reqHandler,
	}
	ln, err := NewListener(cfg, reqHandler, &svc.IOStats)
	if err != nil {
		return nil, err
	}
	svc.listener = ln
	return svc, nil
}

// Addr returns the bound listen address.
func (s *Service) Addr() net.Addr {
	return s.listener.Addr()
}

func (s *Service) serve() {
	s.wg.Add(1)
	go func() {
		defer func() {
			if s.shuttingDown() {
				s.listener.WaitForShutdownToComplete(s.config.ShutdownWaitTime.Duration)
			}
			s.wg.Done()
			glog.V(1).Info("listener stopped")
		}()

		for {
			err := s.listener.AcceptAndServe()
			if err != nil {
				if nerr, ok := err.(net.Error); ok && nerr.Timeout() {
					glog.V(1).Info("transient accept error: ", err)
					continue
				}
				if err == errors.ErrShutdownInProgress {
					glog.V(1).Info("listener shut down")
					return
				}
				if !s.shuttingDown() {
					glog.Warningf("accept error: %s", err.Error())
				}
				return
			}
		}
	}()
}

func (s *Service) Run() {
	s.initSignalHandler()
	s.requestHandler.Init()
	s.serve()

	<-s.chDone
	s.doShutdown()
	s.wg.Wait()
	s.requestHandler.Finish()
}

func (s *Service) shuttingDown() bool {
	return atomic.LoadInt32(&s.inShutdown) != 0
}

func (s *Service) Shutdown() {
	if atomic.CompareAndSwapInt32(&s.inShutdown, 0, 1) {
		close(s.chDone)
	}
}

func (s *Service) doShutdown() {
	s.listener.Shutdown()
}

func (s *Service) initSignalHandler() {
	signal.Ignore(syscall.SIGPIPE, syscall.SIGURG)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)

	go func(sigCh chan os.Signal) {
		sig := <-sigCh
		glog.Infof("signal %d (%s) received", sig, sig)
		s.Shutdown()
	}(sigs)
}

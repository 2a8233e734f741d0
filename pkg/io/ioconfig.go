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

package io

import (
	"time"

	"framebuf/pkg/util"
)

var DefaultConfig = Config{
	ReadTimeout:   util.Duration{Duration: 500 * time.Millisecond},
	WriteTimeout:  util.Duration{Duration: 500 * time.Millisecond},
	IdleTimeout:   util.Duration{Duration: 120 * time.Second},
	ReadChunkSize: 16 * 1024,
	MaxBufferSize: 1024 * 1024,
}

type Config struct {
	ReadTimeout  util.Duration
	WriteTimeout util.Duration
	IdleTimeout  util.Duration

	// ReadChunkSize is how much writable space a driver prepares per
	// transport read; MaxBufferSize caps the store.
	ReadChunkSize int
	MaxBufferSize int
}

func (conf *Config) SetDefaultIfNotDefined() (set bool) {
	if conf.ReadTimeout.Duration == 0 {
		set = true
		conf.ReadTimeout = DefaultConfig.ReadTimeout
	}
	if conf.WriteTimeout.Duration == 0 {
		set = true
		conf.WriteTimeout = DefaultConfig.WriteTimeout
	}
	if conf.IdleTimeout.Duration == 0 {
		set = true
		conf.IdleTimeout = DefaultConfig.IdleTimeout
	}
	if conf.ReadChunkSize == 0 {
		set = true
		conf.ReadChunkSize = DefaultConfig.ReadChunkSize
	}
	if conf.MaxBufferSize == 0 {
		set = true
		conf.MaxBufferSize = DefaultConfig.MaxBufferSize
	}
	return
}

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

// echoserv answers every request with its own body echoed back.
package main

import (
	"flag"
	"os"

	"github.com/golang/glog"

	"framebuf/pkg/cfg"
	"framebuf/pkg/proto"
	"framebuf/pkg/service"
	"framebuf/pkg/util"
)

type appConfig struct {
	Service service.Config
}

type echoHandler struct{}

func (h *echoHandler) Init()   {}
func (h *echoHandler) Finish() {}

func (h *echoHandler) Handle(req *service.Request) (proto.ResponseHead, []byte) {
	head := proto.ResponseHead{Version: 11, Status: 200, Reason: "OK"}
	if ct, ok := req.Header.Get("Content-Type"); ok {
		head.Fields.Add("Content-Type", ct)
	}
	return head, req.Body
}

func main() {
	var (
		cfgFile string
		addr    string
	)
	flag.StringVar(&cfgFile, "config", "", "configuration file")
	flag.StringVar(&addr, "addr", "", "listen address, overrides config")
	flag.Parse()

	appCfg := appConfig{Service: service.DefaultConfig}
	if cfgFile != "" {
		var c cfg.Config
		if err := c.ReadFromTomlFile(cfgFile); err != nil {
			glog.Exitf("cannot read config %s: %v", cfgFile, err)
		}
		if err := c.WriteTo(&appCfg); err != nil {
			glog.Exitf("bad config %s: %v", cfgFile, err)
		}
	}
	if addr != "" {
		appCfg.Service.Addr = addr
	}

	svc, err := service.NewService(appCfg.Service, &echoHandler{})
	if err != nil {
		glog.Exitf("cannot start service: %v", err)
	}
	glog.Infof("listening on %s", svc.Addr())
	svc.Run()

	w := util.NewBufioWriter(os.Stdout, 4*1024)
	svc.IOStats.PrettyPrint(w)
	w.Flush()
	util.PutBufioWriter(w)
}

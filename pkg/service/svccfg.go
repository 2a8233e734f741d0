package service

import (
	"fmt"
	"time"

	pkgio "framebuf/pkg/io"
	"framebuf/pkg/util"
)

const (
	kDefaultShutdownWaitTime = 10 * time.Second
	kDefaultMaxConnections   = 1024
)

var DefaultConfig = Config{
	Addr:             ":8080",
	MaxConnections:   kDefaultMaxConnections,
	ShutdownWaitTime: util.Duration{Duration: kDefaultShutdownWaitTime},
	IO:               pkgio.DefaultConfig,
}

type Config struct {
	Addr             string
	Network          string
	MaxConnections   int
	ShutdownWaitTime util.Duration
	IO               pkgio.Config
}

func (cfg *Config) SetDefaultIfNotDefined() {
	if len(cfg.Network) == 0 {
		cfg.Network = "tcp"
	}
	if cfg.MaxConnections == 0 {
		cfg.MaxConnections = kDefaultMaxConnections
	}
	if cfg.ShutdownWaitTime.Duration == 0 {
		cfg.ShutdownWaitTime.Duration = kDefaultShutdownWaitTime
	}
	cfg.IO.SetDefaultIfNotDefined()
}

func (cfg *Config) Validate() (err error) {
	if len(cfg.Addr) == 0 {
		err = fmt.Errorf("no listen address defined")
	}
	return
}

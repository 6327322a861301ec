package main

import "time"

type Config struct {
	Host            string        `env:"HOST,default=localhost"`
	Port            int           `env:"PORT,default=8080"`
	BadgerFilepath  string        `env:"BADGER_FILEPATH,required=true"`
	LogLevel        string        `env:"LOG_LEVEL,default=info"`
	ReapInterval    time.Duration `env:"REAP_INTERVAL,default=15s"`
	LivenessTimeout time.Duration `env:"LIVENESS_TIMEOUT,default=10s"`
	RestartInterval time.Duration `env:"RESTART_INTERVAL,default=200ms"`
}

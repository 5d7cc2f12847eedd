package core

import (
	"encoding/json"
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config is the engine configuration embedded in the binary at build time.
// It is parsed once at startup and never changes afterwards.
type Config struct {
	AllowNativesSyntax   bool `json:"allowNativesSyntax"`
	ExposeBinding        bool `json:"exposeBinding"`
	ExposePrivateSymbols bool `json:"exposePrivateSymbols"`
}

// ParseConfig decodes the embedded configuration string. Missing keys keep
// their restrictive zero values.
func ParseConfig(raw string) (Config, error) {
	var cfg Config
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return Config{}, fmt.Errorf("parsing embedded config: %w", err)
	}
	return cfg, nil
}

// JSON returns the configuration in the form handed to native modules.
func (c Config) JSON() string {
	data, _ := json.Marshal(c)
	return string(data)
}

// HostOptions holds process-level settings read from the environment.
type HostOptions struct {
	LogLevel      string `env:"ZERO_LOG_LEVEL"       envDefault:"warn"`
	MemoryLimitMB int    `env:"ZERO_MEMORY_LIMIT_MB" envDefault:"0"`
}

// LoadHostOptions reads HostOptions from the process environment.
func LoadHostOptions() (HostOptions, error) {
	var opts HostOptions
	if err := env.Parse(&opts); err != nil {
		return HostOptions{}, fmt.Errorf("parse env: %w", err)
	}
	return opts, nil
}

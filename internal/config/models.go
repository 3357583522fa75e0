package config

import (
	"time"

	"github.com/opengolfcoach/nova-bridge/internal/compute"
	"github.com/opengolfcoach/nova-bridge/internal/discovery"
)

// CurrentVersion is the only supported file version
const CurrentVersion = 1

// Config is the complete bridge configuration
type Config struct {
	Version   int       `yaml:"version"`
	Discovery Discovery `yaml:"discovery"`
	Output    Output    `yaml:"output,omitempty"`
	Compute   Compute   `yaml:"compute,omitempty"`
	Metrics   Metrics   `yaml:"metrics,omitempty"`
	LogLevel  string    `yaml:"log_level,omitempty"` // debug, info, warn, error; empty disables logging
}

// Discovery selects how the device is found and how often to retry
type Discovery struct {
	Method         string        `yaml:"method"`          // ssdp, mdns or manual
	Host           string        `yaml:"host,omitempty"`  // manual mode only
	Port           int           `yaml:"port,omitempty"`  // manual mode only
	Timeout        time.Duration `yaml:"timeout"`         // per strategy
	ReconnectDelay time.Duration `yaml:"reconnect_delay"` // pause between connection attempts
}

// Output configures the local subscriber listeners. Zero disables a listener.
type Output struct {
	Port          int `yaml:"port,omitempty"`
	WebSocketPort int `yaml:"websocket_port,omitempty"`
}

// Compute configures the computation step. An empty address passes
// canonical records through unchanged.
type Compute struct {
	Addr    string        `yaml:"addr,omitempty"`
	Timeout time.Duration `yaml:"timeout,omitempty"`
}

// Metrics configures the Prometheus endpoint. Zero disables it.
type Metrics struct {
	Port int `yaml:"port,omitempty"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Discovery: Discovery{
			Method:         string(discovery.MethodSSDP),
			Port:           discovery.DefaultDevicePort,
			Timeout:        discovery.DefaultDiscoveryTimeout,
			ReconnectDelay: discovery.DefaultReconnectDelay,
		},
		Compute: Compute{
			Timeout: compute.DefaultTimeout,
		},
	}
}

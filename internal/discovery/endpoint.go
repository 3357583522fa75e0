package discovery

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/opengolfcoach/nova-bridge/internal/bridgeerr"
)

const (
	// DefaultDevicePort is the Nova OpenAPI port used in manual mode
	DefaultDevicePort = 2921

	// DefaultDiscoveryTimeout bounds a single discovery strategy
	DefaultDiscoveryTimeout = 5 * time.Second

	// DefaultReconnectDelay is the pause between connection attempts
	DefaultReconnectDelay = 3 * time.Second
)

// Endpoint is a reachable device address
type Endpoint struct {
	Host string
	Port int
}

// String returns the dialable host:port form of the endpoint
func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// Validate checks that the endpoint has a host and a port in range
func (e Endpoint) Validate() error {
	if strings.TrimSpace(e.Host) == "" {
		return fmt.Errorf("endpoint host is empty")
	}
	if e.Port < 0 || e.Port > 65535 {
		return fmt.Errorf("endpoint port %d out of range 0-65535", e.Port)
	}
	return nil
}

// Method selects how an Endpoint is obtained
type Method string

const (
	MethodSSDP   Method = "ssdp"
	MethodMDNS   Method = "mdns"
	MethodManual Method = "manual"
)

// ParseMethod parses a discovery method name (case-insensitive)
func ParseMethod(s string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(s))) {
	case MethodSSDP:
		return MethodSSDP, nil
	case MethodMDNS:
		return MethodMDNS, nil
	case MethodManual:
		return MethodManual, nil
	default:
		return "", fmt.Errorf("unknown discovery method %q (valid: ssdp, mdns, manual)", s)
	}
}

// Config controls endpoint resolution and the reconnect cadence
type Config struct {
	Method           Method
	DiscoveryTimeout time.Duration
	ReconnectDelay   time.Duration
	ManualEndpoint   *Endpoint // required when Method is manual
}

// DefaultConfig returns SSDP discovery with the default timings
func DefaultConfig() Config {
	return Config{
		Method:           MethodSSDP,
		DiscoveryTimeout: DefaultDiscoveryTimeout,
		ReconnectDelay:   DefaultReconnectDelay,
	}
}

// Validate checks the configuration once, before any network activity.
// Violations are reported as configuration validation errors.
func (c Config) Validate() error {
	if _, err := ParseMethod(string(c.Method)); err != nil {
		return bridgeerr.NewConfigError("%v", err)
	}
	if c.Method == MethodManual {
		if c.ManualEndpoint == nil {
			return bridgeerr.NewConfigError("--nova-host is required when --discovery=manual")
		}
		if err := c.ManualEndpoint.Validate(); err != nil {
			return bridgeerr.NewConfigError("invalid manual endpoint: %v", err)
		}
	}
	if c.DiscoveryTimeout <= 0 {
		return bridgeerr.NewConfigError("discovery timeout must be positive, got %s", c.DiscoveryTimeout)
	}
	if c.ReconnectDelay < 0 {
		return bridgeerr.NewConfigError("reconnect delay cannot be negative, got %s", c.ReconnectDelay)
	}
	return nil
}

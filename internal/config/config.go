package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/opengolfcoach/nova-bridge/internal/bridgeerr"
	"github.com/opengolfcoach/nova-bridge/internal/discovery"
	"github.com/opengolfcoach/nova-bridge/internal/logging"
)

const (
	appName    = "nova-bridge"
	configFile = "config.yaml"
)

// GetConfigDir returns the OS-appropriate configuration directory for the application.
// This follows platform conventions:
//   - Linux: $XDG_CONFIG_HOME/nova-bridge or $HOME/.config/nova-bridge
//   - macOS: $HOME/.config/nova-bridge (following XDG convention on macOS)
//   - Windows: %LOCALAPPDATA%\nova-bridge
func GetConfigDir() (string, error) {
	switch runtime.GOOS {
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, appName), nil
		}
		userProfile := os.Getenv("USERPROFILE")
		if userProfile == "" {
			return "", fmt.Errorf("cannot determine user profile directory (LOCALAPPDATA and USERPROFILE not set)")
		}
		return filepath.Join(userProfile, "AppData", "Local", appName), nil

	case "darwin":
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil

	default:
		if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
			return filepath.Join(xdgConfigHome, appName), nil
		}
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("cannot determine home directory: %w", err)
		}
		return filepath.Join(homeDir, ".config", appName), nil
	}
}

// GetConfigPath returns the full path to the default configuration file
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, configFile), nil
}

// Load reads the configuration file at path. An empty path means the default
// location, where a missing file yields the defaults. An explicit path must exist.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := GetConfigPath()
		if err != nil {
			logging.Debug("No default config location, using defaults")
			return Default(), nil
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return Default(), nil
		}
		return nil, bridgeerr.NewConfigError("failed to read config file %s: %v", path, err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, bridgeerr.NewConfigError("failed to parse config file %s: %v", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Version == 0 {
		cfg.Version = CurrentVersion
	}
	if cfg.Version != CurrentVersion {
		return nil, fmt.Errorf("unsupported config version: %d (expected %d)", cfg.Version, CurrentVersion)
	}
	return cfg, nil
}

// Save writes the configuration to path (the default location when empty).
// The write goes through a temporary file and a rename.
func (c *Config) Save(path string) (string, error) {
	if path == "" {
		p, err := GetConfigPath()
		if err != nil {
			return "", fmt.Errorf("failed to get config path: %w", err)
		}
		path = p
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal()
	if err != nil {
		return "", err
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return "", fmt.Errorf("failed to write temporary config file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to save config file: %w", err)
	}
	return path, nil
}

// Marshal encodes the configuration as commented YAML
func (c *Config) Marshal() ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	header := []byte("# nova-bridge configuration\n# Command-line flags override these values.\n\n")
	return append(header, data...), nil
}

// DiscoveryConfig converts the discovery section into resolver settings
func (c *Config) DiscoveryConfig() (discovery.Config, error) {
	method, err := discovery.ParseMethod(c.Discovery.Method)
	if err != nil {
		return discovery.Config{}, bridgeerr.NewConfigError("%v", err)
	}

	dc := discovery.Config{
		Method:           method,
		DiscoveryTimeout: c.Discovery.Timeout,
		ReconnectDelay:   c.Discovery.ReconnectDelay,
	}
	if host := strings.TrimSpace(c.Discovery.Host); host != "" {
		dc.ManualEndpoint = &discovery.Endpoint{Host: host, Port: c.Discovery.Port}
	}
	return dc, nil
}

// Validate checks the whole configuration. It runs once at startup.
func (c *Config) Validate() error {
	dc, err := c.DiscoveryConfig()
	if err != nil {
		return err
	}
	if err := dc.Validate(); err != nil {
		return err
	}

	ports := []struct {
		name string
		port int
	}{
		{"output port", c.Output.Port},
		{"websocket port", c.Output.WebSocketPort},
		{"metrics port", c.Metrics.Port},
	}
	used := make(map[int]string)
	for _, p := range ports {
		if p.port < 0 || p.port > 65535 {
			return bridgeerr.NewConfigError("%s %d out of range 0-65535", p.name, p.port)
		}
		if p.port == 0 {
			continue
		}
		if other, ok := used[p.port]; ok {
			return bridgeerr.NewConfigError("%s and %s both use port %d", other, p.name, p.port)
		}
		used[p.port] = p.name
	}

	if c.Compute.Timeout < 0 {
		return bridgeerr.NewConfigError("compute timeout cannot be negative, got %s", c.Compute.Timeout)
	}

	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			return bridgeerr.NewConfigError("%v", err)
		}
	}
	return nil
}

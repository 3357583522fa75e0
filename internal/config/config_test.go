package config

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/opengolfcoach/nova-bridge/internal/bridgeerr"
	"github.com/opengolfcoach/nova-bridge/internal/discovery"
)

func TestGetConfigDir(t *testing.T) {
	configDir, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}

	if !strings.Contains(configDir, "nova-bridge") {
		t.Errorf("GetConfigDir() = %v, should contain 'nova-bridge'", configDir)
	}

	if runtime.GOOS == "linux" && os.Getenv("XDG_CONFIG_HOME") == "" {
		if !strings.Contains(configDir, ".config") {
			t.Errorf("Unix config dir should contain '.config', got: %v", configDir)
		}
	}
}

func TestGetConfigDir_XDG(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CONFIG_HOME only applies on Linux")
	}
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)

	got, err := GetConfigDir()
	if err != nil {
		t.Fatalf("GetConfigDir() error = %v", err)
	}
	if want := filepath.Join(dir, "nova-bridge"); got != want {
		t.Errorf("GetConfigDir() = %v, want %v", got, want)
	}
}

func TestGetConfigPath(t *testing.T) {
	configPath, err := GetConfigPath()
	if err != nil {
		t.Fatalf("GetConfigPath() error = %v", err)
	}
	if filepath.Base(configPath) != "config.yaml" {
		t.Errorf("GetConfigPath() should end with 'config.yaml', got: %v", configPath)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Discovery.Method != "ssdp" {
		t.Errorf("Discovery.Method = %v, want ssdp", cfg.Discovery.Method)
	}
	if cfg.Discovery.Port != 2921 {
		t.Errorf("Discovery.Port = %v, want 2921", cfg.Discovery.Port)
	}
	if cfg.Discovery.Timeout != 5*time.Second {
		t.Errorf("Discovery.Timeout = %v, want 5s", cfg.Discovery.Timeout)
	}
	if cfg.Discovery.ReconnectDelay != 3*time.Second {
		t.Errorf("Discovery.ReconnectDelay = %v, want 3s", cfg.Discovery.ReconnectDelay)
	}
	if cfg.Output.Port != 0 {
		t.Errorf("Output.Port = %v, want 0 (disabled)", cfg.Output.Port)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Default().Validate() error = %v", err)
	}
}

func TestParse(t *testing.T) {
	data := []byte(`
version: 1
discovery:
  method: manual
  host: 192.168.1.40
  timeout: 2s
  reconnect_delay: 500ms
output:
  port: 9210
  websocket_port: 9211
compute:
  addr: 127.0.0.1:10000
metrics:
  port: 9212
log_level: debug
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Discovery.Method != "manual" || cfg.Discovery.Host != "192.168.1.40" {
		t.Errorf("Discovery = %+v", cfg.Discovery)
	}
	if cfg.Discovery.Port != 2921 {
		t.Errorf("Discovery.Port = %v, want default 2921", cfg.Discovery.Port)
	}
	if cfg.Discovery.Timeout != 2*time.Second {
		t.Errorf("Discovery.Timeout = %v, want 2s", cfg.Discovery.Timeout)
	}
	if cfg.Discovery.ReconnectDelay != 500*time.Millisecond {
		t.Errorf("Discovery.ReconnectDelay = %v, want 500ms", cfg.Discovery.ReconnectDelay)
	}
	if cfg.Output.Port != 9210 || cfg.Output.WebSocketPort != 9211 || cfg.Metrics.Port != 9212 {
		t.Errorf("ports = %d/%d/%d", cfg.Output.Port, cfg.Output.WebSocketPort, cfg.Metrics.Port)
	}
	if cfg.Compute.Timeout != 5*time.Second {
		t.Errorf("Compute.Timeout = %v, want default 5s", cfg.Compute.Timeout)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"bad yaml", "discovery: [unterminated"},
		{"bad duration", "discovery:\n  timeout: soon\n"},
		{"future version", "version: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.data)); err == nil {
				t.Error("Parse() should fail")
			}
		})
	}
}

func TestLoad(t *testing.T) {
	t.Run("explicit path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bridge.yaml")
		if err := os.WriteFile(path, []byte("output:\n  port: 9300\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		cfg, err := Load(path)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Output.Port != 9300 {
			t.Errorf("Output.Port = %v, want 9300", cfg.Output.Port)
		}
	})

	t.Run("explicit path missing", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		if !bridgeerr.IsConfigValidation(err) {
			t.Errorf("Load() error = %v, want configuration error", err)
		}
	})

	t.Run("default location missing", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		t.Setenv("HOME", t.TempDir())
		t.Setenv("LOCALAPPDATA", t.TempDir())
		cfg, err := Load("")
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if cfg.Discovery.Method != "ssdp" {
			t.Errorf("Load() did not return defaults: %+v", cfg)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "bridge.yaml")
		if err := os.WriteFile(path, []byte("version: [\n"), 0o600); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); !bridgeerr.IsConfigValidation(err) {
			t.Errorf("Load() error = %v, want configuration error", err)
		}
	})
}

func TestSaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := Default()
	cfg.Discovery.Method = "mdns"
	cfg.Output.Port = 9400
	cfg.Discovery.ReconnectDelay = 10 * time.Second

	written, err := cfg.Save(path)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}
	if written != path {
		t.Errorf("Save() path = %v, want %v", written, path)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Discovery.Method != "mdns" || loaded.Output.Port != 9400 || loaded.Discovery.ReconnectDelay != 10*time.Second {
		t.Errorf("round trip mismatch: %+v", loaded)
	}

	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary file should be gone after Save()")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"manual with host", func(c *Config) { c.Discovery.Method = "manual"; c.Discovery.Host = "10.0.0.1" }, false},
		{"manual without host", func(c *Config) { c.Discovery.Method = "manual" }, true},
		{"unknown method", func(c *Config) { c.Discovery.Method = "bluetooth" }, true},
		{"zero discovery timeout", func(c *Config) { c.Discovery.Timeout = 0 }, true},
		{"negative reconnect delay", func(c *Config) { c.Discovery.ReconnectDelay = -time.Second }, true},
		{"zero reconnect delay", func(c *Config) { c.Discovery.ReconnectDelay = 0 }, false},
		{"output port out of range", func(c *Config) { c.Output.Port = 70000 }, true},
		{"duplicate ports", func(c *Config) { c.Output.Port = 9000; c.Metrics.Port = 9000 }, true},
		{"manual port out of range", func(c *Config) {
			c.Discovery.Method = "manual"
			c.Discovery.Host = "10.0.0.1"
			c.Discovery.Port = 65536
		}, true},
		{"negative compute timeout", func(c *Config) { c.Compute.Timeout = -1 }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr && !bridgeerr.IsConfigValidation(err) {
				t.Errorf("Validate() error = %v, want configuration error", err)
			}
		})
	}
}

func TestDiscoveryConfig(t *testing.T) {
	cfg := Default()
	cfg.Discovery.Method = "MANUAL"
	cfg.Discovery.Host = " 10.0.0.9 "
	cfg.Discovery.Port = 3000

	dc, err := cfg.DiscoveryConfig()
	if err != nil {
		t.Fatalf("DiscoveryConfig() error = %v", err)
	}
	if dc.Method != discovery.MethodManual {
		t.Errorf("Method = %v, want manual", dc.Method)
	}
	if dc.ManualEndpoint == nil || *dc.ManualEndpoint != (discovery.Endpoint{Host: "10.0.0.9", Port: 3000}) {
		t.Errorf("ManualEndpoint = %v", dc.ManualEndpoint)
	}
}

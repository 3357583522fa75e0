package main

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/opengolfcoach/nova-bridge/internal/config"
	"github.com/opengolfcoach/nova-bridge/internal/discovery"
)

// options holds the command-line flags. Only flags the user actually set
// override the configuration file.
type options struct {
	configPath           string
	discovery            string
	novaHost             string
	novaPort             int
	discoveryTimeoutSecs int
	reconnectDelaySecs   int
	outputPort           int
	wsPort               int
	metricsPort          int
	computeAddr          string
	logLevel             string
}

func (o *options) register(cmd *cobra.Command) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&o.configPath, "config", "", "Path to configuration file (default: user config dir)")
	flags.StringVar(&o.discovery, "discovery", string(discovery.MethodSSDP), "Discovery method (ssdp, mdns, manual)")
	flags.StringVar(&o.novaHost, "nova-host", "", "Nova address for manual discovery")
	flags.IntVar(&o.novaPort, "nova-port", discovery.DefaultDevicePort, "Nova OpenAPI port for manual discovery")
	flags.IntVar(&o.discoveryTimeoutSecs, "discovery-timeout-secs", int(discovery.DefaultDiscoveryTimeout/time.Second), "Timeout for each discovery method")
	flags.IntVar(&o.reconnectDelaySecs, "reconnect-delay-secs", int(discovery.DefaultReconnectDelay/time.Second), "Delay before reconnecting after a failure")
	flags.StringVar(&o.logLevel, "log-level", "", "Log level (debug, info, warn, error); empty disables logging")

	local := cmd.Flags()
	local.IntVar(&o.outputPort, "output-port", 0, "TCP port for shot subscribers (0 disables)")
	local.IntVar(&o.wsPort, "ws-port", 0, "WebSocket port for shot subscribers (0 disables)")
	local.IntVar(&o.metricsPort, "metrics-port", 0, "Prometheus metrics port (0 disables)")
	local.StringVar(&o.computeAddr, "compute-addr", "", "Address of the shot computation service (empty passes shots through)")
}

// load reads the configuration file and applies the flags the user set
func (o *options) load(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	o.apply(cmd, cfg)
	return cfg, nil
}

func (o *options) apply(cmd *cobra.Command, cfg *config.Config) {
	changed := cmd.Flags().Changed

	if changed("discovery") {
		cfg.Discovery.Method = o.discovery
	}
	if changed("nova-host") {
		cfg.Discovery.Host = o.novaHost
	}
	if changed("nova-port") {
		cfg.Discovery.Port = o.novaPort
	}
	if changed("discovery-timeout-secs") {
		cfg.Discovery.Timeout = time.Duration(o.discoveryTimeoutSecs) * time.Second
	}
	if changed("reconnect-delay-secs") {
		cfg.Discovery.ReconnectDelay = time.Duration(o.reconnectDelaySecs) * time.Second
	}
	if changed("log-level") {
		cfg.LogLevel = o.logLevel
	}

	// Local to the root command; never set on subcommands
	if changed("output-port") {
		cfg.Output.Port = o.outputPort
	}
	if changed("ws-port") {
		cfg.Output.WebSocketPort = o.wsPort
	}
	if changed("metrics-port") {
		cfg.Metrics.Port = o.metricsPort
	}
	if changed("compute-addr") {
		cfg.Compute.Addr = o.computeAddr
	}
}

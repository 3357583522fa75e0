package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opengolfcoach/nova-bridge/internal/bridge"
	"github.com/opengolfcoach/nova-bridge/internal/broadcast"
	"github.com/opengolfcoach/nova-bridge/internal/compute"
	"github.com/opengolfcoach/nova-bridge/internal/config"
	"github.com/opengolfcoach/nova-bridge/internal/console"
	"github.com/opengolfcoach/nova-bridge/internal/discovery"
	"github.com/opengolfcoach/nova-bridge/internal/logging"
	"github.com/opengolfcoach/nova-bridge/internal/metrics"
	"github.com/opengolfcoach/nova-bridge/internal/version"
)

// server is a listener started before the supervisor and stopped with the context
type server interface {
	Listen() error
	Serve(ctx context.Context) error
}

func runBridge(cmd *cobra.Command, _ []string) error {
	cfg, err := opts.load(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	discoveryCfg, err := cfg.DiscoveryConfig()
	if err != nil {
		return err
	}

	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reporter := console.New()
	reporter.Banner("Nova Bridge", bannerFields(cfg))

	registry := metrics.NewRegistry()
	hub := broadcast.NewHub(registry.Metrics)
	defer hub.Close()

	var servers []server
	if cfg.Output.Port > 0 {
		servers = append(servers, broadcast.NewListener(listenAddr(cfg.Output.Port), hub))
	}
	if cfg.Output.WebSocketPort > 0 {
		servers = append(servers, broadcast.NewWebSocketServer(listenAddr(cfg.Output.WebSocketPort), hub))
	}
	if cfg.Metrics.Port > 0 {
		servers = append(servers, metrics.NewServer(listenAddr(cfg.Metrics.Port), registry))
	}
	if cfg.Output.Port == 0 && cfg.Output.WebSocketPort == 0 {
		reporter.Status("No subscriber port configured; results are only shown here")
	}

	// A port that cannot be bound is fatal before the loop starts
	for _, s := range servers {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	var wg sync.WaitGroup
	for _, s := range servers {
		wg.Add(1)
		go func(s server) {
			defer wg.Done()
			if err := s.Serve(ctx); err != nil {
				logging.Error("Listener stopped", zap.Error(err))
			}
		}(s)
	}

	resolver := discovery.NewResolver()
	resolver.Observer = reporter

	supervisor := bridge.New(bridge.Config{
		Discovery:      discoveryCfg,
		ConnectTimeout: bridge.DefaultConnectTimeout,
		ReadTimeout:    bridge.DefaultReadTimeout,
	}, bridge.Deps{
		Resolver:   resolver,
		Calculator: newCalculator(cfg),
		Publisher:  hub,
		Reporter:   reporter,
		Metrics:    registry.Metrics,
	})

	logging.Info("Bridge starting",
		zap.String("version", version.Version),
		zap.String("discovery", string(discoveryCfg.Method)),
	)
	err = supervisor.Run(ctx)

	stop()
	wg.Wait()
	reporter.Status("Bridge stopped")
	logging.Info("Bridge stopped")
	return err
}

// newCalculator returns the remote computation service, or a pass-through
// when no address is configured
func newCalculator(cfg *config.Config) compute.Calculator {
	if cfg.Compute.Addr == "" {
		logging.Warn("No computation service configured, publishing canonical records unchanged")
		return compute.Identity{}
	}
	return compute.NewRemote(cfg.Compute.Addr, cfg.Compute.Timeout)
}

func listenAddr(port int) string {
	return net.JoinHostPort("", strconv.Itoa(port))
}

func bannerFields(cfg *config.Config) [][2]string {
	fields := [][2]string{
		{"Version", version.Version},
		{"Discovery", cfg.Discovery.Method},
	}
	if cfg.Discovery.Method == string(discovery.MethodManual) {
		fields = append(fields, [2]string{"Nova", net.JoinHostPort(cfg.Discovery.Host, strconv.Itoa(cfg.Discovery.Port))})
	}
	fields = append(fields,
		[2]string{"Output port", portLabel(cfg.Output.Port)},
		[2]string{"WebSocket port", portLabel(cfg.Output.WebSocketPort)},
		[2]string{"Metrics port", portLabel(cfg.Metrics.Port)},
	)
	if cfg.Compute.Addr != "" {
		fields = append(fields, [2]string{"Compute", cfg.Compute.Addr})
	} else {
		fields = append(fields, [2]string{"Compute", "pass-through"})
	}
	return fields
}

func portLabel(port int) string {
	if port == 0 {
		return "disabled"
	}
	return strconv.Itoa(port)
}

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/opengolfcoach/nova-bridge/internal/config"
	"github.com/opengolfcoach/nova-bridge/internal/console"
	"github.com/opengolfcoach/nova-bridge/internal/discovery"
	"github.com/opengolfcoach/nova-bridge/internal/logging"
	"github.com/opengolfcoach/nova-bridge/internal/version"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Find the Nova on the local network and print its address",
	Long: `Run device discovery once and print the endpoint that was found.

Uses the same discovery method and timeout as the bridge itself, so it is a
quick way to check that the Nova is visible from this machine.`,
	Example: `  # SSDP with mDNS fallback
  nova-bridge discover

  # mDNS only, longer timeout
  nova-bridge discover --discovery mdns --discovery-timeout-secs 10`,
	Args: cobra.NoArgs,
	RunE: runDiscover,
}

func runDiscover(cmd *cobra.Command, _ []string) error {
	cfg, err := opts.load(cmd)
	if err != nil {
		return err
	}
	discoveryCfg, err := cfg.DiscoveryConfig()
	if err != nil {
		return err
	}
	if err := discoveryCfg.Validate(); err != nil {
		return err
	}

	if err := logging.Initialize(cfg.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logging: %w", err)
	}
	defer logging.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reporter := console.New()
	resolver := discovery.NewResolver()
	resolver.Observer = reporter

	endpoint, err := resolver.Resolve(ctx, discoveryCfg)
	if err != nil {
		reporter.ConnectionError(err)
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), endpoint.String())
	return nil
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a configuration file with the current settings",
	Long: `Write a configuration file containing the built-in defaults merged with
any flags given on the command line. The file goes to --config, or to the
user configuration directory when --config is not set.`,
	Example: `  # Save manual discovery settings for later runs
  nova-bridge config init --discovery manual --nova-host 192.168.1.40`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := opts.load(cmd)
		if err != nil {
			return err
		}
		data, err := cfg.Marshal()
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

func init() {
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	cfg := config.Default()
	opts.apply(cmd, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	path, err := cfg.Save(opts.configPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "nova-bridge %s\n", version.Full())
		for _, f := range version.Fields()[2:] {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", f[0], f[1])
		}
	},
}

// Nova-bridge connects an OpenLaunch Nova launch monitor to local shot consumers.
//
// It locates the device on the LAN (SSDP with mDNS fallback, or a fixed
// address), reads its newline-delimited JSON shot stream, maps each shot into
// the canonical schema, runs the computation step and broadcasts one JSON line
// per result to every connected subscriber. Connection failures are reported
// and retried after a fixed delay until the process is interrupted.
//
// Usage:
//
//	nova-bridge [flags]
//	nova-bridge discover [flags]
//
// See 'nova-bridge --help' for available options.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opengolfcoach/nova-bridge/internal/bridgeerr"
	"github.com/opengolfcoach/nova-bridge/internal/version"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if bridgeerr.IsConfigValidation(err) {
			fmt.Fprintln(os.Stderr, bridgeerr.Hint(err))
		}
		os.Exit(1)
	}
}

var opts options

var rootCmd = &cobra.Command{
	Use:   "nova-bridge",
	Short: "Nova launch monitor bridge",
	Long: `Bridge an OpenLaunch Nova launch monitor to local shot consumers.

The bridge discovers the Nova on the local network (SSDP first, then mDNS),
connects to its OpenAPI stream and converts every shot into the canonical
OpenGolfCoach schema. Results are broadcast as one JSON line per shot to TCP
subscribers on --output-port and, optionally, WebSocket subscribers on --ws-port.

When the device goes away the bridge waits --reconnect-delay-secs and starts
again from discovery. It runs until interrupted.`,
	Example: `  # Discover the Nova automatically and serve subscribers on port 9211
  nova-bridge --output-port 9211

  # Skip discovery
  nova-bridge --discovery manual --nova-host 192.168.1.40 --output-port 9211

  # Forward shots to a local computation service and expose metrics
  nova-bridge --output-port 9211 --compute-addr 127.0.0.1:10000 --metrics-port 9090`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBridge,
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	opts.register(rootCmd)

	rootCmd.AddCommand(discoverCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

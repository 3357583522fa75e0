// Package config loads the nova-bridge configuration file.
//
// The file is optional YAML. Command-line flags override any value it sets,
// and anything it leaves out keeps its default.
//
// # Configuration File Location
//
// Unless --config names a file explicitly, it is read from:
//   - Linux: $XDG_CONFIG_HOME/nova-bridge/config.yaml or $HOME/.config/nova-bridge/config.yaml
//   - macOS: $HOME/.config/nova-bridge/config.yaml
//   - Windows: %LOCALAPPDATA%\nova-bridge\config.yaml
//
// A missing file at the default location is not an error.
//
// # Example
//
//	version: 1
//	discovery:
//	  method: manual
//	  host: 192.168.1.40
//	  port: 2921
//	  timeout: 5s
//	  reconnect_delay: 3s
//	output:
//	  port: 9210
//	  websocket_port: 9211
//	compute:
//	  addr: 127.0.0.1:10000
//	  timeout: 5s
//	metrics:
//	  port: 9212
//	log_level: info
//
// Validation errors are bridgeerr configuration errors and abort startup.
package config

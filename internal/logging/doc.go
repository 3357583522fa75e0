// Package logging provides structured logging for the Nova bridge.
//
// This package wraps a global zap logger with convenience functions for the
// events the bridge cares about: discovery attempts, device connections,
// state transitions and raw device lines.
//
// Logging is silent unless a level is given explicitly (--log-level) or via
// the NOVA_BRIDGE_LOG_LEVEL environment variable. User-facing diagnostics are
// printed by the console package regardless; zap output is the detailed
// operator trail and goes to stderr.
//
// # Log Levels
//
//   - Debug: Raw device lines (hex/ascii), state transitions, SSDP packets
//   - Info: Discovery results, connections, published shots
//   - Warn: Dropped connections, skipped records, pruned subscribers
//   - Error: Listener failures and other unexpected conditions
//
// # Usage
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
//	logging.Info("Device connected",
//	    zap.String("endpoint", "192.168.1.40:2921"),
//	    zap.String("session_id", sessionID),
//	)
//
// # Thread Safety
//
// All logging functions are safe for concurrent use once Initialize has run.
package logging

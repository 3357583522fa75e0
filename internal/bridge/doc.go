// Package bridge runs the connection supervisor that links a Nova launch
// monitor to local subscribers.
//
// The supervisor is a single goroutine driving an explicit state machine:
//
//	Idle -> Resolving -> Connecting -> Streaming -> (Failed | DeviceDisconnected) -> Backoff -> Resolving ...
//
// Resolution or connect failures go straight to Failed and then Backoff. There
// is no terminal state: the loop only ends when its context is cancelled.
//
// While Streaming, each newline-delimited device line is handled in arrival
// order:
//
//  1. blank lines are skipped
//  2. the line is parsed as JSON (malformed record on failure)
//  3. the record is mapped to the canonical schema (unmappable record on failure)
//  4. the canonical record is passed to the computation step (computation error on failure)
//  5. the enriched result is published and reported
//
// Shot-level failures are reported with the raw line and the stream carries
// on. End of stream, a read timeout or any read error ends the session. The
// only pause in the loop is the reconnect delay in Backoff.
package bridge

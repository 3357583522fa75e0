// Package broadcast fans enriched shot results out to local subscribers.
//
// A Hub owns the ordered subscriber set behind a single mutex. Transports
// accept consumers and hand them to the hub:
//
//   - Listener: plain TCP, one newline-terminated JSON result per line
//   - WebSocketServer: one text frame per result, served at /shots
//
// Delivery is best-effort and at-most-once. There is no queueing and no replay
// for late joiners. A subscriber whose write fails is dropped; after each
// Publish pass every failed subscriber is removed at once and the survivors
// keep their relative order. Writes are bounded by a write timeout so one
// stalled consumer cannot hold up the bridge.
package broadcast

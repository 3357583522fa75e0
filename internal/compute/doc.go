// Package compute hands canonical shot records to the OpenGolfCoach
// computation step and returns the enriched result.
//
// The computation is a black box: one canonical JSON record in, one enriched
// JSON record out, or a computation error. Results are always compacted onto a
// single line so they can be re-published over line-delimited transports.
//
// Implementations:
//
//   - Remote: the OpenGolfCoach loop-back service, one request line and one
//     reply line per TCP connection; a reply carrying an "error" field is a
//     computation error
//   - Identity: returns the canonical record itself, for running the bridge
//     without a computation service
//   - Func: adapts a plain function
//
// There is no retry. A failed computation drops the shot.
package compute

// Package metrics exposes bridge health as Prometheus metrics.
//
// A Registry owns a private prometheus.Registry carrying the Go runtime and
// process collectors plus the bridge metrics below. All recording helpers on
// *Metrics are safe to call on a nil receiver, so components can be built
// without metrics in tests.
//
//	nova_bridge_shots_received_total
//	nova_bridge_shots_processed_total{rule}
//	nova_bridge_shot_errors_total{kind}
//	nova_bridge_compute_duration_seconds
//	nova_bridge_connection_attempts_total
//	nova_bridge_connection_failures_total{kind}
//	nova_bridge_resolution_failures_total{method}
//	nova_bridge_supervisor_state{state}
//	nova_bridge_subscribers{transport}
//	nova_bridge_results_published_total
//	nova_bridge_publish_failures_total{transport}
//
// Server serves the registry at /metrics with a /health probe alongside.
package metrics

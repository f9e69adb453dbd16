// Package metrics provides Prometheus metrics collection for the proxy
// pool.
//
// The Collector registers metrics for the three components that produce
// telemetry:
//
//   - Dispatch: dispatch count by final status, end-to-end duration,
//     attempts per dispatch, per-attempt outcomes, and rotations
//   - Health: probe counts by result and probe latency
//   - Pool: registered proxy count and live set size gauges
//
// All recording methods are nil-safe, so components hold an optional
// *Collector and call it unconditionally:
//
//	var collector *metrics.Collector // nil when metrics are disabled
//	collector.RecordProbe(true, 120*time.Millisecond)
//
// Metrics are exposed via Collector.Handler in the standard Prometheus
// exposition format.
package metrics

// Package telemetry provides observability for Ganymede.
//
// # Components
//
//   - logging: structured logging via log/slog, configured from the
//     telemetry section of the configuration
//   - metrics: Prometheus metrics for dispatch outcomes, health probes,
//     and pool size
//
// Components receive their loggers from slog.Default, so installing the
// configured logger with logging.Setup before constructing the manager is
// enough to route every component's output.
package telemetry

// Package observe bridges sluice's Observer and Sink hooks to
// OpenTelemetry metrics. [Metrics] implements both interfaces; one
// instance can be shared by every drainer in the process.
//
// For per-item tracing and metrics, see the middleware package:
// middleware.Tracing and middleware.Metrics.
package observe

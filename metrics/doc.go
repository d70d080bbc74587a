// Package metrics provides limitq.MetricsPolicy implementations backed by
// Prometheus collectors and OpenTelemetry instruments.
package metrics

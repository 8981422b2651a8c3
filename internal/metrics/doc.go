// Package metrics exposes Prometheus instrumentation for detection passes,
// background analysis jobs, segment export and the HTTP API.
package metrics

// Package server implements the HTTP API: WAV uploads analysed synchronously
// or as background jobs, job lookup, and the monitoring endpoints.
package server

// Package config loads and validates the YAML configuration of the detector,
// its HTTP API, background analysis and segment export.
package config

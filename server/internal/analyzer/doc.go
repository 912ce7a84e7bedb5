// Package analyzer wires the composition validator, the quality calculator,
// and the regulatory profile registry into a single Analyze call used by
// both the ingest path and the ad-hoc analyze endpoint.
package analyzer

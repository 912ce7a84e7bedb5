package api

import "github.com/gaswatch/gaswatch/pkg/analysis"

// HealthResponse is the payload for GET /api/v1/health.
type HealthResponse struct {
	State             string `json:"state"`
	SourceCount       int    `json:"source_count"`
	CompliantCount    int    `json:"compliant_count"`
	NoncompliantCount int    `json:"noncompliant_count"`
	InvalidCount      int    `json:"invalid_count"`
	AlertCount        int    `json:"alert_count"`
}

// SampleResponse is one source's analysis in GET /api/v1/samples or
// GET /api/v1/samples/{id}.
type SampleResponse struct {
	analysis.Analysis
	LastSeen string `json:"last_seen"` // RFC3339
}

// AnalyzeRequest is the body of POST /api/v1/analyze.
type AnalyzeRequest struct {
	// Composition maps component identifiers to mole fractions.
	Composition map[string]float64 `json:"composition"`

	// Profile names the regulatory profile to check against; the server
	// default is used when empty.
	Profile string `json:"profile,omitempty"`
}

// SnapshotResponse is the payload for GET /api/v1/snapshot.
type SnapshotResponse struct {
	Samples     []SampleResponse `json:"samples"`
	GeneratedAt string           `json:"generated_at"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

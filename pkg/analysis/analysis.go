// Package analysis defines the shared types exchanged between the gaswatch
// agent and server: the raw Sample shipped by the agent and the derived
// Analysis the server stores and serves. These are the canonical wire and
// in-memory representations, JSON-tagged for the HTTP transport.
package analysis

import (
	"time"

	"github.com/gaswatch/gaswatch/pkg/regulatory"
)

// Analysis statuses.
const (
	StatusCompliant    = "compliant"
	StatusNoncompliant = "noncompliant"

	// StatusInvalid marks a sample whose composition failed validation or
	// index computation; Error holds the reason and no indices are present.
	StatusInvalid = "invalid"
)

// Sample is one raw composition reading from a chromatograph or other
// source, as shipped by the agent to the server ingest endpoint.
type Sample struct {
	// SourceID identifies the sampling point (e.g. a metering station).
	SourceID string `json:"source_id"`

	// SourceType is the scraper type that produced the sample.
	SourceType string `json:"source_type,omitempty"`

	// SampledAt is when the composition was read.
	SampledAt time.Time `json:"sampled_at"`

	// Composition maps component identifiers to mole fractions.
	Composition map[string]float64 `json:"composition"`

	// Extra holds auxiliary readings reported by the source
	// (e.g. line pressure, temperature).
	Extra map[string]float64 `json:"extra,omitempty"`
}

// Analysis is the fully-derived quality picture for one sample: the
// normalized composition, the computed indices, and the compliance checks
// against the selected regulatory profile.
type Analysis struct {
	SourceID   string    `json:"source_id"`
	SourceType string    `json:"source_type,omitempty"`
	SampledAt  time.Time `json:"sampled_at"`

	// Status is one of: compliant | noncompliant | invalid.
	Status string `json:"status"`

	// Error holds the validation or computation failure when Status is
	// invalid.
	Error string `json:"error,omitempty"`

	// Composition is the normalized composition (fractions sum to 1).
	Composition map[string]float64 `json:"composition,omitempty"`

	// Derived indices. Energy densities in kWh/m3, the unit the regulatory
	// limits are written in.
	MolarMass       float64 `json:"molar_mass"`
	RelativeDensity float64 `json:"relative_density"`
	HHVKWh          float64 `json:"hhv_kwh_m3"`
	LHVKWh          float64 `json:"lhv_kwh_m3"`
	WobbeUpperKWh   float64 `json:"wobbe_upper_kwh_m3"`
	WobbeLowerKWh   float64 `json:"wobbe_lower_kwh_m3"`

	// Profile is the regulatory profile the sample was checked against.
	Profile string `json:"profile,omitempty"`

	// Checks is the per-metric compliance outcome.
	Checks []regulatory.Check `json:"checks,omitempty"`

	Extra map[string]float64 `json:"extra,omitempty"`
}

// MolPct returns the mole percentage of component in the normalized
// composition, or 0 if absent.
func (a *Analysis) MolPct(component string) float64 {
	return a.Composition[component] * 100
}

package analyzer

import (
	"fmt"
	"log/slog"

	"github.com/gaswatch/gaswatch/pkg/analysis"
	"github.com/gaswatch/gaswatch/pkg/gas"
	"github.com/gaswatch/gaswatch/pkg/quality"
	"github.com/gaswatch/gaswatch/pkg/regulatory"
)

// Analyzer turns raw samples into analyses: validate the composition,
// derive the quality indices, and evaluate them against a regulatory
// profile. All inputs (constants table, profiles) are fixed at
// construction, so Analyzer is safe for concurrent use.
type Analyzer struct {
	validator      *gas.Validator
	calculator     *quality.Calculator
	profiles       map[string]regulatory.Profile
	defaultProfile string
}

// New creates an Analyzer over the given constants table. extra profiles
// are merged over the builtins; a profile with a builtin name replaces it.
func New(table *gas.PropertyTable, tolerance float64, defaultProfile string, extra []regulatory.Profile) *Analyzer {
	profiles := regulatory.Builtin()
	for _, p := range extra {
		profiles[p.Name] = p
	}
	return &Analyzer{
		validator:      gas.NewValidator(table, tolerance),
		calculator:     quality.NewCalculator(table),
		profiles:       profiles,
		defaultProfile: defaultProfile,
	}
}

// Profiles returns the registered profiles keyed by name.
func (a *Analyzer) Profiles() map[string]regulatory.Profile { return a.profiles }

// Profile returns the named profile, or the default profile for an empty name.
func (a *Analyzer) Profile(name string) (regulatory.Profile, error) {
	if name == "" {
		name = a.defaultProfile
	}
	p, ok := a.profiles[name]
	if !ok {
		return regulatory.Profile{}, fmt.Errorf("analyzer: unknown profile %q", name)
	}
	return p, nil
}

// Analyze derives the full quality picture for one sample against the named
// profile ("" selects the default).
//
// Composition validation failures and index computation failures do not
// return an error: they produce an Analysis with status "invalid" and the
// reason recorded, so a misbehaving chromatograph stays visible in the
// store and can fire alerts. Only an unresolvable profile name — a caller
// mistake, not a data problem — is returned as an error.
func (a *Analyzer) Analyze(s *analysis.Sample, profileName string) (*analysis.Analysis, error) {
	profile, err := a.Profile(profileName)
	if err != nil {
		return nil, err
	}

	out := &analysis.Analysis{
		SourceID:   s.SourceID,
		SourceType: s.SourceType,
		SampledAt:  s.SampledAt,
		Profile:    profile.Name,
		Extra:      s.Extra,
	}

	comp, err := a.validator.Validate(s.Composition)
	if err != nil {
		slog.Warn("analyzer: invalid composition", "source", s.SourceID, "err", err)
		out.Status = analysis.StatusInvalid
		out.Error = err.Error()
		return out, nil
	}
	out.Composition = comp

	res, err := a.calculator.Indices(comp)
	if err != nil {
		slog.Warn("analyzer: index computation failed", "source", s.SourceID, "err", err)
		out.Status = analysis.StatusInvalid
		out.Error = err.Error()
		return out, nil
	}
	out.MolarMass = res.MolarMass
	out.RelativeDensity = res.RelativeDensity
	out.HHVKWh = res.HHVKWh()
	out.LHVKWh = res.LHVKWh()
	out.WobbeUpperKWh = res.WobbeUpperKWh()
	out.WobbeLowerKWh = res.WobbeLowerKWh()

	report, err := regulatory.Evaluate(res, comp, profile)
	if err != nil {
		// A broken profile (unknown metric, methane number) is a
		// configuration problem, not a data problem.
		return nil, fmt.Errorf("analyzer: evaluate profile %q: %w", profile.Name, err)
	}
	out.Checks = report.Checks

	if report.Pass() {
		out.Status = analysis.StatusCompliant
	} else {
		out.Status = analysis.StatusNoncompliant
	}
	return out, nil
}

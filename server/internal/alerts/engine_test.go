package alerts

import (
	"testing"
	"time"

	"github.com/gaswatch/gaswatch/pkg/analysis"
	"github.com/gaswatch/gaswatch/server/internal/config"
)

func leanGas() *analysis.Analysis {
	return &analysis.Analysis{
		SourceID:        "station-a",
		Status:          analysis.StatusNoncompliant,
		Composition:     map[string]float64{"CH4": 0.80, "CO2": 0.02, "N2": 0.18},
		HHVKWh:          8.85,
		LHVKWh:          7.96,
		WobbeUpperKWh:   11.4,
		RelativeDensity: 0.61,
	}
}

func richGas() *analysis.Analysis {
	return &analysis.Analysis{
		SourceID:        "station-a",
		Status:          analysis.StatusCompliant,
		Composition:     map[string]float64{"CH4": 0.95, "CO2": 0.02, "N2": 0.03},
		HHVKWh:          10.51,
		LHVKWh:          9.45,
		WobbeUpperKWh:   13.74,
		RelativeDensity: 0.59,
	}
}

func TestEvalCondition(t *testing.T) {
	cases := []struct {
		cond      string
		a         *analysis.Analysis
		wantFires bool
		wantValue float64
	}{
		{"hhv_kwh_m3 < 10.28", leanGas(), true, 8.85},
		{"hhv_kwh_m3 < 10.28", richGas(), false, 10.51},
		{"ch4_mol_pct < 85", leanGas(), true, 80},
		{"n2_mol_pct > 7", leanGas(), true, 18},
		{"co2_mol_pct > 2.5", leanGas(), false, 2},
		{"relative_density > 0.70", leanGas(), false, 0.61},
		{"status == noncompliant", leanGas(), true, 0},
		{"status == noncompliant", richGas(), false, 0},
		{"wobbe_upper_kwh_m3 >= 11.4", leanGas(), true, 11.4},
	}
	for _, tc := range cases {
		fires, value := evalCondition(tc.cond, tc.a)
		if fires != tc.wantFires || value != tc.wantValue {
			t.Errorf("evalCondition(%q): got (%v, %g), want (%v, %g)",
				tc.cond, fires, value, tc.wantFires, tc.wantValue)
		}
	}
}

func TestEvalCondition_Malformed(t *testing.T) {
	for _, cond := range []string{
		"",
		"hhv_kwh_m3",
		"hhv_kwh_m3 <",
		"hhv_kwh_m3 < ten",
		"unknown_metric > 1",
		"status > noncompliant",
	} {
		if fires, _ := evalCondition(cond, leanGas()); fires {
			t.Errorf("evalCondition(%q): fired on malformed condition", cond)
		}
	}
}

func TestEvalCondition_InvalidAnalysisNumericNoFire(t *testing.T) {
	inv := &analysis.Analysis{
		SourceID: "station-a",
		Status:   analysis.StatusInvalid,
		Error:    "composition sum 0.5 outside tolerance",
	}
	if fires, _ := evalCondition("hhv_kwh_m3 < 10.28", inv); fires {
		t.Error("numeric condition fired on invalid analysis")
	}
	if fires, _ := evalCondition("status == invalid", inv); !fires {
		t.Error("status == invalid did not fire on invalid analysis")
	}
}

func newTestEngine(rules ...config.AlertRule) *Engine {
	return New(config.AlertsConfig{Rules: rules})
}

func TestEngine_FireAndResolve(t *testing.T) {
	e := newTestEngine(config.AlertRule{
		Name:      "low-hhv",
		Condition: "hhv_kwh_m3 < 10.28",
		Severity:  "critical",
		Cooldown:  time.Minute,
	})
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }

	e.Evaluate(leanGas())
	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("Active() after fire: got %d alerts, want 1", len(active))
	}
	a := active[0]
	if a.State != "firing" || a.RuleName != "low-hhv" || a.Severity != "critical" {
		t.Errorf("alert: %+v", a)
	}
	if a.Value != 8.85 {
		t.Errorf("alert value: got %g, want 8.85", a.Value)
	}

	base = base.Add(2 * time.Minute)
	e.Evaluate(richGas())
	for _, a := range e.Active() {
		if a.State == "firing" {
			t.Errorf("alert still firing after condition cleared: %+v", a)
		}
	}
}

func TestEngine_Cooldown(t *testing.T) {
	e := newTestEngine(config.AlertRule{
		Name:      "low-hhv",
		Condition: "hhv_kwh_m3 < 10.28",
		Cooldown:  10 * time.Minute,
	})
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }

	e.Evaluate(leanGas())
	first := e.Active()
	if len(first) != 1 {
		t.Fatalf("Active(): got %d, want 1", len(first))
	}

	// Within cooldown: no second alert.
	base = base.Add(time.Minute)
	e.Evaluate(leanGas())
	if got := e.Active(); len(got) != 1 || got[0].ID != first[0].ID {
		t.Errorf("alert re-fired within cooldown: %+v", got)
	}
}

func TestEngine_NoRulesIsNoop(t *testing.T) {
	e := newTestEngine()
	e.Evaluate(leanGas())
	if got := e.Active(); len(got) != 0 {
		t.Errorf("Active(): got %d alerts, want 0", len(got))
	}
}

func TestEngine_DefaultSeverity(t *testing.T) {
	e := newTestEngine(config.AlertRule{
		Name:      "noncompliant",
		Condition: "status == noncompliant",
	})
	e.Evaluate(leanGas())
	active := e.Active()
	if len(active) != 1 {
		t.Fatalf("Active(): got %d, want 1", len(active))
	}
	if active[0].Severity != "warning" {
		t.Errorf("Severity: got %q, want warning", active[0].Severity)
	}
}

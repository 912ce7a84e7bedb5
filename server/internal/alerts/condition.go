package alerts

import (
	"strconv"
	"strings"

	"github.com/gaswatch/gaswatch/pkg/analysis"
	"github.com/gaswatch/gaswatch/pkg/regulatory"
)

// evalCondition evaluates a rule condition string against an Analysis.
//
// Supported expressions (field operator value):
//
//	hhv_kwh_m3 < 10.28
//	lhv_kwh_m3 < 9.25
//	wobbe_upper_kwh_m3 > 15.81
//	wobbe_lower_kwh_m3 < 12.0
//	relative_density > 0.70
//	ch4_mol_pct < 85
//	co2_mol_pct > 2.5
//	n2_mol_pct > 7
//	o2_mol_pct > 0.2
//	h2s_mol_pct > 0.001
//	status == noncompliant
//	status == invalid
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is
// unknown. Numeric fields never fire on an invalid analysis: its indices
// are all zero, which says nothing about the gas.
func evalCondition(cond string, a *analysis.Analysis) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	if field == "status" {
		if op == "==" {
			return a.Status == rhs, 0
		}
		return false, 0
	}

	if a.Status == analysis.StatusInvalid {
		return false, 0
	}
	v, ok := numericField(field, a)
	if !ok {
		return false, 0
	}
	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// conditionMetric returns the field a condition tests, or "" if the
// expression cannot be parsed.
func conditionMetric(cond string) string {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return ""
	}
	return parts[0]
}

// numericField maps a field name to its value in the analysis.
func numericField(field string, a *analysis.Analysis) (float64, bool) {
	switch field {
	case regulatory.MetricHHV:
		return a.HHVKWh, true
	case regulatory.MetricLHV:
		return a.LHVKWh, true
	case regulatory.MetricWobbeUpper:
		return a.WobbeUpperKWh, true
	case regulatory.MetricWobbeLower:
		return a.WobbeLowerKWh, true
	case regulatory.MetricRelativeDensity:
		return a.RelativeDensity, true
	case regulatory.MetricCH4MolPct:
		return a.MolPct("CH4"), true
	case regulatory.MetricCO2MolPct:
		return a.MolPct("CO2"), true
	case regulatory.MetricN2MolPct:
		return a.MolPct("N2"), true
	case regulatory.MetricO2MolPct:
		return a.MolPct("O2"), true
	case regulatory.MetricH2SMolPct:
		return a.MolPct("H2S"), true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}

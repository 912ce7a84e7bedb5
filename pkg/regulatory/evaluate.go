package regulatory

import (
	"fmt"
	"sort"

	"github.com/gaswatch/gaswatch/pkg/gas"
	"github.com/gaswatch/gaswatch/pkg/quality"
)

// Check statuses. A value below Min is "low", above Max is "high",
// otherwise "ok".
const (
	StatusOK   = "ok"
	StatusLow  = "low"
	StatusHigh = "high"
)

// UnknownMetricError reports a profile limit on a metric name the
// calculator does not produce. It guards against an out-of-sync
// profile/constants table.
type UnknownMetricError struct {
	Metric string
}

func (e *UnknownMetricError) Error() string {
	return fmt.Sprintf("unknown metric %q", e.Metric)
}

// Check is the outcome of one threshold rule.
type Check struct {
	Metric string   `json:"metric"`
	Value  float64  `json:"value"`
	Min    *float64 `json:"min,omitempty"`
	Max    *float64 `json:"max,omitempty"`
	Status string   `json:"status"`
}

// Report is the compliance outcome of one quality result against one
// profile. It has no lifecycle beyond the Evaluate call that produced it.
type Report struct {
	Profile string  `json:"profile"`
	Checks  []Check `json:"checks"`
}

// Pass reports whether every check in the report has status ok.
func (r *Report) Pass() bool {
	for _, c := range r.Checks {
		if c.Status != StatusOK {
			return false
		}
	}
	return true
}

// Evaluate compares res and c against every limit in profile and returns a
// Report with one Check per limit, ordered by metric name. Either a
// complete report is returned or an error — never a partial result.
//
// It fails with UnknownMetricError for a metric name outside the known set,
// and with quality.ErrNotImplemented when the profile limits the methane
// number.
func Evaluate(res *quality.Result, c gas.Composition, profile Profile) (*Report, error) {
	metrics := make([]string, 0, len(profile.Limits))
	for m := range profile.Limits {
		metrics = append(metrics, m)
	}
	sort.Strings(metrics)

	report := &Report{Profile: profile.Name, Checks: make([]Check, 0, len(metrics))}
	for _, m := range metrics {
		value, err := metricValue(m, res, c)
		if err != nil {
			return nil, err
		}
		report.Checks = append(report.Checks, checkRange(m, value, profile.Limits[m]))
	}
	return report, nil
}

// metricValue maps a metric name to its value in the result or composition.
func metricValue(metric string, res *quality.Result, c gas.Composition) (float64, error) {
	switch metric {
	case MetricHHV:
		return res.HHVKWh(), nil
	case MetricLHV:
		return res.LHVKWh(), nil
	case MetricWobbeUpper:
		return res.WobbeUpperKWh(), nil
	case MetricWobbeLower:
		return res.WobbeLowerKWh(), nil
	case MetricRelativeDensity:
		return res.RelativeDensity, nil
	case MetricCH4MolPct:
		return c.MolPct("CH4"), nil
	case MetricCO2MolPct:
		return c.MolPct("CO2"), nil
	case MetricN2MolPct:
		return c.MolPct("N2"), nil
	case MetricO2MolPct:
		return c.MolPct("O2"), nil
	case MetricH2SMolPct:
		return c.MolPct("H2S"), nil
	case MetricMethaneNumber:
		return 0, fmt.Errorf("metric %q: %w", metric, quality.ErrNotImplemented)
	default:
		return 0, &UnknownMetricError{Metric: metric}
	}
}

// checkRange applies an inclusive range check; an unset bound always passes.
func checkRange(metric string, value float64, limit Limit) Check {
	status := StatusOK
	if limit.Min != nil && value < *limit.Min {
		status = StatusLow
	}
	if limit.Max != nil && value > *limit.Max {
		status = StatusHigh
	}
	return Check{Metric: metric, Value: value, Min: limit.Min, Max: limit.Max, Status: status}
}

package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gaswatch/gaswatch/agent/internal/config"
)

// Chromatograph exporter metric names we track.
const (
	// Per-component mole fraction gauge, labelled by component.
	gasMoleFraction = "gas_mole_fraction"

	// Line condition gauges exposed next to the composition.
	gasLinePressure    = "gas_line_pressure_bar"
	gasLineTemperature = "gas_line_temperature_celsius"
	gasLineFlow        = "gas_line_flow_m3_h"

	// Analyzer self-diagnostics counter — failed chromatograph cycles.
	gasAnalysisErrors = "gas_analysis_errors_total"
)

// componentLabel is the label carrying the component identifier on
// gas_mole_fraction.
const componentLabel = "component"

type promScraper struct {
	src    config.Source
	client *http.Client
}

// Scrape fetches the chromatograph exporter's /metrics endpoint and extracts
// the composition plus line condition readings.
//
// A scrape that parses but carries no gas_mole_fraction series is reported
// as an error result: the exporter is up but the analyzer behind it is not
// publishing a composition.
func (s *promScraper) Scrape(ctx context.Context) (*ScrapeResult, error) {
	res := newResult(s.src.ID, "prometheus")

	mfs, err := fetchMetrics(ctx, s.client, s.src.Endpoint)
	if err != nil {
		res.Err = fmt.Errorf("prometheus scrape %q: %w", s.src.ID, err)
		slog.Warn("scraper: prometheus fetch failed", "source", s.src.ID, "err", err)
		return res, nil
	}

	res.Composition = byLabel(mfs[gasMoleFraction], componentLabel)
	if len(res.Composition) == 0 {
		res.Err = fmt.Errorf("prometheus scrape %q: no %s series", s.src.ID, gasMoleFraction)
		slog.Warn("scraper: no composition in scrape", "source", s.src.ID)
		return res, nil
	}

	if mf, ok := mfs[gasLinePressure]; ok {
		res.Extra["line_pressure_bar"] = sumFamily(mf)
	}
	if mf, ok := mfs[gasLineTemperature]; ok {
		res.Extra["line_temperature_c"] = sumFamily(mf)
	}
	if mf, ok := mfs[gasLineFlow]; ok {
		res.Extra["line_flow_m3_h"] = sumFamily(mf)
	}
	if mf, ok := mfs[gasAnalysisErrors]; ok {
		res.Extra["analysis_errors"] = sumFamily(mf)
	}

	return res, nil
}

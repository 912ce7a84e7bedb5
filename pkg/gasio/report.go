package gasio

import (
	"fmt"
	"io"

	"github.com/gaswatch/gaswatch/pkg/gas"
	"github.com/gaswatch/gaswatch/pkg/quality"
	"github.com/gaswatch/gaswatch/pkg/regulatory"
)

// WriteSummary renders a human-readable quality summary to w: the
// composition in mole percent, the derived indices, and the per-metric
// compliance checks with a final verdict line.
func WriteSummary(w io.Writer, c gas.Composition, res *quality.Result, report *regulatory.Report) error {
	write := func(format string, args ...interface{}) error {
		_, err := fmt.Fprintf(w, format, args...)
		return err
	}

	if err := write("=== Natural Gas Mixture Summary ===\n"); err != nil {
		return err
	}
	if err := write("Composition (mol %%):\n"); err != nil {
		return err
	}
	for _, name := range c.Names() {
		if err := write("  %-8s: %7.3f\n", name, c.MolPct(name)); err != nil {
			return err
		}
	}

	if err := write("\nEnergetics and Wobbe:\n"); err != nil {
		return err
	}
	if err := write("  HHV: %.3f kWh/m3\n", res.HHVKWh()); err != nil {
		return err
	}
	if err := write("  LHV: %.3f kWh/m3\n", res.LHVKWh()); err != nil {
		return err
	}
	if err := write("  Wg : %.3f kWh/m3\n", res.WobbeUpperKWh()); err != nil {
		return err
	}
	if err := write("  Wd : %.3f kWh/m3\n", res.WobbeLowerKWh()); err != nil {
		return err
	}
	if err := write("  d  : %.4f\n", res.RelativeDensity); err != nil {
		return err
	}

	if report == nil {
		return nil
	}

	if err := write("\nCompliance check (%s):\n", report.Profile); err != nil {
		return err
	}
	for _, check := range report.Checks {
		if err := write("  %-20s: %.4f (min=%s, max=%s) -> %s\n",
			check.Metric, check.Value, bound(check.Min), bound(check.Max), check.Status); err != nil {
			return err
		}
	}

	verdict := "GAS MEETS the selected standard (within checked parameters)."
	if !report.Pass() {
		verdict = "GAS DOES NOT MEET the selected standard on some parameters."
	}
	return write("\nResult: %s\n", verdict)
}

func bound(v *float64) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprintf("%g", *v)
}

package quality

import (
	"errors"
	"fmt"
	"math"

	"github.com/gaswatch/gaswatch/pkg/gas"
)

// ErrNotImplemented is returned for quality metrics the calculator does not
// produce: methane number, hydrocarbon dew point, and sulfur speciation.
var ErrNotImplemented = errors.New("not implemented")

// MJPerKWh converts between the two energy-density units used by regulatory
// limits: 1 kWh/m3 = 3.6 MJ/m3.
const MJPerKWh = 3.6

// Result holds the derived quality indices for one gas mixture. Energy
// densities are stored in MJ/m3; the *KWh accessors convert to kWh/m3, the
// unit Croatian regulatory limits are written in.
type Result struct {
	// MolarMass is the mixture molar mass [g/mol].
	MolarMass float64

	// RelativeDensity is the mixture density relative to dry air.
	RelativeDensity float64

	// HHV and LHV are the mixture heating values [MJ/m3].
	HHV float64
	LHV float64

	// WobbeUpper and WobbeLower are HHV respectively LHV divided by the
	// square root of the relative density [MJ/m3].
	WobbeUpper float64
	WobbeLower float64
}

// HHVKWh returns the higher heating value in kWh/m3.
func (r *Result) HHVKWh() float64 { return r.HHV / MJPerKWh }

// LHVKWh returns the lower heating value in kWh/m3.
func (r *Result) LHVKWh() float64 { return r.LHV / MJPerKWh }

// WobbeUpperKWh returns the upper Wobbe index in kWh/m3.
func (r *Result) WobbeUpperKWh() float64 { return r.WobbeUpper / MJPerKWh }

// WobbeLowerKWh returns the lower Wobbe index in kWh/m3.
func (r *Result) WobbeLowerKWh() float64 { return r.WobbeLower / MJPerKWh }

// Calculator derives quality indices from validated compositions using an
// injected constants table.
type Calculator struct {
	table *gas.PropertyTable
}

// NewCalculator returns a Calculator over table.
func NewCalculator(table *gas.PropertyTable) *Calculator {
	return &Calculator{table: table}
}

// Indices computes the mixture quality indices for c by linear mixing of the
// per-component constants. It fails with gas.UnknownComponentError for a
// component outside the table and gas.MissingConstantsError for an
// incomplete entry. The computation is deterministic: the same composition
// always yields bit-identical results.
func (calc *Calculator) Indices(c gas.Composition) (*Result, error) {
	if len(c) == 0 {
		return nil, fmt.Errorf("quality: empty composition")
	}

	m, err := c.MolarMass(calc.table)
	if err != nil {
		return nil, err
	}

	res := &Result{MolarMass: m}
	for _, name := range c.Names() {
		// MolarMass already verified every entry is present and complete.
		entry, _ := calc.table.Lookup(name)
		z := c[name]
		res.HHV += z * entry.HHV
		res.LHV += z * entry.LHV
	}

	res.RelativeDensity = res.MolarMass / gas.MolarMassAir
	if res.RelativeDensity <= 0 {
		return nil, fmt.Errorf("quality: non-positive relative density %g", res.RelativeDensity)
	}

	sqrtD := math.Sqrt(res.RelativeDensity)
	res.WobbeUpper = res.HHV / sqrtD
	res.WobbeLower = res.LHV / sqrtD
	return res, nil
}

// MethaneNumber reports the knock-resistance metric for gas engines. The
// engine-test correlation required by EN 16726 Annex A is not part of this
// calculator; the call always fails with ErrNotImplemented.
func (calc *Calculator) MethaneNumber(c gas.Composition) (float64, error) {
	return 0, fmt.Errorf("methane number: %w", ErrNotImplemented)
}

// HydrocarbonDewPoint always fails with ErrNotImplemented.
func (calc *Calculator) HydrocarbonDewPoint(c gas.Composition) (float64, error) {
	return 0, fmt.Errorf("hydrocarbon dew point: %w", ErrNotImplemented)
}

// SulfurSpeciation always fails with ErrNotImplemented.
func (calc *Calculator) SulfurSpeciation(c gas.Composition) (map[string]float64, error) {
	return nil, fmt.Errorf("sulfur speciation: %w", ErrNotImplemented)
}

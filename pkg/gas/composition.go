package gas

import (
	"fmt"
	"math"
	"sort"
)

// DefaultTolerance is the default permitted deviation of the mole-fraction
// sum from 1.0 before a composition is rejected.
const DefaultTolerance = 1e-6

// Composition maps component identifiers to mole fractions. A validated
// composition sums to exactly 1.0; treat it as immutable once returned by
// Validator.Validate.
type Composition map[string]float64

// Sum returns the total of all mole fractions.
func (c Composition) Sum() float64 {
	var total float64
	for _, z := range c {
		total += z
	}
	return total
}

// Fraction returns the mole fraction of name, or 0 if absent.
func (c Composition) Fraction(name string) float64 { return c[name] }

// MolPct returns the mole fraction of name expressed as a percentage.
func (c Composition) MolPct(name string) float64 { return c[name] * 100 }

// Names returns the component identifiers sorted lexically, for stable
// iteration in reports and tests.
func (c Composition) Names() []string {
	out := make([]string, 0, len(c))
	for name := range c {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// MolarMass returns the mixture molar mass [g/mol] by linear mixing.
// It fails with UnknownComponentError if a component is absent from the
// table and MissingConstantsError if its entry is incomplete.
func (c Composition) MolarMass(table *PropertyTable) (float64, error) {
	var m float64
	for _, name := range c.Names() {
		entry, ok := table.Lookup(name)
		if !ok {
			return 0, &UnknownComponentError{Component: name}
		}
		if !entry.Complete() {
			return 0, &MissingConstantsError{Component: name}
		}
		m += c[name] * entry.MolarMass
	}
	return m, nil
}

// Validator checks raw compositions against a constants table and a
// mole-fraction sum tolerance. The zero value is not usable; construct with
// NewValidator.
type Validator struct {
	table     *PropertyTable
	tolerance float64
}

// NewValidator returns a Validator over table. A non-positive tolerance
// falls back to DefaultTolerance.
func NewValidator(table *PropertyTable, tolerance float64) *Validator {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Validator{table: table, tolerance: tolerance}
}

// Tolerance returns the configured sum tolerance.
func (v *Validator) Tolerance() float64 { return v.tolerance }

// Validate checks raw and returns a normalized copy whose fractions sum to
// exactly 1.0. It fails with UnknownComponentError for keys outside the
// table, and with SumError when the total deviates from 1.0 by more than
// the tolerance. raw is never modified.
func (v *Validator) Validate(raw map[string]float64) (Composition, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("composition: empty")
	}

	var total float64
	for name, z := range raw {
		if _, ok := v.table.Lookup(name); !ok {
			return nil, &UnknownComponentError{Component: name}
		}
		if z < 0 {
			return nil, fmt.Errorf("composition: negative fraction %g for %s", z, name)
		}
		total += z
	}

	// The deviation itself carries float64 representation error: a sum of
	// exactly 0.999999 deviates by 1.0000000000287557e-06, a hair over a
	// literal 1e-6 bound. Scale the tolerance by one part in 1e9 so sums on
	// the boundary are accepted.
	if math.Abs(total-1.0) > v.tolerance*(1+1e-9) {
		return nil, &SumError{Sum: total, Tolerance: v.tolerance}
	}

	out := make(Composition, len(raw))
	for name, z := range raw {
		out[name] = z / total
	}
	return out, nil
}

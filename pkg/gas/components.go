package gas

// MolarMassAir is the molar mass of dry air at reference conditions [g/mol],
// used as the denominator of the relative density d = M_mix / M_air.
const MolarMassAir = 28.96

// Component holds the per-component physical constants needed to derive
// mixture quality indices.
type Component struct {
	// Name is the canonical component identifier used as the composition key
	// (e.g. "CH4", "iC4H10", "C7plus").
	Name string

	// Formula is the chemical formula. For C7plus it is the formula of the
	// representative heptane surrogate.
	Formula string

	// MolarMass is the molar mass [g/mol].
	MolarMass float64

	// HHV and LHV are the higher and lower heating values per unit volume
	// [MJ/m3] at reference conditions. Non-combustible components carry
	// explicit zeros so every table entry is complete.
	HHV float64
	LHV float64
}

// Complete reports whether the entry carries all constants the calculator
// needs. HHV and LHV may legitimately be zero (inerts), MolarMass may not.
func (c Component) Complete() bool {
	return c.MolarMass > 0 && c.HHV >= 0 && c.LHV >= 0 && c.HHV >= c.LHV
}

// PropertyTable is an immutable component constants lookup. Build one with
// Default() or NewPropertyTable() at startup and pass it explicitly to
// Validator and quality.Calculator; the table is never mutated after
// construction and is safe for concurrent use.
type PropertyTable struct {
	byName map[string]Component
}

// NewPropertyTable builds a table from the given entries. Later entries with
// a duplicate Name overwrite earlier ones.
func NewPropertyTable(entries []Component) *PropertyTable {
	m := make(map[string]Component, len(entries))
	for _, e := range entries {
		m[e.Name] = e
	}
	return &PropertyTable{byName: m}
}

// Lookup returns the constants entry for name and whether it exists.
func (t *PropertyTable) Lookup(name string) (Component, bool) {
	c, ok := t.byName[name]
	return c, ok
}

// Components returns the number of entries in the table.
func (t *PropertyTable) Components() int { return len(t.byName) }

// Names returns all component identifiers in the table. Order is unspecified.
func (t *PropertyTable) Names() []string {
	out := make([]string, 0, len(t.byName))
	for name := range t.byName {
		out = append(out, name)
	}
	return out
}

// Default returns the built-in constants table.
//
// Heating values are volumetric, ISO 6976 basis (combustion at 25 °C,
// metering at 0 °C and 101.325 kPa), so linear mixing by mole fraction is
// valid and the results land in the kWh/m3 ranges the Croatian limits are
// written in. Inerts (N2, CO2, O2, H2O) carry explicit zeros. C7plus is an
// n-heptane surrogate for the heavy tail.
func Default() *PropertyTable {
	return NewPropertyTable([]Component{
		{Name: "CH4", Formula: "CH4", MolarMass: 16.04, HHV: 39.84, LHV: 35.81},
		{Name: "C2H6", Formula: "C2H6", MolarMass: 30.07, HHV: 69.79, LHV: 63.74},
		{Name: "C3H8", Formula: "C3H8", MolarMass: 44.10, HHV: 99.04, LHV: 91.16},
		{Name: "iC4H10", Formula: "iC4H10", MolarMass: 58.12, HHV: 127.96, LHV: 118.14},
		{Name: "nC4H10", Formula: "nC4H10", MolarMass: 58.12, HHV: 128.37, LHV: 118.56},
		{Name: "iC5H12", Formula: "iC5H12", MolarMass: 72.15, HHV: 157.44, LHV: 145.67},
		{Name: "nC5H12", Formula: "nC5H12", MolarMass: 72.15, HHV: 157.76, LHV: 145.98},
		{Name: "C6H14", Formula: "C6H14", MolarMass: 86.18, HHV: 187.16, LHV: 173.43},
		{Name: "C7plus", Formula: "C7H16", MolarMass: 100.20, HHV: 216.53, LHV: 200.83},
		{Name: "H2", Formula: "H2", MolarMass: 2.016, HHV: 12.75, LHV: 10.79},
		{Name: "N2", Formula: "N2", MolarMass: 28.01, HHV: 0, LHV: 0},
		{Name: "CO2", Formula: "CO2", MolarMass: 44.01, HHV: 0, LHV: 0},
		{Name: "O2", Formula: "O2", MolarMass: 32.00, HHV: 0, LHV: 0},
		{Name: "H2S", Formula: "H2S", MolarMass: 34.08, HHV: 25.07, LHV: 23.10},
		{Name: "H2O", Formula: "H2O", MolarMass: 18.02, HHV: 0, LHV: 0},
	})
}

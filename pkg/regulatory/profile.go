package regulatory

// Metric names a quality dimension a profile can limit. The set mirrors
// what the calculator and composition expose; evaluating a profile with a
// name outside this set fails with UnknownMetricError.
const (
	MetricHHV             = "hhv_kwh_m3"
	MetricLHV             = "lhv_kwh_m3"
	MetricWobbeUpper      = "wobbe_upper_kwh_m3"
	MetricWobbeLower      = "wobbe_lower_kwh_m3"
	MetricRelativeDensity = "relative_density"
	MetricCH4MolPct       = "ch4_mol_pct"
	MetricCO2MolPct       = "co2_mol_pct"
	MetricN2MolPct        = "n2_mol_pct"
	MetricO2MolPct        = "o2_mol_pct"
	MetricH2SMolPct       = "h2s_mol_pct"

	// MetricMethaneNumber is recognised but not produced by the calculator;
	// a profile that limits it fails evaluation with quality.ErrNotImplemented.
	MetricMethaneNumber = "methane_number"
)

// Limit is an inclusive [Min, Max] range for one metric. A nil bound is
// open-ended.
type Limit struct {
	Min *float64 `yaml:"min" json:"min,omitempty"`
	Max *float64 `yaml:"max" json:"max,omitempty"`
}

// Profile is a named set of threshold rules, one instance per standard.
// Profiles are static configuration selected by the caller and never
// mutated during evaluation.
type Profile struct {
	Name   string           `yaml:"name" json:"name"`
	Limits map[string]Limit `yaml:"limits" json:"limits"`
}

// f returns a pointer to v, for building limit tables.
func f(v float64) *float64 { return &v }

// NN15813 returns the quality limits of the Croatian General Conditions for
// natural gas supply, NN 158/13.
func NN15813() Profile {
	return Profile{
		Name: "nn-158-13",
		Limits: map[string]Limit{
			MetricHHV:             {Min: f(10.28), Max: f(12.75)},
			MetricWobbeUpper:      {Min: f(12.75), Max: f(15.81)},
			MetricRelativeDensity: {Min: f(0.55), Max: f(0.70)},
			MetricCH4MolPct:       {Min: f(85.0)},
			MetricCO2MolPct:       {Max: f(2.5)},
			MetricN2MolPct:        {Max: f(7.0)},
			MetricO2MolPct:        {Max: f(0.2)},
		},
	}
}

// HERA2021 returns the NN 158/13 limits as amended by the 2021 HERA
// decision, which raised the HHV minimum to 10.96 kWh/m3.
func HERA2021() Profile {
	p := NN15813()
	p.Name = "hera-2021"
	limits := make(map[string]Limit, len(p.Limits))
	for m, l := range p.Limits {
		limits[m] = l
	}
	limits[MetricHHV] = Limit{Min: f(10.96), Max: f(12.75)}
	p.Limits = limits
	return p
}

// EN16726 returns the CEN EN 16726 H-gas limits covered by this calculator.
// The standard's methane number requirement is excluded because the core
// does not compute MN; add the methane_number metric to a copy of this
// profile to have evaluation fail explicitly with ErrNotImplemented.
func EN16726() Profile {
	return Profile{
		Name: "en-16726",
		Limits: map[string]Limit{
			MetricRelativeDensity: {Min: f(0.555), Max: f(0.700)},
			MetricCO2MolPct:       {Max: f(2.5)},
			MetricO2MolPct:        {Max: f(0.02)},
		},
	}
}

// Builtin returns all built-in profiles keyed by name.
func Builtin() map[string]Profile {
	out := make(map[string]Profile, 3)
	for _, p := range []Profile{NN15813(), HERA2021(), EN16726()} {
		out[p.Name] = p
	}
	return out
}

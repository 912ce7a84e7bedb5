// Package regulatory defines gas quality threshold profiles and evaluates
// computed quality indices against them.
//
// A Profile is a named set of per-metric limits; either bound of a limit may
// be open-ended. Builtins cover the Croatian NN 158/13 general conditions,
// the HERA 2021 amendment (which raised the HHV minimum), and CEN EN 16726.
// The two HHV minima that differ between standards versions (10.28 vs
// 10.96 kWh/m3) are deliberately kept in separate caller-selected profiles.
package regulatory

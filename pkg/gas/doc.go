// Package gas defines the natural-gas component constants table, the
// Composition type, and the composition Validator.
//
// The component set is closed: every key in a composition must name one of
// the entries in a PropertyTable. Default() returns the built-in table of
// molar masses and volumetric heating values at reference conditions.
// Validator checks that mole fractions sum to 1 within a tolerance and
// returns a normalized copy; it never mutates its input.
package gas

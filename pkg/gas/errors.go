package gas

import "fmt"

// UnknownComponentError reports a composition key that is not part of the
// constants table's closed component set.
type UnknownComponentError struct {
	Component string
}

func (e *UnknownComponentError) Error() string {
	return fmt.Sprintf("unknown component %q", e.Component)
}

// SumError reports a mole-fraction total outside the accepted tolerance
// around 1.0.
type SumError struct {
	Sum       float64
	Tolerance float64
}

func (e *SumError) Error() string {
	return fmt.Sprintf("mole fractions sum to %g, want 1.0 within %g", e.Sum, e.Tolerance)
}

// MissingConstantsError reports a component whose constants entry is absent
// or incomplete, so mixture indices cannot be derived.
type MissingConstantsError struct {
	Component string
}

func (e *MissingConstantsError) Error() string {
	return fmt.Sprintf("incomplete constants entry for component %q", e.Component)
}

// Package quality derives gas quality indices from a validated composition:
// mixture molar mass, relative density, higher/lower heating value, and the
// upper/lower Wobbe index. All derivations are pure linear mixing over the
// injected constants table — no hidden state, safe for concurrent use.
//
// Methane number, hydrocarbon dew point, and sulfur speciation are not
// implemented; the corresponding methods return ErrNotImplemented.
package quality

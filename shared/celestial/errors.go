package celestial

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidElements marks element sets that cannot be propagated: a non-finite
	// field or a negative eccentricity. Fatal for that body's query only.
	ErrInvalidElements = errors.New("celestial: invalid orbital elements")

	// ErrDidNotConverge is a non-fatal warning from the anomaly solvers. The value
	// returned alongside it is the best estimate reached.
	ErrDidNotConverge = errors.New("celestial: anomaly solver did not converge")

	// ErrUnsupportedRegime is returned when an eccentricity falls outside the regime a
	// solver or sampler handles (e.g. exactly parabolic orbits).
	ErrUnsupportedRegime = errors.New("celestial: unsupported eccentricity regime")
)

// InvalidElementsError names the offending field.
type InvalidElementsError struct {
	Field string
	Value float64
}

func (e *InvalidElementsError) Error() string {
	return fmt.Sprintf("celestial: invalid orbital elements: %s = %v", e.Field, e.Value)
}

func (e *InvalidElementsError) Unwrap() error {
	return ErrInvalidElements
}

// ConvergenceError is returned with the best estimate when a solver hits its
// iteration cap.
type ConvergenceError struct {
	Eccentricity float64
	MeanAnomaly  float64 // radians, normalised
	Estimate     float64 // radians
	Iterations   int
}

func (e *ConvergenceError) Error() string {
	return fmt.Sprintf("celestial: anomaly solver did not converge after %d iterations (e=%.6f, M=%.6f, estimate=%.9f)",
		e.Iterations, e.Eccentricity, e.MeanAnomaly, e.Estimate)
}

func (e *ConvergenceError) Unwrap() error {
	return ErrDidNotConverge
}

// RegimeError reports the eccentricity that fell outside a supported regime.
type RegimeError struct {
	Eccentricity float64
	Op           string
}

func (e *RegimeError) Error() string {
	return fmt.Sprintf("celestial: %s does not support eccentricity %v", e.Op, e.Eccentricity)
}

func (e *RegimeError) Unwrap() error {
	return ErrUnsupportedRegime
}

// UnknownKindError is returned when a body kind name cannot be parsed.
type UnknownKindError struct {
	Kind string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("celestial: unknown body kind %q", e.Kind)
}

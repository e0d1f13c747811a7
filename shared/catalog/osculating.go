package catalog

import (
	"fmt"
	"math"

	"latency.space/orrery/shared/celestial"
)

// Osculating is a classical element set at one epoch, the form published by the
// MPC and JPL small-body databases. Bound orbits give A; unbound ones usually only
// publish the perihelion distance Q.
type Osculating struct {
	A              float64 `yaml:"a"`        // semi-major axis (AU), magnitude for e > 1
	Q              float64 `yaml:"q"`        // perihelion distance (AU), used when A is zero
	E              float64 `yaml:"e"`        // eccentricity
	I              float64 `yaml:"i"`        // inclination (deg)
	Node           float64 `yaml:"node"`     // longitude of ascending node (deg)
	ArgPerihelion  float64 `yaml:"arg_peri"` // argument of perihelion (deg)
	MeanAnomaly    float64 `yaml:"mean_anomaly"`
	Epoch          float64 `yaml:"epoch"` // JD of MeanAnomaly, zero means J2000
	PerihelionTime float64 `yaml:"tp"`    // JD of perihelion passage, overrides MeanAnomaly
}

// MeanMotion returns the Kepler-third-law mean motion in degrees per Julian century for
// a semi-major axis magnitude in AU. It matches OrbitalElementSet.PeriodDays for bound
// orbits.
func MeanMotion(a float64) float64 {
	return 360 * celestial.DAYS_PER_CENTURY / (celestial.DAYS_PER_YEAR * math.Pow(a, 1.5))
}

// ElementSet converts the osculating elements into a reference set at J2000. Only the
// mean longitude moves; the orientation and shape are frozen at their epoch values.
func (o Osculating) ElementSet() (celestial.OrbitalElementSet, error) {
	for _, f := range []struct {
		name  string
		value float64
	}{
		{"a", o.A}, {"q", o.Q}, {"e", o.E}, {"i", o.I}, {"node", o.Node},
		{"arg_peri", o.ArgPerihelion}, {"mean_anomaly", o.MeanAnomaly},
		{"epoch", o.Epoch}, {"tp", o.PerihelionTime},
	} {
		if math.IsNaN(f.value) || math.IsInf(f.value, 0) {
			return celestial.OrbitalElementSet{}, &celestial.InvalidElementsError{Field: f.name, Value: f.value}
		}
	}
	if o.E < 0 {
		return celestial.OrbitalElementSet{}, &celestial.InvalidElementsError{Field: "e", Value: o.E}
	}
	if o.E == 1 {
		return celestial.OrbitalElementSet{}, &celestial.RegimeError{Eccentricity: o.E, Op: "osculating conversion"}
	}

	a := math.Abs(o.A)
	if a == 0 {
		if o.Q <= 0 {
			return celestial.OrbitalElementSet{}, fmt.Errorf("%w: one of a or q must be positive", celestial.ErrInvalidElements)
		}
		a = o.Q / math.Abs(1-o.E)
	}

	n := MeanMotion(a)
	varpi := celestial.NormalizeDegrees(o.Node + o.ArgPerihelion)

	// L(t) = varpi + M(t) and M grows linearly from the reference instant.
	epoch, m0 := o.Epoch, o.MeanAnomaly
	if epoch == 0 {
		epoch = celestial.J2000_EPOCH
	}
	if o.PerihelionTime != 0 {
		epoch, m0 = o.PerihelionTime, 0
	}
	L := varpi + m0 - n*celestial.CenturiesSinceJ2000(epoch)
	if o.E < 1 {
		L = celestial.NormalizeDegrees(L)
	}

	return celestial.OrbitalElementSet{
		SemiMajorAxisAU:             a,
		Eccentricity:                o.E,
		InclinationDeg:              o.I,
		MeanLongitudeDeg:            L,
		MeanLongitudeRate:           n,
		LongitudeOfPerihelionDeg:    varpi,
		LongitudeOfAscendingNodeDeg: celestial.NormalizeDegrees(o.Node),
	}, nil
}

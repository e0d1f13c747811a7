package celestial

import (
	"math"
)

const (
	defaultSegments          = 2000
	defaultEccentricSegments = 4000
	// DefaultMaxRadiusAU bounds the sampled branch of an unbound orbit.
	DefaultMaxRadiusAU = 50.0
	// minimum branch extent as a multiple of the perihelion distance
	minPerihelionMultiple = 4.0
)

// OrbitPath is an ordered polyline approximating an orbit curve. It depends only on the
// elements it was generated from, so it can be cached per (BodyID, Epoch).
type OrbitPath struct {
	BodyID string    `json:"body_id,omitempty"`
	Epoch  float64   `json:"epoch"`
	Points []Vector3 `json:"points"`
	Closed bool      `json:"closed"` // the last point connects back to the first
}

// Polyline returns the points with the closing point repeated for closed paths.
func (p OrbitPath) Polyline() []Vector3 {
	if !p.Closed || len(p.Points) == 0 {
		return p.Points
	}
	out := make([]Vector3, len(p.Points), len(p.Points)+1)
	copy(out, p.Points)
	return append(out, p.Points[0])
}

// PathOptions tunes GeneratePath. Zero values select the defaults.
type PathOptions struct {
	Segments    int     // number of sampled points; 0 picks by eccentricity
	MaxRadiusAU float64 // heliocentric cut-off for unbound branches
}

// DefaultSegments returns the sampling density for an eccentricity: denser for
// e > 0.8 where the curvature near perihelion is high.
func DefaultSegments(e float64) int {
	if e > highEccentricitySeed {
		return defaultEccentricSegments
	}
	return defaultSegments
}

// GeneratePath samples the orbit described by p into a polyline in the heliocentric
// ecliptic frame. Bound orbits are sampled uniformly in eccentric anomaly and come back
// closed; unbound ones are sampled in hyperbolic anomaly over a bounded branch and come
// back open.
func GeneratePath(p PropagatedElements, opts PathOptions) (OrbitPath, error) {
	for _, f := range p.fields() {
		if !isFinite(f.value) {
			return OrbitPath{}, &InvalidElementsError{Field: f.name, Value: f.value}
		}
	}
	if p.Eccentricity < 0 {
		return OrbitPath{}, &InvalidElementsError{Field: "eccentricity", Value: p.Eccentricity}
	}

	segments := opts.Segments
	if segments <= 0 {
		segments = DefaultSegments(p.Eccentricity)
	}
	if segments < 2 {
		segments = 2
	}

	e := p.Eccentricity
	a := p.SemiMajorAxisAU
	path := OrbitPath{Epoch: p.Instant, Points: make([]Vector3, 0, segments)}

	switch {
	case e < 1:
		b := a * math.Sqrt(1-e*e)
		step := 2 * math.Pi / float64(segments)
		for k := 0; k < segments; k++ {
			sinE, cosE := math.Sincos(float64(k) * step)
			path.Points = append(path.Points, rotate(p, a*(cosE-e), b*sinE))
		}
		path.Closed = true
		return path, nil

	case e > 1:
		if a <= 0 {
			return OrbitPath{}, &InvalidElementsError{Field: "semi_major_axis_au", Value: a}
		}
		hMax := hyperbolicExtent(a, e, opts.MaxRadiusAU)
		b := a * math.Sqrt(e*e-1)
		step := 2 * hMax / float64(segments-1)
		for k := 0; k < segments; k++ {
			H := -hMax + float64(k)*step
			path.Points = append(path.Points, rotate(p, a*(e-math.Cosh(H)), b*math.Sinh(H)))
		}
		return path, nil
	}

	return OrbitPath{}, &RegimeError{Eccentricity: e, Op: "orbit path generator"}
}

// hyperbolicExtent returns the |H| at which r = a(e cosh H - 1) reaches the cut-off.
func hyperbolicExtent(a, e, maxRadius float64) float64 {
	if maxRadius <= 0 {
		maxRadius = DefaultMaxRadiusAU
	}
	q := a * (e - 1)
	if maxRadius < minPerihelionMultiple*q {
		maxRadius = minPerihelionMultiple * q
	}
	return math.Acosh((maxRadius/a + 1) / e)
}

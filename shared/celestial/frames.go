package celestial

import (
	"math"

	"gonum.org/v1/gonum/mat"
)

// rotZ is the active rotation by theta about the third axis.
func rotZ(theta float64) *mat.Dense {
	s, c := math.Sincos(theta)
	return mat.NewDense(3, 3, []float64{
		c, -s, 0,
		s, c, 0,
		0, 0, 1,
	})
}

// rotX is the active rotation by theta about the first axis.
func rotX(theta float64) *mat.Dense {
	s, c := math.Sincos(theta)
	return mat.NewDense(3, 3, []float64{
		1, 0, 0,
		0, c, -s,
		0, s, c,
	})
}

// orbitalToEcliptic builds Rz(node) * Rx(incl) * Rz(argPeri), the perifocal to
// heliocentric ecliptic rotation. All angles in radians.
func orbitalToEcliptic(argPeri, incl, node float64) *mat.Dense {
	var tmp, r mat.Dense
	tmp.Mul(rotX(incl), rotZ(argPeri))
	r.Mul(rotZ(node), &tmp)
	return &r
}

// rotate applies the perifocal to ecliptic rotation to an in-plane point.
func rotate(p PropagatedElements, xOrb, yOrb float64) Vector3 {
	w := degToRad(p.ArgumentOfPerihelionDeg())
	i := degToRad(p.InclinationDeg)
	node := degToRad(NormalizeDegrees(p.LongitudeOfAscendingNodeDeg))

	var out mat.VecDense
	out.MulVec(orbitalToEcliptic(w, i, node), mat.NewVecDense(3, []float64{xOrb, yOrb, 0}))
	return Vector3{X: out.AtVec(0), Y: out.AtVec(1), Z: out.AtVec(2)}
}

// ToCartesian returns the heliocentric ecliptic position (AU) for propagated elements.
// Axis remapping for a renderer is left to the caller.
//
// A *ConvergenceError is returned together with a usable best-estimate vector; any
// other error comes with the zero vector.
func ToCartesian(p PropagatedElements) (Vector3, error) {
	e := p.Eccentricity
	a := p.SemiMajorAxisAU

	switch {
	case e < 1:
		M := degToRad(p.MeanAnomalyDeg())
		E, err := SolveEccentricAnomaly(e, M)
		if err != nil && !isConvergenceWarning(err) {
			return Vector3{}, err
		}
		sinE, cosE := math.Sincos(E)
		xOrb := a * (cosE - e)
		yOrb := a * math.Sqrt(1-e*e) * sinE
		return rotate(p, xOrb, yOrb), err

	case e > 1:
		// Not normalised: the hyperbolic mean anomaly grows without bound.
		M := degToRad(p.MeanLongitudeDeg - p.LongitudeOfPerihelionDeg)
		H, err := SolveHyperbolicAnomaly(e, M)
		if err != nil && !isConvergenceWarning(err) {
			return Vector3{}, err
		}
		xOrb := a * (e - math.Cosh(H))
		yOrb := a * math.Sqrt(e*e-1) * math.Sinh(H)
		return rotate(p, xOrb, yOrb), err
	}

	return Vector3{}, &RegimeError{Eccentricity: e, Op: "frame transform"}
}

// PositionAt is the full pipeline for one body: propagate then transform.
func PositionAt(elements OrbitalElementSet, instant float64) (Vector3, error) {
	p, err := Propagate(elements, instant)
	if err != nil {
		return Vector3{}, err
	}
	return ToCartesian(p)
}

func isConvergenceWarning(err error) bool {
	_, ok := err.(*ConvergenceError)
	return ok
}

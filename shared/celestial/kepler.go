package celestial

import (
	"math"
)

const (
	// keplerMaxIterations bounds every Newton-Raphson loop in this file.
	keplerMaxIterations = 100
	// keplerTolerance is the step size (radians) at which an iteration has converged.
	keplerTolerance = 1e-8
	// derivativeFloor stops the iteration before dividing by a near-zero slope.
	derivativeFloor = 1e-10
	// highEccentricitySeed is the eccentricity from which the elliptic solver seeds at pi.
	highEccentricitySeed = 0.8
)

// SolveEccentricAnomaly inverts Kepler's equation M = E - e*sin(E) for 0 <= e < 1.
//
// The mean anomaly is normalised into (-pi, pi] first. When the iteration cap is hit
// the best estimate is returned together with a *ConvergenceError; callers may render
// the approximate position.
func SolveEccentricAnomaly(e, M float64) (float64, error) {
	return solveEccentric(e, M, keplerMaxIterations)
}

func solveEccentric(e, M float64, maxIter int) (float64, error) {
	if !isFinite(e) || e < 0 || e >= 1 {
		return math.NaN(), &RegimeError{Eccentricity: e, Op: "elliptic Kepler solver"}
	}
	if !isFinite(M) {
		return math.NaN(), &InvalidElementsError{Field: "mean_anomaly", Value: M}
	}
	M = NormalizeMeanAnomaly(M)

	E := M
	if e >= highEccentricitySeed {
		// High eccentricity orbits converge poorly from the mean-anomaly seed. The
		// solution is odd in M, so seed at pi on the side of M.
		E = math.Copysign(math.Pi, M)
	}

	for iter := 0; iter < maxIter; iter++ {
		slope := 1.0 - e*math.Cos(E)
		if math.Abs(slope) < derivativeFloor {
			return E, nil
		}
		delta := (E - e*math.Sin(E) - M) / slope
		E -= delta
		if math.Abs(delta) <= keplerTolerance {
			return E, nil
		}
	}

	return E, &ConvergenceError{Eccentricity: e, MeanAnomaly: M, Estimate: E, Iterations: maxIter}
}

// SolveHyperbolicAnomaly inverts the hyperbolic Kepler equation M = e*sinh(H) - H for
// e > 1. M is not periodic here and is used as given.
func SolveHyperbolicAnomaly(e, M float64) (float64, error) {
	return solveHyperbolic(e, M, keplerMaxIterations)
}

func solveHyperbolic(e, M float64, maxIter int) (float64, error) {
	if !isFinite(e) || e <= 1 {
		return math.NaN(), &RegimeError{Eccentricity: e, Op: "hyperbolic Kepler solver"}
	}
	if !isFinite(M) {
		return math.NaN(), &InvalidElementsError{Field: "mean_anomaly", Value: M}
	}
	if M == 0 {
		return 0, nil
	}

	// H(-M) = -H(M); solve on the positive branch where the equation is convex, so
	// Newton steps from a seed above the root never overshoot.
	sign, m := 1.0, M
	if M < 0 {
		sign, m = -1, -M
	}
	H := hyperbolicSeed(e, m)

	for iter := 0; iter < maxIter; iter++ {
		if !isFinite(H) {
			return sign * H, &ConvergenceError{Eccentricity: e, MeanAnomaly: M, Estimate: sign * H, Iterations: iter}
		}
		slope := e*math.Cosh(H) - 1.0
		if math.Abs(slope) < derivativeFloor {
			return sign * H, nil
		}
		delta := (e*math.Sinh(H) - H - m) / slope
		H -= delta
		if math.Abs(delta) <= keplerTolerance {
			return sign * H, nil
		}
	}

	return sign * H, &ConvergenceError{Eccentricity: e, MeanAnomaly: M, Estimate: sign * H, Iterations: maxIter}
}

// hyperbolicSeed returns an upper bound on the root for m > 0. Both candidates bound
// it from above: e*sinh(H) - H >= e*H^3/6, and H = asinh((m+H)/e) is increasing in H
// starting from the bound asinh(m/(e-1)).
func hyperbolicSeed(e, m float64) float64 {
	cubic := math.Cbrt(6 * m / e)
	upper := math.Asinh(m / (e - 1))
	return math.Min(cubic, math.Asinh((m+upper)/e))
}

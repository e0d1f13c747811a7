// Package celestial holds the orbital element model and the numerical kernel that turns
// elements into heliocentric ecliptic positions and orbit paths.
package celestial

import (
	"math"
)

// Astronomical constants
const (
	AU               = 149597870.7 // Astronomical unit in kilometers
	DAYS_PER_CENTURY = 36525.0     // Days in a Julian century (365.25 * 100)
	DAYS_PER_YEAR    = 365.25      // Days in a Julian year
	J2000_EPOCH      = 2451545.0   // J2000 epoch in Julian days (January 1, 2000, 12:00 TT)
)

// BodyKind classifies a catalog body. The core never branches on it; it is carried
// through for the rendering side.
type BodyKind int

const (
	Planet BodyKind = iota
	Asteroid
	Comet
	NearEarthObject
	Interstellar
)

var bodyKindNames = [...]string{
	Planet:          "planet",
	Asteroid:        "asteroid",
	Comet:           "comet",
	NearEarthObject: "neo",
	Interstellar:    "interstellar",
}

func (k BodyKind) String() string {
	if k < 0 || int(k) >= len(bodyKindNames) {
		return "unknown"
	}
	return bodyKindNames[k]
}

// ParseBodyKind maps a kind name (as produced by String) back to a BodyKind.
func ParseBodyKind(s string) (BodyKind, bool) {
	switch s {
	case "planet":
		return Planet, true
	case "asteroid", "dwarf_planet":
		return Asteroid, true
	case "comet":
		return Comet, true
	case "neo", "near_earth_object":
		return NearEarthObject, true
	case "interstellar":
		return Interstellar, true
	}
	return 0, false
}

// MarshalText implements encoding.TextMarshaler.
func (k BodyKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *BodyKind) UnmarshalText(b []byte) error {
	parsed, ok := ParseBodyKind(string(b))
	if !ok {
		return &UnknownKindError{Kind: string(b)}
	}
	*k = parsed
	return nil
}

// OrbitalElementSet holds reference-epoch (J2000) elements and their secular rates.
// Angles are in degrees, rates are per Julian century.
// For e > 1 the semi-major axis is stored as its magnitude.
type OrbitalElementSet struct {
	SemiMajorAxisAU   float64 `json:"a" yaml:"a"`
	SemiMajorAxisRate float64 `json:"a_rate,omitempty" yaml:"a_rate"`

	Eccentricity     float64 `json:"e" yaml:"e"`
	EccentricityRate float64 `json:"e_rate,omitempty" yaml:"e_rate"`

	InclinationDeg  float64 `json:"i" yaml:"i"`
	InclinationRate float64 `json:"i_rate,omitempty" yaml:"i_rate"`

	MeanLongitudeDeg  float64 `json:"L" yaml:"L"`
	MeanLongitudeRate float64 `json:"L_rate,omitempty" yaml:"L_rate"`

	LongitudeOfPerihelionDeg  float64 `json:"long_peri" yaml:"long_peri"`
	LongitudeOfPerihelionRate float64 `json:"long_peri_rate,omitempty" yaml:"long_peri_rate"`

	LongitudeOfAscendingNodeDeg  float64 `json:"long_node" yaml:"long_node"`
	LongitudeOfAscendingNodeRate float64 `json:"long_node_rate,omitempty" yaml:"long_node_rate"`
}

// IsPeriodic reports whether the reference orbit is bound (e < 1).
func (el OrbitalElementSet) IsPeriodic() bool {
	return el.Eccentricity < 1
}

// PeriodDays returns the heliocentric orbital period from Kepler's third law
// (P = a^1.5 years). Non-periodic orbits return +Inf.
func (el OrbitalElementSet) PeriodDays() float64 {
	if !el.IsPeriodic() {
		return math.Inf(1)
	}
	return math.Pow(el.SemiMajorAxisAU, 1.5) * DAYS_PER_YEAR
}

// PerihelionAU returns the perihelion distance q.
func (el OrbitalElementSet) PerihelionAU() float64 {
	if el.IsPeriodic() {
		return el.SemiMajorAxisAU * (1 - el.Eccentricity)
	}
	return el.SemiMajorAxisAU * (el.Eccentricity - 1)
}

// AphelionAU returns the aphelion distance, +Inf for non-periodic orbits.
func (el OrbitalElementSet) AphelionAU() float64 {
	if !el.IsPeriodic() {
		return math.Inf(1)
	}
	return el.SemiMajorAxisAU * (1 + el.Eccentricity)
}

// CelestialBody is an identified catalog entry. It is built once by the ingestion side
// and never mutated afterwards.
type CelestialBody struct {
	ID       string            `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Kind     BodyKind          `json:"kind" yaml:"kind"`
	Elements OrbitalElementSet `json:"elements" yaml:"elements"`
}

// Vector3 represents a standard 3D vector with X, Y, Z components.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Subtract performs vector subtraction (v - other).
func (v Vector3) Subtract(other Vector3) Vector3 {
	return Vector3{
		X: v.X - other.X,
		Y: v.Y - other.Y,
		Z: v.Z - other.Z,
	}
}

// Magnitude calculates the Euclidean length of the vector.
func (v Vector3) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y + v.Z*v.Z)
}

// IsFinite reports whether every component is a finite number.
func (v Vector3) IsFinite() bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Convert degrees to radians
func degToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// NormalizeDegrees ensures an angle is in the range [0, 360) degrees.
func NormalizeDegrees(angle float64) float64 {
	angle = math.Mod(angle, 360.0)
	if angle < 0 {
		angle += 360.0
	}
	return angle
}

// normalizeSignedDegrees maps an angle into (-180, 180].
func normalizeSignedDegrees(angle float64) float64 {
	angle = math.Mod(angle, 360.0)
	if angle > 180 {
		angle -= 360
	} else if angle <= -180 {
		angle += 360
	}
	return angle
}

// NormalizeMeanAnomaly maps an angle in radians into (-pi, pi].
// An input of exactly -pi maps to pi.
func NormalizeMeanAnomaly(m float64) float64 {
	m = math.Mod(m, 2*math.Pi)
	if m > math.Pi {
		m -= 2 * math.Pi
	} else if m <= -math.Pi {
		m += 2 * math.Pi
	}
	return m
}

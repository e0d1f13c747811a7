package celestial

// PropagatedElements are the six elements evaluated at one instant. They are derived
// per query and owned by the caller.
type PropagatedElements struct {
	Instant float64 // Julian Date the elements were evaluated at

	SemiMajorAxisAU             float64
	Eccentricity                float64
	InclinationDeg              float64
	MeanLongitudeDeg            float64
	LongitudeOfPerihelionDeg    float64
	LongitudeOfAscendingNodeDeg float64
}

// ArgumentOfPerihelionDeg returns omega = varpi - Omega in [0, 360).
func (p PropagatedElements) ArgumentOfPerihelionDeg() float64 {
	return NormalizeDegrees(p.LongitudeOfPerihelionDeg - p.LongitudeOfAscendingNodeDeg)
}

// MeanAnomalyDeg returns M = L - varpi in (-180, 180].
func (p PropagatedElements) MeanAnomalyDeg() float64 {
	return normalizeSignedDegrees(p.MeanLongitudeDeg - p.LongitudeOfPerihelionDeg)
}

// IsPeriodic reports whether the propagated orbit is bound.
func (p PropagatedElements) IsPeriodic() bool {
	return p.Eccentricity < 1
}

// CenturiesSinceJ2000 converts a Julian Date into Julian centuries from J2000.
func CenturiesSinceJ2000(instant float64) float64 {
	return (instant - J2000_EPOCH) / DAYS_PER_CENTURY
}

// Propagate evaluates the elements at instant with their linear secular rates.
// Validation runs before any arithmetic so NaN never reaches the trigonometry
// downstream.
func Propagate(elements OrbitalElementSet, instant float64) (PropagatedElements, error) {
	if !isFinite(instant) {
		return PropagatedElements{}, &InvalidElementsError{Field: "instant", Value: instant}
	}
	if err := elements.Validate(); err != nil {
		return PropagatedElements{}, err
	}

	T := CenturiesSinceJ2000(instant)
	p := PropagatedElements{
		Instant:                     instant,
		SemiMajorAxisAU:             elements.SemiMajorAxisAU + elements.SemiMajorAxisRate*T,
		Eccentricity:                elements.Eccentricity + elements.EccentricityRate*T,
		InclinationDeg:              elements.InclinationDeg + elements.InclinationRate*T,
		MeanLongitudeDeg:            elements.MeanLongitudeDeg + elements.MeanLongitudeRate*T,
		LongitudeOfPerihelionDeg:    elements.LongitudeOfPerihelionDeg + elements.LongitudeOfPerihelionRate*T,
		LongitudeOfAscendingNodeDeg: elements.LongitudeOfAscendingNodeDeg + elements.LongitudeOfAscendingNodeRate*T,
	}
	// Finite inputs can still overflow for absurd instants.
	for _, f := range p.fields() {
		if !isFinite(f.value) {
			return PropagatedElements{}, &InvalidElementsError{Field: f.name, Value: f.value}
		}
	}
	if p.Eccentricity < 0 {
		return PropagatedElements{}, &InvalidElementsError{Field: "eccentricity", Value: p.Eccentricity}
	}
	return p, nil
}

// Validate checks that every field is finite and the eccentricity is non-negative.
func (el OrbitalElementSet) Validate() error {
	for _, f := range el.fields() {
		if !isFinite(f.value) {
			return &InvalidElementsError{Field: f.name, Value: f.value}
		}
	}
	if el.Eccentricity < 0 {
		return &InvalidElementsError{Field: "eccentricity", Value: el.Eccentricity}
	}
	return nil
}

type namedField struct {
	name  string
	value float64
}

func (el OrbitalElementSet) fields() [12]namedField {
	return [12]namedField{
		{"semi_major_axis_au", el.SemiMajorAxisAU},
		{"semi_major_axis_rate", el.SemiMajorAxisRate},
		{"eccentricity", el.Eccentricity},
		{"eccentricity_rate", el.EccentricityRate},
		{"inclination_deg", el.InclinationDeg},
		{"inclination_rate", el.InclinationRate},
		{"mean_longitude_deg", el.MeanLongitudeDeg},
		{"mean_longitude_rate", el.MeanLongitudeRate},
		{"longitude_of_perihelion_deg", el.LongitudeOfPerihelionDeg},
		{"longitude_of_perihelion_rate", el.LongitudeOfPerihelionRate},
		{"longitude_of_ascending_node_deg", el.LongitudeOfAscendingNodeDeg},
		{"longitude_of_ascending_node_rate", el.LongitudeOfAscendingNodeRate},
	}
}

func (p PropagatedElements) fields() [6]namedField {
	return [6]namedField{
		{"semi_major_axis_au", p.SemiMajorAxisAU},
		{"eccentricity", p.Eccentricity},
		{"inclination_deg", p.InclinationDeg},
		{"mean_longitude_deg", p.MeanLongitudeDeg},
		{"longitude_of_perihelion_deg", p.LongitudeOfPerihelionDeg},
		{"longitude_of_ascending_node_deg", p.LongitudeOfAscendingNodeDeg},
	}
}

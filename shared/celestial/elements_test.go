package celestial

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/floats/scalar"
)

// earthElements are the JPL approximate elements for the Earth-Moon barycenter.
var earthElements = OrbitalElementSet{
	SemiMajorAxisAU:              1.00000261,
	SemiMajorAxisRate:            0.00000562,
	Eccentricity:                 0.01671123,
	EccentricityRate:             -0.00004392,
	InclinationDeg:               -0.00001531,
	InclinationRate:              -0.01294668,
	MeanLongitudeDeg:             100.46457166,
	MeanLongitudeRate:            35999.37244981,
	LongitudeOfPerihelionDeg:     102.93768193,
	LongitudeOfPerihelionRate:    0.32327364,
	LongitudeOfAscendingNodeDeg:  0,
	LongitudeOfAscendingNodeRate: 0,
}

func TestPropagateAtEpochReturnsBase(t *testing.T) {
	p, err := Propagate(earthElements, J2000_EPOCH)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.SemiMajorAxisAU != earthElements.SemiMajorAxisAU ||
		p.Eccentricity != earthElements.Eccentricity ||
		p.MeanLongitudeDeg != earthElements.MeanLongitudeDeg {
		t.Errorf("propagation at J2000 changed the elements: %+v", p)
	}
	if p.Instant != J2000_EPOCH {
		t.Errorf("Instant = %v, want %v", p.Instant, J2000_EPOCH)
	}
}

func TestPropagateLinearRates(t *testing.T) {
	// one century later every element moves by exactly its rate
	p, err := Propagate(earthElements, J2000_EPOCH+DAYS_PER_CENTURY)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	checks := []struct {
		name      string
		got, want float64
	}{
		{"a", p.SemiMajorAxisAU, earthElements.SemiMajorAxisAU + earthElements.SemiMajorAxisRate},
		{"e", p.Eccentricity, earthElements.Eccentricity + earthElements.EccentricityRate},
		{"i", p.InclinationDeg, earthElements.InclinationDeg + earthElements.InclinationRate},
		{"L", p.MeanLongitudeDeg, earthElements.MeanLongitudeDeg + earthElements.MeanLongitudeRate},
		{"varpi", p.LongitudeOfPerihelionDeg, earthElements.LongitudeOfPerihelionDeg + earthElements.LongitudeOfPerihelionRate},
		{"node", p.LongitudeOfAscendingNodeDeg, earthElements.LongitudeOfAscendingNodeDeg},
	}
	for _, c := range checks {
		if !scalar.EqualWithinAbs(c.got, c.want, 1e-9) {
			t.Errorf("%s = %v, want %v", c.name, c.got, c.want)
		}
	}
}

func TestPropagateDerivedAngles(t *testing.T) {
	p := PropagatedElements{
		MeanLongitudeDeg:            10,
		LongitudeOfPerihelionDeg:    350,
		LongitudeOfAscendingNodeDeg: 20,
	}
	if got := p.ArgumentOfPerihelionDeg(); !scalar.EqualWithinAbs(got, 330, 1e-12) {
		t.Errorf("ArgumentOfPerihelionDeg = %v, want 330", got)
	}
	if got := p.MeanAnomalyDeg(); !scalar.EqualWithinAbs(got, 20, 1e-12) {
		t.Errorf("MeanAnomalyDeg = %v, want 20", got)
	}
	p.MeanLongitudeDeg = 170
	p.LongitudeOfPerihelionDeg = -10
	if got := p.MeanAnomalyDeg(); got != 180 {
		t.Errorf("MeanAnomalyDeg at the boundary = %v, want 180", got)
	}
}

func TestPropagateRejectsInvalidElements(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)

	testCases := []struct {
		name    string
		mutate  func(*OrbitalElementSet)
		instant float64
		field   string
	}{
		{"NaN eccentricity", func(el *OrbitalElementSet) { el.Eccentricity = nan }, J2000_EPOCH, "eccentricity"},
		{"negative eccentricity", func(el *OrbitalElementSet) { el.Eccentricity = -0.1 }, J2000_EPOCH, "eccentricity"},
		{"infinite semi-major axis", func(el *OrbitalElementSet) { el.SemiMajorAxisAU = inf }, J2000_EPOCH, "semi_major_axis_au"},
		{"NaN node rate", func(el *OrbitalElementSet) { el.LongitudeOfAscendingNodeRate = nan }, J2000_EPOCH, "longitude_of_ascending_node_rate"},
		{"non-finite instant", func(el *OrbitalElementSet) {}, nan, "instant"},
		{"rate drives eccentricity negative", func(el *OrbitalElementSet) { el.EccentricityRate = -1 }, J2000_EPOCH + DAYS_PER_CENTURY, "eccentricity"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			el := earthElements
			tc.mutate(&el)
			p, err := Propagate(el, tc.instant)
			if !errors.Is(err, ErrInvalidElements) {
				t.Fatalf("expected ErrInvalidElements, got %v", err)
			}
			var invalid *InvalidElementsError
			if !errors.As(err, &invalid) {
				t.Fatalf("expected *InvalidElementsError, got %T", err)
			}
			if invalid.Field != tc.field {
				t.Errorf("Field = %q, want %q", invalid.Field, tc.field)
			}
			if p != (PropagatedElements{}) {
				t.Errorf("expected zero PropagatedElements on error, got %+v", p)
			}
		})
	}
}

func TestElementSetDerivedQuantities(t *testing.T) {
	el := OrbitalElementSet{SemiMajorAxisAU: 4, Eccentricity: 0.25}
	if !el.IsPeriodic() {
		t.Fatal("e=0.25 should be periodic")
	}
	if got := el.PeriodDays(); !scalar.EqualWithinAbs(got, 8*DAYS_PER_YEAR, 1e-9) {
		t.Errorf("PeriodDays = %v, want %v", got, 8*DAYS_PER_YEAR)
	}
	if got := el.PerihelionAU(); got != 3 {
		t.Errorf("PerihelionAU = %v, want 3", got)
	}
	if got := el.AphelionAU(); got != 5 {
		t.Errorf("AphelionAU = %v, want 5", got)
	}

	hyp := OrbitalElementSet{SemiMajorAxisAU: 1.272, Eccentricity: 1.2}
	if hyp.IsPeriodic() {
		t.Fatal("e=1.2 should not be periodic")
	}
	if !math.IsInf(hyp.PeriodDays(), 1) || !math.IsInf(hyp.AphelionAU(), 1) {
		t.Error("non-periodic orbit should report infinite period and aphelion")
	}
	if got := hyp.PerihelionAU(); !scalar.EqualWithinAbs(got, 0.2544, 1e-12) {
		t.Errorf("PerihelionAU = %v, want 0.2544", got)
	}
}

func TestBodyKindText(t *testing.T) {
	for _, k := range []BodyKind{Planet, Asteroid, Comet, NearEarthObject, Interstellar} {
		b, _ := k.MarshalText()
		var back BodyKind
		if err := back.UnmarshalText(b); err != nil {
			t.Fatalf("UnmarshalText(%q): %v", b, err)
		}
		if back != k {
			t.Errorf("kind %v did not survive text encoding, got %v", k, back)
		}
	}
	var k BodyKind
	if err := k.UnmarshalText([]byte("moon")); err == nil {
		t.Error("expected an error for an unknown kind")
	}
}

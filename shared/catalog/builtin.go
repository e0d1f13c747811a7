package catalog

import (
	"latency.space/orrery/shared/celestial"
)

// Builtin returns the default catalog: the eight planets with JPL secular elements
// (valid 1800-2050), plus dwarf planets, asteroids, near-Earth objects, comets and the
// two known interstellar objects from osculating elements.
func Builtin() []celestial.CelestialBody {
	bodies := make([]celestial.CelestialBody, 0, len(planets)+len(minorBodies))
	bodies = append(bodies, planets...)
	for _, m := range minorBodies {
		bodies = append(bodies, celestial.CelestialBody{
			ID:       m.id,
			Name:     m.name,
			Kind:     m.kind,
			Elements: mustElementSet(m.id, m.osc),
		})
	}
	return bodies
}

func mustElementSet(id string, o Osculating) celestial.OrbitalElementSet {
	el, err := o.ElementSet()
	if err != nil {
		panic("catalog: builtin body " + id + ": " + err.Error())
	}
	return el
}

// Keplerian elements for approximate positions of the major planets, E.M. Standish (JPL).
var planets = []celestial.CelestialBody{
	// Mercury
	{
		ID: "mercury", Name: "Mercury", Kind: celestial.Planet,
		Elements: celestial.OrbitalElementSet{
			SemiMajorAxisAU: 0.38709927, SemiMajorAxisRate: 0.00000037,
			Eccentricity: 0.20563593, EccentricityRate: 0.00001906,
			InclinationDeg: 7.00497902, InclinationRate: -0.00594749,
			MeanLongitudeDeg: 252.25032350, MeanLongitudeRate: 149472.67411175,
			LongitudeOfPerihelionDeg: 77.45779628, LongitudeOfPerihelionRate: 0.16047689,
			LongitudeOfAscendingNodeDeg: 48.33076593, LongitudeOfAscendingNodeRate: -0.12534081,
		},
	},
	// Venus
	{
		ID: "venus", Name: "Venus", Kind: celestial.Planet,
		Elements: celestial.OrbitalElementSet{
			SemiMajorAxisAU: 0.72333566, SemiMajorAxisRate: 0.00000390,
			Eccentricity: 0.00677672, EccentricityRate: -0.00004107,
			InclinationDeg: 3.39467605, InclinationRate: -0.00078890,
			MeanLongitudeDeg: 181.97909950, MeanLongitudeRate: 58517.81538729,
			LongitudeOfPerihelionDeg: 131.60246718, LongitudeOfPerihelionRate: 0.00268329,
			LongitudeOfAscendingNodeDeg: 76.67984255, LongitudeOfAscendingNodeRate: -0.27769418,
		},
	},
	// Earth-Moon barycenter
	{
		ID: "earth", Name: "Earth", Kind: celestial.Planet,
		Elements: celestial.OrbitalElementSet{
			SemiMajorAxisAU: 1.00000261, SemiMajorAxisRate: 0.00000562,
			Eccentricity: 0.01671123, EccentricityRate: -0.00004392,
			InclinationDeg: -0.00001531, InclinationRate: -0.01294668,
			MeanLongitudeDeg: 100.46457166, MeanLongitudeRate: 35999.37244981,
			LongitudeOfPerihelionDeg: 102.93768193, LongitudeOfPerihelionRate: 0.32327364,
		},
	},
	// Mars
	{
		ID: "mars", Name: "Mars", Kind: celestial.Planet,
		Elements: celestial.OrbitalElementSet{
			SemiMajorAxisAU: 1.52371034, SemiMajorAxisRate: 0.00001847,
			Eccentricity: 0.09339410, EccentricityRate: 0.00007882,
			InclinationDeg: 1.84969142, InclinationRate: -0.00813131,
			MeanLongitudeDeg: -4.55343205, MeanLongitudeRate: 19140.30268499,
			LongitudeOfPerihelionDeg: -23.94362959, LongitudeOfPerihelionRate: 0.44441088,
			LongitudeOfAscendingNodeDeg: 49.55953891, LongitudeOfAscendingNodeRate: -0.29257343,
		},
	},
	// Jupiter
	{
		ID: "jupiter", Name: "Jupiter", Kind: celestial.Planet,
		Elements: celestial.OrbitalElementSet{
			SemiMajorAxisAU: 5.20288700, SemiMajorAxisRate: -0.00011607,
			Eccentricity: 0.04838624, EccentricityRate: -0.00013253,
			InclinationDeg: 1.30439695, InclinationRate: -0.00183714,
			MeanLongitudeDeg: 34.39644051, MeanLongitudeRate: 3034.74612775,
			LongitudeOfPerihelionDeg: 14.72847983, LongitudeOfPerihelionRate: 0.21252668,
			LongitudeOfAscendingNodeDeg: 100.47390909, LongitudeOfAscendingNodeRate: 0.20469106,
		},
	},
	// Saturn
	{
		ID: "saturn", Name: "Saturn", Kind: celestial.Planet,
		Elements: celestial.OrbitalElementSet{
			SemiMajorAxisAU: 9.53667594, SemiMajorAxisRate: -0.00125060,
			Eccentricity: 0.05386179, EccentricityRate: -0.00050991,
			InclinationDeg: 2.48599187, InclinationRate: 0.00193609,
			MeanLongitudeDeg: 49.95424423, MeanLongitudeRate: 1222.49362201,
			LongitudeOfPerihelionDeg: 92.59887831, LongitudeOfPerihelionRate: -0.41897216,
			LongitudeOfAscendingNodeDeg: 113.66242448, LongitudeOfAscendingNodeRate: -0.28867794,
		},
	},
	// Uranus
	{
		ID: "uranus", Name: "Uranus", Kind: celestial.Planet,
		Elements: celestial.OrbitalElementSet{
			SemiMajorAxisAU: 19.18916464, SemiMajorAxisRate: -0.00196176,
			Eccentricity: 0.04725744, EccentricityRate: -0.00004397,
			InclinationDeg: 0.77263783, InclinationRate: -0.00242939,
			MeanLongitudeDeg: 313.23810451, MeanLongitudeRate: 428.48202785,
			LongitudeOfPerihelionDeg: 170.95427630, LongitudeOfPerihelionRate: 0.40805281,
			LongitudeOfAscendingNodeDeg: 74.01692503, LongitudeOfAscendingNodeRate: 0.04240589,
		},
	},
	// Neptune
	{
		ID: "neptune", Name: "Neptune", Kind: celestial.Planet,
		Elements: celestial.OrbitalElementSet{
			SemiMajorAxisAU: 30.06992276, SemiMajorAxisRate: 0.00026291,
			Eccentricity: 0.00859048, EccentricityRate: 0.00005105,
			InclinationDeg: 1.77004347, InclinationRate: 0.00035372,
			MeanLongitudeDeg: -55.12002969, MeanLongitudeRate: 218.45945325,
			LongitudeOfPerihelionDeg: 44.96476227, LongitudeOfPerihelionRate: -0.32241464,
			LongitudeOfAscendingNodeDeg: 131.78422574, LongitudeOfAscendingNodeRate: -0.00508664,
		},
	},
	// Pluto is in the same JPL table but catalogued with the dwarf planets.
	{
		ID: "pluto", Name: "Pluto", Kind: celestial.Asteroid,
		Elements: celestial.OrbitalElementSet{
			SemiMajorAxisAU: 39.48211675, SemiMajorAxisRate: -0.00031596,
			Eccentricity: 0.24882730, EccentricityRate: 0.00005170,
			InclinationDeg: 17.14001206, InclinationRate: 0.00004818,
			MeanLongitudeDeg: 238.92903833, MeanLongitudeRate: 145.20780515,
			LongitudeOfPerihelionDeg: 224.06891629, LongitudeOfPerihelionRate: -0.04062942,
			LongitudeOfAscendingNodeDeg: 110.30393684, LongitudeOfAscendingNodeRate: -0.01183482,
		},
	},
}

type minorBody struct {
	id, name string
	kind     celestial.BodyKind
	osc      Osculating
}

// osculating epoch for the asteroid entries (2024-Oct-17.0 TDB)
const asteroidEpoch = 2460600.5

var minorBodies = []minorBody{
	// DWARF PLANETS
	{"ceres", "Ceres", celestial.Asteroid, Osculating{A: 2.7670, E: 0.0789, I: 10.588, Node: 80.25, ArgPerihelion: 73.30, MeanAnomaly: 145.8, Epoch: asteroidEpoch}},
	{"eris", "Eris", celestial.Asteroid, Osculating{A: 67.86, E: 0.4365, I: 44.04, Node: 35.95, ArgPerihelion: 150.98, MeanAnomaly: 205.99, Epoch: asteroidEpoch}},
	{"haumea", "Haumea", celestial.Asteroid, Osculating{A: 43.12, E: 0.1957, I: 28.21, Node: 121.80, ArgPerihelion: 240.89, MeanAnomaly: 218.2, Epoch: asteroidEpoch}},
	{"makemake", "Makemake", celestial.Asteroid, Osculating{A: 45.51, E: 0.1604, I: 29.03, Node: 79.27, ArgPerihelion: 297.08, MeanAnomaly: 168.8, Epoch: asteroidEpoch}},

	// ASTEROIDS
	// Some notable main belt asteroids
	{"vesta", "Vesta", celestial.Asteroid, Osculating{A: 2.3615, E: 0.0902, I: 7.144, Node: 103.70, ArgPerihelion: 151.54, MeanAnomaly: 26.8, Epoch: asteroidEpoch}},
	{"pallas", "Pallas", celestial.Asteroid, Osculating{A: 2.7702, E: 0.2303, I: 34.93, Node: 172.89, ArgPerihelion: 310.93, MeanAnomaly: 22.2, Epoch: asteroidEpoch}},
	{"hygiea", "Hygiea", celestial.Asteroid, Osculating{A: 3.1418, E: 0.1087, I: 3.831, Node: 283.14, ArgPerihelion: 311.98, MeanAnomaly: 2.4, Epoch: asteroidEpoch}},

	// Near-Earth asteroids
	{"apophis", "99942 Apophis", celestial.NearEarthObject, Osculating{A: 0.9224, E: 0.1911, I: 3.336, Node: 204.04, ArgPerihelion: 126.68, MeanAnomaly: 142.6, Epoch: asteroidEpoch}},
	{"bennu", "101955 Bennu", celestial.NearEarthObject, Osculating{A: 1.1264, E: 0.2037, I: 6.035, Node: 2.061, ArgPerihelion: 66.22, MeanAnomaly: 101.7, Epoch: asteroidEpoch}},
	{"eros", "433 Eros", celestial.NearEarthObject, Osculating{A: 1.4579, E: 0.2229, I: 10.83, Node: 304.29, ArgPerihelion: 178.93, MeanAnomaly: 310.6, Epoch: asteroidEpoch}},

	// COMETS
	{"1p-halley", "1P/Halley", celestial.Comet, Osculating{Q: 0.5860, E: 0.96714, I: 162.262, Node: 58.420, ArgPerihelion: 111.332, PerihelionTime: 2446467.395}},
	{"2p-encke", "2P/Encke", celestial.Comet, Osculating{Q: 0.3393, E: 0.8470, I: 11.34, Node: 334.02, ArgPerihelion: 187.28, PerihelionTime: 2460240.0}},
	{"67p", "67P/Churyumov-Gerasimenko", celestial.Comet, Osculating{Q: 1.2103, E: 0.6497, I: 3.87, Node: 36.33, ArgPerihelion: 22.15, PerihelionTime: 2459520.2}},

	// INTERSTELLAR
	{"1i-oumuamua", "1I/'Oumuamua", celestial.Interstellar, Osculating{Q: 0.25591, E: 1.20113, I: 122.742, Node: 24.597, ArgPerihelion: 241.811, PerihelionTime: 2458006.007}},
	{"2i-borisov", "2I/Borisov", celestial.Interstellar, Osculating{Q: 2.00654, E: 3.35663, I: 44.053, Node: 308.149, ArgPerihelion: 209.124, PerihelionTime: 2458826.052}},
}

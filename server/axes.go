package server

import (
	"fmt"

	"latency.space/orrery/config"
	"latency.space/orrery/shared/celestial"
)

// axisMapper converts heliocentric ecliptic coordinates into the renderer's axes.
type axisMapper func(celestial.Vector3) celestial.Vector3

// yUp puts the ecliptic north pole on +Y for scene graphs with a Y-up convention.
func yUp(v celestial.Vector3) celestial.Vector3 {
	return celestial.Vector3{X: v.X, Y: v.Z, Z: -v.Y}
}

func ecliptic(v celestial.Vector3) celestial.Vector3 { return v }

func newAxisMapper(name string) (axisMapper, error) {
	switch name {
	case config.AxesYUp, "":
		return yUp, nil
	case config.AxesEcliptic:
		return ecliptic, nil
	}
	return nil, fmt.Errorf("unknown render axes %q", name)
}

func (m axisMapper) points(in []celestial.Vector3) []celestial.Vector3 {
	out := make([]celestial.Vector3, len(in))
	for i, v := range in {
		out[i] = m(v)
	}
	return out
}

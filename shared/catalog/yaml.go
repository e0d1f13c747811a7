package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"latency.space/orrery/shared/celestial"
)

// File is the on-disk catalog layout:
//
//	bodies:
//	  - id: ceres
//	    name: Ceres
//	    kind: asteroid
//	    osculating: {a: 2.767, e: 0.0789, i: 10.588, node: 80.25, arg_peri: 73.3, mean_anomaly: 145.8, epoch: 2460600.5}
//	  - id: mars
//	    kind: planet
//	    secular: {a: 1.52371034, e: 0.0933941, i: 1.84969142, L: -4.55343205, L_rate: 19140.30268499, long_peri: -23.94362959, long_node: 49.55953891}
//
// Exactly one of secular or osculating must be present per entry.
type File struct {
	Bodies []Entry `yaml:"bodies"`
}

type Entry struct {
	ID         string                       `yaml:"id"`
	Name       string                       `yaml:"name"`
	Kind       string                       `yaml:"kind"`
	Secular    *celestial.OrbitalElementSet `yaml:"secular"`
	Osculating *Osculating                  `yaml:"osculating"`
}

// Body converts the entry into a CelestialBody.
func (e Entry) Body() (celestial.CelestialBody, error) {
	kind, ok := celestial.ParseBodyKind(e.Kind)
	if !ok {
		return celestial.CelestialBody{}, &celestial.UnknownKindError{Kind: e.Kind}
	}
	id, name := e.ID, e.Name
	switch {
	case id == "" && name == "":
		return celestial.CelestialBody{}, errors.New("entry needs an id or a name")
	case id == "":
		id = BodyID(name)
	case name == "":
		name = id
	}
	body := celestial.CelestialBody{ID: id, Name: name, Kind: kind}

	switch {
	case e.Secular != nil && e.Osculating != nil:
		return celestial.CelestialBody{}, errors.New("both secular and osculating elements given")
	case e.Secular != nil:
		body.Elements = *e.Secular
	case e.Osculating != nil:
		el, err := e.Osculating.ElementSet()
		if err != nil {
			return celestial.CelestialBody{}, err
		}
		body.Elements = el
	default:
		return celestial.CelestialBody{}, errors.New("no orbital elements")
	}
	return body, nil
}

var idReplacer = strings.NewReplacer(" ", "-", "/", "-", "'", "", "(", "", ")", "")

// BodyID derives a URL-safe identifier from a display name:
// "1P/Halley" becomes "1p-halley", "Comet C/2020 F3 (NEOWISE)" becomes "comet-c-2020-f3-neowise".
func BodyID(name string) string {
	return strings.ToLower(idReplacer.Replace(strings.TrimSpace(name)))
}

// LoadYAML decodes a catalog file. Unknown keys are rejected so that a typo in an
// element name cannot silently become a zero.
func LoadYAML(r io.Reader) ([]celestial.CelestialBody, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var f File
	if err := dec.Decode(&f); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty catalog")
		}
		return nil, fmt.Errorf("decoding catalog: %w", err)
	}

	bodies := make([]celestial.CelestialBody, 0, len(f.Bodies))
	for i, entry := range f.Bodies {
		b, err := entry.Body()
		if err != nil {
			return nil, fmt.Errorf("catalog entry %d (%s): %w", i, entry.ID, err)
		}
		bodies = append(bodies, b)
	}
	return bodies, nil
}

// LoadFile reads a YAML catalog from path.
func LoadFile(path string) ([]celestial.CelestialBody, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening catalog: %w", err)
	}
	defer f.Close()
	return LoadYAML(f)
}

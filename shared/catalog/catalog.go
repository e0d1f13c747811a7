// Package catalog is the ingestion boundary: it turns catalog sources into immutable
// CelestialBody values and keeps the current set behind a lock.
package catalog

import (
	"errors"
	"fmt"
	"sync"

	"latency.space/orrery/shared/celestial"
)

// ErrUnknownBody is returned when an ID is not in the catalog.
var ErrUnknownBody = errors.New("unknown body")

// DuplicateIDError reports two catalog entries sharing an ID.
type DuplicateIDError struct {
	ID string
}

func (e *DuplicateIDError) Error() string {
	return fmt.Sprintf("duplicate body id %q", e.ID)
}

// Catalog is a concurrency-safe registry of bodies in insertion order.
type Catalog struct {
	mu      sync.RWMutex
	bodies  []celestial.CelestialBody
	byID    map[string]int
	version uint64
}

// New validates bodies and returns a catalog holding them.
func New(bodies []celestial.CelestialBody) (*Catalog, error) {
	c := &Catalog{}
	if err := c.Replace(bodies); err != nil {
		return nil, err
	}
	return c, nil
}

// Replace swaps the whole body set. On error the catalog is unchanged.
func (c *Catalog) Replace(bodies []celestial.CelestialBody) error {
	byID := make(map[string]int, len(bodies))
	for i, b := range bodies {
		if b.ID == "" {
			return fmt.Errorf("body %d (%s): empty id", i, b.Name)
		}
		if _, dup := byID[b.ID]; dup {
			return &DuplicateIDError{ID: b.ID}
		}
		if err := b.Elements.Validate(); err != nil {
			return fmt.Errorf("body %s: %w", b.ID, err)
		}
		byID[b.ID] = i
	}

	owned := make([]celestial.CelestialBody, len(bodies))
	copy(owned, bodies)

	c.mu.Lock()
	c.bodies = owned
	c.byID = byID
	c.version++
	c.mu.Unlock()
	return nil
}

// Get returns the body with the given ID.
func (c *Catalog) Get(id string) (celestial.CelestialBody, error) {
	b, _, err := c.Lookup(id)
	return b, err
}

// Lookup returns the body together with the catalog version it was read from.
func (c *Catalog) Lookup(id string) (celestial.CelestialBody, uint64, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	i, ok := c.byID[id]
	if !ok {
		return celestial.CelestialBody{}, c.version, fmt.Errorf("%w: %q", ErrUnknownBody, id)
	}
	return c.bodies[i], c.version, nil
}

// Bodies returns a copy of every body in catalog order.
func (c *Catalog) Bodies() []celestial.CelestialBody {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]celestial.CelestialBody, len(c.bodies))
	copy(out, c.bodies)
	return out
}

// ByKind returns the bodies of one kind in catalog order.
func (c *Catalog) ByKind(kind celestial.BodyKind) []celestial.CelestialBody {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []celestial.CelestialBody
	for _, b := range c.bodies {
		if b.Kind == kind {
			out = append(out, b)
		}
	}
	return out
}

func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.bodies)
}

// Version increases on every successful Replace.
func (c *Catalog) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Package ephemeris runs the per-frame pipeline: every catalog body is propagated and
// transformed at one shared instant, and orbit paths are served from a cache.
package ephemeris

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"latency.space/orrery/shared/catalog"
	"latency.space/orrery/shared/celestial"
)

// ErrNonFinitePosition marks a body whose position overflowed or went NaN. Such a body
// is skipped even when the solver only warned.
var ErrNonFinitePosition = errors.New("ephemeris: position is not finite")

// positionAt wraps celestial.PositionAt and rejects non-finite vectors.
func positionAt(elements celestial.OrbitalElementSet, instant float64) (celestial.Vector3, error) {
	v, err := celestial.PositionAt(elements, instant)
	if v.IsFinite() {
		return v, err
	}
	if err != nil {
		return v, fmt.Errorf("%w: %w", ErrNonFinitePosition, err)
	}
	return v, ErrNonFinitePosition
}

// Position is one body's place in a frame.
type Position struct {
	ID          string             `json:"id"`
	Name        string             `json:"name"`
	Kind        celestial.BodyKind `json:"kind"`
	Position    celestial.Vector3  `json:"position"`
	DistanceAU  float64            `json:"distance_au"`
	Approximate bool               `json:"approximate,omitempty"` // solver hit its iteration cap
}

// SkippedBody records a body left out of a frame and why.
type SkippedBody struct {
	ID     string `json:"id"`
	Reason string `json:"reason"`
}

// Frame is every computable body position at a single instant.
type Frame struct {
	Instant float64       `json:"instant"`
	Bodies  []Position    `json:"bodies"`
	Skipped []SkippedBody `json:"skipped,omitempty"`
}

// Observer receives per-frame statistics. The server's metrics collector implements it.
type Observer interface {
	ObserveFrame(duration time.Duration, computed, skipped, approximate int)
}

type Options struct {
	Workers     int     // concurrent body computations, 0 means GOMAXPROCS
	MaxRadiusAU float64 // cut-off for hyperbolic paths
	CacheSize   int
	Logger      log.Logger
	Observer    Observer
}

// Engine computes frames and paths for the bodies of a catalog.
type Engine struct {
	catalog   *catalog.Catalog
	workers   int
	maxRadius float64
	logger    log.Logger
	observer  Observer
	paths     *PathCache
}

func NewEngine(cat *catalog.Catalog, opts Options) *Engine {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Engine{
		catalog:   cat,
		workers:   workers,
		maxRadius: opts.MaxRadiusAU,
		logger:    log.With(logger, "subsys", "ephemeris"),
		observer:  opts.Observer,
		paths:     NewPathCache(opts.CacheSize),
	}
}

// Catalog returns the catalog the engine reads from.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// Frame computes every body at instant. A body whose elements are invalid or outside
// the supported regime is skipped and logged; it never fails the frame. The returned
// error is non-nil only for a non-finite instant or a cancelled context.
func (e *Engine) Frame(ctx context.Context, instant float64) (Frame, error) {
	if math.IsNaN(instant) || math.IsInf(instant, 0) {
		return Frame{}, &celestial.InvalidElementsError{Field: "instant", Value: instant}
	}
	start := time.Now()
	bodies := e.catalog.Bodies()

	type result struct {
		pos Position
		err error
	}
	results := make([]result, len(bodies))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i := range bodies {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			b := bodies[i]
			v, err := positionAt(b.Elements, instant)
			results[i] = result{
				pos: Position{ID: b.ID, Name: b.Name, Kind: b.Kind, Position: v, DistanceAU: v.Magnitude()},
				err: err,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Frame{}, fmt.Errorf("frame at JD %.5f: %w", instant, err)
	}
	if err := ctx.Err(); err != nil {
		return Frame{}, fmt.Errorf("frame at JD %.5f: %w", instant, err)
	}

	frame := Frame{Instant: instant, Bodies: make([]Position, 0, len(bodies))}
	approximate := 0
	for _, r := range results {
		switch {
		case r.err == nil:
			frame.Bodies = append(frame.Bodies, r.pos)
		case errors.Is(r.err, ErrNonFinitePosition):
			frame.Skipped = append(frame.Skipped, SkippedBody{ID: r.pos.ID, Reason: r.err.Error()})
			level.Warn(e.logger).Log("msg", "body skipped", "body", r.pos.ID, "jd", instant, "err", r.err)
		case errors.Is(r.err, celestial.ErrDidNotConverge):
			r.pos.Approximate = true
			approximate++
			frame.Bodies = append(frame.Bodies, r.pos)
			level.Debug(e.logger).Log("msg", "solver did not converge", "body", r.pos.ID, "jd", instant, "err", r.err)
		default:
			frame.Skipped = append(frame.Skipped, SkippedBody{ID: r.pos.ID, Reason: r.err.Error()})
			level.Warn(e.logger).Log("msg", "body skipped", "body", r.pos.ID, "jd", instant, "err", r.err)
		}
	}

	if e.observer != nil {
		e.observer.ObserveFrame(time.Since(start), len(frame.Bodies), len(frame.Skipped), approximate)
	}
	return frame, nil
}

// Position computes a single body at instant. DidNotConverge comes back together
// with the approximate position.
func (e *Engine) Position(id string, instant float64) (Position, error) {
	b, err := e.catalog.Get(id)
	if err != nil {
		return Position{}, err
	}
	v, err := positionAt(b.Elements, instant)
	pos := Position{ID: b.ID, Name: b.Name, Kind: b.Kind, Position: v, DistanceAU: v.Magnitude()}
	if err != nil {
		if errors.Is(err, ErrNonFinitePosition) || !errors.Is(err, celestial.ErrDidNotConverge) {
			return Position{}, fmt.Errorf("body %s: %w", id, err)
		}
		pos.Approximate = true
	}
	return pos, nil
}

// Path returns the orbit path of a body with its elements evaluated at epoch.
// segments <= 0 selects the eccentricity-based default.
func (e *Engine) Path(id string, epoch float64, segments int) (celestial.OrbitPath, error) {
	b, version, err := e.catalog.Lookup(id)
	if err != nil {
		return celestial.OrbitPath{}, err
	}
	key := pathKey{id: id, version: version, epoch: epoch, segments: segments}
	return e.paths.getOrCompute(key, func() (celestial.OrbitPath, error) {
		p, err := celestial.Propagate(b.Elements, epoch)
		if err != nil {
			return celestial.OrbitPath{}, fmt.Errorf("body %s: %w", id, err)
		}
		path, err := celestial.GeneratePath(p, celestial.PathOptions{Segments: segments, MaxRadiusAU: e.maxRadius})
		if err != nil {
			return celestial.OrbitPath{}, fmt.Errorf("body %s: %w", id, err)
		}
		path.BodyID = id
		level.Debug(e.logger).Log("msg", "orbit path generated", "body", id, "epoch", epoch, "points", len(path.Points))
		return path, nil
	})
}

// Refresh swaps the catalog contents and drops every cached path.
func (e *Engine) Refresh(bodies []celestial.CelestialBody) error {
	if err := e.catalog.Replace(bodies); err != nil {
		return fmt.Errorf("refreshing catalog: %w", err)
	}
	e.paths.Invalidate()
	level.Info(e.logger).Log("msg", "catalog refreshed", "bodies", len(bodies))
	return nil
}

// PathCacheStats exposes the cache counters.
func (e *Engine) PathCacheStats() (size int, hits, misses uint64) {
	return e.paths.Stats()
}

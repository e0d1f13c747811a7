package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"

	"latency.space/orrery/shared/catalog"
	"latency.space/orrery/shared/celestial"
	"latency.space/orrery/shared/clock"
	"latency.space/orrery/shared/ephemeris"
)

const (
	maxPathSegments  = 20000
	maxControlBody   = 4 << 10
	frameMessageType = "frame"
)

type bodySummary struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	Kind         celestial.BodyKind `json:"kind"`
	Periodic     bool               `json:"periodic"`
	PeriodDays   *float64           `json:"period_days"` // null for unbound orbits
	PerihelionAU float64            `json:"perihelion_au"`
	AphelionAU   *float64           `json:"aphelion_au"`
}

type bodyDetail struct {
	bodySummary
	Elements celestial.OrbitalElementSet `json:"elements"`
}

type clockResponse struct {
	clock.Snapshot
	Time string `json:"time"`
}

type pathResponse struct {
	BodyID string              `json:"body_id"`
	Epoch  float64             `json:"epoch"`
	Closed bool                `json:"closed"`
	Axes   string              `json:"axes"`
	Points []celestial.Vector3 `json:"points"`
}

type streamFrame struct {
	Type    string                  `json:"type"`
	Instant float64                 `json:"instant"`
	Time    string                  `json:"time"`
	Clock   clock.Snapshot          `json:"clock"`
	Bodies  []ephemeris.Position    `json:"bodies"`
	Skipped []ephemeris.SkippedBody `json:"skipped,omitempty"`
}

type rateRequest struct {
	Multiplier *float64 `json:"multiplier"`
}

// jumpRequest carries exactly one of an absolute JD, a delta in days or a calendar time.
type jumpRequest struct {
	Instant *float64 `json:"instant"`
	Delta   *float64 `json:"delta"`
	Time    *string  `json:"time"`
}

func summarize(b celestial.CelestialBody) bodySummary {
	el := b.Elements
	s := bodySummary{
		ID:           b.ID,
		Name:         b.Name,
		Kind:         b.Kind,
		Periodic:     el.IsPeriodic(),
		PerihelionAU: el.PerihelionAU(),
	}
	if s.Periodic {
		period, aphelion := el.PeriodDays(), el.AphelionAU()
		s.PeriodDays, s.AphelionAU = &period, &aphelion
	}
	return s
}

// writeJSON encodes before the header goes out, so a value that cannot be encoded
// becomes a 500 instead of a truncated 200.
func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		level.Warn(s.logger).Log("msg", "encoding response", "status", status, "err", err)
		writeError(w, http.StatusInternalServerError, "encoding response failed")
		return
	}
	writeBody(w, status, body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	body, _ := json.Marshal(map[string]string{"error": msg})
	writeBody(w, status, body)
}

func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}

// errorStatus maps core errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, catalog.ErrUnknownBody):
		return http.StatusNotFound
	case errors.Is(err, celestial.ErrInvalidElements), errors.Is(err, celestial.ErrUnsupportedRegime),
		errors.Is(err, ephemeris.ErrNonFinitePosition):
		return http.StatusUnprocessableEntity
	case errors.Is(err, clock.ErrNonFinite):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

// queryFloat parses an optional finite float query parameter.
func queryFloat(r *http.Request, name string) (float64, bool, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, false, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false, fmt.Errorf("invalid %s %q", name, raw)
	}
	return v, true, nil
}

func (s *Server) handleListBodies(w http.ResponseWriter, r *http.Request) {
	cat := s.engine.Catalog()
	bodies := cat.Bodies()
	if k := r.URL.Query().Get("kind"); k != "" {
		kind, ok := celestial.ParseBodyKind(k)
		if !ok {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown kind %q", k))
			return
		}
		bodies = cat.ByKind(kind)
	}
	out := make([]bodySummary, 0, len(bodies))
	for _, b := range bodies {
		out = append(out, summarize(b))
	}
	s.writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetBody(w http.ResponseWriter, r *http.Request) {
	b, err := s.engine.Catalog().Get(mux.Vars(r)["id"])
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, bodyDetail{bodySummary: summarize(b), Elements: b.Elements})
}

func (s *Server) handleGetPath(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	segments := 0
	if raw := r.URL.Query().Get("segments"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 || n > maxPathSegments {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("segments must be an integer in [0, %d]", maxPathSegments))
			return
		}
		segments = n
	}

	epoch, ok, err := queryFloat(r, "jd")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		// whole days keep the path cache warm while the clock runs
		epoch = math.Round(s.snapshot().Instant)
	}

	path, err := s.engine.Path(id, epoch, segments)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, pathResponse{
		BodyID: path.BodyID,
		Epoch:  path.Epoch,
		Closed: path.Closed,
		Axes:   s.axesName(),
		Points: s.axes.points(path.Points),
	})
}

func (s *Server) handlePositions(w http.ResponseWriter, r *http.Request) {
	snap := s.snapshot()
	instant, ok, err := queryFloat(r, "jd")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if !ok {
		instant = snap.Instant
	}
	msg, err := s.buildFrame(r.Context(), instant, snap)
	if err != nil {
		writeError(w, errorStatus(err), err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, msg)
}

func (s *Server) handleGetClock(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, clockBody(s.snapshot()))
}

func (s *Server) handlePause(w http.ResponseWriter, r *http.Request) {
	s.control(w, "pause", func(c *clock.Clock) error {
		c.Pause()
		return nil
	})
}

func (s *Server) handleResume(w http.ResponseWriter, r *http.Request) {
	s.control(w, "resume", func(c *clock.Clock) error {
		c.Resume()
		return nil
	})
}

func (s *Server) handleSetRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decodeControl(w, r, &req); err != nil {
		s.controlError(w, "rate", http.StatusBadRequest, err.Error())
		return
	}
	if req.Multiplier == nil {
		s.controlError(w, "rate", http.StatusBadRequest, "multiplier is required")
		return
	}
	s.control(w, "rate", func(c *clock.Clock) error {
		return c.SetRate(*req.Multiplier)
	})
}

func (s *Server) handleJump(w http.ResponseWriter, r *http.Request) {
	var req jumpRequest
	if err := decodeControl(w, r, &req); err != nil {
		s.controlError(w, "jump", http.StatusBadRequest, err.Error())
		return
	}

	set := 0
	for _, present := range []bool{req.Instant != nil, req.Delta != nil, req.Time != nil} {
		if present {
			set++
		}
	}
	if set != 1 {
		s.controlError(w, "jump", http.StatusBadRequest, "exactly one of instant, delta or time is required")
		return
	}

	var target *float64
	switch {
	case req.Instant != nil:
		target = req.Instant
	case req.Time != nil:
		t, err := time.Parse(time.RFC3339, *req.Time)
		if err != nil {
			s.controlError(w, "jump", http.StatusBadRequest, fmt.Sprintf("invalid time: %v", err))
			return
		}
		jd := celestial.TimeToJD(t)
		target = &jd
	}

	s.control(w, "jump", func(c *clock.Clock) error {
		if target != nil {
			return c.JumpTo(*target)
		}
		return c.JumpBy(*req.Delta)
	})
}

// control applies fn to the clock under the lock and answers with the new snapshot.
func (s *Server) control(w http.ResponseWriter, action string, fn func(*clock.Clock) error) {
	s.clockMu.Lock()
	err := fn(s.clock)
	snap := s.clock.Snapshot()
	s.clockMu.Unlock()

	if err != nil {
		s.controlError(w, action, errorStatus(err), err.Error())
		return
	}
	level.Info(s.logger).Log("msg", "clock control", "action", action, "instant", snap.Instant, "rate", snap.Rate, "paused", snap.Paused)
	s.metrics.RecordControl(action, http.StatusOK)
	s.writeJSON(w, http.StatusOK, clockBody(snap))
}

func (s *Server) controlError(w http.ResponseWriter, action string, status int, msg string) {
	s.metrics.RecordControl(action, status)
	writeError(w, status, msg)
}

func decodeControl(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxControlBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func clockBody(snap clock.Snapshot) clockResponse {
	return clockResponse{Snapshot: snap, Time: snap.Time().Format(time.RFC3339Nano)}
}

func (s *Server) axesName() string {
	if s.cfg.RenderAxes == "" {
		return "y-up"
	}
	return s.cfg.RenderAxes
}

// buildFrame computes the frame at instant with positions in render axes. snap is
// reported as is, even when instant is not the clock's.
func (s *Server) buildFrame(ctx context.Context, instant float64, snap clock.Snapshot) (streamFrame, error) {
	frame, err := s.engine.Frame(ctx, instant)
	if err != nil {
		return streamFrame{}, err
	}
	for i := range frame.Bodies {
		frame.Bodies[i].Position = s.axes(frame.Bodies[i].Position)
	}
	return streamFrame{
		Type:    frameMessageType,
		Instant: frame.Instant,
		Time:    celestial.JDToTime(frame.Instant).Format(time.RFC3339Nano),
		Clock:   snap,
		Bodies:  frame.Bodies,
		Skipped: frame.Skipped,
	}, nil
}

func (s *Server) frameMessage(ctx context.Context, snap clock.Snapshot) ([]byte, error) {
	msg, err := s.buildFrame(ctx, snap.Instant, snap)
	if err != nil {
		return nil, err
	}
	return json.Marshal(msg)
}

func (s *Server) currentFrameMessage(ctx context.Context) ([]byte, error) {
	return s.frameMessage(ctx, s.snapshot())
}

package server

import (
	"bytes"
	"context"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"latency.space/orrery/config"
	"latency.space/orrery/shared/catalog"
	"latency.space/orrery/shared/celestial"
	"latency.space/orrery/shared/clock"
	"latency.space/orrery/shared/ephemeris"
	"latency.space/orrery/shared/logging"
)

func testServerConfig() config.ServerConfig {
	return config.ServerConfig{
		Tick:         100 * time.Millisecond,
		RenderAxes:   config.AxesYUp,
		ControlRate:  100,
		ControlBurst: 100,
	}
}

func newTestServer(t *testing.T, cfg config.ServerConfig) *Server {
	t.Helper()
	cat, err := catalog.New(catalog.Builtin())
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	reg := prometheus.NewRegistry()
	metrics := NewMetricsCollector(reg)
	engine := ephemeris.NewEngine(cat, ephemeris.Options{Workers: 4, Logger: logging.Nop(), Observer: metrics})
	clk, err := clock.New(celestial.J2000_EPOCH, 1)
	if err != nil {
		t.Fatalf("clock.New: %v", err)
	}
	s, err := New(Options{Config: cfg, Engine: engine, Clock: clk, Metrics: metrics, Gatherer: reg, Logger: logging.Nop()})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
}

func TestNewRejectsUnknownAxes(t *testing.T) {
	cfg := testServerConfig()
	cfg.RenderAxes = "z-up"
	cat, _ := catalog.New(catalog.Builtin())
	clk, _ := clock.New(celestial.J2000_EPOCH, 1)
	_, err := New(Options{
		Config:  cfg,
		Engine:  ephemeris.NewEngine(cat, ephemeris.Options{}),
		Clock:   clk,
		Metrics: NewMetricsCollector(prometheus.NewRegistry()),
	})
	if err == nil {
		t.Fatal("expected error for unknown render axes")
	}
}

func TestListBodies(t *testing.T) {
	h := newTestServer(t, testServerConfig()).Handler()

	rec := do(t, h, http.MethodGet, "/api/bodies", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}
	var all []bodySummary
	decode(t, rec, &all)
	if len(all) != len(catalog.Builtin()) {
		t.Errorf("got %d bodies, want %d", len(all), len(catalog.Builtin()))
	}

	rec = do(t, h, http.MethodGet, "/api/bodies?kind=interstellar", "")
	var interstellar []bodySummary
	decode(t, rec, &interstellar)
	if len(interstellar) != 2 {
		t.Fatalf("got %d interstellar bodies, want 2", len(interstellar))
	}
	for _, b := range interstellar {
		if b.Periodic || b.PeriodDays != nil || b.AphelionAU != nil {
			t.Errorf("%s: unbound orbit reported as periodic: %+v", b.ID, b)
		}
	}

	rec = do(t, h, http.MethodGet, "/api/bodies?kind=moon", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", rec.Code)
	}
}

func TestGetBody(t *testing.T) {
	h := newTestServer(t, testServerConfig()).Handler()

	rec := do(t, h, http.MethodGet, "/api/bodies/earth", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var earth bodyDetail
	decode(t, rec, &earth)
	if earth.Name != "Earth" || earth.Kind != celestial.Planet {
		t.Errorf("unexpected body %+v", earth.bodySummary)
	}
	if earth.PeriodDays == nil || math.Abs(*earth.PeriodDays-365.25) > 0.5 {
		t.Errorf("Earth period = %v, want ~365.25 days", earth.PeriodDays)
	}

	rec = do(t, h, http.MethodGet, "/api/bodies/vulcan", "")
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown body status = %d, want 404", rec.Code)
	}
	var apiErr map[string]string
	decode(t, rec, &apiErr)
	if apiErr["error"] == "" {
		t.Error("error response without message")
	}
}

func TestGetPath(t *testing.T) {
	h := newTestServer(t, testServerConfig()).Handler()

	tests := []struct {
		name       string
		target     string
		wantStatus int
		wantPoints int
		wantClosed bool
	}{
		{"earth explicit segments", "/api/bodies/earth/path?segments=360&jd=2451545", http.StatusOK, 360, true},
		{"earth default segments", "/api/bodies/earth/path", http.StatusOK, 2000, true},
		{"interstellar branch", "/api/bodies/1i-oumuamua/path?segments=500&jd=2458000", http.StatusOK, 500, false},
		{"negative segments", "/api/bodies/earth/path?segments=-1", http.StatusBadRequest, 0, false},
		{"too many segments", "/api/bodies/earth/path?segments=1000000", http.StatusBadRequest, 0, false},
		{"bad epoch", "/api/bodies/earth/path?jd=NaN", http.StatusBadRequest, 0, false},
		{"unknown body", "/api/bodies/vulcan/path", http.StatusNotFound, 0, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(t, h, http.MethodGet, tc.target, "")
			if rec.Code != tc.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tc.wantStatus, rec.Body)
			}
			if tc.wantStatus != http.StatusOK {
				return
			}
			var path pathResponse
			decode(t, rec, &path)
			if len(path.Points) != tc.wantPoints {
				t.Errorf("got %d points, want %d", len(path.Points), tc.wantPoints)
			}
			if path.Closed != tc.wantClosed {
				t.Errorf("closed = %v, want %v", path.Closed, tc.wantClosed)
			}
			if path.Axes != config.AxesYUp {
				t.Errorf("axes = %q", path.Axes)
			}
		})
	}
}

func TestPathUsesRenderAxes(t *testing.T) {
	// Earth's orbit lies in the ecliptic, so the y-up height stays near zero.
	h := newTestServer(t, testServerConfig()).Handler()
	rec := do(t, h, http.MethodGet, "/api/bodies/earth/path?segments=90&jd=2451545", "")
	var path pathResponse
	decode(t, rec, &path)
	for i, p := range path.Points {
		if math.Abs(p.Y) > 1e-3 {
			t.Fatalf("point %d: Y = %v, want ~0 in y-up axes", i, p.Y)
		}
	}

	cfg := testServerConfig()
	cfg.RenderAxes = config.AxesEcliptic
	h = newTestServer(t, cfg).Handler()
	rec = do(t, h, http.MethodGet, "/api/bodies/earth/path?segments=90&jd=2451545", "")
	decode(t, rec, &path)
	for i, p := range path.Points {
		if math.Abs(p.Z) > 1e-3 {
			t.Fatalf("point %d: Z = %v, want ~0 in ecliptic axes", i, p.Z)
		}
	}
}

func TestPositions(t *testing.T) {
	h := newTestServer(t, testServerConfig()).Handler()

	rec := do(t, h, http.MethodGet, "/api/positions?jd=2451545", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body)
	}
	var frame streamFrame
	decode(t, rec, &frame)
	if frame.Instant != celestial.J2000_EPOCH {
		t.Errorf("instant = %v", frame.Instant)
	}
	if len(frame.Bodies) != len(catalog.Builtin()) {
		t.Errorf("got %d positions, want %d", len(frame.Bodies), len(catalog.Builtin()))
	}
	for _, p := range frame.Bodies {
		if p.ID == "earth" && math.Abs(p.DistanceAU-0.9833) > 0.005 {
			t.Errorf("Earth distance at J2000 = %v AU, want ~0.9833", p.DistanceAU)
		}
	}

	rec = do(t, h, http.MethodGet, "/api/positions?jd=abc", "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad jd status = %d, want 400", rec.Code)
	}

	// an explicit jd moves the frame, not the reported clock
	rec = do(t, h, http.MethodGet, "/api/positions?jd=2460000.5", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d (%s)", rec.Code, rec.Body)
	}
	frame = streamFrame{}
	decode(t, rec, &frame)
	if frame.Instant != 2460000.5 {
		t.Errorf("frame instant = %v, want 2460000.5", frame.Instant)
	}
	if frame.Clock.Instant != celestial.J2000_EPOCH {
		t.Errorf("clock instant = %v, want the real clock at %v", frame.Clock.Instant, celestial.J2000_EPOCH)
	}
	want := time.Date(2023, time.February, 25, 0, 0, 0, 0, time.UTC)
	if got, err := time.Parse(time.RFC3339Nano, frame.Time); err != nil || got.Sub(want).Abs() > time.Second {
		t.Errorf("time = %q, want the frame's calendar time %v", frame.Time, want)
	}
}

func TestWriteJSONEncodingFailure(t *testing.T) {
	s := newTestServer(t, testServerConfig())
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "debug")
	if err != nil {
		t.Fatal(err)
	}
	s.logger = logger

	rec := httptest.NewRecorder()
	s.writeJSON(rec, http.StatusOK, map[string]float64{"x": math.NaN()})
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	var body map[string]string
	decode(t, rec, &body)
	if body["error"] == "" {
		t.Errorf("missing error message in %q", rec.Body)
	}
	if out := buf.String(); !strings.Contains(out, "level=warn") || !strings.Contains(out, "encoding response") {
		t.Errorf("expected a warn record, got:\n%s", out)
	}
}

func TestClockControl(t *testing.T) {
	s := newTestServer(t, testServerConfig())
	h := s.Handler()

	steps := []struct {
		name       string
		path       string
		body       string
		wantStatus int
		check      func(t *testing.T, c clockResponse)
	}{
		{"pause", "/api/clock/pause", "", http.StatusOK, func(t *testing.T, c clockResponse) {
			if !c.Paused {
				t.Error("clock not paused")
			}
		}},
		{"rate", "/api/clock/rate", `{"multiplier": 86400}`, http.StatusOK, func(t *testing.T, c clockResponse) {
			if c.Rate != 86400 {
				t.Errorf("rate = %v", c.Rate)
			}
		}},
		{"jump to instant", "/api/clock/jump", `{"instant": 2460000.5}`, http.StatusOK, func(t *testing.T, c clockResponse) {
			if c.Instant != 2460000.5 {
				t.Errorf("instant = %v", c.Instant)
			}
		}},
		{"jump by delta while paused", "/api/clock/jump", `{"delta": -0.5}`, http.StatusOK, func(t *testing.T, c clockResponse) {
			if c.Instant != 2460000 || !c.Paused {
				t.Errorf("got %+v", c.Snapshot)
			}
		}},
		{"jump to calendar time", "/api/clock/jump", `{"time": "2000-01-01T12:00:00Z"}`, http.StatusOK, func(t *testing.T, c clockResponse) {
			if math.Abs(c.Instant-celestial.J2000_EPOCH) > 1e-9 {
				t.Errorf("instant = %v, want J2000", c.Instant)
			}
			got, err := time.Parse(time.RFC3339Nano, c.Time)
			want := time.Date(2000, 1, 1, 12, 0, 0, 0, time.UTC)
			if err != nil || got.Sub(want).Abs() > time.Millisecond {
				t.Errorf("time = %q, want %v", c.Time, want)
			}
		}},
		{"resume", "/api/clock/resume", "", http.StatusOK, func(t *testing.T, c clockResponse) {
			if c.Paused {
				t.Error("clock still paused")
			}
		}},
		{"jump with two targets", "/api/clock/jump", `{"instant": 1, "delta": 1}`, http.StatusBadRequest, nil},
		{"jump without target", "/api/clock/jump", `{}`, http.StatusBadRequest, nil},
		{"jump bad time", "/api/clock/jump", `{"time": "yesterday"}`, http.StatusBadRequest, nil},
		{"rate missing multiplier", "/api/clock/rate", `{}`, http.StatusBadRequest, nil},
		{"rate unknown field", "/api/clock/rate", `{"speed": 2}`, http.StatusBadRequest, nil},
		{"rate malformed", "/api/clock/rate", `{"multiplier":`, http.StatusBadRequest, nil},
	}

	for _, step := range steps {
		rec := do(t, h, http.MethodPost, step.path, step.body)
		if rec.Code != step.wantStatus {
			t.Fatalf("%s: status = %d, want %d (%s)", step.name, rec.Code, step.wantStatus, rec.Body)
		}
		if step.check != nil {
			var c clockResponse
			decode(t, rec, &c)
			step.check(t, c)
		}
	}

	rec := do(t, h, http.MethodGet, "/api/clock", "")
	var c clockResponse
	decode(t, rec, &c)
	if c.Rate != 86400 || c.Paused || math.Abs(c.Instant-celestial.J2000_EPOCH) > 1e-9 {
		t.Errorf("final clock state %+v", c.Snapshot)
	}

	rec = do(t, h, http.MethodGet, "/api/clock/pause", "")
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET on control endpoint status = %d, want 405", rec.Code)
	}
}

func TestControlRateLimit(t *testing.T) {
	cfg := testServerConfig()
	cfg.ControlRate = 0.001
	cfg.ControlBurst = 2
	h := newTestServer(t, cfg).Handler()

	for i := 0; i < 2; i++ {
		if rec := do(t, h, http.MethodPost, "/api/clock/pause", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}
	if rec := do(t, h, http.MethodPost, "/api/clock/pause", ""); rec.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", rec.Code)
	}
	// reads are not limited
	if rec := do(t, h, http.MethodGet, "/api/clock", ""); rec.Code != http.StatusOK {
		t.Errorf("GET /api/clock status = %d", rec.Code)
	}
}

func TestCORS(t *testing.T) {
	cfg := testServerConfig()
	cfg.AllowedOrigins = []string{"orrery.example"}
	h := newTestServer(t, cfg).Handler()

	tests := []struct {
		origin string
		allow  bool
	}{
		{"https://orrery.example", true},
		{"https://app.orrery.example", true},
		{"https://evil.example", false},
	}
	for _, tc := range tests {
		t.Run(tc.origin, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/clock", nil)
			req.Header.Set("Origin", tc.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			got := rec.Header().Get("Access-Control-Allow-Origin")
			if tc.allow && got != tc.origin {
				t.Errorf("Access-Control-Allow-Origin = %q, want %q", got, tc.origin)
			}
			if !tc.allow && got != "" {
				t.Errorf("Access-Control-Allow-Origin = %q, want none", got)
			}
		})
	}
}

func dialStream(t *testing.T, ts *httptest.Server, header http.Header) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	return websocket.DefaultDialer.Dial(url, header)
}

func readFrame(t *testing.T, conn *websocket.Conn) streamFrame {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("reading frame: %v", err)
	}
	var f streamFrame
	if err := json.Unmarshal(data, &f); err != nil {
		t.Fatalf("decoding frame: %v", err)
	}
	return f
}

func TestStream(t *testing.T) {
	s := newTestServer(t, testServerConfig())
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	conn, _, err := dialStream(t, ts, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	first := readFrame(t, conn)
	if first.Type != frameMessageType {
		t.Errorf("type = %q", first.Type)
	}
	if first.Instant != celestial.J2000_EPOCH {
		t.Errorf("first frame instant = %v, want J2000", first.Instant)
	}
	if len(first.Bodies) != len(catalog.Builtin()) {
		t.Errorf("got %d bodies, want %d", len(first.Bodies), len(catalog.Builtin()))
	}

	deadline := time.Now().Add(5 * time.Second)
	for s.hub.Len() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	// one wall-clock day at rate 1 moves the frame forward one day
	s.tick(context.Background(), 24*time.Hour)
	second := readFrame(t, conn)
	if math.Abs(second.Instant-(celestial.J2000_EPOCH+1)) > 1e-9 {
		t.Errorf("second frame instant = %v, want J2000+1", second.Instant)
	}
	if second.Clock.Instant != second.Instant {
		t.Errorf("frame and clock snapshot disagree: %v vs %v", second.Instant, second.Clock.Instant)
	}

	s.hub.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("expected going-away close, got %v", err)
	}
}

func TestStreamRejectsForeignOrigin(t *testing.T) {
	cfg := testServerConfig()
	cfg.AllowedOrigins = []string{"https://orrery.example"}
	s := newTestServer(t, cfg)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	_, resp, err := dialStream(t, ts, http.Header{"Origin": {"https://evil.example"}})
	if err == nil {
		t.Fatal("expected handshake failure")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}

	conn, _, err := dialStream(t, ts, http.Header{"Origin": {"https://orrery.example"}})
	if err != nil {
		t.Fatalf("allowed origin: %v", err)
	}
	conn.Close()
}

func TestTickWithoutClients(t *testing.T) {
	s := newTestServer(t, testServerConfig())
	s.tick(context.Background(), 12*time.Hour)
	if got := s.snapshot().Instant; math.Abs(got-(celestial.J2000_EPOCH+0.5)) > 1e-9 {
		t.Errorf("instant = %v, want J2000+0.5", got)
	}

	s.clock.Pause()
	s.tick(context.Background(), 12*time.Hour)
	if got := s.snapshot().Instant; math.Abs(got-(celestial.J2000_EPOCH+0.5)) > 1e-9 {
		t.Errorf("paused clock moved to %v", got)
	}
}

func TestRunShutsDown(t *testing.T) {
	cfg := testServerConfig()
	cfg.HTTPAddr = "127.0.0.1:0"
	cfg.MetricsAddr = "127.0.0.1:0"
	s := newTestServer(t, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run: %v", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}

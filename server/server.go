// Package server exposes the ephemeris over HTTP: a JSON API for bodies, positions,
// orbit paths and clock control, and a websocket stream of frames driven by the
// simulated clock.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"latency.space/orrery/config"
	"latency.space/orrery/shared/clock"
	"latency.space/orrery/shared/ephemeris"
	"latency.space/orrery/shared/logging"
)

// ShutdownTimeout bounds how long Run waits for in-flight requests.
const ShutdownTimeout = 30 * time.Second

type Options struct {
	Config   config.ServerConfig
	Engine   *ephemeris.Engine
	Clock    *clock.Clock
	Metrics  *MetricsCollector   // required; it is also the engine's observer
	Gatherer prometheus.Gatherer // source for /metrics, nil disables the endpoint
	Logger   log.Logger
}

type Server struct {
	cfg      config.ServerConfig
	engine   *ephemeris.Engine
	metrics  *MetricsCollector
	gatherer prometheus.Gatherer
	logger   log.Logger

	// clockMu guards clock; the tick loop and the control handlers both mutate it.
	clockMu sync.Mutex
	clock   *clock.Clock

	hub      *Hub
	upgrader websocket.Upgrader
	limiter  *IPRateLimiter
	origins  *OriginValidator
	axes     axisMapper

	httpServer    *http.Server
	metricsServer *http.Server
}

func New(opts Options) (*Server, error) {
	if opts.Engine == nil || opts.Clock == nil || opts.Metrics == nil {
		return nil, errors.New("server: engine, clock and metrics are required")
	}
	axes, err := newAxisMapper(opts.Config.RenderAxes)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Nop()
	}
	logger = logging.Subsystem(logger, "server")

	s := &Server{
		cfg:      opts.Config,
		engine:   opts.Engine,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		logger:   logger,
		clock:    opts.Clock,
		limiter:  NewIPRateLimiter(rate.Limit(opts.Config.ControlRate), opts.Config.ControlBurst),
		origins:  NewOriginValidator(opts.Config.AllowedOrigins),
		axes:     axes,
	}
	s.hub = NewHub(logger, opts.Metrics.SetStreamClients)
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     s.origins.CheckOrigin,
	}
	return s, nil
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/bodies", s.handleListBodies).Methods(http.MethodGet)
	api.HandleFunc("/bodies/{id}", s.handleGetBody).Methods(http.MethodGet)
	api.HandleFunc("/bodies/{id}/path", s.handleGetPath).Methods(http.MethodGet)
	api.HandleFunc("/positions", s.handlePositions).Methods(http.MethodGet)
	api.HandleFunc("/clock", s.handleGetClock).Methods(http.MethodGet)

	control := api.PathPrefix("/clock").Subrouter()
	control.Use(s.limiter.Middleware)
	control.HandleFunc("/pause", s.handlePause).Methods(http.MethodPost)
	control.HandleFunc("/resume", s.handleResume).Methods(http.MethodPost)
	control.HandleFunc("/rate", s.handleSetRate).Methods(http.MethodPost)
	control.HandleFunc("/jump", s.handleJump).Methods(http.MethodPost)

	r.HandleFunc("/ws", s.handleStream).Methods(http.MethodGet)

	c := cors.New(cors.Options{
		AllowOriginFunc: s.origins.IsAllowedOrigin,
		AllowedMethods:  []string{http.MethodGet, http.MethodPost},
		AllowedHeaders:  []string{"Content-Type"},
	})
	return c.Handler(r)
}

// Run serves until ctx is cancelled, then shuts down gracefully. It returns the first
// error of any serving goroutine.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.HTTPAddr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.cfg.TLS.Enabled {
		tlsConfig, err := setupTLS(s.cfg.TLS, s.logger)
		if err != nil {
			return err
		}
		s.httpServer.TLSConfig = tlsConfig
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		level.Info(s.logger).Log("msg", "starting HTTP server", "addr", s.cfg.HTTPAddr, "tls", s.cfg.TLS.Enabled)
		var err error
		if s.cfg.TLS.Enabled {
			err = s.httpServer.ListenAndServeTLS("", "")
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server: %w", err)
		}
		return nil
	})

	if s.gatherer != nil && s.cfg.MetricsAddr != "" {
		metricsMux := http.NewServeMux()
		metricsMux.Handle("/metrics", s.metrics.Handler(s.gatherer))
		s.metricsServer = &http.Server{Addr: s.cfg.MetricsAddr, Handler: metricsMux, ReadHeaderTimeout: 10 * time.Second}
		g.Go(func() error {
			level.Info(s.logger).Log("msg", "starting metrics server", "addr", s.cfg.MetricsAddr)
			if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		s.runTicker(gctx)
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		level.Info(s.logger).Log("msg", "shutting down servers")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// Shutdown closes the stream clients and stops the HTTP servers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	var errs []error
	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("HTTP server shutdown: %w", err))
		}
	}
	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("metrics server shutdown: %w", err))
		}
	}
	return errors.Join(errs...)
}

// runTicker advances the clock by the elapsed wall time on every tick and broadcasts
// the resulting frame.
func (s *Server) runTicker(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Tick)
	defer ticker.Stop()
	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.tick(ctx, now.Sub(last))
			last = now
		}
	}
}

func (s *Server) tick(ctx context.Context, wall time.Duration) {
	s.clockMu.Lock()
	err := s.clock.Advance(wall.Hours() / 24)
	snap := s.clock.Snapshot()
	s.clockMu.Unlock()
	if err != nil {
		level.Error(s.logger).Log("msg", "advancing clock", "err", err)
		return
	}

	if s.hub.Len() == 0 {
		return
	}
	msg, err := s.frameMessage(ctx, snap)
	if err != nil {
		if ctx.Err() == nil {
			level.Error(s.logger).Log("msg", "computing frame", "err", err)
		}
		return
	}
	s.hub.Broadcast(msg)
}

func (s *Server) snapshot() clock.Snapshot {
	s.clockMu.Lock()
	defer s.clockMu.Unlock()
	return s.clock.Snapshot()
}

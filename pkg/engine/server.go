package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/getmockd/ramlmock/pkg/config"
	"github.com/getmockd/ramlmock/pkg/logging"
	"github.com/getmockd/ramlmock/pkg/resolve"
	"github.com/getmockd/ramlmock/pkg/resource"
	"github.com/getmockd/ramlmock/pkg/schema"
)

// Server serves a description over HTTP, reloading it when it changes.
type Server struct {
	cfg      *config.Config
	log      *slog.Logger
	load     LoadFunc
	desc     Description
	reloader *Reloader
	handler  *Handler
	http     http.Handler

	mu         sync.Mutex
	running    bool
	listener   net.Listener
	httpServer *http.Server
	cancel     context.CancelFunc
	group      *errgroup.Group
	startTime  time.Time
}

// ServerOption is a functional option for configuring a Server.
type ServerOption func(*Server)

// WithLogger sets the operational logger for the server.
func WithLogger(log *slog.Logger) ServerOption {
	return func(s *Server) {
		if log != nil {
			s.log = log
		}
	}
}

// WithLoadFunc replaces the loader chosen from the configured path. The
// watcher is disabled unless the path is also a description directory.
func WithLoadFunc(load LoadFunc) ServerOption {
	return func(s *Server) {
		s.load = load
	}
}

// NewServer creates a Server from a validated configuration.
func NewServer(cfg *config.Config, opts ...ServerOption) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("engine: nil configuration")
	}
	s := &Server{cfg: cfg, log: logging.Nop()}
	for _, opt := range opts {
		opt(s)
	}

	if s.load == nil {
		load, desc, err := LoaderFor(cfg.Path, LoaderOptions{StaticPath: cfg.StaticPath, Logger: s.log})
		if err != nil {
			return nil, err
		}
		s.load, s.desc = load, desc
	} else if desc, err := Detect(cfg.Path); err == nil {
		s.desc = desc
	}

	s.reloader = NewReloader(s.load, WithReloadLogger(s.log))
	s.handler = NewHandler(s.reloader, NewResolver(cfg, s.log), HandlerConfig{
		Prefixes:       cfg.Prefixes(),
		RequestTimeout: cfg.RequestTimeout.Std(),
		Logger:         s.log,
	})

	var h http.Handler = s.handler
	if cfg.CORS {
		h = CORS(h, s.handler)
	}
	s.http = AccessLog(h, s.log)
	return s, nil
}

// NewResolver builds the response resolver the configuration asks for.
func NewResolver(cfg *config.Config, log *slog.Logger) *resolve.Resolver {
	var synth []schema.SynthOption
	if cfg.Seed != 0 {
		synth = append(synth, schema.WithSeed(cfg.Seed))
	}
	opts := []resolve.Option{resolve.WithSynthOptions(synth...), resolve.WithLogger(log)}
	if cfg.ValidateGenerated {
		opts = append(opts, resolve.WithValidation((*schema.Schema).Validate))
	}
	return resolve.New(cfg.Policy(), opts...)
}

// Start loads the description, binds the listener and starts serving. The
// listener is bound when Start returns, so Addr is valid. A description
// that cannot be loaded is fatal here, there being nothing to serve.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server is already running")
	}

	if err := s.reloader.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load description: %w", err)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.http,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(s.log.Handler(), slog.LevelWarn),
	}

	runCtx, cancel := context.WithCancel(context.Background())
	g, runCtx := errgroup.WithContext(runCtx)
	s.cancel, s.group = cancel, g

	httpServer := s.httpServer
	g.Go(func() error {
		if err := httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error { return s.reloader.Run(runCtx) })
	if s.cfg.Watch {
		s.startWatcher(runCtx, g)
	}

	s.running = true
	s.startTime = time.Now()
	s.log.Info("mock server listening",
		"addr", ln.Addr().String(),
		"description", s.desc.Path,
		"format", string(s.desc.Format),
		"prefixes", s.cfg.Prefixes(),
		"policy", s.cfg.Policy().String(),
		"watch", s.cfg.Watch,
	)
	for _, route := range s.reloader.Current().Routes() {
		s.log.Debug("route", "method", route.Method, "pattern", route.Pattern, "status", route.Status, "sources", route.Sources)
	}
	return nil
}

func (s *Server) startWatcher(ctx context.Context, g *errgroup.Group) {
	if s.desc.Dir == "" {
		s.log.Warn("hot reload disabled", "error", &WatchError{Dir: s.cfg.Path, Err: errors.New("no description directory")})
		return
	}
	w, err := NewWatcher(s.desc.Dir,
		WithWatchInterval(s.cfg.WatchInterval.Std()),
		WithWatchLogger(s.log),
	)
	if err != nil {
		s.log.Warn("hot reload disabled", "error", err)
		return
	}
	s.log.Info("watching description files", "dir", s.desc.Dir, "files", len(w.Files()), "interval", s.cfg.WatchInterval.Std())
	g.Go(func() error {
		return w.Run(ctx, func(changes []FileChange) {
			s.log.Info("description changed, reloading", "files", len(changes))
			s.reloader.Notify()
		})
	})
}

// Addr returns the bound listener address, nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// URL returns the base URL of the running server.
func (s *Server) URL() string {
	addr := s.Addr()
	if addr == nil {
		return ""
	}
	return "http://" + addr.String()
}

// Handler returns the HTTP handler, including CORS and access logging.
func (s *Server) Handler() http.Handler {
	return s.http
}

// Reloader returns the server's reloader.
func (s *Server) Reloader() *Reloader {
	return s.reloader
}

// Tree returns the tree currently served.
func (s *Server) Tree() *resource.Tree {
	return s.reloader.Current()
}

// IsRunning reports whether Start succeeded and the server is not closed.
func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Uptime returns how long the server has been running.
func (s *Server) Uptime() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return 0
	}
	return time.Since(s.startTime)
}

// Close stops the listener immediately, closes open connections and waits
// for the reload and watch goroutines to exit. The port can be bound again
// as soon as Close returns.
func (s *Server) Close() error {
	return s.stop(func(srv *http.Server) error { return srv.Close() })
}

// Shutdown stops accepting connections and waits for in-flight requests,
// up to ctx's deadline, before stopping like Close.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.stop(func(srv *http.Server) error { return srv.Shutdown(ctx) })
}

// Wait blocks until the server stops and returns the first serving error.
func (s *Server) Wait() error {
	s.mu.Lock()
	g := s.group
	s.mu.Unlock()
	if g == nil {
		return nil
	}
	return g.Wait()
}

func (s *Server) stop(stopHTTP func(*http.Server) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}
	s.running = false

	err := stopHTTP(s.httpServer)
	s.cancel()
	if waitErr := s.group.Wait(); waitErr != nil && err == nil {
		err = waitErr
	}
	s.listener = nil
	s.log.Info("mock server stopped")
	return err
}

// Package api serves report generation over HTTP with gin.
//
// Routes:
//
//	POST /api/v1/reports  report input JSON -> PDF attachment, or 422 JSON
//	POST /api/v1/parse    scan text -> structured ports, services and host
//	GET  /health          service and collaborator health
//	GET  /metrics         Prometheus metrics, when configured
package api

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vareport/vareport/pkg/defaults"
	"github.com/vareport/vareport/pkg/duration"
	"github.com/vareport/vareport/pkg/health"
	"github.com/vareport/vareport/pkg/ratelimit"
	"github.com/vareport/vareport/pkg/report"
)

// Generator produces reports from raw request bodies. *report.Generator
// is one.
type Generator interface {
	Generate(ctx context.Context, data []byte) *report.Result
}

// Options configures a Server.
type Options struct {
	Generator Generator

	// Metrics is mounted at defaults.MetricsPath when set.
	Metrics http.Handler

	// Health runs the checks reported by /health. Nil reports the
	// process only.
	Health *health.Checker

	// Limiter rate limits /api/v1 per client IP. Nil uses
	// ratelimit.DefaultConfig.
	Limiter *ratelimit.Limiter

	MaxBodyBytes int64
	ListenAddr   string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	Logger       *slog.Logger
}

var releaseMode sync.Once

// Server is the HTTP report service.
type Server struct {
	opts   Options
	engine *gin.Engine
	logger *slog.Logger
}

// New builds the router. It panics if opts.Generator is nil.
func New(opts Options) *Server {
	if opts.Generator == nil {
		panic("api: nil Generator")
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = defaults.MaxBodyBytes
	}
	if opts.ListenAddr == "" {
		opts.ListenAddr = defaults.ListenAddr
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = duration.ServerRead
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = duration.ServerWrite
	}
	if opts.Limiter == nil {
		opts.Limiter = ratelimit.New(ratelimit.DefaultConfig())
	}
	if opts.Health == nil {
		opts.Health = health.NewChecker(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	releaseMode.Do(func() { gin.SetMode(gin.ReleaseMode) })
	s := &Server{opts: opts, engine: gin.New(), logger: logger}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.engine
	r.Use(recovery(s.logger), requestLogger(s.logger))
	r.NoRoute(func(c *gin.Context) {
		writeError(c, http.StatusNotFound, "not found", "No such endpoint")
	})

	r.GET("/health", s.handleHealth)
	if s.opts.Metrics != nil {
		r.GET(defaults.MetricsPath, gin.WrapH(s.opts.Metrics))
	}

	v1 := r.Group("/api/v1")
	v1.Use(rateLimit(s.opts.Limiter), bodyLimit(s.opts.MaxBodyBytes))
	v1.POST("/reports", s.handleReport)
	v1.POST("/parse", s.handleParse)
}

// Handler returns the router.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe serves until ctx is done, then shuts down gracefully
// within duration.ServerShutdown.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.ListenAddr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadTimeout:       s.opts.ReadTimeout,
		ReadHeaderTimeout: s.opts.ReadTimeout,
		WriteTimeout:      s.opts.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("api: listening", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), duration.ServerShutdown)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

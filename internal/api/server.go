// Package api serves the daily log store and the estimator over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/logging"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server wraps an engine with gin routes.
type Server struct {
	engine *engine.Engine
	budget config.BudgetConfig
	logger zerolog.Logger
	audit  logging.AuditLogger
	router *gin.Engine
}

// Options configures a Server.
type Options struct {
	Engine *engine.Engine
	Budget config.BudgetConfig
	Logger zerolog.Logger
	// Audit records every accepted submission. Nil disables it.
	Audit logging.AuditLogger
}

// NewServer builds the router.
func NewServer(opts Options) *Server {
	gin.SetMode(gin.ReleaseMode)
	s := &Server{
		engine: opts.Engine,
		budget: opts.Budget,
		logger: logging.ComponentLogger(opts.Logger, "api"),
		audit:  opts.Audit,
	}
	if s.audit == nil {
		s.audit = logging.NewAuditLogger(logging.AuditLoggerConfig{})
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(s.recovery(), s.requestLogger())

	r.GET("/healthz", s.health)

	v1 := r.Group("/api/v1")
	{
		v1.GET("/factors", s.factors)
		v1.POST("/estimate", s.estimate)

		users := v1.Group("/users/:user")
		{
			users.POST("/daily-logs", s.submitLog)
			users.GET("/daily-logs", s.listLogs)
			users.GET("/daily-logs/:date", s.getLog)
			users.DELETE("/daily-logs/:date", s.deleteLog)
			users.GET("/history", s.history)
			users.GET("/dashboard", s.dashboard)
			users.GET("/recommendations", s.recommendations)
			users.GET("/budget", s.budgetStatus)
		}
	}
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		s.logger.Info().Msg("shutting down")
		return srv.Shutdown(shutdownCtx)
	}
}

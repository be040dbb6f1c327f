// Package server exposes the repositories and the sync engine over a small
// JSON API so an external scheduler can trigger syncs.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/julianstephens/cadence/internal/engine"
	"github.com/julianstephens/cadence/internal/lock"
	"github.com/julianstephens/cadence/internal/logger"
	"github.com/julianstephens/cadence/internal/models"
	"github.com/julianstephens/cadence/internal/storage"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	store  storage.Provider
	engine *engine.Engine
	echo   *echo.Echo
}

func New(store storage.Provider, eng *engine.Engine) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:  true,
		LogURI:     true,
		LogStatus:  true,
		LogLatency: true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			logger.Info("HTTP request", "method", v.Method, "uri", v.URI, "status", v.Status, "latency", v.Latency)
			return nil
		},
	}))

	s := &Server{store: store, engine: eng, echo: e}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.echo.GET("/healthz", s.health)

	s.echo.GET("/habits", s.listHabits)
	s.echo.POST("/habits", s.createHabit)
	s.echo.GET("/habits/:id", s.getHabit)
	s.echo.DELETE("/habits/:id", s.deleteHabit)

	s.echo.GET("/tasks", s.listTasks)
	s.echo.POST("/tasks/:id/complete", s.completeTask)

	s.echo.POST("/sync", s.sync)

	s.echo.GET("/reports", s.listReports)
	s.echo.GET("/reports/latest", s.latestReports)
	s.echo.GET("/reports/longest", s.longestStreak)
	s.echo.GET("/reports/shortest", s.shortestStreak)
}

// Handler returns the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until ctx is cancelled
func (s *Server) Start(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		logger.Info("API listening", "addr", addr)
		errCh <- s.echo.Start(addr)
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
		return s.echo.Shutdown(shutdownCtx)
	}
}

// StatusFor maps an error to the HTTP status it is reported with
func StatusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, storage.ErrDuplicateName), errors.Is(err, lock.ErrLocked):
		return http.StatusConflict
	case errors.Is(err, storage.ErrInvalid),
		errors.Is(err, storage.ErrUnsaved),
		errors.Is(err, models.ErrAlreadyCompleted),
		errors.Is(err, models.ErrInvalidPeriodicity),
		errors.Is(err, models.ErrInvalidHabit):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c echo.Context, err error) error {
	status := StatusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("Request failed", "path", c.Path(), "error", err)
		msg = "internal error"
	}
	return c.JSON(status, map[string]string{"error": msg})
}

// Package api exposes the task manager over HTTP for the dashboard.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/addy0032/hate-speech-detection/internal/report"
	"github.com/addy0032/hate-speech-detection/internal/task"
)

// Tasks is the part of the task manager the API needs
type Tasks interface {
	Submit(sources []string, windowDays int) (string, error)
	Status(id string) (task.Snapshot, bool)
	List() []task.Snapshot
	Cancel(id string) error
	Export(id string) ([]task.ExportRow, error)
	LoadExisting() (task.Snapshot, error)
}

// Server serves the HTTP API
type Server struct {
	tasks   Tasks
	reports *report.Builder
	logger  *slog.Logger
	router  *gin.Engine
}

// NewServer builds the router. allowedOrigin is the dashboard origin for CORS.
func NewServer(tasks Tasks, reports *report.Builder, allowedOrigin string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		tasks:   tasks,
		reports: reports,
		logger:  logger.With("component", "api"),
	}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger), cors(allowedOrigin))

	r.GET("/", s.health)
	r.POST("/scrape", s.scrape)
	r.POST("/scrape/youtube", s.scrapeYouTube)
	r.GET("/status/:id", s.status)
	r.GET("/tasks", s.list)
	r.DELETE("/tasks/:id", s.cancel)
	r.GET("/export/:id", s.export)
	r.GET("/report/:id", s.report)
	r.GET("/load-existing", s.loadExisting)

	s.router = r
	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves on addr until ctx is done, then shuts down gracefully
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

// Package api exposes website ingestion over HTTP. Handlers return JSON and
// map validation failures to 422 with a field keyed error object.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/masahif/webingest/internal/ingest"
	"github.com/masahif/webingest/internal/markdown"
)

// Service is the ingestion surface the handlers drive
type Service interface {
	StartWebsiteIngest(ctx context.Context, agentID, rawURL string, scanType ingest.ScanType, scrapeConfig markdown.ScrapeConfig) (*ingest.Website, error)
	SyncWebsite(ctx context.Context, websiteID int64) (*ingest.Website, error)
	SyncWebpage(ctx context.Context, webpageID int64) (*ingest.Webpage, error)
	Website(ctx context.Context, websiteID int64) (*ingest.Website, error)
	WebsiteStatus(ctx context.Context, websiteID int64) (*ingest.WebsiteStatus, error)
	DeleteWebsite(ctx context.Context, websiteID int64) error
	DeleteWebpages(ctx context.Context, ids []int64) error
}

// Server manages the HTTP server and routes
type Server struct {
	service  Service
	validate *validator.Validate
	server   *http.Server
}

// New creates a server listening on addr
func New(addr string, service Service) *Server {
	s := &Server{service: service, validate: newValidator()}
	s.server = &http.Server{
		Addr:        addr,
		Handler:     s.withLogging(s.routes()),
		ReadTimeout: 15 * time.Second,
		// ingest and sync fetch the page before answering
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

// Handler returns the routed handler, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /websites", s.handleStartIngest)
	mux.HandleFunc("GET /websites/{id}", s.handleGetWebsite)
	mux.HandleFunc("POST /websites/{id}/sync", s.handleSyncWebsite)
	mux.HandleFunc("DELETE /websites/{id}", s.handleDeleteWebsite)

	mux.HandleFunc("POST /webpages/{id}/sync", s.handleSyncWebpage)
	mux.HandleFunc("DELETE /webpages/{id}", s.handleDeleteWebpage)
	mux.HandleFunc("DELETE /webpages", s.handleDeleteWebpages)

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return mux
}

// Start serves until Shutdown is called
func (s *Server) Start() error {
	slog.Info("HTTP server starting", "address", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	slog.Info("HTTP server shutting down")
	return s.server.Shutdown(ctx)
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		slog.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds())
	})
}

package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/masahif/webingest/internal/ingest"
	"github.com/masahif/webingest/internal/markdown"
)

type startIngestRequest struct {
	URL          string                `json:"url" validate:"required,http_url"`
	ScanType     string                `json:"scanType" validate:"omitempty,oneof=full nested single"`
	ScrapeConfig markdown.ScrapeConfig `json:"scrapeConfig"`
	AIAgentID    string                `json:"aiAgentId" validate:"max=255"`
}

type deleteWebpagesRequest struct {
	IDs []int64 `json:"ids" validate:"required,min=1,dive,gt=0"`
}

func (s *Server) handleStartIngest(w http.ResponseWriter, r *http.Request) {
	var req startIngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	req.URL = strings.TrimSpace(req.URL)
	if !s.validateRequest(w, &req) {
		return
	}
	if req.ScanType == "" {
		req.ScanType = string(ingest.ScanFull)
	}

	website, err := s.service.StartWebsiteIngest(r.Context(), req.AIAgentID, req.URL, ingest.ScanType(req.ScanType), req.ScrapeConfig)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"success": true, "website": website})
}

func (s *Server) handleGetWebsite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	website, err := s.service.Website(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	status, err := s.service.WebsiteStatus(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"website": website, "status": status})
}

func (s *Server) handleSyncWebsite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	website, err := s.service.SyncWebsite(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "website": website})
}

func (s *Server) handleDeleteWebsite(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.service.DeleteWebsite(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleSyncWebpage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	page, err := s.service.SyncWebpage(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true, "webpage": page})
}

func (s *Server) handleDeleteWebpage(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := s.service.DeleteWebpages(r.Context(), []int64{id}); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func (s *Server) handleDeleteWebpages(w http.ResponseWriter, r *http.Request) {
	var req deleteWebpagesRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if !s.validateRequest(w, &req) {
		return
	}

	if err := s.service.DeleteWebpages(r.Context(), req.IDs); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"success": true})
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusNotFound, "not found")
		return 0, false
	}
	return id, true
}

// writeServiceError maps ingest errors onto status codes
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *ingest.ValidationError
	switch {
	case errors.As(err, &verr):
		writeValidation(w, verr.Field, verr.Message)
	case errors.Is(err, ingest.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	default:
		slog.Error("Request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeValidation(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
		"errors": map[string]string{field: message},
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to write response", "error", err)
	}
}

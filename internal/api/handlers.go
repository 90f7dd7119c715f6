package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/greedhall/rules-engine/internal/rules"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	for _, p := range s.pingers {
		if err := p.Ping(r.Context()); err != nil {
			respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
			return
		}
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Catalog handlers

func (s *Server) handleCatalogInfo(w http.ResponseWriter, r *http.Request) {
	catalog := s.catalogManager.Current()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"origin_count":  len(catalog.Origins),
		"class_count":   len(catalog.Classes),
		"last_modified": catalog.LastModified,
	})
}

func (s *Server) handleRefreshCatalog(w http.ResponseWriter, r *http.Request) {
	refreshed, err := s.catalogManager.Refresh(r.Context())
	if err != nil {
		switch {
		case errors.Is(err, rules.ErrFormatChanged):
			respondError(w, http.StatusUnprocessableEntity, "format_changed", err.Error())
		case errors.Is(err, rules.ErrOriginParse), errors.Is(err, rules.ErrClassParse):
			respondError(w, http.StatusUnprocessableEntity, "parse_error", err.Error())
		default:
			slog.Error("failed to refresh catalog", "error", err)
			respondError(w, http.StatusBadGateway, "refresh_failed", "failed to refresh catalog")
		}
		return
	}

	catalog := s.catalogManager.Current()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"refreshed":     refreshed,
		"origin_count":  len(catalog.Origins),
		"class_count":   len(catalog.Classes),
		"last_modified": catalog.LastModified,
	})
}

// Origin handlers

func (s *Server) handleListOrigins(w http.ResponseWriter, r *http.Request) {
	origins := s.catalogManager.Current().OriginList()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"origins": origins,
		"total":   len(origins),
	})
}

func (s *Server) handleGetOrigin(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "origin name is required")
		return
	}

	origin, ok := s.catalogManager.Current().GetOrigin(name)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "origin not found")
		return
	}

	respondJSON(w, http.StatusOK, origin)
}

// Class handlers

func (s *Server) handleListClasses(w http.ResponseWriter, r *http.Request) {
	classes := s.catalogManager.Current().ClassList()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"classes": classes,
		"total":   len(classes),
	})
}

func (s *Server) handleGetClass(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "class name is required")
		return
	}

	class, ok := s.catalogManager.Current().GetClass(name)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "class not found")
		return
	}

	respondJSON(w, http.StatusOK, class)
}

func (s *Server) handleClassAvailability(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if name == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "class name is required")
		return
	}

	var req struct {
		Held []string `json:"held"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	catalog := s.catalogManager.Current()

	class, ok := catalog.GetClass(name)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "class not found")
		return
	}

	held, err := catalog.ResolveHeld(req.Held)
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"class":     class.Name,
		"available": catalog.ClassAvailable(class, held),
	})
}

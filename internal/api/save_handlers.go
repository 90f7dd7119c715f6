package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/greedhall/rules-engine/internal/models"
)

// Save handlers

func (s *Server) handleCreateSave(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CampaignName string           `json:"campaign_name"`
		Character    models.Character `json:"character"`
		Notes        string           `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if strings.TrimSpace(req.CampaignName) == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "campaign_name is required")
		return
	}

	if msg := s.validateCharacter(req.Character); msg != "" {
		respondError(w, http.StatusBadRequest, "validation_error", msg)
		return
	}

	save := models.NewSave(req.CampaignName)
	save.ID = uuid.New().String()
	save.Character = req.Character
	save.Notes = req.Notes
	save.CreatedAt = time.Now().UTC()
	save.UpdatedAt = save.CreatedAt

	if err := s.repo.CreateSave(r.Context(), save); err != nil {
		slog.Error("failed to create save", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to create save")
		return
	}

	respondJSON(w, http.StatusCreated, save)
}

func (s *Server) handleGetSave(w http.ResponseWriter, r *http.Request) {
	save, ok := s.loadSave(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, save)
}

func (s *Server) handleUpdateSave(w http.ResponseWriter, r *http.Request) {
	save, ok := s.loadSave(w, r)
	if !ok {
		return
	}

	var req struct {
		CampaignName  *string           `json:"campaign_name"`
		BattleNumber  *int              `json:"battle_number"`
		RoundNumber   *int              `json:"round_number"`
		Character     *models.Character `json:"character"`
		BattlePower   *int              `json:"battle_power"`
		BattleDefense *int              `json:"battle_defense"`
		Notes         *string           `json:"notes"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.CampaignName != nil {
		if strings.TrimSpace(*req.CampaignName) == "" {
			respondError(w, http.StatusBadRequest, "validation_error", "campaign_name cannot be empty")
			return
		}
		save.CampaignName = strings.TrimSpace(*req.CampaignName)
	}
	if req.BattleNumber != nil {
		if *req.BattleNumber < 1 {
			respondError(w, http.StatusBadRequest, "validation_error", "battle_number must be positive")
			return
		}
		save.BattleNumber = *req.BattleNumber
	}
	if req.RoundNumber != nil {
		if *req.RoundNumber < 1 {
			respondError(w, http.StatusBadRequest, "validation_error", "round_number must be positive")
			return
		}
		save.RoundNumber = *req.RoundNumber
	}
	if req.Character != nil {
		if msg := s.validateCharacter(*req.Character); msg != "" {
			respondError(w, http.StatusBadRequest, "validation_error", msg)
			return
		}
		save.Character = *req.Character
	}
	if req.BattlePower != nil {
		save.BattlePower = *req.BattlePower
	}
	if req.BattleDefense != nil {
		save.BattleDefense = *req.BattleDefense
	}
	if req.Notes != nil {
		save.Notes = *req.Notes
	}

	save.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateSave(r.Context(), save); err != nil {
		slog.Error("failed to update save", "error", err, "id", save.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update save")
		return
	}

	respondJSON(w, http.StatusOK, save)
}

func (s *Server) handleDeleteSave(w http.ResponseWriter, r *http.Request) {
	save, ok := s.loadSave(w, r)
	if !ok {
		return
	}

	if err := s.repo.DeleteSave(r.Context(), save.ID); err != nil {
		slog.Error("failed to delete save", "error", err, "id", save.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to delete save")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "save deleted",
	})
}

func (s *Server) handleListSaves(w http.ResponseWriter, r *http.Request) {
	limit := 50 // default
	offset := 0

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			limit = l
		}
	}

	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			offset = o
		}
	}

	saves, err := s.repo.ListSaves(r.Context(), limit, offset)
	if err != nil {
		slog.Error("failed to list saves", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to list saves")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"saves": saves,
		"total": len(saves),
	})
}

func (s *Server) handleUseSpecial(w http.ResponseWriter, r *http.Request) {
	save, ok := s.loadSave(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "name is required")
		return
	}

	save.UseSpecial(req.Name)
	save.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateSave(r.Context(), save); err != nil {
		slog.Error("failed to update save", "error", err, "id", save.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update save")
		return
	}

	respondJSON(w, http.StatusOK, save)
}

func (s *Server) handleRefreshSpecials(w http.ResponseWriter, r *http.Request) {
	save, ok := s.loadSave(w, r)
	if !ok {
		return
	}

	save.RefreshSpecials()
	save.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateSave(r.Context(), save); err != nil {
		slog.Error("failed to update save", "error", err, "id", save.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update save")
		return
	}

	respondJSON(w, http.StatusOK, save)
}

func (s *Server) handleNextBattle(w http.ResponseWriter, r *http.Request) {
	save, ok := s.loadSave(w, r)
	if !ok {
		return
	}

	save.NextBattle()
	save.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateSave(r.Context(), save); err != nil {
		slog.Error("failed to update save", "error", err, "id", save.ID)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to update save")
		return
	}

	respondJSON(w, http.StatusOK, save)
}

// loadSave fetches the save named in the URL, writing the error
// response itself when the ID is missing or unknown.
func (s *Server) loadSave(w http.ResponseWriter, r *http.Request) (*models.Save, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "save id is required")
		return nil, false
	}

	save, err := s.repo.GetSave(r.Context(), id)
	if err != nil {
		slog.Error("failed to get save", "error", err, "id", id)
		respondError(w, http.StatusInternalServerError, "internal_error", "failed to get save")
		return nil, false
	}
	if save == nil {
		respondError(w, http.StatusNotFound, "not_found", "save not found")
		return nil, false
	}

	return save, true
}

// validateCharacter checks origin and class names against the current
// catalog. An empty catalog (before first ingestion) accepts anything
// so saves are usable offline.
func (s *Server) validateCharacter(ch models.Character) string {
	catalog := s.catalogManager.Current()
	if len(catalog.Origins) == 0 && len(catalog.Classes) == 0 {
		return ""
	}

	if ch.Origin != "" {
		if _, ok := catalog.GetOrigin(ch.Origin); !ok {
			return "unknown origin: " + ch.Origin
		}
	}
	for _, name := range ch.Classes {
		if _, ok := catalog.GetClass(name); !ok {
			return "unknown class: " + name
		}
	}
	return ""
}

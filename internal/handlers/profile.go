package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/barangay-portal/resident-gateway/internal/models"
	"github.com/barangay-portal/resident-gateway/internal/services"
)

// ProfileHandler serves the resident's own records.
type ProfileHandler struct {
	service *services.ProfileService
}

func NewProfileHandler(service *services.ProfileService) *ProfileHandler {
	return &ProfileHandler{service: service}
}

// GetProfile handles GET /api/portal/profile
func (h *ProfileHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	token, residentID := credentials(r)
	profile, err := h.service.GetProfile(r.Context(), token, residentID)
	if err != nil {
		handleServiceError(w, r, "get_profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/portal/profile
func (h *ProfileHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	token, residentID := credentials(r)
	var update models.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	profile, err := h.service.UpdateProfile(r.Context(), token, residentID, update)
	if err != nil {
		handleServiceError(w, r, "update_profile", err)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}

// Complaints handles GET /api/portal/complaints
func (h *ProfileHandler) Complaints(w http.ResponseWriter, r *http.Request) {
	token, _ := credentials(r)
	complaints, err := h.service.Complaints(r.Context(), token)
	if err != nil {
		handleServiceError(w, r, "complaints", err)
		return
	}
	writeJSON(w, http.StatusOK, complaints)
}

// Household handles GET /api/portal/household
func (h *ProfileHandler) Household(w http.ResponseWriter, r *http.Request) {
	token, _ := credentials(r)
	household, err := h.service.Household(r.Context(), token)
	if err != nil {
		handleServiceError(w, r, "household", err)
		return
	}
	writeJSON(w, http.StatusOK, household)
}

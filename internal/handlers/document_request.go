package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/barangay-portal/resident-gateway/internal/services"
)

type DocumentRequestHandler struct {
	service *services.DocumentRequestService
}

func NewDocumentRequestHandler(service *services.DocumentRequestService) *DocumentRequestHandler {
	return &DocumentRequestHandler{service: service}
}

// DocumentTypes handles GET /api/portal/document-types
func (h *DocumentRequestHandler) DocumentTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Catalog())
}

// StartDraft handles POST /api/portal/document-requests/draft
func (h *DocumentRequestHandler) StartDraft(w http.ResponseWriter, r *http.Request) {
	_, residentID := credentials(r)
	draft, err := h.service.StartDraft(r.Context(), residentID)
	if err != nil {
		handleServiceError(w, r, "start_draft", err)
		return
	}
	writeJSON(w, http.StatusCreated, draft)
}

// GetDraft handles GET /api/portal/document-requests/draft
func (h *DocumentRequestHandler) GetDraft(w http.ResponseWriter, r *http.Request) {
	_, residentID := credentials(r)
	draft, err := h.service.Draft(r.Context(), residentID)
	if err != nil {
		handleServiceError(w, r, "get_draft", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// DiscardDraft handles DELETE /api/portal/document-requests/draft
func (h *DocumentRequestHandler) DiscardDraft(w http.ResponseWriter, r *http.Request) {
	_, residentID := credentials(r)
	if err := h.service.DiscardDraft(r.Context(), residentID); err != nil {
		handleServiceError(w, r, "discard_draft", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SelectType handles PUT /api/portal/document-requests/draft/type
func (h *DocumentRequestHandler) SelectType(w http.ResponseWriter, r *http.Request) {
	_, residentID := credentials(r)
	var body struct {
		DocumentType string `json:"documentType"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	draft, err := h.service.SelectType(r.Context(), residentID, body.DocumentType)
	if err != nil {
		handleServiceError(w, r, "select_type", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// SetDetails handles PUT /api/portal/document-requests/draft/details
func (h *DocumentRequestHandler) SetDetails(w http.ResponseWriter, r *http.Request) {
	_, residentID := credentials(r)
	var details services.DraftDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	draft, err := h.service.SetDetails(r.Context(), residentID, details)
	if err != nil {
		handleServiceError(w, r, "set_details", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// Back handles POST /api/portal/document-requests/draft/back
func (h *DocumentRequestHandler) Back(w http.ResponseWriter, r *http.Request) {
	_, residentID := credentials(r)
	draft, err := h.service.Back(r.Context(), residentID)
	if err != nil {
		handleServiceError(w, r, "back", err)
		return
	}
	writeJSON(w, http.StatusOK, draft)
}

// Submit handles POST /api/portal/document-requests/draft/submit
func (h *DocumentRequestHandler) Submit(w http.ResponseWriter, r *http.Request) {
	token, residentID := credentials(r)
	result, err := h.service.Submit(r.Context(), token, residentID)
	if errors.Is(err, services.ErrRequestsBlocked) {
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":         result.Gate.Message,
			"paymentStatus": result.Gate,
		})
		return
	}
	if err != nil {
		handleServiceError(w, r, "submit", err)
		return
	}
	writeJSON(w, http.StatusCreated, result)
}

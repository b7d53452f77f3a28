package handlers

import (
	"net/http"

	"github.com/barangay-portal/resident-gateway/internal/services"
)

// AnnouncementHandler handles HTTP requests for announcements
type AnnouncementHandler struct {
	announcementService *services.AnnouncementService
}

// NewAnnouncementHandler creates a new AnnouncementHandler
func NewAnnouncementHandler(announcementService *services.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcementService: announcementService}
}

// GetAnnouncements handles GET /api/portal/announcements
func (h *AnnouncementHandler) GetAnnouncements(w http.ResponseWriter, r *http.Request) {
	token, _ := credentials(r)
	announcements, err := h.announcementService.AnnouncementList(r.Context(), token)
	if err != nil {
		handleServiceError(w, r, "announcements", err)
		return
	}
	writeJSON(w, http.StatusOK, announcements)
}

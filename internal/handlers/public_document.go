package handlers

import (
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/barangay-portal/resident-gateway/internal/logger"
	"github.com/barangay-portal/resident-gateway/internal/services"
)

type PublicDocumentHandler struct {
	service *services.PublicDocumentService
}

func NewPublicDocumentHandler(service *services.PublicDocumentService) *PublicDocumentHandler {
	return &PublicDocumentHandler{service: service}
}

// List handles GET /api/portal/public-documents?category=&search=
func (h *PublicDocumentHandler) List(w http.ResponseWriter, r *http.Request) {
	token, _ := credentials(r)
	q := r.URL.Query()
	docs, err := h.service.List(r.Context(), token, q.Get("category"), q.Get("search"))
	if err != nil {
		handleServiceError(w, r, "public_documents", err)
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

// Preview handles GET /api/portal/public-documents/{documentID}/preview
func (h *PublicDocumentHandler) Preview(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "preview")
}

// Download handles GET /api/portal/public-documents/{documentID}/download
func (h *PublicDocumentHandler) Download(w http.ResponseWriter, r *http.Request) {
	h.stream(w, r, "download")
}

func (h *PublicDocumentHandler) stream(w http.ResponseWriter, r *http.Request, mode string) {
	token, _ := credentials(r)
	id := mux.Vars(r)["documentID"]
	if id == "" {
		writeError(w, http.StatusBadRequest, "Document ID is required")
		return
	}
	doc, err := h.service.Open(r.Context(), token, id, mode)
	if err != nil {
		handleServiceError(w, r, "public_document_"+mode, err)
		return
	}
	defer doc.Body.Close()

	contentType := doc.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if doc.ContentDisposition != "" {
		w.Header().Set("Content-Disposition", doc.ContentDisposition)
	}
	if doc.ContentLength > 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(doc.ContentLength, 10))
	}
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, doc.Body); err != nil {
		logger.L.Warn("stream public document failed", "document_id", id, "err", err)
	}
}

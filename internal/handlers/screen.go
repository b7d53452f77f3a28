package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/barangay-portal/resident-gateway/internal/logger"
	"github.com/barangay-portal/resident-gateway/internal/services"
)

// ScreenHandler serves the composed portal screens and their exports.
type ScreenHandler struct {
	service *services.ScreenService
	loc     *time.Location
}

func NewScreenHandler(service *services.ScreenService, loc *time.Location) *ScreenHandler {
	if loc == nil {
		loc = time.Local
	}
	return &ScreenHandler{service: service, loc: loc}
}

// Dashboard handles GET /api/portal/dashboard
func (h *ScreenHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	token, residentID := credentials(r)
	dashboard, err := h.service.Dashboard(r.Context(), token, residentID)
	if err != nil {
		handleServiceError(w, r, "dashboard", err)
		return
	}
	writeJSON(w, http.StatusOK, dashboard)
}

// Payments handles GET /api/portal/payments?status=&type=&search=
func (h *ScreenHandler) Payments(w http.ResponseWriter, r *http.Request) {
	token, residentID := credentials(r)
	q := r.URL.Query()
	page, err := h.service.Payments(r.Context(), token, residentID, services.PaymentFilter{
		Status: q.Get("status"),
		Type:   q.Get("type"),
		Search: q.Get("search"),
	})
	if err != nil {
		handleServiceError(w, r, "payments", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// DocumentRequests handles GET /api/portal/document-requests?status=&search=
func (h *ScreenHandler) DocumentRequests(w http.ResponseWriter, r *http.Request) {
	token, residentID := credentials(r)
	q := r.URL.Query()
	page, err := h.service.DocumentRequests(r.Context(), token, residentID, q.Get("status"), q.Get("search"))
	if err != nil {
		handleServiceError(w, r, "document_requests", err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ExportTransactions handles GET /api/portal/transactions/export?format=&search=
func (h *ScreenHandler) ExportTransactions(w http.ResponseWriter, r *http.Request) {
	token, _ := credentials(r)
	q := r.URL.Query()
	rows, err := h.service.TransactionRows(r.Context(), token, q.Get("search"))
	if err != nil {
		handleServiceError(w, r, "export_transactions", err)
		return
	}
	export, err := services.ExportTransactions(rows, exportFormat(r), time.Now().In(h.loc))
	h.writeExport(w, r, export, err)
}

// ExportRequests handles GET /api/portal/document-requests/export?format=&status=&search=
func (h *ScreenHandler) ExportRequests(w http.ResponseWriter, r *http.Request) {
	token, _ := credentials(r)
	q := r.URL.Query()
	rows, err := h.service.RequestRows(r.Context(), token, q.Get("status"), q.Get("search"))
	if err != nil {
		handleServiceError(w, r, "export_requests", err)
		return
	}
	export, err := services.ExportRequests(rows, exportFormat(r), time.Now().In(h.loc))
	h.writeExport(w, r, export, err)
}

func exportFormat(r *http.Request) string {
	if f := r.URL.Query().Get("format"); f != "" {
		return f
	}
	return services.FormatPDF
}

func (h *ScreenHandler) writeExport(w http.ResponseWriter, r *http.Request, export *services.Export, err error) {
	if err != nil {
		handleServiceError(w, r, "export", err)
		return
	}
	w.Header().Set("Content-Type", export.ContentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.FileName))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(export.Body); err != nil {
		logger.L.Warn("write export failed", "file", export.FileName, "err", err)
	}
}

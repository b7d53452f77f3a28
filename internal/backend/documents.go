package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/barangay-portal/resident-gateway/internal/models"
)

// ListDocumentRequests returns the resident's document requests.
func (c *Client) ListDocumentRequests(ctx context.Context, token string) ([]models.DocumentRequest, error) {
	raw, err := c.doRaw(ctx, token, http.MethodGet, "document_requests", "/api/document-requests", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.DocumentRequest](raw, "data", "requests", "documentRequests"), nil
}

// CreateDocumentRequest files a new document request.
func (c *Client) CreateDocumentRequest(ctx context.Context, token string, req models.NewDocumentRequest) (models.DocumentRequest, error) {
	raw, err := c.doRaw(ctx, token, http.MethodPost, "document_requests.create", "/api/document-requests", nil, req)
	if err != nil {
		return models.DocumentRequest{}, err
	}
	var created models.DocumentRequest
	if err := json.Unmarshal(unwrapObject(raw, "data", "request", "documentRequest"), &created); err != nil {
		return models.DocumentRequest{}, fmt.Errorf("backend: decode document request: %w", err)
	}
	return created, nil
}

// GetPaymentStatus asks whether the resident may file document requests.
func (c *Client) GetPaymentStatus(ctx context.Context, token string) (models.PaymentStatusGate, error) {
	raw, err := c.doRaw(ctx, token, http.MethodGet, "payment_status", "/api/document-requests/payment-status", nil, nil)
	if err != nil {
		return models.PaymentStatusGate{}, err
	}
	var gate models.PaymentStatusGate
	if err := json.Unmarshal(unwrapObject(raw, "data"), &gate); err != nil {
		return models.PaymentStatusGate{}, fmt.Errorf("backend: decode payment status: %w", err)
	}
	if len(gate.PaymentStatus) == 0 {
		gate.PaymentStatus = json.RawMessage("null")
	}
	return gate, nil
}

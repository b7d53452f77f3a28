package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/barangay-portal/resident-gateway/internal/models"
)

// GetBlockchainStatus reports ledger connectivity.
func (c *Client) GetBlockchainStatus(ctx context.Context, token string) (models.BlockchainStatus, error) {
	raw, err := c.doRaw(ctx, token, http.MethodGet, "blockchain.status", "/api/blockchain/status", nil, nil)
	if err != nil {
		return models.BlockchainStatus{}, err
	}
	var status models.BlockchainStatus
	if err := json.Unmarshal(unwrapObject(raw, "data", "status"), &status); err != nil {
		return models.BlockchainStatus{}, fmt.Errorf("backend: decode blockchain status: %w", err)
	}
	return status, nil
}

// ListBlockchainRequests returns every ledger-mirrored document request
// visible to the caller.
func (c *Client) ListBlockchainRequests(ctx context.Context, token string) ([]models.BlockchainRequest, error) {
	raw, err := c.doRaw(ctx, token, http.MethodGet, "blockchain.requests", "/api/blockchain/requests", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.BlockchainRequest](raw, "data", "requests", "records"), nil
}

// ListMyBlockchainRequests returns the resident's ledger-mirrored requests.
func (c *Client) ListMyBlockchainRequests(ctx context.Context, token string) ([]models.BlockchainRequest, error) {
	raw, err := c.doRaw(ctx, token, http.MethodGet, "blockchain.requests.me", "/api/blockchain/requests/me", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.BlockchainRequest](raw, "data", "requests", "records"), nil
}

// ListMyFinancialTransactions returns the resident's ledger-mirrored payments.
func (c *Client) ListMyFinancialTransactions(ctx context.Context, token string) ([]models.FinancialTransaction, error) {
	raw, err := c.doRaw(ctx, token, http.MethodGet, "blockchain.transactions.me", "/api/blockchain/financial-transactions/me", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.FinancialTransaction](raw, "data", "transactions", "records"), nil
}

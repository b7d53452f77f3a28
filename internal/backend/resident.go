package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/barangay-portal/resident-gateway/internal/models"
)

// GetProfile fetches the signed-in resident's profile.
func (c *Client) GetProfile(ctx context.Context, token string) (models.ResidentProfile, error) {
	raw, err := c.doRaw(ctx, token, http.MethodGet, "profile", "/api/resident/profile", nil, nil)
	if err != nil {
		return models.ResidentProfile{}, err
	}
	var profile models.ResidentProfile
	if err := json.Unmarshal(unwrapObject(raw, "data", "profile", "resident"), &profile); err != nil {
		return models.ResidentProfile{}, fmt.Errorf("backend: decode profile: %w", err)
	}
	return profile, nil
}

// UpdateProfile saves profile changes and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, token string, update models.ProfileUpdate) (models.ResidentProfile, error) {
	raw, err := c.doRaw(ctx, token, http.MethodPut, "profile.update", "/api/resident/profile", nil, update)
	if err != nil {
		return models.ResidentProfile{}, err
	}
	var profile models.ResidentProfile
	if err := json.Unmarshal(unwrapObject(raw, "data", "profile", "resident"), &profile); err != nil {
		return models.ResidentProfile{}, fmt.Errorf("backend: decode profile: %w", err)
	}
	return profile, nil
}

// GetPayments returns the utility payments payload untouched; its shape
// varies by backend version and is normalized by the caller.
func (c *Client) GetPayments(ctx context.Context, token, residentID string) (json.RawMessage, error) {
	var query url.Values
	if residentID != "" {
		query = url.Values{"residentId": {residentID}}
	}
	return c.doRaw(ctx, token, http.MethodGet, "payments", "/api/resident/payments", query, nil)
}

// ListComplaints returns the resident's complaints.
func (c *Client) ListComplaints(ctx context.Context, token string) ([]models.Complaint, error) {
	raw, err := c.doRaw(ctx, token, http.MethodGet, "complaints", "/api/resident/complaints", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Complaint](raw, "data", "complaints"), nil
}

// GetHousehold returns the resident's household.
func (c *Client) GetHousehold(ctx context.Context, token string) (models.Household, error) {
	raw, err := c.doRaw(ctx, token, http.MethodGet, "household", "/api/resident/household", nil, nil)
	if err != nil {
		return models.Household{}, err
	}
	var household models.Household
	if err := json.Unmarshal(unwrapObject(raw, "data", "household"), &household); err != nil {
		return models.Household{}, fmt.Errorf("backend: decode household: %w", err)
	}
	if household.Members == nil {
		household.Members = []models.HouseholdMember{}
	}
	return household, nil
}

// ListAnnouncements returns published barangay announcements.
func (c *Client) ListAnnouncements(ctx context.Context, token string) ([]models.Announcement, error) {
	raw, err := c.doRaw(ctx, token, http.MethodGet, "announcements", "/api/announcements", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.Announcement](raw, "data", "announcements"), nil
}

// ListPublicDocuments returns documents published to residents.
func (c *Client) ListPublicDocuments(ctx context.Context, token string) ([]models.PublicDocument, error) {
	raw, err := c.doRaw(ctx, token, http.MethodGet, "public_documents", "/api/resident/public-documents", nil, nil)
	if err != nil {
		return nil, err
	}
	return decodeList[models.PublicDocument](raw, "data", "documents"), nil
}

// DocumentStream is a file body streamed from the backend.
type DocumentStream struct {
	Body               io.ReadCloser
	ContentType        string
	ContentDisposition string
	ContentLength      int64
}

// OpenPublicDocument streams a public document. mode is "preview" or
// "download".
func (c *Client) OpenPublicDocument(ctx context.Context, token, id, mode string) (*DocumentStream, error) {
	if id == "" {
		return nil, fmt.Errorf("backend: empty document id: %w", ErrNotFound)
	}
	if mode != "preview" && mode != "download" {
		return nil, fmt.Errorf("backend: unknown document mode %q", mode)
	}
	path := "/api/resident/public-documents/" + url.PathEscape(id) + "/" + mode
	resp, err := c.do(ctx, token, http.MethodGet, "public_documents."+mode, path, nil, nil)
	if err != nil {
		return nil, err
	}
	return &DocumentStream{
		Body:               resp.Body,
		ContentType:        resp.Header.Get("Content-Type"),
		ContentDisposition: resp.Header.Get("Content-Disposition"),
		ContentLength:      resp.ContentLength,
	}, nil
}

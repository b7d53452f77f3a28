package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/barangay-portal/resident-gateway/internal/backend"
	"github.com/barangay-portal/resident-gateway/internal/logger"
	"github.com/barangay-portal/resident-gateway/internal/models"
)

var (
	ErrDraftNotFound       = errors.New("no document request in progress")
	ErrInvalidStep         = errors.New("action not allowed at this step")
	ErrUnknownDocumentType = errors.New("unknown document type")
	ErrValidation          = errors.New("invalid document request")
	// ErrRequestsBlocked means the payment-status gate refused the request.
	ErrRequestsBlocked = errors.New("document requests are blocked")
)

const (
	minQuantity = 1
	maxQuantity = 10
)

// DocumentRequestService drives the multi-step request flow. The draft lives
// in the resident's session between calls.
type DocumentRequestService struct {
	client  *backend.Client
	store   SessionStore
	catalog []models.DocumentType
	schema  *jsonschema.Schema
	now     func() time.Time
}

func NewDocumentRequestService(client *backend.Client, store SessionStore, catalog []models.DocumentType) (*DocumentRequestService, error) {
	if len(catalog) == 0 {
		return nil, errors.New("document type catalog is empty")
	}
	schema, err := compileRequestSchema(catalog)
	if err != nil {
		return nil, err
	}
	return &DocumentRequestService{
		client:  client,
		store:   store,
		catalog: catalog,
		schema:  schema,
		now:     time.Now,
	}, nil
}

// compileRequestSchema builds the schema for the outgoing POST body. The
// document type enum tracks the configured catalog.
func compileRequestSchema(catalog []models.DocumentType) (*jsonschema.Schema, error) {
	codes := make([]string, 0, len(catalog))
	var needPurpose []string
	for _, t := range catalog {
		codes = append(codes, t.Code)
		if t.RequiresPurpose {
			needPurpose = append(needPurpose, t.Code)
		}
	}
	doc := map[string]any{
		"$schema":  "https://json-schema.org/draft/2020-12/schema",
		"type":     "object",
		"required": []string{"documentType", "quantity"},
		"properties": map[string]any{
			"documentType": map[string]any{"type": "string", "enum": codes},
			"purpose":      map[string]any{"type": "string", "maxLength": 500},
			"quantity":     map[string]any{"type": "integer", "minimum": minQuantity, "maximum": maxQuantity},
			"notes":        map[string]any{"type": "string", "maxLength": 1000},
		},
		"additionalProperties": false,
	}
	if len(needPurpose) > 0 {
		doc["if"] = map[string]any{
			"properties": map[string]any{"documentType": map[string]any{"enum": needPurpose}},
		}
		doc["then"] = map[string]any{
			"required":   []string{"purpose"},
			"properties": map[string]any{"purpose": map[string]any{"minLength": 1}},
		}
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("document_request.json", strings.NewReader(string(raw))); err != nil {
		return nil, fmt.Errorf("add request schema: %w", err)
	}
	schema, err := compiler.Compile("document_request.json")
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	return schema, nil
}

// Catalog returns the requestable document types.
func (s *DocumentRequestService) Catalog() []models.DocumentType {
	out := make([]models.DocumentType, len(s.catalog))
	copy(out, s.catalog)
	return out
}

func (s *DocumentRequestService) lookupType(code string) (models.DocumentType, bool) {
	code = strings.TrimSpace(code)
	for _, t := range s.catalog {
		if strings.EqualFold(t.Code, code) {
			return t, true
		}
	}
	return models.DocumentType{}, false
}

// Draft returns the resident's current draft.
func (s *DocumentRequestService) Draft(ctx context.Context, residentID string) (*models.DocumentRequestDraft, error) {
	session := loadSession(ctx, s.store, residentID)
	if session.Draft == nil {
		return nil, ErrDraftNotFound
	}
	return session.Draft, nil
}

// StartDraft opens a new draft, replacing any existing one.
func (s *DocumentRequestService) StartDraft(ctx context.Context, residentID string) (*models.DocumentRequestDraft, error) {
	session := loadSession(ctx, s.store, residentID)
	now := s.now()
	session.Draft = &models.DocumentRequestDraft{
		ID:        uuid.NewString(),
		Step:      models.StepSelectType,
		Quantity:  minQuantity,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("start draft: %w", err)
	}
	return session.Draft, nil
}

// DiscardDraft drops the draft, if any.
func (s *DocumentRequestService) DiscardDraft(ctx context.Context, residentID string) error {
	session := loadSession(ctx, s.store, residentID)
	if session.Draft == nil {
		return nil
	}
	session.Draft = nil
	return s.store.Save(ctx, session)
}

// SelectType fixes the document type and moves to the details step.
func (s *DocumentRequestService) SelectType(ctx context.Context, residentID, code string) (*models.DocumentRequestDraft, error) {
	return s.update(ctx, residentID, func(d *models.DocumentRequestDraft) error {
		if d.Step != models.StepSelectType && d.Step != models.StepDetails {
			return fmt.Errorf("%w: select type at %s", ErrInvalidStep, d.Step)
		}
		t, ok := s.lookupType(code)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownDocumentType, code)
		}
		d.DocumentType = t.Code
		d.Step = models.StepDetails
		return nil
	})
}

// DraftDetails is the input of the details step. A zero quantity means 1.
type DraftDetails struct {
	Purpose  string `json:"purpose"`
	Quantity int    `json:"quantity"`
	Notes    string `json:"notes"`
}

// SetDetails records purpose, quantity and notes and moves to review.
func (s *DocumentRequestService) SetDetails(ctx context.Context, residentID string, details DraftDetails) (*models.DocumentRequestDraft, error) {
	return s.update(ctx, residentID, func(d *models.DocumentRequestDraft) error {
		if d.Step != models.StepDetails && d.Step != models.StepReview {
			return fmt.Errorf("%w: set details at %s", ErrInvalidStep, d.Step)
		}
		t, ok := s.lookupType(d.DocumentType)
		if !ok {
			return fmt.Errorf("%w: %q", ErrUnknownDocumentType, d.DocumentType)
		}
		purpose := strings.TrimSpace(details.Purpose)
		quantity := details.Quantity
		if quantity == 0 {
			quantity = minQuantity
		}
		if quantity < minQuantity || quantity > maxQuantity {
			return fmt.Errorf("%w: quantity must be between %d and %d", ErrValidation, minQuantity, maxQuantity)
		}
		if t.RequiresPurpose && purpose == "" {
			return fmt.Errorf("%w: purpose is required for %s", ErrValidation, t.Name)
		}
		d.Purpose = purpose
		d.Quantity = quantity
		d.Notes = strings.TrimSpace(details.Notes)
		d.Step = models.StepReview
		return nil
	})
}

// Back moves the draft one step back. It is a no-op on the first step.
func (s *DocumentRequestService) Back(ctx context.Context, residentID string) (*models.DocumentRequestDraft, error) {
	return s.update(ctx, residentID, func(d *models.DocumentRequestDraft) error {
		switch d.Step {
		case models.StepDetails:
			d.Step = models.StepSelectType
		case models.StepReview:
			d.Step = models.StepDetails
		case models.StepSubmitted:
			return fmt.Errorf("%w: draft already submitted", ErrInvalidStep)
		}
		return nil
	})
}

func (s *DocumentRequestService) update(ctx context.Context, residentID string, fn func(*models.DocumentRequestDraft) error) (*models.DocumentRequestDraft, error) {
	session := loadSession(ctx, s.store, residentID)
	if session.Draft == nil {
		return nil, ErrDraftNotFound
	}
	draft := *session.Draft
	if err := fn(&draft); err != nil {
		return nil, err
	}
	draft.UpdatedAt = s.now()
	session.Draft = &draft
	if err := s.store.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return &draft, nil
}

// SubmitResult is the outcome of a submission attempt.
type SubmitResult struct {
	Draft   models.DocumentRequestDraft `json:"draft"`
	Request *models.DocumentRequest     `json:"request,omitempty"`
	Gate    models.PaymentStatusGate    `json:"gate"`
}

// Submit validates the draft, checks the payment-status gate and files the
// request. On success the draft is cleared from the session.
func (s *DocumentRequestService) Submit(ctx context.Context, token, residentID string) (*SubmitResult, error) {
	session := loadSession(ctx, s.store, residentID)
	if session.Draft == nil {
		return nil, ErrDraftNotFound
	}
	draft := *session.Draft
	if draft.Step != models.StepReview {
		return nil, fmt.Errorf("%w: submit at %s", ErrInvalidStep, draft.Step)
	}

	body := models.NewDocumentRequest{
		DocumentType: draft.DocumentType,
		Purpose:      draft.Purpose,
		Quantity:     draft.Quantity,
		Notes:        draft.Notes,
	}
	if err := s.validate(body); err != nil {
		return nil, err
	}

	gate, err := s.Gate(ctx, token)
	if err != nil {
		return nil, err
	}
	result := &SubmitResult{Draft: draft, Gate: gate}
	if !gate.CanRequestDocuments {
		return result, fmt.Errorf("%w: %s", ErrRequestsBlocked, gate.Message)
	}

	created, err := s.client.CreateDocumentRequest(ctx, token, body)
	if err != nil {
		return nil, fmt.Errorf("create document request: %w", err)
	}
	logger.L.Info("document request submitted", "resident_id", residentID, "draft_id", draft.ID, "document_type", draft.DocumentType)

	result.Request = &created
	result.Draft.Step = models.StepSubmitted
	result.Draft.UpdatedAt = s.now()
	session.Draft = nil
	if err := s.store.Save(ctx, session); err != nil {
		logger.L.Warn("clear submitted draft failed", "resident_id", residentID, "err", err)
	}
	return result, nil
}

func (s *DocumentRequestService) validate(body models.NewDocumentRequest) error {
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.schema.Validate(doc); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

// Gate fetches the payment-status gate. Only auth failures are returned;
// anything else yields the permissive default.
func (s *DocumentRequestService) Gate(ctx context.Context, token string) (models.PaymentStatusGate, error) {
	return resolveGate(ctx, s.client, token)
}

func resolveGate(ctx context.Context, client *backend.Client, token string) (models.PaymentStatusGate, error) {
	gate, err := client.GetPaymentStatus(ctx, token)
	if err == nil {
		return gate, nil
	}
	if errors.Is(err, backend.ErrUnauthorized) {
		return models.PaymentStatusGate{}, err
	}
	if ctx.Err() != nil {
		return models.PaymentStatusGate{}, ctx.Err()
	}
	logger.L.Warn("payment status unavailable, allowing requests", "err", err)
	return models.PermissiveGate(), nil
}

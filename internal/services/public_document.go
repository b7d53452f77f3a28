package services

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/barangay-portal/resident-gateway/internal/backend"
	"github.com/barangay-portal/resident-gateway/internal/models"
)

const publicDocumentsKey = "public_documents"

type PublicDocumentService struct {
	client *backend.Client
	cache  *cache.Cache
}

func NewPublicDocumentService(client *backend.Client, ttl time.Duration) *PublicDocumentService {
	return &PublicDocumentService{client: client, cache: cache.New(ttl, 2*ttl)}
}

// List returns published documents filtered by category and a free-text
// search over title, description and file name.
func (s *PublicDocumentService) List(ctx context.Context, token, category, search string) ([]models.PublicDocument, error) {
	docs, err := s.all(ctx, token)
	if err != nil {
		return nil, err
	}
	category = strings.TrimSpace(category)
	search = strings.ToLower(strings.TrimSpace(search))
	out := []models.PublicDocument{}
	for _, d := range docs {
		if category != "" && !strings.EqualFold(category, "all") && !strings.EqualFold(category, d.Category) {
			continue
		}
		if search != "" && !containsAny(search, d.Title, d.Description, d.FileName) {
			continue
		}
		out = append(out, d)
	}
	return out, nil
}

func (s *PublicDocumentService) all(ctx context.Context, token string) ([]models.PublicDocument, error) {
	if v, ok := s.cache.Get(publicDocumentsKey); ok {
		return v.([]models.PublicDocument), nil
	}
	docs, err := s.client.ListPublicDocuments(ctx, token)
	if err != nil {
		return nil, err
	}
	s.cache.SetDefault(publicDocumentsKey, docs)
	return docs, nil
}

// Open streams a document for preview or download. The caller closes the
// body.
func (s *PublicDocumentService) Open(ctx context.Context, token, id, mode string) (*backend.DocumentStream, error) {
	return s.client.OpenPublicDocument(ctx, token, strings.TrimSpace(id), mode)
}

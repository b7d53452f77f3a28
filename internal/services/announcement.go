package services

import (
	"context"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/barangay-portal/resident-gateway/internal/backend"
	"github.com/barangay-portal/resident-gateway/internal/models"
)

const announcementsKey = "announcements"

type AnnouncementService struct {
	client *backend.Client
	cache  *cache.Cache
	loc    *time.Location
}

func NewAnnouncementService(client *backend.Client, ttl time.Duration, loc *time.Location) *AnnouncementService {
	return &AnnouncementService{client: client, cache: cache.New(ttl, 2*ttl), loc: loc}
}

// AnnouncementList returns announcements newest first. The list is shared by
// all residents and cached for the configured TTL.
func (s *AnnouncementService) AnnouncementList(ctx context.Context, token string) ([]models.Announcement, error) {
	if v, ok := s.cache.Get(announcementsKey); ok {
		return v.([]models.Announcement), nil
	}

	announcements, err := s.client.ListAnnouncements(ctx, token)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(announcements, func(i, j int) bool {
		a, _ := models.FirstTime(s.loc, announcements[i].CreatedAt, announcements[i].UpdatedAt)
		b, _ := models.FirstTime(s.loc, announcements[j].CreatedAt, announcements[j].UpdatedAt)
		return a.After(b)
	})
	s.cache.SetDefault(announcementsKey, announcements)
	return announcements, nil
}

// Latest returns at most n announcements.
func (s *AnnouncementService) Latest(ctx context.Context, token string, n int) ([]models.Announcement, error) {
	all, err := s.AnnouncementList(ctx, token)
	if err != nil {
		return nil, err
	}
	if len(all) > n {
		all = all[:n]
	}
	out := make([]models.Announcement, len(all))
	copy(out, all)
	return out, nil
}

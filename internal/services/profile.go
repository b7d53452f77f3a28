package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/barangay-portal/resident-gateway/internal/backend"
	"github.com/barangay-portal/resident-gateway/internal/logger"
	"github.com/barangay-portal/resident-gateway/internal/models"
)

// ErrInvalidProfile is returned when an update fails local checks.
var ErrInvalidProfile = errors.New("invalid profile")

// ProfileService proxies the resident record and keeps the session's
// display snapshot current.
type ProfileService struct {
	client *backend.Client
	store  SessionStore
}

func NewProfileService(client *backend.Client, store SessionStore) *ProfileService {
	return &ProfileService{client: client, store: store}
}

// GetProfile fetches the profile and refreshes the session snapshot.
func (s *ProfileService) GetProfile(ctx context.Context, token, residentID string) (models.ResidentProfile, error) {
	profile, err := s.client.GetProfile(ctx, token)
	if err != nil {
		return models.ResidentProfile{}, err
	}
	s.refresh(ctx, residentID, profile)
	return profile, nil
}

// UpdateProfile trims the update, requires first and last name, and pushes
// it to the backend.
func (s *ProfileService) UpdateProfile(ctx context.Context, token, residentID string, update models.ProfileUpdate) (models.ResidentProfile, error) {
	update = trimProfileUpdate(update)
	if update.FirstName == "" || update.LastName == "" {
		return models.ResidentProfile{}, fmt.Errorf("%w: first and last name are required", ErrInvalidProfile)
	}
	if update.Email != "" && !strings.Contains(update.Email, "@") {
		return models.ResidentProfile{}, fmt.Errorf("%w: email address is not valid", ErrInvalidProfile)
	}

	profile, err := s.client.UpdateProfile(ctx, token, update)
	if err != nil {
		return models.ResidentProfile{}, err
	}
	s.refresh(ctx, residentID, profile)
	logger.L.Info("profile updated", "resident_id", residentID)
	return profile, nil
}

func (s *ProfileService) refresh(ctx context.Context, residentID string, profile models.ResidentProfile) {
	session := loadSession(ctx, s.store, residentID)
	session.Profile = SnapshotProfile(profile)
	if err := s.store.Save(ctx, session); err != nil {
		logger.L.Warn("session profile refresh failed", "resident_id", residentID, "err", err)
	}
}

func trimProfileUpdate(u models.ProfileUpdate) models.ProfileUpdate {
	for _, f := range []*string{
		&u.FirstName, &u.MiddleName, &u.LastName, &u.Suffix, &u.Email,
		&u.ContactNumber, &u.Address, &u.Purok, &u.CivilStatus, &u.Gender,
	} {
		*f = strings.TrimSpace(*f)
	}
	return u
}

// Complaints returns the resident's complaints, never nil.
func (s *ProfileService) Complaints(ctx context.Context, token string) ([]models.Complaint, error) {
	return s.client.ListComplaints(ctx, token)
}

// Household returns the resident's household. A missing record is an empty
// household.
func (s *ProfileService) Household(ctx context.Context, token string) (models.Household, error) {
	household, err := s.client.GetHousehold(ctx, token)
	if errors.Is(err, backend.ErrNotFound) {
		return models.Household{Members: []models.HouseholdMember{}}, nil
	}
	return household, err
}

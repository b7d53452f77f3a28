package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/patrickmn/go-cache"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/barangay-portal/resident-gateway/internal/backend"
	"github.com/barangay-portal/resident-gateway/internal/logger"
	"github.com/barangay-portal/resident-gateway/internal/models"
)

// ErrSessionNotFound is returned by stores when the resident has no session.
var ErrSessionNotFound = errors.New("session not found")

// SessionStore persists per-resident gateway state.
type SessionStore interface {
	Get(ctx context.Context, residentID string) (*models.Session, error)
	Save(ctx context.Context, session *models.Session) error
	Delete(ctx context.Context, residentID string) error
}

// MemorySessionStore keeps sessions in process memory.
type MemorySessionStore struct {
	cache *cache.Cache
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MemorySessionStore{cache: cache.New(ttl, ttl/2)}
}

func (s *MemorySessionStore) Get(_ context.Context, residentID string) (*models.Session, error) {
	v, ok := s.cache.Get(residentID)
	if !ok {
		return nil, ErrSessionNotFound
	}
	session := cloneSession(v.(models.Session))
	return &session, nil
}

func (s *MemorySessionStore) Save(_ context.Context, session *models.Session) error {
	if session == nil || session.ResidentID == "" {
		return errors.New("session: missing resident id")
	}
	session.UpdatedAt = time.Now()
	s.cache.SetDefault(session.ResidentID, cloneSession(*session))
	return nil
}

func (s *MemorySessionStore) Delete(_ context.Context, residentID string) error {
	s.cache.Delete(residentID)
	return nil
}

// cloneSession copies the draft so callers never share it with the cache.
func cloneSession(s models.Session) models.Session {
	if s.Draft != nil {
		d := *s.Draft
		s.Draft = &d
	}
	return s
}

// MongoSessionStore keeps sessions in the "sessions" collection. Documents
// expire through a TTL index on updated_at.
type MongoSessionStore struct {
	collection *mongo.Collection
	ttl        time.Duration
}

func NewMongoSessionStore(db *mongo.Database, ttl time.Duration) *MongoSessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &MongoSessionStore{collection: db.Collection("sessions"), ttl: ttl}
}

// EnsureIndexes creates the expiry index. It is safe to call on every start.
func (s *MongoSessionStore) EnsureIndexes(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: "updated_at", Value: 1}},
		Options: options.Index().SetName("session_ttl").SetExpireAfterSeconds(int32(s.ttl.Seconds())),
	}
	if _, err := s.collection.Indexes().CreateOne(ctx, model); err != nil {
		return fmt.Errorf("create session ttl index: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) Get(ctx context.Context, residentID string) (*models.Session, error) {
	var session models.Session
	err := s.collection.FindOne(ctx, bson.M{"_id": residentID}).Decode(&session)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find session: %w", err)
	}
	return &session, nil
}

func (s *MongoSessionStore) Save(ctx context.Context, session *models.Session) error {
	if session == nil || session.ResidentID == "" {
		return errors.New("session: missing resident id")
	}
	session.UpdatedAt = time.Now()
	_, err := s.collection.UpdateOne(ctx,
		bson.M{"_id": session.ResidentID},
		bson.M{"$set": bson.M{
			"profile":    session.Profile,
			"draft":      session.Draft,
			"updated_at": session.UpdatedAt,
		}},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

func (s *MongoSessionStore) Delete(ctx context.Context, residentID string) error {
	if _, err := s.collection.DeleteOne(ctx, bson.M{"_id": residentID}); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// loadSession returns the stored session or a fresh one. Store failures are
// logged and treated as an empty session so screens still render.
func loadSession(ctx context.Context, store SessionStore, residentID string) *models.Session {
	session, err := store.Get(ctx, residentID)
	if err == nil {
		return session
	}
	if !errors.Is(err, ErrSessionNotFound) {
		logger.L.Warn("session read failed", "resident_id", residentID, "err", err)
	}
	return &models.Session{ResidentID: residentID}
}

// SnapshotProfile extracts the display fields kept in the session.
func SnapshotProfile(p models.ResidentProfile) models.ProfileSnapshot {
	return models.ProfileSnapshot{
		DisplayName:   p.FullName(),
		Email:         strings.TrimSpace(p.Email),
		ContactNumber: strings.TrimSpace(p.ContactNumber),
		Address:       strings.TrimSpace(p.Address),
		AvatarURL:     strings.TrimSpace(p.AvatarURL),
	}
}

var residentClaimKeys = []string{"sub", "id", "userId", "residentId"}

// ResidentIDFromToken verifies an HMAC-signed bearer token with secret and
// returns the resident id from its claims. Bad signatures, other signing
// methods and expired tokens fail with backend.ErrUnauthorized.
func ResidentIDFromToken(token string, secret []byte, now time.Time) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: missing token", backend.ErrUnauthorized)
	}
	if len(secret) == 0 {
		return "", fmt.Errorf("%w: no signing secret configured", backend.ErrUnauthorized)
	}
	claims := jwt.MapClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return now }))
	if err != nil || !parsed.Valid {
		return "", fmt.Errorf("%w: invalid token: %v", backend.ErrUnauthorized, err)
	}
	return residentIDFromClaims(claims)
}

// claimedResidentID reads the resident id from an unverified token. The
// caller must confirm the token some other way before trusting the id.
func claimedResidentID(token string, now time.Time) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return "", fmt.Errorf("%w: malformed token: %v", backend.ErrUnauthorized, err)
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil && !exp.After(now) {
		return "", fmt.Errorf("%w: token expired", backend.ErrUnauthorized)
	}
	return residentIDFromClaims(claims)
}

func residentIDFromClaims(claims jwt.MapClaims) (string, error) {
	for _, key := range residentClaimKeys {
		switch v := claims[key].(type) {
		case string:
			if id := strings.TrimSpace(v); id != "" {
				return id, nil
			}
		case float64:
			return fmt.Sprintf("%.0f", v), nil
		}
	}
	return "", fmt.Errorf("%w: token has no resident id", backend.ErrUnauthorized)
}

// TokenVerifier resolves the resident behind a bearer token before any
// session access. With a secret the signature is checked locally; without
// one the token is only trusted once the backend accepts it for
// /api/resident/profile, and that confirmation is cached per token.
type TokenVerifier struct {
	secret    []byte
	client    *backend.Client
	confirmed *cache.Cache
	now       func() time.Time
}

func NewTokenVerifier(secret string, client *backend.Client, ttl time.Duration) *TokenVerifier {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &TokenVerifier{
		secret:    []byte(secret),
		client:    client,
		confirmed: cache.New(ttl, 2*ttl),
		now:       time.Now,
	}
}

// Verify returns the resident id the token belongs to.
func (v *TokenVerifier) Verify(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return "", fmt.Errorf("%w: missing token", backend.ErrUnauthorized)
	}
	if len(v.secret) > 0 {
		return ResidentIDFromToken(token, v.secret, v.now())
	}

	residentID, err := claimedResidentID(token, v.now())
	if err != nil {
		return "", err
	}
	if cached, ok := v.confirmed.Get(token); ok {
		if id, _ := cached.(string); id == residentID {
			return residentID, nil
		}
	}
	if _, err := v.client.GetProfile(ctx, token); err != nil {
		if errors.Is(err, backend.ErrNotFound) {
			return "", fmt.Errorf("%w: no resident for token", backend.ErrUnauthorized)
		}
		return "", fmt.Errorf("confirm token: %w", err)
	}
	v.confirmed.Set(token, residentID, cache.DefaultExpiration)
	return residentID, nil
}

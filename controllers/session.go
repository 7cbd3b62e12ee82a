package controller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"collaborax/database"
	"collaborax/models"
	"collaborax/utils"
)

// DefaultSessionKey is the blob key holding the signed-in identity.
const DefaultSessionKey = "collaborax_currentUser"

var ErrNoSession = errors.New("no saved session")

// SessionStore keeps the signed-in identity as a signed token under its own
// blob key, apart from the database blob.
type SessionStore struct {
	blobs  database.BlobStore
	key    string
	secret []byte
	ttl    time.Duration
}

func NewSessionStore(blobs database.BlobStore, key string, secret []byte, ttl time.Duration) (*SessionStore, error) {
	if len(secret) == 0 {
		return nil, errors.New("session secret is required")
	}
	if key == "" {
		key = DefaultSessionKey
	}
	return &SessionStore{blobs: blobs, key: key, secret: secret, ttl: ttl}, nil
}

func (s *SessionStore) Save(ctx context.Context, user models.User) error {
	token, err := utils.GenerateSessionToken(user, s.secret, s.ttl)
	if err != nil {
		return fmt.Errorf("failed to sign session: %w", err)
	}
	return s.blobs.Put(ctx, s.key, []byte(token))
}

// Load returns the saved identity, ErrNoSession when there is none, or an
// error when the token is unreadable, tampered with or expired.
func (s *SessionStore) Load(ctx context.Context) (models.User, error) {
	raw, err := s.blobs.Get(ctx, s.key)
	if errors.Is(err, database.ErrBlobNotFound) {
		return models.User{}, ErrNoSession
	}
	if err != nil {
		return models.User{}, err
	}

	claims, err := utils.ParseSessionToken(string(raw), s.secret)
	if err != nil {
		return models.User{}, err
	}
	return claims.User(), nil
}

func (s *SessionStore) Clear(ctx context.Context) error {
	return s.blobs.Delete(ctx, s.key)
}

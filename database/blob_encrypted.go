package database

import (
	"context"
	"fmt"

	"collaborax/utils"
)

// EncryptedBlobStore seals every value with AES before handing it to the
// wrapped store. Stored values stay base64 text.
type EncryptedBlobStore struct {
	inner BlobStore
	key   []byte
}

var _ BlobStore = (*EncryptedBlobStore)(nil)

// NewEncryptedBlobStore wraps inner. key must be 16, 24 or 32 bytes long.
func NewEncryptedBlobStore(inner BlobStore, key []byte) (*EncryptedBlobStore, error) {
	switch len(key) {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("encryption key must be 16, 24 or 32 bytes, got %d", len(key))
	}
	return &EncryptedBlobStore{inner: inner, key: append([]byte(nil), key...)}, nil
}

func (e *EncryptedBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	sealed, err := e.inner.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	plain, err := utils.Decrypt(e.key, sealed)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt blob %s: %w", key, err)
	}
	return plain, nil
}

func (e *EncryptedBlobStore) Put(ctx context.Context, key string, value []byte) error {
	sealed, err := utils.Encrypt(e.key, value)
	if err != nil {
		return fmt.Errorf("failed to encrypt blob %s: %w", key, err)
	}
	return e.inner.Put(ctx, key, sealed)
}

func (e *EncryptedBlobStore) Delete(ctx context.Context, key string) error {
	return e.inner.Delete(ctx, key)
}

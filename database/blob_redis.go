package database

import (
	"context"
	"errors"

	"github.com/go-redis/redis/v8"
)

// RedisOptions selects the Redis server holding the blobs.
type RedisOptions struct {
	Address  string
	Password string
	DB       int
}

// RedisBlobStore implements BlobStore on a Redis server. Keys never expire.
type RedisBlobStore struct {
	client *redis.Client
}

var _ BlobStore = (*RedisBlobStore)(nil)

func NewRedisBlobStore(opts RedisOptions) *RedisBlobStore {
	return &RedisBlobStore{
		client: redis.NewClient(&redis.Options{
			Addr:     opts.Address,
			Password: opts.Password,
			DB:       opts.DB,
		}),
	}
}

// Ping verifies the server is reachable.
func (r *RedisBlobStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *RedisBlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrBlobNotFound
	}
	return data, err
}

func (r *RedisBlobStore) Put(ctx context.Context, key string, value []byte) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

func (r *RedisBlobStore) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, key).Err()
}

func (r *RedisBlobStore) Close() error {
	return r.client.Close()
}

// Package donorflow implements the donor-facing donation flow: submitting
// a donation intent, handing off to the hosted checkout, and resolving the
// payment outcome when the donor returns. The server-rendered site drives
// it; nothing in here touches the browser directly.
package donorflow

import (
	"context"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ReferenceStore is the single durable key the flow owns: the reference of
// the in-flight donation. The Initiator is its only writer, the
// ReturnHandler its only reader and clearer. It exists so the verification
// page can recover the reference after the external redirect even when the
// URL query parameter is lost.
type ReferenceStore interface {
	// Get returns the stored reference, or "" when none is stored.
	Get(ctx context.Context) (string, error)
	Set(ctx context.Context, reference string) error
	Clear(ctx context.Context) error
}

// MemoryReferenceStore keeps the reference in memory. Used in tests and in
// single-process setups.
type MemoryReferenceStore struct {
	mu        sync.Mutex
	reference string
}

func NewMemoryReferenceStore() *MemoryReferenceStore {
	return &MemoryReferenceStore{}
}

func (s *MemoryReferenceStore) Get(_ context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reference, nil
}

func (s *MemoryReferenceStore) Set(_ context.Context, reference string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reference = reference
	return nil
}

func (s *MemoryReferenceStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reference = ""
	return nil
}

// RedisReferenceStore keeps the reference in Redis, keyed per visitor
// session, which is the server-rendered equivalent of the browser's
// durable storage. The TTL bounds how long an abandoned checkout can be
// resumed.
type RedisReferenceStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

func NewRedisReferenceStore(client *redis.Client, sessionID string, ttl time.Duration) *RedisReferenceStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &RedisReferenceStore{
		client: client,
		key:    "donorflow:reference:" + sessionID,
		ttl:    ttl,
	}
}

func (s *RedisReferenceStore) Get(ctx context.Context) (string, error) {
	reference, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return reference, nil
}

func (s *RedisReferenceStore) Set(ctx context.Context, reference string) error {
	return s.client.Set(ctx, s.key, reference, s.ttl).Err()
}

func (s *RedisReferenceStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

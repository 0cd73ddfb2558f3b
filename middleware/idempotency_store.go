package middleware

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// MemoryIdempotencyStore keeps records in-process. Good enough for a
// single instance and for tests; multi-instance deployments use Redis.
type MemoryIdempotencyStore struct {
	mu      sync.Mutex
	records map[string]*memoryIdempotencyEntry
	ttl     time.Duration
}

type memoryIdempotencyEntry struct {
	record    *IdempotencyRecord
	expiresAt time.Time
}

func NewMemoryIdempotencyStore(ttl time.Duration) *MemoryIdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	s := &MemoryIdempotencyStore{
		records: make(map[string]*memoryIdempotencyEntry),
		ttl:     ttl,
	}
	go s.janitor()
	return s
}

func (s *MemoryIdempotencyStore) janitor() {
	for {
		time.Sleep(10 * time.Minute)
		now := time.Now()
		s.mu.Lock()
		for key, entry := range s.records {
			if now.After(entry.expiresAt) {
				delete(s.records, key)
			}
		}
		s.mu.Unlock()
	}
}

func (s *MemoryIdempotencyStore) Get(_ context.Context, key string) (*IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	if time.Now().After(entry.expiresAt) {
		delete(s.records, key)
		return nil, nil
	}
	return entry.record, nil
}

func (s *MemoryIdempotencyStore) SetProcessing(_ context.Context, key, bodyHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.records[key]; ok && time.Now().Before(entry.expiresAt) {
		return false, nil
	}

	s.records[key] = &memoryIdempotencyEntry{
		record: &IdempotencyRecord{
			State:    IdempotencyStateProcessing,
			BodyHash: bodyHash,
		},
		expiresAt: time.Now().Add(s.ttl),
	}
	return true, nil
}

func (s *MemoryIdempotencyStore) SetComplete(_ context.Context, key string, record *IdempotencyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record.State = IdempotencyStateComplete
	s.records[key] = &memoryIdempotencyEntry{
		record:    record,
		expiresAt: time.Now().Add(s.ttl),
	}
	return nil
}

func (s *MemoryIdempotencyStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, key)
	return nil
}

// RedisIdempotencyStore shares idempotency records across instances.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) *RedisIdempotencyStore {
	if ttl <= 0 {
		ttl = defaultIdempotencyTTL
	}
	return &RedisIdempotencyStore{client: client, ttl: ttl}
}

func redisIdempotencyKey(key string) string {
	return "idempotency:donations:" + key
}

func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (*IdempotencyRecord, error) {
	data, err := s.client.Get(ctx, redisIdempotencyKey(key)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read idempotency record: %w", err)
	}

	var record IdempotencyRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency record: %w", err)
	}
	return &record, nil
}

func (s *RedisIdempotencyStore) SetProcessing(ctx context.Context, key, bodyHash string) (bool, error) {
	record := &IdempotencyRecord{
		State:    IdempotencyStateProcessing,
		BodyHash: bodyHash,
	}
	data, err := json.Marshal(record)
	if err != nil {
		return false, err
	}

	// SetNX makes the claim atomic across instances.
	claimed, err := s.client.SetNX(ctx, redisIdempotencyKey(key), data, s.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim idempotency key: %w", err)
	}
	return claimed, nil
}

func (s *RedisIdempotencyStore) SetComplete(ctx context.Context, key string, record *IdempotencyRecord) error {
	record.State = IdempotencyStateComplete
	data, err := json.Marshal(record)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, redisIdempotencyKey(key), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store idempotency record: %w", err)
	}
	return nil
}

func (s *RedisIdempotencyStore) Delete(ctx context.Context, key string) error {
	return s.client.Del(ctx, redisIdempotencyKey(key)).Err()
}

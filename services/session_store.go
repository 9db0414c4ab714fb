package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps the name a session's user is known by across turns.
// GetName returns "" without error when nothing is stored.
type SessionStore interface {
	GetName(ctx context.Context, sessionID string) (string, error)
	SetName(ctx context.Context, sessionID, name string) error
	Clear(ctx context.Context, sessionID string) error
}

type RedisSessionStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisSessionStore(client redis.Cmdable, ttl time.Duration) *RedisSessionStore {
	return &RedisSessionStore{client: client, ttl: ttl}
}

func sessionNameKey(sessionID string) string {
	return fmt.Sprintf("vikas:session:%s:name", sessionID)
}

func (s *RedisSessionStore) GetName(ctx context.Context, sessionID string) (string, error) {
	name, err := s.client.Get(ctx, sessionNameKey(sessionID)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return name, nil
}

// SetName stores name and restarts the session's TTL.
func (s *RedisSessionStore) SetName(ctx context.Context, sessionID, name string) error {
	return s.client.Set(ctx, sessionNameKey(sessionID), name, s.ttl).Err()
}

func (s *RedisSessionStore) Clear(ctx context.Context, sessionID string) error {
	return s.client.Del(ctx, sessionNameKey(sessionID)).Err()
}

type memoryEntry struct {
	name      string
	expiresAt time.Time
}

// MemorySessionStore is used when Redis is not configured.
type MemorySessionStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]memoryEntry
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	return &MemorySessionStore{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]memoryEntry),
	}
}

func (s *MemorySessionStore) GetName(ctx context.Context, sessionID string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[sessionID]
	if !ok {
		return "", nil
	}
	if s.ttl > 0 && s.now().After(entry.expiresAt) {
		delete(s.entries, sessionID)
		return "", nil
	}
	return entry.name, nil
}

func (s *MemorySessionStore) SetName(ctx context.Context, sessionID, name string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[sessionID] = memoryEntry{name: name, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemorySessionStore) Clear(ctx context.Context, sessionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, sessionID)
	return nil
}

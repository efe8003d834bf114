// Package flash keeps one-shot notifications for a customer between a
// non-ajax mutation and the next page load.
package flash

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Level is the notification severity.
type Level string

const (
	Success Level = "success"
	Info    Level = "info"
	Warning Level = "warning"
	Error   Level = "error"
)

// Message is one notification.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Store persists pending notifications keyed by the customer uid.
type Store interface {
	Add(ctx context.Context, owner string, m Message) error
	Pop(ctx context.Context, owner string) ([]Message, error)
}

// RedisStore keeps notifications in a Redis list per owner.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore expires unread notifications after ttl.
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func key(owner string) string { return "flash:" + owner }

// Add appends m to the owner's queue.
func (s *RedisStore) Add(ctx context.Context, owner string, m Message) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key(owner), data)
	pipe.Expire(ctx, key(owner), s.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("flash add: %w", err)
	}
	return nil
}

// Pop returns and clears the owner's queue.
func (s *RedisStore) Pop(ctx context.Context, owner string) ([]Message, error) {
	pipe := s.client.TxPipeline()
	rng := pipe.LRange(ctx, key(owner), 0, -1)
	pipe.Del(ctx, key(owner))
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("flash pop: %w", err)
	}
	out := make([]Message, 0, len(rng.Val()))
	for _, raw := range rng.Val() {
		var m Message
		if err := json.Unmarshal([]byte(raw), &m); err != nil {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

// MemoryStore is a process-local Store used when Redis is not configured.
type MemoryStore struct {
	mu   sync.Mutex
	msgs map[string][]Message
}

// NewMemoryStore returns an empty in-process store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{msgs: make(map[string][]Message)}
}

func (s *MemoryStore) Add(_ context.Context, owner string, m Message) error {
	s.mu.Lock()
	s.msgs[owner] = append(s.msgs[owner], m)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Pop(_ context.Context, owner string) ([]Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.msgs[owner]
	delete(s.msgs, owner)
	if out == nil {
		out = []Message{}
	}
	return out, nil
}

package subscribercopy

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisProgress stores the copied total of a running copy in Redis.
type RedisProgress struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisProgress keeps totals for ttl after the last step.
func NewRedisProgress(client *redis.Client, ttl time.Duration) *RedisProgress {
	return &RedisProgress{client: client, ttl: ttl}
}

func progressKey(key string) string { return "copy-subscribers:" + key }

// Reset clears the totals for key.
func (p *RedisProgress) Reset(ctx context.Context, key string) error {
	if err := p.client.Del(ctx, progressKey(key)).Err(); err != nil {
		return fmt.Errorf("reset copy progress: %w", err)
	}
	return nil
}

// Add increments the copied total and returns the new value.
func (p *RedisProgress) Add(ctx context.Context, key string, copied int) (int, error) {
	k := progressKey(key)
	pipe := p.client.TxPipeline()
	incr := pipe.IncrBy(ctx, k, int64(copied))
	pipe.Expire(ctx, k, p.ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("update copy progress: %w", err)
	}
	return int(incr.Val()), nil
}

// MemoryProgress keeps totals in process. It serves single-instance
// deployments without Redis.
type MemoryProgress struct {
	mu     sync.Mutex
	totals map[string]int
}

// NewMemoryProgress returns an empty in-process store.
func NewMemoryProgress() *MemoryProgress {
	return &MemoryProgress{totals: make(map[string]int)}
}

// Reset clears the totals for key.
func (p *MemoryProgress) Reset(_ context.Context, key string) error {
	p.mu.Lock()
	delete(p.totals, key)
	p.mu.Unlock()
	return nil
}

// Add increments the copied total and returns the new value.
func (p *MemoryProgress) Add(_ context.Context, key string, copied int) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.totals[key] += copied
	return p.totals[key], nil
}

// Package quota resolves customer-group limits and gates record creation.
//
// Limits come from the customer's group options. When a group has no row
// for a code the configured default applies, and when that is missing too
// the quota is unlimited. Resolved limits are cached in Redis when a client
// is configured.
package quota

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/redis/go-redis/v9"
)

// ErrReached is returned when creating one more record would exceed a limit.
var ErrReached = errors.New("you have reached the maximum number of allowed items")

// Repository reads group options.
type Repository interface {
	// GroupLimit returns the option value of the customer's group for code.
	// ok is false when the group has no such option.
	GroupLimit(ctx context.Context, customerID int64, code domain.QuotaCode) (limit int, ok bool, err error)
}

// Checker answers quota questions. It is safe for concurrent use.
type Checker struct {
	repo     Repository
	defaults map[string]int
	cache    *redis.Client
	ttl      time.Duration
}

// NewChecker builds a checker. cache may be nil.
func NewChecker(repo Repository, defaults map[string]int, cache *redis.Client, ttl time.Duration) *Checker {
	if defaults == nil {
		defaults = map[string]int{}
	}
	return &Checker{repo: repo, defaults: defaults, cache: cache, ttl: ttl}
}

func cacheKey(customerID int64, code domain.QuotaCode) string {
	return fmt.Sprintf("quota:%d:%s", customerID, code)
}

// Limit returns the effective limit for code; domain.Unlimited disables it.
func (c *Checker) Limit(ctx context.Context, customerID int64, code domain.QuotaCode) (int, error) {
	if c.cache != nil {
		if v, err := c.cache.Get(ctx, cacheKey(customerID, code)).Result(); err == nil {
			if n, err := strconv.Atoi(v); err == nil {
				return n, nil
			}
		}
	}

	limit, ok, err := c.repo.GroupLimit(ctx, customerID, code)
	if err != nil {
		return 0, fmt.Errorf("resolve quota %s: %w", code, err)
	}
	if !ok {
		limit = domain.Unlimited
		if d, found := c.defaults[string(code)]; found {
			limit = d
		}
	}
	if limit < domain.Unlimited {
		limit = domain.Unlimited
	}

	if c.cache != nil && c.ttl > 0 {
		c.cache.Set(ctx, cacheKey(customerID, code), limit, c.ttl)
	}
	return limit, nil
}

// Check returns ErrReached when current already meets the limit.
func (c *Checker) Check(ctx context.Context, customerID int64, code domain.QuotaCode, current int) error {
	limit, err := c.Limit(ctx, customerID, code)
	if err != nil {
		return err
	}
	if limit != domain.Unlimited && current >= limit {
		return ErrReached
	}
	return nil
}

// Remaining returns how many more records fit, or domain.Unlimited.
func (c *Checker) Remaining(ctx context.Context, customerID int64, code domain.QuotaCode, current int) (int, error) {
	limit, err := c.Limit(ctx, customerID, code)
	if err != nil {
		return 0, err
	}
	if limit == domain.Unlimited {
		return domain.Unlimited, nil
	}
	if current >= limit {
		return 0, nil
	}
	return limit - current, nil
}

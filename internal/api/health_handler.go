package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ignite/customer-console/internal/pkg/httputil"
	"github.com/redis/go-redis/v9"
)

// HealthStatus is the /health payload.
type HealthStatus struct {
	Status  string                    `json:"status"` // healthy, degraded, unhealthy
	Version string                    `json:"version"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck is the result of checking one dependency.
type ComponentCheck struct {
	Status  string `json:"status"` // up, down, degraded, off
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// dependency checks one backing service. slow is the latency above which a
// healthy answer is reported as degraded; critical dependencies make the
// service unhealthy when down.
type dependency struct {
	name     string
	timeout  time.Duration
	slow     time.Duration
	critical bool
	run      func(ctx context.Context) (string, error)
}

// HealthChecker reports the database, Redis and the queued suppression
// import backlog.
type HealthChecker struct {
	deps      []dependency
	startTime time.Time
}

const (
	healthVersion     = "1.0.0"
	importBacklogWarn = 100
)

// NewHealthChecker builds the checks for the given dependencies. A nil
// dependency reports "off".
func NewHealthChecker(db *sql.DB, redisClient *redis.Client) *HealthChecker {
	hc := &HealthChecker{startTime: time.Now()}
	if db != nil {
		hc.deps = append(hc.deps,
			dependency{name: "database", timeout: 3 * time.Second, slow: time.Second, critical: true,
				run: func(ctx context.Context) (string, error) {
					return "connected", db.PingContext(ctx)
				}},
			dependency{name: "import_queue", timeout: 3 * time.Second,
				run: func(ctx context.Context) (string, error) {
					var n int
					err := db.QueryRowContext(ctx,
						`SELECT COUNT(*) FROM customer_suppression_list_imports WHERE status = 'pending'`).Scan(&n)
					if err != nil {
						return "", err
					}
					if n > importBacklogWarn {
						return "", fmt.Errorf("%d imports pending", n)
					}
					return fmt.Sprintf("%d imports pending", n), nil
				}},
		)
	}
	if redisClient != nil {
		hc.deps = append(hc.deps, dependency{name: "redis", timeout: 2 * time.Second, slow: 500 * time.Millisecond,
			run: func(ctx context.Context) (string, error) {
				return "connected", redisClient.Ping(ctx).Err()
			}})
	}
	return hc
}

// HandleHealth always answers 200; the status field carries the verdict.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks, overall := hc.check(r.Context())
	httputil.JSON(w, http.StatusOK, HealthStatus{
		Status:  overall,
		Version: healthVersion,
		Uptime:  formatUptime(time.Since(hc.startTime)),
		Checks:  checks,
	})
}

// HandleReadiness answers 503 while a critical dependency is down.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks, overall := hc.check(r.Context())
	status := http.StatusOK
	if overall == "unhealthy" {
		status = http.StatusServiceUnavailable
	}
	httputil.JSON(w, status, map[string]any{
		"ready":  overall != "unhealthy",
		"status": overall,
		"checks": checks,
	})
}

func (hc *HealthChecker) check(ctx context.Context) (map[string]ComponentCheck, string) {
	checks := map[string]ComponentCheck{
		"database": {Status: "off"},
		"redis":    {Status: "off", Message: "in-process fallbacks"},
	}
	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	overall := "healthy"
	for _, d := range hc.deps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := d.do(ctx)
			mu.Lock()
			defer mu.Unlock()
			checks[d.name] = c
			switch {
			case c.Status == "down" && d.critical:
				overall = "unhealthy"
			case c.Status != "up" && overall == "healthy":
				overall = "degraded"
			}
		}()
	}
	wg.Wait()
	if len(hc.deps) == 0 {
		overall = "unhealthy"
	}
	return checks, overall
}

func (p dependency) do(ctx context.Context) ComponentCheck {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	msg, err := p.run(ctx)
	latency := time.Since(start)
	c := ComponentCheck{Status: "up", Latency: latency.String(), Message: msg}
	switch {
	case err != nil && ctx.Err() != nil:
		c.Status, c.Message = "down", "timed out"
	case err != nil && p.critical:
		c.Status, c.Message = "down", "ping failed"
	case err != nil:
		c.Status, c.Message = "degraded", err.Error()
	case p.slow > 0 && latency > p.slow:
		c.Status, c.Message = "degraded", fmt.Sprintf("slow response (%s)", latency.Round(time.Millisecond))
	}
	return c
}

// formatUptime renders d as "3d 4h 12m 5s", dropping leading zero units.
func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	switch {
	case days > 0:
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	case hours > 0:
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	case minutes > 0:
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}

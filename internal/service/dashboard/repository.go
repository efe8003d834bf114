package dashboard

import (
	"context"
	"time"

	"github.com/ignite/customer-console/internal/domain"
)

// Repository reads the dashboard aggregates.
type Repository interface {
	Glance(ctx context.Context, customerID int64) (*Glance, error)
	ActionLogs(ctx context.Context, customerID int64, limit int) ([]domain.ActionLog, error)
	CreateActionLog(ctx context.Context, l *domain.ActionLog) error
	LatestCampaigns(ctx context.Context, customerID int64, limit int) ([]domain.Campaign, error)
	// SubscriberGrowth counts new subscribers per day since the given time,
	// keyed by YYYY-MM-DD. Days without subscribers may be absent.
	SubscriberGrowth(ctx context.Context, customerID int64, since time.Time) (map[string]int, error)
}

// Favorites returns the most clicked favorite pages.
type Favorites interface {
	Top(ctx context.Context, customerID int64, n int) ([]domain.FavoritePage, error)
}

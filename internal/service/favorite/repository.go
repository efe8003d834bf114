package favorite

import (
	"context"

	"github.com/ignite/customer-console/internal/domain"
)

// Repository defines the data access contract for favorite pages. List
// orders by clicks, most clicked first.
type Repository interface {
	Get(ctx context.Context, customerID int64, uid string) (*domain.FavoritePage, error)
	GetByRoute(ctx context.Context, customerID int64, routeHash string) (*domain.FavoritePage, error)
	List(ctx context.Context, customerID int64, f ListFilter) ([]domain.FavoritePage, int, error)
	Create(ctx context.Context, p *domain.FavoritePage) error
	Delete(ctx context.Context, customerID int64, uid string) error
	DeleteMany(ctx context.Context, customerID int64, uids []string) (int, error)
	IncrementClicks(ctx context.Context, customerID int64, uid string) error
}

// ListFilter controls pagination and filtering for the favorites index.
type ListFilter struct {
	Label  string
	Limit  int
	Offset int
}

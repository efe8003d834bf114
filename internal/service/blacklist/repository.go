package blacklist

import (
	"context"

	"github.com/ignite/customer-console/internal/domain"
)

// Repository defines the data access contract for blacklisted addresses.
// Create returns ErrDuplicate when the address is already present.
type Repository interface {
	Get(ctx context.Context, customerID, id int64) (*domain.CustomerIPBlacklist, error)
	List(ctx context.Context, customerID int64, f ListFilter) ([]domain.CustomerIPBlacklist, int, error)
	Exists(ctx context.Context, customerID int64, ip string) (bool, error)
	Create(ctx context.Context, b *domain.CustomerIPBlacklist) error
	Delete(ctx context.Context, customerID, id int64) error
	DeleteMany(ctx context.Context, customerID int64, ids []int64) (int, error)
	DeleteAll(ctx context.Context, customerID int64) (int, error)
}

// ListFilter controls pagination and filtering for the blacklist index.
type ListFilter struct {
	IPAddress string
	Limit     int
	Offset    int
}

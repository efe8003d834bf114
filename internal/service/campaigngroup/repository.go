package campaigngroup

import (
	"context"

	"github.com/ignite/customer-console/internal/domain"
)

// Repository defines the data access contract for campaign groups. Every
// method is scoped to a customer.
type Repository interface {
	// Get returns the group with the given uid or ErrNotFound.
	Get(ctx context.Context, customerID int64, uid string) (*domain.CampaignGroup, error)

	// List returns groups matching the filter with their campaign counts.
	List(ctx context.Context, customerID int64, f ListFilter) ([]domain.CampaignGroup, int, error)

	// Create inserts g and fills its ID and timestamps.
	Create(ctx context.Context, g *domain.CampaignGroup) error

	// Update persists the editable attributes of g.
	Update(ctx context.Context, g *domain.CampaignGroup) error

	// Delete removes the group and detaches its campaigns.
	Delete(ctx context.Context, customerID int64, uid string) error

	// NameTaken reports whether another group of the customer uses name.
	NameTaken(ctx context.Context, customerID int64, name string, exceptID int64) (bool, error)
}

// ListFilter controls pagination and filtering for the group index.
type ListFilter struct {
	Name   string
	Limit  int
	Offset int
}

package server

import (
	"context"

	"github.com/ignite/customer-console/internal/domain"
)

// Repository defines the data access contract for both server kinds. Hidden
// servers are never returned.
type Repository interface {
	Get(ctx context.Context, kind domain.ServerKind, customerID int64, uid string) (*domain.Server, error)
	List(ctx context.Context, kind domain.ServerKind, customerID int64, f ListFilter) ([]domain.Server, int, error)
	Count(ctx context.Context, kind domain.ServerKind, customerID int64) (int, error)
	Create(ctx context.Context, s *domain.Server) error
	Update(ctx context.Context, s *domain.Server) error
	UpdateStatus(ctx context.Context, kind domain.ServerKind, customerID int64, uid string, status domain.ServerStatus) error
	Delete(ctx context.Context, kind domain.ServerKind, customerID int64, uid string) error
}

// Refs checks that records referenced by monitor conditions belong to the
// customer.
type Refs interface {
	ListExists(ctx context.Context, customerID int64, listUID string) (bool, error)
	CampaignGroupExists(ctx context.Context, customerID int64, groupUID string) (bool, error)
}

// Quota gates creation against customer-group limits.
type Quota interface {
	Check(ctx context.Context, customerID int64, code domain.QuotaCode, current int) error
}

// Tester proves the settings can log in to the mailbox.
type Tester interface {
	Test(ctx context.Context, s *domain.Server) error
}

// ListFilter controls pagination and filtering for the server index.
type ListFilter struct {
	Hostname string
	Username string
	Email    string
	Status   string
	Limit    int
	Offset   int
}

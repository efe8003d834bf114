package sendingdomain

import (
	"context"

	"github.com/ignite/customer-console/internal/domain"
)

// Repository defines the data access contract for sending domains. NameTaken
// checks across every customer because a domain can only be proven once.
// Update and Delete skip locked rows; MarkVerified does not.
type Repository interface {
	Get(ctx context.Context, customerID int64, uid string) (*domain.SendingDomain, error)
	List(ctx context.Context, customerID int64, f ListFilter) ([]domain.SendingDomain, int, error)
	Count(ctx context.Context, customerID int64) (int, error)
	NameTaken(ctx context.Context, name string, exceptID int64) (bool, error)
	Create(ctx context.Context, d *domain.SendingDomain) error
	Update(ctx context.Context, d *domain.SendingDomain) error
	MarkVerified(ctx context.Context, customerID, id int64) error
	Delete(ctx context.Context, customerID int64, uid string) error
}

// ListFilter controls pagination and filtering for the domain index.
type ListFilter struct {
	Name     string
	Verified *bool
	Limit    int
	Offset   int
}

// Resolver looks up TXT records.
type Resolver interface {
	LookupTXT(ctx context.Context, name string) ([]string, error)
}

// Registrar mirrors verified domains into an external sending provider.
type Registrar interface {
	Register(ctx context.Context, d *domain.SendingDomain, selector string) error
	Deregister(ctx context.Context, name string) error
}

// Quota gates creation against customer-group limits.
type Quota interface {
	Check(ctx context.Context, customerID int64, code domain.QuotaCode, current int) error
}

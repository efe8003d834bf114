package subscribercopy

import (
	"context"

	"github.com/ignite/customer-console/internal/domain"
)

// Repository is the data access contract of the copy tool.
type Repository interface {
	GetList(ctx context.Context, customerID int64, uid string) (*domain.List, error)
	// CountSubscribers counts a list's subscribers, limited to statuses
	// when it is not empty.
	CountSubscribers(ctx context.Context, listID int64, statuses []domain.SubscriberStatus) (int, error)
	// CountCustomerSubscribers counts subscribers across the customer's lists.
	CountCustomerSubscribers(ctx context.Context, customerID int64) (int, error)
	// WithTx runs fn in one transaction, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(tx Tx) error) error
}

// Tx is the transactional half of the repository.
type Tx interface {
	// Subscribers returns a window of the list ordered by subscriber id,
	// with field values keyed by tag.
	Subscribers(ctx context.Context, listID int64, statuses []domain.SubscriberStatus, offset, limit int) ([]domain.Subscriber, error)
	// ExistingEmails returns which of emails are already on the list.
	ExistingEmails(ctx context.Context, listID int64, emails []string) (map[string]bool, error)
	// FieldIDs maps the list's field tags to field ids.
	FieldIDs(ctx context.Context, listID int64) (map[string]int64, error)
	// InsertSubscriber adds sub to the list along with the values of
	// sub.Fields whose tag exists in fieldIDs.
	InsertSubscriber(ctx context.Context, sub *domain.Subscriber, fieldIDs map[string]int64) error
}

// Quota resolves customer-group limits.
type Quota interface {
	Limit(ctx context.Context, customerID int64, code domain.QuotaCode) (int, error)
}

// Locker runs fn while holding a named lock, or returns an error
// satisfying errors.Is(err, distlock.ErrBusy) when it is taken.
type Locker interface {
	Do(ctx context.Context, key string, fn func(ctx context.Context) error) error
}

// Progress keeps running totals between steps.
type Progress interface {
	Reset(ctx context.Context, key string) error
	Add(ctx context.Context, key string, copied int) (int, error)
}

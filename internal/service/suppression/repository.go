package suppression

import (
	"context"
	"io"

	"github.com/ignite/customer-console/internal/domain"
)

// Repository defines the data access contract for suppression lists, their
// emails and queued imports.
type Repository interface {
	GetList(ctx context.Context, customerID int64, uid string) (*domain.SuppressionList, error)
	Lists(ctx context.Context, customerID int64, f ListFilter) ([]domain.SuppressionList, int, error)
	CountLists(ctx context.Context, customerID int64) (int, error)
	CreateList(ctx context.Context, l *domain.SuppressionList) error
	UpdateList(ctx context.Context, l *domain.SuppressionList) error
	// DeleteList removes the list and every email on it.
	DeleteList(ctx context.Context, customerID int64, uid string) error
	// Touch bumps the list's last_updated.
	Touch(ctx context.Context, listID int64) error

	GetEmail(ctx context.Context, listID int64, uid string) (*domain.SuppressionListEmail, error)
	Emails(ctx context.Context, listID int64, f EmailFilter) ([]domain.SuppressionListEmail, int, error)
	EmailExists(ctx context.Context, listID int64, email string, exceptID int64) (bool, error)
	CreateEmail(ctx context.Context, e *domain.SuppressionListEmail) error
	UpdateEmail(ctx context.Context, e *domain.SuppressionListEmail) error
	DeleteEmail(ctx context.Context, listID int64, uid string) error
	DeleteEmails(ctx context.Context, listID int64, uids []string) (int, error)
	DeleteAllEmails(ctx context.Context, listID int64) (int, error)

	// IsSuppressed returns true if the email is on any of the customer's lists.
	IsSuppressed(ctx context.Context, customerID int64, email string) (bool, error)

	CreateImport(ctx context.Context, job *domain.SuppressionImportJob) error
	Imports(ctx context.Context, listID int64) ([]domain.SuppressionImportJob, error)
	PendingImports(ctx context.Context, limit int) ([]domain.SuppressionImportJob, error)
	// ClaimImport moves the oldest pending job to processing and returns it,
	// or ErrNoPendingImport. Concurrent claimers never receive the same job.
	ClaimImport(ctx context.Context) (*domain.SuppressionImportJob, error)
	FinishImport(ctx context.Context, job *domain.SuppressionImportJob) error
	// ListByID loads a list without tenant scoping, for background jobs.
	ListByID(ctx context.Context, id int64) (*domain.SuppressionList, error)
}

// Quota gates list creation against customer-group limits.
type Quota interface {
	Check(ctx context.Context, customerID int64, code domain.QuotaCode, current int) error
}

// FileStore keeps queued import files.
type FileStore interface {
	Put(ctx context.Context, key string, r io.Reader) error
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

// ListFilter controls pagination and filtering for the list index.
type ListFilter struct {
	Name   string
	Limit  int
	Offset int
}

// EmailFilter controls pagination and filtering for a list's emails.
type EmailFilter struct {
	Email  string
	Limit  int
	Offset int
}

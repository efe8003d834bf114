package suppression

import (
	"context"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"

	"github.com/google/uuid"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/csvio"
	"github.com/ignite/customer-console/internal/pkg/logger"
)

// Service implements suppression business logic. It is safe for concurrent use.
type Service struct {
	repo  Repository
	quota Quota
	files FileStore
}

// NewService creates a suppression service. files may be nil when queued
// imports are not used.
func NewService(repo Repository, quota Quota, files FileStore) *Service {
	return &Service{repo: repo, quota: quota, files: files}
}

// ListInput carries the posted list attributes.
type ListInput struct {
	Name string `json:"name" mapstructure:"name"`
}

// EmailInput carries the posted email attributes.
type EmailInput struct {
	Email string `json:"email" mapstructure:"email"`
}

// Lists returns the customer's suppression lists.
func (s *Service) Lists(ctx context.Context, customerID int64, f ListFilter) ([]domain.SuppressionList, int, error) {
	return s.repo.Lists(ctx, customerID, f)
}

// GetList returns one list.
func (s *Service) GetList(ctx context.Context, customerID int64, uid string) (*domain.SuppressionList, error) {
	return s.repo.GetList(ctx, customerID, uid)
}

// CreateList validates and stores a new list, subject to the list quota.
func (s *Service) CreateList(ctx context.Context, customerID int64, in ListInput) (*domain.SuppressionList, error) {
	count, err := s.repo.CountLists(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.quota.Check(ctx, customerID, domain.QuotaSuppressionLists, count); err != nil {
		return nil, err
	}
	l := &domain.SuppressionList{
		UID:        uuid.NewString(),
		CustomerID: customerID,
		Name:       strings.TrimSpace(in.Name),
	}
	if err := l.Validate(); err != nil {
		return l, err
	}
	if err := s.repo.CreateList(ctx, l); err != nil {
		return l, err
	}
	return l, nil
}

// UpdateList renames a list.
func (s *Service) UpdateList(ctx context.Context, customerID int64, uid string, in ListInput) (*domain.SuppressionList, error) {
	l, err := s.repo.GetList(ctx, customerID, uid)
	if err != nil {
		return nil, err
	}
	l.Name = strings.TrimSpace(in.Name)
	if err := l.Validate(); err != nil {
		return l, err
	}
	if err := s.repo.UpdateList(ctx, l); err != nil {
		return l, err
	}
	return l, nil
}

// DeleteList removes a list with its emails and returns it for the delete hook.
func (s *Service) DeleteList(ctx context.Context, customerID int64, uid string) (*domain.SuppressionList, error) {
	l, err := s.repo.GetList(ctx, customerID, uid)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteList(ctx, customerID, uid); err != nil {
		return l, err
	}
	return l, nil
}

// Emails returns a list's emails.
func (s *Service) Emails(ctx context.Context, customerID int64, listUID string, f EmailFilter) ([]domain.SuppressionListEmail, int, error) {
	l, err := s.repo.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.Emails(ctx, l.ID, f)
}

// CreateEmail adds an address to a list.
func (s *Service) CreateEmail(ctx context.Context, customerID int64, listUID string, in EmailInput) (*domain.SuppressionListEmail, error) {
	l, err := s.repo.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, err
	}
	e, err := s.addEmail(ctx, l.ID, in.Email)
	if err != nil {
		return e, err
	}
	return e, s.repo.Touch(ctx, l.ID)
}

func (s *Service) addEmail(ctx context.Context, listID int64, email string) (*domain.SuppressionListEmail, error) {
	e := &domain.SuppressionListEmail{
		UID:    uuid.NewString(),
		ListID: listID,
		Email:  domain.NormalizeEmail(email),
	}
	if err := s.validateEmail(ctx, e); err != nil {
		return e, err
	}
	if err := s.repo.CreateEmail(ctx, e); err != nil {
		return e, err
	}
	return e, nil
}

// UpdateEmail changes an address on a list.
func (s *Service) UpdateEmail(ctx context.Context, customerID int64, listUID, emailUID string, in EmailInput) (*domain.SuppressionListEmail, error) {
	l, err := s.repo.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, err
	}
	e, err := s.repo.GetEmail(ctx, l.ID, emailUID)
	if err != nil {
		return nil, err
	}
	e.Email = domain.NormalizeEmail(in.Email)
	if err := s.validateEmail(ctx, e); err != nil {
		return e, err
	}
	if err := s.repo.UpdateEmail(ctx, e); err != nil {
		return e, err
	}
	return e, s.repo.Touch(ctx, l.ID)
}

// DeleteEmail removes one address and returns it for the delete hook.
func (s *Service) DeleteEmail(ctx context.Context, customerID int64, listUID, emailUID string) (*domain.SuppressionListEmail, error) {
	l, err := s.repo.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, err
	}
	e, err := s.repo.GetEmail(ctx, l.ID, emailUID)
	if err != nil {
		return nil, err
	}
	if err := s.repo.DeleteEmail(ctx, l.ID, emailUID); err != nil {
		return e, err
	}
	return e, s.repo.Touch(ctx, l.ID)
}

// DeleteEmails removes the listed addresses from a list.
func (s *Service) DeleteEmails(ctx context.Context, customerID int64, listUID string, uids []string) (int, error) {
	l, err := s.repo.GetList(ctx, customerID, listUID)
	if err != nil {
		return 0, err
	}
	if len(uids) == 0 {
		return 0, nil
	}
	n, err := s.repo.DeleteEmails(ctx, l.ID, uids)
	if err != nil {
		return n, err
	}
	return n, s.repo.Touch(ctx, l.ID)
}

// DeleteAllEmails empties a list.
func (s *Service) DeleteAllEmails(ctx context.Context, customerID int64, listUID string) (int, error) {
	l, err := s.repo.GetList(ctx, customerID, listUID)
	if err != nil {
		return 0, err
	}
	n, err := s.repo.DeleteAllEmails(ctx, l.ID)
	if err != nil {
		return n, err
	}
	return n, s.repo.Touch(ctx, l.ID)
}

// IsSuppressed checks whether an address is on any of the customer's lists.
func (s *Service) IsSuppressed(ctx context.Context, customerID int64, email string) (bool, error) {
	return s.repo.IsSuppressed(ctx, customerID, domain.NormalizeEmail(email))
}

// Export streams a list's emails in batches. The list is resolved when the
// sequence is first pulled.
func (s *Service) Export(ctx context.Context, customerID int64, listUID string, batchSize int) iter.Seq2[domain.SuppressionListEmail, error] {
	return csvio.Paginate(ctx, batchSize, func(ctx context.Context, offset, limit int) ([]domain.SuppressionListEmail, error) {
		rows, _, err := s.Emails(ctx, customerID, listUID, EmailFilter{Limit: limit, Offset: offset})
		return rows, err
	})
}

// Import reads a CSV with an "email" column into a list.
func (s *Service) Import(ctx context.Context, customerID int64, listUID string, src io.Reader) (csvio.Result, error) {
	l, err := s.repo.GetList(ctx, customerID, listUID)
	if err != nil {
		return csvio.Result{}, err
	}
	return s.importInto(ctx, l, src)
}

func (s *Service) importInto(ctx context.Context, l *domain.SuppressionList, src io.Reader) (csvio.Result, error) {
	r, err := csvio.NewReader(src, []string{"email"}, map[string]string{"email address": "email", "e-mail": "email"})
	if err != nil {
		return csvio.Result{}, err
	}
	res, err := r.Each(func(row csvio.Row) error {
		_, err := s.addEmail(ctx, l.ID, row.Get("email"))
		return err
	})
	if res.TotalImported > 0 {
		if terr := s.repo.Touch(ctx, l.ID); terr != nil && err == nil {
			err = terr
		}
	}
	return res, err
}

// QueueImport stores an uploaded file and records a pending import job.
func (s *Service) QueueImport(ctx context.Context, customerID int64, listUID, filename string, src io.Reader) (*domain.SuppressionImportJob, error) {
	if s.files == nil {
		return nil, errors.New("queued imports are not configured")
	}
	l, err := s.repo.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, err
	}
	job := &domain.SuppressionImportJob{
		UID:          uuid.NewString(),
		ListID:       l.ID,
		CustomerID:   customerID,
		OriginalName: filename,
		Status:       domain.ImportPending,
	}
	job.FileKey = fmt.Sprintf("%d/%s.csv", l.ID, job.UID)
	if err := s.files.Put(ctx, job.FileKey, src); err != nil {
		return nil, fmt.Errorf("store import file: %w", err)
	}
	if err := s.repo.CreateImport(ctx, job); err != nil {
		_ = s.files.Remove(ctx, job.FileKey)
		return nil, err
	}
	return job, nil
}

// Imports returns a list's queued import jobs, newest first.
func (s *Service) Imports(ctx context.Context, customerID int64, listUID string) ([]domain.SuppressionImportJob, error) {
	l, err := s.repo.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, err
	}
	return s.repo.Imports(ctx, l.ID)
}

// PendingImports returns jobs waiting for the import command.
func (s *Service) PendingImports(ctx context.Context, limit int) ([]domain.SuppressionImportJob, error) {
	return s.repo.PendingImports(ctx, limit)
}

// ProcessNext claims one pending job and imports its file. It returns
// ErrNoPendingImport when the queue is empty. A failing file marks the job
// failed; the error is recorded on the job and also returned.
func (s *Service) ProcessNext(ctx context.Context) (*domain.SuppressionImportJob, error) {
	if s.files == nil {
		return nil, errors.New("queued imports are not configured")
	}
	job, err := s.repo.ClaimImport(ctx)
	if err != nil {
		return nil, err
	}
	log := logger.With("import", job.UID, "list_id", job.ListID)
	log.Info("processing suppression import", "file", job.FileKey)

	res, runErr := s.runImport(ctx, job)
	job.TotalRecords = res.TotalRecords
	job.TotalImported = res.TotalImported
	if runErr != nil {
		job.Status = domain.ImportFailed
		job.Message = runErr.Error()
		log.Error("suppression import failed", "error", runErr.Error())
	} else {
		job.Status = domain.ImportDone
		job.Message = fmt.Sprintf("Imported %d of %d records.", res.TotalImported, res.TotalRecords)
		if n := len(res.Errors); n > 0 {
			job.Message += fmt.Sprintf(" %d rows rejected, first: %s", n, res.Errors[0].String())
		}
		log.Info("suppression import done", "total", res.TotalRecords, "imported", res.TotalImported)
	}
	if err := s.repo.FinishImport(ctx, job); err != nil {
		return job, err
	}
	if runErr == nil {
		if err := s.files.Remove(ctx, job.FileKey); err != nil {
			log.Warn("removing import file failed", "error", err.Error())
		}
	}
	return job, runErr
}

func (s *Service) runImport(ctx context.Context, job *domain.SuppressionImportJob) (csvio.Result, error) {
	l, err := s.repo.ListByID(ctx, job.ListID)
	if err != nil {
		return csvio.Result{}, err
	}
	rc, err := s.files.Open(ctx, job.FileKey)
	if err != nil {
		return csvio.Result{}, err
	}
	defer rc.Close()
	return s.importInto(ctx, l, rc)
}

func (s *Service) validateEmail(ctx context.Context, e *domain.SuppressionListEmail) error {
	if err := e.Validate(); err != nil {
		return err
	}
	exists, err := s.repo.EmailExists(ctx, e.ListID, e.Email, e.ID)
	if err != nil {
		return err
	}
	if exists {
		v := &domain.ValidationError{}
		v.Add("email", "Email has already been taken.")
		return v
	}
	return nil
}

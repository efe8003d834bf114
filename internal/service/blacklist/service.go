package blacklist

import (
	"context"
	"errors"
	"io"
	"iter"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/csvio"
)

// Service implements IP blacklist business logic.
type Service struct {
	repo Repository
}

// NewService creates a blacklist service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Input carries the posted attributes.
type Input struct {
	IPAddress string `json:"ip_address" mapstructure:"ip_address"`
}

// List returns the customer's blacklisted addresses.
func (s *Service) List(ctx context.Context, customerID int64, f ListFilter) ([]domain.CustomerIPBlacklist, int, error) {
	return s.repo.List(ctx, customerID, f)
}

// Create validates and stores one address.
func (s *Service) Create(ctx context.Context, customerID int64, in Input) (*domain.CustomerIPBlacklist, error) {
	b := &domain.CustomerIPBlacklist{CustomerID: customerID, IPAddress: in.IPAddress}
	b.Normalize()
	if err := b.Validate(); err != nil {
		return b, err
	}
	exists, err := s.repo.Exists(ctx, customerID, b.IPAddress)
	if err != nil {
		return b, err
	}
	if exists {
		v := &domain.ValidationError{}
		v.Add("ip_address", "Ip address has already been taken.")
		return b, v
	}
	if err := s.repo.Create(ctx, b); err != nil {
		if errors.Is(err, ErrDuplicate) {
			v := &domain.ValidationError{}
			v.Add("ip_address", "Ip address has already been taken.")
			return b, v
		}
		return b, err
	}
	return b, nil
}

// Delete removes one address and returns it for the delete hook.
func (s *Service) Delete(ctx context.Context, customerID, id int64) (*domain.CustomerIPBlacklist, error) {
	b, err := s.repo.Get(ctx, customerID, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, customerID, id); err != nil {
		return b, err
	}
	return b, nil
}

// DeleteMany removes the listed ids owned by the customer; foreign ids are
// ignored.
func (s *Service) DeleteMany(ctx context.Context, customerID int64, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	return s.repo.DeleteMany(ctx, customerID, ids)
}

// DeleteAll empties the customer's blacklist.
func (s *Service) DeleteAll(ctx context.Context, customerID int64) (int, error) {
	return s.repo.DeleteAll(ctx, customerID)
}

// IsBlacklisted reports whether ip is on the customer's blacklist.
func (s *Service) IsBlacklisted(ctx context.Context, customerID int64, ip string) (bool, error) {
	b := domain.CustomerIPBlacklist{IPAddress: ip}
	b.Normalize()
	return s.repo.Exists(ctx, customerID, b.IPAddress)
}

// Export streams the whole blacklist in batches.
func (s *Service) Export(ctx context.Context, customerID int64, batchSize int) iter.Seq2[domain.CustomerIPBlacklist, error] {
	return csvio.Paginate(ctx, batchSize, func(ctx context.Context, offset, limit int) ([]domain.CustomerIPBlacklist, error) {
		rows, _, err := s.repo.List(ctx, customerID, ListFilter{Limit: limit, Offset: offset})
		return rows, err
	})
}

// Import reads a CSV with an "ip address" (or "ip") column. Invalid and
// duplicate rows are reported and skipped.
func (s *Service) Import(ctx context.Context, customerID int64, src io.Reader) (csvio.Result, error) {
	r, err := csvio.NewReader(src, []string{"ip address"}, map[string]string{"ip": "ip address", "ip_address": "ip address"})
	if err != nil {
		return csvio.Result{}, err
	}
	return r.Each(func(row csvio.Row) error {
		_, err := s.Create(ctx, customerID, Input{IPAddress: row.Get("ip address")})
		return err
	})
}

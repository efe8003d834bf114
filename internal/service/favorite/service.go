package favorite

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/ignite/customer-console/internal/domain"
)

// Toggle outcomes.
const (
	Added   = "added"
	Removed = "removed"
)

// Service implements favorite page business logic.
type Service struct {
	repo Repository
}

// NewService creates a favorite page service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Input carries the posted attributes.
type Input struct {
	Label string `json:"label" mapstructure:"label"`
	Route string `json:"route" mapstructure:"route"`
}

// List returns favorites ordered by clicks.
func (s *Service) List(ctx context.Context, customerID int64, f ListFilter) ([]domain.FavoritePage, int, error) {
	return s.repo.List(ctx, customerID, f)
}

// Top returns the n most clicked favorites.
func (s *Service) Top(ctx context.Context, customerID int64, n int) ([]domain.FavoritePage, error) {
	rows, _, err := s.repo.List(ctx, customerID, ListFilter{Limit: n})
	return rows, err
}

// Toggle removes the route when it is already a favorite and adds it
// otherwise. It returns the page and Added or Removed.
func (s *Service) Toggle(ctx context.Context, customerID int64, in Input) (*domain.FavoritePage, string, error) {
	p := &domain.FavoritePage{
		CustomerID: customerID,
		Label:      strings.TrimSpace(in.Label),
		Route:      strings.TrimSpace(in.Route),
	}
	if p.Label == "" {
		p.Label = p.Route
	}
	if err := p.Validate(); err != nil {
		return p, "", err
	}
	p.RouteHash = domain.HashRoute(p.Route)

	existing, err := s.repo.GetByRoute(ctx, customerID, p.RouteHash)
	switch {
	case err == nil:
		if err := s.repo.Delete(ctx, customerID, existing.UID); err != nil {
			return existing, "", err
		}
		return existing, Removed, nil
	case !errors.Is(err, ErrNotFound):
		return p, "", err
	}

	p.UID = uuid.NewString()
	if err := s.repo.Create(ctx, p); err != nil {
		return p, "", err
	}
	return p, Added, nil
}

// Delete removes a favorite and returns it for the delete hook.
func (s *Service) Delete(ctx context.Context, customerID int64, uid string) (*domain.FavoritePage, error) {
	p, err := s.repo.Get(ctx, customerID, uid)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, customerID, uid); err != nil {
		return p, err
	}
	return p, nil
}

// DeleteMany removes the listed favorites owned by the customer.
func (s *Service) DeleteMany(ctx context.Context, customerID int64, uids []string) (int, error) {
	if len(uids) == 0 {
		return 0, nil
	}
	return s.repo.DeleteMany(ctx, customerID, uids)
}

// Click counts a visit and returns the route to redirect to.
func (s *Service) Click(ctx context.Context, customerID int64, uid string) (string, error) {
	p, err := s.repo.Get(ctx, customerID, uid)
	if err != nil {
		return "", err
	}
	if err := s.repo.IncrementClicks(ctx, customerID, uid); err != nil {
		return "", err
	}
	return p.Route, nil
}

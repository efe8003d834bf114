package campaigngroup

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ignite/customer-console/internal/domain"
)

// Service implements campaign group business logic. It is safe for concurrent use.
type Service struct {
	repo Repository
}

// NewService creates a campaign group service backed by the given repository.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Input carries the attributes a customer may post.
type Input struct {
	Name string `json:"name" mapstructure:"name"`
}

// List returns the customer's groups.
func (s *Service) List(ctx context.Context, customerID int64, f ListFilter) ([]domain.CampaignGroup, int, error) {
	return s.repo.List(ctx, customerID, f)
}

// Get returns one group.
func (s *Service) Get(ctx context.Context, customerID int64, uid string) (*domain.CampaignGroup, error) {
	return s.repo.Get(ctx, customerID, uid)
}

// Create validates and stores a new group.
func (s *Service) Create(ctx context.Context, customerID int64, in Input) (*domain.CampaignGroup, error) {
	g := &domain.CampaignGroup{
		UID:        uuid.NewString(),
		CustomerID: customerID,
		Name:       strings.TrimSpace(in.Name),
	}
	if err := s.validate(ctx, g); err != nil {
		return g, err
	}
	if err := s.repo.Create(ctx, g); err != nil {
		return g, err
	}
	return g, nil
}

// Update renames a group.
func (s *Service) Update(ctx context.Context, customerID int64, uid string, in Input) (*domain.CampaignGroup, error) {
	g, err := s.repo.Get(ctx, customerID, uid)
	if err != nil {
		return nil, err
	}
	g.Name = strings.TrimSpace(in.Name)
	if err := s.validate(ctx, g); err != nil {
		return g, err
	}
	if err := s.repo.Update(ctx, g); err != nil {
		return g, err
	}
	return g, nil
}

// Delete removes a group and returns it for the delete hook.
func (s *Service) Delete(ctx context.Context, customerID int64, uid string) (*domain.CampaignGroup, error) {
	g, err := s.repo.Get(ctx, customerID, uid)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, customerID, uid); err != nil {
		return nil, err
	}
	return g, nil
}

func (s *Service) validate(ctx context.Context, g *domain.CampaignGroup) error {
	if err := g.Validate(); err != nil {
		return err
	}
	taken, err := s.repo.NameTaken(ctx, g.CustomerID, g.Name, g.ID)
	if err != nil {
		return err
	}
	if taken {
		v := &domain.ValidationError{}
		v.Add("name", "Name has already been taken.")
		return v
	}
	return nil
}

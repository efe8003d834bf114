package listpage

import (
	"context"

	"github.com/ignite/customer-console/internal/domain"
)

// Lists resolves a customer's list and its fields.
type Lists interface {
	GetList(ctx context.Context, customerID int64, uid string) (*domain.List, error)
	Fields(ctx context.Context, listID int64) ([]domain.ListField, error)
}

// Repository stores customized page content keyed by list and type.
type Repository interface {
	Pages(ctx context.Context, listID int64) ([]domain.ListPage, error)
	// Page returns ErrNotFound when the type is not customized.
	Page(ctx context.Context, listID int64, pageType string) (*domain.ListPage, error)
	SavePage(ctx context.Context, p *domain.ListPage) error
	DeletePage(ctx context.Context, listID int64, pageType string) error
}

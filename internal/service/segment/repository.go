package segment

import (
	"context"

	"github.com/ignite/customer-console/internal/domain"
)

// Repository stores list segments with their conditions. Create and Update
// write the conditions in the same transaction as the segment row.
type Repository interface {
	Get(ctx context.Context, listID int64, uid string) (*domain.Segment, error)
	List(ctx context.Context, listID int64, f ListFilter) ([]domain.Segment, int, error)
	Create(ctx context.Context, s *domain.Segment) error
	Update(ctx context.Context, s *domain.Segment) error
	Delete(ctx context.Context, listID int64, uid string) error
}

// Lists resolves a customer's list, its fields and its subscribers.
type Lists interface {
	GetList(ctx context.Context, customerID int64, uid string) (*domain.List, error)
	Fields(ctx context.Context, listID int64) ([]domain.ListField, error)
	Subscribers(ctx context.Context, listID int64, offset, limit int) ([]domain.Subscriber, error)
}

// Surveys resolves a customer's survey, its fields, segments and responders.
type Surveys interface {
	GetSurvey(ctx context.Context, customerID int64, uid string) (*domain.Survey, error)
	SurveyFields(ctx context.Context, surveyID int64) ([]domain.SurveyField, error)
	SurveySegments(ctx context.Context, surveyID int64, f ListFilter) ([]domain.Segment, int, error)
	GetSurveySegment(ctx context.Context, surveyID int64, uid string) (*domain.Segment, error)
	Responders(ctx context.Context, surveyID int64, offset, limit int) ([]domain.SurveyResponder, error)
}

// Quota resolves customer-group limits.
type Quota interface {
	Limit(ctx context.Context, customerID int64, code domain.QuotaCode) (int, error)
}

// ListFilter controls pagination and filtering for segment indexes.
type ListFilter struct {
	Name   string
	Limit  int
	Offset int
}

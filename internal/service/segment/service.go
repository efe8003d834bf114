package segment

import (
	"context"
	"iter"
	"strings"

	"github.com/google/uuid"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/csvio"
)

// Service implements list and survey segment business logic.
type Service struct {
	repo    Repository
	lists   Lists
	surveys Surveys
	quota   Quota
}

// NewService creates a segment service.
func NewService(repo Repository, lists Lists, surveys Surveys, quota Quota) *Service {
	return &Service{repo: repo, lists: lists, surveys: surveys, quota: quota}
}

// Input carries the posted segment attributes.
type Input struct {
	Name          string                    `json:"name" mapstructure:"name"`
	OperatorMatch domain.OperatorMatch      `json:"operator_match" mapstructure:"operator_match"`
	Conditions    []domain.SegmentCondition `json:"conditions" mapstructure:"conditions"`
}

// List returns a list's segments.
func (s *Service) List(ctx context.Context, customerID int64, listUID string, f ListFilter) ([]domain.Segment, int, error) {
	l, err := s.lists.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, 0, err
	}
	return s.repo.List(ctx, l.ID, f)
}

// Get returns one segment of a list.
func (s *Service) Get(ctx context.Context, customerID int64, listUID, uid string) (*domain.Segment, error) {
	l, err := s.lists.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, err
	}
	return s.repo.Get(ctx, l.ID, uid)
}

// Create validates and stores a new segment.
func (s *Service) Create(ctx context.Context, customerID int64, listUID string, in Input) (*domain.Segment, error) {
	l, err := s.lists.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, err
	}
	seg := &domain.Segment{UID: uuid.NewString(), OwnerID: l.ID}
	apply(seg, in)
	if err := s.validate(ctx, customerID, l.ID, seg); err != nil {
		return seg, err
	}
	if err := s.repo.Create(ctx, seg); err != nil {
		return seg, err
	}
	return seg, nil
}

// Update replaces a segment's name, match mode and conditions.
func (s *Service) Update(ctx context.Context, customerID int64, listUID, uid string, in Input) (*domain.Segment, error) {
	l, err := s.lists.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, err
	}
	seg, err := s.repo.Get(ctx, l.ID, uid)
	if err != nil {
		return nil, err
	}
	apply(seg, in)
	if err := s.validate(ctx, customerID, l.ID, seg); err != nil {
		return seg, err
	}
	if err := s.repo.Update(ctx, seg); err != nil {
		return seg, err
	}
	return seg, nil
}

// Delete removes a segment and returns it for the delete hook.
func (s *Service) Delete(ctx context.Context, customerID int64, listUID, uid string) (*domain.Segment, error) {
	l, err := s.lists.GetList(ctx, customerID, listUID)
	if err != nil {
		return nil, err
	}
	seg, err := s.repo.Get(ctx, l.ID, uid)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Delete(ctx, l.ID, uid); err != nil {
		return seg, err
	}
	return seg, nil
}

// Copy duplicates a segment with its conditions under a new uid.
func (s *Service) Copy(ctx context.Context, customerID int64, listUID, uid string) (*domain.Segment, error) {
	src, err := s.Get(ctx, customerID, listUID, uid)
	if err != nil {
		return nil, err
	}
	cp := &domain.Segment{
		UID:           uuid.NewString(),
		OwnerID:       src.OwnerID,
		Name:          copyName(src.Name),
		OperatorMatch: src.OperatorMatch,
	}
	for _, c := range src.Conditions {
		c.ID = 0
		cp.Conditions = append(cp.Conditions, c)
	}
	if err := s.repo.Create(ctx, cp); err != nil {
		return nil, err
	}
	return cp, nil
}

func copyName(name string) string {
	name += " (copy)"
	if len(name) > 255 {
		name = name[:255]
	}
	return name
}

// Count returns how many of the list's subscribers match the segment.
func (s *Service) Count(ctx context.Context, customerID int64, listUID, uid string, batchSize int) (int, error) {
	_, seq, err := s.Subscribers(ctx, customerID, listUID, uid, batchSize)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, err := range seq {
		if err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// Subscribers streams the list's subscribers matching the segment. The
// returned row is the empty row whose header describes the export columns.
func (s *Service) Subscribers(ctx context.Context, customerID int64, listUID, uid string, batchSize int) (SubscriberRow, iter.Seq2[SubscriberRow, error], error) {
	l, err := s.lists.GetList(ctx, customerID, listUID)
	if err != nil {
		return SubscriberRow{}, nil, err
	}
	seg, err := s.repo.Get(ctx, l.ID, uid)
	if err != nil {
		return SubscriberRow{}, nil, err
	}
	fields, err := s.lists.Fields(ctx, l.ID)
	if err != nil {
		return SubscriberRow{}, nil, err
	}
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		tags = append(tags, f.Tag)
	}

	all := csvio.Paginate(ctx, batchSize, func(ctx context.Context, offset, limit int) ([]domain.Subscriber, error) {
		return s.lists.Subscribers(ctx, l.ID, offset, limit)
	})
	seq := func(yield func(SubscriberRow, error) bool) {
		for sub, err := range all {
			if err != nil {
				yield(SubscriberRow{}, err)
				return
			}
			if !Matches(seg, sub.Value) {
				continue
			}
			if !yield(SubscriberRow{Tags: tags, Subscriber: sub}, nil) {
				return
			}
		}
	}
	return SubscriberRow{Tags: tags}, seq, nil
}

// SurveySegments returns a survey's segments.
func (s *Service) SurveySegments(ctx context.Context, customerID int64, surveyUID string, f ListFilter) ([]domain.Segment, int, error) {
	sv, err := s.surveys.GetSurvey(ctx, customerID, surveyUID)
	if err != nil {
		return nil, 0, err
	}
	return s.surveys.SurveySegments(ctx, sv.ID, f)
}

// Responders streams the survey's responders matching a survey segment.
func (s *Service) Responders(ctx context.Context, customerID int64, surveyUID, uid string, batchSize int) (ResponderRow, iter.Seq2[ResponderRow, error], error) {
	sv, err := s.surveys.GetSurvey(ctx, customerID, surveyUID)
	if err != nil {
		return ResponderRow{}, nil, err
	}
	seg, err := s.surveys.GetSurveySegment(ctx, sv.ID, uid)
	if err != nil {
		return ResponderRow{}, nil, err
	}
	fields, err := s.surveys.SurveyFields(ctx, sv.ID)
	if err != nil {
		return ResponderRow{}, nil, err
	}
	tags := make([]string, 0, len(fields))
	for _, f := range fields {
		tags = append(tags, f.Tag)
	}

	all := csvio.Paginate(ctx, batchSize, func(ctx context.Context, offset, limit int) ([]domain.SurveyResponder, error) {
		return s.surveys.Responders(ctx, sv.ID, offset, limit)
	})
	seq := func(yield func(ResponderRow, error) bool) {
		for r, err := range all {
			if err != nil {
				yield(ResponderRow{}, err)
				return
			}
			if !Matches(seg, r.Value) {
				continue
			}
			if !yield(ResponderRow{Tags: tags, Responder: r}, nil) {
				return
			}
		}
	}
	return ResponderRow{Tags: tags}, seq, nil
}

func apply(seg *domain.Segment, in Input) {
	seg.Name = strings.TrimSpace(in.Name)
	seg.OperatorMatch = in.OperatorMatch
	if seg.OperatorMatch == "" {
		seg.OperatorMatch = domain.MatchAny
	}
	seg.Conditions = nil
	for _, c := range in.Conditions {
		c.FieldTag = strings.ToUpper(strings.TrimSpace(c.FieldTag))
		c.Value = strings.TrimSpace(c.Value)
		seg.Conditions = append(seg.Conditions, c)
	}
}

func (s *Service) validate(ctx context.Context, customerID, listID int64, seg *domain.Segment) error {
	fields, err := s.lists.Fields(ctx, listID)
	if err != nil {
		return err
	}
	known := map[string]bool{"EMAIL": true}
	ids := make(map[string]int64, len(fields))
	for _, f := range fields {
		known[f.Tag] = true
		ids[f.Tag] = f.ID
	}
	limit, err := s.quota.Limit(ctx, customerID, domain.QuotaSegmentConditions)
	if err != nil {
		return err
	}
	if err := seg.Validate(known, limit); err != nil {
		return err
	}
	for i := range seg.Conditions {
		seg.Conditions[i].FieldID = ids[seg.Conditions[i].FieldTag]
	}
	return nil
}

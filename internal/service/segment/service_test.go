package segment_test

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/csvio"
	"github.com/ignite/customer-console/internal/service/segment"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu       sync.Mutex
	segments map[string]*domain.Segment
}

func (m *memRepo) Get(_ context.Context, listID int64, uid string) (*domain.Segment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.segments[uid]
	if !ok || s.OwnerID != listID {
		return nil, segment.ErrNotFound
	}
	cp := *s
	cp.Conditions = append([]domain.SegmentCondition(nil), s.Conditions...)
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, listID int64, _ segment.ListFilter) ([]domain.Segment, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Segment
	for _, s := range m.segments {
		if s.OwnerID == listID {
			out = append(out, *s)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, s *domain.Segment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.segments[s.UID] = &cp
	return nil
}

func (m *memRepo) Update(ctx context.Context, s *domain.Segment) error { return m.Create(ctx, s) }

func (m *memRepo) Delete(_ context.Context, _ int64, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.segments, uid)
	return nil
}

type fakeLists struct{ subscribers []domain.Subscriber }

func (fakeLists) GetList(_ context.Context, customerID int64, uid string) (*domain.List, error) {
	if customerID != 1 || uid != "list-1" {
		return nil, segment.ErrListNotFound
	}
	return &domain.List{ID: 10, UID: uid, CustomerID: 1}, nil
}

func (fakeLists) Fields(context.Context, int64) ([]domain.ListField, error) {
	return []domain.ListField{{ID: 1, Tag: "EMAIL"}, {ID: 2, Tag: "FNAME"}, {ID: 3, Tag: "CITY"}}, nil
}

func (f fakeLists) Subscribers(_ context.Context, _ int64, offset, limit int) ([]domain.Subscriber, error) {
	if offset >= len(f.subscribers) {
		return nil, nil
	}
	end := min(offset+limit, len(f.subscribers))
	return f.subscribers[offset:end], nil
}

type fakeSurveys struct{}

var surveySeg = &domain.Segment{UID: "sseg", OwnerID: 5, Name: "Yes voters", OperatorMatch: domain.MatchAll,
	Conditions: []domain.SegmentCondition{{FieldTag: "VOTE", Operator: domain.OpIs, Value: "yes"}}}

func (fakeSurveys) GetSurvey(_ context.Context, customerID int64, uid string) (*domain.Survey, error) {
	if customerID != 1 || uid != "survey-1" {
		return nil, segment.ErrSurveyNotFound
	}
	return &domain.Survey{ID: 5, UID: uid, CustomerID: 1}, nil
}

func (fakeSurveys) SurveyFields(context.Context, int64) ([]domain.SurveyField, error) {
	return []domain.SurveyField{{Tag: "VOTE"}}, nil
}

func (fakeSurveys) SurveySegments(context.Context, int64, segment.ListFilter) ([]domain.Segment, int, error) {
	return []domain.Segment{*surveySeg}, 1, nil
}

func (fakeSurveys) GetSurveySegment(_ context.Context, _ int64, uid string) (*domain.Segment, error) {
	if uid != surveySeg.UID {
		return nil, segment.ErrNotFound
	}
	return surveySeg, nil
}

func (fakeSurveys) Responders(_ context.Context, _ int64, offset, _ int) ([]domain.SurveyResponder, error) {
	if offset > 0 {
		return nil, nil
	}
	return []domain.SurveyResponder{
		{UID: "r1", Fields: map[string]string{"VOTE": "yes"}},
		{UID: "r2", Fields: map[string]string{"VOTE": "no"}},
	}, nil
}

type limit int

func (l limit) Limit(context.Context, int64, domain.QuotaCode) (int, error) { return int(l), nil }

func subscribers(n int) []domain.Subscriber {
	out := make([]domain.Subscriber, n)
	for i := range out {
		city := "Paris"
		if i%2 == 0 {
			city = "Berlin"
		}
		out[i] = domain.Subscriber{
			UID:    fmt.Sprintf("s%d", i),
			Email:  fmt.Sprintf("user%d@example.com", i),
			Status: domain.SubscriberConfirmed,
			Fields: map[string]string{"FNAME": fmt.Sprintf("User %d", i), "CITY": city},
		}
	}
	return out
}

func newService(max int) (*segment.Service, *memRepo) {
	repo := &memRepo{segments: map[string]*domain.Segment{}}
	return segment.NewService(repo, fakeLists{subscribers: subscribers(25)}, fakeSurveys{}, limit(max)), repo
}

var berlin = segment.Input{
	Name:          "Berliners",
	OperatorMatch: domain.MatchAll,
	Conditions:    []domain.SegmentCondition{{FieldTag: "city", Operator: domain.OpIs, Value: "berlin"}},
}

func TestCreate_ValidatesFieldsAndLimit(t *testing.T) {
	svc, _ := newService(1)
	ctx := context.Background()

	seg, err := svc.Create(ctx, 1, "list-1", berlin)
	require.NoError(t, err)
	assert.Equal(t, "CITY", seg.Conditions[0].FieldTag)
	assert.Equal(t, int64(3), seg.Conditions[0].FieldID)

	in := berlin
	in.Conditions = append(in.Conditions, domain.SegmentCondition{FieldTag: "FNAME", Operator: domain.OpContains, Value: "1"})
	_, err = svc.Create(ctx, 1, "list-1", in)
	var v *domain.ValidationError
	require.ErrorAs(t, err, &v)
	assert.Contains(t, v.Fields, "conditions")

	in = berlin
	in.Conditions = []domain.SegmentCondition{{FieldTag: "NOPE", Operator: domain.OpIs, Value: "x"}}
	_, err = svc.Create(ctx, 1, "list-1", in)
	require.ErrorAs(t, err, &v)

	_, err = svc.Create(ctx, 2, "list-1", berlin)
	assert.ErrorIs(t, err, segment.ErrListNotFound)
}

func TestCountAndExport(t *testing.T) {
	svc, _ := newService(domain.Unlimited)
	ctx := context.Background()
	seg, err := svc.Create(ctx, 1, "list-1", berlin)
	require.NoError(t, err)

	n, err := svc.Count(ctx, 1, "list-1", seg.UID, 4)
	require.NoError(t, err)
	assert.Equal(t, 13, n)

	empty, seq, err := svc.Subscribers(ctx, 1, "list-1", seg.UID, 4)
	require.NoError(t, err)
	var buf bytes.Buffer
	written, err := csvio.WriteAllWith(&buf, seq, empty)
	require.NoError(t, err)
	assert.Equal(t, 13, written)
	assert.True(t, strings.HasPrefix(buf.String(), "Subscriber UID,Email,FNAME,CITY,Status,Source,IP Address,Date Added\n"))
}

func TestCopy(t *testing.T) {
	svc, repo := newService(domain.Unlimited)
	ctx := context.Background()
	seg, err := svc.Create(ctx, 1, "list-1", berlin)
	require.NoError(t, err)

	cp, err := svc.Copy(ctx, 1, "list-1", seg.UID)
	require.NoError(t, err)
	assert.NotEqual(t, seg.UID, cp.UID)
	assert.Equal(t, "Berliners (copy)", cp.Name)
	assert.Equal(t, seg.Conditions[0].FieldTag, cp.Conditions[0].FieldTag)
	assert.Len(t, repo.segments, 2)
}

func TestSurveyResponders(t *testing.T) {
	svc, _ := newService(domain.Unlimited)
	ctx := context.Background()

	segs, total, err := svc.SurveySegments(ctx, 1, "survey-1", segment.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Len(t, segs, 1)

	_, seq, err := svc.Responders(ctx, 1, "survey-1", "sseg", 10)
	require.NoError(t, err)
	var uids []string
	for row, err := range seq {
		require.NoError(t, err)
		uids = append(uids, row.Responder.UID)
	}
	assert.Equal(t, []string{"r1"}, uids)

	_, _, err = svc.Responders(ctx, 2, "survey-1", "sseg", 10)
	assert.ErrorIs(t, err, segment.ErrSurveyNotFound)
}

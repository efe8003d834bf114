package dashboard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/hooks"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockRepo struct {
	glance      Glance
	glanceCalls int
	logs        []domain.ActionLog
	growth      map[string]int
	since       time.Time
	logErr      error
}

func (m *mockRepo) Glance(context.Context, int64) (*Glance, error) {
	m.glanceCalls++
	g := m.glance
	return &g, nil
}

func (m *mockRepo) ActionLogs(_ context.Context, _ int64, limit int) ([]domain.ActionLog, error) {
	if len(m.logs) > limit {
		return m.logs[:limit], nil
	}
	return m.logs, nil
}

func (m *mockRepo) CreateActionLog(_ context.Context, l *domain.ActionLog) error {
	if m.logErr != nil {
		return m.logErr
	}
	m.logs = append([]domain.ActionLog{*l}, m.logs...)
	return nil
}

func (m *mockRepo) LatestCampaigns(context.Context, int64, int) ([]domain.Campaign, error) {
	return []domain.Campaign{{UID: "c1", Name: "Spring", Status: domain.CampaignSent}}, nil
}

func (m *mockRepo) SubscriberGrowth(_ context.Context, _ int64, since time.Time) (map[string]int, error) {
	m.since = since
	return m.growth, nil
}

type topFavorites []domain.FavoritePage

func (t topFavorites) Top(_ context.Context, _ int64, n int) ([]domain.FavoritePage, error) {
	if len(t) > n {
		return t[:n], nil
	}
	return t, nil
}

func newTestService(t *testing.T, repo *mockRepo) (*Service, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	svc := NewService(repo, topFavorites{{UID: "f1", Label: "Lists", Route: "/lists"}}, client, Options{CacheTTL: time.Minute})
	svc.now = func() time.Time { return time.Date(2024, 3, 10, 15, 4, 0, 0, time.UTC) }
	return svc, mr
}

func TestGlance_CachesUntilInvalidated(t *testing.T) {
	repo := &mockRepo{glance: Glance{Lists: 2, Subscribers: 40}}
	svc, mr := newTestService(t, repo)
	ctx := context.Background()

	g, err := svc.Glance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 40, g.Subscribers)
	assert.True(t, mr.Exists("dashboard:glance:7"))

	repo.glance.Subscribers = 41
	g, err = svc.Glance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 40, g.Subscribers)
	assert.Equal(t, 1, repo.glanceCalls)

	svc.Invalidate(ctx, 7)
	g, err = svc.Glance(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 41, g.Subscribers)
	assert.Equal(t, 2, repo.glanceCalls)
}

func TestGrowth_FillsMissingDays(t *testing.T) {
	repo := &mockRepo{growth: map[string]int{"2024-03-08": 5, "2024-03-10": 2}}
	svc, _ := newTestService(t, repo)

	points, err := svc.Growth(context.Background(), 7, 4)
	require.NoError(t, err)
	assert.Equal(t, []GrowthPoint{
		{Date: "2024-03-07", Count: 0},
		{Date: "2024-03-08", Count: 5},
		{Date: "2024-03-09", Count: 0},
		{Date: "2024-03-10", Count: 2},
	}, points)
	assert.Equal(t, time.Date(2024, 3, 7, 0, 0, 0, 0, time.UTC), repo.since)

	points, err = svc.Growth(context.Background(), 7, 0)
	require.NoError(t, err)
	assert.Len(t, points, 14)
}

func TestListener_LogsAndInvalidates(t *testing.T) {
	repo := &mockRepo{}
	svc, mr := newTestService(t, repo)
	ctx := context.Background()
	bus := hooks.New()
	bus.On(hooks.Any, svc.Listener())

	_, err := svc.Glance(ctx, 7)
	require.NoError(t, err)

	bus.Fire(ctx, hooks.Event{
		Name: hooks.AfterSave, Controller: "campaign_groups", Action: "create",
		Success: true, CustomerID: 7, Model: &domain.CampaignGroup{UID: "g1", Name: "Newsletters"},
	})
	bus.Fire(ctx, hooks.Event{
		Name: hooks.AfterDelete, Controller: "sending_domains", Action: "delete",
		Success: true, CustomerID: 7, Model: &domain.SendingDomain{UID: "d1", Name: "example.com"},
	})
	bus.Fire(ctx, hooks.Event{Name: hooks.AfterSave, Controller: "campaign_groups", Success: false, CustomerID: 7})

	assert.False(t, mr.Exists("dashboard:glance:7"))
	require.Len(t, repo.logs, 2)
	assert.Equal(t, `sending domains "example.com" deleted`, repo.logs[0].Message)
	assert.Equal(t, "d1", repo.logs[0].ReferenceID)
	assert.Equal(t, `campaign groups "Newsletters" created`, repo.logs[1].Message)
	assert.Equal(t, "campaign_groups", repo.logs[1].Category)
}

func TestListener_LogFailureDoesNotPanic(t *testing.T) {
	repo := &mockRepo{logErr: errors.New("db down")}
	svc, _ := newTestService(t, repo)

	assert.NotPanics(t, func() {
		svc.Listener()(context.Background(), hooks.Event{Name: hooks.AfterSave, Success: true, CustomerID: 7})
	})
}

func TestAll(t *testing.T) {
	repo := &mockRepo{glance: Glance{Campaigns: 3}}
	svc, _ := newTestService(t, repo)

	o, err := svc.All(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, o.Glance.Campaigns)
	assert.Len(t, o.Campaigns, 1)
	assert.Len(t, o.Growth, 14)
	assert.Len(t, o.Favorites, 1)
}

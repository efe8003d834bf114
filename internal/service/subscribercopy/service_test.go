package subscribercopy_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/distlock"
	"github.com/ignite/customer-console/internal/service/subscribercopy"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo keeps lists in memory. Inserts made inside WithTx are staged and
// only applied when fn succeeds.
type memRepo struct {
	mu        sync.Mutex
	lists     map[string]*domain.List
	subs      map[int64][]domain.Subscriber
	failAfter int
}

type memTx struct {
	repo    *memRepo
	staged  []domain.Subscriber
	inserts int
}

func newMemRepo() *memRepo {
	return &memRepo{
		lists: map[string]*domain.List{
			"src":    {ID: 1, UID: "src", CustomerID: 1},
			"dst":    {ID: 2, UID: "dst", CustomerID: 1},
			"foreig": {ID: 3, UID: "foreig", CustomerID: 2},
		},
		subs: map[int64][]domain.Subscriber{},
	}
}

func (m *memRepo) seed(listID int64, n int, from int) {
	for i := from; i < from+n; i++ {
		m.subs[listID] = append(m.subs[listID], domain.Subscriber{
			ID:     int64(i + 1),
			Email:  fmt.Sprintf("user%d@example.com", i),
			Status: domain.SubscriberConfirmed,
			Fields: map[string]string{"FNAME": fmt.Sprintf("User %d", i)},
		})
	}
}

func (m *memRepo) GetList(_ context.Context, customerID int64, uid string) (*domain.List, error) {
	l, ok := m.lists[uid]
	if !ok || l.CustomerID != customerID {
		return nil, subscribercopy.ErrListNotFound
	}
	return l, nil
}

func (m *memRepo) CountSubscribers(_ context.Context, listID int64, statuses []domain.SubscriberStatus) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(filter(m.subs[listID], statuses)), nil
}

func (m *memRepo) CountCustomerSubscribers(_ context.Context, customerID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.lists {
		if l.CustomerID == customerID {
			n += len(m.subs[l.ID])
		}
	}
	return n, nil
}

func (m *memRepo) WithTx(_ context.Context, fn func(tx subscribercopy.Tx) error) error {
	tx := &memTx{repo: m}
	if err := fn(tx); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range tx.staged {
		m.subs[s.ListID] = append(m.subs[s.ListID], s)
	}
	return nil
}

func filter(subs []domain.Subscriber, statuses []domain.SubscriberStatus) []domain.Subscriber {
	if len(statuses) == 0 {
		return subs
	}
	var out []domain.Subscriber
	for _, s := range subs {
		for _, st := range statuses {
			if s.Status == st {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

func (t *memTx) Subscribers(_ context.Context, listID int64, statuses []domain.SubscriberStatus, offset, limit int) ([]domain.Subscriber, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	all := filter(t.repo.subs[listID], statuses)
	if offset >= len(all) {
		return nil, nil
	}
	end := min(offset+limit, len(all))
	return append([]domain.Subscriber(nil), all[offset:end]...), nil
}

func (t *memTx) ExistingEmails(_ context.Context, listID int64, emails []string) (map[string]bool, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	out := map[string]bool{}
	for _, s := range t.repo.subs[listID] {
		for _, e := range emails {
			if s.Email == e {
				out[e] = true
			}
		}
	}
	return out, nil
}

func (t *memTx) FieldIDs(context.Context, int64) (map[string]int64, error) {
	return map[string]int64{"EMAIL": 10, "FNAME": 11}, nil
}

func (t *memTx) InsertSubscriber(_ context.Context, sub *domain.Subscriber, _ map[string]int64) error {
	t.inserts++
	if t.repo.failAfter > 0 && t.inserts > t.repo.failAfter {
		return errors.New("disk full")
	}
	t.staged = append(t.staged, *sub)
	return nil
}

type limits map[domain.QuotaCode]int

func (l limits) Limit(_ context.Context, _ int64, code domain.QuotaCode) (int, error) {
	if v, ok := l[code]; ok {
		return v, nil
	}
	return domain.Unlimited, nil
}

type freeLocker struct{}

func (freeLocker) Do(ctx context.Context, _ string, fn func(context.Context) error) error { return fn(ctx) }

type busyLocker struct{}

func (busyLocker) Do(context.Context, string, func(context.Context) error) error { return distlock.ErrBusy }

func newProgress(t *testing.T) *subscribercopy.RedisProgress {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return subscribercopy.NewRedisProgress(client, time.Hour)
}

// run drives the client loop and returns the number of steps taken.
func run(t *testing.T, svc *subscribercopy.Service, req subscribercopy.Request) (int, *subscribercopy.Result) {
	t.Helper()
	req.Page = 1
	for steps := 1; steps < 100; steps++ {
		res, err := svc.Step(context.Background(), 1, "dst", req)
		require.NoError(t, err)
		if res.Finished {
			return steps, res
		}
		req.Page = res.NextPage
	}
	t.Fatal("copy never finished")
	return 0, nil
}

func TestStep_FinishesInCeilSteps(t *testing.T) {
	tests := []struct {
		size, batch, steps int
	}{
		{10, 3, 4},
		{9, 3, 3},
		{1, 5, 1},
		{0, 5, 1},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d/%d", tt.size, tt.batch), func(t *testing.T) {
			repo := newMemRepo()
			repo.seed(1, tt.size, 0)
			svc := subscribercopy.NewService(repo, limits{}, freeLocker{}, newProgress(t), tt.batch)

			steps, res := run(t, svc, subscribercopy.Request{FromListUID: "src"})
			assert.Equal(t, tt.steps, steps)
			assert.Equal(t, tt.size, res.Copied)
			assert.Equal(t, 100, res.Percentage)
			assert.Len(t, repo.subs[2], tt.size)
		})
	}
}

func TestStep_SkipsExistingEmails(t *testing.T) {
	repo := newMemRepo()
	repo.seed(1, 6, 0)
	repo.seed(2, 2, 0)
	svc := subscribercopy.NewService(repo, limits{}, freeLocker{}, newProgress(t), 4)

	_, res := run(t, svc, subscribercopy.Request{FromListUID: "src"})
	assert.Equal(t, 4, res.Copied)
	assert.Len(t, repo.subs[2], 6)
}

func TestStep_StopsAtQuota(t *testing.T) {
	repo := newMemRepo()
	repo.seed(1, 10, 0)
	svc := subscribercopy.NewService(repo, limits{domain.QuotaSubscribersPerList: 3}, freeLocker{}, newProgress(t), 4)

	steps, res := run(t, svc, subscribercopy.Request{FromListUID: "src"})
	assert.Equal(t, 1, steps)
	assert.Equal(t, 3, res.Copied)
	assert.Contains(t, res.Message, "Maximum number")
	assert.Len(t, repo.subs[2], 3)
}

func TestStep_RollsBackFailedWindow(t *testing.T) {
	repo := newMemRepo()
	repo.seed(1, 5, 0)
	repo.failAfter = 2
	svc := subscribercopy.NewService(repo, limits{}, freeLocker{}, newProgress(t), 5)

	_, err := svc.Step(context.Background(), 1, "dst", subscribercopy.Request{FromListUID: "src", Page: 1})
	require.Error(t, err)
	assert.Empty(t, repo.subs[2])
}

func TestStep_Rejections(t *testing.T) {
	repo := newMemRepo()
	svc := subscribercopy.NewService(repo, limits{}, freeLocker{}, newProgress(t), 5)
	ctx := context.Background()

	_, err := svc.Step(ctx, 1, "dst", subscribercopy.Request{FromListUID: "dst"})
	assert.ErrorIs(t, err, subscribercopy.ErrSameList)
	_, err = svc.Step(ctx, 1, "dst", subscribercopy.Request{FromListUID: "foreig"})
	assert.ErrorIs(t, err, subscribercopy.ErrListNotFound)

	busy := subscribercopy.NewService(repo, limits{}, busyLocker{}, newProgress(t), 5)
	_, err = busy.Step(ctx, 1, "dst", subscribercopy.Request{FromListUID: "src"})
	assert.ErrorIs(t, err, subscribercopy.ErrBusy)
}

func TestMemoryProgress(t *testing.T) {
	p := subscribercopy.NewMemoryProgress()
	ctx := context.Background()

	n, err := p.Add(ctx, "dst", 3)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	n, _ = p.Add(ctx, "dst", 4)
	assert.Equal(t, 7, n)

	require.NoError(t, p.Reset(ctx, "dst"))
	n, _ = p.Add(ctx, "dst", 1)
	assert.Equal(t, 1, n)
}

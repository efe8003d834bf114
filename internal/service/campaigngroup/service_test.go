package campaigngroup_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/campaigngroup"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory campaign group repository for unit testing.
type memRepo struct {
	mu     sync.Mutex
	nextID int64
	groups map[string]*domain.CampaignGroup // keyed by uid
}

func newMemRepo() *memRepo {
	return &memRepo{groups: make(map[string]*domain.CampaignGroup)}
}

func (m *memRepo) Get(_ context.Context, customerID int64, uid string) (*domain.CampaignGroup, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[uid]
	if !ok || g.CustomerID != customerID {
		return nil, campaigngroup.ErrNotFound
	}
	cp := *g
	return &cp, nil
}

func (m *memRepo) List(_ context.Context, customerID int64, _ campaigngroup.ListFilter) ([]domain.CampaignGroup, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CampaignGroup
	for _, g := range m.groups {
		if g.CustomerID == customerID {
			out = append(out, *g)
		}
	}
	return out, len(out), nil
}

func (m *memRepo) Create(_ context.Context, g *domain.CampaignGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	g.ID = m.nextID
	cp := *g
	m.groups[g.UID] = &cp
	return nil
}

func (m *memRepo) Update(_ context.Context, g *domain.CampaignGroup) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *g
	m.groups[g.UID] = &cp
	return nil
}

func (m *memRepo) Delete(_ context.Context, customerID int64, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	g, ok := m.groups[uid]
	if !ok || g.CustomerID != customerID {
		return campaigngroup.ErrNotFound
	}
	delete(m.groups, uid)
	return nil
}

func (m *memRepo) NameTaken(_ context.Context, customerID int64, name string, exceptID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range m.groups {
		if g.CustomerID == customerID && g.Name == name && g.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

const (
	tenantA int64 = 1
	tenantB int64 = 2
)

func TestCreate(t *testing.T) {
	svc := campaigngroup.NewService(newMemRepo())

	g, err := svc.Create(context.Background(), tenantA, campaigngroup.Input{Name: "  Newsletters "})
	require.NoError(t, err)
	assert.Equal(t, "Newsletters", g.Name)
	assert.NotEmpty(t, g.UID)
	assert.NotZero(t, g.ID)
}

func TestCreate_Validation(t *testing.T) {
	svc := campaigngroup.NewService(newMemRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, tenantA, campaigngroup.Input{Name: ""})
	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "name")

	_, err = svc.Create(ctx, tenantA, campaigngroup.Input{Name: "Promo"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, tenantA, campaigngroup.Input{Name: "Promo"})
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "Name has already been taken.", verr.First())

	_, err = svc.Create(ctx, tenantB, campaigngroup.Input{Name: "Promo"})
	assert.NoError(t, err, "names are unique per customer only")
}

func TestUpdate_KeepsOwnNameValid(t *testing.T) {
	svc := campaigngroup.NewService(newMemRepo())
	ctx := context.Background()

	g, _ := svc.Create(ctx, tenantA, campaigngroup.Input{Name: "Promo"})
	updated, err := svc.Update(ctx, tenantA, g.UID, campaigngroup.Input{Name: "Promo"})
	require.NoError(t, err)
	assert.Equal(t, "Promo", updated.Name)
}

func TestTenantIsolation(t *testing.T) {
	svc := campaigngroup.NewService(newMemRepo())
	ctx := context.Background()

	g, _ := svc.Create(ctx, tenantA, campaigngroup.Input{Name: "Mine"})

	_, err := svc.Get(ctx, tenantB, g.UID)
	assert.ErrorIs(t, err, campaigngroup.ErrNotFound)
	_, err = svc.Update(ctx, tenantB, g.UID, campaigngroup.Input{Name: "Stolen"})
	assert.ErrorIs(t, err, campaigngroup.ErrNotFound)
	_, err = svc.Delete(ctx, tenantB, g.UID)
	assert.ErrorIs(t, err, campaigngroup.ErrNotFound)

	list, total, err := svc.List(ctx, tenantB, campaigngroup.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, list)

	still, err := svc.Get(ctx, tenantA, g.UID)
	require.NoError(t, err)
	assert.Equal(t, "Mine", still.Name)
}

func TestDelete_ReturnsModel(t *testing.T) {
	svc := campaigngroup.NewService(newMemRepo())
	ctx := context.Background()

	g, _ := svc.Create(ctx, tenantA, campaigngroup.Input{Name: "Old"})
	deleted, err := svc.Delete(ctx, tenantA, g.UID)
	require.NoError(t, err)
	assert.Equal(t, g.UID, deleted.UID)

	_, err = svc.Get(ctx, tenantA, g.UID)
	assert.ErrorIs(t, err, campaigngroup.ErrNotFound)
}

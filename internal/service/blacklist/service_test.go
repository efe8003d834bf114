package blacklist_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/csvio"
	"github.com/ignite/customer-console/internal/service/blacklist"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []domain.CustomerIPBlacklist
}

func (m *memRepo) Get(_ context.Context, customerID, id int64) (*domain.CustomerIPBlacklist, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.ID == id && b.CustomerID == customerID {
			cp := b
			return &cp, nil
		}
	}
	return nil, blacklist.ErrNotFound
}

func (m *memRepo) List(_ context.Context, customerID int64, f blacklist.ListFilter) ([]domain.CustomerIPBlacklist, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.CustomerIPBlacklist
	for _, b := range m.rows {
		if b.CustomerID == customerID && strings.Contains(b.IPAddress, f.IPAddress) {
			out = append(out, b)
		}
	}
	total := len(out)
	if f.Offset >= len(out) {
		return nil, total, nil
	}
	out = out[f.Offset:]
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, total, nil
}

func (m *memRepo) Exists(_ context.Context, customerID int64, ip string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.rows {
		if b.CustomerID == customerID && b.IPAddress == ip {
			return true, nil
		}
	}
	return false, nil
}

func (m *memRepo) Create(_ context.Context, b *domain.CustomerIPBlacklist) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	b.ID = m.nextID
	m.rows = append(m.rows, *b)
	return nil
}

func (m *memRepo) Delete(ctx context.Context, customerID, id int64) error {
	_, err := m.DeleteMany(ctx, customerID, []int64{id})
	return err
}

func (m *memRepo) DeleteMany(_ context.Context, customerID int64, ids []int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := make(map[int64]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}
	kept := m.rows[:0]
	n := 0
	for _, b := range m.rows {
		if b.CustomerID == customerID && drop[b.ID] {
			n++
			continue
		}
		kept = append(kept, b)
	}
	m.rows = kept
	return n, nil
}

func (m *memRepo) DeleteAll(_ context.Context, customerID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.rows[:0]
	n := 0
	for _, b := range m.rows {
		if b.CustomerID == customerID {
			n++
			continue
		}
		kept = append(kept, b)
	}
	m.rows = kept
	return n, nil
}

func TestCreate_ValidatesAndDedupes(t *testing.T) {
	svc := blacklist.NewService(&memRepo{})
	ctx := context.Background()

	b, err := svc.Create(ctx, 1, blacklist.Input{IPAddress: " 10.0.0.1 "})
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", b.IPAddress)

	_, err = svc.Create(ctx, 1, blacklist.Input{IPAddress: "10.0.0.1"})
	var v *domain.ValidationError
	require.ErrorAs(t, err, &v)

	_, err = svc.Create(ctx, 1, blacklist.Input{IPAddress: "not-an-ip"})
	require.ErrorAs(t, err, &v)

	// Another customer may blacklist the same address.
	_, err = svc.Create(ctx, 2, blacklist.Input{IPAddress: "10.0.0.1"})
	assert.NoError(t, err)
}

func TestIsBlacklisted_IPv6Canonical(t *testing.T) {
	svc := blacklist.NewService(&memRepo{})
	_, err := svc.Create(context.Background(), 1, blacklist.Input{IPAddress: "2001:DB8:0:0:0:0:0:1"})
	require.NoError(t, err)
	ok, err := svc.IsBlacklisted(context.Background(), 1, "2001:db8::1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestImport_CountsRowErrors(t *testing.T) {
	svc := blacklist.NewService(&memRepo{})
	csv := "IP\n10.0.0.1\nbad\n10.0.0.2\n10.0.0.1\n"
	res, err := svc.Import(context.Background(), 1, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 4, res.TotalRecords)
	assert.Equal(t, 2, res.TotalImported)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 3, res.Errors[0].Line)
}

func TestImport_MissingColumn(t *testing.T) {
	svc := blacklist.NewService(&memRepo{})
	_, err := svc.Import(context.Background(), 1, strings.NewReader("address\n10.0.0.1\n"))
	assert.ErrorIs(t, err, csvio.ErrMissingColumn)
}

func TestExportImportRoundTrip(t *testing.T) {
	ctx := context.Background()
	src := blacklist.NewService(&memRepo{})
	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "::1"} {
		_, err := src.Create(ctx, 1, blacklist.Input{IPAddress: ip})
		require.NoError(t, err)
	}
	var buf strings.Builder
	n, err := csvio.WriteAll(&buf, src.Export(ctx, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	dst := blacklist.NewService(&memRepo{})
	res, err := dst.Import(ctx, 1, strings.NewReader(buf.String()))
	require.NoError(t, err)
	assert.Equal(t, 3, res.TotalImported)
}

func TestDeleteMany_IgnoresForeignIDs(t *testing.T) {
	repo := &memRepo{}
	svc := blacklist.NewService(repo)
	ctx := context.Background()
	a, _ := svc.Create(ctx, 1, blacklist.Input{IPAddress: "10.0.0.1"})
	b, _ := svc.Create(ctx, 2, blacklist.Input{IPAddress: "10.0.0.2"})

	n, err := svc.DeleteMany(ctx, 1, []int64{a.ID, b.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	_, total, _ := svc.List(ctx, 2, blacklist.ListFilter{})
	assert.Equal(t, 1, total)
}

package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []domain.Server
}

func (m *serverRepo) find(kind domain.ServerKind, customerID int64, uid string) int {
	for i, s := range m.rows {
		if s.Kind == kind && s.CustomerID == customerID && s.UID == uid && s.Status != domain.ServerHidden {
			return i
		}
	}
	return -1
}

func (m *serverRepo) Get(_ context.Context, kind domain.ServerKind, customerID int64, uid string) (*domain.Server, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(kind, customerID, uid)
	if i < 0 {
		return nil, server.ErrNotFound
	}
	cp := m.rows[i]
	return &cp, nil
}

func (m *serverRepo) List(_ context.Context, kind domain.ServerKind, customerID int64, f server.ListFilter) ([]domain.Server, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Server
	for _, s := range m.rows {
		if s.Kind == kind && s.CustomerID == customerID && s.Status != domain.ServerHidden {
			out = append(out, s)
		}
	}
	return page(out, f.Offset, f.Limit), len(out), nil
}

func (m *serverRepo) Count(ctx context.Context, kind domain.ServerKind, customerID int64) (int, error) {
	_, n, err := m.List(ctx, kind, customerID, server.ListFilter{})
	return n, err
}

func (m *serverRepo) Create(_ context.Context, s *domain.Server) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	s.ID = m.nextID
	s.DateAdded = time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	s.LastUpdated = s.DateAdded
	m.rows = append(m.rows, *s)
	return nil
}

func (m *serverRepo) Update(_ context.Context, s *domain.Server) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(s.Kind, s.CustomerID, s.UID)
	if i < 0 || m.rows[i].Locked {
		return server.ErrNotFound
	}
	m.rows[i] = *s
	return nil
}

func (m *serverRepo) UpdateStatus(_ context.Context, kind domain.ServerKind, customerID int64, uid string, status domain.ServerStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(kind, customerID, uid)
	if i < 0 || m.rows[i].Locked {
		return server.ErrNotFound
	}
	m.rows[i].Status = status
	return nil
}

func (m *serverRepo) Delete(_ context.Context, kind domain.ServerKind, customerID int64, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	i := m.find(kind, customerID, uid)
	if i < 0 || m.rows[i].Locked {
		return server.ErrNotFound
	}
	m.rows = append(m.rows[:i], m.rows[i+1:]...)
	return nil
}

func (m *serverRepo) seed(uid string, customerID int64, locked bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	m.rows = append(m.rows, domain.Server{
		ID: m.nextID, UID: uid, CustomerID: customerID, Kind: domain.KindFeedbackLoop,
		Hostname: uid + ".example.com", Username: "fbl", Password: "s3cret-" + uid,
		Email: "fbl@example.com", Service: domain.ServiceIMAP, Port: 993,
		Protocol: domain.ProtocolSSL, ValidateSSL: true, Locked: locked,
		Status: domain.ServerInactive, DateAdded: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	})
}

func (m *serverRepo) status(uid string) domain.ServerStatus {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.rows {
		if s.UID == uid {
			return s.Status
		}
	}
	return ""
}

type allRefs struct{}

func (allRefs) ListExists(context.Context, int64, string) (bool, error)          { return true, nil }
func (allRefs) CampaignGroupExists(context.Context, int64, string) (bool, error) { return true, nil }

type stubTester struct{ err error }

func (s stubTester) Test(context.Context, *domain.Server) error { return s.err }

func withServers(repo *serverRepo, limits groupLimits, tester server.Tester) func(*Services) {
	return func(s *Services) {
		s.Servers = server.NewService(repo, allRefs{}, newQuota(limits), tester)
	}
}

const fblURL = "/api/customer/servers/feedback-loop"

type importBody struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    struct {
		TotalRecords  int `json:"total_records"`
		TotalImported int `json:"total_imported"`
		Errors        []struct {
			Line    int    `json:"line"`
			Message string `json:"message"`
		} `json:"errors"`
	} `json:"data"`
}

func decodeImport(t *testing.T, rec *httptest.ResponseRecorder) importBody {
	t.Helper()
	var body importBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func TestServers_CreateTestsConnection(t *testing.T) {
	repo := &serverRepo{}
	ts := newTestServer(t, withServers(repo, nil, stubTester{err: errors.New("connection refused")}))

	body := `{"hostname":"imap.example.com","username":"fbl","password":"pw","service":"imap","protocol":"ssl"}`
	rec := ts.do(ajax(http.MethodPost, fblURL, body), "acme")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
	env := decodeEnvelope(t, rec)
	assert.Contains(t, env.Errors, "hostname")
	assert.Empty(t, repo.rows)

	rec = ts.do(ajax(http.MethodPost, fblURL,
		`{"hostname":"imap.example.com","username":"fbl","password":"pw","skip_connection_test":true}`), "acme")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), `"pw"`)
	require.Len(t, repo.rows, 1)
	assert.Equal(t, domain.ServerInactive, repo.rows[0].Status)
}

func TestServers_LockedServerConflicts(t *testing.T) {
	repo := &serverRepo{}
	repo.seed("locked-1", 1, true)
	ts := newTestServer(t, withServers(repo, nil, nil))

	rec := ts.do(ajax(http.MethodDelete, fblURL+"/locked-1", ""), "acme")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(ajax(http.MethodPut, fblURL+"/locked-1", `{"hostname":"new.example.com","username":"u"}`), "acme")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = ts.do(ajax(http.MethodPost, fblURL+"/locked-1/disable", ""), "acme")
	assert.Equal(t, http.StatusConflict, rec.Code)

	require.Len(t, repo.rows, 1)
	assert.Equal(t, "locked-1.example.com", repo.rows[0].Hostname)
}

func TestServers_TenantIsolation(t *testing.T) {
	repo := &serverRepo{}
	repo.seed("mine", 1, false)
	ts := newTestServer(t, withServers(repo, nil, nil))

	rec := ts.do(httptest.NewRequest(http.MethodGet, fblURL+"/mine", nil), "other")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(httptest.NewRequest(http.MethodGet, "/api/customer/servers/email-box-monitors/mine", nil), "acme")
	assert.Equal(t, http.StatusNotFound, rec.Code, "kinds do not mix")

	rec = ts.do(httptest.NewRequest(http.MethodGet, fblURL+"/mine", nil), "acme")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "s3cret")
}

func TestServers_ExportOmitsPassword(t *testing.T) {
	repo := &serverRepo{}
	repo.seed("a", 1, false)
	repo.seed("b", 1, true)
	repo.seed("theirs", 2, false)
	ts := newTestServer(t, withServers(repo, nil, nil))

	rec := ts.do(httptest.NewRequest(http.MethodGet, fblURL+"/export", nil), "acme")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "feedback-loop-2024-03-02.csv")

	out := rec.Body.String()
	assert.NotContains(t, out, "s3cret")
	assert.NotContains(t, out, "theirs")
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, strings.Join(domain.Server{}.CSVHeader(), ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "a,a.example.com,fbl,"))
}

func TestServers_ImportFromExport(t *testing.T) {
	src := &serverRepo{}
	src.seed("a", 1, false)
	src.seed("b", 1, true)
	ts := newTestServer(t, withServers(src, nil, nil))
	rec := ts.do(httptest.NewRequest(http.MethodGet, fblURL+"/export", nil), "acme")
	require.Equal(t, http.StatusOK, rec.Code)
	exported := rec.Body.String()

	dst := &serverRepo{}
	ts = newTestServer(t, withServers(dst, nil, stubTester{err: errors.New("must not dial")}))
	rec = ts.do(upload(t, fblURL+"/import", exported), "other")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeImport(t, rec)
	assert.Equal(t, 2, body.Data.TotalRecords)
	assert.Equal(t, 2, body.Data.TotalImported)
	assert.Empty(t, body.Data.Errors)
	require.Len(t, dst.rows, 2)
	for _, s := range dst.rows {
		assert.Equal(t, int64(2), s.CustomerID)
		assert.Equal(t, domain.KindFeedbackLoop, s.Kind)
		assert.Equal(t, domain.ServerInactive, s.Status)
		assert.Empty(t, s.Password)
		assert.False(t, s.Locked)
		assert.Equal(t, 993, s.Port)
		assert.Equal(t, domain.ProtocolSSL, s.Protocol)
	}
	assert.Equal(t, "import", ts.lastEvent().Action)

	// A password-less import cannot be enabled until edited.
	rec = ts.do(ajax(http.MethodPost, fblURL+"/"+dst.rows[0].UID+"/enable", ""), "other")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, domain.ServerInactive, dst.status(dst.rows[0].UID))
}

func TestServers_ImportRowErrorsAndQuota(t *testing.T) {
	repo := &serverRepo{}
	ts := newTestServer(t, withServers(repo, groupLimits{domain.QuotaFBLServers: 2}, nil))

	csv := "Hostname,Username,Port\n" +
		"a.example.com,u,143\n" +
		"b.example.com,,143\n" +
		"c.example.com,u,abc\n" +
		"d.example.com,u,110\n" +
		"e.example.com,u,110\n"
	rec := ts.do(upload(t, fblURL+"/import", csv), "acme")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decodeImport(t, rec)
	assert.Equal(t, 5, body.Data.TotalRecords)
	assert.Equal(t, 2, body.Data.TotalImported)
	require.Len(t, body.Data.Errors, 3)
	assert.Equal(t, 3, body.Data.Errors[0].Line)
	assert.Equal(t, "Username cannot be blank.", body.Data.Errors[0].Message)
	assert.Equal(t, 4, body.Data.Errors[1].Line)
	assert.Equal(t, 6, body.Data.Errors[2].Line)
	assert.Len(t, repo.rows, 2)
}

func TestServers_ImportMissingHostname(t *testing.T) {
	ts := newTestServer(t, withServers(&serverRepo{}, nil, nil))
	rec := ts.do(upload(t, fblURL+"/import", "Username\nu\n"), "acme")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "hostname")
}

func TestServers_BulkEnableSkipsLockedAndMissing(t *testing.T) {
	repo := &serverRepo{}
	repo.seed("a", 1, false)
	repo.seed("b", 1, false)
	repo.seed("c", 1, true)
	ts := newTestServer(t, withServers(repo, nil, nil))

	rec := ts.do(ajax(http.MethodPost, fblURL+"/bulk-action",
		`{"bulk_action":"enable","items":["a","b","c","missing"]}`), "acme")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body["result"])
	assert.Contains(t, body["message"], "2 items affected")
	assert.Equal(t, domain.ServerActive, repo.status("a"))
	assert.Equal(t, domain.ServerActive, repo.status("b"))
	assert.Equal(t, domain.ServerInactive, repo.status("c"))

	rec = ts.do(ajax(http.MethodPost, fblURL+"/bulk-action", `{"bulk_action":"delete","items":["a","c"]}`), "acme")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "1 items affected")
	assert.Len(t, repo.rows, 2)

	rec = ts.do(ajax(http.MethodPost, fblURL+"/bulk-action", `{"bulk_action":"archive","items":["b"]}`), "acme")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServers_BulkCopyStopsAtQuota(t *testing.T) {
	repo := &serverRepo{}
	repo.seed("a", 1, false)
	repo.seed("b", 1, false)
	ts := newTestServer(t, withServers(repo, groupLimits{domain.QuotaFBLServers: 3}, nil))

	rec := ts.do(ajax(http.MethodPost, fblURL+"/bulk-action", `{"bulk_action":"copy","items":["a","b"]}`), "acme")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Bulk action stopped at the server quota, 1 items affected.", body["message"])
	assert.Len(t, repo.rows, 3)

	rec = ts.do(ajax(http.MethodPost, fblURL+"/a/copy", ""), "acme")
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/suppression"
	"github.com/ignite/customer-console/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type suppressionRepo struct {
	mu     sync.Mutex
	nextID int64
	lists  []domain.SuppressionList
	emails []domain.SuppressionListEmail
	jobs   []domain.SuppressionImportJob
}

func (m *suppressionRepo) id() int64 { m.nextID++; return m.nextID }

func (m *suppressionRepo) seed(uid string, customerID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lists = append(m.lists, domain.SuppressionList{ID: m.id(), UID: uid, CustomerID: customerID, Name: uid})
}

func (m *suppressionRepo) GetList(_ context.Context, customerID int64, uid string) (*domain.SuppressionList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lists {
		if l.UID == uid && l.CustomerID == customerID {
			cp := l
			return &cp, nil
		}
	}
	return nil, suppression.ErrNotFound
}

func (m *suppressionRepo) ListByID(_ context.Context, id int64) (*domain.SuppressionList, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lists {
		if l.ID == id {
			cp := l
			return &cp, nil
		}
	}
	return nil, suppression.ErrNotFound
}

func (m *suppressionRepo) Lists(_ context.Context, customerID int64, f suppression.ListFilter) ([]domain.SuppressionList, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SuppressionList
	for _, l := range m.lists {
		if l.CustomerID == customerID {
			out = append(out, l)
		}
	}
	return page(out, f.Offset, f.Limit), len(out), nil
}

func (m *suppressionRepo) CountLists(ctx context.Context, customerID int64) (int, error) {
	_, n, err := m.Lists(ctx, customerID, suppression.ListFilter{})
	return n, err
}

func (m *suppressionRepo) CreateList(_ context.Context, l *domain.SuppressionList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	l.ID = m.id()
	m.lists = append(m.lists, *l)
	return nil
}

func (m *suppressionRepo) UpdateList(_ context.Context, l *domain.SuppressionList) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.lists {
		if m.lists[i].ID == l.ID {
			m.lists[i] = *l
		}
	}
	return nil
}

func (m *suppressionRepo) DeleteList(_ context.Context, customerID int64, uid string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.lists {
		if l.UID == uid && l.CustomerID == customerID {
			m.lists = append(m.lists[:i], m.lists[i+1:]...)
			m.dropEmails(l.ID)
			return nil
		}
	}
	return suppression.ErrNotFound
}

func (m *suppressionRepo) dropEmails(listID int64) int {
	kept, n := m.emails[:0], 0
	for _, e := range m.emails {
		if e.ListID == listID {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.emails = kept
	return n
}

func (m *suppressionRepo) Touch(context.Context, int64) error { return nil }

func (m *suppressionRepo) GetEmail(_ context.Context, listID int64, uid string) (*domain.SuppressionListEmail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.emails {
		if e.UID == uid && e.ListID == listID {
			cp := e
			return &cp, nil
		}
	}
	return nil, suppression.ErrEmailNotFound
}

func (m *suppressionRepo) Emails(_ context.Context, listID int64, f suppression.EmailFilter) ([]domain.SuppressionListEmail, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SuppressionListEmail
	for _, e := range m.emails {
		if e.ListID == listID && strings.Contains(e.Email, f.Email) {
			out = append(out, e)
		}
	}
	return page(out, f.Offset, f.Limit), len(out), nil
}

func (m *suppressionRepo) EmailExists(_ context.Context, listID int64, email string, exceptID int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.emails {
		if e.ListID == listID && e.Email == email && e.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func (m *suppressionRepo) CreateEmail(_ context.Context, e *domain.SuppressionListEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.id()
	m.emails = append(m.emails, *e)
	return nil
}

func (m *suppressionRepo) UpdateEmail(_ context.Context, e *domain.SuppressionListEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.emails {
		if m.emails[i].ID == e.ID {
			m.emails[i] = *e
		}
	}
	return nil
}

func (m *suppressionRepo) DeleteEmail(ctx context.Context, listID int64, uid string) error {
	_, err := m.DeleteEmails(ctx, listID, []string{uid})
	return err
}

func (m *suppressionRepo) DeleteEmails(_ context.Context, listID int64, uids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	drop := map[string]bool{}
	for _, u := range uids {
		drop[u] = true
	}
	kept, n := m.emails[:0], 0
	for _, e := range m.emails {
		if e.ListID == listID && drop[e.UID] {
			n++
			continue
		}
		kept = append(kept, e)
	}
	m.emails = kept
	return n, nil
}

func (m *suppressionRepo) DeleteAllEmails(_ context.Context, listID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.dropEmails(listID), nil
}

func (m *suppressionRepo) IsSuppressed(_ context.Context, customerID int64, email string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.emails {
		for _, l := range m.lists {
			if e.Email == email && l.ID == e.ListID && l.CustomerID == customerID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (m *suppressionRepo) CreateImport(_ context.Context, job *domain.SuppressionImportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job.ID = m.id()
	m.jobs = append(m.jobs, *job)
	return nil
}

func (m *suppressionRepo) Imports(_ context.Context, listID int64) ([]domain.SuppressionImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SuppressionImportJob
	for _, j := range m.jobs {
		if j.ListID == listID {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *suppressionRepo) PendingImports(_ context.Context, _ int) ([]domain.SuppressionImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.SuppressionImportJob
	for _, j := range m.jobs {
		if j.Status == domain.ImportPending {
			out = append(out, j)
		}
	}
	return out, nil
}

func (m *suppressionRepo) ClaimImport(_ context.Context) (*domain.SuppressionImportJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.jobs {
		if m.jobs[i].Status == domain.ImportPending {
			m.jobs[i].Status = domain.ImportProcessing
			cp := m.jobs[i]
			return &cp, nil
		}
	}
	return nil, suppression.ErrNoPendingImport
}

func (m *suppressionRepo) FinishImport(_ context.Context, job *domain.SuppressionImportJob) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.jobs {
		if m.jobs[i].ID == job.ID {
			m.jobs[i] = *job
		}
	}
	return nil
}

func (m *suppressionRepo) addresses() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.emails))
	for _, e := range m.emails {
		out = append(out, e.Email)
	}
	return out
}

func withSuppression(t *testing.T, repo *suppressionRepo, limits groupLimits) (func(*Services), *storage.LocalStore) {
	t.Helper()
	files, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)
	return func(s *Services) {
		s.Suppression = suppression.NewService(repo, newQuota(limits), files)
	}, files
}

const suppressionURL = "/api/customer/suppression-lists"

func TestSuppression_ImportReportsRowErrors(t *testing.T) {
	repo := &suppressionRepo{}
	repo.seed("sl1", 1)
	with, _ := withSuppression(t, repo, nil)
	ts := newTestServer(t, with)

	csv := "Email Address,Name\n" +
		"One@Example.com,one\n" +
		"not-an-email,bad\n" +
		"one@example.com,dup\n" +
		",\n" +
		"two@example.com,two\n"
	rec := ts.do(upload(t, suppressionURL+"/sl1/emails/import", csv), "acme")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body struct {
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
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "Import finished: 2 of 4 records imported.", body.Message)
	assert.Equal(t, 4, body.Data.TotalRecords)
	assert.Equal(t, 2, body.Data.TotalImported)
	require.Len(t, body.Data.Errors, 2)
	assert.Equal(t, 3, body.Data.Errors[0].Line)
	assert.Equal(t, "Email is not a valid email address.", body.Data.Errors[0].Message)
	assert.Equal(t, 4, body.Data.Errors[1].Line)
	assert.Equal(t, "Email has already been taken.", body.Data.Errors[1].Message)

	assert.ElementsMatch(t, []string{"one@example.com", "two@example.com"}, repo.addresses())
}

func TestSuppression_ImportRequiresEmailColumn(t *testing.T) {
	repo := &suppressionRepo{}
	repo.seed("sl1", 1)
	with, _ := withSuppression(t, repo, nil)
	ts := newTestServer(t, with)

	rec := ts.do(upload(t, suppressionURL+"/sl1/emails/import", "name\nbob\n"), "acme")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.addresses())
}

func TestSuppression_QueueImport(t *testing.T) {
	repo := &suppressionRepo{}
	repo.seed("sl1", 1)
	with, files := withSuppression(t, repo, nil)
	ts := newTestServer(t, with)

	rec := ts.do(upload(t, suppressionURL+"/sl1/emails/import-queue", "email\nq@example.com\n"), "acme")
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var body struct {
		Message string                      `json:"message"`
		Data    domain.SuppressionImportJob `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Your file has been queued for import.", body.Message)
	assert.Equal(t, domain.ImportPending, body.Data.Status)
	assert.Equal(t, "import.csv", body.Data.OriginalName)
	assert.Empty(t, repo.addresses())

	rc, err := files.Open(context.Background(), body.Data.FileKey)
	require.NoError(t, err)
	stored, err := io.ReadAll(rc)
	rc.Close()
	require.NoError(t, err)
	assert.Equal(t, "email\nq@example.com\n", string(stored))

	rec = ts.do(httptest.NewRequest(http.MethodGet, suppressionURL+"/sl1/imports", nil), "acme")
	require.Equal(t, http.StatusOK, rec.Code)
	var jobs struct {
		Data []domain.SuppressionImportJob `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &jobs))
	require.Len(t, jobs.Data, 1)
	assert.Equal(t, body.Data.UID, jobs.Data[0].UID)

	rec = ts.do(httptest.NewRequest(http.MethodGet, suppressionURL+"/sl1/imports", nil), "other")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSuppression_CreateEmailValidation(t *testing.T) {
	repo := &suppressionRepo{}
	repo.seed("sl1", 1)
	with, _ := withSuppression(t, repo, nil)
	ts := newTestServer(t, with)

	rec := ts.do(ajax(http.MethodPost, suppressionURL+"/sl1/emails",
		`{"CustomerSuppressionListEmail":{"email":"nope"}}`), "acme")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	env := decodeEnvelope(t, rec)
	assert.Equal(t, formErrorMessage, env.Message)
	assert.Equal(t, []string{"Email is not a valid email address."}, env.Errors["email"])

	rec = ts.do(ajax(http.MethodPost, suppressionURL+"/sl1/emails", `{"email":" A@Example.com "}`), "acme")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, []string{"a@example.com"}, repo.addresses())

	rec = ts.do(ajax(http.MethodPost, suppressionURL+"/sl1/emails", `{"email":"a@example.com"}`), "acme")
	require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, decodeEnvelope(t, rec).Errors, "email")
}

func TestSuppression_MissingListIsNotFound(t *testing.T) {
	repo := &suppressionRepo{}
	repo.seed("sl1", 1)
	with, _ := withSuppression(t, repo, nil)
	ts := newTestServer(t, with)

	rec := ts.do(ajax(http.MethodPost, suppressionURL+"/sl1/emails", `{"email":"x@example.com"}`), "other")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(upload(t, suppressionURL+"/missing/emails/import", "email\nx@example.com\n"), "acme")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = ts.do(ajax(http.MethodDelete, suppressionURL+"/sl1/emails/nope", ""), "acme")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, repo.addresses())
}

func TestSuppression_CreateListQuota(t *testing.T) {
	repo := &suppressionRepo{}
	repo.seed("sl1", 1)
	with, _ := withSuppression(t, repo, groupLimits{domain.QuotaSuppressionLists: 1})
	ts := newTestServer(t, with)

	rec := ts.do(ajax(http.MethodPost, suppressionURL, `{"CustomerSuppressionList":{"name":"second"}}`), "acme")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = ts.do(ajax(http.MethodPost, suppressionURL, `{"CustomerSuppressionList":{"name":"first"}}`), "other")
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestSuppression_DeleteAllAndExport(t *testing.T) {
	repo := &suppressionRepo{}
	repo.seed("sl1", 1)
	with, _ := withSuppression(t, repo, nil)
	ts := newTestServer(t, with)

	for _, e := range []string{"a@example.com", "b@example.com"} {
		rec := ts.do(ajax(http.MethodPost, suppressionURL+"/sl1/emails", `{"email":"`+e+`"}`), "acme")
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := ts.do(httptest.NewRequest(http.MethodGet, suppressionURL+"/sl1/emails/export", nil), "acme")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Email,Date Added")
	assert.Contains(t, rec.Body.String(), "a@example.com")
	assert.Contains(t, rec.Body.String(), "b@example.com")

	rec = ts.do(ajax(http.MethodPost, suppressionURL+"/sl1/emails/delete-all", ""), "acme")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "(2)")
	assert.Empty(t, repo.addresses())
}

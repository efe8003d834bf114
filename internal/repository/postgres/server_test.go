package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var serverRowCols = []string{"server_id", "server_uid", "customer_id", "hostname", "username", "password", "email",
	"service", "port", "protocol", "validate_ssl", "locked", "status", "conditions", "identify_subscribers_by",
	"date_added", "last_updated"}

func TestServerRepo_GetDecodesMonitor(t *testing.T) {
	db, mock := newMock(t)
	repo := NewServerRepo(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM email_box_monitors")).
		WithArgs("s1", 7).
		WillReturnRows(sqlmock.NewRows(serverRowCols).AddRow(
			1, "s1", 7, "imap.example.com", "bounce", "secret", "bounce@example.com",
			"imap", 993, "ssl", "yes", "no", "active",
			[]byte(`[{"condition":"contains","value":"unsubscribe","action":"unsubscribe"}]`),
			"campaign-and-subscriber", now, now))

	s, err := repo.Get(context.Background(), domain.KindEmailBoxMonitor, 7, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.KindEmailBoxMonitor, s.Kind)
	assert.True(t, s.ValidateSSL)
	assert.False(t, s.Locked)
	require.Len(t, s.Conditions, 1)
	assert.Equal(t, domain.ActionUnsubscribe, s.Conditions[0].Action)
}

func TestServerRepo_FeedbackLoopHasNoConditionColumns(t *testing.T) {
	db, mock := newMock(t)
	repo := NewServerRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("'[]'::jsonb, '', date_added, last_updated FROM feedback_loop_servers")).
		WithArgs("s1", 7).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.Get(context.Background(), domain.KindFeedbackLoop, 7, "s1")
	assert.ErrorIs(t, err, server.ErrNotFound)
}

func TestServerRepo_ListHidesHiddenServers(t *testing.T) {
	db, mock := newMock(t)
	repo := NewServerRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM feedback_loop_servers WHERE customer_id = $1 AND status <> $2 AND hostname ILIKE $3")).
		WithArgs(7, "hidden", "%mx%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY server_id DESC LIMIT $4 OFFSET $5")).
		WithArgs(7, "hidden", "%mx%", 50, 0).
		WillReturnRows(sqlmock.NewRows(serverRowCols))

	rows, total, err := repo.List(context.Background(), domain.KindFeedbackLoop, 7, server.ListFilter{Hostname: "mx"})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
}

func TestServerRepo_DeleteSkipsLocked(t *testing.T) {
	db, mock := newMock(t)
	repo := NewServerRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("AND locked = 'no'")).
		WithArgs("s1", 7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), domain.KindEmailBoxMonitor, 7, "s1")
	assert.ErrorIs(t, err, server.ErrNotFound)
}

func TestServerRepo_UpdateWritesConditions(t *testing.T) {
	db, mock := newMock(t)
	repo := NewServerRepo(db)
	s := &domain.Server{
		ID: 1, CustomerID: 7, Kind: domain.KindEmailBoxMonitor,
		Hostname: "imap.example.com", Username: "u", Password: "p", Service: domain.ServiceIMAP,
		Port: 143, Protocol: domain.ProtocolNoTLS, Status: domain.ServerActive,
		IdentifySubscribersBy: "subscriber",
	}

	mock.ExpectQuery(regexp.QuoteMeta("conditions = $10, identify_subscribers_by = $11 WHERE server_id = $12 AND customer_id = $13")).
		WithArgs("imap.example.com", "u", "p", "", "imap", 143, "notls", "no", "active",
			[]byte("[]"), "subscriber", 1, 7).
		WillReturnRows(sqlmock.NewRows([]string{"last_updated"}).AddRow(time.Now()))

	require.NoError(t, repo.Update(context.Background(), s))
}

func TestServerRepo_UnknownKind(t *testing.T) {
	repo := NewServerRepo(nil)
	_, err := repo.Count(context.Background(), "smtp", 7)
	assert.Error(t, err)
}

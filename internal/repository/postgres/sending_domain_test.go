package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/sendingdomain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sendingDomainRowCols = []string{"domain_id", "domain_uid", "customer_id", "name", "dkim_private_key",
	"dkim_public_key", "locked", "verified", "signing_enabled", "date_added", "last_updated"}

func TestSendingDomainRepo_GetScopesToCustomer(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSendingDomainRepo(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM sending_domains WHERE domain_uid = $1 AND customer_id = $2")).
		WithArgs("d1", 7).
		WillReturnRows(sqlmock.NewRows(sendingDomainRowCols).
			AddRow(3, "d1", 7, "mail.example.com", "priv", "pub", "yes", "no", "yes", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM sending_domains WHERE domain_uid = $1 AND customer_id = $2")).
		WithArgs("d1", 8).
		WillReturnError(sql.ErrNoRows)

	d, err := repo.Get(context.Background(), 7, "d1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), d.ID)
	assert.True(t, d.Locked)
	assert.False(t, d.Verified)
	assert.True(t, d.SigningEnabled)

	_, err = repo.Get(context.Background(), 8, "d1")
	assert.ErrorIs(t, err, sendingdomain.ErrNotFound)
}

func TestSendingDomainRepo_ListFiltersVerified(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSendingDomainRepo(db)
	verified := true

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sending_domains WHERE customer_id = $1 AND name ILIKE $2 AND verified = $3")).
		WithArgs(7, "%example%", "yes").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY domain_id DESC LIMIT $4 OFFSET $5")).
		WithArgs(7, "%example%", "yes", 50, 0).
		WillReturnRows(sqlmock.NewRows(sendingDomainRowCols))

	rows, total, err := repo.List(context.Background(), 7, sendingdomain.ListFilter{Name: "example", Verified: &verified})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, rows)
}

func TestSendingDomainRepo_NameTakenSpansCustomers(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSendingDomainRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM sending_domains WHERE LOWER(name) = LOWER($1) AND domain_id <> $2)")).
		WithArgs("mail.example.com", 0).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	taken, err := repo.NameTaken(context.Background(), "mail.example.com", 0)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestSendingDomainRepo_UpdateSkipsLocked(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSendingDomainRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE domain_id = $6 AND customer_id = $7 AND locked = 'no'")).
		WithArgs("mail.example.com", "priv", "pub", "no", "yes", 3, 7).
		WillReturnError(sql.ErrNoRows)

	err := repo.Update(context.Background(), &domain.SendingDomain{ID: 3, CustomerID: 7, Name: "mail.example.com",
		DKIMPrivateKey: "priv", DKIMPublicKey: "pub", SigningEnabled: true})
	assert.ErrorIs(t, err, sendingdomain.ErrNotFound)
}

func TestSendingDomainRepo_MarkVerifiedIgnoresLock(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSendingDomainRepo(db)

	exact := "^" + regexp.QuoteMeta("UPDATE sending_domains SET verified = 'yes', last_updated = NOW() WHERE domain_id = $1 AND customer_id = $2") + "$"
	mock.ExpectExec(exact).
		WithArgs(3, 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(exact).
		WithArgs(3, 8).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.MarkVerified(context.Background(), 7, 3))
	assert.ErrorIs(t, repo.MarkVerified(context.Background(), 8, 3), sendingdomain.ErrNotFound)
}

func TestSendingDomainRepo_DeleteSkipsLocked(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSendingDomainRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("WHERE domain_uid = $1 AND customer_id = $2 AND locked = 'no'")).
		WithArgs("d1", 7).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Delete(context.Background(), 7, "d1")
	assert.ErrorIs(t, err, sendingdomain.ErrNotFound)
}

func TestSendingDomainRepo_Create(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSendingDomainRepo(db)
	now := time.Now()

	mock.ExpectQuery("INSERT INTO sending_domains").
		WithArgs("d1", 7, "mail.example.com", "priv", "pub", "no", "no", "yes").
		WillReturnRows(sqlmock.NewRows([]string{"domain_id", "date_added", "last_updated"}).AddRow(12, now, now))

	d := &domain.SendingDomain{UID: "d1", CustomerID: 7, Name: "mail.example.com",
		DKIMPrivateKey: "priv", DKIMPublicKey: "pub", SigningEnabled: true}
	require.NoError(t, repo.Create(context.Background(), d))
	assert.Equal(t, int64(12), d.ID)
}

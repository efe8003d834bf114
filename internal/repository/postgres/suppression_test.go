package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/suppression"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var importRowCols = []string{"import_id", "import_uid", "list_id", "customer_id", "file_key", "original_name", "status",
	"total_records", "total_imported", "message", "date_added", "last_updated"}

func TestSuppressionRepo_ClaimImport(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSuppressionRepo(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).
		WillReturnRows(sqlmock.NewRows(importRowCols).
			AddRow(4, "i1", 2, 7, "7/i1.csv", "bounces.csv", "processing", 0, 0, "", now, now))

	job, err := repo.ClaimImport(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.ImportProcessing, job.Status)
	assert.Equal(t, "7/i1.csv", job.FileKey)
}

func TestSuppressionRepo_ClaimImportEmpty(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSuppressionRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("FOR UPDATE SKIP LOCKED")).WillReturnError(sql.ErrNoRows)

	_, err := repo.ClaimImport(context.Background())
	assert.ErrorIs(t, err, suppression.ErrNoPendingImport)
}

func TestSuppressionRepo_DeleteListRemovesEmails(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSuppressionRepo(db)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT list_id FROM customer_suppression_lists").
		WithArgs("l1", 7).
		WillReturnRows(sqlmock.NewRows([]string{"list_id"}).AddRow(2))
	mock.ExpectExec("DELETE FROM customer_suppression_list_emails WHERE list_id").
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 30))
	mock.ExpectExec("DELETE FROM customer_suppression_lists WHERE list_id").
		WithArgs(2).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteList(context.Background(), 7, "l1"))
}

func TestSuppressionRepo_IsSuppressedScopesByCustomer(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSuppressionRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE l.customer_id = $1 AND e.email = $2")).
		WithArgs(7, "a@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := repo.IsSuppressed(context.Background(), 7, "a@example.com")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSuppressionRepo_UpdateEmailMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewSuppressionRepo(db)

	mock.ExpectQuery("UPDATE customer_suppression_list_emails").
		WithArgs("b@example.com", 5, 2).
		WillReturnError(sql.ErrNoRows)

	err := repo.UpdateEmail(context.Background(), &domain.SuppressionListEmail{ID: 5, ListID: 2, Email: "b@example.com"})
	assert.ErrorIs(t, err, suppression.ErrEmailNotFound)
}

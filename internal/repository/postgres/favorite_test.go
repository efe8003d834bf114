package postgres

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/customer-console/internal/service/favorite"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var favoriteRowCols = []string{"page_id", "page_uid", "customer_id", "label", "route", "route_hash",
	"clicks_count", "date_added", "last_updated"}

func TestFavoriteRepo_GetScopesToCustomer(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta("FROM favorite_pages WHERE page_uid = $1 AND customer_id = $2")).
		WithArgs("fav1", 1).
		WillReturnRows(sqlmock.NewRows(favoriteRowCols).AddRow(5, "fav1", 1, "Lists", "/customer/lists", "abc", 9, now, now))
	mock.ExpectQuery(regexp.QuoteMeta("FROM favorite_pages WHERE page_uid = $1 AND customer_id = $2")).
		WithArgs("fav1", 2).
		WillReturnError(sql.ErrNoRows)

	p, err := repo.Get(context.Background(), 1, "fav1")
	require.NoError(t, err)
	assert.Equal(t, 9, p.ClicksCount)

	_, err = repo.Get(context.Background(), 2, "fav1")
	assert.ErrorIs(t, err, favorite.ErrNotFound)
}

func TestFavoriteRepo_ListOrdersByClicks(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM favorite_pages WHERE customer_id = $1")).
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY clicks_count DESC, page_id DESC LIMIT $2 OFFSET $3")).
		WithArgs(1, 50, 0).
		WillReturnRows(sqlmock.NewRows(favoriteRowCols))

	_, _, err := repo.List(context.Background(), 1, favorite.ListFilter{})
	require.NoError(t, err)
}

func TestFavoriteRepo_DeleteOtherTenant(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorite_pages WHERE page_uid = $1 AND customer_id = $2")).
		WithArgs("fav1", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), 2, "fav1"), favorite.ErrNotFound)
}

func TestFavoriteRepo_DeleteMany(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)

	n, err := repo.DeleteMany(context.Background(), 1, nil)
	require.NoError(t, err)
	assert.Zero(t, n)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorite_pages WHERE customer_id = $1 AND page_uid = ANY($2)")).
		WithArgs(1, pq.Array([]string{"fav1", "fav2"})).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err = repo.DeleteMany(context.Background(), 1, []string{"fav1", "fav2"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestFavoriteRepo_IncrementClicksMissing(t *testing.T) {
	db, mock := newMock(t)
	repo := NewFavoriteRepo(db)

	mock.ExpectExec(regexp.QuoteMeta("SET clicks_count = clicks_count + 1")).
		WithArgs("fav1", 2).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.IncrementClicks(context.Background(), 2, "fav1"), favorite.ErrNotFound)
}

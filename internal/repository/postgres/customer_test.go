package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/ignite/customer-console/internal/auth"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerRepo_CustomerByUID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewCustomerRepo(db)
	cols := []string{"customer_id", "customer_uid", "group_id", "parent_id", "email", "status", "date_added"}

	mock.ExpectQuery("FROM customers WHERE customer_uid").WithArgs("ab12").
		WillReturnRows(sqlmock.NewRows(cols).AddRow(4, "ab12", 2, nil, "a@b.co", "active", time.Now()))
	c, err := repo.CustomerByUID(context.Background(), "ab12")
	require.NoError(t, err)
	assert.Equal(t, int64(4), c.ID)
	assert.Equal(t, int64(0), c.ParentID)
	assert.Equal(t, domain.CustomerActive, c.Status)

	mock.ExpectQuery("FROM customers WHERE customer_uid").WithArgs("nope").WillReturnError(sql.ErrNoRows)
	_, err = repo.CustomerByUID(context.Background(), "nope")
	assert.ErrorIs(t, err, auth.ErrUnknownCustomer)
}

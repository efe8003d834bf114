package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/customer-console/internal/auth"
	"github.com/ignite/customer-console/internal/domain"
)

// CustomerRepo resolves authenticated customers.
type CustomerRepo struct{ db *sql.DB }

// NewCustomerRepo creates a Postgres-backed customer repository.
func NewCustomerRepo(db *sql.DB) *CustomerRepo { return &CustomerRepo{db: db} }

// CustomerByUID returns auth.ErrUnknownCustomer when no customer matches.
func (r *CustomerRepo) CustomerByUID(ctx context.Context, uid string) (*domain.Customer, error) {
	var (
		c      domain.Customer
		group  sql.NullInt64
		parent sql.NullInt64
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT customer_id, customer_uid, group_id, parent_id, email, status, date_added
		FROM customers WHERE customer_uid = $1
	`, uid).Scan(&c.ID, &c.UID, &group, &parent, &c.Email, &c.Status, &c.DateAdded)
	if err == sql.ErrNoRows {
		return nil, auth.ErrUnknownCustomer
	}
	if err != nil {
		return nil, fmt.Errorf("get customer: %w", err)
	}
	c.GroupID = group.Int64
	c.ParentID = parent.Int64
	return &c, nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/ignite/customer-console/internal/domain"
)

// QuotaRepo reads customer group options.
type QuotaRepo struct{ db *sql.DB }

// NewQuotaRepo creates a Postgres-backed quota repository.
func NewQuotaRepo(db *sql.DB) *QuotaRepo { return &QuotaRepo{db: db} }

// GroupLimit returns the option of the customer's group for code. Options
// whose value is not an integer are treated as absent.
func (r *QuotaRepo) GroupLimit(ctx context.Context, customerID int64, code domain.QuotaCode) (int, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `
		SELECT o.value FROM customer_group_options o
		JOIN customers c ON c.group_id = o.group_id
		WHERE c.customer_id = $1 AND o.code = $2
	`, customerID, string(code)).Scan(&value)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("get group option: %w", err)
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, false, nil
	}
	return n, true, nil
}

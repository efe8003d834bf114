package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/blacklist"
	"github.com/lib/pq"
)

// BlacklistRepo implements blacklist.Repository against PostgreSQL.
type BlacklistRepo struct{ db *sql.DB }

// NewBlacklistRepo creates a Postgres-backed IP blacklist repository.
func NewBlacklistRepo(db *sql.DB) *BlacklistRepo { return &BlacklistRepo{db: db} }

func (r *BlacklistRepo) Get(ctx context.Context, customerID, id int64) (*domain.CustomerIPBlacklist, error) {
	b := &domain.CustomerIPBlacklist{}
	err := r.db.QueryRowContext(ctx, `
		SELECT ip_id, customer_id, ip_address, date_added
		FROM customer_ip_blacklist WHERE ip_id = $1 AND customer_id = $2
	`, id, customerID).Scan(&b.ID, &b.CustomerID, &b.IPAddress, &b.DateAdded)
	if err == sql.ErrNoRows {
		return nil, blacklist.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get blacklisted ip: %w", err)
	}
	return b, nil
}

func (r *BlacklistRepo) List(ctx context.Context, customerID int64, f blacklist.ListFilter) ([]domain.CustomerIPBlacklist, int, error) {
	w := newWhere("customer_id = $%d", customerID)
	if f.IPAddress != "" {
		w.add("ip_address ILIKE $%d", likePattern(f.IPAddress))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customer_ip_blacklist`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count blacklisted ips: %w", err)
	}

	limit, args := w.page(f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, `SELECT ip_id, customer_id, ip_address, date_added FROM customer_ip_blacklist`+
		w.String()+` ORDER BY ip_id DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list blacklisted ips: %w", err)
	}
	defer rows.Close()

	var out []domain.CustomerIPBlacklist
	for rows.Next() {
		var b domain.CustomerIPBlacklist
		if err := rows.Scan(&b.ID, &b.CustomerID, &b.IPAddress, &b.DateAdded); err != nil {
			return nil, 0, fmt.Errorf("scan blacklisted ip: %w", err)
		}
		out = append(out, b)
	}
	return out, total, rows.Err()
}

func (r *BlacklistRepo) Exists(ctx context.Context, customerID int64, ip string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM customer_ip_blacklist WHERE customer_id = $1 AND ip_address = $2)
	`, customerID, ip).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check blacklisted ip: %w", err)
	}
	return ok, nil
}

// Create maps a concurrent duplicate insert to blacklist.ErrDuplicate.
func (r *BlacklistRepo) Create(ctx context.Context, b *domain.CustomerIPBlacklist) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customer_ip_blacklist (customer_id, ip_address, date_added)
		VALUES ($1, $2, NOW())
		RETURNING ip_id, date_added
	`, b.CustomerID, b.IPAddress).Scan(&b.ID, &b.DateAdded)
	if isUniqueViolation(err) {
		return blacklist.ErrDuplicate
	}
	if err != nil {
		return fmt.Errorf("create blacklisted ip: %w", err)
	}
	return nil
}

func (r *BlacklistRepo) Delete(ctx context.Context, customerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customer_ip_blacklist WHERE ip_id = $1 AND customer_id = $2`, id, customerID)
	if err != nil {
		return fmt.Errorf("delete blacklisted ip: %w", err)
	}
	if affected(res) == 0 {
		return blacklist.ErrNotFound
	}
	return nil
}

func (r *BlacklistRepo) DeleteMany(ctx context.Context, customerID int64, ids []int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM customer_ip_blacklist WHERE customer_id = $1 AND ip_id = ANY($2)`,
		customerID, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("delete blacklisted ips: %w", err)
	}
	return affected(res), nil
}

func (r *BlacklistRepo) DeleteAll(ctx context.Context, customerID int64) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customer_ip_blacklist WHERE customer_id = $1`, customerID)
	if err != nil {
		return 0, fmt.Errorf("delete all blacklisted ips: %w", err)
	}
	return affected(res), nil
}

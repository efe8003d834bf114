package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/sendingdomain"
)

// SendingDomainRepo implements sendingdomain.Repository against PostgreSQL.
type SendingDomainRepo struct{ db *sql.DB }

// NewSendingDomainRepo creates a Postgres-backed sending domain repository.
func NewSendingDomainRepo(db *sql.DB) *SendingDomainRepo { return &SendingDomainRepo{db: db} }

const sendingDomainCols = `domain_id, domain_uid, customer_id, name, dkim_private_key, dkim_public_key,
	locked, verified, signing_enabled, date_added, last_updated`

func scanSendingDomain(row interface{ Scan(...any) error }) (*domain.SendingDomain, error) {
	d := &domain.SendingDomain{}
	var locked, verified, signing string
	err := row.Scan(&d.ID, &d.UID, &d.CustomerID, &d.Name, &d.DKIMPrivateKey, &d.DKIMPublicKey,
		&locked, &verified, &signing, &d.DateAdded, &d.LastUpdated)
	if err != nil {
		return nil, err
	}
	d.Locked = locked == "yes"
	d.Verified = verified == "yes"
	d.SigningEnabled = signing == "yes"
	return d, nil
}

func (r *SendingDomainRepo) Get(ctx context.Context, customerID int64, uid string) (*domain.SendingDomain, error) {
	d, err := scanSendingDomain(r.db.QueryRowContext(ctx, `SELECT `+sendingDomainCols+`
		FROM sending_domains WHERE domain_uid = $1 AND customer_id = $2`, uid, customerID))
	if err == sql.ErrNoRows {
		return nil, sendingdomain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get sending domain: %w", err)
	}
	return d, nil
}

func (r *SendingDomainRepo) List(ctx context.Context, customerID int64, f sendingdomain.ListFilter) ([]domain.SendingDomain, int, error) {
	w := newWhere("customer_id = $%d", customerID)
	if f.Name != "" {
		w.add("name ILIKE $%d", likePattern(f.Name))
	}
	if f.Verified != nil {
		w.add("verified = $%d", yesNo(*f.Verified))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sending_domains`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count sending domains: %w", err)
	}

	limit, args := w.page(f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, `SELECT `+sendingDomainCols+` FROM sending_domains`+w.String()+
		` ORDER BY domain_id DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list sending domains: %w", err)
	}
	defer rows.Close()

	var out []domain.SendingDomain
	for rows.Next() {
		d, err := scanSendingDomain(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan sending domain: %w", err)
		}
		out = append(out, *d)
	}
	return out, total, rows.Err()
}

func (r *SendingDomainRepo) Count(ctx context.Context, customerID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sending_domains WHERE customer_id = $1`, customerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count sending domains: %w", err)
	}
	return n, nil
}

// NameTaken checks across all customers.
func (r *SendingDomainRepo) NameTaken(ctx context.Context, name string, exceptID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM sending_domains WHERE LOWER(name) = LOWER($1) AND domain_id <> $2)
	`, name, exceptID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check domain name: %w", err)
	}
	return taken, nil
}

func (r *SendingDomainRepo) Create(ctx context.Context, d *domain.SendingDomain) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO sending_domains (domain_uid, customer_id, name, dkim_private_key, dkim_public_key,
			locked, verified, signing_enabled, date_added, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
		RETURNING domain_id, date_added, last_updated
	`, d.UID, d.CustomerID, d.Name, d.DKIMPrivateKey, d.DKIMPublicKey,
		yesNo(d.Locked), yesNo(d.Verified), yesNo(d.SigningEnabled)).Scan(&d.ID, &d.DateAdded, &d.LastUpdated)
	if err != nil {
		return fmt.Errorf("create sending domain: %w", err)
	}
	return nil
}

// Update never touches a locked row.
func (r *SendingDomainRepo) Update(ctx context.Context, d *domain.SendingDomain) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE sending_domains SET name = $1, dkim_private_key = $2, dkim_public_key = $3,
			verified = $4, signing_enabled = $5, last_updated = NOW()
		WHERE domain_id = $6 AND customer_id = $7 AND locked = 'no'
		RETURNING last_updated
	`, d.Name, d.DKIMPrivateKey, d.DKIMPublicKey, yesNo(d.Verified), yesNo(d.SigningEnabled),
		d.ID, d.CustomerID).Scan(&d.LastUpdated)
	if err == sql.ErrNoRows {
		return sendingdomain.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update sending domain: %w", err)
	}
	return nil
}

// MarkVerified has no locked condition; locked rows can be verified.
func (r *SendingDomainRepo) MarkVerified(ctx context.Context, customerID, id int64) error {
	res, err := r.db.ExecContext(ctx, `UPDATE sending_domains SET verified = 'yes', last_updated = NOW()
		WHERE domain_id = $1 AND customer_id = $2`, id, customerID)
	if err != nil {
		return fmt.Errorf("mark sending domain verified: %w", err)
	}
	if affected(res) == 0 {
		return sendingdomain.ErrNotFound
	}
	return nil
}

func (r *SendingDomainRepo) Delete(ctx context.Context, customerID int64, uid string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM sending_domains
		WHERE domain_uid = $1 AND customer_id = $2 AND locked = 'no'`, uid, customerID)
	if err != nil {
		return fmt.Errorf("delete sending domain: %w", err)
	}
	if affected(res) == 0 {
		return sendingdomain.ErrNotFound
	}
	return nil
}

package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/subscribercopy"
	"github.com/lib/pq"
)

// SubscriberCopyRepo implements subscribercopy.Repository against PostgreSQL.
type SubscriberCopyRepo struct{ db *sql.DB }

// NewSubscriberCopyRepo creates a Postgres-backed subscriber copy repository.
func NewSubscriberCopyRepo(db *sql.DB) *SubscriberCopyRepo { return &SubscriberCopyRepo{db: db} }

func (r *SubscriberCopyRepo) GetList(ctx context.Context, customerID int64, uid string) (*domain.List, error) {
	return getList(ctx, r.db, customerID, uid)
}

func (r *SubscriberCopyRepo) CountSubscribers(ctx context.Context, listID int64, statuses []domain.SubscriberStatus) (int, error) {
	q := `SELECT COUNT(*) FROM list_subscribers WHERE list_id = $1`
	args := []any{listID}
	if len(statuses) > 0 {
		q += ` AND status = ANY($2)`
		args = append(args, pq.Array(statusStrings(statuses)))
	}
	var n int
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("count subscribers: %w", err)
	}
	return n, nil
}

func (r *SubscriberCopyRepo) CountCustomerSubscribers(ctx context.Context, customerID int64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM list_subscribers s JOIN lists l ON l.list_id = s.list_id
		WHERE l.customer_id = $1
	`, customerID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count customer subscribers: %w", err)
	}
	return n, nil
}

// WithTx commits when fn returns nil and rolls back otherwise.
func (r *SubscriberCopyRepo) WithTx(ctx context.Context, fn func(tx subscribercopy.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if err := fn(&copyTx{tx: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

type copyTx struct{ tx *sql.Tx }

func (t *copyTx) Subscribers(ctx context.Context, listID int64, statuses []domain.SubscriberStatus, offset, limit int) ([]domain.Subscriber, error) {
	return subscribers(ctx, t.tx, listID, statuses, offset, limit)
}

func (t *copyTx) ExistingEmails(ctx context.Context, listID int64, emails []string) (map[string]bool, error) {
	out := make(map[string]bool, len(emails))
	if len(emails) == 0 {
		return out, nil
	}
	rows, err := t.tx.QueryContext(ctx, `
		SELECT email FROM list_subscribers WHERE list_id = $1 AND email = ANY($2)
	`, listID, pq.Array(emails))
	if err != nil {
		return nil, fmt.Errorf("find existing emails: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var e string
		if err := rows.Scan(&e); err != nil {
			return nil, fmt.Errorf("scan email: %w", err)
		}
		out[e] = true
	}
	return out, rows.Err()
}

func (t *copyTx) FieldIDs(ctx context.Context, listID int64) (map[string]int64, error) {
	rows, err := t.tx.QueryContext(ctx, `SELECT tag, field_id FROM list_fields WHERE list_id = $1`, listID)
	if err != nil {
		return nil, fmt.Errorf("list field ids: %w", err)
	}
	defer rows.Close()
	out := map[string]int64{}
	for rows.Next() {
		var (
			tag string
			id  int64
		)
		if err := rows.Scan(&tag, &id); err != nil {
			return nil, fmt.Errorf("scan field id: %w", err)
		}
		out[tag] = id
	}
	return out, rows.Err()
}

func (t *copyTx) InsertSubscriber(ctx context.Context, sub *domain.Subscriber, fieldIDs map[string]int64) error {
	err := t.tx.QueryRowContext(ctx, `
		INSERT INTO list_subscribers (subscriber_uid, list_id, email, status, source, ip_address, date_added, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		RETURNING subscriber_id, date_added
	`, sub.UID, sub.ListID, sub.Email, sub.Status, sub.Source, sub.IPAddress).Scan(&sub.ID, &sub.DateAdded)
	if err != nil {
		return fmt.Errorf("insert subscriber: %w", err)
	}
	for tag, fieldID := range fieldIDs {
		value := sub.Value(tag)
		if value == "" {
			continue
		}
		if _, err := t.tx.ExecContext(ctx, `
			INSERT INTO list_field_values (field_id, subscriber_id, value, date_added, last_updated)
			VALUES ($1, $2, $3, NOW(), NOW())
		`, fieldID, sub.ID, value); err != nil {
			return fmt.Errorf("insert field value %s: %w", tag, err)
		}
	}
	return nil
}

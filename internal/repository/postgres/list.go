package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/lib/pq"
)

// querier is satisfied by *sql.DB and *sql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// ListRepo reads email lists, their fields and subscribers. It serves the
// list page, segment and server services.
type ListRepo struct{ db *sql.DB }

// NewListRepo creates a Postgres-backed list repository.
func NewListRepo(db *sql.DB) *ListRepo { return &ListRepo{db: db} }

func getList(ctx context.Context, q querier, customerID int64, uid string) (*domain.List, error) {
	l := &domain.List{}
	err := q.QueryRowContext(ctx, `
		SELECT l.list_id, l.list_uid, l.customer_id, l.name, l.display_name, l.description, l.date_added,
		       (SELECT COUNT(*) FROM list_subscribers s WHERE s.list_id = l.list_id)
		FROM lists l
		WHERE l.list_uid = $1 AND l.customer_id = $2 AND l.status <> 'pending-delete'
	`, uid, customerID).Scan(&l.ID, &l.UID, &l.CustomerID, &l.Name, &l.DisplayName, &l.Description,
		&l.DateAdded, &l.SubscribersCount)
	if err == sql.ErrNoRows {
		return nil, domain.ErrListNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

func (r *ListRepo) GetList(ctx context.Context, customerID int64, uid string) (*domain.List, error) {
	return getList(ctx, r.db, customerID, uid)
}

// ListExists reports whether the customer owns the list.
func (r *ListRepo) ListExists(ctx context.Context, customerID int64, uid string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM lists WHERE list_uid = $1 AND customer_id = $2 AND status <> 'pending-delete')
	`, uid, customerID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check list: %w", err)
	}
	return ok, nil
}

func (r *ListRepo) Fields(ctx context.Context, listID int64) ([]domain.ListField, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT field_id, list_id, label, tag, required = 'yes', sort_order
		FROM list_fields WHERE list_id = $1 ORDER BY sort_order, field_id
	`, listID)
	if err != nil {
		return nil, fmt.Errorf("list fields: %w", err)
	}
	defer rows.Close()

	var out []domain.ListField
	for rows.Next() {
		var f domain.ListField
		if err := rows.Scan(&f.ID, &f.ListID, &f.Label, &f.Tag, &f.Required, &f.SortOrder); err != nil {
			return nil, fmt.Errorf("scan field: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *ListRepo) Subscribers(ctx context.Context, listID int64, offset, limit int) ([]domain.Subscriber, error) {
	return subscribers(ctx, r.db, listID, nil, offset, limit)
}

// subscribers loads a window of a list ordered by id, with field values
// keyed by tag. An empty statuses matches every status.
func subscribers(ctx context.Context, q querier, listID int64, statuses []domain.SubscriberStatus, offset, limit int) ([]domain.Subscriber, error) {
	query := `SELECT subscriber_id, subscriber_uid, list_id, email, status, source, ip_address, date_added
		FROM list_subscribers WHERE list_id = $1`
	args := []any{listID}
	if len(statuses) > 0 {
		query += ` AND status = ANY($2)`
		args = append(args, pq.Array(statusStrings(statuses)))
	}
	query += fmt.Sprintf(` ORDER BY subscriber_id LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list subscribers: %w", err)
	}
	defer rows.Close()

	var (
		out []domain.Subscriber
		ids []int64
	)
	for rows.Next() {
		var s domain.Subscriber
		if err := rows.Scan(&s.ID, &s.UID, &s.ListID, &s.Email, &s.Status, &s.Source, &s.IPAddress, &s.DateAdded); err != nil {
			return nil, fmt.Errorf("scan subscriber: %w", err)
		}
		s.Fields = map[string]string{}
		out = append(out, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return out, nil
	}

	vals, err := q.QueryContext(ctx, `
		SELECT v.subscriber_id, f.tag, v.value
		FROM list_field_values v JOIN list_fields f ON f.field_id = v.field_id
		WHERE v.subscriber_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list field values: %w", err)
	}
	defer vals.Close()

	index := make(map[int64]int, len(out))
	for i, s := range out {
		index[s.ID] = i
	}
	for vals.Next() {
		var (
			id         int64
			tag, value string
		)
		if err := vals.Scan(&id, &tag, &value); err != nil {
			return nil, fmt.Errorf("scan field value: %w", err)
		}
		if i, ok := index[id]; ok {
			out[i].Fields[tag] = value
		}
	}
	return out, vals.Err()
}

func statusStrings(statuses []domain.SubscriberStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

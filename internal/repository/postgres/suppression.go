package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/suppression"
	"github.com/lib/pq"
)

// SuppressionRepo implements suppression.Repository against PostgreSQL.
type SuppressionRepo struct{ db *sql.DB }

// NewSuppressionRepo creates a Postgres-backed suppression repository.
func NewSuppressionRepo(db *sql.DB) *SuppressionRepo { return &SuppressionRepo{db: db} }

const suppressionListCols = `
	l.list_id, l.list_uid, l.customer_id, l.name, l.date_added, l.last_updated,
	(SELECT COUNT(*) FROM customer_suppression_list_emails e WHERE e.list_id = l.list_id)`

func scanSuppressionList(row interface{ Scan(...any) error }) (*domain.SuppressionList, error) {
	l := &domain.SuppressionList{}
	err := row.Scan(&l.ID, &l.UID, &l.CustomerID, &l.Name, &l.DateAdded, &l.LastUpdated, &l.EmailsCount)
	return l, err
}

func (r *SuppressionRepo) getList(ctx context.Context, q string, args ...any) (*domain.SuppressionList, error) {
	l, err := scanSuppressionList(r.db.QueryRowContext(ctx, q, args...))
	if err == sql.ErrNoRows {
		return nil, suppression.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get suppression list: %w", err)
	}
	return l, nil
}

func (r *SuppressionRepo) GetList(ctx context.Context, customerID int64, uid string) (*domain.SuppressionList, error) {
	return r.getList(ctx, `SELECT`+suppressionListCols+` FROM customer_suppression_lists l
		WHERE l.list_uid = $1 AND l.customer_id = $2`, uid, customerID)
}

func (r *SuppressionRepo) ListByID(ctx context.Context, id int64) (*domain.SuppressionList, error) {
	return r.getList(ctx, `SELECT`+suppressionListCols+` FROM customer_suppression_lists l WHERE l.list_id = $1`, id)
}

func (r *SuppressionRepo) Lists(ctx context.Context, customerID int64, f suppression.ListFilter) ([]domain.SuppressionList, int, error) {
	w := newWhere("l.customer_id = $%d", customerID)
	if f.Name != "" {
		w.add("l.name ILIKE $%d", likePattern(f.Name))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customer_suppression_lists l`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suppression lists: %w", err)
	}

	limit, args := w.page(f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, `SELECT`+suppressionListCols+` FROM customer_suppression_lists l`+w.String()+
		` ORDER BY l.list_id DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list suppression lists: %w", err)
	}
	defer rows.Close()

	var out []domain.SuppressionList
	for rows.Next() {
		l, err := scanSuppressionList(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan suppression list: %w", err)
		}
		out = append(out, *l)
	}
	return out, total, rows.Err()
}

func (r *SuppressionRepo) CountLists(ctx context.Context, customerID int64) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customer_suppression_lists WHERE customer_id = $1`, customerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count suppression lists: %w", err)
	}
	return n, nil
}

func (r *SuppressionRepo) CreateList(ctx context.Context, l *domain.SuppressionList) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customer_suppression_lists (list_uid, customer_id, name, date_added, last_updated)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING list_id, date_added, last_updated
	`, l.UID, l.CustomerID, l.Name).Scan(&l.ID, &l.DateAdded, &l.LastUpdated)
	if err != nil {
		return fmt.Errorf("create suppression list: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) UpdateList(ctx context.Context, l *domain.SuppressionList) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE customer_suppression_lists SET name = $1, last_updated = NOW()
		WHERE list_id = $2 AND customer_id = $3
		RETURNING last_updated
	`, l.Name, l.ID, l.CustomerID).Scan(&l.LastUpdated)
	if err == sql.ErrNoRows {
		return suppression.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update suppression list: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) DeleteList(ctx context.Context, customerID int64, uid string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT list_id FROM customer_suppression_lists WHERE list_uid = $1 AND customer_id = $2 FOR UPDATE
	`, uid, customerID).Scan(&id)
	if err == sql.ErrNoRows {
		return suppression.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock suppression list: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM customer_suppression_list_emails WHERE list_id = $1`, id); err != nil {
		return fmt.Errorf("delete suppression emails: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM customer_suppression_lists WHERE list_id = $1`, id); err != nil {
		return fmt.Errorf("delete suppression list: %w", err)
	}
	return tx.Commit()
}

func (r *SuppressionRepo) Touch(ctx context.Context, listID int64) error {
	if _, err := r.db.ExecContext(ctx, `UPDATE customer_suppression_lists SET last_updated = NOW() WHERE list_id = $1`, listID); err != nil {
		return fmt.Errorf("touch suppression list: %w", err)
	}
	return nil
}

const suppressionEmailCols = `email_id, email_uid, list_id, email, date_added, last_updated`

func scanSuppressionEmail(row interface{ Scan(...any) error }) (*domain.SuppressionListEmail, error) {
	e := &domain.SuppressionListEmail{}
	err := row.Scan(&e.ID, &e.UID, &e.ListID, &e.Email, &e.DateAdded, &e.LastUpdated)
	return e, err
}

func (r *SuppressionRepo) GetEmail(ctx context.Context, listID int64, uid string) (*domain.SuppressionListEmail, error) {
	e, err := scanSuppressionEmail(r.db.QueryRowContext(ctx, `SELECT `+suppressionEmailCols+`
		FROM customer_suppression_list_emails WHERE email_uid = $1 AND list_id = $2`, uid, listID))
	if err == sql.ErrNoRows {
		return nil, suppression.ErrEmailNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get suppression email: %w", err)
	}
	return e, nil
}

func (r *SuppressionRepo) Emails(ctx context.Context, listID int64, f suppression.EmailFilter) ([]domain.SuppressionListEmail, int, error) {
	w := newWhere("list_id = $%d", listID)
	if f.Email != "" {
		w.add("email ILIKE $%d", likePattern(f.Email))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customer_suppression_list_emails`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count suppression emails: %w", err)
	}

	limit, args := w.page(f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, `SELECT `+suppressionEmailCols+` FROM customer_suppression_list_emails`+w.String()+
		` ORDER BY email_id DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list suppression emails: %w", err)
	}
	defer rows.Close()

	var out []domain.SuppressionListEmail
	for rows.Next() {
		e, err := scanSuppressionEmail(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan suppression email: %w", err)
		}
		out = append(out, *e)
	}
	return out, total, rows.Err()
}

func (r *SuppressionRepo) EmailExists(ctx context.Context, listID int64, email string, exceptID int64) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM customer_suppression_list_emails
		WHERE list_id = $1 AND email = $2 AND email_id <> $3)
	`, listID, email, exceptID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check suppression email: %w", err)
	}
	return ok, nil
}

func (r *SuppressionRepo) CreateEmail(ctx context.Context, e *domain.SuppressionListEmail) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customer_suppression_list_emails (email_uid, list_id, email, date_added, last_updated)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING email_id, date_added, last_updated
	`, e.UID, e.ListID, e.Email).Scan(&e.ID, &e.DateAdded, &e.LastUpdated)
	if err != nil {
		return fmt.Errorf("create suppression email: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) UpdateEmail(ctx context.Context, e *domain.SuppressionListEmail) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE customer_suppression_list_emails SET email = $1, last_updated = NOW()
		WHERE email_id = $2 AND list_id = $3
		RETURNING last_updated
	`, e.Email, e.ID, e.ListID).Scan(&e.LastUpdated)
	if err == sql.ErrNoRows {
		return suppression.ErrEmailNotFound
	}
	if err != nil {
		return fmt.Errorf("update suppression email: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) DeleteEmail(ctx context.Context, listID int64, uid string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customer_suppression_list_emails WHERE email_uid = $1 AND list_id = $2`, uid, listID)
	if err != nil {
		return fmt.Errorf("delete suppression email: %w", err)
	}
	if affected(res) == 0 {
		return suppression.ErrEmailNotFound
	}
	return nil
}

func (r *SuppressionRepo) DeleteEmails(ctx context.Context, listID int64, uids []string) (int, error) {
	if len(uids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM customer_suppression_list_emails WHERE list_id = $1 AND email_uid = ANY($2)`,
		listID, pq.Array(uids))
	if err != nil {
		return 0, fmt.Errorf("delete suppression emails: %w", err)
	}
	return affected(res), nil
}

func (r *SuppressionRepo) DeleteAllEmails(ctx context.Context, listID int64) (int, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM customer_suppression_list_emails WHERE list_id = $1`, listID)
	if err != nil {
		return 0, fmt.Errorf("delete all suppression emails: %w", err)
	}
	return affected(res), nil
}

func (r *SuppressionRepo) IsSuppressed(ctx context.Context, customerID int64, email string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM customer_suppression_list_emails e
			JOIN customer_suppression_lists l ON l.list_id = e.list_id
			WHERE l.customer_id = $1 AND e.email = $2)
	`, customerID, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check suppression: %w", err)
	}
	return exists, nil
}

const importCols = `import_id, import_uid, list_id, customer_id, file_key, original_name, status,
	total_records, total_imported, message, date_added, last_updated`

func scanImport(row interface{ Scan(...any) error }) (*domain.SuppressionImportJob, error) {
	j := &domain.SuppressionImportJob{}
	err := row.Scan(&j.ID, &j.UID, &j.ListID, &j.CustomerID, &j.FileKey, &j.OriginalName, &j.Status,
		&j.TotalRecords, &j.TotalImported, &j.Message, &j.DateAdded, &j.LastUpdated)
	return j, err
}

func (r *SuppressionRepo) imports(ctx context.Context, q string, args ...any) ([]domain.SuppressionImportJob, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list imports: %w", err)
	}
	defer rows.Close()

	var out []domain.SuppressionImportJob
	for rows.Next() {
		j, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("scan import: %w", err)
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (r *SuppressionRepo) CreateImport(ctx context.Context, j *domain.SuppressionImportJob) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customer_suppression_list_imports (import_uid, list_id, customer_id, file_key,
			original_name, status, total_records, total_imported, message, date_added, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, 0, 0, '', NOW(), NOW())
		RETURNING import_id, date_added, last_updated
	`, j.UID, j.ListID, j.CustomerID, j.FileKey, j.OriginalName, j.Status).Scan(&j.ID, &j.DateAdded, &j.LastUpdated)
	if err != nil {
		return fmt.Errorf("create import: %w", err)
	}
	return nil
}

func (r *SuppressionRepo) Imports(ctx context.Context, listID int64) ([]domain.SuppressionImportJob, error) {
	return r.imports(ctx, `SELECT `+importCols+` FROM customer_suppression_list_imports
		WHERE list_id = $1 ORDER BY import_id DESC LIMIT 50`, listID)
}

func (r *SuppressionRepo) PendingImports(ctx context.Context, limit int) ([]domain.SuppressionImportJob, error) {
	if limit <= 0 {
		limit = 50
	}
	return r.imports(ctx, `SELECT `+importCols+` FROM customer_suppression_list_imports
		WHERE status IN ('pending', 'processing') ORDER BY import_id LIMIT $1`, limit)
}

// ClaimImport uses FOR UPDATE SKIP LOCKED so parallel workers each get a
// different job.
func (r *SuppressionRepo) ClaimImport(ctx context.Context) (*domain.SuppressionImportJob, error) {
	j, err := scanImport(r.db.QueryRowContext(ctx, `
		UPDATE customer_suppression_list_imports SET status = 'processing', last_updated = NOW()
		WHERE import_id = (
			SELECT import_id FROM customer_suppression_list_imports
			WHERE status = 'pending'
			ORDER BY import_id
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING `+importCols))
	if err == sql.ErrNoRows {
		return nil, suppression.ErrNoPendingImport
	}
	if err != nil {
		return nil, fmt.Errorf("claim import: %w", err)
	}
	return j, nil
}

func (r *SuppressionRepo) FinishImport(ctx context.Context, j *domain.SuppressionImportJob) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE customer_suppression_list_imports
		SET status = $1, total_records = $2, total_imported = $3, message = $4, last_updated = NOW()
		WHERE import_id = $5
	`, j.Status, j.TotalRecords, j.TotalImported, j.Message, j.ID)
	if err != nil {
		return fmt.Errorf("finish import: %w", err)
	}
	return nil
}

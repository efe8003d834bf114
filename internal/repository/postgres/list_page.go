package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/listpage"
)

// ListPageRepo implements listpage.Repository against PostgreSQL.
type ListPageRepo struct{ db *sql.DB }

// NewListPageRepo creates a Postgres-backed list page repository.
func NewListPageRepo(db *sql.DB) *ListPageRepo { return &ListPageRepo{db: db} }

func (r *ListPageRepo) Pages(ctx context.Context, listID int64) ([]domain.ListPage, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT list_id, page_type, content, date_added, last_updated
		FROM list_pages WHERE list_id = $1
	`, listID)
	if err != nil {
		return nil, fmt.Errorf("list pages: %w", err)
	}
	defer rows.Close()

	var out []domain.ListPage
	for rows.Next() {
		var p domain.ListPage
		if err := rows.Scan(&p.ListID, &p.Type, &p.Content, &p.DateAdded, &p.LastUpdated); err != nil {
			return nil, fmt.Errorf("scan page: %w", err)
		}
		p.Custom = true
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ListPageRepo) Page(ctx context.Context, listID int64, pageType string) (*domain.ListPage, error) {
	p := &domain.ListPage{Custom: true}
	err := r.db.QueryRowContext(ctx, `
		SELECT list_id, page_type, content, date_added, last_updated
		FROM list_pages WHERE list_id = $1 AND page_type = $2
	`, listID, pageType).Scan(&p.ListID, &p.Type, &p.Content, &p.DateAdded, &p.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, listpage.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get page: %w", err)
	}
	return p, nil
}

// SavePage inserts or replaces the content of the page type.
func (r *ListPageRepo) SavePage(ctx context.Context, p *domain.ListPage) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO list_pages (list_id, page_type, content, date_added, last_updated)
		VALUES ($1, $2, $3, NOW(), NOW())
		ON CONFLICT (list_id, page_type) DO UPDATE SET content = EXCLUDED.content, last_updated = NOW()
		RETURNING date_added, last_updated
	`, p.ListID, p.Type, p.Content).Scan(&p.DateAdded, &p.LastUpdated)
	if err != nil {
		return fmt.Errorf("save page: %w", err)
	}
	p.Custom = true
	return nil
}

func (r *ListPageRepo) DeletePage(ctx context.Context, listID int64, pageType string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM list_pages WHERE list_id = $1 AND page_type = $2`, listID, pageType); err != nil {
		return fmt.Errorf("delete page: %w", err)
	}
	return nil
}

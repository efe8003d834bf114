package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/favorite"
	"github.com/lib/pq"
)

// FavoriteRepo implements favorite.Repository against PostgreSQL.
type FavoriteRepo struct{ db *sql.DB }

// NewFavoriteRepo creates a Postgres-backed favorite page repository.
func NewFavoriteRepo(db *sql.DB) *FavoriteRepo { return &FavoriteRepo{db: db} }

const favoriteCols = `page_id, page_uid, customer_id, label, route, route_hash, clicks_count, date_added, last_updated`

func scanFavorite(row interface{ Scan(...any) error }) (*domain.FavoritePage, error) {
	p := &domain.FavoritePage{}
	err := row.Scan(&p.ID, &p.UID, &p.CustomerID, &p.Label, &p.Route, &p.RouteHash,
		&p.ClicksCount, &p.DateAdded, &p.LastUpdated)
	return p, err
}

func (r *FavoriteRepo) get(ctx context.Context, q string, args ...any) (*domain.FavoritePage, error) {
	p, err := scanFavorite(r.db.QueryRowContext(ctx, q, args...))
	if err == sql.ErrNoRows {
		return nil, favorite.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get favorite page: %w", err)
	}
	return p, nil
}

func (r *FavoriteRepo) Get(ctx context.Context, customerID int64, uid string) (*domain.FavoritePage, error) {
	return r.get(ctx, `SELECT `+favoriteCols+` FROM favorite_pages WHERE page_uid = $1 AND customer_id = $2`, uid, customerID)
}

func (r *FavoriteRepo) GetByRoute(ctx context.Context, customerID int64, routeHash string) (*domain.FavoritePage, error) {
	return r.get(ctx, `SELECT `+favoriteCols+` FROM favorite_pages WHERE route_hash = $1 AND customer_id = $2`, routeHash, customerID)
}

func (r *FavoriteRepo) List(ctx context.Context, customerID int64, f favorite.ListFilter) ([]domain.FavoritePage, int, error) {
	w := newWhere("customer_id = $%d", customerID)
	if f.Label != "" {
		w.add("label ILIKE $%d", likePattern(f.Label))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM favorite_pages`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count favorite pages: %w", err)
	}

	limit, args := w.page(f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, `SELECT `+favoriteCols+` FROM favorite_pages`+w.String()+
		` ORDER BY clicks_count DESC, page_id DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list favorite pages: %w", err)
	}
	defer rows.Close()

	var out []domain.FavoritePage
	for rows.Next() {
		p, err := scanFavorite(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan favorite page: %w", err)
		}
		out = append(out, *p)
	}
	return out, total, rows.Err()
}

func (r *FavoriteRepo) Create(ctx context.Context, p *domain.FavoritePage) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO favorite_pages (page_uid, customer_id, label, route, route_hash, clicks_count, date_added, last_updated)
		VALUES ($1, $2, $3, $4, $5, 0, NOW(), NOW())
		RETURNING page_id, date_added, last_updated
	`, p.UID, p.CustomerID, p.Label, p.Route, p.RouteHash).Scan(&p.ID, &p.DateAdded, &p.LastUpdated)
	if err != nil {
		return fmt.Errorf("create favorite page: %w", err)
	}
	return nil
}

func (r *FavoriteRepo) Delete(ctx context.Context, customerID int64, uid string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorite_pages WHERE page_uid = $1 AND customer_id = $2`, uid, customerID)
	if err != nil {
		return fmt.Errorf("delete favorite page: %w", err)
	}
	if affected(res) == 0 {
		return favorite.ErrNotFound
	}
	return nil
}

func (r *FavoriteRepo) DeleteMany(ctx context.Context, customerID int64, uids []string) (int, error) {
	if len(uids) == 0 {
		return 0, nil
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM favorite_pages WHERE customer_id = $1 AND page_uid = ANY($2)`,
		customerID, pq.Array(uids))
	if err != nil {
		return 0, fmt.Errorf("delete favorite pages: %w", err)
	}
	return affected(res), nil
}

func (r *FavoriteRepo) IncrementClicks(ctx context.Context, customerID int64, uid string) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE favorite_pages SET clicks_count = clicks_count + 1, last_updated = NOW()
		WHERE page_uid = $1 AND customer_id = $2
	`, uid, customerID)
	if err != nil {
		return fmt.Errorf("count favorite click: %w", err)
	}
	if affected(res) == 0 {
		return favorite.ErrNotFound
	}
	return nil
}

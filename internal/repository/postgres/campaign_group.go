package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/campaigngroup"
)

// CampaignGroupRepo implements campaigngroup.Repository against PostgreSQL.
type CampaignGroupRepo struct{ db *sql.DB }

// NewCampaignGroupRepo creates a Postgres-backed campaign group repository.
func NewCampaignGroupRepo(db *sql.DB) *CampaignGroupRepo { return &CampaignGroupRepo{db: db} }

const campaignGroupCols = `
	g.group_id, g.group_uid, g.customer_id, g.name, g.date_added, g.last_updated,
	(SELECT COUNT(*) FROM campaigns c WHERE c.group_id = g.group_id)`

func scanCampaignGroup(row interface{ Scan(...any) error }) (*domain.CampaignGroup, error) {
	g := &domain.CampaignGroup{}
	err := row.Scan(&g.ID, &g.UID, &g.CustomerID, &g.Name, &g.DateAdded, &g.LastUpdated, &g.CampaignsCount)
	return g, err
}

func (r *CampaignGroupRepo) Get(ctx context.Context, customerID int64, uid string) (*domain.CampaignGroup, error) {
	g, err := scanCampaignGroup(r.db.QueryRowContext(ctx, `
		SELECT`+campaignGroupCols+`
		FROM customer_campaign_groups g
		WHERE g.group_uid = $1 AND g.customer_id = $2
	`, uid, customerID))
	if err == sql.ErrNoRows {
		return nil, campaigngroup.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get campaign group: %w", err)
	}
	return g, nil
}

func (r *CampaignGroupRepo) List(ctx context.Context, customerID int64, f campaigngroup.ListFilter) ([]domain.CampaignGroup, int, error) {
	w := newWhere("g.customer_id = $%d", customerID)
	if f.Name != "" {
		w.add("g.name ILIKE $%d", likePattern(f.Name))
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM customer_campaign_groups g`+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count campaign groups: %w", err)
	}

	limit, args := w.page(f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, `SELECT`+campaignGroupCols+` FROM customer_campaign_groups g`+w.String()+
		` ORDER BY g.group_id DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list campaign groups: %w", err)
	}
	defer rows.Close()

	var out []domain.CampaignGroup
	for rows.Next() {
		g, err := scanCampaignGroup(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan campaign group: %w", err)
		}
		out = append(out, *g)
	}
	return out, total, rows.Err()
}

func (r *CampaignGroupRepo) Create(ctx context.Context, g *domain.CampaignGroup) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customer_campaign_groups (group_uid, customer_id, name, date_added, last_updated)
		VALUES ($1, $2, $3, NOW(), NOW())
		RETURNING group_id, date_added, last_updated
	`, g.UID, g.CustomerID, g.Name).Scan(&g.ID, &g.DateAdded, &g.LastUpdated)
	if err != nil {
		return fmt.Errorf("create campaign group: %w", err)
	}
	return nil
}

func (r *CampaignGroupRepo) Update(ctx context.Context, g *domain.CampaignGroup) error {
	err := r.db.QueryRowContext(ctx, `
		UPDATE customer_campaign_groups SET name = $1, last_updated = NOW()
		WHERE group_id = $2 AND customer_id = $3
		RETURNING last_updated
	`, g.Name, g.ID, g.CustomerID).Scan(&g.LastUpdated)
	if err == sql.ErrNoRows {
		return campaigngroup.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update campaign group: %w", err)
	}
	return nil
}

// Delete detaches the group's campaigns and removes it in one transaction.
func (r *CampaignGroupRepo) Delete(ctx context.Context, customerID int64, uid string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	var id int64
	err = tx.QueryRowContext(ctx, `
		SELECT group_id FROM customer_campaign_groups
		WHERE group_uid = $1 AND customer_id = $2 FOR UPDATE
	`, uid, customerID).Scan(&id)
	if err == sql.ErrNoRows {
		return campaigngroup.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("lock campaign group: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `UPDATE campaigns SET group_id = NULL WHERE group_id = $1`, id); err != nil {
		return fmt.Errorf("detach campaigns: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM customer_campaign_groups WHERE group_id = $1`, id); err != nil {
		return fmt.Errorf("delete campaign group: %w", err)
	}
	return tx.Commit()
}

func (r *CampaignGroupRepo) NameTaken(ctx context.Context, customerID int64, name string, exceptID int64) (bool, error) {
	var taken bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM customer_campaign_groups
		WHERE customer_id = $1 AND LOWER(name) = LOWER($2) AND group_id <> $3)
	`, customerID, name, exceptID).Scan(&taken)
	if err != nil {
		return false, fmt.Errorf("check group name: %w", err)
	}
	return taken, nil
}

// CampaignGroupExists reports whether the customer owns the group.
func (r *CampaignGroupRepo) CampaignGroupExists(ctx context.Context, customerID int64, uid string) (bool, error) {
	var ok bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM customer_campaign_groups WHERE group_uid = $1 AND customer_id = $2)
	`, uid, customerID).Scan(&ok)
	if err != nil {
		return false, fmt.Errorf("check campaign group: %w", err)
	}
	return ok, nil
}

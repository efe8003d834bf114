package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/dashboard"
)

// DashboardRepo implements dashboard.Repository against PostgreSQL.
type DashboardRepo struct{ db *sql.DB }

// NewDashboardRepo creates a Postgres-backed dashboard repository.
func NewDashboardRepo(db *sql.DB) *DashboardRepo { return &DashboardRepo{db: db} }

func (r *DashboardRepo) Glance(ctx context.Context, customerID int64) (*dashboard.Glance, error) {
	g := &dashboard.Glance{}
	err := r.db.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM campaigns WHERE customer_id = $1),
			(SELECT COUNT(*) FROM lists WHERE customer_id = $1 AND status <> 'pending-delete'),
			(SELECT COUNT(*) FROM list_subscribers s JOIN lists l ON l.list_id = s.list_id WHERE l.customer_id = $1),
			(SELECT COUNT(*) FROM list_segments sg JOIN lists l ON l.list_id = sg.list_id WHERE l.customer_id = $1),
			(SELECT COUNT(*) FROM customer_campaign_groups WHERE customer_id = $1),
			(SELECT COUNT(*) FROM sending_domains WHERE customer_id = $1),
			(SELECT COUNT(*) FROM customer_suppression_lists WHERE customer_id = $1)
	`, customerID).Scan(&g.Campaigns, &g.Lists, &g.Subscribers, &g.Segments,
		&g.CampaignGroups, &g.SendingDomains, &g.SuppressionLists)
	if err != nil {
		return nil, fmt.Errorf("glance: %w", err)
	}
	return g, nil
}

func (r *DashboardRepo) ActionLogs(ctx context.Context, customerID int64, limit int) ([]domain.ActionLog, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT log_id, customer_id, category, reference_id, message, date_added
		FROM customer_action_logs WHERE customer_id = $1
		ORDER BY log_id DESC LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list action logs: %w", err)
	}
	defer rows.Close()

	var out []domain.ActionLog
	for rows.Next() {
		var l domain.ActionLog
		if err := rows.Scan(&l.ID, &l.CustomerID, &l.Category, &l.ReferenceID, &l.Message, &l.DateAdded); err != nil {
			return nil, fmt.Errorf("scan action log: %w", err)
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *DashboardRepo) CreateActionLog(ctx context.Context, l *domain.ActionLog) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO customer_action_logs (customer_id, category, reference_id, message, date_added)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING log_id
	`, l.CustomerID, l.Category, l.ReferenceID, l.Message, l.DateAdded).Scan(&l.ID)
	if err != nil {
		return fmt.Errorf("create action log: %w", err)
	}
	return nil
}

func (r *DashboardRepo) LatestCampaigns(ctx context.Context, customerID int64, limit int) ([]domain.Campaign, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT campaign_id, campaign_uid, customer_id, group_id, list_id, name, subject, status, send_at, date_added
		FROM campaigns WHERE customer_id = $1
		ORDER BY campaign_id DESC LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, fmt.Errorf("list campaigns: %w", err)
	}
	defer rows.Close()

	var out []domain.Campaign
	for rows.Next() {
		var (
			c       domain.Campaign
			groupID sql.NullInt64
			sendAt  sql.NullTime
		)
		if err := rows.Scan(&c.ID, &c.UID, &c.CustomerID, &groupID, &c.ListID, &c.Name, &c.Subject,
			&c.Status, &sendAt, &c.DateAdded); err != nil {
			return nil, fmt.Errorf("scan campaign: %w", err)
		}
		if groupID.Valid {
			c.GroupID = &groupID.Int64
		}
		if sendAt.Valid {
			c.SendAt = &sendAt.Time
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *DashboardRepo) SubscriberGrowth(ctx context.Context, customerID int64, since time.Time) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT TO_CHAR(s.date_added AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*)
		FROM list_subscribers s JOIN lists l ON l.list_id = s.list_id
		WHERE l.customer_id = $1 AND s.date_added >= $2
		GROUP BY day
	`, customerID, since)
	if err != nil {
		return nil, fmt.Errorf("subscriber growth: %w", err)
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var (
			day string
			n   int
		)
		if err := rows.Scan(&day, &n); err != nil {
			return nil, fmt.Errorf("scan growth: %w", err)
		}
		out[day] = n
	}
	return out, rows.Err()
}

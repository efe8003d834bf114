package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/server"
)

// ServerRepo implements server.Repository for both server tables.
type ServerRepo struct{ db *sql.DB }

// NewServerRepo creates a Postgres-backed server repository.
func NewServerRepo(db *sql.DB) *ServerRepo { return &ServerRepo{db: db} }

// ServerRefs implements server.Refs over the list and campaign group tables.
type ServerRefs struct {
	lists  *ListRepo
	groups *CampaignGroupRepo
}

// NewServerRefs creates the reference checker monitor conditions use.
func NewServerRefs(db *sql.DB) *ServerRefs {
	return &ServerRefs{lists: NewListRepo(db), groups: NewCampaignGroupRepo(db)}
}

// ListExists reports whether the customer owns the list.
func (r *ServerRefs) ListExists(ctx context.Context, customerID int64, listUID string) (bool, error) {
	return r.lists.ListExists(ctx, customerID, listUID)
}

// CampaignGroupExists reports whether the customer owns the group.
func (r *ServerRefs) CampaignGroupExists(ctx context.Context, customerID int64, groupUID string) (bool, error) {
	return r.groups.CampaignGroupExists(ctx, customerID, groupUID)
}

type serverTable struct {
	name string
	// extra selects conditions and identify_subscribers_by, which only
	// email-box monitors store.
	extra string
}

func tableFor(kind domain.ServerKind) (serverTable, error) {
	switch kind {
	case domain.KindEmailBoxMonitor:
		return serverTable{name: "email_box_monitors", extra: "conditions, identify_subscribers_by"}, nil
	case domain.KindFeedbackLoop:
		return serverTable{name: "feedback_loop_servers", extra: "'[]'::jsonb, ''"}, nil
	}
	return serverTable{}, fmt.Errorf("unknown server kind %q", kind)
}

func (t serverTable) cols() string {
	return `server_id, server_uid, customer_id, hostname, username, password, email,
		service, port, protocol, validate_ssl, locked, status, ` + t.extra + `, date_added, last_updated`
}

func scanServer(row interface{ Scan(...any) error }, kind domain.ServerKind) (*domain.Server, error) {
	s := &domain.Server{Kind: kind}
	var (
		validateSSL, locked string
		conditions          []byte
	)
	err := row.Scan(&s.ID, &s.UID, &s.CustomerID, &s.Hostname, &s.Username, &s.Password, &s.Email,
		&s.Service, &s.Port, &s.Protocol, &validateSSL, &locked, &s.Status,
		&conditions, &s.IdentifySubscribersBy, &s.DateAdded, &s.LastUpdated)
	if err != nil {
		return nil, err
	}
	s.ValidateSSL = validateSSL == "yes"
	s.Locked = locked == "yes"
	if len(conditions) > 0 {
		if err := json.Unmarshal(conditions, &s.Conditions); err != nil {
			return nil, fmt.Errorf("decode conditions: %w", err)
		}
	}
	return s, nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func (r *ServerRepo) Get(ctx context.Context, kind domain.ServerKind, customerID int64, uid string) (*domain.Server, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, err
	}
	s, err := scanServer(r.db.QueryRowContext(ctx, `SELECT `+t.cols()+` FROM `+t.name+`
		WHERE server_uid = $1 AND customer_id = $2 AND status <> 'hidden'`, uid, customerID), kind)
	if err == sql.ErrNoRows {
		return nil, server.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get server: %w", err)
	}
	return s, nil
}

func (r *ServerRepo) List(ctx context.Context, kind domain.ServerKind, customerID int64, f server.ListFilter) ([]domain.Server, int, error) {
	t, err := tableFor(kind)
	if err != nil {
		return nil, 0, err
	}
	w := newWhere("customer_id = $%d", customerID)
	w.add("status <> $%d", domain.ServerHidden)
	if f.Hostname != "" {
		w.add("hostname ILIKE $%d", likePattern(f.Hostname))
	}
	if f.Username != "" {
		w.add("username ILIKE $%d", likePattern(f.Username))
	}
	if f.Email != "" {
		w.add("email ILIKE $%d", likePattern(f.Email))
	}
	if f.Status != "" {
		w.add("status = $%d", f.Status)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+t.name+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count servers: %w", err)
	}

	limit, args := w.page(f.Limit, f.Offset)
	rows, err := r.db.QueryContext(ctx, `SELECT `+t.cols()+` FROM `+t.name+w.String()+` ORDER BY server_id DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list servers: %w", err)
	}
	defer rows.Close()

	var out []domain.Server
	for rows.Next() {
		s, err := scanServer(rows, kind)
		if err != nil {
			return nil, 0, fmt.Errorf("scan server: %w", err)
		}
		out = append(out, *s)
	}
	return out, total, rows.Err()
}

// Count includes hidden servers; they still take quota.
func (r *ServerRepo) Count(ctx context.Context, kind domain.ServerKind, customerID int64) (int, error) {
	t, err := tableFor(kind)
	if err != nil {
		return 0, err
	}
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+t.name+` WHERE customer_id = $1`, customerID).Scan(&n); err != nil {
		return 0, fmt.Errorf("count servers: %w", err)
	}
	return n, nil
}

func conditionsJSON(s *domain.Server) ([]byte, error) {
	if len(s.Conditions) == 0 {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Conditions)
}

func (r *ServerRepo) Create(ctx context.Context, s *domain.Server) error {
	t, err := tableFor(s.Kind)
	if err != nil {
		return err
	}
	q := `INSERT INTO ` + t.name + ` (server_uid, customer_id, hostname, username, password, email,
			service, port, protocol, validate_ssl, locked, status, date_added, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, NOW(), NOW())
		RETURNING server_id, date_added, last_updated`
	args := []any{s.UID, s.CustomerID, s.Hostname, s.Username, s.Password, s.Email,
		s.Service, s.Port, s.Protocol, yesNo(s.ValidateSSL), yesNo(s.Locked), s.Status}
	if s.Kind == domain.KindEmailBoxMonitor {
		conds, err := conditionsJSON(s)
		if err != nil {
			return fmt.Errorf("encode conditions: %w", err)
		}
		q = `INSERT INTO ` + t.name + ` (server_uid, customer_id, hostname, username, password, email,
				service, port, protocol, validate_ssl, locked, status, conditions, identify_subscribers_by,
				date_added, last_updated)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, NOW(), NOW())
			RETURNING server_id, date_added, last_updated`
		args = append(args, conds, s.IdentifySubscribersBy)
	}
	if err := r.db.QueryRowContext(ctx, q, args...).Scan(&s.ID, &s.DateAdded, &s.LastUpdated); err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	return nil
}

// Update never touches a locked row.
func (r *ServerRepo) Update(ctx context.Context, s *domain.Server) error {
	t, err := tableFor(s.Kind)
	if err != nil {
		return err
	}
	sets := `hostname = $1, username = $2, password = $3, email = $4, service = $5, port = $6,
		protocol = $7, validate_ssl = $8, status = $9, last_updated = NOW()`
	args := []any{s.Hostname, s.Username, s.Password, s.Email, s.Service, s.Port,
		s.Protocol, yesNo(s.ValidateSSL), s.Status}
	if s.Kind == domain.KindEmailBoxMonitor {
		conds, err := conditionsJSON(s)
		if err != nil {
			return fmt.Errorf("encode conditions: %w", err)
		}
		sets += `, conditions = $10, identify_subscribers_by = $11`
		args = append(args, conds, s.IdentifySubscribersBy)
	}
	n := len(args)
	args = append(args, s.ID, s.CustomerID)
	q := fmt.Sprintf(`UPDATE %s SET %s WHERE server_id = $%d AND customer_id = $%d AND locked = 'no'
		RETURNING last_updated`, t.name, sets, n+1, n+2)
	err = r.db.QueryRowContext(ctx, q, args...).Scan(&s.LastUpdated)
	if err == sql.ErrNoRows {
		return server.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update server: %w", err)
	}
	return nil
}

func (r *ServerRepo) UpdateStatus(ctx context.Context, kind domain.ServerKind, customerID int64, uid string, status domain.ServerStatus) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `UPDATE `+t.name+` SET status = $1, last_updated = NOW()
		WHERE server_uid = $2 AND customer_id = $3 AND locked = 'no' AND status <> 'hidden'`, status, uid, customerID)
	if err != nil {
		return fmt.Errorf("update server status: %w", err)
	}
	if affected(res) == 0 {
		return server.ErrNotFound
	}
	return nil
}

func (r *ServerRepo) Delete(ctx context.Context, kind domain.ServerKind, customerID int64, uid string) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx, `DELETE FROM `+t.name+`
		WHERE server_uid = $1 AND customer_id = $2 AND locked = 'no'`, uid, customerID)
	if err != nil {
		return fmt.Errorf("delete server: %w", err)
	}
	if affected(res) == 0 {
		return server.ErrNotFound
	}
	return nil
}

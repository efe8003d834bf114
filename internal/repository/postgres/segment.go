package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/segment"
	"github.com/lib/pq"
)

// segmentTables names the tables of list segments or survey segments,
// which share one shape.
type segmentTables struct {
	segments   string
	conditions string
	fields     string
	owner      string
}

var (
	listSegmentTables   = segmentTables{"list_segments", "list_segment_conditions", "list_fields", "list_id"}
	surveySegmentTables = segmentTables{"survey_segments", "survey_segment_conditions", "survey_fields", "survey_id"}
)

func (t segmentTables) cols() string {
	return `segment_id, segment_uid, ` + t.owner + `, name, operator_match, date_added, last_updated`
}

func (t segmentTables) get(ctx context.Context, db *sql.DB, ownerID int64, uid string) (*domain.Segment, error) {
	s := &domain.Segment{}
	err := db.QueryRowContext(ctx, `SELECT `+t.cols()+` FROM `+t.segments+`
		WHERE segment_uid = $1 AND `+t.owner+` = $2`, uid, ownerID).
		Scan(&s.ID, &s.UID, &s.OwnerID, &s.Name, &s.OperatorMatch, &s.DateAdded, &s.LastUpdated)
	if err == sql.ErrNoRows {
		return nil, segment.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get segment: %w", err)
	}
	if err := t.loadConditions(ctx, db, []*domain.Segment{s}); err != nil {
		return nil, err
	}
	return s, nil
}

func (t segmentTables) list(ctx context.Context, db *sql.DB, ownerID int64, f segment.ListFilter) ([]domain.Segment, int, error) {
	w := newWhere(t.owner+" = $%d", ownerID)
	if f.Name != "" {
		w.add("name ILIKE $%d", likePattern(f.Name))
	}

	var total int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM `+t.segments+w.String(), w.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count segments: %w", err)
	}

	limit, args := w.page(f.Limit, f.Offset)
	rows, err := db.QueryContext(ctx, `SELECT `+t.cols()+` FROM `+t.segments+w.String()+` ORDER BY segment_id DESC`+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list segments: %w", err)
	}
	defer rows.Close()

	var out []domain.Segment
	for rows.Next() {
		var s domain.Segment
		if err := rows.Scan(&s.ID, &s.UID, &s.OwnerID, &s.Name, &s.OperatorMatch, &s.DateAdded, &s.LastUpdated); err != nil {
			return nil, 0, fmt.Errorf("scan segment: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	ptrs := make([]*domain.Segment, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err := t.loadConditions(ctx, db, ptrs); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func (t segmentTables) loadConditions(ctx context.Context, q querier, segs []*domain.Segment) error {
	if len(segs) == 0 {
		return nil
	}
	ids := make([]int64, len(segs))
	index := make(map[int64]*domain.Segment, len(segs))
	for i, s := range segs {
		ids[i] = s.ID
		index[s.ID] = s
	}
	rows, err := q.QueryContext(ctx, `
		SELECT c.segment_id, c.condition_id, c.field_id, f.tag, c.operator, c.value
		FROM `+t.conditions+` c JOIN `+t.fields+` f ON f.field_id = c.field_id
		WHERE c.segment_id = ANY($1)
		ORDER BY c.condition_id
	`, pq.Array(ids))
	if err != nil {
		return fmt.Errorf("list segment conditions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			segID int64
			c     domain.SegmentCondition
		)
		if err := rows.Scan(&segID, &c.ID, &c.FieldID, &c.FieldTag, &c.Operator, &c.Value); err != nil {
			return fmt.Errorf("scan segment condition: %w", err)
		}
		if s, ok := index[segID]; ok {
			s.Conditions = append(s.Conditions, c)
		}
	}
	return rows.Err()
}

func (t segmentTables) replaceConditions(ctx context.Context, tx *sql.Tx, s *domain.Segment) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM `+t.conditions+` WHERE segment_id = $1`, s.ID); err != nil {
		return fmt.Errorf("clear segment conditions: %w", err)
	}
	for i := range s.Conditions {
		c := &s.Conditions[i]
		err := tx.QueryRowContext(ctx, `
			INSERT INTO `+t.conditions+` (segment_id, field_id, operator, value, date_added, last_updated)
			VALUES ($1, $2, $3, $4, NOW(), NOW())
			RETURNING condition_id
		`, s.ID, c.FieldID, c.Operator, c.Value).Scan(&c.ID)
		if err != nil {
			return fmt.Errorf("insert segment condition: %w", err)
		}
	}
	return nil
}

// SegmentRepo implements segment.Repository for list segments.
type SegmentRepo struct{ db *sql.DB }

// NewSegmentRepo creates a Postgres-backed list segment repository.
func NewSegmentRepo(db *sql.DB) *SegmentRepo { return &SegmentRepo{db: db} }

func (r *SegmentRepo) Get(ctx context.Context, listID int64, uid string) (*domain.Segment, error) {
	return listSegmentTables.get(ctx, r.db, listID, uid)
}

func (r *SegmentRepo) List(ctx context.Context, listID int64, f segment.ListFilter) ([]domain.Segment, int, error) {
	return listSegmentTables.list(ctx, r.db, listID, f)
}

// Create inserts the segment and its conditions in one transaction.
func (r *SegmentRepo) Create(ctx context.Context, s *domain.Segment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO list_segments (segment_uid, list_id, name, operator_match, date_added, last_updated)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		RETURNING segment_id, date_added, last_updated
	`, s.UID, s.OwnerID, s.Name, s.OperatorMatch).Scan(&s.ID, &s.DateAdded, &s.LastUpdated)
	if err != nil {
		return fmt.Errorf("create segment: %w", err)
	}
	if err := listSegmentTables.replaceConditions(ctx, tx, s); err != nil {
		return err
	}
	return tx.Commit()
}

// Update rewrites the segment and replaces its conditions.
func (r *SegmentRepo) Update(ctx context.Context, s *domain.Segment) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		UPDATE list_segments SET name = $1, operator_match = $2, last_updated = NOW()
		WHERE segment_id = $3 AND list_id = $4
		RETURNING last_updated
	`, s.Name, s.OperatorMatch, s.ID, s.OwnerID).Scan(&s.LastUpdated)
	if err == sql.ErrNoRows {
		return segment.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update segment: %w", err)
	}
	if err := listSegmentTables.replaceConditions(ctx, tx, s); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete relies on ON DELETE CASCADE for the conditions.
func (r *SegmentRepo) Delete(ctx context.Context, listID int64, uid string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM list_segments WHERE segment_uid = $1 AND list_id = $2`, uid, listID)
	if err != nil {
		return fmt.Errorf("delete segment: %w", err)
	}
	if affected(res) == 0 {
		return segment.ErrNotFound
	}
	return nil
}

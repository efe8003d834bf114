package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/service/segment"
	"github.com/lib/pq"
)

// SurveyRepo implements segment.Surveys against PostgreSQL.
type SurveyRepo struct{ db *sql.DB }

// NewSurveyRepo creates a Postgres-backed survey repository.
func NewSurveyRepo(db *sql.DB) *SurveyRepo { return &SurveyRepo{db: db} }

func (r *SurveyRepo) GetSurvey(ctx context.Context, customerID int64, uid string) (*domain.Survey, error) {
	s := &domain.Survey{}
	err := r.db.QueryRowContext(ctx, `
		SELECT survey_id, survey_uid, customer_id, name, status, date_added
		FROM surveys WHERE survey_uid = $1 AND customer_id = $2
	`, uid, customerID).Scan(&s.ID, &s.UID, &s.CustomerID, &s.Name, &s.Status, &s.DateAdded)
	if err == sql.ErrNoRows {
		return nil, segment.ErrSurveyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get survey: %w", err)
	}
	return s, nil
}

func (r *SurveyRepo) SurveyFields(ctx context.Context, surveyID int64) ([]domain.SurveyField, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT field_id, survey_id, label, tag FROM survey_fields
		WHERE survey_id = $1 ORDER BY sort_order, field_id
	`, surveyID)
	if err != nil {
		return nil, fmt.Errorf("list survey fields: %w", err)
	}
	defer rows.Close()

	var out []domain.SurveyField
	for rows.Next() {
		var f domain.SurveyField
		if err := rows.Scan(&f.ID, &f.SurveyID, &f.Label, &f.Tag); err != nil {
			return nil, fmt.Errorf("scan survey field: %w", err)
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *SurveyRepo) SurveySegments(ctx context.Context, surveyID int64, f segment.ListFilter) ([]domain.Segment, int, error) {
	return surveySegmentTables.list(ctx, r.db, surveyID, f)
}

func (r *SurveyRepo) GetSurveySegment(ctx context.Context, surveyID int64, uid string) (*domain.Segment, error) {
	return surveySegmentTables.get(ctx, r.db, surveyID, uid)
}

// Responders loads a window of responders ordered by id, with answers
// keyed by field tag.
func (r *SurveyRepo) Responders(ctx context.Context, surveyID int64, offset, limit int) ([]domain.SurveyResponder, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT responder_id, responder_uid, survey_id, ip_address, date_added
		FROM survey_responders WHERE survey_id = $1
		ORDER BY responder_id LIMIT $2 OFFSET $3
	`, surveyID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list responders: %w", err)
	}
	defer rows.Close()

	var (
		out []domain.SurveyResponder
		ids []int64
	)
	for rows.Next() {
		var s domain.SurveyResponder
		if err := rows.Scan(&s.ID, &s.UID, &s.SurveyID, &s.IPAddress, &s.DateAdded); err != nil {
			return nil, fmt.Errorf("scan responder: %w", err)
		}
		s.Fields = map[string]string{}
		out = append(out, s)
		ids = append(ids, s.ID)
	}
	if err := rows.Err(); err != nil || len(ids) == 0 {
		return out, err
	}

	vals, err := r.db.QueryContext(ctx, `
		SELECT v.responder_id, f.tag, v.value
		FROM survey_field_values v JOIN survey_fields f ON f.field_id = v.field_id
		WHERE v.responder_id = ANY($1)
	`, pq.Array(ids))
	if err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
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
			return nil, fmt.Errorf("scan answer: %w", err)
		}
		if i, ok := index[id]; ok {
			out[i].Fields[tag] = value
		}
	}
	return out, vals.Err()
}

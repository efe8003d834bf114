package domain

import "time"

// SurveyStatus enumerates survey states.
type SurveyStatus string

const (
	SurveyActive   SurveyStatus = "active"
	SurveyInactive SurveyStatus = "inactive"
)

// Survey is a customer-owned questionnaire.
type Survey struct {
	ID         int64        `json:"-" db:"survey_id"`
	UID        string       `json:"survey_uid" db:"survey_uid"`
	CustomerID int64        `json:"-" db:"customer_id"`
	Name       string       `json:"name" db:"name"`
	Status     SurveyStatus `json:"status" db:"status"`
	DateAdded  time.Time    `json:"date_added" db:"date_added"`
}

// SurveyField is a question of a survey, addressed by its tag.
type SurveyField struct {
	ID       int64  `json:"field_id" db:"field_id"`
	SurveyID int64  `json:"-" db:"survey_id"`
	Label    string `json:"label" db:"label"`
	Tag      string `json:"tag" db:"tag"`
}

// SurveyResponder is one set of answers keyed by field tag.
type SurveyResponder struct {
	ID        int64             `json:"-" db:"responder_id"`
	UID       string            `json:"responder_uid" db:"responder_uid"`
	SurveyID  int64             `json:"-" db:"survey_id"`
	IPAddress string            `json:"ip_address" db:"ip_address"`
	Fields    map[string]string `json:"fields" db:"-"`
	DateAdded time.Time         `json:"date_added" db:"date_added"`
}

// Value returns the answer to the field tagged tag.
func (r *SurveyResponder) Value(tag string) string { return r.Fields[tag] }

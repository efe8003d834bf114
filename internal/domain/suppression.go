package domain

import (
	"net/mail"
	"strings"
	"time"
)

// SuppressionList is a customer-owned list of addresses that never receive
// the customer's campaigns.
type SuppressionList struct {
	ID          int64     `json:"-" db:"list_id"`
	UID         string    `json:"list_uid" db:"list_uid"`
	CustomerID  int64     `json:"-" db:"customer_id"`
	Name        string    `json:"name" db:"name"`
	EmailsCount int       `json:"emails_count" db:"emails_count"`
	DateAdded   time.Time `json:"date_added" db:"date_added"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// Validate checks the attributes a customer can edit.
func (l *SuppressionList) Validate() error {
	v := &ValidationError{}
	switch {
	case strings.TrimSpace(l.Name) == "":
		v.Add("name", "Name cannot be blank.")
	case len(l.Name) > 255:
		v.Add("name", "Name is too long (maximum is 255 characters).")
	}
	return v.Err()
}

// SuppressionListEmail is one address on a suppression list. Addresses are
// unique per list and stored lower-cased.
type SuppressionListEmail struct {
	ID          int64     `json:"-" db:"email_id"`
	UID         string    `json:"email_uid" db:"email_uid"`
	ListID      int64     `json:"-" db:"list_id"`
	Email       string    `json:"email" db:"email"`
	DateAdded   time.Time `json:"date_added" db:"date_added"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// NormalizeEmail lower-cases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidEmail reports whether email is a bare RFC 5322 address.
func ValidEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email && strings.Contains(email, ".")
}

// Validate checks the address syntax. Uniqueness is checked by the service.
func (e *SuppressionListEmail) Validate() error {
	v := &ValidationError{}
	switch {
	case e.Email == "":
		v.Add("email", "Email cannot be blank.")
	case len(e.Email) > 150:
		v.Add("email", "Email is too long (maximum is 150 characters).")
	case !ValidEmail(e.Email):
		v.Add("email", "Email is not a valid email address.")
	}
	return v.Err()
}

func (e SuppressionListEmail) CSVHeader() []string { return []string{"Email", "Date Added"} }

func (e SuppressionListEmail) CSVRecord() []string {
	return []string{e.Email, e.DateAdded.Format(CSVDate)}
}

// ImportStatus tracks a queued import file through the processing CLI.
type ImportStatus string

const (
	ImportPending    ImportStatus = "pending"
	ImportProcessing ImportStatus = "processing"
	ImportDone       ImportStatus = "done"
	ImportFailed     ImportStatus = "failed"
)

// SuppressionImportJob is an uploaded file waiting to be imported into a
// suppression list by the background command.
type SuppressionImportJob struct {
	ID            int64        `json:"-" db:"import_id"`
	UID           string       `json:"import_uid" db:"import_uid"`
	ListID        int64        `json:"-" db:"list_id"`
	CustomerID    int64        `json:"-" db:"customer_id"`
	FileKey       string       `json:"file_key" db:"file_key"`
	OriginalName  string       `json:"original_name" db:"original_name"`
	Status        ImportStatus `json:"status" db:"status"`
	TotalRecords  int          `json:"total_records" db:"total_records"`
	TotalImported int          `json:"total_imported" db:"total_imported"`
	Message       string       `json:"message,omitempty" db:"message"`
	DateAdded     time.Time    `json:"date_added" db:"date_added"`
	LastUpdated   time.Time    `json:"last_updated" db:"last_updated"`
}

package domain

import (
	"errors"
	"time"
)

// ErrListNotFound is returned by every lookup of a list the customer does
// not own.
var ErrListNotFound = errors.New("list not found")

// SubscriberStatus enumerates the states a subscriber can be in.
type SubscriberStatus string

const (
	SubscriberConfirmed    SubscriberStatus = "confirmed"
	SubscriberUnconfirmed  SubscriberStatus = "unconfirmed"
	SubscriberUnsubscribed SubscriberStatus = "unsubscribed"
	SubscriberBlacklisted  SubscriberStatus = "blacklisted"
	SubscriberUnapproved   SubscriberStatus = "unapproved"
	SubscriberDisabled     SubscriberStatus = "disabled"
	SubscriberMoved        SubscriberStatus = "moved"
)

// SubscriberSource records how a subscriber entered the list.
type SubscriberSource string

const (
	SourceWeb    SubscriberSource = "web"
	SourceAPI    SubscriberSource = "api"
	SourceImport SubscriberSource = "import"
)

// List is an email list owned by a customer.
type List struct {
	ID               int64     `json:"-" db:"list_id"`
	UID              string    `json:"list_uid" db:"list_uid"`
	CustomerID       int64     `json:"-" db:"customer_id"`
	Name             string    `json:"name" db:"name"`
	DisplayName      string    `json:"display_name" db:"display_name"`
	Description      string    `json:"description" db:"description"`
	SubscribersCount int       `json:"subscribers_count" db:"subscribers_count"`
	DateAdded        time.Time `json:"date_added" db:"date_added"`
}

// ListField is a custom field of a list, addressed by its tag.
type ListField struct {
	ID        int64  `json:"field_id" db:"field_id"`
	ListID    int64  `json:"-" db:"list_id"`
	Label     string `json:"label" db:"label"`
	Tag       string `json:"tag" db:"tag"`
	Required  bool   `json:"required" db:"required"`
	SortOrder int    `json:"sort_order" db:"sort_order"`
}

// Subscriber is a list member with its custom field values keyed by tag.
type Subscriber struct {
	ID        int64             `json:"-" db:"subscriber_id"`
	UID       string            `json:"subscriber_uid" db:"subscriber_uid"`
	ListID    int64             `json:"-" db:"list_id"`
	Email     string            `json:"email" db:"email"`
	Status    SubscriberStatus  `json:"status" db:"status"`
	Source    SubscriberSource  `json:"source" db:"source"`
	IPAddress string            `json:"ip_address" db:"ip_address"`
	Fields    map[string]string `json:"fields" db:"-"`
	DateAdded time.Time         `json:"date_added" db:"date_added"`
}

// Value returns the value of the field tagged tag. EMAIL resolves to the
// address itself.
func (s *Subscriber) Value(tag string) string {
	if tag == "EMAIL" {
		return s.Email
	}
	return s.Fields[tag]
}

package domain

import "time"

// ListPageType identifies one of the public pages a list exposes. Types are
// fixed by the application; lists only override their content.
type ListPageType struct {
	Slug           string   `json:"slug"`
	Name           string   `json:"name"`
	Description    string   `json:"description"`
	DefaultContent string   `json:"-"`
	Required       []string `json:"required_tags"`
}

// ListPage is the content of a page type for one list. Custom is false when
// the type default is in use.
type ListPage struct {
	ListID      int64     `json:"-" db:"list_id"`
	Type        string    `json:"type" db:"page_type"`
	Name        string    `json:"name" db:"-"`
	Content     string    `json:"content" db:"content"`
	Custom      bool      `json:"custom" db:"-"`
	DateAdded   time.Time `json:"date_added" db:"date_added"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

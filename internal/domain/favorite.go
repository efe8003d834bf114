package domain

import (
	"crypto/sha1"
	"encoding/hex"
	"strings"
	"time"
)

// FavoritePage is a console route a customer bookmarked.
type FavoritePage struct {
	ID          int64     `json:"-" db:"page_id"`
	UID         string    `json:"page_uid" db:"page_uid"`
	CustomerID  int64     `json:"-" db:"customer_id"`
	Label       string    `json:"label" db:"label"`
	Route       string    `json:"route" db:"route"`
	RouteHash   string    `json:"-" db:"route_hash"`
	ClicksCount int       `json:"clicks_count" db:"clicks_count"`
	DateAdded   time.Time `json:"date_added" db:"date_added"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// HashRoute returns the lookup key for a route, ignoring case and a
// trailing slash.
func HashRoute(route string) string {
	route = strings.TrimRight(strings.ToLower(strings.TrimSpace(route)), "/")
	sum := sha1.Sum([]byte(route))
	return hex.EncodeToString(sum[:])
}

// Validate checks the label and that the route is a local path.
func (p *FavoritePage) Validate() error {
	v := &ValidationError{}
	if strings.TrimSpace(p.Label) == "" {
		v.Add("label", "Label cannot be blank.")
	} else if len(p.Label) > 255 {
		v.Add("label", "Label is too long (maximum is 255 characters).")
	}
	if !strings.HasPrefix(p.Route, "/") || strings.HasPrefix(p.Route, "//") {
		v.Add("route", "Route must be a local path.")
	}
	return v.Err()
}

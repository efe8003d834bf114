package domain

import (
	"net"
	"strings"
	"time"
)

// CustomerIPBlacklist is one IP address a customer refuses subscriptions from.
type CustomerIPBlacklist struct {
	ID         int64     `json:"ip_id" db:"ip_id"`
	CustomerID int64     `json:"-" db:"customer_id"`
	IPAddress  string    `json:"ip_address" db:"ip_address"`
	DateAdded  time.Time `json:"date_added" db:"date_added"`
}

// Normalize trims the address and rewrites it in canonical form when it parses.
func (b *CustomerIPBlacklist) Normalize() {
	b.IPAddress = strings.TrimSpace(b.IPAddress)
	if ip := net.ParseIP(b.IPAddress); ip != nil {
		b.IPAddress = ip.String()
	}
}

// Validate checks the address is a literal IPv4 or IPv6 address.
func (b *CustomerIPBlacklist) Validate() error {
	v := &ValidationError{}
	switch {
	case b.IPAddress == "":
		v.Add("ip_address", "Ip address cannot be blank.")
	case net.ParseIP(b.IPAddress) == nil:
		v.Add("ip_address", "Ip address must be a valid IP address.")
	}
	return v.Err()
}

func (b CustomerIPBlacklist) CSVHeader() []string { return []string{"IP Address", "Date Added"} }

func (b CustomerIPBlacklist) CSVRecord() []string {
	return []string{b.IPAddress, b.DateAdded.Format(CSVDate)}
}

package domain

import (
	"strings"
	"time"
)

// SendingDomain is a domain a customer proves ownership of so messages can
// be DKIM-signed on its behalf.
type SendingDomain struct {
	ID             int64     `json:"-" db:"domain_id"`
	UID            string    `json:"domain_uid" db:"domain_uid"`
	CustomerID     int64     `json:"-" db:"customer_id"`
	Name           string    `json:"name" db:"name"`
	DKIMPrivateKey string    `json:"-" db:"dkim_private_key"`
	DKIMPublicKey  string    `json:"dkim_public_key" db:"dkim_public_key"`
	Locked         bool      `json:"locked" db:"locked"`
	Verified       bool      `json:"verified" db:"verified"`
	SigningEnabled bool      `json:"signing_enabled" db:"signing_enabled"`
	DateAdded      time.Time `json:"date_added" db:"date_added"`
	LastUpdated    time.Time `json:"last_updated" db:"last_updated"`
}

// DNSRecord is a record the customer must publish for verification.
type DNSRecord struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Value string `json:"value"`
}

// DKIMRecordName returns the host name of the DKIM TXT record for selector.
func (d *SendingDomain) DKIMRecordName(selector string) string {
	return selector + "._domainkey." + d.Name
}

// DKIMRecordValue returns the TXT value the customer must publish.
func (d *SendingDomain) DKIMRecordValue() string {
	return "v=DKIM1; k=rsa; p=" + StripPEM(d.DKIMPublicKey)
}

// StripPEM removes the PEM armor and all whitespace from a key.
func StripPEM(key string) string {
	var b strings.Builder
	for _, line := range strings.Split(key, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "-----") {
			continue
		}
		b.WriteString(line)
	}
	return b.String()
}

// Validate checks the host name shape. Uniqueness and the public provider
// block-list are enforced by the service.
func (d *SendingDomain) Validate() error {
	v := &ValidationError{}
	if msg := hostnameProblem(d.Name); msg != "" {
		v.Add("name", msg)
	}
	if (d.DKIMPrivateKey == "") != (d.DKIMPublicKey == "") {
		v.Add("dkim_private_key", "Both DKIM keys must be provided together.")
	}
	return v.Err()
}

func hostnameProblem(name string) string {
	if name == "" {
		return "Domain name cannot be blank."
	}
	if len(name) > 253 {
		return "Domain name is too long (maximum is 253 characters)."
	}
	labels := strings.Split(name, ".")
	if len(labels) < 2 {
		return "Domain name must contain at least one dot."
	}
	for _, label := range labels {
		if label == "" || len(label) > 63 {
			return "Domain name contains an invalid label."
		}
		if label[0] == '-' || label[len(label)-1] == '-' {
			return "Domain name labels cannot start or end with a hyphen."
		}
		for _, c := range label {
			if !((c >= 'a' && c <= 'z') || (c >= '0' && c <= '9') || c == '-') {
				return "Domain name contains an invalid character."
			}
		}
	}
	return ""
}

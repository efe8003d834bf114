package domain

import "time"

// CustomerStatus enumerates the account states of a customer.
type CustomerStatus string

const (
	CustomerActive   CustomerStatus = "active"
	CustomerInactive CustomerStatus = "inactive"
)

// Customer is the tenant that owns every record exposed by the console.
// A sub-account has ParentID set and acts on the parent's records.
type Customer struct {
	ID        int64          `json:"-" db:"customer_id"`
	UID       string         `json:"customer_uid" db:"customer_uid"`
	GroupID   int64          `json:"-" db:"group_id"`
	ParentID  int64          `json:"-" db:"parent_id"`
	Email     string         `json:"email" db:"email"`
	Status    CustomerStatus `json:"status" db:"status"`
	DateAdded time.Time      `json:"date_added" db:"date_added"`
}

// Permission is a capability flag granted to sub-accounts.
type Permission string

const (
	PermCampaigns  Permission = "campaigns"
	PermServers    Permission = "servers"
	PermDomains    Permission = "domains"
	PermBlacklists Permission = "blacklists"
	PermLists      Permission = "lists"
	PermSurveys    Permission = "surveys"
)

// QuotaCode names a customer-group option that caps how many records of a
// type a customer may own. A limit of Unlimited disables the check.
type QuotaCode string

const (
	QuotaEmailBoxMonitors   QuotaCode = "servers.max_email_box_monitors"
	QuotaFBLServers         QuotaCode = "servers.max_fbl_servers"
	QuotaSendingDomains     QuotaCode = "sending_domains.max_sending_domains"
	QuotaSuppressionLists   QuotaCode = "suppression_lists.max_lists"
	QuotaSubscribers        QuotaCode = "lists.max_subscribers"
	QuotaSubscribersPerList QuotaCode = "lists.max_subscribers_per_list"
	QuotaSegmentConditions  QuotaCode = "lists.max_segment_conditions"
)

// Unlimited is the quota value that disables a limit.
const Unlimited = -1

// ActionLog is one entry of the customer activity timeline.
type ActionLog struct {
	ID          int64     `json:"log_id" db:"log_id"`
	CustomerID  int64     `json:"-" db:"customer_id"`
	Category    string    `json:"category" db:"category"`
	ReferenceID string    `json:"reference" db:"reference_id"`
	Message     string    `json:"message" db:"message"`
	DateAdded   time.Time `json:"date_added" db:"date_added"`
}

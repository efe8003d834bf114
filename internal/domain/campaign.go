package domain

import "time"

// CampaignStatus enumerates the lifecycle states of a campaign.
type CampaignStatus string

const (
	CampaignDraft          CampaignStatus = "draft"
	CampaignPendingSending CampaignStatus = "pending-sending"
	CampaignSending        CampaignStatus = "sending"
	CampaignSent           CampaignStatus = "sent"
	CampaignPaused         CampaignStatus = "paused"
	CampaignBlocked        CampaignStatus = "blocked"
)

// Campaign is the read side of a campaign as the console needs it: group
// membership and dashboard overview.
type Campaign struct {
	ID         int64          `json:"-" db:"campaign_id"`
	UID        string         `json:"campaign_uid" db:"campaign_uid"`
	CustomerID int64          `json:"-" db:"customer_id"`
	GroupID    *int64         `json:"-" db:"group_id"`
	ListID     int64          `json:"-" db:"list_id"`
	Name       string         `json:"name" db:"name"`
	Subject    string         `json:"subject" db:"subject"`
	Status     CampaignStatus `json:"status" db:"status"`
	SendAt     *time.Time     `json:"send_at" db:"send_at"`
	DateAdded  time.Time      `json:"date_added" db:"date_added"`
}

// CampaignGroup lets a customer organize campaigns. Deleting a group
// detaches its campaigns rather than deleting them.
type CampaignGroup struct {
	ID             int64     `json:"-" db:"group_id"`
	UID            string    `json:"group_uid" db:"group_uid"`
	CustomerID     int64     `json:"-" db:"customer_id"`
	Name           string    `json:"name" db:"name"`
	CampaignsCount int       `json:"campaigns_count" db:"campaigns_count"`
	DateAdded      time.Time `json:"date_added" db:"date_added"`
	LastUpdated    time.Time `json:"last_updated" db:"last_updated"`
}

// Validate checks the attributes a customer can edit.
func (g *CampaignGroup) Validate() error {
	v := &ValidationError{}
	switch {
	case g.Name == "":
		v.Add("name", "Name cannot be blank.")
	case len(g.Name) > 255:
		v.Add("name", "Name is too long (maximum is 255 characters).")
	}
	return v.Err()
}

package domain

import (
	"net/mail"
	"strconv"
	"strings"
	"time"
)

// ServerKind distinguishes the two mailbox-reading server tables.
type ServerKind string

const (
	KindEmailBoxMonitor ServerKind = "email-box-monitor"
	KindFeedbackLoop    ServerKind = "feedback-loop"
)

// ServerService is the mailbox protocol the server speaks.
type ServerService string

const (
	ServiceIMAP ServerService = "imap"
	ServicePOP3 ServerService = "pop3"
)

// ServerProtocol is the transport security used when connecting.
type ServerProtocol string

const (
	ProtocolSSL   ServerProtocol = "ssl"
	ProtocolTLS   ServerProtocol = "tls"
	ProtocolNoTLS ServerProtocol = "notls"
)

// ServerStatus enumerates the states of a monitored server.
type ServerStatus string

const (
	ServerActive      ServerStatus = "active"
	ServerInactive    ServerStatus = "inactive"
	ServerDisabled    ServerStatus = "disabled"
	ServerCronRunning ServerStatus = "cron-running"
	ServerHidden      ServerStatus = "hidden"
	ServerError       ServerStatus = "error"
)

// MonitorAction is what an email-box monitor does with a subscriber when a
// condition matches an incoming message.
type MonitorAction string

const (
	ActionUnsubscribe       MonitorAction = "unsubscribe"
	ActionBlacklist         MonitorAction = "blacklist"
	ActionUnconfirm         MonitorAction = "unconfirm"
	ActionDelete            MonitorAction = "delete"
	ActionMoveToList        MonitorAction = "move to list"
	ActionCopyToList        MonitorAction = "copy to list"
	ActionStopCampaignGroup MonitorAction = "stop campaign group"
)

// MonitorCondition is one rule of an email-box monitor.
type MonitorCondition struct {
	Condition        string        `json:"condition" mapstructure:"condition"`
	Value            string        `json:"value" mapstructure:"value"`
	Action           MonitorAction `json:"action" mapstructure:"action"`
	ListUID          string        `json:"list_uid,omitempty" mapstructure:"list_uid"`
	CampaignGroupUID string        `json:"campaign_group_uid,omitempty" mapstructure:"campaign_group_uid"`
}

// Server is an email-box monitor or a feedback-loop server. Both share the
// connection settings; only monitors carry conditions.
type Server struct {
	ID                    int64              `json:"-" db:"server_id"`
	UID                   string             `json:"server_uid" db:"server_uid"`
	CustomerID            int64              `json:"-" db:"customer_id"`
	Kind                  ServerKind         `json:"kind" db:"-"`
	Hostname              string             `json:"hostname" db:"hostname"`
	Username              string             `json:"username" db:"username"`
	Password              string             `json:"-" db:"password"`
	Email                 string             `json:"email" db:"email"`
	Service               ServerService      `json:"service" db:"service"`
	Port                  int                `json:"port" db:"port"`
	Protocol              ServerProtocol     `json:"protocol" db:"protocol"`
	ValidateSSL           bool               `json:"validate_ssl" db:"validate_ssl"`
	Locked                bool               `json:"locked" db:"locked"`
	Status                ServerStatus       `json:"status" db:"status"`
	Conditions            []MonitorCondition `json:"conditions,omitempty" db:"conditions"`
	IdentifySubscribersBy string             `json:"identify_subscribers_by,omitempty" db:"identify_subscribers_by"`
	DateAdded             time.Time          `json:"date_added" db:"date_added"`
	LastUpdated           time.Time          `json:"last_updated" db:"last_updated"`
}

// DefaultPort returns the conventional port for a service/protocol pair.
func DefaultPort(service ServerService, protocol ServerProtocol) int {
	switch {
	case service == ServicePOP3 && protocol == ProtocolSSL:
		return 995
	case service == ServicePOP3:
		return 110
	case protocol == ProtocolSSL:
		return 993
	default:
		return 143
	}
}

// Validate checks connection settings and, for monitors, the condition
// shapes. Ownership of referenced lists and groups is checked by the service.
func (s *Server) Validate() error { return s.validate(true) }

// ValidateImported is Validate for rows read from an export, which never
// carries the password.
func (s *Server) ValidateImported() error { return s.validate(false) }

func (s *Server) validate(needPassword bool) error {
	v := &ValidationError{}
	if strings.TrimSpace(s.Hostname) == "" {
		v.Add("hostname", "Hostname cannot be blank.")
	}
	if strings.TrimSpace(s.Username) == "" {
		v.Add("username", "Username cannot be blank.")
	}
	if needPassword && s.Password == "" {
		v.Add("password", "Password cannot be blank.")
	}
	if s.Email != "" {
		if _, err := mail.ParseAddress(s.Email); err != nil {
			v.Add("email", "Email is not a valid email address.")
		}
	}
	switch s.Service {
	case ServiceIMAP, ServicePOP3:
	default:
		v.Add("service", "Service is invalid.")
	}
	switch s.Protocol {
	case ProtocolSSL, ProtocolTLS, ProtocolNoTLS:
	default:
		v.Add("protocol", "Protocol is invalid.")
	}
	if s.Port < 1 || s.Port > 65535 {
		v.Add("port", "Port must be between 1 and 65535.")
	}
	if s.Kind == KindEmailBoxMonitor {
		for i, c := range s.Conditions {
			field := "conditions." + strconv.Itoa(i)
			if c.Condition != "contains" {
				v.Add(field, "Condition is invalid.")
			}
			if strings.TrimSpace(c.Value) == "" {
				v.Add(field, "Value cannot be blank.")
			}
			switch c.Action {
			case ActionUnsubscribe, ActionBlacklist, ActionUnconfirm, ActionDelete:
			case ActionMoveToList, ActionCopyToList:
				if c.ListUID == "" {
					v.Add(field, "Please select a list for this action.")
				}
			case ActionStopCampaignGroup:
				if c.CampaignGroupUID == "" {
					v.Add(field, "Please select a campaign group for this action.")
				}
			default:
				v.Add(field, "Action is invalid.")
			}
		}
	}
	return v.Err()
}

// CSVHeader implements the export row contract. The password is never exported.
func (s Server) CSVHeader() []string {
	return []string{"Server UID", "Hostname", "Username", "Email", "Service", "Port",
		"Protocol", "Validate SSL", "Status", "Locked", "Date Added"}
}

// CSVRecord implements the export row contract.
func (s Server) CSVRecord() []string {
	return []string{s.UID, s.Hostname, s.Username, s.Email, string(s.Service),
		strconv.Itoa(s.Port), string(s.Protocol), yesNo(s.ValidateSSL),
		string(s.Status), yesNo(s.Locked), s.DateAdded.Format(CSVDate)}
}

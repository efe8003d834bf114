package server

import (
	"context"
	"fmt"
	"io"
	"iter"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/csvio"
)

// Service implements server business logic. It is safe for concurrent use.
type Service struct {
	repo   Repository
	refs   Refs
	quota  Quota
	tester Tester
}

// NewService creates a server service. tester may be nil to skip
// connection checks entirely.
func NewService(repo Repository, refs Refs, quota Quota, tester Tester) *Service {
	return &Service{repo: repo, refs: refs, quota: quota, tester: tester}
}

// Input carries the attributes a customer may post.
type Input struct {
	Hostname              string                    `json:"hostname" mapstructure:"hostname"`
	Username              string                    `json:"username" mapstructure:"username"`
	Password              string                    `json:"password" mapstructure:"password"`
	Email                 string                    `json:"email" mapstructure:"email"`
	Service               domain.ServerService      `json:"service" mapstructure:"service"`
	Port                  int                       `json:"port" mapstructure:"port"`
	Protocol              domain.ServerProtocol     `json:"protocol" mapstructure:"protocol"`
	ValidateSSL           bool                      `json:"validate_ssl" mapstructure:"validate_ssl"`
	Conditions            []domain.MonitorCondition `json:"conditions" mapstructure:"conditions"`
	IdentifySubscribersBy string                    `json:"identify_subscribers_by" mapstructure:"identify_subscribers_by"`
	SkipConnectionTest    bool                      `json:"skip_connection_test" mapstructure:"skip_connection_test"`
}

func quotaCode(kind domain.ServerKind) domain.QuotaCode {
	if kind == domain.KindFeedbackLoop {
		return domain.QuotaFBLServers
	}
	return domain.QuotaEmailBoxMonitors
}

// List returns the customer's servers of a kind.
func (s *Service) List(ctx context.Context, kind domain.ServerKind, customerID int64, f ListFilter) ([]domain.Server, int, error) {
	return s.repo.List(ctx, kind, customerID, f)
}

// Get returns one server.
func (s *Service) Get(ctx context.Context, kind domain.ServerKind, customerID int64, uid string) (*domain.Server, error) {
	return s.repo.Get(ctx, kind, customerID, uid)
}

// Create validates, tests and stores a new server.
func (s *Service) Create(ctx context.Context, kind domain.ServerKind, customerID int64, in Input) (*domain.Server, error) {
	count, err := s.repo.Count(ctx, kind, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.quota.Check(ctx, customerID, quotaCode(kind), count); err != nil {
		return nil, err
	}

	srv := &domain.Server{
		UID:        uuid.NewString(),
		CustomerID: customerID,
		Kind:       kind,
		Status:     domain.ServerInactive,
	}
	apply(srv, in)
	if err := s.check(ctx, srv, in.SkipConnectionTest); err != nil {
		return srv, err
	}
	if !in.SkipConnectionTest && s.tester != nil {
		srv.Status = domain.ServerActive
	}
	if err := s.repo.Create(ctx, srv); err != nil {
		return srv, err
	}
	return srv, nil
}

// Update applies posted settings to an unlocked server. An empty password
// keeps the stored one.
func (s *Service) Update(ctx context.Context, kind domain.ServerKind, customerID int64, uid string, in Input) (*domain.Server, error) {
	srv, err := s.repo.Get(ctx, kind, customerID, uid)
	if err != nil {
		return nil, err
	}
	if srv.Locked {
		return srv, ErrLocked
	}
	password := srv.Password
	apply(srv, in)
	if srv.Password == "" {
		srv.Password = password
	}
	if err := s.check(ctx, srv, in.SkipConnectionTest); err != nil {
		return srv, err
	}
	if err := s.repo.Update(ctx, srv); err != nil {
		return srv, err
	}
	return srv, nil
}

// Delete removes an unlocked server and returns it for the delete hook.
func (s *Service) Delete(ctx context.Context, kind domain.ServerKind, customerID int64, uid string) (*domain.Server, error) {
	srv, err := s.repo.Get(ctx, kind, customerID, uid)
	if err != nil {
		return nil, err
	}
	if srv.Locked {
		return srv, ErrLocked
	}
	if err := s.repo.Delete(ctx, kind, customerID, uid); err != nil {
		return srv, err
	}
	return srv, nil
}

// Copy duplicates a server as inactive, subject to the same quota as create.
func (s *Service) Copy(ctx context.Context, kind domain.ServerKind, customerID int64, uid string) (*domain.Server, error) {
	src, err := s.repo.Get(ctx, kind, customerID, uid)
	if err != nil {
		return nil, err
	}
	count, err := s.repo.Count(ctx, kind, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.quota.Check(ctx, customerID, quotaCode(kind), count); err != nil {
		return nil, err
	}

	cp := *src
	cp.ID = 0
	cp.UID = uuid.NewString()
	cp.Locked = false
	cp.Status = domain.ServerInactive
	cp.Conditions = append([]domain.MonitorCondition(nil), src.Conditions...)
	if err := s.repo.Create(ctx, &cp); err != nil {
		return nil, err
	}
	return &cp, nil
}

// Enable marks an unlocked server active.
func (s *Service) Enable(ctx context.Context, kind domain.ServerKind, customerID int64, uid string) (*domain.Server, error) {
	return s.setStatus(ctx, kind, customerID, uid, domain.ServerActive)
}

// Disable marks an unlocked server disabled.
func (s *Service) Disable(ctx context.Context, kind domain.ServerKind, customerID int64, uid string) (*domain.Server, error) {
	return s.setStatus(ctx, kind, customerID, uid, domain.ServerDisabled)
}

func (s *Service) setStatus(ctx context.Context, kind domain.ServerKind, customerID int64, uid string, status domain.ServerStatus) (*domain.Server, error) {
	srv, err := s.repo.Get(ctx, kind, customerID, uid)
	if err != nil {
		return nil, err
	}
	if srv.Locked {
		return srv, ErrLocked
	}
	if status == domain.ServerActive && srv.Password == "" {
		v := &domain.ValidationError{}
		v.Add("password", "Set a password before enabling the server.")
		return srv, v
	}
	if err := s.repo.UpdateStatus(ctx, kind, customerID, uid, status); err != nil {
		return srv, err
	}
	srv.Status = status
	return srv, nil
}

// Export streams every server of a kind, batchSize rows per query.
func (s *Service) Export(ctx context.Context, kind domain.ServerKind, customerID int64, batchSize int) iter.Seq2[domain.Server, error] {
	return csvio.Paginate(ctx, batchSize, func(ctx context.Context, offset, limit int) ([]domain.Server, error) {
		rows, _, err := s.repo.List(ctx, kind, customerID, ListFilter{Limit: limit, Offset: offset})
		return rows, err
	})
}

// importAliases maps the export labels and short names onto import columns.
var importAliases = map[string]string{
	"host":         "hostname",
	"user":         "username",
	"validate ssl": "validate_ssl",
}

// Import creates servers from a CSV with at least a hostname column, in the
// layout Export writes. Rows are stored inactive and untested. Exports carry
// no password, so a row without one must be edited before it can be enabled.
// Each row counts against the quota; rows past it are reported as errors.
func (s *Service) Import(ctx context.Context, kind domain.ServerKind, customerID int64, src io.Reader) (csvio.Result, error) {
	r, err := csvio.NewReader(src, []string{"hostname"}, importAliases)
	if err != nil {
		return csvio.Result{}, err
	}
	count, err := s.repo.Count(ctx, kind, customerID)
	if err != nil {
		return csvio.Result{}, err
	}
	return r.Each(func(row csvio.Row) error {
		if err := s.quota.Check(ctx, customerID, quotaCode(kind), count); err != nil {
			return err
		}
		in, err := inputFromRow(row)
		if err != nil {
			return err
		}
		srv := &domain.Server{
			UID:        uuid.NewString(),
			CustomerID: customerID,
			Kind:       kind,
			Status:     domain.ServerInactive,
		}
		apply(srv, in)
		if err := srv.ValidateImported(); err != nil {
			return err
		}
		if err := s.repo.Create(ctx, srv); err != nil {
			return err
		}
		count++
		return nil
	})
}

func inputFromRow(row csvio.Row) (Input, error) {
	in := Input{
		Hostname:    row.Get("hostname"),
		Username:    row.Get("username"),
		Password:    row.Get("password"),
		Email:       row.Get("email"),
		Service:     domain.ServerService(strings.ToLower(row.Get("service"))),
		Protocol:    domain.ServerProtocol(strings.ToLower(row.Get("protocol"))),
		ValidateSSL: parseYes(row.Get("validate_ssl")),
	}
	if p := row.Get("port"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			v := &domain.ValidationError{}
			v.Add("port", "Port must be a number.")
			return in, v
		}
		in.Port = n
	}
	return in, nil
}

func parseYes(v string) bool {
	switch strings.ToLower(v) {
	case "yes", "y", "true", "1":
		return true
	}
	return false
}

func apply(srv *domain.Server, in Input) {
	srv.Hostname = strings.TrimSpace(in.Hostname)
	srv.Username = strings.TrimSpace(in.Username)
	srv.Password = in.Password
	srv.Email = strings.TrimSpace(in.Email)
	srv.Service = in.Service
	if srv.Service == "" {
		srv.Service = domain.ServiceIMAP
	}
	srv.Protocol = in.Protocol
	if srv.Protocol == "" {
		srv.Protocol = domain.ProtocolNoTLS
	}
	srv.Port = in.Port
	if srv.Port == 0 {
		srv.Port = domain.DefaultPort(srv.Service, srv.Protocol)
	}
	srv.ValidateSSL = in.ValidateSSL
	if srv.Kind == domain.KindEmailBoxMonitor {
		srv.Conditions = in.Conditions
		srv.IdentifySubscribersBy = in.IdentifySubscribersBy
		if srv.IdentifySubscribersBy == "" {
			srv.IdentifySubscribersBy = "campaign-and-subscriber"
		}
	}
}

// check validates the record, verifies condition references belong to the
// customer and, unless skipped, tests the connection.
func (s *Service) check(ctx context.Context, srv *domain.Server, skipTest bool) error {
	if err := srv.Validate(); err != nil {
		return err
	}

	v := &domain.ValidationError{}
	for i, c := range srv.Conditions {
		field := fmt.Sprintf("conditions.%d", i)
		if c.ListUID != "" && (c.Action == domain.ActionMoveToList || c.Action == domain.ActionCopyToList) {
			ok, err := s.refs.ListExists(ctx, srv.CustomerID, c.ListUID)
			if err != nil {
				return err
			}
			if !ok {
				v.Add(field, "The selected list does not exist.")
			}
		}
		if c.CampaignGroupUID != "" && c.Action == domain.ActionStopCampaignGroup {
			ok, err := s.refs.CampaignGroupExists(ctx, srv.CustomerID, c.CampaignGroupUID)
			if err != nil {
				return err
			}
			if !ok {
				v.Add(field, "The selected campaign group does not exist.")
			}
		}
	}
	if v.HasErrors() {
		return v
	}

	if skipTest || s.tester == nil {
		return nil
	}
	if err := s.tester.Test(ctx, srv); err != nil {
		v.Add("hostname", "Cannot connect to the server: "+err.Error())
		return v
	}
	return nil
}

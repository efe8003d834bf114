package sendingdomain

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/logger"
)

// Options configure key generation and the public provider block-list.
type Options struct {
	Selector string
	KeyBits  int
	Blocked  []string
}

// Service implements sending domain business logic.
type Service struct {
	repo      Repository
	quota     Quota
	resolver  Resolver
	registrar Registrar
	opts      Options
}

// NewService creates a sending domain service. registrar may be nil.
func NewService(repo Repository, quota Quota, resolver Resolver, registrar Registrar, opts Options) *Service {
	if opts.Selector == "" {
		opts.Selector = "mailer"
	}
	if opts.KeyBits == 0 {
		opts.KeyBits = 2048
	}
	return &Service{repo: repo, quota: quota, resolver: resolver, registrar: registrar, opts: opts}
}

// Input carries the posted attributes. Keys are optional; a pair is
// generated when both are empty and the public key is derived when only
// the private key is given.
type Input struct {
	Name           string `json:"name" mapstructure:"name"`
	DKIMPrivateKey string `json:"dkim_private_key" mapstructure:"dkim_private_key"`
	DKIMPublicKey  string `json:"dkim_public_key" mapstructure:"dkim_public_key"`
	SigningEnabled *bool  `json:"signing_enabled" mapstructure:"signing_enabled"`
}

// Selector returns the DKIM selector domains are verified against.
func (s *Service) Selector() string { return s.opts.Selector }

// Records returns the DNS records the customer must publish.
func (s *Service) Records(d *domain.SendingDomain) []domain.DNSRecord {
	return []domain.DNSRecord{{
		Name:  d.DKIMRecordName(s.opts.Selector),
		Type:  "TXT",
		Value: d.DKIMRecordValue(),
	}}
}

// List returns the customer's sending domains.
func (s *Service) List(ctx context.Context, customerID int64, f ListFilter) ([]domain.SendingDomain, int, error) {
	return s.repo.List(ctx, customerID, f)
}

// Get returns one domain.
func (s *Service) Get(ctx context.Context, customerID int64, uid string) (*domain.SendingDomain, error) {
	return s.repo.Get(ctx, customerID, uid)
}

// Create validates and stores a new domain with a DKIM key pair.
func (s *Service) Create(ctx context.Context, customerID int64, in Input) (*domain.SendingDomain, error) {
	count, err := s.repo.Count(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if err := s.quota.Check(ctx, customerID, domain.QuotaSendingDomains, count); err != nil {
		return nil, err
	}

	d := &domain.SendingDomain{
		UID:            uuid.NewString(),
		CustomerID:     customerID,
		SigningEnabled: true,
	}
	if err := s.apply(d, in); err != nil {
		return d, err
	}
	if err := s.validate(ctx, d); err != nil {
		return d, err
	}
	if err := s.repo.Create(ctx, d); err != nil {
		return d, err
	}
	return d, nil
}

// Update edits an unlocked domain. Changing the name or the keys clears
// the verification.
func (s *Service) Update(ctx context.Context, customerID int64, uid string, in Input) (*domain.SendingDomain, error) {
	d, err := s.repo.Get(ctx, customerID, uid)
	if err != nil {
		return nil, err
	}
	if d.Locked {
		return d, ErrLocked
	}
	name, pub := d.Name, d.DKIMPublicKey
	if err := s.apply(d, in); err != nil {
		return d, err
	}
	if d.Name != name || domain.StripPEM(d.DKIMPublicKey) != domain.StripPEM(pub) {
		d.Verified = false
	}
	if err := s.validate(ctx, d); err != nil {
		return d, err
	}
	if err := s.repo.Update(ctx, d); err != nil {
		return d, err
	}
	return d, nil
}

// Delete removes an unlocked domain and, when it was verified, its
// registration with the sending provider.
func (s *Service) Delete(ctx context.Context, customerID int64, uid string) (*domain.SendingDomain, error) {
	d, err := s.repo.Get(ctx, customerID, uid)
	if err != nil {
		return nil, err
	}
	if d.Locked {
		return d, ErrLocked
	}
	if err := s.repo.Delete(ctx, customerID, uid); err != nil {
		return d, err
	}
	if d.Verified && s.registrar != nil {
		if err := s.registrar.Deregister(ctx, d.Name); err != nil {
			logger.Error("sending domain deregistration failed", "domain", d.Name, "error", err.Error())
		}
	}
	return d, nil
}

// Verify looks up the DKIM TXT record and marks the domain verified when it
// carries the domain's public key. ErrNotVerified is returned otherwise.
func (s *Service) Verify(ctx context.Context, customerID int64, uid string) (*domain.SendingDomain, error) {
	d, err := s.repo.Get(ctx, customerID, uid)
	if err != nil {
		return nil, err
	}

	records, err := s.resolver.LookupTXT(ctx, d.DKIMRecordName(s.opts.Selector))
	if err != nil {
		logger.Warn("dkim lookup failed", "domain", d.Name, "error", err.Error())
		return d, ErrNotVerified
	}
	if !hasKey(records, domain.StripPEM(d.DKIMPublicKey)) {
		return d, ErrNotVerified
	}

	if err := s.repo.MarkVerified(ctx, customerID, d.ID); err != nil {
		return d, err
	}
	d.Verified = true
	if s.registrar != nil && d.SigningEnabled {
		if err := s.registrar.Register(ctx, d, s.opts.Selector); err != nil {
			logger.Error("sending domain registration failed", "domain", d.Name, "error", err.Error())
		}
	}
	return d, nil
}

// hasKey reports whether one of the TXT values publishes key in its p= tag.
func hasKey(records []string, key string) bool {
	if key == "" {
		return false
	}
	for _, rec := range records {
		for _, tag := range strings.Split(rec, ";") {
			k, v, ok := strings.Cut(strings.TrimSpace(tag), "=")
			if !ok || strings.TrimSpace(k) != "p" {
				continue
			}
			v = strings.Join(strings.Fields(v), "")
			v = strings.ReplaceAll(v, `"`, "")
			if v == key {
				return true
			}
		}
	}
	return false
}

func (s *Service) apply(d *domain.SendingDomain, in Input) error {
	d.Name = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(in.Name)), ".")
	if in.SigningEnabled != nil {
		d.SigningEnabled = *in.SigningEnabled
	}

	priv, pub := strings.TrimSpace(in.DKIMPrivateKey), strings.TrimSpace(in.DKIMPublicKey)
	switch {
	case priv == "" && pub == "":
		if d.DKIMPrivateKey != "" {
			return nil
		}
		p, q, err := GenerateKeyPair(s.opts.KeyBits)
		if err != nil {
			return err
		}
		d.DKIMPrivateKey, d.DKIMPublicKey = p, q
	case priv != "" && pub == "":
		q, err := PublicFromPrivate(priv)
		if err != nil {
			v := &domain.ValidationError{}
			v.Add("dkim_private_key", "Dkim private key is invalid.")
			return v
		}
		d.DKIMPrivateKey, d.DKIMPublicKey = priv, q
	default:
		d.DKIMPrivateKey, d.DKIMPublicKey = priv, pub
	}
	return nil
}

func (s *Service) validate(ctx context.Context, d *domain.SendingDomain) error {
	if err := d.Validate(); err != nil {
		return err
	}
	v := &domain.ValidationError{}
	if s.blocked(d.Name) {
		v.Add("name", "This domain name is not allowed.")
		return v
	}
	taken, err := s.repo.NameTaken(ctx, d.Name, d.ID)
	if err != nil {
		return err
	}
	if taken {
		v.Add("name", "Domain name has already been taken.")
	}
	return v.Err()
}

func (s *Service) blocked(name string) bool {
	for _, b := range s.opts.Blocked {
		b = strings.ToLower(strings.TrimSpace(b))
		if b == "" {
			continue
		}
		if name == b || strings.HasSuffix(name, "."+b) {
			return true
		}
	}
	return false
}

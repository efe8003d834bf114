package dashboard

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/hooks"
	"github.com/ignite/customer-console/internal/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// Glance holds the record counters of a customer.
type Glance struct {
	Campaigns        int `json:"campaigns"`
	Lists            int `json:"lists"`
	Subscribers      int `json:"subscribers"`
	Segments         int `json:"segments"`
	CampaignGroups   int `json:"campaign_groups"`
	SendingDomains   int `json:"sending_domains"`
	SuppressionLists int `json:"suppression_lists"`
}

// GrowthPoint is the number of subscribers added on one day.
type GrowthPoint struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

// Overview is every widget in one payload.
type Overview struct {
	Glance    *Glance               `json:"glance"`
	Timeline  []domain.ActionLog    `json:"timeline"`
	Campaigns []domain.Campaign     `json:"campaigns"`
	Growth    []GrowthPoint         `json:"subscribers_growth"`
	Favorites []domain.FavoritePage `json:"favorites"`
}

// Options sizes the widgets.
type Options struct {
	CacheTTL       time.Duration
	TimelineLimit  int
	CampaignsLimit int
	GrowthDays     int
	FavoritesLimit int
}

// Service assembles dashboard widgets.
type Service struct {
	repo      Repository
	favorites Favorites
	cache     *redis.Client
	opts      Options
	now       func() time.Time
}

// NewService creates a dashboard service. cache may be nil.
func NewService(repo Repository, favorites Favorites, cache *redis.Client, opts Options) *Service {
	if opts.TimelineLimit <= 0 {
		opts.TimelineLimit = 20
	}
	if opts.CampaignsLimit <= 0 {
		opts.CampaignsLimit = 10
	}
	if opts.GrowthDays <= 0 {
		opts.GrowthDays = 14
	}
	if opts.FavoritesLimit <= 0 {
		opts.FavoritesLimit = 10
	}
	return &Service{repo: repo, favorites: favorites, cache: cache, opts: opts, now: time.Now}
}

func glanceKey(customerID int64) string { return fmt.Sprintf("dashboard:glance:%d", customerID) }

// Glance returns the counters, from cache when possible.
func (s *Service) Glance(ctx context.Context, customerID int64) (*Glance, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, glanceKey(customerID)).Bytes(); err == nil {
			var g Glance
			if json.Unmarshal(raw, &g) == nil {
				return &g, nil
			}
		}
	}
	g, err := s.repo.Glance(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("load glance: %w", err)
	}
	if s.cache != nil && s.opts.CacheTTL > 0 {
		if raw, err := json.Marshal(g); err == nil {
			if err := s.cache.Set(ctx, glanceKey(customerID), raw, s.opts.CacheTTL).Err(); err != nil {
				logger.Warn("dashboard cache write failed", "customer_id", customerID, "error", err)
			}
		}
	}
	return g, nil
}

// Invalidate drops the cached counters of a customer.
func (s *Service) Invalidate(ctx context.Context, customerID int64) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, glanceKey(customerID)).Err(); err != nil {
		logger.Warn("dashboard cache invalidation failed", "customer_id", customerID, "error", err)
	}
}

// Timeline returns the latest action logs.
func (s *Service) Timeline(ctx context.Context, customerID int64) ([]domain.ActionLog, error) {
	return s.repo.ActionLogs(ctx, customerID, s.opts.TimelineLimit)
}

// Campaigns returns the latest campaigns.
func (s *Service) Campaigns(ctx context.Context, customerID int64) ([]domain.Campaign, error) {
	return s.repo.LatestCampaigns(ctx, customerID, s.opts.CampaignsLimit)
}

// Growth returns one point per day for the last days days, oldest first,
// including days without new subscribers. days <= 0 uses the default.
func (s *Service) Growth(ctx context.Context, customerID int64, days int) ([]GrowthPoint, error) {
	if days <= 0 {
		days = s.opts.GrowthDays
	}
	days = min(days, 366)
	today := s.now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))

	counts, err := s.repo.SubscriberGrowth(ctx, customerID, since)
	if err != nil {
		return nil, fmt.Errorf("load growth: %w", err)
	}
	out := make([]GrowthPoint, 0, days)
	for d := since; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format("2006-01-02")
		out = append(out, GrowthPoint{Date: key, Count: counts[key]})
	}
	return out, nil
}

// Favorites returns the most clicked favorite pages.
func (s *Service) Favorites(ctx context.Context, customerID int64) ([]domain.FavoritePage, error) {
	return s.favorites.Top(ctx, customerID, s.opts.FavoritesLimit)
}

// All returns every widget.
func (s *Service) All(ctx context.Context, customerID int64) (*Overview, error) {
	var (
		o   Overview
		err error
	)
	if o.Glance, err = s.Glance(ctx, customerID); err != nil {
		return nil, err
	}
	if o.Timeline, err = s.Timeline(ctx, customerID); err != nil {
		return nil, err
	}
	if o.Campaigns, err = s.Campaigns(ctx, customerID); err != nil {
		return nil, err
	}
	if o.Growth, err = s.Growth(ctx, customerID, 0); err != nil {
		return nil, err
	}
	if o.Favorites, err = s.Favorites(ctx, customerID); err != nil {
		return nil, err
	}
	return &o, nil
}

// Listener records successful saves and deletes on the timeline and drops
// the cached counters. Register it with hooks.Any.
func (s *Service) Listener() hooks.Listener {
	return func(ctx context.Context, e hooks.Event) {
		if !e.Success || e.CustomerID == 0 {
			return
		}
		if e.Name != hooks.AfterSave && e.Name != hooks.AfterDelete {
			return
		}
		s.Invalidate(ctx, e.CustomerID)

		ref, label := describe(e.Model)
		entry := &domain.ActionLog{
			CustomerID:  e.CustomerID,
			Category:    e.Controller,
			ReferenceID: ref,
			Message:     message(e, label),
			DateAdded:   s.now().UTC(),
		}
		if err := s.repo.CreateActionLog(ctx, entry); err != nil {
			logger.Error("action log write failed", "customer_id", e.CustomerID, "controller", e.Controller, "error", err)
		}
	}
}

func describe(model any) (ref, label string) {
	switch m := model.(type) {
	case *domain.CampaignGroup:
		return m.UID, m.Name
	case *domain.Server:
		return m.UID, m.Hostname
	case *domain.CustomerIPBlacklist:
		return fmt.Sprint(m.ID), m.IPAddress
	case *domain.FavoritePage:
		return m.UID, m.Label
	case *domain.SendingDomain:
		return m.UID, m.Name
	case *domain.SuppressionList:
		return m.UID, m.Name
	case *domain.SuppressionListEmail:
		return m.UID, logger.RedactEmail(m.Email)
	case *domain.Segment:
		return m.UID, m.Name
	case *domain.ListPage:
		return m.Type, m.Name
	}
	return "", ""
}

var pastTense = map[string]string{
	"create":  "created",
	"update":  "updated",
	"copy":    "copied",
	"enable":  "enabled",
	"disable": "disabled",
	"verify":  "verified",
	"import":  "imported",
}

func message(e hooks.Event, label string) string {
	subject := strings.ReplaceAll(e.Controller, "_", " ")
	verb, ok := pastTense[e.Action]
	switch {
	case e.Name == hooks.AfterDelete:
		verb = "deleted"
	case !ok:
		verb = "updated"
	}
	if label == "" {
		return fmt.Sprintf("%s %s", subject, verb)
	}
	return fmt.Sprintf("%s %q %s", subject, label, verb)
}

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/ignite/customer-console/internal/auth"
	"github.com/ignite/customer-console/internal/config"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/httputil"
)

// SetupRoutes configures the console routes. Everything under
// /api/customer requires a customer identity; /health and /metrics do not.
func SetupRoutes(cfg config.ServerConfig, h *Handlers, authManager *auth.Manager, health *HealthChecker) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if h.metrics != nil {
		r.Use(h.metrics.Middleware)
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if health != nil {
		r.Get("/health", health.HandleHealth)
		r.Get("/health/ready", health.HandleReadiness)
	}
	if h.metrics != nil {
		r.Handle("/metrics", h.metrics.Handler())
	}

	r.Route(basePath, func(r chi.Router) {
		r.Use(authManager.RequireAuth)

		r.Get("/notifications", h.Notifications)

		if h.svc.Dashboard != nil {
			r.Route("/dashboard", h.dashboardRoutes)
		}
		if h.svc.Favorites != nil {
			r.Route("/favorite-pages", h.favoritePageRoutes)
		}
		if h.svc.CampaignGroups != nil {
			r.With(auth.RequirePermission(domain.PermCampaigns)).Route("/campaign-groups", h.campaignGroupRoutes)
		}
		if h.svc.Servers != nil {
			r.With(auth.RequirePermission(domain.PermServers)).Route("/servers", func(r chi.Router) {
				r.Route("/email-box-monitors", h.serverRoutes(domain.KindEmailBoxMonitor))
				r.Route("/feedback-loop", h.serverRoutes(domain.KindFeedbackLoop))
			})
		}
		if h.svc.Blacklist != nil {
			r.With(auth.RequirePermission(domain.PermBlacklists)).Route("/ip-blacklist", h.ipBlacklistRoutes)
		}
		if h.svc.SendingDomains != nil {
			r.With(auth.RequirePermission(domain.PermDomains)).Route("/sending-domains", h.sendingDomainRoutes)
		}
		if h.svc.Suppression != nil {
			r.With(auth.RequirePermission(domain.PermLists)).Route("/suppression-lists", h.suppressionRoutes)
		}

		r.With(auth.RequirePermission(domain.PermLists)).Route("/lists/{list_uid}", func(r chi.Router) {
			if h.svc.ListPages != nil {
				r.Get("/pages", h.ListPages)
				r.Get("/pages/{type}", h.GetListPage)
				r.Put("/pages/{type}", h.UpdateListPage)
				r.Get("/pages/{type}/preview", h.PreviewListPage)
				r.Get("/forms", h.ListForms)
			}
			if h.svc.Segments != nil {
				r.Route("/segments", h.listSegmentRoutes)
			}
			if h.svc.SubscriberCopy != nil {
				r.Post("/tools/copy-subscribers", h.CopySubscribers)
			}
		})

		if h.svc.Segments != nil {
			r.With(auth.RequirePermission(domain.PermSurveys)).Route("/surveys/{survey_uid}/segments", func(r chi.Router) {
				r.Get("/", h.ListSurveySegments)
				r.Get("/{segment_uid}/export", h.ExportSurveySegment)
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		httputil.NotFound(w, "The requested page does not exist.")
	})
	return r
}

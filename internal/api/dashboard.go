package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/customer-console/internal/pkg/httputil"
)

func (h *Handlers) dashboardRoutes(r chi.Router) {
	r.Get("/", h.Dashboard)
	r.Get("/glance", h.DashboardGlance)
	r.Get("/timeline", h.DashboardTimeline)
	r.Get("/campaigns", h.DashboardCampaigns)
	r.Get("/subscribers-growth", h.DashboardGrowth)
	r.Get("/favorites", h.DashboardFavorites)
}

// Dashboard handles GET /dashboard, every widget in one payload.
func (h *Handlers) Dashboard(w http.ResponseWriter, r *http.Request) {
	o, err := h.svc.Dashboard.All(r.Context(), customerID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, o)
}

// DashboardGlance handles GET /dashboard/glance.
func (h *Handlers) DashboardGlance(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.Dashboard.Glance(r.Context(), customerID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, g)
}

// DashboardTimeline handles GET /dashboard/timeline.
func (h *Handlers) DashboardTimeline(w http.ResponseWriter, r *http.Request) {
	logs, err := h.svc.Dashboard.Timeline(r.Context(), customerID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, logs)
}

// DashboardCampaigns handles GET /dashboard/campaigns.
func (h *Handlers) DashboardCampaigns(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Dashboard.Campaigns(r.Context(), customerID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, rows)
}

// DashboardGrowth handles GET /dashboard/subscribers-growth?days=N.
func (h *Handlers) DashboardGrowth(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	points, err := h.svc.Dashboard.Growth(r.Context(), customerID(r), days)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, points)
}

// DashboardFavorites handles GET /dashboard/favorites.
func (h *Handlers) DashboardFavorites(w http.ResponseWriter, r *http.Request) {
	rows, err := h.svc.Dashboard.Favorites(r.Context(), customerID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, rows)
}

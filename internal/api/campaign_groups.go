package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/customer-console/internal/pkg/hooks"
	"github.com/ignite/customer-console/internal/pkg/httputil"
	"github.com/ignite/customer-console/internal/service/campaigngroup"
)

const ctrlCampaignGroups = "campaign_groups"

func (h *Handlers) campaignGroupRoutes(r chi.Router) {
	r.Get("/", h.ListCampaignGroups)
	r.Post("/", h.CreateCampaignGroup)
	r.Post("/bulk-action", h.BulkCampaignGroups)
	r.Get("/{group_uid}", h.GetCampaignGroup)
	r.Put("/{group_uid}", h.UpdateCampaignGroup)
	r.Delete("/{group_uid}", h.DeleteCampaignGroup)
}

// ListCampaignGroups handles GET /campaign-groups.
func (h *Handlers) ListCampaignGroups(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)
	rows, total, err := h.svc.CampaignGroups.List(r.Context(), customerID(r), campaigngroup.ListFilter{
		Name:   r.URL.Query().Get("name"),
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, NewPaginatedResponse(rows, p, total))
}

// GetCampaignGroup handles GET /campaign-groups/{group_uid}.
func (h *Handlers) GetCampaignGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.CampaignGroups.Get(r.Context(), customerID(r), chi.URLParam(r, "group_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, g)
}

// CreateCampaignGroup handles POST /campaign-groups.
func (h *Handlers) CreateCampaignGroup(w http.ResponseWriter, r *http.Request) {
	var in campaigngroup.Input
	if err := bind(r, "CampaignGroup", &in); err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	g, err := h.svc.CampaignGroups.Create(r.Context(), customerID(r), in)
	h.fire(r, hooks.AfterSave, ctrlCampaignGroups, "create", err == nil, g)
	if err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	h.saved(w, r, http.StatusCreated, g, urlFor("/campaign-groups"))
}

// UpdateCampaignGroup handles PUT /campaign-groups/{group_uid}.
func (h *Handlers) UpdateCampaignGroup(w http.ResponseWriter, r *http.Request) {
	var in campaigngroup.Input
	if err := bind(r, "CampaignGroup", &in); err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	g, err := h.svc.CampaignGroups.Update(r.Context(), customerID(r), chi.URLParam(r, "group_uid"), in)
	if errors.Is(err, campaigngroup.ErrNotFound) {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterSave, ctrlCampaignGroups, "update", err == nil, g)
	if err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	h.saved(w, r, http.StatusOK, g, urlFor("/campaign-groups"))
}

// DeleteCampaignGroup handles DELETE /campaign-groups/{group_uid}. The
// campaigns of the group are kept and detached.
func (h *Handlers) DeleteCampaignGroup(w http.ResponseWriter, r *http.Request) {
	g, err := h.svc.CampaignGroups.Delete(r.Context(), customerID(r), chi.URLParam(r, "group_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterDelete, ctrlCampaignGroups, "delete", true, g)
	h.done(w, r, "Your item has been successfully deleted!", urlFor("/campaign-groups"))
}

// BulkCampaignGroups handles POST /campaign-groups/bulk-action.
func (h *Handlers) BulkCampaignGroups(w http.ResponseWriter, r *http.Request) {
	req, err := bindBulk(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.Action != "delete" {
		httputil.BadRequest(w, "Invalid bulk action")
		return
	}
	n := 0
	for _, uid := range req.Items {
		g, err := h.svc.CampaignGroups.Delete(r.Context(), customerID(r), uid)
		if errors.Is(err, campaigngroup.ErrNotFound) {
			continue
		}
		if err != nil {
			respondError(w, r, err)
			return
		}
		h.fire(r, hooks.AfterDelete, ctrlCampaignGroups, "delete", true, g)
		n++
	}
	h.done(w, r, fmt.Sprintf("Bulk action completed successfully, %d items deleted.", n), urlFor("/campaign-groups"))
}

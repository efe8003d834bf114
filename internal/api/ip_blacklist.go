package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/hooks"
	"github.com/ignite/customer-console/internal/pkg/httputil"
	"github.com/ignite/customer-console/internal/service/blacklist"
)

const ctrlIPBlacklist = "ip_blacklist"

func (h *Handlers) ipBlacklistRoutes(r chi.Router) {
	r.Get("/", h.ListIPBlacklist)
	r.Post("/", h.CreateIPBlacklist)
	r.Post("/bulk-action", h.BulkIPBlacklist)
	r.Post("/delete-all", h.DeleteAllIPBlacklist)
	r.Get("/export", h.ExportIPBlacklist)
	r.Post("/import", h.ImportIPBlacklist)
	r.Delete("/{ip_id}", h.DeleteIPBlacklist)
}

// ListIPBlacklist handles GET /ip-blacklist.
func (h *Handlers) ListIPBlacklist(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)
	rows, total, err := h.svc.Blacklist.List(r.Context(), customerID(r), blacklist.ListFilter{
		IPAddress: r.URL.Query().Get("ip_address"),
		Limit:     p.Limit,
		Offset:    p.Offset,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, NewPaginatedResponse(rows, p, total))
}

// CreateIPBlacklist handles POST /ip-blacklist.
func (h *Handlers) CreateIPBlacklist(w http.ResponseWriter, r *http.Request) {
	var in blacklist.Input
	if err := bind(r, "CustomerIpBlacklist", &in); err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	b, err := h.svc.Blacklist.Create(r.Context(), customerID(r), in)
	h.fire(r, hooks.AfterSave, ctrlIPBlacklist, "create", err == nil, b)
	if err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	h.saved(w, r, http.StatusCreated, b, urlFor("/ip-blacklist"))
}

// DeleteIPBlacklist handles DELETE /ip-blacklist/{ip_id}.
func (h *Handlers) DeleteIPBlacklist(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "ip_id"), 10, 64)
	if err != nil {
		httputil.NotFound(w, "The requested page does not exist.")
		return
	}
	b, err := h.svc.Blacklist.Delete(r.Context(), customerID(r), id)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterDelete, ctrlIPBlacklist, "delete", true, b)
	h.done(w, r, "Your item has been successfully deleted!", urlFor("/ip-blacklist"))
}

// BulkIPBlacklist handles POST /ip-blacklist/bulk-action.
func (h *Handlers) BulkIPBlacklist(w http.ResponseWriter, r *http.Request) {
	req, err := bindBulk(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.Action != "delete" {
		httputil.BadRequest(w, "Invalid bulk action")
		return
	}
	ids := make([]int64, 0, len(req.Items))
	for _, item := range req.Items {
		if id, err := strconv.ParseInt(item, 10, 64); err == nil {
			ids = append(ids, id)
		}
	}
	n, err := h.svc.Blacklist.DeleteMany(r.Context(), customerID(r), ids)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if n > 0 {
		h.fire(r, hooks.AfterDelete, ctrlIPBlacklist, "delete", true, nil)
	}
	h.done(w, r, fmt.Sprintf("Bulk action completed successfully, %d items deleted.", n), urlFor("/ip-blacklist"))
}

// DeleteAllIPBlacklist handles POST /ip-blacklist/delete-all.
func (h *Handlers) DeleteAllIPBlacklist(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Blacklist.DeleteAll(r.Context(), customerID(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterDelete, ctrlIPBlacklist, "delete-all", true, nil)
	h.done(w, r, fmt.Sprintf("Your items have been successfully deleted (%d).", n), urlFor("/ip-blacklist"))
}

// ExportIPBlacklist handles GET /ip-blacklist/export.
func (h *Handlers) ExportIPBlacklist(w http.ResponseWriter, r *http.Request) {
	seq := h.svc.Blacklist.Export(r.Context(), customerID(r), h.opts.ExportBatchSize)
	exportCSV(h, w, r, ctrlIPBlacklist, "ip-blacklist", seq, domain.CustomerIPBlacklist{})
}

// ImportIPBlacklist handles POST /ip-blacklist/import with a CSV "file".
func (h *Handlers) ImportIPBlacklist(w http.ResponseWriter, r *http.Request) {
	f, _, err := h.upload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer f.Close()

	res, err := h.svc.Blacklist.Import(r.Context(), customerID(r), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if res.TotalImported > 0 {
		h.fire(r, hooks.AfterSave, ctrlIPBlacklist, "import", true, nil)
	}
	h.imported(w, r, ctrlIPBlacklist, res)
}

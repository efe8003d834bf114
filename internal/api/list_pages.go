package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/customer-console/internal/pkg/hooks"
	"github.com/ignite/customer-console/internal/pkg/httputil"
	"github.com/ignite/customer-console/internal/service/listpage"
)

const ctrlListPages = "list_page"

// ListPages handles GET /lists/{list_uid}/pages.
func (h *Handlers) ListPages(w http.ResponseWriter, r *http.Request) {
	pages, err := h.svc.ListPages.Pages(r.Context(), customerID(r), chi.URLParam(r, "list_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, map[string]any{"pages": pages, "types": listpage.Types()})
}

// GetListPage handles GET /lists/{list_uid}/pages/{type}.
func (h *Handlers) GetListPage(w http.ResponseWriter, r *http.Request) {
	p, t, err := h.svc.ListPages.Page(r.Context(), customerID(r), chi.URLParam(r, "list_uid"), chi.URLParam(r, "type"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, map[string]any{"page": p, "type": t})
}

// UpdateListPage handles PUT /lists/{list_uid}/pages/{type}. Empty content
// restores the default page.
func (h *Handlers) UpdateListPage(w http.ResponseWriter, r *http.Request) {
	listUID, pageType := chi.URLParam(r, "list_uid"), chi.URLParam(r, "type")
	var in listpage.Input
	if err := bind(r, "ListPage", &in); err != nil && !errors.Is(err, errEmptyBody) {
		h.mutationFailed(w, r, err)
		return
	}
	p, err := h.svc.ListPages.Update(r.Context(), customerID(r), listUID, pageType, in)
	if errors.Is(err, listpage.ErrListNotFound) || errors.Is(err, listpage.ErrUnknownType) {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterSave, ctrlListPages, "update", err == nil, p)
	if err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	h.saved(w, r, http.StatusOK, p, urlFor("/lists/%s/pages/%s", listUID, pageType))
}

// PreviewListPage handles GET /lists/{list_uid}/pages/{type}/preview. An
// optional content query parameter is rendered instead of the saved page.
func (h *Handlers) PreviewListPage(w http.ResponseWriter, r *http.Request) {
	html, err := h.svc.ListPages.Preview(r.Context(), customerID(r),
		chi.URLParam(r, "list_uid"), chi.URLParam(r, "type"), r.URL.Query().Get("content"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if httputil.IsAjax(r) {
		httputil.OK(w, map[string]string{"html": html})
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

// ListForms handles GET /lists/{list_uid}/forms.
func (h *Handlers) ListForms(w http.ResponseWriter, r *http.Request) {
	forms, err := h.svc.ListPages.Forms(r.Context(), customerID(r), chi.URLParam(r, "list_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, forms)
}

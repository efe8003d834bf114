package api

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/customer-console/internal/pkg/hooks"
	"github.com/ignite/customer-console/internal/pkg/httputil"
	"github.com/ignite/customer-console/internal/service/favorite"
)

const ctrlFavoritePages = "favorite_pages"

func (h *Handlers) favoritePageRoutes(r chi.Router) {
	r.Get("/", h.ListFavoritePages)
	r.Post("/", h.ToggleFavoritePage)
	r.Post("/bulk-action", h.BulkFavoritePages)
	r.Delete("/{page_uid}", h.DeleteFavoritePage)
	r.Get("/{page_uid}/click", h.ClickFavoritePage)
}

// ListFavoritePages handles GET /favorite-pages, most clicked first.
func (h *Handlers) ListFavoritePages(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)
	rows, total, err := h.svc.Favorites.List(r.Context(), customerID(r), favorite.ListFilter{
		Label:  r.URL.Query().Get("label"),
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, NewPaginatedResponse(rows, p, total))
}

// ToggleFavoritePage handles POST /favorite-pages. Posting a route that is
// already a favorite removes it.
func (h *Handlers) ToggleFavoritePage(w http.ResponseWriter, r *http.Request) {
	var in favorite.Input
	if err := bind(r, "FavoritePage", &in); err != nil {
		respondError(w, r, err)
		return
	}
	p, action, err := h.svc.Favorites.Toggle(r.Context(), customerID(r), in)
	if err != nil {
		h.fire(r, hooks.AfterSave, ctrlFavoritePages, "create", false, p)
		respondError(w, r, err)
		return
	}
	if action == favorite.Removed {
		h.fire(r, hooks.AfterDelete, ctrlFavoritePages, "delete", true, p)
	} else {
		h.fire(r, hooks.AfterSave, ctrlFavoritePages, "create", true, p)
	}
	httputil.JSON(w, http.StatusOK, map[string]any{"result": "success", "action": action, "page": p})
}

// DeleteFavoritePage handles DELETE /favorite-pages/{page_uid}.
func (h *Handlers) DeleteFavoritePage(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Favorites.Delete(r.Context(), customerID(r), chi.URLParam(r, "page_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterDelete, ctrlFavoritePages, "delete", true, p)
	h.done(w, r, "Your item has been successfully deleted!", urlFor("/favorite-pages"))
}

// BulkFavoritePages handles POST /favorite-pages/bulk-action.
func (h *Handlers) BulkFavoritePages(w http.ResponseWriter, r *http.Request) {
	req, err := bindBulk(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.Action != "delete" {
		httputil.BadRequest(w, "Invalid bulk action")
		return
	}
	n, err := h.svc.Favorites.DeleteMany(r.Context(), customerID(r), req.Items)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if n > 0 {
		h.fire(r, hooks.AfterDelete, ctrlFavoritePages, "delete", true, nil)
	}
	h.done(w, r, fmt.Sprintf("Bulk action completed successfully, %d items deleted.", n), urlFor("/favorite-pages"))
}

// ClickFavoritePage handles GET /favorite-pages/{page_uid}/click: it counts
// the visit and redirects to the saved route.
func (h *Handlers) ClickFavoritePage(w http.ResponseWriter, r *http.Request) {
	route, err := h.svc.Favorites.Click(r.Context(), customerID(r), chi.URLParam(r, "page_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if httputil.IsAjax(r) {
		httputil.OK(w, map[string]string{"route": route})
		return
	}
	http.Redirect(w, r, route, http.StatusFound)
}

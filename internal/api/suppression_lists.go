package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/hooks"
	"github.com/ignite/customer-console/internal/pkg/httputil"
	"github.com/ignite/customer-console/internal/service/suppression"
)

const (
	ctrlSuppressionLists  = "suppression_lists"
	ctrlSuppressionEmails = "suppression_list_emails"
)

func (h *Handlers) suppressionRoutes(r chi.Router) {
	r.Get("/", h.ListSuppressionLists)
	r.Post("/", h.CreateSuppressionList)
	r.Route("/{list_uid}", func(r chi.Router) {
		r.Get("/", h.GetSuppressionList)
		r.Put("/", h.UpdateSuppressionList)
		r.Delete("/", h.DeleteSuppressionList)
		r.Get("/imports", h.SuppressionImports)
		r.Route("/emails", func(r chi.Router) {
			r.Get("/", h.ListSuppressionEmails)
			r.Post("/", h.CreateSuppressionEmail)
			r.Post("/bulk-action", h.BulkSuppressionEmails)
			r.Post("/delete-all", h.DeleteAllSuppressionEmails)
			r.Get("/export", h.ExportSuppressionEmails)
			r.Post("/import", h.ImportSuppressionEmails)
			r.Post("/import-queue", h.QueueSuppressionImport)
			r.Put("/{email_uid}", h.UpdateSuppressionEmail)
			r.Delete("/{email_uid}", h.DeleteSuppressionEmail)
		})
	})
}

func emailsURL(listUID string) string { return urlFor("/suppression-lists/%s/emails", listUID) }

// ListSuppressionLists handles GET /suppression-lists.
func (h *Handlers) ListSuppressionLists(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)
	rows, total, err := h.svc.Suppression.Lists(r.Context(), customerID(r), suppression.ListFilter{
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

// GetSuppressionList handles GET /suppression-lists/{list_uid}.
func (h *Handlers) GetSuppressionList(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Suppression.GetList(r.Context(), customerID(r), chi.URLParam(r, "list_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, l)
}

// CreateSuppressionList handles POST /suppression-lists.
func (h *Handlers) CreateSuppressionList(w http.ResponseWriter, r *http.Request) {
	var in suppression.ListInput
	if err := bind(r, "CustomerSuppressionList", &in); err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	l, err := h.svc.Suppression.CreateList(r.Context(), customerID(r), in)
	h.fire(r, hooks.AfterSave, ctrlSuppressionLists, "create", err == nil, l)
	if err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	h.saved(w, r, http.StatusCreated, l, urlFor("/suppression-lists"))
}

// UpdateSuppressionList handles PUT /suppression-lists/{list_uid}.
func (h *Handlers) UpdateSuppressionList(w http.ResponseWriter, r *http.Request) {
	var in suppression.ListInput
	if err := bind(r, "CustomerSuppressionList", &in); err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	l, err := h.svc.Suppression.UpdateList(r.Context(), customerID(r), chi.URLParam(r, "list_uid"), in)
	if errors.Is(err, suppression.ErrNotFound) {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterSave, ctrlSuppressionLists, "update", err == nil, l)
	if err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	h.saved(w, r, http.StatusOK, l, urlFor("/suppression-lists"))
}

// DeleteSuppressionList handles DELETE /suppression-lists/{list_uid}; the
// list's emails go with it.
func (h *Handlers) DeleteSuppressionList(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Suppression.DeleteList(r.Context(), customerID(r), chi.URLParam(r, "list_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterDelete, ctrlSuppressionLists, "delete", true, l)
	h.done(w, r, "Your item has been successfully deleted!", urlFor("/suppression-lists"))
}

// ListSuppressionEmails handles GET /suppression-lists/{list_uid}/emails.
func (h *Handlers) ListSuppressionEmails(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)
	rows, total, err := h.svc.Suppression.Emails(r.Context(), customerID(r), chi.URLParam(r, "list_uid"), suppression.EmailFilter{
		Email:  r.URL.Query().Get("email"),
		Limit:  p.Limit,
		Offset: p.Offset,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, NewPaginatedResponse(rows, p, total))
}

// CreateSuppressionEmail handles POST /suppression-lists/{list_uid}/emails.
func (h *Handlers) CreateSuppressionEmail(w http.ResponseWriter, r *http.Request) {
	listUID := chi.URLParam(r, "list_uid")
	var in suppression.EmailInput
	if err := bind(r, "CustomerSuppressionListEmail", &in); err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	e, err := h.svc.Suppression.CreateEmail(r.Context(), customerID(r), listUID, in)
	if errors.Is(err, suppression.ErrNotFound) {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterSave, ctrlSuppressionEmails, "create", err == nil, e)
	if err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	h.saved(w, r, http.StatusCreated, e, emailsURL(listUID))
}

// UpdateSuppressionEmail handles PUT /suppression-lists/{list_uid}/emails/{email_uid}.
func (h *Handlers) UpdateSuppressionEmail(w http.ResponseWriter, r *http.Request) {
	listUID := chi.URLParam(r, "list_uid")
	var in suppression.EmailInput
	if err := bind(r, "CustomerSuppressionListEmail", &in); err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	e, err := h.svc.Suppression.UpdateEmail(r.Context(), customerID(r), listUID, chi.URLParam(r, "email_uid"), in)
	if errors.Is(err, suppression.ErrNotFound) || errors.Is(err, suppression.ErrEmailNotFound) {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterSave, ctrlSuppressionEmails, "update", err == nil, e)
	if err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	h.saved(w, r, http.StatusOK, e, emailsURL(listUID))
}

// DeleteSuppressionEmail handles DELETE /suppression-lists/{list_uid}/emails/{email_uid}.
func (h *Handlers) DeleteSuppressionEmail(w http.ResponseWriter, r *http.Request) {
	listUID := chi.URLParam(r, "list_uid")
	e, err := h.svc.Suppression.DeleteEmail(r.Context(), customerID(r), listUID, chi.URLParam(r, "email_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterDelete, ctrlSuppressionEmails, "delete", true, e)
	h.done(w, r, "Your item has been successfully deleted!", emailsURL(listUID))
}

// BulkSuppressionEmails handles POST /suppression-lists/{list_uid}/emails/bulk-action.
func (h *Handlers) BulkSuppressionEmails(w http.ResponseWriter, r *http.Request) {
	listUID := chi.URLParam(r, "list_uid")
	req, err := bindBulk(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if req.Action != "delete" {
		httputil.BadRequest(w, "Invalid bulk action")
		return
	}
	n, err := h.svc.Suppression.DeleteEmails(r.Context(), customerID(r), listUID, req.Items)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if n > 0 {
		h.fire(r, hooks.AfterDelete, ctrlSuppressionEmails, "delete", true, nil)
	}
	h.done(w, r, fmt.Sprintf("Bulk action completed successfully, %d items deleted.", n), emailsURL(listUID))
}

// DeleteAllSuppressionEmails handles POST /suppression-lists/{list_uid}/emails/delete-all.
func (h *Handlers) DeleteAllSuppressionEmails(w http.ResponseWriter, r *http.Request) {
	listUID := chi.URLParam(r, "list_uid")
	n, err := h.svc.Suppression.DeleteAllEmails(r.Context(), customerID(r), listUID)
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterDelete, ctrlSuppressionEmails, "delete-all", true, nil)
	h.done(w, r, fmt.Sprintf("Your items have been successfully deleted (%d).", n), emailsURL(listUID))
}

// ExportSuppressionEmails handles GET /suppression-lists/{list_uid}/emails/export.
func (h *Handlers) ExportSuppressionEmails(w http.ResponseWriter, r *http.Request) {
	l, err := h.svc.Suppression.GetList(r.Context(), customerID(r), chi.URLParam(r, "list_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	seq := h.svc.Suppression.Export(r.Context(), customerID(r), l.UID, h.opts.ExportBatchSize)
	exportCSV(h, w, r, ctrlSuppressionEmails, "suppression-list-"+l.UID, seq, domain.SuppressionListEmail{})
}

// ImportSuppressionEmails handles POST /suppression-lists/{list_uid}/emails/import.
func (h *Handlers) ImportSuppressionEmails(w http.ResponseWriter, r *http.Request) {
	f, _, err := h.upload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer f.Close()

	res, err := h.svc.Suppression.Import(r.Context(), customerID(r), chi.URLParam(r, "list_uid"), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if res.TotalImported > 0 {
		h.fire(r, hooks.AfterSave, ctrlSuppressionEmails, "import", true, nil)
	}
	h.imported(w, r, ctrlSuppressionEmails, res)
}

// QueueSuppressionImport handles POST /suppression-lists/{list_uid}/emails/import-queue.
// The file is processed later by the suppression-import command.
func (h *Handlers) QueueSuppressionImport(w http.ResponseWriter, r *http.Request) {
	f, name, err := h.upload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer f.Close()

	job, err := h.svc.Suppression.QueueImport(r.Context(), customerID(r), chi.URLParam(r, "list_uid"), name, f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.Success(w, http.StatusAccepted, "Your file has been queued for import.", job)
}

// SuppressionImports handles GET /suppression-lists/{list_uid}/imports.
func (h *Handlers) SuppressionImports(w http.ResponseWriter, r *http.Request) {
	jobs, err := h.svc.Suppression.Imports(r.Context(), customerID(r), chi.URLParam(r, "list_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, jobs)
}

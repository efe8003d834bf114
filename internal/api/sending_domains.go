package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/hooks"
	"github.com/ignite/customer-console/internal/pkg/httputil"
	"github.com/ignite/customer-console/internal/service/sendingdomain"
)

const ctrlSendingDomains = "sending_domains"

func (h *Handlers) sendingDomainRoutes(r chi.Router) {
	r.Get("/", h.ListSendingDomains)
	r.Post("/", h.CreateSendingDomain)
	r.Get("/{domain_uid}", h.GetSendingDomain)
	r.Put("/{domain_uid}", h.UpdateSendingDomain)
	r.Delete("/{domain_uid}", h.DeleteSendingDomain)
	r.Post("/{domain_uid}/verify", h.VerifySendingDomain)
}

// sendingDomainView adds the DNS records to publish.
type sendingDomainView struct {
	*domain.SendingDomain
	DNSRecords []domain.DNSRecord `json:"dns_records"`
}

func (h *Handlers) domainView(d *domain.SendingDomain) sendingDomainView {
	return sendingDomainView{SendingDomain: d, DNSRecords: h.svc.SendingDomains.Records(d)}
}

// ListSendingDomains handles GET /sending-domains?name=&verified=yes|no.
func (h *Handlers) ListSendingDomains(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)
	f := sendingdomain.ListFilter{Name: r.URL.Query().Get("name"), Limit: p.Limit, Offset: p.Offset}
	switch r.URL.Query().Get("verified") {
	case "yes":
		v := true
		f.Verified = &v
	case "no":
		v := false
		f.Verified = &v
	}
	rows, total, err := h.svc.SendingDomains.List(r.Context(), customerID(r), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	views := make([]sendingDomainView, 0, len(rows))
	for i := range rows {
		views = append(views, h.domainView(&rows[i]))
	}
	httputil.OK(w, NewPaginatedResponse(views, p, total))
}

// GetSendingDomain handles GET /sending-domains/{domain_uid}.
func (h *Handlers) GetSendingDomain(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.SendingDomains.Get(r.Context(), customerID(r), chi.URLParam(r, "domain_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, h.domainView(d))
}

// CreateSendingDomain handles POST /sending-domains.
func (h *Handlers) CreateSendingDomain(w http.ResponseWriter, r *http.Request) {
	var in sendingdomain.Input
	if err := bind(r, "SendingDomain", &in); err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	d, err := h.svc.SendingDomains.Create(r.Context(), customerID(r), in)
	h.fire(r, hooks.AfterSave, ctrlSendingDomains, "create", err == nil, d)
	if err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	h.saved(w, r, http.StatusCreated, h.domainView(d), urlFor("/sending-domains/%s", d.UID))
}

// UpdateSendingDomain handles PUT /sending-domains/{domain_uid}.
func (h *Handlers) UpdateSendingDomain(w http.ResponseWriter, r *http.Request) {
	var in sendingdomain.Input
	if err := bind(r, "SendingDomain", &in); err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	d, err := h.svc.SendingDomains.Update(r.Context(), customerID(r), chi.URLParam(r, "domain_uid"), in)
	if errors.Is(err, sendingdomain.ErrNotFound) || errors.Is(err, sendingdomain.ErrLocked) {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterSave, ctrlSendingDomains, "update", err == nil, d)
	if err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	h.saved(w, r, http.StatusOK, h.domainView(d), urlFor("/sending-domains/%s", d.UID))
}

// DeleteSendingDomain handles DELETE /sending-domains/{domain_uid}.
func (h *Handlers) DeleteSendingDomain(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.SendingDomains.Delete(r.Context(), customerID(r), chi.URLParam(r, "domain_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterDelete, ctrlSendingDomains, "delete", true, d)
	h.done(w, r, "Your item has been successfully deleted!", urlFor("/sending-domains"))
}

// VerifySendingDomain handles POST /sending-domains/{domain_uid}/verify.
func (h *Handlers) VerifySendingDomain(w http.ResponseWriter, r *http.Request) {
	d, err := h.svc.SendingDomains.Verify(r.Context(), customerID(r), chi.URLParam(r, "domain_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterSave, ctrlSendingDomains, "verify", true, d)
	if httputil.IsAjax(r) {
		httputil.Success(w, http.StatusOK, "Your domain has been successfully verified.", h.domainView(d))
		return
	}
	h.done(w, r, "Your domain has been successfully verified.", urlFor("/sending-domains/%s", d.UID))
}

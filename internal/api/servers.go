package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/hooks"
	"github.com/ignite/customer-console/internal/pkg/httputil"
	"github.com/ignite/customer-console/internal/service/quota"
	"github.com/ignite/customer-console/internal/service/server"
)

// serverHandlers serves one server kind.
type serverHandlers struct {
	*Handlers
	kind       domain.ServerKind
	controller string
	model      string
	slug       string
}

func (h *Handlers) serverRoutes(kind domain.ServerKind) func(chi.Router) {
	s := &serverHandlers{Handlers: h, kind: kind}
	switch kind {
	case domain.KindFeedbackLoop:
		s.controller, s.model, s.slug = "feedback_loop_servers", "FeedbackLoopServer", "feedback-loop"
	default:
		s.controller, s.model, s.slug = "email_box_monitors", "EmailBoxMonitor", "email-box-monitors"
	}
	return func(r chi.Router) {
		r.Get("/", s.list)
		r.Post("/", s.create)
		r.Get("/export", s.export)
		r.Post("/import", s.importCSV)
		r.Post("/bulk-action", s.bulk)
		r.Get("/{server_uid}", s.get)
		r.Put("/{server_uid}", s.update)
		r.Delete("/{server_uid}", s.delete)
		r.Post("/{server_uid}/copy", s.copy)
		r.Post("/{server_uid}/enable", s.enable)
		r.Post("/{server_uid}/disable", s.disable)
	}
}

func (s *serverHandlers) index() string { return urlFor("/servers/%s", s.slug) }

func (s *serverHandlers) list(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)
	q := r.URL.Query()
	rows, total, err := s.svc.Servers.List(r.Context(), s.kind, customerID(r), server.ListFilter{
		Hostname: q.Get("hostname"),
		Username: q.Get("username"),
		Email:    q.Get("email"),
		Status:   q.Get("status"),
		Limit:    p.Limit,
		Offset:   p.Offset,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, NewPaginatedResponse(rows, p, total))
}

func (s *serverHandlers) get(w http.ResponseWriter, r *http.Request) {
	srv, err := s.svc.Servers.Get(r.Context(), s.kind, customerID(r), chi.URLParam(r, "server_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, srv)
}

func (s *serverHandlers) create(w http.ResponseWriter, r *http.Request) {
	var in server.Input
	if err := bind(r, s.model, &in); err != nil {
		s.mutationFailed(w, r, err)
		return
	}
	srv, err := s.svc.Servers.Create(r.Context(), s.kind, customerID(r), in)
	s.fire(r, hooks.AfterSave, s.controller, "create", err == nil, srv)
	if err != nil {
		s.mutationFailed(w, r, err)
		return
	}
	s.saved(w, r, http.StatusCreated, srv, s.index())
}

func (s *serverHandlers) update(w http.ResponseWriter, r *http.Request) {
	var in server.Input
	if err := bind(r, s.model, &in); err != nil {
		s.mutationFailed(w, r, err)
		return
	}
	srv, err := s.svc.Servers.Update(r.Context(), s.kind, customerID(r), chi.URLParam(r, "server_uid"), in)
	if errors.Is(err, server.ErrNotFound) {
		respondError(w, r, err)
		return
	}
	s.fire(r, hooks.AfterSave, s.controller, "update", err == nil, srv)
	if err != nil {
		s.mutationFailed(w, r, err)
		return
	}
	s.saved(w, r, http.StatusOK, srv, s.index())
}

func (s *serverHandlers) delete(w http.ResponseWriter, r *http.Request) {
	srv, err := s.svc.Servers.Delete(r.Context(), s.kind, customerID(r), chi.URLParam(r, "server_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.fire(r, hooks.AfterDelete, s.controller, "delete", true, srv)
	s.done(w, r, "Your item has been successfully deleted!", s.index())
}

func (s *serverHandlers) copy(w http.ResponseWriter, r *http.Request) {
	srv, err := s.svc.Servers.Copy(r.Context(), s.kind, customerID(r), chi.URLParam(r, "server_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.fire(r, hooks.AfterSave, s.controller, "copy", true, srv)
	s.done(w, r, "Your server has been successfully copied!", s.index())
}

func (s *serverHandlers) enable(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, "enable", s.svc.Servers.Enable)
}

func (s *serverHandlers) disable(w http.ResponseWriter, r *http.Request) {
	s.toggle(w, r, "disable", s.svc.Servers.Disable)
}

type serverAction func(ctx context.Context, kind domain.ServerKind, customerID int64, uid string) (*domain.Server, error)

func (s *serverHandlers) toggle(w http.ResponseWriter, r *http.Request, action string, fn serverAction) {
	srv, err := fn(r.Context(), s.kind, customerID(r), chi.URLParam(r, "server_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.fire(r, hooks.AfterSave, s.controller, action, true, srv)
	s.done(w, r, fmt.Sprintf("The server has been successfully %sd!", action), s.index())
}

func (s *serverHandlers) export(w http.ResponseWriter, r *http.Request) {
	seq := s.svc.Servers.Export(r.Context(), s.kind, customerID(r), s.opts.ExportBatchSize)
	exportCSV(s.Handlers, w, r, s.controller, s.slug, seq, domain.Server{})
}

// importCSV creates inactive servers from an uploaded CSV "file".
func (s *serverHandlers) importCSV(w http.ResponseWriter, r *http.Request) {
	f, _, err := s.upload(w, r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	defer f.Close()

	res, err := s.svc.Servers.Import(r.Context(), s.kind, customerID(r), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if res.TotalImported > 0 {
		s.fire(r, hooks.AfterSave, s.controller, "import", true, nil)
	}
	s.imported(w, r, s.controller, res)
}

// bulk applies delete, enable, disable or copy to the posted uids. Locked
// and missing servers are skipped; reaching the quota while copying stops
// the run and reports what was done so far.
func (s *serverHandlers) bulk(w http.ResponseWriter, r *http.Request) {
	req, err := bindBulk(r)
	if err != nil {
		respondError(w, r, err)
		return
	}
	var (
		fn   serverAction
		name = hooks.AfterSave
	)
	switch req.Action {
	case "delete":
		fn, name = s.svc.Servers.Delete, hooks.AfterDelete
	case "enable":
		fn = s.svc.Servers.Enable
	case "disable":
		fn = s.svc.Servers.Disable
	case "copy":
		fn = s.svc.Servers.Copy
	default:
		httputil.BadRequest(w, "Invalid bulk action")
		return
	}

	n := 0
	for _, uid := range req.Items {
		srv, err := fn(r.Context(), s.kind, customerID(r), uid)
		if errors.Is(err, server.ErrNotFound) || errors.Is(err, server.ErrLocked) {
			continue
		}
		if errors.Is(err, quota.ErrReached) {
			s.done(w, r, fmt.Sprintf("Bulk action stopped at the server quota, %d items affected.", n), s.index())
			return
		}
		var verr *domain.ValidationError
		if errors.As(err, &verr) {
			continue
		}
		if err != nil {
			respondError(w, r, err)
			return
		}
		s.fire(r, name, s.controller, req.Action, true, srv)
		n++
	}
	s.done(w, r, fmt.Sprintf("Bulk action completed successfully, %d items affected.", n), s.index())
}

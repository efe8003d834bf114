package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/customer-console/internal/pkg/hooks"
	"github.com/ignite/customer-console/internal/pkg/httputil"
	"github.com/ignite/customer-console/internal/service/segment"
)

const (
	ctrlListSegments   = "list_segments"
	ctrlSurveySegments = "survey_segments"
)

func (h *Handlers) listSegmentRoutes(r chi.Router) {
	r.Get("/", h.ListSegments)
	r.Post("/", h.CreateSegment)
	r.Get("/{segment_uid}", h.GetSegment)
	r.Put("/{segment_uid}", h.UpdateSegment)
	r.Delete("/{segment_uid}", h.DeleteSegment)
	r.Post("/{segment_uid}/copy", h.CopySegment)
	r.Get("/{segment_uid}/count", h.CountSegment)
	r.Get("/{segment_uid}/export", h.ExportSegment)
}

func segmentsURL(listUID string) string { return urlFor("/lists/%s/segments", listUID) }

// ListSegments handles GET /lists/{list_uid}/segments.
func (h *Handlers) ListSegments(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)
	rows, total, err := h.svc.Segments.List(r.Context(), customerID(r), chi.URLParam(r, "list_uid"), segment.ListFilter{
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

// GetSegment handles GET /lists/{list_uid}/segments/{segment_uid}.
func (h *Handlers) GetSegment(w http.ResponseWriter, r *http.Request) {
	seg, err := h.svc.Segments.Get(r.Context(), customerID(r), chi.URLParam(r, "list_uid"), chi.URLParam(r, "segment_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, seg)
}

// CreateSegment handles POST /lists/{list_uid}/segments.
func (h *Handlers) CreateSegment(w http.ResponseWriter, r *http.Request) {
	listUID := chi.URLParam(r, "list_uid")
	var in segment.Input
	if err := bind(r, "ListSegment", &in); err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	seg, err := h.svc.Segments.Create(r.Context(), customerID(r), listUID, in)
	if errors.Is(err, segment.ErrListNotFound) {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterSave, ctrlListSegments, "create", err == nil, seg)
	if err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	h.saved(w, r, http.StatusCreated, seg, segmentsURL(listUID))
}

// UpdateSegment handles PUT /lists/{list_uid}/segments/{segment_uid}. The
// posted conditions replace the stored ones.
func (h *Handlers) UpdateSegment(w http.ResponseWriter, r *http.Request) {
	listUID := chi.URLParam(r, "list_uid")
	var in segment.Input
	if err := bind(r, "ListSegment", &in); err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	seg, err := h.svc.Segments.Update(r.Context(), customerID(r), listUID, chi.URLParam(r, "segment_uid"), in)
	if errors.Is(err, segment.ErrListNotFound) || errors.Is(err, segment.ErrNotFound) {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterSave, ctrlListSegments, "update", err == nil, seg)
	if err != nil {
		h.mutationFailed(w, r, err)
		return
	}
	h.saved(w, r, http.StatusOK, seg, segmentsURL(listUID))
}

// DeleteSegment handles DELETE /lists/{list_uid}/segments/{segment_uid}.
func (h *Handlers) DeleteSegment(w http.ResponseWriter, r *http.Request) {
	listUID := chi.URLParam(r, "list_uid")
	seg, err := h.svc.Segments.Delete(r.Context(), customerID(r), listUID, chi.URLParam(r, "segment_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterDelete, ctrlListSegments, "delete", true, seg)
	h.done(w, r, "Your item has been successfully deleted!", segmentsURL(listUID))
}

// CopySegment handles POST /lists/{list_uid}/segments/{segment_uid}/copy.
func (h *Handlers) CopySegment(w http.ResponseWriter, r *http.Request) {
	listUID := chi.URLParam(r, "list_uid")
	seg, err := h.svc.Segments.Copy(r.Context(), customerID(r), listUID, chi.URLParam(r, "segment_uid"))
	if err != nil {
		respondError(w, r, err)
		return
	}
	h.fire(r, hooks.AfterSave, ctrlListSegments, "copy", true, seg)
	if httputil.IsAjax(r) {
		httputil.Success(w, http.StatusCreated, "Your segment has been successfully copied!", seg)
		return
	}
	h.done(w, r, "Your segment has been successfully copied!", segmentsURL(listUID))
}

// CountSegment handles GET /lists/{list_uid}/segments/{segment_uid}/count.
func (h *Handlers) CountSegment(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.Segments.Count(r.Context(), customerID(r),
		chi.URLParam(r, "list_uid"), chi.URLParam(r, "segment_uid"), h.opts.ExportBatchSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	httputil.OK(w, map[string]int{"count": n})
}

// ExportSegment handles GET /lists/{list_uid}/segments/{segment_uid}/export.
func (h *Handlers) ExportSegment(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "segment_uid")
	empty, seq, err := h.svc.Segments.Subscribers(r.Context(), customerID(r), chi.URLParam(r, "list_uid"), uid, h.opts.ExportBatchSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	exportCSV(h, w, r, ctrlListSegments, "segment-"+uid, seq, empty)
}

// ListSurveySegments handles GET /surveys/{survey_uid}/segments.
func (h *Handlers) ListSurveySegments(w http.ResponseWriter, r *http.Request) {
	p := pageParams(r)
	rows, total, err := h.svc.Segments.SurveySegments(r.Context(), customerID(r), chi.URLParam(r, "survey_uid"), segment.ListFilter{
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

// ExportSurveySegment handles GET /surveys/{survey_uid}/segments/{segment_uid}/export.
func (h *Handlers) ExportSurveySegment(w http.ResponseWriter, r *http.Request) {
	uid := chi.URLParam(r, "segment_uid")
	empty, seq, err := h.svc.Segments.Responders(r.Context(), customerID(r), chi.URLParam(r, "survey_uid"), uid, h.opts.ExportBatchSize)
	if err != nil {
		respondError(w, r, err)
		return
	}
	exportCSV(h, w, r, ctrlSurveySegments, "survey-segment-"+uid, seq, empty)
}

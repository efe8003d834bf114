package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/customer-console/internal/pkg/httputil"
	"github.com/ignite/customer-console/internal/service/subscribercopy"
)

// CopySubscribers handles POST /lists/{list_uid}/tools/copy-subscribers.
// The client posts page 1 and keeps posting next_page until finished.
func (h *Handlers) CopySubscribers(w http.ResponseWriter, r *http.Request) {
	var req subscribercopy.Request
	if err := bind(r, "CopyListSubscribers", &req); err != nil {
		copyFailed(w, r, err)
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	res, err := h.svc.SubscriberCopy.Step(r.Context(), customerID(r), chi.URLParam(r, "list_uid"), req)
	if err != nil {
		copyFailed(w, r, err)
		return
	}
	if h.metrics != nil && res.BatchCopied > 0 {
		h.metrics.CopiedRows.Add(float64(res.BatchCopied))
	}
	httputil.JSON(w, http.StatusOK, res)
}

// copyFailed answers with the {result, message} body the copy loop reads.
func copyFailed(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, subscribercopy.ErrListNotFound):
		status = http.StatusNotFound
	case errors.Is(err, subscribercopy.ErrBusy):
		status = http.StatusConflict
	case errors.Is(err, subscribercopy.ErrSameList), errors.Is(err, errBadInput), errors.Is(err, errEmptyBody):
	default:
		respondSafeError(w, r, http.StatusInternalServerError, err)
		return
	}
	httputil.JSON(w, status, subscribercopy.Result{Result: subscribercopy.ResultError, Message: userMessage(err)})
}

package api

import (
	"net/http"

	"github.com/ignite/customer-console/internal/pkg/flash"
	"github.com/ignite/customer-console/internal/pkg/httputil"
)

// Notifications handles GET /notifications. Messages are removed once read.
func (h *Handlers) Notifications(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.flash.Pop(r.Context(), flashOwner(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	if msgs == nil {
		msgs = []flash.Message{}
	}
	httputil.OK(w, msgs)
}

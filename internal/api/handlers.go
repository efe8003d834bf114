package api

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/ignite/customer-console/internal/auth"
	"github.com/ignite/customer-console/internal/metrics"
	"github.com/ignite/customer-console/internal/pkg/csvio"
	"github.com/ignite/customer-console/internal/pkg/flash"
	"github.com/ignite/customer-console/internal/pkg/hooks"
	"github.com/ignite/customer-console/internal/pkg/httputil"
	"github.com/ignite/customer-console/internal/pkg/logger"
	"github.com/ignite/customer-console/internal/service/blacklist"
	"github.com/ignite/customer-console/internal/service/campaigngroup"
	"github.com/ignite/customer-console/internal/service/dashboard"
	"github.com/ignite/customer-console/internal/service/favorite"
	"github.com/ignite/customer-console/internal/service/listpage"
	"github.com/ignite/customer-console/internal/service/segment"
	"github.com/ignite/customer-console/internal/service/sendingdomain"
	"github.com/ignite/customer-console/internal/service/server"
	"github.com/ignite/customer-console/internal/service/subscribercopy"
	"github.com/ignite/customer-console/internal/service/suppression"
)

// basePath prefixes every customer route.
const basePath = "/api/customer"

var errBadUpload = errors.New("please upload a valid CSV file")

// Services groups the domain services the handlers call. A nil service
// leaves its routes unmounted.
type Services struct {
	CampaignGroups *campaigngroup.Service
	Dashboard      *dashboard.Service
	Servers        *server.Service
	Blacklist      *blacklist.Service
	Favorites      *favorite.Service
	SendingDomains *sendingdomain.Service
	Suppression    *suppression.Service
	ListPages      *listpage.Service
	Segments       *segment.Service
	SubscriberCopy *subscribercopy.Service
}

// Options tunes handler behavior.
type Options struct {
	ExportBatchSize int
	MaxUploadBytes  int64
}

// Handlers implements the customer console endpoints.
type Handlers struct {
	svc     Services
	hooks   *hooks.Bus
	flash   flash.Store
	metrics *metrics.Metrics
	opts    Options
	now     func() time.Time
}

// NewHandlers wires the handlers. hooks, flash and metrics may be nil.
func NewHandlers(svc Services, bus *hooks.Bus, notes flash.Store, m *metrics.Metrics, opts Options) *Handlers {
	if bus == nil {
		bus = hooks.New()
	}
	if notes == nil {
		notes = flash.NewMemoryStore()
	}
	if opts.ExportBatchSize <= 0 {
		opts.ExportBatchSize = 500
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 50 << 20
	}
	return &Handlers{svc: svc, hooks: bus, flash: notes, metrics: m, opts: opts, now: time.Now}
}

func customerID(r *http.Request) int64 {
	if id := auth.FromContext(r.Context()); id != nil {
		return id.CustomerID
	}
	return 0
}

func flashOwner(r *http.Request) string {
	if id := auth.FromContext(r.Context()); id != nil {
		return id.CustomerUID
	}
	return ""
}

// fire delivers a controller event to the hook bus.
func (h *Handlers) fire(r *http.Request, name, controller, action string, success bool, model any) {
	h.hooks.Fire(r.Context(), hooks.Event{
		Name:       name,
		Controller: controller,
		Action:     action,
		Success:    success,
		CustomerID: customerID(r),
		Model:      model,
	})
}

func (h *Handlers) notify(ctx context.Context, r *http.Request, level flash.Level, text string) {
	if err := h.flash.Add(ctx, flashOwner(r), flash.Message{Level: level, Text: text}); err != nil {
		logger.Warn("flash write failed", "path", r.URL.Path, "error", err)
	}
}

// saved answers a successful create or update: JSON for ajax clients,
// otherwise a flash message and a redirect.
func (h *Handlers) saved(w http.ResponseWriter, r *http.Request, status int, data any, redirect string) {
	const msg = "Your form has been successfully saved!"
	if httputil.IsAjax(r) {
		httputil.Success(w, status, msg, data)
		return
	}
	h.notify(r.Context(), r, flash.Success, msg)
	httputil.Redirect(w, r, redirect)
}

// done answers a successful delete or state change with the {result,
// message} body ajax callers expect.
func (h *Handlers) done(w http.ResponseWriter, r *http.Request, msg, redirect string) {
	if httputil.IsAjax(r) {
		httputil.JSON(w, http.StatusOK, map[string]string{"result": "success", "message": msg})
		return
	}
	h.notify(r.Context(), r, flash.Success, msg)
	httputil.Redirect(w, r, redirect)
}

// mutationFailed answers a failed create or update after firing the hook.
func (h *Handlers) mutationFailed(w http.ResponseWriter, r *http.Request, err error) {
	if !httputil.IsAjax(r) && !errors.Is(err, errEmptyBody) {
		h.notify(r.Context(), r, flash.Error, formErrorMessage)
	}
	respondError(w, r, err)
}

// exportCSV streams seq as a download named <base>-<date>.csv. Once the
// first byte is written the status cannot change, so a failure mid-stream
// is logged with the number of rows already sent.
func exportCSV[T csvio.Record](h *Handlers, w http.ResponseWriter, r *http.Request, kind, base string, seq iter.Seq2[T, error], empty T) {
	name := fmt.Sprintf("%s-%s.csv", base, h.now().Format("2006-01-02"))
	httputil.Attachment(w, name, "text/csv")
	rows, err := csvio.WriteAllWith(w, seq, empty)
	if h.metrics != nil {
		h.metrics.Exported(kind, rows)
	}
	if err != nil {
		logger.Error("csv export failed", "kind", kind, "customer_id", customerID(r), "rows", rows, "error", err)
	}
}

// upload returns the posted CSV file.
func (h *Handlers) upload(w http.ResponseWriter, r *http.Request) (multipart.File, string, error) {
	r.Body = http.MaxBytesReader(w, r.Body, h.opts.MaxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		return nil, "", fmt.Errorf("%w: %v", errBadUpload, err)
	}
	f, hdr, err := r.FormFile("file")
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", errBadUpload, err)
	}
	return f, hdr.Filename, nil
}

// imported answers a finished CSV import.
func (h *Handlers) imported(w http.ResponseWriter, r *http.Request, kind string, res csvio.Result) {
	if h.metrics != nil {
		h.metrics.Imported(kind, res.TotalImported, res.Failed())
	}
	msg := fmt.Sprintf("Import finished: %d of %d records imported.", res.TotalImported, res.TotalRecords)
	if res.TotalRecords > 0 && res.TotalImported == 0 {
		httputil.JSON(w, http.StatusOK, httputil.Envelope{Status: httputil.StatusError, Message: msg, Data: res})
		return
	}
	httputil.Success(w, http.StatusOK, msg, res)
}

func urlFor(format string, args ...any) string {
	return basePath + fmt.Sprintf(format, args...)
}

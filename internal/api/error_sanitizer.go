package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ignite/customer-console/internal/domain"
	"github.com/ignite/customer-console/internal/pkg/csvio"
	"github.com/ignite/customer-console/internal/pkg/httputil"
	"github.com/ignite/customer-console/internal/pkg/logger"
	"github.com/ignite/customer-console/internal/service/blacklist"
	"github.com/ignite/customer-console/internal/service/campaigngroup"
	"github.com/ignite/customer-console/internal/service/favorite"
	"github.com/ignite/customer-console/internal/service/listpage"
	"github.com/ignite/customer-console/internal/service/quota"
	"github.com/ignite/customer-console/internal/service/segment"
	"github.com/ignite/customer-console/internal/service/sendingdomain"
	"github.com/ignite/customer-console/internal/service/server"
	"github.com/ignite/customer-console/internal/service/subscribercopy"
	"github.com/ignite/customer-console/internal/service/suppression"
)

// formErrorMessage is the form-level message of a 422.
const formErrorMessage = "Your form has a few errors, please fix them and try again!"

var notFoundErrors = []error{
	campaigngroup.ErrNotFound,
	server.ErrNotFound,
	blacklist.ErrNotFound,
	favorite.ErrNotFound,
	sendingdomain.ErrNotFound,
	suppression.ErrNotFound,
	suppression.ErrEmailNotFound,
	listpage.ErrUnknownType,
	segment.ErrNotFound,
	segment.ErrSurveyNotFound,
	domain.ErrListNotFound,
}

var conflictErrors = []error{
	server.ErrLocked,
	sendingdomain.ErrLocked,
	blacklist.ErrDuplicate,
	subscribercopy.ErrBusy,
}

var badRequestErrors = []error{
	csvio.ErrMissingColumn,
	csvio.ErrEmptyFile,
	errEmptyBody,
	errBadInput,
	errBadUpload,
	subscribercopy.ErrSameList,
}

func isAny(err error, targets []error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}

// respondError maps a service error onto the response. Validation and
// client errors carry their message; 5xx details are only logged.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.Invalid(w, formErrorMessage, verr.Fields)
	case isAny(err, notFoundErrors):
		httputil.NotFound(w, "The requested page does not exist.")
	case isAny(err, conflictErrors):
		httputil.Conflict(w, userMessage(err))
	case errors.Is(err, quota.ErrReached):
		httputil.Forbidden(w, "You have reached the maximum number of allowed items.")
	case errors.Is(err, sendingdomain.ErrNotVerified):
		httputil.Error(w, http.StatusUnprocessableEntity, userMessage(err))
	case isAny(err, badRequestErrors):
		httputil.BadRequest(w, userMessage(err))
	default:
		respondSafeError(w, r, http.StatusInternalServerError, err)
	}
}

// userMessage capitalizes a sentinel message for display.
func userMessage(err error) string {
	msg := err.Error()
	if msg == "" {
		return msg
	}
	return strings.ToUpper(msg[:1]) + msg[1:]
}

// respondSafeError logs the internal error and sends a sanitized message.
func respondSafeError(w http.ResponseWriter, r *http.Request, code int, internalErr error) {
	logger.Error("request failed",
		"method", r.Method,
		"path", r.URL.Path,
		"status", code,
		"error", internalErr,
	)
	httputil.Error(w, code, safeErrorMessage(code, internalErr))
}

// safeErrorMessage maps common internal error patterns to public-safe messages.
// For 400-level errors, the original message is typically fine (user input issues).
// For 500-level errors, this returns a generic safe message.
func safeErrorMessage(code int, internalErr error) string {
	if code < 500 {
		if internalErr != nil {
			return internalErr.Error()
		}
		return "Bad request"
	}

	if internalErr == nil {
		return "An internal error occurred"
	}

	errStr := strings.ToLower(internalErr.Error())

	switch {
	case strings.Contains(errStr, "connection refused") ||
		strings.Contains(errStr, "connection reset") ||
		strings.Contains(errStr, "no such host") ||
		strings.Contains(errStr, "dial tcp"):
		return "Service temporarily unavailable"

	case strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded") ||
		strings.Contains(errStr, "context canceled"):
		return "Request timed out"

	case strings.Contains(errStr, "sql") ||
		strings.Contains(errStr, "pq:") ||
		strings.Contains(errStr, "query") ||
		strings.Contains(errStr, "scan") ||
		strings.Contains(errStr, "transaction") ||
		strings.Contains(errStr, "database"):
		return "A database error occurred"

	default:
		return "An internal error occurred"
	}
}

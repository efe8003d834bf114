package segment

import (
	"errors"

	"github.com/ignite/customer-console/internal/domain"
)

// Sentinel errors for the segment service layer.
var (
	ErrNotFound       = errors.New("segment not found")
	ErrListNotFound   = domain.ErrListNotFound
	ErrSurveyNotFound = errors.New("survey not found")
)

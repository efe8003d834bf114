package subscribercopy

import (
	"errors"

	"github.com/ignite/customer-console/internal/domain"
)

// Sentinel errors for the subscriber copy service.
var (
	ErrListNotFound = domain.ErrListNotFound
	ErrSameList     = errors.New("cannot copy a list into itself")
	ErrBusy         = errors.New("another copy into this list is running, please retry")
)

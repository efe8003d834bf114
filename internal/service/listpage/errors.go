package listpage

import (
	"errors"

	"github.com/ignite/customer-console/internal/domain"
)

// Sentinel errors for the list page service layer.
var (
	ErrListNotFound = domain.ErrListNotFound
	ErrUnknownType  = errors.New("unknown page type")
	ErrNotFound     = errors.New("page not customized")
)

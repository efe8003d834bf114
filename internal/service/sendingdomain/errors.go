package sendingdomain

import "errors"

// Sentinel errors for the sending domain service layer.
var (
	ErrNotFound    = errors.New("sending domain not found")
	ErrLocked      = errors.New("sending domain is locked and cannot be changed")
	ErrNotVerified = errors.New("the DKIM record could not be found in the domain DNS")
)

package blacklist

import "errors"

// Sentinel errors for the blacklist service layer.
var (
	ErrNotFound  = errors.New("ip address not found")
	ErrDuplicate = errors.New("ip address already blacklisted")
)

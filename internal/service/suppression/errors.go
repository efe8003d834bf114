package suppression

import "errors"

// Sentinel errors for the suppression service layer.
var (
	ErrNotFound        = errors.New("suppression list not found")
	ErrEmailNotFound   = errors.New("suppression email not found")
	ErrNoPendingImport = errors.New("no pending import")
)

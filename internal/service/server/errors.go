package server

import "errors"

// Sentinel errors for the server service layer.
var (
	ErrNotFound = errors.New("server not found")
	ErrLocked   = errors.New("server is locked and cannot be changed")
)

package campaigngroup

import "errors"

// Sentinel errors for the campaign group service layer.
var (
	ErrNotFound = errors.New("campaign group not found")
)

package favorite

import "errors"

// ErrNotFound is returned when the page does not exist for the customer.
var ErrNotFound = errors.New("favorite page not found")

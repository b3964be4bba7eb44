package validator

import "errors"

// ErrClientNotFound is the sentinel a ClientLookup implementation returns
// when client_id has no registration. Any other error is treated as a
// backend failure (spec §7 BACKEND_ERROR).
var ErrClientNotFound = errors.New("validator: client not found")

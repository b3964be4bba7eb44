package validator

import "context"

// Client is a registered API client (spec.md §6 "clients" table), resolved
// right after Step 1 parses client_id and before Step 2, so a request's
// signature can be checked against its secret (SUPPLEMENTED FEATURE 1,
// "Client existence/active check").
type Client struct {
	ID     int
	Secret []byte
	Active bool
}

// ClientLookup resolves a client_id to its registration, an external
// collaborator the Validator does not implement itself.
type ClientLookup interface {
	Lookup(ctx context.Context, id int) (Client, error)
}

package counterstore

import "context"

// CounterStore is the C1 capability consumed by the Validator and Sync
// engine. Store (Postgres) is the production implementation; memstore.Store
// is an in-memory implementation used by tests.
type CounterStore interface {
	Get(ctx context.Context, publicName string, now int64) (Record, error)
	ConditionalUpdate(ctx context.Context, rec Record) (bool, error)
	ListActive(ctx context.Context, publicName string) ([]string, error)
}

var _ CounterStore = (*Store)(nil)

// Package tx defines the transaction management contract.
// Domain services depend on this interface; the pgx-backed implementation
// lives in infrastructure/storage/postgres.
package tx

import "context"

// Manager runs a function inside one atomic unit of work.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// The transaction is committed only if fn returns nil; any failure from
	// fn or from the commit itself rolls the whole unit back. The underlying
	// connection is released on every exit path.
	//
	// Nested calls do not open a second transaction: they reuse the active
	// one carried in ctx. Composition happens by passing ctx down.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

package service

import (
	"context"

	"github.com/mmynk/pantry/internal/storage"
)

// runInTx runs fn atomically when the store supports transactions and
// directly against the store otherwise.
func runInTx(ctx context.Context, store storage.Store, fn func(q storage.Queries) error) error {
	if txStore, ok := store.(storage.Transactor); ok {
		return txStore.RunInTx(ctx, fn)
	}
	return fn(store)
}

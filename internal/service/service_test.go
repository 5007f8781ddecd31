package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/mmynk/pantry/internal/models"
	"github.com/mmynk/pantry/internal/storage"
	"github.com/mmynk/pantry/internal/storage/sqlite"
)

var errInjected = errors.New("injected failure")

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *sqlite.SQLiteStore {
	t.Helper()

	tempDir, err := os.MkdirTemp("", "pantry-service-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(tempDir) })

	store, err := sqlite.New(filepath.Join(tempDir, "test.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store
}

func createUser(t *testing.T, store storage.Store, email string) string {
	t.Helper()
	user := models.NewUser(email, "Test User", "hash")
	if err := store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	return user.ID
}

func addProduct(t *testing.T, store storage.Store, userID, name string, categoryID *int64, quantity, desired int) *models.PantryItemDetail {
	t.Helper()
	svc := NewPantryService(store, testLogger())
	detail, err := svc.CreateProduct(context.Background(), userID, CreateProductInput{
		Name:            name,
		CategoryID:      categoryID,
		Quantity:        &quantity,
		DesiredQuantity: &desired,
	})
	if err != nil {
		t.Fatalf("CreateProduct(%s) failed: %v", name, err)
	}
	return detail
}

func countLists(t *testing.T, store storage.Store, userID string) int {
	t.Helper()
	_, total, err := store.ListShoppingLists(context.Background(), userID, 100, 0)
	if err != nil {
		t.Fatalf("ListShoppingLists failed: %v", err)
	}
	return total
}

func int64Ptr(v int64) *int64    { return &v }
func boolPtr(v bool) *bool       { return &v }
func intPtr(v int) *int          { return &v }
func stringPtr(v string) *string { return &v }

// nonTxStore hides RunInTx, forcing the compensating path. Item inserts
// always fail; deletes fail when failDelete is set.
type nonTxStore struct {
	storage.Store
	failDelete bool
}

func (s *nonTxStore) CreateShoppingListItems(context.Context, []models.ShoppingListItem) error {
	return errInjected
}

func (s *nonTxStore) DeleteShoppingList(ctx context.Context, userID, listID string) error {
	if s.failDelete {
		return errInjected
	}
	return s.Store.DeleteShoppingList(ctx, userID, listID)
}

// failingItemsTx runs real transactions whose item insert fails.
type failingItemsTx struct {
	*sqlite.SQLiteStore
}

func (s failingItemsTx) RunInTx(ctx context.Context, fn func(storage.Queries) error) error {
	return s.SQLiteStore.RunInTx(ctx, func(q storage.Queries) error {
		return fn(failingItemsQueries{q})
	})
}

type failingItemsQueries struct {
	storage.Queries
}

func (failingItemsQueries) CreateShoppingListItems(context.Context, []models.ShoppingListItem) error {
	return errInjected
}

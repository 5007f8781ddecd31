// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/pantry/internal/models"
)

var (
	// ErrNotFound is returned when a row does not exist or is not owned by
	// the requesting user.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a write violates a uniqueness constraint.
	ErrConflict = errors.New("already exists")

	// ErrInvalidReference is returned when a write references a row that
	// does not exist (for example an unknown category).
	ErrInvalidReference = errors.New("invalid reference")

	// ErrShortWrite is returned when a bulk insert affected fewer rows than
	// it was given.
	ErrShortWrite = errors.New("fewer rows written than requested")
)

// ProductUpdate holds the product fields to change; nil fields are kept.
type ProductUpdate struct {
	Name            *string
	CategoryID      *int64
	DesiredQuantity *int
}

// PantryFilter narrows ListPantryItems.
type PantryFilter struct {
	IncludeEmpty bool

	// CategoryID, when set, keeps only products in that category.
	CategoryID *int64
}

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail returns ErrNotFound when no user has the email.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// PantryStore persists categories, products and pantry items.
// Every method taking a userID only sees rows owned by that user.
type PantryStore interface {
	ListCategories(ctx context.Context) ([]models.Category, error)

	// CreateProduct inserts a product. Returns ErrConflict when the user
	// already has a product with the same name.
	CreateProduct(ctx context.Context, product *models.Product) error

	// CreatePantryItem inserts the pantry item tracking a product.
	CreatePantryItem(ctx context.Context, item *models.PantryItem) error

	// GetProduct returns a product with its category name and current
	// pantry quantity.
	GetProduct(ctx context.Context, userID, productID string) (*models.ProductDetail, error)

	// ListProducts returns one page of products ordered by name, and the
	// number of products matching the filter.
	ListProducts(ctx context.Context, userID string, categoryID *int64, limit, offset int) ([]models.ProductDetail, int, error)

	// UpdateProduct applies the non-nil fields of upd. Returns ErrConflict
	// on a duplicate name and ErrInvalidReference on an unknown category.
	UpdateProduct(ctx context.Context, userID, productID string, upd ProductUpdate) error

	ListPantryItems(ctx context.Context, userID string, filter PantryFilter) ([]models.PantryItemDetail, error)
	GetPantryItem(ctx context.Context, userID, itemID string) (*models.PantryItemDetail, error)
	UpdatePantryQuantity(ctx context.Context, userID, itemID string, quantity int) error
	SetPantryQuantityByProduct(ctx context.Context, userID, productID string, quantity int) error

	CountEmptyPantryItems(ctx context.Context, userID string) (int, error)

	// ListEmptyPantryItems returns every pantry item at quantity zero,
	// joined with its product and category.
	ListEmptyPantryItems(ctx context.Context, userID string) ([]models.EmptyPantryItem, error)
}

// ShoppingListStore persists shopping lists and their items.
type ShoppingListStore interface {
	// CreateShoppingList inserts the list row. ID and CreatedAt are
	// populated when unset.
	CreateShoppingList(ctx context.Context, list *models.ShoppingList) error

	// CreateShoppingListItems inserts all items with a single statement.
	// Returns ErrShortWrite when fewer rows than len(items) were written.
	CreateShoppingListItems(ctx context.Context, items []models.ShoppingListItem) error

	// DeleteShoppingList deletes a list and, by cascade, its items.
	DeleteShoppingList(ctx context.Context, userID, listID string) error

	GetShoppingList(ctx context.Context, userID, listID string) (*models.ShoppingListDetail, error)

	RenameShoppingList(ctx context.Context, userID, listID, name string) error

	// GetShoppingListByIdempotencyKey returns ErrNotFound when no list was
	// generated under the key.
	GetShoppingListByIdempotencyKey(ctx context.Context, userID, key string) (*models.ShoppingListDetail, error)

	// ListShoppingLists returns one page of summaries, newest first, and
	// the total number of lists the user owns.
	ListShoppingLists(ctx context.Context, userID string, limit, offset int) ([]models.ShoppingListSummary, int, error)

	// UpdateShoppingListItem applies the non-nil fields.
	UpdateShoppingListItem(ctx context.Context, userID, listID, itemID string, isChecked *bool, quantity *int) (*models.ShoppingListItemDetail, error)

	DeleteShoppingListItems(ctx context.Context, listID string, itemIDs []string) error
}

// Queries is the full set of data operations. It is implemented both by a
// store and by the transaction-scoped view a Transactor hands out.
type Queries interface {
	UserStore
	PantryStore
	ShoppingListStore
}

// Store defines the interface for pantry storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
type Store interface {
	Queries

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases any resources held by the store.
	Close() error
}

// Transactor is implemented by stores that can run several operations
// atomically. If fn returns an error, none of its writes persist.
type Transactor interface {
	RunInTx(ctx context.Context, fn func(tx Queries) error) error
}

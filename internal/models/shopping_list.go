package models

import "time"

// DefaultShoppingListName is used when a list is generated without a name.
const DefaultShoppingListName = "Shopping List"

// ShoppingList is a named set of products to buy.
// A list exclusively owns its items; deleting the list deletes them.
type ShoppingList struct {
	// ID is the unique identifier for the list (UUID format).
	ID string `json:"id"`

	// UserID is the owner of the list.
	UserID string `json:"user_id"`

	Name string `json:"name"`

	CreatedAt time.Time `json:"created_at"`

	// IdempotencyKey is the client-supplied key the list was generated
	// under, if any. Unique per user.
	IdempotencyKey string `json:"-"`
}

// ShoppingListItem is one product on a shopping list.
type ShoppingListItem struct {
	ID             string `json:"id"`
	ShoppingListID string `json:"shopping_list_id"`
	ProductID      string `json:"product_id"`

	// Quantity is the amount to buy, copied from the product's desired
	// quantity when the list is generated. Always at least 1.
	Quantity int `json:"quantity"`

	IsChecked bool `json:"is_checked"`
}

// ShoppingListItemDetail is an item enriched with product and category names.
type ShoppingListItemDetail struct {
	ShoppingListItem
	ProductName  string  `json:"product_name"`
	CategoryID   *int64  `json:"category_id"`
	CategoryName *string `json:"category_name"`
}

// ShoppingListDetail is a list together with all of its items.
type ShoppingListDetail struct {
	ShoppingList
	Items []ShoppingListItemDetail `json:"items"`
}

// ShoppingListSummary is a list with item counters, used for list views.
type ShoppingListSummary struct {
	ShoppingList
	ItemCount    int `json:"item_count"`
	CheckedCount int `json:"checked_count"`
}

// EmptyPantryItem is a snapshot row of a pantry item at quantity zero,
// joined with the product fields needed to put it on a shopping list.
type EmptyPantryItem struct {
	PantryItemID    string
	ProductID       string
	ProductName     string
	DesiredQuantity int
	CategoryID      *int64
	CategoryName    *string
}

// UpdatedProduct describes a pantry change made by completing a list.
type UpdatedProduct struct {
	ProductID   string `json:"product_id"`
	ProductName string `json:"product_name"`
	OldQuantity int    `json:"old_quantity"`
	NewQuantity int    `json:"new_quantity"`
}

// CompletionResult is the outcome of completing a shopping list.
type CompletionResult struct {
	UpdatedProducts []UpdatedProduct `json:"updated_products"`
	ListDeleted     bool             `json:"list_deleted"`
}

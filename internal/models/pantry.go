package models

import "time"

// MaxQuantity bounds every pantry, desired and shopping list quantity.
const MaxQuantity = 100000

// PantryItem links a user and a product to the current on-hand quantity.
// Quantity is never negative; a quantity of zero marks the item as empty.
type PantryItem struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	ProductID string    `json:"product_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsEmpty reports whether the item has run out.
func (p PantryItem) IsEmpty() bool {
	return p.Quantity == 0
}

// PantryItemDetail is a pantry item joined with its product and category.
type PantryItemDetail struct {
	PantryItem
	ProductName     string  `json:"product_name"`
	CategoryID      *int64  `json:"category_id"`
	CategoryName    *string `json:"category_name"`
	DesiredQuantity int     `json:"desired_quantity"`
}

// PantryCategoryGroup is the pantry view of one category. A nil CategoryID
// groups uncategorized products.
type PantryCategoryGroup struct {
	CategoryID   *int64             `json:"category_id"`
	CategoryName *string            `json:"category_name"`
	Items        []PantryItemDetail `json:"items"`
}

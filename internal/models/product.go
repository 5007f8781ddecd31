package models

import "time"

// Category groups products. Categories are seeded by the schema migrations.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// Product is something a user keeps in their pantry.
type Product struct {
	// ID is the unique identifier for the product (UUID format).
	ID string `json:"id"`

	// UserID is the owner of the product.
	UserID string `json:"user_id"`

	Name string `json:"name"`

	// CategoryID is optional; nil means uncategorized.
	CategoryID *int64 `json:"category_id"`

	// DesiredQuantity is the target stock level. Generated shopping list
	// items request exactly this amount.
	DesiredQuantity int `json:"desired_quantity"`

	CreatedAt time.Time `json:"created_at"`
}

// ProductDetail is a product with its category name and the quantity
// currently in the pantry.
type ProductDetail struct {
	Product
	CategoryName    *string `json:"category_name"`
	CurrentQuantity int     `json:"current_quantity"`
}

// Package models defines the core domain models for the pantry backend.
//
// # Models
//
//   - User: registered account that owns everything else
//   - Category: seeded product grouping (Dairy, Bakery, ...)
//   - Product: something the user keeps at home, with a desired stock level
//   - PantryItem: the current on-hand quantity of one product
//   - ShoppingList / ShoppingListItem: a generated list of products to buy
//
// Detail and summary types are read views assembled by the store or the
// services; they are what the HTTP layer serializes.
//
// # Design Principles
//
// 1. **Ownership by ID**: every row carries the owning user's ID and every
//    store query is scoped by it
// 2. **No pointer graphs**: relationships are expressed as ID strings
// 3. **Wire-ready**: JSON tags follow the snake_case wire format
package models

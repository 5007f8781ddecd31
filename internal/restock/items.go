// Package restock holds the pure rules that turn pantry state into shopping
// list items and shopping list items back into pantry quantities.
package restock

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/pantry/internal/models"
)

// BuildItems creates one unchecked shopping list item per empty pantry item.
// Each item requests the product's desired quantity.
func BuildItems(listID string, snapshot []models.EmptyPantryItem) []models.ShoppingListItem {
	items := make([]models.ShoppingListItem, len(snapshot))
	for i, empty := range snapshot {
		items[i] = models.ShoppingListItem{
			ID:             uuid.New().String(),
			ShoppingListID: listID,
			ProductID:      empty.ProductID,
			Quantity:       empty.DesiredQuantity,
			IsChecked:      false,
		}
	}
	return items
}

// Enrich attaches product and category names to created items.
// Items are matched to the snapshot by product ID, so the order in which the
// store returns either slice does not matter.
func Enrich(items []models.ShoppingListItem, snapshot []models.EmptyPantryItem) ([]models.ShoppingListItemDetail, error) {
	byProduct := make(map[string]models.EmptyPantryItem, len(snapshot))
	for _, empty := range snapshot {
		byProduct[empty.ProductID] = empty
	}

	details := make([]models.ShoppingListItemDetail, len(items))
	for i, item := range items {
		empty, ok := byProduct[item.ProductID]
		if !ok {
			return nil, fmt.Errorf("no pantry snapshot for product %s", item.ProductID)
		}
		details[i] = models.ShoppingListItemDetail{
			ShoppingListItem: item,
			ProductName:      empty.ProductName,
			CategoryID:       empty.CategoryID,
			CategoryName:     empty.CategoryName,
		}
	}
	return details, nil
}

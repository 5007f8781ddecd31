package restock

import (
	"fmt"
	"sort"

	"github.com/mmynk/pantry/internal/models"
)

// ErrQuantityLimit is returned when restocking would push a pantry item
// past models.MaxQuantity.
var ErrQuantityLimit = fmt.Errorf("quantity exceeds %d", models.MaxQuantity)

// CheckedTotals sums the quantities of checked items per product.
// Unchecked items are ignored. A total above models.MaxQuantity fails
// with ErrQuantityLimit.
func CheckedTotals(items []models.ShoppingListItem) (map[string]int, error) {
	totals := make(map[string]int)
	for _, item := range items {
		if !item.IsChecked {
			continue
		}
		if item.Quantity < 0 || item.Quantity > models.MaxQuantity-totals[item.ProductID] {
			return nil, fmt.Errorf("product %s: %w", item.ProductID, ErrQuantityLimit)
		}
		totals[item.ProductID] += item.Quantity
	}
	return totals, nil
}

// ApplyCheckedItems computes the pantry quantities that result from buying
// every checked item on a list. The result is sorted by product name.
// Every checked product must have a pantry item, and no new quantity may
// exceed models.MaxQuantity.
func ApplyCheckedItems(items []models.ShoppingListItem, pantry []models.PantryItemDetail) ([]models.UpdatedProduct, error) {
	byProduct := make(map[string]models.PantryItemDetail, len(pantry))
	for _, p := range pantry {
		byProduct[p.ProductID] = p
	}

	totals, err := CheckedTotals(items)
	if err != nil {
		return nil, err
	}
	updates := make([]models.UpdatedProduct, 0, len(totals))
	for productID, bought := range totals {
		p, ok := byProduct[productID]
		if !ok {
			return nil, fmt.Errorf("no pantry item for product %s", productID)
		}
		// bought is already within bounds, so the subtraction cannot wrap.
		if p.Quantity > models.MaxQuantity-bought {
			return nil, fmt.Errorf("%s: %d + %d: %w", p.ProductName, p.Quantity, bought, ErrQuantityLimit)
		}
		updates = append(updates, models.UpdatedProduct{
			ProductID:   productID,
			ProductName: p.ProductName,
			OldQuantity: p.Quantity,
			NewQuantity: p.Quantity + bought,
		})
	}

	sort.Slice(updates, func(i, j int) bool {
		if updates[i].ProductName == updates[j].ProductName {
			return updates[i].ProductID < updates[j].ProductID
		}
		return updates[i].ProductName < updates[j].ProductName
	})
	return updates, nil
}

package restock

import (
	"testing"

	"github.com/mmynk/pantry/internal/models"
)

func strPtr(s string) *string { return &s }
func int64Ptr(i int64) *int64  { return &i }

func TestBuildItems(t *testing.T) {
	snapshot := []models.EmptyPantryItem{
		{PantryItemID: "pi-1", ProductID: "milk", ProductName: "Milk", DesiredQuantity: 3},
		{PantryItemID: "pi-2", ProductID: "eggs", ProductName: "Eggs", DesiredQuantity: 1},
	}

	items := BuildItems("list-1", snapshot)

	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	seen := make(map[string]bool)
	for i, item := range items {
		if item.ID == "" {
			t.Errorf("item %d: expected generated ID", i)
		}
		if seen[item.ID] {
			t.Errorf("item %d: duplicate ID %s", i, item.ID)
		}
		seen[item.ID] = true

		if item.ShoppingListID != "list-1" {
			t.Errorf("item %d: list ID = %q, want list-1", i, item.ShoppingListID)
		}
		if item.ProductID != snapshot[i].ProductID {
			t.Errorf("item %d: product ID = %q, want %q", i, item.ProductID, snapshot[i].ProductID)
		}
		if item.Quantity != snapshot[i].DesiredQuantity {
			t.Errorf("item %d: quantity = %d, want %d", i, item.Quantity, snapshot[i].DesiredQuantity)
		}
		if item.IsChecked {
			t.Errorf("item %d: expected unchecked", i)
		}
	}
}

func TestBuildItems_Empty(t *testing.T) {
	items := BuildItems("list-1", nil)
	if len(items) != 0 {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestEnrich(t *testing.T) {
	snapshot := []models.EmptyPantryItem{
		{ProductID: "milk", ProductName: "Milk", CategoryID: int64Ptr(1), CategoryName: strPtr("Dairy")},
		{ProductID: "salt", ProductName: "Salt"},
	}

	tests := []struct {
		name    string
		items   []models.ShoppingListItem
		wantErr bool
		check   func(t *testing.T, details []models.ShoppingListItemDetail)
	}{
		{
			name: "same order as snapshot",
			items: []models.ShoppingListItem{
				{ID: "a", ProductID: "milk", Quantity: 2},
				{ID: "b", ProductID: "salt", Quantity: 1},
			},
			check: func(t *testing.T, details []models.ShoppingListItemDetail) {
				if details[0].ProductName != "Milk" || details[1].ProductName != "Salt" {
					t.Errorf("unexpected names: %q, %q", details[0].ProductName, details[1].ProductName)
				}
			},
		},
		{
			name: "store returned rows in reverse order",
			items: []models.ShoppingListItem{
				{ID: "b", ProductID: "salt", Quantity: 1},
				{ID: "a", ProductID: "milk", Quantity: 2},
			},
			check: func(t *testing.T, details []models.ShoppingListItemDetail) {
				if details[0].ProductName != "Salt" {
					t.Errorf("details[0] = %q, want Salt", details[0].ProductName)
				}
				if details[0].CategoryName != nil {
					t.Errorf("expected nil category for Salt, got %q", *details[0].CategoryName)
				}
				if details[1].ProductName != "Milk" {
					t.Errorf("details[1] = %q, want Milk", details[1].ProductName)
				}
				if details[1].CategoryName == nil || *details[1].CategoryName != "Dairy" {
					t.Errorf("expected Dairy category for Milk")
				}
				if details[1].CategoryID == nil || *details[1].CategoryID != 1 {
					t.Errorf("expected category ID 1 for Milk")
				}
			},
		},
		{
			name:    "unknown product",
			items:   []models.ShoppingListItem{{ID: "c", ProductID: "bread"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details, err := Enrich(tt.items, snapshot)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Enrich() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(details) != len(tt.items) {
				t.Fatalf("expected %d details, got %d", len(tt.items), len(details))
			}
			for i := range details {
				if details[i].ID != tt.items[i].ID {
					t.Errorf("details[%d].ID = %q, want %q", i, details[i].ID, tt.items[i].ID)
				}
			}
			if tt.check != nil {
				tt.check(t, details)
			}
		})
	}
}

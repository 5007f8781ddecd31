package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/pantry/internal/models"
	"github.com/mmynk/pantry/internal/storage"
)

const listItemDetailQuery = `
	SELECT i.id, i.shopping_list_id, i.product_id, i.quantity, i.is_checked,
	       p.name, p.category_id, c.name
	FROM shopping_list_items i
	JOIN products p ON p.id = i.product_id
	LEFT JOIN categories c ON c.id = p.category_id
`

// CreateShoppingList persists a new shopping list row.
func (q *queries) CreateShoppingList(ctx context.Context, list *models.ShoppingList) error {
	// Generate ID if not set
	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	if list.CreatedAt.IsZero() {
		list.CreatedAt = now()
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO shopping_lists (id, user_id, name, created_at, idempotency_key)
		 VALUES (?, ?, ?, ?, ?)`,
		list.ID, list.UserID, list.Name, list.CreatedAt.Unix(), nullString(list.IdempotencyKey),
	)
	if err != nil {
		return fmt.Errorf("failed to insert shopping list: %w", mapError(err))
	}

	return nil
}

// CreateShoppingListItems inserts every item with one multi-row INSERT, so
// the write either lands completely or not at all.
func (q *queries) CreateShoppingListItems(ctx context.Context, items []models.ShoppingListItem) error {
	if len(items) == 0 {
		return fmt.Errorf("no shopping list items to insert: %w", storage.ErrShortWrite)
	}

	values := make([]string, len(items))
	args := make([]any, 0, len(items)*5)
	for i := range items {
		item := &items[i]
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		values[i] = "(" + placeholders(5) + ")"
		args = append(args, item.ID, item.ShoppingListID, item.ProductID, item.Quantity, item.IsChecked)
	}

	res, err := q.db.ExecContext(ctx,
		"INSERT INTO shopping_list_items (id, shopping_list_id, product_id, quantity, is_checked) VALUES "+
			strings.Join(values, ", "),
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to insert shopping list items: %w", mapError(err))
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if int(n) != len(items) {
		return fmt.Errorf("inserted %d of %d shopping list items: %w", n, len(items), storage.ErrShortWrite)
	}

	return nil
}

// DeleteShoppingList removes a list; its items go with it by cascade.
func (q *queries) DeleteShoppingList(ctx context.Context, userID, listID string) error {
	res, err := q.db.ExecContext(ctx,
		"DELETE FROM shopping_lists WHERE id = ? AND user_id = ?",
		listID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete shopping list: %w", err)
	}
	return expectAffected(res, fmt.Sprintf("shopping list %s", listID))
}

// RenameShoppingList changes the name of a list owned by the user.
func (q *queries) RenameShoppingList(ctx context.Context, userID, listID, name string) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE shopping_lists SET name = ? WHERE id = ? AND user_id = ?",
		name, listID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to rename shopping list: %w", mapError(err))
	}
	return expectAffected(res, fmt.Sprintf("shopping list %s", listID))
}

// GetShoppingList retrieves a list and all of its items.
func (q *queries) GetShoppingList(ctx context.Context, userID, listID string) (*models.ShoppingListDetail, error) {
	return q.getShoppingList(ctx, "id = ? AND user_id = ?", listID, userID)
}

// GetShoppingListByIdempotencyKey retrieves the list generated under key.
func (q *queries) GetShoppingListByIdempotencyKey(ctx context.Context, userID, key string) (*models.ShoppingListDetail, error) {
	return q.getShoppingList(ctx, "idempotency_key = ? AND user_id = ?", key, userID)
}

func (q *queries) getShoppingList(ctx context.Context, where string, args ...any) (*models.ShoppingListDetail, error) {
	detail := &models.ShoppingListDetail{}
	var createdAt int64
	var key sql.NullString
	err := q.db.QueryRowContext(ctx,
		"SELECT id, user_id, name, created_at, idempotency_key FROM shopping_lists WHERE "+where,
		args...,
	).Scan(&detail.ID, &detail.UserID, &detail.Name, &createdAt, &key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("shopping list: %w", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get shopping list: %w", err)
	}
	detail.CreatedAt = unixTime(createdAt)
	detail.IdempotencyKey = key.String

	rows, err := q.db.QueryContext(ctx,
		listItemDetailQuery+" WHERE i.shopping_list_id = ? ORDER BY p.name, i.id",
		detail.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get shopping list items: %w", err)
	}
	defer rows.Close()

	detail.Items = []models.ShoppingListItemDetail{}
	for rows.Next() {
		item, err := scanListItemDetail(rows)
		if err != nil {
			return nil, err
		}
		detail.Items = append(detail.Items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate shopping list items: %w", err)
	}

	return detail, nil
}

// ListShoppingLists returns one page of the user's lists, newest first.
func (q *queries) ListShoppingLists(ctx context.Context, userID string, limit, offset int) ([]models.ShoppingListSummary, int, error) {
	var total int
	if err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM shopping_lists WHERE user_id = ?", userID,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count shopping lists: %w", err)
	}

	rows, err := q.db.QueryContext(ctx,
		`SELECT l.id, l.user_id, l.name, l.created_at,
		        COUNT(i.id), COALESCE(SUM(i.is_checked), 0)
		 FROM shopping_lists l
		 LEFT JOIN shopping_list_items i ON i.shopping_list_id = l.id
		 WHERE l.user_id = ?
		 GROUP BY l.id
		 ORDER BY l.created_at DESC, l.rowid DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list shopping lists: %w", err)
	}
	defer rows.Close()

	summaries := []models.ShoppingListSummary{}
	for rows.Next() {
		var s models.ShoppingListSummary
		var createdAt int64
		if err := rows.Scan(&s.ID, &s.UserID, &s.Name, &createdAt, &s.ItemCount, &s.CheckedCount); err != nil {
			return nil, 0, fmt.Errorf("failed to scan shopping list summary: %w", err)
		}
		s.CreatedAt = unixTime(createdAt)
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate shopping lists: %w", err)
	}

	return summaries, total, nil
}

// UpdateShoppingListItem changes the checked flag and/or quantity of an item
// on a list owned by the user.
func (q *queries) UpdateShoppingListItem(ctx context.Context, userID, listID, itemID string, isChecked *bool, quantity *int) (*models.ShoppingListItemDetail, error) {
	var checked, qty any
	if isChecked != nil {
		checked = *isChecked
	}
	if quantity != nil {
		qty = *quantity
	}

	res, err := q.db.ExecContext(ctx,
		`UPDATE shopping_list_items
		 SET is_checked = COALESCE(?, is_checked), quantity = COALESCE(?, quantity)
		 WHERE id = ? AND shopping_list_id = ?
		   AND shopping_list_id IN (SELECT id FROM shopping_lists WHERE user_id = ?)`,
		checked, qty, itemID, listID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update shopping list item: %w", err)
	}
	if err := expectAffected(res, fmt.Sprintf("shopping list item %s", itemID)); err != nil {
		return nil, err
	}

	item, err := scanListItemDetail(q.db.QueryRowContext(ctx,
		listItemDetailQuery+" WHERE i.id = ?", itemID,
	))
	if err != nil {
		return nil, err
	}
	return item, nil
}

// DeleteShoppingListItems removes the given items from a list.
func (q *queries) DeleteShoppingListItems(ctx context.Context, listID string, itemIDs []string) error {
	if len(itemIDs) == 0 {
		return nil
	}

	args := make([]any, 0, len(itemIDs)+1)
	args = append(args, listID)
	for _, id := range itemIDs {
		args = append(args, id)
	}

	_, err := q.db.ExecContext(ctx,
		"DELETE FROM shopping_list_items WHERE shopping_list_id = ? AND id IN ("+placeholders(len(itemIDs))+")",
		args...,
	)
	if err != nil {
		return fmt.Errorf("failed to delete shopping list items: %w", err)
	}
	return nil
}

func scanListItemDetail(s scanner) (*models.ShoppingListItemDetail, error) {
	item := &models.ShoppingListItemDetail{}
	var categoryID sql.NullInt64
	var categoryName sql.NullString
	if err := s.Scan(
		&item.ID, &item.ShoppingListID, &item.ProductID, &item.Quantity, &item.IsChecked,
		&item.ProductName, &categoryID, &categoryName,
	); err != nil {
		return nil, fmt.Errorf("failed to scan shopping list item: %w", err)
	}
	item.CategoryID = int64Ptr(categoryID)
	item.CategoryName = stringPtr(categoryName)
	return item, nil
}

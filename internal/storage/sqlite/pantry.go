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

const pantryDetailColumns = `
	pi.id, pi.user_id, pi.product_id, pi.quantity, pi.updated_at,
	p.name, p.category_id, c.name, p.desired_quantity
`

const pantryDetailJoins = `
	FROM pantry_items pi
	JOIN products p ON p.id = pi.product_id AND p.user_id = pi.user_id
	LEFT JOIN categories c ON c.id = p.category_id
`

// ListCategories returns every category ordered by ID.
func (q *queries) ListCategories(ctx context.Context) ([]models.Category, error) {
	rows, err := q.db.QueryContext(ctx, "SELECT id, name FROM categories ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate categories: %w", err)
	}

	return categories, nil
}

// CreateProduct inserts a product owned by product.UserID.
func (q *queries) CreateProduct(ctx context.Context, product *models.Product) error {
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now()
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO products (id, user_id, name, category_id, desired_quantity, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		product.ID, product.UserID, product.Name, nullInt64(product.CategoryID),
		product.DesiredQuantity, product.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", mapError(err))
	}

	return nil
}

const productDetailQuery = `
	SELECT p.id, p.user_id, p.name, p.category_id, p.desired_quantity, p.created_at,
	       c.name, COALESCE(pi.quantity, 0)
	FROM products p
	LEFT JOIN categories c ON c.id = p.category_id
	LEFT JOIN pantry_items pi ON pi.product_id = p.id AND pi.user_id = p.user_id
`

// GetProduct retrieves one product owned by the user.
func (q *queries) GetProduct(ctx context.Context, userID, productID string) (*models.ProductDetail, error) {
	row := q.db.QueryRowContext(ctx, productDetailQuery+" WHERE p.user_id = ? AND p.id = ?", userID, productID)
	product, err := scanProductDetail(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", productID, storage.ErrNotFound)
	}
	return product, err
}

// ListProducts returns one page of the user's products ordered by name.
func (q *queries) ListProducts(ctx context.Context, userID string, categoryID *int64, limit, offset int) ([]models.ProductDetail, int, error) {
	where := " WHERE p.user_id = ?"
	args := []any{userID}
	if categoryID != nil {
		where += " AND p.category_id = ?"
		args = append(args, *categoryID)
	}

	var total int
	if err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM products p"+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	rows, err := q.db.QueryContext(ctx,
		productDetailQuery+where+" ORDER BY p.name, p.id LIMIT ? OFFSET ?",
		append(args, limit, offset)...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	products := []models.ProductDetail{}
	for rows.Next() {
		product, err := scanProductDetail(rows)
		if err != nil {
			return nil, 0, err
		}
		products = append(products, *product)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate products: %w", err)
	}

	return products, total, nil
}

// UpdateProduct changes the non-nil fields of upd on a product owned by
// the user.
func (q *queries) UpdateProduct(ctx context.Context, userID, productID string, upd storage.ProductUpdate) error {
	var sets []string
	var args []any
	if upd.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *upd.Name)
	}
	if upd.CategoryID != nil {
		sets = append(sets, "category_id = ?")
		args = append(args, *upd.CategoryID)
	}
	if upd.DesiredQuantity != nil {
		sets = append(sets, "desired_quantity = ?")
		args = append(args, *upd.DesiredQuantity)
	}
	if len(sets) == 0 {
		return nil
	}

	res, err := q.db.ExecContext(ctx,
		"UPDATE products SET "+strings.Join(sets, ", ")+" WHERE id = ? AND user_id = ?",
		append(args, productID, userID)...,
	)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", mapError(err))
	}
	return expectAffected(res, fmt.Sprintf("product %s", productID))
}

// CreatePantryItem inserts the pantry row for a product.
func (q *queries) CreatePantryItem(ctx context.Context, item *models.PantryItem) error {
	if item.ID == "" {
		item.ID = uuid.New().String()
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = now()
	}

	_, err := q.db.ExecContext(ctx,
		`INSERT INTO pantry_items (id, user_id, product_id, quantity, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		item.ID, item.UserID, item.ProductID, item.Quantity, item.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert pantry item: %w", mapError(err))
	}

	return nil
}

// ListPantryItems returns the user's pantry ordered by category and product name.
func (q *queries) ListPantryItems(ctx context.Context, userID string, filter storage.PantryFilter) ([]models.PantryItemDetail, error) {
	query := `SELECT ` + pantryDetailColumns + pantryDetailJoins + ` WHERE pi.user_id = ?`
	args := []any{userID}
	if !filter.IncludeEmpty {
		query += ` AND pi.quantity > 0`
	}
	if filter.CategoryID != nil {
		query += ` AND p.category_id = ?`
		args = append(args, *filter.CategoryID)
	}
	query += ` ORDER BY c.id IS NULL, c.id, p.name`

	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list pantry items: %w", err)
	}
	defer rows.Close()

	var items []models.PantryItemDetail
	for rows.Next() {
		item, err := scanPantryDetail(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate pantry items: %w", err)
	}

	return items, nil
}

// GetPantryItem retrieves one pantry item owned by the user.
func (q *queries) GetPantryItem(ctx context.Context, userID, itemID string) (*models.PantryItemDetail, error) {
	row := q.db.QueryRowContext(ctx,
		`SELECT `+pantryDetailColumns+pantryDetailJoins+` WHERE pi.user_id = ? AND pi.id = ?`,
		userID, itemID,
	)
	item, err := scanPantryDetail(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("pantry item %s: %w", itemID, storage.ErrNotFound)
	}
	return item, err
}

// UpdatePantryQuantity sets the on-hand quantity of a pantry item.
func (q *queries) UpdatePantryQuantity(ctx context.Context, userID, itemID string, quantity int) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE pantry_items SET quantity = ?, updated_at = ? WHERE id = ? AND user_id = ?",
		quantity, now().Unix(), itemID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pantry item: %w", err)
	}
	return expectAffected(res, fmt.Sprintf("pantry item %s", itemID))
}

// SetPantryQuantityByProduct sets the on-hand quantity of the user's pantry
// item for a product.
func (q *queries) SetPantryQuantityByProduct(ctx context.Context, userID, productID string, quantity int) error {
	res, err := q.db.ExecContext(ctx,
		"UPDATE pantry_items SET quantity = ?, updated_at = ? WHERE product_id = ? AND user_id = ?",
		quantity, now().Unix(), productID, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to update pantry item: %w", err)
	}
	return expectAffected(res, fmt.Sprintf("pantry item for product %s", productID))
}

// CountEmptyPantryItems counts the user's pantry items at quantity zero.
func (q *queries) CountEmptyPantryItems(ctx context.Context, userID string) (int, error) {
	var count int
	err := q.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pantry_items WHERE user_id = ? AND quantity = 0",
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count empty pantry items: %w", err)
	}
	return count, nil
}

// ListEmptyPantryItems returns the snapshot used to generate a shopping list.
func (q *queries) ListEmptyPantryItems(ctx context.Context, userID string) ([]models.EmptyPantryItem, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT pi.id, p.id, p.name, p.desired_quantity, p.category_id, c.name
		 FROM pantry_items pi
		 JOIN products p ON p.id = pi.product_id AND p.user_id = pi.user_id
		 LEFT JOIN categories c ON c.id = p.category_id
		 WHERE pi.user_id = ? AND pi.quantity = 0
		 ORDER BY p.name`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch empty pantry items: %w", err)
	}
	defer rows.Close()

	var items []models.EmptyPantryItem
	for rows.Next() {
		var item models.EmptyPantryItem
		var categoryID sql.NullInt64
		var categoryName sql.NullString
		if err := rows.Scan(&item.PantryItemID, &item.ProductID, &item.ProductName,
			&item.DesiredQuantity, &categoryID, &categoryName); err != nil {
			return nil, fmt.Errorf("failed to scan empty pantry item: %w", err)
		}
		item.CategoryID = int64Ptr(categoryID)
		item.CategoryName = stringPtr(categoryName)
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate empty pantry items: %w", err)
	}

	return items, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPantryDetail(s scanner) (*models.PantryItemDetail, error) {
	item := &models.PantryItemDetail{}
	var updatedAt int64
	var categoryID sql.NullInt64
	var categoryName sql.NullString
	err := s.Scan(
		&item.ID, &item.UserID, &item.ProductID, &item.Quantity, &updatedAt,
		&item.ProductName, &categoryID, &categoryName, &item.DesiredQuantity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan pantry item: %w", err)
	}
	item.UpdatedAt = unixTime(updatedAt)
	item.CategoryID = int64Ptr(categoryID)
	item.CategoryName = stringPtr(categoryName)
	return item, nil
}

func scanProductDetail(s scanner) (*models.ProductDetail, error) {
	product := &models.ProductDetail{}
	var createdAt int64
	var categoryID sql.NullInt64
	var categoryName sql.NullString
	err := s.Scan(
		&product.ID, &product.UserID, &product.Name, &categoryID, &product.DesiredQuantity, &createdAt,
		&categoryName, &product.CurrentQuantity,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan product: %w", err)
	}
	product.CreatedAt = unixTime(createdAt)
	product.CategoryID = int64Ptr(categoryID)
	product.CategoryName = stringPtr(categoryName)
	return product, nil
}

// expectAffected returns storage.ErrNotFound when res touched no rows.
func expectAffected(res sql.Result, what string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", what, storage.ErrNotFound)
	}
	return nil
}

package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mmynk/pantry/internal/models"
	"github.com/mmynk/pantry/internal/storage"
)

// PantryService manages products and their pantry stock.
type PantryService struct {
	store  storage.Store
	logger *slog.Logger
}

// NewPantryService creates a new PantryService.
func NewPantryService(store storage.Store, logger *slog.Logger) *PantryService {
	return &PantryService{
		store:  store,
		logger: logger,
	}
}

// Categories returns the fixed product categories.
func (s *PantryService) Categories(ctx context.Context) ([]models.Category, error) {
	categories, err := s.store.ListCategories(ctx)
	if err != nil {
		s.logger.Error("ListCategories failed", "error", err)
		return nil, dbError("failed to list categories", err)
	}
	if categories == nil {
		categories = []models.Category{}
	}
	return categories, nil
}

// CreateProductInput holds the fields of a new product. Nil quantities
// default to 1.
type CreateProductInput struct {
	Name            string
	CategoryID      *int64
	Quantity        *int
	DesiredQuantity *int
}

// CreateProduct adds a product and the pantry item tracking its stock.
func (s *PantryService) CreateProduct(ctx context.Context, userID string, in CreateProductInput) (*models.PantryItemDetail, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fieldError("name", "name is required", nil)
	}
	quantity, desired := 1, 1
	if in.Quantity != nil {
		quantity = *in.Quantity
	}
	if in.DesiredQuantity != nil {
		desired = *in.DesiredQuantity
	}
	if err := checkQuantity("quantity", quantity, 0); err != nil {
		return nil, err
	}
	if err := checkQuantity("desired_quantity", desired, 1); err != nil {
		return nil, err
	}

	var detail *models.PantryItemDetail
	err := runInTx(ctx, s.store, func(q storage.Queries) error {
		product := &models.Product{
			UserID:          userID,
			Name:            name,
			CategoryID:      in.CategoryID,
			DesiredQuantity: desired,
		}
		if err := q.CreateProduct(ctx, product); err != nil {
			return err
		}

		item := &models.PantryItem{
			UserID:    userID,
			ProductID: product.ID,
			Quantity:  quantity,
		}
		if err := q.CreatePantryItem(ctx, item); err != nil {
			return err
		}

		var err error
		detail, err = q.GetPantryItem(ctx, userID, item.ID)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrConflict):
		return nil, newError(CodeProductExists, "A product with this name already exists", err)
	case errors.Is(err, storage.ErrInvalidReference):
		return nil, fieldError("category_id", "category does not exist", err)
	default:
		s.logger.Error("CreateProduct failed", "user_id", userID, "error", err)
		return nil, dbError("failed to create product", err)
	}

	s.logger.Info("Product created", "user_id", userID, "product_id", detail.ProductID, "name", name)
	return detail, nil
}

// ProductPage is one page of products.
type ProductPage struct {
	Products   []models.ProductDetail
	Pagination Pagination
}

// ListProducts returns the user's products ordered by name, optionally only
// those in one category. page and limit are clamped to valid values.
func (s *PantryService) ListProducts(ctx context.Context, userID string, categoryID *int64, page, limit int) (*ProductPage, error) {
	page, limit = clampPage(page, limit)

	products, total, err := s.store.ListProducts(ctx, userID, categoryID, limit, (page-1)*limit)
	if err != nil {
		s.logger.Error("ListProducts failed", "user_id", userID, "error", err)
		return nil, dbError("failed to list products", err)
	}

	return &ProductPage{
		Products:   products,
		Pagination: newPagination(page, limit, total),
	}, nil
}

// GetProduct returns one product with its current pantry quantity.
func (s *PantryService) GetProduct(ctx context.Context, userID, productID string) (*models.ProductDetail, error) {
	product, err := s.store.GetProduct(ctx, userID, productID)
	if err != nil {
		return nil, storeError("product not found", err)
	}
	return product, nil
}

// UpdateProductInput holds the product fields to change; nil fields are
// left unchanged.
type UpdateProductInput struct {
	Name            *string
	CategoryID      *int64
	DesiredQuantity *int
}

// UpdateProduct renames, recategorizes or retargets a product.
func (s *PantryService) UpdateProduct(ctx context.Context, userID, productID string, in UpdateProductInput) (*models.ProductDetail, error) {
	if in.Name == nil && in.CategoryID == nil && in.DesiredQuantity == nil {
		return nil, newError(CodeValidation, "nothing to update", nil)
	}
	upd := storage.ProductUpdate{CategoryID: in.CategoryID, DesiredQuantity: in.DesiredQuantity}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, fieldError("name", "name is required", nil)
		}
		upd.Name = &name
	}
	if in.DesiredQuantity != nil {
		if err := checkQuantity("desired_quantity", *in.DesiredQuantity, 1); err != nil {
			return nil, err
		}
	}

	var product *models.ProductDetail
	err := runInTx(ctx, s.store, func(q storage.Queries) error {
		if err := q.UpdateProduct(ctx, userID, productID, upd); err != nil {
			return err
		}
		var err error
		product, err = q.GetProduct(ctx, userID, productID)
		return err
	})
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrConflict):
		return nil, newError(CodeProductExists, "A product with this name already exists", err)
	case errors.Is(err, storage.ErrInvalidReference):
		return nil, fieldError("category_id", "category does not exist", err)
	case errors.Is(err, storage.ErrNotFound):
		return nil, storeError("product not found", err)
	default:
		s.logger.Error("UpdateProduct failed", "user_id", userID, "product_id", productID, "error", err)
		return nil, dbError("failed to update product", err)
	}

	s.logger.Info("Product updated", "user_id", userID, "product_id", productID)
	return product, nil
}

// PantryQuery selects the pantry items ListPantry returns.
type PantryQuery struct {
	ShowEmpty bool

	// CategoryID, when set, restricts the pantry to one category.
	CategoryID *int64
}

// ListPantry returns the user's pantry grouped by category. Groups follow
// category order with uncategorized products last.
func (s *PantryService) ListPantry(ctx context.Context, userID string, query PantryQuery) ([]models.PantryCategoryGroup, error) {
	items, err := s.store.ListPantryItems(ctx, userID, storage.PantryFilter{
		IncludeEmpty: query.ShowEmpty,
		CategoryID:   query.CategoryID,
	})
	if err != nil {
		s.logger.Error("ListPantryItems failed", "user_id", userID, "error", err)
		return nil, dbError("failed to list pantry items", err)
	}
	return groupByCategory(items), nil
}

// groupByCategory groups items that arrive sorted by category.
func groupByCategory(items []models.PantryItemDetail) []models.PantryCategoryGroup {
	groups := []models.PantryCategoryGroup{}
	for _, item := range items {
		n := len(groups)
		if n == 0 || !sameCategory(groups[n-1].CategoryID, item.CategoryID) {
			groups = append(groups, models.PantryCategoryGroup{
				CategoryID:   item.CategoryID,
				CategoryName: item.CategoryName,
			})
			n++
		}
		groups[n-1].Items = append(groups[n-1].Items, item)
	}
	return groups
}

func sameCategory(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// EmptyCount returns how many pantry items are at quantity zero.
func (s *PantryService) EmptyCount(ctx context.Context, userID string) (int, error) {
	count, err := s.store.CountEmptyPantryItems(ctx, userID)
	if err != nil {
		s.logger.Error("CountEmptyPantryItems failed", "user_id", userID, "error", err)
		return 0, dbError("failed to count empty pantry items", err)
	}
	return count, nil
}

// UpdateQuantity sets the on-hand quantity of a pantry item.
func (s *PantryService) UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*models.PantryItemDetail, error) {
	if err := checkQuantity("quantity", quantity, 0); err != nil {
		return nil, err
	}

	var detail *models.PantryItemDetail
	err := runInTx(ctx, s.store, func(q storage.Queries) error {
		if err := q.UpdatePantryQuantity(ctx, userID, itemID, quantity); err != nil {
			return err
		}
		var err error
		detail, err = q.GetPantryItem(ctx, userID, itemID)
		return err
	})
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("UpdatePantryQuantity failed", "user_id", userID, "pantry_item_id", itemID, "error", err)
		}
		return nil, storeError("pantry item not found", err)
	}
	return detail, nil
}

// checkQuantity rejects quantities outside [lowest, models.MaxQuantity].
func checkQuantity(field string, quantity, lowest int) error {
	if quantity < lowest || quantity > models.MaxQuantity {
		return fieldError(field, fmt.Sprintf("%s must be between %d and %d", field, lowest, models.MaxQuantity), nil)
	}
	return nil
}

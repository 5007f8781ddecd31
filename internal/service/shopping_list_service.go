package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/mmynk/pantry/internal/metrics"
	"github.com/mmynk/pantry/internal/models"
	"github.com/mmynk/pantry/internal/restock"
	"github.com/mmynk/pantry/internal/storage"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100

	maxListNameLength = 255
)

// ShoppingListService generates and manages shopping lists.
type ShoppingListService struct {
	store   storage.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewShoppingListService creates a new ShoppingListService with the given storage backend.
// m may be nil.
func NewShoppingListService(store storage.Store, m *metrics.Metrics, logger *slog.Logger) *ShoppingListService {
	return &ShoppingListService{
		store:   store,
		metrics: m,
		logger:  logger,
	}
}

// GenerateOptions are the optional inputs of Generate.
type GenerateOptions struct {
	// Name of the new list. Blank means models.DefaultShoppingListName.
	Name string

	// IdempotencyKey, when set, makes repeated calls with the same key
	// return the list created by the first call.
	IdempotencyKey string
}

// ResolveListName replaces a blank or whitespace-only name with the
// default list name. Any other name is returned as given.
func ResolveListName(name string) string {
	if strings.TrimSpace(name) == "" {
		return models.DefaultShoppingListName
	}
	return name
}

// Generate creates a shopping list holding one item for every empty pantry
// item of the user, each requesting the product's desired quantity.
//
// It fails with CodeNoItemsToAdd when nothing is empty and with
// CodeDatabase on any store failure. A failed generation never leaves a
// list behind: the list insert and the item insert share a transaction
// when the store supports one, and the list is deleted again otherwise.
func (s *ShoppingListService) Generate(ctx context.Context, userID string, opts GenerateOptions) (*models.ShoppingListDetail, error) {
	name := ResolveListName(opts.Name)
	s.logger.Info("Generate shopping list request received",
		"user_id", userID,
		"name", name,
		"idempotency_key", opts.IdempotencyKey != "",
	)

	if opts.IdempotencyKey != "" {
		existing, err := s.replay(ctx, userID, opts.IdempotencyKey)
		if err != nil || existing != nil {
			return existing, err
		}
	}

	var detail *models.ShoppingListDetail
	var err error
	if txStore, ok := s.store.(storage.Transactor); ok {
		err = txStore.RunInTx(ctx, func(q storage.Queries) error {
			var genErr error
			detail, genErr = s.generate(ctx, q, userID, name, opts.IdempotencyKey, false)
			return genErr
		})
	} else {
		detail, err = s.generate(ctx, s.store, userID, name, opts.IdempotencyKey, true)
	}

	if err != nil {
		// A concurrent request with the same key won the race.
		if opts.IdempotencyKey != "" && errors.Is(err, storage.ErrConflict) {
			if existing, replayErr := s.replay(ctx, userID, opts.IdempotencyKey); replayErr == nil && existing != nil {
				return existing, nil
			}
		}

		if CodeOf(err) == CodeNoItemsToAdd {
			s.metrics.ObserveGeneration(metrics.OutcomeNoItems, 0)
			s.logger.Info("No items to add to shopping list", "user_id", userID)
		} else {
			s.metrics.ObserveGeneration(metrics.OutcomeFailed, 0)
			s.logger.Error("Generate shopping list failed", "user_id", userID, "error", err)
		}

		var svcErr *Error
		if !errors.As(err, &svcErr) {
			err = dbError("failed to generate shopping list", err)
		}
		return nil, err
	}

	s.metrics.ObserveGeneration(metrics.OutcomeCreated, len(detail.Items))
	s.logger.Info("Shopping list generated",
		"user_id", userID,
		"shopping_list_id", detail.ID,
		"items_count", len(detail.Items),
	)
	return detail, nil
}

// replay returns the list previously generated under key, or nil.
func (s *ShoppingListService) replay(ctx context.Context, userID, key string) (*models.ShoppingListDetail, error) {
	existing, err := s.store.GetShoppingListByIdempotencyKey(ctx, userID, key)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		s.metrics.ObserveGeneration(metrics.OutcomeFailed, 0)
		s.logger.Error("Idempotency lookup failed", "user_id", userID, "error", err)
		return nil, dbError("failed to look up previous generation", err)
	}

	s.metrics.ObserveGeneration(metrics.OutcomeReplayed, len(existing.Items))
	s.logger.Info("Replaying generated shopping list", "user_id", userID, "shopping_list_id", existing.ID)
	return existing, nil
}

// generate runs the four generation steps against q. When compensate is
// set, a failed item insert deletes the list created before it.
func (s *ShoppingListService) generate(ctx context.Context, q storage.Queries, userID, name, key string, compensate bool) (*models.ShoppingListDetail, error) {
	// Step 1: snapshot the empty pantry items
	snapshot, err := q.ListEmptyPantryItems(ctx, userID)
	if err != nil {
		return nil, dbError("failed to fetch pantry items", err)
	}
	if len(snapshot) == 0 {
		return nil, &Error{
			Code:    CodeNoItemsToAdd,
			Message: "No items to add to shopping list. All pantry items have stock.",
			Details: map[string]any{"pantry_empty_items_count": 0},
		}
	}

	list := &models.ShoppingList{
		ID:             uuid.New().String(),
		UserID:         userID,
		Name:           name,
		IdempotencyKey: key,
	}
	items := restock.BuildItems(list.ID, snapshot)
	details, err := restock.Enrich(items, snapshot)
	if err != nil {
		return nil, newError(CodeInternal, "failed to assemble shopping list items", err)
	}

	// Step 2: create the list
	if err := q.CreateShoppingList(ctx, list); err != nil {
		return nil, dbError("failed to create shopping list", err)
	}

	// Step 3: bulk-create the items
	if err := q.CreateShoppingListItems(ctx, items); err != nil {
		// Step 4: without a transaction, undo step 2 by hand
		if compensate {
			return nil, s.compensate(ctx, q, userID, list.ID, err)
		}
		return nil, dbError("failed to create shopping list items", err)
	}

	return &models.ShoppingListDetail{
		ShoppingList: *list,
		Items:        details,
	}, nil
}

// compensate deletes a list whose items could not be inserted. A failed
// delete is reported as ErrCompensationFailed.
func (s *ShoppingListService) compensate(ctx context.Context, q storage.Queries, userID, listID string, cause error) error {
	// The delete must run even if the request was cancelled.
	ctx = context.WithoutCancel(ctx)

	if err := q.DeleteShoppingList(ctx, userID, listID); err != nil {
		s.metrics.ObserveCompensation(false)
		s.logger.Error("Compensating delete failed, orphaned shopping list left without items",
			"user_id", userID,
			"shopping_list_id", listID,
			"error", err,
			"insert_error", cause,
		)
		return dbError("failed to create shopping list items",
			fmt.Errorf("%w: %w (insert error: %w)", ErrCompensationFailed, err, cause))
	}

	s.metrics.ObserveCompensation(true)
	s.logger.Warn("Deleted shopping list after item insert failure",
		"user_id", userID,
		"shopping_list_id", listID,
		"error", cause,
	)
	return dbError("failed to create shopping list items", cause)
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

// ListPage is one page of shopping list summaries.
type ListPage struct {
	Lists      []models.ShoppingListSummary
	Pagination Pagination
}

// clampPage applies the default and maximum page size.
func clampPage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	return page, limit
}

func newPagination(page, limit, total int) Pagination {
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: (total + limit - 1) / limit,
	}
}

// List returns the user's shopping lists, newest first.
// page and limit are clamped to valid values.
func (s *ShoppingListService) List(ctx context.Context, userID string, page, limit int) (*ListPage, error) {
	page, limit = clampPage(page, limit)

	lists, total, err := s.store.ListShoppingLists(ctx, userID, limit, (page-1)*limit)
	if err != nil {
		s.logger.Error("ListShoppingLists failed", "user_id", userID, "error", err)
		return nil, dbError("failed to list shopping lists", err)
	}

	return &ListPage{
		Lists:      lists,
		Pagination: newPagination(page, limit, total),
	}, nil
}

// Get returns one shopping list with its items.
func (s *ShoppingListService) Get(ctx context.Context, userID, listID string) (*models.ShoppingListDetail, error) {
	detail, err := s.store.GetShoppingList(ctx, userID, listID)
	if err != nil {
		return nil, storeError("shopping list not found", err)
	}
	return detail, nil
}

// Rename changes the name of a shopping list. Blank names are rejected;
// other names are stored as given.
func (s *ShoppingListService) Rename(ctx context.Context, userID, listID, name string) (*models.ShoppingListDetail, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fieldError("name", "name is required", nil)
	}
	if utf8.RuneCountInString(name) > maxListNameLength {
		return nil, fieldError("name", fmt.Sprintf("name must be at most %d characters", maxListNameLength), nil)
	}

	var detail *models.ShoppingListDetail
	err := runInTx(ctx, s.store, func(q storage.Queries) error {
		if err := q.RenameShoppingList(ctx, userID, listID, name); err != nil {
			return err
		}
		var err error
		detail, err = q.GetShoppingList(ctx, userID, listID)
		return err
	})
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("RenameShoppingList failed", "user_id", userID, "shopping_list_id", listID, "error", err)
		}
		return nil, storeError("shopping list not found", err)
	}

	s.logger.Info("Shopping list renamed", "user_id", userID, "shopping_list_id", listID)
	return detail, nil
}

// Delete removes a shopping list and its items.
func (s *ShoppingListService) Delete(ctx context.Context, userID, listID string) error {
	if err := s.store.DeleteShoppingList(ctx, userID, listID); err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			s.logger.Error("DeleteShoppingList failed", "user_id", userID, "shopping_list_id", listID, "error", err)
		}
		return storeError("shopping list not found", err)
	}
	s.logger.Info("Shopping list deleted", "user_id", userID, "shopping_list_id", listID)
	return nil
}

// UpdateItemInput holds the fields of an item update; nil fields are left
// unchanged.
type UpdateItemInput struct {
	IsChecked *bool
	Quantity  *int
}

// UpdateItem checks/unchecks an item or changes its quantity.
func (s *ShoppingListService) UpdateItem(ctx context.Context, userID, listID, itemID string, in UpdateItemInput) (*models.ShoppingListItemDetail, error) {
	if in.IsChecked == nil && in.Quantity == nil {
		return nil, newError(CodeValidation, "nothing to update", nil)
	}
	if in.Quantity != nil && (*in.Quantity < 1 || *in.Quantity > models.MaxQuantity) {
		return nil, fieldError("quantity", fmt.Sprintf("quantity must be between 1 and %d", models.MaxQuantity), nil)
	}

	item, err := s.store.UpdateShoppingListItem(ctx, userID, listID, itemID, in.IsChecked, in.Quantity)
	if err != nil {
		return nil, storeError("shopping list item not found", err)
	}
	return item, nil
}

// Complete moves every checked item into the pantry. Checked items are then
// removed from the list, or the whole list is deleted when deleteList is set.
func (s *ShoppingListService) Complete(ctx context.Context, userID, listID string, deleteList bool) (*models.CompletionResult, error) {
	s.logger.Info("Complete shopping list request received",
		"user_id", userID,
		"shopping_list_id", listID,
		"delete_list", deleteList,
	)

	result := &models.CompletionResult{}
	err := runInTx(ctx, s.store, func(q storage.Queries) error {
		detail, err := q.GetShoppingList(ctx, userID, listID)
		if err != nil {
			return storeError("shopping list not found", err)
		}

		items := make([]models.ShoppingListItem, len(detail.Items))
		var checkedIDs []string
		for i, item := range detail.Items {
			items[i] = item.ShoppingListItem
			if item.IsChecked {
				checkedIDs = append(checkedIDs, item.ID)
			}
		}

		pantry, err := q.ListPantryItems(ctx, userID, storage.PantryFilter{IncludeEmpty: true})
		if err != nil {
			return dbError("failed to fetch pantry items", err)
		}

		updates, err := restock.ApplyCheckedItems(items, pantry)
		if errors.Is(err, restock.ErrQuantityLimit) {
			return fieldError("quantity", fmt.Sprintf("pantry quantity must be at most %d after restocking", models.MaxQuantity), err)
		}
		if err != nil {
			return newError(CodeInternal, "failed to restock pantry", err)
		}
		for _, u := range updates {
			if err := q.SetPantryQuantityByProduct(ctx, userID, u.ProductID, u.NewQuantity); err != nil {
				return dbError("failed to update pantry", err)
			}
		}

		if deleteList {
			if err := q.DeleteShoppingList(ctx, userID, listID); err != nil {
				return dbError("failed to delete shopping list", err)
			}
		} else if err := q.DeleteShoppingListItems(ctx, listID, checkedIDs); err != nil {
			return dbError("failed to remove checked items", err)
		}

		result.UpdatedProducts = updates
		result.ListDeleted = deleteList
		return nil
	})
	if err != nil {
		switch CodeOf(err) {
		case CodeNotFound:
		case CodeValidation:
			s.logger.Warn("Shopping list not completed", "user_id", userID, "shopping_list_id", listID, "error", err)
		default:
			s.logger.Error("Complete shopping list failed", "user_id", userID, "shopping_list_id", listID, "error", err)
		}
		var svcErr *Error
		if !errors.As(err, &svcErr) {
			err = dbError("failed to complete shopping list", err)
		}
		return nil, err
	}

	s.logger.Info("Shopping list completed",
		"user_id", userID,
		"shopping_list_id", listID,
		"updated_products", len(result.UpdatedProducts),
	)
	return result, nil
}

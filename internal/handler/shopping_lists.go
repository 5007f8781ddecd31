package handler

import (
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/mmynk/pantry/internal/service"
)

// IdempotencyKeyHeader lets a client retry a generation without creating
// a second list.
const IdempotencyKeyHeader = "Idempotency-Key"

const maxIdempotencyKeyLength = 255

type generateRequest struct {
	Name *string `json:"name" validate:"omitempty,max=255"`
}

type renameRequest struct {
	Name string `json:"name" validate:"required,max=255"`
}

type updateItemRequest struct {
	IsChecked *bool `json:"is_checked" validate:"required_without_all=Quantity"`
	Quantity  *int  `json:"quantity" validate:"omitempty,min=1,max=100000"`
}

type completeRequest struct {
	DeleteList bool `json:"delete_list"`
}

// generateShoppingList handles POST /api/shopping-lists/generate.
func (h *Handler) generateShoppingList(w http.ResponseWriter, r *http.Request, userID string) {
	var req generateRequest
	if err := decodeAndCheck(r, &req, false); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	opts := service.GenerateOptions{IdempotencyKey: r.Header.Get(IdempotencyKeyHeader)}
	if req.Name != nil {
		opts.Name = *req.Name
	}
	if utf8.RuneCountInString(opts.IdempotencyKey) > maxIdempotencyKeyLength {
		h.writeServiceError(w, r, invalidFields(map[string][]string{
			IdempotencyKeyHeader: {"must be at most 255 characters"},
		}))
		return
	}

	list, err := h.lists.Generate(r.Context(), userID, opts)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, list)
}

// listShoppingLists handles GET /api/shopping-lists.
func (h *Handler) listShoppingLists(w http.ResponseWriter, r *http.Request, userID string) {
	page, err := queryInt(r, "page")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	result, err := h.lists.List(r.Context(), userID, page, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Data: result.Lists, Pagination: &result.Pagination})
}

// getShoppingList handles GET /api/shopping-lists/{id}.
func (h *Handler) getShoppingList(w http.ResponseWriter, r *http.Request, userID string) {
	list, err := h.lists.Get(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

// renameShoppingList handles PATCH /api/shopping-lists/{id}.
func (h *Handler) renameShoppingList(w http.ResponseWriter, r *http.Request, userID string) {
	var req renameRequest
	if err := decodeAndCheck(r, &req, false); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	list, err := h.lists.Rename(r.Context(), userID, r.PathValue("id"), req.Name)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, list)
}

// deleteShoppingList handles DELETE /api/shopping-lists/{id}.
func (h *Handler) deleteShoppingList(w http.ResponseWriter, r *http.Request, userID string) {
	if err := h.lists.Delete(r.Context(), userID, r.PathValue("id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// updateShoppingListItem handles PATCH /api/shopping-lists/{listId}/items/{itemId}.
func (h *Handler) updateShoppingListItem(w http.ResponseWriter, r *http.Request, userID string) {
	var req updateItemRequest
	if err := decodeAndCheck(r, &req, false); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	item, err := h.lists.UpdateItem(r.Context(), userID, r.PathValue("listId"), r.PathValue("itemId"),
		service.UpdateItemInput{IsChecked: req.IsChecked, Quantity: req.Quantity})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, item)
}

// completeShoppingList handles POST /api/shopping-lists/{id}/complete.
func (h *Handler) completeShoppingList(w http.ResponseWriter, r *http.Request, userID string) {
	var req completeRequest
	if err := decodeJSON(r, &req, true); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	result, err := h.lists.Complete(r.Context(), userID, r.PathValue("id"), req.DeleteList)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, result)
}

// queryInt parses an optional integer query parameter; absent means 0.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, invalidFields(map[string][]string{name: {"must be an integer"}})
	}
	return v, nil
}

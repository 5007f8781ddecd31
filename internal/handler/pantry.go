package handler

import (
	"net/http"
	"strconv"

	"github.com/mmynk/pantry/internal/service"
)

type createProductRequest struct {
	Name            string `json:"name" validate:"required,max=255"`
	CategoryID      *int64 `json:"category_id" validate:"omitempty,min=1"`
	Quantity        *int   `json:"quantity" validate:"omitempty,gte=0,max=100000"`
	DesiredQuantity *int   `json:"desired_quantity" validate:"omitempty,min=1,max=100000"`
}

type updateProductRequest struct {
	Name            *string `json:"name" validate:"omitempty,max=255"`
	CategoryID      *int64  `json:"category_id" validate:"omitempty,min=1"`
	DesiredQuantity *int    `json:"desired_quantity" validate:"omitempty,min=1,max=100000"`
}

type updatePantryRequest struct {
	Quantity *int `json:"quantity" validate:"required,gte=0,max=100000"`
}

func (h *Handler) listCategories(w http.ResponseWriter, r *http.Request, _ string) {
	categories, err := h.pantry.Categories(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, categories)
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request, userID string) {
	var req createProductRequest
	if err := decodeAndCheck(r, &req, false); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	detail, err := h.pantry.CreateProduct(r.Context(), userID, service.CreateProductInput{
		Name:            req.Name,
		CategoryID:      req.CategoryID,
		Quantity:        req.Quantity,
		DesiredQuantity: req.DesiredQuantity,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusCreated, detail)
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request, userID string) {
	categoryID, err := queryCategory(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
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

	result, err := h.pantry.ListProducts(r.Context(), userID, categoryID, page, limit)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dataEnvelope{Data: result.Products, Pagination: &result.Pagination})
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request, userID string) {
	product, err := h.pantry.GetProduct(r.Context(), userID, r.PathValue("id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, product)
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request, userID string) {
	var req updateProductRequest
	if err := decodeAndCheck(r, &req, false); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	product, err := h.pantry.UpdateProduct(r.Context(), userID, r.PathValue("id"), service.UpdateProductInput{
		Name:            req.Name,
		CategoryID:      req.CategoryID,
		DesiredQuantity: req.DesiredQuantity,
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, product)
}

func (h *Handler) listPantry(w http.ResponseWriter, r *http.Request, userID string) {
	query := service.PantryQuery{ShowEmpty: true}
	if raw := r.URL.Query().Get("show_empty"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			h.writeServiceError(w, r, invalidFields(map[string][]string{"show_empty": {"must be a boolean"}}))
			return
		}
		query.ShowEmpty = v
	}
	categoryID, err := queryCategory(r)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	query.CategoryID = categoryID

	groups, err := h.pantry.ListPantry(r.Context(), userID, query)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, groups)
}

func (h *Handler) emptyCount(w http.ResponseWriter, r *http.Request, userID string) {
	count, err := h.pantry.EmptyCount(r.Context(), userID)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int{"empty_items_count": count})
}

func (h *Handler) updatePantryItem(w http.ResponseWriter, r *http.Request, userID string) {
	var req updatePantryRequest
	if err := decodeAndCheck(r, &req, false); err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	detail, err := h.pantry.UpdateQuantity(r.Context(), userID, r.PathValue("id"), *req.Quantity)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeData(w, http.StatusOK, detail)
}

// queryCategory parses the optional category_id filter.
func queryCategory(r *http.Request) (*int64, error) {
	raw := r.URL.Query().Get("category_id")
	if raw == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return nil, invalidFields(map[string][]string{"category_id": {"must be a positive integer"}})
	}
	return &id, nil
}

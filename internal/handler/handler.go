// Package handler serves the pantry JSON API over net/http.
//
// Successful responses are wrapped as {"data": ...}; failures as
// {"error": {"code", "message", "details"}}.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/mmynk/pantry/internal/middleware"
	"github.com/mmynk/pantry/internal/models"
	"github.com/mmynk/pantry/internal/service"
)

// ShoppingListService is the shopping list API the handler depends on.
type ShoppingListService interface {
	Generate(ctx context.Context, userID string, opts service.GenerateOptions) (*models.ShoppingListDetail, error)
	List(ctx context.Context, userID string, page, limit int) (*service.ListPage, error)
	Get(ctx context.Context, userID, listID string) (*models.ShoppingListDetail, error)
	Delete(ctx context.Context, userID, listID string) error
	UpdateItem(ctx context.Context, userID, listID, itemID string, in service.UpdateItemInput) (*models.ShoppingListItemDetail, error)
	Rename(ctx context.Context, userID, listID, name string) (*models.ShoppingListDetail, error)
	Complete(ctx context.Context, userID, listID string, deleteList bool) (*models.CompletionResult, error)
}

// PantryService is the pantry API the handler depends on.
type PantryService interface {
	Categories(ctx context.Context) ([]models.Category, error)
	CreateProduct(ctx context.Context, userID string, in service.CreateProductInput) (*models.PantryItemDetail, error)
	ListProducts(ctx context.Context, userID string, categoryID *int64, page, limit int) (*service.ProductPage, error)
	GetProduct(ctx context.Context, userID, productID string) (*models.ProductDetail, error)
	UpdateProduct(ctx context.Context, userID, productID string, in service.UpdateProductInput) (*models.ProductDetail, error)
	ListPantry(ctx context.Context, userID string, query service.PantryQuery) ([]models.PantryCategoryGroup, error)
	EmptyCount(ctx context.Context, userID string) (int, error)
	UpdateQuantity(ctx context.Context, userID, itemID string, quantity int) (*models.PantryItemDetail, error)
}

// AuthService registers and logs in users.
type AuthService interface {
	Register(ctx context.Context, email, displayName, password string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
}

// Pinger reports whether a backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators of a Handler. Health and Metrics are optional.
type Deps struct {
	ShoppingLists ShoppingListService
	Pantry        PantryService
	Auth          AuthService
	Health        Pinger
	Metrics       http.Handler
	Logger        *slog.Logger
}

// Handler serves the HTTP API.
type Handler struct {
	lists   ShoppingListService
	pantry  PantryService
	auth    AuthService
	health  Pinger
	metrics http.Handler
	logger  *slog.Logger
}

// New creates a Handler.
func New(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		lists:   deps.ShoppingLists,
		pantry:  deps.Pantry,
		auth:    deps.Auth,
		health:  deps.Health,
		metrics: deps.Metrics,
		logger:  logger,
	}
}

// authedFunc is a handler that runs for an authenticated user.
type authedFunc func(w http.ResponseWriter, r *http.Request, userID string)

// authed rejects anonymous requests with 401 before fn runs.
func (h *Handler) authed(fn authedFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID := middleware.GetUserID(r.Context())
		if userID == "" {
			writeError(w, http.StatusUnauthorized, service.CodeUnauthorized, "Authentication required", nil)
			return
		}
		fn(w, r, userID)
	}
}

// Routes registers every endpoint on a new ServeMux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)

	mux.HandleFunc("GET /api/categories", h.authed(h.listCategories))
	mux.HandleFunc("POST /api/products", h.authed(h.createProduct))
	mux.HandleFunc("GET /api/products", h.authed(h.listProducts))
	mux.HandleFunc("GET /api/products/{id}", h.authed(h.getProduct))
	mux.HandleFunc("PATCH /api/products/{id}", h.authed(h.updateProduct))
	mux.HandleFunc("GET /api/pantry", h.authed(h.listPantry))
	mux.HandleFunc("GET /api/pantry/empty-count", h.authed(h.emptyCount))
	mux.HandleFunc("PATCH /api/pantry/{id}", h.authed(h.updatePantryItem))

	mux.HandleFunc("POST /api/shopping-lists/generate", h.authed(h.generateShoppingList))
	mux.HandleFunc("GET /api/shopping-lists", h.authed(h.listShoppingLists))
	mux.HandleFunc("GET /api/shopping-lists/{id}", h.authed(h.getShoppingList))
	mux.HandleFunc("PATCH /api/shopping-lists/{id}", h.authed(h.renameShoppingList))
	mux.HandleFunc("DELETE /api/shopping-lists/{id}", h.authed(h.deleteShoppingList))
	mux.HandleFunc("PATCH /api/shopping-lists/{listId}/items/{itemId}", h.authed(h.updateShoppingListItem))
	mux.HandleFunc("POST /api/shopping-lists/{id}/complete", h.authed(h.completeShoppingList))

	mux.HandleFunc("GET /healthz", h.healthz)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics)
	}

	return mux
}

func (h *Handler) healthz(w http.ResponseWriter, r *http.Request) {
	if h.health != nil {
		if err := h.health.Ping(r.Context()); err != nil {
			h.logger.Error("Health check failed", "error", err)
			http.Error(w, "unavailable", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte("ok"))
}

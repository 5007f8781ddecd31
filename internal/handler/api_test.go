package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mmynk/pantry/internal/auth"
	"github.com/mmynk/pantry/internal/middleware"
	"github.com/mmynk/pantry/internal/models"
	"github.com/mmynk/pantry/internal/service"
	"github.com/mmynk/pantry/internal/storage/sqlite"
)

const testSecret = "0123456789abcdef0123456789abcdef"

// apiClient talks to a full server backed by a temp SQLite database.
type apiClient struct {
	t      *testing.T
	server *httptest.Server
	token  string
}

func newAPI(t *testing.T) *httptest.Server {
	t.Helper()

	store, err := sqlite.New(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	logger := discardLogger()
	jwtManager := auth.NewJWTManager(testSecret, time.Hour)
	h := New(Deps{
		ShoppingLists: service.NewShoppingListService(store, nil, logger),
		Pantry:        service.NewPantryService(store, logger),
		Auth:          service.NewAuthService(auth.NewPasswordAuthenticator(store), jwtManager, logger),
		Health:        store,
		Logger:        logger,
	})

	server := httptest.NewServer(middleware.Chain(h.Routes(),
		middleware.Authenticate(jwtManager),
		middleware.Recover(logger),
	))
	t.Cleanup(server.Close)
	return server
}

func register(t *testing.T, server *httptest.Server, email string) *apiClient {
	t.Helper()
	c := &apiClient{t: t, server: server}

	var result service.AuthResult
	status := c.do(http.MethodPost, "/api/auth/register",
		fmt.Sprintf(`{"email":%q,"display_name":"Test","password":"correct horse"}`, email), &result)
	if status != http.StatusCreated {
		t.Fatalf("register status = %d", status)
	}
	c.token = result.Token
	return c
}

// do sends a request and decodes the "data" member of the response into out.
func (c *apiClient) do(method, path, body string, out any) int {
	c.t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, c.server.URL+path, reader)
	if err != nil {
		c.t.Fatal(err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.server.Client().Do(req)
	if err != nil {
		c.t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		envelope := struct {
			Data any `json:"data"`
		}{Data: out}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			c.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (c *apiClient) addProduct(name string, quantity, desired int) models.PantryItemDetail {
	c.t.Helper()
	var detail models.PantryItemDetail
	body := fmt.Sprintf(`{"name":%q,"category_id":1,"quantity":%d,"desired_quantity":%d}`, name, quantity, desired)
	if status := c.do(http.MethodPost, "/api/products", body, &detail); status != http.StatusCreated {
		c.t.Fatalf("create product %s: status %d", name, status)
	}
	return detail
}

func TestGenerateEndToEnd(t *testing.T) {
	server := newAPI(t)
	c := register(t, server, "alice@example.com")

	p1 := c.addProduct("P1", 0, 3)
	c.addProduct("P2", 2, 1)

	var list models.ShoppingListDetail
	if status := c.do(http.MethodPost, "/api/shopping-lists/generate", `{"name":"Weekly"}`, &list); status != http.StatusCreated {
		t.Fatalf("generate status = %d", status)
	}

	if list.Name != "Weekly" {
		t.Errorf("Name = %q", list.Name)
	}
	if len(list.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(list.Items))
	}
	if item := list.Items[0]; item.ProductID != p1.ProductID || item.Quantity != 3 || item.IsChecked {
		t.Errorf("unexpected item: %+v", item)
	}

	var fetched models.ShoppingListDetail
	if status := c.do(http.MethodGet, "/api/shopping-lists/"+list.ID, "", &fetched); status != http.StatusOK {
		t.Fatalf("get status = %d", status)
	}
	if fetched.ID != list.ID || len(fetched.Items) != 1 {
		t.Errorf("unexpected fetched list: %+v", fetched)
	}
}

func TestGenerateNothingToAdd(t *testing.T) {
	server := newAPI(t)
	c := register(t, server, "bob@example.com")
	c.addProduct("Milk", 2, 1)

	if status := c.do(http.MethodPost, "/api/shopping-lists/generate", `{}`, nil); status != http.StatusUnprocessableEntity {
		t.Fatalf("generate status = %d, want 422", status)
	}

	var lists []models.ShoppingListSummary
	if status := c.do(http.MethodGet, "/api/shopping-lists", "", &lists); status != http.StatusOK {
		t.Fatalf("list status = %d", status)
	}
	if len(lists) != 0 {
		t.Errorf("expected no lists, got %d", len(lists))
	}
}

func TestShoppingListFlow(t *testing.T) {
	server := newAPI(t)
	c := register(t, server, "carol@example.com")
	milk := c.addProduct("Milk", 0, 2)
	c.addProduct("Eggs", 0, 12)

	var count struct {
		EmptyItemsCount int `json:"empty_items_count"`
	}
	if c.do(http.MethodGet, "/api/pantry/empty-count", "", &count); count.EmptyItemsCount != 2 {
		t.Fatalf("empty count = %d, want 2", count.EmptyItemsCount)
	}

	var list models.ShoppingListDetail
	c.do(http.MethodPost, "/api/shopping-lists/generate", `{}`, &list)
	if list.Name != models.DefaultShoppingListName || len(list.Items) != 2 {
		t.Fatalf("unexpected list: %+v", list)
	}

	var milkItemID string
	for _, item := range list.Items {
		if item.ProductID == milk.ProductID {
			milkItemID = item.ID
		}
	}

	var item models.ShoppingListItemDetail
	path := fmt.Sprintf("/api/shopping-lists/%s/items/%s", list.ID, milkItemID)
	if status := c.do(http.MethodPatch, path, `{"is_checked":true}`, &item); status != http.StatusOK || !item.IsChecked {
		t.Fatalf("check item: status %d, item %+v", status, item)
	}
	if status := c.do(http.MethodPatch, path, `{}`, nil); status != http.StatusBadRequest {
		t.Errorf("empty update status = %d, want 400", status)
	}

	var result models.CompletionResult
	if status := c.do(http.MethodPost, "/api/shopping-lists/"+list.ID+"/complete", "", &result); status != http.StatusOK {
		t.Fatalf("complete status = %d", status)
	}
	if len(result.UpdatedProducts) != 1 || result.UpdatedProducts[0].NewQuantity != 2 {
		t.Errorf("unexpected completion: %+v", result)
	}

	var pantry []models.PantryCategoryGroup
	c.do(http.MethodGet, "/api/pantry?show_empty=false", "", &pantry)
	if len(pantry) != 1 || len(pantry[0].Items) != 1 {
		t.Fatalf("unexpected pantry: %+v", pantry)
	}
	if got := pantry[0].Items[0]; got.ProductName != "Milk" || got.Quantity != 2 {
		t.Errorf("unexpected pantry item: %+v", got)
	}

	if status := c.do(http.MethodDelete, "/api/shopping-lists/"+list.ID, "", nil); status != http.StatusNoContent {
		t.Errorf("delete status = %d", status)
	}
	if status := c.do(http.MethodGet, "/api/shopping-lists/"+list.ID, "", nil); status != http.StatusNotFound {
		t.Errorf("get after delete status = %d", status)
	}
}

func TestCompleteOverQuantityLimit(t *testing.T) {
	server := newAPI(t)
	c := register(t, server, "frank@example.com")
	milk := c.addProduct("Milk", 0, 5)

	var list models.ShoppingListDetail
	c.do(http.MethodPost, "/api/shopping-lists/generate", `{}`, &list)
	path := fmt.Sprintf("/api/shopping-lists/%s/items/%s", list.ID, list.Items[0].ID)
	if status := c.do(http.MethodPatch, path, `{"is_checked":true,"quantity":100000}`, nil); status != http.StatusOK {
		t.Fatalf("check item status = %d", status)
	}
	if status := c.do(http.MethodPatch, "/api/pantry/"+milk.ID, `{"quantity":100000}`, nil); status != http.StatusOK {
		t.Fatalf("update pantry status = %d", status)
	}

	if status := c.do(http.MethodPost, "/api/shopping-lists/"+list.ID+"/complete", "", nil); status != http.StatusBadRequest {
		t.Errorf("complete status = %d, want 400", status)
	}

	var pantry []models.PantryCategoryGroup
	c.do(http.MethodGet, "/api/pantry", "", &pantry)
	if len(pantry) != 1 || pantry[0].Items[0].Quantity != 100000 {
		t.Errorf("pantry should be unchanged: %+v", pantry)
	}
}

func TestProductEndpoints(t *testing.T) {
	server := newAPI(t)
	c := register(t, server, "grace@example.com")
	milk := c.addProduct("Milk", 1, 2)
	c.addProduct("Cheese", 0, 1)
	if status := c.do(http.MethodPost, "/api/products", `{"name":"Bread","category_id":2}`, nil); status != http.StatusCreated {
		t.Fatalf("create Bread status = %d", status)
	}

	var dairy []models.ProductDetail
	if status := c.do(http.MethodGet, "/api/products?category_id=1&limit=1", "", &dairy); status != http.StatusOK {
		t.Fatalf("list products status = %d", status)
	}
	if len(dairy) != 1 || dairy[0].Name != "Cheese" {
		t.Errorf("unexpected first dairy page: %+v", dairy)
	}

	var product models.ProductDetail
	body := `{"name":"Whole Milk","desired_quantity":3}`
	if status := c.do(http.MethodPatch, "/api/products/"+milk.ProductID, body, &product); status != http.StatusOK {
		t.Fatalf("update product status = %d", status)
	}
	if product.Name != "Whole Milk" || product.DesiredQuantity != 3 || product.CurrentQuantity != 1 {
		t.Errorf("unexpected product: %+v", product)
	}
	if product.CategoryName == nil || *product.CategoryName != "Dairy" {
		t.Errorf("expected Dairy, got %v", product.CategoryName)
	}

	if status := c.do(http.MethodPatch, "/api/products/"+milk.ProductID, `{"name":"Cheese"}`, nil); status != http.StatusConflict {
		t.Errorf("duplicate rename status = %d, want 409", status)
	}
	if status := c.do(http.MethodGet, "/api/products/missing", "", nil); status != http.StatusNotFound {
		t.Errorf("get missing status = %d, want 404", status)
	}

	var bakery []models.PantryCategoryGroup
	c.do(http.MethodGet, "/api/pantry?category_id=2", "", &bakery)
	if len(bakery) != 1 || bakery[0].CategoryName == nil || *bakery[0].CategoryName != "Bakery" || len(bakery[0].Items) != 1 {
		t.Errorf("unexpected bakery pantry: %+v", bakery)
	}
}

func TestRenameShoppingList(t *testing.T) {
	server := newAPI(t)
	c := register(t, server, "heidi@example.com")
	c.addProduct("Milk", 0, 1)

	var list models.ShoppingListDetail
	c.do(http.MethodPost, "/api/shopping-lists/generate", `{}`, &list)

	var renamed models.ShoppingListDetail
	if status := c.do(http.MethodPatch, "/api/shopping-lists/"+list.ID, `{"name":"Party"}`, &renamed); status != http.StatusOK {
		t.Fatalf("rename status = %d", status)
	}
	if renamed.Name != "Party" || len(renamed.Items) != 1 {
		t.Errorf("unexpected renamed list: %+v", renamed)
	}
	if status := c.do(http.MethodPatch, "/api/shopping-lists/"+list.ID, `{"name":"   "}`, nil); status != http.StatusBadRequest {
		t.Errorf("blank rename status = %d, want 400", status)
	}
}

func TestListsAreScopedToOwner(t *testing.T) {
	server := newAPI(t)
	alice := register(t, server, "alice@example.com")
	bob := register(t, server, "bob@example.com")

	alice.addProduct("Milk", 0, 1)
	var list models.ShoppingListDetail
	alice.do(http.MethodPost, "/api/shopping-lists/generate", `{}`, &list)

	if status := bob.do(http.MethodGet, "/api/shopping-lists/"+list.ID, "", nil); status != http.StatusNotFound {
		t.Errorf("bob get status = %d, want 404", status)
	}
	if status := bob.do(http.MethodDelete, "/api/shopping-lists/"+list.ID, "", nil); status != http.StatusNotFound {
		t.Errorf("bob delete status = %d, want 404", status)
	}
}

func TestAuthEndpoints(t *testing.T) {
	server := newAPI(t)
	register(t, server, "dave@example.com")
	c := &apiClient{t: t, server: server}

	tests := []struct {
		name string
		path string
		body string
		want int
	}{
		{"duplicate email", "/api/auth/register", `{"email":"DAVE@example.com","display_name":"D","password":"correct horse"}`, http.StatusConflict},
		{"weak password", "/api/auth/register", `{"email":"eve@example.com","display_name":"E","password":"short"}`, http.StatusBadRequest},
		{"invalid email", "/api/auth/register", `{"email":"nope","display_name":"E","password":"correct horse"}`, http.StatusBadRequest},
		{"login", "/api/auth/login", `{"email":"dave@example.com","password":"correct horse"}`, http.StatusOK},
		{"wrong password", "/api/auth/login", `{"email":"dave@example.com","password":"wrong horse"}`, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c.t = t
			if status := c.do(http.MethodPost, tt.path, tt.body, nil); status != tt.want {
				t.Errorf("status = %d, want %d", status, tt.want)
			}
		})
	}

	t.Run("protected endpoint without token", func(t *testing.T) {
		c.t = t
		if status := c.do(http.MethodGet, "/api/pantry", "", nil); status != http.StatusUnauthorized {
			t.Errorf("status = %d, want 401", status)
		}
	})
}

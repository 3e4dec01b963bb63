package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/food-ordering-api/db"
	"github.com/xenking/food-ordering-api/internal/domain/catalog"
	"github.com/xenking/food-ordering-api/internal/domain/order"
	"github.com/xenking/food-ordering-api/internal/storage/memory"
)

type fixture struct {
	router  http.Handler
	catalog *memory.Catalog
}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()

	snap, err := catalog.ReadSnapshot(bytes.NewReader(db.Catalog))
	require.NoError(t, err)
	cat := memory.NewCatalog()
	require.NoError(t, cat.SeedCatalog(context.Background(), *snap))

	svc, err := order.NewService(order.Config{DeliveryFee: decimal.RequireFromString("2.99")}, cat, memory.NewOrders())
	require.NoError(t, err)

	return &fixture{
		router:  New(cfg, cat, svc).Router(),
		catalog: cat,
	}
}

func (f *fixture) do(t *testing.T, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, target, nil)
	} else {
		r = httptest.NewRequest(method, target, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, r)

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var out map[string]any
	d := json.NewDecoder(bytes.NewReader(w.Body.Bytes()))
	d.UseNumber()
	require.NoError(t, d.Decode(&out), w.Body.String())
	return w, out
}

const scenarioBody = `{
	"customer": {"name": "A", "email": "a@x.com", "phone": "1", "address": "addr"},
	"items": [{"menu_item_id": "item-1", "quantity": 2}],
	"delivery_platform": "UberEats"
}`

func TestCreateAndGetOrder(t *testing.T) {
	f := newFixture(t, Config{})

	w, created := f.do(t, http.MethodPost, "/api/orders", scenarioBody)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, json.Number("33.98"), created["total_amount"])
	assert.Equal(t, json.Number("2.99"), created["delivery_fee"])
	assert.Equal(t, "pending", created["status"])
	assert.Equal(t, "Order created successfully", created["message"])

	id, ok := created["order_id"].(string)
	require.True(t, ok)
	require.Len(t, id, 36)

	w, got := f.do(t, http.MethodGet, "/api/orders/"+id, "")
	require.Equal(t, http.StatusOK, w.Code)
	o := got["order"].(map[string]any)
	assert.Equal(t, id, o["id"])
	assert.Equal(t, "A", o["customer_name"])
	assert.Equal(t, "a@x.com", o["customer_email"])
	assert.Equal(t, "1", o["customer_phone"])
	assert.Equal(t, "addr", o["customer_address"])
	assert.Equal(t, json.Number("33.98"), o["total_amount"])
	assert.Equal(t, json.Number("2.99"), o["delivery_fee"])
	assert.Equal(t, "UberEats", o["delivery_platform"])
	assert.Equal(t, "pending", o["status"])
	assert.NotEmpty(t, o["created_at"])

	items := o["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, id, item["order_id"])
	assert.Equal(t, "item-1", item["menu_item_id"])
	assert.Equal(t, json.Number("2"), item["quantity"])
	assert.Equal(t, json.Number("16.99"), item["price"])
	assert.Equal(t, "Margherita Pizza", item["name"])
	assert.Equal(t, "Fresh tomatoes, mozzarella, basil", item["description"])
	assert.NotEmpty(t, item["image_url"])
}

func TestCreateOrder_CapturedPriceSurvivesCatalogChange(t *testing.T) {
	f := newFixture(t, Config{})

	_, created := f.do(t, http.MethodPost, "/api/orders", scenarioBody)
	id := created["order_id"].(string)

	f.catalog.PutMenuItem(catalog.MenuItem{
		ID: "item-1", RestaurantID: "rest-1", Name: "Margherita Deluxe",
		Price: decimal.RequireFromString("25.00"), Category: "Pizza", Available: true,
	})

	_, got := f.do(t, http.MethodGet, "/api/orders/"+id, "")
	item := got["order"].(map[string]any)["items"].([]any)[0].(map[string]any)
	assert.Equal(t, json.Number("16.99"), item["price"])
	assert.Equal(t, "Margherita Deluxe", item["name"])
}

func TestCreateOrder_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		message string
	}{
		{
			name:    "EmptyBody",
			body:    "",
			status:  http.StatusBadRequest,
			message: "Missing required fields",
		},
		{
			name:    "EmptyObject",
			body:    `{}`,
			status:  http.StatusBadRequest,
			message: "Missing required fields",
		},
		{
			name:    "MissingPlatform",
			body:    `{"customer":{"name":"A","email":"a@x.com","phone":"1","address":"addr"},"items":[{"menu_item_id":"item-1","quantity":1}]}`,
			status:  http.StatusBadRequest,
			message: "Missing required fields",
		},
		{
			name:    "NullCustomer",
			body:    `{"customer":null,"items":[{"menu_item_id":"item-1","quantity":1}],"delivery_platform":"UberEats"}`,
			status:  http.StatusBadRequest,
			message: "Missing required fields",
		},
		{
			name:    "EmptyItems",
			body:    `{"customer":{"name":"A","email":"a@x.com","phone":"1","address":"addr"},"items":[],"delivery_platform":"UberEats"}`,
			status:  http.StatusBadRequest,
			message: "Missing required fields",
		},
		{
			name:    "Malformed",
			body:    `{"customer":`,
			status:  http.StatusBadRequest,
			message: "Invalid request body",
		},
		{
			name:    "NotAnObject",
			body:    `[1,2,3]`,
			status:  http.StatusBadRequest,
			message: "Invalid request body",
		},
		{
			name:    "ItemsNotArray",
			body:    `{"customer":{"name":"A","email":"a@x.com","phone":"1","address":"addr"},"items":"item-1","delivery_platform":"UberEats"}`,
			status:  http.StatusBadRequest,
			message: "Invalid request body",
		},
		{
			name:    "FractionalQuantity",
			body:    `{"customer":{"name":"A","email":"a@x.com","phone":"1","address":"addr"},"items":[{"menu_item_id":"item-1","quantity":1.5}],"delivery_platform":"UberEats"}`,
			status:  http.StatusBadRequest,
			message: "Invalid request body",
		},
		{
			name:    "ZeroQuantity",
			body:    `{"customer":{"name":"A","email":"a@x.com","phone":"1","address":"addr"},"items":[{"menu_item_id":"item-1","quantity":0}],"delivery_platform":"UberEats"}`,
			status:  http.StatusBadRequest,
			message: "quantity: must be greater than 0 for menu item item-1",
		},
		{
			name:    "UnknownMenuItem",
			body:    `{"customer":{"name":"A","email":"a@x.com","phone":"1","address":"addr"},"items":[{"menu_item_id":"item-404","quantity":1}],"delivery_platform":"UberEats"}`,
			status:  http.StatusBadRequest,
			message: "menu item item-404 not found",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{})
			w, body := f.do(t, http.MethodPost, "/api/orders", tt.body)
			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, body["error"])
		})
	}
}

func TestCreateOrder_UnavailableItem(t *testing.T) {
	f := newFixture(t, Config{})
	f.catalog.PutMenuItem(catalog.MenuItem{
		ID: "item-1", RestaurantID: "rest-1", Name: "Margherita Pizza",
		Price: decimal.RequireFromString("16.99"), Category: "Pizza", Available: false,
	})

	w, body := f.do(t, http.MethodPost, "/api/orders", scenarioBody)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "menu item item-1 is not available", body["error"])
}

func TestCreateOrder_BodyTooLarge(t *testing.T) {
	f := newFixture(t, Config{MaxBodyBytes: 16})

	w, body := f.do(t, http.MethodPost, "/api/orders", scenarioBody)
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Equal(t, "Request body too large", body["error"])
}

func TestGetOrder_NotFound(t *testing.T) {
	f := newFixture(t, Config{})

	w, body := f.do(t, http.MethodGet, "/api/orders/does-not-exist", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Order not found", body["error"])
}

func TestRestaurants(t *testing.T) {
	f := newFixture(t, Config{})

	t.Run("List", func(t *testing.T) {
		w, body := f.do(t, http.MethodGet, "/api/restaurants", "")
		require.Equal(t, http.StatusOK, w.Code)
		rs := body["restaurants"].([]any)
		require.Len(t, rs, 3)

		var ids []string
		for _, r := range rs {
			ids = append(ids, r.(map[string]any)["id"].(string))
		}
		assert.Equal(t, []string{"rest-2", "rest-1", "rest-3"}, ids)
	})
	t.Run("Get", func(t *testing.T) {
		w, body := f.do(t, http.MethodGet, "/api/restaurants/rest-1", "")
		require.Equal(t, http.StatusOK, w.Code)
		r := body["restaurant"].(map[string]any)
		assert.Equal(t, "Mario's Pizza Palace", r["name"])
		assert.Equal(t, "Squid Game", r["show_type"])
		assert.Equal(t, json.Number("4.5"), r["rating"])
		assert.Equal(t, json.Number("2.99"), r["delivery_fee"])
	})
	t.Run("NotFound", func(t *testing.T) {
		w, body := f.do(t, http.MethodGet, "/api/restaurants/rest-999", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Equal(t, map[string]any{"error": "Restaurant not found"}, body)
	})
}

func TestMenu(t *testing.T) {
	f := newFixture(t, Config{})

	w, body := f.do(t, http.MethodGet, "/api/restaurants/rest-1/menu", "")
	require.Equal(t, http.StatusOK, w.Code)

	menu := body["menu"].(map[string]any)
	require.Len(t, menu, 2)

	names := func(category string) []string {
		var out []string
		for _, item := range menu[category].([]any) {
			out = append(out, item.(map[string]any)["name"].(string))
		}
		return out
	}
	assert.Equal(t, []string{"Margherita Pizza", "Pepperoni Pizza"}, names("Pizza"))
	assert.Equal(t, []string{"Caesar Salad"}, names("Salad"))

	w, body = f.do(t, http.MethodGet, "/api/restaurants/rest-999/menu", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, body["menu"])
}

func TestSearch(t *testing.T) {
	f := newFixture(t, Config{})

	tests := []struct {
		query string
		want  []string
	}{
		{"", []string{"rest-2", "rest-1", "rest-3"}},
		{"?q=burger", []string{"rest-3"}},
		{"?q=ALIEN", []string{"rest-2"}},
		{"?show=Squid+Game", []string{"rest-1"}},
		{"?platform=DoorDash", []string{"rest-2"}},
		{"?q=pizza&platform=DoorDash", nil},
		{"?q=.*", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			w, body := f.do(t, http.MethodGet, "/api/search"+tt.query, "")
			require.Equal(t, http.StatusOK, w.Code)

			var ids []string
			for _, r := range body["restaurants"].([]any) {
				ids = append(ids, r.(map[string]any)["id"].(string))
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestIndexAndHealth(t *testing.T) {
	f := newFixture(t, Config{})

	w, body := f.do(t, http.MethodGet, "/api/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, map[string]any{"status": "OK", "message": "Food Ordering API is running"}, body)

	w, body = f.do(t, http.MethodGet, "/api", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Food Ordering API", body["message"])
	assert.Equal(t, "1.0.0", body["version"])
	assert.Equal(t, "/api/orders", body["endpoints"].(map[string]any)["orders"])
}

func TestUnknownRouteAndMethod(t *testing.T) {
	f := newFixture(t, Config{})

	w, body := f.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", body["error"])

	w, body = f.do(t, http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", body["error"])

	for _, tt := range []struct{ method, path string }{
		{http.MethodDelete, "/api/orders"},
		{http.MethodGet, "/api/orders"},
		{http.MethodPost, "/api/restaurants"},
		{http.MethodPut, "/api/orders/some-id"},
	} {
		w, body = f.do(t, tt.method, tt.path, "")
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code, "%s %s", tt.method, tt.path)
		assert.Equal(t, "Method not allowed", body["error"], "%s %s", tt.method, tt.path)
	}
}

type brokenCatalog struct {
	catalog.Repository
}

func (brokenCatalog) ListRestaurants(context.Context) ([]catalog.Restaurant, error) {
	return nil, errors.New("connection refused")
}

func (brokenCatalog) GetMenuItem(context.Context, string) (*catalog.MenuItem, error) {
	return nil, errors.New("connection refused")
}

func TestDependencyFailure(t *testing.T) {
	cat := brokenCatalog{}
	svc, err := order.NewService(order.Config{}, cat, memory.NewOrders())
	require.NoError(t, err)
	f := &fixture{router: New(Config{}, cat, svc).Router()}

	w, body := f.do(t, http.MethodGet, "/api/restaurants", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "connection refused", body["error"])

	w, body = f.do(t, http.MethodPost, "/api/orders", scenarioBody)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, body["error"], "connection refused")
}

func TestRouteFinder(t *testing.T) {
	router := New(Config{}, memory.NewCatalog(), nil).Router()
	find := RouteFinder(router)

	tests := []struct {
		method, path, want string
		ok                 bool
	}{
		{http.MethodGet, "/api/orders/abc", "/api/orders/{id}", true},
		{http.MethodPost, "/api/orders", "/api/orders", true},
		{http.MethodGet, "/api/restaurants/rest-1/menu", "/api/restaurants/{id}/menu", true},
		{http.MethodGet, "/api", "/api", true},
		{http.MethodGet, "/nope", "", false},
		{http.MethodDelete, "/api/orders", "", false},
	}
	for _, tt := range tests {
		route, ok := find(httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.ok, ok, "%s %s", tt.method, tt.path)
		assert.Equal(t, tt.want, route, "%s %s", tt.method, tt.path)
	}
}

package order

import (
	"context"
	"sync"
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/food-ordering-api/internal/domain/catalog"
)

// --- Mock implementations ---

type mockMenu struct {
	mu     sync.Mutex
	byID   map[string]catalog.MenuItem
	getErr error
	calls  map[string]int
}

func newMenu(items ...catalog.MenuItem) *mockMenu {
	byID := make(map[string]catalog.MenuItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}
	return &mockMenu{byID: byID, calls: make(map[string]int)}
}

func (m *mockMenu) GetMenuItem(_ context.Context, id string) (*catalog.MenuItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls[id]++
	if m.getErr != nil {
		return nil, m.getErr
	}
	item, ok := m.byID[id]
	if !ok {
		return nil, catalog.ErrMenuItemNotFound
	}
	return &item, nil
}

func (m *mockMenu) setPrice(id, price string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	item := m.byID[id]
	item.Price = decimal.RequireFromString(price)
	m.byID[id] = item
}

type mockOrderRepo struct {
	mu        sync.Mutex
	orders    map[string]Order
	items     map[string][]LineItem
	createErr error
	listErr   error
}

func newOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders: make(map[string]Order),
		items:  make(map[string][]LineItem),
	}
}

func (m *mockOrderRepo) Create(_ context.Context, o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}
	stored := *o
	stored.Items = nil
	m.orders[o.ID] = stored
	m.items[o.ID] = append([]LineItem(nil), o.Items...)
	return nil
}

func (m *mockOrderRepo) GetByID(_ context.Context, id string) (*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &o, nil
}

func (m *mockOrderRepo) ListItems(_ context.Context, orderID string) ([]LineItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.listErr != nil {
		return nil, m.listErr
	}
	return append([]LineItem(nil), m.items[orderID]...), nil
}

// --- Helpers ---

func newTestItem(id, name, price string) catalog.MenuItem {
	return catalog.MenuItem{
		ID:           id,
		RestaurantID: "rest-1",
		Name:         name,
		Description:  name + " description",
		Price:        decimal.RequireFromString(price),
		Category:     "test",
		ImageURL:     id + ".jpg",
		Available:    true,
	}
}

func testCustomer() Customer {
	return Customer{Name: "A", Email: "a@x.com", Phone: "1", Address: "addr"}
}

func newTestService(t *testing.T, menu MenuLookup, orders Repository) *Service {
	t.Helper()

	svc, err := NewService(Config{DeliveryFee: decimal.RequireFromString("2.99")}, menu, orders)
	require.NoError(t, err)
	return svc
}

// --- Tests ---

func TestCreate_Scenario(t *testing.T) {
	menu := newMenu(newTestItem("item-1", "Margherita Pizza", "16.99"))
	repo := newOrderRepo()
	svc := newTestService(t, menu, repo)

	o, err := svc.Create(context.Background(), CreateRequest{
		Customer:         testCustomer(),
		Items:            []ItemRequest{{MenuItemID: "item-1", Quantity: 2}},
		DeliveryPlatform: "UberEats",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, o.ID)
	assert.True(t, decimal.RequireFromString("33.98").Equal(o.TotalAmount), "total %s", o.TotalAmount)
	assert.True(t, decimal.RequireFromString("2.99").Equal(o.DeliveryFee))
	assert.Equal(t, StatusPending, o.Status)
	assert.Equal(t, "UberEats", o.DeliveryPlatform)
	assert.False(t, o.CreatedAt.IsZero())

	require.Len(t, o.Items, 1)
	li := o.Items[0]
	assert.Equal(t, o.ID, li.OrderID)
	assert.NotEmpty(t, li.ID)
	assert.NotEqual(t, o.ID, li.ID)
	assert.Equal(t, 2, li.Quantity)
	assert.True(t, decimal.RequireFromString("16.99").Equal(li.Price))

	assert.Contains(t, repo.orders, o.ID)
	assert.Len(t, repo.items[o.ID], 1)
}

func TestCreate_TotalIsSumOfLines(t *testing.T) {
	menu := newMenu(
		newTestItem("a", "A", "16.99"),
		newTestItem("b", "B", "0.10"),
		newTestItem("c", "C", "4.99"),
	)
	svc := newTestService(t, menu, newOrderRepo())

	o, err := svc.Create(context.Background(), CreateRequest{
		Customer: testCustomer(),
		Items: []ItemRequest{
			{MenuItemID: "a", Quantity: 3},
			{MenuItemID: "b", Quantity: 7},
			{MenuItemID: "c", Quantity: 1},
			{MenuItemID: "a", Quantity: 1},
		},
		DeliveryPlatform: "DoorDash",
	})
	require.NoError(t, err)

	// 16.99*3 + 0.10*7 + 4.99 + 16.99 = 50.97 + 0.70 + 4.99 + 16.99
	assert.True(t, decimal.RequireFromString("73.65").Equal(o.TotalAmount), "total %s", o.TotalAmount)

	sum := decimal.Zero
	for _, li := range o.Items {
		sum = sum.Add(li.Total())
	}
	assert.True(t, sum.Equal(o.TotalAmount))
	assert.Len(t, o.Items, 4, "duplicate menu items stay separate lines")
	assert.Equal(t, 1, menu.calls["a"], "each distinct item is looked up once")
}

func TestCreate_MissingFields(t *testing.T) {
	valid := CreateRequest{
		Customer:         testCustomer(),
		Items:            []ItemRequest{{MenuItemID: "item-1", Quantity: 1}},
		DeliveryPlatform: "UberEats",
	}

	tests := []struct {
		name   string
		mutate func(r *CreateRequest)
	}{
		{name: "no customer", mutate: func(r *CreateRequest) { r.Customer = Customer{} }},
		{name: "blank customer email", mutate: func(r *CreateRequest) { r.Customer.Email = "  " }},
		{name: "no items", mutate: func(r *CreateRequest) { r.Items = nil }},
		{name: "empty items", mutate: func(r *CreateRequest) { r.Items = []ItemRequest{} }},
		{name: "no delivery platform", mutate: func(r *CreateRequest) { r.DeliveryPlatform = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newOrderRepo()
			svc := newTestService(t, newMenu(newTestItem("item-1", "X", "1.00")), repo)

			req := valid
			req.Items = append([]ItemRequest(nil), valid.Items...)
			tt.mutate(&req)

			_, err := svc.Create(context.Background(), req)
			require.ErrorIs(t, err, ErrMissingFields)
			assert.True(t, IsInvalidRequest(err))
			assert.Empty(t, repo.orders)
		})
	}
}

func TestCreate_InvalidItems(t *testing.T) {
	tests := []struct {
		name      string
		item      ItemRequest
		wantField string
	}{
		{name: "zero quantity", item: ItemRequest{MenuItemID: "item-1", Quantity: 0}, wantField: "quantity"},
		{name: "negative quantity", item: ItemRequest{MenuItemID: "item-1", Quantity: -2}, wantField: "quantity"},
		{name: "empty menu item id", item: ItemRequest{Quantity: 1}, wantField: "menu_item_id"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(t, newMenu(newTestItem("item-1", "X", "1.00")), newOrderRepo())

			_, err := svc.Create(context.Background(), CreateRequest{
				Customer:         testCustomer(),
				Items:            []ItemRequest{tt.item},
				DeliveryPlatform: "UberEats",
			})

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, tt.wantField, vErr.Field)
		})
	}
}

func TestCreate_UnknownMenuItem(t *testing.T) {
	repo := newOrderRepo()
	svc := newTestService(t, newMenu(newTestItem("item-1", "X", "1.00")), repo)

	_, err := svc.Create(context.Background(), CreateRequest{
		Customer: testCustomer(),
		Items: []ItemRequest{
			{MenuItemID: "item-1", Quantity: 1},
			{MenuItemID: "missing", Quantity: 1},
		},
		DeliveryPlatform: "UberEats",
	})

	var nfErr *MenuItemNotFoundError
	require.ErrorAs(t, err, &nfErr)
	assert.Equal(t, "missing", nfErr.MenuItemID)
	assert.True(t, IsInvalidRequest(err))
	assert.Empty(t, repo.orders, "nothing is persisted")
}

func TestCreate_UnavailableMenuItem(t *testing.T) {
	item := newTestItem("item-1", "X", "1.00")
	item.Available = false
	svc := newTestService(t, newMenu(item), newOrderRepo())

	_, err := svc.Create(context.Background(), CreateRequest{
		Customer:         testCustomer(),
		Items:            []ItemRequest{{MenuItemID: "item-1", Quantity: 1}},
		DeliveryPlatform: "UberEats",
	})

	var unErr *MenuItemUnavailableError
	require.ErrorAs(t, err, &unErr)
	assert.Equal(t, "item-1", unErr.MenuItemID)
}

func TestCreate_CatalogError(t *testing.T) {
	menu := newMenu(newTestItem("item-1", "X", "1.00"))
	menu.getErr = errors.New("connection refused")
	svc := newTestService(t, menu, newOrderRepo())

	_, err := svc.Create(context.Background(), CreateRequest{
		Customer:         testCustomer(),
		Items:            []ItemRequest{{MenuItemID: "item-1", Quantity: 1}},
		DeliveryPlatform: "UberEats",
	})

	require.Error(t, err)
	assert.False(t, IsInvalidRequest(err))
	assert.Contains(t, err.Error(), "connection refused")
}

func TestCreate_RepositoryError(t *testing.T) {
	repo := newOrderRepo()
	repo.createErr = errors.New("db write failed")
	svc := newTestService(t, newMenu(newTestItem("item-1", "X", "1.00")), repo)

	_, err := svc.Create(context.Background(), CreateRequest{
		Customer:         testCustomer(),
		Items:            []ItemRequest{{MenuItemID: "item-1", Quantity: 1}},
		DeliveryPlatform: "UberEats",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "create order")
	assert.False(t, IsInvalidRequest(err))
}

func TestCreate_TwoIdenticalRequestsMakeTwoOrders(t *testing.T) {
	repo := newOrderRepo()
	svc := newTestService(t, newMenu(newTestItem("item-1", "X", "1.00")), repo)

	req := CreateRequest{
		Customer:         testCustomer(),
		Items:            []ItemRequest{{MenuItemID: "item-1", Quantity: 1}},
		DeliveryPlatform: "UberEats",
	}
	o1, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	o2, err := svc.Create(context.Background(), req)
	require.NoError(t, err)

	assert.NotEqual(t, o1.ID, o2.ID)
	assert.Len(t, repo.orders, 2)
}

func TestGet_JoinsCatalogAndKeepsCapturedPrice(t *testing.T) {
	menu := newMenu(
		newTestItem("item-1", "Margherita Pizza", "16.99"),
		newTestItem("item-3", "Caesar Salad", "12.99"),
	)
	svc := newTestService(t, menu, newOrderRepo())
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRequest{
		Customer: testCustomer(),
		Items: []ItemRequest{
			{MenuItemID: "item-1", Quantity: 2},
			{MenuItemID: "item-3", Quantity: 1},
		},
		DeliveryPlatform: "UberEats",
	})
	require.NoError(t, err)

	// Catalog price change after creation must not leak into the order.
	menu.setPrice("item-1", "99.00")

	d, err := svc.Get(ctx, created.ID)
	require.NoError(t, err)

	assert.Equal(t, created.ID, d.Order.ID)
	assert.Equal(t, StatusPending, d.Order.Status)
	assert.True(t, created.TotalAmount.Equal(d.Order.TotalAmount))
	require.Len(t, d.Items, 2)

	assert.Equal(t, "item-1", d.Items[0].MenuItemID)
	assert.Equal(t, "Margherita Pizza", d.Items[0].Name)
	assert.Equal(t, "Margherita Pizza description", d.Items[0].Description)
	assert.Equal(t, "item-1.jpg", d.Items[0].ImageURL)
	assert.True(t, decimal.RequireFromString("16.99").Equal(d.Items[0].Price))
	assert.Equal(t, 2, d.Items[0].Quantity)

	assert.Equal(t, "Caesar Salad", d.Items[1].Name)
}

func TestGet_NotFound(t *testing.T) {
	svc := newTestService(t, newMenu(), newOrderRepo())

	_, err := svc.Get(context.Background(), "nope")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestGet_NoItems(t *testing.T) {
	repo := newOrderRepo()
	repo.orders["o1"] = Order{ID: "o1", Status: StatusPending}
	svc := newTestService(t, newMenu(), repo)

	d, err := svc.Get(context.Background(), "o1")
	require.NoError(t, err)
	assert.NotNil(t, d.Items)
	assert.Empty(t, d.Items)
}

func TestGet_MenuItemRemovedFromCatalog(t *testing.T) {
	repo := newOrderRepo()
	repo.orders["o1"] = Order{ID: "o1", Status: StatusPending}
	repo.items["o1"] = []LineItem{{
		ID: "li1", OrderID: "o1", MenuItemID: "gone", Quantity: 1,
		Price: decimal.RequireFromString("5.00"),
	}}
	svc := newTestService(t, newMenu(), repo)

	d, err := svc.Get(context.Background(), "o1")
	require.NoError(t, err)
	require.Len(t, d.Items, 1)
	assert.Empty(t, d.Items[0].Name)
	assert.True(t, decimal.RequireFromString("5.00").Equal(d.Items[0].Price))
}

func TestGet_RepositoryError(t *testing.T) {
	repo := newOrderRepo()
	repo.orders["o1"] = Order{ID: "o1"}
	repo.listErr = errors.New("timeout")
	svc := newTestService(t, newMenu(), repo)

	_, err := svc.Get(context.Background(), "o1")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "timeout")
}

func TestNewService_NegativeFee(t *testing.T) {
	_, err := NewService(Config{DeliveryFee: decimal.RequireFromString("-1")}, newMenu(), newOrderRepo())
	require.Error(t, err)
}

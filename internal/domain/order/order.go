package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order.
type Status string

// StatusPending is the state of every newly created order.
const StatusPending Status = "pending"

// Customer is a snapshot of the buyer's contact details taken at order time.
type Customer struct {
	Name    string
	Email   string
	Phone   string
	Address string
}

// Order is a placed customer order.
type Order struct {
	ID               string
	Customer         Customer
	TotalAmount      decimal.Decimal
	DeliveryFee      decimal.Decimal
	DeliveryPlatform string
	Status           Status
	CreatedAt        time.Time
	// Items is populated on create; GetByID leaves it empty.
	Items []LineItem
}

// LineItem is one ordered menu item with the price captured at order time.
type LineItem struct {
	ID         string
	OrderID    string
	MenuItemID string
	Quantity   int
	Price      decimal.Decimal
}

// Total returns quantity × captured price.
func (li LineItem) Total() decimal.Decimal {
	return li.Price.Mul(decimal.NewFromInt(int64(li.Quantity)))
}

// DetailedItem is a line item joined with the current catalog display fields.
type DetailedItem struct {
	LineItem
	Name        string
	Description string
	ImageURL    string
}

// Details is an order together with its resolved line items.
type Details struct {
	Order Order
	Items []DetailedItem
}

// Repository defines persistence operations for orders.
type Repository interface {
	// Create persists the order and all of o.Items as one unit: either
	// everything is stored or nothing is.
	Create(ctx context.Context, o *Order) error
	// GetByID returns ErrNotFound when no order has the given id.
	GetByID(ctx context.Context, id string) (*Order, error)
	// ListItems returns the line items of an order in submission order.
	ListItems(ctx context.Context, orderID string) ([]LineItem, error)
}

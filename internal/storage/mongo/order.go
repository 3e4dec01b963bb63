package mongo

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/xenking/food-ordering-api/internal/domain/order"
)

const compensateTimeout = 5 * time.Second

type orderDoc struct {
	ID               string               `bson:"_id"`
	CustomerName     string               `bson:"customer_name"`
	CustomerEmail    string               `bson:"customer_email"`
	CustomerPhone    string               `bson:"customer_phone"`
	CustomerAddress  string               `bson:"customer_address"`
	TotalAmount      primitive.Decimal128 `bson:"total_amount"`
	DeliveryFee      primitive.Decimal128 `bson:"delivery_fee"`
	DeliveryPlatform string               `bson:"delivery_platform"`
	Status           string               `bson:"status"`
	CreatedAt        time.Time            `bson:"created_at"`
}

type orderItemDoc struct {
	ID         string               `bson:"_id"`
	OrderID    string               `bson:"order_id"`
	Position   int                  `bson:"position"`
	MenuItemID string               `bson:"menu_item_id"`
	Quantity   int                  `bson:"quantity"`
	Price      primitive.Decimal128 `bson:"price"`
}

func newOrderDocs(o *order.Order) (orderDoc, []any, error) {
	total, err := toDecimal128(o.TotalAmount)
	if err != nil {
		return orderDoc{}, nil, err
	}
	fee, err := toDecimal128(o.DeliveryFee)
	if err != nil {
		return orderDoc{}, nil, err
	}
	doc := orderDoc{
		ID:               o.ID,
		CustomerName:     o.Customer.Name,
		CustomerEmail:    o.Customer.Email,
		CustomerPhone:    o.Customer.Phone,
		CustomerAddress:  o.Customer.Address,
		TotalAmount:      total,
		DeliveryFee:      fee,
		DeliveryPlatform: o.DeliveryPlatform,
		Status:           string(o.Status),
		CreatedAt:        o.CreatedAt,
	}

	items := make([]any, len(o.Items))
	for i, li := range o.Items {
		price, err := toDecimal128(li.Price)
		if err != nil {
			return orderDoc{}, nil, err
		}
		items[i] = orderItemDoc{
			ID:         li.ID,
			OrderID:    o.ID,
			Position:   i,
			MenuItemID: li.MenuItemID,
			Quantity:   li.Quantity,
			Price:      price,
		}
	}
	return doc, items, nil
}

func (d orderDoc) toDomain() (order.Order, error) {
	total, err := fromDecimal128(d.TotalAmount)
	if err != nil {
		return order.Order{}, err
	}
	fee, err := fromDecimal128(d.DeliveryFee)
	if err != nil {
		return order.Order{}, err
	}
	return order.Order{
		ID: d.ID,
		Customer: order.Customer{
			Name:    d.CustomerName,
			Email:   d.CustomerEmail,
			Phone:   d.CustomerPhone,
			Address: d.CustomerAddress,
		},
		TotalAmount:      total,
		DeliveryFee:      fee,
		DeliveryPlatform: d.DeliveryPlatform,
		Status:           order.Status(d.Status),
		CreatedAt:        d.CreatedAt.UTC(),
	}, nil
}

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by MongoDB.
type OrderRepository struct {
	orders *mongo.Collection
	items  *mongo.Collection
}

// NewOrderRepository returns an OrderRepository over db.
func NewOrderRepository(db *mongo.Database) *OrderRepository {
	return &OrderRepository{
		orders: db.Collection(ordersCollection),
		items:  db.Collection(orderItemsCollection),
	}
}

// Create inserts the order document and then its line items. When the line
// items cannot be written, the partial order is removed so readers never see
// an order without its items.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	doc, items, err := newOrderDocs(o)
	if err != nil {
		return err
	}

	if _, err := r.orders.InsertOne(ctx, doc); err != nil {
		return errors.Wrapf(err, "insert order %q", o.ID)
	}
	if len(items) == 0 {
		return nil
	}
	if _, err := r.items.InsertMany(ctx, items); err != nil {
		r.compensate(ctx, o.ID)
		return errors.Wrapf(err, "insert items of order %q", o.ID)
	}
	return nil
}

func (r *OrderRepository) compensate(ctx context.Context, orderID string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensateTimeout)
	defer cancel()

	lg := zctx.From(ctx).With(zap.String("order_id", orderID))
	if _, err := r.items.DeleteMany(ctx, bson.M{"order_id": orderID}); err != nil {
		lg.Error("Remove partial order items", zap.Error(err))
	}
	if _, err := r.orders.DeleteOne(ctx, bson.M{"_id": orderID}); err != nil {
		lg.Error("Remove partial order", zap.Error(err))
	}
}

// GetByID returns order.ErrNotFound when no order has the given id.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	var doc orderDoc
	if err := r.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	o, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// ListItems returns the line items of an order in submission order.
func (r *OrderRepository) ListItems(ctx context.Context, orderID string) ([]order.LineItem, error) {
	opts := options.Find().SetSort(bson.D{{Key: "position", Value: 1}})
	cur, err := r.items.Find(ctx, bson.M{"order_id": orderID}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "find items of order %q", orderID)
	}
	var docs []orderItemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode order items")
	}

	out := make([]order.LineItem, 0, len(docs))
	for _, d := range docs {
		price, err := fromDecimal128(d.Price)
		if err != nil {
			return nil, err
		}
		out = append(out, order.LineItem{
			ID:         d.ID,
			OrderID:    d.OrderID,
			MenuItemID: d.MenuItemID,
			Quantity:   d.Quantity,
			Price:      price,
		})
	}
	return out, nil
}

package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/food-ordering-api/internal/domain/catalog"
)

const defaultLookupConcurrency = 8

// MenuLookup resolves menu items by id. It returns catalog.ErrMenuItemNotFound
// for unknown ids.
type MenuLookup interface {
	GetMenuItem(ctx context.Context, id string) (*catalog.MenuItem, error)
}

// Config holds order service settings.
type Config struct {
	// DeliveryFee is applied to every order regardless of restaurant.
	DeliveryFee decimal.Decimal
	// LookupConcurrency bounds parallel catalog lookups per request.
	LookupConcurrency int

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// ItemRequest is one requested line of a new order.
type ItemRequest struct {
	MenuItemID string
	Quantity   int
}

// CreateRequest holds the input for placing an order.
type CreateRequest struct {
	Customer         Customer
	Items            []ItemRequest
	DeliveryPlatform string
}

// Service implements order creation and retrieval.
type Service struct {
	menu        MenuLookup
	orders      Repository
	deliveryFee decimal.Decimal
	concurrency int

	now   func() time.Time
	newID func() string

	tracer  trace.Tracer
	created metric.Int64Counter
	amount  metric.Float64Counter
}

// NewService creates an order Service.
func NewService(cfg Config, menu MenuLookup, orders Repository) (*Service, error) {
	if cfg.DeliveryFee.IsNegative() {
		return nil, errors.New("delivery fee must not be negative")
	}
	if cfg.LookupConcurrency <= 0 {
		cfg.LookupConcurrency = defaultLookupConcurrency
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = tracenoop.NewTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = metricnoop.NewMeterProvider()
	}

	meter := cfg.MeterProvider.Meter("food-ordering-api/order")
	created, err := meter.Int64Counter("orders.created",
		metric.WithDescription("Number of orders created"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.created counter")
	}
	amount, err := meter.Float64Counter("orders.amount",
		metric.WithDescription("Sum of order totals, delivery fee excluded"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "orders.amount counter")
	}

	return &Service{
		menu:        menu,
		orders:      orders,
		deliveryFee: cfg.DeliveryFee,
		concurrency: cfg.LookupConcurrency,
		now:         func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
		newID:       func() string { return uuid.New().String() },
		tracer:      cfg.TracerProvider.Tracer("food-ordering-api/order"),
		created:     created,
		amount:      amount,
	}, nil
}

func (r CreateRequest) validate() error {
	c := r.Customer
	if blank(c.Name) || blank(c.Email) || blank(c.Phone) || blank(c.Address) ||
		len(r.Items) == 0 || blank(r.DeliveryPlatform) {
		return ErrMissingFields
	}
	for _, item := range r.Items {
		if blank(item.MenuItemID) {
			return &ValidationError{Field: "menu_item_id", Reason: "must not be empty"}
		}
		if item.Quantity <= 0 {
			return &ValidationError{
				Field:  "quantity",
				Reason: "must be greater than 0 for menu item " + item.MenuItemID,
			}
		}
	}
	return nil
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Create validates the request, prices every line against the catalog,
// persists the order with its line items and returns it.
func (s *Service) Create(ctx context.Context, req CreateRequest) (_ *Order, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Create",
		trace.WithAttributes(
			attribute.Int("order.items", len(req.Items)),
			attribute.String("order.delivery_platform", req.DeliveryPlatform),
		),
	)
	defer func() { endSpan(span, rerr) }()

	if err := req.validate(); err != nil {
		return nil, err
	}

	ids := make([]string, len(req.Items))
	for i, item := range req.Items {
		ids[i] = item.MenuItemID
	}
	menu, err := s.resolve(ctx, ids, false)
	if err != nil {
		return nil, err
	}

	o := &Order{
		ID:               s.newID(),
		Customer:         req.Customer,
		DeliveryFee:      s.deliveryFee,
		DeliveryPlatform: req.DeliveryPlatform,
		Status:           StatusPending,
		CreatedAt:        s.now(),
		Items:            make([]LineItem, len(req.Items)),
	}
	total := decimal.Zero
	for i, item := range req.Items {
		mi := menu[item.MenuItemID]
		if !mi.Available {
			return nil, &MenuItemUnavailableError{MenuItemID: item.MenuItemID}
		}
		li := LineItem{
			ID:         s.newID(),
			OrderID:    o.ID,
			MenuItemID: item.MenuItemID,
			Quantity:   item.Quantity,
			Price:      mi.Price,
		}
		o.Items[i] = li
		total = total.Add(li.Total())
	}
	o.TotalAmount = total

	if err := s.orders.Create(ctx, o); err != nil {
		return nil, errors.Wrap(err, "create order")
	}

	platform := attribute.String("delivery_platform", o.DeliveryPlatform)
	s.created.Add(ctx, 1, metric.WithAttributes(platform))
	s.amount.Add(ctx, o.TotalAmount.InexactFloat64(), metric.WithAttributes(platform))

	zctx.From(ctx).Info("Order created",
		zap.String("order_id", o.ID),
		zap.Int("items", len(o.Items)),
		zap.Stringer("total_amount", o.TotalAmount),
		zap.String("delivery_platform", o.DeliveryPlatform),
	)
	return o, nil
}

// Get returns an order with its line items joined to the current catalog
// display fields. Line prices are the ones captured at creation time.
func (s *Service) Get(ctx context.Context, id string) (_ *Details, rerr error) {
	ctx, span := s.tracer.Start(ctx, "order.Get",
		trace.WithAttributes(attribute.String("order.id", id)),
	)
	defer func() { endSpan(span, rerr) }()

	var (
		o     *Order
		items []LineItem
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		o, err = s.orders.GetByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.orders.ListItems(gctx, id)
		if err != nil {
			return errors.Wrap(err, "list items")
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %s", id)
	}

	ids := make([]string, len(items))
	for i, li := range items {
		ids[i] = li.MenuItemID
	}
	menu, err := s.resolve(ctx, ids, true)
	if err != nil {
		return nil, err
	}

	d := &Details{
		Order: *o,
		Items: make([]DetailedItem, len(items)),
	}
	for i, li := range items {
		di := DetailedItem{LineItem: li}
		if mi, ok := menu[li.MenuItemID]; ok {
			di.Name = mi.Name
			di.Description = mi.Description
			di.ImageURL = mi.ImageURL
		}
		d.Items[i] = di
	}
	return d, nil
}

// resolve looks up each distinct menu item id concurrently. With
// skipMissing, unknown ids are left out of the result; otherwise the first
// unknown id fails the call with MenuItemNotFoundError.
func (s *Service) resolve(ctx context.Context, ids []string, skipMissing bool) (map[string]*catalog.MenuItem, error) {
	seen := make(map[string]struct{}, len(ids))
	distinct := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		distinct = append(distinct, id)
	}

	found := make([]*catalog.MenuItem, len(distinct))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range distinct {
		g.Go(func() error {
			mi, err := s.menu.GetMenuItem(gctx, id)
			switch {
			case err == nil:
				found[i] = mi
				return nil
			case errors.Is(err, catalog.ErrMenuItemNotFound):
				if skipMissing {
					return nil
				}
				return &MenuItemNotFoundError{MenuItemID: id}
			default:
				return errors.Wrapf(err, "get menu item %s", id)
			}
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make(map[string]*catalog.MenuItem, len(distinct))
	for i, mi := range found {
		if mi != nil {
			out[distinct[i]] = mi
		}
	}
	return out, nil
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

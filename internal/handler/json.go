package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/food-ordering-api/internal/domain/catalog"
	"github.com/xenking/food-ordering-api/internal/domain/order"
)

func writeJSON(w http.ResponseWriter, status int, body func(e *jx.Encoder)) {
	var e jx.Encoder
	body(&e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("error", func(e *jx.Encoder) { e.Str(msg) })
		})
	})
}

// money writes d as a JSON number with its exact decimal digits.
func money(e *jx.Encoder, d decimal.Decimal) {
	e.Num(jx.Num(d.String()))
}

func str(e *jx.Encoder, name, v string) {
	e.FieldStart(name)
	e.Str(v)
}

func encodeRestaurant(e *jx.Encoder, r catalog.Restaurant) {
	e.ObjStart()
	str(e, "id", r.ID)
	str(e, "name", r.Name)
	str(e, "show_type", r.ShowType)
	str(e, "delivery_platform", r.DeliveryPlatform)
	e.FieldStart("rating")
	e.Float64(r.Rating)
	str(e, "delivery_time", r.DeliveryTime)
	e.FieldStart("delivery_fee")
	money(e, r.DeliveryFee)
	str(e, "image_url", r.ImageURL)
	str(e, "address", r.Address)
	str(e, "phone", r.Phone)
	e.ObjEnd()
}

func encodeRestaurants(e *jx.Encoder, rs []catalog.Restaurant) {
	e.Obj(func(e *jx.Encoder) {
		e.FieldStart("restaurants")
		e.ArrStart()
		for _, r := range rs {
			encodeRestaurant(e, r)
		}
		e.ArrEnd()
	})
}

func encodeMenuItem(e *jx.Encoder, m catalog.MenuItem) {
	e.ObjStart()
	str(e, "id", m.ID)
	str(e, "restaurant_id", m.RestaurantID)
	str(e, "name", m.Name)
	str(e, "description", m.Description)
	e.FieldStart("price")
	money(e, m.Price)
	str(e, "category", m.Category)
	str(e, "image_url", m.ImageURL)
	e.FieldStart("available")
	e.Bool(m.Available)
	e.ObjEnd()
}

func encodeOrderDetails(e *jx.Encoder, d *order.Details) {
	o := d.Order
	e.ObjStart()
	str(e, "id", o.ID)
	str(e, "customer_name", o.Customer.Name)
	str(e, "customer_email", o.Customer.Email)
	str(e, "customer_phone", o.Customer.Phone)
	str(e, "customer_address", o.Customer.Address)
	e.FieldStart("total_amount")
	money(e, o.TotalAmount)
	e.FieldStart("delivery_fee")
	money(e, o.DeliveryFee)
	str(e, "delivery_platform", o.DeliveryPlatform)
	str(e, "status", string(o.Status))
	str(e, "created_at", o.CreatedAt.UTC().Format(time.RFC3339Nano))

	e.FieldStart("items")
	e.ArrStart()
	for _, item := range d.Items {
		e.ObjStart()
		str(e, "id", item.ID)
		str(e, "order_id", item.OrderID)
		str(e, "menu_item_id", item.MenuItemID)
		e.FieldStart("quantity")
		e.Int(item.Quantity)
		e.FieldStart("price")
		money(e, item.Price)
		str(e, "name", item.Name)
		str(e, "description", item.Description)
		str(e, "image_url", item.ImageURL)
		e.ObjEnd()
	}
	e.ArrEnd()
	e.ObjEnd()
}

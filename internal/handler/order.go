package handler

import (
	"bytes"
	"io"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/xenking/food-ordering-api/internal/domain/catalog"
	"github.com/xenking/food-ordering-api/internal/domain/order"
)

var errInvalidBody = errors.New("invalid request body")

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		h.fail(w, r, errors.Wrap(err, "read body"))
		return
	}

	req, err := decodeCreateOrder(data)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	o, err := h.orders.Create(r.Context(), req)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			str(e, "order_id", o.ID)
			e.FieldStart("total_amount")
			money(e, o.TotalAmount)
			e.FieldStart("delivery_fee")
			money(e, o.DeliveryFee)
			str(e, "status", string(o.Status))
			str(e, "message", "Order created successfully")
		})
	})
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	d, err := h.orders.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.FieldStart("order")
			encodeOrderDetails(e, d)
		})
	})
}

// decodeCreateOrder parses {customer:{...}, items:[...], delivery_platform}.
// Absent or null fields are left zero for the service to reject. An empty
// body is treated as a request with every field missing.
func decodeCreateOrder(data []byte) (order.CreateRequest, error) {
	var req order.CreateRequest
	if len(bytes.TrimSpace(data)) == 0 {
		return req, nil
	}

	d := jx.DecodeBytes(data)
	if d.Next() != jx.Object {
		return req, errInvalidBody
	}
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		switch key {
		case "customer":
			return decodeCustomer(d, &req.Customer)
		case "items":
			return d.Arr(func(d *jx.Decoder) error {
				item, err := decodeItem(d)
				if err != nil {
					return err
				}
				req.Items = append(req.Items, item)
				return nil
			})
		case "delivery_platform":
			v, err := d.Str()
			req.DeliveryPlatform = v
			return err
		default:
			return d.Skip()
		}
	})
	if err != nil {
		return req, errors.Wrap(errInvalidBody, err.Error())
	}
	return req, nil
}

func decodeCustomer(d *jx.Decoder, c *order.Customer) error {
	return d.Obj(func(d *jx.Decoder, key string) error {
		var field *string
		switch key {
		case "name":
			field = &c.Name
		case "email":
			field = &c.Email
		case "phone":
			field = &c.Phone
		case "address":
			field = &c.Address
		default:
			return d.Skip()
		}
		if d.Next() == jx.Null {
			return d.Null()
		}
		v, err := d.Str()
		*field = v
		return err
	})
}

func decodeItem(d *jx.Decoder) (order.ItemRequest, error) {
	var item order.ItemRequest
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if d.Next() == jx.Null {
			return d.Null()
		}
		var err error
		switch key {
		case "menu_item_id":
			item.MenuItemID, err = d.Str()
		case "quantity":
			item.Quantity, err = d.Int()
		default:
			err = d.Skip()
		}
		return err
	})
	return item, err
}

// fail maps domain errors to HTTP responses.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, order.ErrMissingFields):
		writeError(w, http.StatusBadRequest, "Missing required fields")
	case errors.Is(err, errInvalidBody):
		writeError(w, http.StatusBadRequest, "Invalid request body")
	case order.IsInvalidRequest(err):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound):
		writeError(w, http.StatusNotFound, "Order not found")
	case errors.Is(err, catalog.ErrRestaurantNotFound):
		writeError(w, http.StatusNotFound, "Restaurant not found")
	default:
		zctx.From(r.Context()).Error("Request failed",
			zap.String("path", r.URL.Path),
			zap.Error(err),
		)
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

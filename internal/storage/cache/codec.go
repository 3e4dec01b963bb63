package cache

import (
	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/shopspring/decimal"

	"github.com/xenking/food-ordering-api/internal/domain/catalog"
)

func encodeMenuItem(m *catalog.MenuItem) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("id")
	e.Str(m.ID)
	e.FieldStart("restaurant_id")
	e.Str(m.RestaurantID)
	e.FieldStart("name")
	e.Str(m.Name)
	e.FieldStart("description")
	e.Str(m.Description)
	e.FieldStart("price")
	e.Str(m.Price.String())
	e.FieldStart("category")
	e.Str(m.Category)
	e.FieldStart("image_url")
	e.Str(m.ImageURL)
	e.FieldStart("available")
	e.Bool(m.Available)
	e.ObjEnd()
	return e.Bytes()
}

func decodeMenuItem(raw []byte) (*catalog.MenuItem, error) {
	var m catalog.MenuItem
	err := jx.DecodeBytes(raw).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			m.ID, err = d.Str()
		case "restaurant_id":
			m.RestaurantID, err = d.Str()
		case "name":
			m.Name, err = d.Str()
		case "description":
			m.Description, err = d.Str()
		case "price":
			m.Price, err = decodeDecimal(d)
		case "category":
			m.Category, err = d.Str()
		case "image_url":
			m.ImageURL, err = d.Str()
		case "available":
			m.Available, err = d.Bool()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode menu item")
	}
	if m.ID == "" {
		return nil, errors.New("decode menu item: missing id")
	}
	return &m, nil
}

func encodeRestaurant(r *catalog.Restaurant) []byte {
	var e jx.Encoder
	e.ObjStart()
	e.FieldStart("id")
	e.Str(r.ID)
	e.FieldStart("name")
	e.Str(r.Name)
	e.FieldStart("show_type")
	e.Str(r.ShowType)
	e.FieldStart("delivery_platform")
	e.Str(r.DeliveryPlatform)
	e.FieldStart("rating")
	e.Float64(r.Rating)
	e.FieldStart("delivery_time")
	e.Str(r.DeliveryTime)
	e.FieldStart("delivery_fee")
	e.Str(r.DeliveryFee.String())
	e.FieldStart("image_url")
	e.Str(r.ImageURL)
	e.FieldStart("address")
	e.Str(r.Address)
	e.FieldStart("phone")
	e.Str(r.Phone)
	e.ObjEnd()
	return e.Bytes()
}

func decodeRestaurant(raw []byte) (*catalog.Restaurant, error) {
	var r catalog.Restaurant
	err := jx.DecodeBytes(raw).Obj(func(d *jx.Decoder, key string) error {
		var err error
		switch key {
		case "id":
			r.ID, err = d.Str()
		case "name":
			r.Name, err = d.Str()
		case "show_type":
			r.ShowType, err = d.Str()
		case "delivery_platform":
			r.DeliveryPlatform, err = d.Str()
		case "rating":
			r.Rating, err = d.Float64()
		case "delivery_time":
			r.DeliveryTime, err = d.Str()
		case "delivery_fee":
			r.DeliveryFee, err = decodeDecimal(d)
		case "image_url":
			r.ImageURL, err = d.Str()
		case "address":
			r.Address, err = d.Str()
		case "phone":
			r.Phone, err = d.Str()
		default:
			err = d.Skip()
		}
		if err != nil {
			return errors.Wrap(err, key)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "decode restaurant")
	}
	if r.ID == "" {
		return nil, errors.New("decode restaurant: missing id")
	}
	return &r, nil
}

func decodeDecimal(d *jx.Decoder) (decimal.Decimal, error) {
	s, err := d.Str()
	if err != nil {
		return decimal.Decimal{}, err
	}
	return decimal.NewFromString(s)
}

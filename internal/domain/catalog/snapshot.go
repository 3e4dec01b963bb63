package catalog

import (
	"context"
	"encoding/json"
	"io"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Snapshot is a full copy of catalog data, used for seeding stores.
type Snapshot struct {
	Restaurants []Restaurant
	MenuItems   []MenuItem
}

// Seeder loads a snapshot into a store. Records that already exist are left
// untouched.
type Seeder interface {
	SeedCatalog(ctx context.Context, s Snapshot) error
}

type snapshotJSON struct {
	Restaurants []restaurantJSON `json:"restaurants"`
	MenuItems   []menuItemJSON   `json:"menu_items"`
}

type restaurantJSON struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	ShowType         string          `json:"show_type"`
	DeliveryPlatform string          `json:"delivery_platform"`
	Rating           float64         `json:"rating"`
	DeliveryTime     string          `json:"delivery_time"`
	DeliveryFee      decimal.Decimal `json:"delivery_fee"`
	ImageURL         string          `json:"image_url"`
	Address          string          `json:"address"`
	Phone            string          `json:"phone"`
}

type menuItemJSON struct {
	ID           string          `json:"id"`
	RestaurantID string          `json:"restaurant_id"`
	Name         string          `json:"name"`
	Description  string          `json:"description"`
	Price        decimal.Decimal `json:"price"`
	Category     string          `json:"category"`
	ImageURL     string          `json:"image_url"`
	Available    *bool           `json:"available"`
}

// ReadSnapshot decodes a JSON catalog document. Menu items without an
// explicit "available" flag are treated as available.
func ReadSnapshot(r io.Reader) (*Snapshot, error) {
	var raw snapshotJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decode catalog")
	}

	s := &Snapshot{
		Restaurants: make([]Restaurant, 0, len(raw.Restaurants)),
		MenuItems:   make([]MenuItem, 0, len(raw.MenuItems)),
	}
	restaurants := make(map[string]struct{}, len(raw.Restaurants))
	for _, r := range raw.Restaurants {
		if r.ID == "" {
			return nil, errors.New("restaurant without id")
		}
		restaurants[r.ID] = struct{}{}
		s.Restaurants = append(s.Restaurants, Restaurant(r))
	}
	for _, m := range raw.MenuItems {
		if m.ID == "" {
			return nil, errors.New("menu item without id")
		}
		if _, ok := restaurants[m.RestaurantID]; !ok {
			return nil, errors.Errorf("menu item %s references unknown restaurant %q", m.ID, m.RestaurantID)
		}
		if m.Price.IsNegative() {
			return nil, errors.Errorf("menu item %s has negative price", m.ID)
		}
		available := true
		if m.Available != nil {
			available = *m.Available
		}
		s.MenuItems = append(s.MenuItems, MenuItem{
			ID:           m.ID,
			RestaurantID: m.RestaurantID,
			Name:         m.Name,
			Description:  m.Description,
			Price:        m.Price,
			Category:     m.Category,
			ImageURL:     m.ImageURL,
			Available:    available,
		})
	}
	return s, nil
}

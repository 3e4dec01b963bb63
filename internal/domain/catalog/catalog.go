// Package catalog holds the restaurant and menu reference data that orders
// are priced against.
package catalog

import (
	"context"
	"sort"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

var (
	// ErrRestaurantNotFound is returned when a requested restaurant does not exist.
	ErrRestaurantNotFound = errors.New("restaurant not found")
	// ErrMenuItemNotFound is returned when a requested menu item does not exist.
	ErrMenuItemNotFound = errors.New("menu item not found")
)

// Restaurant is a venue listed by the aggregator.
type Restaurant struct {
	ID               string
	Name             string
	ShowType         string
	DeliveryPlatform string
	Rating           float64
	DeliveryTime     string
	DeliveryFee      decimal.Decimal
	ImageURL         string
	Address          string
	Phone            string
}

// MenuItem is a dish offered by a restaurant.
type MenuItem struct {
	ID           string
	RestaurantID string
	Name         string
	Description  string
	Price        decimal.Decimal
	Category     string
	ImageURL     string
	Available    bool
}

// SearchFilter narrows a restaurant search. Empty fields are ignored.
type SearchFilter struct {
	// Query matches restaurant name or show type, case-insensitively, as a
	// literal substring.
	Query string
	// Show matches the show type exactly.
	Show string
	// Platform matches the delivery platform exactly.
	Platform string
}

// Match reports whether r satisfies the filter.
func (f SearchFilter) Match(r Restaurant) bool {
	if f.Query != "" {
		q := strings.ToLower(f.Query)
		if !strings.Contains(strings.ToLower(r.Name), q) &&
			!strings.Contains(strings.ToLower(r.ShowType), q) {
			return false
		}
	}
	if f.Show != "" && r.ShowType != f.Show {
		return false
	}
	if f.Platform != "" && r.DeliveryPlatform != f.Platform {
		return false
	}
	return true
}

// Repository defines read operations for the catalog.
type Repository interface {
	// ListRestaurants returns all restaurants, highest rating first.
	ListRestaurants(ctx context.Context) ([]Restaurant, error)
	// GetRestaurant returns ErrRestaurantNotFound when id is unknown.
	GetRestaurant(ctx context.Context, id string) (*Restaurant, error)
	// SearchRestaurants returns restaurants matching f, highest rating first.
	SearchRestaurants(ctx context.Context, f SearchFilter) ([]Restaurant, error)
	// ListMenu returns the available items of a restaurant ordered by
	// category, then name.
	ListMenu(ctx context.Context, restaurantID string) ([]MenuItem, error)
	// GetMenuItem returns ErrMenuItemNotFound when id is unknown.
	GetMenuItem(ctx context.Context, id string) (*MenuItem, error)
}

// Category is a named group of menu items.
type Category struct {
	Name  string
	Items []MenuItem
}

// GroupByCategory groups items by category. Categories are returned in
// lexical order and items within each category are sorted by name.
func GroupByCategory(items []MenuItem) []Category {
	idx := make(map[string]int)
	var groups []Category
	for _, item := range items {
		i, ok := idx[item.Category]
		if !ok {
			i = len(groups)
			idx[item.Category] = i
			groups = append(groups, Category{Name: item.Category})
		}
		groups[i].Items = append(groups[i].Items, item)
	}

	sort.Slice(groups, func(i, j int) bool { return groups[i].Name < groups[j].Name })
	for _, g := range groups {
		sort.SliceStable(g.Items, func(i, j int) bool { return g.Items[i].Name < g.Items[j].Name })
	}
	return groups
}

// SortByRating orders restaurants by rating, highest first. Ties keep their
// relative order.
func SortByRating(restaurants []Restaurant) {
	sort.SliceStable(restaurants, func(i, j int) bool {
		return restaurants[i].Rating > restaurants[j].Rating
	})
}

// Package memory provides in-process catalog and order stores for local runs
// and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/xenking/food-ordering-api/internal/domain/catalog"
)

var (
	_ catalog.Repository = (*Catalog)(nil)
	_ catalog.Seeder     = (*Catalog)(nil)
)

// Catalog is a concurrency-safe in-memory catalog.Repository.
type Catalog struct {
	mu          sync.RWMutex
	restaurants map[string]catalog.Restaurant
	items       map[string]catalog.MenuItem
}

// NewCatalog returns an empty Catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		restaurants: make(map[string]catalog.Restaurant),
		items:       make(map[string]catalog.MenuItem),
	}
}

// SeedCatalog inserts restaurants and menu items whose ids are not yet known.
func (c *Catalog) SeedCatalog(_ context.Context, s catalog.Snapshot) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, r := range s.Restaurants {
		if _, ok := c.restaurants[r.ID]; !ok {
			c.restaurants[r.ID] = r
		}
	}
	for _, item := range s.MenuItems {
		if _, ok := c.items[item.ID]; !ok {
			c.items[item.ID] = item
		}
	}
	return nil
}

// PutMenuItem inserts or replaces a menu item.
func (c *Catalog) PutMenuItem(item catalog.MenuItem) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[item.ID] = item
}

// DeleteMenuItem removes a menu item if present.
func (c *Catalog) DeleteMenuItem(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, id)
}

// ListRestaurants returns all restaurants, highest rating first.
func (c *Catalog) ListRestaurants(_ context.Context) ([]catalog.Restaurant, error) {
	return c.filterRestaurants(catalog.SearchFilter{}), nil
}

// GetRestaurant returns a single restaurant by id.
func (c *Catalog) GetRestaurant(_ context.Context, id string) (*catalog.Restaurant, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.restaurants[id]
	if !ok {
		return nil, catalog.ErrRestaurantNotFound
	}
	return &r, nil
}

// SearchRestaurants returns the restaurants matching f, highest rating first.
func (c *Catalog) SearchRestaurants(_ context.Context, f catalog.SearchFilter) ([]catalog.Restaurant, error) {
	return c.filterRestaurants(f), nil
}

func (c *Catalog) filterRestaurants(f catalog.SearchFilter) []catalog.Restaurant {
	c.mu.RLock()
	out := make([]catalog.Restaurant, 0, len(c.restaurants))
	for _, r := range c.restaurants {
		if f.Match(r) {
			out = append(out, r)
		}
	}
	c.mu.RUnlock()

	// Map iteration is random; fix the order before the stable rating sort.
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	catalog.SortByRating(out)
	return out
}

// ListMenu returns the available items of a restaurant ordered by category,
// then name.
func (c *Catalog) ListMenu(_ context.Context, restaurantID string) ([]catalog.MenuItem, error) {
	c.mu.RLock()
	out := make([]catalog.MenuItem, 0)
	for _, item := range c.items {
		if item.RestaurantID == restaurantID && item.Available {
			out = append(out, item)
		}
	}
	c.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GetMenuItem returns a single menu item by id.
func (c *Catalog) GetMenuItem(_ context.Context, id string) (*catalog.MenuItem, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	item, ok := c.items[id]
	if !ok {
		return nil, catalog.ErrMenuItemNotFound
	}
	return &item, nil
}

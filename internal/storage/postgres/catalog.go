package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/xenking/food-ordering-api/internal/domain/catalog"
)

const (
	restaurantColumns = `id, name, show_type, delivery_platform, rating, delivery_time,
		delivery_fee, image_url, address, phone`

	listRestaurantsSQL = `SELECT ` + restaurantColumns + `
		FROM restaurants ORDER BY rating DESC, id`

	getRestaurantSQL = `SELECT ` + restaurantColumns + `
		FROM restaurants WHERE id = $1`

	searchRestaurantsSQL = `SELECT ` + restaurantColumns + `
		FROM restaurants
		WHERE (name ILIKE $1 ESCAPE '\' OR show_type ILIKE $1 ESCAPE '\')
			AND ($2 = '' OR show_type = $2)
			AND ($3 = '' OR delivery_platform = $3)
		ORDER BY rating DESC, id`

	menuItemColumns = `id, restaurant_id, name, description, price, category, image_url, available`

	listMenuSQL = `SELECT ` + menuItemColumns + `
		FROM menu_items WHERE restaurant_id = $1 AND available
		ORDER BY category, name, id`

	getMenuItemSQL = `SELECT ` + menuItemColumns + `
		FROM menu_items WHERE id = $1`

	seedRestaurantSQL = `INSERT INTO restaurants (` + restaurantColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO NOTHING`

	seedMenuItemSQL = `INSERT INTO menu_items (` + menuItemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING`
)

var (
	_ catalog.Repository = (*CatalogRepository)(nil)
	_ catalog.Seeder     = (*CatalogRepository)(nil)
)

// CatalogRepository implements catalog.Repository backed by PostgreSQL.
type CatalogRepository struct {
	pool *pgxpool.Pool
}

// NewCatalogRepository returns a CatalogRepository that uses the given pool.
func NewCatalogRepository(pool *pgxpool.Pool) *CatalogRepository {
	return &CatalogRepository{pool: pool}
}

// ListRestaurants returns all restaurants, highest rating first.
func (r *CatalogRepository) ListRestaurants(ctx context.Context) ([]catalog.Restaurant, error) {
	rows, err := r.pool.Query(ctx, listRestaurantsSQL)
	if err != nil {
		return nil, fmt.Errorf("listing restaurants: %w", err)
	}
	return pgx.CollectRows(rows, scanRestaurant)
}

// GetRestaurant returns a single restaurant by id.
func (r *CatalogRepository) GetRestaurant(ctx context.Context, id string) (*catalog.Restaurant, error) {
	rows, err := r.pool.Query(ctx, getRestaurantSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting restaurant %q: %w", id, err)
	}

	rest, err := pgx.CollectExactlyOneRow(rows, scanRestaurant)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("getting restaurant %q: %w", id, err)
	}
	return &rest, nil
}

// SearchRestaurants returns restaurants matching f, highest rating first.
func (r *CatalogRepository) SearchRestaurants(ctx context.Context, f catalog.SearchFilter) ([]catalog.Restaurant, error) {
	pattern := "%" + escapeLike(f.Query) + "%"
	rows, err := r.pool.Query(ctx, searchRestaurantsSQL, pattern, f.Show, f.Platform)
	if err != nil {
		return nil, fmt.Errorf("searching restaurants: %w", err)
	}
	return pgx.CollectRows(rows, scanRestaurant)
}

// ListMenu returns the available items of a restaurant.
func (r *CatalogRepository) ListMenu(ctx context.Context, restaurantID string) ([]catalog.MenuItem, error) {
	rows, err := r.pool.Query(ctx, listMenuSQL, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("listing menu of %q: %w", restaurantID, err)
	}
	return pgx.CollectRows(rows, scanMenuItem)
}

// GetMenuItem returns a single menu item by id, available or not.
func (r *CatalogRepository) GetMenuItem(ctx context.Context, id string) (*catalog.MenuItem, error) {
	rows, err := r.pool.Query(ctx, getMenuItemSQL, id)
	if err != nil {
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}

	item, err := pgx.CollectExactlyOneRow(rows, scanMenuItem)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, catalog.ErrMenuItemNotFound
		}
		return nil, fmt.Errorf("getting menu item %q: %w", id, err)
	}
	return &item, nil
}

// SeedCatalog inserts the snapshot in one transaction, leaving existing rows
// untouched.
func (r *CatalogRepository) SeedCatalog(ctx context.Context, s catalog.Snapshot) error {
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, rest := range s.Restaurants {
			batch.Queue(seedRestaurantSQL,
				rest.ID, rest.Name, rest.ShowType, rest.DeliveryPlatform, rest.Rating,
				rest.DeliveryTime, rest.DeliveryFee, rest.ImageURL, rest.Address, rest.Phone,
			)
		}
		for _, item := range s.MenuItems {
			batch.Queue(seedMenuItemSQL,
				item.ID, item.RestaurantID, item.Name, item.Description, item.Price,
				item.Category, item.ImageURL, item.Available,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("seeding catalog: %w", err)
		}
		return nil
	})
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// escapeLike makes s match literally inside an ILIKE pattern.
func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

func scanRestaurant(row pgx.CollectableRow) (catalog.Restaurant, error) {
	var r catalog.Restaurant
	err := row.Scan(
		&r.ID, &r.Name, &r.ShowType, &r.DeliveryPlatform, &r.Rating,
		&r.DeliveryTime, &r.DeliveryFee, &r.ImageURL, &r.Address, &r.Phone,
	)
	return r, err
}

func scanMenuItem(row pgx.CollectableRow) (catalog.MenuItem, error) {
	var item catalog.MenuItem
	err := row.Scan(
		&item.ID, &item.RestaurantID, &item.Name, &item.Description, &item.Price,
		&item.Category, &item.ImageURL, &item.Available,
	)
	return item, err
}

package mongo

import (
	"context"
	"regexp"

	"github.com/go-faster/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xenking/food-ordering-api/internal/domain/catalog"
)

type restaurantDoc struct {
	ID               string               `bson:"_id"`
	Name             string               `bson:"name"`
	ShowType         string               `bson:"show_type"`
	DeliveryPlatform string               `bson:"delivery_platform"`
	Rating           float64              `bson:"rating"`
	DeliveryTime     string               `bson:"delivery_time"`
	DeliveryFee      primitive.Decimal128 `bson:"delivery_fee"`
	ImageURL         string               `bson:"image_url"`
	Address          string               `bson:"address"`
	Phone            string               `bson:"phone"`
}

func (d restaurantDoc) toDomain() (catalog.Restaurant, error) {
	fee, err := fromDecimal128(d.DeliveryFee)
	if err != nil {
		return catalog.Restaurant{}, err
	}
	return catalog.Restaurant{
		ID:               d.ID,
		Name:             d.Name,
		ShowType:         d.ShowType,
		DeliveryPlatform: d.DeliveryPlatform,
		Rating:           d.Rating,
		DeliveryTime:     d.DeliveryTime,
		DeliveryFee:      fee,
		ImageURL:         d.ImageURL,
		Address:          d.Address,
		Phone:            d.Phone,
	}, nil
}

func newRestaurantDoc(r catalog.Restaurant) (restaurantDoc, error) {
	fee, err := toDecimal128(r.DeliveryFee)
	if err != nil {
		return restaurantDoc{}, err
	}
	return restaurantDoc{
		ID:               r.ID,
		Name:             r.Name,
		ShowType:         r.ShowType,
		DeliveryPlatform: r.DeliveryPlatform,
		Rating:           r.Rating,
		DeliveryTime:     r.DeliveryTime,
		DeliveryFee:      fee,
		ImageURL:         r.ImageURL,
		Address:          r.Address,
		Phone:            r.Phone,
	}, nil
}

type menuItemDoc struct {
	ID           string               `bson:"_id"`
	RestaurantID string               `bson:"restaurant_id"`
	Name         string               `bson:"name"`
	Description  string               `bson:"description"`
	Price        primitive.Decimal128 `bson:"price"`
	Category     string               `bson:"category"`
	ImageURL     string               `bson:"image_url"`
	Available    bool                 `bson:"available"`
}

func (d menuItemDoc) toDomain() (catalog.MenuItem, error) {
	price, err := fromDecimal128(d.Price)
	if err != nil {
		return catalog.MenuItem{}, err
	}
	return catalog.MenuItem{
		ID:           d.ID,
		RestaurantID: d.RestaurantID,
		Name:         d.Name,
		Description:  d.Description,
		Price:        price,
		Category:     d.Category,
		ImageURL:     d.ImageURL,
		Available:    d.Available,
	}, nil
}

func newMenuItemDoc(m catalog.MenuItem) (menuItemDoc, error) {
	price, err := toDecimal128(m.Price)
	if err != nil {
		return menuItemDoc{}, err
	}
	return menuItemDoc{
		ID:           m.ID,
		RestaurantID: m.RestaurantID,
		Name:         m.Name,
		Description:  m.Description,
		Price:        price,
		Category:     m.Category,
		ImageURL:     m.ImageURL,
		Available:    m.Available,
	}, nil
}

var (
	_ catalog.Repository = (*CatalogRepository)(nil)
	_ catalog.Seeder     = (*CatalogRepository)(nil)
)

// CatalogRepository implements catalog.Repository backed by MongoDB.
type CatalogRepository struct {
	restaurants *mongo.Collection
	items       *mongo.Collection
}

// NewCatalogRepository returns a CatalogRepository over db.
func NewCatalogRepository(db *mongo.Database) *CatalogRepository {
	return &CatalogRepository{
		restaurants: db.Collection(restaurantsCollection),
		items:       db.Collection(menuItemsCollection),
	}
}

var byRating = options.Find().SetSort(bson.D{{Key: "rating", Value: -1}, {Key: "_id", Value: 1}})

// ListRestaurants returns all restaurants, highest rating first.
func (r *CatalogRepository) ListRestaurants(ctx context.Context) ([]catalog.Restaurant, error) {
	return r.findRestaurants(ctx, bson.M{})
}

// SearchRestaurants returns restaurants matching f, highest rating first.
func (r *CatalogRepository) SearchRestaurants(ctx context.Context, f catalog.SearchFilter) ([]catalog.Restaurant, error) {
	return r.findRestaurants(ctx, searchQuery(f))
}

func searchQuery(f catalog.SearchFilter) bson.M {
	q := bson.M{}
	if f.Query != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Query), Options: "i"}
		q["$or"] = bson.A{
			bson.M{"name": re},
			bson.M{"show_type": re},
		}
	}
	if f.Show != "" {
		q["show_type"] = f.Show
	}
	if f.Platform != "" {
		q["delivery_platform"] = f.Platform
	}
	return q
}

func (r *CatalogRepository) findRestaurants(ctx context.Context, filter bson.M) ([]catalog.Restaurant, error) {
	cur, err := r.restaurants.Find(ctx, filter, byRating)
	if err != nil {
		return nil, errors.Wrap(err, "find restaurants")
	}
	var docs []restaurantDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode restaurants")
	}

	out := make([]catalog.Restaurant, 0, len(docs))
	for _, d := range docs {
		rest, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, rest)
	}
	return out, nil
}

// GetRestaurant returns a single restaurant by id.
func (r *CatalogRepository) GetRestaurant(ctx context.Context, id string) (*catalog.Restaurant, error) {
	var doc restaurantDoc
	if err := r.restaurants.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalog.ErrRestaurantNotFound
		}
		return nil, errors.Wrapf(err, "get restaurant %q", id)
	}
	rest, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &rest, nil
}

// ListMenu returns the available items of a restaurant ordered by category,
// then name.
func (r *CatalogRepository) ListMenu(ctx context.Context, restaurantID string) ([]catalog.MenuItem, error) {
	opts := options.Find().SetSort(bson.D{
		{Key: "category", Value: 1},
		{Key: "name", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := r.items.Find(ctx, bson.M{"restaurant_id": restaurantID, "available": true}, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "find menu of %q", restaurantID)
	}
	var docs []menuItemDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrap(err, "decode menu items")
	}

	out := make([]catalog.MenuItem, 0, len(docs))
	for _, d := range docs {
		item, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, item)
	}
	return out, nil
}

// GetMenuItem returns a single menu item by id, available or not.
func (r *CatalogRepository) GetMenuItem(ctx context.Context, id string) (*catalog.MenuItem, error) {
	var doc menuItemDoc
	if err := r.items.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, catalog.ErrMenuItemNotFound
		}
		return nil, errors.Wrapf(err, "get menu item %q", id)
	}
	item, err := doc.toDomain()
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SeedCatalog upserts the snapshot with $setOnInsert so existing documents
// keep their current values.
func (r *CatalogRepository) SeedCatalog(ctx context.Context, s catalog.Snapshot) error {
	if len(s.Restaurants) > 0 {
		models := make([]mongo.WriteModel, 0, len(s.Restaurants))
		for _, rest := range s.Restaurants {
			doc, err := newRestaurantDoc(rest)
			if err != nil {
				return err
			}
			models = append(models, insertIfAbsent(doc.ID, doc))
		}
		if _, err := r.restaurants.BulkWrite(ctx, models); err != nil {
			return errors.Wrap(err, "seed restaurants")
		}
	}
	if len(s.MenuItems) > 0 {
		models := make([]mongo.WriteModel, 0, len(s.MenuItems))
		for _, item := range s.MenuItems {
			doc, err := newMenuItemDoc(item)
			if err != nil {
				return err
			}
			models = append(models, insertIfAbsent(doc.ID, doc))
		}
		if _, err := r.items.BulkWrite(ctx, models); err != nil {
			return errors.Wrap(err, "seed menu items")
		}
	}
	return nil
}

func insertIfAbsent(id string, doc any) mongo.WriteModel {
	return mongo.NewUpdateOneModel().
		SetFilter(bson.M{"_id": id}).
		SetUpdate(bson.M{"$setOnInsert": doc}).
		SetUpsert(true)
}

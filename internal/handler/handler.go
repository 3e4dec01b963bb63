// Package handler implements the HTTP API on top of the catalog and order
// domain packages.
package handler

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/xenking/food-ordering-api/internal/domain/catalog"
	"github.com/xenking/food-ordering-api/internal/domain/order"
	"github.com/xenking/food-ordering-api/pkg/httpmiddleware"
)

const (
	apiVersion          = "1.0.0"
	defaultMaxBodyBytes = 1 << 20
)

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// MaxBodyBytes caps request bodies. Defaults to 1 MiB.
	MaxBodyBytes int64
}

// Handler serves the /api routes.
type Handler struct {
	catalog      catalog.Repository
	orders       *order.Service
	maxBodyBytes int64
}

// New constructs a Handler with the required domain dependencies.
func New(cfg Config, restaurants catalog.Repository, orders *order.Service) *Handler {
	if cfg.MaxBodyBytes <= 0 {
		cfg.MaxBodyBytes = defaultMaxBodyBytes
	}
	return &Handler{
		catalog:      restaurants,
		orders:       orders,
		maxBodyBytes: cfg.MaxBodyBytes,
	}
}

// Router returns a router serving every /api route. Unknown paths and
// methods get JSON errors.
func (h *Handler) Router() *mux.Router {
	notFound := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})
	notAllowed := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	r := mux.NewRouter()
	r.NotFoundHandler = notFound
	r.MethodNotAllowedHandler = notAllowed

	// Method mismatches under a subrouter never reach the root handlers.
	api := r.PathPrefix("/api").Subrouter()
	api.NotFoundHandler = notFound
	api.MethodNotAllowedHandler = notAllowed
	api.HandleFunc("", h.index).Methods(http.MethodGet)
	api.HandleFunc("/health", h.health).Methods(http.MethodGet)
	api.HandleFunc("/restaurants", h.listRestaurants).Methods(http.MethodGet)
	api.HandleFunc("/restaurants/{id}", h.getRestaurant).Methods(http.MethodGet)
	api.HandleFunc("/restaurants/{id}/menu", h.getMenu).Methods(http.MethodGet)
	api.HandleFunc("/orders", h.createOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders/{id}", h.getOrder).Methods(http.MethodGet)
	api.HandleFunc("/search", h.search).Methods(http.MethodGet)
	return r
}

// RouteFinder resolves requests to the path template of the matching route.
func RouteFinder(r *mux.Router) httpmiddleware.RouteFinder {
	return func(req *http.Request) (string, bool) {
		var match mux.RouteMatch
		if !r.Match(req, &match) || match.MatchErr != nil || match.Route == nil {
			return "", false
		}
		tpl, err := match.Route.GetPathTemplate()
		if err != nil {
			return "", false
		}
		return tpl, true
	}
}

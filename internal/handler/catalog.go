package handler

import (
	"net/http"

	"github.com/go-faster/jx"
	"github.com/gorilla/mux"

	"github.com/xenking/food-ordering-api/internal/domain/catalog"
)

var endpoints = [][2]string{
	{"health", "/api/health"},
	{"restaurants", "/api/restaurants"},
	{"restaurant", "/api/restaurants/{id}"},
	{"menu", "/api/restaurants/{id}/menu"},
	{"orders", "/api/orders"},
	{"search", "/api/search"},
}

func (h *Handler) index(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			str(e, "message", "Food Ordering API")
			str(e, "version", apiVersion)
			e.Field("endpoints", func(e *jx.Encoder) {
				e.ObjStart()
				for _, ep := range endpoints {
					str(e, ep[0], ep[1])
				}
				e.ObjEnd()
			})
		})
	})
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			str(e, "status", "OK")
			str(e, "message", "Food Ordering API is running")
		})
	})
}

func (h *Handler) listRestaurants(w http.ResponseWriter, r *http.Request) {
	rs, err := h.catalog.ListRestaurants(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeRestaurants(e, rs) })
}

func (h *Handler) getRestaurant(w http.ResponseWriter, r *http.Request) {
	rest, err := h.catalog.GetRestaurant(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.FieldStart("restaurant")
			encodeRestaurant(e, *rest)
		})
	})
}

// getMenu returns {"menu": {category: [items]}}. Unknown restaurants yield an
// empty menu.
func (h *Handler) getMenu(w http.ResponseWriter, r *http.Request) {
	items, err := h.catalog.ListMenu(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, err)
		return
	}
	groups := catalog.GroupByCategory(items)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.FieldStart("menu")
			e.ObjStart()
			for _, g := range groups {
				e.FieldStart(g.Name)
				e.ArrStart()
				for _, item := range g.Items {
					encodeMenuItem(e, item)
				}
				e.ArrEnd()
			}
			e.ObjEnd()
		})
	})
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	rs, err := h.catalog.SearchRestaurants(r.Context(), catalog.SearchFilter{
		Query:    q.Get("q"),
		Show:     q.Get("show"),
		Platform: q.Get("platform"),
	})
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) { encodeRestaurants(e, rs) })
}

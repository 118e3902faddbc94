package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"sort"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/mapsearch/pkg/listing"
)

// PhotoStore looks up the photos of a single listing.
type PhotoStore interface {
	ListingPhotos(ctx context.Context, listingKey string) ([]listing.Photo, error)
}

type PhotosDeps struct {
	Store PhotoStore
	Log   *slog.Logger
}

func RegisterPhotos(r chi.Router, d PhotosDeps) {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	r.Get("/api/listings/{listingKey}/photos", func(w http.ResponseWriter, req *http.Request) {
		key := chi.URLParam(req, "listingKey")
		if key == "" {
			writeError(w, req, http.StatusBadRequest, "listing key required")
			return
		}
		photos, err := d.Store.ListingPhotos(req.Context(), key)
		if err != nil {
			d.Log.Error("photo lookup failed", "listing_key", key, "err", err)
			writeError(w, req, http.StatusInternalServerError, "failed to load photos")
			return
		}
		sort.SliceStable(photos, func(i, j int) bool {
			if photos[i].Primary != photos[j].Primary {
				return photos[i].Primary
			}
			return photos[i].Order < photos[j].Order
		})
		if photos == nil {
			photos = []listing.Photo{}
		}
		render.JSON(w, req, map[string]any{"listingKey": key, "count": len(photos), "photos": photos})
	})
}

package httpapi

import (
	"errors"
	"net/http"

	"github.com/go-chi/render"

	"github.com/yourorg/mapsearch/pkg/filters"
	"github.com/yourorg/mapsearch/pkg/geo"
)

// isClientError reports whether err came from request validation.
func isClientError(err error) bool {
	return errors.Is(err, geo.ErrInvalidZoom) ||
		errors.Is(err, geo.ErrInvalidTile) ||
		errors.Is(err, geo.ErrInvalidBounds) ||
		errors.Is(err, filters.ErrInvalidFilter)
}

func writeError(w http.ResponseWriter, req *http.Request, status int, msg string) {
	w.Header().Set("Cache-Control", "no-store")
	render.Status(req, status)
	render.JSON(w, req, map[string]any{"error": msg})
}

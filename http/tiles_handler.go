package httpapi

import (
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/mapsearch/internal/metrics"
	"github.com/yourorg/mapsearch/internal/tiles"
	"github.com/yourorg/mapsearch/pkg/filters"
	"github.com/yourorg/mapsearch/pkg/geo"
)

type TilesDeps struct {
	Querier      tiles.Querier
	CacheControl string
	Log          *slog.Logger
}

const TilePath = "/api/map/tiles/{z}/{x}/{y}"

func RegisterTiles(r chi.Router, d TilesDeps) {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	r.Get(TilePath, func(w http.ResponseWriter, req *http.Request) {
		tileReq, err := parseTileRequest(req)
		if err != nil {
			d.Log.Debug("rejected tile request", "path", req.URL.Path, "err", err)
			metrics.TileRequestsTotal.WithLabelValues("400").Inc()
			writeError(w, req, http.StatusBadRequest, err.Error())
			return
		}

		resp, err := d.Querier.Execute(req.Context(), tileReq)
		if err != nil {
			if isClientError(err) {
				metrics.TileRequestsTotal.WithLabelValues("400").Inc()
				writeError(w, req, http.StatusBadRequest, err.Error())
				return
			}
			metrics.TileRequestsTotal.WithLabelValues("500").Inc()
			writeError(w, req, http.StatusInternalServerError, "failed to load listings")
			return
		}

		if d.CacheControl != "" {
			w.Header().Set("Cache-Control", d.CacheControl)
		}
		metrics.TileRequestsTotal.WithLabelValues("200").Inc()
		render.JSON(w, req, resp)
	})
}

func parseTileRequest(req *http.Request) (tiles.Request, error) {
	tile, err := geo.ParseTile(chi.URLParam(req, "z"), chi.URLParam(req, "x"), chi.URLParam(req, "y"))
	if err != nil {
		return tiles.Request{}, err
	}
	q := req.URL.Query()
	bounds, err := parseBoundsOverride(q)
	if err != nil {
		return tiles.Request{}, err
	}
	f, err := filters.ParseQuery(q)
	if err != nil {
		return tiles.Request{}, err
	}
	return tiles.Request{Tile: tile, Bounds: bounds, Filters: f}, nil
}

// parseBoundsOverride reads north/south/east/west. All four or none.
func parseBoundsOverride(q url.Values) (*geo.Bounds, error) {
	names := []string{"north", "south", "east", "west"}
	vals := make([]float64, len(names))
	present := 0
	for i, n := range names {
		raw := q.Get(n)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf("%w: %s=%q is not a number", geo.ErrInvalidBounds, n, raw)
		}
		vals[i] = v
		present++
	}
	switch present {
	case 0:
		return nil, nil
	case len(names):
		b := geo.Bounds{North: vals[0], South: vals[1], East: vals[2], West: vals[3]}
		if err := b.Validate(); err != nil {
			return nil, err
		}
		return &b, nil
	default:
		return nil, fmt.Errorf("%w: north, south, east and west must be given together", geo.ErrInvalidBounds)
	}
}

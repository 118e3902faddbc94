package httpapi

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/yourorg/mapsearch/internal/metrics"
	"github.com/yourorg/mapsearch/internal/tiles"
	"github.com/yourorg/mapsearch/pkg/listing"
)

// ClusterQuerier answers cluster requests for a tile.
type ClusterQuerier interface {
	Clusters(ctx context.Context, req tiles.Request) (listing.ClusterResponse, error)
}

type ClustersDeps struct {
	Querier      ClusterQuerier
	CacheControl string
	Log          *slog.Logger
}

const ClusterPath = "/api/map/clusters/{z}/{x}/{y}"

// RegisterClusters takes the same path and query parameters as the tile
// endpoint.
func RegisterClusters(r chi.Router, d ClustersDeps) {
	if d.Log == nil {
		d.Log = slog.Default()
	}
	r.Get(ClusterPath, func(w http.ResponseWriter, req *http.Request) {
		tileReq, err := parseTileRequest(req)
		if err != nil {
			d.Log.Debug("rejected cluster request", "path", req.URL.Path, "err", err)
			metrics.ClusterRequestsTotal.WithLabelValues("400").Inc()
			writeError(w, req, http.StatusBadRequest, err.Error())
			return
		}

		resp, err := d.Querier.Clusters(req.Context(), tileReq)
		if err != nil {
			if isClientError(err) {
				metrics.ClusterRequestsTotal.WithLabelValues("400").Inc()
				writeError(w, req, http.StatusBadRequest, err.Error())
				return
			}
			metrics.ClusterRequestsTotal.WithLabelValues("500").Inc()
			writeError(w, req, http.StatusInternalServerError, "failed to load clusters")
			return
		}

		if d.CacheControl != "" {
			w.Header().Set("Cache-Control", d.CacheControl)
		}
		metrics.ClusterRequestsTotal.WithLabelValues("200").Inc()
		render.JSON(w, req, resp)
	})
}

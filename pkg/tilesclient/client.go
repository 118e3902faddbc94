// Package tilesclient fetches map tiles from the tile endpoint.
package tilesclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/yourorg/mapsearch/pkg/filters"
	"github.com/yourorg/mapsearch/pkg/geo"
	"github.com/yourorg/mapsearch/pkg/listing"
)

const maxBody = 16 << 20

// APIError is a non-2xx response from the tile endpoint.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("tile endpoint returned %d: %s", e.Status, e.Message)
}

type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

type Option func(*Client)

// WithRetries enables automatic retries. The default is none: a failed
// fetch is reported to the caller as is.
func WithRetries(n int) Option { return func(c *Client) { c.http.RetryMax = n } }

func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.HTTPClient.Timeout = d }
}

func WithLogger(l *slog.Logger) Option { return func(c *Client) { c.http.Logger = l } }

func New(baseURL string, opts ...Option) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryWaitMin = 100 * time.Millisecond
	rc.RetryWaitMax = 900 * time.Millisecond
	rc.RetryMax = 0
	rc.HTTPClient.Timeout = 15 * time.Second
	rc.Logger = nil
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{baseURL: strings.TrimRight(baseURL, "/"), http: rc}
	for _, o := range opts {
		o(c)
	}
	return c
}

// FetchViewport requests the tile under the viewport center, constrained to
// the viewport's own bounds.
func (c *Client) FetchViewport(ctx context.Context, v geo.Viewport, f filters.FilterSet) (listing.TileResponse, error) {
	if err := v.Validate(); err != nil {
		return listing.TileResponse{}, err
	}
	b := v.Bounds
	return c.FetchTile(ctx, v.CenterTile(), &b, f)
}

// FetchTile requests a single tile. bounds may be nil.
func (c *Client) FetchTile(ctx context.Context, t geo.Tile, bounds *geo.Bounds, f filters.FilterSet) (listing.TileResponse, error) {
	q := f.Values()
	if bounds != nil {
		setBounds(q, *bounds)
	}
	u := fmt.Sprintf("%s/api/map/tiles/%d/%d/%d", c.baseURL, t.Z, t.X, t.Y)
	if enc := q.Encode(); enc != "" {
		u += "?" + enc
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return listing.TileResponse{}, err
	}
	req.Header.Set("accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return listing.TileResponse{}, err
	}
	defer resp.Body.Close()
	body := io.LimitReader(resp.Body, maxBody)
	if resp.StatusCode >= 400 {
		var e struct {
			Error string `json:"error"`
		}
		_ = json.NewDecoder(body).Decode(&e)
		if e.Error == "" {
			e.Error = http.StatusText(resp.StatusCode)
		}
		return listing.TileResponse{}, &APIError{Status: resp.StatusCode, Message: e.Error}
	}

	var out listing.TileResponse
	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return listing.TileResponse{}, fmt.Errorf("decode tile response: %w", err)
	}
	return out, nil
}

func setBounds(q url.Values, b geo.Bounds) {
	f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
	q.Set("north", f(b.North))
	q.Set("south", f(b.South))
	q.Set("east", f(b.East))
	q.Set("west", f(b.West))
}

package main

import (
	"fmt"
	"io"
	"net/url"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yourorg/mapsearch/pkg/filters"
	"github.com/yourorg/mapsearch/pkg/geo"
)

// Step is one scripted map interaction.
type Step struct {
	North   float64           `yaml:"north"`
	South   float64           `yaml:"south"`
	East    float64           `yaml:"east"`
	West    float64           `yaml:"west"`
	Zoom    int               `yaml:"zoom"`
	Filters map[string]string `yaml:"filters"`
	Wait    time.Duration     `yaml:"wait"`
}

type step struct {
	viewport geo.Viewport
	filters  filters.FilterSet
	wait     time.Duration
}

// parseScript reads a YAML list of steps. Filters use the tile endpoint's
// query parameter names.
func parseScript(r io.Reader, defaultWait time.Duration) ([]step, error) {
	var raw []Step
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode script: %w", err)
	}
	out := make([]step, 0, len(raw))
	for i, s := range raw {
		v := geo.Viewport{Bounds: geo.Bounds{North: s.North, South: s.South, East: s.East, West: s.West}, Zoom: s.Zoom}
		if err := v.Validate(); err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		q := url.Values{}
		for k, val := range s.Filters {
			q.Set(k, val)
		}
		f, err := filters.ParseQuery(q)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		wait := s.Wait
		if wait <= 0 {
			wait = defaultWait
		}
		out = append(out, step{viewport: v, filters: f, wait: wait})
	}
	return out, nil
}

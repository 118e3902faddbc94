// Command viewport-probe replays a scripted sequence of map moves against a
// running tile server and reports what the load coordinator decides.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/yourorg/mapsearch/internal/env"
	"github.com/yourorg/mapsearch/internal/logger"
	"github.com/yourorg/mapsearch/pkg/loader"
	"github.com/yourorg/mapsearch/pkg/tilesclient"
)

func main() {
	_ = godotenv.Load()
	base := flag.String("server", env.Get("PROBE_SERVER", "http://localhost:8080"), "tile server base URL")
	script := flag.String("script", "viewports.yaml", "YAML script of viewports")
	wait := flag.Duration("wait", 1500*time.Millisecond, "default pause after each step")
	retries := flag.Int("retries", 0, "retries per failed tile fetch")
	flag.Parse()

	log := logger.Setup()
	if err := run(os.Stdout, *base, *script, *wait, *retries); err != nil {
		log.Error("viewport probe failed", "err", err)
		os.Exit(1)
	}
}

func run(out io.Writer, base, scriptPath string, wait time.Duration, retries int) error {
	f, err := os.Open(scriptPath)
	if err != nil {
		return err
	}
	steps, err := parseScript(f, wait)
	f.Close()
	if err != nil {
		return err
	}

	client := tilesclient.New(base, tilesclient.WithLogger(logger.L()), tilesclient.WithRetries(retries))
	cfg := loader.DefaultConfig()
	cfg.Logger = logger.L()
	cfg.OnUpdate = func(u loader.Update) {
		switch {
		case u.Err != nil:
			fmt.Fprintf(out, "  update: failed (%v), %d listings kept\n", u.Err, u.Size)
		case u.Final:
			fmt.Fprintf(out, "  update: %d listings (+%d), %d total matches\n", u.Size, u.Added, u.TotalCount.Total)
		}
	}
	c := loader.NewCoordinator(client, cfg)
	defer c.Close()

	for i, s := range steps {
		d, err := c.RequestViewport(s.viewport, s.filters)
		if err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
		b := s.viewport.Bounds
		fmt.Fprintf(out, "step %d: z%d [%.4f,%.4f,%.4f,%.4f] filters=%q -> %s\n",
			i+1, s.viewport.Zoom, b.North, b.South, b.East, b.West, s.filters.Canonical(), d)
		time.Sleep(s.wait)
	}
	fmt.Fprintf(out, "done: %d listings across %d regions\n", c.Len(), len(c.Regions()))
	return nil
}

// Scene generator - builds a noise-and-rooms obstacle layout and writes it
// as a scene file.
//
// Usage: go run ./cmd/scenegen -out scene.grid [-config run.yaml] [-seed 7] [-preview]
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/frontier/config"
	"github.com/pthm-cable/frontier/grid"
	"github.com/pthm-cable/frontier/scene"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	out := flag.String("out", "", "Scene file to write")
	seed := flag.Int64("seed", 0, "Scene seed (0 = use config)")
	noiseScale := flag.Float64("noise-scale", 0, "Noise feature size in world units (0 = use config)")
	threshold := flag.Float64("threshold", 0, "Noise threshold (0 = use config)")
	rooms := flag.Int("rooms", -1, "Number of rooms (-1 = use config)")
	preview := flag.Bool("preview", false, "Print the layout to stdout")
	flag.Parse()

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stderr, nil)))

	if *out == "" && !*preview {
		slog.Error("nothing to do: pass -out and/or -preview")
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	p := scene.Params{
		Width:       cfg.Grid.Width,
		Height:      cfg.Grid.Height,
		Resolution:  cfg.Grid.Resolution,
		Seed:        cfg.Scene.Seed,
		NoiseScale:  cfg.Scene.NoiseScale,
		Threshold:   cfg.Scene.Threshold,
		Rooms:       cfg.Scene.Rooms,
		MinRoomSize: cfg.Scene.MinRoomSize,
		MaxRoomSize: cfg.Scene.MaxRoomSize,
	}
	if *seed != 0 {
		p.Seed = *seed
	}
	if *noiseScale != 0 {
		p.NoiseScale = *noiseScale
	}
	if *threshold != 0 {
		p.Threshold = *threshold
	}
	if *rooms >= 0 {
		p.Rooms = *rooms
	}
	for _, s := range cfg.Robots.Starts {
		p.Keep = append(p.Keep, r2.Vec{X: s.X, Y: s.Y})
	}

	g, err := scene.Generate(p)
	if err != nil {
		slog.Error("failed to generate scene", "error", err)
		os.Exit(1)
	}

	obstacles := 0
	g.Each(func(_ grid.Point, c *grid.Cell) {
		if c.State().IsObstacle() {
			obstacles++
		}
	})
	slog.Info("scene generated",
		"seed", p.Seed,
		"cells", fmt.Sprintf("%dx%d", g.Width(), g.Height()),
		"free_cells", g.FreeCellCount(),
		"obstacles", obstacles,
	)

	if *preview {
		w := bufio.NewWriter(os.Stdout)
		render(w, g, p.Keep)
		w.Flush()
	}

	if *out != "" {
		if err := scene.SaveFile(*out, g); err != nil {
			slog.Error("failed to save scene", "error", err)
			os.Exit(1)
		}
		slog.Info("scene saved", "path", *out)
	}
}

// render draws the grid top row first: '#' obstacle, '.' free, 'R' a kept
// robot start.
func render(w io.Writer, g *grid.Grid, starts []r2.Vec) {
	marks := make(map[grid.Point]bool, len(starts))
	for _, s := range starts {
		marks[g.WorldToCell(s)] = true
	}
	for y := g.Height() - 1; y >= 0; y-- {
		for x := 0; x < g.Width(); x++ {
			p := grid.Point{X: x, Y: y}
			c, _ := g.At(p)
			switch {
			case marks[p]:
				fmt.Fprint(w, "R")
			case c.State().IsObstacle():
				fmt.Fprint(w, "#")
			default:
				fmt.Fprint(w, ".")
			}
		}
		fmt.Fprintln(w)
	}
}

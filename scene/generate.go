package scene

import (
	"errors"
	"fmt"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/frontier/grid"
)

// ErrBadParams is returned for generator parameters that cannot produce a scene.
var ErrBadParams = errors.New("scene: invalid generator parameters")

// Params controls Generate.
type Params struct {
	Width, Height float64 // world units
	Resolution    float64
	Seed          int64

	// NoiseScale is the feature size of the noise field in world units.
	// Cells whose noise value exceeds Threshold become obstacles. A zero
	// scale disables the noise layer.
	NoiseScale float64
	Threshold  float64

	// Rooms walled rectangles with one door each.
	Rooms       int
	MinRoomSize int // cells
	MaxRoomSize int

	// Keep lists world positions whose cell and 8 neighbours stay free,
	// usually the robot start positions.
	Keep []r2.Vec
}

// Generate builds an unexplored grid with an obstacle layout derived
// deterministically from p.Seed.
func Generate(p Params) (*grid.Grid, error) {
	if p.NoiseScale < 0 || p.Rooms < 0 || (p.Rooms > 0 && (p.MinRoomSize < 3 || p.MaxRoomSize < p.MinRoomSize)) {
		return nil, fmt.Errorf("%w: %+v", ErrBadParams, p)
	}
	g, err := grid.New(p.Width, p.Height, p.Resolution)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(p.Seed))

	if p.NoiseScale > 0 {
		noise := opensimplex.New(p.Seed)
		g.Each(func(pt grid.Point, c *grid.Cell) {
			ctr := c.Center()
			if noise.Eval2(ctr.X/p.NoiseScale, ctr.Y/p.NoiseScale) > p.Threshold {
				g.SetState(pt, grid.Obstacle)
			}
		})
	}

	for i := 0; i < p.Rooms; i++ {
		addRoom(g, rng, p.MinRoomSize, p.MaxRoomSize)
	}

	for _, pos := range p.Keep {
		centre := g.WorldToCell(pos)
		if !g.Contains(centre) {
			return nil, fmt.Errorf("scene: keep position (%g, %g): %w", pos.X, pos.Y, grid.ErrOutOfBounds)
		}
		g.SetState(centre, grid.Free)
		for _, d := range grid.Neighbors8() {
			if q := centre.Add(d); g.Contains(q) {
				g.SetState(q, grid.Free)
			}
		}
	}
	return g, nil
}

// addRoom walls a random rectangle and cuts a door into one side.
func addRoom(g *grid.Grid, rng *rand.Rand, minSize, maxSize int) {
	inner := grid.BorderWidth
	w := minSize + rng.Intn(maxSize-minSize+1)
	h := minSize + rng.Intn(maxSize-minSize+1)
	spanX := g.Width() - 2*inner - w
	spanY := g.Height() - 2*inner - h
	if spanX < 0 || spanY < 0 {
		return
	}
	x0 := inner + rng.Intn(spanX+1)
	y0 := inner + rng.Intn(spanY+1)
	x1, y1 := x0+w-1, y0+h-1

	var wall []grid.Point
	for x := x0; x <= x1; x++ {
		wall = append(wall, grid.Point{X: x, Y: y0}, grid.Point{X: x, Y: y1})
	}
	for y := y0 + 1; y < y1; y++ {
		wall = append(wall, grid.Point{X: x0, Y: y}, grid.Point{X: x1, Y: y})
	}
	for _, pt := range wall {
		g.SetState(pt, grid.Obstacle)
	}

	// door in the middle of a random side
	var door grid.Point
	switch rng.Intn(4) {
	case 0:
		door = grid.Point{X: (x0 + x1) / 2, Y: y0}
	case 1:
		door = grid.Point{X: (x0 + x1) / 2, Y: y1}
	case 2:
		door = grid.Point{X: x0, Y: (y0 + y1) / 2}
	default:
		door = grid.Point{X: x1, Y: (y0 + y1) / 2}
	}
	g.SetState(door, grid.Free)
}

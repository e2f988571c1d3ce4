package scene

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/frontier/grid"
)

func testParams() Params {
	return Params{
		Width: 40, Height: 30, Resolution: 0.5,
		Seed:        5,
		NoiseScale:  4,
		Threshold:   0.35,
		Rooms:       3,
		MinRoomSize: 6,
		MaxRoomSize: 14,
		Keep:        []r2.Vec{{X: 3, Y: 3}, {X: 30, Y: 20}},
	}
}

func states(g *grid.Grid) []grid.State {
	out := make([]grid.State, 0, g.Len())
	g.Each(func(_ grid.Point, c *grid.Cell) { out = append(out, c.State()) })
	return out
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(testParams())
	require.NoError(t, err)
	b, err := Generate(testParams())
	require.NoError(t, err)
	assert.Equal(t, states(a), states(b))

	p := testParams()
	p.Seed = 6
	c, err := Generate(p)
	require.NoError(t, err)
	assert.NotEqual(t, states(a), states(c))
}

func TestGenerateLayout(t *testing.T) {
	p := testParams()
	g, err := Generate(p)
	require.NoError(t, err)
	assert.Equal(t, 80, g.Width())
	assert.Equal(t, 60, g.Height())

	obstacles := 0
	g.Each(func(pt grid.Point, c *grid.Cell) {
		s := c.State()
		assert.False(t, s.IsExplored() && s.IsFree(), "generated scenes start unexplored")
		if s.IsObstacle() {
			obstacles++
		}
	})
	border := 80*60 - 76*56
	assert.Greater(t, obstacles, border, "expected obstacles beyond the border")

	n := grid.Neighbors8()
	block := append(n[:], grid.Point{})
	for _, pos := range p.Keep {
		centre := g.WorldToCell(pos)
		for _, d := range block {
			s, err := g.CellState(centre.X+d.X, centre.Y+d.Y)
			require.NoError(t, err)
			assert.True(t, s.IsFree(), "start neighbourhood %v", centre.Add(d))
		}
	}
}

func TestGenerateBadParams(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Params)
		want   error
	}{
		{"negative scale", func(p *Params) { p.NoiseScale = -1 }, ErrBadParams},
		{"tiny rooms", func(p *Params) { p.MinRoomSize = 2 }, ErrBadParams},
		{"inverted room sizes", func(p *Params) { p.MaxRoomSize = 4 }, ErrBadParams},
		{"zero resolution", func(p *Params) { p.Resolution = 0 }, grid.ErrInvalidGeometry},
		{"keep outside", func(p *Params) { p.Keep = []r2.Vec{{X: 99, Y: 1}} }, grid.ErrOutOfBounds},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testParams()
			tt.mutate(&p)
			_, err := Generate(p)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestEditBrush(t *testing.T) {
	g, err := grid.NewCells(16, 16, 1)
	require.NoError(t, err)
	ed := &EditContext{OperationRadius: 1.5}
	ed.MoveTo(g, g.CellCenter(grid.Point{X: 8, Y: 8}))
	assert.Equal(t, grid.Point{X: 8, Y: 8}, ed.CurrentCell)

	n, err := ed.PlaceObstacle(g)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	s, _ := g.CellState(9, 9)
	assert.True(t, s.IsObstacle())
	s, _ = g.CellState(10, 8)
	assert.True(t, s.IsFree())

	n, err = ed.ClearObstacle(g)
	require.NoError(t, err)
	assert.Equal(t, 9, n)
	assert.Equal(t, 12*12, g.FreeCellCount())

	ed.MoveTo(g, r2.Vec{X: -2, Y: 3})
	_, err = ed.PlaceObstacle(g)
	assert.ErrorIs(t, err, grid.ErrOutOfBounds)
	_, err = ed.Explore(g)
	assert.ErrorIs(t, err, grid.ErrOutOfBounds)
}

func TestEditExplore(t *testing.T) {
	g, err := grid.NewCells(16, 16, 1)
	require.NoError(t, err)
	ed := &EditContext{OperationRadius: 3}
	ed.MoveTo(g, g.CellCenter(grid.Point{X: 7, Y: 7}))

	changed, err := ed.Explore(g)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Greater(t, g.ExploredCellCount(), 0)
	assert.Greater(t, g.FrontierCount(), 0)

	ed.OperationRadius = 6
	changed, err = ed.Unexplore(g)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Zero(t, g.ExploredCellCount())
}

func TestSaveLoadFile(t *testing.T) {
	p := testParams()
	g, err := Generate(p)
	require.NoError(t, err)
	g.ExploreInRadius(p.Keep[0], 4, true)

	path := filepath.Join(t.TempDir(), "scene.grid")
	require.NoError(t, SaveFile(path, g))
	loaded, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, states(g), states(loaded))
	assert.Equal(t, g.FrontierCount(), loaded.FrontierCount())
	assert.Equal(t, g.Resolution(), loaded.Resolution())

	_, err = LoadFile(filepath.Join(t.TempDir(), "missing.grid"))
	assert.Error(t, err)
}

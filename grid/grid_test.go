package grid

import (
	"bytes"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGrid(t *testing.T, w, h int) *Grid {
	t.Helper()
	g, err := NewCells(w, h, 1)
	require.NoError(t, err)
	return g
}

// checkConsistency verifies the frontier cache and the counters against a
// full scan of the grid.
func checkConsistency(t *testing.T, g *Grid) {
	t.Helper()
	frontierBits := 0
	g.Each(func(p Point, c *Cell) {
		require.True(t, c.State().Valid(), "cell %v has invalid state %v", p, c.State())
		require.Equal(t, c.State().IsFrontier(), g.IsFrontier(p), "frontier cache out of sync at %v", p)
		if c.State().IsFrontier() {
			frontierBits++
		}
	})
	free, explored := g.Recount()
	require.Equal(t, free, g.FreeCellCount(), "free count")
	require.Equal(t, explored, g.ExploredCellCount(), "explored count")
	require.Equal(t, frontierBits, g.FrontierCount(), "frontier cache size")
}

func checkBorder(t *testing.T, g *Grid) {
	t.Helper()
	g.Each(func(p Point, c *Cell) {
		switch g.ring(p.X, p.Y) {
		case 0:
			assert.Equal(t, Obstacle|Explored, c.State(), "outer ring %v", p)
		case 1:
			assert.True(t, c.State().IsObstacle(), "inner ring %v", p)
		}
	})
}

func TestNewGeometry(t *testing.T) {
	g, err := New(10.5, 7.2, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 21, g.Width())
	assert.Equal(t, 15, g.Height())
	assert.Equal(t, 0.5, g.Resolution())

	c, err := g.Cell(3, 4)
	require.NoError(t, err)
	assert.InDelta(t, 1.75, c.Center().X, 1e-12)
	assert.InDelta(t, 2.25, c.Center().Y, 1e-12)
	assert.Equal(t, c.Center(), g.CellCenter(Point{X: 3, Y: 4}))
	assert.Equal(t, Point{X: 3, Y: 4}, g.WorldToCell(c.Center()))
}

func TestNewInvalidGeometry(t *testing.T) {
	tests := []struct {
		name                string
		width, height, res float64
	}{
		{"zero resolution", 10, 10, 0},
		{"negative width", -1, 10, 1},
		{"too small for border", 4, 10, 1},
		{"too many cells", 1e5, 1e5, 0.01},
		{"overflows int", 1e300, 1e300, 1e-300},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.width, tt.height, tt.res)
			assert.ErrorIs(t, err, ErrInvalidGeometry)
		})
	}
}

func TestNewCellsLimit(t *testing.T) {
	_, err := NewCells(1<<14, 1<<13, 1)
	assert.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = NewCells(1<<31-1, 1<<31-1, 1)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
}

func TestBorderInvariant(t *testing.T) {
	g := newTestGrid(t, 12, 9)
	checkBorder(t, g)
	assert.Equal(t, 8*5, g.FreeCellCount())
	assert.Equal(t, 0, g.ExploredCellCount())
	assert.Zero(t, g.ExplorationProgress())

	g.ExploreInRadius(g.CellCenter(Point{X: 3, Y: 3}), 4, true)
	_, err := g.SetState(Point{X: 1, Y: 4}, Free|Explored)
	require.NoError(t, err)
	_, err = g.SetState(Point{X: 0, Y: 0}, Unknown)
	require.NoError(t, err)
	checkBorder(t, g)

	g.UnexploreAll()
	checkBorder(t, g)
	checkConsistency(t, g)
	assert.Zero(t, g.ExploredCellCount())
	assert.Zero(t, g.FrontierCount())
}

func TestOutOfBounds(t *testing.T) {
	g := newTestGrid(t, 8, 8)
	_, err := g.Cell(8, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = g.CellState(-1, 3)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, err = g.SetState(Point{X: 3, Y: 99}, Obstacle)
	assert.ErrorIs(t, err, ErrOutOfBounds)
	_, ok := g.At(Point{X: -1, Y: -1})
	assert.False(t, ok)
	_, err = g.ExploreCell(Point{X: 3, Y: 3}, Point{X: 30, Y: 3}, 2, Explored)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestSetStateTransitions(t *testing.T) {
	tests := []struct {
		name    string
		initial State
		set     State
		want    State
		changed bool
	}{
		{"reveal free cell", Free | Unknown, Explored, Free | Explored, true},
		{"mark frontier", Free | Unknown, Frontier, Free | Frontier, true},
		{"frontier on unknown obstacle stays unknown", Obstacle | Unknown, Frontier, Obstacle | Unknown, false},
		{"frontier on explored obstacle stays explored", Obstacle | Explored, Frontier, Obstacle | Explored, false},
		{"place obstacle keeps knowledge", Free | Explored, Obstacle, Obstacle | Explored, true},
		{"obstacle frontier combination degrades", Free | Unknown, Obstacle | Frontier, Obstacle | Unknown, true},
		{"same state", Free | Frontier, Free | Frontier, Free | Frontier, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGrid(t, 7, 7)
			p := Point{X: 3, Y: 3}
			g.cells[g.Index(p)].state = tt.initial
			g.rebuild()

			changed, err := g.SetState(p, tt.set)
			require.NoError(t, err)
			assert.Equal(t, tt.changed, changed)
			s, err := g.CellState(p.X, p.Y)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s, "got %v", s)
			checkConsistency(t, g)
		})
	}
}

func TestCostTable(t *testing.T) {
	tests := []struct {
		state State
		want  float64
	}{
		{Free | Explored, 2},
		{Free | Frontier, 1},
		{Free | Unknown, 100},
		{Obstacle | Frontier, 1},
		{Obstacle | Unknown, 1000},
		{Obstacle | Explored, 10000},
		{Free, 0},
		{Explored, 0},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.state.Cost())
		})
	}
}

func TestFrontierCacheConsistency(t *testing.T) {
	g := newTestGrid(t, 20, 16)
	rng := rand.New(rand.NewSource(7))
	choices := []State{
		Free, Obstacle, Unknown, Frontier, Explored,
		Free | Explored, Free | Frontier, Obstacle | Frontier, Obstacle | Explored,
	}

	for i := 0; i < 2000; i++ {
		switch rng.Intn(10) {
		case 0:
			pos := g.CellCenter(Point{X: rng.Intn(g.Width()), Y: rng.Intn(g.Height())})
			g.ExploreInRadius(pos, 1+rng.Float64()*4, rng.Intn(4) != 0)
		case 1:
			if rng.Intn(20) == 0 {
				g.UnexploreAll()
			}
		default:
			p := Point{X: rng.Intn(g.Width()), Y: rng.Intn(g.Height())}
			_, err := g.SetState(p, choices[rng.Intn(len(choices))])
			require.NoError(t, err)
		}
		if i%50 == 0 {
			checkConsistency(t, g)
		}
	}
	checkConsistency(t, g)
	checkBorder(t, g)
}

func TestExploreInRadiusScenario(t *testing.T) {
	g, err := New(10, 10, 1)
	require.NoError(t, err)
	center := Point{X: 5, Y: 5}

	changed := g.ExploreInRadius(g.CellCenter(center), 2*g.Resolution(), true)
	require.True(t, changed)

	for _, p := range []Point{center, {X: 4, Y: 5}, {X: 6, Y: 5}, {X: 5, Y: 4}, {X: 5, Y: 6}} {
		s, err := g.CellState(p.X, p.Y)
		require.NoError(t, err)
		assert.Equal(t, Free|Explored, s, "cell %v", p)
	}
	for _, p := range []Point{{X: 6, Y: 6}, {X: 4, Y: 4}, {X: 7, Y: 5}, {X: 5, Y: 3}} {
		assert.True(t, g.IsFrontier(p), "cell %v should be frontier", p)
	}

	// the frontier is exactly one cell thick around the explored area
	g.Each(func(p Point, c *Cell) {
		s := c.State()
		if s.IsFrontier() {
			assert.True(t, g.touchesExplored(p), "frontier %v not adjacent to explored space", p)
		}
		if s.IsFree() && s.IsExplored() {
			for _, d := range Neighbors8() {
				n := g.stateAt(p.Add(d))
				assert.False(t, n.IsFree() && n.IsUnknown(), "unknown cell %v next to explored %v", p.Add(d), p)
			}
		}
	})

	assert.Greater(t, g.ExplorationProgress(), 0.0)
	assert.Equal(t, 5, g.ExploredCellCount())
	checkConsistency(t, g)

	assert.False(t, g.ExploreInRadius(g.CellCenter(center), 2, true), "second pass changes nothing")
}

func TestExploreDoesNotSeeThroughWalls(t *testing.T) {
	g := newTestGrid(t, 16, 16)
	for y := 2; y < 14; y++ {
		_, err := g.SetState(Point{X: 8, Y: y}, Obstacle)
		require.NoError(t, err)
	}
	g.ExploreInRadius(g.CellCenter(Point{X: 6, Y: 8}), 5, true)

	wall, _ := g.CellState(8, 8)
	assert.Equal(t, Obstacle|Explored, wall)
	behind, _ := g.CellState(10, 8)
	assert.Equal(t, Free|Unknown, behind)
	checkConsistency(t, g)
}

func TestUnexploreRadius(t *testing.T) {
	g := newTestGrid(t, 20, 20)
	g.ExploreInRadius(g.CellCenter(Point{X: 10, Y: 10}), 6, true)
	before := g.ExploredCellCount()
	require.Greater(t, before, 0)

	changed := g.ExploreInRadius(g.CellCenter(Point{X: 10, Y: 10}), 2, false)
	assert.True(t, changed)
	assert.Less(t, g.ExploredCellCount(), before)
	s, _ := g.CellState(10, 10)
	assert.True(t, s.IsFree() && !s.IsExplored(), "centre is %v", s)
	checkConsistency(t, g)
}

func TestVisibleCells(t *testing.T) {
	g := newTestGrid(t, 16, 16)
	for y := 2; y < 14; y++ {
		_, err := g.SetState(Point{X: 9, Y: y}, Obstacle)
		require.NoError(t, err)
	}
	pos := g.CellCenter(Point{X: 7, Y: 7})
	cells := g.VisibleCells(pos, 4)
	require.NotEmpty(t, cells)
	for _, p := range cells {
		assert.LessOrEqual(t, p.X, 9, "cell %v is behind the wall", p)
	}
	assert.Contains(t, cells, Point{X: 9, Y: 7}, "the wall itself is visible")

	assert.Empty(t, g.VisibleCellsOf(pos, 4, 3), "no cell is owned by robot 3")
	c, _ := g.Cell(7, 8)
	c.Robot = 3
	assert.Equal(t, []Point{{X: 7, Y: 8}}, g.VisibleCellsOf(pos, 4, 3))

	assert.Nil(t, g.VisibleCells(g.CellCenter(Point{X: -5, Y: 2}), 3))
}

func TestNumVisibleCellsUnrestricted(t *testing.T) {
	g := newTestGrid(t, 12, 12)
	near := g.CellCenter(Point{X: 2, Y: 6})
	mid := g.CellCenter(Point{X: 6, Y: 6})

	// the unknown inner wall does not block and the outer wall counts as
	// open space, so the disc near the edge sees off-grid cells
	nearCount := g.NumVisibleCellsUnrestricted(near, 3)
	midCount := g.NumVisibleCellsUnrestricted(mid, 3)
	assert.Equal(t, midCount, nearCount)
	assert.Greater(t, nearCount, len(g.VisibleCells(near, 3)))

	// an explored wall blocks
	for y := 0; y < 12; y++ {
		g.setState(Point{X: 7, Y: y}, Obstacle|Explored)
	}
	assert.Less(t, g.NumVisibleCellsUnrestricted(mid, 3), midCount)
}

func TestWriteReadRoundTrip(t *testing.T) {
	g := newTestGrid(t, 14, 11)
	g.ExploreInRadius(g.CellCenter(Point{X: 6, Y: 5}), 3, true)
	_, err := g.SetState(Point{X: 9, Y: 4}, Obstacle)
	require.NoError(t, err)

	var buf bytes.Buffer
	n, err := g.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
	assert.Equal(t, int64(headerSize+14*11*recordSize), n)

	loaded, err := Read(&buf)
	require.NoError(t, err)
	assert.Equal(t, g.Width(), loaded.Width())
	assert.Equal(t, g.Height(), loaded.Height())
	assert.Equal(t, g.FrontierCount(), loaded.FrontierCount())
	assert.Equal(t, g.ExploredCellCount(), loaded.ExploredCellCount())
	g.Each(func(p Point, c *Cell) {
		lc, _ := loaded.At(p)
		assert.Equal(t, c.State(), lc.State())
		assert.Equal(t, c.Rect, lc.Rect)
	})
	checkConsistency(t, loaded)
}

func TestReadCorrupt(t *testing.T) {
	g := newTestGrid(t, 6, 6)
	var buf bytes.Buffer
	_, err := g.WriteTo(&buf)
	require.NoError(t, err)
	data := buf.Bytes()

	_, err = Read(bytes.NewReader(data[:len(data)-5]))
	assert.Error(t, err)

	bad := append([]byte(nil), data...)
	// first record state: Free|Obstacle is invalid
	bad[headerSize+3] = byte(Free | Obstacle | Unknown)
	_, err = Read(bytes.NewReader(bad))
	assert.True(t, errors.Is(err, ErrInvalidState), "got %v", err)
}

func TestVisibilitySymmetry(t *testing.T) {
	g := newTestGrid(t, 16, 16)
	_, err := g.SetState(Point{X: 5, Y: 5}, Obstacle)
	require.NoError(t, err)

	a, b := Point{X: 0, Y: 0}, Point{X: 10, Y: 10}
	assert.Equal(t, g.PathVisible(a, b), g.PathVisible(b, a))

	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 40; i++ {
		_, err := g.SetState(Point{X: 2 + rng.Intn(12), Y: 2 + rng.Intn(12)}, Obstacle)
		require.NoError(t, err)
	}
	for i := 0; i < 500; i++ {
		p := Point{X: rng.Intn(16), Y: rng.Intn(16)}
		q := Point{X: rng.Intn(16), Y: rng.Intn(16)}
		require.Equal(t, g.PathVisible(p, q), g.PathVisible(q, p), "%v <-> %v", p, q)
		require.Equal(t, g.AAPathVisible(p, q), g.AAPathVisible(q, p), "%v <-> %v", p, q)
	}
}

func TestAAPathVisibleWideFootprint(t *testing.T) {
	g := newTestGrid(t, 12, 12)
	// sits beside the thin line but inside the wide footprint
	_, err := g.SetState(Point{X: 5, Y: 6}, Obstacle)
	require.NoError(t, err)

	from, to := Point{X: 3, Y: 6}, Point{X: 8, Y: 4}
	assert.True(t, g.PathVisible(from, to))
	assert.False(t, g.AAPathVisible(from, to))
	assert.False(t, g.AAPathVisible(to, from))
	assert.True(t, g.AAPathVisible(Point{X: 3, Y: 3}, Point{X: 3, Y: 9}))
}

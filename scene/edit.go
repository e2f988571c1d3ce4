// Package scene builds and edits the grids robots explore: a procedural
// generator, scene files on disk and brush-style editing.
package scene

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/frontier/grid"
)

// EditContext is the state of the active editing tool. One value is owned
// by whoever drives the simulation and handed to every edit operation.
type EditContext struct {
	CurrentCell     grid.Point
	MousePosition   r2.Vec
	OperationRadius float64
}

// MoveTo points the tool at a world position.
func (e *EditContext) MoveTo(g *grid.Grid, pos r2.Vec) {
	e.MousePosition = pos
	e.CurrentCell = g.WorldToCell(pos)
}

func (e *EditContext) check(g *grid.Grid) error {
	if !g.Contains(e.CurrentCell) {
		return fmt.Errorf("scene: tool at (%d, %d): %w", e.CurrentCell.X, e.CurrentCell.Y, grid.ErrOutOfBounds)
	}
	return nil
}

// brush applies s to the current cell and every cell whose centre lies
// within the operation radius. Returns the number of changed cells.
func (e *EditContext) brush(g *grid.Grid, s grid.State) (int, error) {
	if err := e.check(g); err != nil {
		return 0, err
	}
	changed := 0
	apply := func(p grid.Point) {
		if ok, _ := g.SetState(p, s); ok {
			changed++
		}
	}
	apply(e.CurrentCell)

	reach := int(math.Ceil(e.OperationRadius / g.Resolution()))
	r2max := e.OperationRadius * e.OperationRadius
	for y := e.CurrentCell.Y - reach; y <= e.CurrentCell.Y+reach; y++ {
		for x := e.CurrentCell.X - reach; x <= e.CurrentCell.X+reach; x++ {
			p := grid.Point{X: x, Y: y}
			if p == e.CurrentCell || !g.Contains(p) {
				continue
			}
			if r2.Norm2(r2.Sub(g.CellCenter(p), e.MousePosition)) <= r2max {
				apply(p)
			}
		}
	}
	return changed, nil
}

// PlaceObstacle turns the brush area into obstacles.
func (e *EditContext) PlaceObstacle(g *grid.Grid) (int, error) {
	return e.brush(g, grid.Obstacle)
}

// ClearObstacle turns the brush area into free space.
func (e *EditContext) ClearObstacle(g *grid.Grid) (int, error) {
	return e.brush(g, grid.Free)
}

// Explore reveals the disc around the tool as if a robot stood there.
func (e *EditContext) Explore(g *grid.Grid) (bool, error) {
	if err := e.check(g); err != nil {
		return false, err
	}
	return g.ExploreInRadius(e.MousePosition, e.OperationRadius, true), nil
}

// Unexplore resets the disc around the tool to unknown.
func (e *EditContext) Unexplore(g *grid.Grid) (bool, error) {
	if err := e.check(g); err != nil {
		return false, err
	}
	return g.ExploreInRadius(e.MousePosition, e.OperationRadius, false), nil
}

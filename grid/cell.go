package grid

import (
	"github.com/paulmach/orb"
	"gonum.org/v1/gonum/spatial/r2"
)

// RobotID indexes a robot in the owning simulation's robot collection.
type RobotID int32

// NoRobot marks an unassigned cell.
const NoRobot RobotID = -1

// Point is an integer cell index.
type Point struct {
	X, Y int
}

// Add returns p+q.
func (p Point) Add(q Point) Point {
	return Point{X: p.X + q.X, Y: p.Y + q.Y}
}

// Cell is a single grid element.
type Cell struct {
	Rect     orb.Bound // world-space bounds, fixed at construction
	Gradient r2.Vec    // last steering direction written by a strategy
	Robot    RobotID   // territory owner, written by the partitioner
	Density  float64   // coverage value in (0,1]

	state State
}

// State returns the classification of the cell.
func (c *Cell) State() State {
	return c.state
}

// Center returns the world-space centre of the cell.
func (c *Cell) Center() r2.Vec {
	ctr := c.Rect.Center()
	return r2.Vec{X: ctr[0], Y: ctr[1]}
}

// corners returns the four world-space corners of the cell.
func (c *Cell) corners() [4]r2.Vec {
	minX, minY := c.Rect.Min[0], c.Rect.Min[1]
	maxX, maxY := c.Rect.Max[0], c.Rect.Max[1]
	return [4]r2.Vec{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}
}

func (c *Cell) resetAnnotations() {
	c.Gradient = r2.Vec{}
	c.Robot = NoRobot
	c.Density = 1
}

// Package components defines ECS components for robot entities.
package components

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/frontier/grid"
)

// Robot identifies a robot. ID indexes the simulation's robot table and is
// the value written into grid cells as territory owner.
type Robot struct {
	ID   grid.RobotID
	Name string
}

// Position represents a robot's world position.
type Position struct {
	X, Y float64
}

// Vec returns the position as a vector.
func (p Position) Vec() r2.Vec {
	return r2.Vec{X: p.X, Y: p.Y}
}

// Velocity represents the last step taken, in world units per second.
type Velocity struct {
	X, Y float64
}

// Sensor describes the robot's range sensor.
type Sensor struct {
	Radius float64 // world units
}

// Motion holds movement limits and the last steering decision.
type Motion struct {
	Speed      float64 // world units per second
	Heading    r2.Vec  // unit or zero
	Blocked    bool    // last step ran into an obstacle or the grid edge
	Fallback   bool    // last heading came from the random fallback
	Unemployed bool    // territory held no frontier
	Target     grid.Point
	HasTarget  bool
	RouteLen   float64 // remaining simplified route length, world units
}

// Odometry accumulates per-robot run statistics.
type Odometry struct {
	Distance     float64
	Steps        int
	BlockedSteps int
	Fallbacks    int
	Unemployed   int
	Revealed     int // free cells this robot turned Explored
}

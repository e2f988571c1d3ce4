package sim

import (
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/frontier/scene"
)

// EditTool returns the interaction context used by the edit operations.
func (s *Simulation) EditTool() *scene.EditContext { return &s.edit }

// MoveTool points the edit tool at a world position.
func (s *Simulation) MoveTool(pos r2.Vec) {
	s.edit.MoveTo(s.grid, pos)
}

// SetToolRadius sets the brush radius in world units.
func (s *Simulation) SetToolRadius(r float64) {
	s.edit.OperationRadius = max(r, 0)
}

// PlaceObstacle turns the brush area into obstacles.
func (s *Simulation) PlaceObstacle() (int, error) { return s.edit.PlaceObstacle(s.grid) }

// ClearObstacle turns the brush area into free space.
func (s *Simulation) ClearObstacle() (int, error) { return s.edit.ClearObstacle(s.grid) }

// Explore reveals the brush area.
func (s *Simulation) Explore() (bool, error) { return s.edit.Explore(s.grid) }

// Unexplore forgets the brush area.
func (s *Simulation) Unexplore() (bool, error) { return s.edit.Unexplore(s.grid) }

// Reset forgets everything the robots have seen and lets each robot sense
// its surroundings again.
func (s *Simulation) Reset() {
	s.grid.UnexploreAll()
	query := s.robotFilter.Query()
	for query.Next() {
		_, pos, _, sensor, _, _ := query.Get()
		s.grid.ExploreInRadius(pos.Vec(), sensor.Radius, true)
	}
}

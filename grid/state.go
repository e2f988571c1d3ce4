package grid

import "strings"

// State is the classification of a cell. It combines one occupancy bit
// (Obstacle or Free) with one knowledge bit (Unknown, Frontier or Explored).
type State uint8

const (
	Obstacle State = 1 << iota
	Free
	Unknown
	Frontier
	Explored
)

const (
	occupancyMask = Obstacle | Free
	knowledgeMask = Unknown | Frontier | Explored
	stateMask     = occupancyMask | knowledgeMask
)

// traversal weights keyed by the full 5-bit state
var costTable = func() [stateMask + 1]float64 {
	var t [stateMask + 1]float64
	t[Free|Explored] = 2
	t[Free|Frontier] = 1
	t[Free|Unknown] = 100
	t[Obstacle|Frontier] = 1 // unreachable through SetState, kept for table parity
	t[Obstacle|Unknown] = 1000
	t[Obstacle|Explored] = 10000
	return t
}()

// Cost returns the traversal weight of a cell in this state.
// Combinations without an entry cost 0.
func (s State) Cost() float64 {
	return costTable[s&stateMask]
}

// Has reports whether every bit of flag is set.
func (s State) Has(flag State) bool {
	return s&flag == flag
}

// Occupancy returns only the occupancy bit.
func (s State) Occupancy() State {
	return s & occupancyMask
}

// Knowledge returns only the knowledge bit.
func (s State) Knowledge() State {
	return s & knowledgeMask
}

// IsFree reports whether the Free bit is set.
func (s State) IsFree() bool { return s&Free != 0 }

// IsObstacle reports whether the Obstacle bit is set.
func (s State) IsObstacle() bool { return s&Obstacle != 0 }

// IsFrontier reports whether the Frontier bit is set.
func (s State) IsFrontier() bool { return s&Frontier != 0 }

// IsExplored reports whether the Explored bit is set.
func (s State) IsExplored() bool { return s&Explored != 0 }

// IsUnknown reports whether the Unknown bit is set.
func (s State) IsUnknown() bool { return s&Unknown != 0 }

// Valid reports whether exactly one bit of each group is set.
func (s State) Valid() bool {
	if s&^stateMask != 0 {
		return false
	}
	occ := s.Occupancy()
	know := s.Knowledge()
	return (occ == Obstacle || occ == Free) &&
		(know == Unknown || know == Frontier || know == Explored)
}

// merge applies next onto s. Each group present in next replaces that group;
// absent groups are kept. A Frontier obstacle degrades to Unknown, or stays
// Explored if it already was.
func (s State) merge(next State) State {
	out := s
	if occ := next.Occupancy(); occ == Obstacle || occ == Free {
		out = out&^occupancyMask | occ
	}
	if know := next.Knowledge(); know == Unknown || know == Frontier || know == Explored {
		out = out&^knowledgeMask | know
	}
	if out.IsObstacle() && out.IsFrontier() {
		if s.IsObstacle() && s.IsExplored() {
			out = out&^knowledgeMask | Explored
		} else {
			out = out&^knowledgeMask | Unknown
		}
	}
	return out
}

func (s State) String() string {
	if s == 0 {
		return "none"
	}
	var parts []string
	names := []struct {
		bit  State
		name string
	}{
		{Obstacle, "obstacle"},
		{Free, "free"},
		{Unknown, "unknown"},
		{Frontier, "frontier"},
		{Explored, "explored"},
	}
	for _, n := range names {
		if s&n.bit != 0 {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, "|")
}

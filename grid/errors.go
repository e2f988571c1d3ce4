package grid

import "errors"

var (
	// ErrOutOfBounds indicates a cell index outside the grid.
	ErrOutOfBounds = errors.New("grid: cell index out of bounds")
	// ErrInvalidGeometry indicates a grid too small to hold its border or too large to allocate.
	ErrInvalidGeometry = errors.New("grid: invalid grid geometry")
	// ErrInvalidState indicates a state without exactly one occupancy and one knowledge bit.
	ErrInvalidState = errors.New("grid: invalid cell state")
	// ErrCorruptData indicates persisted grid data that cannot be decoded.
	ErrCorruptData = errors.New("grid: corrupt grid data")
)

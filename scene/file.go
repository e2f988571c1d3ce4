package scene

import (
	"fmt"
	"os"

	"github.com/pthm-cable/frontier/grid"
)

// SaveFile writes g to path in the grid's binary layout.
func SaveFile(path string, g *grid.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating scene file: %w", err)
	}
	if _, err := g.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("writing scene %s: %w", path, err)
	}
	return f.Close()
}

// LoadFile reads a grid written by SaveFile.
func LoadFile(path string) (*grid.Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening scene file: %w", err)
	}
	defer f.Close()
	g, err := grid.Read(f)
	if err != nil {
		return nil, fmt.Errorf("reading scene %s: %w", path, err)
	}
	return g, nil
}

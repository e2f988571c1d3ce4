package grid

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/paulmach/orb"
)

type fileHeader struct {
	Width      int32
	Height     int32
	Resolution float64
}

type cellRecord struct {
	State      int32
	X, Y, W, H float64
}

const (
	headerSize = 4 + 4 + 8
	recordSize = 4 + 4*8
)

// WriteTo writes the grid as a big-endian header (width, height,
// resolution) followed by one (state, rect) record per cell in x-major
// order.
func (g *Grid) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	hdr := fileHeader{Width: int32(g.width), Height: int32(g.height), Resolution: g.resolution}
	if err := binary.Write(bw, binary.BigEndian, hdr); err != nil {
		return 0, fmt.Errorf("writing grid header: %w", err)
	}
	n := int64(headerSize)
	for x := 0; x < g.width; x++ {
		for y := 0; y < g.height; y++ {
			c := &g.cells[y*g.width+x]
			rec := cellRecord{
				State: int32(c.state),
				X:     c.Rect.Min[0],
				Y:     c.Rect.Min[1],
				W:     c.Rect.Max[0] - c.Rect.Min[0],
				H:     c.Rect.Max[1] - c.Rect.Min[1],
			}
			if err := binary.Write(bw, binary.BigEndian, rec); err != nil {
				return n, fmt.Errorf("writing cell (%d, %d): %w", x, y, err)
			}
			n += recordSize
		}
	}
	if err := bw.Flush(); err != nil {
		return n, fmt.Errorf("flushing grid: %w", err)
	}
	return n, nil
}

// Read decodes a grid written by WriteTo. The frontier cache and the
// counters are rebuilt from the decoded states.
func Read(r io.Reader) (*Grid, error) {
	br := bufio.NewReader(r)
	var hdr fileHeader
	if err := binary.Read(br, binary.BigEndian, &hdr); err != nil {
		return nil, fmt.Errorf("reading grid header: %w", err)
	}
	w, h := int(hdr.Width), int(hdr.Height)
	if w < minCells || h < minCells || !(hdr.Resolution > 0) || math.IsInf(hdr.Resolution, 0) {
		return nil, fmt.Errorf("%w: %dx%d cells, resolution %g", ErrInvalidGeometry, w, h, hdr.Resolution)
	}
	if int64(w)*int64(h) > maxCells {
		return nil, fmt.Errorf("%w: %dx%d cells exceeds limit", ErrCorruptData, w, h)
	}

	g := alloc(w, h, hdr.Resolution)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			var rec cellRecord
			if err := binary.Read(br, binary.BigEndian, &rec); err != nil {
				return nil, fmt.Errorf("reading cell (%d, %d): %w", x, y, err)
			}
			s := State(rec.State)
			if rec.State < 0 || rec.State > int32(stateMask) || !s.Valid() {
				return nil, fmt.Errorf("%w: cell (%d, %d) state %d", ErrInvalidState, x, y, rec.State)
			}
			if g.ring(x, y) < BorderWidth && !s.IsObstacle() {
				return nil, fmt.Errorf("%w: border cell (%d, %d) is not an obstacle", ErrCorruptData, x, y)
			}
			c := &g.cells[y*w+x]
			c.state = s
			c.Rect = orb.Bound{
				Min: orb.Point{rec.X, rec.Y},
				Max: orb.Point{rec.X + rec.W, rec.Y + rec.H},
			}
		}
	}
	g.rebuild()
	return g, nil
}

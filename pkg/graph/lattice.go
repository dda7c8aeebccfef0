package graph

import "github.com/pkg/errors"

// Edge types emitted by the lattice generators.
const (
	EdgeSide     = "side"
	EdgeDiagonal = "diagonal"
)

// Lattice addresses a W x H grid of nodes in row-major order.
type Lattice struct {
	W, H int
}

// Index returns the node id for coordinates (x, y).
func (l Lattice) Index(x, y int) int { return y*l.W + x }

// Coords returns the coordinates of node i.
func (l Lattice) Coords(i int) (int, int) { return i % l.W, i / l.W }

// Wrap applies toroidal wrapping to the provided coordinates.
func (l Lattice) Wrap(x, y int) (int, int) {
	x = (x%l.W + l.W) % l.W
	y = (y%l.H + l.H) % l.H
	return x, y
}

// forward Moore offsets; together with their negations they cover all eight
// neighbors exactly once.
var halfMoore = [4][2]int{{1, 0}, {-1, 1}, {0, 1}, {1, 1}}

// TorusEdges lists the Moore-neighborhood edges of a wrapping W x H grid.
func (l Lattice) TorusEdges() ([]Edge, error) {
	if l.W < 3 || l.H < 3 {
		return nil, errors.Wrapf(ErrLatticeTooSmall, "torus %dx%d needs at least 3x3", l.W, l.H)
	}
	edges := make([]Edge, 0, 4*l.W*l.H)
	for y := 0; y < l.H; y++ {
		for x := 0; x < l.W; x++ {
			for _, d := range halfMoore {
				nx, ny := l.Wrap(x+d[0], y+d[1])
				edges = append(edges, Edge{Source: l.Index(x, y), Target: l.Index(nx, ny), Type: edgeType(d)})
			}
		}
	}
	return edges, nil
}

// BoundedEdges lists the Moore-neighborhood edges of a non-wrapping grid;
// border nodes simply have fewer neighbors.
func (l Lattice) BoundedEdges() ([]Edge, error) {
	if l.W < 1 || l.H < 1 {
		return nil, errors.Wrapf(ErrLatticeTooSmall, "grid %dx%d", l.W, l.H)
	}
	var edges []Edge
	for y := 0; y < l.H; y++ {
		for x := 0; x < l.W; x++ {
			for _, d := range halfMoore {
				nx, ny := x+d[0], y+d[1]
				if nx < 0 || nx >= l.W || ny >= l.H {
					continue
				}
				edges = append(edges, Edge{Source: l.Index(x, y), Target: l.Index(nx, ny), Type: edgeType(d)})
			}
		}
	}
	return edges, nil
}

func edgeType(d [2]int) string {
	if d[0] == 0 || d[1] == 0 {
		return EdgeSide
	}
	return EdgeDiagonal
}

// Torus builds the 8-neighbor wrapping grid graph.
func Torus(w, h int) (*Graph, error) {
	l := Lattice{W: w, H: h}
	edges, err := l.TorusEdges()
	if err != nil {
		return nil, err
	}
	return New(w*h, edges)
}

// Bounded builds the 8-neighbor grid graph without wraparound.
func Bounded(w, h int) (*Graph, error) {
	l := Lattice{W: w, H: h}
	edges, err := l.BoundedEdges()
	if err != nil {
		return nil, err
	}
	return New(w*h, edges)
}

package graph

import (
	"encoding/json"
	"io"

	"github.com/pkg/errors"
)

// Description is the JSON interchange form produced by external graph
// generators: {"n": 9, "edges": [{"source": 0, "target": 1, "type": "side"}]}.
// Width and Height are informational and only set for lattice graphs.
type Description struct {
	N      *int              `json:"n"`
	Edges  []EdgeDescription `json:"edges"`
	Width  int               `json:"width,omitempty"`
	Height int               `json:"height,omitempty"`
}

// EdgeDescription is one edge of a Description.
type EdgeDescription struct {
	Source *int   `json:"source"`
	Target *int   `json:"target"`
	Type   string `json:"type,omitempty"`
}

// Decode reads a Description from r and builds the graph.
func Decode(r io.Reader) (*Graph, error) {
	var d Description
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, errors.Wrap(err, "decode graph description")
	}
	return d.Build()
}

// Build validates the description and constructs the graph.
func (d Description) Build() (*Graph, error) {
	if d.N == nil {
		return nil, errors.Wrap(ErrMissingField, `"n"`)
	}
	edges := make([]Edge, len(d.Edges))
	for i, e := range d.Edges {
		if e.Source == nil || e.Target == nil {
			return nil, errors.Wrapf(ErrMissingField, "edge %d needs source and target", i)
		}
		edges[i] = Edge{Source: *e.Source, Target: *e.Target, Type: e.Type}
	}
	return New(*d.N, edges)
}

// Describe renders an edge list as a Description.
func Describe(n int, edges []Edge) Description {
	d := Description{N: &n, Edges: make([]EdgeDescription, len(edges))}
	for i, e := range edges {
		src, dst := e.Source, e.Target
		d.Edges[i] = EdgeDescription{Source: &src, Target: &dst, Type: e.Type}
	}
	return d
}

// Encode writes d as indented JSON.
func (d Description) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(d), "encode graph description")
}

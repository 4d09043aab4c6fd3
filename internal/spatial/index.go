// Package spatial provides the nearest-waypoint index used to localize the
// vehicle on the reference path. The index is a 2D k-d tree over the (x, y)
// projection of every waypoint, built once and read-only afterwards.
package spatial

import (
	"errors"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/banshee-data/waypoint-updater/internal/waypoint"
)

// ErrEmptyPath is returned when an index is built over no waypoints.
var ErrEmptyPath = errors.New("spatial index requires at least one waypoint")

// Index answers nearest-waypoint queries in sub-linear expected time. It is
// immutable after construction and safe for concurrent queries.
type Index struct {
	tree *kdtree.Tree
	size int
}

// NewIndex builds an index over the (x, y) projection of points. Indices
// returned by Nearest refer to positions in points.
func NewIndex(points []waypoint.Waypoint) (*Index, error) {
	if len(points) == 0 {
		return nil, ErrEmptyPath
	}
	nodes := make(planarNodes, len(points))
	for i, p := range points {
		nodes[i] = planarNode{x: p.X, y: p.Y, index: i}
	}
	// kdtree.New partitions nodes in place; each node carries its path index.
	return &Index{tree: kdtree.New(nodes, false), size: len(points)}, nil
}

// NewPathIndex builds an index over every waypoint in path.
func NewPathIndex(path *waypoint.Path) (*Index, error) {
	if path == nil {
		return nil, ErrEmptyPath
	}
	return NewIndex(path.Waypoints())
}

// Nearest returns the index of the waypoint whose (x, y) projection is closest
// to (x, y) under Euclidean distance.
func (ix *Index) Nearest(x, y float64) int {
	got, _ := ix.tree.Nearest(planarNode{x: x, y: y, index: -1})
	return got.(planarNode).index
}

// Len returns the number of indexed waypoints.
func (ix *Index) Len() int { return ix.size }

// planarNode is a waypoint projection stored in the tree.
type planarNode struct {
	x, y  float64
	index int
}

// Compare returns the signed distance of n from the plane through c
// perpendicular to dimension d.
func (n planarNode) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(planarNode)
	switch d {
	case 0:
		return n.x - q.x
	case 1:
		return n.y - q.y
	default:
		panic("spatial: illegal dimension")
	}
}

// Dims returns the number of dimensions described by the receiver.
func (n planarNode) Dims() int { return 2 }

// Distance returns the squared Euclidean distance between n and c, matching
// the convention of kdtree.Point.
func (n planarNode) Distance(c kdtree.Comparable) float64 {
	q := c.(planarNode)
	dx := n.x - q.x
	dy := n.y - q.y
	return dx*dx + dy*dy
}

type planarNodes []planarNode

func (p planarNodes) Index(i int) kdtree.Comparable { return p[i] }
func (p planarNodes) Len() int                      { return len(p) }
func (p planarNodes) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(planarPlane{nodes: p, dim: d}, kdtree.MedianOfMedians(planarPlane{nodes: p, dim: d}))
}
func (p planarNodes) Slice(start, end int) kdtree.Interface { return p[start:end] }

// planarPlane sorts nodes along a single dimension for pivot selection.
type planarPlane struct {
	nodes planarNodes
	dim   kdtree.Dim
}

func (p planarPlane) Len() int { return len(p.nodes) }
func (p planarPlane) Less(i, j int) bool {
	if p.dim == 0 {
		return p.nodes[i].x < p.nodes[j].x
	}
	return p.nodes[i].y < p.nodes[j].y
}
func (p planarPlane) Swap(i, j int) { p.nodes[i], p.nodes[j] = p.nodes[j], p.nodes[i] }
func (p planarPlane) Slice(start, end int) kdtree.SortSlicer {
	p.nodes = p.nodes[start:end]
	return p
}

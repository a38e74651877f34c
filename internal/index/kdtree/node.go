package kdtree

import (
	"sort"

	"terra/internal/geom"
)

type node struct {
	point geom.Coordinate
	dim   int
	left  *node
	right *node
}

// collect appends every coordinate of the subtree to dst, in-order.
func (n *node) collect(dst []geom.Coordinate) []geom.Coordinate {
	if n == nil {
		return dst
	}
	dst = n.left.collect(dst)
	dst = append(dst, n.point)
	return n.right.collect(dst)
}

type byComponent struct {
	dim    int
	coords []geom.Coordinate
}

func (b *byComponent) Len() int { return len(b.coords) }

func (b *byComponent) Less(i, j int) bool {
	return b.coords[i].Component(b.dim) < b.coords[j].Component(b.dim)
}

func (b *byComponent) Swap(i, j int) {
	b.coords[i], b.coords[j] = b.coords[j], b.coords[i]
}

// buildSubtree sorts the coordinates along dim, roots the subtree at the
// median and recurses with the next cyclic dimension. Coordinates equal to
// the pivot along dim must not fall left of it, so the median is shifted to
// the first of a run of equal values.
func buildSubtree(coords []geom.Coordinate, dim, dims int) *node {
	if len(coords) == 0 {
		return nil
	}
	sort.Sort(&byComponent{dim: dim, coords: coords})
	mid := len(coords) / 2
	for mid > 0 && coords[mid-1].Component(dim) == coords[mid].Component(dim) {
		mid--
	}
	next := (dim + 1) % dims
	return &node{
		point: coords[mid],
		dim:   dim,
		left:  buildSubtree(coords[:mid], next, dims),
		right: buildSubtree(coords[mid+1:], next, dims),
	}
}

package quadtree

import (
	"terra/internal/geom"
)

// subdivisionPolicy computes the full child-region set for a node's
// envelope: four quadrants for a Quad-tree, eight octants for an Octree.
type subdivisionPolicy func(geom.Envelope) []geom.Envelope

type node struct {
	bounds    geom.Envelope
	subdivide subdivisionPolicy
	children  []*node
	contents  []geom.Geometry
	count     int // geometries stored in this subtree
}

func newNode(bounds geom.Envelope, policy subdivisionPolicy) *node {
	return &node{bounds: bounds, subdivide: policy}
}

// add stores a geometry whose envelope the node's region already contains.
// A node stays a leaf until a second geometry arrives, then subdivides and
// redistributes; geometries no single child region fully contains are
// retained at the node.
func (n *node) add(g geom.Geometry) {
	n.count++
	if len(n.children) == 0 {
		if len(n.contents) == 0 || !n.divisible() {
			n.contents = append(n.contents, g)
			return
		}
		n.split()
	}
	n.place(g)
}

// split creates the complete child set, never a partial one, and pushes
// every held geometry down into the unique child containing it.
func (n *node) split() {
	for _, bounds := range n.subdivide(n.bounds) {
		n.children = append(n.children, newNode(bounds, n.subdivide))
	}
	contents := n.contents
	n.contents = nil
	for _, g := range contents {
		if child := n.containingChild(g); child != nil {
			child.add(g)
		} else {
			n.contents = append(n.contents, g)
		}
	}
}

func (n *node) place(g geom.Geometry) {
	if child := n.containingChild(g); child != nil {
		child.add(g)
	} else {
		n.contents = append(n.contents, g)
	}
}

func (n *node) containingChild(g geom.Geometry) *node {
	env := g.Envelope()
	for _, child := range n.children {
		if child.bounds.Contains(env) {
			return child
		}
	}
	return nil
}

// divisible reports whether subdividing can still shrink the region; it
// stops coincident geometries from forcing unbounded subdivision.
func (n *node) divisible() bool {
	c := n.bounds.Center()
	return c.X > n.bounds.MinX || c.Y > n.bounds.MinY || c.Z > n.bounds.MinZ
}

func (n *node) remove(g geom.Geometry) bool {
	for i, stored := range n.contents {
		if stored == g {
			n.contents = append(n.contents[:i], n.contents[i+1:]...)
			n.count--
			return true
		}
	}
	if child := n.containingChild(g); child != nil {
		if child.remove(g) {
			n.count--
			return true
		}
	}
	return false
}

// search descends into every non-empty child whose region intersects the
// envelope but reports only geometries the envelope fully contains.
func (n *node) search(env geom.Envelope, dst []geom.Geometry) []geom.Geometry {
	for _, g := range n.contents {
		if env.Contains(g.Envelope()) {
			dst = append(dst, g)
		}
	}
	for _, child := range n.children {
		if child.count > 0 && child.bounds.Intersects(env) {
			dst = child.search(env, dst)
		}
	}
	return dst
}

func (n *node) collect(dst []geom.Geometry) []geom.Geometry {
	dst = append(dst, n.contents...)
	for _, child := range n.children {
		dst = child.collect(dst)
	}
	return dst
}

// quadrants splits an envelope into four equal quadrants, passing the Z
// bounds through unchanged.
func quadrants(e geom.Envelope) []geom.Envelope {
	c := e.Center()
	return []geom.Envelope{
		geom.NewEnvelopeZ(e.MinX, c.X, e.MinY, c.Y, e.MinZ, e.MaxZ),
		geom.NewEnvelopeZ(c.X, e.MaxX, e.MinY, c.Y, e.MinZ, e.MaxZ),
		geom.NewEnvelopeZ(e.MinX, c.X, c.Y, e.MaxY, e.MinZ, e.MaxZ),
		geom.NewEnvelopeZ(c.X, e.MaxX, c.Y, e.MaxY, e.MinZ, e.MaxZ),
	}
}

// octants splits an envelope into eight equal octants.
func octants(e geom.Envelope) []geom.Envelope {
	c := e.Center()
	xs := [3]float64{e.MinX, c.X, e.MaxX}
	ys := [3]float64{e.MinY, c.Y, e.MaxY}
	zs := [3]float64{e.MinZ, c.Z, e.MaxZ}
	out := make([]geom.Envelope, 0, 8)
	for k := 0; k < 2; k++ {
		for j := 0; j < 2; j++ {
			for i := 0; i < 2; i++ {
				out = append(out, geom.NewEnvelopeZ(xs[i], xs[i+1], ys[j], ys[j+1], zs[k], zs[k+1]))
			}
		}
	}
	return out
}

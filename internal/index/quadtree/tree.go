package quadtree

import (
	"errors"

	"terra/internal/geom"
)

var (
	ErrNilGeometry  = errors.New("quadtree: geometry is nil")
	ErrNoGeometries = errors.New("quadtree: geometry collection is empty")
)

// Tree is a region-partitioning index over bounded geometries: a Quad-tree
// in two dimensions, an Octree in three. The two differ only in the
// subdivision policy injected at construction. The tree is not safe for
// concurrent use.
type Tree struct {
	root *node
}

// New returns an empty Quad-tree over the given bounding envelope.
func New(bounds geom.Envelope) *Tree {
	return &Tree{root: newNode(bounds, quadrants)}
}

// NewOctree returns an empty Octree over the given bounding envelope.
func NewOctree(bounds geom.Envelope) *Tree {
	return &Tree{root: newNode(bounds, octants)}
}

// NewFromGeometries builds a Quad-tree whose root envelope is the union of
// the collection's envelopes, then indexes each geometry in turn.
func NewFromGeometries(geometries []geom.Geometry) (*Tree, error) {
	return newFromGeometries(geometries, quadrants)
}

// NewOctreeFromGeometries is NewFromGeometries with eight-way subdivision.
func NewOctreeFromGeometries(geometries []geom.Geometry) (*Tree, error) {
	return newFromGeometries(geometries, octants)
}

func newFromGeometries(geometries []geom.Geometry, policy subdivisionPolicy) (*Tree, error) {
	if len(geometries) == 0 {
		return nil, ErrNoGeometries
	}
	envs := make([]geom.Envelope, 0, len(geometries))
	for _, g := range geometries {
		if g == nil {
			return nil, ErrNilGeometry
		}
		envs = append(envs, g.Envelope())
	}
	t := &Tree{root: newNode(geom.FromEnvelopes(envs...), policy)}
	for _, g := range geometries {
		t.root.add(g)
	}
	return t, nil
}

func (t *Tree) NumberOfGeometries() int { return t.root.count }

func (t *Tree) IsEmpty() bool { return t.root.count == 0 }

func (t *Tree) IsReadOnly() bool { return false }

// Bounds returns the root envelope currently covering the indexed set.
func (t *Tree) Bounds() geom.Envelope { return t.root.bounds }

// Add indexes a geometry. A geometry outside the root envelope regrows the
// tree: the root envelope is expanded to the union with the new geometry's
// envelope and every indexed geometry is re-added. Growth past the original
// bound is assumed rare, so the rebuild cost is accepted.
func (t *Tree) Add(g geom.Geometry) error {
	if g == nil {
		return ErrNilGeometry
	}
	if !t.root.bounds.Contains(g.Envelope()) {
		t.regrow(g)
		return nil
	}
	t.root.add(g)
	return nil
}

func (t *Tree) AddAll(geometries ...geom.Geometry) error {
	for _, g := range geometries {
		if err := t.Add(g); err != nil {
			return err
		}
	}
	return nil
}

func (t *Tree) regrow(g geom.Geometry) {
	indexed := t.root.collect(nil)
	bounds := t.root.bounds.Expand(g.Envelope())
	t.root = newNode(bounds, t.root.subdivide)
	for _, stored := range indexed {
		t.root.add(stored)
	}
	t.root.add(g)
}

// Remove deletes a stored geometry located by value equality, first from
// the local content list, then from the unique child whose region contains
// the geometry's envelope. An absent geometry is a normal false result.
func (t *Tree) Remove(g geom.Geometry) (bool, error) {
	if g == nil {
		return false, ErrNilGeometry
	}
	return t.root.remove(g), nil
}

// RemoveAll deletes every indexed geometry the envelope contains and returns
// the removed set.
func (t *Tree) RemoveAll(env geom.Envelope) ([]geom.Geometry, bool) {
	matches := t.Search(env)
	for _, g := range matches {
		t.root.remove(g)
	}
	return matches, len(matches) > 0
}

// Search returns every indexed geometry whose envelope the query envelope
// fully contains. Merely intersecting geometries are excluded.
func (t *Tree) Search(env geom.Envelope) []geom.Geometry {
	return t.root.search(env, nil)
}

// Contains reports whether the exact geometry is indexed.
func (t *Tree) Contains(g geom.Geometry) bool {
	if g == nil || !g.Envelope().IsValid() {
		return false
	}
	for _, match := range t.Search(g.Envelope()) {
		if match == g {
			return true
		}
	}
	return false
}

// Clear resets the tree to a single empty leaf keeping the root envelope.
func (t *Tree) Clear() {
	t.root = newNode(t.root.bounds, t.root.subdivide)
}

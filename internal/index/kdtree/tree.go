package kdtree

import (
	"errors"
	"math"

	"terra/internal/geom"
	"terra/pkg/pqueue"
)

var (
	ErrInvalidDimension    = errors.New("kdtree: dimensions must be 2 or 3")
	ErrDuplicateCoordinate = errors.New("kdtree: coordinate already indexed")
	ErrEmptyTree           = errors.New("kdtree: tree contains no coordinates")
	ErrInvalidLimit        = errors.New("kdtree: neighbour limit must be positive")
)

// Tree is a point KD-tree over 2- or 3-dimensional coordinates. At a node
// splitting on dimension d every coordinate in the left subtree is strictly
// below the node's point along d and every coordinate in the right subtree
// is at or above it. The tree is not safe for concurrent use; callers
// serialize access themselves or wrap it in spatial.Index.
type Tree struct {
	root *node
	dims int
	len  int
}

func New(dims int) (*Tree, error) {
	if dims != 2 && dims != 3 {
		return nil, ErrInvalidDimension
	}
	return &Tree{dims: dims}, nil
}

// NewFromCoordinates bulk-builds a balanced tree by recursive median
// selection, cycling the split dimension per level.
func NewFromCoordinates(coords []geom.Coordinate, dims int) (*Tree, error) {
	t, err := New(dims)
	if err != nil {
		return nil, err
	}
	cs := make([]geom.Coordinate, len(coords))
	copy(cs, coords)
	t.root = buildSubtree(cs, 0, dims)
	t.len = len(cs)
	return t, nil
}

func (t *Tree) Len() int { return t.len }

func (t *Tree) IsEmpty() bool { return t.len == 0 }

func (t *Tree) IsReadOnly() bool { return false }

// Add indexes a coordinate, descending by the per-node split dimension and
// extending a leaf slot. An exact-equal coordinate met along the descent
// path is reported as ErrDuplicateCoordinate.
func (t *Tree) Add(c geom.Coordinate) error {
	if t.root == nil {
		t.root = &node{point: c}
		t.len++
		return nil
	}
	n := t.root
	for {
		if n.point == c {
			return ErrDuplicateCoordinate
		}
		next := (n.dim + 1) % t.dims
		if c.Component(n.dim) < n.point.Component(n.dim) {
			if n.left == nil {
				n.left = &node{point: c, dim: next}
				break
			}
			n = n.left
		} else {
			if n.right == nil {
				n.right = &node{point: c, dim: next}
				break
			}
			n = n.right
		}
	}
	t.len++
	return nil
}

func (t *Tree) AddAll(coords ...geom.Coordinate) error {
	for i := range coords {
		if err := t.Add(coords[i]); err != nil {
			return err
		}
	}
	return nil
}

// Contains descends the same comparison path as Add and reports whether an
// exact-equal coordinate was met.
func (t *Tree) Contains(c geom.Coordinate) bool {
	n := t.root
	for n != nil {
		if n.point == c {
			return true
		}
		if c.Component(n.dim) < n.point.Component(n.dim) {
			n = n.left
		} else {
			n = n.right
		}
	}
	return false
}

// Remove deletes an exact-equal coordinate if the comparison-guided descent
// reaches it. The subtree rooted at the removed node is rebuilt wholesale
// from its remaining coordinates: splicing a single node out would break the
// per-dimension ordering the searches prune by.
func (t *Tree) Remove(c geom.Coordinate) bool {
	slot := &t.root
	for *slot != nil {
		n := *slot
		if n.point == c {
			coords := without(n.collect(nil), c)
			*slot = buildSubtree(coords, n.dim, t.dims)
			t.len--
			return true
		}
		if c.Component(n.dim) < n.point.Component(n.dim) {
			slot = &n.left
		} else {
			slot = &n.right
		}
	}
	return false
}

// RemoveAll deletes every indexed coordinate the envelope contains and
// returns the removed set.
func (t *Tree) RemoveAll(env geom.Envelope) ([]geom.Coordinate, bool) {
	matches := t.Search(env)
	for _, c := range matches {
		t.Remove(c)
	}
	return matches, len(matches) > 0
}

// Search returns every indexed coordinate the envelope contains. A child is
// pruned only when the current node's point, along the node's split
// dimension, already rules the whole child subtree out; the rule checks a
// single point rather than the subtree extent, so it overvisits but never
// misses.
func (t *Tree) Search(env geom.Envelope) []geom.Coordinate {
	if t.root == nil {
		return nil
	}
	return t.root.search(env, nil)
}

func (n *node) search(env geom.Envelope, dst []geom.Coordinate) []geom.Coordinate {
	if env.ContainsCoordinate(n.point) {
		dst = append(dst, n.point)
	}
	if n.left != nil && n.point.Component(n.dim) >= env.Low(n.dim) {
		dst = n.left.search(env, dst)
	}
	if n.right != nil && n.point.Component(n.dim) <= env.High(n.dim) {
		dst = n.right.search(env, dst)
	}
	return dst
}

// NearestNeighbour returns the indexed coordinate closest to c. Ties keep
// the first coordinate found.
func (t *Tree) NearestNeighbour(c geom.Coordinate) (geom.Coordinate, error) {
	if t.root == nil {
		return geom.Coordinate{}, ErrEmptyTree
	}
	return t.root.nearest(c), nil
}

// nearest descends into the half-space holding the target, then on the way
// back up checks the node's own point and enters the other half-space only
// when the split plane is closer than the best distance so far.
func (n *node) nearest(target geom.Coordinate) geom.Coordinate {
	near, far := n.left, n.right
	if target.Component(n.dim) >= n.point.Component(n.dim) {
		near, far = n.right, n.left
	}
	best := n.point
	if near != nil {
		if cand := near.nearest(target); geom.Distance(cand, target) < geom.Distance(best, target) {
			best = cand
		}
	}
	if far != nil && math.Abs(target.Component(n.dim)-n.point.Component(n.dim)) < geom.Distance(best, target) {
		if cand := far.nearest(target); geom.Distance(cand, target) < geom.Distance(best, target) {
			best = cand
		}
	}
	return best
}

// NearestNeighbours returns up to k indexed coordinates closest to c,
// ordered by ascending distance.
func (t *Tree) NearestNeighbours(c geom.Coordinate, k int) ([]geom.Coordinate, error) {
	if k < 1 {
		return nil, ErrInvalidLimit
	}
	if t.root == nil {
		return nil, ErrEmptyTree
	}
	queue := pqueue.New[geom.Coordinate](pqueue.WithCap[geom.Coordinate](uint(k)))
	t.root.knn(c, k, queue)
	out := make([]geom.Coordinate, 0, queue.Len())
	for queue.Len() > 0 {
		c1, _ := queue.Head()
		out = append(out, c1)
	}
	return out, nil
}

func (n *node) knn(target geom.Coordinate, k int, queue *pqueue.Queue[geom.Coordinate]) {
	if n == nil {
		return
	}
	if d := geom.Distance(target, n.point); d < kthDistance(queue, k) {
		queue.Push(n.point, d)
	}
	near, far := n.left, n.right
	if target.Component(n.dim) >= n.point.Component(n.dim) {
		near, far = n.right, n.left
	}
	near.knn(target, k, queue)
	if math.Abs(target.Component(n.dim)-n.point.Component(n.dim)) < kthDistance(queue, k) {
		far.knn(target, k, queue)
	}
}

func kthDistance(queue *pqueue.Queue[geom.Coordinate], k int) float64 {
	if queue.Len() < k {
		return math.Inf(1)
	}
	_, d := queue.Seek(k - 1)
	return d
}

// Clear removes every indexed coordinate, keeping the configured dimensions.
func (t *Tree) Clear() {
	t.root = nil
	t.len = 0
}

// Rebalance reconstructs a height-balanced tree from the indexed set. It is
// explicit because it costs O(n log n) while Add and Remove stay cheap.
func (t *Tree) Rebalance() {
	if t.root == nil {
		return
	}
	t.root = buildSubtree(t.root.collect(nil), 0, t.dims)
}

func without(coords []geom.Coordinate, c geom.Coordinate) []geom.Coordinate {
	out := coords[:0]
	for _, c1 := range coords {
		if c1 != c {
			out = append(out, c1)
		}
	}
	return out
}

package mtree

import (
	"math"
	"sort"

	"terra/pkg/pqueue"
)

const defaultNodeCapacity = 8

func WithNodeCapacity[T any](n int) Option[T] {
	return func(t *Tree[T]) {
		if n > 1 {
			t.capacity = n
		}
	}
}

func WithSplitPolicy[T any](policy SplitPolicy[T]) Option[T] {
	return func(t *Tree[T]) {
		t.policy = policy
	}
}

type Option[T any] func(*Tree[T])

// Tree is a metric-space index: every node carries a routing element and a
// covering radius bounding the distance from that element to anything
// stored below it, which lets queries prune whole subtrees with the
// triangle inequality. Overflowing nodes are divided by the injected split
// policy. The tree is not safe for concurrent use.
type Tree[T any] struct {
	root     *node[T]
	dist     DistanceFn[T]
	policy   SplitPolicy[T]
	capacity int
	len      int
}

func New[T any](dist DistanceFn[T], opts ...Option[T]) *Tree[T] {
	t := &Tree[T]{dist: dist, policy: SmartSplitPolicy[T](), capacity: defaultNodeCapacity}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

type node[T any] struct {
	pivot    T
	radius   float64
	leaf     bool
	items    []T
	children []*node[T]
}

func (t *Tree[T]) Len() int { return t.len }

func (t *Tree[T]) IsEmpty() bool { return t.len == 0 }

func (t *Tree[T]) Add(item T) {
	t.len++
	if t.root == nil {
		t.root = &node[T]{pivot: item, leaf: true, items: []T{item}}
		return
	}
	n1, n2 := t.insert(t.root, item)
	if n2 == nil {
		return
	}
	root := &node[T]{pivot: n1.pivot, children: []*node[T]{n1, n2}}
	root.radius = math.Max(n1.radius, t.dist(root.pivot, n2.pivot)+n2.radius)
	t.root = root
}

func (t *Tree[T]) AddAll(items ...T) {
	for i := range items {
		t.Add(items[i])
	}
}

// insert descends toward the child with the nearest routing element,
// widening covering radii on the way down. A split at any level hands the
// replacement pair back to the caller.
func (t *Tree[T]) insert(n *node[T], item T) (*node[T], *node[T]) {
	if d := t.dist(item, n.pivot); d > n.radius {
		n.radius = d
	}
	if n.leaf {
		n.items = append(n.items, item)
		if len(n.items) <= t.capacity {
			return n, nil
		}
		return t.splitLeaf(n)
	}

	best := n.children[0]
	bestDist := t.dist(item, best.pivot)
	for _, child := range n.children[1:] {
		if d := t.dist(item, child.pivot); d < bestDist {
			best, bestDist = child, d
		}
	}
	c1, c2 := t.insert(best, item)
	if c2 != nil {
		for i, child := range n.children {
			if child == best {
				n.children[i] = c1
				break
			}
		}
		n.children = append(n.children, c2)
		if d := t.dist(c2.pivot, n.pivot) + c2.radius; d > n.radius {
			n.radius = d
		}
		if len(n.children) > t.capacity {
			return t.splitInternal(n)
		}
	}
	return n, nil
}

func (t *Tree[T]) splitLeaf(n *node[T]) (*node[T], *node[T]) {
	first, second := t.policy.Promote(n.items, t.dist)
	left, right := t.policy.Partition(first, second, n.items, t.dist)
	left, right = rebalanceEmpty(left, right)
	return t.newLeaf(first, left), t.newLeaf(second, right)
}

func (t *Tree[T]) newLeaf(pivot T, items []T) *node[T] {
	n := &node[T]{pivot: pivot, leaf: true, items: items}
	for _, it := range items {
		if d := t.dist(pivot, it); d > n.radius {
			n.radius = d
		}
	}
	return n
}

// splitInternal promotes two routing elements from the child pivots and
// assigns every child to the nearer one.
func (t *Tree[T]) splitInternal(n *node[T]) (*node[T], *node[T]) {
	pivots := make([]T, len(n.children))
	for i, child := range n.children {
		pivots[i] = child.pivot
	}
	first, second := t.policy.Promote(pivots, t.dist)

	var left, right []*node[T]
	for _, child := range n.children {
		if t.dist(child.pivot, first) <= t.dist(child.pivot, second) {
			left = append(left, child)
		} else {
			right = append(right, child)
		}
	}
	left, right = rebalanceEmpty(left, right)
	return t.newInternal(first, left), t.newInternal(second, right)
}

func (t *Tree[T]) newInternal(pivot T, children []*node[T]) *node[T] {
	n := &node[T]{pivot: pivot, children: children}
	for _, child := range children {
		if d := t.dist(pivot, child.pivot) + child.radius; d > n.radius {
			n.radius = d
		}
	}
	return n
}

func rebalanceEmpty[E any](left, right []E) ([]E, []E) {
	if len(left) == 0 && len(right) > 1 {
		left = append(left, right[len(right)-1])
		right = right[:len(right)-1]
	}
	if len(right) == 0 && len(left) > 1 {
		right = append(right, left[len(left)-1])
		left = left[:len(left)-1]
	}
	return left, right
}

// RangeSearch returns every stored element within radius of the query.
func (t *Tree[T]) RangeSearch(query T, radius float64) []T {
	if t.root == nil {
		return nil
	}
	return t.rangeSearch(t.root, query, radius, nil)
}

func (t *Tree[T]) rangeSearch(n *node[T], query T, radius float64, dst []T) []T {
	if t.dist(query, n.pivot) > radius+n.radius {
		return dst
	}
	if n.leaf {
		for _, it := range n.items {
			if t.dist(query, it) <= radius {
				dst = append(dst, it)
			}
		}
		return dst
	}
	for _, child := range n.children {
		dst = t.rangeSearch(child, query, radius, dst)
	}
	return dst
}

// NearestNeighbours returns up to k stored elements closest to the query,
// ordered by ascending distance.
func (t *Tree[T]) NearestNeighbours(query T, k int) []T {
	if t.root == nil || k < 1 {
		return nil
	}
	queue := pqueue.New[T](pqueue.WithCap[T](uint(k)))
	t.nearest(t.root, query, k, queue)
	return queue.PopAll()
}

func (t *Tree[T]) nearest(n *node[T], query T, k int, queue *pqueue.Queue[T]) {
	if t.dist(query, n.pivot)-n.radius > t.kthDistance(queue, k) {
		return
	}
	if n.leaf {
		for _, it := range n.items {
			if d := t.dist(query, it); d < t.kthDistance(queue, k) {
				queue.Push(it, d)
			}
		}
		return
	}
	ordered := make([]*node[T], len(n.children))
	copy(ordered, n.children)
	sort.Slice(ordered, func(i, j int) bool {
		return t.dist(query, ordered[i].pivot) < t.dist(query, ordered[j].pivot)
	})
	for _, child := range ordered {
		t.nearest(child, query, k, queue)
	}
}

func (t *Tree[T]) kthDistance(queue *pqueue.Queue[T], k int) float64 {
	if queue.Len() < k {
		return math.Inf(1)
	}
	_, d := queue.Seek(k - 1)
	return d
}

package kdtree

import (
	"errors"
	"math"
	"sort"
	"testing"

	"github.com/valyala/fastrand"

	"terra/internal/geom"
)

func randomCoordinates(n int, dims int) []geom.Coordinate {
	var rng fastrand.RNG
	rng.Seed(42)
	seen := map[geom.Coordinate]struct{}{}
	coords := make([]geom.Coordinate, 0, n)
	for len(coords) < n {
		c := geom.Coordinate{
			X: float64(rng.Uint32n(1000)) / 10,
			Y: float64(rng.Uint32n(1000)) / 10,
		}
		if dims == 3 {
			c.Z = float64(rng.Uint32n(1000)) / 10
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		coords = append(coords, c)
	}
	return coords
}

func bruteNearest(coords []geom.Coordinate, target geom.Coordinate) geom.Coordinate {
	best := coords[0]
	for _, c := range coords[1:] {
		if geom.Distance(c, target) < geom.Distance(best, target) {
			best = c
		}
	}
	return best
}

func bruteSearch(coords []geom.Coordinate, env geom.Envelope) []geom.Coordinate {
	var out []geom.Coordinate
	for _, c := range coords {
		if env.ContainsCoordinate(c) {
			out = append(out, c)
		}
	}
	return out
}

func sortCoordinates(coords []geom.Coordinate) {
	sort.Slice(coords, func(i, j int) bool {
		if coords[i].X != coords[j].X {
			return coords[i].X < coords[j].X
		}
		if coords[i].Y != coords[j].Y {
			return coords[i].Y < coords[j].Y
		}
		return coords[i].Z < coords[j].Z
	})
}

func sameCoordinates(a, b []geom.Coordinate) bool {
	if len(a) != len(b) {
		return false
	}
	a1 := append([]geom.Coordinate(nil), a...)
	b1 := append([]geom.Coordinate(nil), b...)
	sortCoordinates(a1)
	sortCoordinates(b1)
	for i := range a1 {
		if a1[i] != b1[i] {
			return false
		}
	}
	return true
}

// checkOrdering walks the tree verifying that, along every node's split
// dimension, the left subtree stays strictly below the node's point and the
// right subtree at or above it.
func checkOrdering(t *testing.T, n *node, dims int) int {
	t.Helper()
	if n == nil {
		return 0
	}
	for _, c := range n.left.collect(nil) {
		if c.Component(n.dim) >= n.point.Component(n.dim) {
			t.Errorf("left subtree violates ordering at %v: %v not below along dim %d", n.point, c, n.dim)
		}
	}
	for _, c := range n.right.collect(nil) {
		if c.Component(n.dim) < n.point.Component(n.dim) {
			t.Errorf("right subtree violates ordering at %v: %v below along dim %d", n.point, c, n.dim)
		}
	}
	next := (n.dim + 1) % dims
	if n.left != nil && n.left.dim != next {
		t.Errorf("left child split dimension, got: %d, expected: %d", n.left.dim, next)
	}
	if n.right != nil && n.right.dim != next {
		t.Errorf("right child split dimension, got: %d, expected: %d", n.right.dim, next)
	}
	return 1 + checkOrdering(t, n.left, dims) + checkOrdering(t, n.right, dims)
}

func TestNew_InvalidDimension(t *testing.T) {
	t.Parallel()
	for _, dims := range []int{0, 1, 4, -2} {
		if _, err := New(dims); !errors.Is(err, ErrInvalidDimension) {
			t.Errorf("dimensions %d, got: %v, expected: %v", dims, err, ErrInvalidDimension)
		}
	}
}

func TestTree_BalancedConstruction(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		dims   int
		coords []geom.Coordinate
	}{
		{name: "planar", dims: 2, coords: randomCoordinates(128, 2)},
		{name: "spatial", dims: 3, coords: randomCoordinates(128, 3)},
		{name: "single", dims: 2, coords: []geom.Coordinate{geom.NewCoordinate(1, 1)}},
	}
	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			tree, err := NewFromCoordinates(test.coords, test.dims)
			if err != nil {
				t.Fatalf("construct tree: %v", err)
			}
			if count := checkOrdering(t, tree.root, test.dims); count != len(test.coords) {
				t.Errorf("node count after construction, got: %d, expected: %d", count, len(test.coords))
			}
			if !sameCoordinates(tree.root.collect(nil), test.coords) {
				t.Errorf("traversal does not yield the input coordinates")
			}
		})
	}
}

func TestTree_SearchScenario(t *testing.T) {
	t.Parallel()
	coords := []geom.Coordinate{
		geom.NewCoordinate(0, 0),
		geom.NewCoordinate(1, 1),
		geom.NewCoordinate(2, 2),
		geom.NewCoordinate(3, 3),
		geom.NewCoordinate(4, 4),
	}
	tree, err := NewFromCoordinates(coords, 2)
	if err != nil {
		t.Fatalf("construct tree: %v", err)
	}
	got := tree.Search(geom.NewEnvelope(1, 3, 1, 3))
	expected := []geom.Coordinate{
		geom.NewCoordinate(1, 1),
		geom.NewCoordinate(2, 2),
		geom.NewCoordinate(3, 3),
	}
	if !sameCoordinates(got, expected) {
		t.Errorf("range search, got: %v, expected: %v", got, expected)
	}
}

func TestTree_SearchRandom(t *testing.T) {
	t.Parallel()
	coords := randomCoordinates(256, 2)
	tree, err := NewFromCoordinates(coords, 2)
	if err != nil {
		t.Fatalf("construct tree: %v", err)
	}
	envs := []geom.Envelope{
		geom.NewEnvelope(0, 100, 0, 100),
		geom.NewEnvelope(10, 30, 40, 90),
		geom.NewEnvelope(50, 50.5, 0, 100),
		geom.NewEnvelope(200, 300, 200, 300),
	}
	for _, env := range envs {
		if got, expected := tree.Search(env), bruteSearch(coords, env); !sameCoordinates(got, expected) {
			t.Errorf("range search over %+v, got %d matches, expected %d", env, len(got), len(expected))
		}
	}
}

func TestTree_AddDuplicate(t *testing.T) {
	t.Parallel()
	tree, _ := New(2)
	if err := tree.Add(geom.NewCoordinate(1, 2)); err != nil {
		t.Fatalf("add coordinate: %v", err)
	}
	if err := tree.Add(geom.NewCoordinate(1, 2)); !errors.Is(err, ErrDuplicateCoordinate) {
		t.Errorf("duplicate add, got: %v, expected: %v", err, ErrDuplicateCoordinate)
	}
	if tree.Len() != 1 {
		t.Errorf("tree length after rejected add, got: %d, expected: %d", tree.Len(), 1)
	}
}

func TestTree_Contains(t *testing.T) {
	t.Parallel()
	coords := randomCoordinates(64, 2)
	tree, err := NewFromCoordinates(coords, 2)
	if err != nil {
		t.Fatalf("construct tree: %v", err)
	}
	for _, c := range coords {
		if !tree.Contains(c) {
			t.Errorf("indexed coordinate %v not found", c)
		}
	}
	if tree.Contains(geom.NewCoordinate(-1, -1)) {
		t.Errorf("found a coordinate that was never indexed")
	}
}

func TestTree_Remove(t *testing.T) {
	t.Parallel()
	coords := randomCoordinates(64, 2)
	tree, err := NewFromCoordinates(coords, 2)
	if err != nil {
		t.Fatalf("construct tree: %v", err)
	}

	if tree.Remove(geom.NewCoordinate(-5, -5)) {
		t.Errorf("removing an absent coordinate must be a no-op")
	}
	if tree.Len() != len(coords) {
		t.Errorf("tree length after no-op removal, got: %d, expected: %d", tree.Len(), len(coords))
	}

	// Take the root out first to exercise the whole-tree rebuild.
	root := tree.root.point
	if !tree.Remove(root) {
		t.Fatalf("failed to remove the root coordinate %v", root)
	}
	for _, c := range coords {
		if c == root {
			continue
		}
		if !tree.Remove(c) {
			t.Errorf("failed to remove indexed coordinate %v", c)
			continue
		}
		if tree.Contains(c) {
			t.Errorf("coordinate %v still present after removal", c)
		}
		checkOrdering(t, tree.root, 2)
	}
	if !tree.IsEmpty() {
		t.Errorf("tree not empty after removing everything, len: %d", tree.Len())
	}
}

func TestTree_RemoveRoundTrip(t *testing.T) {
	t.Parallel()
	coords := randomCoordinates(32, 3)
	tree, err := NewFromCoordinates(coords, 3)
	if err != nil {
		t.Fatalf("construct tree: %v", err)
	}
	extra := geom.NewCoordinateZ(-1, -2, -3)
	if err := tree.Add(extra); err != nil {
		t.Fatalf("add coordinate: %v", err)
	}
	if !tree.Remove(extra) {
		t.Fatalf("remove coordinate %v", extra)
	}
	if !sameCoordinates(tree.root.collect(nil), coords) {
		t.Errorf("add/remove round trip changed the indexed set")
	}
}

func TestTree_RemoveAll(t *testing.T) {
	t.Parallel()
	coords := randomCoordinates(128, 2)
	tree, err := NewFromCoordinates(coords, 2)
	if err != nil {
		t.Fatalf("construct tree: %v", err)
	}
	env := geom.NewEnvelope(20, 60, 20, 60)
	removed, ok := tree.RemoveAll(env)
	if expected := bruteSearch(coords, env); !sameCoordinates(removed, expected) {
		t.Errorf("removed set, got %d coordinates, expected %d", len(removed), len(expected))
	}
	if ok != (len(removed) > 0) {
		t.Errorf("removal report, got: %v, expected: %v", ok, len(removed) > 0)
	}
	for _, c := range removed {
		if tree.Contains(c) {
			t.Errorf("coordinate %v still present after envelope removal", c)
		}
	}
	if got := tree.Search(env); len(got) != 0 {
		t.Errorf("envelope still has %d matches after removal", len(got))
	}
}

func TestTree_NearestNeighbour(t *testing.T) {
	t.Parallel()
	coords := randomCoordinates(256, 2)
	tree, err := NewFromCoordinates(coords, 2)
	if err != nil {
		t.Fatalf("construct tree: %v", err)
	}
	targets := append(randomCoordinates(32, 2), coords[:8]...)
	for _, target := range targets {
		got, err := tree.NearestNeighbour(target)
		if err != nil {
			t.Fatalf("nearest neighbour: %v", err)
		}
		expected := bruteNearest(coords, target)
		if math.Abs(geom.Distance(got, target)-geom.Distance(expected, target)) > 1e-12 {
			t.Errorf("nearest neighbour of %v, got: %v (%v), expected: %v (%v)",
				target, got, geom.Distance(got, target), expected, geom.Distance(expected, target))
		}
	}
}

func TestTree_NearestNeighbourEmpty(t *testing.T) {
	t.Parallel()
	tree, _ := New(2)
	if _, err := tree.NearestNeighbour(geom.NewCoordinate(0, 0)); !errors.Is(err, ErrEmptyTree) {
		t.Errorf("nearest neighbour on empty tree, got: %v, expected: %v", err, ErrEmptyTree)
	}
}

func TestTree_NearestNeighbours(t *testing.T) {
	t.Parallel()
	coords := randomCoordinates(128, 2)
	tree, err := NewFromCoordinates(coords, 2)
	if err != nil {
		t.Fatalf("construct tree: %v", err)
	}
	target := geom.NewCoordinate(50, 50)
	const k = 7
	got, err := tree.NearestNeighbours(target, k)
	if err != nil {
		t.Fatalf("nearest neighbours: %v", err)
	}
	if len(got) != k {
		t.Fatalf("neighbour count, got: %d, expected: %d", len(got), k)
	}
	ranked := append([]geom.Coordinate(nil), coords...)
	sort.Slice(ranked, func(i, j int) bool {
		return geom.Distance(ranked[i], target) < geom.Distance(ranked[j], target)
	})
	for i := range got {
		if math.Abs(geom.Distance(got[i], target)-geom.Distance(ranked[i], target)) > 1e-12 {
			t.Errorf("neighbour %d, got distance %v, expected %v",
				i, geom.Distance(got[i], target), geom.Distance(ranked[i], target))
		}
	}
	if _, err := tree.NearestNeighbours(target, 0); !errors.Is(err, ErrInvalidLimit) {
		t.Errorf("neighbour limit 0, got: %v, expected: %v", err, ErrInvalidLimit)
	}
}

func TestTree_Rebalance(t *testing.T) {
	t.Parallel()
	tree, _ := New(2)
	coords := randomCoordinates(100, 2)
	// Insert in sorted order to degenerate the tree first.
	sortCoordinates(coords)
	if err := tree.AddAll(coords...); err != nil {
		t.Fatalf("add coordinates: %v", err)
	}
	env := geom.NewEnvelope(10, 80, 10, 80)
	before := tree.Search(env)
	nnBefore, _ := tree.NearestNeighbour(geom.NewCoordinate(33, 33))

	tree.Rebalance()

	checkOrdering(t, tree.root, 2)
	if !sameCoordinates(tree.Search(env), before) {
		t.Errorf("rebalance changed range search results")
	}
	nnAfter, _ := tree.NearestNeighbour(geom.NewCoordinate(33, 33))
	if geom.Distance(nnBefore, geom.NewCoordinate(33, 33)) != geom.Distance(nnAfter, geom.NewCoordinate(33, 33)) {
		t.Errorf("rebalance changed nearest neighbour distance")
	}
	if !sameCoordinates(tree.root.collect(nil), coords) {
		t.Errorf("rebalance changed the indexed set")
	}
}

func TestTree_Clear(t *testing.T) {
	t.Parallel()
	coords := randomCoordinates(32, 2)
	tree, err := NewFromCoordinates(coords, 2)
	if err != nil {
		t.Fatalf("construct tree: %v", err)
	}
	tree.Clear()
	if !tree.IsEmpty() || tree.Len() != 0 {
		t.Errorf("tree not empty after clear, len: %d", tree.Len())
	}
	if tree.Contains(coords[0]) {
		t.Errorf("coordinate %v still present after clear", coords[0])
	}
	if got := tree.Search(geom.NewEnvelope(0, 100, 0, 100)); len(got) != 0 {
		t.Errorf("search after clear, got %d matches, expected 0", len(got))
	}
	// A cleared tree keeps its dimensions and stays usable.
	if err := tree.Add(coords[0]); err != nil {
		t.Fatalf("add after clear: %v", err)
	}
	if tree.Len() != 1 {
		t.Errorf("tree length after re-add, got: %d, expected: %d", tree.Len(), 1)
	}
}

func TestTree_IsReadOnly(t *testing.T) {
	t.Parallel()
	tree, _ := New(2)
	if tree.IsReadOnly() {
		t.Errorf("tree must not be read-only")
	}
}

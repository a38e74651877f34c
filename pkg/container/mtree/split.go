package mtree

import (
	"math"
	"sort"
)

// DistanceFn is the metric the tree and its split policies operate under.
// It must be symmetric and non-negative.
type DistanceFn[T any] func(a, b T) float64

// PromoteFn selects the two representative elements seeding a binary split.
// The dataset holds at least two elements.
type PromoteFn[T any] func(items []T, dist DistanceFn[T]) (first, second T)

// PartitionFn assigns every dataset element to one of the two
// representative-anchored output sets.
type PartitionFn[T any] func(first, second T, items []T, dist DistanceFn[T]) (left, right []T)

// SplitPolicy couples a promotion and a partition strategy. Policies are
// stateless; the same value can drive any number of splits.
type SplitPolicy[T any] struct {
	Promote   PromoteFn[T]
	Partition PartitionFn[T]
}

// LowCostSplitPolicy splits in O(n): arbitrary representatives, nearest
// assignment, possibly unbalanced halves.
func LowCostSplitPolicy[T any]() SplitPolicy[T] {
	return SplitPolicy[T]{Promote: RandomPromote[T], Partition: GeneralizedHyperplanePartition[T]}
}

// SmartSplitPolicy trades an O(n²) promotion scan for well-separated
// representatives and halves differing in size by at most one.
func SmartSplitPolicy[T any]() SplitPolicy[T] {
	return SplitPolicy[T]{Promote: MaximumDistancePromote[T], Partition: BalancedPartition[T]}
}

// RandomPromote takes the first two elements in iteration order.
func RandomPromote[T any](items []T, _ DistanceFn[T]) (T, T) {
	return items[0], items[1]
}

// MaximumDistancePromote scans every pair and keeps the farthest one.
func MaximumDistancePromote[T any](items []T, dist DistanceFn[T]) (T, T) {
	first, second := items[0], items[1]
	best := math.Inf(-1)
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if d := dist(items[i], items[j]); d > best {
				best, first, second = d, items[i], items[j]
			}
		}
	}
	return first, second
}

// GeneralizedHyperplanePartition assigns each element to the nearer
// representative; ties go left.
func GeneralizedHyperplanePartition[T any](first, second T, items []T, dist DistanceFn[T]) (left, right []T) {
	for _, it := range items {
		if dist(it, first) <= dist(it, second) {
			left = append(left, it)
		} else {
			right = append(right, it)
		}
	}
	return left, right
}

// BalancedPartition orders the dataset by distance to each representative
// and alternately hands each side its nearest not-yet-assigned element, so
// the output sizes differ by at most one.
func BalancedPartition[T any](first, second T, items []T, dist DistanceFn[T]) (left, right []T) {
	byFirst := make([]int, len(items))
	bySecond := make([]int, len(items))
	for i := range items {
		byFirst[i], bySecond[i] = i, i
	}
	sort.SliceStable(byFirst, func(i, j int) bool {
		return dist(items[byFirst[i]], first) < dist(items[byFirst[j]], first)
	})
	sort.SliceStable(bySecond, func(i, j int) bool {
		return dist(items[bySecond[i]], second) < dist(items[bySecond[j]], second)
	})

	assigned := make([]bool, len(items))
	var fi, si int
	for done := 0; done < len(items); {
		for assigned[byFirst[fi]] {
			fi++
		}
		left = append(left, items[byFirst[fi]])
		assigned[byFirst[fi]] = true
		done++
		if done == len(items) {
			break
		}
		for assigned[bySecond[si]] {
			si++
		}
		right = append(right, items[bySecond[si]])
		assigned[bySecond[si]] = true
		done++
	}
	return left, right
}

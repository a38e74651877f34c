package geom

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Distance returns the Euclidean distance between two coordinates.
func Distance(c, c1 Coordinate) float64 {
	return floats.Distance(c.components(), c1.components(), 2)
}

// ManhattanDistance returns the L1 distance between two coordinates.
func ManhattanDistance(c, c1 Coordinate) float64 {
	return floats.Distance(c.components(), c1.components(), 1)
}

// ChebyshevDistance returns the L∞ distance between two coordinates.
func ChebyshevDistance(c, c1 Coordinate) float64 {
	return floats.Distance(c.components(), c1.components(), math.Inf(1))
}

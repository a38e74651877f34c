package geom

import (
	"fmt"
)

// Coordinate is an immutable position with up to three components.
// For planar data the Z component is left at zero.
type Coordinate struct {
	X, Y, Z float64
}

func NewCoordinate(x, y float64) Coordinate {
	return Coordinate{X: x, Y: y}
}

func NewCoordinateZ(x, y, z float64) Coordinate {
	return Coordinate{X: x, Y: y, Z: z}
}

// Component returns the value along the given axis, 0 for X and 1 for Y; any
// other index reads the Z component, the same fallthrough Envelope.Low and
// Envelope.High use.
func (c Coordinate) Component(dim int) float64 {
	switch dim {
	case 0:
		return c.X
	case 1:
		return c.Y
	default:
		return c.Z
	}
}

func (c Coordinate) Equal(c1 Coordinate) bool {
	return c == c1
}

func (c Coordinate) String() string {
	return fmt.Sprintf("(%v %v %v)", c.X, c.Y, c.Z)
}

func (c Coordinate) components() []float64 {
	return []float64{c.X, c.Y, c.Z}
}

package geom

import (
	"github.com/google/uuid"
)

// Geometry is the capability the region indexes require of stored values.
// Implementations must be comparable: the indexes locate stored geometries
// by value equality.
type Geometry interface {
	Envelope() Envelope
}

// Point is a single coordinate as a geometry.
type Point struct {
	Coord Coordinate
}

func NewPoint(c Coordinate) Point {
	return Point{Coord: c}
}

func (p Point) Envelope() Envelope {
	return FromCoordinates(p.Coord)
}

// Box is an envelope as a geometry.
type Box struct {
	Bounds Envelope
}

func NewBox(bounds Envelope) Box {
	return Box{Bounds: bounds}
}

func (b Box) Envelope() Envelope {
	return b.Bounds
}

// Feature is a bounded geometry with a stable identifier, for callers that
// index the same extent more than once.
type Feature struct {
	ID     uuid.UUID
	Bounds Envelope
}

func NewFeature(bounds Envelope) Feature {
	return Feature{ID: uuid.New(), Bounds: bounds}
}

func (f Feature) Envelope() Envelope {
	return f.Bounds
}

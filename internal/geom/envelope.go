package geom

import (
	"math"
)

// Envelope is an axis-aligned minimum bounding box over two or three
// dimensions. Planar envelopes keep degenerate Z bounds.
type Envelope struct {
	MinX, MinY, MinZ float64
	MaxX, MaxY, MaxZ float64
}

func NewEnvelope(x1, x2, y1, y2 float64) Envelope {
	return NewEnvelopeZ(x1, x2, y1, y2, 0, 0)
}

func NewEnvelopeZ(x1, x2, y1, y2, z1, z2 float64) Envelope {
	return Envelope{
		MinX: math.Min(x1, x2), MaxX: math.Max(x1, x2),
		MinY: math.Min(y1, y2), MaxY: math.Max(y1, y2),
		MinZ: math.Min(z1, z2), MaxZ: math.Max(z1, z2),
	}
}

// FromCoordinates computes the bounding envelope of a set of coordinates.
func FromCoordinates(coords ...Coordinate) Envelope {
	e := empty()
	for _, c := range coords {
		e.MinX = math.Min(e.MinX, c.X)
		e.MaxX = math.Max(e.MaxX, c.X)
		e.MinY = math.Min(e.MinY, c.Y)
		e.MaxY = math.Max(e.MaxY, c.Y)
		e.MinZ = math.Min(e.MinZ, c.Z)
		e.MaxZ = math.Max(e.MaxZ, c.Z)
	}
	return e
}

// FromEnvelopes computes the bounding envelope of a set of envelopes.
func FromEnvelopes(envs ...Envelope) Envelope {
	e := empty()
	for _, e1 := range envs {
		if !e1.IsValid() {
			continue
		}
		e.MinX = math.Min(e.MinX, e1.MinX)
		e.MaxX = math.Max(e.MaxX, e1.MaxX)
		e.MinY = math.Min(e.MinY, e1.MinY)
		e.MaxY = math.Max(e.MaxY, e1.MaxY)
		e.MinZ = math.Min(e.MinZ, e1.MinZ)
		e.MaxZ = math.Max(e.MaxZ, e1.MaxZ)
	}
	return e
}

func empty() Envelope {
	inf := math.Inf(1)
	return Envelope{MinX: inf, MinY: inf, MinZ: inf, MaxX: -inf, MaxY: -inf, MaxZ: -inf}
}

// IsValid reports whether the bounds are ordered on every axis.
func (e Envelope) IsValid() bool {
	return e.MinX <= e.MaxX && e.MinY <= e.MaxY && e.MinZ <= e.MaxZ
}

// IsPlanar reports whether the envelope has no vertical extent.
func (e Envelope) IsPlanar() bool {
	return e.MinZ == e.MaxZ
}

// Low returns the lower bound along the given axis.
func (e Envelope) Low(dim int) float64 {
	switch dim {
	case 0:
		return e.MinX
	case 1:
		return e.MinY
	default:
		return e.MinZ
	}
}

// High returns the upper bound along the given axis.
func (e Envelope) High(dim int) float64 {
	switch dim {
	case 0:
		return e.MaxX
	case 1:
		return e.MaxY
	default:
		return e.MaxZ
	}
}

// Contains reports whether e1 lies entirely within e. Z bounds are ignored
// when both envelopes are planar.
func (e Envelope) Contains(e1 Envelope) bool {
	if e1.MinX < e.MinX || e1.MaxX > e.MaxX || e1.MinY < e.MinY || e1.MaxY > e.MaxY {
		return false
	}
	if e.IsPlanar() && e1.IsPlanar() {
		return true
	}
	return e1.MinZ >= e.MinZ && e1.MaxZ <= e.MaxZ
}

// ContainsCoordinate reports whether the coordinate lies within the
// envelope. Planar envelopes ignore the Z component.
func (e Envelope) ContainsCoordinate(c Coordinate) bool {
	if c.X < e.MinX || c.X > e.MaxX || c.Y < e.MinY || c.Y > e.MaxY {
		return false
	}
	if e.IsPlanar() {
		return true
	}
	return c.Z >= e.MinZ && c.Z <= e.MaxZ
}

// Intersects reports whether the two envelopes share any point.
func (e Envelope) Intersects(e1 Envelope) bool {
	if e.MaxX < e1.MinX || e1.MaxX < e.MinX || e.MaxY < e1.MinY || e1.MaxY < e.MinY {
		return false
	}
	if e.IsPlanar() && e1.IsPlanar() {
		return true
	}
	return e.MaxZ >= e1.MinZ && e1.MaxZ >= e.MinZ
}

// Expand returns the union of the two envelopes.
func (e Envelope) Expand(e1 Envelope) Envelope {
	return FromEnvelopes(e, e1)
}

func (e Envelope) Center() Coordinate {
	return Coordinate{
		X: (e.MinX + e.MaxX) / 2,
		Y: (e.MinY + e.MaxY) / 2,
		Z: (e.MinZ + e.MaxZ) / 2,
	}
}

package crs

import (
	"errors"
	"math"

	"terra/internal/geom"
)

var (
	ErrLongitudeRange = errors.New("crs: longitude outside [-180, 180]")
	ErrLatitudeRange  = errors.New("crs: latitude outside web-mercator domain")
)

// Web-Mercator truncates near the poles so the projected map is square.
const maxLatitude = 85.05112878

// WebMercator is the spherical EPSG:3857 projection between geographic
// degrees (X longitude, Y latitude) and metres.
type WebMercator struct {
	Ellipsoid Ellipsoid
}

func NewWebMercator() WebMercator {
	return WebMercator{Ellipsoid: WGS84}
}

// Forward projects a geographic coordinate to projected metres. The Z
// component passes through.
func (p WebMercator) Forward(c geom.Coordinate) (geom.Coordinate, error) {
	if c.X < -180 || c.X > 180 {
		return geom.Coordinate{}, ErrLongitudeRange
	}
	if c.Y < -maxLatitude || c.Y > maxLatitude {
		return geom.Coordinate{}, ErrLatitudeRange
	}
	r := p.Ellipsoid.SemiMajorAxis
	return geom.Coordinate{
		X: radians(c.X) * r,
		Y: math.Log(math.Tan(math.Pi/4+radians(c.Y)/2)) * r,
		Z: c.Z,
	}, nil
}

// Inverse unprojects metres back to geographic degrees.
func (p WebMercator) Inverse(c geom.Coordinate) geom.Coordinate {
	r := p.Ellipsoid.SemiMajorAxis
	return geom.Coordinate{
		X: degrees(c.X / r),
		Y: degrees(2*math.Atan(math.Exp(c.Y/r)) - math.Pi/2),
		Z: c.Z,
	}
}

func radians(deg float64) float64 { return deg * math.Pi / 180 }

func degrees(rad float64) float64 { return rad * 180 / math.Pi }

// Package crs models coordinate reference systems: reference ellipsoids, an
// EPSG-keyed registry and the Web-Mercator projection.
package crs

import (
	"math"
)

// Ellipsoid is a biaxial reference ellipsoid given by its semi-major axis
// in metres and its inverse flattening.
type Ellipsoid struct {
	Name              string
	SemiMajorAxis     float64
	InverseFlattening float64
}

func (e Ellipsoid) Flattening() float64 {
	return 1 / e.InverseFlattening
}

func (e Ellipsoid) SemiMinorAxis() float64 {
	return e.SemiMajorAxis * (1 - e.Flattening())
}

func (e Ellipsoid) EccentricitySquared() float64 {
	f := e.Flattening()
	return f * (2 - f)
}

func (e Ellipsoid) Eccentricity() float64 {
	return math.Sqrt(e.EccentricitySquared())
}

var (
	WGS84 = Ellipsoid{Name: "WGS 84", SemiMajorAxis: 6378137, InverseFlattening: 298.257223563}
	GRS80 = Ellipsoid{Name: "GRS 1980", SemiMajorAxis: 6378137, InverseFlattening: 298.257222101}
)

// CRS identifies a coordinate reference system by its EPSG code.
type CRS struct {
	Code      int
	Name      string
	Ellipsoid Ellipsoid
}

const (
	CodeWGS84       = 4326
	CodeWebMercator = 3857
)

var registry = map[int]CRS{
	CodeWGS84:       {Code: CodeWGS84, Name: "WGS 84", Ellipsoid: WGS84},
	CodeWebMercator: {Code: CodeWebMercator, Name: "WGS 84 / Pseudo-Mercator", Ellipsoid: WGS84},
}

// ByCode looks a reference system up by EPSG code.
func ByCode(code int) (CRS, bool) {
	c, ok := registry[code]
	return c, ok
}

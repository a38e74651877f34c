// Package wkt reads and writes well-known-text representations of the geom
// value types.
package wkt

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"terra/internal/geom"
)

var ErrInvalidText = errors.New("wkt: malformed well-known text")

// MarshalPoint renders POINT (x y), or POINT Z (x y z) for spatial
// coordinates.
func MarshalPoint(c geom.Coordinate) string {
	if c.Z != 0 {
		return fmt.Sprintf("POINT Z (%s %s %s)", number(c.X), number(c.Y), number(c.Z))
	}
	return fmt.Sprintf("POINT (%s %s)", number(c.X), number(c.Y))
}

// MarshalEnvelope renders the envelope footprint as a closed polygon ring,
// counter-clockwise from the lower-left corner.
func MarshalEnvelope(e geom.Envelope) string {
	return fmt.Sprintf("POLYGON ((%s %s, %s %s, %s %s, %s %s, %s %s))",
		number(e.MinX), number(e.MinY),
		number(e.MaxX), number(e.MinY),
		number(e.MaxX), number(e.MaxY),
		number(e.MinX), number(e.MaxY),
		number(e.MinX), number(e.MinY),
	)
}

// UnmarshalPoint parses POINT and POINT Z text.
func UnmarshalPoint(s string) (geom.Coordinate, error) {
	body := strings.TrimSpace(s)
	if !strings.HasPrefix(strings.ToUpper(body), "POINT") {
		return geom.Coordinate{}, ErrInvalidText
	}
	body = strings.TrimSpace(body[len("POINT"):])
	if strings.HasPrefix(strings.ToUpper(body), "Z") {
		body = strings.TrimSpace(body[1:])
	}
	if !strings.HasPrefix(body, "(") || !strings.HasSuffix(body, ")") {
		return geom.Coordinate{}, ErrInvalidText
	}
	fields := strings.Fields(body[1 : len(body)-1])
	if len(fields) != 2 && len(fields) != 3 {
		return geom.Coordinate{}, ErrInvalidText
	}
	values := make([]float64, len(fields))
	for i, field := range fields {
		d, err := decimal.NewFromString(field)
		if err != nil {
			return geom.Coordinate{}, fmt.Errorf("%w: %v", ErrInvalidText, err)
		}
		values[i], _ = d.Float64()
	}
	c := geom.Coordinate{X: values[0], Y: values[1]}
	if len(values) == 3 {
		c.Z = values[2]
	}
	return c, nil
}

// number formats a float without binary representation noise.
func number(v float64) string {
	return decimal.NewFromFloat(v).String()
}

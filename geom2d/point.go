// Package geom2d holds the 2D primitives shared by the tile addressing and
// frame alignment packages: points, view rectangles and similarity transforms.
//
// Points are github.com/go-spatial/geom points so they can be handed to
// anything else in the go-spatial ecosystem (extents, WKT encoding) unchanged.
package geom2d

import (
	"math"

	"github.com/go-spatial/geom"
)

// Point2D is a real-valued image-pixel or world coordinate.
type Point2D = geom.Point

// Size is a width/height pair, used for image, tile and render surface dimensions.
type Size struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Valid reports whether both dimensions are finite and strictly positive.
func (s Size) Valid() bool {
	return isFinite(s.Width) && isFinite(s.Height) && s.Width > 0 && s.Height > 0
}

func Add(a, b Point2D) Point2D {
	return Point2D{a.X() + b.X(), a.Y() + b.Y()}
}

func Subtract(a, b Point2D) Point2D {
	return Point2D{a.X() - b.X(), a.Y() - b.Y()}
}

// Rotate rotates p counterclockwise about the coordinate origin.
func Rotate(p Point2D, angle float64) Point2D {
	sin, cos := math.Sincos(angle)
	return Point2D{
		p.X()*cos - p.Y()*sin,
		p.X()*sin + p.Y()*cos,
	}
}

func Scale(p Point2D, factor float64) Point2D {
	return Point2D{p.X() * factor, p.Y() * factor}
}

// Length is the euclidean norm of p.
func Length(p Point2D) float64 {
	return math.Hypot(p.X(), p.Y())
}

// BoundingBox returns the axis-aligned box containing all points.
// Must not be called with an empty slice.
func BoundingBox(points []Point2D) (minPoint, maxPoint Point2D) {
	pts := make([][2]float64, len(points))
	for i := range points {
		pts[i] = [2]float64(points[i])
	}
	extent := geom.NewExtent(pts...)
	return Point2D{extent.MinX(), extent.MinY()}, Point2D{extent.MaxX(), extent.MaxY()}
}

// IsFinitePoint reports whether both ordinates are neither NaN nor infinite.
func IsFinitePoint(p Point2D) bool {
	return isFinite(p.X()) && isFinite(p.Y())
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

package geom2d

import (
	"github.com/go-spatial/geom"
	"github.com/go-spatial/geom/encoding/wkt"
	"github.com/muesli/reflow/truncate"
)

// ViewRect is an axis-aligned window into image pixel space plus the decimation
// factor Mip: the number of source pixels represented by one rendered pixel.
type ViewRect struct {
	XMin float64 `json:"xMin" yaml:"xMin"`
	XMax float64 `json:"xMax" yaml:"xMax"`
	YMin float64 `json:"yMin" yaml:"yMin"`
	YMax float64 `json:"yMax" yaml:"yMax"`
	Mip  float64 `json:"mip" yaml:"mip"`
}

// DummyView is returned while a frame cannot be rendered yet (no zoom, no surface).
var DummyView = ViewRect{XMin: 0, XMax: 1, YMin: 0, YMax: 1, Mip: 1}

// Valid reports whether all fields are finite, the bounds are ordered and mip is positive.
func (v ViewRect) Valid() bool {
	if !isFinite(v.XMin) || !isFinite(v.XMax) || !isFinite(v.YMin) || !isFinite(v.YMax) || !isFinite(v.Mip) {
		return false
	}
	return v.XMin < v.XMax && v.YMin < v.YMax && v.Mip > 0
}

func (v ViewRect) Width() float64 {
	return v.XMax - v.XMin
}

func (v ViewRect) Height() float64 {
	return v.YMax - v.YMin
}

func (v ViewRect) Center() Point2D {
	return Point2D{(v.XMin + v.XMax) / 2, (v.YMin + v.YMax) / 2}
}

// Corners returns the four corners, in the order
// (xMin,yMin), (xMin,yMax), (xMax,yMax), (xMax,yMin).
func (v ViewRect) Corners() [4]Point2D {
	return [4]Point2D{
		{v.XMin, v.YMin},
		{v.XMin, v.YMax},
		{v.XMax, v.YMax},
		{v.XMax, v.YMin},
	}
}

// Intersects reports whether the view overlaps [0, width) × [0, height).
func (v ViewRect) Intersects(width, height float64) bool {
	return v.XMax > 0 && v.XMin < width && v.YMax > 0 && v.YMin < height
}

// Clip bounds the view to [0, width] × [0, height], keeping the mip.
// ok is false when nothing of the view lies inside the image.
func (v ViewRect) Clip(width, height float64) (clipped ViewRect, ok bool) {
	if !v.Intersects(width, height) {
		return ViewRect{}, false
	}
	return ViewRect{
		XMin: max(0, v.XMin),
		XMax: min(v.XMax, width),
		YMin: max(0, v.YMin),
		YMax: min(v.YMax, height),
		Mip:  v.Mip,
	}, true
}

// Extent is the view's footprint as a go-spatial extent.
func (v ViewRect) Extent() geom.Extent {
	return geom.Extent{v.XMin, v.YMin, v.XMax, v.YMax}
}

// Polygon is the view's footprint as a closed ring.
func (v ViewRect) Polygon() geom.Polygon {
	c := v.Corners()
	return geom.Polygon{{c[0], c[1], c[2], c[3]}}
}

// WKT encodes the footprint, truncated to maxLen runes (0 means no limit).
func (v ViewRect) WKT(maxLen uint) string {
	return WKT(v.Polygon(), maxLen)
}

// WKT encodes a geometry for debug output, truncated to maxLen runes (0 means no limit).
func WKT(g geom.Geometry, maxLen uint) string {
	if maxLen == 0 {
		return wkt.MustEncode(g)
	}
	return truncate.StringWithTail(wkt.MustEncode(g), maxLen, "...")
}

package align

import (
	"fmt"
	"math"

	"github.com/pdok/skyview/geom2d"
	"github.com/pdok/skyview/mathhelp"
)

// ControlMap is a regular grid of points in the source frame's pixel space with
// their positions in the destination frame's pixel space. Contours computed on
// the source are drawn on the destination by interpolating in the grid.
type ControlMap struct {
	Source      FrameID `json:"source"`
	Destination FrameID `json:"destination"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`

	// sampled extent of the source pixel space
	MinPoint geom2d.Point2D `json:"minPoint"`
	MaxPoint geom2d.Point2D `json:"maxPoint"`

	// row major destination coordinates, two values per sample
	Grid []float64 `json:"grid"`
}

func newControlMap(src, dst FrameID, minPoint, maxPoint geom2d.Point2D, width, height int, t geom2d.Transform) *ControlMap {
	m := &ControlMap{
		Source:      src,
		Destination: dst,
		Width:       width,
		Height:      height,
		MinPoint:    minPoint,
		MaxPoint:    maxPoint,
		Grid:        make([]float64, 0, 2*width*height),
	}
	for j := 0; j < height; j++ {
		for i := 0; i < width; i++ {
			p := t.Forward(m.samplePoint(float64(i), float64(j)))
			m.Grid = append(m.Grid, p.X(), p.Y())
		}
	}
	return m
}

func (m *ControlMap) samplePoint(i, j float64) geom2d.Point2D {
	return geom2d.Point2D{
		m.MinPoint.X() + i*(m.MaxPoint.X()-m.MinPoint.X())/float64(m.Width-1),
		m.MinPoint.Y() + j*(m.MaxPoint.Y()-m.MinPoint.Y())/float64(m.Height-1),
	}
}

// At is the destination position of grid sample (i, j).
func (m *ControlMap) At(i, j int) geom2d.Point2D {
	k := 2 * (j*m.Width + i)
	return geom2d.Point2D{m.Grid[k], m.Grid[k+1]}
}

// Map interpolates the destination position of a source pixel coordinate.
// Points outside the sampled extent use the nearest edge cell.
func (m *ControlMap) Map(p geom2d.Point2D) geom2d.Point2D {
	fi := (p.X() - m.MinPoint.X()) / (m.MaxPoint.X() - m.MinPoint.X()) * float64(m.Width-1)
	fj := (p.Y() - m.MinPoint.Y()) / (m.MaxPoint.Y() - m.MinPoint.Y()) * float64(m.Height-1)
	i := mathhelp.Clamp(int(math.Floor(fi)), 0, m.Width-2)
	j := mathhelp.Clamp(int(math.Floor(fj)), 0, m.Height-2)
	u, v := fi-float64(i), fj-float64(j)

	p00, p10 := m.At(i, j), m.At(i+1, j)
	p01, p11 := m.At(i, j+1), m.At(i+1, j+1)
	bottom := geom2d.Add(geom2d.Scale(p00, 1-u), geom2d.Scale(p10, u))
	top := geom2d.Add(geom2d.Scale(p01, 1-u), geom2d.Scale(p11, u))
	return geom2d.Add(geom2d.Scale(bottom, 1-v), geom2d.Scale(top, v))
}

// ControlMap returns the control map from src into dst pixel space, building it
// on first use. The frames must be spatially linked to each other and src must
// have a non-empty image; the map is released when they are unlinked or relinked.
func (g *Graph) ControlMap(src, dst *Frame) (*ControlMap, error) {
	if !g.isMember(src) || !g.isMember(dst) {
		return nil, ErrUnknownFrame
	}
	if src == dst {
		return nil, ErrSelfReference
	}
	if m, ok := src.controlMaps[dst.id]; ok {
		return m, nil
	}

	var t geom2d.Transform
	switch {
	case src.spatialReference == dst:
		t = src.spatialTransform
	case dst.spatialReference == src:
		t = dst.spatialTransform.Inverse()
	default:
		return nil, ErrNotLinked
	}
	if !t.IsValid() {
		return nil, ErrNonFiniteTransform
	}
	if src.info.Width <= 0 || src.info.Height <= 0 {
		return nil, fmt.Errorf("%w: frame %d is %dx%d", ErrEmptyImage, src.id, src.info.Width, src.info.Height)
	}

	width := max(2, g.prefs.ContourControlMapWidth)
	maxPoint := geom2d.Point2D{float64(src.info.Width), float64(src.info.Height)}
	m := newControlMap(src.id, dst.id, geom2d.Point2D{0, 0}, maxPoint, width, width, t)
	src.controlMaps[dst.id] = m
	Logger().Debug("control map created", "source", src.id, "destination", dst.id, "width", width)
	return m, nil
}

// Package viewport holds the pan/zoom state of a single frame and derives the
// part of the image, and the mip level, a render surface needs.
package viewport

import (
	"math"

	"github.com/pdok/skyview/geom2d"
	"github.com/pdok/skyview/mathhelp"
)

// ZoomPoint decides what stays put on screen when zooming about an anchor.
type ZoomPoint string

const (
	// ZoomCursor keeps the anchor (usually the cursor) at the same screen position
	ZoomCursor ZoomPoint = "cursor"
	// ZoomCenter keeps the view center, ignoring the anchor
	ZoomCenter ZoomPoint = "center"
)

// Options are the viewer preferences a Model depends on.
type Options struct {
	PixelRatio       float64
	LowBandwidthMode bool
	ZoomPoint        ZoomPoint
}

// Model is the viewport of one frame. The zero value is not renderable.
type Model struct {
	center    geom2d.Point2D
	zoomLevel float64
	surface   geom2d.Size
	image     geom2d.Size
	options   Options
}

// New creates a model for an image, centered on it at zoom level 1.
func New(image geom2d.Size, options Options) *Model {
	if options.PixelRatio <= 0 || !mathhelp.IsFinite(options.PixelRatio) {
		options.PixelRatio = 1
	}
	if options.ZoomPoint == "" {
		options.ZoomPoint = ZoomCursor
	}
	m := &Model{
		zoomLevel: 1,
		image:     image,
		options:   options,
	}
	m.center = m.ImageCenter()
	return m
}

func (m *Model) Center() geom2d.Point2D {
	return m.center
}

func (m *Model) ZoomLevel() float64 {
	return m.zoomLevel
}

func (m *Model) Surface() geom2d.Size {
	return m.surface
}

func (m *Model) ImageSize() geom2d.Size {
	return m.image
}

func (m *Model) Options() Options {
	return m.options
}

func (m *Model) PixelRatio() float64 {
	return m.options.PixelRatio
}

// BandwidthFactor scales the mip; low bandwidth mode fetches at half resolution.
func (m *Model) BandwidthFactor() float64 {
	if m.options.LowBandwidthMode {
		return 2.0
	}
	return 1.0
}

// SetOptions replaces the preferences, keeping the previous pixel ratio if the new one is unusable.
func (m *Model) SetOptions(options Options) {
	if options.PixelRatio <= 0 || !mathhelp.IsFinite(options.PixelRatio) {
		options.PixelRatio = m.options.PixelRatio
	}
	if options.ZoomPoint == "" {
		options.ZoomPoint = m.options.ZoomPoint
	}
	m.options = options
}

// SetSurface sets the render surface size, in (CSS) screen pixels.
func (m *Model) SetSurface(surface geom2d.Size) {
	m.surface = surface
}

func (m *Model) SetImageSize(image geom2d.Size) {
	m.image = image
}

// IsRenderable reports whether the render surface has a usable size.
func (m *Model) IsRenderable() bool {
	return m.surface.Width > 0 && m.surface.Height > 0
}

func (m *Model) SetCenter(center geom2d.Point2D) bool {
	if !geom2d.IsFinitePoint(center) {
		return false
	}
	m.center = center
	return true
}

// SetZoom sets the zoom level: screen pixels per image pixel. Non-positive and non-finite values are ignored.
func (m *Model) SetZoom(zoom float64) bool {
	if !validZoom(zoom) {
		return false
	}
	m.zoomLevel = zoom
	return true
}

// ZoomToPoint sets a new zoom level and, when zooming about the cursor, pans so
// that anchor stays at the same screen position.
func (m *Model) ZoomToPoint(anchor geom2d.Point2D, zoom float64) bool {
	if !validZoom(zoom) || !geom2d.IsFinitePoint(anchor) {
		return false
	}
	if m.options.ZoomPoint == ZoomCursor && validZoom(m.zoomLevel) {
		m.center = geom2d.Add(anchor, geom2d.Scale(geom2d.Subtract(m.center, anchor), m.zoomLevel/zoom))
	}
	m.zoomLevel = zoom
	return true
}

// ImageCenter is the center of the image in pixel coordinates, pixel centers being integral.
func (m *Model) ImageCenter() geom2d.Point2D {
	return geom2d.Point2D{(m.image.Width - 1) / 2.0, (m.image.Height - 1) / 2.0}
}

// ZoomLevelForFit is the zoom level at which the whole image fits the render surface.
// Zero when either the surface or the image has no size.
func (m *Model) ZoomLevelForFit() float64 {
	if !m.IsRenderable() || !m.image.Valid() {
		return 0
	}
	zoomX := m.surface.Width * m.options.PixelRatio / m.image.Width
	zoomY := m.surface.Height * m.options.PixelRatio / m.image.Height
	return min(zoomX, zoomY)
}

// FitToImage zooms to fit the whole image and centers on it.
func (m *Model) FitToImage() bool {
	zoom := m.ZoomLevelForFit()
	if !validZoom(zoom) {
		return false
	}
	m.zoomLevel = zoom
	m.center = m.ImageCenter()
	return true
}

// Mip is the power of two decimation needed at a zoom level, rounded to the nearest
// power of two so that neither too much nor too little is fetched.
func Mip(bandwidthFactor, zoom float64) float64 {
	mipExact := math.Max(1.0, bandwidthFactor/zoom)
	return mathhelp.RoundPow2(mipExact)
}

// RequiredView is the part of the image the render surface shows, in image
// pixels, with the mip to fetch it at. Returns geom2d.DummyView while the model
// is not renderable.
func (m *Model) RequiredView() geom2d.ViewRect {
	if m.zoomLevel <= 0 || !m.IsRenderable() {
		return geom2d.DummyView
	}

	imageWidth := m.options.PixelRatio * m.surface.Width / m.zoomLevel
	imageHeight := m.options.PixelRatio * m.surface.Height / m.zoomLevel
	return geom2d.ViewRect{
		XMin: m.center.X() - imageWidth/2.0,
		XMax: m.center.X() + imageWidth/2.0,
		YMin: m.center.Y() - imageHeight/2.0,
		YMax: m.center.Y() + imageHeight/2.0,
		Mip:  Mip(m.BandwidthFactor(), m.zoomLevel),
	}
}

func validZoom(zoom float64) bool {
	return zoom > 0 && mathhelp.IsFinite(zoom)
}

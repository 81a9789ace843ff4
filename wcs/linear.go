// Package wcs provides simple linear world coordinate systems for frames, and a
// provider that derives alignment transforms and channel mappings from them.
package wcs

import (
	"math"

	"github.com/pdok/skyview/geom2d"
	"github.com/pdok/skyview/mathhelp"
)

// Linear is a linear world coordinate system following the FITS CRPIX, CRVAL,
// CDELT and CROTA2 keywords:
//
//	world = CRVAL + CDELT·R(rotation)·(pixel − CRPIX)
type Linear struct {
	// Spatial axes are usable
	Valid bool           `json:"valid" yaml:"valid"`
	CRPix geom2d.Point2D `json:"crpix" yaml:"crpix"`
	CRVal geom2d.Point2D `json:"crval" yaml:"crval"`
	CDelt geom2d.Point2D `json:"cdelt" yaml:"cdelt"`

	// Rotation of the pixel grid in degrees
	Rotation float64 `json:"rotation" yaml:"rotation"`

	// Optional third axis
	Spectral *SpectralAxis `json:"spectral,omitempty" yaml:"spectral,omitempty"`
}

// HasValidWCS reports whether pixel and world coordinates can be converted both ways.
func (l *Linear) HasValidWCS() bool {
	if l == nil || !l.Valid {
		return false
	}
	return geom2d.IsFinitePoint(l.CRPix) && geom2d.IsFinitePoint(l.CRVal) && geom2d.IsFinitePoint(l.CDelt) &&
		mathhelp.IsFinite(l.Rotation) && l.CDelt.X() != 0 && l.CDelt.Y() != 0
}

func (l *Linear) HasSpectralAxis() bool {
	return l != nil && l.Spectral.valid()
}

func (l *Linear) rotation() float64 {
	return l.Rotation * math.Pi / 180
}

func (l *Linear) PixelToWorld(p geom2d.Point2D) (geom2d.Point2D, bool) {
	if !l.HasValidWCS() {
		return geom2d.Point2D{}, false
	}
	r := geom2d.Rotate(geom2d.Subtract(p, l.CRPix), l.rotation())
	return geom2d.Point2D{l.CRVal.X() + l.CDelt.X()*r.X(), l.CRVal.Y() + l.CDelt.Y()*r.Y()}, true
}

func (l *Linear) WorldToPixel(w geom2d.Point2D) (geom2d.Point2D, bool) {
	if !l.HasValidWCS() {
		return geom2d.Point2D{}, false
	}
	d := geom2d.Point2D{(w.X() - l.CRVal.X()) / l.CDelt.X(), (w.Y() - l.CRVal.Y()) / l.CDelt.Y()}
	return geom2d.Add(l.CRPix, geom2d.Rotate(d, -l.rotation())), true
}

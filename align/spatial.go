package align

import (
	"fmt"

	"github.com/pdok/skyview/geom2d"
)

// LinkSpatial makes primary the spatial reference of secondary and returns the
// transform from secondary into primary pixel space. An existing link of
// secondary to another frame is replaced, but only once the new transform is known to be usable.
func (g *Graph) LinkSpatial(secondary, primary *Frame) (geom2d.Transform, error) {
	if !g.isMember(secondary) || !g.isMember(primary) {
		return geom2d.Transform{}, alignmentError(Spatial, secondary, primary, ErrUnknownFrame)
	}
	if secondary == primary {
		return geom2d.Transform{}, alignmentError(Spatial, secondary, primary, ErrSelfReference)
	}
	if secondary.hasValidWCS() != primary.hasValidWCS() {
		return geom2d.Transform{}, alignmentError(Spatial, secondary, primary, ErrWCSMismatch)
	}
	if primary.spatialReference != nil || secondary.secondarySpatial.Len() > 0 {
		return geom2d.Transform{}, alignmentError(Spatial, secondary, primary, ErrChainedReference)
	}

	transform, err := g.provider.SpatialTransform(secondary.descriptor, primary.descriptor, secondary.view.ImageCenter())
	if err != nil {
		return geom2d.Transform{}, alignmentError(Spatial, secondary, primary, fmt.Errorf("%w: %w", ErrTransformUnavailable, err))
	}
	if !transform.Finite() {
		return geom2d.Transform{}, alignmentError(Spatial, secondary, primary, ErrNonFiniteTransform)
	}
	if !transform.IsValid() {
		return geom2d.Transform{}, alignmentError(Spatial, secondary, primary, fmt.Errorf("%w: scale %v", ErrTransformUnavailable, transform.Scale))
	}

	switch secondary.spatialReference {
	case nil:
	case primary:
		// maps built from the old transform are stale
		delete(primary.controlMaps, secondary.id)
		delete(secondary.controlMaps, primary.id)
	default:
		_ = g.UnlinkSpatial(secondary)
	}
	secondary.spatialReference = primary
	secondary.spatialTransform = transform
	primary.secondarySpatial.Set(secondary.id, secondary)
	secondary.linkedView = linkedView(secondary)

	Logger().Info("spatial reference set", "secondary", secondary.id, "primary", primary.id,
		"scale", transform.Scale, "rotation", transform.RotationDegrees())
	return transform, nil
}

// UnlinkSpatial makes secondary a root again, restoring its own center and zoom
// level from the view it was showing. Its control maps are released.
func (g *Graph) UnlinkSpatial(secondary *Frame) error {
	if !g.isMember(secondary) {
		return ErrUnknownFrame
	}
	primary := secondary.spatialReference
	if primary == nil {
		return ErrNotLinked
	}

	if secondary.spatialTransform.IsValid() {
		t := secondary.spatialTransform
		secondary.view.SetCenter(t.Backward(primary.view.Center()))
		secondary.view.SetZoom(primary.view.ZoomLevel() * t.Scale)
	}

	primary.secondarySpatial.Delete(secondary.id)
	delete(primary.controlMaps, secondary.id)
	secondary.controlMaps = make(map[FrameID]*ControlMap)
	secondary.spatialReference = nil
	secondary.spatialTransform = geom2d.Transform{}
	secondary.linkedView = geom2d.DummyView

	Logger().Info("spatial reference cleared", "secondary", secondary.id, "primary", primary.id)
	return nil
}

// AlignAllSpatial makes primary the spatial reference of every other frame.
// Frames that cannot be linked are reported and left as roots.
func (g *Graph) AlignAllSpatial(primary *Frame) []PropagationFailure {
	if !g.isMember(primary) {
		return []PropagationFailure{{Err: ErrUnknownFrame}}
	}
	if primary.spatialReference != nil {
		_ = g.UnlinkSpatial(primary)
	}
	frames := g.Frames()
	for _, f := range frames {
		for _, secondary := range f.SecondarySpatialImages() {
			if f != primary {
				_ = g.UnlinkSpatial(secondary)
			}
		}
	}
	var failures []PropagationFailure
	for _, f := range frames {
		if f == primary || f.spatialReference == primary {
			continue
		}
		if _, err := g.LinkSpatial(f, primary); err != nil {
			failures = append(failures, PropagationFailure{Frame: f.id, Err: err})
		}
	}
	return failures
}

// SetSurface resizes the render surface of a frame.
func (g *Graph) SetSurface(f *Frame, surface geom2d.Size) []PropagationFailure {
	f.view.SetSurface(surface)
	if f.spatialReference != nil {
		return nil
	}
	return g.propagateSpatial(f)
}

// SetCenter pans a frame. On a linked frame the center is taken in its own pixel
// space and applied to its reference.
func (g *Graph) SetCenter(f *Frame, center geom2d.Point2D) []PropagationFailure {
	if primary := f.spatialReference; primary != nil {
		return g.SetCenter(primary, f.spatialTransform.Forward(center))
	}
	if !f.view.SetCenter(center) {
		return nil
	}
	return g.propagateSpatial(f)
}

// SetZoom zooms a frame. On a linked frame a relative zoom is in the frame's own
// terms and converted by the transform scale; an absolute zoom is applied to the reference as is.
func (g *Graph) SetZoom(f *Frame, zoom float64, absolute bool) []PropagationFailure {
	if primary := f.spatialReference; primary != nil {
		if !absolute {
			zoom /= f.spatialTransform.Scale
		}
		return g.SetZoom(primary, zoom, true)
	}
	if !f.view.SetZoom(zoom) {
		return nil
	}
	return g.propagateSpatial(f)
}

// ZoomToPoint zooms about an anchor, in the frame's own pixel space.
func (g *Graph) ZoomToPoint(f *Frame, anchor geom2d.Point2D, zoom float64, absolute bool) []PropagationFailure {
	if primary := f.spatialReference; primary != nil {
		if !absolute {
			zoom /= f.spatialTransform.Scale
		}
		return g.ZoomToPoint(primary, f.spatialTransform.Forward(anchor), zoom, true)
	}
	if !f.view.ZoomToPoint(anchor, zoom) {
		return nil
	}
	return g.propagateSpatial(f)
}

// FitZoom zooms to fit the whole image of f. For a linked frame its reference is
// moved so that the transformed image of f fits the reference's surface.
func (g *Graph) FitZoom(f *Frame) []PropagationFailure {
	primary := f.spatialReference
	if primary == nil {
		if !f.view.FitToImage() {
			return nil
		}
		return g.propagateSpatial(f)
	}

	t := f.spatialTransform
	primary.view.SetCenter(t.Forward(f.view.ImageCenter()))

	w, h := float64(f.info.Width), float64(f.info.Height)
	corners := []geom2d.Point2D{
		t.Forward(geom2d.Point2D{0, 0}),
		t.Forward(geom2d.Point2D{0, h}),
		t.Forward(geom2d.Point2D{w, h}),
		t.Forward(geom2d.Point2D{w, 0}),
	}
	minPoint, maxPoint := geom2d.BoundingBox(corners)
	rangeX, rangeY := maxPoint.X()-minPoint.X(), maxPoint.Y()-minPoint.Y()
	surface := primary.view.Surface()
	pixelRatio := primary.view.PixelRatio()
	if rangeX > 0 && rangeY > 0 && primary.view.IsRenderable() {
		primary.view.SetZoom(min(surface.Width*pixelRatio/rangeX, surface.Height*pixelRatio/rangeY))
	}
	return g.propagateSpatial(primary)
}

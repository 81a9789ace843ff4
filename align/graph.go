// Package align keeps the spatial and spectral reference relations between
// opened frames, and keeps linked frames in sync when their reference changes.
//
// References form a forest of depth one: a frame is a root (its own reference)
// or points directly at a root. Linking a frame never changes state on error.
package align

import (
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pdok/skyview/config"
	"github.com/pdok/skyview/geom2d"
	"github.com/pdok/skyview/mapslicehelp"
	"github.com/pdok/skyview/tiles"
	"github.com/pdok/skyview/viewport"
)

// Graph owns all frames and the reference relations between them.
// A Graph is not safe for concurrent use.
type Graph struct {
	provider Provider
	prefs    config.Preferences
	frames   *orderedmap.OrderedMap[FrameID, *Frame]
}

func NewGraph(provider Provider, prefs config.Preferences) *Graph {
	return &Graph{
		provider: provider,
		prefs:    prefs,
		frames:   orderedmap.New[FrameID, *Frame](),
	}
}

func (g *Graph) Preferences() config.Preferences {
	return g.prefs
}

// SetPreferences replaces the preferences and hands the viewport options to every frame.
// Secondaries that could not follow their primary's new view are reported.
func (g *Graph) SetPreferences(prefs config.Preferences) []PropagationFailure {
	g.prefs = prefs
	for p := g.frames.Oldest(); p != nil; p = p.Next() {
		p.Value.view.SetOptions(prefs.ViewportOptions())
	}
	var failures []PropagationFailure
	for p := g.frames.Oldest(); p != nil; p = p.Next() {
		if p.Value.spatialReference == nil {
			failures = append(failures, g.propagateSpatial(p.Value)...)
		}
	}
	return failures
}

// AddFrame opens a new frame, unlinked.
func (g *Graph) AddFrame(id FrameID, info ImageInfo, descriptor Descriptor) (*Frame, error) {
	if _, exists := g.frames.Get(id); exists {
		return nil, fmt.Errorf("%w: %d", ErrDuplicateFrame, id)
	}
	f := newFrame(id, info, descriptor, g.prefs.ViewportOptions())
	g.frames.Set(id, f)
	Logger().Debug("frame added", "frame", id, "width", info.Width, "height", info.Height, "depth", info.Depth)
	return f, nil
}

// RemoveFrame closes a frame. Frames referencing it become roots again, at the view they were showing.
func (g *Graph) RemoveFrame(id FrameID) error {
	f, ok := g.frames.Get(id)
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownFrame, id)
	}
	for _, secondary := range f.SecondarySpatialImages() {
		_ = g.UnlinkSpatial(secondary)
	}
	for _, secondary := range f.SecondarySpectralImages() {
		_ = g.UnlinkSpectral(secondary)
	}
	if f.spatialReference != nil {
		_ = g.UnlinkSpatial(f)
	}
	if f.spectralReference != nil {
		_ = g.UnlinkSpectral(f)
	}
	for p := g.frames.Oldest(); p != nil; p = p.Next() {
		delete(p.Value.controlMaps, id)
	}
	g.frames.Delete(id)
	Logger().Debug("frame removed", "frame", id)
	return nil
}

func (g *Graph) Frame(id FrameID) (*Frame, bool) {
	return g.frames.Get(id)
}

// Frames returns all frames in the order they were added.
func (g *Graph) Frames() []*Frame {
	return mapslicehelp.OrderedMapValues(g.frames)
}

// FrameIDs returns the ids of all frames in the order they were added.
func (g *Graph) FrameIDs() []FrameID {
	return mapslicehelp.OrderedMapKeys(g.frames)
}

func (g *Graph) isMember(f *Frame) bool {
	if f == nil {
		return false
	}
	member, ok := g.frames.Get(f.id)
	return ok && member == f
}

// RequiredView is the part of the frame's image that is to be rendered.
// For a spatially linked frame it is derived from the reference's view.
func (g *Graph) RequiredView(f *Frame) geom2d.ViewRect {
	if f.spatialReference == nil {
		return f.view.RequiredView()
	}
	if err := checkSpatialLink(f); err != nil {
		return f.linkedView
	}
	f.linkedView = linkedView(f)
	return f.linkedView
}

// RequiredTiles are the tiles covering the frame's required view, at the configured tile size.
func (g *Graph) RequiredTiles(f *Frame) []tiles.TileCoordinate {
	return tiles.RequiredTiles(g.RequiredView(f), f.info.Size(), g.prefs.TileSize())
}

// linkedView maps the reference's required view back into the secondary's pixel space.
func linkedView(secondary *Frame) geom2d.ViewRect {
	primary := secondary.spatialReference
	if !primary.view.IsRenderable() {
		return geom2d.DummyView
	}
	refView := primary.view.RequiredView()
	t := secondary.spatialTransform

	corners := refView.Corners()
	transformed := make([]geom2d.Point2D, 0, len(corners))
	for _, c := range corners {
		transformed = append(transformed, t.Backward(c))
	}
	minPoint, maxPoint := geom2d.BoundingBox(transformed)
	return geom2d.ViewRect{
		XMin: minPoint.X(),
		XMax: maxPoint.X(),
		YMin: minPoint.Y(),
		YMax: maxPoint.Y(),
		Mip:  mipForLinked(primary, t),
	}
}

func mipForLinked(primary *Frame, t geom2d.Transform) float64 {
	return viewport.Mip(primary.view.BandwidthFactor()/t.Scale, primary.view.ZoomLevel())
}

// checkSpatialLink reports whether a cached link can still be used.
func checkSpatialLink(secondary *Frame) error {
	primary := secondary.spatialReference
	if primary == nil {
		return ErrNotLinked
	}
	if !secondary.spatialTransform.Finite() {
		return ErrNonFiniteTransform
	}
	if !secondary.spatialTransform.IsValid() {
		return fmt.Errorf("%w: scale %v", ErrTransformUnavailable, secondary.spatialTransform.Scale)
	}
	if secondary.hasValidWCS() != primary.hasValidWCS() {
		return ErrWCSMismatch
	}
	return nil
}

// propagateSpatial refreshes the linked view of every secondary of primary.
// Secondaries whose link no longer holds are skipped and reported.
func (g *Graph) propagateSpatial(primary *Frame) []PropagationFailure {
	var failures []PropagationFailure
	for p := primary.secondarySpatial.Oldest(); p != nil; p = p.Next() {
		secondary := p.Value
		if err := checkSpatialLink(secondary); err != nil {
			Logger().Warn("skipping spatial propagation", "primary", primary.id, "secondary", secondary.id, "error", err)
			failures = append(failures, PropagationFailure{Frame: secondary.id, Err: err})
			continue
		}
		secondary.linkedView = linkedView(secondary)
	}
	return failures
}

package align

import (
	"math"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	"github.com/pdok/skyview/geom2d"
	"github.com/pdok/skyview/mapslicehelp"
	"github.com/pdok/skyview/mathhelp"
	"github.com/pdok/skyview/viewport"
)

// FrameID identifies a frame, usually the file id of the opened image.
type FrameID int

// ImageInfo describes the dimensions of an opened image or cube.
type ImageInfo struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
	// Number of channels
	Depth int `json:"depth" yaml:"depth"`
	// Number of Stokes parameters
	Stokes int `json:"stokes" yaml:"stokes"`
}

func (i ImageInfo) Size() geom2d.Size {
	return geom2d.Size{Width: float64(i.Width), Height: float64(i.Height)}
}

// Frame is one opened image with its own pixel space, viewport and channel selection.
//
// While a frame has a spatial reference its view is derived from the reference;
// its own center and zoom level are kept aside and restored when unlinked.
// Frames are created and mutated through a Graph.
type Frame struct {
	id         FrameID
	info       ImageInfo
	descriptor Descriptor
	view       *viewport.Model

	requiredChannel int
	requiredStokes  int

	spatialReference *Frame
	spatialTransform geom2d.Transform
	linkedView       geom2d.ViewRect
	secondarySpatial *orderedmap.OrderedMap[FrameID, *Frame]

	spectralReference *Frame
	spectralMapping   ChannelMapping
	secondarySpectral *orderedmap.OrderedMap[FrameID, *Frame]

	// contour interpolation control maps, by the frame they map into
	controlMaps map[FrameID]*ControlMap
}

func newFrame(id FrameID, info ImageInfo, descriptor Descriptor, options viewport.Options) *Frame {
	return &Frame{
		id:                id,
		info:              info,
		descriptor:        descriptor,
		view:              viewport.New(info.Size(), options),
		linkedView:        geom2d.DummyView,
		secondarySpatial:  orderedmap.New[FrameID, *Frame](),
		secondarySpectral: orderedmap.New[FrameID, *Frame](),
		controlMaps:       make(map[FrameID]*ControlMap),
	}
}

func (f *Frame) ID() FrameID {
	return f.id
}

func (f *Frame) Info() ImageInfo {
	return f.info
}

func (f *Frame) Descriptor() Descriptor {
	return f.descriptor
}

// SetDescriptor replaces the coordinate information, e.g. after the header was reloaded.
// Existing links are kept; propagation reports them as failed if they no longer hold.
func (f *Frame) SetDescriptor(d Descriptor) {
	f.descriptor = d
}

func (f *Frame) hasValidWCS() bool {
	return f.descriptor != nil && f.descriptor.HasValidWCS()
}

func (f *Frame) hasSpectralAxis() bool {
	return f.descriptor != nil && f.descriptor.HasSpectralAxis()
}

// Center is the frame's own center. While spatially linked this is the value
// that will be overwritten on unlinking, not the one being rendered.
func (f *Frame) Center() geom2d.Point2D {
	return f.view.Center()
}

// ZoomLevel is the frame's own zoom level; see Center.
func (f *Frame) ZoomLevel() float64 {
	return f.view.ZoomLevel()
}

func (f *Frame) Surface() geom2d.Size {
	return f.view.Surface()
}

func (f *Frame) RequiredChannel() int {
	return f.requiredChannel
}

func (f *Frame) RequiredStokes() int {
	return f.requiredStokes
}

func (f *Frame) SpatialReference() *Frame {
	return f.spatialReference
}

func (f *Frame) SpectralReference() *Frame {
	return f.spectralReference
}

// SpatialTransform is the transform into the spatial reference's pixel space. ok is false when unlinked.
func (f *Frame) SpatialTransform() (t geom2d.Transform, ok bool) {
	if f.spatialReference == nil {
		return geom2d.Transform{}, false
	}
	return f.spatialTransform, true
}

// LinkedView is the view last derived from the spatial reference.
func (f *Frame) LinkedView() geom2d.ViewRect {
	return f.linkedView
}

// SecondarySpatialImages are the frames using this one as spatial reference, in linking order.
func (f *Frame) SecondarySpatialImages() []*Frame {
	return mapslicehelp.OrderedMapValues(f.secondarySpatial)
}

// SecondarySpectralImages are the frames using this one as spectral reference, in linking order.
func (f *Frame) SecondarySpectralImages() []*Frame {
	return mapslicehelp.OrderedMapValues(f.secondarySpectral)
}

// ControlMaps are the control maps currently held, by destination frame.
func (f *Frame) ControlMaps() map[FrameID]*ControlMap {
	return f.controlMaps
}

// sanitizeChannel rounds and clamps a channel to the cube; non-finite channels keep the current one.
func (f *Frame) sanitizeChannel(channel float64) int {
	if !mathhelp.IsFinite(channel) {
		return f.requiredChannel
	}
	return int(math.Round(mathhelp.Clamp(channel, 0, float64(max(1, f.info.Depth)-1))))
}

func (f *Frame) setChannels(channel float64, stokes int) {
	f.requiredChannel = f.sanitizeChannel(channel)
	f.requiredStokes = mathhelp.Clamp(stokes, 0, max(1, f.info.Stokes)-1)
}

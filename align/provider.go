package align

import "github.com/pdok/skyview/geom2d"

// Descriptor is the native coordinate information of one frame, opaque to this package.
type Descriptor interface {
	// HasValidWCS reports whether the frame has usable spatial world coordinates.
	HasValidWCS() bool
	// HasSpectralAxis reports whether channels can be converted to a spectral quantity.
	HasSpectralAxis() bool
}

// ChannelMapping maps a channel index of one frame onto the (fractional) channel
// index of another. NaN means the channel has no counterpart.
type ChannelMapping func(channel float64) float64

// Provider builds transforms between the coordinate systems of two frames.
// Implementations wrap a WCS library; this package never does coordinate math itself.
type Provider interface {
	// SpatialTransform returns the transform from secondary pixel space into
	// primary pixel space, linearised about origin (a secondary pixel coordinate).
	SpatialTransform(secondary, primary Descriptor, origin geom2d.Point2D) (geom2d.Transform, error)
	// SpectralMapping returns the mapping from src channels to dst channels,
	// matching along the given spectral quantity.
	SpectralMapping(src, dst Descriptor, matchingType string) (ChannelMapping, error)
}

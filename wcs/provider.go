package wcs

import (
	"errors"
	"fmt"
	"math"

	"github.com/pdok/skyview/align"
	"github.com/pdok/skyview/config"
	"github.com/pdok/skyview/geom2d"
)

var (
	ErrNotLinear      = errors.New("descriptor is not a linear WCS")
	ErrNoOverlap      = errors.New("world coordinates of the frames cannot be matched")
	ErrMissingSpectra = errors.New("frame has no spectral axis")
)

// Provider implements align.Provider for Linear descriptors.
type Provider struct{}

var _ align.Provider = Provider{}

func asLinear(d align.Descriptor) (*Linear, error) {
	l, ok := d.(*Linear)
	if !ok {
		return nil, fmt.Errorf("%w: %T", ErrNotLinear, d)
	}
	return l, nil
}

// SpatialTransform chains the secondary pixel → world → primary pixel mappings and
// estimates the local similarity transform about origin.
func (Provider) SpatialTransform(secondary, primary align.Descriptor, origin geom2d.Point2D) (geom2d.Transform, error) {
	src, err := asLinear(secondary)
	if err != nil {
		return geom2d.Transform{}, err
	}
	dst, err := asLinear(primary)
	if err != nil {
		return geom2d.Transform{}, err
	}
	if !src.HasValidWCS() && !dst.HasValidWCS() {
		return geom2d.Identity, nil
	}
	if !src.HasValidWCS() || !dst.HasValidWCS() {
		return geom2d.Transform{}, ErrNoOverlap
	}

	mapping := func(p geom2d.Point2D) (geom2d.Point2D, bool) {
		w, ok := src.PixelToWorld(p)
		if !ok {
			return geom2d.Point2D{}, false
		}
		return dst.WorldToPixel(w)
	}
	t, err := geom2d.EstimateTransform(mapping, origin)
	if err != nil {
		return geom2d.Transform{}, fmt.Errorf("%w: %w", ErrNoOverlap, err)
	}
	return t, nil
}

// SpectralMapping maps src channels onto dst channels by matching along matchingType.
// CHANNEL matching maps channel indices one to one.
func (Provider) SpectralMapping(src, dst align.Descriptor, matchingType string) (align.ChannelMapping, error) {
	if matchingType == config.SpectralCHANNEL {
		return func(channel float64) float64 { return channel }, nil
	}
	from, err := asLinear(src)
	if err != nil {
		return nil, err
	}
	to, err := asLinear(dst)
	if err != nil {
		return nil, err
	}
	if !from.HasSpectralAxis() || !to.HasSpectralAxis() {
		return nil, ErrMissingSpectra
	}
	fromAxis, toAxis := from.Spectral, to.Spectral

	// reject quantities that cannot be converted before handing out a mapping
	if _, err := convert(fromAxis.CRVal, fromAxis.Type, matchingType, fromAxis.RestFrequency); err != nil {
		return nil, err
	}
	if _, err := convert(toAxis.CRVal, toAxis.Type, matchingType, toAxis.RestFrequency); err != nil {
		return nil, err
	}

	return func(channel float64) float64 {
		matched, err := convert(fromAxis.ChannelToValue(channel), fromAxis.Type, matchingType, fromAxis.RestFrequency)
		if err != nil {
			return math.NaN()
		}
		native, err := convert(matched, matchingType, toAxis.Type, toAxis.RestFrequency)
		if err != nil {
			return math.NaN()
		}
		return toAxis.ValueToChannel(native)
	}, nil
}

package align

import (
	"fmt"

	"github.com/pdok/skyview/mathhelp"
)

// LinkSpectral makes primary the spectral reference of secondary and returns the
// mapping from primary channels onto secondary channels. secondary is moved to
// the channel matching the primary's current one.
func (g *Graph) LinkSpectral(secondary, primary *Frame) (ChannelMapping, error) {
	if !g.isMember(secondary) || !g.isMember(primary) {
		return nil, alignmentError(Spectral, secondary, primary, ErrUnknownFrame)
	}
	if secondary == primary {
		return nil, alignmentError(Spectral, secondary, primary, ErrSelfReference)
	}
	if !secondary.hasSpectralAxis() || !primary.hasSpectralAxis() {
		return nil, alignmentError(Spectral, secondary, primary, ErrNoSpectralInfo)
	}
	if primary.spectralReference != nil || secondary.secondarySpectral.Len() > 0 {
		return nil, alignmentError(Spectral, secondary, primary, ErrChainedReference)
	}

	mapping, err := g.provider.SpectralMapping(primary.descriptor, secondary.descriptor, g.prefs.SpectralMatchingType)
	if err != nil {
		return nil, alignmentError(Spectral, secondary, primary, fmt.Errorf("%w: %w", ErrTransformUnavailable, err))
	}
	if mapping == nil {
		return nil, alignmentError(Spectral, secondary, primary, ErrTransformUnavailable)
	}

	if secondary.spectralReference != nil && secondary.spectralReference != primary {
		_ = g.UnlinkSpectral(secondary)
	}
	secondary.spectralReference = primary
	secondary.spectralMapping = mapping
	primary.secondarySpectral.Set(secondary.id, secondary)
	secondary.setChannels(mapping(float64(primary.requiredChannel)), secondary.requiredStokes)

	Logger().Info("spectral reference set", "secondary", secondary.id, "primary", primary.id,
		"matching", g.prefs.SpectralMatchingType)
	return mapping, nil
}

// UnlinkSpectral makes secondary a spectral root again. Its channel is kept.
func (g *Graph) UnlinkSpectral(secondary *Frame) error {
	if !g.isMember(secondary) {
		return ErrUnknownFrame
	}
	primary := secondary.spectralReference
	if primary == nil {
		return ErrNotLinked
	}
	primary.secondarySpectral.Delete(secondary.id)
	secondary.spectralReference = nil
	secondary.spectralMapping = nil
	Logger().Info("spectral reference cleared", "secondary", secondary.id, "primary", primary.id)
	return nil
}

// AlignAllSpectral makes primary the spectral reference of every other frame with a spectral axis.
func (g *Graph) AlignAllSpectral(primary *Frame) []PropagationFailure {
	if !g.isMember(primary) {
		return []PropagationFailure{{Err: ErrUnknownFrame}}
	}
	if primary.spectralReference != nil {
		_ = g.UnlinkSpectral(primary)
	}
	frames := g.Frames()
	for _, f := range frames {
		if f == primary {
			continue
		}
		for _, secondary := range f.SecondarySpectralImages() {
			_ = g.UnlinkSpectral(secondary)
		}
	}
	var failures []PropagationFailure
	for _, f := range frames {
		if f == primary || f.spectralReference == primary || !f.hasSpectralAxis() {
			continue
		}
		if _, err := g.LinkSpectral(f, primary); err != nil {
			failures = append(failures, PropagationFailure{Frame: f.id, Err: err})
		}
	}
	return failures
}

// SetChannel selects a channel and Stokes parameter. Setting it on a primary
// moves all its secondaries to the matching channel; setting it on a secondary
// moves its primary and the other secondaries of that primary.
func (g *Graph) SetChannel(f *Frame, channel float64, stokes int) []PropagationFailure {
	f.setChannels(channel, stokes)

	primary := f.spectralReference
	if primary == nil {
		var failures []PropagationFailure
		for p := f.secondarySpectral.Oldest(); p != nil; p = p.Next() {
			secondary := p.Value
			if !secondary.hasSpectralAxis() || !f.hasSpectralAxis() {
				failures = append(failures, g.spectralFailure(f, secondary, ErrNoSpectralInfo))
				continue
			}
			if err := applyChannel(secondary, secondary.spectralMapping, f.requiredChannel); err != nil {
				failures = append(failures, g.spectralFailure(f, secondary, err))
			}
		}
		return failures
	}

	siblings := append([]*Frame{primary}, primary.SecondarySpectralImages()...)
	var failures []PropagationFailure
	for _, sibling := range siblings {
		if sibling == f {
			continue
		}
		if !sibling.hasSpectralAxis() || !f.hasSpectralAxis() {
			failures = append(failures, g.spectralFailure(f, sibling, ErrNoSpectralInfo))
			continue
		}
		mapping, err := g.provider.SpectralMapping(f.descriptor, sibling.descriptor, g.prefs.SpectralMatchingType)
		if err != nil {
			failures = append(failures, g.spectralFailure(f, sibling, fmt.Errorf("%w: %w", ErrTransformUnavailable, err)))
			continue
		}
		if err := applyChannel(sibling, mapping, f.requiredChannel); err != nil {
			failures = append(failures, g.spectralFailure(f, sibling, err))
		}
	}
	return failures
}

// IncrementChannels steps the channel and Stokes selection of f, wrapping around
// the cube or clamping at its ends, and propagates like SetChannel.
func (g *Graph) IncrementChannels(f *Frame, deltaChannel, deltaStokes int, wrap bool) []PropagationFailure {
	depth := max(1, f.info.Depth)
	numStokes := max(1, f.info.Stokes)
	channel := f.requiredChannel + deltaChannel
	stokes := f.requiredStokes + deltaStokes
	if wrap {
		channel = mathhelp.EuclidianMod(channel, depth)
		stokes = mathhelp.EuclidianMod(stokes, numStokes)
	} else {
		channel = mathhelp.Clamp(channel, 0, depth-1)
		stokes = mathhelp.Clamp(stokes, 0, numStokes-1)
	}
	return g.SetChannel(f, float64(channel), stokes)
}

func applyChannel(dst *Frame, mapping ChannelMapping, channel int) error {
	if mapping == nil {
		return ErrTransformUnavailable
	}
	mapped := mapping(float64(channel))
	if !mathhelp.IsFinite(mapped) {
		return fmt.Errorf("%w: %d", ErrChannelUnmapped, channel)
	}
	dst.setChannels(mapped, dst.requiredStokes)
	return nil
}

func (g *Graph) spectralFailure(src, dst *Frame, err error) PropagationFailure {
	Logger().Warn("skipping spectral propagation", "source", src.id, "frame", dst.id, "error", err)
	return PropagationFailure{Frame: dst.id, Err: err}
}

package wcs

import (
	"errors"
	"fmt"
	"math"

	"github.com/pdok/skyview/config"
	"github.com/pdok/skyview/mathhelp"
)

const (
	speedOfLight = 299792458.0 // m/s
	// standard air, used for air wavelengths
	refractiveIndexAir = 1.000293
)

var ErrUnsupportedConversion = errors.New("unsupported spectral conversion")

// SpectralAxis is a linear spectral axis: value = CRVal + CDelt·(channel − CRPix).
type SpectralAxis struct {
	// One of the spectral matching types, the quantity along the axis
	Type  string  `json:"type" yaml:"type"`
	CRPix float64 `json:"crpix" yaml:"crpix"`
	CRVal float64 `json:"crval" yaml:"crval"`
	CDelt float64 `json:"cdelt" yaml:"cdelt"`

	// Hz, needed to convert to and from velocities
	RestFrequency float64 `json:"restFrequency,omitempty" yaml:"restFrequency,omitempty"`
}

func (s *SpectralAxis) valid() bool {
	return s != nil && s.CDelt != 0 && mathhelp.IsFinite(s.CDelt) &&
		mathhelp.IsFinite(s.CRPix) && mathhelp.IsFinite(s.CRVal)
}

func (s *SpectralAxis) ChannelToValue(channel float64) float64 {
	return s.CRVal + s.CDelt*(channel-s.CRPix)
}

func (s *SpectralAxis) ValueToChannel(value float64) float64 {
	return (value-s.CRVal)/s.CDelt + s.CRPix
}

// toFrequency converts a value of the given quantity into Hz.
func toFrequency(quantity string, value, restFrequency float64) (float64, error) {
	switch quantity {
	case config.SpectralFREQ:
		return value, nil
	case config.SpectralWAVE:
		return speedOfLight / value, nil
	case config.SpectralAWAV:
		return speedOfLight / (value * refractiveIndexAir), nil
	case config.SpectralVRAD:
		if restFrequency <= 0 {
			return 0, fmt.Errorf("%w: %s without rest frequency", ErrUnsupportedConversion, quantity)
		}
		return restFrequency * (1 - value/speedOfLight), nil
	case config.SpectralVOPT:
		if restFrequency <= 0 {
			return 0, fmt.Errorf("%w: %s without rest frequency", ErrUnsupportedConversion, quantity)
		}
		return restFrequency / (1 + value/speedOfLight), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedConversion, quantity)
}

// fromFrequency is the inverse of toFrequency.
func fromFrequency(quantity string, frequency, restFrequency float64) (float64, error) {
	switch quantity {
	case config.SpectralFREQ:
		return frequency, nil
	case config.SpectralWAVE:
		return speedOfLight / frequency, nil
	case config.SpectralAWAV:
		return speedOfLight / (frequency * refractiveIndexAir), nil
	case config.SpectralVRAD:
		if restFrequency <= 0 {
			return 0, fmt.Errorf("%w: %s without rest frequency", ErrUnsupportedConversion, quantity)
		}
		return speedOfLight * (1 - frequency/restFrequency), nil
	case config.SpectralVOPT:
		if restFrequency <= 0 {
			return 0, fmt.Errorf("%w: %s without rest frequency", ErrUnsupportedConversion, quantity)
		}
		return speedOfLight * (restFrequency/frequency - 1), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedConversion, quantity)
}

// convert moves a value along the chain native → frequency → quantity, where
// each step uses the rest frequency of the axis the value belongs to.
func convert(value float64, from, to string, restFrequency float64) (float64, error) {
	if from == to {
		return value, nil
	}
	f, err := toFrequency(from, value, restFrequency)
	if err != nil {
		return math.NaN(), err
	}
	return fromFrequency(to, f, restFrequency)
}

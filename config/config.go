// Package config loads the viewer preferences that influence view and tile computation.
package config

import (
	"fmt"
	"os"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pdok/skyview/geom2d"
	"github.com/pdok/skyview/viewport"
)

// Spectral matching types, the quantity along which channels of two cubes are matched.
const (
	SpectralVRAD    = "VRAD"
	SpectralVOPT    = "VOPT"
	SpectralFREQ    = "FREQ"
	SpectralWAVE    = "WAVE"
	SpectralAWAV    = "AWAV"
	SpectralCHANNEL = "CHANNEL"
)

// Preferences are the user settings consumed by the viewport and alignment packages.
type Preferences struct {
	// Fetch at half resolution to save bandwidth
	LowBandwidthMode bool `yaml:"lowBandwidthMode"`
	// What stays fixed when zooming about a point
	ZoomPoint viewport.ZoomPoint `default:"cursor" validate:"oneof=cursor center" yaml:"zoomPoint"`
	// Device pixels per screen pixel
	PixelRatio float64 `default:"1" validate:"gt=0" yaml:"pixelRatio"`
	// Tile size of the image pyramid
	TileWidth  uint `default:"256" validate:"min=1" yaml:"tileWidth"`
	TileHeight uint `default:"256" validate:"min=1" yaml:"tileHeight"`
	// Number of samples per axis of a contour interpolation control map
	ContourControlMapWidth int `default:"256" validate:"min=2" yaml:"contourControlMapWidth"`
	// Quantity along which channels of spectrally matched frames are aligned
	SpectralMatchingType string `default:"VRAD" validate:"oneof=VRAD VOPT FREQ WAVE AWAV CHANNEL" yaml:"spectralMatchingType"`
}

// Default returns the preferences with all defaults applied.
func Default() Preferences {
	var p Preferences
	if err := defaults.Set(&p); err != nil {
		panic(fmt.Errorf("invalid preference defaults: %w", err))
	}
	return p
}

// Parse reads preferences from YAML. Missing keys get their default value.
func Parse(data []byte) (Preferences, error) {
	p := Default()
	if err := yaml.Unmarshal(data, &p); err != nil {
		return p, fmt.Errorf("could not parse preferences: %w", err)
	}
	if err := p.Validate(); err != nil {
		return p, err
	}
	return p, nil
}

// Load reads preferences from a YAML file.
func Load(path string) (Preferences, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Preferences{}, fmt.Errorf("could not read preferences %s: %w", path, err)
	}
	return Parse(data)
}

func (p Preferences) Validate() error {
	validate := validator.New(validator.WithRequiredStructEnabled())
	if err := validate.Struct(p); err != nil {
		return fmt.Errorf("invalid preferences: %w", err)
	}
	return nil
}

// ViewportOptions are the preferences as consumed by a viewport.Model.
func (p Preferences) ViewportOptions() viewport.Options {
	return viewport.Options{
		PixelRatio:       p.PixelRatio,
		LowBandwidthMode: p.LowBandwidthMode,
		ZoomPoint:        p.ZoomPoint,
	}
}

func (p Preferences) TileSize() geom2d.Size {
	return geom2d.Size{Width: float64(p.TileWidth), Height: float64(p.TileHeight)}
}

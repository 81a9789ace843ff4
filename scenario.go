package main

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/pdok/skyview/align"
	"github.com/pdok/skyview/config"
	"github.com/pdok/skyview/geom2d"
	"github.com/pdok/skyview/wcs"
)

// Scenario is a replayable session: frames with their WCS, links between them
// and a sequence of viewer actions.
type Scenario struct {
	Frames  []ScenarioFrame `yaml:"frames" validate:"required,min=1,dive"`
	Links   []ScenarioLink  `yaml:"links" validate:"dive"`
	Actions []Action        `yaml:"actions" validate:"dive"`
}

type ScenarioFrame struct {
	ID      align.FrameID   `yaml:"id"`
	Image   align.ImageInfo `yaml:"image"`
	Surface geom2d.Size     `yaml:"surface"`
	WCS     *wcs.Linear     `yaml:"wcs"`
}

type ScenarioLink struct {
	Secondary align.FrameID `yaml:"secondary"`
	Primary   align.FrameID `yaml:"primary"`
	Kind      align.Kind    `yaml:"kind" validate:"oneof=spatial spectral"`
}

// Action is one viewer interaction on a frame. Which fields are used depends on Op.
type Action struct {
	Frame    align.FrameID  `yaml:"frame"`
	Op       string         `yaml:"op" validate:"oneof=zoom center zoomToPoint fit surface channel increment unlink alignAll"`
	Zoom     float64        `yaml:"zoom"`
	Absolute bool           `yaml:"absolute"`
	Point    geom2d.Point2D `yaml:"point"`
	Surface  geom2d.Size    `yaml:"surface"`
	Channel  float64        `yaml:"channel"`
	Stokes   int            `yaml:"stokes"`
	Delta    int            `yaml:"delta"`
	Wrap     bool           `yaml:"wrap"`
	Kind     align.Kind     `yaml:"kind" validate:"omitempty,oneof=spatial spectral"`
}

// FrameState is the outcome of a scenario for one frame.
type FrameState struct {
	ID                align.FrameID   `json:"id"`
	SpatialReference  *align.FrameID  `json:"spatialReference,omitempty"`
	SpectralReference *align.FrameID  `json:"spectralReference,omitempty"`
	Center            geom2d.Point2D  `json:"center"`
	ZoomLevel         float64         `json:"zoomLevel"`
	Channel           int             `json:"channel"`
	Stokes            int             `json:"stokes"`
	View              geom2d.ViewRect `json:"view"`
	Tiles             []string        `json:"tiles"`
}

type Result struct {
	Frames   []FrameState `json:"frames"`
	Failures []string     `json:"failures,omitempty"`
}

func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read scenario: %w", err)
	}
	return ParseScenario(data)
}

func ParseScenario(data []byte) (*Scenario, error) {
	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("could not parse scenario: %w", err)
	}
	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(&s); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &s, nil
}

// Run replays the scenario on a fresh graph. Failed links and propagation
// failures are collected in the result; unknown frame ids abort the run.
func (s *Scenario) Run(prefs config.Preferences) (*Result, error) {
	g := align.NewGraph(wcs.Provider{}, prefs)
	result := &Result{}
	record := func(failures []align.PropagationFailure) {
		for _, f := range failures {
			result.Failures = append(result.Failures, f.Error())
		}
	}

	for _, sf := range s.Frames {
		var descriptor align.Descriptor = &wcs.Linear{}
		if sf.WCS != nil {
			descriptor = sf.WCS
		}
		f, err := g.AddFrame(sf.ID, sf.Image, descriptor)
		if err != nil {
			return nil, err
		}
		g.SetSurface(f, sf.Surface)
	}

	for _, l := range s.Links {
		secondary, primary, err := framePair(g, l.Secondary, l.Primary)
		if err != nil {
			return nil, err
		}
		if l.Kind == align.Spatial {
			_, err = g.LinkSpatial(secondary, primary)
		} else {
			_, err = g.LinkSpectral(secondary, primary)
		}
		if err != nil {
			result.Failures = append(result.Failures, err.Error())
		}
	}

	for i, a := range s.Actions {
		f, ok := g.Frame(a.Frame)
		if !ok {
			return nil, fmt.Errorf("action %d: %w: %d", i, align.ErrUnknownFrame, a.Frame)
		}
		switch a.Op {
		case "zoom":
			record(g.SetZoom(f, a.Zoom, a.Absolute))
		case "center":
			record(g.SetCenter(f, a.Point))
		case "zoomToPoint":
			record(g.ZoomToPoint(f, a.Point, a.Zoom, a.Absolute))
		case "fit":
			record(g.FitZoom(f))
		case "surface":
			record(g.SetSurface(f, a.Surface))
		case "channel":
			record(g.SetChannel(f, a.Channel, a.Stokes))
		case "increment":
			record(g.IncrementChannels(f, a.Delta, 0, a.Wrap))
		case "unlink":
			var err error
			if a.Kind == align.Spectral {
				err = g.UnlinkSpectral(f)
			} else {
				err = g.UnlinkSpatial(f)
			}
			if err != nil {
				result.Failures = append(result.Failures, fmt.Sprintf("action %d: %v", i, err))
			}
		case "alignAll":
			if a.Kind == align.Spectral {
				record(g.AlignAllSpectral(f))
			} else {
				record(g.AlignAllSpatial(f))
			}
		}
	}

	for _, f := range g.Frames() {
		state := FrameState{
			ID:        f.ID(),
			Center:    f.Center(),
			ZoomLevel: f.ZoomLevel(),
			Channel:   f.RequiredChannel(),
			Stokes:    f.RequiredStokes(),
			View:      g.RequiredView(f),
			Tiles:     []string{},
		}
		if ref := f.SpatialReference(); ref != nil {
			id := ref.ID()
			state.SpatialReference = &id
		}
		if ref := f.SpectralReference(); ref != nil {
			id := ref.ID()
			state.SpectralReference = &id
		}
		for _, t := range g.RequiredTiles(f) {
			state.Tiles = append(state.Tiles, t.String())
		}
		result.Frames = append(result.Frames, state)
	}
	return result, nil
}

func framePair(g *align.Graph, secondaryID, primaryID align.FrameID) (*align.Frame, *align.Frame, error) {
	secondary, ok := g.Frame(secondaryID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", align.ErrUnknownFrame, secondaryID)
	}
	primary, ok := g.Frame(primaryID)
	if !ok {
		return nil, nil, fmt.Errorf("%w: %d", align.ErrUnknownFrame, primaryID)
	}
	return secondary, primary, nil
}

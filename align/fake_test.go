package align

import (
	"errors"
	"math"

	"github.com/pdok/skyview/config"
	"github.com/pdok/skyview/geom2d"
)

type fakeDescriptor struct {
	name     string
	wcs      bool
	spectral bool

	// channel 0 of this frame sits at this channel of a common axis
	channelOffset float64
}

func (d *fakeDescriptor) HasValidWCS() bool     { return d.wcs }
func (d *fakeDescriptor) HasSpectralAxis() bool { return d.spectral }

type descriptorPair struct {
	secondary, primary Descriptor
}

type fakeProvider struct {
	transforms map[descriptorPair]geom2d.Transform
	failing    map[descriptorPair]error
}

func newFakeProvider() *fakeProvider {
	return &fakeProvider{
		transforms: make(map[descriptorPair]geom2d.Transform),
		failing:    make(map[descriptorPair]error),
	}
}

func (p *fakeProvider) set(secondary, primary Descriptor, t geom2d.Transform) {
	p.transforms[descriptorPair{secondary, primary}] = t
}

func (p *fakeProvider) SpatialTransform(secondary, primary Descriptor, _ geom2d.Point2D) (geom2d.Transform, error) {
	pair := descriptorPair{secondary, primary}
	if err, ok := p.failing[pair]; ok {
		return geom2d.Transform{}, err
	}
	if t, ok := p.transforms[pair]; ok {
		return t, nil
	}
	if !secondary.HasValidWCS() && !primary.HasValidWCS() {
		return geom2d.Identity, nil
	}
	return geom2d.Transform{}, errors.New("no overlap")
}

func (p *fakeProvider) SpectralMapping(src, dst Descriptor, _ string) (ChannelMapping, error) {
	s, okSrc := src.(*fakeDescriptor)
	d, okDst := dst.(*fakeDescriptor)
	if !okSrc || !okDst {
		return nil, errors.New("unsupported descriptor")
	}
	return func(channel float64) float64 {
		mapped := channel + s.channelOffset - d.channelOffset
		if mapped < 0 {
			return math.NaN()
		}
		return mapped
	}, nil
}

func wcsFrame(name string) *fakeDescriptor {
	return &fakeDescriptor{name: name, wcs: true, spectral: true}
}

func newTestGraph() (*Graph, *fakeProvider) {
	provider := newFakeProvider()
	prefs := config.Default()
	prefs.ContourControlMapWidth = 5
	return NewGraph(provider, prefs), provider
}

func mustAddFrame(g *Graph, id FrameID, info ImageInfo, d Descriptor) *Frame {
	f, err := g.AddFrame(id, info, d)
	if err != nil {
		panic(err)
	}
	return f
}

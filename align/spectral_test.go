package align

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spectralFrame(offset float64) *fakeDescriptor {
	return &fakeDescriptor{wcs: true, spectral: true, channelOffset: offset}
}

func setupCubes(t *testing.T) (*Graph, *Frame, *Frame, *Frame) {
	t.Helper()
	g, _ := newTestGraph()
	cube := ImageInfo{Width: 64, Height: 64, Depth: 20, Stokes: 4}
	primary := mustAddFrame(g, 1, cube, spectralFrame(10))
	secondary := mustAddFrame(g, 2, cube, spectralFrame(0))
	sibling := mustAddFrame(g, 3, cube, spectralFrame(5))
	return g, primary, secondary, sibling
}

func TestLinkSpectral(t *testing.T) {
	g, primary, secondary, sibling := setupCubes(t)
	g.SetChannel(primary, 3, 0)

	mapping, err := g.LinkSpectral(secondary, primary)
	require.NoError(t, err)
	assert.Equal(t, 13.0, mapping(3))
	assert.Equal(t, 13, secondary.RequiredChannel())

	_, err = g.LinkSpectral(sibling, primary)
	require.NoError(t, err)
	assert.Equal(t, 8, sibling.RequiredChannel())

	assert.Same(t, primary, secondary.SpectralReference())
	assert.Equal(t, []*Frame{secondary, sibling}, primary.SecondarySpectralImages())
}

func TestLinkSpectral_Errors(t *testing.T) {
	g, primary, secondary, sibling := setupCubes(t)
	image := mustAddFrame(g, 4, ImageInfo{Width: 64, Height: 64, Depth: 1}, wcsFrame("image"))
	image.SetDescriptor(&fakeDescriptor{wcs: true})
	_, err := g.LinkSpectral(secondary, primary)
	require.NoError(t, err)

	tests := []struct {
		name      string
		secondary *Frame
		primary   *Frame
		wantErr   error
	}{
		{name: "self", secondary: primary, primary: primary, wantErr: ErrSelfReference},
		{name: "no spectral axis", secondary: image, primary: primary, wantErr: ErrNoSpectralInfo},
		{name: "no spectral axis on primary", secondary: sibling, primary: image, wantErr: ErrNoSpectralInfo},
		{name: "primary is a secondary", secondary: sibling, primary: secondary, wantErr: ErrChainedReference},
		{name: "secondary has secondaries", secondary: primary, primary: sibling, wantErr: ErrChainedReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := g.LinkSpectral(tt.secondary, tt.primary)
			assert.ErrorIs(t, err, tt.wantErr)

			var alignErr *AlignmentError
			require.ErrorAs(t, err, &alignErr)
			assert.Equal(t, Spectral, alignErr.Kind)
			assert.Equal(t, tt.secondary.ID(), alignErr.Secondary)
		})
	}
	assert.Nil(t, sibling.SpectralReference())
	assert.Nil(t, primary.SpectralReference())
	assert.Equal(t, []*Frame{secondary}, primary.SecondarySpectralImages())
}

func TestSetChannel_Propagation(t *testing.T) {
	g, primary, secondary, sibling := setupCubes(t)
	_, err := g.LinkSpectral(secondary, primary)
	require.NoError(t, err)
	_, err = g.LinkSpectral(sibling, primary)
	require.NoError(t, err)

	t.Run("from primary", func(t *testing.T) {
		assert.Empty(t, g.SetChannel(primary, 4, 1))
		assert.Equal(t, 4, primary.RequiredChannel())
		assert.Equal(t, 1, primary.RequiredStokes())
		assert.Equal(t, 14, secondary.RequiredChannel())
		assert.Equal(t, 9, sibling.RequiredChannel())
	})
	t.Run("from secondary", func(t *testing.T) {
		assert.Empty(t, g.SetChannel(secondary, 15, 0))
		assert.Equal(t, 15, secondary.RequiredChannel())
		assert.Equal(t, 5, primary.RequiredChannel())
		assert.Equal(t, 10, sibling.RequiredChannel())
	})
}

func TestSetChannel_Unmapped(t *testing.T) {
	g, primary, secondary, _ := setupCubes(t)
	far := mustAddFrame(g, 4, ImageInfo{Width: 64, Height: 64, Depth: 20}, spectralFrame(15))
	_, err := g.LinkSpectral(secondary, primary)
	require.NoError(t, err)
	_, err = g.LinkSpectral(far, primary)
	require.NoError(t, err)
	assert.Equal(t, 0, far.RequiredChannel())

	far.setChannels(7, 0)
	failures := g.SetChannel(primary, 2, 0)
	require.Len(t, failures, 1)
	assert.Equal(t, far.ID(), failures[0].Frame)
	assert.ErrorIs(t, failures[0].Err, ErrChannelUnmapped)
	assert.Equal(t, 7, far.RequiredChannel())
	assert.Equal(t, 12, secondary.RequiredChannel())
}

func TestSetChannel_LostSpectralAxis(t *testing.T) {
	g, primary, secondary, _ := setupCubes(t)
	_, err := g.LinkSpectral(secondary, primary)
	require.NoError(t, err)

	secondary.SetDescriptor(&fakeDescriptor{wcs: true})
	failures := g.SetChannel(primary, 2, 0)
	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0].Err, ErrNoSpectralInfo)
}

func TestSanitizeChannel(t *testing.T) {
	g, primary, _, _ := setupCubes(t)
	tests := []struct {
		name    string
		channel float64
		stokes  int
		want    int
		wantSto int
	}{
		{name: "in range", channel: 5, stokes: 2, want: 5, wantSto: 2},
		{name: "rounded", channel: 2.6, stokes: 0, want: 3, wantSto: 0},
		{name: "above depth", channel: 25.7, stokes: 9, want: 19, wantSto: 3},
		{name: "negative", channel: -3, stokes: -1, want: 0, wantSto: 0},
		{name: "not a number keeps current", channel: math.NaN(), stokes: 1, want: 0, wantSto: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g.SetChannel(primary, tt.channel, tt.stokes)
			assert.Equal(t, tt.want, primary.RequiredChannel())
			assert.Equal(t, tt.wantSto, primary.RequiredStokes())
		})
	}
}

func TestIncrementChannels(t *testing.T) {
	g, primary, secondary, _ := setupCubes(t)
	_, err := g.LinkSpectral(secondary, primary)
	require.NoError(t, err)

	g.SetChannel(primary, 19, 3)
	g.IncrementChannels(primary, 1, 0, false)
	assert.Equal(t, 19, primary.RequiredChannel())

	assert.Empty(t, g.IncrementChannels(primary, 1, 2, true))
	assert.Equal(t, 0, primary.RequiredChannel())
	assert.Equal(t, 1, primary.RequiredStokes())
	assert.Equal(t, 10, secondary.RequiredChannel())

	g.IncrementChannels(primary, -3, 0, true)
	assert.Equal(t, 17, primary.RequiredChannel())
}

func TestUnlinkSpectral(t *testing.T) {
	g, primary, secondary, _ := setupCubes(t)
	_, err := g.LinkSpectral(secondary, primary)
	require.NoError(t, err)

	require.NoError(t, g.UnlinkSpectral(secondary))
	assert.Nil(t, secondary.SpectralReference())
	assert.Empty(t, primary.SecondarySpectralImages())
	assert.Equal(t, 10, secondary.RequiredChannel())

	g.SetChannel(primary, 6, 0)
	assert.Equal(t, 10, secondary.RequiredChannel())
	assert.ErrorIs(t, g.UnlinkSpectral(secondary), ErrNotLinked)
}

func TestAlignAllSpectral(t *testing.T) {
	g, primary, secondary, sibling := setupCubes(t)
	image := mustAddFrame(g, 4, ImageInfo{Width: 64, Height: 64, Depth: 1}, &fakeDescriptor{wcs: true})
	_, err := g.LinkSpectral(primary, secondary)
	require.NoError(t, err)

	assert.Empty(t, g.AlignAllSpectral(sibling))
	assert.Equal(t, []*Frame{primary, secondary}, sibling.SecondarySpectralImages())
	assert.Empty(t, secondary.SecondarySpectralImages())
	assert.Nil(t, image.SpectralReference())
}

package tiles

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdok/skyview/geom2d"
	"github.com/pdok/skyview/pyramid"
)

var (
	tile256  = geom2d.Size{Width: 256, Height: 256}
	tile512  = geom2d.Size{Width: 512, Height: 512}
	tile1024 = geom2d.Size{Width: 1024, Height: 1024}
	wideTile = geom2d.Size{Width: 1024, Height: 512}

	defaultView = geom2d.ViewRect{XMin: 0, XMax: 512, YMin: 0, YMax: 512, Mip: 1}
)

func tileSort(a, b TileCoordinate) int {
	if a.Layer != b.Layer {
		return a.Layer - b.Layer
	}
	if a.X != b.X {
		return a.X - b.X
	}
	return a.Y - b.Y
}

func grid(layer int, xs, ys []int) []TileCoordinate {
	var expected []TileCoordinate
	for _, x := range xs {
		for _, y := range ys {
			expected = append(expected, TileCoordinate{Layer: layer, X: x, Y: y})
		}
	}
	slices.SortFunc(expected, tileSort)
	return expected
}

func span(n int) []int {
	r := make([]int, n)
	for i := range r {
		r[i] = i
	}
	return r
}

func requireSameSet(t *testing.T, expected, got []TileCoordinate) {
	t.Helper()
	got = slices.Clone(got)
	slices.SortFunc(got, tileSort)
	require.Equal(t, expected, got)
}

//nolint:funlen
func TestRequiredTiles_Invalid(t *testing.T) {
	nan := math.NaN()
	inf := math.Inf(1)
	tests := []struct {
		name      string
		view      geom2d.ViewRect
		imageSize geom2d.Size
		tileSize  geom2d.Size
	}{
		{"nan xMin", geom2d.ViewRect{XMin: nan, XMax: 1024, YMin: 0, YMax: 1024, Mip: 1}, tile256, tile1024},
		{"inf xMax", geom2d.ViewRect{XMin: 0, XMax: inf, YMin: 0, YMax: 1024, Mip: 1}, tile256, tile1024},
		{"nan yMin", geom2d.ViewRect{XMin: 0, XMax: 1024, YMin: nan, YMax: 1024, Mip: 1}, tile256, tile1024},
		{"nan yMax", geom2d.ViewRect{XMin: 0, XMax: 1024, YMin: 0, YMax: nan, Mip: 1}, tile256, tile1024},
		{"nan mip", geom2d.ViewRect{XMin: 0, XMax: 1024, YMin: 0, YMax: 1024, Mip: nan}, tile256, tile1024},
		{"zero value view", geom2d.ViewRect{}, tile256, tile1024},
		{"empty x range", geom2d.ViewRect{XMin: 512, XMax: 512, YMin: 0, YMax: 1024, Mip: 1}, tile256, tile1024},
		{"inverted x range", geom2d.ViewRect{XMin: 513, XMax: 512, YMin: 0, YMax: 1024, Mip: 1}, tile256, tile1024},
		{"inverted y range", geom2d.ViewRect{XMin: 0, XMax: 1024, YMin: 513, YMax: 512, Mip: 1}, tile256, tile1024},
		{"empty y range", geom2d.ViewRect{XMin: 0, XMax: 1024, YMin: 512, YMax: 512, Mip: 1}, tile256, tile1024},
		{"negative mip", geom2d.ViewRect{XMin: 0, XMax: 1024, YMin: 0, YMax: 1024, Mip: -1}, tile256, tile1024},
		{"zero mip", geom2d.ViewRect{XMin: 0, XMax: 1024, YMin: 0, YMax: 1024, Mip: 0}, tile256, tile1024},
		{"zero value image", defaultView, geom2d.Size{}, tile256},
		{"nan image", defaultView, geom2d.Size{Width: nan, Height: 10}, tile256},
		{"negative image height", defaultView, geom2d.Size{Width: 1024, Height: -1}, tile256},
		{"zero image height", defaultView, geom2d.Size{Width: 1024, Height: 0}, tile256},
		{"negative image width", defaultView, geom2d.Size{Width: -1, Height: 1024}, tile256},
		{"zero image width", defaultView, geom2d.Size{Width: 0, Height: 1024}, tile256},
		{"zero value tile", defaultView, tile1024, geom2d.Size{}},
		{"inf tile", defaultView, tile1024, geom2d.Size{Width: inf, Height: 256}},
		{"negative tile height", defaultView, tile1024, geom2d.Size{Width: 256, Height: -1}},
		{"zero tile height", defaultView, tile1024, geom2d.Size{Width: 256, Height: 0}},
		{"negative tile width", defaultView, tile1024, geom2d.Size{Width: -1, Height: 256}},
		{"zero tile width", defaultView, tile1024, geom2d.Size{Width: 0, Height: 256}},
		{"left of image", geom2d.ViewRect{XMin: -100, XMax: -50, YMin: 0, YMax: 256, Mip: 1}, wideTile, tile256},
		{"right of image", geom2d.ViewRect{XMin: 1024 + 50, XMax: 1024 + 100, YMin: 0, YMax: 256, Mip: 1}, wideTile, tile256},
		{"below image", geom2d.ViewRect{XMin: 0, XMax: 256, YMin: -300, YMax: -1, Mip: 1}, wideTile, tile256},
		{"above image", geom2d.ViewRect{XMin: 0, XMax: 256, YMin: 512, YMax: 600, Mip: 1}, wideTile, tile256},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, RequiredTiles(tt.view, tt.imageSize, tt.tileSize))
		})
	}
}

func TestRequiredTiles_TooManyTiles(t *testing.T) {
	tests := []struct {
		name      string
		view      geom2d.ViewRect
		imageSize geom2d.Size
	}{
		{"beyond int range", geom2d.ViewRect{XMin: 0, XMax: 1e300, YMin: 0, YMax: 768, Mip: 1}, geom2d.Size{Width: 1e300, Height: 768}},
		{"both axes beyond int range", geom2d.ViewRect{XMin: 0, XMax: 1e300, YMin: 0, YMax: 1e300, Mip: 1}, geom2d.Size{Width: 1e300, Height: 1e300}},
		{"product overflows int", geom2d.ViewRect{XMin: 0, XMax: 1e14, YMin: 0, YMax: 1e14, Mip: 1}, geom2d.Size{Width: 1e14, Height: 1e14}},
		{"above the limit", geom2d.ViewRect{XMin: 0, XMax: 256 * 8192, YMin: 0, YMax: 256 * 4096, Mip: 1}, geom2d.Size{Width: 256 * 8192, Height: 256 * 4096}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				assert.Empty(t, RequiredTiles(tt.view, tt.imageSize, tile256))
			})
		})
	}

}

func TestRequiredTiles_SingleTile(t *testing.T) {
	want := []TileCoordinate{{Layer: 0, X: 0, Y: 0}}
	assert.Equal(t, want, RequiredTiles(defaultView, tile256, tile256), "tile size equal to image size")
	assert.Equal(t, want, RequiredTiles(defaultView, tile256, tile1024), "tile size larger than image size")
}

//nolint:funlen
func TestRequiredTiles(t *testing.T) {
	tests := []struct {
		name      string
		view      geom2d.ViewRect
		imageSize geom2d.Size
		tileSize  geom2d.Size
		want      []TileCoordinate
	}{
		{
			name:      "1024x1024 full resolution 512x512 tiles",
			view:      geom2d.ViewRect{XMin: 0, XMax: 1024, YMin: 0, YMax: 1024, Mip: 1},
			imageSize: tile1024, tileSize: tile512,
			want: grid(1, []int{0, 1}, []int{0, 1}),
		},
		{
			name:      "1024x1024 full resolution 256x256 tiles",
			view:      geom2d.ViewRect{XMin: 0, XMax: 1024, YMin: 0, YMax: 1024, Mip: 1},
			imageSize: tile1024, tileSize: tile256,
			want: grid(2, span(4), span(4)),
		},
		{
			name:      "tall section full resolution",
			view:      geom2d.ViewRect{XMin: 100, XMax: 300, YMin: 100, YMax: 600, Mip: 1},
			imageSize: tile1024, tileSize: tile256,
			want: grid(2, []int{0, 1}, []int{0, 1, 2}),
		},
		{
			name:      "wide section full resolution",
			view:      geom2d.ViewRect{XMin: -100, XMax: 1000, YMin: 800, YMax: 900, Mip: 1},
			imageSize: tile1024, tileSize: tile256,
			want: grid(2, span(4), []int{3}),
		},
		{
			name:      "tall section half resolution",
			view:      geom2d.ViewRect{XMin: 100, XMax: 300, YMin: 100, YMax: 600, Mip: 2},
			imageSize: tile1024, tileSize: tile256,
			want: grid(1, []int{0}, []int{0, 1}),
		},
		{
			name:      "wide section half resolution",
			view:      geom2d.ViewRect{XMin: -100, XMax: 1000, YMin: 800, YMax: 900, Mip: 2},
			imageSize: tile1024, tileSize: tile256,
			want: grid(1, []int{0, 1}, []int{1}),
		},
		{
			name:      "wide section partially above image",
			view:      geom2d.ViewRect{XMin: 100, XMax: 1000, YMin: 900, YMax: 1100, Mip: 2},
			imageSize: tile1024, tileSize: tile256,
			want: grid(1, []int{0, 1}, []int{1}),
		},
		{
			name:      "wide section partially below image",
			view:      geom2d.ViewRect{XMin: 100, XMax: 1000, YMin: -100, YMax: 100, Mip: 2},
			imageSize: tile1024, tileSize: tile256,
			want: grid(1, []int{0, 1}, []int{0}),
		},
		{
			name:      "tall section partially left of image",
			view:      geom2d.ViewRect{XMin: -100, XMax: 50, YMin: 100, YMax: 1000, Mip: 2},
			imageSize: tile1024, tileSize: tile256,
			want: grid(1, []int{0}, []int{0, 1}),
		},
		{
			name:      "tall section partially right of image",
			view:      geom2d.ViewRect{XMin: 900, XMax: 1100, YMin: 100, YMax: 1000, Mip: 2},
			imageSize: tile1024, tileSize: tile256,
			want: grid(1, []int{1}, []int{0, 1}),
		},
		{
			name:      "mip coarser than the root layer",
			view:      geom2d.ViewRect{XMin: 0, XMax: 1024, YMin: 0, YMax: 1024, Mip: 8},
			imageSize: tile1024, tileSize: tile256,
			want: grid(0, []int{0}, []int{0}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			requireSameSet(t, tt.want, RequiredTiles(tt.view, tt.imageSize, tt.tileSize))
		})
	}
}

func TestRequiredTiles_16K(t *testing.T) {
	view := geom2d.ViewRect{XMin: 0, XMax: 16384, YMin: 0, YMax: 16384, Mip: 1}
	image := geom2d.Size{Width: 16384, Height: 16384}

	start := time.Now()
	got := RequiredTiles(view, image, tile256)
	elapsed := time.Since(start)

	require.Len(t, got, 64*64)
	requireSameSet(t, grid(6, span(64), span(64)), got)
	// generous, the budget is a fraction of a millisecond
	assert.Less(t, elapsed, 50*time.Millisecond)
}

// Every tile returned overlaps the image, and together they cover the clipped view.
func TestRequiredTiles_Coverage(t *testing.T) {
	image := geom2d.Size{Width: 3000, Height: 1700}
	views := []geom2d.ViewRect{
		{XMin: -20.5, XMax: 700.25, YMin: 33, YMax: 1500, Mip: 1},
		{XMin: 1000, XMax: 3500, YMin: -400, YMax: 900, Mip: 2},
		{XMin: 0, XMax: 3000, YMin: 0, YMax: 1700, Mip: 4},
		{XMin: 2999, XMax: 3001, YMin: 1699, YMax: 1701, Mip: 1},
	}
	p, ok := pyramid.New(image, tile256)
	require.True(t, ok)
	for _, view := range views {
		got := RequiredPyramidTiles(view, &p)
		require.NotEmpty(t, got)
		clipped, _ := view.Clip(image.Width, image.Height)

		footprint := tile256.Width * view.Mip
		minX, minY := math.Inf(1), math.Inf(1)
		maxX, maxY := math.Inf(-1), math.Inf(-1)
		for _, tile := range got {
			x0, y0 := float64(tile.X)*footprint, float64(tile.Y)*footprint
			assert.Less(t, x0, image.Width)
			assert.Less(t, y0, image.Height)
			minX, minY = min(minX, x0), min(minY, y0)
			maxX, maxY = max(maxX, x0+footprint), max(maxY, y0+footprint)

			s, ok := tile.ToSlippy()
			require.True(t, ok)
			_, ok = p.TileBounds(s)
			assert.Truef(t, ok, "tile %v inside pyramid", tile)
		}
		assert.LessOrEqual(t, minX, clipped.XMin)
		assert.LessOrEqual(t, minY, clipped.YMin)
		assert.GreaterOrEqual(t, maxX, clipped.XMax)
		assert.GreaterOrEqual(t, maxY, clipped.YMax)
	}
}

func TestTileCoordinate_Slippy(t *testing.T) {
	c := TileCoordinate{Layer: 3, X: 4, Y: 5}
	s, ok := c.ToSlippy()
	require.True(t, ok)
	assert.Equal(t, c, FromSlippy(s))
	assert.Equal(t, "3/4/5", c.String())

	_, ok = TileCoordinate{Layer: -1}.ToSlippy()
	assert.False(t, ok)
}

func BenchmarkRequiredTiles16K(b *testing.B) {
	view := geom2d.ViewRect{XMin: 0, XMax: 16384, YMin: 0, YMax: 16384, Mip: 1}
	image := geom2d.Size{Width: 16384, Height: 16384}
	for i := 0; i < b.N; i++ {
		RequiredTiles(view, image, tile256)
	}
}

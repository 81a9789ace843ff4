// Package tiles computes which tiles of an image pyramid are needed to render a view.
package tiles

import (
	"fmt"
	"math"

	"github.com/go-spatial/geom/slippy"

	"github.com/pdok/skyview/geom2d"
	"github.com/pdok/skyview/pyramid"
)

// TileCoordinate addresses one tile of a resolution pyramid.
// Larger layers are finer; layer 0 is the coarsest.
type TileCoordinate struct {
	Layer int `json:"layer"`
	X     int `json:"x"`
	Y     int `json:"y"`
}

func (c TileCoordinate) String() string {
	return fmt.Sprintf("%d/%d/%d", c.Layer, c.X, c.Y)
}

// ToSlippy converts the coordinate into a go-spatial slippy tile. ok is false for negative components.
func (c TileCoordinate) ToSlippy() (*slippy.Tile, bool) {
	if c.Layer < 0 || c.X < 0 || c.Y < 0 {
		return nil, false
	}
	return slippy.NewTile(uint(c.Layer), uint(c.X), uint(c.Y)), true
}

func FromSlippy(t *slippy.Tile) TileCoordinate {
	return TileCoordinate{Layer: int(t.Z), X: int(t.X), Y: int(t.Y)}
}

// MaxTiles is the largest tile set RequiredTiles returns. Views needing more
// tiles than this at their mip yield an empty result.
const MaxTiles = 1 << 24

// RequiredTiles returns the set of tiles covering view at the view's mip.
// view.Mip must be a power of two; callers round beforehand.
//
// Invalid input (malformed view, non-positive sizes, a view outside the image,
// more than MaxTiles tiles) yields an empty result: nothing to fetch.
func RequiredTiles(view geom2d.ViewRect, imageSize, tileSize geom2d.Size) []TileCoordinate {
	if !view.Valid() || !imageSize.Valid() || !tileSize.Valid() {
		return nil
	}
	boundedView, ok := view.Clip(imageSize.Width, imageSize.Height)
	if !ok {
		return nil
	}

	adjustedTileWidth := tileSize.Width * view.Mip
	adjustedTileHeight := tileSize.Height * view.Mip

	xStartF := math.Floor(boundedView.XMin / adjustedTileWidth)
	xEndF := math.Ceil(boundedView.XMax / adjustedTileWidth)
	yStartF := math.Floor(boundedView.YMin / adjustedTileHeight)
	yEndF := math.Ceil(boundedView.YMax / adjustedTileHeight)
	// counted in float64 so huge views cannot overflow the int conversion
	if (xEndF-xStartF)*(yEndF-yStartF) > MaxTiles {
		return nil
	}
	xStart, xEnd := int(xStartF), int(xEndF)
	yStart, yEnd := int(yStartF), int(yEndF)

	layer := pyramid.LayerForMip(pyramid.TotalLayers(imageSize, tileSize), view.Mip)

	tileSet := make([]TileCoordinate, 0, (xEnd-xStart)*(yEnd-yStart))
	for x := xStart; x < xEnd; x++ {
		for y := yStart; y < yEnd; y++ {
			tileSet = append(tileSet, TileCoordinate{Layer: layer, X: x, Y: y})
		}
	}
	return tileSet
}

// RequiredPyramidTiles is RequiredTiles against a prepared pyramid.
func RequiredPyramidTiles(view geom2d.ViewRect, p *pyramid.Pyramid) []TileCoordinate {
	return RequiredTiles(view, p.ImageSize(), p.TileSize())
}

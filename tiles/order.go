package tiles

import (
	"cmp"
	"math"
	"slices"

	"github.com/umpc/go-sortedmap"

	"github.com/pdok/skyview/geom2d"
)

// Z is a Morton (Z-order) code: the bits of x and y interleaved, x in the even bits.
type Z = uint64

// spread moves the lower 32 bits of v into the even bit positions.
func spread(v uint64) uint64 {
	v &= 0x00000000ffffffff
	v = (v | v<<16) & 0x0000ffff0000ffff
	v = (v | v<<8) & 0x00ff00ff00ff00ff
	v = (v | v<<4) & 0x0f0f0f0f0f0f0f0f
	v = (v | v<<2) & 0x3333333333333333
	v = (v | v<<1) & 0x5555555555555555
	return v
}

// compact is the inverse of spread.
func compact(v uint64) uint64 {
	v &= 0x5555555555555555
	v = (v | v>>1) & 0x3333333333333333
	v = (v | v>>2) & 0x0f0f0f0f0f0f0f0f
	v = (v | v>>4) & 0x00ff00ff00ff00ff
	v = (v | v>>8) & 0x0000ffff0000ffff
	v = (v | v>>16) & 0x00000000ffffffff
	return v
}

// ToZ interleaves x and y. ok is false if either does not fit in 32 bits.
func ToZ(x, y uint64) (z Z, ok bool) {
	ok = x <= math.MaxUint32 && y <= math.MaxUint32
	return spread(x) | spread(y)<<1, ok
}

func FromZ(z Z) (x, y uint64) {
	return compact(z), compact(z >> 1)
}

// ZOrder sorts tiles in place by layer, then along the Z-order curve, so tiles
// that are close on the image stay close in fetch order.
func ZOrder(tileSet []TileCoordinate) {
	slices.SortFunc(tileSet, func(a, b TileCoordinate) int {
		if c := cmp.Compare(a.Layer, b.Layer); c != 0 {
			return c
		}
		za, _ := ToZ(uint64(max(a.X, 0)), uint64(max(a.Y, 0)))
		zb, _ := ToZ(uint64(max(b.X, 0)), uint64(max(b.Y, 0)))
		return cmp.Compare(za, zb)
	})
}

type rankedTile struct {
	distance float64
	tile     TileCoordinate
}

func lessRanked(i, j interface{}) bool {
	a, b := i.(rankedTile), j.(rankedTile)
	if a.distance != b.distance {
		return a.distance < b.distance
	}
	if a.tile.X != b.tile.X {
		return a.tile.X < b.tile.X
	}
	return a.tile.Y < b.tile.Y
}

// NearestFirst returns the tiles ordered by the distance of their centers to
// the center of the view, the order in which a renderer wants them to arrive.
// The tiles must all be on the layer matching view.Mip.
func NearestFirst(tileSet []TileCoordinate, view geom2d.ViewRect, tileSize geom2d.Size) []TileCoordinate {
	if len(tileSet) == 0 {
		return nil
	}
	footprintWidth := tileSize.Width * view.Mip
	footprintHeight := tileSize.Height * view.Mip
	center := view.Center()

	ranked := sortedmap.New(len(tileSet), lessRanked)
	for _, tile := range tileSet {
		tileCenter := geom2d.Point2D{
			(float64(tile.X) + 0.5) * footprintWidth,
			(float64(tile.Y) + 0.5) * footprintHeight,
		}
		d := geom2d.Subtract(tileCenter, center)
		ranked.Insert(tile, rankedTile{distance: d.X()*d.X() + d.Y()*d.Y(), tile: tile})
	}

	ordered := make([]TileCoordinate, 0, ranked.Len())
	for _, key := range ranked.Keys() {
		ordered = append(ordered, key.(TileCoordinate))
	}
	return ordered
}

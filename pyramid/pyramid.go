// Package pyramid describes the resolution pyramid of one image: for every
// layer the decimation factor and the size of its tile matrix.
//
// Layer 0 is the coarsest level, the one that covers the whole image in a
// single tile along its longer axis. Every next layer halves the mip.
// Tile columns count from the left, rows from the bottom (pixel y = 0).
package pyramid

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"github.com/go-spatial/geom/slippy"
	"github.com/perimeterx/marshmallow"

	"github.com/pdok/skyview/geom2d"
	"github.com/pdok/skyview/mathhelp"
)

// TotalLayers is the index of the full resolution layer for an image and tile size.
// Both sizes must be valid.
func TotalLayers(imageSize, tileSize geom2d.Size) int {
	totalTilesX := math.Ceil(imageSize.Width / tileSize.Width)
	totalTilesY := math.Ceil(imageSize.Height / tileSize.Height)
	return mathhelp.CeilLog2(max(totalTilesX, totalTilesY))
}

// LayerForMip is the layer holding tiles decimated by mip. Mips coarser than
// the pyramid's root resolve to the root layer.
func LayerForMip(totalLayers int, mip float64) int {
	return max(0, totalLayers-mathhelp.CeilLog2(mip))
}

// MipForLayer is the decimation factor of a layer.
func MipForLayer(totalLayers, layer int) float64 {
	return math.Pow(2, float64(totalLayers-layer))
}

// Pyramid is the full layer description of one image.
type Pyramid struct {
	// Free identifier, usually the file id of the image
	ID string `json:"id,omitempty"`
	// Image width in pixels
	ImageWidth float64 `validate:"required,gt=0" json:"imageWidth"`
	// Image height in pixels
	ImageHeight float64 `validate:"required,gt=0" json:"imageHeight"`
	// Width of each tile in pixels
	TileWidth float64 `default:"256" validate:"required,gt=0" json:"tileWidth"`
	// Height of each tile in pixels
	TileHeight float64 `default:"256" validate:"required,gt=0" json:"tileHeight"`
	// Index of the full resolution layer
	TotalLayers int `validate:"min=0" json:"totalLayers"`
	// The tile matrix of every layer, by layer
	Matrices map[int]Matrix `validate:"required,min=1" json:"-"`
}

// Matrix is the tile grid of a single pyramid layer.
type Matrix struct {
	Layer int `validate:"min=0" json:"layer"`
	// Source pixels per tile pixel
	Mip float64 `validate:"required,gt=0" json:"mip"`
	// Number of tiles in width
	MatrixWidth uint `validate:"required,min=1" json:"matrixWidth"`
	// Number of tiles in height
	MatrixHeight uint `validate:"required,min=1" json:"matrixHeight"`
}

// New builds the pyramid for an image. ok is false for invalid sizes.
func New(imageSize, tileSize geom2d.Size) (Pyramid, bool) {
	if !imageSize.Valid() || !tileSize.Valid() {
		return Pyramid{}, false
	}
	p := Pyramid{
		ImageWidth:  imageSize.Width,
		ImageHeight: imageSize.Height,
		TileWidth:   tileSize.Width,
		TileHeight:  tileSize.Height,
		TotalLayers: TotalLayers(imageSize, tileSize),
	}
	p.Matrices = make(map[int]Matrix, p.TotalLayers+1)
	for layer := 0; layer <= p.TotalLayers; layer++ {
		p.Matrices[layer] = p.newMatrix(layer)
	}
	return p, true
}

func (p *Pyramid) newMatrix(layer int) Matrix {
	mip := MipForLayer(p.TotalLayers, layer)
	return Matrix{
		Layer:        layer,
		Mip:          mip,
		MatrixWidth:  uint(math.Ceil(p.ImageWidth / (p.TileWidth * mip))),
		MatrixHeight: uint(math.Ceil(p.ImageHeight / (p.TileHeight * mip))),
	}
}

func (p *Pyramid) ImageSize() geom2d.Size {
	return geom2d.Size{Width: p.ImageWidth, Height: p.ImageHeight}
}

func (p *Pyramid) TileSize() geom2d.Size {
	return geom2d.Size{Width: p.TileWidth, Height: p.TileHeight}
}

// LayerForMip is the layer holding tiles decimated by mip.
func (p *Pyramid) LayerForMip(mip float64) int {
	return LayerForMip(p.TotalLayers, mip)
}

// Size returns the matrix dimensions of a layer as a slippy tile (X = width, Y = height).
func (p *Pyramid) Size(layer uint) (*slippy.Tile, bool) {
	m, ok := p.Matrices[int(layer)]
	if !ok {
		return nil, false
	}
	return slippy.NewTile(layer, m.MatrixWidth, m.MatrixHeight), true
}

// FromNative returns the tile of a layer containing a pixel coordinate.
func (p *Pyramid) FromNative(layer uint, pt geom2d.Point2D) (*slippy.Tile, bool) {
	m, ok := p.Matrices[int(layer)]
	if !ok {
		return nil, false
	}

	x := math.Floor(pt.X() / (p.TileWidth * m.Mip))
	if x < 0 || x >= float64(m.MatrixWidth) {
		return nil, false
	}
	y := math.Floor(pt.Y() / (p.TileHeight * m.Mip))
	if y < 0 || y >= float64(m.MatrixHeight) {
		return nil, false
	}
	return slippy.NewTile(layer, uint(x), uint(y)), true
}

// ToNative returns the bottom-left pixel corner of a tile.
func (p *Pyramid) ToNative(tile *slippy.Tile) (geom2d.Point2D, bool) {
	m, ok := p.Matrices[int(tile.Z)]
	if !ok {
		return geom2d.Point2D{}, false
	}
	if tile.X > m.MatrixWidth || tile.Y > m.MatrixHeight {
		// >, not >= so the far corner of the last tile can be computed as well
		return geom2d.Point2D{}, false
	}
	return geom2d.Point2D{
		float64(tile.X) * p.TileWidth * m.Mip,
		float64(tile.Y) * p.TileHeight * m.Mip,
	}, true
}

// TileBounds returns the pixel footprint of a tile, clipped to the image.
func (p *Pyramid) TileBounds(tile *slippy.Tile) (geom2d.ViewRect, bool) {
	m, ok := p.Matrices[int(tile.Z)]
	if !ok || tile.X >= m.MatrixWidth || tile.Y >= m.MatrixHeight {
		return geom2d.ViewRect{}, false
	}
	lowerLeft, _ := p.ToNative(tile)
	upperRight, _ := p.ToNative(slippy.NewTile(tile.Z, tile.X+1, tile.Y+1))
	return geom2d.ViewRect{
		XMin: lowerLeft.X(),
		XMax: min(upperRight.X(), p.ImageWidth),
		YMin: lowerLeft.Y(),
		YMax: min(upperRight.Y(), p.ImageHeight),
		Mip:  m.Mip,
	}, true
}

func (p *Pyramid) MarshalJSON() ([]byte, error) {
	matrices := make([]*Matrix, 0, len(p.Matrices))
	for i := range p.Matrices {
		m := p.Matrices[i]
		matrices = append(matrices, &m)
	}
	sort.Slice(matrices, func(i, j int) bool {
		return matrices[i].Layer < matrices[j].Layer
	})
	return json.Marshal(struct {
		Pyramid                    // not a pointer, because it would cause recursion to this function
		SpecialMatrices []*Matrix `json:"matrices"`
	}{
		Pyramid:         *p,
		SpecialMatrices: matrices,
	})
}

func (p *Pyramid) UnmarshalJSON(data []byte) error {
	err := defaults.Set(p)
	if err != nil {
		return err
	}

	specials, err := marshmallow.Unmarshal(data, p, marshmallow.WithExcludeKnownFieldsFromMap(true))
	if err != nil {
		return err
	}

	rawMatrices, ok := specials["matrices"]
	if !ok {
		return fmt.Errorf(`missing key "matrices"`)
	}
	p.Matrices, err = unmarshalMatrices(rawMatrices)
	if err != nil {
		return err
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	return validate.Struct(p)
}

func unmarshalMatrices(rawMatrices interface{}) (map[int]Matrix, error) {
	rawMatricesList, ok := rawMatrices.([]interface{})
	if !ok {
		return nil, fmt.Errorf(`"matrices" should be an array`)
	}
	matrices := make(map[int]Matrix, len(rawMatricesList))
	for _, rawMatrix := range rawMatricesList {
		rawMatrixMap, ok := rawMatrix.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf(`"matrices" should be objects`)
		}
		var m Matrix
		if _, err := marshmallow.UnmarshalFromJSONMap(rawMatrixMap, &m); err != nil {
			return nil, fmt.Errorf("could not unmarshal matrix: %w", err)
		}
		if _, dupe := matrices[m.Layer]; dupe {
			return nil, fmt.Errorf("duplicate matrix for layer %d", m.Layer)
		}
		matrices[m.Layer] = m
	}
	return matrices, nil
}

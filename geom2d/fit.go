package geom2d

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PointMapping is an opaque point-to-point mapping, typically a
// pixel → world → pixel chain. ok is false where the mapping is undefined.
type PointMapping func(p Point2D) (mapped Point2D, ok bool)

// stencilDelta is the offset in pixels of the samples taken around the origin.
const stencilDelta = 1.0

var ErrDegenerateFit = errors.New("degenerate transform fit")

// EstimateTransform derives a Transform about origin by sampling mapping on a
// small stencil around it and fitting a similarity to the samples.
func EstimateTransform(mapping PointMapping, origin Point2D) (Transform, error) {
	offsets := []Point2D{{0, 0}, {stencilDelta, 0}, {-stencilDelta, 0}, {0, stencilDelta}, {0, -stencilDelta}}
	src := make([]Point2D, 0, len(offsets))
	dst := make([]Point2D, 0, len(offsets))
	for _, offset := range offsets {
		p := Add(origin, offset)
		mapped, ok := mapping(p)
		if !ok || !IsFinitePoint(mapped) {
			continue
		}
		src = append(src, p)
		dst = append(dst, mapped)
	}
	return FitTransform(src, dst, origin)
}

// FitTransform finds, in the least squares sense, the similarity transform about
// origin that maps src onto dst. At least two distinct point pairs are needed.
//
// With (dx, dy) = src − origin and (X, Y) = dst − origin the model is
//
//	X = a·dx − b·dy + tx
//	Y = b·dx + a·dy + ty
//
// giving scale = |(a, b)| and rotation = atan2(b, a).
func FitTransform(src, dst []Point2D, origin Point2D) (Transform, error) {
	if len(src) != len(dst) {
		return Transform{}, fmt.Errorf("mismatched point counts %d and %d", len(src), len(dst))
	}
	if len(src) < 2 {
		return Transform{}, fmt.Errorf("%w: need at least 2 points, got %d", ErrDegenerateFit, len(src))
	}

	n := len(src)
	a := mat.NewDense(2*n, 4, nil)
	b := mat.NewVecDense(2*n, nil)
	for i := range src {
		d := Subtract(src[i], origin)
		m := Subtract(dst[i], origin)
		a.SetRow(2*i, []float64{d.X(), -d.Y(), 1, 0})
		a.SetRow(2*i+1, []float64{d.Y(), d.X(), 0, 1})
		b.SetVec(2*i, m.X())
		b.SetVec(2*i+1, m.Y())
	}

	var x mat.VecDense
	if err := x.SolveVec(a, b); err != nil {
		return Transform{}, fmt.Errorf("%w: %w", ErrDegenerateFit, err)
	}
	scale := math.Hypot(x.AtVec(0), x.AtVec(1))
	if scale == 0 || !isFinite(scale) {
		return Transform{}, fmt.Errorf("%w: scale %v", ErrDegenerateFit, scale)
	}
	return Transform{
		Translation: Point2D{x.AtVec(2), x.AtVec(3)},
		Rotation:    math.Atan2(x.AtVec(1), x.AtVec(0)),
		Scale:       scale,
		Origin:      origin,
	}, nil
}

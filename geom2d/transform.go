package geom2d

import "math"

// Transform maps a point in a secondary frame's pixel space into the pixel
// space of its primary frame:
//
//	p' = origin + translation + scale·R(rotation)·(p − origin)
//
// Values are built from two coordinate systems by a WCS provider (or by
// EstimateTransform); they are not meant to be written by hand.
type Transform struct {
	Translation Point2D `json:"translation"`
	Rotation    float64 `json:"rotation"` // radians
	Scale       float64 `json:"scale"`
	Origin      Point2D `json:"origin"`
}

// Identity maps every point onto itself.
var Identity = Transform{Scale: 1}

// TransformCoordinate applies the transform, or its inverse when inverse is true.
func (t Transform) TransformCoordinate(p Point2D, inverse bool) Point2D {
	if inverse {
		shifted := Subtract(Subtract(p, t.Origin), t.Translation)
		return Add(t.Origin, Rotate(Scale(shifted, 1.0/t.Scale), -t.Rotation))
	}
	return Add(Add(t.Origin, t.Translation), Scale(Rotate(Subtract(p, t.Origin), t.Rotation), t.Scale))
}

// Forward maps secondary pixel space into primary pixel space.
func (t Transform) Forward(p Point2D) Point2D {
	return t.TransformCoordinate(p, false)
}

// Backward maps primary pixel space into secondary pixel space.
func (t Transform) Backward(p Point2D) Point2D {
	return t.TransformCoordinate(p, true)
}

// Inverse returns the transform that undoes t, sharing its origin.
func (t Transform) Inverse() Transform {
	return Transform{
		Translation: Scale(Rotate(t.Translation, -t.Rotation), -1.0/t.Scale),
		Rotation:    -t.Rotation,
		Scale:       1.0 / t.Scale,
		Origin:      t.Origin,
	}
}

// Finite reports whether every component is a finite number.
func (t Transform) Finite() bool {
	return isFinite(t.Rotation) && isFinite(t.Scale) &&
		IsFinitePoint(t.Translation) && IsFinitePoint(t.Origin)
}

// IsValid reports whether the transform is finite and invertible.
func (t Transform) IsValid() bool {
	return t.Finite() && t.Scale > 0
}

// RotationDegrees is the rotation normalised to [0, 360).
func (t Transform) RotationDegrees() float64 {
	deg := math.Mod(t.Rotation*180/math.Pi, 360)
	if deg < 0 {
		deg += 360
	}
	return deg
}

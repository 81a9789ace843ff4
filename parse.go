package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pdok/skyview/geom2d"
)

func parseFloats(s string, sep string, n int) ([]float64, error) {
	parts := strings.Split(s, sep)
	if len(parts) != n {
		return nil, fmt.Errorf("expected %d values separated by %q, got %q", n, sep, s)
	}
	values := make([]float64, n)
	for i, part := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number in %q: %w", s, err)
		}
		values[i] = v
	}
	return values, nil
}

// parseSize reads WIDTHxHEIGHT.
func parseSize(s string) (geom2d.Size, error) {
	v, err := parseFloats(strings.ToLower(s), "x", 2)
	if err != nil {
		return geom2d.Size{}, err
	}
	size := geom2d.Size{Width: v[0], Height: v[1]}
	if !size.Valid() {
		return size, fmt.Errorf("size must be positive, got %q", s)
	}
	return size, nil
}

// parsePoint reads X,Y.
func parsePoint(s string) (geom2d.Point2D, error) {
	v, err := parseFloats(s, ",", 2)
	if err != nil {
		return geom2d.Point2D{}, err
	}
	return geom2d.Point2D{v[0], v[1]}, nil
}

// parseView reads XMIN,XMAX,YMIN,YMAX,MIP.
func parseView(s string) (geom2d.ViewRect, error) {
	v, err := parseFloats(s, ",", 5)
	if err != nil {
		return geom2d.ViewRect{}, err
	}
	return geom2d.ViewRect{XMin: v[0], XMax: v[1], YMin: v[2], YMax: v[3], Mip: v[4]}, nil
}

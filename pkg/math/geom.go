// pkg/math/geom.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	gomath "math"
	"sync"
)

///////////////////////////////////////////////////////////////////////////
// Extent2D

// Extent2D represents a 2D bounding box with the two vertices at its
// opposite minimum and maximum corners.
type Extent2D struct {
	P0, P1 [2]float32
}

// EmptyExtent2D returns an Extent2D representing an empty bounding box.
func EmptyExtent2D() Extent2D {
	e := Extent2D{}
	e.P0 = [2]float32{gomath.MaxFloat32, gomath.MaxFloat32}
	e.P1 = [2]float32{-gomath.MaxFloat32, -gomath.MaxFloat32}
	return e
}

// Extent2DFromPoints returns an Extent2D that bounds all of the provided
// points.
func Extent2DFromPoints(pts [][2]float32) Extent2D {
	e := EmptyExtent2D()
	for _, p := range pts {
		e = Union(e, p)
	}
	return e
}

func (e Extent2D) Width() float32 {
	return e.P1[0] - e.P0[0]
}

func (e Extent2D) Height() float32 {
	return e.P1[1] - e.P0[1]
}

func (e Extent2D) Center() [2]float32 {
	return [2]float32{(e.P0[0] + e.P1[0]) / 2, (e.P0[1] + e.P1[1]) / 2}
}

// Inside returns true if the point p is inside e.
func (e Extent2D) Inside(p [2]float32) bool {
	return p[0] >= e.P0[0] && p[0] <= e.P1[0] && p[1] >= e.P0[1] && p[1] <= e.P1[1]
}

// Union returns an Extent2D that bounds both the provided Extent2D and the
// given point.
func Union(e Extent2D, p [2]float32) Extent2D {
	e.P0[0] = Min(e.P0[0], p[0])
	e.P0[1] = Min(e.P0[1], p[1])
	e.P1[0] = Max(e.P1[0], p[0])
	e.P1[1] = Max(e.P1[1], p[1])
	return e
}

var (
	circlePointsMu sync.Mutex
	circlePoints   map[int][][2]float32
)

// CirclePoints returns the vertices for a unit circle at the origin with
// the given number of segments, starting at (1,0) and going
// counter-clockwise. It creates the vertex slice if this tessellation
// rate hasn't been seen before and otherwise returns a preexisting one;
// callers must not modify the returned slice.
func CirclePoints(nsegs int) [][2]float32 {
	circlePointsMu.Lock()
	defer circlePointsMu.Unlock()

	if circlePoints == nil {
		circlePoints = make(map[int][][2]float32)
	}
	if _, ok := circlePoints[nsegs]; !ok {
		// Evaluate the vertices of the circle to initialize a new slice.
		pts := make([][2]float32, nsegs)
		for d := range nsegs {
			angle := float32(d) / float32(nsegs) * 2 * gomath.Pi
			s, c := SinCos(angle)
			pts[d] = [2]float32{c, s}
		}
		circlePoints[nsegs] = pts
	}

	// One way or another, it's now available in the map.
	return circlePoints[nsegs]
}

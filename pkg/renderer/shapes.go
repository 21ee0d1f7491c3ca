// pkg/renderer/shapes.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"github.com/mmp/immdraw/pkg/math"
)

// Number of segments used for each corner of a rounded rectangle.
const roundRectCornerSlices = 20

const (
	RoundRectVertices          = 4*roundRectCornerSlices*3 + 4*3
	RoundRectWireframeVertices = 4*roundRectCornerSlices*2 + 4*2
)

func geomVertex(p [2]float32, c RGBA) Vertex {
	return Vertex{Pos: p, Color: c, Opacity: 1}
}

// DrawPoint draws a filled square of side size centered at p.
func (c *Canvas) DrawPoint(p [2]float32, color RGBA, size float32) error {
	if err := checkPoints(p); err != nil {
		return err
	}
	if err := checkSize(size, size); err != nil {
		return err
	}

	s := size / 2
	vp := getVertices(6)
	defer returnVertices(vp)
	for _, q := range [6][2]float32{{-s, -s}, {s, s}, {-s, s}, {-s, -s}, {s, -s}, {s, s}} {
		*vp = append(*vp, geomVertex(math.Add2f(p, q), color))
	}
	return c.submit(TopologyTriangles, KindGeometry, 0, *vp)
}

// DrawPoints draws each of the points as a single pixel. Nothing is drawn
// for an empty slice.
func (c *Canvas) DrawPoints(pts [][2]float32, color RGBA) error {
	if len(pts) == 0 {
		return nil
	}
	return c.drawPolyline(TopologyPoints, pts, color)
}

func (c *Canvas) DrawLine(p0, p1 [2]float32, color RGBA) error {
	return c.DrawLineColors(p0, color, p1, color)
}

// DrawLineColors draws a line whose color is interpolated from c0 at p0
// to c1 at p1.
func (c *Canvas) DrawLineColors(p0 [2]float32, c0 RGBA, p1 [2]float32, c1 RGBA) error {
	if err := checkPoints(p0, p1); err != nil {
		return err
	}
	vp := getVertices(2)
	defer returnVertices(vp)
	*vp = append(*vp, geomVertex(p0, c0), geomVertex(p1, c1))
	return c.submit(TopologyLines, KindGeometry, 0, *vp)
}

// DrawLines draws independent segments between consecutive pairs of
// points; pts must have an even number of points.
func (c *Canvas) DrawLines(pts [][2]float32, color RGBA) error {
	if len(pts)%2 != 0 {
		return invalidf("odd number of line endpoints %d", len(pts))
	}
	if len(pts) == 0 {
		return nil
	}
	return c.drawPolyline(TopologyLines, pts, color)
}

// DrawLineStrip draws a connected line through all of the points.
func (c *Canvas) DrawLineStrip(pts [][2]float32, color RGBA) error {
	if len(pts) < 2 {
		return invalidf("line strip with %d points", len(pts))
	}
	return c.drawPolyline(TopologyLineStrip, pts, color)
}

func (c *Canvas) drawPolyline(t Topology, pts [][2]float32, color RGBA) error {
	if err := checkPoints(pts...); err != nil {
		return err
	}
	vp := getVertices(len(pts))
	defer returnVertices(vp)
	for _, p := range pts {
		*vp = append(*vp, geomVertex(p, color))
	}
	return c.submit(t, KindGeometry, 0, *vp)
}

func (c *Canvas) DrawTriangle(p0, p1, p2 [2]float32, color RGBA) error {
	return c.DrawTriangleColors(p0, color, p1, color, p2, color)
}

// DrawTriangleColors draws a filled triangle with the given per-vertex
// colors.
func (c *Canvas) DrawTriangleColors(p0 [2]float32, c0 RGBA, p1 [2]float32, c1 RGBA, p2 [2]float32, c2 RGBA) error {
	if err := checkPoints(p0, p1, p2); err != nil {
		return err
	}
	vp := getVertices(3)
	defer returnVertices(vp)
	*vp = append(*vp, geomVertex(p0, c0), geomVertex(p1, c1), geomVertex(p2, c2))
	return c.submit(TopologyTriangles, KindGeometry, 0, *vp)
}

func (c *Canvas) DrawTriangleWireframe(p0, p1, p2 [2]float32, color RGBA) error {
	return c.DrawTriangleWireframeColors(p0, color, p1, color, p2, color)
}

// DrawTriangleWireframeColors draws the triangle's three edges as
// independent lines.
func (c *Canvas) DrawTriangleWireframeColors(p0 [2]float32, c0 RGBA, p1 [2]float32, c1 RGBA, p2 [2]float32, c2 RGBA) error {
	if err := checkPoints(p0, p1, p2); err != nil {
		return err
	}
	vp := getVertices(6)
	defer returnVertices(vp)
	v0, v1, v2 := geomVertex(p0, c0), geomVertex(p1, c1), geomVertex(p2, c2)
	*vp = append(*vp, v0, v1, v1, v2, v2, v0)
	return c.submit(TopologyLines, KindGeometry, 0, *vp)
}

// DrawRect draws a filled w x h rectangle centered at center, rotated by
// rotate radians counter-clockwise about its center.
func (c *Canvas) DrawRect(center [2]float32, w, h float32, color RGBA, rotate float32) error {
	if err := checkRect(center, w, h, rotate); err != nil {
		return err
	}

	w2, h2 := w/2, h/2
	place := placer(center, rotate)
	vp := getVertices(6)
	defer returnVertices(vp)
	for _, q := range [6][2]float32{{-w2, -h2}, {w2, h2}, {-w2, h2}, {-w2, -h2}, {w2, -h2}, {w2, h2}} {
		*vp = append(*vp, geomVertex(place(q), color))
	}
	return c.submit(TopologyTriangles, KindGeometry, 0, *vp)
}

// DrawRectWireframe draws the outline of the rectangle described as for
// DrawRect.
func (c *Canvas) DrawRectWireframe(center [2]float32, w, h float32, color RGBA, rotate float32) error {
	if err := checkRect(center, w, h, rotate); err != nil {
		return err
	}

	w2, h2 := w/2, h/2
	place := placer(center, rotate)
	corners := [4][2]float32{place([2]float32{-w2, -h2}), place([2]float32{w2, -h2}),
		place([2]float32{w2, h2}), place([2]float32{-w2, h2})}

	vp := getVertices(8)
	defer returnVertices(vp)
	for i := range corners {
		*vp = append(*vp, geomVertex(corners[i], color), geomVertex(corners[(i+1)%4], color))
	}
	return c.submit(TopologyLines, KindGeometry, 0, *vp)
}

func checkRect(center [2]float32, w, h, rotate float32) error {
	if err := checkPoints(center); err != nil {
		return err
	}
	if err := checkSize(w, h); err != nil {
		return err
	}
	return checkRotation(rotate)
}

// roundRectCorner describes one rounded corner in local space: the curve
// runs from start to end, pulled toward the rectangle's corner.
type roundRectCorner struct {
	control, start, end [2]float32
}

// roundRectCorners returns the corners in counter-clockwise order starting
// at the upper left. radius is clamped to half of the shorter side.
func roundRectCorners(w, h, radius float32) [4]roundRectCorner {
	w2, h2 := w/2, h/2
	r := math.Min(radius, math.Min(w2, h2))

	ul, ll := [2]float32{-w2, h2}, [2]float32{-w2, -h2}
	lr, ur := [2]float32{w2, -h2}, [2]float32{w2, h2}
	return [4]roundRectCorner{
		{control: ul, start: math.Add2f(ul, [2]float32{r, 0}), end: math.Add2f(ul, [2]float32{0, -r})},
		{control: ll, start: math.Add2f(ll, [2]float32{0, r}), end: math.Add2f(ll, [2]float32{r, 0})},
		{control: lr, start: math.Add2f(lr, [2]float32{-r, 0}), end: math.Add2f(lr, [2]float32{0, r})},
		{control: ur, start: math.Add2f(ur, [2]float32{0, -r}), end: math.Add2f(ur, [2]float32{-r, 0})},
	}
}

// DrawRoundRect draws a filled rectangle with corners rounded by the given
// radius, which is clamped to half of the shorter side. The rectangle is
// centered at center and rotated about it by rotate radians.
func (c *Canvas) DrawRoundRect(center [2]float32, w, h, radius float32, color RGBA, rotate float32) error {
	if err := checkRect(center, w, h, rotate); err != nil {
		return err
	}
	if err := checkRadius("corner radius", radius); err != nil {
		return err
	}

	place := placer(center, rotate)
	corners := roundRectCorners(w, h, radius)

	vp := getVertices(RoundRectVertices)
	defer returnVertices(vp)
	tri := func(p0, p1, p2 [2]float32) {
		*vp = append(*vp, geomVertex(place(p0), color), geomVertex(place(p1), color),
			geomVertex(place(p2), color))
	}

	// Each corner is a fan of triangles from the center to the curve,
	// followed by a triangle that covers the straight edge to the next
	// corner.
	var origin [2]float32
	for i, cr := range corners {
		for s := range roundRectCornerSlices {
			t0 := float32(s) / roundRectCornerSlices
			t1 := float32(s+1) / roundRectCornerSlices
			tri(origin, math.QuadraticBezier2f(cr.start, cr.end, cr.control, t0),
				math.QuadraticBezier2f(cr.start, cr.end, cr.control, t1))
		}
		tri(origin, cr.end, corners[(i+1)%4].start)
	}

	return c.submit(TopologyTriangles, KindGeometry, 0, *vp)
}

// DrawRoundRectWireframe draws the outline of the rounded rectangle
// described as for DrawRoundRect.
func (c *Canvas) DrawRoundRectWireframe(center [2]float32, w, h, radius float32, color RGBA, rotate float32) error {
	if err := checkRect(center, w, h, rotate); err != nil {
		return err
	}
	if err := checkRadius("corner radius", radius); err != nil {
		return err
	}

	place := placer(center, rotate)
	corners := roundRectCorners(w, h, radius)

	vp := getVertices(RoundRectWireframeVertices)
	defer returnVertices(vp)
	line := func(p0, p1 [2]float32) {
		*vp = append(*vp, geomVertex(place(p0), color), geomVertex(place(p1), color))
	}

	for i, cr := range corners {
		for s := range roundRectCornerSlices {
			t0 := float32(s) / roundRectCornerSlices
			t1 := float32(s+1) / roundRectCornerSlices
			line(math.QuadraticBezier2f(cr.start, cr.end, cr.control, t0),
				math.QuadraticBezier2f(cr.start, cr.end, cr.control, t1))
		}
		line(cr.end, corners[(i+1)%4].start)
	}

	return c.submit(TopologyLines, KindGeometry, 0, *vp)
}

// DrawCircle draws a filled circle as CircleSlices() independent
// triangles that share its center, so that consecutive circles batch.
func (c *Canvas) DrawCircle(center [2]float32, radius float32, color RGBA) error {
	return c.DrawEllipse(center, radius, radius, color, 0)
}

func (c *Canvas) DrawCircleWireframe(center [2]float32, radius float32, color RGBA) error {
	return c.DrawEllipseWireframe(center, radius, radius, color, 0)
}

// DrawEllipse draws a filled ellipse with semi-axes xAxis and yAxis,
// rotated about its center by rotate radians.
func (c *Canvas) DrawEllipse(center [2]float32, xAxis, yAxis float32, color RGBA, rotate float32) error {
	if err := c.checkEllipse(center, xAxis, yAxis, rotate); err != nil {
		return err
	}

	place := placer(center, rotate)
	pts := math.CirclePoints(c.circleSlices)

	vp := getVertices(3 * len(pts))
	defer returnVertices(vp)
	ctr := geomVertex(center, color)
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		*vp = append(*vp, ctr,
			geomVertex(place([2]float32{xAxis * p[0], yAxis * p[1]}), color),
			geomVertex(place([2]float32{xAxis * q[0], yAxis * q[1]}), color))
	}

	return c.submit(TopologyTriangles, KindGeometry, 0, *vp)
}

// DrawEllipseWireframe draws the outline of the ellipse described as for
// DrawEllipse.
func (c *Canvas) DrawEllipseWireframe(center [2]float32, xAxis, yAxis float32, color RGBA, rotate float32) error {
	if err := c.checkEllipse(center, xAxis, yAxis, rotate); err != nil {
		return err
	}

	place := placer(center, rotate)
	pts := math.CirclePoints(c.circleSlices)

	vp := getVertices(2 * len(pts))
	defer returnVertices(vp)
	for i, p := range pts {
		q := pts[(i+1)%len(pts)]
		*vp = append(*vp, geomVertex(place([2]float32{xAxis * p[0], yAxis * p[1]}), color),
			geomVertex(place([2]float32{xAxis * q[0], yAxis * q[1]}), color))
	}

	return c.submit(TopologyLines, KindGeometry, 0, *vp)
}

func (c *Canvas) checkEllipse(center [2]float32, xAxis, yAxis, rotate float32) error {
	if err := checkPoints(center); err != nil {
		return err
	}
	if err := checkRadius("x axis", xAxis); err != nil {
		return err
	}
	if err := checkRadius("y axis", yAxis); err != nil {
		return err
	}
	return checkRotation(rotate)
}

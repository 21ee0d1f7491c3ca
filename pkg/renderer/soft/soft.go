// pkg/renderer/soft/soft.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package soft provides a renderer.Renderer that rasterizes on the CPU
// into an in-memory image. It is deterministic, which makes it useful for
// headless rendering and for tests that compare images.
package soft

import (
	"image"
	"image/draw"
	"image/png"
	"io"

	"github.com/mmp/immdraw/pkg/log"
	"github.com/mmp/immdraw/pkg/math"
	"github.com/mmp/immdraw/pkg/renderer"
)

type Renderer struct {
	lg            *log.Logger
	width, height int
	// Premultiplied RGBA, 4 floats per pixel, rows from the top.
	fb []float32

	textures map[renderer.TextureID]*image.NRGBA
	nextID   renderer.TextureID

	verts      []renderer.Vertex
	bound      [renderer.MaxSlots]renderer.TextureID
	kind       renderer.Kind
	projection math.Matrix3
	blend      bool
}

var _ renderer.Renderer = (*Renderer)(nil)

func New(width, height int, lg *log.Logger) *Renderer {
	return &Renderer{
		lg:         lg,
		width:      width,
		height:     height,
		fb:         make([]float32, 4*width*height),
		textures:   make(map[renderer.TextureID]*image.NRGBA),
		nextID:     1,
		projection: math.Identity3x3(),
		blend:      true,
	}
}

func (r *Renderer) Size() (int, int) { return r.width, r.height }

// Clear fills the framebuffer with the given color.
func (r *Renderer) Clear(c renderer.RGBA) {
	p := [4]float32{c.R * c.A, c.G * c.A, c.B * c.A, c.A}
	for i := 0; i < len(r.fb); i += 4 {
		copy(r.fb[i:i+4], p[:])
	}
}

// Image returns a copy of the framebuffer.
func (r *Renderer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, r.width, r.height))
	cvt := func(v float32) uint8 { return uint8(math.Clamp(v, 0, 1)*255 + 0.5) }
	for i := 0; i < len(r.fb); i++ {
		img.Pix[i] = cvt(r.fb[i])
	}
	return img
}

// Pixel returns the straight-alpha color at (x, y), with y=0 the top row.
func (r *Renderer) Pixel(x, y int) renderer.RGBA {
	i := 4 * (y*r.width + x)
	c := renderer.RGBA{R: r.fb[i], G: r.fb[i+1], B: r.fb[i+2], A: r.fb[i+3]}
	if c.A > 0 {
		c.R, c.G, c.B = c.R/c.A, c.G/c.A, c.B/c.A
	}
	return c
}

func (r *Renderer) WritePNG(w io.Writer) error {
	return png.Encode(w, r.Image())
}

///////////////////////////////////////////////////////////////////////////
// Textures

func (r *Renderer) CreateTextureFromImage(img image.Image, magNearest bool) renderer.TextureID {
	id := r.nextID
	r.nextID++
	r.UpdateTextureFromImage(id, img, magNearest)
	return id
}

// UpdateTextureFromImage stores a copy of the image. Sampling is always
// nearest-neighbor, so magNearest is ignored.
func (r *Renderer) UpdateTextureFromImage(id renderer.TextureID, img image.Image, magNearest bool) {
	b := img.Bounds()
	n := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(n, n.Bounds(), img, b.Min, draw.Src)
	r.textures[id] = n
	r.lg.Debugf("soft: texture %d is %dx%d", id, b.Dx(), b.Dy())
}

func (r *Renderer) DestroyTexture(id renderer.TextureID) {
	delete(r.textures, id)
}

func (r *Renderer) Dispose() {
	clear(r.textures)
	r.verts = nil
}

///////////////////////////////////////////////////////////////////////////
// State

func (r *Renderer) SetProjection(m math.Matrix3) {
	r.projection = m
}

func (r *Renderer) SaveState() func() {
	blend := r.blend
	r.blend = true
	return func() { r.blend = blend }
}

func (r *Renderer) UploadVertices(v []renderer.Vertex) {
	r.verts = append(r.verts[:0], v...)
}

func (r *Renderer) BindTexture(slot int, id renderer.TextureID) {
	r.bound[slot] = id
}

func (r *Renderer) UseProgram(k renderer.Kind) {
	r.kind = k
}

func (r *Renderer) Draw(t renderer.Topology, start, count int) {
	if start < 0 || start+count > len(r.verts) {
		r.lg.Errorf("soft: draw [%d, %d) outside of %d uploaded vertices", start, start+count, len(r.verts))
		return
	}
	v := r.verts[start : start+count]

	switch t {
	case renderer.TopologyPoints:
		for i := range v {
			r.point(v[i])
		}
	case renderer.TopologyLines:
		for i := 0; i+1 < len(v); i += 2 {
			r.line(v[i], v[i+1])
		}
	case renderer.TopologyLineStrip:
		for i := 0; i+1 < len(v); i++ {
			r.line(v[i], v[i+1])
		}
	case renderer.TopologyTriangles:
		for i := 0; i+2 < len(v); i += 3 {
			r.triangle(v[i], v[i+1], v[i+2])
		}
	case renderer.TopologyTriangleFan:
		for i := 1; i+1 < len(v); i++ {
			r.triangle(v[0], v[i], v[i+1])
		}
	}
}

///////////////////////////////////////////////////////////////////////////
// Rasterization

// screen maps a world-space position to continuous pixel coordinates with
// y increasing downward.
func (r *Renderer) screen(p [2]float32) [2]float32 {
	ndc := r.projection.TransformPoint(p)
	return [2]float32{(ndc[0] + 1) / 2 * float32(r.width), (1 - ndc[1]) / 2 * float32(r.height)}
}

func (r *Renderer) point(v renderer.Vertex) {
	p := r.screen(v.Pos)
	r.shade(int(math.Floor(p[0])), int(math.Floor(p[1])), v)
}

// line draws with a DDA, leaving out the last pixel so that connected
// segments don't cover their shared endpoint twice.
func (r *Renderer) line(v0, v1 renderer.Vertex) {
	p0, p1 := r.screen(v0.Pos), r.screen(v1.Pos)
	d := math.Sub2f(p1, p0)
	steps := int(math.Ceil(math.Max(math.Abs(d[0]), math.Abs(d[1]))))
	if steps == 0 {
		return
	}
	for i := range steps {
		t := float32(i) / float32(steps)
		p := math.Lerp2f(t, p0, p1)
		r.shade(int(math.Floor(p[0])), int(math.Floor(p[1])), lerpVertex(t, v0, v1))
	}
}

func edge(a, b, p [2]float32) float32 {
	return (b[0]-a[0])*(p[1]-a[1]) - (b[1]-a[1])*(p[0]-a[0])
}

// orientedEdge is edge with the endpoints always taken in the same order,
// so that swapping a and b gives exactly the negated value and triangles
// that share an edge agree about which side each pixel center is on.
func orientedEdge(a, b, p [2]float32) float32 {
	if a[1] < b[1] || (a[1] == b[1] && a[0] < b[0]) {
		return edge(a, b, p)
	}
	return -edge(b, a, p)
}

// topLeft reports whether the edge from a to b is a top or left edge of a
// triangle with positive area in screen space.
func topLeft(a, b [2]float32) bool {
	d := math.Sub2f(b, a)
	return d[1] < 0 || (d[1] == 0 && d[0] > 0)
}

func covered(e float32, topLeft bool) bool {
	return e > 0 || (e == 0 && topLeft)
}

// triangle covers the pixels whose centers are inside the triangle and
// interpolates the vertex attributes across it. A center exactly on an
// edge is only covered if that is a top or left edge, so pixels along an
// edge shared by two triangles are shaded once.
func (r *Renderer) triangle(v0, v1, v2 renderer.Vertex) {
	p0, p1, p2 := r.screen(v0.Pos), r.screen(v1.Pos), r.screen(v2.Pos)
	area := edge(p0, p1, p2)
	if area == 0 {
		return
	}
	if area < 0 {
		p1, p2 = p2, p1
		v1, v2 = v2, v1
		area = -area
	}
	tl0, tl1, tl2 := topLeft(p1, p2), topLeft(p2, p0), topLeft(p0, p1)

	ext := math.Extent2DFromPoints([][2]float32{p0, p1, p2})
	x0 := math.Max(0, int(math.Floor(ext.P0[0])))
	y0 := math.Max(0, int(math.Floor(ext.P0[1])))
	x1 := math.Min(r.width-1, int(math.Ceil(ext.P1[0])))
	y1 := math.Min(r.height-1, int(math.Ceil(ext.P1[1])))

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			p := [2]float32{float32(x) + 0.5, float32(y) + 0.5}
			e0, e1, e2 := orientedEdge(p1, p2, p), orientedEdge(p2, p0, p), orientedEdge(p0, p1, p)
			if !covered(e0, tl0) || !covered(e1, tl1) || !covered(e2, tl2) {
				continue
			}
			r.shade(x, y, baryVertex(e0/area, e1/area, e2/area, v0, v1, v2))
		}
	}
}

func lerpVertex(t float32, a, b renderer.Vertex) renderer.Vertex {
	return renderer.Vertex{
		Pos:     math.Lerp2f(t, a.Pos, b.Pos),
		UV:      math.Lerp2f(t, a.UV, b.UV),
		Color:   renderer.LerpRGBA(t, a.Color, b.Color),
		Slot:    a.Slot,
		Opacity: math.Lerp(t, a.Opacity, b.Opacity),
	}
}

func baryVertex(w0, w1, w2 float32, a, b, c renderer.Vertex) renderer.Vertex {
	mix := func(x, y, z float32) float32 { return w0*x + w1*y + w2*z }
	return renderer.Vertex{
		UV: [2]float32{mix(a.UV[0], b.UV[0], c.UV[0]), mix(a.UV[1], b.UV[1], c.UV[1])},
		Color: renderer.RGBA{
			R: mix(a.Color.R, b.Color.R, c.Color.R),
			G: mix(a.Color.G, b.Color.G, c.Color.G),
			B: mix(a.Color.B, b.Color.B, c.Color.B),
			A: mix(a.Color.A, b.Color.A, c.Color.A),
		},
		Slot:    a.Slot,
		Opacity: mix(a.Opacity, b.Opacity, c.Opacity),
	}
}

func (r *Renderer) sample(slot int32, uv [2]float32) renderer.RGBA {
	if slot < 0 || int(slot) >= len(r.bound) {
		return renderer.RGBA{R: 1, B: 1, A: 1}
	}
	tex, ok := r.textures[r.bound[slot]]
	if !ok {
		return renderer.RGBA{R: 1, B: 1, A: 1}
	}

	b := tex.Bounds()
	x := math.Clamp(int(math.Floor(uv[0]*float32(b.Dx()))), 0, b.Dx()-1)
	y := math.Clamp(int(math.Floor(uv[1]*float32(b.Dy()))), 0, b.Dy()-1)
	return renderer.RGBAFromColor(tex.NRGBAAt(x, y))
}

// shade computes the fragment color for the current program and
// composites it over the framebuffer.
func (r *Renderer) shade(x, y int, v renderer.Vertex) {
	if x < 0 || y < 0 || x >= r.width || y >= r.height {
		return
	}

	var c renderer.RGBA
	switch r.kind {
	case renderer.KindGeometry:
		c = v.Color
	case renderer.KindImage:
		t := r.sample(v.Slot, v.UV)
		c = renderer.RGBA{
			R: math.Lerp(v.Color.A, t.R, v.Color.R),
			G: math.Lerp(v.Color.A, t.G, v.Color.G),
			B: math.Lerp(v.Color.A, t.B, v.Color.B),
			A: t.A * v.Opacity,
		}
	case renderer.KindText:
		t := r.sample(v.Slot, v.UV)
		c = renderer.RGBA{R: v.Color.R, G: v.Color.G, B: v.Color.B, A: v.Color.A * t.A}
	}

	i := 4 * (y*r.width + x)
	dst := r.fb[i : i+4 : i+4]
	if !r.blend {
		dst[0], dst[1], dst[2], dst[3] = c.R*c.A, c.G*c.A, c.B*c.A, c.A
		return
	}
	a := math.Clamp(c.A, 0, 1)
	dst[0] = c.R*a + dst[0]*(1-a)
	dst[1] = c.G*a + dst[1]*(1-a)
	dst[2] = c.B*a + dst[2]*(1-a)
	dst[3] = a + dst[3]*(1-a)
}

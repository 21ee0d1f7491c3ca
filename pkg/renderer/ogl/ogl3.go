// pkg/renderer/ogl/ogl3.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package ogl provides a renderer.Renderer that draws with OpenGL 3.3 core
// profile. All methods must be called from the thread that owns the GL
// context.
package ogl

import (
	"fmt"
	"image"
	"image/draw"
	"unsafe"

	"github.com/mmp/immdraw/pkg/log"
	"github.com/mmp/immdraw/pkg/math"
	"github.com/mmp/immdraw/pkg/renderer"
	"github.com/mmp/immdraw/pkg/util"

	"github.com/go-gl/gl/v3.3-core/gl"
)

type OpenGL3Renderer struct {
	lg              *log.Logger
	createdTextures map[renderer.TextureID]int

	vao, vbo    uint32
	vboCapacity int // in vertices

	programs   [3]*program // indexed by renderer.Kind
	current    *program
	projection [16]float32
}

var _ renderer.Renderer = (*OpenGL3Renderer)(nil)

var glTopology = [...]uint32{
	renderer.TopologyPoints:      gl.POINTS,
	renderer.TopologyLines:       gl.LINES,
	renderer.TopologyLineStrip:   gl.LINE_STRIP,
	renderer.TopologyTriangles:   gl.TRIANGLES,
	renderer.TopologyTriangleFan: gl.TRIANGLE_FAN,
}

// NewOpenGL3Renderer initializes GL, compiles the programs, and allocates
// a vertex buffer for capacity vertices. A GL 3.3 core context must be
// current.
func NewOpenGL3Renderer(capacity int, lg *log.Logger) (*OpenGL3Renderer, error) {
	lg.Info("Starting OpenGL3Renderer initialization")
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	lg.Infof("OpenGL vendor %s renderer %s version %s", gl.GoStr(gl.GetString(gl.VENDOR)),
		gl.GoStr(gl.GetString(gl.RENDERER)), gl.GoStr(gl.GetString(gl.VERSION)))

	if capacity <= 0 {
		capacity = renderer.MaxVertices
	}
	r := &OpenGL3Renderer{
		lg:              lg,
		createdTextures: make(map[renderer.TextureID]int),
		vboCapacity:     capacity,
		projection:      math.Identity3x3().Matrix4(),
	}

	fragments := [3]string{
		renderer.KindGeometry: geometryFragmentShader,
		renderer.KindImage:    texturedFragmentShader(spriteFragmentMain),
		renderer.KindText:     texturedFragmentShader(textFragmentMain),
	}
	for kind, src := range fragments {
		p, err := newProgram(renderer.Kind(kind), src)
		if err != nil {
			r.Dispose()
			return nil, err
		}
		r.programs[kind] = p
	}

	gl.GenVertexArrays(1, &r.vao)
	gl.GenBuffers(1, &r.vbo)

	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, capacity*renderer.VertexStride, nil, gl.STREAM_DRAW)

	stride := int32(renderer.VertexStride)
	gl.VertexAttribPointerWithOffset(attribPos, 2, gl.FLOAT, false, stride, uintptr(renderer.VertexPosOffset))
	gl.EnableVertexAttribArray(attribPos)
	gl.VertexAttribPointerWithOffset(attribUV, 2, gl.FLOAT, false, stride, uintptr(renderer.VertexUVOffset))
	gl.EnableVertexAttribArray(attribUV)
	gl.VertexAttribPointerWithOffset(attribColor, 4, gl.FLOAT, false, stride, uintptr(renderer.VertexColorOffset))
	gl.EnableVertexAttribArray(attribColor)
	// The slot is an integer attribute; the I variant keeps it from being
	// converted to float.
	gl.VertexAttribIPointer(attribSlot, 1, gl.INT, stride, gl.PtrOffset(renderer.VertexSlotOffset))
	gl.EnableVertexAttribArray(attribSlot)
	gl.VertexAttribPointerWithOffset(attribOpacity, 1, gl.FLOAT, false, stride, uintptr(renderer.VertexOpacityOffset))
	gl.EnableVertexAttribArray(attribOpacity)

	gl.BindVertexArray(0)
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)

	lg.Info("Finished OpenGL3Renderer initialization")
	return r, nil
}

func (r *OpenGL3Renderer) Dispose() {
	for texid := range r.createdTextures {
		id := uint32(texid)
		gl.DeleteTextures(1, &id)
	}
	clear(r.createdTextures)

	for i, p := range r.programs {
		if p != nil {
			gl.DeleteProgram(p.id)
			r.programs[i] = nil
		}
	}
	if r.vbo != 0 {
		gl.DeleteBuffers(1, &r.vbo)
		r.vbo = 0
	}
	if r.vao != 0 {
		gl.DeleteVertexArrays(1, &r.vao)
		r.vao = 0
	}
}

///////////////////////////////////////////////////////////////////////////
// Textures

func (r *OpenGL3Renderer) createdTexture(texid renderer.TextureID, bytes int) {
	_, exists := r.createdTextures[texid]

	r.createdTextures[texid] = bytes

	total := 0
	for _, b := range r.createdTextures {
		total += b
	}
	mb := float32(total) / (1024 * 1024)

	if exists {
		r.lg.Infof("Updated tex id %d: %d bytes -> %.2f MiB of textures total", texid, bytes, mb)
	} else {
		r.lg.Infof("Created tex id %d: %d bytes -> %.2f MiB of textures total", texid, bytes, mb)
	}
}

func (r *OpenGL3Renderer) CreateTextureFromImage(img image.Image, magNearest bool) renderer.TextureID {
	var texid uint32
	gl.GenTextures(1, &texid)
	r.UpdateTextureFromImage(renderer.TextureID(texid), img, magNearest)
	return renderer.TextureID(texid)
}

func (r *OpenGL3Renderer) UpdateTextureFromImage(texid renderer.TextureID, img image.Image, magNearest bool) {
	var lastTexture int32
	gl.GetIntegerv(gl.TEXTURE_BINDING_2D, &lastTexture)

	gl.BindTexture(gl.TEXTURE_2D, uint32(texid))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, gl.LINEAR)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, int32(util.Select(magNearest, gl.NEAREST, gl.LINEAR)))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, gl.CLAMP_TO_EDGE)
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, gl.CLAMP_TO_EDGE)
	gl.PixelStorei(gl.UNPACK_ROW_LENGTH, 0)
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)

	ny, nx := img.Bounds().Dy(), img.Bounds().Dx()
	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Stride != 4*nx {
		rgba = image.NewRGBA(image.Rect(0, 0, nx, ny))
		draw.Draw(rgba, rgba.Bounds(), img, img.Bounds().Min, draw.Src)
	}
	var pix unsafe.Pointer
	if len(rgba.Pix) > 0 {
		pix = unsafe.Pointer(&rgba.Pix[0])
	}
	gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(nx), int32(ny), 0, gl.RGBA, gl.UNSIGNED_BYTE, pix)

	gl.BindTexture(gl.TEXTURE_2D, uint32(lastTexture))

	r.createdTexture(texid, 4*nx*ny)
}

func (r *OpenGL3Renderer) DestroyTexture(texid renderer.TextureID) {
	id := uint32(texid)
	gl.DeleteTextures(1, &id)
	delete(r.createdTextures, texid)
}

///////////////////////////////////////////////////////////////////////////
// Drawing

// Clear sets the viewport to the given framebuffer size and fills it with
// the color.
func (r *OpenGL3Renderer) Clear(fbSize [2]float32, c renderer.RGBA) {
	gl.Viewport(0, 0, int32(fbSize[0]), int32(fbSize[1]))
	gl.ClearColor(c.R, c.G, c.B, c.A)
	gl.Clear(gl.COLOR_BUFFER_BIT)
}

func (r *OpenGL3Renderer) SetProjection(m math.Matrix3) {
	r.projection = m.Matrix4()
	for _, p := range r.programs {
		if p != nil {
			p.stale = true
		}
	}
	if r.current != nil {
		r.loadProjection(r.current)
	}
}

func (r *OpenGL3Renderer) loadProjection(p *program) {
	if p.stale && p.projectionLoc != -1 {
		gl.UniformMatrix4fv(p.projectionLoc, 1, false, &r.projection[0])
	}
	p.stale = false
}

// SaveState sets up the GL state for 2D drawing and returns a function
// that puts back what was there before.
func (r *OpenGL3Renderer) SaveState() func() {
	depth, cull, blend := gl.IsEnabled(gl.DEPTH_TEST), gl.IsEnabled(gl.CULL_FACE), gl.IsEnabled(gl.BLEND)
	var lastProgram, lastVAO, lastActiveTexture, lastSrcRGB, lastDstRGB, lastSrcAlpha, lastDstAlpha int32
	gl.GetIntegerv(gl.CURRENT_PROGRAM, &lastProgram)
	gl.GetIntegerv(gl.VERTEX_ARRAY_BINDING, &lastVAO)
	gl.GetIntegerv(gl.ACTIVE_TEXTURE, &lastActiveTexture)
	gl.GetIntegerv(gl.BLEND_SRC_RGB, &lastSrcRGB)
	gl.GetIntegerv(gl.BLEND_DST_RGB, &lastDstRGB)
	gl.GetIntegerv(gl.BLEND_SRC_ALPHA, &lastSrcAlpha)
	gl.GetIntegerv(gl.BLEND_DST_ALPHA, &lastDstAlpha)

	gl.Disable(gl.DEPTH_TEST)
	gl.Disable(gl.CULL_FACE)
	gl.Enable(gl.BLEND)
	gl.BlendFuncSeparate(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA, gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	gl.BindVertexArray(r.vao)

	setEnabled := func(capability uint32, enabled bool) {
		if enabled {
			gl.Enable(capability)
		} else {
			gl.Disable(capability)
		}
	}

	return func() {
		setEnabled(gl.DEPTH_TEST, depth)
		setEnabled(gl.CULL_FACE, cull)
		setEnabled(gl.BLEND, blend)
		gl.BlendFuncSeparate(uint32(lastSrcRGB), uint32(lastDstRGB), uint32(lastSrcAlpha), uint32(lastDstAlpha))
		gl.UseProgram(uint32(lastProgram))
		gl.BindVertexArray(uint32(lastVAO))
		gl.ActiveTexture(uint32(lastActiveTexture))
		r.current = nil
	}
}

func (r *OpenGL3Renderer) UploadVertices(v []renderer.Vertex) {
	if len(v) == 0 {
		return
	}

	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	if len(v) > r.vboCapacity {
		r.lg.Warnf("growing vertex buffer from %d to %d vertices", r.vboCapacity, len(v))
		r.vboCapacity = len(v)
		gl.BufferData(gl.ARRAY_BUFFER, r.vboCapacity*renderer.VertexStride, nil, gl.STREAM_DRAW)
	}
	gl.BufferSubData(gl.ARRAY_BUFFER, 0, len(v)*renderer.VertexStride, gl.Ptr(v))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
}

func (r *OpenGL3Renderer) BindTexture(slot int, id renderer.TextureID) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(slot))
	gl.BindTexture(gl.TEXTURE_2D, uint32(id))
}

func (r *OpenGL3Renderer) UseProgram(k renderer.Kind) {
	p := r.programs[k]
	if p != r.current {
		gl.UseProgram(p.id)
		r.current = p
	}
	r.loadProjection(p)
}

func (r *OpenGL3Renderer) Draw(t renderer.Topology, start, count int) {
	gl.BindVertexArray(r.vao)
	gl.DrawArrays(glTopology[t], int32(start), int32(count))
}

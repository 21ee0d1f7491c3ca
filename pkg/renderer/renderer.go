// pkg/renderer/renderer.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/mmp/immdraw/pkg/math"
)

// Submitter is the part of a GPU backend that Flush drives. Calls arrive
// in exactly the order the backend should execute them.
type Submitter interface {
	// UploadVertices copies the frame's staged vertices to the GPU. It is
	// called once per flush, before any Draw.
	UploadVertices(v []Vertex)

	// BindTexture attaches the texture to the given binding slot.
	BindTexture(slot int, id TextureID)

	// UseProgram activates the program for the given kind of command.
	UseProgram(k Kind)

	// Draw issues a draw call over [start, start+count) of the uploaded
	// vertices.
	Draw(t Topology, start, count int)
}

// TextureCreator is implemented by backends that can hold texture maps.
type TextureCreator interface {
	// CreateTextureFromImage returns an identifier for a texture map defined
	// by the specified image.
	CreateTextureFromImage(img image.Image, magNearest bool) TextureID

	// DestroyTexture frees the resources associated with the given texture id.
	DestroyTexture(id TextureID)
}

// Renderer defines the interface to a GPU backend. There are two
// implementations: ogl.OpenGL3Renderer and the CPU rasterizer in the
// soft package.
type Renderer interface {
	Submitter
	TextureCreator

	// UpdateTextureFromImage updates the contents of an existing texture
	// with the provided image.
	UpdateTextureFromImage(id TextureID, img image.Image, magNearest bool)

	// SetProjection sets the matrix that maps world coordinates to
	// normalized device coordinates for subsequent draws.
	SetProjection(m math.Matrix3)

	// SaveState establishes the render state for 2D drawing (no depth
	// test or culling, alpha blending) and returns a function that
	// restores whatever state was there before.
	SaveState() (restore func())

	// Dispose releases resources allocated by the renderer.
	Dispose()
}

// RendererStats encapsulates assorted statistics from rendering.
type RendererStats struct {
	Flushes      int
	UploadBytes  int
	DrawCalls    int
	Vertices     int
	Points       int
	Lines        int
	Triangles    int
	TextureBinds int
}

func (rs *RendererStats) addDraw(t Topology, count int) {
	rs.DrawCalls++
	rs.Vertices += count
	switch t {
	case TopologyPoints:
		rs.Points += count
	case TopologyLines:
		rs.Lines += count / 2
	case TopologyLineStrip:
		rs.Lines += count - 1
	case TopologyTriangles:
		rs.Triangles += count / 3
	case TopologyTriangleFan:
		rs.Triangles += count - 2
	}
}

func (rs RendererStats) String() string {
	return fmt.Sprintf("%d flushes (%.2f KB), %d draw calls, %d binds: %d vertices, %d points, %d lines, %d tris",
		rs.Flushes, float32(rs.UploadBytes)/1024, rs.DrawCalls, rs.TextureBinds, rs.Vertices,
		rs.Points, rs.Lines, rs.Triangles)
}

func (rs *RendererStats) Merge(s RendererStats) {
	rs.Flushes += s.Flushes
	rs.UploadBytes += s.UploadBytes
	rs.DrawCalls += s.DrawCalls
	rs.Vertices += s.Vertices
	rs.Points += s.Points
	rs.Lines += s.Lines
	rs.Triangles += s.Triangles
	rs.TextureBinds += s.TextureBinds
}

func (rs RendererStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("flushes", rs.Flushes),
		slog.Int("upload_bytes", rs.UploadBytes),
		slog.Int("draw_calls", rs.DrawCalls),
		slog.Int("vertices", rs.Vertices),
		slog.Int("points", rs.Points),
		slog.Int("lines", rs.Lines),
		slog.Int("tris", rs.Triangles),
		slog.Int("texture_binds", rs.TextureBinds),
	)
}

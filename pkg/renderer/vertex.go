// pkg/renderer/vertex.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"unsafe"
)

// MaxVertices is the default capacity of the staging buffer.
const MaxVertices = 10000

// Vertex is the unit written into the staging buffer. Its memory layout is
// uploaded as-is, so the backends' attribute setup depends on the field
// order here.
type Vertex struct {
	Pos   [2]float32
	UV    [2]float32
	Color RGBA
	// Binding slot of the command's texture that this vertex samples; 0
	// for geometry.
	Slot int32
	// Opacity scales the sampled alpha of sprites.
	Opacity float32
}

const (
	VertexStride        = int(unsafe.Sizeof(Vertex{}))
	VertexPosOffset     = int(unsafe.Offsetof(Vertex{}.Pos))
	VertexUVOffset      = int(unsafe.Offsetof(Vertex{}.UV))
	VertexColorOffset   = int(unsafe.Offsetof(Vertex{}.Color))
	VertexSlotOffset    = int(unsafe.Offsetof(Vertex{}.Slot))
	VertexOpacityOffset = int(unsafe.Offsetof(Vertex{}.Opacity))
)

// StagingBuffer is a fixed-capacity vertex array with a fill cursor. It is
// allocated once and reused every frame; it never grows.
type StagingBuffer struct {
	verts []Vertex
	n     int
}

func NewStagingBuffer(capacity int) *StagingBuffer {
	if capacity <= 0 {
		capacity = MaxVertices
	}
	return &StagingBuffer{verts: make([]Vertex, capacity)}
}

// Len returns the number of vertices written since the last Reset.
func (b *StagingBuffer) Len() int { return b.n }

func (b *StagingBuffer) Cap() int { return len(b.verts) }

func (b *StagingBuffer) Remaining() int { return len(b.verts) - b.n }

// Live returns the written prefix of the buffer. The slice aliases the
// buffer and is only valid until the next write or Reset.
func (b *StagingBuffer) Live() []Vertex {
	return b.verts[:b.n:b.n]
}

// Bytes returns the live prefix as raw bytes, suitable for a GPU upload.
func (b *StagingBuffer) Bytes() []byte {
	if b.n == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(&b.verts[0])), b.n*VertexStride)
}

func (b *StagingBuffer) Reset() {
	b.n = 0
}

// write copies v at the cursor, tagging each vertex with the given slot,
// and returns the index of the first one. The caller must have checked
// that there is room.
func (b *StagingBuffer) write(v []Vertex, slot int32) int {
	start := b.n
	dst := b.verts[start : start+len(v)]
	copy(dst, v)
	for i := range dst {
		dst[i].Slot = slot
	}
	b.n += len(v)
	return start
}

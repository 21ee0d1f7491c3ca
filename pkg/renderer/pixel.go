// pkg/renderer/pixel.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

// PixelAlignment is the offset added to every emitted geometry and sprite
// position so that shapes given in integer screen coordinates land on the
// backend's pixel centers. Text is not offset; glyph quads already come
// from the atlas aligned to pixels.
type PixelAlignment struct {
	Offset [2]float32 `json:"offset"`
}

var (
	// DefaultPixelAlignment matches GL's rasterization rules, where
	// integer coordinates are pixel corners.
	DefaultPixelAlignment = PixelAlignment{Offset: [2]float32{0.375, 0.375}}
	NoPixelAlignment      = PixelAlignment{}
)

func (a PixelAlignment) Apply(p [2]float32) [2]float32 {
	return [2]float32{p[0] + a.Offset[0], p[1] + a.Offset[1]}
}

func (a PixelAlignment) applyAll(v []Vertex) {
	if a.Offset == [2]float32{} {
		return
	}
	for i := range v {
		v[i].Pos = a.Apply(v[i].Pos)
	}
}

// pkg/renderer/sprite.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"github.com/mmp/immdraw/pkg/math"
)

// SpriteOptions control how a sprite's texels are shaded.
type SpriteOptions struct {
	// Blend is mixed with the texture color by Factor, which is clamped
	// to [0,1]; 0 leaves the texture alone.
	Blend  RGB
	Factor float32
	// Transparency is clamped to [0,1]; the sampled alpha is scaled by
	// 1-Transparency, so the zero value draws the sprite fully opaque.
	Transparency float32
	// FlipH and FlipV mirror the sprite horizontally and vertically.
	FlipH, FlipV bool
}

// Local corners of a sprite quad as multiples of the half-size, and the
// texture coordinates for each, as two triangles. v=0 is the top of the
// image.
var (
	spriteCorners = [6][2]float32{{-1, -1}, {1, 1}, {-1, 1}, {-1, -1}, {1, -1}, {1, 1}}
	spriteUVs     = [6][2]float32{{0, 1}, {1, 0}, {0, 0}, {0, 1}, {1, 1}, {1, 0}}
)

// DrawSprite draws the whole texture as a w x h quad centered at center,
// rotated about its center by rotate radians.
func (c *Canvas) DrawSprite(tex TextureID, center [2]float32, w, h, rotate float32, opts SpriteOptions) error {
	return c.drawSprite(tex, [2]float32{0, 0}, [2]float32{1, 1}, center, w, h, rotate, opts)
}

// DrawAtlasSprite draws the named region of the atlas as for DrawSprite.
func (c *Canvas) DrawAtlasSprite(atlas *Atlas, name string, center [2]float32, w, h, rotate float32,
	opts SpriteOptions) error {
	uv0, uv1, err := atlas.UV(name)
	if err != nil {
		return err
	}
	return c.drawSprite(atlas.Texture, uv0, uv1, center, w, h, rotate, opts)
}

func (c *Canvas) drawSprite(tex TextureID, uv0, uv1 [2]float32, center [2]float32, w, h, rotate float32,
	opts SpriteOptions) error {
	if tex == 0 {
		return ErrNoTexture
	}
	if err := checkRect(center, w, h, rotate); err != nil {
		return err
	}
	if err := checkFinite("blend factor", opts.Factor); err != nil {
		return err
	}
	if err := checkFinite("transparency", opts.Transparency); err != nil {
		return err
	}

	// The blend color and its weight travel in the vertex color.
	color := opts.Blend.WithAlpha(math.Clamp(opts.Factor, 0, 1))
	opacity := 1 - math.Clamp(opts.Transparency, 0, 1)

	sx, sy := w/2, h/2
	if opts.FlipH {
		sx = -sx
	}
	if opts.FlipV {
		sy = -sy
	}

	place := placer(center, rotate)
	vp := getVertices(6)
	defer returnVertices(vp)
	for i, q := range spriteCorners {
		uv := spriteUVs[i]
		*vp = append(*vp, Vertex{
			Pos:     place([2]float32{q[0] * sx, q[1] * sy}),
			UV:      [2]float32{math.Lerp(uv[0], uv0[0], uv1[0]), math.Lerp(uv[1], uv0[1], uv1[1])},
			Color:   color,
			Opacity: opacity,
		})
	}
	return c.submit(TopologyTriangles, KindImage, tex, *vp)
}

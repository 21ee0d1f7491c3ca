// pkg/renderer/text.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

// DrawString draws the text using the given position as the upper-left
// corner of the first line. Each visible glyph is a quad; newlines move
// down by the font size.
func (c *Canvas) DrawString(font *Font, text string, pos [2]float32, color RGBA) error {
	if font == nil || font.Texture == 0 {
		return ErrNoTexture
	}
	if err := checkPoints(pos); err != nil {
		return err
	}

	vp := getVertices(6 * len(text))
	defer returnVertices(vp)

	px, py := pos[0], pos[1]
	for _, ch := range text {
		if ch == '\n' {
			px = pos[0]
			py -= float32(font.Size)
			continue
		}

		glyph := font.LookupGlyph(ch)
		// Don't emit anything for invisible glyphs; they still advance
		// the pen.
		if glyph.Visible {
			x0, x1 := px+glyph.X0, px+glyph.X1
			y0, y1 := py-glyph.Y0, py-glyph.Y1
			v := func(x, y, u, vv float32) Vertex {
				return Vertex{Pos: [2]float32{x, y}, UV: [2]float32{u, vv}, Color: color, Opacity: 1}
			}
			*vp = append(*vp,
				v(x0, y0, glyph.U0, glyph.V0),
				v(x0, y1, glyph.U0, glyph.V1),
				v(x1, y0, glyph.U1, glyph.V0),
				v(x1, y0, glyph.U1, glyph.V0),
				v(x0, y1, glyph.U0, glyph.V1),
				v(x1, y1, glyph.U1, glyph.V1))
		}
		px += glyph.AdvanceX
	}

	if len(*vp) == 0 {
		return nil
	}
	return c.submit(TopologyTriangles, KindText, font.Texture, *vp)
}

// pkg/renderer/font.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	gomath "math"
)

// Each loaded (font,size) combination is represented by (surprise) a Font.
type Font struct {
	// Glyphs for the commonly-used ASCII range can be looked up using a
	// directly-mapped array, for efficiency.
	lowGlyphs [128]*Glyph
	// The remaining glyphs are stored in a map.
	glyphs map[rune]*Glyph
	// Returned for runes that the font doesn't have.
	fallback *Glyph
	// Font size; this is also the distance between lines.
	Size    int
	Id      FontIdentifier
	Texture TextureID // texture that holds the glyph atlas
}

func MakeFont(size int, id FontIdentifier, tex TextureID) *Font {
	return &Font{
		glyphs:   make(map[rune]*Glyph),
		fallback: &Glyph{},
		Size:     size,
		Id:       id,
		Texture:  tex,
	}
}

// Glyph holds what's needed to draw a single character.
type Glyph struct {
	// Quad corners relative to the pen position; x increases to the right
	// and y increases downward from the top of the line.
	X0, Y0, X1, Y1 float32
	// Texture coordinates in the font atlas
	U0, V0, U1, V1 float32
	// Distance to advance in x after the character.
	AdvanceX float32
	// Is it a visible character (i.e., not space, tab, CR, ...)
	Visible bool
}

func (g *Glyph) Width() float32 {
	return g.X1 - g.X0
}

func (g *Glyph) Height() float32 {
	return g.Y1 - g.Y0
}

// FontIdentifier is used for looking up fonts by name and size.
type FontIdentifier struct {
	Name string
	Size int
}

func (f *Font) AddGlyph(ch rune, g *Glyph) {
	if ch >= 0 && int(ch) < len(f.lowGlyphs) {
		f.lowGlyphs[ch] = g
	} else {
		f.glyphs[ch] = g
	}
}

// SetFallback sets the glyph used for runes that haven't been added.
func (f *Font) SetFallback(g *Glyph) {
	if g != nil {
		f.fallback = g
	}
}

// LookupGlyph returns the Glyph for the specified rune; it never returns
// nil.
func (f *Font) LookupGlyph(ch rune) *Glyph {
	if ch >= 0 && int(ch) < len(f.lowGlyphs) {
		if g := f.lowGlyphs[ch]; g != nil {
			return g
		}
	} else if g, ok := f.glyphs[ch]; ok {
		return g
	}
	return f.fallback
}

// Returns the bound of the specified text in the given font, assuming the
// given pixel spacing between lines.
func (font *Font) BoundText(s string, spacing int) (int, int) {
	dy := font.Size + spacing
	py := dy
	var px, xmax float32
	for _, ch := range s {
		if ch == '\n' {
			px = 0
			py += dy
		} else {
			glyph := font.LookupGlyph(ch)
			px += glyph.AdvanceX
			if px > xmax {
				xmax = px
			}
		}
	}

	return int(gomath.Ceil(float64(xmax))), py
}

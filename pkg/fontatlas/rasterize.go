// pkg/fontatlas/rasterize.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

// Package fontatlas rasterizes TrueType fonts into glyph atlases that can
// be uploaded as textures and drawn with renderer.Canvas.DrawString.
package fontatlas

import (
	"fmt"
	"image"
	"image/draw"
	"slices"

	"github.com/mmp/immdraw/pkg/math"
	"github.com/mmp/immdraw/pkg/renderer"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// Width of the atlas image; glyphs are packed into rows and the height
// is whatever they need, rounded up to a power of two.
const atlasWidth = 512

// Empty pixels around each glyph so that sampling never picks up a
// neighbor.
const glyphPadding = 1

// DefaultRunes are rasterized when no other set is given: printable ASCII
// and a few symbols that are handy for labels.
var DefaultRunes = func() []rune {
	var r []rune
	for ch := rune(' '); ch <= '~'; ch++ {
		r = append(r, ch)
	}
	return append(r, '°', '±', '×', '·', '←', '↑', '→', '↓')
}()

// Atlas is a font rasterized at a single size. Image holds white glyphs
// with coverage in alpha.
type Atlas struct {
	Id    renderer.FontIdentifier
	Image *image.NRGBA

	runes  []rune
	glyphs map[rune]renderer.Glyph
}

type rasterGlyph struct {
	ch      rune
	bounds  image.Rectangle // relative to the top-left of the line
	mask    *image.Alpha
	advance float32
	at      image.Point // position in the atlas
}

// Rasterize renders the given runes of the TrueType or OpenType font at
// the given pixel size. If runes is nil, DefaultRunes are used. Runes the
// face can't render are skipped.
func Rasterize(name string, ttf []byte, size int, runes []rune) (*Atlas, error) {
	if size <= 0 {
		return nil, fmt.Errorf("%s: invalid font size %d", name, size)
	}
	if runes == nil {
		runes = DefaultRunes
	}

	f, err := opentype.Parse(ttf)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	defer face.Close()

	// Glyphs are rendered with the dot on the baseline, one ascent below
	// the top of the line.
	dot := fixed.Point26_6{Y: face.Metrics().Ascent}

	var glyphs []rasterGlyph
	for _, ch := range runes {
		dr, mask, maskp, advance, ok := face.Glyph(dot, ch)
		if !ok {
			continue
		}
		g := rasterGlyph{ch: ch, bounds: dr, advance: float32(advance) / 64}
		if !dr.Empty() {
			// The face reuses its mask between calls, so take a copy.
			g.mask = image.NewAlpha(image.Rect(0, 0, dr.Dx(), dr.Dy()))
			draw.Draw(g.mask, g.mask.Bounds(), mask, maskp, draw.Src)
		}
		glyphs = append(glyphs, g)
	}
	if len(glyphs) == 0 {
		return nil, fmt.Errorf("%s: font has none of the requested glyphs", name)
	}

	height := pack(glyphs)
	a := &Atlas{
		Id:     renderer.FontIdentifier{Name: name, Size: size},
		Image:  image.NewNRGBA(image.Rect(0, 0, atlasWidth, height)),
		glyphs: make(map[rune]renderer.Glyph),
	}

	w, h := float32(atlasWidth), float32(height)
	for _, g := range glyphs {
		rg := renderer.Glyph{AdvanceX: g.advance}
		if g.mask != nil {
			r := g.mask.Bounds().Add(g.at)
			draw.DrawMask(a.Image, r, image.White, image.Point{}, g.mask, image.Point{}, draw.Src)

			rg.Visible = true
			rg.X0, rg.Y0 = float32(g.bounds.Min.X), float32(g.bounds.Min.Y)
			rg.X1, rg.Y1 = float32(g.bounds.Max.X), float32(g.bounds.Max.Y)
			rg.U0, rg.V0 = float32(r.Min.X)/w, float32(r.Min.Y)/h
			rg.U1, rg.V1 = float32(r.Max.X)/w, float32(r.Max.Y)/h
		}
		a.runes = append(a.runes, g.ch)
		a.glyphs[g.ch] = rg
	}

	return a, nil
}

// pack assigns atlas positions to the visible glyphs, tallest first, in
// rows, and returns the height of the atlas.
func pack(glyphs []rasterGlyph) int {
	order := make([]int, 0, len(glyphs))
	for i, g := range glyphs {
		if g.mask != nil {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return glyphs[b].bounds.Dy() - glyphs[a].bounds.Dy()
	})

	x, y, rowHeight := glyphPadding, glyphPadding, 0
	for _, i := range order {
		b := glyphs[i].bounds
		if x+b.Dx()+glyphPadding > atlasWidth {
			x, y = glyphPadding, y+rowHeight+glyphPadding
			rowHeight = 0
		}
		glyphs[i].at = image.Pt(x, y)
		x += b.Dx() + glyphPadding
		rowHeight = math.Max(rowHeight, b.Dy())
	}

	height := 1
	for height < y+rowHeight+glyphPadding {
		height *= 2
	}
	return height
}

// Runes returns the rasterized runes in the order they were requested.
func (a *Atlas) Runes() []rune {
	return slices.Clone(a.runes)
}

// Glyph returns the metrics of the given rune.
func (a *Atlas) Glyph(ch rune) (renderer.Glyph, bool) {
	g, ok := a.glyphs[ch]
	return g, ok
}

// Upload creates a texture from the atlas image and returns a Font that
// draws with it. Runes that weren't rasterized draw as '?' if the atlas
// has it.
func (a *Atlas) Upload(tc renderer.TextureCreator) *renderer.Font {
	tex := tc.CreateTextureFromImage(a.Image, true)
	f := renderer.MakeFont(a.Id.Size, a.Id, tex)
	for _, ch := range a.runes {
		g := a.glyphs[ch]
		f.AddGlyph(ch, &g)
	}
	if g, ok := a.glyphs['?']; ok {
		f.SetFallback(&g)
	}
	return f
}

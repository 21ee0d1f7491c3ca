// pkg/fontatlas/fontatlas_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fontatlas

import (
	"errors"
	"image"
	"slices"
	"testing"

	"github.com/mmp/immdraw/pkg/math"
	"github.com/mmp/immdraw/pkg/renderer"
	"github.com/mmp/immdraw/pkg/renderer/soft"

	"golang.org/x/image/font/gofont/goregular"
)

// textures is a TextureCreator that tracks which textures are live.
type textures struct {
	live map[renderer.TextureID]bool
	next renderer.TextureID
}

func (t *textures) CreateTextureFromImage(img image.Image, magNearest bool) renderer.TextureID {
	if t.live == nil {
		t.live = make(map[renderer.TextureID]bool)
	}
	t.next++
	t.live[t.next] = true
	return t.next
}

func (t *textures) DestroyTexture(id renderer.TextureID) {
	delete(t.live, id)
}

func TestRasterize(t *testing.T) {
	a, err := Rasterize(GoRegular, goregular.TTF, 16, nil)
	if err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(a.Runes(), DefaultRunes) {
		t.Errorf("got %d runes, expected %d", len(a.Runes()), len(DefaultRunes))
	}
	if h := a.Image.Bounds().Dy(); h&(h-1) != 0 || a.Image.Bounds().Dx() != atlasWidth {
		t.Errorf("atlas size %v", a.Image.Bounds())
	}

	space, ok := a.Glyph(' ')
	if !ok || space.Visible || space.AdvanceX <= 0 {
		t.Errorf("space glyph %+v", space)
	}

	g, ok := a.Glyph('W')
	if !ok || !g.Visible {
		t.Fatalf("W glyph %+v", g)
	}
	if g.Width() <= 0 || g.Height() <= 0 || g.Height() > 16 || g.AdvanceX < g.Width()/2 {
		t.Errorf("implausible W metrics %+v", g)
	}
	if g.U0 >= g.U1 || g.V0 >= g.V1 || g.U1 > 1 || g.V1 > 1 {
		t.Errorf("bad W texture coordinates %+v", g)
	}

	// The glyph's region of the atlas has some coverage.
	w, h := float32(a.Image.Bounds().Dx()), float32(a.Image.Bounds().Dy())
	r := image.Rect(int(g.U0*w), int(g.V0*h), int(g.U1*w), int(g.V1*h))
	covered := false
	for y := r.Min.Y; y < r.Max.Y && !covered; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			if a.Image.NRGBAAt(x, y).A > 128 {
				covered = true
				break
			}
		}
	}
	if !covered {
		t.Errorf("no coverage for W in %v", r)
	}

	// Glyphs sit below the top of the line.
	if g, _ := a.Glyph('x'); g.Y0 < 0 || g.Y1 > 16 {
		t.Errorf("x glyph extends outside the line: %+v", g)
	}
}

func TestRasterizeErrors(t *testing.T) {
	if _, err := Rasterize("bad", goregular.TTF, 0, nil); err == nil {
		t.Errorf("expected error for zero size")
	}
	if _, err := Rasterize("bad", []byte("not a font"), 12, nil); err == nil {
		t.Errorf("expected error for invalid font data")
	}
}

func TestUpload(t *testing.T) {
	a, err := Rasterize(GoRegular, goregular.TTF, 12, []rune("ab?"))
	if err != nil {
		t.Fatal(err)
	}
	var tc textures
	f := a.Upload(&tc)

	if f.Texture == 0 || !tc.live[f.Texture] || f.Size != 12 || f.Id != a.Id {
		t.Errorf("unexpected font %+v", f.Id)
	}
	if g, _ := a.Glyph('b'); *f.LookupGlyph('b') != g {
		t.Errorf("b glyph not added")
	}
	if q, _ := a.Glyph('?'); *f.LookupGlyph('z') != q {
		t.Errorf("fallback should be the ? glyph")
	}
}

func TestCache(t *testing.T) {
	var tc textures
	c, err := NewCache(&tc, 2, nil)
	if err != nil {
		t.Fatal(err)
	}
	if names := c.Names(); !slices.Equal(names, []string{GoMono, GoRegular}) {
		t.Errorf("registered fonts %v", names)
	}

	f12, err := c.Lookup(renderer.FontIdentifier{Name: GoRegular, Size: 12})
	if err != nil {
		t.Fatal(err)
	}
	if again, _ := c.Lookup(renderer.FontIdentifier{Name: GoRegular, Size: 12}); again != f12 {
		t.Errorf("second lookup didn't hit the cache")
	}

	if _, err := c.Lookup(renderer.FontIdentifier{Name: GoMono, Size: 10}); err != nil {
		t.Fatal(err)
	}
	if _, err := c.Lookup(renderer.FontIdentifier{Name: GoMono, Size: 14}); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 2 || c.fonts.Contains(f12.Id) {
		t.Errorf("least recently used font wasn't evicted: %d fonts", c.Len())
	}
	// Its texture lives until Collect.
	if !tc.live[f12.Texture] {
		t.Errorf("evicted font's texture destroyed before Collect")
	}
	c.Collect()
	if tc.live[f12.Texture] || len(tc.live) != 2 {
		t.Errorf("Collect left %d textures, evicted texture live %v", len(tc.live), tc.live[f12.Texture])
	}

	if _, err := c.Lookup(renderer.FontIdentifier{Name: "Comic Sans", Size: 12}); !errors.Is(err, ErrUnknownFont) {
		t.Errorf("unknown font: %v", err)
	}

	c.Purge()
	if c.Len() != 0 || len(tc.live) != 0 {
		t.Errorf("purge left %d fonts and %d textures", c.Len(), len(tc.live))
	}
}

func TestPreload(t *testing.T) {
	var tc textures
	c, err := NewCache(&tc, 8, nil)
	if err != nil {
		t.Fatal(err)
	}

	ids := []renderer.FontIdentifier{
		{Name: GoRegular, Size: 10},
		{Name: GoRegular, Size: 14},
		{Name: GoMono, Size: 12},
		{Name: GoRegular, Size: 10},
	}
	if err := c.Preload(ids...); err != nil {
		t.Fatal(err)
	}
	if c.Len() != 3 || len(tc.live) != 3 {
		t.Errorf("got %d fonts and %d textures, expected 3", c.Len(), len(tc.live))
	}

	if err := c.Preload(renderer.FontIdentifier{Name: "nope", Size: 10}); !errors.Is(err, ErrUnknownFont) {
		t.Errorf("unknown font: %v", err)
	}
}

func TestDrawText(t *testing.T) {
	r := soft.New(64, 32, nil)
	c, err := NewCache(r, 4, nil)
	if err != nil {
		t.Fatal(err)
	}
	font, err := c.Lookup(renderer.FontIdentifier{Name: GoRegular, Size: 16})
	if err != nil {
		t.Fatal(err)
	}

	canvas, err := renderer.NewCanvas(r, renderer.Options{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	white := renderer.White
	_, err = canvas.Frame(math.Identity3x3().Ortho(0, 64, 0, 32), func() error {
		return canvas.DrawString(font, "HI", [2]float32{4, 28}, white)
	})
	if err != nil {
		t.Fatal(err)
	}

	// Text is drawn from the top of the line down, so the upper half has
	// some coverage and the bottom rows have none.
	var top, bottom float32
	for x := range 64 {
		for y := range 16 {
			top = math.Max(top, r.Pixel(x, y).A)
		}
		bottom = math.Max(bottom, r.Pixel(x, 31).A)
	}
	if top < 0.5 || bottom != 0 {
		t.Errorf("unexpected coverage: top %f, bottom %f", top, bottom)
	}
}

// coverage returns the number of pixels with nonzero alpha.
func coverage(r *soft.Renderer) int {
	n := 0
	w, h := r.Size()
	for y := range h {
		for x := range w {
			if r.Pixel(x, y).A > 0 {
				n++
			}
		}
	}
	return n
}

func TestEvictionDuringFrame(t *testing.T) {
	regular := renderer.FontIdentifier{Name: GoRegular, Size: 16}
	mono := renderer.FontIdentifier{Name: GoMono, Size: 16}

	// Draws "H" and, if lookup is set, looks up another font before the
	// frame ends, which evicts the one the queued text uses.
	draw := func(lookup bool) (*soft.Renderer, *Cache) {
		r := soft.New(32, 32, nil)
		c, err := NewCache(r, 1, nil)
		if err != nil {
			t.Fatal(err)
		}
		font, err := c.Lookup(regular)
		if err != nil {
			t.Fatal(err)
		}
		canvas, err := renderer.NewCanvas(r, renderer.Options{}, nil)
		if err != nil {
			t.Fatal(err)
		}

		if err := canvas.Begin(math.Identity3x3().Ortho(0, 32, 0, 32)); err != nil {
			t.Fatal(err)
		}
		if err := canvas.DrawString(font, "H", [2]float32{4, 28}, renderer.White); err != nil {
			t.Fatal(err)
		}
		if lookup {
			if _, err := c.Lookup(mono); err != nil {
				t.Fatal(err)
			}
			if c.fonts.Contains(regular) {
				t.Fatalf("%v wasn't evicted", regular)
			}
		}
		if _, err := canvas.End(); err != nil {
			t.Fatal(err)
		}
		c.Collect()
		return r, c
	}

	want, _ := draw(false)
	got, c := draw(true)
	if nw, ng := coverage(want), coverage(got); nw == 0 || nw != ng {
		t.Errorf("evicting the font mid-frame changed the text: %d pixels covered, expected %d", ng, nw)
	}
	for y := range 32 {
		for x := range 32 {
			if got.Pixel(x, y) != want.Pixel(x, y) {
				t.Fatalf("pixel (%d, %d) is %v, expected %v", x, y, got.Pixel(x, y), want.Pixel(x, y))
			}
		}
	}
	if c.Len() != 1 {
		t.Errorf("%d fonts cached", c.Len())
	}
}

// pkg/renderer/soft/soft_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package soft

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"slices"
	"testing"

	"github.com/mmp/immdraw/pkg/math"
	"github.com/mmp/immdraw/pkg/rand"
	"github.com/mmp/immdraw/pkg/renderer"
)

const size = 32

func newCanvas(t *testing.T, opts renderer.Options) (*renderer.Canvas, *Renderer) {
	t.Helper()
	r := New(size, size, nil)
	c, err := renderer.NewCanvas(r, opts, nil)
	if err != nil {
		t.Fatal(err)
	}
	return c, r
}

func projection() math.Matrix3 {
	return math.Identity3x3().Ortho(0, size, 0, size)
}

func checkerboard() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	img.Set(0, 0, color.NRGBA{R: 255, A: 255})
	img.Set(1, 0, color.NRGBA{G: 255, A: 255})
	img.Set(0, 1, color.NRGBA{B: 255, A: 255})
	img.Set(1, 1, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	return img
}

func solid(c color.Color) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	for y := range 2 {
		for x := range 2 {
			img.Set(x, y, c)
		}
	}
	return img
}

func near(a, b renderer.RGBA) bool {
	const eps = 1e-3
	return math.Abs(a.R-b.R) < eps && math.Abs(a.G-b.G) < eps && math.Abs(a.B-b.B) < eps && math.Abs(a.A-b.A) < eps
}

func TestRect(t *testing.T) {
	c, r := newCanvas(t, renderer.Options{})
	red := renderer.RGBA{R: 1, A: 1}
	_, err := c.Frame(projection(), func() error {
		return c.DrawRect([2]float32{16, 16}, 8, 8, red, 0)
	})
	if err != nil {
		t.Fatal(err)
	}

	if p := r.Pixel(16, 15); !near(p, red) {
		t.Errorf("center pixel %v, expected %v", p, red)
	}
	for _, xy := range [][2]int{{0, 0}, {10, 16}, {16, 25}, {31, 31}} {
		if p := r.Pixel(xy[0], xy[1]); p.A != 0 {
			t.Errorf("pixel %v should be empty; got %v", xy, p)
		}
	}
}

func TestBlend(t *testing.T) {
	c, r := newCanvas(t, renderer.Options{})
	r.Clear(renderer.White)
	_, err := c.Frame(projection(), func() error {
		return c.DrawRect([2]float32{16, 16}, 8, 8, renderer.RGBA{R: 1, A: 0.5}, 0)
	})
	if err != nil {
		t.Fatal(err)
	}
	if p := r.Pixel(16, 16); !near(p, renderer.RGBA{R: 1, G: 0.5, B: 0.5, A: 1}) {
		t.Errorf("blended pixel %v", p)
	}
}

func TestSharedEdges(t *testing.T) {
	// Without pixel alignment the rect's diagonal and the circle's spokes
	// pass exactly through pixel centers; each pixel should still only be
	// blended once.
	c, r := newCanvas(t, renderer.Options{PixelAlignment: &renderer.NoPixelAlignment, CircleSlices: 8})
	half := renderer.RGBA{R: 1, A: 0.5}
	_, err := c.Frame(projection(), func() error {
		return errors.Join(
			c.DrawRect([2]float32{8, 8}, 8, 8, half, 0),
			c.DrawCircle([2]float32{24, 24}, 6, half))
	})
	if err != nil {
		t.Fatal(err)
	}

	n := 0
	for y := range size {
		for x := range size {
			p := r.Pixel(x, y)
			if p.A == 0 {
				continue
			}
			n++
			if !near(p, half) {
				t.Fatalf("pixel (%d, %d) is %v, expected %v", x, y, p, half)
			}
		}
	}
	// The rect covers 64 pixels; the circle adds some more.
	if n <= 64 {
		t.Errorf("only %d pixels covered", n)
	}

	// The rect's pixels are all covered; none are missed along the
	// diagonal.
	for y := 20; y < 28; y++ {
		for x := 4; x < 12; x++ {
			if p := r.Pixel(x, y); p.A == 0 {
				t.Errorf("pixel (%d, %d) inside the rect is empty", x, y)
			}
		}
	}
}

func TestSprite(t *testing.T) {
	c, r := newCanvas(t, renderer.Options{PixelAlignment: &renderer.NoPixelAlignment})
	tex := r.CreateTextureFromImage(checkerboard(), true)

	_, err := c.Frame(projection(), func() error {
		return c.DrawSprite(tex, [2]float32{16, 16}, size, size, 0, renderer.SpriteOptions{})
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, tc := range []struct {
		x, y int
		c    renderer.RGBA
	}{
		{2, 2, renderer.RGBA{R: 1, A: 1}},
		{29, 2, renderer.RGBA{G: 1, A: 1}},
		{2, 29, renderer.RGBA{B: 1, A: 1}},
		{29, 29, renderer.White},
	} {
		if p := r.Pixel(tc.x, tc.y); !near(p, tc.c) {
			t.Errorf("(%d,%d): got %v, expected %v", tc.x, tc.y, p, tc.c)
		}
	}

	// A fully-weighted blend replaces the texel color but keeps its alpha.
	r.Clear(renderer.Transparent)
	c.Frame(projection(), func() error {
		return c.DrawSprite(tex, [2]float32{16, 16}, size, size, 0,
			renderer.SpriteOptions{Blend: renderer.RGB{G: 1}, Factor: 1, Transparency: 0.5})
	})
	if p := r.Pixel(2, 2); !near(p, renderer.RGBA{G: 1, A: 0.5}) {
		t.Errorf("blended sprite pixel %v", p)
	}
}

func TestLines(t *testing.T) {
	c, r := newCanvas(t, renderer.Options{})
	green := renderer.RGBA{G: 1, A: 1}
	c.Frame(projection(), func() error {
		return c.DrawLine([2]float32{4, 8}, [2]float32{28, 8}, green)
	})

	// World y=8 is row 32-8-1.
	for x := 4; x < 28; x++ {
		if p := r.Pixel(x, 23); !near(p, green) {
			t.Errorf("pixel (%d, 23) is %v", x, p)
			break
		}
	}
	if p := r.Pixel(16, 20); p.A != 0 {
		t.Errorf("pixel off the line is %v", p)
	}
}

func TestWritePNG(t *testing.T) {
	c, r := newCanvas(t, renderer.Options{})
	c.Frame(projection(), func() error {
		return c.DrawCircle([2]float32{16, 16}, 10, renderer.RGBA{B: 1, A: 1})
	})

	var buf bytes.Buffer
	if err := r.WritePNG(&buf); err != nil {
		t.Fatal(err)
	}
	img, err := png.Decode(&buf)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != size || img.Bounds().Dy() != size {
		t.Errorf("image bounds %v", img.Bounds())
	}
	if _, _, b, _ := img.At(16, 16).RGBA(); b != 0xffff {
		t.Errorf("circle center isn't blue")
	}
}

// drawScene draws overlapping translucent shapes of all kinds, calling
// afterEach after every draw.
func drawScene(t *testing.T, c *renderer.Canvas, texA, texB renderer.TextureID, font *renderer.Font, afterEach func()) {
	t.Helper()
	check := func(err error) {
		t.Helper()
		if err != nil {
			t.Fatal(err)
		}
		afterEach()
	}

	check(c.DrawRect([2]float32{12, 12}, 14, 10, renderer.RGBA{R: 1, A: 0.6}, 0.3))
	check(c.DrawTriangle([2]float32{2, 2}, [2]float32{30, 6}, [2]float32{14, 28}, renderer.RGBA{G: 1, A: 0.4}))
	check(c.DrawSprite(texA, [2]float32{20, 20}, 10, 10, 0, renderer.SpriteOptions{Transparency: 0.3}))
	check(c.DrawLine([2]float32{0, 0}, [2]float32{31, 20}, renderer.RGBA{B: 1, A: 0.8}))
	check(c.DrawSprite(texB, [2]float32{10, 18}, 12, 8, 0.5,
		renderer.SpriteOptions{Blend: renderer.RGB{R: 1}, Factor: 0.5, Transparency: 0.5}))
	check(c.DrawCircle([2]float32{16, 16}, 7, renderer.RGBA{R: 1, G: 1, A: 0.3}))
	check(c.DrawRoundRect([2]float32{8, 24}, 12, 6, 3, renderer.RGBA{G: 1, B: 1, A: 0.5}, 0))
	check(c.DrawSprite(texA, [2]float32{24, 8}, 6, 6, 0, renderer.SpriteOptions{FlipV: true}))
	check(c.DrawString(font, "ab\nba", [2]float32{2, 30}, renderer.RGBA{R: 1, B: 1, A: 0.9}))
	check(c.DrawLineStrip([][2]float32{{2, 16}, {8, 30}, {16, 2}, {30, 30}}, renderer.Black))
	check(c.DrawPoints([][2]float32{{1, 1}, {3, 3}, {5, 5}}, renderer.White))
}

func testFont(tex renderer.TextureID) *renderer.Font {
	f := renderer.MakeFont(6, renderer.FontIdentifier{Name: "test", Size: 6}, tex)
	f.AddGlyph('a', &renderer.Glyph{X1: 4, Y1: 5, U1: 0.5, V1: 1, AdvanceX: 5, Visible: true})
	f.AddGlyph('b', &renderer.Glyph{Y0: 1, X1: 4, Y1: 6, U0: 0.5, U1: 1, V1: 1, AdvanceX: 5, Visible: true})
	return f
}

// Batching must not change what's drawn: the scene flushed once per frame
// matches the scene flushed after every draw, pixel for pixel.
func TestBatchingPreservesOrder(t *testing.T) {
	render := func(flushEach bool) (*image.RGBA, renderer.RendererStats) {
		c, r := newCanvas(t, renderer.Options{})
		texA := r.CreateTextureFromImage(checkerboard(), true)
		texB := r.CreateTextureFromImage(solid(color.NRGBA{R: 40, G: 200, B: 90, A: 200}), true)
		font := testFont(r.CreateTextureFromImage(checkerboard(), true))

		if err := c.Begin(projection()); err != nil {
			t.Fatal(err)
		}
		drawScene(t, c, texA, texB, font, func() {
			if flushEach {
				c.Flush()
			}
		})
		stats, err := c.End()
		if err != nil {
			t.Fatal(err)
		}
		return r.Image(), stats
	}

	batched, bstats := render(false)
	unbatched, ustats := render(true)

	if bstats.DrawCalls >= ustats.DrawCalls {
		t.Errorf("batching didn't reduce draw calls: %d vs %d", bstats.DrawCalls, ustats.DrawCalls)
	}
	if bstats.Vertices != ustats.Vertices {
		t.Errorf("vertex counts differ: %d vs %d", bstats.Vertices, ustats.Vertices)
	}
	if !slices.Equal(batched.Pix, unbatched.Pix) {
		for i := range batched.Pix {
			if batched.Pix[i] != unbatched.Pix[i] {
				x, y := (i/4)%size, (i/4)/size
				t.Errorf("images differ first at (%d, %d)", x, y)
				break
			}
		}
	}
}

func TestTextures(t *testing.T) {
	r := New(4, 4, nil)
	a := r.CreateTextureFromImage(checkerboard(), false)
	b := r.CreateTextureFromImage(checkerboard(), false)
	if a == 0 || a == b {
		t.Errorf("texture ids %d and %d", a, b)
	}
	r.UpdateTextureFromImage(a, solid(color.White), false)
	r.DestroyTexture(b)
	if _, ok := r.textures[b]; ok {
		t.Errorf("texture %d not destroyed", b)
	}
	r.Dispose()
	if len(r.textures) != 0 {
		t.Errorf("textures remain after Dispose")
	}
}

// Random sequences of draws with more textures than there are slots also
// render the same batched and unbatched.
func TestBatchingPreservesOrderRandom(t *testing.T) {
	const ntex = renderer.MaxSlots + 4

	render := func(seed uint64, flushEach bool) *image.RGBA {
		c, r := newCanvas(t, renderer.Options{MaxVertices: 600, CircleSlices: 24, FlushWhenFull: true})
		var texs []renderer.TextureID
		for i := range ntex {
			texs = append(texs, r.CreateTextureFromImage(solid(color.NRGBA{R: uint8(18 * i), G: 128, B: uint8(255 - 15*i), A: 160}), true))
		}

		rng := rand.Make(seed)
		pt := func() [2]float32 { return [2]float32{rng.Range(0, size), rng.Range(0, size)} }
		col := func() renderer.RGBA {
			return renderer.RGBA{R: rng.Float32(), G: rng.Float32(), B: rng.Float32(), A: rng.Range(0.2, 1)}
		}

		_, err := c.Frame(projection(), func() error {
			for range 200 {
				var err error
				switch rng.Intn(5) {
				case 0:
					err = c.DrawRect(pt(), rng.Range(1, 10), rng.Range(1, 10), col(), rng.Range(0, 3))
				case 1:
					err = c.DrawCircle(pt(), rng.Range(1, 8), col())
				case 2:
					err = c.DrawLine(pt(), pt(), col())
				case 3:
					err = c.DrawTriangle(pt(), pt(), pt(), col())
				case 4:
					err = c.DrawSprite(rand.Sample(rng, texs), pt(), rng.Range(1, 10), rng.Range(1, 10),
						rng.Range(0, 3), renderer.SpriteOptions{Transparency: rng.Range(0, 0.8)})
				}
				if err != nil {
					return err
				}
				if flushEach {
					c.Flush()
				}
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
		return r.Image()
	}

	for _, seed := range []uint64{1, 2, 3, 0xfeedface} {
		if !slices.Equal(render(seed, false).Pix, render(seed, true).Pix) {
			t.Errorf("seed %d: batched and unbatched images differ", seed)
		}
	}
}

// cmd/immdraw/scenes.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"errors"
	"fmt"

	"github.com/mmp/immdraw/pkg/math"
	"github.com/mmp/immdraw/pkg/rand"
	"github.com/mmp/immdraw/pkg/renderer"
	"github.com/mmp/immdraw/pkg/util"
)

// A Scene draws into the given region of the canvas; y increases upward.
// t is the time in seconds, which drives the animation.
type Scene func(c *renderer.Canvas, a *Assets, region math.Extent2D, t float32) error

var scenes = map[string]Scene{
	"geometry": drawGeometry,
	"sprites":  drawSprites,
	"text":     drawText,
	"stress":   drawStress,
	"all":      drawAll,
}

func SceneNames() []string {
	return util.SortedMapKeys(scenes)
}

var (
	red    = renderer.RGBA{R: 0.9, G: 0.25, B: 0.2, A: 1}
	green  = renderer.RGBA{R: 0.3, G: 0.8, B: 0.35, A: 1}
	blue   = renderer.RGBA{R: 0.25, G: 0.45, B: 0.95, A: 1}
	yellow = renderer.RGBA{R: 0.95, G: 0.85, B: 0.3, A: 1}
	gray   = renderer.RGBA{R: 0.5, G: 0.5, B: 0.55, A: 1}
)

// cell returns the center and size of cell (i, j) when region is divided
// into an nx by ny grid, with (0, 0) at the upper left.
func cell(region math.Extent2D, nx, ny, i, j int) ([2]float32, [2]float32) {
	w, h := region.Width()/float32(nx), region.Height()/float32(ny)
	return [2]float32{region.P0[0] + (float32(i)+0.5)*w, region.P1[1] - (float32(j)+0.5)*h},
		[2]float32{w, h}
}

func drawGeometry(c *renderer.Canvas, a *Assets, region math.Extent2D, t float32) error {
	const nx, ny = 4, 3
	var errs []error
	add := func(err error) { errs = append(errs, err) }

	// Row 0: points, independent lines, a line strip and triangles.
	p, sz := cell(region, nx, ny, 0, 0)
	s := math.Min(sz[0], sz[1]) * 0.4
	var pts [][2]float32
	for i := range 8 {
		for j := range 8 {
			pts = append(pts, math.Add2f(p, [2]float32{s * (float32(i)/4 - 0.875), s * (float32(j)/4 - 0.875)}))
		}
	}
	add(c.DrawPoints(pts, yellow))
	add(c.DrawPoint(p, red, 6+2*math.Sin(3*t)))

	p, _ = cell(region, nx, ny, 1, 0)
	var segs [][2]float32
	for i := range 6 {
		x := p[0] - s + float32(i)*s*0.4
		segs = append(segs, [2]float32{x, p[1] - s}, [2]float32{x + s*0.2, p[1] + s})
	}
	add(c.DrawLines(segs, green))
	add(c.DrawLineColors([2]float32{p[0] - s, p[1]}, red, [2]float32{p[0] + s, p[1]}, blue))

	p, _ = cell(region, nx, ny, 2, 0)
	var wave [][2]float32
	for i := range 41 {
		u := float32(i)/20 - 1
		wave = append(wave, [2]float32{p[0] + u*s, p[1] + 0.6*s*math.Sin(3*u+2*t)})
	}
	add(c.DrawLineStrip(wave, blue))

	p, _ = cell(region, nx, ny, 3, 0)
	rot := math.Rotator2f(t / 3)
	tri := func(r float32, k int) [2]float32 {
		return math.Add2f(p, rot([2]float32{r * math.Cos(float32(k)*2*math.Pi()/3), r * math.Sin(float32(k)*2*math.Pi()/3)}))
	}
	add(c.DrawTriangleColors(tri(s, 0), red, tri(s, 1), green, tri(s, 2), blue))
	add(c.DrawTriangleWireframe(tri(s*1.1, 0), tri(s*1.1, 1), tri(s*1.1, 2), renderer.White))
	add(c.DrawTriangleWireframeColors(tri(s*0.4, 0), yellow, tri(s*0.4, 1), gray, tri(s*0.4, 2), yellow))
	add(c.DrawTriangle(tri(s*0.2, 0), tri(s*0.2, 1), tri(s*0.2, 2), renderer.Black))

	// Row 1: rectangles and round rectangles.
	p, _ = cell(region, nx, ny, 0, 1)
	add(c.DrawRect(p, 1.6*s, s, blue, t))
	add(c.DrawRectWireframe(p, 1.8*s, 1.2*s, renderer.White, t))

	p, _ = cell(region, nx, ny, 1, 1)
	add(c.DrawRoundRect(p, 1.8*s, 1.2*s, 0.3*s, green, 0))
	add(c.DrawRoundRectWireframe(p, 1.9*s, 1.3*s, 0.35*s, renderer.White, 0))

	p, _ = cell(region, nx, ny, 2, 1)
	// The radius is clamped to half of the shorter side, so this grows
	// into a stadium.
	radius := s * (0.5 + 0.5*math.Sin(t))
	add(c.DrawRoundRect(p, 1.8*s, 0.8*s, radius, red, 0))

	p, _ = cell(region, nx, ny, 3, 1)
	add(c.DrawRoundRect(p, 1.4*s, 1.4*s, 0.2*s, yellow.RGB().WithAlpha(0.6), -t/2))

	// Row 2: circles and ellipses.
	p, _ = cell(region, nx, ny, 0, 2)
	add(c.DrawCircle(p, s, blue))
	add(c.DrawCircleWireframe(p, 1.1*s, renderer.White))

	p, _ = cell(region, nx, ny, 1, 2)
	add(c.DrawEllipse(p, s, 0.5*s, green, t))
	add(c.DrawEllipseWireframe(p, 1.1*s, 0.6*s, renderer.White, t))

	p, _ = cell(region, nx, ny, 2, 2)
	for i := range 5 {
		f := float32(i) / 5
		add(c.DrawCircle(p, s*(1-f), renderer.LerpRGBA(f, red, yellow)))
	}

	p, _ = cell(region, nx, ny, 3, 2)
	add(c.DrawCircle(math.Add2f(p, [2]float32{-0.3 * s, 0}), 0.6*s, red.RGB().WithAlpha(0.5)))
	add(c.DrawCircle(math.Add2f(p, [2]float32{0.3 * s, 0}), 0.6*s, blue.RGB().WithAlpha(0.5)))

	return errors.Join(errs...)
}

func drawSprites(c *renderer.Canvas, a *Assets, region math.Extent2D, t float32) error {
	var errs []error
	add := func(err error) { errs = append(errs, err) }

	center := region.Center()
	s := math.Min(region.Width(), region.Height())
	size := s / 8

	// A ring of tinted atlas sprites around a checkerboard.
	add(c.DrawSprite(a.Checker, center, s/3, s/3, t/4, renderer.SpriteOptions{}))
	add(c.DrawSprite(a.Checker, math.Add2f(center, [2]float32{s / 4, -s / 4}), s/6, s/6, 0,
		renderer.SpriteOptions{FlipH: true, Transparency: 0.5}))

	names := a.Sprites.Names()
	colors := []renderer.RGB{red.RGB(), green.RGB(), blue.RGB(), yellow.RGB()}
	const n = 12
	for i := range n {
		theta := 2*math.Pi()*float32(i)/n + t/2
		p := math.Add2f(center, [2]float32{0.35 * s * math.Cos(theta), 0.35 * s * math.Sin(theta)})
		opts := renderer.SpriteOptions{
			Blend:  colors[i%len(colors)],
			Factor: 1,
			FlipV:  i%2 == 1,
		}
		add(c.DrawAtlasSprite(a.Sprites, names[i%len(names)], p, size, size,
			theta-math.Pi()/2, opts))
	}

	return errors.Join(errs...)
}

func drawText(c *renderer.Canvas, a *Assets, region math.Extent2D, t float32) error {
	var errs []error
	add := func(err error) { errs = append(errs, err) }

	margin := float32(a.Font.Size)
	x, y := region.P0[0]+margin, region.P1[1]-margin

	title := "immdraw"
	add(c.DrawString(a.Title, title, [2]float32{x, y}, renderer.White))
	_, th := a.Title.BoundText(title, 0)
	y -= float32(th) + margin/2

	// A label box sized to fit its text.
	label := fmt.Sprintf("t = %.2fs\ncircle slices: %d\nstaging capacity: %d",
		t, c.CircleSlices(), c.Batcher().Cap())
	w, h := a.Mono.BoundText(label, 2)
	pad := float32(4)
	boxCenter := [2]float32{x + float32(w)/2, y - float32(h)/2}
	add(c.DrawRoundRect(boxCenter, float32(w)+2*pad, float32(h)+2*pad, pad, gray.RGB().WithAlpha(0.5), 0))
	add(c.DrawString(a.Mono, label, [2]float32{x, y}, yellow))
	y -= float32(h) + margin

	add(c.DrawString(a.Font, "The quick brown fox jumps over the lazy dog.", [2]float32{x, y},
		renderer.RGBA{R: 0.8, G: 0.9, B: 1, A: 1}))
	y -= 1.5 * margin
	add(c.DrawString(a.Font, "±10° ← ↑ → ↓", [2]float32{x, y}, green))

	return errors.Join(errs...)
}

// drawAll puts the geometry on the left and the sprites and text on the
// right.
func drawAll(c *renderer.Canvas, a *Assets, region math.Extent2D, t float32) error {
	mid := math.Lerp(0.6, region.P0[0], region.P1[0])
	midy := math.Lerp(0.5, region.P0[1], region.P1[1])

	left := math.Extent2D{P0: region.P0, P1: [2]float32{mid, region.P1[1]}}
	upperRight := math.Extent2D{P0: [2]float32{mid, midy}, P1: region.P1}
	lowerRight := math.Extent2D{P0: [2]float32{mid, region.P0[1]}, P1: [2]float32{region.P1[0], midy}}

	return errors.Join(
		drawGeometry(c, a, left, t),
		drawText(c, a, upperRight, t),
		drawSprites(c, a, lowerRight, t))
}

// drawStress draws a few hundred randomly chosen shapes, interleaving
// geometry, sprites and text so that the batcher has to start new
// commands often. The same shapes are drawn every frame; only their
// rotation changes.
func drawStress(c *renderer.Canvas, a *Assets, region math.Extent2D, t float32) error {
	const n = 400
	r := rand.Make(1)
	names := a.Sprites.Names()

	var errs []error
	for range n {
		p := [2]float32{r.Range(region.P0[0], region.P1[0]), r.Range(region.P0[1], region.P1[1])}
		s := r.Range(4, 24)
		color := renderer.RGBA{R: r.Float32(), G: r.Float32(), B: r.Float32(), A: r.Range(0.3, 1)}
		rotate := r.Range(0, math.Pi()) + t

		var err error
		switch r.Intn(6) {
		case 0:
			err = c.DrawRect(p, s, s/2, color, rotate)
		case 1:
			err = c.DrawCircle(p, s/2, color)
		case 2:
			q := math.Add2f(p, math.Rotator2f(rotate)([2]float32{s, 0}))
			err = c.DrawLine(p, q, color)
		case 3:
			err = c.DrawAtlasSprite(a.Sprites, rand.Sample(r, names), p, s, s, rotate,
				renderer.SpriteOptions{Blend: color.RGB(), Factor: 1, Transparency: 1 - color.A})
		case 4:
			err = c.DrawTriangle(p, math.Add2f(p, [2]float32{s, 0}), math.Add2f(p, [2]float32{0, s}), color)
		case 5:
			err = c.DrawString(a.Mono, string(rune('A'+r.Intn(26))), p, color)
		}
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// pkg/renderer/rgb.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"image/color"

	"github.com/mmp/immdraw/pkg/math"
)

///////////////////////////////////////////////////////////////////////////
// RGB

type RGB struct {
	R, G, B float32
}

// RGBA is a straight (non-premultiplied) color with components in [0,1].
type RGBA struct {
	R, G, B, A float32
}

var (
	White       = RGBA{1, 1, 1, 1}
	Black       = RGBA{0, 0, 0, 1}
	Transparent = RGBA{}
)

func LerpRGB(x float32, a, b RGB) RGB {
	return RGB{R: math.Lerp(x, a.R, b.R), G: math.Lerp(x, a.G, b.G), B: math.Lerp(x, a.B, b.B)}
}

func (r RGB) Equals(other RGB) bool {
	return r.R == other.R && r.G == other.G && r.B == other.B
}

func (r RGB) Scale(v float32) RGB {
	return RGB{R: r.R * v, G: r.G * v, B: r.B * v}
}

// WithAlpha returns the RGBA with r's color and the given alpha.
func (r RGB) WithAlpha(a float32) RGBA {
	return RGBA{R: r.R, G: r.G, B: r.B, A: a}
}

func (c RGBA) RGB() RGB {
	return RGB{R: c.R, G: c.G, B: c.B}
}

func LerpRGBA(x float32, a, b RGBA) RGBA {
	return RGBA{
		R: math.Lerp(x, a.R, b.R),
		G: math.Lerp(x, a.G, b.G),
		B: math.Lerp(x, a.B, b.B),
		A: math.Lerp(x, a.A, b.A),
	}
}

// NRGBA converts c to an 8-bit straight-alpha color, clamping
// out-of-range components.
func (c RGBA) NRGBA() color.NRGBA {
	cvt := func(v float32) uint8 {
		return uint8(math.Clamp(v, 0, 1)*255 + 0.5)
	}
	return color.NRGBA{R: cvt(c.R), G: cvt(c.G), B: cvt(c.B), A: cvt(c.A)}
}

// RGBFromHex converts a packed integer color value to an RGB where the low
// 8 bits give blue, the next 8 give green, and then the next 8 give red.
func RGBFromHex(c int) RGB {
	r, g, b := (c>>16)&255, (c>>8)&255, c&255
	return RGB{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255}
}

func RGBFromUInt8(r uint8, g uint8, b uint8) RGB {
	return RGB{R: float32(r) / 255, G: float32(g) / 255, B: float32(b) / 255}
}

// RGBAFromColor converts any image/color value to a straight-alpha RGBA.
func RGBAFromColor(c color.Color) RGBA {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	return RGBA{R: float32(n.R) / 255, G: float32(n.G) / 255, B: float32(n.B) / 255, A: float32(n.A) / 255}
}

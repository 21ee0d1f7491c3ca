// cmd/immdraw/assets.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"embed"
	"errors"
	"image"
	"image/color"
	"io/fs"
	"path"
	"strings"

	"github.com/mmp/immdraw/pkg/fontatlas"
	"github.com/mmp/immdraw/pkg/log"
	"github.com/mmp/immdraw/pkg/math"
	"github.com/mmp/immdraw/pkg/renderer"
	"github.com/mmp/immdraw/pkg/util"

	"golang.org/x/sync/errgroup"
)

//go:embed resources
var embeddedResources embed.FS

const (
	spriteCell = 64
	// Number of cells in the sprite sheet; must match resources/sprites.json.
	spriteCells = 3
)

type Assets struct {
	Fonts *fontatlas.Cache
	Font  *renderer.Font
	Mono  *renderer.Font
	Title *renderer.Font

	Sprites *renderer.Atlas
	Checker renderer.TextureID
}

// LoadAssets builds the sprite sheet and the checkerboard image and
// rasterizes the fonts. The image work happens concurrently; textures
// are created on the calling thread.
func LoadAssets(r renderer.Renderer, fontSize int, lg *log.Logger) (*Assets, error) {
	var sheet, checker *image.NRGBA
	var manifest []byte

	var eg errgroup.Group
	eg.Go(func() error {
		sheet = makeSpriteSheet()
		return nil
	})
	eg.Go(func() error {
		checker = makeChecker(8, 8, color.NRGBA{R: 230, G: 230, B: 230, A: 255},
			color.NRGBA{R: 40, G: 90, B: 160, A: 255})
		return nil
	})
	eg.Go(func() error {
		fsys, err := fs.Sub(embeddedResources, "resources")
		if err != nil {
			return err
		}
		manifest, err = util.LoadResourceBytes(fsys, "sprites.json")
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	a := &Assets{Checker: r.CreateTextureFromImage(checker, true)}

	tex := r.CreateTextureFromImage(sheet, false)
	var err error
	a.Sprites, err = renderer.ParseAtlas(manifest, tex, sheet.Bounds().Dx(), sheet.Bounds().Dy())
	if err != nil {
		return nil, err
	}

	if a.Fonts, err = fontatlas.NewCache(r, 8, lg); err != nil {
		return nil, err
	}
	registerUserFonts(a.Fonts, lg)

	regular := renderer.FontIdentifier{Name: fontatlas.GoRegular, Size: fontSize}
	mono := renderer.FontIdentifier{Name: fontatlas.GoMono, Size: fontSize}
	title := renderer.FontIdentifier{Name: fontatlas.GoRegular, Size: 2 * fontSize}
	if err := a.Fonts.Preload(regular, mono, title); err != nil {
		return nil, err
	}
	for _, f := range []struct {
		font **renderer.Font
		id   renderer.FontIdentifier
	}{{&a.Font, regular}, {&a.Mono, mono}, {&a.Title, title}} {
		if *f.font, err = a.Fonts.Lookup(f.id); err != nil {
			return nil, err
		}
	}

	lg.Infof("Loaded assets: sprites %v, fonts %v", a.Sprites.Names(), a.Fonts.Names())
	return a, nil
}

func (a *Assets) Dispose(r renderer.Renderer) {
	a.Fonts.Purge()
	r.DestroyTexture(a.Sprites.Texture)
	r.DestroyTexture(a.Checker)
}

// registerUserFonts makes any TrueType fonts in a resources/fonts
// directory available by their file name.
func registerUserFonts(c *fontatlas.Cache, lg *log.Logger) {
	fsys, err := util.ResourcesFS("fonts")
	if errors.Is(err, util.ErrNoResources) {
		return
	} else if err != nil {
		lg.Warnf("resources: %v", err)
		return
	}

	files, err := fs.Glob(fsys, "fonts/*.ttf")
	if err != nil {
		lg.Warnf("fonts: %v", err)
		return
	}
	for _, fn := range files {
		ttf, err := util.LoadResourceBytes(fsys, fn)
		if err != nil {
			lg.Warnf("%s: %v", fn, err)
			continue
		}
		c.Register(strings.TrimSuffix(path.Base(fn), ".ttf"), ttf)
	}
}

// makeSpriteSheet draws the sprites named in resources/sprites.json as
// white shapes with antialiased edges so that they can be tinted.
func makeSpriteSheet() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, spriteCells*spriteCell, spriteCell))

	const r = spriteCell/2 - 2
	c := [2]float32{spriteCell / 2, spriteCell / 2}
	coverage := []func(p [2]float32) float32{
		// disc
		func(p [2]float32) float32 {
			return math.Clamp(r-math.Distance2f(p, c), 0, 1)
		},
		// arrow, pointing up
		func(p [2]float32) float32 {
			y := spriteCell - p[1]
			halfWidth := (spriteCell - 4 - y) / 3
			if y < 4 {
				return 0
			}
			return math.Clamp(halfWidth-math.Abs(p[0]-c[0]), 0, 1)
		},
		// ring
		func(p [2]float32) float32 {
			d := math.Distance2f(p, c)
			return math.Clamp(math.Min(r-d, d-(r-6)), 0, 1)
		},
	}

	for i, cov := range coverage {
		for y := range spriteCell {
			for x := range spriteCell {
				p := [2]float32{float32(x) + 0.5, float32(y) + 0.5}
				a := uint8(255 * cov(p))
				img.SetNRGBA(i*spriteCell+x, y, color.NRGBA{R: 255, G: 255, B: 255, A: a})
			}
		}
	}
	return img
}

func makeChecker(nx, ny int, c0, c1 color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, nx, ny))
	for y := range ny {
		for x := range nx {
			img.SetNRGBA(x, y, util.Select((x+y)%2 == 0, c0, c1))
		}
	}
	return img
}

// pkg/renderer/atlas.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/mmp/immdraw/pkg/util"

	"github.com/iancoleman/orderedmap"
)

// AtlasRegion is a rectangle of an atlas texture in pixels, with (X,Y) its
// upper-left corner.
type AtlasRegion struct {
	X, Y, W, H int
}

// Atlas is a texture holding many named sprites.
type Atlas struct {
	Texture       TextureID
	Width, Height int

	names   []string
	regions map[string]AtlasRegion
}

// LoadAtlas reads the atlas manifest from fsys; manifests with a .zst
// suffix are decompressed. The manifest is a JSON object mapping each
// sprite name to its region: {"ship": {"x": 0, "y": 0, "w": 32, "h": 32}}.
// tex is the already-created texture of the given size that holds the
// sprites.
func LoadAtlas(fsys fs.FS, manifest string, tex TextureID, width, height int) (*Atlas, error) {
	b, err := util.LoadResourceBytes(fsys, manifest)
	if err != nil {
		return nil, err
	}
	a, err := ParseAtlas(b, tex, width, height)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", manifest, err)
	}
	return a, nil
}

// ParseAtlas parses an atlas manifest; see LoadAtlas.
func ParseAtlas(manifest []byte, tex TextureID, width, height int) (*Atlas, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: atlas size %dx%d", ErrInvalidAtlas, width, height)
	}

	if dups := util.FindDuplicateJSONKeys(manifest); len(dups) > 0 {
		var s []string
		for _, d := range dups {
			s = append(s, d.String())
		}
		return nil, fmt.Errorf("%w: duplicate entries %s", ErrInvalidAtlas, strings.Join(s, ", "))
	}

	type region struct {
		X, Y, W, H *int
	}
	var entries map[string]region
	if err := util.UnmarshalJSONBytes(manifest, &entries); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAtlas, err)
	}

	// The map loses the order of the entries; get it back from an
	// orderedmap so that Names() follows the file.
	order := orderedmap.New()
	if err := order.UnmarshalJSON(manifest); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidAtlas, err)
	}

	a := &Atlas{
		Texture: tex,
		Width:   width,
		Height:  height,
		regions: make(map[string]AtlasRegion),
	}
	for _, name := range order.Keys() {
		r := entries[name]
		if r.X == nil || r.Y == nil || r.W == nil || r.H == nil {
			return nil, fmt.Errorf("%w: %q: must specify all of x, y, w, and h", ErrInvalidAtlas, name)
		}
		ar := AtlasRegion{X: *r.X, Y: *r.Y, W: *r.W, H: *r.H}
		if ar.W <= 0 || ar.H <= 0 {
			return nil, fmt.Errorf("%w: %q: size %dx%d", ErrInvalidAtlas, name, ar.W, ar.H)
		}
		if ar.X < 0 || ar.Y < 0 || ar.X+ar.W > width || ar.Y+ar.H > height {
			return nil, fmt.Errorf("%w: %q: region %+v outside %dx%d atlas", ErrInvalidAtlas, name, ar,
				width, height)
		}

		a.names = append(a.names, name)
		a.regions[name] = ar
	}

	return a, nil
}

// Names returns the sprite names in manifest order.
func (a *Atlas) Names() []string {
	return slices.Clone(a.names)
}

func (a *Atlas) Region(name string) (AtlasRegion, error) {
	if r, ok := a.regions[name]; ok {
		return r, nil
	}
	return AtlasRegion{}, fmt.Errorf("%w: %q", ErrUnknownRegion, name)
}

// UV returns the texture coordinates of the named region's upper-left and
// lower-right corners.
func (a *Atlas) UV(name string) (uv0, uv1 [2]float32, err error) {
	r, err := a.Region(name)
	if err != nil {
		return
	}
	w, h := float32(a.Width), float32(a.Height)
	uv0 = [2]float32{float32(r.X) / w, float32(r.Y) / h}
	uv1 = [2]float32{float32(r.X+r.W) / w, float32(r.Y+r.H) / h}
	return
}

// pkg/fontatlas/cache.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package fontatlas

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/mmp/immdraw/pkg/log"
	"github.com/mmp/immdraw/pkg/renderer"
	"github.com/mmp/immdraw/pkg/util"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/sync/errgroup"
)

var ErrUnknownFont = errors.New("unknown font")

const (
	GoRegular = "Go Regular"
	GoMono    = "Go Mono"
)

// Cache holds uploaded fonts, keyed by name and size. When it's full, the
// least recently used font is evicted. Draws queued earlier in the frame
// may still refer to an evicted font's texture, so it isn't destroyed
// until Collect is called after the frame has been flushed.
//
// Lookup, Preload, Collect and Purge must be called from the thread that
// owns the renderer's context, since they create and destroy textures.
type Cache struct {
	tc    renderer.TextureCreator
	lg    *log.Logger
	fonts *lru.Cache[renderer.FontIdentifier, *renderer.Font]

	mu      sync.Mutex
	sources map[string][]byte
	evicted []renderer.TextureID
}

// NewCache returns a Cache that holds up to size fonts. The Go fonts are
// registered as GoRegular and GoMono.
func NewCache(tc renderer.TextureCreator, size int, lg *log.Logger) (*Cache, error) {
	c := &Cache{
		tc:      tc,
		lg:      lg,
		sources: make(map[string][]byte),
	}

	var err error
	c.fonts, err = lru.NewWithEvict(size, func(id renderer.FontIdentifier, f *renderer.Font) {
		lg.Debugf("%s %d evicted; texture %d will be destroyed at the end of the frame", id.Name, id.Size,
			f.Texture)
		c.mu.Lock()
		defer c.mu.Unlock()
		c.evicted = append(c.evicted, f.Texture)
	})
	if err != nil {
		return nil, err
	}

	c.Register(GoRegular, goregular.TTF)
	c.Register(GoMono, gomono.TTF)
	return c, nil
}

// Register makes the font data available under the given name, replacing
// anything registered with that name before. Fonts already rasterized
// from the old data stay in the cache until evicted.
func (c *Cache) Register(name string, ttf []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources[name] = ttf
}

func (c *Cache) source(name string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ttf, ok := c.sources[name]; ok {
		return ttf, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFont, name)
}

// Names returns the registered font names, sorted.
func (c *Cache) Names() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return util.SortedMapKeys(c.sources)
}

// Lookup returns the font with the given name and size, rasterizing and
// uploading it if it isn't cached.
func (c *Cache) Lookup(id renderer.FontIdentifier) (*renderer.Font, error) {
	if f, ok := c.fonts.Get(id); ok {
		return f, nil
	}

	ttf, err := c.source(id.Name)
	if err != nil {
		return nil, err
	}
	a, err := Rasterize(id.Name, ttf, id.Size, nil)
	if err != nil {
		return nil, err
	}
	return c.add(a), nil
}

func (c *Cache) add(a *Atlas) *renderer.Font {
	f := a.Upload(c.tc)
	c.fonts.Add(a.Id, f)
	c.lg.Debugf("%s %d: %d glyphs in %v texture %d", a.Id.Name, a.Id.Size, len(a.runes),
		a.Image.Bounds().Size(), f.Texture)
	return f
}

// Preload rasterizes the given fonts concurrently and then uploads them.
func (c *Cache) Preload(ids ...renderer.FontIdentifier) error {
	var missing []renderer.FontIdentifier
	for _, id := range ids {
		if !c.fonts.Contains(id) && !slices.Contains(missing, id) {
			missing = append(missing, id)
		}
	}

	atlases := make([]*Atlas, len(missing))
	var eg errgroup.Group
	for i, id := range missing {
		eg.Go(func() error {
			ttf, err := c.source(id.Name)
			if err != nil {
				return err
			}
			atlases[i], err = Rasterize(id.Name, ttf, id.Size, nil)
			return err
		})
	}
	if err := eg.Wait(); err != nil {
		return err
	}

	for _, a := range atlases {
		c.add(a)
	}
	return nil
}

// Len returns the number of cached fonts.
func (c *Cache) Len() int { return c.fonts.Len() }

// Collect destroys the textures of fonts evicted since the last call. It
// should be called once the frame that may have used them has been
// flushed, e.g. after Canvas.End.
func (c *Cache) Collect() {
	c.mu.Lock()
	evicted := c.evicted
	c.evicted = nil
	c.mu.Unlock()

	for _, tex := range evicted {
		c.tc.DestroyTexture(tex)
	}
	if len(evicted) > 0 {
		c.lg.Debugf("destroyed %d evicted font textures", len(evicted))
	}
}

// Purge evicts all of the cached fonts and destroys their textures; it
// must not be called while a frame is being drawn.
func (c *Cache) Purge() {
	c.fonts.Purge()
	c.Collect()
}

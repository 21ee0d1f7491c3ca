// pkg/renderer/canvas.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/mmp/immdraw/pkg/log"
	"github.com/mmp/immdraw/pkg/math"
)

// DefaultCircleSlices is the number of segments used for circles and
// ellipses unless changed with SetCircleSlices.
const DefaultCircleSlices = 300

// Options configure a Canvas.
type Options struct {
	// MaxVertices is the staging buffer capacity; MaxVertices if zero.
	MaxVertices int `json:"max_vertices"`
	// CircleSlices is the circle and ellipse tessellation rate;
	// DefaultCircleSlices if zero.
	CircleSlices int `json:"circle_slices"`
	// PixelAlignment is DefaultPixelAlignment if nil.
	PixelAlignment *PixelAlignment `json:"pixel_alignment,omitempty"`
	// FlushWhenFull makes a draw that doesn't fit in the remaining
	// staging space flush what's there and try again, rather than
	// returning a CapacityError.
	FlushWhenFull bool `json:"flush_when_full"`
}

// Canvas is the immediate-mode drawing interface. Each Draw method turns
// its shape into vertices and hands them to a Batcher; the batched
// commands are sent to the Renderer when the frame ends or when Flush is
// called.
//
// A Canvas is not safe for concurrent use.
type Canvas struct {
	r       Renderer
	batcher *Batcher
	lg      *log.Logger

	align         PixelAlignment
	circleSlices  int
	flushWhenFull bool

	inFrame    bool
	restore    func()
	frameStats RendererStats
}

func NewCanvas(r Renderer, opts Options, lg *log.Logger) (*Canvas, error) {
	c := &Canvas{
		r:             r,
		batcher:       NewBatcher(opts.MaxVertices),
		lg:            lg,
		align:         DefaultPixelAlignment,
		flushWhenFull: opts.FlushWhenFull,
	}
	if opts.PixelAlignment != nil {
		c.align = *opts.PixelAlignment
	}

	slices := opts.CircleSlices
	if slices == 0 {
		slices = math.Min(DefaultCircleSlices, c.batcher.Cap()/3)
	}
	if err := c.SetCircleSlices(slices); err != nil {
		return nil, err
	}

	lg.Debug("created canvas", slog.Int("capacity", c.batcher.Cap()),
		slog.Int("circle_slices", c.circleSlices), slog.Any("pixel_offset", c.align.Offset))
	return c, nil
}

// SetCircleSlices sets the number of segments used for circles and
// ellipses. A filled circle needs 3n vertices, which must fit in the
// staging buffer.
func (c *Canvas) SetCircleSlices(n int) error {
	if n < 3 {
		return invalidf("%d circle slices", n)
	}
	if 3*n > c.batcher.Cap() {
		return &CapacityError{Requested: 3 * n, Capacity: c.batcher.Cap()}
	}
	c.circleSlices = n
	return nil
}

func (c *Canvas) CircleSlices() int { return c.circleSlices }

// Batcher gives read access to the pending commands, mostly for tests
// and debugging displays.
func (c *Canvas) Batcher() *Batcher { return c.batcher }

// Begin starts a frame: it sets the projection and establishes the
// backend's 2D render state, which End restores.
func (c *Canvas) Begin(projection math.Matrix3) error {
	if c.inFrame {
		return ErrFrameInProgress
	}
	c.r.SetProjection(projection)
	c.restore = c.r.SaveState()
	c.inFrame = true
	c.frameStats = RendererStats{}
	return nil
}

// End flushes everything drawn since Begin and restores the render state.
// It returns the statistics for the whole frame.
func (c *Canvas) End() (RendererStats, error) {
	if !c.inFrame {
		return RendererStats{}, ErrNoFrame
	}
	defer c.endFrame()

	c.frameStats.Merge(c.batcher.Flush(c.r))
	return c.frameStats, nil
}

func (c *Canvas) endFrame() {
	if c.restore != nil {
		c.restore()
		c.restore = nil
	}
	c.inFrame = false
}

// Frame runs fn between Begin and End. The render state is restored even
// if fn returns an error or panics; in that case whatever fn drew is
// discarded rather than flushed.
func (c *Canvas) Frame(projection math.Matrix3, fn func() error) (stats RendererStats, err error) {
	if err = c.Begin(projection); err != nil {
		return
	}

	completed := false
	defer func() {
		if !completed {
			c.batcher.Reset()
			c.endFrame()
		}
	}()

	if err = fn(); err != nil {
		c.lg.Warnf("frame abandoned: %v", err)
		return
	}

	completed = true
	return c.End()
}

// SetProjection changes the projection mid-frame. Pending draws were
// specified against the old projection, so they are flushed first.
func (c *Canvas) SetProjection(m math.Matrix3) {
	c.Flush()
	c.r.SetProjection(m)
}

// Flush sends all pending draws to the renderer now.
func (c *Canvas) Flush() RendererStats {
	if !c.inFrame {
		if c.batcher.NumCommands() == 0 {
			return RendererStats{}
		}
		restore := c.r.SaveState()
		defer restore()
	}

	stats := c.batcher.Flush(c.r)
	c.frameStats.Merge(stats)
	return stats
}

// submit aligns v and appends it to the batch.
func (c *Canvas) submit(t Topology, k Kind, tex TextureID, v []Vertex) error {
	if k != KindText {
		c.align.applyAll(v)
	}

	err := c.batcher.Append(t, k, tex, v)
	if err != nil && c.flushWhenFull && errors.Is(err, ErrCapacityExceeded) && c.batcher.Len() > 0 &&
		len(v) <= c.batcher.Cap() {
		c.lg.Debugf("staging buffer full with %d vertices; flushing", c.batcher.Len())
		c.Flush()
		err = c.batcher.Append(t, k, tex, v)
	}
	return err
}

///////////////////////////////////////////////////////////////////////////
// Scratch vertices

// Builders assemble their vertices in slices from this pool so that the
// allocations persist across draws.
var vertexPool = sync.Pool{New: func() any { return &[]Vertex{} }}

func getVertices(n int) *[]Vertex {
	vp := vertexPool.Get().(*[]Vertex)
	if cap(*vp) < n {
		*vp = make([]Vertex, 0, n)
	}
	*vp = (*vp)[:0]
	return vp
}

func returnVertices(vp *[]Vertex) {
	vertexPool.Put(vp)
}

///////////////////////////////////////////////////////////////////////////
// Parameter checks

func checkFinite(what string, vs ...float32) error {
	for _, v := range vs {
		if !math.IsFinite(v) {
			return invalidf("non-finite %s %f", what, v)
		}
	}
	return nil
}

func checkPoints(pts ...[2]float32) error {
	for _, p := range pts {
		if err := checkFinite("position", p[0], p[1]); err != nil {
			return err
		}
	}
	return nil
}

func checkSize(w, h float32) error {
	if err := checkFinite("size", w, h); err != nil {
		return err
	}
	if w <= 0 || h <= 0 {
		return invalidf("size %fx%f", w, h)
	}
	return nil
}

func checkRadius(what string, r float32) error {
	if err := checkFinite(what, r); err != nil {
		return err
	}
	if r < 0 {
		return invalidf("negative %s %f", what, r)
	}
	return nil
}

func checkRotation(rotate float32) error {
	if !math.IsFinite(rotate) {
		return invalidf("non-finite rotation %f", rotate)
	}
	return nil
}

// placer returns a function that maps local-space points, given relative
// to a shape's center, to world space: it rotates them about the center
// and then translates.
func placer(center [2]float32, rotate float32) func([2]float32) [2]float32 {
	if rotate == 0 {
		return func(p [2]float32) [2]float32 { return math.Add2f(center, p) }
	}
	rot := math.Rotator2f(rotate)
	return func(p [2]float32) [2]float32 { return math.Add2f(center, rot(p)) }
}

func (c *Canvas) String() string {
	return fmt.Sprintf("canvas: %d/%d vertices, %d commands, %s", c.batcher.Len(), c.batcher.Cap(),
		c.batcher.NumCommands(), c.batcher.State())
}

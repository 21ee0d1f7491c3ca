// pkg/renderer/batcher.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"iter"
)

// BatchState tracks where a Batcher is in its per-frame cycle.
type BatchState int

const (
	StateIdle BatchState = iota
	StateAccumulating
	StateFlushing
)

func (s BatchState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateAccumulating:
		return "accumulating"
	case StateFlushing:
		return "flushing"
	default:
		return "unknown"
	}
}

// Batcher stages vertices and coalesces consecutive compatible draws into
// as few draw commands as possible. It only ever compares a new run of
// vertices against the most recent command, so the order in which things
// are drawn is exactly the order of the Append calls.
//
// A Batcher is not safe for concurrent use.
type Batcher struct {
	buf   *StagingBuffer
	queue CommandQueue
	state BatchState
}

func NewBatcher(capacity int) *Batcher {
	return &Batcher{buf: NewStagingBuffer(capacity)}
}

func (b *Batcher) State() BatchState { return b.state }

// Len returns the number of vertices staged for the next flush.
func (b *Batcher) Len() int { return b.buf.Len() }

func (b *Batcher) Cap() int { return b.buf.Cap() }

func (b *Batcher) Remaining() int { return b.buf.Remaining() }

// NumCommands returns the number of queued draw commands.
func (b *Batcher) NumCommands() int { return b.queue.Len() }

// Commands iterates over the queued draw commands, oldest first.
func (b *Batcher) Commands() iter.Seq[DrawCommand] { return b.queue.All() }

// Append stages verts to be drawn with the given topology and kind. Image
// and text draws must provide the texture they sample. On error, nothing
// has been staged or queued.
func (b *Batcher) Append(t Topology, k Kind, tex TextureID, verts []Vertex) error {
	if b.state == StateFlushing {
		return ErrFlushInProgress
	}
	if k.Textured() && tex == 0 {
		return ErrNoTexture
	}
	if !t.validCount(len(verts)) {
		return invalidf("%d vertices don't form whole %s", len(verts), t)
	}
	if len(verts) > b.buf.Remaining() {
		return &CapacityError{Requested: len(verts), Buffered: b.buf.Len(), Capacity: b.buf.Cap()}
	}

	slot, extended := 0, false
	if last := b.queue.Last(); last != nil && last.Topology == t && last.Kind == k && !t.Connected() {
		if k.Textured() {
			slot, extended = last.slotFor(tex)
		} else {
			extended = true
		}
		if extended {
			last.Count += len(verts)
		}
	}

	if !extended {
		cmd := DrawCommand{Topology: t, Kind: k, Start: b.buf.Len(), Count: len(verts)}
		if k.Textured() {
			cmd.Slots[0] = tex
		}
		b.queue.PushBack(cmd)
	}

	b.buf.write(verts, int32(slot))
	b.state = StateAccumulating
	return nil
}

// Flush uploads the staged vertices and issues the queued commands to s in
// order, then leaves the Batcher empty. Flushing an empty Batcher makes no
// calls at all.
func (b *Batcher) Flush(s Submitter) RendererStats {
	var stats RendererStats
	if b.queue.Len() == 0 || b.state == StateFlushing {
		return stats
	}

	b.state = StateFlushing
	defer func() {
		// Even if the backend panics, the next frame starts empty.
		b.queue.Reset()
		b.buf.Reset()
		b.state = StateIdle
	}()

	s.UploadVertices(b.buf.Live())
	stats.Flushes = 1
	stats.UploadBytes = b.buf.Len() * VertexStride

	for {
		cmd, ok := b.queue.PopFront()
		if !ok {
			break
		}

		if cmd.Kind.Textured() {
			for slot, id := range cmd.Slots {
				if id != 0 {
					s.BindTexture(slot, id)
					stats.TextureBinds++
				}
			}
		}
		s.UseProgram(cmd.Kind)
		s.Draw(cmd.Topology, cmd.Start, cmd.Count)
		stats.addDraw(cmd.Topology, cmd.Count)
	}

	return stats
}

// Reset discards everything staged without drawing it.
func (b *Batcher) Reset() {
	if b.state == StateFlushing {
		return
	}
	b.queue.Reset()
	b.buf.Reset()
	b.state = StateIdle
}

// pkg/renderer/command.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"iter"
)

// MaxSlots is the number of textures a single draw command may bind.
const MaxSlots = 10

// TextureID identifies a texture created by a Renderer. The zero value
// means "no texture".
type TextureID uint32

// Topology is the primitive assembly mode for a range of vertices.
type Topology int

const (
	TopologyPoints Topology = iota
	TopologyLines
	TopologyLineStrip
	TopologyTriangles
	TopologyTriangleFan
)

func (t Topology) String() string {
	switch t {
	case TopologyPoints:
		return "points"
	case TopologyLines:
		return "lines"
	case TopologyLineStrip:
		return "line strip"
	case TopologyTriangles:
		return "triangles"
	case TopologyTriangleFan:
		return "triangle fan"
	default:
		return fmt.Sprintf("Topology(%d)", int(t))
	}
}

// Connected reports whether consecutive vertices share primitives. Ranges
// of connected topologies can't be concatenated without joining the
// shapes they describe.
func (t Topology) Connected() bool {
	return t == TopologyLineStrip || t == TopologyTriangleFan
}

// validCount reports whether n vertices form whole primitives.
func (t Topology) validCount(n int) bool {
	switch t {
	case TopologyPoints:
		return n >= 1
	case TopologyLines:
		return n >= 2 && n%2 == 0
	case TopologyLineStrip:
		return n >= 2
	case TopologyTriangles:
		return n >= 3 && n%3 == 0
	case TopologyTriangleFan:
		return n >= 3
	default:
		return false
	}
}

// Kind selects the program a command is drawn with.
type Kind int

const (
	KindGeometry Kind = iota
	KindImage
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindGeometry:
		return "geometry"
	case KindImage:
		return "image"
	case KindText:
		return "text"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Textured reports whether commands of this kind sample textures.
func (k Kind) Textured() bool {
	return k == KindImage || k == KindText
}

// DrawCommand describes a single draw call over the vertex range
// [Start, Start+Count) of the staging buffer.
type DrawCommand struct {
	Topology Topology
	Kind     Kind
	Start    int
	Count    int
	// Slots maps binding slot indices to textures; unused for geometry.
	Slots [MaxSlots]TextureID
}

// End returns the index one past the command's last vertex.
func (c *DrawCommand) End() int {
	return c.Start + c.Count
}

// slotFor returns the slot index to use for tex, binding it to the first
// empty slot if it isn't already bound. It returns false if all of the
// slots hold other textures.
func (c *DrawCommand) slotFor(tex TextureID) (int, bool) {
	empty := -1
	for i, id := range c.Slots {
		if id == tex {
			return i, true
		} else if id == 0 && empty == -1 {
			empty = i
		}
	}
	if empty == -1 {
		return 0, false
	}
	c.Slots[empty] = tex
	return empty, true
}

// BoundSlots returns the number of non-empty slots.
func (c *DrawCommand) BoundSlots() int {
	n := 0
	for _, id := range c.Slots {
		if id != 0 {
			n++
		}
	}
	return n
}

func (c DrawCommand) String() string {
	return fmt.Sprintf("%s %s [%d, %d) slots %d", c.Kind, c.Topology, c.Start, c.End(), c.BoundSlots())
}

// CommandQueue holds draw commands in the order they were created. Its
// storage is reused across frames.
type CommandQueue struct {
	cmds []DrawCommand
	head int
}

func (q *CommandQueue) PushBack(c DrawCommand) {
	q.cmds = append(q.cmds, c)
}

// Last returns the most recently pushed command that hasn't been popped,
// or nil if the queue is empty. Callers may modify it in place.
func (q *CommandQueue) Last() *DrawCommand {
	if q.Len() == 0 {
		return nil
	}
	return &q.cmds[len(q.cmds)-1]
}

// PopFront removes and returns the oldest command.
func (q *CommandQueue) PopFront() (DrawCommand, bool) {
	if q.Len() == 0 {
		return DrawCommand{}, false
	}
	c := q.cmds[q.head]
	q.head++
	if q.head == len(q.cmds) {
		q.Reset()
	}
	return c, true
}

func (q *CommandQueue) Len() int {
	return len(q.cmds) - q.head
}

func (q *CommandQueue) Reset() {
	q.cmds = q.cmds[:0]
	q.head = 0
}

// All iterates over the queued commands from oldest to newest without
// removing them.
func (q *CommandQueue) All() iter.Seq[DrawCommand] {
	return func(yield func(DrawCommand) bool) {
		for _, c := range q.cmds[q.head:] {
			if !yield(c) {
				return
			}
		}
	}
}

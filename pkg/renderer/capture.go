// pkg/renderer/capture.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"
)

type CallOp uint8

const (
	OpUpload CallOp = iota
	OpBindTexture
	OpUseProgram
	OpDraw
)

func (op CallOp) String() string {
	switch op {
	case OpUpload:
		return "upload"
	case OpBindTexture:
		return "bind"
	case OpUseProgram:
		return "program"
	case OpDraw:
		return "draw"
	default:
		return fmt.Sprintf("CallOp(%d)", int(op))
	}
}

// CapturedCall records a single call made to a Submitter. Only the fields
// relevant to Op are set.
type CapturedCall struct {
	Op       CallOp    `msgpack:"op"`
	Slot     int       `msgpack:"slot,omitempty"`
	Texture  TextureID `msgpack:"tex,omitempty"`
	Kind     Kind      `msgpack:"kind,omitempty"`
	Topology Topology  `msgpack:"topo,omitempty"`
	Start    int       `msgpack:"start,omitempty"`
	Count    int       `msgpack:"count,omitempty"`
	Vertices []Vertex  `msgpack:"verts,omitempty"`
}

func (c CapturedCall) String() string {
	switch c.Op {
	case OpUpload:
		return fmt.Sprintf("upload %d vertices", len(c.Vertices))
	case OpBindTexture:
		return fmt.Sprintf("bind texture %d to slot %d", c.Texture, c.Slot)
	case OpUseProgram:
		return "use " + c.Kind.String() + " program"
	case OpDraw:
		return fmt.Sprintf("draw %s [%d, %d)", c.Topology, c.Start, c.Start+c.Count)
	default:
		return c.Op.String()
	}
}

// Recorder is a Submitter that records the calls made to it, forwarding
// them to Next if it is non-nil.
type Recorder struct {
	Next  Submitter
	calls []CapturedCall
}

func NewRecorder(next Submitter) *Recorder {
	return &Recorder{Next: next}
}

func (r *Recorder) UploadVertices(v []Vertex) {
	r.calls = append(r.calls, CapturedCall{Op: OpUpload, Vertices: slices.Clone(v)})
	if r.Next != nil {
		r.Next.UploadVertices(v)
	}
}

func (r *Recorder) BindTexture(slot int, id TextureID) {
	r.calls = append(r.calls, CapturedCall{Op: OpBindTexture, Slot: slot, Texture: id})
	if r.Next != nil {
		r.Next.BindTexture(slot, id)
	}
}

func (r *Recorder) UseProgram(k Kind) {
	r.calls = append(r.calls, CapturedCall{Op: OpUseProgram, Kind: k})
	if r.Next != nil {
		r.Next.UseProgram(k)
	}
}

func (r *Recorder) Draw(t Topology, start, count int) {
	r.calls = append(r.calls, CapturedCall{Op: OpDraw, Topology: t, Start: start, Count: count})
	if r.Next != nil {
		r.Next.Draw(t, start, count)
	}
}

// Calls returns the calls recorded since the last Reset.
func (r *Recorder) Calls() []CapturedCall {
	return r.calls
}

// Capture returns a copy of the recorded calls.
func (r *Recorder) Capture() FrameCapture {
	return FrameCapture{Calls: slices.Clone(r.calls)}
}

func (r *Recorder) Reset() {
	r.calls = r.calls[:0]
}

// FrameCapture is a serializable log of the calls made by one or more
// flushes.
type FrameCapture struct {
	Calls []CapturedCall `msgpack:"calls"`
}

// Write encodes the capture as zstd-compressed msgpack.
func (fc FrameCapture) Write(w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return err
	}

	if err := msgpack.NewEncoder(zw).Encode(fc); err != nil {
		zw.Close()
		return err
	}
	return zw.Close()
}

// ReadFrameCapture decodes a capture written by FrameCapture.Write.
func ReadFrameCapture(r io.Reader) (FrameCapture, error) {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return FrameCapture{}, err
	}
	defer zr.Close()

	var fc FrameCapture
	err = msgpack.NewDecoder(zr).Decode(&fc)
	return fc, err
}

// Replay issues the captured calls to s in their original order.
func (fc FrameCapture) Replay(s Submitter) {
	for _, c := range fc.Calls {
		switch c.Op {
		case OpUpload:
			s.UploadVertices(c.Vertices)
		case OpBindTexture:
			s.BindTexture(c.Slot, c.Texture)
		case OpUseProgram:
			s.UseProgram(c.Kind)
		case OpDraw:
			s.Draw(c.Topology, c.Start, c.Count)
		}
	}
}

// DrawCalls returns the number of draw calls in the capture.
func (fc FrameCapture) DrawCalls() int {
	n := 0
	for _, c := range fc.Calls {
		if c.Op == OpDraw {
			n++
		}
	}
	return n
}

func (fc FrameCapture) String() string {
	var sb strings.Builder
	for i, c := range fc.Calls {
		fmt.Fprintf(&sb, "%4d %s\n", i, c)
	}
	return sb.String()
}

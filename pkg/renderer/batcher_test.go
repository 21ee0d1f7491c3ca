// pkg/renderer/batcher_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"errors"
	"image"
	"slices"
	"testing"

	"github.com/mmp/immdraw/pkg/math"
)

// testRenderer is a Renderer that records everything it's asked to do.
type testRenderer struct {
	*Recorder
	projections []math.Matrix3
	saves       int
	restores    int
	textures    map[TextureID]image.Rectangle
	nextTexture TextureID
	disposed    bool
}

func newTestRenderer() *testRenderer {
	return &testRenderer{
		Recorder:    NewRecorder(nil),
		textures:    make(map[TextureID]image.Rectangle),
		nextTexture: 1,
	}
}

func (r *testRenderer) CreateTextureFromImage(img image.Image, magNearest bool) TextureID {
	id := r.nextTexture
	r.nextTexture++
	r.textures[id] = img.Bounds()
	return id
}

func (r *testRenderer) UpdateTextureFromImage(id TextureID, img image.Image, magNearest bool) {
	r.textures[id] = img.Bounds()
}

func (r *testRenderer) DestroyTexture(id TextureID) {
	delete(r.textures, id)
}

func (r *testRenderer) SetProjection(m math.Matrix3) {
	r.projections = append(r.projections, m)
}

func (r *testRenderer) SaveState() func() {
	r.saves++
	return func() { r.restores++ }
}

func (r *testRenderer) Dispose() { r.disposed = true }

func (r *testRenderer) draws() []CapturedCall {
	var d []CapturedCall
	for _, c := range r.Calls() {
		if c.Op == OpDraw {
			d = append(d, c)
		}
	}
	return d
}

func verts(n int) []Vertex {
	v := make([]Vertex, n)
	for i := range v {
		v[i] = Vertex{Pos: [2]float32{float32(i), float32(-i)}, Color: RGBA{R: 1, A: 1}, Opacity: 1}
	}
	return v
}

func commands(b *Batcher) []DrawCommand {
	return slices.Collect(b.Commands())
}

func TestBatcherCoalesces(t *testing.T) {
	b := NewBatcher(0)
	if b.Cap() != MaxVertices {
		t.Errorf("default capacity %d, expected %d", b.Cap(), MaxVertices)
	}

	for range 5 {
		if err := b.Append(TopologyTriangles, KindGeometry, 0, verts(3)); err != nil {
			t.Fatal(err)
		}
	}
	cmds := commands(b)
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d: %v", len(cmds), cmds)
	}
	if cmds[0].Start != 0 || cmds[0].Count != 15 {
		t.Errorf("command covers [%d, %d), expected [0, 15)", cmds[0].Start, cmds[0].End())
	}
	if b.State() != StateAccumulating {
		t.Errorf("state %s, expected accumulating", b.State())
	}
}

func TestBatcherTopologyChange(t *testing.T) {
	b := NewBatcher(100)
	if err := b.Append(TopologyLines, KindGeometry, 0, verts(2)); err != nil {
		t.Fatal(err)
	}
	if err := b.Append(TopologyTriangles, KindGeometry, 0, verts(3)); err != nil {
		t.Fatal(err)
	}
	if err := b.Append(TopologyLines, KindGeometry, 0, verts(2)); err != nil {
		t.Fatal(err)
	}

	cmds := commands(b)
	want := []struct {
		t            Topology
		start, count int
	}{
		{TopologyLines, 0, 2},
		{TopologyTriangles, 2, 3},
		{TopologyLines, 5, 2},
	}
	if len(cmds) != len(want) {
		t.Fatalf("got %d commands, expected %d", len(cmds), len(want))
	}
	for i, w := range want {
		if c := cmds[i]; c.Topology != w.t || c.Start != w.start || c.Count != w.count {
			t.Errorf("command %d: got %s, expected %s [%d, %d)", i, c, w.t, w.start, w.start+w.count)
		}
	}
}

func TestBatcherConnectedTopologies(t *testing.T) {
	for _, topo := range []Topology{TopologyLineStrip, TopologyTriangleFan} {
		b := NewBatcher(100)
		for range 3 {
			if err := b.Append(topo, KindGeometry, 0, verts(4)); err != nil {
				t.Fatal(err)
			}
		}
		if n := b.NumCommands(); n != 3 {
			t.Errorf("%s: %d commands, expected 3", topo, n)
		}
	}
}

func TestBatcherSlots(t *testing.T) {
	b := NewBatcher(1000)

	// Alternating between two textures stays in one command.
	for i := range 6 {
		if err := b.Append(TopologyTriangles, KindImage, TextureID(1+i%2), verts(6)); err != nil {
			t.Fatal(err)
		}
	}
	cmds := commands(b)
	if len(cmds) != 1 {
		t.Fatalf("expected 1 command, got %d", len(cmds))
	}
	if cmds[0].Slots[0] != 1 || cmds[0].Slots[1] != 2 || cmds[0].BoundSlots() != 2 {
		t.Errorf("unexpected slots %v", cmds[0].Slots)
	}
	for i, v := range b.buf.Live() {
		if want := int32((i / 6) % 2); v.Slot != want {
			t.Errorf("vertex %d: slot %d, expected %d", i, v.Slot, want)
			break
		}
	}

	// A text draw is a different kind and gets its own command, even with
	// the same texture.
	if err := b.Append(TopologyTriangles, KindText, 1, verts(6)); err != nil {
		t.Fatal(err)
	}
	if b.NumCommands() != 2 {
		t.Errorf("expected text to start a new command")
	}
}

func TestBatcherSlotOverflow(t *testing.T) {
	b := NewBatcher(1000)
	for i := range MaxSlots + 1 {
		if err := b.Append(TopologyTriangles, KindImage, TextureID(i+1), verts(6)); err != nil {
			t.Fatal(err)
		}
	}

	cmds := commands(b)
	if len(cmds) != 2 {
		t.Fatalf("expected 2 commands, got %d", len(cmds))
	}
	if cmds[0].BoundSlots() != MaxSlots || cmds[0].Count != 6*MaxSlots {
		t.Errorf("first command %s", cmds[0])
	}
	if cmds[1].Slots[0] != MaxSlots+1 || cmds[1].BoundSlots() != 1 || cmds[1].Start != 6*MaxSlots {
		t.Errorf("second command %s", cmds[1])
	}
	// The spilled draw samples slot 0 of its new command.
	if v := b.buf.Live()[6*MaxSlots]; v.Slot != 0 {
		t.Errorf("spilled vertex has slot %d", v.Slot)
	}
}

func TestBatcherCapacity(t *testing.T) {
	b := NewBatcher(9)
	if err := b.Append(TopologyTriangles, KindGeometry, 0, verts(6)); err != nil {
		t.Fatal(err)
	}
	if err := b.Append(TopologyTriangles, KindGeometry, 0, verts(3)); err != nil {
		t.Fatalf("exactly filling the buffer: %v", err)
	}
	if b.Remaining() != 0 {
		t.Errorf("%d remaining, expected 0", b.Remaining())
	}

	before := slices.Clone(b.buf.Live())
	err := b.Append(TopologyPoints, KindGeometry, 0, verts(1))
	if !errors.Is(err, ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}
	var ce *CapacityError
	if !errors.As(err, &ce) || ce.Requested != 1 || ce.Buffered != 9 || ce.Capacity != 9 {
		t.Errorf("unexpected capacity error %+v", ce)
	}

	if b.Len() != 9 || b.NumCommands() != 1 || !slices.Equal(before, b.buf.Live()) {
		t.Errorf("failed append modified the batch")
	}
}

func TestBatcherInvalid(t *testing.T) {
	for _, tc := range []struct {
		name string
		t    Topology
		k    Kind
		tex  TextureID
		n    int
		err  error
	}{
		{"no points", TopologyPoints, KindGeometry, 0, 0, ErrInvalidGeometry},
		{"odd lines", TopologyLines, KindGeometry, 0, 3, ErrInvalidGeometry},
		{"short strip", TopologyLineStrip, KindGeometry, 0, 1, ErrInvalidGeometry},
		{"partial triangle", TopologyTriangles, KindGeometry, 0, 4, ErrInvalidGeometry},
		{"short fan", TopologyTriangleFan, KindGeometry, 0, 2, ErrInvalidGeometry},
		{"image without texture", TopologyTriangles, KindImage, 0, 6, ErrNoTexture},
		{"text without texture", TopologyTriangles, KindText, 0, 6, ErrNoTexture},
	} {
		b := NewBatcher(100)
		if err := b.Append(tc.t, tc.k, tc.tex, verts(tc.n)); !errors.Is(err, tc.err) {
			t.Errorf("%s: got %v, expected %v", tc.name, err, tc.err)
		}
		if b.Len() != 0 || b.NumCommands() != 0 || b.State() != StateIdle {
			t.Errorf("%s: failed append changed the batch", tc.name)
		}
	}
}

func TestBatcherFlush(t *testing.T) {
	b := NewBatcher(100)
	rec := NewRecorder(nil)

	if stats := b.Flush(rec); stats != (RendererStats{}) || len(rec.Calls()) != 0 {
		t.Errorf("empty flush made calls: %v", rec.Calls())
	}

	b.Append(TopologyLines, KindGeometry, 0, verts(2))
	b.Append(TopologyTriangles, KindImage, 7, verts(6))
	b.Append(TopologyTriangles, KindImage, 8, verts(6))
	stats := b.Flush(rec)

	var ops []string
	for _, c := range rec.Calls() {
		ops = append(ops, c.String())
	}
	want := []string{
		"upload 14 vertices",
		"use geometry program",
		"draw lines [0, 2)",
		"bind texture 7 to slot 0",
		"bind texture 8 to slot 1",
		"use image program",
		"draw triangles [2, 14)",
	}
	if !slices.Equal(ops, want) {
		t.Errorf("got calls\n%v\nexpected\n%v", ops, want)
	}

	if stats.Flushes != 1 || stats.DrawCalls != 2 || stats.Vertices != 14 || stats.Lines != 1 ||
		stats.Triangles != 4 || stats.TextureBinds != 2 || stats.UploadBytes != 14*VertexStride {
		t.Errorf("unexpected stats %s", stats)
	}

	if b.Len() != 0 || b.NumCommands() != 0 || b.State() != StateIdle {
		t.Errorf("batch not empty after flush: %d vertices, %d commands, %s", b.Len(), b.NumCommands(), b.State())
	}

	rec.Reset()
	b.Flush(rec)
	b.Flush(rec)
	if len(rec.Calls()) != 0 {
		t.Errorf("repeated flush made calls: %v", rec.Calls())
	}
}

// reentrantSubmitter tries to draw while a flush is in progress.
type reentrantSubmitter struct {
	*Recorder
	b   *Batcher
	err error
}

func (s *reentrantSubmitter) Draw(t Topology, start, count int) {
	s.err = s.b.Append(TopologyPoints, KindGeometry, 0, verts(1))
	s.Recorder.Draw(t, start, count)
}

func TestBatcherAppendDuringFlush(t *testing.T) {
	b := NewBatcher(100)
	s := &reentrantSubmitter{Recorder: NewRecorder(nil), b: b}
	b.Append(TopologyPoints, KindGeometry, 0, verts(3))
	b.Flush(s)

	if !errors.Is(s.err, ErrFlushInProgress) {
		t.Errorf("expected ErrFlushInProgress, got %v", s.err)
	}
	if b.Len() != 0 || b.State() != StateIdle {
		t.Errorf("batch not reset after flush")
	}
}

func TestCommandQueue(t *testing.T) {
	var q CommandQueue
	if q.Last() != nil {
		t.Errorf("Last of empty queue should be nil")
	}
	for i := range 3 {
		q.PushBack(DrawCommand{Start: i})
	}
	q.Last().Count = 10

	for i := range 3 {
		c, ok := q.PopFront()
		if !ok || c.Start != i {
			t.Fatalf("pop %d: got %v %v", i, c, ok)
		}
		if i == 2 && c.Count != 10 {
			t.Errorf("modification through Last was lost")
		}
	}
	if _, ok := q.PopFront(); ok || q.Len() != 0 {
		t.Errorf("queue should be empty")
	}
}

func TestStagingBuffer(t *testing.T) {
	b := NewStagingBuffer(4)
	if b.Bytes() != nil {
		t.Errorf("empty buffer should have no bytes")
	}
	v := verts(3)
	v[1].Slot = 5
	if start := b.write(v, 2); start != 0 {
		t.Errorf("write started at %d", start)
	}
	if v[1].Slot != 5 {
		t.Errorf("write modified its argument")
	}
	for i, lv := range b.Live() {
		if lv.Slot != 2 || lv.Pos != v[i].Pos {
			t.Errorf("vertex %d: %+v", i, lv)
		}
	}
	if len(b.Bytes()) != 3*VertexStride || b.Remaining() != 1 {
		t.Errorf("got %d bytes, %d remaining", len(b.Bytes()), b.Remaining())
	}
	b.Reset()
	if b.Len() != 0 || b.Remaining() != 4 {
		t.Errorf("reset didn't empty the buffer")
	}
}

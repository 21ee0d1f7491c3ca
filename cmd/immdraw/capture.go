// cmd/immdraw/capture.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

import (
	"fmt"
	"os"

	"github.com/mmp/immdraw/pkg/log"
	"github.com/mmp/immdraw/pkg/renderer"

	"github.com/goforj/godump"
)

// capturingRenderer records the submission calls made to a Renderer so
// that the most recent frame can be saved with -capture.
type capturingRenderer struct {
	renderer.Renderer
	rec *renderer.Recorder
}

func newCapturingRenderer(r renderer.Renderer) *capturingRenderer {
	return &capturingRenderer{Renderer: r, rec: renderer.NewRecorder(r)}
}

func (c *capturingRenderer) UploadVertices(v []renderer.Vertex) { c.rec.UploadVertices(v) }

func (c *capturingRenderer) BindTexture(slot int, id renderer.TextureID) { c.rec.BindTexture(slot, id) }

func (c *capturingRenderer) UseProgram(k renderer.Kind) { c.rec.UseProgram(k) }

func (c *capturingRenderer) Draw(t renderer.Topology, start, count int) { c.rec.Draw(t, start, count) }

// beginFrame discards the calls from the previous frame.
func (c *capturingRenderer) beginFrame() { c.rec.Reset() }

func (c *capturingRenderer) save(fn string, lg *log.Logger) error {
	fc := c.rec.Capture()

	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err := fc.Write(f); err != nil {
		f.Close()
		return err
	}
	lg.Infof("%s: saved capture with %d calls, %d draws", fn, len(fc.Calls), fc.DrawCalls())
	return f.Close()
}

// dumpCapture prints a capture written with -capture.
func dumpCapture(fn string) error {
	f, err := os.Open(fn)
	if err != nil {
		return err
	}
	defer f.Close()

	fc, err := renderer.ReadFrameCapture(f)
	if err != nil {
		return fmt.Errorf("%s: %w", fn, err)
	}

	fmt.Println(fc)
	godump.Dump(fc.Calls)
	return nil
}

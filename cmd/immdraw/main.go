// cmd/immdraw/main.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package main

// immdraw is a small viewer for the immediate-mode drawing library: it
// draws one of a handful of demo scenes either to a window or, with
// -headless, to a PNG file using the CPU rasterizer.

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"slices"
	"strings"
	"syscall"

	"github.com/mmp/immdraw/pkg/log"
	"github.com/mmp/immdraw/pkg/math"
	"github.com/mmp/immdraw/pkg/platform"
	"github.com/mmp/immdraw/pkg/renderer"
	"github.com/mmp/immdraw/pkg/renderer/ogl"
	"github.com/mmp/immdraw/pkg/renderer/soft"
	"github.com/mmp/immdraw/pkg/util"

	"github.com/apenwarr/fixconsole"
)

var (
	cpuprofile  = flag.String("cpuprofile", "", "write CPU profile to file")
	memprofile  = flag.String("memprofile", "", "write memory profile to this file")
	logLevel    = flag.String("loglevel", "info", "logging level: debug, info, warn, error")
	logDir      = flag.String("logdir", "", "log file directory")
	headless    = flag.String("headless", "", "render without a window using the CPU rasterizer and write the last frame to this PNG file")
	frames      = flag.Int("frames", 0, "number of frames to draw; 0 runs until the window is closed (1 when -headless)")
	sceneName   = flag.String("scene", "", "scene to draw: "+strings.Join(SceneNames(), ", "))
	captureFile = flag.String("capture", "", "write the draw calls of the last frame to this file")
	dumpFile    = flag.String("dumpcapture", "", "print the contents of a file written with -capture and exit")
)

// Default size of the image written with -headless when the config
// doesn't specify a window size.
var defaultHeadlessSize = [2]int{1024, 768}

func setupSignalHandler(profiler *util.Profiler) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigCh
		fmt.Fprintln(os.Stderr, "Caught signal, cleaning up...")
		profiler.Cleanup()
		fmt.Fprintln(os.Stderr, "Cleanup complete, exiting")
		os.Exit(0)
	}()
}

func init() {
	// OpenGL and friends require that all calls be made from the primary
	// application thread, while by default, go allows the main thread to
	// run on different hardware threads over the course of
	// execution. Therefore, we must lock the main thread at startup time.
	runtime.LockOSThread()
}

func main() {
	flag.Parse()

	if err := fixconsole.FixConsoleIfNeeded(); err != nil {
		fmt.Printf("FixConsole: %v\n", err)
	}

	if *dumpFile != "" {
		if err := dumpCapture(*dumpFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	lg := log.New(*logLevel, *logDir)

	profiler, err := util.CreateProfiler(*cpuprofile, *memprofile)
	if err != nil {
		lg.Errorf("%v", err)
	}
	defer profiler.Cleanup()
	setupSignalHandler(&profiler)

	config, configErr := LoadOrMakeDefaultConfig(lg)
	if configErr != nil {
		lg.Errorf("Saved configuration file is corrupt; using defaults: %v", configErr)
	}
	if *sceneName != "" {
		config.Scene = *sceneName
	}
	if _, ok := scenes[config.Scene]; !ok {
		fmt.Fprintf(os.Stderr, "%s: unknown scene. Options: %s\n", config.Scene, strings.Join(SceneNames(), ", "))
		os.Exit(1)
	}

	if *headless != "" {
		err = runHeadless(config, *headless, lg)
	} else {
		err = runWindowed(config, lg)
	}
	if err != nil {
		lg.Errorf("%v", err)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// viewer holds what's needed to draw frames of a scene with any backend.
type viewer struct {
	canvas  *renderer.Canvas
	assets  *Assets
	capture *capturingRenderer
	scene   string
	lg      *log.Logger

	frames int
	stats  renderer.RendererStats
}

func newViewer(r renderer.Renderer, config *Config, lg *log.Logger) (*viewer, error) {
	v := &viewer{scene: config.Scene, lg: lg}
	if *captureFile != "" {
		v.capture = newCapturingRenderer(r)
		r = v.capture
	}

	var err error
	if v.canvas, err = renderer.NewCanvas(r, config.Canvas, lg); err != nil {
		return nil, err
	}
	if v.assets, err = LoadAssets(r, config.FontSize, lg); err != nil {
		return nil, err
	}
	lg.Info("viewer ready", slog.String("scene", v.scene), slog.String("canvas", v.canvas.String()))
	return v, nil
}

// drawFrame draws the scene over the given area with y increasing
// upward. overlay, if non-nil, draws on top of the scene.
func (v *viewer) drawFrame(size [2]float32, t float32, overlay func(c *renderer.Canvas) error) error {
	if v.capture != nil {
		v.capture.beginFrame()
	}

	region := math.Extent2D{P1: size}
	stats, err := v.canvas.Frame(math.Identity3x3().Ortho(0, size[0], 0, size[1]), func() error {
		if err := scenes[v.scene](v.canvas, v.assets, region, t); err != nil {
			return err
		}
		if overlay != nil {
			return overlay(v.canvas)
		}
		return nil
	})
	// Fonts evicted while drawing are only released once the frame's
	// commands have been flushed or discarded.
	v.assets.Fonts.Collect()
	if err != nil {
		return err
	}

	v.frames++
	v.stats.Merge(stats)
	v.lg.Debug("frame", slog.Int("frame", v.frames), slog.Any("stats", stats))
	return nil
}

func (v *viewer) nextScene() {
	names := SceneNames()
	i := slices.Index(names, v.scene)
	v.scene = names[(i+1)%len(names)]
}

func (v *viewer) dispose(r renderer.Renderer) {
	if v.capture != nil {
		if err := v.capture.save(*captureFile, v.lg); err != nil {
			v.lg.Errorf("%s: %v", *captureFile, err)
		}
	}
	v.assets.Dispose(r)
	if v.frames > 0 {
		v.lg.Info("finished", slog.Int("frames", v.frames), slog.Any("stats", v.stats))
	}
}

func runHeadless(config *Config, fn string, lg *log.Logger) error {
	size := config.InitialWindowSize
	if size[0] <= 0 || size[1] <= 0 {
		size = defaultHeadlessSize
	}
	nframes := *frames
	if nframes <= 0 {
		nframes = 1
	}

	r := soft.New(size[0], size[1], lg)
	defer r.Dispose()

	v, err := newViewer(r, config, lg)
	if err != nil {
		return err
	}
	defer v.dispose(r)

	bg := config.Background.WithAlpha(1)
	for i := range nframes {
		r.Clear(bg)
		if err := v.drawFrame([2]float32{float32(size[0]), float32(size[1])}, float32(i)/60, nil); err != nil {
			return err
		}
	}

	f, err := os.Create(fn)
	if err != nil {
		return err
	}
	if err := r.WritePNG(f); err != nil {
		f.Close()
		return err
	}
	lg.Infof("%s: wrote %dx%d image after %d frames", fn, size[0], size[1], nframes)
	return f.Close()
}

func runWindowed(config *Config, lg *log.Logger) error {
	plat, err := platform.New(&config.Config, "immdraw", lg)
	if err != nil {
		return fmt.Errorf("unable to create application window: %w", err)
	}
	defer plat.Dispose()
	lg.Infof("Monitors: %s", strings.Join(plat.GetAllMonitorNames(), ", "))

	render, err := ogl.NewOpenGL3Renderer(config.Canvas.MaxVertices, lg)
	if err != nil {
		return fmt.Errorf("unable to initialize OpenGL: %w", err)
	}
	defer render.Dispose()

	v, err := newViewer(render, config, lg)
	if err != nil {
		return err
	}
	defer v.dispose(render)

	bg := config.Background.WithAlpha(1)
	var paused bool
	var t, lastTime float64
	for !plat.ShouldStop() && (*frames == 0 || v.frames < *frames) {
		plat.ProcessEvents()

		kb := plat.GetKeyboard()
		switch {
		case kb.WasPressed(platform.KeyEscape):
			if plat.IsFullScreen() {
				plat.EnableFullScreen(false)
			} else {
				return saveConfig(config, plat, lg)
			}
		case kb.WasPressed(platform.KeyF11):
			plat.EnableFullScreen(!plat.IsFullScreen())
		case kb.WasPressed(platform.KeyTab):
			v.nextScene()
		case kb.WasPressed(platform.KeySpace):
			paused = !paused
		}

		now := plat.Time()
		if !paused {
			t += now - lastTime
		}
		lastTime = now

		// Mouse wheel adjusts circle tessellation.
		mouse := plat.GetMouse()
		if dy := mouse.Wheel[1]; dy != 0 {
			n := v.canvas.CircleSlices() + int(dy)*8
			if err := v.canvas.SetCircleSlices(math.Max(n, 3)); err != nil {
				lg.Warnf("circle slices: %v", err)
			}
		}

		render.Clear(plat.FramebufferSize(), bg)
		size := plat.DisplaySize()
		cursor := [2]float32{mouse.Pos[0], size[1] - mouse.Pos[1]}
		err := v.drawFrame(size, float32(t), func(c *renderer.Canvas) error {
			color := renderer.White
			if mouse.Down[platform.MouseButtonPrimary] {
				color = yellow
			}
			return c.DrawCircleWireframe(cursor, 8, color)
		})
		if err != nil {
			lg.Errorf("frame %d: %v", v.frames, err)
		}

		plat.SetWindowTitle(fmt.Sprintf("immdraw: %s (%d slices)", v.scene, v.canvas.CircleSlices()))
		plat.PostRender()
	}

	return saveConfig(config, plat, lg)
}

// saveConfig records the window geometry so that the next run starts
// where this one left off.
func saveConfig(config *Config, plat platform.Platform, lg *log.Logger) error {
	if !plat.IsFullScreen() {
		config.InitialWindowSize = plat.WindowSize()
		config.InitialWindowPosition = plat.WindowPosition()
	}
	return config.Save(lg)
}

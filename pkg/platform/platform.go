// pkg/platform/platform.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

// Platform is the interface that abstracts platform-specific features like
// creating windows, mouse and keyboard handling, etc.
type Platform interface {
	// ProcessEvents handles all pending window events. Returns true if
	// there were any events and false otherwise.
	ProcessEvents() bool
	// PostRender performs the buffer swap.
	PostRender()
	// Dispose is called when the application is shutting down and is when
	// resources are be freed.
	Dispose()
	// ShouldStop returns true if the window is to be closed.
	ShouldStop() bool
	// CancelShouldStop cancels a user's request to close the window.
	CancelShouldStop()
	// SetWindowTitle sets the title of the application window.
	SetWindowTitle(text string)
	// EnableVSync specifies whether v-sync should be used when rendering;
	// v-sync is on by default and should only be disabled for benchmarking.
	EnableVSync(sync bool)
	// EnableFullScreen switches between the application running in windowed and fullscreen mode.
	EnableFullScreen(fullscreen bool)
	// IsFullScreen() returns true if the application is in full-screen mode.
	IsFullScreen() bool
	// GetAllMonitorNames() returns an array of all available monitors' names.
	GetAllMonitorNames() []string
	// DisplaySize returns the dimension of the display.
	DisplaySize() [2]float32
	// WindowSize returns the size of the window.
	WindowSize() [2]int
	// WindowPosition returns the position of the window on the screen.
	WindowPosition() [2]int
	// FramebufferSize returns the dimension of the framebuffer.
	FramebufferSize() [2]float32
	// Scaling factor to account for Retina-style displays
	DPIScale() float32
	// Time returns the number of seconds since the platform was created.
	Time() float64

	// GetMouse returns the mouse state as of the last call to
	// ProcessEvents. Positions are in window coordinates with y
	// increasing downward.
	GetMouse() *MouseState
	GetKeyboard() *KeyboardState
}

type Config struct {
	InitialWindowSize     [2]int `json:"initial_window_size"`
	InitialWindowPosition [2]int `json:"initial_window_position"`

	EnableMSAA bool `json:"enable_msaa"`
	VSync      bool `json:"vsync"`

	StartInFullScreen bool `json:"start_in_full_screen"`
	FullScreenMonitor int  `json:"full_screen_monitor"`
}

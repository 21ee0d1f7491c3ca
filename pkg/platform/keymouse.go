// pkg/platform/keymouse.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package platform

import (
	"github.com/mmp/immdraw/pkg/math"

	"github.com/go-gl/glfw/v3.3/glfw"
)

type MouseButton int

const (
	MouseButtonPrimary MouseButton = iota
	MouseButtonSecondary
	MouseButtonTertiary
	MouseButtonCount
)

type MouseState struct {
	Pos      [2]float32
	DeltaPos [2]float32
	Down     [MouseButtonCount]bool
	Clicked  [MouseButtonCount]bool
	Released [MouseButtonCount]bool
	Dragging [MouseButtonCount]bool
	// DragDelta is the total movement since the button that's being
	// dragged was pressed.
	DragDelta [2]float32
	Wheel     [2]float32

	pressPos [MouseButtonCount][2]float32
}

// Movement before a held button is considered a drag.
const dragThreshold = 3

func (ms *MouseState) beginFrame() {
	ms.DeltaPos = [2]float32{}
	ms.Wheel = [2]float32{}
	ms.Clicked = [MouseButtonCount]bool{}
	ms.Released = [MouseButtonCount]bool{}
}

func (ms *MouseState) moveTo(p [2]float32) {
	ms.DeltaPos = math.Add2f(ms.DeltaPos, math.Sub2f(p, ms.Pos))
	ms.Pos = p
	for b := range MouseButtonCount {
		if ms.Down[b] {
			d := math.Sub2f(p, ms.pressPos[b])
			if ms.Dragging[b] || math.Length2f(d) > dragThreshold {
				ms.Dragging[b] = true
				ms.DragDelta = d
			}
		}
	}
}

func (ms *MouseState) setButton(b MouseButton, down bool) {
	if down && !ms.Down[b] {
		ms.Clicked[b] = true
		ms.pressPos[b] = ms.Pos
	} else if !down && ms.Down[b] {
		ms.Released[b] = true
		ms.Dragging[b] = false
		ms.DragDelta = [2]float32{}
	}
	ms.Down[b] = down
}

type Key int

const (
	KeyEnter Key = iota
	KeyEscape
	KeySpace
	KeyTab
	KeyBackspace
	KeyLeftArrow
	KeyRightArrow
	KeyUpArrow
	KeyDownArrow
	KeyPageUp
	KeyPageDown
	KeyHome
	KeyEnd
	KeyF1
	KeyF2
	KeyF3
	KeyF4
	KeyF5
	KeyF6
	KeyF7
	KeyF8
	KeyF9
	KeyF10
	KeyF11
	KeyF12
)

var glfwKeys = map[glfw.Key]Key{
	glfw.KeyEnter:     KeyEnter,
	glfw.KeyKPEnter:   KeyEnter,
	glfw.KeyEscape:    KeyEscape,
	glfw.KeySpace:     KeySpace,
	glfw.KeyTab:       KeyTab,
	glfw.KeyBackspace: KeyBackspace,
	glfw.KeyLeft:      KeyLeftArrow,
	glfw.KeyRight:     KeyRightArrow,
	glfw.KeyUp:        KeyUpArrow,
	glfw.KeyDown:      KeyDownArrow,
	glfw.KeyPageUp:    KeyPageUp,
	glfw.KeyPageDown:  KeyPageDown,
	glfw.KeyHome:      KeyHome,
	glfw.KeyEnd:       KeyEnd,
	glfw.KeyF1:        KeyF1,
	glfw.KeyF2:        KeyF2,
	glfw.KeyF3:        KeyF3,
	glfw.KeyF4:        KeyF4,
	glfw.KeyF5:        KeyF5,
	glfw.KeyF6:        KeyF6,
	glfw.KeyF7:        KeyF7,
	glfw.KeyF8:        KeyF8,
	glfw.KeyF9:        KeyF9,
	glfw.KeyF10:       KeyF10,
	glfw.KeyF11:       KeyF11,
	glfw.KeyF12:       KeyF12,
}

type KeyboardState struct {
	// Characters typed since the last ProcessEvents.
	Input string
	// A key shows up here once each time it is pressed (though repeatedly
	// if key repeat kicks in.)
	Pressed map[Key]struct{}
	Held    map[Key]struct{}

	Shift, Control, Alt, Super bool
}

func (k *KeyboardState) beginFrame() {
	k.Input = ""
	clear(k.Pressed)
}

func (k *KeyboardState) setKey(key Key, down bool) {
	if down {
		k.Pressed[key] = struct{}{}
		k.Held[key] = struct{}{}
	} else {
		delete(k.Held, key)
	}
}

func (k *KeyboardState) WasPressed(key Key) bool {
	_, ok := k.Pressed[key]
	return ok
}

func (k *KeyboardState) IsHeld(key Key) bool {
	_, ok := k.Held[key]
	return ok
}

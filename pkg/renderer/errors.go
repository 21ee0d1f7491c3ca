// pkg/renderer/errors.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package renderer

import (
	"errors"
	"fmt"
)

var (
	ErrCapacityExceeded = errors.New("Vertex capacity exceeded")
	ErrInvalidGeometry  = errors.New("Invalid geometry")
	ErrNoTexture        = errors.New("Textured draw without a texture")
	ErrFlushInProgress  = errors.New("Draw issued during flush")
	ErrFrameInProgress  = errors.New("Frame already in progress")
	ErrNoFrame          = errors.New("No frame in progress")
	ErrUnknownRegion    = errors.New("Unknown atlas region")
	ErrInvalidAtlas     = errors.New("Invalid atlas manifest")
)

// CapacityError is returned when a draw would need more vertices than the
// staging buffer has left. It matches ErrCapacityExceeded with errors.Is.
type CapacityError struct {
	Requested int // vertices the draw needed
	Buffered  int // vertices already staged
	Capacity  int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("%v: %d vertices requested with %d of %d already buffered",
		ErrCapacityExceeded, e.Requested, e.Buffered, e.Capacity)
}

func (e *CapacityError) Unwrap() error {
	return ErrCapacityExceeded
}

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrInvalidGeometry}, args...)...)
}

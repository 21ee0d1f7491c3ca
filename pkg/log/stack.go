// pkg/log/stack.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"log/slog"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// Frames deeper than this aren't recorded; draw calls are rarely more
// than a few levels below the frame loop.
const maxCallstackDepth = 12

const modulePath = "github.com/mmp/immdraw/"

// Frame is a single entry of a Callstack.
type Frame struct {
	File     string `json:"file"`
	Line     int    `json:"line"`
	Function string `json:"function"`
}

func (f Frame) String() string {
	return f.File + ":" + strconv.Itoa(f.Line) + " " + f.Function
}

// Callstack is the chain of calls that led to a log record, innermost
// first. It is logged as a list of "file:line function" strings.
type Callstack []Frame

// CaptureCallstack returns the Callstack of the function calling
// CaptureCallstack, skipping a further skip frames. Frames in the Go
// runtime and the testing package are left out, as is everything above
// main.main.
func CaptureCallstack(skip int) Callstack {
	var pcs [maxCallstackDepth]uintptr
	n := runtime.Callers(skip+2, pcs[:])
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pcs[:n])
	cs := make(Callstack, 0, n)
	for {
		f, more := frames.Next()
		if strings.HasPrefix(f.Function, "runtime.") || strings.HasPrefix(f.Function, "testing.") {
			break
		}
		cs = append(cs, Frame{
			File:     filepath.Base(f.File),
			Line:     f.Line,
			Function: shortFunctionName(f.Function),
		})
		if !more || f.Function == "main.main" {
			break
		}
	}
	return cs
}

// shortFunctionName trims this module's import path so that, e.g.,
// renderer.(*Canvas).Flush is logged instead of its full path.
func shortFunctionName(fn string) string {
	fn = strings.TrimPrefix(fn, modulePath)
	fn = strings.TrimPrefix(fn, "pkg/")
	return strings.TrimPrefix(fn, "main.")
}

func (cs Callstack) LogValue() slog.Value {
	s := make([]string, len(cs))
	for i, f := range cs {
		s[i] = f.String()
	}
	return slog.AnyValue(s)
}

func (cs Callstack) String() string {
	s := make([]string, len(cs))
	for i, f := range cs {
		s[i] = f.String()
	}
	return strings.Join(s, " <- ")
}

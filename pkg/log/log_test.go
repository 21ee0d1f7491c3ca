// pkg/log/log_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
)

func TestNilLogger(t *testing.T) {
	var lg *Logger

	// None of these should crash.
	lg.Debug("debug")
	lg.Debugf("debug %d", 1)
	lg.Info("info")
	lg.Infof("info %d", 2)
	if lg.With("key", "value") != nil {
		t.Errorf("With on a nil Logger should return nil")
	}
}

func TestParseLevel(t *testing.T) {
	for _, tc := range []struct {
		name  string
		level slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	} {
		if l := ParseLevel(tc.name); l != tc.level {
			t.Errorf("%q: got level %v, expected %v", tc.name, l, tc.level)
		}
	}
}

func TestWriterLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWriter(&buf, "warn")

	lg.Info("should not appear")
	lg.Debugf("nor should %s", "this")
	if buf.Len() != 0 {
		t.Errorf("info/debug records written at warn level: %s", buf.String())
	}

	lg.Warnf("flush took %d ms", 12)
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected a single record, got %d: %s", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	if rec["msg"] != "flush took 12 ms" {
		t.Errorf("unexpected message %v", rec["msg"])
	}
	if _, ok := rec["callstack"]; !ok {
		t.Errorf("record is missing the callstack attribute")
	}
}

func TestWithKeepsAttributes(t *testing.T) {
	var buf bytes.Buffer
	lg := NewWriter(&buf, "info").With(slog.String("backend", "soft"))
	lg.Info("frame")

	if !strings.Contains(buf.String(), `"backend":"soft"`) {
		t.Errorf("expected With attribute in output: %s", buf.String())
	}
}

func TestCallstack(t *testing.T) {
	cs := CaptureCallstack(0)
	if len(cs) == 0 {
		t.Fatalf("empty call stack")
	}
	if cs[0].File != "log_test.go" || !strings.HasSuffix(cs[0].Function, "TestCallstack") {
		t.Errorf("innermost frame is %s", cs[0])
	}
	for _, f := range cs {
		if f.File == "" || f.Line == 0 || strings.HasPrefix(f.Function, "testing.") {
			t.Errorf("unexpected frame %s", f)
		}
	}
	if !strings.HasPrefix(cs.String(), "log_test.go:") {
		t.Errorf("callstack string %q", cs.String())
	}
}

func TestCallstackAttribute(t *testing.T) {
	var buf bytes.Buffer
	logFrame := func(lg *Logger) { lg.Debugf("frame %d", 3) }
	logFrame(NewWriter(&buf, "debug"))

	var rec struct {
		Msg       string   `json:"msg"`
		Callstack []string `json:"callstack"`
	}
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("%v: %s", err, buf.String())
	}
	if rec.Msg != "frame 3" || len(rec.Callstack) < 2 {
		t.Fatalf("unexpected record %s", buf.String())
	}
	// The stack starts at the code doing the logging, not in this package's
	// Logger methods.
	if !strings.HasPrefix(rec.Callstack[0], "log_test.go:") || !strings.Contains(rec.Callstack[0], "TestCallstackAttribute.func1") {
		t.Errorf("innermost frame is %q", rec.Callstack[0])
	}
	if !strings.Contains(rec.Callstack[1], "TestCallstackAttribute") {
		t.Errorf("caller frame is %q", rec.Callstack[1])
	}
}

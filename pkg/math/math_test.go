// pkg/math/math_test.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package math

import (
	"testing"
)

func near(a, b [2]float32) bool {
	return Abs(a[0]-b[0]) < 1e-4 && Abs(a[1]-b[1]) < 1e-4
}

func TestClamp(t *testing.T) {
	for _, tc := range []struct {
		x, lo, hi, want float32
	}{
		{0.5, 0, 1, 0.5},
		{-3, 0, 1, 0},
		{7, 0, 1, 1},
		{1, 0, 1, 1},
	} {
		if got := Clamp(tc.x, tc.lo, tc.hi); got != tc.want {
			t.Errorf("Clamp(%f, %f, %f) = %f, expected %f", tc.x, tc.lo, tc.hi, got, tc.want)
		}
	}
}

func TestQuadraticBezier(t *testing.T) {
	p0, p1, c := [2]float32{0, 10}, [2]float32{10, 0}, [2]float32{0, 0}

	if b := QuadraticBezier2f(p0, p1, c, 0); !near(b, p0) {
		t.Errorf("t=0 gave %v, expected %v", b, p0)
	}
	if b := QuadraticBezier2f(p0, p1, c, 1); !near(b, p1) {
		t.Errorf("t=1 gave %v, expected %v", b, p1)
	}
	// Midpoint is .25 p0 + .5 c + .25 p1
	if b := QuadraticBezier2f(p0, p1, c, 0.5); !near(b, [2]float32{2.5, 2.5}) {
		t.Errorf("t=0.5 gave %v, expected [2.5 2.5]", b)
	}
}

func TestRotator(t *testing.T) {
	for _, tc := range []struct {
		angle float32
		p     [2]float32
		want  [2]float32
	}{
		{0, [2]float32{1, 2}, [2]float32{1, 2}},
		{Pi() / 2, [2]float32{1, 0}, [2]float32{0, 1}},
		{Pi(), [2]float32{1, 0}, [2]float32{-1, 0}},
		{-Pi() / 2, [2]float32{0, 1}, [2]float32{1, 0}},
	} {
		if got := Rotator2f(tc.angle)(tc.p); !near(got, tc.want) {
			t.Errorf("rotate %v by %f: got %v, expected %v", tc.p, tc.angle, got, tc.want)
		}
	}
}

func TestOrtho(t *testing.T) {
	m := Identity3x3().Ortho(0, 800, 0, 600)

	for _, tc := range []struct {
		p, ndc [2]float32
	}{
		{[2]float32{0, 0}, [2]float32{-1, -1}},
		{[2]float32{800, 600}, [2]float32{1, 1}},
		{[2]float32{400, 300}, [2]float32{0, 0}},
	} {
		if got := m.TransformPoint(tc.p); !near(got, tc.ndc) {
			t.Errorf("%v: got %v, expected %v", tc.p, got, tc.ndc)
		}
	}

	// The 4x4 version should give the same result for (x, y, 0, 1).
	m4 := m.Matrix4()
	x, y := float32(200), float32(450)
	ndc := [2]float32{m4[0]*x + m4[4]*y + m4[12], m4[1]*x + m4[5]*y + m4[13]}
	if w := m4[3]*x + m4[7]*y + m4[15]; w != 1 {
		t.Errorf("w = %f, expected 1", w)
	}
	if want := m.TransformPoint([2]float32{x, y}); !near(ndc, want) {
		t.Errorf("Matrix4 gave %v, Matrix3 gave %v", ndc, want)
	}
}

func TestTranslateScale(t *testing.T) {
	m := Identity3x3().Translate(10, 20).Scale(2, 3)
	if p := m.TransformPoint([2]float32{1, 1}); !near(p, [2]float32{12, 23}) {
		t.Errorf("got %v, expected [12 23]", p)
	}
	if v := m.TransformVector([2]float32{1, 1}); !near(v, [2]float32{2, 3}) {
		t.Errorf("got %v, expected [2 3]", v)
	}
}

func TestCirclePoints(t *testing.T) {
	pts := CirclePoints(4)
	expected := [][2]float32{{1, 0}, {0, 1}, {-1, 0}, {0, -1}}
	if len(pts) != len(expected) {
		t.Fatalf("got %d points, expected %d", len(pts), len(expected))
	}
	for i := range pts {
		if !near(pts[i], expected[i]) {
			t.Errorf("point %d: got %v, expected %v", i, pts[i], expected[i])
		}
	}

	// Same tessellation returns the cached slice.
	if again := CirclePoints(4); &again[0] != &pts[0] {
		t.Errorf("expected cached points to be returned")
	}
}

func TestExtent(t *testing.T) {
	e := Extent2DFromPoints([][2]float32{{1, 5}, {-2, 3}, {4, -1}})
	if e.P0 != [2]float32{-2, -1} || e.P1 != [2]float32{4, 5} {
		t.Errorf("unexpected extent %v", e)
	}
	if e.Width() != 6 || e.Height() != 6 {
		t.Errorf("unexpected size %f x %f", e.Width(), e.Height())
	}
	if !e.Inside([2]float32{0, 0}) || e.Inside([2]float32{5, 0}) {
		t.Errorf("Inside gave wrong results")
	}
}

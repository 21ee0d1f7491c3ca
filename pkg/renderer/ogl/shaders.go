// pkg/renderer/ogl/shaders.go
// Copyright(c) 2022-2024 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package ogl

import (
	"fmt"
	"strings"

	"github.com/mmp/immdraw/pkg/renderer"

	"github.com/go-gl/gl/v3.3-core/gl"
)

// Attribute locations; these must match the layout of renderer.Vertex.
const (
	attribPos = iota
	attribUV
	attribColor
	attribSlot
	attribOpacity
)

const vertexShader = `#version 330 core
layout(location = 0) in vec2 aPos;
layout(location = 1) in vec2 aUV;
layout(location = 2) in vec4 aColor;
layout(location = 3) in int aSlot;
layout(location = 4) in float aOpacity;

uniform mat4 projection;

out vec2 vUV;
out vec4 vColor;
flat out int vSlot;
out float vOpacity;

void main() {
    vUV = aUV;
    vColor = aColor;
    vSlot = aSlot;
    vOpacity = aOpacity;
    gl_Position = projection * vec4(aPos, 0.0, 1.0);
}
`

const geometryFragmentShader = `#version 330 core
in vec4 vColor;
out vec4 fragColor;

void main() {
    fragColor = vColor;
}
`

// The sprite's vertex color carries the blend color in rgb and the blend
// factor in alpha.
const spriteFragmentMain = `
void main() {
    vec4 texel = sampleSlot(vSlot, vUV);
    fragColor = vec4(mix(texel.rgb, vColor.rgb, vColor.a), texel.a * vOpacity);
}
`

const textFragmentMain = `
void main() {
    vec4 texel = sampleSlot(vSlot, vUV);
    fragColor = vec4(vColor.rgb, vColor.a * texel.a);
}
`

// texturedFragmentShader returns the source of a fragment shader that can
// sample any of the renderer.MaxSlots textures. GLSL 3.30 doesn't allow
// indexing a sampler array with a varying, so the lookup is unrolled.
func texturedFragmentShader(main string) string {
	var sb strings.Builder
	sb.WriteString("#version 330 core\n")
	sb.WriteString("in vec2 vUV;\nin vec4 vColor;\nflat in int vSlot;\nin float vOpacity;\n")
	sb.WriteString("out vec4 fragColor;\n\n")
	fmt.Fprintf(&sb, "uniform sampler2D slots[%d];\n\n", renderer.MaxSlots)
	sb.WriteString("vec4 sampleSlot(int s, vec2 uv) {\n")
	for i := range renderer.MaxSlots {
		fmt.Fprintf(&sb, "    if (s == %d) return texture(slots[%d], uv);\n", i, i)
	}
	sb.WriteString("    return vec4(1.0, 0.0, 1.0, 1.0);\n}\n")
	sb.WriteString(main)
	return sb.String()
}

type program struct {
	id            uint32
	projectionLoc int32
	slotsLoc      int32
	// Set when the projection uniform doesn't match the renderer's.
	stale bool
}

func newProgram(kind renderer.Kind, fragment string) (*program, error) {
	id, err := compileProgram(vertexShader, fragment)
	if err != nil {
		return nil, fmt.Errorf("%s program: %w", kind, err)
	}

	p := &program{
		id:            id,
		projectionLoc: gl.GetUniformLocation(id, gl.Str("projection\x00")),
		slotsLoc:      gl.GetUniformLocation(id, gl.Str("slots\x00")),
		stale:         true,
	}

	if p.slotsLoc != -1 {
		// Slot i samples texture unit i.
		var units [renderer.MaxSlots]int32
		for i := range units {
			units[i] = int32(i)
		}
		gl.UseProgram(id)
		gl.Uniform1iv(p.slotsLoc, renderer.MaxSlots, &units[0])
		gl.UseProgram(0)
	}
	return p, nil
}

func compileShader(kind uint32, source string) (uint32, error) {
	shader := gl.CreateShader(kind)
	csource, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csource, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetShaderInfoLog(shader, logLength, nil, &log[0])
		gl.DeleteShader(shader)
		return 0, fmt.Errorf("compile: %s", strings.TrimRight(string(log), "\x00"))
	}
	return shader, nil
}

func compileProgram(vertexSource, fragmentSource string) (uint32, error) {
	vs, err := compileShader(gl.VERTEX_SHADER, vertexSource)
	if err != nil {
		return 0, fmt.Errorf("vertex shader: %w", err)
	}
	defer gl.DeleteShader(vs)

	fs, err := compileShader(gl.FRAGMENT_SHADER, fragmentSource)
	if err != nil {
		return 0, fmt.Errorf("fragment shader: %w", err)
	}
	defer gl.DeleteShader(fs)

	prog := gl.CreateProgram()
	gl.AttachShader(prog, vs)
	gl.AttachShader(prog, fs)
	gl.LinkProgram(prog)

	var status int32
	gl.GetProgramiv(prog, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(prog, gl.INFO_LOG_LENGTH, &logLength)
		log := make([]byte, logLength+1)
		gl.GetProgramInfoLog(prog, logLength, nil, &log[0])
		gl.DeleteProgram(prog)
		return 0, fmt.Errorf("link: %s", strings.TrimRight(string(log), "\x00"))
	}
	return prog, nil
}

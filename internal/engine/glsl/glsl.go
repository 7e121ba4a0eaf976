// Package glsl holds the mesh shader sources and a light syntax check that
// runs before sources reach the driver.
package glsl

import (
	"errors"
	"fmt"
	"strings"
)

// ErrSyntax is wrapped by every Check failure.
var ErrSyntax = errors.New("syntax error")

// Attribute locations shared by the shaders and the renderer.
const (
	LocPosition = 0
	LocNormal   = 1
	LocColor    = 2
	LocScalar   = 3
)

// MeshVertex is the default vertex stage for mesh drawing.
const MeshVertex = `#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec4 aColor;
layout (location = 3) in float aScalar;

uniform mat4 uMVP;
uniform mat4 uModelView;
uniform float uPointSize;

out vec3 vNormal;
out vec4 vColor;
out float vScalar;

void main() {
    gl_Position = uMVP * vec4(aPosition, 1.0);
    gl_PointSize = uPointSize;
    vNormal = mat3(uModelView) * aNormal;
    vColor = aColor;
    vScalar = aScalar;
}
`

// MeshFragment is the default fragment stage for mesh drawing. With
// uUseTexture set, colors come from the lookup table texture indexed by the
// interpolated scalar.
const MeshFragment = `#version 410 core

in vec3 vNormal;
in vec4 vColor;
in float vScalar;

uniform sampler1D uLookupTable;
uniform bool uUseTexture;
uniform bool uLighting;
uniform float uOpacity;

out vec4 FragColor;

void main() {
    vec4 base = uUseTexture ? texture(uLookupTable, vScalar) : vColor;
    float shade = 1.0;
    if (uLighting) {
        vec3 n = normalize(vNormal);
        shade = 0.3 + 0.7 * abs(n.z);
    }
    FragColor = vec4(base.rgb * shade, base.a * uOpacity);
}
`

// BackgroundVertex and BackgroundFragment draw the radial gradient on a
// full screen triangle.
const BackgroundVertex = `#version 410 core

out vec2 vUV;

void main() {
    vec2 p = vec2((gl_VertexID << 1) & 2, gl_VertexID & 2);
    vUV = p;
    gl_Position = vec4(p * 2.0 - 1.0, 0.999, 1.0);
}
`

const BackgroundFragment = `#version 410 core

in vec2 vUV;

uniform vec3 uInner;
uniform vec3 uOuter;
uniform vec2 uAspect;

out vec4 FragColor;

void main() {
    vec2 d = (vUV - 0.5) * uAspect;
    float t = clamp(length(d) / length(0.5 * uAspect), 0.0, 1.0);
    FragColor = vec4(mix(uInner, uOuter, t), 1.0);
}
`

// IDVertex and IDFragment draw element ids encoded in the color attribute
// into the selection buffer, unlit and unblended.
const IDVertex = `#version 410 core

layout (location = 0) in vec3 aPosition;
layout (location = 2) in vec4 aColor;

uniform mat4 uMVP;
uniform float uPointSize;

flat out vec4 vID;

void main() {
    gl_Position = uMVP * vec4(aPosition, 1.0);
    gl_PointSize = uPointSize;
    vID = aColor;
}
`

const IDFragment = `#version 410 core

flat in vec4 vID;

out vec4 FragColor;

void main() {
    FragColor = vID;
}
`

// Check rejects sources the driver would certainly refuse: unbalanced
// brackets, unterminated block comments and a missing main. Diagnostics
// follow the driver's "0:line(col): error: ..." layout.
func Check(src string) error {
	if strings.TrimSpace(src) == "" {
		return fmt.Errorf("0:1(1): error: %w: empty shader source", ErrSyntax)
	}

	type open struct {
		ch        byte
		line, col int
	}
	var stack []open
	line, col := 1, 0
	pairs := map[byte]byte{')': '(', ']': '[', '}': '{'}

	for i := 0; i < len(src); i++ {
		ch := src[i]
		col++
		switch {
		case ch == '\n':
			line, col = line+1, 0
		case ch == '/' && i+1 < len(src) && src[i+1] == '/':
			for i < len(src) && src[i] != '\n' {
				i++
			}
			line, col = line+1, 0
		case ch == '/' && i+1 < len(src) && src[i+1] == '*':
			startLine, startCol := line, col
			end := strings.Index(src[i+2:], "*/")
			if end < 0 {
				return fmt.Errorf("0:%d(%d): error: %w: unterminated comment", startLine, startCol, ErrSyntax)
			}
			body := src[i : i+2+end+2]
			line += strings.Count(body, "\n")
			i += len(body) - 1
		case ch == '(' || ch == '[' || ch == '{':
			stack = append(stack, open{ch, line, col})
		case ch == ')' || ch == ']' || ch == '}':
			if len(stack) == 0 || stack[len(stack)-1].ch != pairs[ch] {
				return fmt.Errorf("0:%d(%d): error: %w, unexpected '%c'", line, col, ErrSyntax, ch)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		o := stack[len(stack)-1]
		return fmt.Errorf("0:%d(%d): error: %w, unexpected end of file, unclosed '%c'", o.line, o.col, ErrSyntax, o.ch)
	}
	if !strings.Contains(src, "main") {
		return fmt.Errorf("0:%d(1): error: %w: no definition of main()", line, ErrSyntax)
	}
	return nil
}

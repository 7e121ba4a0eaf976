package glsl

import (
	"errors"
	"strings"
	"testing"
)

func TestCheckDefaults(t *testing.T) {
	for name, src := range map[string]string{
		"MeshVertex":         MeshVertex,
		"MeshFragment":       MeshFragment,
		"BackgroundVertex":   BackgroundVertex,
		"BackgroundFragment": BackgroundFragment,
		"IDVertex":           IDVertex,
		"IDFragment":         IDFragment,
	} {
		if err := Check(src); err != nil {
			t.Errorf("Check(%s) = %v", name, err)
		}
	}
}

func TestCheckRejects(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"empty", "  \n", "0:1(1)"},
		{"unclosed brace", "void main() {\n  gl_Position = vec4(1.0);\n", "0:1(13)"},
		{"stray paren", "void main() {\n  x = 1);\n}\n", "0:2(8)"},
		{"mismatched", "void main() { x[0) }", "unexpected ')'"},
		{"comment", "void main() {} /* open", "unterminated comment"},
		{"no main", "float f() { return 1.0; }", "main()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(tt.src)
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("error %v does not wrap ErrSyntax", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestCheckIgnoresBracketsInComments(t *testing.T) {
	src := "// {\nvoid main() {\n  /* ) ( */\n}\n"
	if err := Check(src); err != nil {
		t.Errorf("Check() = %v", err)
	}
}

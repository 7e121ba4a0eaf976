package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const quadVTK = `# vtk DataFile Version 3.0
quad
ASCII
DATASET POLYDATA
POINTS 4 float
0 0 0 1 0 0 1 1 0 0 1 0
POLYGONS 1 5
4 0 1 2 3
CELL_DATA 1
SCALARS pressure float 1
LOOKUP_TABLE default
3.5
POINT_DATA 4
SCALARS height float 1
LOOKUP_TABLE default
0 0 1 1
`

// run executes the CLI with a private config file so a user config never
// leaks into the test.
func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "meshview.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("window:\n  width: 800\n  height: 600\n"), 0644))

	var out bytes.Buffer
	err := Execute(append([]string{"--config", cfgPath, "-q"}, args...), &out)
	return out.String(), err
}

func writeQuad(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quad.vtk")
	require.NoError(t, os.WriteFile(path, []byte(quadVTK), 0644))
	return path
}

func TestPresets(t *testing.T) {
	out, err := run(t, "presets")
	require.NoError(t, err)
	lines := strings.Fields(out)
	assert.Equal(t, []string{"Spectrum", "Warm", "Cool", "Blues", "WildFlower", "Citrus"}, lines)
}

func TestFormats(t *testing.T) {
	out, err := run(t, "formats")
	require.NoError(t, err)
	assert.Contains(t, out, "VTK legacy")
	assert.Contains(t, out, "disabled: import hangs")
	assert.Contains(t, out, "[.stl]")
}

func TestLUT(t *testing.T) {
	out, err := run(t, "lut", "Spectrum", "0", "6")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 8, "header plus seven control points")
	assert.Equal(t, []string{"0", "#000000"}, strings.Fields(lines[1]))
	assert.Equal(t, []string{"6", "#a65628"}, strings.Fields(lines[7]))

	out, err = run(t, "lut", "Warm", "--samples", "3", "--", "1", "-1")
	require.NoError(t, err)
	lines = strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "-1", strings.Fields(lines[1])[0], "reversed bounds are swapped")
	assert.Equal(t, "1", strings.Fields(lines[3])[0])
}

func TestLUTErrors(t *testing.T) {
	_, err := run(t, "lut", "Jet", "0", "1")
	assert.ErrorContains(t, err, "Jet")

	_, err = run(t, "lut", "Cool", "low", "1")
	assert.ErrorContains(t, err, "min")
}

func TestInspect(t *testing.T) {
	out, err := run(t, "inspect", writeQuad(t))
	require.NoError(t, err)

	assert.Contains(t, out, "points: 4\n")
	assert.Contains(t, out, "cells:  1 (verts 0, lines 0, polys 1, strips 0)")
	assert.Contains(t, out, "bounds: [0 0 0] - [1 1 0]")
	assert.Regexp(t, `POINT\s+height\s+1\s+0 \.\. 1`, out)
	assert.Regexp(t, `CELL\s+pressure\s+1\s+3\.5 \.\. 3\.5`, out)
}

func TestInspectUnknownFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	_, err := run(t, "inspect", path)
	assert.Error(t, err)
}

func TestPickWholeViewport(t *testing.T) {
	out, err := run(t, "pick", writeQuad(t))
	require.NoError(t, err)
	assert.Contains(t, out, "field: POINT\n")
	assert.Contains(t, out, "ids:   0;1;2;3\n")
	assert.Contains(t, out, "height: 0;0;1;1\n")
}

func TestPickCells(t *testing.T) {
	out, err := run(t, "pick", writeQuad(t), "--field", "cell", "--array", "pressure")
	require.NoError(t, err)
	assert.Contains(t, out, "field: CELL\n")
	assert.Contains(t, out, "ids:   0\n")
	assert.Contains(t, out, "pressure: 3.5\n")
}

func TestPickEmptyRect(t *testing.T) {
	out, err := run(t, "pick", writeQuad(t), "--rect", "0,0,5,5")
	require.NoError(t, err)
	assert.Contains(t, out, "ids:   \n")
}

func TestPickErrors(t *testing.T) {
	quad := writeQuad(t)

	_, err := run(t, "pick", quad, "--rect", "1,2,3")
	assert.ErrorContains(t, err, "x0,y0,x1,y1")

	_, err = run(t, "pick", quad, "--field", "FIELD")
	assert.ErrorContains(t, err, "pick_field")

	_, err = run(t, "pick", quad, "--array", "missing")
	assert.Error(t, err)
}

func TestExtraCommandsSeeConfig(t *testing.T) {
	var width int
	extra := func(env *Env) *cobra.Command {
		return &cobra.Command{
			Use: "probe",
			Run: func(*cobra.Command, []string) { width = env.Config.Window.Width },
		}
	}

	cfgPath := filepath.Join(t.TempDir(), "meshview.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("window:\n  width: 640\n"), 0644))
	require.NoError(t, Execute([]string{"--config", cfgPath, "-q", "probe"}, &bytes.Buffer{}, extra))
	assert.Equal(t, 640, width)

	require.NoError(t, Execute([]string{"--config", cfgPath, "-q", "--width", "1024", "probe"}, &bytes.Buffer{}, extra))
	assert.Equal(t, 1024, width)
}

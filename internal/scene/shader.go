package scene

import (
	"errors"

	"go.uber.org/zap"
)

// ShaderResult is the outcome of replacing a shader stage's source.
type ShaderResult struct {
	OK         bool
	Diagnostic string
}

// Err converts a failed result into a ShaderCompileFailed error.
func (r ShaderResult) Err(stage ShaderStage) error {
	if r.OK {
		return nil
	}
	return newError(ShaderCompileFailed, "set shader source", stage.String(), errors.New(r.Diagnostic))
}

// SetShaderSource replaces one stage of the actor's shader program and
// recompiles it. Before the first render there is no program; the call then
// does nothing and reports OK along with a ShaderProgramNotReady error.
// A source that fails to compile is rejected and the previous program
// stays in use.
func (c *Controller) SetShaderSource(stage ShaderStage, source string) (ShaderResult, error) {
	prog := c.shaderProgram()
	if prog == nil {
		return ShaderResult{OK: true}, newError(ShaderProgramNotReady, "set shader source", stage.String(), nil)
	}
	if err := prog.Compile(stage, source); err != nil {
		res := ShaderResult{Diagnostic: err.Error()}
		c.log.Warn("shader rejected", zap.Stringer("stage", stage), zap.Error(err))
		return res, res.Err(stage)
	}
	c.log.Debug("shader replaced", zap.Stringer("stage", stage), zap.Int("length", len(source)))
	return ShaderResult{OK: true}, nil
}

// ShaderSource returns the current source of one stage, or a
// ShaderProgramNotReady error before the first render.
func (c *Controller) ShaderSource(stage ShaderStage) (string, error) {
	prog := c.shaderProgram()
	if prog == nil {
		return "", newError(ShaderProgramNotReady, "get shader source", stage.String(), nil)
	}
	return prog.Source(stage), nil
}

func (c *Controller) shaderProgram() ShaderProgram {
	if c.backend.Renderer == nil {
		return nil
	}
	return c.backend.Renderer.ShaderProgram()
}

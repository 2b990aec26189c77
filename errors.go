package texquad

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotReady is returned by Pipeline.Draw before initialization completes.
var ErrNotReady = errors.New("texquad: pipeline not ready")

// ShaderCompileError reports a shader unit that failed the backend compile
// check. It is fatal for the process: shader source is fixed at build time.
type ShaderCompileError struct {
	Kind   ShaderKind
	Source string
	Log    string // Backend info log, never empty
}

func (e *ShaderCompileError) Error() string {
	return fmt.Sprintf("%s shader compilation failed: %s", e.Kind, strings.TrimSpace(e.Log))
}

// NumberedSource returns the shader source with 1-based line numbers.
func (e *ShaderCompileError) NumberedSource() string {
	var sb strings.Builder
	for i, line := range strings.Split(e.Source, "\n") {
		fmt.Fprintf(&sb, "%4d  %s\n", i+1, line)
	}
	return sb.String()
}

// ProgramLinkError reports a program that failed the link-status check.
type ProgramLinkError struct {
	Log string
}

func (e *ProgramLinkError) Error() string {
	return fmt.Sprintf("shader program linking failed: %s", strings.TrimSpace(e.Log))
}

// BindingResolutionError reports a required attribute or uniform that did not
// resolve to a valid location after linking.
type BindingResolutionError struct {
	Kind   string // "attribute" or "uniform"
	Name   string // Symbolic name, e.g. "viewport"
	Symbol string // Shader identifier, e.g. "uViewport"
}

func (e *BindingResolutionError) Error() string {
	return fmt.Sprintf("%s %q (%s) not found in program", e.Kind, e.Name, e.Symbol)
}

// TextureLoadError reports an image resource that could not be fetched or decoded.
type TextureLoadError struct {
	Ref string
	Err error
}

func (e *TextureLoadError) Error() string {
	return fmt.Sprintf("load texture %q: %v", e.Ref, e.Err)
}

func (e *TextureLoadError) Unwrap() error { return e.Err }

// TextureLoadTimeout reports an image load that did not resolve in time.
type TextureLoadTimeout struct {
	Ref   string
	After time.Duration
}

func (e *TextureLoadTimeout) Error() string {
	return fmt.Sprintf("load texture %q: timed out after %s", e.Ref, e.After)
}

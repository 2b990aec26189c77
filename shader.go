package texquad

import (
	"errors"
	"log/slog"
	"strings"
)

// Shader is a compiled shader unit. It is owned by the Program it is linked
// into and deleted once linking succeeds.
type Shader struct {
	ID       uint32
	Kind     ShaderKind
	Source   string
	Compiled bool
}

// Compile compiles one shader source string into a validated shader unit.
// On failure the source is logged line by line and a *ShaderCompileError
// carrying the backend info log is returned.
func Compile(dev Device, kind ShaderKind, source string) (*Shader, error) {
	return compile(dev, logger, kind, source)
}

func compile(dev Device, log *slog.Logger, kind ShaderKind, source string) (*Shader, error) {
	if kind != VertexShader && kind != FragmentShader {
		return nil, errors.New("unknown shader kind")
	}
	if strings.TrimSpace(source) == "" {
		return nil, &ShaderCompileError{Kind: kind, Source: source, Log: "empty shader source"}
	}

	id := dev.CreateShader(kind)
	dev.ShaderSource(id, source)
	dev.CompileShader(id)

	if !dev.ShaderCompiled(id) {
		infoLog := strings.TrimRight(dev.ShaderInfoLog(id), "\x00")
		if strings.TrimSpace(infoLog) == "" {
			infoLog = "compile status false, no info log"
		}
		dev.DeleteShader(id)

		log.Error("shader compilation failed", "kind", kind, "log", strings.TrimSpace(infoLog))
		for i, line := range strings.Split(source, "\n") {
			log.Error("source", "line", i+1, "text", line)
		}
		return nil, &ShaderCompileError{Kind: kind, Source: source, Log: infoLog}
	}

	log.Debug("shader compiled", "kind", kind, "id", id)
	return &Shader{ID: id, Kind: kind, Source: source, Compiled: true}, nil
}

package gpu

import "fmt"

// Stage identifies the GPU step at which building a program failed.
type Stage int

const (
	StageCompile Stage = iota
	StageLink
	StageValidate
)

func (s Stage) String() string {
	switch s {
	case StageCompile:
		return "compile"
	case StageLink:
		return "link"
	case StageValidate:
		return "validate"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// CompileError carries the driver info log of a failed program build.
type CompileError struct {
	Stage  Stage
	Shader string // "vertex" or "fragment" for StageCompile
	Label  string
	Log    string
}

func (e *CompileError) Error() string {
	if e.Shader != "" {
		return fmt.Sprintf("%s: failed to %s %s shader: %s", e.Label, e.Stage, e.Shader, e.Log)
	}
	return fmt.Sprintf("%s: failed to %s program: %s", e.Label, e.Stage, e.Log)
}

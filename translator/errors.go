package translator

import (
	"errors"
	"fmt"

	"github.com/richinsley/gomilkdrop/gpu"
	"github.com/richinsley/gomilkdrop/pipeline"
)

// ErrEmptySource signals that a preset has no custom shader of a kind. The
// caller falls back to the default program; it is not a failure.
var ErrEmptySource = errors.New("empty shader source")

// Stage identifies where a transpile failed.
type Stage int

const (
	StageRewrite Stage = iota
	StageResources
	StagePreprocess
	StageParse
	StageCodeGen
	StageCompile
	StageLink
	StageValidate
)

func (s Stage) String() string {
	switch s {
	case StageRewrite:
		return "rewrite"
	case StageResources:
		return "resources"
	case StagePreprocess:
		return "preprocess"
	case StageParse:
		return "parse"
	case StageCodeGen:
		return "codegen"
	case StageCompile:
		return "compile"
	case StageLink:
		return "link"
	case StageValidate:
		return "validate"
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// StageError is returned for every failed transpile. Source is the text the
// failing stage was given.
type StageError struct {
	Kind   pipeline.Kind
	Stage  Stage
	Err    error
	Source string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s shader: %s: %v", e.Kind, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// Structural errors raised by the rewrite stage.
var (
	ErrNoBodyMarker  = errors.New("missing shader_body marker")
	ErrNoOpenBrace   = errors.New("missing opening brace after shader_body")
	ErrNoCloseBrace  = errors.New("missing closing brace")
	ErrMissingEntry  = errors.New("entry point PS not defined")
	ErrUnbalanced    = errors.New("unbalanced brackets")
	ErrUnterminated  = errors.New("unterminated conditional")
	ErrUnsupported   = errors.New("unsupported directive")
	ErrMacroArgCount = errors.New("wrong number of macro arguments")
)

// stageOf maps a GPU compile error onto a transpile stage.
func stageOf(err error) Stage {
	var ce *gpu.CompileError
	if errors.As(err, &ce) {
		switch ce.Stage {
		case gpu.StageLink:
			return StageLink
		case gpu.StageValidate:
			return StageValidate
		}
	}
	return StageCompile
}

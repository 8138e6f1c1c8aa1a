// Package translator compiles preset warp and composite shaders. Preset
// code is rewritten into an entry point, its texture references are
// resolved, and the result is lowered to GLSL and compiled.
package translator

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/richinsley/gomilkdrop/gpu"
	"github.com/richinsley/gomilkdrop/logging"
	"github.com/richinsley/gomilkdrop/pipeline"
	"github.com/richinsley/gomilkdrop/shader"
	"github.com/richinsley/gomilkdrop/texture"
)

// Output is a translated shader that has not been compiled yet.
type Output struct {
	Fragment string
	Vertex   string
	Bindings map[string]texture.Binding
	// Names maps declared uniform and varying names to generated ones.
	Names map[string]string
}

// Result is a compiled preset shader. The caller owns one reference to
// Program.
type Result struct {
	Program *gpu.Program
	Cache   *pipeline.ShaderCache
	GLSL    string
}

type Transpiler struct {
	backend gpu.Backend
	store   texture.Store
	gen     Generator
}

// New returns a transpiler compiling through b and resolving textures in
// store. A nil gen uses Passthrough.
func New(b gpu.Backend, store texture.Store, gen Generator) *Transpiler {
	if gen == nil {
		gen = Passthrough{}
	}
	return &Transpiler{backend: b, store: store, gen: gen}
}

// Translate runs every stage short of compiling. It returns ErrEmptySource
// unwrapped when src holds no code.
func (t *Transpiler) Translate(ctx context.Context, kind pipeline.Kind, src string) (*Output, error) {
	if strings.TrimSpace(src) == "" {
		return nil, ErrEmptySource
	}

	code, err := rewrite(kind, src)
	if err != nil {
		return nil, &StageError{Kind: kind, Stage: StageRewrite, Err: err, Source: src}
	}

	bindings, err := t.resolve(scanReferences(code))
	if err != nil {
		return nil, &StageError{Kind: kind, Stage: StageResources, Err: err, Source: code}
	}

	full := shader.PresetHeader + code
	pre, err := preprocess(full)
	if err != nil {
		return nil, &StageError{Kind: kind, Stage: StagePreprocess, Err: err, Source: full}
	}

	declared := declare(pre, bindings)
	lowered, err := lower(declared)
	if err != nil {
		return nil, &StageError{Kind: kind, Stage: StageParse, Err: err, Source: declared}
	}

	glsl := shader.GLSLPrelude + lowered + shader.MainWrapper(kind == pipeline.Warp)
	gen, err := t.gen.Generate(ctx, glsl)
	if err != nil {
		return nil, &StageError{Kind: kind, Stage: StageCodeGen, Err: err, Source: glsl}
	}

	v := shader.Varyings{
		Color:     mappedName(gen.Names, shader.DefaultVaryings.Color),
		TexCoord0: mappedName(gen.Names, shader.DefaultVaryings.TexCoord0),
		TexCoord1: mappedName(gen.Names, shader.DefaultVaryings.TexCoord1),
	}
	vertex := shader.CompositeVertexShader(v)
	if kind == pipeline.Warp {
		vertex = shader.WarpVertexShader(v)
	}
	return &Output{Fragment: gen.Code, Vertex: vertex, Bindings: bindings, Names: gen.Names}, nil
}

func mappedName(names map[string]string, name string) string {
	if m, ok := names[name]; ok && m != "" {
		return m
	}
	return name
}

// resolve binds the baseline textures, every scanned sampler the store can
// provide and the blur levels in use.
func (t *Transpiler) resolve(refs references) (map[string]texture.Binding, error) {
	bindings := make(map[string]texture.Binding)
	for _, name := range Baseline {
		b, ok := t.store.Resolve(name, gpu.WrapRepeat, gpu.FilterLinear)
		if !ok {
			return nil, fmt.Errorf("baseline texture %q not available", name)
		}
		bindings[name] = b
	}

	for _, name := range refs.samplers {
		if _, ok := bindings[name]; ok {
			continue
		}
		b, ok := t.store.Resolve(name, gpu.WrapRepeat, gpu.FilterLinear)
		if !ok {
			b, ok = t.store.Load(name)
		}
		if !ok {
			logging.Logger().Warn("unresolved sampler, binding omitted", "sampler", samplerPrefix+name)
			continue
		}
		bindings[name] = b
	}

	blurs := t.store.BlurTextures()
	for level := 1; level <= refs.blurLevel; level++ {
		if len(blurs) < level*2 {
			return nil, fmt.Errorf("blur level %d not available", level)
		}
		tex := blurs[level*2-1]
		bindings[fmt.Sprintf("blur%d", level)] = texture.Binding{Texture: tex, Sampler: tex.Sampler(gpu.WrapClamp, gpu.FilterLinear)}
	}
	return bindings, nil
}

// Transpile translates and compiles src. Failures are logged with the
// stage and the source that stage was given, and returned as *StageError.
func (t *Transpiler) Transpile(ctx context.Context, kind pipeline.Kind, src pipeline.Source) (*Result, error) {
	out, err := t.Translate(ctx, kind, src.Text)
	if err != nil {
		if errors.Is(err, ErrEmptySource) {
			return nil, err
		}
		t.report(src, err)
		return nil, err
	}

	label := kind.String()
	if src.FileName != "" {
		label += ":" + filepath.Base(src.FileName)
	} else if src.PresetPath != "" {
		label += ":" + filepath.Base(src.PresetPath)
	}
	id, err := t.backend.CompileProgram(out.Vertex, out.Fragment, label)
	if err != nil {
		serr := &StageError{Kind: kind, Stage: stageOf(err), Err: err, Source: out.Fragment}
		t.report(src, serr)
		return nil, serr
	}

	return &Result{
		Program: gpu.NewProgram(id, label, t.backend.DeleteProgram),
		Cache:   pipeline.NewShaderCache(kind, src, out.Bindings, out.Names),
		GLSL:    out.Fragment,
	}, nil
}

func (t *Transpiler) report(src pipeline.Source, err error) {
	var serr *StageError
	if !errors.As(err, &serr) {
		logging.Logger().Warn("shader translation failed", "file", src.FileName, "err", err)
		return
	}
	logging.Logger().Warn("shader translation failed",
		"kind", serr.Kind.String(),
		"stage", serr.Stage.String(),
		"file", src.FileName,
		"preset", src.PresetPath,
		"err", serr.Err,
		"source", serr.Source,
	)
}

// Package engine compiles preset shaders in the background and binds
// them for rendering.
package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gomilkdrop/gpu"
	"github.com/richinsley/gomilkdrop/logging"
	"github.com/richinsley/gomilkdrop/pipeline"
	"github.com/richinsley/gomilkdrop/texture"
	"github.com/richinsley/gomilkdrop/translator"
)

// Config wires an engine to its collaborators. Activate and Deactivate
// make the compile context current on the worker thread; both may be nil
// when a single context is shared.
type Config struct {
	Backend    gpu.Backend
	Textures   texture.Store
	Transpiler *translator.Transpiler
	Defaults   *DefaultPrograms
	Audio      AudioSource

	Width, Height int
	Seed          int64

	Activate   func()
	Deactivate func()
}

// Engine owns the active preset shaders.
type Engine struct {
	backend    gpu.Backend
	textures   texture.Store
	transpiler *translator.Transpiler
	defaults   *DefaultPrograms
	state      *presetState
	binder     *Binder
	sched      *Scheduler

	mu        sync.Mutex
	warp      pipeline.ShaderPair
	composite pipeline.ShaderPair
}

func New(cfg Config) *Engine {
	state := newPresetState(cfg.Seed)
	return &Engine{
		backend:    cfg.Backend,
		textures:   cfg.Textures,
		transpiler: cfg.Transpiler,
		defaults:   cfg.Defaults,
		state:      state,
		binder:     newBinder(cfg.Backend, cfg.Audio, state, cfg.Width, cfg.Height),
		sched:      NewScheduler(cfg.Activate, cfg.Deactivate),
	}
}

// Resize updates the texture size and aspect uniforms.
func (e *Engine) Resize(width, height int) {
	e.binder.resize(width, height)
}

// Binder returns the uniform binder used by the enable calls.
func (e *Engine) Binder() *Binder { return e.binder }

// LoadPresetShadersAsync compiles the warp and composite sources held by
// p on the compile worker. Both shaders are published together: the
// per-preset random state is reset and the new pair is swapped into the
// engine and into p. If either shader fails, nothing new is published and
// p adopts the engine's current pair instead.
//
// A call made while the previous compile is still running blocks until it
// completes. After Close the request is dropped and p is left as it is.
func (e *Engine) LoadPresetShadersAsync(p *pipeline.Pipeline) {
	warp, composite := p.Shaders()
	warpSrc, compositeSrc := warp.Cache.Source(), composite.Cache.Source()
	warp.Release()
	composite.Release()

	e.sched.Submit(func() {
		e.compile(p, warpSrc, compositeSrc)
	})
}

// WaitCompile blocks until the outstanding compile, if any, is published.
func (e *Engine) WaitCompile() { e.sched.Wait() }

// Compiling reports whether a compile has been submitted and not waited
// for.
func (e *Engine) Compiling() bool { return e.sched.Pending() }

func (e *Engine) compile(p *pipeline.Pipeline, warpSrc, compositeSrc pipeline.Source) {
	logging.Logger().Info("starting shader compilation", "preset", warpSrc.PresetPath)

	warp, werr := e.transpile(pipeline.Warp, warpSrc)
	composite, cerr := e.transpile(pipeline.Composite, compositeSrc)
	if werr != nil || cerr != nil {
		warp.Release()
		composite.Release()
		logging.Logger().Warn("shader compilation failed, keeping current shaders",
			"preset", warpSrc.PresetPath, "err", errors.Join(werr, cerr))
		current, currentComposite := e.Shaders()
		p.UpdateShaders(current, currentComposite)
		current.Release()
		currentComposite.Release()
		return
	}

	e.backend.Finish()
	logging.Logger().Info("finished shader compilation", "preset", warpSrc.PresetPath)
	e.publish(p, warp, composite)
}

// transpile returns a pair with a nil program when the source is empty.
func (e *Engine) transpile(kind pipeline.Kind, src pipeline.Source) (pipeline.ShaderPair, error) {
	res, err := e.transpiler.Transpile(context.Background(), kind, src)
	if errors.Is(err, translator.ErrEmptySource) {
		return pipeline.ShaderPair{Cache: pipeline.NewShaderCache(kind, src, nil, nil)}, nil
	}
	if err != nil {
		return pipeline.ShaderPair{}, err
	}
	return pipeline.ShaderPair{Cache: res.Cache, Program: res.Program}, nil
}

// publish takes ownership of the program references in warp and composite.
func (e *Engine) publish(p *pipeline.Pipeline, warp, composite pipeline.ShaderPair) {
	e.state.reset()

	e.mu.Lock()
	oldWarp, oldComposite := e.warp, e.composite
	e.warp, e.composite = warp, composite
	e.mu.Unlock()

	p.UpdateShaders(warp, composite)
	oldWarp.Release()
	oldComposite.Release()
}

// Shaders returns the engine's current pair. The caller must Release both.
func (e *Engine) Shaders() (warp, composite pipeline.ShaderPair) {
	e.mu.Lock()
	defer e.mu.Unlock()
	warp, composite = e.warp, e.composite
	warp.Program.Retain()
	composite.Program.Retain()
	return warp, composite
}

// ResetPerPresetState redraws the per-preset random values.
func (e *Engine) ResetPerPresetState() { e.state.reset() }

// EnableWarpShader makes pair's program current and binds its inputs. With
// no custom program it falls back to the textured default program sampling
// unit 0 and returns false.
func (e *Engine) EnableWarpShader(pair pipeline.ShaderPair, p *pipeline.Pipeline, ctx pipeline.Context, ortho mgl32.Mat4) bool {
	if pair.Program != nil {
		e.backend.UseProgram(pair.Program.ID())
		e.binder.BindTextures(pair.Program, pair.Cache)
		e.binder.BindVariables(pair.Program, pair.Cache, p, ctx)
		e.binder.SetTransformation(pair.Program, pair.Cache, ortho)
		return true
	}

	def := e.defaults.V2fC4fT2f
	e.backend.UseProgram(def.ID())
	e.binder.SetTransformation(def, nil, ortho)
	e.backend.Uniform1i(def.Location(e.backend, "texture_sampler"), 0)
	return false
}

// EnableCompositeShader is EnableWarpShader for the composite stage. The
// fallback program is left for the caller to configure.
func (e *Engine) EnableCompositeShader(pair pipeline.ShaderPair, p *pipeline.Pipeline, ctx pipeline.Context) bool {
	if pair.Program != nil {
		e.backend.UseProgram(pair.Program.ID())
		e.binder.BindTextures(pair.Program, pair.Cache)
		e.binder.BindVariables(pair.Program, pair.Cache, p, ctx)
		return true
	}
	e.backend.UseProgram(e.defaults.V2fC4fT2f.ID())
	return false
}

// Close waits for an outstanding compile, stops the worker and drops the
// engine's program references.
func (e *Engine) Close() {
	e.sched.Close()
	e.mu.Lock()
	warp, composite := e.warp, e.composite
	e.warp, e.composite = pipeline.ShaderPair{}, pipeline.ShaderPair{}
	e.mu.Unlock()
	warp.Release()
	composite.Release()
}

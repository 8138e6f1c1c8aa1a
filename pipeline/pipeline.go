// Package pipeline holds the per-preset render state and the merge used to
// cross-fade two presets.
package pipeline

import (
	"sync"

	"github.com/richinsley/gomilkdrop/gpu"
)

// NumQ is the size of the scratch variable bank shared between preset
// equations and shaders (q1..q32).
const NumQ = 32

// Context is supplied once per frame by the render loop.
type Context struct {
	FPS             int
	Time            float32
	PresetStartTime float32
	Frame           int
	// Progress is the preset's progress towards its scheduled end, in [0,1].
	Progress float32
}

// Drawable is anything drawn over the warped frame: shapes, waves, borders.
type Drawable interface {
	Draw(alpha float32)
}

// Layer is a drawable tagged with the master alpha it is drawn with.
type Layer struct {
	Drawable Drawable
	Alpha    float32
}

// Draw draws the layer at its alpha.
func (l Layer) Draw() { l.Drawable.Draw(l.Alpha) }

// Blur is the range a blur level's values are remapped to in the shader:
// value = Min + (Max-Min)*sample.
type Blur struct {
	Min float32
	Max float32
}

// Pipeline is the render state of one preset.
type Pipeline struct {
	Drawables          []Layer
	CompositeDrawables []Layer

	TextureWrap bool
	ScreenDecay float32

	// Q is written by preset equations and read by shaders as _qa.._qh.
	Q [NumQ]float32

	Blur           [3]Blur
	BlurEdgeDarken float32

	mesh *Mesh

	shaderMu  sync.Mutex
	warp      ShaderPair
	composite ShaderPair
}

// New returns a pipeline with default blur ranges and no static mesh.
func New() *Pipeline {
	return &Pipeline{
		Blur:           [3]Blur{{1, 1}, {1, 1}, {1, 1}},
		BlurEdgeDarken: 1,
	}
}

// AddDrawable appends a drawable at full alpha.
func (p *Pipeline) AddDrawable(d Drawable) {
	p.Drawables = append(p.Drawables, Layer{Drawable: d, Alpha: 1})
}

// AddCompositeDrawable appends a composite-only drawable at full alpha.
func (p *Pipeline) AddCompositeDrawable(d Drawable) {
	p.CompositeDrawables = append(p.CompositeDrawables, Layer{Drawable: d, Alpha: 1})
}

// SetStaticPerPixel allocates a gx*gy static mesh and marks the pipeline
// as driving the warp mesh itself. A non-positive dimension removes the
// mesh instead.
func (p *Pipeline) SetStaticPerPixel(gx, gy int) {
	if gx <= 0 || gy <= 0 {
		p.mesh = nil
		return
	}
	p.mesh = NewMesh(gx, gy)
}

// StaticPerPixel reports whether a static mesh is present.
func (p *Pipeline) StaticPerPixel() bool { return p.mesh != nil }

// Mesh returns the static mesh, or nil.
func (p *Pipeline) Mesh() *Mesh { return p.mesh }

// UpdateShaders replaces the warp and composite shaders as one pair. The
// pipeline takes its own reference to each program and drops the references
// held on the programs it replaces.
func (p *Pipeline) UpdateShaders(warp, composite ShaderPair) {
	warp.Program.Retain()
	composite.Program.Retain()

	p.shaderMu.Lock()
	oldWarp, oldComposite := p.warp, p.composite
	p.warp, p.composite = warp, composite
	p.shaderMu.Unlock()

	oldWarp.Program.Release()
	oldComposite.Program.Release()
}

// WarpShader returns a copy of the current warp pair holding its own
// program reference. The caller must Release it.
func (p *Pipeline) WarpShader() ShaderPair {
	p.shaderMu.Lock()
	defer p.shaderMu.Unlock()
	return p.warp.retain()
}

// CompositeShader returns a copy of the current composite pair holding its
// own program reference. The caller must Release it.
func (p *Pipeline) CompositeShader() ShaderPair {
	p.shaderMu.Lock()
	defer p.shaderMu.Unlock()
	return p.composite.retain()
}

// Shaders returns both pairs from a single snapshot. The caller must
// Release both.
func (p *Pipeline) Shaders() (warp, composite ShaderPair) {
	p.shaderMu.Lock()
	defer p.shaderMu.Unlock()
	return p.warp.retain(), p.composite.retain()
}

// Release drops the pipeline's program references.
func (p *Pipeline) Release() {
	p.UpdateShaders(ShaderPair{}, ShaderPair{})
}

// ShaderPair is a compiled program with the cache describing its
// dependencies. Either field may be nil when no custom shader is set.
type ShaderPair struct {
	Cache   *ShaderCache
	Program *gpu.Program
}

func (s ShaderPair) retain() ShaderPair {
	s.Program.Retain()
	return s
}

// Release drops the pair's program reference.
func (s ShaderPair) Release() { s.Program.Release() }

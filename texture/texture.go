// Package texture holds the named textures and samplers that preset shaders
// reference, and the store that resolves them by name.
package texture

import (
	"sync"

	"github.com/richinsley/gomilkdrop/gpu"
)

// Sampler is a GPU sampler object with fixed addressing and filtering.
type Sampler struct {
	ID     uint32
	Wrap   gpu.Wrap
	Filter gpu.Filter
}

type samplerKey struct {
	wrap   gpu.Wrap
	filter gpu.Filter
}

// Texture is a GPU texture plus the samplers created for it.
type Texture struct {
	Name   string
	ID     uint32
	Target gpu.Target
	Width  int
	Height int
	Depth  int
	// User is set for textures loaded from disk, which are candidates for
	// random selection.
	User bool

	backend  gpu.Backend
	mu       sync.Mutex
	samplers map[samplerKey]*Sampler
	order    []*Sampler
}

func newTexture(b gpu.Backend, name string, id uint32, desc gpu.TextureDesc, user bool) *Texture {
	return &Texture{
		Name:     name,
		ID:       id,
		Target:   desc.Target,
		Width:    desc.Width,
		Height:   desc.Height,
		Depth:    desc.Depth,
		User:     user,
		backend:  b,
		samplers: make(map[samplerKey]*Sampler),
	}
}

// Is3D reports whether the texture is volumetric.
func (t *Texture) Is3D() bool { return t.Target == gpu.Target3D }

// Sampler returns the sampler for the given modes, creating it on first use.
func (t *Texture) Sampler(wrap gpu.Wrap, filter gpu.Filter) *Sampler {
	t.mu.Lock()
	defer t.mu.Unlock()
	key := samplerKey{wrap, filter}
	if s, ok := t.samplers[key]; ok {
		return s
	}
	s := &Sampler{ID: t.backend.CreateSampler(wrap, filter), Wrap: wrap, Filter: filter}
	t.samplers[key] = s
	t.order = append(t.order, s)
	return s
}

// FirstSampler returns the earliest created sampler, or nil.
func (t *Texture) FirstSampler() *Sampler {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.order) == 0 {
		return nil
	}
	return t.order[0]
}

// Size returns the texture size as the (w, h, 1/w, 1/h) vector shaders
// receive as texsize_<name>.
func (t *Texture) Size() [4]float32 {
	w, h := float32(t.Width), float32(t.Height)
	if w == 0 || h == 0 {
		return [4]float32{w, h, 0, 0}
	}
	return [4]float32{w, h, 1 / w, 1 / h}
}

// reallocate replaces the GPU storage. Samplers are independent of the
// storage and are kept.
func (t *Texture) reallocate(desc gpu.TextureDesc, pixels any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.backend.DeleteTexture(t.ID)
	t.ID = t.backend.CreateTexture(desc, pixels)
	t.Target, t.Width, t.Height, t.Depth = desc.Target, desc.Width, desc.Height, desc.Depth
}

func (t *Texture) release() {
	t.mu.Lock()
	defer t.mu.Unlock()
	for _, s := range t.order {
		t.backend.DeleteSampler(s.ID)
	}
	t.samplers = make(map[samplerKey]*Sampler)
	t.order = nil
	t.backend.DeleteTexture(t.ID)
}

// Binding pairs a texture with the sampler a shader reads it through.
type Binding struct {
	Texture *Texture
	Sampler *Sampler
}

// Store is the texture collaborator consumed by the shader transpiler and
// the uniform binder.
type Store interface {
	// Resolve finds an already known texture. Qualified names (fc_, pw_, ...)
	// override the given modes.
	Resolve(name string, wrap gpu.Wrap, filter gpu.Filter) (Binding, bool)
	// Load finds a texture, loading it from the search paths on a miss.
	Load(name string) (Binding, bool)
	MainTexture() *Texture
	// BlurTextures returns the blur chain ordered
	// blur1_internal, blur1, blur2_internal, blur2, blur3_internal, blur3.
	BlurTextures() []*Texture
}

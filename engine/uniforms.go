package engine

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gomilkdrop/audio"
	"github.com/richinsley/gomilkdrop/gpu"
	"github.com/richinsley/gomilkdrop/pipeline"
	"github.com/richinsley/gomilkdrop/shader"
	"github.com/richinsley/gomilkdrop/texture"
)

// AudioSource supplies the audio levels for the current frame.
type AudioSource interface {
	Levels() audio.Levels
}

// Binder uploads the textures and per-frame variables of a preset shader.
// It reads the pipeline but never writes to it.
type Binder struct {
	backend gpu.Backend
	audio   AudioSource
	state   *presetState

	texsizeX, texsizeY float32
	aspectX, aspectY   float32
}

func newBinder(b gpu.Backend, src AudioSource, state *presetState, width, height int) *Binder {
	bd := &Binder{backend: b, audio: src, state: state}
	bd.resize(width, height)
	return bd
}

func (b *Binder) resize(width, height int) {
	b.texsizeX, b.texsizeY = float32(width), float32(height)
	b.aspectX, b.aspectY = 1, 1
	if width > height {
		b.aspectY = float32(height) / float32(width)
	} else {
		b.aspectX = float32(width) / float32(height)
	}
}

// BindTextures binds every sampler the program still uses to its own
// texture unit and uploads the texsize_ uniforms of the bound textures.
func (b *Binder) BindTextures(prog *gpu.Program, cache *pipeline.ShaderCache) {
	if cache == nil {
		return
	}
	sizes := make(map[string]*texture.Texture)
	var order []string
	addSize := func(name string, t *texture.Texture) {
		if _, ok := sizes[name]; !ok {
			order = append(order, name)
		}
		sizes[name] = t
	}

	var unit uint32
	for _, nb := range cache.Bindings() {
		if nb.Texture == nil || nb.Sampler == nil {
			continue
		}
		loc := prog.Location(b.backend, cache.UniformName("sampler_"+nb.Name))
		if loc < 0 {
			continue
		}
		addSize(nb.Name, nb.Texture)
		addSize(nb.Texture.Name, nb.Texture)

		b.backend.ActiveTexture(unit)
		b.backend.BindTexture(nb.Texture.Target, nb.Texture.ID)
		b.backend.BindSampler(unit, nb.Sampler.ID)
		b.backend.Uniform1i(loc, int32(unit))
		unit++
	}

	for _, name := range order {
		loc := prog.Location(b.backend, cache.UniformName("texsize_"+name))
		if loc < 0 {
			continue
		}
		s := sizes[name].Size()
		b.backend.Uniform4f(loc, s[0], s[1], s[2], s[3])
	}
}

// BindVariables uploads the per-frame uniform catalog.
func (b *Binder) BindVariables(prog *gpu.Program, cache *pipeline.ShaderCache, p *pipeline.Pipeline, ctx pipeline.Context) {
	set4 := func(name string, x, y, z, w float32) {
		b.backend.Uniform4f(prog.Location(b.backend, cache.UniformName(name)), x, y, z, w)
	}

	sincePreset := ctx.Time - ctx.PresetStartTime
	sincePreset -= float32(int(sincePreset/10000)) * 10000
	mipX := float32(math.Log2(float64(b.texsizeX)))
	mipY := float32(math.Log2(float64(b.texsizeY)))
	mipAvg := 0.5 * (mipX + mipY)

	randPreset, randFrame, rot := b.state.frame(ctx.Time)
	set4("rand_frame", randFrame[0], randFrame[1], randFrame[2], randFrame[3])
	set4("rand_preset", randPreset[0], randPreset[1], randPreset[2], randPreset[3])

	var lv audio.Levels
	if b.audio != nil {
		lv = b.audio.Levels()
	}
	r := ComputeBlurRanges(p)

	set4("_c0", b.aspectX, b.aspectY, 1/b.aspectX, 1/b.aspectY)
	set4("_c1", 0, 0, 0, 0)
	set4("_c2", sincePreset, float32(ctx.FPS), float32(ctx.Frame), ctx.Progress)
	set4("_c3", lv.Bass/100, lv.Mid/100, lv.Treb/100, lv.Vol/100)
	set4("_c4", lv.BassAtt/100, lv.MidAtt/100, lv.TrebAtt/100, lv.VolAtt/100)
	set4("_c5", r.Max[0]-r.Min[0], r.Min[0], r.Max[1]-r.Min[1], r.Min[1])
	set4("_c6", r.Max[2]-r.Min[2], r.Min[2], r.Min[0], r.Max[0])
	set4("_c7", b.texsizeX, b.texsizeY, 1/b.texsizeX, 1/b.texsizeY)

	t := ctx.Time
	roam := func(f func(float64) float64, speeds, phases [4]float32) [4]float32 {
		var v [4]float32
		for i := range v {
			v[i] = 0.5 + 0.5*float32(f(float64(t*speeds[i]+phases[i])))
		}
		return v
	}
	fast, fastPhase := [4]float32{0.329, 1.293, 5.070, 20.051}, [4]float32{1.2, 3.9, 2.5, 5.4}
	slow, slowPhase := [4]float32{0.0050, 0.0085, 0.0133, 0.0217}, [4]float32{2.7, 5.3, 4.5, 3.8}
	for _, u := range []struct {
		name string
		v    [4]float32
	}{
		{"_c8", roam(math.Cos, fast, fastPhase)},
		{"_c9", roam(math.Sin, fast, fastPhase)},
		{"_c10", roam(math.Cos, slow, slowPhase)},
		{"_c11", roam(math.Sin, slow, slowPhase)},
	} {
		set4(u.name, u.v[0], u.v[1], u.v[2], u.v[3])
	}
	set4("_c12", mipX, mipY, mipAvg, 0)
	set4("_c13", r.Min[1], r.Max[1], r.Min[2], r.Max[2])

	for i, name := range shader.RotationNames {
		m := rot[i]
		b.backend.UniformMatrix3x4(prog.Location(b.backend, cache.UniformName(name)), (*[16]float32)(&m))
	}

	for i := 0; i < pipeline.NumQ; i += 4 {
		set4(fmt.Sprintf("_q%c", 'a'+i/4), p.Q[i], p.Q[i+1], p.Q[i+2], p.Q[i+3])
	}
}

// SetTransformation uploads the vertex transformation of a program.
func (b *Binder) SetTransformation(prog *gpu.Program, cache *pipeline.ShaderCache, m mgl32.Mat4) {
	b.backend.UniformMatrix4(prog.Location(b.backend, cache.UniformName("vertex_transformation")), (*[16]float32)(&m))
}

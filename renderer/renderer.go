// Package renderer draws pipelines with OpenGL: the warp mesh, the blur
// chain and the composite pass, into an offscreen target that is then
// presented or recorded.
package renderer

import (
	"fmt"

	gl "github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/richinsley/gomilkdrop/engine"
	"github.com/richinsley/gomilkdrop/gpu"
	"github.com/richinsley/gomilkdrop/logging"
	"github.com/richinsley/gomilkdrop/pipeline"
	"github.com/richinsley/gomilkdrop/shader"
	"github.com/richinsley/gomilkdrop/texture"
)

// Renderer owns the vertex state and the offscreen target. All methods
// must be called on the render thread.
type Renderer struct {
	backend  gpu.Backend
	engine   *engine.Engine
	textures *texture.Manager
	defaults *engine.DefaultPrograms

	vao, vbo  uint32
	offscreen *Offscreen
	width     int
	height    int
	aspectX   float32
	aspectY   float32
}

func NewRenderer(b gpu.Backend, e *engine.Engine, textures *texture.Manager, defaults *engine.DefaultPrograms, width, height int) (*Renderer, error) {
	r := &Renderer{backend: b, engine: e, textures: textures, defaults: defaults}

	gl.GenVertexArrays(1, &r.vao)
	gl.GenBuffers(1, &r.vbo)
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	attribs := []struct {
		loc    uint32
		size   int32
		offset int
	}{
		{shader.AttribPosition, 2, 0},
		{shader.AttribColor, 4, 2 * 4},
		{shader.AttribTexture, 4, 6 * 4},
		{shader.AttribRadAng, 2, 10 * 4},
	}
	for _, a := range attribs {
		gl.EnableVertexAttribArray(a.loc)
		gl.VertexAttribPointer(a.loc, a.size, gl.FLOAT, false, vertexStride, gl.PtrOffset(a.offset))
	}
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)

	var err error
	r.offscreen, err = NewOffscreen(width, height)
	if err != nil {
		r.Destroy()
		return nil, fmt.Errorf("failed to create offscreen renderer: %w", err)
	}
	r.setSize(width, height)
	return r, nil
}

func (r *Renderer) setSize(width, height int) {
	r.width, r.height = width, height
	r.aspectX, r.aspectY = 1, 1
	if width > height {
		r.aspectY = float32(height) / float32(width)
	} else {
		r.aspectX = float32(width) / float32(height)
	}
}

// Resize reallocates every size-dependent resource.
func (r *Renderer) Resize(width, height int) error {
	if width == r.width && height == r.height {
		return nil
	}
	logging.Logger().Info("resizing renderer", "width", width, "height", height)
	if err := r.offscreen.Resize(width, height); err != nil {
		return err
	}
	r.textures.Resize(width, height)
	r.engine.Resize(width, height)
	r.setSize(width, height)
	return nil
}

func (r *Renderer) Offscreen() *Offscreen { return r.offscreen }

func (r *Renderer) draw(vs []vertex) {
	data := flatten(vs)
	if len(data) == 0 {
		return
	}
	gl.BindVertexArray(r.vao)
	gl.BindBuffer(gl.ARRAY_BUFFER, r.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data)*4, gl.Ptr(data), gl.STREAM_DRAW)
	gl.DrawArrays(gl.TRIANGLES, 0, int32(len(vs)))
	gl.BindBuffer(gl.ARRAY_BUFFER, 0)
	gl.BindVertexArray(0)
}

// DrawQuad draws a full-screen quad into a width x height viewport with
// blending disabled.
func (r *Renderer) DrawQuad(width, height int) {
	gl.Viewport(0, 0, int32(width), int32(height))
	gl.Disable(gl.BLEND)
	r.draw(fullscreenQuad(1))
}

func (r *Renderer) bindMainTexture(wrap gpu.Wrap) {
	main := r.textures.MainTexture()
	r.backend.ActiveTexture(0)
	r.backend.BindTexture(gpu.Target2D, main.ID)
	r.backend.BindSampler(0, main.Sampler(wrap, gpu.FilterLinear).ID)
}

// RenderFrame draws one frame of p into the offscreen target: warp,
// drawables, main texture update, blur chain, composite.
func (r *Renderer) RenderFrame(p *pipeline.Pipeline, ctx pipeline.Context) {
	warp, composite := p.Shaders()
	defer warp.Release()
	defer composite.Release()

	wrap := gpu.WrapClamp
	if p.TextureWrap {
		wrap = gpu.WrapRepeat
	}

	r.offscreen.Bind()
	gl.Viewport(0, 0, int32(r.width), int32(r.height))
	gl.ClearColor(0, 0, 0, 1)
	gl.Clear(gl.COLOR_BUFFER_BIT)
	gl.Disable(gl.BLEND)

	ortho := mgl32.Ortho2D(-1, 1, -1, 1)
	if !r.engine.EnableWarpShader(warp, p, ctx, ortho) {
		r.bindMainTexture(wrap)
	}
	r.draw(warpGrid(DefaultGridWidth, DefaultGridHeight, p.Mesh(), p.ScreenDecay, r.aspectX, r.aspectY))

	gl.Enable(gl.BLEND)
	gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	for _, l := range p.Drawables {
		l.Draw()
	}

	r.textures.UpdateMainTexture()
	r.engine.RenderBlurTextures(p, engine.BlurLevel(warp.Cache, composite.Cache), r)

	r.offscreen.Bind()
	gl.Viewport(0, 0, int32(r.width), int32(r.height))
	gl.Disable(gl.BLEND)
	if !r.engine.EnableCompositeShader(composite, p, ctx) {
		def := r.defaults.V2fC4fT2f
		r.engine.Binder().SetTransformation(def, nil, ortho)
		r.backend.Uniform1i(def.Location(r.backend, "texture_sampler"), 0)
		r.bindMainTexture(wrap)
	}
	r.draw(fullscreenQuad(1))

	gl.Enable(gl.BLEND)
	for _, l := range p.CompositeDrawables {
		l.Draw()
	}
	gl.Disable(gl.BLEND)
	r.backend.BindSampler(0, 0)
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
}

// Present draws the offscreen target into the default framebuffer.
func (r *Renderer) Present(fbWidth, fbHeight int) {
	gl.BindFramebuffer(gl.FRAMEBUFFER, 0)
	def := r.defaults.V2fC4fT2f
	r.backend.UseProgram(def.ID())
	r.engine.Binder().SetTransformation(def, nil, mgl32.Ident4())
	r.backend.Uniform1i(def.Location(r.backend, "texture_sampler"), 0)
	r.backend.ActiveTexture(0)
	r.backend.BindTexture(gpu.Target2D, r.offscreen.TextureID())
	gl.Clear(gl.COLOR_BUFFER_BIT)
	r.DrawQuad(fbWidth, fbHeight)
	r.backend.BindTexture(gpu.Target2D, 0)
}

func (r *Renderer) Destroy() {
	if r.offscreen != nil {
		r.offscreen.Destroy()
	}
	gl.DeleteBuffers(1, &r.vbo)
	gl.DeleteVertexArrays(1, &r.vao)
}

var _ engine.Quad = (*Renderer)(nil)

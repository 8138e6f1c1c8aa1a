package engine

import (
	"github.com/richinsley/gomilkdrop/gpu"
	"github.com/richinsley/gomilkdrop/pipeline"
)

// MaxBlurLevel is the deepest blur a preset can ask for.
const MaxBlurLevel = 3

const blurMinDistance = 0.1

// blurWeights are the gaussian taps shared by both passes.
var blurWeights = [8]float32{4.0, 3.8, 3.5, 2.9, 1.9, 1.2, 0.7, 0.3}

// BlurRanges are the per-level value ranges after sanitizing, and the
// scale and bias each pass applies to go from one level's range to the
// next.
type BlurRanges struct {
	Min, Max    [MaxBlurLevel]float32
	Scale, Bias [MaxBlurLevel]float32
}

// ComputeBlurRanges keeps every range at least 0.1 wide and nested inside
// the range of the level above it.
func ComputeBlurRanges(p *pipeline.Pipeline) BlurRanges {
	var r BlurRanges
	for i := 0; i < MaxBlurLevel; i++ {
		r.Min[i], r.Max[i] = p.Blur[i].Min, p.Blur[i].Max
		if i > 0 {
			r.Max[i] = min(r.Max[i-1], r.Max[i])
			r.Min[i] = max(r.Min[i-1], r.Min[i])
		}
		if r.Max[i]-r.Min[i] < blurMinDistance {
			avg := (r.Min[i] + r.Max[i]) * 0.5
			r.Min[i] = avg - blurMinDistance*0.5
			r.Max[i] = avg + blurMinDistance*0.5
		}
	}

	r.Scale[0] = 1 / (r.Max[0] - r.Min[0])
	r.Bias[0] = -r.Min[0] * r.Scale[0]
	for i := 1; i < MaxBlurLevel; i++ {
		span := r.Max[i-1] - r.Min[i-1]
		tmin := (r.Min[i] - r.Min[i-1]) / span
		tmax := (r.Max[i] - r.Min[i-1]) / span
		r.Scale[i] = 1 / (tmax - tmin)
		r.Bias[i] = -tmin * r.Scale[i]
	}
	return r
}

// BlurLevel is the deepest blur texture bound by any of the caches.
func BlurLevel(caches ...*pipeline.ShaderCache) int {
	level := 0
	for _, c := range caches {
		if c == nil {
			continue
		}
		for l := MaxBlurLevel; l > level; l-- {
			if _, ok := c.Binding(blurBindingName(l)); ok {
				level = l
				break
			}
		}
	}
	return level
}

func blurBindingName(level int) string {
	return "blur" + string(rune('0'+level))
}

// Quad draws a full-screen quad into a viewport of the given size with
// blending disabled.
type Quad interface {
	DrawQuad(width, height int)
}

// RenderBlurTextures renders levels blur levels, two passes each. Pass i
// reads the main texture (i == 0) or the previous blur texture and its
// output is copied into blur texture i.
func (e *Engine) RenderBlurTextures(p *pipeline.Pipeline, levels int, quad Quad) {
	levels = min(levels, MaxBlurLevel)
	if levels <= 0 {
		return
	}
	r := ComputeBlurRanges(p)
	blurs := e.textures.BlurTextures()
	mainTex := e.textures.MainTexture()
	b := e.backend

	for i := 0; i < levels*2 && i < len(blurs); i++ {
		src := mainTex
		if i > 0 {
			src = blurs[i-1]
		}
		dst := blurs[i]
		srcw, srch := float32(src.Width), float32(src.Height)
		scale, bias := r.Scale[i/2], r.Bias[i/2]

		prog := e.defaults.Blur1
		if i%2 == 1 {
			prog = e.defaults.Blur2
		}
		b.UseProgram(prog.ID())
		b.Uniform1i(prog.Location(b, "texture_sampler"), 0)
		b.ActiveTexture(0)
		b.BindTexture(gpu.Target2D, src.ID)
		b.Uniform4f(prog.Location(b, "_c0"), srcw, srch, 1/srcw, 1/srch)

		if i%2 == 0 {
			c := horizontalBlur()
			b.Uniform4f(prog.Location(b, "_c1"), c.w[0], c.w[1], c.w[2], c.w[3])
			b.Uniform4f(prog.Location(b, "_c2"), c.d[0], c.d[1], c.d[2], c.d[3])
			b.Uniform4f(prog.Location(b, "_c3"), scale, bias, c.div, 0)
		} else {
			c := verticalBlur()
			b.Uniform4f(prog.Location(b, "_c5"), c.w[0], c.w[1], c.d[0], c.d[1])
			// darkening the edges more than once leaves dark bands on the
			// deeper levels
			if i == 1 {
				ed := p.BlurEdgeDarken
				b.Uniform4f(prog.Location(b, "_c6"), c.div, 1-ed, ed, 5)
			} else {
				b.Uniform4f(prog.Location(b, "_c6"), c.div, 1, 0, 5)
			}
		}

		quad.DrawQuad(dst.Width, dst.Height)
		b.CopyFramebufferToTexture(dst.ID, dst.Width, dst.Height)
	}
	b.BindTexture(gpu.Target2D, 0)
}

type blurConstants struct {
	w   [4]float32
	d   [4]float32
	div float32
}

func horizontalBlur() blurConstants {
	w := blurWeights
	var c blurConstants
	for k := 0; k < 4; k++ {
		c.w[k] = w[2*k] + w[2*k+1]
		c.d[k] = float32(2*k) + 2*w[2*k+1]/c.w[k]
	}
	c.div = 0.5 / (c.w[0] + c.w[1] + c.w[2] + c.w[3])
	return c
}

func verticalBlur() blurConstants {
	w := blurWeights
	var c blurConstants
	c.w[0] = w[0] + w[1] + w[2] + w[3]
	c.w[1] = w[4] + w[5] + w[6] + w[7]
	c.d[0] = 2 * ((w[2] + w[3]) / c.w[0])
	c.d[1] = 2 + 2*((w[6]+w[7])/c.w[1])
	c.div = 1 / ((c.w[0] + c.w[1]) * 2)
	return c
}

package pipeline

// Merge builds the pipeline drawn on a transition frame from the outgoing
// pipeline a and the incoming pipeline b. ratio runs from 0 (all a) to 1
// (all b). Neither input is modified; drawables are shared but carried in
// new layers with their own alpha.
//
// Discrete state switches at the midpoint, with ratio == 0.5 taking b.
// Composite drawables use their own curve: only the winning side's are kept,
// faded in from the midpoint. The shader inputs (Q bank, blur ranges) follow
// the side whose shaders are selected.
//
// The result holds its own program references; Release it after drawing.
func Merge(a, b *Pipeline, ratio float32) *Pipeline {
	inv := 1 - ratio
	out := New()

	if ratio < 0.5 {
		out.TextureWrap = a.TextureWrap
	} else {
		out.TextureWrap = b.TextureWrap
	}
	out.ScreenDecay = lerp(b.ScreenDecay, a.ScreenDecay, ratio)

	out.Drawables = make([]Layer, 0, len(a.Drawables)+len(b.Drawables))
	for _, l := range a.Drawables {
		out.Drawables = append(out.Drawables, Layer{Drawable: l.Drawable, Alpha: inv})
	}
	for _, l := range b.Drawables {
		out.Drawables = append(out.Drawables, Layer{Drawable: l.Drawable, Alpha: ratio})
	}

	if ratio < 0.5 {
		local := (inv - 0.5) * 2
		for _, l := range a.CompositeDrawables {
			out.CompositeDrawables = append(out.CompositeDrawables, Layer{Drawable: l.Drawable, Alpha: local})
		}
	} else {
		local := (ratio - 0.5) * 2
		for _, l := range b.CompositeDrawables {
			out.CompositeDrawables = append(out.CompositeDrawables, Layer{Drawable: l.Drawable, Alpha: local})
		}
	}

	if a.mesh.SameSize(b.mesh) {
		out.mesh = NewMesh(a.mesh.gx, a.mesh.gy)
		for i := range out.mesh.x {
			out.mesh.x[i] = a.mesh.x[i]*inv + b.mesh.x[i]*ratio
			out.mesh.y[i] = a.mesh.y[i]*inv + b.mesh.y[i]*ratio
		}
	}

	src := a
	if ratio >= 0.5 {
		src = b
	}
	out.Q = src.Q
	out.Blur = src.Blur
	out.BlurEdgeDarken = src.BlurEdgeDarken
	warp, composite := src.Shaders()
	out.UpdateShaders(warp, composite)
	warp.Release()
	composite.Release()

	return out
}

// lerp returns b*ratio + a*(1-ratio) with operands in the original
// argument order: the first argument is weighted by ratio.
func lerp(b, a, ratio float32) float32 {
	return b*ratio + a*(1-ratio)
}

// DisableBlending draws every drawable of p at full alpha.
func DisableBlending(p *Pipeline) {
	for i := range p.Drawables {
		p.Drawables[i].Alpha = 1
	}
}

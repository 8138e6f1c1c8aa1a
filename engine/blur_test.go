package engine

import (
	"testing"

	"github.com/richinsley/gomilkdrop/pipeline"
	"github.com/richinsley/gomilkdrop/texture"
)

type recordingQuad struct {
	sizes [][2]int
}

func (q *recordingQuad) DrawQuad(w, h int) { q.sizes = append(q.sizes, [2]int{w, h}) }

func TestComputeBlurRanges(t *testing.T) {
	tests := []struct {
		name        string
		blur        [3]pipeline.Blur
		min, max    [3]float32
		scale, bias [3]float32
	}{
		{
			name:  "defaults",
			blur:  [3]pipeline.Blur{{1, 1}, {1, 1}, {1, 1}},
			min:   [3]float32{0.95, 0.95, 0.95},
			max:   [3]float32{1.05, 1.05, 1.05},
			scale: [3]float32{10, 1, 1},
			bias:  [3]float32{-9.5, 0, 0},
		},
		{
			name:  "nested",
			blur:  [3]pipeline.Blur{{0, 1}, {0.2, 0.8}, {0.5, 0.9}},
			min:   [3]float32{0, 0.2, 0.5},
			max:   [3]float32{1, 0.8, 0.8},
			scale: [3]float32{1, 1 / 0.6, 2},
			bias:  [3]float32{0, -0.2 / 0.6, -1},
		},
		{
			name:  "crossed",
			blur:  [3]pipeline.Blur{{0.6, 0.4}, {0, 1}, {0, 1}},
			min:   [3]float32{0.45, 0.45, 0.45},
			max:   [3]float32{0.55, 0.55, 0.55},
			scale: [3]float32{10, 1, 1},
			bias:  [3]float32{-4.5, 0, 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := pipeline.New()
			p.Blur = tt.blur
			r := ComputeBlurRanges(p)
			for i := 0; i < MaxBlurLevel; i++ {
				if !near(r.Min[i], tt.min[i]) || !near(r.Max[i], tt.max[i]) {
					t.Errorf("level %d range = %v..%v, want %v..%v", i, r.Min[i], r.Max[i], tt.min[i], tt.max[i])
				}
				if !near(r.Scale[i], tt.scale[i]) || !near(r.Bias[i], tt.bias[i]) {
					t.Errorf("level %d scale/bias = %v/%v, want %v/%v", i, r.Scale[i], r.Bias[i], tt.scale[i], tt.bias[i])
				}
			}
		})
	}
}

func TestBlurLevel(t *testing.T) {
	cache := func(names ...string) *pipeline.ShaderCache {
		m := make(map[string]texture.Binding)
		for _, n := range names {
			m[n] = texture.Binding{}
		}
		return pipeline.NewShaderCache(pipeline.Composite, pipeline.Source{}, m, nil)
	}
	tests := []struct {
		caches []*pipeline.ShaderCache
		want   int
	}{
		{nil, 0},
		{[]*pipeline.ShaderCache{nil, cache("main")}, 0},
		{[]*pipeline.ShaderCache{cache("blur1")}, 1},
		{[]*pipeline.ShaderCache{cache("blur1"), cache("blur3")}, 3},
		{[]*pipeline.ShaderCache{cache("blur2", "blur1"), nil}, 2},
	}
	for i, tt := range tests {
		if got := BlurLevel(tt.caches...); got != tt.want {
			t.Errorf("case %d: BlurLevel = %d, want %d", i, got, tt.want)
		}
	}
}

func TestRenderBlurTextures(t *testing.T) {
	e := newTestEngine(t)
	p := pipeline.New()
	p.BlurEdgeDarken = 0.25
	e.backend.Reset()

	quad := &recordingQuad{}
	e.RenderBlurTextures(p, 2, quad)

	blurs := e.textures.BlurTextures()
	if len(quad.sizes) != 4 {
		t.Fatalf("drew %d passes, want 4", len(quad.sizes))
	}
	var copies []uint32
	for _, c := range e.backend.Calls() {
		if c.Op == "CopyFramebufferToTexture" {
			copies = append(copies, c.Args[0].(uint32))
		}
	}
	for i := 0; i < 4; i++ {
		if quad.sizes[i] != [2]int{blurs[i].Width, blurs[i].Height} {
			t.Errorf("pass %d viewport = %v", i, quad.sizes[i])
		}
		if copies[i] != blurs[i].ID {
			t.Errorf("pass %d copied into %d, want %s", i, copies[i], blurs[i].Name)
		}
	}

	// the first pass reads the main texture
	for _, c := range e.backend.Calls() {
		if c.Op == "BindTexture" {
			if c.Args[1] != e.textures.MainTexture().ID {
				t.Errorf("first pass reads texture %v", c.Args[1])
			}
			break
		}
	}

	v := verticalBlur()
	h := horizontalBlur()
	// last vertical pass is the second level: no edge darkening
	wantUniform(t, e.backend, "_c6", v.div, 1, 0, 5)
	r := ComputeBlurRanges(p)
	wantUniform(t, e.backend, "_c3", r.Scale[1], r.Bias[1], h.div, 0)

	e.backend.Reset()
	e.RenderBlurTextures(p, 1, quad)
	wantUniform(t, e.backend, "_c6", v.div, 0.75, 0.25, 5)

	e.backend.Reset()
	e.RenderBlurTextures(p, 0, quad)
	if len(e.backend.Calls()) != 0 {
		t.Error("level 0 issued GPU calls")
	}
}

func TestBlurConstants(t *testing.T) {
	h := horizontalBlur()
	if !near(h.w[0], 7.8) || !near(h.w[3], 1.0) {
		t.Errorf("horizontal weights = %v", h.w)
	}
	if !near(h.d[0], 2*3.8/7.8) {
		t.Errorf("horizontal offset 0 = %v", h.d[0])
	}
	if !near(h.div, 0.5/18.3) {
		t.Errorf("horizontal div = %v", h.div)
	}
	v := verticalBlur()
	if !near(v.w[0], 14.2) || !near(v.w[1], 4.1) || !near(v.div, 1/36.6) {
		t.Errorf("vertical constants = %+v", v)
	}
}

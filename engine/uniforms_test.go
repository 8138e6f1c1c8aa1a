package engine

import (
	"math"
	"testing"

	"github.com/richinsley/gomilkdrop/gpu"
	"github.com/richinsley/gomilkdrop/gpu/gputest"
	"github.com/richinsley/gomilkdrop/pipeline"
	"github.com/richinsley/gomilkdrop/texture"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-4 }

func wantUniform(t *testing.T, b *gputest.Backend, name string, want ...float32) {
	t.Helper()
	got, ok := b.Uniform(name)
	if !ok {
		t.Errorf("%s not uploaded", name)
		return
	}
	for i, w := range want {
		if !near(got[i], w) {
			t.Errorf("%s = %v, want %v", name, got[:len(want)], want)
			return
		}
	}
}

func testProgram(t *testing.T, b *gputest.Backend) *gpu.Program {
	t.Helper()
	id, err := b.CompileProgram("v", "f", "test")
	if err != nil {
		t.Fatal(err)
	}
	p := gpu.NewProgram(id, "test", b.DeleteProgram)
	t.Cleanup(p.Release)
	return p
}

func TestBindVariables(t *testing.T) {
	b := gputest.New()
	state := newPresetState(3)
	bd := newBinder(b, fakeAudio{Bass: 150, Mid: 100, Treb: 50, Vol: 100, BassAtt: 120, VolAtt: 80}, state, 64, 48)
	prog := testProgram(t, b)

	p := pipeline.New()
	for i := range p.Q {
		p.Q[i] = float32(i + 1)
	}
	ctx := pipeline.Context{FPS: 60, Time: 12.5, PresetStartTime: 2.5, Frame: 300, Progress: 0.25}
	bd.BindVariables(prog, nil, p, ctx)

	wantUniform(t, b, "_c0", 1, 0.75, 1, 1/0.75)
	wantUniform(t, b, "_c1", 0, 0, 0, 0)
	wantUniform(t, b, "_c2", 10, 60, 300, 0.25)
	wantUniform(t, b, "_c3", 1.5, 1, 0.5, 1)
	wantUniform(t, b, "_c4", 1.2, 0, 0, 0.8)
	wantUniform(t, b, "_c7", 64, 48, 1.0/64, 1.0/48)
	wantUniform(t, b, "_c12", 6, float32(math.Log2(48)), 0.5*(6+float32(math.Log2(48))), 0)
	wantUniform(t, b, "_qa", 1, 2, 3, 4)
	wantUniform(t, b, "_qh", 29, 30, 31, 32)

	// default blur ranges collapse to 0.95..1.05
	wantUniform(t, b, "_c5", 0.1, 0.95, 0.1, 0.95)
	wantUniform(t, b, "_c6", 0.1, 0.95, 0.95, 1.05)
	wantUniform(t, b, "_c13", 0.95, 1.05, 0.95, 1.05)

	fast := float32(0.5 + 0.5*math.Cos(float64(12.5*0.329+1.2)))
	c8, _ := b.Uniform("_c8")
	if !near(c8[0], fast) {
		t.Errorf("_c8.x = %v, want %v", c8[0], fast)
	}

	rp, _ := b.Uniform("rand_preset")
	for i, v := range rp {
		if v != state.randPreset[i] {
			t.Errorf("rand_preset = %v, want %v", rp, state.randPreset)
			break
		}
	}
	if b.CountOp("UniformMatrix3x4") != NumRotations {
		t.Errorf("uploaded %d rotations, want %d", b.CountOp("UniformMatrix3x4"), NumRotations)
	}
	if _, ok := b.Uniform("rot_s1"); !ok {
		t.Error("rot_s1 not uploaded")
	}
}

func TestBindVariablesPortrait(t *testing.T) {
	b := gputest.New()
	bd := newBinder(b, nil, newPresetState(1), 32, 64)
	bd.BindVariables(testProgram(t, b), nil, pipeline.New(), pipeline.Context{})
	wantUniform(t, b, "_c0", 0.5, 1, 2, 1)
	wantUniform(t, b, "_c3", 0, 0, 0, 0)
}

func TestBindTextures(t *testing.T) {
	b := gputest.New()
	m := texture.NewManager(b, 64, 48)
	defer m.Release()
	b.OptimizedOut["sampler_noise_lq"] = true

	mainB, _ := m.Resolve("main", gpu.WrapRepeat, gpu.FilterLinear)
	noise, _ := m.Resolve("noise_lq", gpu.WrapRepeat, gpu.FilterLinear)
	vol, _ := m.Resolve("noisevol_hq", gpu.WrapRepeat, gpu.FilterLinear)
	cache := pipeline.NewShaderCache(pipeline.Composite, pipeline.Source{}, map[string]texture.Binding{
		"main":        mainB,
		"noise_lq":    noise,
		"noisevol_hq": vol,
		"nothing":     {},
	}, nil)

	bd := newBinder(b, nil, newPresetState(1), 64, 48)
	prog := testProgram(t, b)
	b.Reset()
	bd.BindTextures(prog, cache)

	if got := b.CountOp("ActiveTexture"); got != 2 {
		t.Errorf("bound %d units, want 2", got)
	}
	if v, ok := b.UniformInt("sampler_main"); !ok || v != 0 {
		t.Errorf("sampler_main unit = %v, %v", v, ok)
	}
	if v, ok := b.UniformInt("sampler_noisevol_hq"); !ok || v != 1 {
		t.Errorf("sampler_noisevol_hq unit = %v, %v", v, ok)
	}
	wantUniform(t, b, "texsize_main", 64, 48, 1.0/64, 1.0/48)
	wantUniform(t, b, "texsize_noisevol_hq", 32, 32, 1.0/32, 1.0/32)
	if _, ok := b.Uniform("texsize_noise_lq"); ok {
		t.Error("texsize uploaded for an optimized out sampler")
	}

	for _, c := range b.Calls() {
		if c.Op == "BindTexture" && c.Args[0] == int(gpu.Target3D) && c.Args[1] != vol.Texture.ID {
			t.Errorf("3D target bound to %v", c.Args[1])
		}
	}
}

func TestBindTexturesNilCache(t *testing.T) {
	b := gputest.New()
	bd := newBinder(b, nil, newPresetState(1), 8, 8)
	bd.BindTextures(testProgram(t, b), nil)
	if b.CountOp("ActiveTexture") != 0 {
		t.Error("nil cache bound textures")
	}
}

func TestPresetStateRotations(t *testing.T) {
	s := newPresetState(11)
	_, rf, a := s.frame(0)
	_, _, b := s.frame(0)
	for i := 0; i < numPresetRotations; i++ {
		if a[i] != b[i] {
			t.Fatalf("rotation %d changed without time passing", i)
		}
	}
	if a[NumRotations-1] == b[NumRotations-1] {
		t.Error("per-frame rotation not redrawn")
	}
	for _, v := range rf {
		if v < 0 || v >= 1 {
			t.Errorf("rand_frame value %v out of range", v)
		}
	}

	_, _, c := s.frame(100)
	if c[numPresetRotations-1] == a[numPresetRotations-1] {
		t.Error("fast rotation did not move over time")
	}
	// the slowest rotation has a zero rate
	if c[0] != a[0] {
		t.Error("rotation 0 moved")
	}
}

func TestRotationOrder(t *testing.T) {
	m := rotation([3]float32{0, 0, 0}, [3]float32{1, 2, 3})
	if m.Col(3).X() != 1 || m.Col(3).Y() != 2 || m.Col(3).Z() != 3 {
		t.Errorf("translation column = %v", m.Col(3))
	}
}

package pipeline

import (
	"math"
	"testing"

	"github.com/richinsley/gomilkdrop/gpu"
)

type shape struct{ id string }

func (shape) Draw(float32) {}

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-5 }

func fixture(prefix string, drawables, composites int) *Pipeline {
	p := New()
	for i := 0; i < drawables; i++ {
		p.AddDrawable(&shape{id: prefix})
	}
	for i := 0; i < composites; i++ {
		p.AddCompositeDrawable(&shape{id: prefix})
	}
	return p
}

func origin(l Layer) string { return l.Drawable.(*shape).id }

func TestMergeDrawableAlphas(t *testing.T) {
	a := fixture("a", 3, 1)
	b := fixture("b", 2, 1)
	for _, ratio := range []float32{0, 0.1, 0.25, 0.5, 0.75, 0.99, 1} {
		m := Merge(a, b, ratio)
		if len(m.Drawables) != 5 {
			t.Fatalf("ratio %v: %d drawables, want 5", ratio, len(m.Drawables))
		}
		for i, l := range m.Drawables {
			want := ratio
			if i < 3 {
				want = 1 - ratio
				if origin(l) != "a" {
					t.Fatalf("ratio %v: drawable %d from %s, want a", ratio, i, origin(l))
				}
			} else if origin(l) != "b" {
				t.Fatalf("ratio %v: drawable %d from %s, want b", ratio, i, origin(l))
			}
			if !near(l.Alpha, want) {
				t.Errorf("ratio %v: drawable %d alpha = %v, want %v", ratio, i, l.Alpha, want)
			}
		}
		m.Release()
	}
}

func TestMergeDoesNotTouchInputs(t *testing.T) {
	a := fixture("a", 2, 2)
	b := fixture("b", 2, 2)
	Merge(a, b, 0.3).Release()
	for _, p := range []*Pipeline{a, b} {
		for _, l := range append(p.Drawables, p.CompositeDrawables...) {
			if l.Alpha != 1 {
				t.Fatalf("input layer alpha changed to %v", l.Alpha)
			}
		}
	}
}

func TestMergeComposites(t *testing.T) {
	a := fixture("a", 0, 2)
	b := fixture("b", 0, 3)

	m := Merge(a, b, 0.3)
	if len(m.CompositeDrawables) != 2 {
		t.Fatalf("ratio 0.3: %d composites, want A's 2", len(m.CompositeDrawables))
	}
	for _, l := range m.CompositeDrawables {
		if origin(l) != "a" || !near(l.Alpha, 0.4) {
			t.Errorf("ratio 0.3: composite %s alpha %v, want a 0.4", origin(l), l.Alpha)
		}
	}

	m = Merge(a, b, 0.7)
	if len(m.CompositeDrawables) != 3 {
		t.Fatalf("ratio 0.7: %d composites, want B's 3", len(m.CompositeDrawables))
	}
	for _, l := range m.CompositeDrawables {
		if origin(l) != "b" || !near(l.Alpha, 0.4) {
			t.Errorf("ratio 0.7: composite %s alpha %v, want b 0.4", origin(l), l.Alpha)
		}
	}

	m = Merge(a, b, 0.5)
	if len(m.CompositeDrawables) != 3 || m.CompositeDrawables[0].Alpha != 0 {
		t.Errorf("ratio 0.5: want B's composites at alpha 0, got %d", len(m.CompositeDrawables))
	}
}

func TestMergeScreenDecay(t *testing.T) {
	a, b := New(), New()
	a.ScreenDecay, b.ScreenDecay = 0.2, 0.8
	if got := Merge(a, b, 0.25).ScreenDecay; !near(got, 0.35) {
		t.Fatalf("ScreenDecay = %v, want 0.35", got)
	}
}

func TestMergeTextureWrapTieBreak(t *testing.T) {
	a, b := New(), New()
	a.TextureWrap, b.TextureWrap = true, false
	if !Merge(a, b, 0.49).TextureWrap {
		t.Error("ratio 0.49 should keep A's textureWrap")
	}
	if Merge(a, b, 0.5).TextureWrap {
		t.Error("ratio 0.5 should take B's textureWrap")
	}
}

func TestMergeStaticMesh(t *testing.T) {
	a, b := New(), New()
	a.SetStaticPerPixel(4, 3)
	b.SetStaticPerPixel(4, 3)
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			a.Mesh().SetX(x, y, 1)
			a.Mesh().SetY(x, y, 1)
			b.Mesh().SetX(x, y, 3)
			b.Mesh().SetY(x, y, 3)
		}
	}
	m := Merge(a, b, 0.25)
	if !m.StaticPerPixel() {
		t.Fatal("merged pipeline has no static mesh")
	}
	for x := 0; x < 4; x++ {
		for y := 0; y < 3; y++ {
			if !near(m.Mesh().X(x, y), 1.5) || !near(m.Mesh().Y(x, y), 1.5) {
				t.Fatalf("cell (%d,%d) = %v,%v, want 1.5", x, y, m.Mesh().X(x, y), m.Mesh().Y(x, y))
			}
		}
	}
}

func TestMergeStaticMeshSkipped(t *testing.T) {
	a, b := New(), New()
	a.SetStaticPerPixel(4, 3)
	b.SetStaticPerPixel(3, 4)
	if Merge(a, b, 0.5).StaticPerPixel() {
		t.Error("mismatched meshes should not merge")
	}
	c := New()
	if Merge(a, c, 0.5).StaticPerPixel() || Merge(c, a, 0.5).StaticPerPixel() {
		t.Error("non-static input should not produce a mesh")
	}
}

func TestMergeShaderSelection(t *testing.T) {
	released := map[uint32]bool{}
	prog := func(id uint32) *gpu.Program {
		return gpu.NewProgram(id, "", func(id uint32) { released[id] = true })
	}
	a, b := New(), New()
	aw, ac, bw, bc := prog(1), prog(2), prog(3), prog(4)
	a.UpdateShaders(ShaderPair{Program: aw}, ShaderPair{Program: ac})
	b.UpdateShaders(ShaderPair{Program: bw}, ShaderPair{Program: bc})

	for _, tt := range []struct {
		ratio      float32
		warp, comp uint32
	}{{0, 1, 2}, {0.49, 1, 2}, {0.5, 3, 4}, {1, 3, 4}} {
		m := Merge(a, b, tt.ratio)
		w, c := m.Shaders()
		if w.Program.ID() != tt.warp || c.Program.ID() != tt.comp {
			t.Errorf("ratio %v: shaders %d/%d, want %d/%d", tt.ratio, w.Program.ID(), c.Program.ID(), tt.warp, tt.comp)
		}
		w.Release()
		c.Release()
		m.Release()
	}

	for _, p := range []*gpu.Program{aw, ac, bw, bc} {
		p.Release()
	}
	if len(released) != 0 {
		t.Fatalf("programs still owned by a and b were released: %v", released)
	}
	a.Release()
	b.Release()
	if len(released) != 4 {
		t.Fatalf("released = %v, want all four", released)
	}
}

func TestDisableBlending(t *testing.T) {
	m := Merge(fixture("a", 2, 0), fixture("b", 2, 0), 0.3)
	DisableBlending(m)
	for i, l := range m.Drawables {
		if l.Alpha != 1 {
			t.Errorf("drawable %d alpha = %v", i, l.Alpha)
		}
	}
}

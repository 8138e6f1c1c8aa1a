package shader

import (
	"strings"
	"testing"
)

func TestRotationNames(t *testing.T) {
	if len(RotationNames) != 24 {
		t.Fatalf("got %d rotation names, want 24", len(RotationNames))
	}
	if RotationNames[0] != "rot_s1" || RotationNames[23] != "rot_rand4" {
		t.Errorf("unexpected order: first %q, last %q", RotationNames[0], RotationNames[23])
	}
	seen := map[string]bool{}
	for _, n := range RotationNames {
		if seen[n] {
			t.Errorf("duplicate rotation name %q", n)
		}
		seen[n] = true
	}
}

func TestPresetHeader(t *testing.T) {
	for _, want := range []string{
		"uniform float4 _c0;",
		"uniform float4 _c13;",
		"uniform float4 _qh;",
		"uniform float4x3 rot_vf2;",
		"#define q1 _qa.x",
		"#define q32 _qh.w",
		"#define blur3_max _c13.w",
	} {
		if !strings.Contains(PresetHeader, want) {
			t.Errorf("header is missing %q", want)
		}
	}
}

func TestVertexShadersUseVaryings(t *testing.T) {
	v := Varyings{Color: "c_out", TexCoord0: "uv_out", TexCoord1: "ra_out"}

	warp := WarpVertexShader(v)
	if !strings.Contains(warp, "out vec4 uv_out;") || !strings.Contains(warp, "uv_out = vertex_texture;") {
		t.Errorf("warp vertex shader does not pass a vec4 uv:\n%s", warp)
	}

	comp := CompositeVertexShader(v)
	if !strings.Contains(comp, "out vec2 uv_out;") || !strings.Contains(comp, "uv_out = vertex_texture.xy;") {
		t.Errorf("composite vertex shader does not pass a vec2 uv:\n%s", comp)
	}
	for _, src := range []string{warp, comp} {
		if !strings.Contains(src, "out vec4 c_out;") || !strings.Contains(src, "out vec2 ra_out;") {
			t.Errorf("vertex shader ignores varying names:\n%s", src)
		}
	}
}

func TestMainWrapper(t *testing.T) {
	if w := MainWrapper(true); !strings.Contains(w, "in vec4 frag_TEXCOORD0;") {
		t.Errorf("warp wrapper should take a vec4 uv:\n%s", w)
	}
	if w := MainWrapper(false); !strings.Contains(w, "in vec2 frag_TEXCOORD0;") {
		t.Errorf("composite wrapper should take a vec2 uv:\n%s", w)
	}
}

func TestDefaults(t *testing.T) {
	want := []string{"v2f_c4f", "v2f_c4f_t2f", "blur1", "blur2"}
	if len(Defaults) != len(want) {
		t.Fatalf("got %d default programs, want %d", len(Defaults), len(want))
	}
	for i, p := range Defaults {
		if p.Name != want[i] {
			t.Errorf("Defaults[%d] = %q, want %q", i, p.Name, want[i])
		}
		if p.Vertex == "" || p.Fragment == "" {
			t.Errorf("%s has an empty stage", p.Name)
		}
	}
}

func TestGLSLPreludeMixedIntrinsics(t *testing.T) {
	for _, want := range []string{
		"vec3 pow_(vec3 a, float b) { return pow(a, vec3(b)); }",
		"vec4 max_(float a, vec4 b) { return max(vec4(a), b); }",
		"int min_(int a, int b) { return min(a, b); }",
		"vec2 clamp_(vec2 x, float lo, float hi) { return clamp(x, lo, hi); }",
		"vec3 lerp(vec3 a, float b, float t) { return mix(a, vec3(b), t); }",
	} {
		if !strings.Contains(GLSLPrelude, want) {
			t.Errorf("prelude is missing %q", want)
		}
	}
	if !strings.HasPrefix(GLSLPrelude, "#version 300 es\n") {
		t.Error("prelude must start with the version directive")
	}
}

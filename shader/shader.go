// Package shader holds the fixed GLSL sources of the renderer: the vertex
// stages paired with preset shaders, the default programs and the blur
// passes, plus the header every preset shader is compiled against.
package shader

import (
	"fmt"
	"strings"
)

// Vertex attribute locations shared by every program.
const (
	AttribPosition = 0
	AttribColor    = 1
	AttribTexture  = 2
	AttribRadAng   = 3
)

// Varyings names the inputs a generated preset fragment shader reads. Code
// generators may rename them, so the vertex stage is built from the names
// the fragment stage actually uses.
type Varyings struct {
	Color     string
	TexCoord0 string
	TexCoord1 string
}

// DefaultVaryings are the names emitted by the preset main wrapper.
var DefaultVaryings = Varyings{
	Color:     "frag_COLOR",
	TexCoord0: "frag_TEXCOORD0",
	TexCoord1: "frag_TEXCOORD1",
}

// ────────────────────────────────── Preset stages ──────────────────────────────────

const presetVertexTemplate = `#version 410 core
layout (location = 0) in vec2 vertex_position;
layout (location = 1) in vec4 vertex_color;
layout (location = 2) in vec4 vertex_texture;
layout (location = 3) in vec2 vertex_rad_ang;

uniform mat4 vertex_transformation;

out vec4 %[1]s;
out %[4]s %[2]s;
out vec2 %[3]s;

void main() {
    gl_Position = vertex_transformation * vec4(vertex_position, 0.0, 1.0);
    %[1]s = vertex_color;
    %[2]s = vertex_texture%[5]s;
    %[3]s = vertex_rad_ang;
}
`

// WarpVertexShader passes the warped and original UVs as one vec4.
func WarpVertexShader(v Varyings) string {
	return fmt.Sprintf(presetVertexTemplate, v.Color, v.TexCoord0, v.TexCoord1, "vec4", "")
}

// CompositeVertexShader passes only the screen UV.
func CompositeVertexShader(v Varyings) string {
	return fmt.Sprintf(presetVertexTemplate, v.Color, v.TexCoord0, v.TexCoord1, "vec2", ".xy")
}

// MainWrapper is appended to a lowered preset shader. It calls the PS entry
// point with the interpolated varyings.
func MainWrapper(warp bool) string {
	uvType := "vec2"
	if warp {
		uvType = "vec4"
	}
	return fmt.Sprintf(`
in vec4 %[1]s;
in %[4]s %[2]s;
in vec2 %[3]s;
out vec4 color;

void main() {
    vec4 ret_color;
    PS(%[1]s, %[2]s, %[3]s, ret_color);
    color = ret_color;
}
`, DefaultVaryings.Color, DefaultVaryings.TexCoord0, DefaultVaryings.TexCoord1, uvType)
}

// ────────────────────────────────── Preset header ──────────────────────────────────

// PresetHeader is prepended to every preset shader before preprocessing. It
// is written in the preset dialect and declares the per-frame uniform
// catalog along with the names presets use to reach it.
var PresetHeader = buildPresetHeader()

func buildPresetHeader() string {
	var b strings.Builder
	b.WriteString(`#define M_PI 3.14159265359
#define M_PI_2 6.28318530718
#define M_INV_PI_2 0.159154943091895

uniform float4 rand_frame;
uniform float4 rand_preset;
`)
	for i := 0; i <= 13; i++ {
		fmt.Fprintf(&b, "uniform float4 _c%d;\n", i)
	}
	for _, q := range "abcdefgh" {
		fmt.Fprintf(&b, "uniform float4 _q%c;\n", q)
	}
	for _, name := range RotationNames {
		fmt.Fprintf(&b, "uniform float4x3 %s;\n", name)
	}
	b.WriteString(`
#define time _c2.x
#define fps _c2.y
#define frame _c2.z
#define progress _c2.w
#define bass _c3.x
#define mid _c3.y
#define treb _c3.z
#define vol _c3.w
#define bass_att _c4.x
#define mid_att _c4.y
#define treb_att _c4.z
#define vol_att _c4.w
#define aspect _c0
#define texsize _c7
#define roam_cos _c8
#define roam_sin _c9
#define slow_roam_cos _c10
#define slow_roam_sin _c11
#define mip_x _c12.x
#define mip_y _c12.y
#define mip_xy _c12.xy
#define mip_avg _c12.z
#define blur1_min _c6.z
#define blur1_max _c6.w
#define blur2_min _c13.x
#define blur2_max _c13.y
#define blur3_min _c13.z
#define blur3_max _c13.w

#define GetMain(uv) (tex2D(sampler_main, uv).xyz)
#define GetPixel(uv) (tex2D(sampler_main, uv).xyz)
#define GetBlur1(uv) (tex2D(sampler_blur1, uv).xyz * _c5.x + _c5.y)
#define GetBlur2(uv) (tex2D(sampler_blur2, uv).xyz * _c5.z + _c5.w)
#define GetBlur3(uv) (tex2D(sampler_blur3, uv).xyz * _c6.x + _c6.y)
#define lum(x) (dot(x, float3(0.32, 0.49, 0.29)))
#define tex2d tex2D
#define tex3d tex3D
`)
	for i := 0; i < 32; i++ {
		fmt.Fprintf(&b, "#define q%d _q%c.%c\n", i+1, 'a'+rune(i/4), "xyzw"[i%4])
	}
	return b.String()
}

// RotationNames are the 24 transform matrices in upload order.
var RotationNames = rotationNames()

func rotationNames() []string {
	var names []string
	for _, prefix := range []string{"rot_s", "rot_d", "rot_f", "rot_vf", "rot_uf", "rot_rand"} {
		for i := 1; i <= 4; i++ {
			names = append(names, fmt.Sprintf("%s%d", prefix, i))
		}
	}
	return names
}

// GLSLPrelude is placed ahead of the lowered preset source. It supplies the
// dialect intrinsics that have no direct GLSL ES equivalent.
var GLSLPrelude = glslIntrinsics + mixedIntrinsics()

const glslIntrinsics = `#version 300 es
precision highp float;
precision highp int;
precision highp sampler2D;
precision highp sampler3D;

float saturate(float x) { return clamp(x, 0.0, 1.0); }
vec2 saturate(vec2 x) { return clamp(x, 0.0, 1.0); }
vec3 saturate(vec3 x) { return clamp(x, 0.0, 1.0); }
vec4 saturate(vec4 x) { return clamp(x, 0.0, 1.0); }
float lerp(float a, float b, float t) { return mix(a, b, t); }
vec2 lerp(vec2 a, vec2 b, float t) { return mix(a, b, t); }
vec3 lerp(vec3 a, vec3 b, float t) { return mix(a, b, t); }
vec4 lerp(vec4 a, vec4 b, float t) { return mix(a, b, t); }
vec2 lerp(vec2 a, vec2 b, vec2 t) { return mix(a, b, t); }
vec3 lerp(vec3 a, vec3 b, vec3 t) { return mix(a, b, t); }
vec4 lerp(vec4 a, vec4 b, vec4 t) { return mix(a, b, t); }
float frac(float x) { return fract(x); }
vec2 frac(vec2 x) { return fract(x); }
vec3 frac(vec3 x) { return fract(x); }
vec4 frac(vec4 x) { return fract(x); }
float rsqrt(float x) { return inversesqrt(x); }
vec2 rsqrt(vec2 x) { return inversesqrt(x); }
vec3 rsqrt(vec3 x) { return inversesqrt(x); }
vec4 rsqrt(vec4 x) { return inversesqrt(x); }
float atan2(float y, float x) { return atan(y, x); }
vec2 atan2(vec2 y, vec2 x) { return atan(y, x); }
vec3 atan2(vec3 y, vec3 x) { return atan(y, x); }
float fmod(float x, float y) { return x - y * trunc(x / y); }
vec2 fmod(vec2 x, vec2 y) { return x - y * trunc(x / y); }
vec3 fmod(vec3 x, vec3 y) { return x - y * trunc(x / y); }
vec4 fmod(vec4 x, vec4 y) { return x - y * trunc(x / y); }
float log10(float x) { return log(x) * 0.434294481903252; }
vec3 log10(vec3 x) { return log(x) * 0.434294481903252; }
float ddx(float x) { return dFdx(x); }
vec2 ddx(vec2 x) { return dFdx(x); }
vec3 ddx(vec3 x) { return dFdx(x); }
float ddy(float x) { return dFdy(x); }
vec2 ddy(vec2 x) { return dFdy(x); }
vec3 ddy(vec3 x) { return dFdy(x); }
vec4 tex2D(sampler2D s, vec2 uv) { return texture(s, uv); }
vec4 tex3D(sampler3D s, vec3 uvw) { return texture(s, uvw); }
`

// mixedIntrinsics defines pow_, max_, min_ and clamp_ for every pairing of
// scalar and vector arguments the dialect accepts, plus lerp with scalar
// endpoints. The lowering stage renames calls to the built-ins to these.
func mixedIntrinsics() string {
	var b strings.Builder
	for _, fn := range []string{"pow", "max", "min"} {
		fmt.Fprintf(&b, "float %[1]s_(float a, float b) { return %[1]s(a, b); }\n", fn)
		for n := 2; n <= 4; n++ {
			v := fmt.Sprintf("vec%d", n)
			fmt.Fprintf(&b, "%[2]s %[1]s_(%[2]s a, %[2]s b) { return %[1]s(a, b); }\n", fn, v)
			fmt.Fprintf(&b, "%[2]s %[1]s_(%[2]s a, float b) { return %[1]s(a, %[2]s(b)); }\n", fn, v)
			fmt.Fprintf(&b, "%[2]s %[1]s_(float a, %[2]s b) { return %[1]s(%[2]s(a), b); }\n", fn, v)
		}
	}
	b.WriteString("int max_(int a, int b) { return max(a, b); }\n")
	b.WriteString("int min_(int a, int b) { return min(a, b); }\n")
	b.WriteString("float clamp_(float x, float lo, float hi) { return clamp(x, lo, hi); }\n")
	b.WriteString("int clamp_(int x, int lo, int hi) { return clamp(x, lo, hi); }\n")
	for n := 2; n <= 4; n++ {
		v := fmt.Sprintf("vec%d", n)
		fmt.Fprintf(&b, "%[1]s clamp_(%[1]s x, %[1]s lo, %[1]s hi) { return clamp(x, lo, hi); }\n", v)
		fmt.Fprintf(&b, "%[1]s clamp_(%[1]s x, float lo, float hi) { return clamp(x, lo, hi); }\n", v)
		fmt.Fprintf(&b, "%[1]s lerp(%[1]s a, float b, float t) { return mix(a, %[1]s(b), t); }\n", v)
		fmt.Fprintf(&b, "%[1]s lerp(float a, %[1]s b, float t) { return mix(%[1]s(a), b, t); }\n", v)
	}
	return b.String()
}

// ────────────────────────────────── Default programs ──────────────────────────────────

const v2fC4fVertex = `#version 410 core
layout (location = 0) in vec2 vertex_position;
layout (location = 1) in vec4 vertex_color;

uniform mat4 vertex_transformation;
uniform float vertex_point_size;

out vec4 fragment_color;

void main() {
    gl_Position = vertex_transformation * vec4(vertex_position, 0.0, 1.0);
    gl_PointSize = vertex_point_size;
    fragment_color = vertex_color;
}
`

const v2fC4fFragment = `#version 410 core
in vec4 fragment_color;
out vec4 color;

void main() {
    color = fragment_color;
}
`

const v2fC4fT2fVertex = `#version 410 core
layout (location = 0) in vec2 vertex_position;
layout (location = 1) in vec4 vertex_color;
layout (location = 2) in vec2 vertex_texture;

uniform mat4 vertex_transformation;

out vec4 fragment_color;
out vec2 fragment_texture;

void main() {
    gl_Position = vertex_transformation * vec4(vertex_position, 0.0, 1.0);
    fragment_color = vertex_color;
    fragment_texture = vertex_texture;
}
`

const v2fC4fT2fFragment = `#version 410 core
in vec4 fragment_color;
in vec2 fragment_texture;
out vec4 color;

uniform sampler2D texture_sampler;

void main() {
    color = fragment_color * texture(texture_sampler, fragment_texture);
}
`

const blurVertex = `#version 410 core
layout (location = 0) in vec2 vertex_position;
layout (location = 2) in vec2 vertex_texture;

out vec2 fragment_texture;

void main() {
    gl_Position = vec4(vertex_position, 0.0, 1.0);
    fragment_texture = vertex_texture;
}
`

// Long horizontal pass. _c0 source size and inverse, _c1 weights,
// _c2 distances, _c3 (scale, bias, w_div, 0).
const blur1Fragment = `#version 410 core
in vec2 fragment_texture;
out vec4 color;

uniform sampler2D texture_sampler;
uniform vec4 _c0;
uniform vec4 _c1;
uniform vec4 _c2;
uniform vec4 _c3;

void main() {
    vec2 uv2 = fragment_texture + _c0.zw * vec2(1.0, 1.0);
    vec3 blur =
        (texture(texture_sampler, uv2 + vec2( _c2.x * _c0.z, 0.0)).xyz +
         texture(texture_sampler, uv2 + vec2(-_c2.x * _c0.z, 0.0)).xyz) * _c1.x +
        (texture(texture_sampler, uv2 + vec2( _c2.y * _c0.z, 0.0)).xyz +
         texture(texture_sampler, uv2 + vec2(-_c2.y * _c0.z, 0.0)).xyz) * _c1.y +
        (texture(texture_sampler, uv2 + vec2( _c2.z * _c0.z, 0.0)).xyz +
         texture(texture_sampler, uv2 + vec2(-_c2.z * _c0.z, 0.0)).xyz) * _c1.z +
        (texture(texture_sampler, uv2 + vec2( _c2.w * _c0.z, 0.0)).xyz +
         texture(texture_sampler, uv2 + vec2(-_c2.w * _c0.z, 0.0)).xyz) * _c1.w;
    blur *= _c3.z;
    blur = blur * _c3.x + _c3.y;
    color = vec4(blur, 1.0);
}
`

// Short vertical pass. _c0 source size and inverse, _c5 (w1, w2, d1, d2),
// _c6 (w_div, edge darken c1, c2, c3).
const blur2Fragment = `#version 410 core
in vec2 fragment_texture;
out vec4 color;

uniform sampler2D texture_sampler;
uniform vec4 _c0;
uniform vec4 _c5;
uniform vec4 _c6;

void main() {
    vec2 uv2 = fragment_texture + _c0.zw * vec2(1.0, 0.0);
    vec3 blur =
        (texture(texture_sampler, uv2 + vec2(0.0,  _c5.z * _c0.w)).xyz +
         texture(texture_sampler, uv2 + vec2(0.0, -_c5.z * _c0.w)).xyz) * _c5.x +
        (texture(texture_sampler, uv2 + vec2(0.0,  _c5.w * _c0.w)).xyz +
         texture(texture_sampler, uv2 + vec2(0.0, -_c5.w * _c0.w)).xyz) * _c5.y;
    blur *= _c6.x;

    float t = min(min(fragment_texture.x, fragment_texture.y), 1.0 - max(fragment_texture.x, fragment_texture.y));
    t = sqrt(t);
    t = _c6.y + _c6.z * clamp(t * _c6.w, 0.0, 1.0);
    blur *= t;
    color = vec4(blur, 1.0);
}
`

// Program is a vertex/fragment source pair.
type Program struct {
	Name     string
	Vertex   string
	Fragment string
}

var (
	V2fC4f    = Program{Name: "v2f_c4f", Vertex: v2fC4fVertex, Fragment: v2fC4fFragment}
	V2fC4fT2f = Program{Name: "v2f_c4f_t2f", Vertex: v2fC4fT2fVertex, Fragment: v2fC4fT2fFragment}
	Blur1     = Program{Name: "blur1", Vertex: blurVertex, Fragment: blur1Fragment}
	Blur2     = Program{Name: "blur2", Vertex: blurVertex, Fragment: blur2Fragment}
)

// Defaults lists the default program set in build order.
var Defaults = []Program{V2fC4f, V2fC4fT2f, Blur1, Blur2}

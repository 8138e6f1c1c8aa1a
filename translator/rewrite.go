package translator

import (
	"strings"

	"github.com/richinsley/gomilkdrop/pipeline"
)

const bodyMarker = "shader_body"

// EntryPoint is the name of the generated fragment function.
const EntryPoint = "PS"

// rewrite turns a preset's shader_body block into the PS entry point and
// prepends the stage aliases. The result is the preset's own code; the
// common header is added later.
func rewrite(kind pipeline.Kind, src string) (string, error) {
	toks := lex(src)

	body, last := -1, -1
	for i, t := range toks {
		switch {
		case t.kind == tokIdent && t.text == bodyMarker && body < 0:
			body = i
		case t.kind == tokPunct && t.text == "}":
			last = i
		}
	}
	if body < 0 {
		return "", ErrNoBodyMarker
	}
	open := -1
	for i := body + 1; i < len(toks); i++ {
		if toks[i].kind == tokPunct && toks[i].text == "{" {
			open = i
			break
		}
	}
	if open < 0 {
		return "", ErrNoOpenBrace
	}
	if last < open {
		return "", ErrNoCloseBrace
	}

	uvType := "float2"
	if kind == pipeline.Warp {
		uvType = "float4"
	}
	toks[last].text = "_return_value = float4(ret.xyz, 1.0);\n}\n"
	toks[body].text = "void " + EntryPoint + "(float4 _vDiffuse, " + uvType + " _uv, float2 _rad_ang, out float4 _return_value)\n"
	toks[open].text = "{\nfloat3 ret = float3(0, 0, 0);\n"

	var b strings.Builder
	b.WriteString("#define rad _rad_ang.x\n")
	b.WriteString("#define ang _rad_ang.y\n")
	b.WriteString("#define uv _uv.xy\n")
	if kind == pipeline.Warp {
		b.WriteString("#define uv_orig _uv.zw\n")
	} else {
		b.WriteString("#define uv_orig _uv.xy\n")
		b.WriteString("#define hue_shader _vDiffuse.xyz\n")
	}
	b.WriteString(join(toks))
	return b.String(), nil
}

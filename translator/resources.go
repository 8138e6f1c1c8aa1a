package translator

import "strings"

const samplerPrefix = "sampler_"

// references is what a preset's code asks for by name.
type references struct {
	// samplers holds the names following sampler_ in order of first use.
	samplers []string
	// blurLevel is the deepest GetBlurN helper used, 0 if none.
	blurLevel int
}

// scanReferences finds texture references in preset code. A reference is
// an identifier token, outside comments, that starts with sampler_ and has
// at least one more character. Identifiers inside preprocessor lines count
// too, so a sampler named only by a macro body is still found. Blur
// dependencies come from the GetBlur1, GetBlur2 and GetBlur3 helper
// identifiers.
func scanReferences(src string) references {
	var refs references
	seen := make(map[string]bool)
	refs.scan(lex(src), seen)
	return refs
}

func (refs *references) scan(toks []token, seen map[string]bool) {
	for _, t := range toks {
		if t.kind == tokDirective {
			refs.scan(lex(t.text[1:]), seen)
			continue
		}
		if t.kind != tokIdent {
			continue
		}
		switch t.text {
		case "GetBlur1":
			refs.blurLevel = max(refs.blurLevel, 1)
			continue
		case "GetBlur2":
			refs.blurLevel = max(refs.blurLevel, 2)
			continue
		case "GetBlur3":
			refs.blurLevel = max(refs.blurLevel, 3)
			continue
		}
		if len(t.text) > len(samplerPrefix) && strings.HasPrefix(t.text, samplerPrefix) {
			name := t.text[len(samplerPrefix):]
			if !seen[name] {
				seen[name] = true
				refs.samplers = append(refs.samplers, name)
			}
		}
	}
}

// Baseline lists the textures every preset shader is bound to whether it
// names them or not.
var Baseline = []string{"main", "noise_lq", "noise_lq_lite", "noise_mq", "noise_hq", "noisevol_lq", "noisevol_hq"}

package translator

import (
	"fmt"
	"regexp"
	"strings"
)

var typeNames = map[string]string{
	"float1": "float", "float2": "vec2", "float3": "vec3", "float4": "vec4",
	"half": "float", "half1": "float", "half2": "vec2", "half3": "vec3", "half4": "vec4",
	"double": "float",
	"int1":   "int", "int2": "ivec2", "int3": "ivec3", "int4": "ivec4",
	"uint1": "uint", "uint2": "uvec2", "uint3": "uvec3", "uint4": "uvec4",
	"bool1": "bool", "bool2": "bvec2", "bool3": "bvec3", "bool4": "bvec4",
}

// Words reserved by GLSL ES that are legal names in the preset dialect.
var reservedNames = map[string]bool{
	"input": true, "output": true, "filter": true, "sample": true, "common": true,
	"partition": true, "active": true, "smooth": true, "flat": true, "centroid": true,
	"invariant": true, "layout": true, "lowp": true, "mediump": true, "highp": true,
	"precision": true, "superp": true, "texture": true, "packed": true,
}

var (
	matrixTypeRe = regexp.MustCompile(`^(float|half)([1-4])x([1-4])$`)
	semanticRe   = regexp.MustCompile(`^(SV_\w+|COLOR\d*|TEXCOORD\d*|POSITION\d*|NORMAL\d*|VPOS|DEPTH\d*)$`)
	vectorTypeRe = regexp.MustCompile(`^[biu]?vec[234]$`)
)

// lower rewrites preprocessed preset code into GLSL ES 3.00. It renames
// types, removes semantics, turns mul() into the * operator, routes
// intrinsics that take mixed scalar and vector arguments to the prelude,
// makes numeric literals float where the dialect would have promoted them,
// adds the conversions the dialect performs on assignment and checks the
// result for structural errors.
func lower(src string) (string, error) {
	toks := lowerTypes(lex(src))
	toks = stripSemantics(toks)
	toks = lowerMul(toks)
	toks = lowerIntrinsics(toks)
	toks = lowerLiterals(toks)
	toks = widenScalars(toks)
	if err := validate(toks); err != nil {
		return "", err
	}
	return join(toks), nil
}

func lowerTypes(toks []token) []token {
	out := toks[:0]
	for _, t := range toks {
		if t.kind == tokIdent {
			switch {
			case t.text == "static" || t.text == "inline":
				continue
			case typeNames[t.text] != "":
				t.text = typeNames[t.text]
			case reservedNames[t.text]:
				t.text += "_"
			default:
				if m := matrixTypeRe.FindStringSubmatch(t.text); m != nil {
					rows, cols := m[2], m[3]
					if rows == cols {
						t.text = "mat" + rows
					} else {
						t.text = "mat" + cols + "x" + rows
					}
				}
			}
		}
		out = append(out, t)
	}
	return out
}

func stripSemantics(toks []token) []token {
	var out []token
	for i := 0; i < len(toks); i++ {
		if toks[i].text == ":" {
			j := i + 1
			for j < len(toks) && !toks[j].significant() {
				j++
			}
			if j < len(toks) && toks[j].kind == tokIdent && semanticRe.MatchString(toks[j].text) {
				i = j
				continue
			}
		}
		out = append(out, toks[i])
	}
	return out
}

func lowerMul(toks []token) []token {
	var out []token
	for i := 0; i < len(toks); i++ {
		if toks[i].kind == tokIdent && toks[i].text == "mul" {
			args, end, ok := collectArgs(toks, i+1)
			if ok && len(args) == 2 {
				out = append(out, token{tokPunct, "("}, token{tokPunct, "("})
				out = append(out, lowerMul(trimSpace(args[0]))...)
				out = append(out, token{tokPunct, ")"}, token{tokSpace, " "}, token{tokPunct, "*"}, token{tokSpace, " "}, token{tokPunct, "("})
				out = append(out, lowerMul(trimSpace(args[1]))...)
				out = append(out, token{tokPunct, ")"}, token{tokPunct, ")"})
				i = end
				continue
			}
		}
		out = append(out, toks[i])
	}
	return out
}

// mixedIntrinsics are built-ins the dialect also accepts with a scalar in
// place of a vector argument. GLSL ES does not allow overloading built-ins,
// so calls go to the prelude's suffixed versions.
var mixedIntrinsics = map[string]bool{"pow": true, "max": true, "min": true, "clamp": true}

func lowerIntrinsics(toks []token) []token {
	for i := range toks {
		if toks[i].kind == tokIdent && mixedIntrinsics[toks[i].text] {
			if n := nextSignificant(toks, i+1); n >= 0 && toks[n].text == "(" {
				toks[i].text += "_"
			}
		}
	}
	return toks
}

func isIntType(s string) bool {
	switch s {
	case "int", "uint", "ivec2", "ivec3", "ivec4", "uvec2", "uvec3", "uvec4":
		return true
	}
	return false
}

// statements splits toks at ; { and } outside parentheses. A for header is
// therefore a single statement.
func statements(toks []token) [][2]int {
	var spans [][2]int
	start, parens := 0, 0
	for i, t := range toks {
		if t.kind != tokPunct {
			continue
		}
		switch t.text {
		case "(":
			parens++
		case ")":
			if parens > 0 {
				parens--
			}
		case ";":
			if parens == 0 {
				spans = append(spans, [2]int{start, i + 1})
				start = i + 1
			}
		case "{", "}":
			spans = append(spans, [2]int{start, i + 1})
			start = i + 1
			parens = 0
		}
	}
	if start < len(toks) {
		spans = append(spans, [2]int{start, len(toks)})
	}
	return spans
}

// lowerLiterals drops f and h suffixes and gives integer literals a
// fraction, except for array indices and statements that work on integers.
func lowerLiterals(toks []token) []token {
	intNames := make(map[string]bool)
	for i, t := range toks {
		if t.kind == tokIdent && isIntType(t.text) {
			if n := nextSignificant(toks, i+1); n >= 0 && toks[n].kind == tokIdent {
				intNames[toks[n].text] = true
			}
		}
	}

	for _, span := range statements(toks) {
		intContext := false
		for _, t := range toks[span[0]:span[1]] {
			if t.kind == tokIdent && (isIntType(t.text) || intNames[t.text]) {
				intContext = true
				break
			}
		}
		brackets := 0
		for i := span[0]; i < span[1]; i++ {
			t := &toks[i]
			switch {
			case t.text == "[":
				brackets++
			case t.text == "]":
				if brackets > 0 {
					brackets--
				}
			case t.kind == tokNumber:
				t.text = floatLiteral(t.text, intContext || brackets > 0)
			}
		}
	}
	return toks
}

func floatLiteral(s string, keepInt bool) string {
	if strings.HasPrefix(s, "0x") || strings.HasPrefix(s, "0X") {
		return s
	}
	if last := s[len(s)-1]; last == 'f' || last == 'F' || last == 'h' || last == 'H' {
		s = s[:len(s)-1]
	}
	if last := s[len(s)-1]; last == 'u' || last == 'U' {
		return s
	}
	if keepInt || strings.ContainsAny(s, ".eE") {
		return s
	}
	return s + ".0"
}

func nextSignificant(toks []token, i int) int {
	for ; i < len(toks); i++ {
		if toks[i].significant() {
			return i
		}
	}
	return -1
}

var scalarTypes = map[string]bool{"float": true, "int": true, "uint": true, "bool": true}

var assignOps = map[string]bool{"=": true, "+=": true, "-=": true, "*=": true, "/=": true}

type decl struct {
	pos int
	typ string
}

// declarations records every "type name" pair by name, in token order.
func declarations(toks []token) map[string][]decl {
	decls := make(map[string][]decl)
	for i, t := range toks {
		if t.kind != tokIdent || !(scalarTypes[t.text] || vectorTypeRe.MatchString(t.text)) {
			continue
		}
		if n := nextSignificant(toks, i+1); n >= 0 && toks[n].kind == tokIdent {
			decls[toks[n].text] = append(decls[toks[n].text], decl{n, t.text})
		}
	}
	return decls
}

// typeAt is the type of the last declaration of name at or before pos.
func typeAt(decls map[string][]decl, name string, pos int) string {
	typ := ""
	for _, d := range decls[name] {
		if d.pos > pos {
			break
		}
		typ = d.typ
	}
	return typ
}

// widenScalars wraps the value assigned to a vector in a constructor of
// the vector's type. The dialect splats scalars and truncates longer
// vectors on assignment; GLSL only does either through a constructor.
func widenScalars(toks []token) []token {
	decls := declarations(toks)
	for _, span := range statements(toks) {
		var sig []int
		for i := span[0]; i < span[1]; i++ {
			if toks[i].significant() {
				sig = append(sig, i)
			}
		}
		depth := 0
		for j := 0; j < len(sig); j++ {
			switch toks[sig[j]].text {
			case "(", "[":
				depth++
				continue
			case ")", "]":
				depth--
				continue
			}
			if depth != 0 || !assignOps[toks[sig[j]].text] || j == 0 {
				continue
			}
			end := rhsEnd(toks, sig, j+1)
			widenAssignment(toks, sig, j, end, decls)
			j = end - 1
		}
	}
	return toks
}

// rhsEnd returns the index in sig just past the expression starting at
// from: the first top-level comma or semicolon, or a bracket closing an
// enclosing expression.
func rhsEnd(toks []token, sig []int, from int) int {
	depth := 0
	for k := from; k < len(sig); k++ {
		switch toks[sig[k]].text {
		case "(", "[":
			depth++
		case ")", "]":
			if depth == 0 {
				return k
			}
			depth--
		case ",", ";", "{", "}":
			if depth == 0 {
				return k
			}
		}
	}
	return len(sig)
}

// closeParen returns the index in sig of the bracket closing sig[open].
func closeParen(toks []token, sig []int, open int) int {
	depth := 0
	for k := open; k < len(sig); k++ {
		switch toks[sig[k]].text {
		case "(", "[":
			depth++
		case ")", "]":
			depth--
			if depth == 0 {
				return k
			}
		}
	}
	return -1
}

func widenAssignment(toks []token, sig []int, op, end int, decls map[string][]decl) {
	target := toks[sig[op-1]]
	if target.kind != tokIdent || (op >= 2 && toks[sig[op-2]].text == ".") {
		return
	}
	typ := typeAt(decls, target.text, sig[op-1])
	if typ == "" || !vectorTypeRe.MatchString(typ) {
		return
	}
	first, last := op+1, end-1
	if first > last {
		return
	}

	// Values that already have the target type are left alone.
	if first == last && toks[sig[first]].kind == tokIdent && typeAt(decls, toks[sig[first]].text, sig[first]) == typ {
		return
	}
	if toks[sig[first]].text == typ && first+1 <= last && toks[sig[first+1]].text == "(" && closeParen(toks, sig, first+1) == last {
		return
	}

	toks[sig[first]].text = typ + "(" + toks[sig[first]].text
	toks[sig[last]].text += ")"
}

// validate checks bracket nesting and that the entry point is defined at
// file scope.
func validate(toks []token) error {
	var stack []string
	pairs := map[string]string{")": "(", "]": "[", "}": "{"}
	entry := false
	for i, t := range toks {
		if t.kind != tokPunct && t.kind != tokIdent {
			continue
		}
		switch t.text {
		case "(", "[", "{":
			stack = append(stack, t.text)
		case ")", "]", "}":
			if len(stack) == 0 || stack[len(stack)-1] != pairs[t.text] {
				return fmt.Errorf("%w: unexpected %q", ErrUnbalanced, t.text)
			}
			stack = stack[:len(stack)-1]
		case EntryPoint:
			if len(stack) == 0 && t.kind == tokIdent {
				if n := nextSignificant(toks, i+1); n >= 0 && toks[n].text == "(" {
					entry = true
				}
			}
		}
	}
	if len(stack) > 0 {
		return fmt.Errorf("%w: unclosed %q", ErrUnbalanced, stack[len(stack)-1])
	}
	if !entry {
		return ErrMissingEntry
	}
	return nil
}

package translator

import (
	"fmt"
	"strings"
)

type macro struct {
	params   []string
	function bool
	body     []token
}

type condFrame struct {
	active       bool // this branch emits
	taken        bool // some branch of this group has emitted
	parentActive bool
}

type preprocessor struct {
	macros map[string]*macro
	conds  []condFrame
}

const maxExpansionDepth = 64

// preprocess expands #define macros and resolves conditionals. Comments are
// replaced by whitespace keeping line breaks, so line numbers in later error
// logs still match the input.
func preprocess(src string) (string, error) {
	p := &preprocessor{macros: make(map[string]*macro)}
	toks := lex(src)

	var out []token
	var pending []token
	flush := func() error {
		exp, err := p.expand(pending, nil, 0)
		if err != nil {
			return err
		}
		out = append(out, exp...)
		pending = pending[:0]
		return nil
	}

	for _, t := range toks {
		if t.kind == tokDirective {
			if err := flush(); err != nil {
				return "", err
			}
			if err := p.directive(t.text); err != nil {
				return "", err
			}
			// keep the line count
			out = append(out, token{tokSpace, strings.Repeat("\n", strings.Count(t.text, "\n"))})
			continue
		}
		if !p.active() {
			if n := strings.Count(t.text, "\n"); n > 0 {
				out = append(out, token{tokSpace, strings.Repeat("\n", n)})
			}
			continue
		}
		if t.kind == tokComment {
			t = token{tokSpace, " " + strings.Repeat("\n", strings.Count(t.text, "\n"))}
		}
		pending = append(pending, t)
	}
	if err := flush(); err != nil {
		return "", err
	}
	if len(p.conds) > 0 {
		return "", ErrUnterminated
	}
	return join(out), nil
}

func (p *preprocessor) active() bool {
	return len(p.conds) == 0 || p.conds[len(p.conds)-1].active
}

func (p *preprocessor) directive(line string) error {
	line = strings.ReplaceAll(line, "\\\r\n", " ")
	line = strings.ReplaceAll(line, "\\\n", " ")
	line = strings.TrimSpace(strings.TrimPrefix(line, "#"))
	name, rest, _ := strings.Cut(line, " ")
	if i := strings.IndexAny(name, "\t("); i >= 0 {
		name, rest = name[:i], name[i:]+" "+rest
	}
	rest = strings.TrimSpace(rest)

	switch name {
	case "ifdef", "ifndef":
		_, defined := p.macros[firstIdent(rest)]
		cond := defined == (name == "ifdef")
		p.push(cond)
		return nil
	case "if":
		v, err := p.evalCondition(rest)
		if err != nil {
			return err
		}
		p.push(v)
		return nil
	case "elif":
		if len(p.conds) == 0 {
			return fmt.Errorf("#elif without #if")
		}
		f := &p.conds[len(p.conds)-1]
		v, err := p.evalCondition(rest)
		if err != nil {
			return err
		}
		f.active = f.parentActive && !f.taken && v
		f.taken = f.taken || f.active
		return nil
	case "else":
		if len(p.conds) == 0 {
			return fmt.Errorf("#else without #if")
		}
		f := &p.conds[len(p.conds)-1]
		f.active = f.parentActive && !f.taken
		f.taken = true
		return nil
	case "endif":
		if len(p.conds) == 0 {
			return fmt.Errorf("#endif without #if")
		}
		p.conds = p.conds[:len(p.conds)-1]
		return nil
	}

	if !p.active() {
		return nil
	}
	switch name {
	case "define":
		return p.define(rest)
	case "undef":
		delete(p.macros, firstIdent(rest))
		return nil
	case "pragma", "":
		return nil
	case "error":
		return fmt.Errorf("#error %s", rest)
	}
	return fmt.Errorf("%w: #%s", ErrUnsupported, name)
}

func (p *preprocessor) push(cond bool) {
	parent := p.active()
	p.conds = append(p.conds, condFrame{active: parent && cond, taken: parent && cond, parentActive: parent})
}

func firstIdent(s string) string {
	for i := 0; i < len(s); i++ {
		if !isIdentChar(s[i]) {
			return s[:i]
		}
	}
	return s
}

// evalCondition understands the forms presets use: integer literals,
// defined(X), defined X, a macro name, and a leading !.
func (p *preprocessor) evalCondition(expr string) (bool, error) {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "!") {
		v, err := p.evalCondition(expr[1:])
		return !v, err
	}
	if strings.HasPrefix(expr, "defined") {
		arg := strings.TrimSpace(strings.TrimPrefix(expr, "defined"))
		arg = strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(arg, "("), ")"))
		_, ok := p.macros[arg]
		return ok, nil
	}
	if m, ok := p.macros[expr]; ok && !m.function {
		return p.evalCondition(join(m.body))
	}
	var n int
	if _, err := fmt.Sscanf(expr, "%d", &n); err == nil {
		return n != 0, nil
	}
	if expr != "" && isIdentStart(expr[0]) && firstIdent(expr) == expr {
		return false, nil
	}
	return false, fmt.Errorf("%w: #if %s", ErrUnsupported, expr)
}

func (p *preprocessor) define(rest string) error {
	name := firstIdent(rest)
	if name == "" {
		return fmt.Errorf("#define without a name")
	}
	m := &macro{}
	body := rest[len(name):]
	if strings.HasPrefix(body, "(") {
		end := strings.IndexByte(body, ')')
		if end < 0 {
			return fmt.Errorf("#define %s: unterminated parameter list", name)
		}
		m.function = true
		for _, param := range strings.Split(body[1:end], ",") {
			if param = strings.TrimSpace(param); param != "" {
				m.params = append(m.params, param)
			}
		}
		body = body[end+1:]
	}
	for _, t := range lex(strings.TrimSpace(body)) {
		if t.kind == tokComment {
			t = token{tokSpace, " "}
		}
		m.body = append(m.body, t)
	}
	p.macros[name] = m
	return nil
}

// expand replaces macro invocations in toks. disabled holds the macros
// currently being expanded, which are not expanded again.
func (p *preprocessor) expand(toks []token, disabled map[string]bool, depth int) ([]token, error) {
	if depth > maxExpansionDepth {
		return nil, fmt.Errorf("macro expansion too deep")
	}
	var out []token
	for i := 0; i < len(toks); i++ {
		t := toks[i]
		m, ok := p.macros[t.text]
		if t.kind != tokIdent || !ok || disabled[t.text] {
			out = append(out, t)
			continue
		}

		var body []token
		if m.function {
			args, next, found := collectArgs(toks, i+1)
			if !found {
				// a function-like macro name without arguments is left alone
				out = append(out, t)
				continue
			}
			if len(args) == 1 && len(m.params) == 0 && len(trimSpace(args[0])) == 0 {
				args = nil
			}
			if len(args) != len(m.params) {
				return nil, fmt.Errorf("%w: %s takes %d, got %d", ErrMacroArgCount, t.text, len(m.params), len(args))
			}
			body = substitute(m, args)
			i = next
		} else {
			body = m.body
		}

		inner := make(map[string]bool, len(disabled)+1)
		for k := range disabled {
			inner[k] = true
		}
		inner[t.text] = true
		exp, err := p.expand(paste(body), inner, depth+1)
		if err != nil {
			return nil, err
		}
		out = append(out, exp...)
	}
	return out, nil
}

// collectArgs reads a parenthesised argument list starting at the first
// significant token at or after i. It returns the index of the closing
// parenthesis.
func collectArgs(toks []token, i int) (args [][]token, end int, ok bool) {
	for i < len(toks) && !toks[i].significant() {
		i++
	}
	if i >= len(toks) || toks[i].text != "(" {
		return nil, 0, false
	}
	depth := 0
	var cur []token
	for j := i + 1; j < len(toks); j++ {
		t := toks[j]
		switch t.text {
		case "(", "[":
			depth++
		case ")", "]":
			if depth == 0 && t.text == ")" {
				return append(args, cur), j, true
			}
			depth--
		case ",":
			if depth == 0 {
				args = append(args, cur)
				cur = nil
				continue
			}
		}
		cur = append(cur, t)
	}
	return nil, 0, false
}

func trimSpace(toks []token) []token {
	for len(toks) > 0 && !toks[0].significant() {
		toks = toks[1:]
	}
	for len(toks) > 0 && !toks[len(toks)-1].significant() {
		toks = toks[:len(toks)-1]
	}
	return toks
}

func substitute(m *macro, args [][]token) []token {
	var out []token
	for _, t := range m.body {
		if t.kind == tokIdent {
			idx := -1
			for k, param := range m.params {
				if param == t.text {
					idx = k
					break
				}
			}
			if idx >= 0 {
				out = append(out, trimSpace(args[idx])...)
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// paste joins the tokens on either side of ##.
func paste(toks []token) []token {
	var out []token
	for i := 0; i < len(toks); i++ {
		if toks[i].text != "##" {
			out = append(out, toks[i])
			continue
		}
		for len(out) > 0 && !out[len(out)-1].significant() {
			out = out[:len(out)-1]
		}
		j := i + 1
		for j < len(toks) && !toks[j].significant() {
			j++
		}
		if len(out) == 0 || j >= len(toks) {
			continue
		}
		merged := lex(out[len(out)-1].text + toks[j].text)
		out = append(out[:len(out)-1], merged...)
		i = j
	}
	return out
}

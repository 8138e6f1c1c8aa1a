package translator

import "strings"

type tokenKind int

const (
	tokSpace tokenKind = iota
	tokComment
	tokIdent
	tokNumber
	tokPunct
	tokDirective // a whole preprocessor line, continuations joined
)

type token struct {
	kind tokenKind
	text string
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool { return isIdentStart(c) || (c >= '0' && c <= '9') }

func isDigitByte(c byte) bool { return c >= '0' && c <= '9' }

// twoCharPuncts are kept as single tokens so operators survive round trips.
var twoCharPuncts = []string{"++", "--", "+=", "-=", "*=", "/=", "==", "!=", "<=", ">=", "&&", "||", "<<", ">>", "##"}

// lex splits src into tokens. Concatenating every token's text reproduces
// src exactly. Preprocessor lines are only recognised as the first
// non-blank content of a line.
func lex(src string) []token {
	var toks []token
	lineStart := true
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			j := i
			for j < len(src) && (src[j] == ' ' || src[j] == '\t' || src[j] == '\r' || src[j] == '\n') {
				if src[j] == '\n' {
					lineStart = true
				}
				j++
			}
			toks = append(toks, token{tokSpace, src[i:j]})
			i = j
			continue
		case c == '#' && lineStart:
			j := i
			for j < len(src) && src[j] != '\n' {
				if src[j] == '\\' && j+1 < len(src) && (src[j+1] == '\n' || (src[j+1] == '\r' && j+2 < len(src) && src[j+2] == '\n')) {
					j += 2
					if src[j-1] == '\r' {
						j++
					}
					continue
				}
				j++
			}
			toks = append(toks, token{tokDirective, src[i:j]})
			i = j
		case c == '/' && i+1 < len(src) && src[i+1] == '/':
			j := strings.IndexByte(src[i:], '\n')
			if j < 0 {
				j = len(src) - i
			}
			toks = append(toks, token{tokComment, src[i : i+j]})
			i += j
		case c == '/' && i+1 < len(src) && src[i+1] == '*':
			j := strings.Index(src[i+2:], "*/")
			end := len(src)
			if j >= 0 {
				end = i + 2 + j + 2
			}
			toks = append(toks, token{tokComment, src[i:end]})
			i = end
		case isIdentStart(c):
			j := i + 1
			for j < len(src) && isIdentChar(src[j]) {
				j++
			}
			toks = append(toks, token{tokIdent, src[i:j]})
			i = j
		case isDigitByte(c) || (c == '.' && i+1 < len(src) && isDigitByte(src[i+1])):
			j := scanNumber(src, i)
			toks = append(toks, token{tokNumber, src[i:j]})
			i = j
		default:
			n := 1
			if i+1 < len(src) {
				pair := src[i : i+2]
				for _, p := range twoCharPuncts {
					if pair == p {
						n = 2
						break
					}
				}
			}
			toks = append(toks, token{tokPunct, src[i : i+n]})
			i += n
		}
		lineStart = false
	}
	return toks
}

func scanNumber(src string, i int) int {
	j := i
	if src[j] == '0' && j+1 < len(src) && (src[j+1] == 'x' || src[j+1] == 'X') {
		j += 2
		for j < len(src) && (isDigitByte(src[j]) || strings.IndexByte("abcdefABCDEF", src[j]) >= 0) {
			j++
		}
		if j < len(src) && (src[j] == 'u' || src[j] == 'U') {
			j++
		}
		return j
	}
	for j < len(src) && isDigitByte(src[j]) {
		j++
	}
	if j < len(src) && src[j] == '.' {
		j++
		for j < len(src) && isDigitByte(src[j]) {
			j++
		}
	}
	if j < len(src) && (src[j] == 'e' || src[j] == 'E') {
		k := j + 1
		if k < len(src) && (src[k] == '+' || src[k] == '-') {
			k++
		}
		if k < len(src) && isDigitByte(src[k]) {
			j = k
			for j < len(src) && isDigitByte(src[j]) {
				j++
			}
		}
	}
	if j < len(src) && strings.IndexByte("fFhHuU", src[j]) >= 0 {
		j++
	}
	return j
}

func join(toks []token) string {
	var b strings.Builder
	for _, t := range toks {
		b.WriteString(t.text)
	}
	return b.String()
}

// significant reports whether t carries syntax.
func (t token) significant() bool { return t.kind != tokSpace && t.kind != tokComment }

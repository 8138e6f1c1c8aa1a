package translator

import (
	"errors"
	"strings"
	"testing"
)

func TestPreprocess(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
	}{
		{"object macro", "#define A 2\nfloat x = A;\n", "\nfloat x = 2;\n"},
		{"function macro", "#define SQ(a) ((a)*(a))\ny = SQ(b + 1);", "\ny = ((b + 1)*(b + 1));"},
		{"nested", "#define A B\n#define B 3\nA", "\n\n3"},
		{"self reference", "#define A A\nA", "\nA"},
		{"undef", "#define A 1\n#undef A\nA", "\n\nA"},
		{"paste", "#define CAT(a,b) a##b\nCAT(foo, bar)", "\nfoobar"},
		{"function name without call", "#define F(x) x\nF;", "\nF;"},
		{"pragma", "#pragma optimize\nx", "\nx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := preprocess(tt.src)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPreprocessConditionals(t *testing.T) {
	src := `#define A
#ifdef A
yes1
#else
no1
#endif
#ifndef A
no2
#elif 1
yes4
#endif
#if 0
no4
#elif defined(A)
yes2
#else
no5
#endif
#if 0
#if 1
no6
#endif
#else
yes3
#endif
`
	got, err := preprocess(src)
	if err != nil {
		t.Fatal(err)
	}
	for _, s := range []string{"yes1", "yes2", "yes3", "yes4"} {
		if !strings.Contains(got, s) {
			t.Errorf("missing %s in %q", s, got)
		}
	}
	for _, s := range []string{"no1", "no2", "no4", "no5", "no6"} {
		if strings.Contains(got, s) {
			t.Errorf("unexpected %s in %q", s, got)
		}
	}
	if strings.Count(got, "\n") != strings.Count(src, "\n") {
		t.Errorf("line count changed: %d vs %d", strings.Count(got, "\n"), strings.Count(src, "\n"))
	}
}

func TestPreprocessComments(t *testing.T) {
	got, err := preprocess("a /* x\ny */ b // sampler_hidden\nc")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(got, "x") || strings.Contains(got, "hidden") {
		t.Errorf("comment text survived: %q", got)
	}
	if strings.Count(got, "\n") != 2 {
		t.Errorf("got %q, want two line breaks", got)
	}
}

func TestPreprocessErrors(t *testing.T) {
	tests := []struct {
		src  string
		want error
	}{
		{"#include \"common.fx\"\n", ErrUnsupported},
		{"#ifdef A\nx\n", ErrUnterminated},
		{"#define F(a, b) a\nF(1)", ErrMacroArgCount},
	}
	for _, tt := range tests {
		_, err := preprocess(tt.src)
		if !errors.Is(err, tt.want) {
			t.Errorf("preprocess(%q) = %v, want %v", tt.src, err, tt.want)
		}
	}
	if _, err := preprocess("#endif\n"); err == nil {
		t.Error("stray #endif accepted")
	}
}

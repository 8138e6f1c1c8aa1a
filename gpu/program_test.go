package gpu

import "testing"

func TestProgramRefcount(t *testing.T) {
	var released []uint32
	p := NewProgram(7, "warp", func(id uint32) { released = append(released, id) })
	p.Retain()
	if p.Refs() != 2 {
		t.Fatalf("Refs = %d, want 2", p.Refs())
	}
	p.Release()
	if len(released) != 0 {
		t.Fatalf("released early: %v", released)
	}
	p.Release()
	if len(released) != 1 || released[0] != 7 {
		t.Fatalf("released = %v, want [7]", released)
	}
}

func TestNilProgram(t *testing.T) {
	var p *Program
	if p.ID() != 0 || p.Refs() != 0 || p.Label() != "" {
		t.Fatal("nil program should report zero values")
	}
	p.Retain()
	p.Release()
}

func TestCompileErrorMessage(t *testing.T) {
	err := &CompileError{Stage: StageCompile, Shader: "fragment", Label: "comp", Log: "0:1: syntax error"}
	if got, want := err.Error(), "comp: failed to compile fragment shader: 0:1: syntax error"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
	err = &CompileError{Stage: StageLink, Label: "warp", Log: "bad"}
	if got, want := err.Error(), "warp: failed to link program: bad"; got != want {
		t.Fatalf("Error() = %q, want %q", got, want)
	}
}

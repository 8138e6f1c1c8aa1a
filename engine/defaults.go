package engine

import (
	"fmt"

	"github.com/richinsley/gomilkdrop/gpu"
	"github.com/richinsley/gomilkdrop/shader"
)

// DefaultPrograms is the program set used when a preset has no custom
// shader, and for the blur passes. It is built once per render context and
// passed to whatever needs it.
type DefaultPrograms struct {
	V2fC4f    *gpu.Program
	V2fC4fT2f *gpu.Program
	Blur1     *gpu.Program
	Blur2     *gpu.Program
}

// NewDefaultPrograms compiles the default set on the current context.
func NewDefaultPrograms(b gpu.Backend) (*DefaultPrograms, error) {
	var built []*gpu.Program
	for _, p := range shader.Defaults {
		id, err := b.CompileProgram(p.Vertex, p.Fragment, p.Name)
		if err != nil {
			for _, prog := range built {
				prog.Release()
			}
			return nil, fmt.Errorf("failed to build default program %s: %w", p.Name, err)
		}
		built = append(built, gpu.NewProgram(id, p.Name, b.DeleteProgram))
	}
	return &DefaultPrograms{
		V2fC4f:    built[0],
		V2fC4fT2f: built[1],
		Blur1:     built[2],
		Blur2:     built[3],
	}, nil
}

// Release deletes every program in the set.
func (d *DefaultPrograms) Release() {
	for _, p := range []*gpu.Program{d.V2fC4f, d.V2fC4fT2f, d.Blur1, d.Blur2} {
		p.Release()
	}
}

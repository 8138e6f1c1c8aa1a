// Package gputest provides a recording gpu.Backend for tests.
package gputest

import (
	"fmt"
	"strings"
	"sync"

	"github.com/richinsley/gomilkdrop/gpu"
)

// Call is one recorded backend invocation.
type Call struct {
	Op   string
	Args []any
}

func (c Call) String() string {
	return fmt.Sprintf("%s%v", c.Op, c.Args)
}

// Program is what the fake knows about a compiled program.
type Program struct {
	Vertex   string
	Fragment string
	Label    string
}

// Backend records every call. It is safe for concurrent use.
type Backend struct {
	mu sync.Mutex

	// FailCompile returns an error for a CompileProgram call when non-nil.
	FailCompile func(vertex, fragment, label string) error
	// OptimizedOut lists uniform names that report location -1.
	OptimizedOut map[string]bool
	// CompileHook runs at the start of CompileProgram, outside the lock.
	CompileHook func(label string)

	calls     []Call
	next      uint32
	programs  map[uint32]Program
	textures  map[uint32]gpu.TextureDesc
	samplers  map[uint32][2]int
	locations map[string]int32
	names     map[int32]string
	uniforms  map[string][]float32
	ints      map[string]int32
	used      uint32
}

// New returns an empty fake backend.
func New() *Backend {
	return &Backend{
		OptimizedOut: make(map[string]bool),
		programs:     make(map[uint32]Program),
		textures:     make(map[uint32]gpu.TextureDesc),
		samplers:     make(map[uint32][2]int),
		locations:    make(map[string]int32),
		names:        make(map[int32]string),
		uniforms:     make(map[string][]float32),
		ints:         make(map[string]int32),
	}
}

func (b *Backend) record(op string, args ...any) {
	b.calls = append(b.calls, Call{Op: op, Args: args})
}

func (b *Backend) CompileProgram(vertex, fragment, label string) (uint32, error) {
	if b.CompileHook != nil {
		b.CompileHook(label)
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("CompileProgram", label)
	if b.FailCompile != nil {
		if err := b.FailCompile(vertex, fragment, label); err != nil {
			return 0, err
		}
	}
	b.next++
	b.programs[b.next] = Program{Vertex: vertex, Fragment: fragment, Label: label}
	return b.next, nil
}

func (b *Backend) DeleteProgram(id uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DeleteProgram", id)
	delete(b.programs, id)
}

func (b *Backend) UseProgram(id uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("UseProgram", id)
	b.used = id
}

// UniformLocation hands out a stable location per (program, name).
func (b *Backend) UniformLocation(program uint32, name string) int32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.OptimizedOut[name] {
		return -1
	}
	key := fmt.Sprintf("%d/%s", program, name)
	if loc, ok := b.locations[key]; ok {
		return loc
	}
	loc := int32(len(b.locations))
	b.locations[key] = loc
	b.names[loc] = name
	return loc
}

func (b *Backend) Uniform1i(location int32, v int32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Uniform1i", b.names[location], v)
	b.ints[b.names[location]] = v
}

func (b *Backend) Uniform4f(location int32, x, y, z, w float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Uniform4f", b.names[location])
	b.uniforms[b.names[location]] = []float32{x, y, z, w}
}

func (b *Backend) UniformMatrix3x4(location int32, m *[16]float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("UniformMatrix3x4", b.names[location])
	b.uniforms[b.names[location]] = append([]float32(nil), m[:]...)
}

func (b *Backend) UniformMatrix4(location int32, m *[16]float32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("UniformMatrix4", b.names[location])
	b.uniforms[b.names[location]] = append([]float32(nil), m[:]...)
}

func (b *Backend) CreateTexture(desc gpu.TextureDesc, pixels any) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.record("CreateTexture", b.next, desc.Width, desc.Height, desc.Depth)
	b.textures[b.next] = desc
	return b.next
}

func (b *Backend) DeleteTexture(id uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DeleteTexture", id)
	delete(b.textures, id)
}

func (b *Backend) CreateSampler(wrap gpu.Wrap, filter gpu.Filter) uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.next++
	b.record("CreateSampler", b.next, wrap.String(), filter.String())
	b.samplers[b.next] = [2]int{int(wrap), int(filter)}
	return b.next
}

func (b *Backend) DeleteSampler(id uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("DeleteSampler", id)
	delete(b.samplers, id)
}

func (b *Backend) ActiveTexture(unit uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("ActiveTexture", unit)
}

func (b *Backend) BindTexture(target gpu.Target, id uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("BindTexture", int(target), id)
}

func (b *Backend) BindSampler(unit uint32, sampler uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("BindSampler", unit, sampler)
}

func (b *Backend) CopyFramebufferToTexture(id uint32, width, height int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("CopyFramebufferToTexture", id, width, height)
}

func (b *Backend) Finish() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.record("Finish")
}

// Calls returns a copy of the recorded calls.
func (b *Backend) Calls() []Call {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Call(nil), b.calls...)
}

// CountOp reports how many times op was called.
func (b *Backend) CountOp(op string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.calls {
		if c.Op == op {
			n++
		}
	}
	return n
}

// Reset forgets recorded calls but keeps live objects.
func (b *Backend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.calls = nil
	b.uniforms = make(map[string][]float32)
	b.ints = make(map[string]int32)
}

// Program returns the sources of a live program.
func (b *Backend) Program(id uint32) (Program, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	p, ok := b.programs[id]
	return p, ok
}

// LivePrograms counts programs created and not yet deleted.
func (b *Backend) LivePrograms() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.programs)
}

// Texture returns the descriptor of a live texture.
func (b *Backend) Texture(id uint32) (gpu.TextureDesc, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	d, ok := b.textures[id]
	return d, ok
}

// Uniform returns the last value uploaded for a uniform name.
func (b *Backend) Uniform(name string) ([]float32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.uniforms[name]
	return v, ok
}

// UniformInt returns the last integer uploaded for a uniform name.
func (b *Backend) UniformInt(name string) (int32, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	v, ok := b.ints[name]
	return v, ok
}

// Used is the most recently bound program.
func (b *Backend) Used() uint32 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.used
}

// HasFragment reports whether any live program's fragment source contains s.
func (b *Backend) HasFragment(s string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, p := range b.programs {
		if strings.Contains(p.Fragment, s) {
			return true
		}
	}
	return false
}

package gpu

import (
	"sync"
	"sync/atomic"
)

// Program is a linked GPU program handle. It is reference counted: the
// holder that created it owns one reference, every additional holder calls
// Retain, and the underlying program is deleted when the last reference is
// released.
type Program struct {
	id      uint32
	label   string
	refs    atomic.Int32
	release func(uint32)

	mu        sync.Mutex
	locations map[string]int32
}

// NewProgram wraps id with a single owning reference. release is invoked
// with id once the count drops to zero.
func NewProgram(id uint32, label string, release func(uint32)) *Program {
	p := &Program{
		id:        id,
		label:     label,
		release:   release,
		locations: make(map[string]int32),
	}
	p.refs.Store(1)
	return p
}

// ID returns the backend handle, or 0 for a nil program.
func (p *Program) ID() uint32 {
	if p == nil {
		return 0
	}
	return p.id
}

func (p *Program) Label() string {
	if p == nil {
		return ""
	}
	return p.label
}

// Retain adds a reference and returns p. Retaining nil is a no-op.
func (p *Program) Retain() *Program {
	if p != nil {
		p.refs.Add(1)
	}
	return p
}

// Release drops a reference. Releasing nil is a no-op.
func (p *Program) Release() {
	if p == nil {
		return
	}
	switch n := p.refs.Add(-1); {
	case n == 0:
		if p.release != nil {
			p.release(p.id)
		}
	case n < 0:
		panic("gpu: program released more times than retained")
	}
}

// Refs reports the current reference count.
func (p *Program) Refs() int {
	if p == nil {
		return 0
	}
	return int(p.refs.Load())
}

// Location resolves and caches a uniform location.
func (p *Program) Location(b Backend, name string) int32 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if loc, ok := p.locations[name]; ok {
		return loc
	}
	loc := b.UniformLocation(p.id, name)
	p.locations[name] = loc
	return loc
}

package pipeline

import (
	"sort"

	"github.com/richinsley/gomilkdrop/texture"
)

// Kind selects the preset shader stage.
type Kind int

const (
	Warp Kind = iota
	Composite
)

func (k Kind) String() string {
	if k == Composite {
		return "composite"
	}
	return "warp"
}

// Source identifies where a preset shader came from.
type Source struct {
	PresetPath string
	FileName   string
	Text       string
}

// NamedBinding is a sampler uniform and what it is bound to.
type NamedBinding struct {
	Name string
	texture.Binding
}

// ShaderCache describes the texture dependencies of a compiled preset
// shader. It is immutable after construction and safe to share.
type ShaderCache struct {
	kind     Kind
	source   Source
	bindings []NamedBinding
	index    map[string]int
	mapped   map[string]string
}

// NewShaderCache copies bindings and the declared-to-generated uniform name
// map. mapped may be nil when the generator keeps names unchanged.
func NewShaderCache(kind Kind, src Source, bindings map[string]texture.Binding, mapped map[string]string) *ShaderCache {
	c := &ShaderCache{
		kind:   kind,
		source: src,
		index:  make(map[string]int, len(bindings)),
		mapped: make(map[string]string, len(mapped)),
	}
	names := make([]string, 0, len(bindings))
	for name := range bindings {
		names = append(names, name)
	}
	sort.Strings(names)
	for i, name := range names {
		c.bindings = append(c.bindings, NamedBinding{Name: name, Binding: bindings[name]})
		c.index[name] = i
	}
	for k, v := range mapped {
		c.mapped[k] = v
	}
	return c
}

func (c *ShaderCache) Kind() Kind { return c.kind }

// Source is nil-safe so a pipeline without a cache reads as empty.
func (c *ShaderCache) Source() Source {
	if c == nil {
		return Source{}
	}
	return c.source
}

// Bindings returns the bindings sorted by sampler name.
func (c *ShaderCache) Bindings() []NamedBinding {
	if c == nil {
		return nil
	}
	return append([]NamedBinding(nil), c.bindings...)
}

// Binding looks up a sampler by name.
func (c *ShaderCache) Binding(name string) (texture.Binding, bool) {
	if c == nil {
		return texture.Binding{}, false
	}
	i, ok := c.index[name]
	if !ok {
		return texture.Binding{}, false
	}
	return c.bindings[i].Binding, true
}

// Len is the number of bindings.
func (c *ShaderCache) Len() int {
	if c == nil {
		return 0
	}
	return len(c.bindings)
}

// UniformName returns the name the generated program uses for a declared
// uniform.
func (c *ShaderCache) UniformName(declared string) string {
	if c != nil {
		if m, ok := c.mapped[declared]; ok {
			return m
		}
	}
	return declared
}

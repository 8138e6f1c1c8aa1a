package texture

import (
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/richinsley/gomilkdrop/gpu"
	"github.com/richinsley/gomilkdrop/logging"
)

// NumBlurTextures is the length of the blur chain: an internal and a
// visible texture for each of the three blur levels.
const NumBlurTextures = 6

// Manager is the GPU-backed Store. It owns every texture it creates.
type Manager struct {
	backend gpu.Backend
	paths   []string

	mu       sync.Mutex
	textures map[string]*Texture
	main     *Texture
	blur     []*Texture
	rng      *rand.Rand
}

// NewManager creates the main texture, the blur chain and the noise
// textures, then indexes every image found in the search paths.
func NewManager(b gpu.Backend, width, height int, searchPaths ...string) *Manager {
	m := &Manager{
		backend:  b,
		paths:    searchPaths,
		textures: make(map[string]*Texture),
		rng:      rand.New(rand.NewSource(1)),
	}
	m.allocateScreenTextures(width, height)
	m.allocateNoise()
	for _, dir := range searchPaths {
		m.LoadDirectory(dir)
	}
	return m
}

func (m *Manager) insert(name string, desc gpu.TextureDesc, pixels any, user bool) *Texture {
	t := newTexture(m.backend, name, m.backend.CreateTexture(desc, pixels), desc, user)
	m.textures[name] = t
	return t
}

func (m *Manager) allocateScreenTextures(width, height int) {
	m.main = m.insert("main", gpu.TextureDesc{Target: gpu.Target2D, Width: width, Height: height}, nil, false)
	m.main.Sampler(gpu.WrapRepeat, gpu.FilterLinear)
	m.main.Sampler(gpu.WrapRepeat, gpu.FilterNearest)
	m.main.Sampler(gpu.WrapClamp, gpu.FilterLinear)
	m.main.Sampler(gpu.WrapClamp, gpu.FilterNearest)

	m.blur = m.blur[:0]
	for i, size := range blurSizes(width, height) {
		t := m.insert(blurName(i), gpu.TextureDesc{Target: gpu.Target2D, Width: size[0], Height: size[1]}, nil, false)
		t.Sampler(gpu.WrapClamp, gpu.FilterLinear)
		m.blur = append(m.blur, t)
	}
}

// blurSizes halves the main size for every level: main 1024 -> blur1 256,
// blur2 128, blur3 64, each with an internal texture used by the
// horizontal pass. Sizes are rounded up to 16.
func blurSizes(width, height int) [NumBlurTextures][2]int {
	var sizes [NumBlurTextures][2]int
	for i := range sizes {
		if i&1 == 0 || i < 2 {
			width = max(16, width/2)
			height = max(16, height/2)
		}
		sizes[i] = [2]int{roundUp(width, 16), roundUp(height, 16)}
	}
	return sizes
}

func blurName(i int) string {
	name := "blur" + string(rune('1'+i/2))
	if i%2 == 0 {
		name += "_internal"
	}
	return name
}

func (m *Manager) allocateNoise() {
	noise := func(name string, size int, scale float32) {
		t := m.insert(name, gpu.TextureDesc{Target: gpu.Target2D, Width: size, Height: size, Format: gpu.PixelRGBAFloat}, Noise2D(size, scale), false)
		t.Sampler(gpu.WrapRepeat, gpu.FilterLinear)
	}
	noise("noise_lq_lite", 32, 1)
	noise("noise_lq", 256, 1)
	noise("noise_mq", 256, 0.25)
	noise("noise_hq", 256, 0.125)

	vol := func(name string, size int, period float32) {
		t := m.insert(name, gpu.TextureDesc{Target: gpu.Target3D, Width: size, Height: size, Depth: size, Format: gpu.PixelRGBAFloat}, Noise3D(size, period, m.rng), false)
		t.Sampler(gpu.WrapRepeat, gpu.FilterLinear)
	}
	vol("noisevol_lq", 32, 8)
	vol("noisevol_hq", 32, 4)
}

// Resize reallocates the main texture and the blur chain in place, so
// bindings already handed out stay valid.
func (m *Manager) Resize(width, height int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.main.reallocate(gpu.TextureDesc{Target: gpu.Target2D, Width: width, Height: height}, nil)
	for i, size := range blurSizes(width, height) {
		m.blur[i].reallocate(gpu.TextureDesc{Target: gpu.Target2D, Width: size[0], Height: size[1]}, nil)
	}
}

func (m *Manager) MainTexture() *Texture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.main
}

func (m *Manager) BlurTextures() []*Texture {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]*Texture(nil), m.blur...)
}

// Texture returns a texture by its sanitized name.
func (m *Manager) Texture(name string) (*Texture, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.textures[name]
	return t, ok
}

func (m *Manager) Resolve(name string, wrap gpu.Wrap, filter gpu.Filter) (Binding, bool) {
	unqualified, wrap, filter, _ := ParseQualifiedName(name, wrap, filter)
	if isRandomName(unqualified) {
		return m.Random(name)
	}
	lookup := SanitizeName(unqualified)

	m.mu.Lock()
	t, ok := m.textures[lookup]
	m.mu.Unlock()
	if !ok {
		logging.Logger().Debug("texture not found", "name", lookup)
		return Binding{}, false
	}
	return Binding{Texture: t, Sampler: t.Sampler(wrap, filter)}, true
}

func (m *Manager) Load(name string) (Binding, bool) {
	unqualified, wrap, filter, _ := ParseQualifiedName(name, gpu.WrapRepeat, gpu.FilterLinear)
	if isRandomName(unqualified) {
		return m.Random(name)
	}
	if b, ok := m.Resolve(name, wrap, filter); ok {
		return b, true
	}
	for _, dir := range m.paths {
		for _, path := range candidatePaths(dir, unqualified) {
			if t := m.loadFile(unqualified, path); t != nil {
				return Binding{Texture: t, Sampler: t.Sampler(wrap, filter)}, true
			}
		}
	}
	logging.Logger().Warn("failed to load texture", "name", name)
	return Binding{}, false
}

func candidatePaths(dir, name string) []string {
	paths := []string{filepath.Join(dir, name)}
	if filepath.Ext(name) == "" {
		for _, ext := range Extensions {
			paths = append(paths, filepath.Join(dir, name+ext))
		}
	}
	return paths
}

// loadFile decodes path and registers it under the sanitized form of name.
// It returns nil if the file cannot be read or decoded.
func (m *Manager) loadFile(name, path string) *Texture {
	key := SanitizeName(name)
	m.mu.Lock()
	if t, ok := m.textures[key]; ok {
		m.mu.Unlock()
		return t
	}
	m.mu.Unlock()

	img, err := decodeFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Logger().Debug("texture decode failed", "path", path, "err", err)
		}
		return nil
	}

	desc := gpu.TextureDesc{Target: gpu.Target2D, Width: img.Rect.Dx(), Height: img.Rect.Dy(), Format: gpu.PixelRGBA8}
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.textures[key]; ok {
		return t
	}
	t := m.insert(key, desc, img.Pix, true)
	logging.Logger().Debug("loaded texture", "name", key, "width", desc.Width, "height", desc.Height)
	return t
}

// LoadDirectory registers every decodable image in dir as a user texture.
// Hidden files are skipped.
func (m *Manager) LoadDirectory(dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		logging.Logger().Debug("failed to read texture directory", "dir", dir, "err", err)
		return
	}
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		m.loadFile(e.Name(), filepath.Join(dir, e.Name()))
	}
}

// Random picks a user texture for names like rand02 or rand05_smalltiled.
// The part after the underscore restricts the choice to textures whose
// names start with it.
func (m *Manager) Random(name string) (Binding, bool) {
	unqualified, wrap, filter, _ := ParseQualifiedName(name, gpu.WrapRepeat, gpu.FilterLinear)
	unqualified = strings.ToLower(unqualified)
	var prefix string
	if i := strings.IndexByte(unqualified, '_'); i >= 0 {
		prefix = unqualified[i+1:]
	}

	m.mu.Lock()
	var names []string
	for k, t := range m.textures {
		if t.User && strings.HasPrefix(k, prefix) {
			names = append(names, k)
		}
	}
	if len(names) == 0 {
		m.mu.Unlock()
		return Binding{}, false
	}
	sort.Strings(names)
	t := m.textures[names[m.rng.Intn(len(names))]]
	m.mu.Unlock()
	return Binding{Texture: t, Sampler: t.Sampler(wrap, filter)}, true
}

// UpdateMainTexture copies the current framebuffer into the main texture.
func (m *Manager) UpdateMainTexture() {
	t := m.MainTexture()
	m.backend.CopyFramebufferToTexture(t.ID, t.Width, t.Height)
}

// Release deletes every texture and sampler.
func (m *Manager) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.textures {
		t.release()
	}
	m.textures = make(map[string]*Texture)
	m.main = nil
	m.blur = nil
}

var _ Store = (*Manager)(nil)

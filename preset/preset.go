// Package preset reads the parts of a .milk preset file that drive the
// renderer core: the warp and composite shader text and the scalars the
// pipeline carries.
package preset

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/richinsley/gomilkdrop/logging"
	"github.com/richinsley/gomilkdrop/pipeline"
)

// Preset is a parsed .milk file.
type Preset struct {
	Path string
	Name string

	Warp      string
	Composite string

	Decay          float32
	TextureWrap    bool
	Blur           [3]pipeline.Blur
	BlurEdgeDarken float32

	// Values holds every key=value line, keyed by lower-cased name.
	Values map[string]string
}

// Defaults used when a key is absent.
const (
	defaultDecay          = 0.98
	defaultBlurEdgeDarken = 0.25
)

// Load reads and parses a preset file.
func Load(path string) (*Preset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open preset: %w", err)
	}
	defer f.Close()
	return Parse(f, path)
}

// Parse reads preset lines from r. path is recorded for diagnostics only.
func Parse(r io.Reader, path string) (*Preset, error) {
	p := &Preset{
		Path:           path,
		Name:           strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		Decay:          defaultDecay,
		TextureWrap:    true,
		Blur:           [3]pipeline.Blur{{0, 1}, {0, 1}, {0, 1}},
		BlurEdgeDarken: defaultBlurEdgeDarken,
		Values:         make(map[string]string),
	}

	warp := make(map[int]string)
	comp := make(map[int]string)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), "\r")
		if line == "" || strings.HasPrefix(line, "[") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.ToLower(strings.TrimSpace(key))

		if n, ok := shaderLine(key, "warp_"); ok {
			warp[n] = strings.TrimPrefix(value, "`")
			continue
		}
		if n, ok := shaderLine(key, "comp_"); ok {
			comp[n] = strings.TrimPrefix(value, "`")
			continue
		}
		p.Values[key] = strings.TrimSpace(value)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read preset %s: %w", path, err)
	}

	p.Warp = joinLines(warp)
	p.Composite = joinLines(comp)

	p.Decay = p.float("fdecay", p.Decay)
	p.TextureWrap = p.float("btexwrap", 1) != 0
	for i := range p.Blur {
		p.Blur[i].Min = p.float(fmt.Sprintf("b%dn", i+1), p.Blur[i].Min)
		p.Blur[i].Max = p.float(fmt.Sprintf("b%dx", i+1), p.Blur[i].Max)
	}
	p.BlurEdgeDarken = p.float("b1ed", p.BlurEdgeDarken)
	return p, nil
}

func shaderLine(key, prefix string) (int, bool) {
	if !strings.HasPrefix(key, prefix) {
		return 0, false
	}
	n, err := strconv.Atoi(key[len(prefix):])
	return n, err == nil
}

// joinLines orders numbered lines, ignoring gaps.
func joinLines(lines map[int]string) string {
	if len(lines) == 0 {
		return ""
	}
	nums := make([]int, 0, len(lines))
	for n := range lines {
		nums = append(nums, n)
	}
	sort.Ints(nums)
	var b strings.Builder
	for _, n := range nums {
		b.WriteString(lines[n])
		b.WriteByte('\n')
	}
	return b.String()
}

func (p *Preset) float(key string, def float32) float32 {
	s, ok := p.Values[key]
	if !ok {
		return def
	}
	v, err := strconv.ParseFloat(s, 32)
	if err != nil {
		logging.Logger().Warn("ignoring malformed preset value", "preset", p.Path, "key", key, "value", s)
		return def
	}
	return float32(v)
}

// Pipeline builds the render state of the preset. Its shader pairs carry
// source-only caches; compile them with engine.LoadPresetShadersAsync.
func (p *Preset) Pipeline() *pipeline.Pipeline {
	pl := pipeline.New()
	pl.ScreenDecay = p.Decay
	pl.TextureWrap = p.TextureWrap
	pl.Blur = p.Blur
	pl.BlurEdgeDarken = p.BlurEdgeDarken

	file := filepath.Base(p.Path)
	pl.UpdateShaders(
		pipeline.ShaderPair{Cache: pipeline.NewShaderCache(pipeline.Warp, pipeline.Source{PresetPath: p.Path, FileName: file, Text: p.Warp}, nil, nil)},
		pipeline.ShaderPair{Cache: pipeline.NewShaderCache(pipeline.Composite, pipeline.Source{PresetPath: p.Path, FileName: file, Text: p.Composite}, nil, nil)},
	)
	return pl
}

package translator

import (
	"context"
	"fmt"
	"strings"
	"sync"

	gst "github.com/richinsley/goshadertranslator"
)

// Generated is target fragment source plus the names the generator gave to
// the declared uniforms and varyings. A name missing from Names was kept.
type Generated struct {
	Code  string
	Names map[string]string
}

// Generator turns lowered GLSL ES 3.00 into source the GPU backend accepts.
type Generator interface {
	Generate(ctx context.Context, src string) (*Generated, error)
}

// Passthrough retargets GLSL ES source at desktop GLSL 4.10 by swapping the
// version line. Names are unchanged.
type Passthrough struct{}

func (Passthrough) Generate(_ context.Context, src string) (*Generated, error) {
	line, rest, _ := strings.Cut(src, "\n")
	if strings.HasPrefix(strings.TrimSpace(line), "#version") {
		src = rest
	}
	return &Generated{Code: "#version 410 core\n" + src}, nil
}

// OutputFormat selects the dialect ANGLEGenerator emits.
type OutputFormat int

const (
	OutputGLSL410 OutputFormat = iota
	OutputESSL
)

// ANGLEGenerator validates and translates through the ANGLE shader
// compiler. ANGLE renames user identifiers; the mapping is returned so
// uniforms can still be found by their declared names.
type ANGLEGenerator struct {
	mu        sync.Mutex
	translate func(src string) (*Generated, error)
}

func NewANGLEGenerator(ctx context.Context, format OutputFormat) (*ANGLEGenerator, error) {
	t, err := gst.NewShaderTranslator(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create shader translator: %w", err)
	}
	outputFormat := gst.OutputFormatGLSL410
	if format == OutputESSL {
		outputFormat = gst.OutputFormatESSL
	}
	g := &ANGLEGenerator{}
	g.translate = func(src string) (*Generated, error) {
		res, err := t.TranslateShader(src, "fragment", gst.ShaderSpecWebGL2, outputFormat)
		if err != nil {
			return nil, err
		}
		names := make(map[string]string, len(res.Variables))
		for name, v := range res.Variables {
			names[name] = v.MappedName
		}
		return &Generated{Code: res.Code, Names: names}, nil
	}
	return g, nil
}

func (g *ANGLEGenerator) Generate(_ context.Context, src string) (*Generated, error) {
	// the translator instance is not safe for concurrent use
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.translate(src)
}

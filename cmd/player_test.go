package main

import (
	"log/slog"
	"testing"

	"github.com/richinsley/gomilkdrop/engine"
	"github.com/richinsley/gomilkdrop/gpu/gputest"
	"github.com/richinsley/gomilkdrop/pipeline"
	"github.com/richinsley/gomilkdrop/texture"
	"github.com/richinsley/gomilkdrop/translator"
)

type recordedFrame struct {
	decay float32
	ctx   pipeline.Context
}

type fakeRenderer struct {
	frames []recordedFrame
	alphas [][]float32
}

func (f *fakeRenderer) RenderFrame(p *pipeline.Pipeline, ctx pipeline.Context) {
	f.frames = append(f.frames, recordedFrame{decay: p.ScreenDecay, ctx: ctx})
	var alphas []float32
	for _, l := range p.Drawables {
		alphas = append(alphas, l.Alpha)
	}
	f.alphas = append(f.alphas, alphas)
}

type nopDrawable struct{}

func (nopDrawable) Draw(float32) {}

func TestTransitionRatio(t *testing.T) {
	tests := []struct {
		t, start, length float64
		want             float32
	}{
		{5, 10, 4, 0},
		{10, 10, 4, 0},
		{11, 10, 4, 0.25},
		{20, 10, 4, 1},
		{11, 10, 0, 1},
	}
	for _, tt := range tests {
		if got := transitionRatio(tt.t, tt.start, tt.length); got != tt.want {
			t.Errorf("transitionRatio(%v, %v, %v) = %v, want %v", tt.t, tt.start, tt.length, got, tt.want)
		}
	}
}

func TestPlayerTransition(t *testing.T) {
	b := gputest.New()
	m := texture.NewManager(b, 32, 32)
	defer m.Release()
	eng := engine.New(engine.Config{Backend: b, Textures: m, Transpiler: translator.New(b, m, nil), Width: 32, Height: 32})
	defer eng.Close()

	a, bp := pipeline.New(), pipeline.New()
	a.ScreenDecay, bp.ScreenDecay = 1, 0
	r := &fakeRenderer{}
	pl := &player{engine: eng, renderer: r, a: a, b: bp, fps: 10, presetDuration: 1, transition: 2}

	for _, ts := range []float64{0, 0.5, 1, 2, 3, 4} {
		pl.renderAt(ts)
	}

	wantDecay := []float32{1, 1, 1, 0.5, 0, 0}
	for i, f := range r.frames {
		if f.decay != wantDecay[i] {
			t.Errorf("frame %d decay = %v, want %v", i, f.decay, wantDecay[i])
		}
		if f.ctx.Frame != i {
			t.Errorf("frame %d numbered %d", i, f.ctx.Frame)
		}
	}
	if r.frames[1].ctx.Progress != 0.5 {
		t.Errorf("preset progress = %v", r.frames[1].ctx.Progress)
	}
	if r.frames[4].ctx.PresetStartTime != 1 {
		t.Errorf("preset b start time = %v", r.frames[4].ctx.PresetStartTime)
	}
}

func TestPlayerSinglePresetDrawsOpaque(t *testing.T) {
	b := gputest.New()
	m := texture.NewManager(b, 32, 32)
	defer m.Release()
	eng := engine.New(engine.Config{Backend: b, Textures: m, Transpiler: translator.New(b, m, nil), Width: 32, Height: 32})
	defer eng.Close()

	a, bp := pipeline.New(), pipeline.New()
	a.AddDrawable(nopDrawable{})
	bp.AddDrawable(nopDrawable{})
	a.Drawables[0].Alpha = 0.3
	bp.Drawables[0].Alpha = 0.2
	r := &fakeRenderer{}
	pl := &player{engine: eng, renderer: r, a: a, b: bp, fps: 10, presetDuration: 1, transition: 2}

	pl.renderAt(0)
	if got := r.alphas[0][0]; got != 1 {
		t.Errorf("preset a drawn at alpha %v, want 1", got)
	}

	pl.renderAt(1)
	pl.renderAt(5)
	if got := r.alphas[2][0]; got != 1 {
		t.Errorf("preset b drawn at alpha %v, want 1", got)
	}
}

func TestParseLevel(t *testing.T) {
	if l, err := parseLevel("debug"); err != nil || l != slog.LevelDebug {
		t.Errorf("debug = %v, %v", l, err)
	}
	if _, err := parseLevel("loud"); err == nil {
		t.Error("bad level accepted")
	}
}

package main

import (
	"github.com/richinsley/gomilkdrop/audio"
	"github.com/richinsley/gomilkdrop/engine"
	"github.com/richinsley/gomilkdrop/logging"
	"github.com/richinsley/gomilkdrop/pipeline"
)

// frameRenderer is the part of the renderer the player drives.
type frameRenderer interface {
	RenderFrame(p *pipeline.Pipeline, ctx pipeline.Context)
}

// player shows preset a, then cross-fades to preset b. b is compiled on the
// worker while a is on screen.
type player struct {
	engine   *engine.Engine
	renderer frameRenderer
	analyzer *audio.Analyzer

	a, b *pipeline.Pipeline

	fps            int
	presetDuration float64
	transition     float64

	started         bool
	transitionStart float64
	frame           int
}

// transitionRatio is the cross-fade position at t for a transition that
// began at start and lasts length seconds.
func transitionRatio(t, start, length float64) float32 {
	if t <= start {
		return 0
	}
	if length <= 0 {
		return 1
	}
	return float32(min(1, (t-start)/length))
}

// beginTransition starts the cross-fade at t. It waits for b's shaders if
// they are still compiling.
func (pl *player) beginTransition(t float64) {
	if pl.started {
		return
	}
	pl.engine.WaitCompile()
	pl.started = true
	pl.transitionStart = t
	logging.Logger().Info("starting transition", "time", t, "length", pl.transition)
}

// renderAt draws the frame for time t.
func (pl *player) renderAt(t float64) {
	if !pl.started && t >= pl.presetDuration {
		pl.beginTransition(t)
	}

	ctx := pipeline.Context{FPS: pl.fps, Time: float32(t), Frame: pl.frame}
	p := pl.a
	switch ratio := transitionRatio(t, pl.transitionStart, pl.transition); {
	case !pl.started:
		pipeline.DisableBlending(p)
		if pl.presetDuration > 0 {
			ctx.Progress = float32(min(1, t/pl.presetDuration))
		}
	case ratio >= 1:
		p = pl.b
		pipeline.DisableBlending(p)
		ctx.PresetStartTime = float32(pl.transitionStart)
	default:
		merged := pipeline.Merge(pl.a, pl.b, ratio)
		defer merged.Release()
		p = merged
		ctx.Progress = ratio
		if ratio >= 0.5 {
			ctx.PresetStartTime = float32(pl.transitionStart)
		}
	}

	if pl.analyzer != nil {
		pl.analyzer.Update()
	}
	pl.renderer.RenderFrame(p, ctx)
	pl.frame++
}

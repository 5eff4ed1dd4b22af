// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package sigview

import (
	"fmt"
	"io"
	"log/slog"
)

// Update describes what a viewport change requires the renderer to do.
type Update struct {
	Time     TimeRange
	Lanes    LaneRange
	Entering []int // channels whose traces were created
	Leaving  []int // channels whose traces were disposed
	Redrawn  []int // channels whose points were recomputed
	Restyled []int // channels whose style changed
	Added    []Annotation
	Removed  []Annotation
	Factor   int
}

// Empty reports whether nothing needs repainting.
func (u Update) Empty() bool {
	return len(u.Entering) == 0 && len(u.Leaving) == 0 && len(u.Redrawn) == 0 &&
		len(u.Restyled) == 0 && len(u.Added) == 0 && len(u.Removed) == 0
}

// Frame is a snapshot of everything a renderer needs.
type Frame struct {
	Time         TimeRange
	Lanes        LaneRange
	Drawables    []Drawable
	Annotations  []Annotation
	TimeTicks    []TimeTick
	ChannelTicks []ChannelTick
}

type Option func(*Engine)

// WithLogger sets the logger. By default the engine logs nowhere.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithAnnotations sets the annotation source queried on every time change.
func WithAnnotations(idx AnnotationIndex) Option {
	return func(e *Engine) {
		e.annotations = idx
	}
}

// WithLaneMap replaces the default lane k -> channel k-1 ordering.
func WithLaneMap(lanes LaneMap) Option {
	return func(e *Engine) {
		e.lanes = lanes
	}
}

// rendered is the state the live points were last computed for.
type rendered struct {
	time     TimeRange
	factor   int
	revision uint64
	valid    bool
}

// Engine ties a matrix, viewport and virtualizer together. It is not safe
// for concurrent use; gestures are expected to arrive on one goroutine.
type Engine struct {
	m           *Matrix
	cfg         Config
	vp          *Viewport
	virt        *Virtualizer
	sweeper     *Sweeper
	lanes       LaneMap
	annotations AnnotationIndex
	shown       []Annotation
	pixelWidth  int
	last        rendered
	logger      *slog.Logger
}

// New creates an engine over m and renders the initial viewport.
func New(m *Matrix, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	e := &Engine{
		m:          m,
		cfg:        cfg,
		pixelWidth: cfg.PixelWidth,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(e)
	}

	virt, err := NewVirtualizer(m, e.lanes, cfg.Downsample.Cache)
	if err != nil {
		return nil, err
	}
	e.virt = virt
	e.lanes = virt.Lanes()

	e.vp = ViewportFor(m, cfg.Duration, cfg.Lanes)
	e.vp.Anchor = cfg.Anchor
	e.sweeper = NewSweeper(e.vp, cfg.Sweep.TimeStep, cfg.Sweep.LaneStep)

	u := e.OnViewportChanged()
	e.logger.Debug("engine ready",
		"channels", m.NumChannels(),
		"samples", m.NumSamples(),
		"sfreq", m.SFreq(),
		"time", u.Time.String(),
		"lanes", u.Lanes.String(),
		"factor", u.Factor)

	return e, nil
}

// Viewport exposes the viewport for direct manipulation. Call
// OnViewportChanged afterwards.
func (e *Engine) Viewport() *Viewport { return e.vp }
func (e *Engine) Matrix() *Matrix     { return e.m }
func (e *Engine) Sweeper() *Sweeper   { return e.sweeper }
func (e *Engine) Config() Config      { return e.cfg }
func (e *Engine) Factor() int         { return e.last.factor }
func (e *Engine) PixelWidth() int     { return e.pixelWidth }

// OnViewportChanged brings the live traces and shown annotations in line
// with the current viewport and reports what changed. Calling it twice in a
// row yields an empty second update.
func (e *Engine) OnViewportChanged() Update {
	return e.refresh(false)
}

func (e *Engine) refresh(force bool) Update {
	tr := e.vp.TimeRange()
	lr := e.vp.LaneRange()

	entering, leaving := e.virt.Reconcile(lr)
	spec := e.downsampling(tr)

	u := Update{
		Time:     tr,
		Lanes:    lr,
		Entering: entering,
		Leaving:  leaving,
		Factor:   spec.Factor,
	}

	current := rendered{time: tr, factor: spec.Factor, revision: e.m.Revision(), valid: true}
	stale := force || current != e.last

	fresh := make(map[int]bool, len(entering))
	for _, ch := range entering {
		fresh[ch] = true
	}

	for _, t := range e.virt.Live() {
		if !stale && !fresh[t.Channel] {
			if t.restyle(e.m) {
				u.Restyled = append(u.Restyled, t.Channel)
			}
			continue
		}
		if err := t.Update(e.m, tr, spec); err != nil {
			e.logger.Error("error updating trace", "channel", t.Name(), "error", err)
			continue
		}
		u.Redrawn = append(u.Redrawn, t.Channel)
	}
	e.last = current

	if e.annotations != nil {
		next := e.annotations.RegionsIntersecting(tr.Min, tr.Max)
		u.Added, u.Removed = DiffAnnotations(e.shown, next)
		e.shown = next
	}

	if !u.Empty() {
		e.logger.Debug("viewport changed",
			"time", tr.String(),
			"lanes", lr.String(),
			"entering", len(u.Entering),
			"leaving", len(u.Leaving),
			"redrawn", len(u.Redrawn),
			"factor", spec.Factor,
			"annotations_added", len(u.Added),
			"annotations_removed", len(u.Removed))
	}
	return u
}

// downsampling picks the downsampling parameters for a time window.
func (e *Engine) downsampling(tr TimeRange) DownsampleSpec {
	ds := e.cfg.Downsample
	spec := DownsampleSpec{Method: ds.Method, ChunkSize: ds.ChunkSize}

	switch {
	case ds.Factor > 0:
		spec.Factor = ds.Factor
	case ds.MaxPoints > 0:
		start, stop := e.m.SampleRange(tr.Min, tr.Max)
		spec.Factor = LimitFactor(stop-start, ds.MaxPoints)
	default:
		times := e.m.Times()
		spec.Factor = AutoFactor(tr.Width(), times[1]-times[0], e.pixelWidth, ds.Density)
	}
	return spec
}

func (e *Engine) HScroll(step float64) Update {
	e.vp.HScroll(step)
	return e.OnViewportChanged()
}

func (e *Engine) VScroll(step int) Update {
	e.vp.VScroll(step)
	return e.OnViewportChanged()
}

func (e *Engine) SetTimeRange(t0, t1 float64) Update {
	e.vp.SetTimeRange(t0, t1)
	return e.OnViewportChanged()
}

func (e *Engine) SetLaneRange(l0, l1 int) Update {
	e.vp.SetLaneRange(l0, l1)
	return e.OnViewportChanged()
}

func (e *Engine) ChangeDuration(step float64) Update {
	e.vp.ChangeDuration(step)
	return e.OnViewportChanged()
}

func (e *Engine) ChangeLaneCount(step int) Update {
	e.vp.ChangeLaneCount(step)
	return e.OnViewportChanged()
}

// Resize records a new render surface width, which may change the factor.
func (e *Engine) Resize(pixelWidth int) Update {
	e.pixelWidth = max(pixelWidth, 0)
	return e.OnViewportChanged()
}

// Sweep advances the autonomous bounce scroll by one tick.
func (e *Engine) Sweep(axis Axis) Update {
	e.sweeper.Tick(axis)
	return e.OnViewportChanged()
}

// ToggleBad flips a channel's bad flag. Only the style of a live trace changes.
func (e *Engine) ToggleBad(name string) (Update, error) {
	bad, err := e.m.ToggleBad(name)
	if err != nil {
		return Update{}, err
	}
	e.logger.Debug("toggled bad channel", "channel", name, "bad", bad)
	return e.OnViewportChanged(), nil
}

// Transform replaces the matrix rows (e.g. a filter toggle) and redraws.
// Per-trace caches notice the new revision and rebuild.
func (e *Engine) Transform(fn func(ch int, row []float64) []float64) (Update, error) {
	if err := e.m.Transform(fn); err != nil {
		return Update{}, err
	}
	return e.OnViewportChanged(), nil
}

// Invalidate recomputes every live trace regardless of what changed.
func (e *Engine) Invalidate() Update {
	return e.refresh(true)
}

// SetLaneOrder changes which channel each lane shows.
func (e *Engine) SetLaneOrder(order []int) (Update, error) {
	lanes, err := OrderedLanes(order)
	if err != nil {
		return Update{}, err
	}
	if err := e.virt.SetLanes(lanes); err != nil {
		return Update{}, err
	}
	e.lanes = lanes
	return e.refresh(true), nil
}

// Traces returns the live traces ordered by lane.
func (e *Engine) Traces() []*Trace { return e.virt.Live() }

// Drawables returns the live traces as renderer input.
func (e *Engine) Drawables() []Drawable {
	live := e.virt.Live()
	out := make([]Drawable, len(live))
	for i, t := range live {
		out[i] = t
	}
	return out
}

// Annotations returns the annotations overlapping the current window.
func (e *Engine) Annotations() []Annotation {
	return append([]Annotation(nil), e.shown...)
}

func (e *Engine) TimeTicks() []TimeTick {
	return TimeTicks(e.vp.TimeRange())
}

func (e *Engine) ChannelTicks() []ChannelTick {
	return ChannelTicks(e.virt.Live())
}

// Frame snapshots the current render state.
func (e *Engine) Frame() Frame {
	return Frame{
		Time:         e.vp.TimeRange(),
		Lanes:        e.vp.LaneRange(),
		Drawables:    e.Drawables(),
		Annotations:  e.Annotations(),
		TimeTicks:    e.TimeTicks(),
		ChannelTicks: e.ChannelTicks(),
	}
}

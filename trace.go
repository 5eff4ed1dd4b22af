// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package sigview

// Style carries what a renderer needs to choose a pen for a trace.
type Style struct {
	Label string
	Type  ChannelType
	Bad   bool
}

// Drawable is anything a renderer can draw in a lane.
type Drawable interface {
	Lane() int
	Points() (x, y []float64)
	Style() Style
}

// Trace is the live projection of one channel onto the viewport.
type Trace struct {
	Channel int
	name    string
	typ     ChannelType
	lane    int
	bad     bool
	x, y    []float64
	factor  int
	cache   *reduceCache
}

func newTrace(m *Matrix, ch, lane int, cached bool) *Trace {
	t := &Trace{
		Channel: ch,
		name:    m.Name(ch),
		typ:     m.Type(ch),
		lane:    lane,
		factor:  1,
	}
	t.bad = m.IsBad(t.name)
	if cached {
		t.cache = newReduceCache()
	}
	return t
}

func (t *Trace) Lane() int                { return t.lane }
func (t *Trace) Name() string             { return t.name }
func (t *Trace) Points() (x, y []float64) { return t.x, t.y }
func (t *Trace) Factor() int              { return t.factor }
func (t *Trace) Bad() bool                { return t.bad }

func (t *Trace) Style() Style {
	return Style{Label: t.name, Type: t.typ, Bad: t.bad}
}

// Cached reports whether the trace keeps full-row reductions.
func (t *Trace) Cached() bool { return t.cache != nil }

// Update recomputes the drawable points for a time window.
func (t *Trace) Update(m *Matrix, tr TimeRange, spec DownsampleSpec) error {
	t.bad = m.IsBad(t.name)
	t.factor = max(spec.Factor, 1)

	if t.cache != nil && spec.Factor > 1 {
		x, y, err := t.cache.window(m, t.Channel, tr.Min, tr.Max, spec)
		if err != nil {
			return err
		}
		t.x, t.y = x, y
		return nil
	}

	start, stop := m.SampleRange(tr.Min, tr.Max)
	x, y, err := Reduce(m.Times()[start:stop], m.Row(t.Channel)[start:stop], spec)
	if err != nil {
		return err
	}
	t.x, t.y = x, y
	return nil
}

// restyle refreshes the bad flag without touching the points.
func (t *Trace) restyle(m *Matrix) bool {
	bad := m.IsBad(t.name)
	changed := bad != t.bad
	t.bad = bad
	return changed
}

func (t *Trace) dispose() {
	t.x, t.y = nil, nil
	if t.cache != nil {
		t.cache.reset()
		t.cache = nil
	}
}

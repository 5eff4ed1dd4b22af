// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package sigview_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/OpenPSG/sigview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...sigview.Option) *sigview.Engine {
	t.Helper()

	cfg := sigview.DefaultConfig()
	cfg.Duration = 2
	cfg.Lanes = 3

	e, err := sigview.New(newTestMatrix(t, 5, 1000, 100), cfg, opts...)
	require.NoError(t, err)
	return e
}

func traceChannels(e *sigview.Engine) []int {
	var out []int
	for _, tr := range e.Traces() {
		out = append(out, tr.Channel)
	}
	return out
}

func TestEngineScrollScenario(t *testing.T) {
	e := newTestEngine(t)

	assert.Equal(t, sigview.TimeRange{Min: 0, Max: 2}, e.Viewport().TimeRange())
	assert.Equal(t, sigview.LaneRange{Min: 0, Max: 4}, e.Viewport().LaneRange())
	assert.Equal(t, []int{0, 1, 2}, traceChannels(e))

	for range 6 {
		u := e.HScroll(1)
		assert.Empty(t, u.Entering)
		assert.Empty(t, u.Leaving)
		assert.ElementsMatch(t, []int{0, 1, 2}, u.Redrawn)
	}
	assert.Equal(t, sigview.TimeRange{Min: 6, Max: 8}, e.Viewport().TimeRange())

	for _, tr := range e.Traces() {
		x, y := tr.Points()
		require.NotEmpty(t, x)
		assert.Len(t, y, len(x))
		assert.InDelta(t, 6.0, x[0], 0.011)
		assert.InDelta(t, 8.0, x[len(x)-1], 0.011)
	}

	e.HScroll(-100)
	u := e.ChangeLaneCount(2)
	assert.Equal(t, sigview.TimeRange{Min: 0, Max: 2}, u.Time)
	assert.Equal(t, sigview.LaneRange{Min: 0, Max: 6}, u.Lanes)
	assert.Equal(t, []int{3, 4}, u.Entering)
	assert.Empty(t, u.Leaving)
	assert.Equal(t, []int{3, 4}, u.Redrawn, "only entering traces are computed")
	assert.Equal(t, []int{0, 1, 2, 3, 4}, traceChannels(e))
}

func TestEngineVScroll(t *testing.T) {
	e := newTestEngine(t)

	u := e.VScroll(2)
	assert.Equal(t, sigview.LaneRange{Min: 2, Max: 6}, u.Lanes)
	assert.Equal(t, []int{3, 4}, u.Entering)
	assert.Equal(t, []int{0, 1}, u.Leaving)
	assert.Equal(t, []int{2, 3, 4}, traceChannels(e))
}

func TestEngineOnViewportChangedIsIdempotent(t *testing.T) {
	e := newTestEngine(t)

	e.Viewport().HScroll(3)
	u := e.OnViewportChanged()
	assert.False(t, u.Empty())

	u = e.OnViewportChanged()
	assert.True(t, u.Empty(), "%+v", u)
}

func TestEngineToggleBad(t *testing.T) {
	e := newTestEngine(t)

	u, err := e.ToggleBad("ch1")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, u.Restyled)
	assert.Empty(t, u.Redrawn)

	tr := e.Traces()[1]
	assert.True(t, tr.Bad())
	assert.True(t, tr.Style().Bad)

	// Toggling a hidden channel changes nothing on screen.
	u, err = e.ToggleBad("ch4")
	require.NoError(t, err)
	assert.True(t, u.Empty())

	// Its trace picks the flag up when it scrolls in.
	e.VScroll(2)
	tr4 := e.Traces()[len(e.Traces())-1]
	assert.Equal(t, "ch4", tr4.Name())
	assert.True(t, tr4.Bad())

	_, err = e.ToggleBad("nope")
	assert.ErrorIs(t, err, sigview.ErrUnknownChannel)
}

func TestEngineTransformRedraws(t *testing.T) {
	e := newTestEngine(t)

	u, err := e.Transform(func(ch int, row []float64) []float64 {
		out := make([]float64, len(row))
		for i, v := range row {
			out[i] = 2 * v
		}
		return out
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2}, u.Redrawn)
	assert.Empty(t, u.Entering)

	_, err = e.Transform(func(ch int, row []float64) []float64 { return nil })
	assert.ErrorIs(t, err, sigview.ErrShapeMismatch)
}

func TestEngineFixedFactor(t *testing.T) {
	for _, cached := range []bool{false, true} {
		cfg := sigview.DefaultConfig()
		cfg.Duration = 2
		cfg.Lanes = 2
		cfg.Downsample.Factor = 10
		cfg.Downsample.Cache = cached

		e, err := sigview.New(newTestMatrix(t, 3, 1000, 100), cfg)
		require.NoError(t, err)
		assert.Equal(t, 10, e.Factor())

		for _, tr := range e.Traces() {
			assert.Equal(t, cached, tr.Cached())
			assert.Equal(t, 10, tr.Factor())
			x, _ := tr.Points()
			assert.Zero(t, len(x)%2, "peak emits pairs")
			assert.InDelta(t, 40, len(x), 2)
		}
	}
}

func TestEngineMaxPoints(t *testing.T) {
	cfg := sigview.DefaultConfig()
	cfg.Duration = 10
	cfg.Lanes = 1
	cfg.Downsample.Method = sigview.Subsample
	cfg.Downsample.MaxPoints = 100

	e, err := sigview.New(newTestMatrix(t, 2, 1000, 100), cfg)
	require.NoError(t, err)

	x, _ := e.Traces()[0].Points()
	assert.LessOrEqual(t, len(x), 100)
	assert.Greater(t, e.Factor(), 1)
}

func TestEngineResizeChangesFactor(t *testing.T) {
	cfg := sigview.DefaultConfig()
	cfg.Duration = 10
	cfg.Lanes = 1
	cfg.PixelWidth = 100
	cfg.Downsample.Density = 1

	e, err := sigview.New(newTestMatrix(t, 1, 1000, 100), cfg)
	require.NoError(t, err)
	assert.Equal(t, 10, e.Factor())

	u := e.Resize(1000)
	assert.Equal(t, 1, u.Factor)
	assert.Equal(t, []int{0}, u.Redrawn)
	assert.Equal(t, 1000, e.PixelWidth())
}

func TestEngineAnnotations(t *testing.T) {
	idx := sigview.NewMemoryAnnotations(
		sigview.Annotation{Onset: 1, Duration: 0.5, Description: "spike"},
		sigview.Annotation{Onset: 5, Duration: 1, Description: "blink"},
	)
	e := newTestEngine(t, sigview.WithAnnotations(idx))
	assert.Equal(t, []string{"spike"}, descriptions(e.Annotations()))

	u := e.SetTimeRange(4, 6)
	assert.Equal(t, []string{"blink"}, descriptions(u.Added))
	assert.Equal(t, []string{"spike"}, descriptions(u.Removed))
	assert.Equal(t, []string{"blink"}, descriptions(e.Annotations()))

	u = e.SetTimeRange(4, 6)
	assert.True(t, u.Empty())
}

func TestEngineLaneOrder(t *testing.T) {
	e := newTestEngine(t)

	u, err := e.SetLaneOrder([]int{4, 3, 2, 1, 0})
	require.NoError(t, err)
	assert.Equal(t, []int{3, 4}, u.Entering)
	assert.Equal(t, []int{0, 1}, u.Leaving)
	assert.Equal(t, []int{4, 3, 2}, traceChannels(e), "traces are ordered by lane")

	_, err = e.SetLaneOrder([]int{0, 1})
	assert.Error(t, err)
}

func TestEngineWithLaneMap(t *testing.T) {
	m := newTestMatrix(t, 4, 100, 100)
	cfg := sigview.DefaultConfig()
	cfg.Lanes = 2

	lanes, err := sigview.OrderedLanes(sigview.GroupByType(m))
	require.NoError(t, err)
	_, err = sigview.New(m, cfg, sigview.WithLaneMap(lanes))
	require.NoError(t, err)

	_, err = sigview.New(m, cfg, sigview.WithLaneMap(sigview.IdentityLanes(3)))
	assert.ErrorIs(t, err, sigview.ErrShapeMismatch)
}

func TestEngineSweep(t *testing.T) {
	e := newTestEngine(t)

	u := e.Sweep(sigview.AxisBoth)
	assert.Equal(t, sigview.TimeRange{Min: 1, Max: 3}, u.Time)
	assert.Equal(t, sigview.LaneRange{Min: 1, Max: 5}, u.Lanes)
}

func TestEngineChangeDuration(t *testing.T) {
	e := newTestEngine(t)
	e.SetTimeRange(4, 6)

	u := e.ChangeDuration(2)
	assert.Equal(t, sigview.TimeRange{Min: 3, Max: 7}, u.Time)

	u = e.SetLaneRange(1, 3)
	assert.Equal(t, []int{0, 2}, u.Leaving)
	assert.Equal(t, []int{1}, traceChannels(e))
}

func TestEngineInvalidate(t *testing.T) {
	e := newTestEngine(t)

	u := e.Invalidate()
	assert.Equal(t, []int{0, 1, 2}, u.Redrawn)
}

func TestEngineFrame(t *testing.T) {
	e := newTestEngine(t)
	_, err := e.ToggleBad("ch0")
	require.NoError(t, err)

	f := e.Frame()
	assert.Equal(t, sigview.TimeRange{Min: 0, Max: 2}, f.Time)
	assert.Len(t, f.Drawables, 3)
	assert.NotEmpty(t, f.TimeTicks)
	assert.Equal(t, []sigview.ChannelTick{
		{Lane: 1, Name: "ch0", Bad: true},
		{Lane: 2, Name: "ch1"},
		{Lane: 3, Name: "ch2"},
	}, f.ChannelTicks)

	for i, d := range f.Drawables {
		assert.Equal(t, i+1, d.Lane())
	}
	assert.True(t, f.Drawables[0].Style().Bad)
}

func TestEngineRejectsInvalidConfig(t *testing.T) {
	cfg := sigview.DefaultConfig()
	cfg.Downsample.Factor = -1

	_, err := sigview.New(newTestMatrix(t, 2, 10, 100), cfg)
	assert.Error(t, err)
}

func TestEngineLogs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	e := newTestEngine(t, sigview.WithLogger(logger))
	assert.Contains(t, buf.String(), "engine ready")

	e.HScroll(1)
	assert.Contains(t, buf.String(), "viewport changed")
}

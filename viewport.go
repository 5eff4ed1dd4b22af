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
	"math"
	"strings"

	"gopkg.in/yaml.v3"
)

// TimeRange is a window on the time axis in seconds.
type TimeRange struct {
	Min, Max float64
}

func (r TimeRange) Width() float64 { return r.Max - r.Min }

func (r TimeRange) String() string { return fmt.Sprintf("(%g, %g)", r.Min, r.Max) }

// LaneRange is a window on the lane axis. Lane 0 and lane ymax are padding;
// the lanes strictly between Min and Max are visible.
type LaneRange struct {
	Min, Max int
}

func (r LaneRange) Height() int { return r.Max - r.Min }

func (r LaneRange) String() string { return fmt.Sprintf("(%d, %d)", r.Min, r.Max) }

// Anchor controls which point of the time window stays fixed on zoom.
type Anchor int

const (
	AnchorCenter Anchor = iota
	AnchorLeft
)

func (a Anchor) String() string {
	if a == AnchorLeft {
		return "left"
	}
	return "center"
}

func (a *Anchor) UnmarshalYAML(value *yaml.Node) error {
	switch strings.ToLower(value.Value) {
	case "", "center", "centre":
		*a = AnchorCenter
	case "left":
		*a = AnchorLeft
	default:
		return fmt.Errorf("unknown anchor %q", value.Value)
	}
	return nil
}

func (a Anchor) MarshalYAML() (interface{}, error) {
	return a.String(), nil
}

// Viewport is the visible window into a matrix. Every mutation clamps the
// window into [0, xmax] x [0, ymax]; out-of-range requests are never errors.
type Viewport struct {
	time  TimeRange
	lanes LaneRange
	xmax  float64
	ymax  int

	// MinDuration is the narrowest time window ChangeDuration and
	// SetTimeRange will produce.
	MinDuration float64
	// Anchor is the fixed point of ChangeDuration.
	Anchor Anchor
}

// NewViewport creates a viewport over xmax seconds and numChannels channels
// showing duration seconds and lanes channels.
func NewViewport(xmax float64, numChannels int, duration float64, lanes int) *Viewport {
	if numChannels < 1 {
		numChannels = 1
	}
	v := &Viewport{
		xmax: xmax,
		ymax: numChannels + 1,
		time: TimeRange{0, xmax},
	}
	if !(duration > 0) {
		duration = xmax
	}
	v.time = v.fitTime(0, duration)
	v.lanes = v.fitLanes(0, max(lanes+1, 2))
	return v
}

// ViewportFor creates a viewport sized to a matrix, with a minimum time
// window of one sample period.
func ViewportFor(m *Matrix, duration float64, lanes int) *Viewport {
	v := NewViewport(m.Duration(), m.NumChannels(), duration, lanes)
	v.MinDuration = 1 / m.SFreq()
	return v
}

func (v *Viewport) TimeRange() TimeRange { return v.time }
func (v *Viewport) LaneRange() LaneRange { return v.lanes }
func (v *Viewport) XMax() float64        { return v.xmax }
func (v *Viewport) YMax() int            { return v.ymax }

// VisibleLanes returns the first and last visible channel lane (1-based,
// inclusive). Last < first when no lane is visible.
func (v *Viewport) VisibleLanes() (first, last int) {
	first = max(v.lanes.Min+1, 1)
	last = min(v.lanes.Max-1, v.ymax-1)
	return first, last
}

// SetTimeRange moves the time window, clamping each end into [0, xmax].
// A request that clamps to an empty window keeps the current width.
func (v *Viewport) SetTimeRange(t0, t1 float64) {
	if math.IsNaN(t0) || math.IsNaN(t1) {
		return
	}
	c0 := clampFloat(t0, 0, v.xmax)
	c1 := clampFloat(t1, 0, v.xmax)
	width := c1 - c0
	if width <= 0 {
		width = v.time.Width()
	}
	v.time = v.fitTime(c0, max(width, v.minDuration()))
}

// SetLaneRange moves the lane window, clamping into [0, ymax] and keeping
// at least one visible lane.
func (v *Viewport) SetLaneRange(l0, l1 int) {
	c0 := clampInt(l0, 0, v.ymax)
	c1 := clampInt(l1, 0, v.ymax)
	v.lanes = v.fitLanes(c0, max(c1-c0, 2))
}

// HScroll shifts the time window by step seconds without changing its width.
func (v *Viewport) HScroll(step float64) {
	if math.IsNaN(step) {
		return
	}
	v.time = v.fitTime(v.time.Min+step, v.time.Width())
}

// VScroll shifts the lane window by step lanes without changing its height.
func (v *Viewport) VScroll(step int) {
	step = clampInt(step, -v.ymax, v.ymax)
	v.lanes = v.fitLanes(v.lanes.Min+step, v.lanes.Height())
}

// ChangeDuration grows or shrinks the time window by step seconds around the
// configured anchor.
func (v *Viewport) ChangeDuration(step float64) {
	if math.IsNaN(step) {
		return
	}
	width := clampFloat(v.time.Width()+step, v.minDuration(), v.xmax)
	if width <= 0 {
		return
	}
	if v.Anchor == AnchorLeft {
		v.time = v.fitTime(v.time.Min, width)
		return
	}
	centre := (v.time.Min + v.time.Max) / 2
	v.time = v.fitTime(centre-width/2, width)
}

// ChangeLaneCount grows or shrinks the lane window by step lanes, keeping
// its top edge.
func (v *Viewport) ChangeLaneCount(step int) {
	step = clampInt(step, -v.ymax, v.ymax)
	v.lanes = v.fitLanes(v.lanes.Min, clampInt(v.lanes.Height()+step, 2, v.ymax))
}

func (v *Viewport) minDuration() float64 {
	if v.MinDuration > 0 && v.MinDuration < v.xmax {
		return v.MinDuration
	}
	return 0
}

// fitTime places a window of the given width at t0, shifted to lie in
// [0, xmax].
func (v *Viewport) fitTime(t0, width float64) TimeRange {
	if width > v.xmax {
		width = v.xmax
	}
	if t0 < 0 {
		t0 = 0
	}
	if t0+width >= v.xmax {
		return TimeRange{Min: v.xmax - width, Max: v.xmax}
	}
	return TimeRange{Min: t0, Max: t0 + width}
}

func (v *Viewport) fitLanes(l0, height int) LaneRange {
	if height > v.ymax {
		height = v.ymax
	}
	if l0 < 0 {
		l0 = 0
	}
	if l0+height > v.ymax {
		l0 = v.ymax - height
	}
	return LaneRange{Min: l0, Max: l0 + height}
}

func clampFloat(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(hi, v))
}

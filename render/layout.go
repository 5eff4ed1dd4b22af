// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package render draws sigview frames as static PNG images or interactive
// HTML charts.
package render

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"github.com/OpenPSG/sigview"
	"gonum.org/v1/gonum/floats"
)

// laneHalfHeight is the fraction of a lane an auto-scaled trace may fill on
// each side of its baseline.
const laneHalfHeight = 0.45

var (
	badColor        = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	annotationColor = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0x40}
)

// typeColors is the pen per channel type.
var typeColors = map[sigview.ChannelType]color.RGBA{
	sigview.Misc: {R: 0x44, G: 0x44, B: 0x44, A: 0xff},
	sigview.EEG:  {R: 0x00, G: 0x00, B: 0x00, A: 0xff},
	sigview.MEG:  {R: 0x1f, G: 0x4e, B: 0x9c, A: 0xff},
	sigview.EOG:  {R: 0x2c, G: 0x7b, B: 0x2c, A: 0xff},
	sigview.ECG:  {R: 0x8c, G: 0x2d, B: 0x8c, A: 0xff},
	sigview.EMG:  {R: 0x8c, G: 0x56, B: 0x1c, A: 0xff},
	sigview.Stim: {R: 0x7f, G: 0x7f, B: 0x00, A: 0xff},
}

// baseline is the y coordinate of a lane's zero line. The first visible lane
// is drawn at the top.
func baseline(lanes sigview.LaneRange, lane int) float64 {
	return float64(lanes.Max - lane)
}

// layout maps a drawable's samples into plot coordinates. A positive
// amplitude is lanes per signal unit; otherwise each trace is scaled to fill
// its lane.
func layout(d sigview.Drawable, lanes sigview.LaneRange, amplitude float64) (x, y []float64) {
	xs, ys := d.Points()
	if len(xs) == 0 {
		return nil, nil
	}

	scale := amplitude
	if !(scale > 0) {
		scale = autoScale(ys)
	}

	base := baseline(lanes, d.Lane())
	y = make([]float64, len(ys))
	for i, v := range ys {
		y[i] = base + v*scale
	}
	return xs, y
}

func autoScale(ys []float64) float64 {
	peak := math.Max(math.Abs(floats.Max(ys)), math.Abs(floats.Min(ys)))
	if !(peak > 0) || math.IsInf(peak, 0) {
		return 0
	}
	return laneHalfHeight / peak
}

func traceColor(s sigview.Style) color.RGBA {
	if s.Bad {
		return badColor
	}
	if c, ok := typeColors[s.Type]; ok {
		return c
	}
	return typeColors[sigview.Misc]
}

// annotationFill parses the annotation colour as #rrggbb or #rrggbbaa.
func annotationFill(a sigview.Annotation) color.RGBA {
	s := strings.TrimPrefix(strings.TrimSpace(a.Color), "#")
	if len(s) != 6 && len(s) != 8 {
		return annotationColor
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return annotationColor
	}
	if len(s) == 6 {
		return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: annotationColor.A}
	}
	return color.RGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}
}

// span returns the part of an annotation inside the window. Instantaneous
// annotations get a sliver of width so they remain visible.
func span(a sigview.Annotation, tr sigview.TimeRange) (x0, x1 float64) {
	x0 = math.Max(a.Onset, tr.Min)
	x1 = math.Min(a.End(), tr.Max)
	if minWidth := tr.Width() / 500; x1-x0 < minWidth {
		x1 = math.Min(x0+minWidth, tr.Max)
	}
	return x0, x1
}

func channelLabel(t sigview.ChannelTick) string {
	if t.Bad {
		return t.Name + " (bad)"
	}
	return t.Name
}

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package render

import (
	"image/color"
	"testing"

	"github.com/OpenPSG/sigview"
	"github.com/stretchr/testify/assert"
)

type stubDrawable struct {
	lane int
	x, y []float64
}

func (s stubDrawable) Lane() int                { return s.lane }
func (s stubDrawable) Points() (x, y []float64) { return s.x, s.y }
func (s stubDrawable) Style() sigview.Style     { return sigview.Style{Label: "stub"} }

func TestBaselineFirstLaneOnTop(t *testing.T) {
	lanes := sigview.LaneRange{Min: 2, Max: 6}

	assert.Equal(t, 3.0, baseline(lanes, 3))
	assert.Equal(t, 1.0, baseline(lanes, 5))
}

func TestLayout(t *testing.T) {
	lanes := sigview.LaneRange{Min: 0, Max: 4}
	d := stubDrawable{lane: 1, x: []float64{0, 1, 2}, y: []float64{-2, 0, 1}}

	x, y := layout(d, lanes, 0)
	assert.Equal(t, d.x, x)
	assert.InDeltaSlice(t, []float64{3 - laneHalfHeight, 3, 3 + laneHalfHeight/2}, y, 1e-12)

	_, y = layout(d, lanes, 0.1)
	assert.InDeltaSlice(t, []float64{2.8, 3, 3.1}, y, 1e-12)

	x, y = layout(stubDrawable{lane: 1}, lanes, 0)
	assert.Nil(t, x)
	assert.Nil(t, y)

	// A flat trace sits on its baseline.
	_, y = layout(stubDrawable{lane: 2, x: []float64{0, 1}, y: []float64{0, 0}}, lanes, 0)
	assert.Equal(t, []float64{2, 2}, y)
}

func TestAnnotationFill(t *testing.T) {
	assert.Equal(t, color.RGBA{R: 0xff, G: 0x88, B: 0x00, A: annotationColor.A}, annotationFill(sigview.Annotation{Color: "#ff8800"}))
	assert.Equal(t, color.RGBA{R: 0x11, G: 0x22, B: 0x33, A: 0x44}, annotationFill(sigview.Annotation{Color: "11223344"}))
	assert.Equal(t, annotationColor, annotationFill(sigview.Annotation{Color: "red"}))
	assert.Equal(t, annotationColor, annotationFill(sigview.Annotation{}))
}

func TestSpan(t *testing.T) {
	tr := sigview.TimeRange{Min: 10, Max: 20}

	x0, x1 := span(sigview.Annotation{Onset: 5, Duration: 7}, tr)
	assert.Equal(t, 10.0, x0)
	assert.Equal(t, 12.0, x1)

	x0, x1 = span(sigview.Annotation{Onset: 15}, tr)
	assert.Equal(t, 15.0, x0)
	assert.InDelta(t, 15.02, x1, 1e-12)
}

func TestTraceColor(t *testing.T) {
	assert.Equal(t, badColor, traceColor(sigview.Style{Type: sigview.EEG, Bad: true}))
	assert.Equal(t, typeColors[sigview.EOG], traceColor(sigview.Style{Type: sigview.EOG}))
	assert.Equal(t, typeColors[sigview.Misc], traceColor(sigview.Style{Type: sigview.ChannelType(42)}))
}

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
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/OpenPSG/sigview"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// EChartsRenderer draws frames as interactive HTML line charts.
type EChartsRenderer struct {
	Width, Height string
	// Amplitude is lanes per signal unit; zero scales each trace to its lane.
	Amplitude float64
	Title     string
	// AssetsHost overrides where the page loads echarts.min.js from.
	AssetsHost string
}

func NewEChartsRenderer() *EChartsRenderer {
	return &EChartsRenderer{
		Width:  "100%",
		Height: "800px",
	}
}

// Render writes f to w as a standalone HTML page.
func (r *EChartsRenderer) Render(w io.Writer, f sigview.Frame) error {
	height := float64(f.Lanes.Height())

	title := r.Title
	if title == "" {
		title = "sigview"
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title, Width: r.Width, Height: r.Height, AssetsHost: r.AssetsHost}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: fmt.Sprintf("time=%s lanes=%s", f.Time, f.Lanes)}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "value", Min: f.Time.Min, Max: f.Time.Max, Name: "Time (s)", NameLocation: "middle", NameGap: 25}),
		charts.WithYAxisOpts(opts.YAxis{
			Type:        "value",
			Min:         0,
			Max:         height,
			MinInterval: 1,
			AxisLabel:   &opts.AxisLabel{Formatter: opts.FuncOpts(laneFormatter(f))},
			SplitLine:   &opts.SplitLine{Show: opts.Bool(false)},
		}),
	)

	var marks []charts.SeriesOpts
	for _, a := range f.Annotations {
		x0, x1 := span(a, f.Time)
		fill := annotationFill(a)
		marks = append(marks, charts.WithMarkAreaNameCoordItemOpts(opts.MarkAreaNameCoordItem{
			Name:        a.Description,
			Coordinate0: []interface{}{x0, 0},
			Coordinate1: []interface{}{x1, height},
			ItemStyle:   &opts.ItemStyle{Color: hex(fill), Opacity: opts.Float(float32(fill.A) / 0xff)},
		}))
	}

	for i, d := range f.Drawables {
		x, y := layout(d, f.Lanes, r.Amplitude)
		data := make([]opts.LineData, len(x))
		for j := range x {
			data[j] = opts.LineData{Value: []interface{}{x[j], y[j]}}
		}

		style := d.Style()
		seriesOpts := []charts.SeriesOpts{
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false)}),
			charts.WithLineStyleOpts(opts.LineStyle{Color: hex(traceColor(style)), Width: 1}),
		}
		if i == 0 {
			seriesOpts = append(seriesOpts, marks...)
		}
		line.AddSeries(style.Label, data, seriesOpts...)
	}

	// Mark areas need a series to hang off.
	if len(f.Drawables) == 0 && len(marks) > 0 {
		line.AddSeries("annotations", nil, marks...)
	}

	if err := line.Render(w); err != nil {
		return fmt.Errorf("error writing chart: %w", err)
	}
	return nil
}

// jsUnsafe strips characters that cannot pass through the option JSON
// unescaped inside a single-quoted JS string.
var jsUnsafe = strings.NewReplacer("'", "", "\\", "", "\"", "", "<", "", ">", "")

// laneFormatter builds the y axis label callback mapping baselines to
// channel names.
func laneFormatter(f sigview.Frame) string {
	var sb strings.Builder
	sb.WriteString("function (value) { switch (value) {")
	for _, t := range f.ChannelTicks {
		fmt.Fprintf(&sb, " case %s: return '%s';", strconv.FormatFloat(baseline(f.Lanes, t.Lane), 'f', -1, 64), jsUnsafe.Replace(channelLabel(t)))
	}
	sb.WriteString(" } return ''; }")
	return sb.String()
}

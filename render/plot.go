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

	"github.com/OpenPSG/sigview"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// PlotRenderer draws frames as PNG images with gonum/plot.
type PlotRenderer struct {
	Width, Height vg.Length
	// Amplitude is lanes per signal unit; zero scales each trace to its lane.
	Amplitude float64
	Title     string
}

func NewPlotRenderer() *PlotRenderer {
	return &PlotRenderer{
		Width:  12 * vg.Inch,
		Height: 8 * vg.Inch,
	}
}

// Render writes f to w as a PNG.
func (r *PlotRenderer) Render(w io.Writer, f sigview.Frame) error {
	p := plot.New()
	p.Title.Text = r.Title
	p.X.Label.Text = "Time (s)"

	height := float64(f.Lanes.Height())

	for _, a := range f.Annotations {
		x0, x1 := span(a, f.Time)
		band, err := plotter.NewPolygon(plotter.XYs{{X: x0, Y: 0}, {X: x1, Y: 0}, {X: x1, Y: height}, {X: x0, Y: height}})
		if err != nil {
			return fmt.Errorf("error building annotation %q: %w", a.Description, err)
		}
		band.Color = annotationFill(a)
		band.LineStyle.Width = 0
		p.Add(band)
	}

	for _, d := range f.Drawables {
		x, y := layout(d, f.Lanes, r.Amplitude)
		if len(x) == 0 {
			continue
		}
		xys := make(plotter.XYs, len(x))
		for i := range x {
			xys[i].X, xys[i].Y = x[i], y[i]
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("error building trace %q: %w", d.Style().Label, err)
		}
		line.LineStyle.Color = traceColor(d.Style())
		line.LineStyle.Width = vg.Points(0.5)
		p.Add(line)
	}

	// Fix the axes after Add, which widens them to the data.
	p.X.Min, p.X.Max = f.Time.Min, f.Time.Max
	p.Y.Min, p.Y.Max = 0, height

	xticks := make(plot.ConstantTicks, 0, len(f.TimeTicks))
	for _, t := range f.TimeTicks {
		xticks = append(xticks, plot.Tick{Value: t.Position, Label: t.Label})
	}
	p.X.Tick.Marker = xticks

	yticks := make(plot.ConstantTicks, 0, len(f.ChannelTicks))
	for _, t := range f.ChannelTicks {
		yticks = append(yticks, plot.Tick{Value: baseline(f.Lanes, t.Lane), Label: channelLabel(t)})
	}
	p.Y.Tick.Marker = yticks

	wt, err := p.WriterTo(r.Width, r.Height, "png")
	if err != nil {
		return fmt.Errorf("error drawing plot: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("error writing png: %w", err)
	}
	return nil
}

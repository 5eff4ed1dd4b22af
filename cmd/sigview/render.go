// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/OpenPSG/sigview"
	"github.com/OpenPSG/sigview/edf"
	"github.com/OpenPSG/sigview/render"
)

// openEngine loads an EDF recording and builds an engine over it.
func openEngine(in, configPath string, logger *slog.Logger) (*sigview.Engine, error) {
	if in == "" {
		return nil, errors.New("-in is required")
	}

	cfg := sigview.DefaultConfig()
	if configPath != "" {
		var err error
		if cfg, err = sigview.LoadConfig(configPath); err != nil {
			return nil, err
		}
	}

	f, err := os.Open(in)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, annotations, err := edf.Load(f)
	if err != nil {
		return nil, fmt.Errorf("error loading %s: %w", in, err)
	}
	logger.Info("loaded recording",
		"path", in,
		"channels", m.NumChannels(),
		"samples", m.NumSamples(),
		"sfreq", m.SFreq(),
		"annotations", annotations.Len())

	return sigview.New(m, cfg, sigview.WithLogger(logger), sigview.WithAnnotations(annotations))
}

func runRender(args []string, stderr io.Writer) (err error) {
	fs := flag.NewFlagSet("render", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "Input EDF/EDF+ file (required)")
	configPath := fs.String("config", "", "YAML config file")
	t0 := fs.Float64("t0", 0, "Window start in seconds")
	lane := fs.Int("lane", 0, "Lanes to scroll down before rendering")
	bads := fs.String("bads", "", "Comma separated channels to mark bad")
	out := fs.String("out", "view.png", "Output file (.png or .html)")
	amplitude := fs.Float64("amplitude", 0, "Lanes per signal unit (0 scales each trace to its lane)")
	verbose := fs.Bool("v", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := newLogger(stderr, *verbose)
	e, err := openEngine(*in, *configPath, logger)
	if err != nil {
		return err
	}

	if *bads != "" {
		for _, name := range strings.Split(*bads, ",") {
			if _, err := e.ToggleBad(strings.TrimSpace(name)); err != nil {
				return err
			}
		}
	}

	tr := e.Viewport().TimeRange()
	e.SetTimeRange(*t0, *t0+tr.Width())
	e.VScroll(*lane)
	frame := e.Frame()

	var renderer interface {
		Render(w io.Writer, f sigview.Frame) error
	}
	switch ext := strings.ToLower(filepath.Ext(*out)); ext {
	case ".png":
		r := render.NewPlotRenderer()
		r.Amplitude = *amplitude
		r.Title = filepath.Base(*in)
		renderer = r
	case ".html", ".htm":
		r := render.NewEChartsRenderer()
		r.Amplitude = *amplitude
		r.Title = filepath.Base(*in)
		renderer = r
	default:
		return fmt.Errorf("unsupported output format %q", ext)
	}

	f, err := os.Create(*out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := renderer.Render(f, frame); err != nil {
		return err
	}

	logger.Info("rendered frame",
		"path", *out,
		"time", frame.Time.String(),
		"lanes", frame.Lanes.String(),
		"traces", len(frame.Drawables),
		"annotations", len(frame.Annotations),
		"factor", e.Factor())
	return nil
}

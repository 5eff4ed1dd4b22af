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
	"flag"
	"io"
	"time"

	"github.com/OpenPSG/sigview"
)

func runSweep(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	fs.SetOutput(stderr)
	in := fs.String("in", "", "Input EDF/EDF+ file (required)")
	configPath := fs.String("config", "", "YAML config file")
	ticks := fs.Int("ticks", 500, "Number of sweep ticks")
	axisName := fs.String("axis", "", "Axis to sweep: time, lanes or both (default from config)")
	verbose := fs.Bool("v", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := newLogger(stderr, *verbose)
	e, err := openEngine(*in, *configPath, logger)
	if err != nil {
		return err
	}

	axis := e.Config().Sweep.Axis
	if *axisName != "" {
		if axis, err = sigview.ParseAxis(*axisName); err != nil {
			return err
		}
	}

	stats := sweep(e, axis, *ticks)
	logger.Info("sweep finished",
		"axis", axis.String(),
		"ticks", stats.ticks,
		"elapsed", stats.elapsed,
		"ticks_per_second", stats.rate(),
		"mean_points_per_frame", stats.meanPoints(),
		"redraws", stats.redraws,
		"entering", stats.entering)
	return nil
}

type sweepStats struct {
	ticks    int
	points   int
	redraws  int
	entering int
	elapsed  time.Duration
}

func (s sweepStats) rate() float64 {
	if s.elapsed <= 0 {
		return 0
	}
	return float64(s.ticks) / s.elapsed.Seconds()
}

func (s sweepStats) meanPoints() float64 {
	if s.ticks == 0 {
		return 0
	}
	return float64(s.points) / float64(s.ticks)
}

// sweep runs the autonomous bounce scroll, counting the points a renderer
// would have drawn each frame.
func sweep(e *sigview.Engine, axis sigview.Axis, ticks int) sweepStats {
	var stats sweepStats
	start := time.Now()
	for range ticks {
		u := e.Sweep(axis)
		stats.ticks++
		stats.redraws += len(u.Redrawn)
		stats.entering += len(u.Entering)
		for _, d := range e.Drawables() {
			x, _ := d.Points()
			stats.points += len(x)
		}
	}
	stats.elapsed = time.Since(start)
	return stats
}

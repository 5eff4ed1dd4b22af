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
	"strings"

	"gopkg.in/yaml.v3"
)

// Direction is the sign of an autonomous sweep.
type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// Axis selects which viewport axes a sweep tick moves.
type Axis int

const (
	AxisTime Axis = 1 << iota
	AxisLanes
	AxisBoth = AxisTime | AxisLanes
)

func (a Axis) String() string {
	switch a {
	case AxisTime:
		return "time"
	case AxisLanes:
		return "lanes"
	case AxisBoth:
		return "both"
	default:
		return fmt.Sprintf("Axis(%d)", int(a))
	}
}

// ParseAxis parses "time", "lanes" or "both".
func ParseAxis(s string) (Axis, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "time", "x", "h":
		return AxisTime, nil
	case "lanes", "channels", "y", "v":
		return AxisLanes, nil
	case "both":
		return AxisBoth, nil
	default:
		return 0, fmt.Errorf("unknown sweep axis %q", s)
	}
}

func (a *Axis) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseAxis(value.Value)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// Sweeper scrolls a viewport back and forth, reversing before a step would
// cross either bound of an axis.
type Sweeper struct {
	vp    *Viewport
	HStep float64
	VStep int
	hdir  Direction
	vdir  Direction
}

func NewSweeper(vp *Viewport, hstep float64, vstep int) *Sweeper {
	return &Sweeper{
		vp:    vp,
		HStep: hstep,
		VStep: vstep,
		hdir:  Forward,
		vdir:  Forward,
	}
}

// Directions reports the current horizontal and vertical sweep directions.
func (s *Sweeper) Directions() (h, v Direction) { return s.hdir, s.vdir }

// Tick advances the requested axes by one step.
func (s *Sweeper) Tick(axis Axis) {
	if axis&AxisTime != 0 {
		s.TickH()
	}
	if axis&AxisLanes != 0 {
		s.TickV()
	}
}

// TickH advances the time window by HStep in the current direction.
func (s *Sweeper) TickH() TimeRange {
	tr := s.vp.TimeRange()
	xmax := s.vp.XMax()
	overshoots := func(d Direction) bool {
		if d == Forward {
			return tr.Max+s.HStep > xmax
		}
		return tr.Min-s.HStep < 0
	}

	if overshoots(s.hdir) {
		s.hdir = -s.hdir
		if overshoots(s.hdir) {
			return tr
		}
	}

	s.vp.HScroll(float64(s.hdir) * s.HStep)
	return s.vp.TimeRange()
}

// TickV advances the lane window by VStep in the current direction.
func (s *Sweeper) TickV() LaneRange {
	lr := s.vp.LaneRange()
	ymax := s.vp.YMax()
	overshoots := func(d Direction) bool {
		if d == Forward {
			return lr.Max+s.VStep > ymax
		}
		return lr.Min-s.VStep < 0
	}

	if overshoots(s.vdir) {
		s.vdir = -s.vdir
		if overshoots(s.vdir) {
			return lr
		}
	}

	s.vp.VScroll(int(s.vdir) * s.VStep)
	return s.vp.LaneRange()
}

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
	"gonum.org/v1/plot"
)

// TimeTick is a labelled position on the time axis.
type TimeTick struct {
	Position float64
	Label    string
}

// ChannelTick labels a lane with its channel.
type ChannelTick struct {
	Lane int
	Name string
	Bad  bool
}

// TimeTicks returns the major ticks inside a time window, labelled in seconds.
func TimeTicks(tr TimeRange) []TimeTick {
	if !(tr.Max > tr.Min) {
		return nil
	}

	var ticks []TimeTick
	for _, t := range (plot.DefaultTicks{}).Ticks(tr.Min, tr.Max) {
		if t.IsMinor() || t.Value < tr.Min || t.Value > tr.Max {
			continue
		}
		ticks = append(ticks, TimeTick{
			Position: t.Value,
			Label:    t.Label,
		})
	}
	return ticks
}

// ChannelTicks labels the lanes of the given traces.
func ChannelTicks(traces []*Trace) []ChannelTick {
	ticks := make([]ChannelTick, 0, len(traces))
	for _, t := range traces {
		ticks = append(ticks, ChannelTick{Lane: t.Lane(), Name: t.Name(), Bad: t.Bad()})
	}
	return ticks
}

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
	"slices"
	"sort"
)

// LaneMap maps 1-based lanes to channel indices and back.
type LaneMap interface {
	// Channel returns the channel drawn in a lane in [1, Len()].
	Channel(lane int) int
	// Lane returns the lane of a channel in [0, Len()).
	Lane(channel int) int
	// Len is the number of channels.
	Len() int
}

type identityLanes int

// IdentityLanes maps lane k to channel k-1.
func IdentityLanes(n int) LaneMap { return identityLanes(n) }

func (n identityLanes) Channel(lane int) int { return lane - 1 }
func (n identityLanes) Lane(ch int) int      { return ch + 1 }
func (n identityLanes) Len() int             { return int(n) }

type orderedLanes struct {
	order []int
	lanes []int
}

// OrderedLanes maps lane k to order[k-1]. order must be a permutation of
// 0..len(order)-1.
func OrderedLanes(order []int) (LaneMap, error) {
	lanes := make([]int, len(order))
	seen := make([]bool, len(order))
	for i, ch := range order {
		if ch < 0 || ch >= len(order) {
			return nil, fmt.Errorf("lane order entry %d: channel %d: %w", i, ch, ErrUnknownChannel)
		}
		if seen[ch] {
			return nil, fmt.Errorf("lane order lists channel %d twice", ch)
		}
		seen[ch] = true
		lanes[ch] = i + 1
	}
	return &orderedLanes{order: slices.Clone(order), lanes: lanes}, nil
}

func (o *orderedLanes) Channel(lane int) int { return o.order[lane-1] }
func (o *orderedLanes) Lane(ch int) int      { return o.lanes[ch] }
func (o *orderedLanes) Len() int             { return len(o.order) }

// GroupByType returns a channel order grouping channels by type, in the
// given type order, keeping the original order within a group. Types not
// listed follow in ascending type order.
func GroupByType(m *Matrix, order ...ChannelType) []int {
	rank := make(map[ChannelType]int, len(order))
	for i, t := range order {
		if _, ok := rank[t]; !ok {
			rank[t] = i
		}
	}
	key := func(ch int) int {
		t := m.Type(ch)
		if r, ok := rank[t]; ok {
			return r
		}
		return len(order) + int(t)
	}

	channels := make([]int, m.NumChannels())
	for i := range channels {
		channels[i] = i
	}
	sort.SliceStable(channels, func(i, j int) bool {
		return key(channels[i]) < key(channels[j])
	})
	return channels
}

// channelsIn returns the sorted channels drawn in the visible lanes of r.
func channelsIn(r LaneRange, lanes LaneMap) []int {
	first := max(r.Min+1, 1)
	last := min(r.Max-1, lanes.Len())
	if last < first {
		return nil
	}

	channels := make([]int, 0, last-first+1)
	for lane := first; lane <= last; lane++ {
		ch := lanes.Channel(lane)
		if ch < 0 || ch >= lanes.Len() {
			panic(fmt.Sprintf("sigview: lane %d maps to channel %d outside [0, %d)", lane, ch, lanes.Len()))
		}
		channels = append(channels, ch)
	}
	slices.Sort(channels)
	return channels
}

// LaneDiff returns the channels that become visible and those that stop
// being visible when the lane window moves from prev to next.
func LaneDiff(prev, next LaneRange, lanes LaneMap) (entering, leaving []int) {
	before := channelsIn(prev, lanes)
	after := channelsIn(next, lanes)
	return difference(after, before), difference(before, after)
}

// difference returns the elements of sorted a that are not in sorted b.
func difference(a, b []int) []int {
	var out []int
	j := 0
	for _, v := range a {
		for j < len(b) && b[j] < v {
			j++
		}
		if j < len(b) && b[j] == v {
			continue
		}
		out = append(out, v)
	}
	return out
}

// Virtualizer keeps a Trace alive for exactly the channels in the visible lanes.
type Virtualizer struct {
	m      *Matrix
	lanes  LaneMap
	live   map[int]*Trace
	cached bool
}

// NewVirtualizer creates a virtualizer over m. A nil lane map means the
// identity order. When cached is set, traces keep full-row reductions.
func NewVirtualizer(m *Matrix, lanes LaneMap, cached bool) (*Virtualizer, error) {
	if lanes == nil {
		lanes = IdentityLanes(m.NumChannels())
	}
	if lanes.Len() != m.NumChannels() {
		return nil, fmt.Errorf("lane map covers %d channels, matrix has %d: %w", lanes.Len(), m.NumChannels(), ErrShapeMismatch)
	}
	return &Virtualizer{
		m:      m,
		lanes:  lanes,
		live:   make(map[int]*Trace),
		cached: cached,
	}, nil
}

func (v *Virtualizer) Lanes() LaneMap { return v.lanes }

// Reconcile materializes traces for channels entering r and disposes those
// that left it. It diffs against the live set, so repeated calls with the
// same range are no-ops regardless of what came before.
func (v *Virtualizer) Reconcile(r LaneRange) (entering, leaving []int) {
	want := channelsIn(r, v.lanes)

	have := make([]int, 0, len(v.live))
	for ch := range v.live {
		have = append(have, ch)
	}
	slices.Sort(have)

	entering = difference(want, have)
	leaving = difference(have, want)

	for _, ch := range leaving {
		v.live[ch].dispose()
		delete(v.live, ch)
	}
	for _, ch := range entering {
		v.live[ch] = newTrace(v.m, ch, v.lanes.Lane(ch), v.cached)
	}
	return entering, leaving
}

// SetLanes swaps the lane order. Live traces keep their cache but move lanes.
func (v *Virtualizer) SetLanes(lanes LaneMap) error {
	if lanes.Len() != v.m.NumChannels() {
		return fmt.Errorf("lane map covers %d channels, matrix has %d: %w", lanes.Len(), v.m.NumChannels(), ErrShapeMismatch)
	}
	v.lanes = lanes
	for ch, t := range v.live {
		t.lane = lanes.Lane(ch)
	}
	return nil
}

// Trace returns the live trace of a channel.
func (v *Virtualizer) Trace(ch int) (*Trace, bool) {
	t, ok := v.live[ch]
	return t, ok
}

// Live returns the live traces ordered by lane.
func (v *Virtualizer) Live() []*Trace {
	traces := make([]*Trace, 0, len(v.live))
	for _, t := range v.live {
		traces = append(traces, t)
	}
	sort.Slice(traces, func(i, j int) bool { return traces[i].lane < traces[j].lane })
	return traces
}

func (v *Virtualizer) Len() int { return len(v.live) }

// Reset disposes every live trace.
func (v *Virtualizer) Reset() {
	for ch, t := range v.live {
		t.dispose()
		delete(v.live, ch)
	}
}

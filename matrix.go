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
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrEmptyMatrix       = errors.New("matrix has no channels or samples")
	ErrShapeMismatch     = errors.New("channel row length does not match time axis")
	ErrNonMonotonicTimes = errors.New("time axis is not strictly increasing")
	ErrDuplicateChannel  = errors.New("duplicate channel name")
	ErrUnknownChannel    = errors.New("unknown channel")
)

// ChannelType is the sensor class of a channel.
type ChannelType int

const (
	Misc ChannelType = iota
	EEG
	MEG
	EOG
	ECG
	EMG
	Stim
)

var channelTypeNames = [...]string{
	Misc: "misc",
	EEG:  "eeg",
	MEG:  "meg",
	EOG:  "eog",
	ECG:  "ecg",
	EMG:  "emg",
	Stim: "stim",
}

func (t ChannelType) String() string {
	if t < 0 || int(t) >= len(channelTypeNames) {
		return fmt.Sprintf("ChannelType(%d)", int(t))
	}
	return channelTypeNames[t]
}

// ParseChannelType maps a type name to a ChannelType. Unrecognized names are Misc.
func ParseChannelType(s string) ChannelType {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range channelTypeNames {
		if name == s {
			return ChannelType(t)
		}
	}
	return Misc
}

// Matrix is a channels x samples view over a recording. Sample data and
// channel metadata are fixed once constructed; the bad set and row contents
// (through ReplaceRow/Transform) may change during a session.
type Matrix struct {
	data     [][]float64
	times    []float64
	names    []string
	types    []ChannelType
	index    map[string]int
	bads     map[string]struct{}
	origin   float64
	revision uint64
}

// NewMatrix validates and wraps the given buffers. The data slices are not
// copied. A time axis that does not start at zero is rebased so that engine
// coordinates are seconds from the first sample; Origin keeps the offset.
func NewMatrix(data [][]float64, times []float64, names []string, types []ChannelType) (*Matrix, error) {
	if len(data) == 0 || len(times) == 0 {
		return nil, ErrEmptyMatrix
	}
	if len(times) < 2 {
		return nil, fmt.Errorf("need at least two samples, got %d: %w", len(times), ErrEmptyMatrix)
	}
	if len(names) != len(data) {
		return nil, fmt.Errorf("%d names for %d channels: %w", len(names), len(data), ErrShapeMismatch)
	}
	if types != nil && len(types) != len(data) {
		return nil, fmt.Errorf("%d types for %d channels: %w", len(types), len(data), ErrShapeMismatch)
	}

	for ch, row := range data {
		if len(row) != len(times) {
			return nil, fmt.Errorf("channel %d has %d samples, time axis has %d: %w", ch, len(row), len(times), ErrShapeMismatch)
		}
	}

	for i := 1; i < len(times); i++ {
		if !(times[i] > times[i-1]) {
			return nil, fmt.Errorf("sample %d at %g follows %g: %w", i, times[i], times[i-1], ErrNonMonotonicTimes)
		}
	}

	index := make(map[string]int, len(names))
	for ch, name := range names {
		if name == "" {
			return nil, fmt.Errorf("channel %d has an empty name", ch)
		}
		if _, ok := index[name]; ok {
			return nil, fmt.Errorf("%q: %w", name, ErrDuplicateChannel)
		}
		index[name] = ch
	}

	if types == nil {
		types = make([]ChannelType, len(data))
	}

	origin := times[0]
	if origin != 0 {
		rebased := make([]float64, len(times))
		for i, t := range times {
			rebased[i] = t - origin
		}
		times = rebased
	}

	return &Matrix{
		data:   data,
		times:  times,
		names:  names,
		types:  types,
		index:  index,
		bads:   make(map[string]struct{}),
		origin: origin,
	}, nil
}

// NewUniformMatrix builds the time axis from a sampling frequency and start time.
func NewUniformMatrix(data [][]float64, sfreq, t0 float64, names []string, types []ChannelType) (*Matrix, error) {
	if sfreq <= 0 {
		return nil, fmt.Errorf("invalid sampling frequency %g", sfreq)
	}
	if len(data) == 0 {
		return nil, ErrEmptyMatrix
	}

	times := make([]float64, len(data[0]))
	for i := range times {
		times[i] = t0 + float64(i)/sfreq
	}

	return NewMatrix(data, times, names, types)
}

func (m *Matrix) NumChannels() int { return len(m.data) }
func (m *Matrix) NumSamples() int  { return len(m.times) }

// SFreq is the sampling frequency derived from the first sample interval.
func (m *Matrix) SFreq() float64 {
	return 1 / (m.times[1] - m.times[0])
}

// Duration covers every sample including the last sample period.
func (m *Matrix) Duration() float64 {
	return float64(len(m.times)) / m.SFreq()
}

// Origin is the time of the first sample on the recording's own clock.
func (m *Matrix) Origin() float64 { return m.origin }

// Times returns the shared time axis, starting at zero. Callers must not modify it.
func (m *Matrix) Times() []float64 { return m.times }

// Row returns the samples of one channel. Callers must not modify it.
func (m *Matrix) Row(ch int) []float64 {
	m.mustChannel(ch)
	return m.data[ch]
}

func (m *Matrix) Name(ch int) string {
	m.mustChannel(ch)
	return m.names[ch]
}

func (m *Matrix) Type(ch int) ChannelType {
	m.mustChannel(ch)
	return m.types[ch]
}

// Names returns a copy of the ordered channel names.
func (m *Matrix) Names() []string {
	return append([]string(nil), m.names...)
}

// Index returns the channel index for a name.
func (m *Matrix) Index(name string) (int, bool) {
	ch, ok := m.index[name]
	return ch, ok
}

// SampleRange converts a time window into a half-open sample index window,
// clamped to the recording.
func (m *Matrix) SampleRange(t0, t1 float64) (start, stop int) {
	sfreq := m.SFreq()
	start = int(t0 * sfreq)
	stop = int(t1*sfreq) + 1
	if start < 0 {
		start = 0
	}
	if stop > len(m.times) {
		stop = len(m.times)
	}
	if start > stop {
		start = stop
	}
	return start, stop
}

// Revision changes whenever row data is replaced. Derived caches compare it
// to decide whether they are stale.
func (m *Matrix) Revision() uint64 { return m.revision }

// ReplaceRow swaps one channel's samples, e.g. after toggling a filter.
func (m *Matrix) ReplaceRow(ch int, row []float64) error {
	if ch < 0 || ch >= len(m.data) {
		return fmt.Errorf("channel %d: %w", ch, ErrUnknownChannel)
	}
	if len(row) != len(m.times) {
		return fmt.Errorf("channel %d replacement has %d samples, want %d: %w", ch, len(row), len(m.times), ErrShapeMismatch)
	}
	m.data[ch] = row
	m.revision++
	return nil
}

// Transform replaces every row with fn's result.
func (m *Matrix) Transform(fn func(ch int, row []float64) []float64) error {
	rows := make([][]float64, len(m.data))
	for ch, row := range m.data {
		out := fn(ch, row)
		if len(out) != len(m.times) {
			return fmt.Errorf("channel %d transform returned %d samples, want %d: %w", ch, len(out), len(m.times), ErrShapeMismatch)
		}
		rows[ch] = out
	}
	copy(m.data, rows)
	m.revision++
	return nil
}

func (m *Matrix) IsBad(name string) bool {
	_, ok := m.bads[name]
	return ok
}

// Bads returns the bad channel names in channel order.
func (m *Matrix) Bads() []string {
	bads := make([]string, 0, len(m.bads))
	for name := range m.bads {
		bads = append(bads, name)
	}
	sort.Slice(bads, func(i, j int) bool {
		return m.index[bads[i]] < m.index[bads[j]]
	})
	return bads
}

// ToggleBad flips the bad flag of a channel and reports the new state.
func (m *Matrix) ToggleBad(name string) (bool, error) {
	if _, ok := m.index[name]; !ok {
		return false, fmt.Errorf("%q: %w", name, ErrUnknownChannel)
	}
	if _, ok := m.bads[name]; ok {
		delete(m.bads, name)
		return false, nil
	}
	m.bads[name] = struct{}{}
	return true, nil
}

// SetBads replaces the bad set.
func (m *Matrix) SetBads(names []string) error {
	bads := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := m.index[name]; !ok {
			return fmt.Errorf("%q: %w", name, ErrUnknownChannel)
		}
		bads[name] = struct{}{}
	}
	m.bads = bads
	return nil
}

func (m *Matrix) mustChannel(ch int) {
	if ch < 0 || ch >= len(m.data) {
		panic(fmt.Sprintf("sigview: channel index %d out of range [0, %d)", ch, len(m.data)))
	}
}

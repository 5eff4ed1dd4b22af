// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package edf

import (
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"

	"github.com/OpenPSG/sigview"
)

var (
	ErrNoSignals        = errors.New("recording has no ordinary signals")
	ErrMixedSampleRates = errors.New("signals have different sample rates")
)

// Load reads every ordinary signal of an EDF/EDF+ recording into a matrix
// and collects its annotations. All signals must share one sample rate.
func Load(r io.ReadSeeker) (*sigview.Matrix, *sigview.MemoryAnnotations, error) {
	er, err := Open(r)
	if err != nil {
		return nil, nil, err
	}
	hdr := er.Header()

	var (
		data  [][]float64
		names []string
		types []sigview.ChannelType
		spr   = -1
		sfreq float64
	)
	for i, sig := range hdr.Signals {
		if sig.IsAnnotations() {
			continue
		}
		if spr >= 0 && sig.SamplesPerRecord != spr {
			return nil, nil, fmt.Errorf("signal %q has %d samples per record, expected %d: %w", sig.Label, sig.SamplesPerRecord, spr, ErrMixedSampleRates)
		}
		spr = sig.SamplesPerRecord
		sfreq = sig.SampleRate(hdr.DataRecordDuration)

		sr, err := er.Signal(i)
		if err != nil {
			return nil, nil, err
		}
		samples, err := sr.ReadAll()
		if err != nil {
			return nil, nil, fmt.Errorf("error reading signal %q: %w", sig.Label, err)
		}

		data = append(data, samples)
		names = append(names, uniqueName(names, sig.Label))
		types = append(types, ChannelType(sig))
	}
	if len(data) == 0 {
		return nil, nil, ErrNoSignals
	}

	if !(sfreq > 0) || math.IsInf(sfreq, 0) {
		return nil, nil, fmt.Errorf("invalid sample rate %g (record duration %s)", sfreq, hdr.DataRecordDuration)
	}

	m, err := sigview.NewUniformMatrix(data, sfreq, 0, names, types)
	if err != nil {
		return nil, nil, fmt.Errorf("error building matrix: %w", err)
	}

	annotations := sigview.NewMemoryAnnotations()
	if hdr.IsPlus() {
		parsed, err := er.Annotations()
		if err != nil {
			return nil, nil, fmt.Errorf("error reading annotations: %w", err)
		}
		for _, a := range parsed {
			annotations.Add(sigview.Annotation{
				Onset:       a.Onset.Seconds(),
				Duration:    a.Duration.Seconds(),
				Description: a.Text,
			})
		}
	}

	return m, annotations, nil
}

// ChannelType guesses the sensor class from the label prefix, falling back
// to the transducer description.
func ChannelType(sig Signal) sigview.ChannelType {
	for _, s := range []string{sig.Label, sig.TransducerType} {
		upper := strings.ToUpper(strings.TrimSpace(s))
		switch {
		case strings.HasPrefix(upper, "EEG"):
			return sigview.EEG
		case strings.HasPrefix(upper, "MEG"):
			return sigview.MEG
		case strings.HasPrefix(upper, "EOG"):
			return sigview.EOG
		case strings.HasPrefix(upper, "ECG"), strings.HasPrefix(upper, "EKG"):
			return sigview.ECG
		case strings.HasPrefix(upper, "EMG"):
			return sigview.EMG
		case strings.HasPrefix(upper, "STI"), strings.HasPrefix(upper, "TRIG"):
			return sigview.Stim
		}
	}
	return sigview.Misc
}

// uniqueName disambiguates repeated EDF labels, which the format allows.
func uniqueName(existing []string, label string) string {
	if label == "" {
		label = "signal"
	}
	name := label
	for n := 2; slices.Contains(existing, name); n++ {
		name = fmt.Sprintf("%s-%d", label, n)
	}
	return name
}

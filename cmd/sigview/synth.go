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
	"math"
	"math/rand/v2"
	"os"
	"time"

	"github.com/OpenPSG/sigview/edf"
)

const (
	synthPhysicalRange = 500.0 // uV
	spikeInterval      = 7     // seconds between spikes
	spindleInterval    = 10    // seconds between spindle annotations
)

type synthOptions struct {
	out      string
	channels int
	seconds  int
	sfreq    int
	seed     uint64
}

func runSynth(args []string, stderr io.Writer) error {
	fs := flag.NewFlagSet("synth", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", "synthetic.edf", "Output EDF+ file")
	channels := fs.Int("channels", 32, "Number of signals")
	seconds := fs.Int("seconds", 60, "Recording length in seconds")
	sfreq := fs.Int("sfreq", 250, "Samples per second")
	seed := fs.Uint64("seed", 1, "Noise seed")
	verbose := fs.Bool("v", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}

	logger := newLogger(stderr, *verbose)
	opts := synthOptions{out: *out, channels: *channels, seconds: *seconds, sfreq: *sfreq, seed: *seed}
	if err := synthesize(opts); err != nil {
		return err
	}

	logger.Info("wrote synthetic recording",
		"path", opts.out,
		"channels", opts.channels,
		"seconds", opts.seconds,
		"sfreq", opts.sfreq)
	return nil
}

// synthesize writes alpha-band sines with noise, periodic spikes and
// spindle annotations.
func synthesize(opts synthOptions) (err error) {
	if opts.channels <= 0 || opts.seconds <= 0 || opts.sfreq <= 0 {
		return errors.New("channels, seconds and sfreq must be positive")
	}

	f, err := os.Create(opts.out)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	signals := make([]edf.Signal, 0, opts.channels+1)
	for ch := range opts.channels {
		signals = append(signals, edf.Signal{
			Label:             synthLabel(ch),
			TransducerType:    "AgAgCl electrode",
			PhysicalDimension: "uV",
			PhysicalMin:       -synthPhysicalRange,
			PhysicalMax:       synthPhysicalRange,
			DigitalMin:        -32768,
			DigitalMax:        32767,
			SamplesPerRecord:  opts.sfreq,
		})
	}
	signals = append(signals, edf.Signal{
		Label:            edf.AnnotationsLabel,
		PhysicalMin:      -1,
		PhysicalMax:      1,
		DigitalMin:       -32768,
		DigitalMax:       32767,
		SamplesPerRecord: 30,
	})

	ew, err := edf.Create(f, edf.Header{
		Version:            edf.Version0,
		PatientID:          "X X X Synthetic",
		RecordingID:        "Startdate X X X sigview",
		StartTime:          time.Now(),
		Reserved:           edf.ReservedContinuous,
		DataRecordDuration: time.Second,
		Signals:            signals,
	})
	if err != nil {
		return err
	}

	for s := spindleInterval / 2; s < opts.seconds; s += spindleInterval {
		ew.Annotate(edf.Annotation{
			Onset:    time.Duration(s) * time.Second,
			Duration: 1500 * time.Millisecond,
			Text:     "spindle",
		})
	}

	rng := rand.New(rand.NewPCG(opts.seed, opts.seed^0x9e3779b97f4a7c15))
	record := make([][]float64, opts.channels)
	for ch := range record {
		record[ch] = make([]float64, opts.sfreq)
	}

	for r := range opts.seconds {
		for ch, samples := range record {
			freq := 8 + float64(ch%5)
			for i := range samples {
				ts := float64(r) + float64(i)/float64(opts.sfreq)
				v := 40*math.Sin(2*math.Pi*freq*ts) + 5*rng.NormFloat64()
				if r%spikeInterval == spikeInterval-1 && i == opts.sfreq/2 {
					v += 300
				}
				samples[i] = v
			}
		}
		if err := ew.WriteRecord(record); err != nil {
			return fmt.Errorf("error writing record %d: %w", r, err)
		}
	}

	return ew.Close()
}

func synthLabel(ch int) string {
	switch ch {
	case 0:
		return "EOG L"
	case 1:
		return "ECG"
	default:
		return fmt.Sprintf("EEG %03d", ch)
	}
}

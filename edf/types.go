// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Package edf reads and writes EDF/EDF+ recordings and loads them into a
// sigview.Matrix.
package edf

import (
	"strings"
	"time"
)

type Version string

const (
	// Version0 represents the version of the EDF/EDF+ standard.
	Version0 Version = "0"
)

const (
	// AnnotationsLabel is the label of the EDF+ annotation signal.
	AnnotationsLabel = "EDF Annotations"

	// ReservedContinuous marks an uninterrupted EDF+ recording.
	ReservedContinuous = "EDF+C"
	// ReservedDiscontinuous marks an EDF+ recording with gaps.
	ReservedDiscontinuous = "EDF+D"
)

// Header represents the EDF/EDF+ file header.
type Header struct {
	Version            Version       // Version of the EDF/EDF+ standard (usually "0")
	PatientID          string        // Identification of the patient
	RecordingID        string        // Identification of the recording session
	StartTime          time.Time     // Start date of the recording
	HeaderBytes        int           // Number of bytes in the header
	Reserved           string        // "EDF+C" or "EDF+D" for EDF+ files
	DataRecordDuration time.Duration // Duration of a single data record
	DataRecords        int           // Number of data records, -1 if unknown
	SignalCount        int           // Number of signals in each data record
	Signals            []Signal      // Details of each signal
}

// IsPlus reports whether the file declares itself EDF+.
func (h *Header) IsPlus() bool {
	return strings.HasPrefix(h.Reserved, "EDF+")
}

// Duration is the total recorded time.
func (h *Header) Duration() time.Duration {
	if h.DataRecords < 0 {
		return 0
	}
	return time.Duration(h.DataRecords) * h.DataRecordDuration
}

// RecordSize is the size in bytes of one data record.
func (h *Header) RecordSize() int {
	size := 0
	for _, sig := range h.Signals {
		size += sig.SamplesPerRecord * 2
	}
	return size
}

// Signal represents the characteristics of each signal in the EDF/EDF+ file.
type Signal struct {
	Label             string  // Label of the signal (e.g., EEG Fpz-Cz)
	TransducerType    string  // Type of transducer used
	PhysicalDimension string  // Physical dimension (e.g., uV, mV)
	PhysicalMin       float64 // Minimum physical value
	PhysicalMax       float64 // Maximum physical value
	DigitalMin        int     // Minimum digital value
	DigitalMax        int     // Maximum digital value
	Prefiltering      string  // Pre-filtering information
	SamplesPerRecord  int     // Number of samples in each data record for this signal
	Reserved          string  // Reserved for future use
}

// IsAnnotations reports whether the signal carries EDF+ TALs rather than samples.
func (s Signal) IsAnnotations() bool {
	return s.Label == AnnotationsLabel
}

// SampleRate is the number of samples per second for a given record duration.
func (s Signal) SampleRate(recordDuration time.Duration) float64 {
	if recordDuration <= 0 {
		return 0
	}
	return float64(s.SamplesPerRecord) / recordDuration.Seconds()
}

// Annotation is a single EDF+ annotation.
type Annotation struct {
	Onset    time.Duration // Offset from the start of the recording
	Duration time.Duration // Zero when the TAL has no duration
	Text     string
}

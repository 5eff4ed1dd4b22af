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
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

var ErrSignalIndex = errors.New("signal index out of range")

var ErrInvalidHeader = errors.New("invalid header")

// signalField describes one column of the per-signal header block.
type signalField struct {
	name  string
	width int
	get   func(sig Signal) string
	set   func(sig *Signal, value string) error
}

func textField(dst func(*Signal) *string) func(*Signal, string) error {
	return func(s *Signal, v string) error {
		*dst(s) = v
		return nil
	}
}

func floatField(dst func(*Signal) *float64) func(*Signal, string) error {
	return func(s *Signal, v string) (err error) {
		*dst(s), err = strconv.ParseFloat(v, 64)
		return err
	}
}

func intField(dst func(*Signal) *int) func(*Signal, string) error {
	return func(s *Signal, v string) (err error) {
		*dst(s), err = strconv.Atoi(v)
		return err
	}
}

// signalFields lists the per-signal header columns in file order.
var signalFields = []signalField{
	{"label", 16, func(s Signal) string { return s.Label }, textField(func(s *Signal) *string { return &s.Label })},
	{"transducer type", 80, func(s Signal) string { return s.TransducerType }, textField(func(s *Signal) *string { return &s.TransducerType })},
	{"physical dimension", 8, func(s Signal) string { return s.PhysicalDimension }, textField(func(s *Signal) *string { return &s.PhysicalDimension })},
	{"physical minimum", 8, func(s Signal) string { return formatNumber(s.PhysicalMin, 8) }, floatField(func(s *Signal) *float64 { return &s.PhysicalMin })},
	{"physical maximum", 8, func(s Signal) string { return formatNumber(s.PhysicalMax, 8) }, floatField(func(s *Signal) *float64 { return &s.PhysicalMax })},
	{"digital minimum", 8, func(s Signal) string { return strconv.Itoa(s.DigitalMin) }, intField(func(s *Signal) *int { return &s.DigitalMin })},
	{"digital maximum", 8, func(s Signal) string { return strconv.Itoa(s.DigitalMax) }, intField(func(s *Signal) *int { return &s.DigitalMax })},
	{"prefiltering", 80, func(s Signal) string { return s.Prefiltering }, textField(func(s *Signal) *string { return &s.Prefiltering })},
	{"samples per record", 8, func(s Signal) string { return strconv.Itoa(s.SamplesPerRecord) }, intField(func(s *Signal) *int { return &s.SamplesPerRecord })},
	{"reserved", 32, func(s Signal) string { return s.Reserved }, textField(func(s *Signal) *string { return &s.Reserved })},
}

// Reader reads EDF/EDF+ files.
type Reader struct {
	r   io.ReadSeeker
	hdr *Header
}

// Open opens an EDF/EDF+ file for reading.
func Open(r io.ReadSeeker) (*Reader, error) {
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("error seeking to header: %w", err)
	}
	reader := bufio.NewReader(r)

	b := make([]byte, 256)
	if _, err := io.ReadFull(reader, b); err != nil {
		return nil, fmt.Errorf("error reading header: %w", err)
	}
	field := func(from, to int) string {
		return strings.TrimSpace(string(b[from:to]))
	}

	hdr := &Header{
		Version:     Version(field(0, 8)),
		PatientID:   field(8, 88),
		RecordingID: field(88, 168),
		Reserved:    field(192, 236),
	}

	startTime, err := parseStartTime(field(168, 176), field(176, 184))
	if err != nil {
		return nil, err
	}
	hdr.StartTime = startTime

	if hdr.HeaderBytes, err = strconv.Atoi(field(184, 192)); err != nil {
		return nil, fmt.Errorf("error parsing header bytes: %w", err)
	}
	if hdr.DataRecords, err = strconv.Atoi(field(236, 244)); err != nil {
		return nil, fmt.Errorf("error parsing number of data records: %w", err)
	}
	recordSeconds, err := strconv.ParseFloat(field(244, 252), 64)
	if err != nil {
		return nil, fmt.Errorf("error parsing data record duration: %w", err)
	}
	hdr.DataRecordDuration = time.Duration(recordSeconds * float64(time.Second))
	if hdr.SignalCount, err = strconv.Atoi(field(252, 256)); err != nil {
		return nil, fmt.Errorf("error parsing signal count: %w", err)
	}
	if hdr.SignalCount < 0 {
		return nil, fmt.Errorf("invalid signal count %d", hdr.SignalCount)
	}

	// The signal header block is column-major: every label, then every
	// transducer type, and so on.
	block := make([]byte, 256*hdr.SignalCount)
	if _, err := io.ReadFull(reader, block); err != nil {
		return nil, fmt.Errorf("error reading signal headers: %w", err)
	}

	hdr.Signals = make([]Signal, hdr.SignalCount)
	offset := 0
	for _, f := range signalFields {
		for i := range hdr.Signals {
			if err := f.set(&hdr.Signals[i], strings.TrimSpace(string(block[offset:offset+f.width]))); err != nil {
				return nil, fmt.Errorf("signal %d: error parsing %s: %w: %w", i, f.name, ErrInvalidHeader, err)
			}
			offset += f.width
		}
	}
	for i, sig := range hdr.Signals {
		if err := sig.validate(); err != nil {
			return nil, fmt.Errorf("signal %d (%q): %w", i, sig.Label, err)
		}
	}

	return &Reader{
		r:   r,
		hdr: hdr,
	}, nil
}

// Header returns the parsed file header.
func (er *Reader) Header() *Header {
	return er.hdr
}

func parseStartTime(dateStr, timeStr string) (time.Time, error) {
	startDate, err := time.Parse("02.01.06", dateStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing start date: %w", err)
	}
	startTime, err := time.Parse("15.04.05", timeStr)
	if err != nil {
		return time.Time{}, fmt.Errorf("error parsing start time: %w", err)
	}
	return time.Date(startDate.Year(), startDate.Month(), startDate.Day(),
		startTime.Hour(), startTime.Minute(), startTime.Second(), 0, time.UTC), nil
}

// SignalReader reads continuous signal data from an EDF/EDF+ file.
type SignalReader struct {
	r             io.ReadSeeker
	hdr           *Header
	signal        Signal
	signalOffset  int    // Byte offset of the signal in a record
	recordSize    int    // Total size of one data record
	currentRecord int    // Record held in buf
	currentSample int    // Next sample in buf
	buf           []byte // Raw samples of the current record for this signal
	loaded        bool
}

// Signal creates a new SignalReader for a specified signal index.
func (er *Reader) Signal(signalIndex int) (*SignalReader, error) {
	if signalIndex < 0 || signalIndex >= len(er.hdr.Signals) {
		return nil, fmt.Errorf("signal %d: %w", signalIndex, ErrSignalIndex)
	}

	signalOffset := 0
	for _, sig := range er.hdr.Signals[:signalIndex] {
		signalOffset += sig.SamplesPerRecord * 2
	}

	signal := er.hdr.Signals[signalIndex]
	return &SignalReader{
		r:            er.r,
		hdr:          er.hdr,
		signal:       signal,
		signalOffset: signalOffset,
		recordSize:   er.hdr.RecordSize(),
		buf:          make([]byte, signal.SamplesPerRecord*2),
	}, nil
}

// loadRecord reads this signal's slice of the current data record.
func (sr *SignalReader) loadRecord() error {
	pos := int64(sr.hdr.HeaderBytes) + int64(sr.currentRecord)*int64(sr.recordSize) + int64(sr.signalOffset)
	if _, err := sr.r.Seek(pos, io.SeekStart); err != nil {
		return fmt.Errorf("error seeking to position: %w", err)
	}
	if _, err := io.ReadFull(sr.r, sr.buf); err != nil {
		return fmt.Errorf("error reading sample data: %w", err)
	}
	sr.loaded = true
	return nil
}

// Read fills the provided float64 slice with the physical values from the signal.
func (sr *SignalReader) Read(data []float64) (int, error) {
	if sr.signal.SamplesPerRecord <= 0 {
		return 0, io.EOF
	}

	n := 0
	for n < len(data) {
		if sr.currentRecord >= sr.hdr.DataRecords {
			return n, io.EOF // End of data records
		}
		if !sr.loaded {
			if err := sr.loadRecord(); err != nil {
				return n, err
			}
		}

		for sr.currentSample < sr.signal.SamplesPerRecord && n < len(data) {
			digitalValue := int16(binary.LittleEndian.Uint16(sr.buf[sr.currentSample*2:]))
			data[n] = digitalToPhysical(digitalValue, sr.signal)
			sr.currentSample++
			n++
		}

		if sr.currentSample >= sr.signal.SamplesPerRecord {
			sr.currentSample = 0
			sr.currentRecord++
			sr.loaded = false
		}
	}

	return n, nil
}

// ReadAll reads every remaining sample of the signal.
func (sr *SignalReader) ReadAll() ([]float64, error) {
	remaining := (sr.hdr.DataRecords-sr.currentRecord)*sr.signal.SamplesPerRecord - sr.currentSample
	if remaining <= 0 {
		return []float64{}, nil
	}

	data := make([]float64, remaining)
	n, err := sr.Read(data)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	return data[:n], nil
}

// Annotations parses the TALs of every EDF+ annotation signal. Time-keeping
// TALs (those with no text) are skipped.
func (er *Reader) Annotations() ([]Annotation, error) {
	var annotations []Annotation
	for i, sig := range er.hdr.Signals {
		if !sig.IsAnnotations() {
			continue
		}
		sr, err := er.Signal(i)
		if err != nil {
			return nil, err
		}
		for sr.currentRecord = 0; sr.currentRecord < er.hdr.DataRecords; sr.currentRecord++ {
			if err := sr.loadRecord(); err != nil {
				return nil, err
			}
			parsed, err := parseTALs(sr.buf)
			if err != nil {
				return nil, fmt.Errorf("record %d: %w", sr.currentRecord, err)
			}
			annotations = append(annotations, parsed...)
		}
	}
	return annotations, nil
}

// parseTALs decodes "+onset[\x15duration]\x14text\x14...\x00" lists.
func parseTALs(b []byte) ([]Annotation, error) {
	var annotations []Annotation
	for _, tal := range bytes.Split(b, []byte{0}) {
		if len(tal) == 0 {
			continue
		}
		parts := bytes.Split(tal, []byte{0x14})
		if len(parts) < 2 {
			return nil, fmt.Errorf("malformed TAL %q", tal)
		}

		stamp := string(parts[0])
		var durStr string
		if i := strings.IndexByte(stamp, 0x15); i >= 0 {
			stamp, durStr = stamp[:i], stamp[i+1:]
		}
		onset, err := strconv.ParseFloat(stamp, 64)
		if err != nil {
			return nil, fmt.Errorf("error parsing TAL onset %q: %w", stamp, err)
		}
		var duration float64
		if durStr != "" {
			if duration, err = strconv.ParseFloat(durStr, 64); err != nil {
				return nil, fmt.Errorf("error parsing TAL duration %q: %w", durStr, err)
			}
		}

		for _, text := range parts[1:] {
			if len(text) == 0 {
				continue
			}
			annotations = append(annotations, Annotation{
				Onset:    seconds(onset),
				Duration: seconds(duration),
				Text:     string(text),
			})
		}
	}
	return annotations, nil
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// digitalToPhysical converts a digital value from the data record to a physical value using the calibration factors.
func digitalToPhysical(digital int16, sig Signal) float64 {
	if sig.DigitalMax == sig.DigitalMin {
		return 0 // Avoid division by zero
	}
	return sig.PhysicalMin + (float64(digital)-float64(sig.DigitalMin))*(sig.PhysicalMax-sig.PhysicalMin)/float64(sig.DigitalMax-sig.DigitalMin)
}

// validate rejects calibration and layout values no record can be decoded with.
func (s Signal) validate() error {
	switch {
	case s.SamplesPerRecord < 0:
		return fmt.Errorf("%w: negative samples per record %d", ErrInvalidHeader, s.SamplesPerRecord)
	case s.DigitalMax == s.DigitalMin:
		return fmt.Errorf("%w: digital range is empty (%d)", ErrInvalidHeader, s.DigitalMin)
	case s.DigitalMin < math.MinInt16 || s.DigitalMax > math.MaxInt16:
		return fmt.Errorf("%w: digital range [%d, %d] exceeds 16 bits", ErrInvalidHeader, s.DigitalMin, s.DigitalMax)
	}
	return nil
}

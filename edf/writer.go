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
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// maxRecordBytes is the data record size recommended by the EDF standard.
const maxRecordBytes = 61440

// Writer writes EDF/EDF+ files.
type Writer struct {
	w           io.WriteSeeker
	hdr         *Header
	dataRecords int          // Number of data records written so far.
	pending     []Annotation // Annotations not yet placed in a record.
}

// Create creates a new EDF writer that writes to the given writer. Signals
// labelled AnnotationsLabel are filled by the writer from Annotate calls.
func Create(w io.WriteSeeker, hdr Header) (*Writer, error) {
	hdr.DataRecords = -1 // Unknown number of data records (at this time).
	hdr.SignalCount = len(hdr.Signals)

	ew := &Writer{w: w, hdr: &hdr}

	// Write the initial header
	if err := ew.writeHeader(); err != nil {
		return nil, fmt.Errorf("error writing header: %w", err)
	}

	return ew, nil
}

// Annotate queues an annotation for the next data records with room for it.
func (ew *Writer) Annotate(a Annotation) {
	ew.pending = append(ew.pending, a)
}

// Close finalizes the EDF file by updating the header with the total number of data records.
func (ew *Writer) Close() error {
	if len(ew.pending) > 0 {
		return fmt.Errorf("%d annotations did not fit in the written records", len(ew.pending))
	}

	// Finalize the header with the actual number of data records
	ew.hdr.DataRecords = ew.dataRecords
	if err := ew.writeHeader(); err != nil {
		return fmt.Errorf("error writing header: %w", err)
	}

	return nil
}

// WriteRecord writes a single data record. signals holds one slice per
// ordinary (non-annotation) signal, in header order.
func (ew *Writer) WriteRecord(signals [][]float64) error {
	ordinary := 0
	totalSamples := 0
	for _, sig := range ew.hdr.Signals {
		if !sig.IsAnnotations() {
			ordinary++
		}
		totalSamples += sig.SamplesPerRecord
	}
	if len(signals) != ordinary {
		return fmt.Errorf("expected %d signals, got %d", ordinary, len(signals))
	}

	// As recommended by the EDF standard.
	if totalSamples*2 > maxRecordBytes {
		return fmt.Errorf("data record too large: %d bytes, max is %d bytes", totalSamples*2, maxRecordBytes)
	}

	if _, err := ew.w.Seek(int64(ew.hdr.HeaderBytes)+int64(ew.dataRecords)*int64(ew.hdr.RecordSize()), io.SeekStart); err != nil {
		return fmt.Errorf("error seeking to record: %w", err)
	}
	writer := bufio.NewWriter(ew.w)

	next := 0
	for _, sig := range ew.hdr.Signals {
		if sig.IsAnnotations() {
			if _, err := writer.Write(ew.annotationBlock(sig.SamplesPerRecord * 2)); err != nil {
				return err
			}
			continue
		}

		samples := signals[next]
		next++
		if len(samples) != sig.SamplesPerRecord {
			return fmt.Errorf("signal %q: expected %d samples, got %d", sig.Label, sig.SamplesPerRecord, len(samples))
		}
		for _, sample := range samples {
			if err := binary.Write(writer, binary.LittleEndian, physicalToDigital(sample, sig)); err != nil {
				return err
			}
		}
	}

	// Ensure all data is flushed to the underlying writer
	if err := writer.Flush(); err != nil {
		return err
	}

	ew.dataRecords++
	return nil
}

// annotationBlock builds one record's annotation signal: the time-keeping
// TAL followed by as many pending annotations as fit, NUL padded.
func (ew *Writer) annotationBlock(size int) []byte {
	onset := ew.hdr.DataRecordDuration.Seconds() * float64(ew.dataRecords)
	block := make([]byte, 0, size)
	block = append(block, "+"+strconv.FormatFloat(onset, 'f', -1, 64)+"\x14\x14\x00"...)

	for len(ew.pending) > 0 {
		tal := formatTAL(ew.pending[0])
		if len(block)+len(tal) > size {
			break
		}
		block = append(block, tal...)
		ew.pending = ew.pending[1:]
	}

	return append(block, make([]byte, size-len(block))...)
}

func formatTAL(a Annotation) string {
	var sb strings.Builder
	onset := a.Onset.Seconds()
	if onset >= 0 {
		sb.WriteByte('+')
	}
	sb.WriteString(strconv.FormatFloat(onset, 'f', -1, 64))
	if a.Duration > 0 {
		sb.WriteByte(0x15)
		sb.WriteString(strconv.FormatFloat(a.Duration.Seconds(), 'f', -1, 64))
	}
	sb.WriteByte(0x14)
	sb.WriteString(a.Text)
	sb.WriteString("\x14\x00")
	return sb.String()
}

// headerWriter writes fixed-width, space padded ASCII fields and keeps the
// first error.
type headerWriter struct {
	w   *bufio.Writer
	err error
}

func (hw *headerWriter) field(width int, value string) {
	if hw.err != nil {
		return
	}
	if len(value) > width {
		value = value[:width]
	}
	_, hw.err = fmt.Fprintf(hw.w, "%-*s", width, value)
}

// writeHeader (re)writes the header at the start of the file.
func (ew *Writer) writeHeader() error {
	// Rewind to the beginning of the file.
	if _, err := ew.w.Seek(0, io.SeekStart); err != nil {
		return err
	}

	ew.hdr.HeaderBytes = 256 + (ew.hdr.SignalCount * 256)

	hw := &headerWriter{w: bufio.NewWriter(ew.w)}
	hw.field(8, string(ew.hdr.Version))
	hw.field(80, ew.hdr.PatientID)
	hw.field(80, ew.hdr.RecordingID)
	hw.field(8, ew.hdr.StartTime.Format("02.01.06"))
	hw.field(8, ew.hdr.StartTime.Format("15.04.05"))
	hw.field(8, strconv.Itoa(ew.hdr.HeaderBytes))
	hw.field(44, ew.hdr.Reserved)
	hw.field(8, strconv.Itoa(ew.hdr.DataRecords))
	hw.field(8, formatNumber(ew.hdr.DataRecordDuration.Seconds(), 8))
	hw.field(4, strconv.Itoa(ew.hdr.SignalCount))

	for _, f := range signalFields {
		for _, sig := range ew.hdr.Signals {
			hw.field(f.width, f.get(sig))
		}
	}
	if hw.err != nil {
		return hw.err
	}

	// Ensure all data is flushed to the underlying writer
	return hw.w.Flush()
}

// physicalToDigital converts a physical value to a digital value using the
// calibration factors, saturating at the digital range.
func physicalToDigital(physical float64, sig Signal) int16 {
	if sig.PhysicalMax == sig.PhysicalMin {
		return 0 // Avoid division by zero
	}
	digital := (physical-sig.PhysicalMin)*float64(sig.DigitalMax-sig.DigitalMin)/(sig.PhysicalMax-sig.PhysicalMin) + float64(sig.DigitalMin)
	digital = math.Round(digital)
	digital = math.Max(float64(sig.DigitalMin), math.Min(float64(sig.DigitalMax), digital))
	return int16(digital)
}

// formatNumber renders val in at most width characters, dropping decimals
// as needed.
func formatNumber(val float64, width int) string {
	for prec := 3; prec >= 0; prec-- {
		s := strconv.FormatFloat(val, 'f', prec, 64)
		if strings.Contains(s, ".") {
			s = strings.TrimRight(strings.TrimRight(s, "0"), ".")
		}
		if len(s) <= width {
			return s
		}
	}
	return strconv.FormatFloat(val, 'g', width-5, 64)
}

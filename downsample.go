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
	"math"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gopkg.in/yaml.v3"
)

var ErrLengthMismatch = errors.New("x and y have different lengths")

// Method is a downsampling reduction policy.
type Method int

const (
	// Subsample keeps every factor-th sample.
	Subsample Method = iota
	// Mean averages each block of factor samples.
	Mean
	// Peak emits the maximum and minimum of each block, preserving the envelope.
	Peak
)

func (m Method) String() string {
	switch m {
	case Subsample:
		return "subsample"
	case Mean:
		return "mean"
	case Peak:
		return "peak"
	default:
		return fmt.Sprintf("Method(%d)", int(m))
	}
}

// ParseMethod parses a method name as used in configuration files.
func ParseMethod(s string) (Method, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "subsample":
		return Subsample, nil
	case "mean":
		return Mean, nil
	case "peak":
		return Peak, nil
	default:
		return 0, fmt.Errorf("unknown downsampling method %q", s)
	}
}

func (m *Method) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := ParseMethod(value.Value)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

func (m Method) MarshalYAML() (interface{}, error) {
	return m.String(), nil
}

// DownsampleSpec selects how a visible slice is reduced.
type DownsampleSpec struct {
	Factor    int    // samples collapsed per output block; <= 1 disables reduction
	Method    Method // reduction policy
	ChunkSize int    // process at most this many input samples at a time; 0 disables chunking
}

// chunk returns the effective chunk length, a positive multiple of factor.
func (s DownsampleSpec) chunk(n int) int {
	if s.ChunkSize <= 0 {
		return n
	}
	c := s.ChunkSize - s.ChunkSize%s.Factor
	if c < s.Factor {
		c = s.Factor
	}
	return c
}

// OutputLen is the number of points Reduce produces for n input samples.
func (s DownsampleSpec) OutputLen(n int) int {
	if s.Factor <= 1 {
		return n
	}
	switch s.Method {
	case Mean:
		return n / s.Factor
	case Peak:
		return 2 * (n / s.Factor)
	default:
		return (n + s.Factor - 1) / s.Factor
	}
}

// Reduce downsamples the parallel sequences x and y. With a factor of one or
// less the inputs are returned unchanged.
func Reduce(x, y []float64, spec DownsampleSpec) ([]float64, []float64, error) {
	if len(x) != len(y) {
		return nil, nil, fmt.Errorf("len(x)=%d len(y)=%d: %w", len(x), len(y), ErrLengthMismatch)
	}
	if spec.Factor <= 1 {
		return x, y, nil
	}
	if len(x) == 0 {
		return []float64{}, []float64{}, nil
	}

	size := spec.OutputLen(len(x))
	xs := make([]float64, 0, size)
	ys := make([]float64, 0, size)

	chunk := spec.chunk(len(x))
	for start := 0; start < len(x); start += chunk {
		stop := min(start+chunk, len(x))
		xs, ys = reduceChunk(xs, ys, x[start:stop], y[start:stop], spec)
	}

	return xs, ys, nil
}

// reduceChunk appends the reduction of one chunk. Chunks other than the last
// are multiples of the factor, so block boundaries match the unchunked layout.
func reduceChunk(xs, ys, x, y []float64, spec DownsampleSpec) ([]float64, []float64) {
	f := spec.Factor

	switch spec.Method {
	case Mean:
		centre := f / 2
		for b := 0; b+f <= len(y); b += f {
			xs = append(xs, x[b+centre])
			ys = append(ys, floats.Sum(y[b:b+f])/float64(f))
		}
	case Peak:
		centre := f / 2
		for b := 0; b+f <= len(y); b += f {
			block := y[b : b+f]
			xc := x[b+centre]
			xs = append(xs, xc, xc)
			ys = append(ys, floats.Max(block), floats.Min(block))
		}
	default:
		for i := 0; i < len(x); i += f {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}

	return xs, ys
}

// AutoFactor picks a factor so the visible span is drawn at roughly density
// samples per pixel. dx is the sample spacing. Degenerate inputs yield 1.
func AutoFactor(span, dx float64, pixelWidth int, density float64) int {
	if pixelWidth <= 0 || !(span > 0) || !(dx > 0) || !(density > 0) {
		return 1
	}
	if math.IsInf(span, 0) || math.IsInf(dx, 0) || math.IsInf(density, 0) {
		return 1
	}

	samples := span / dx
	f := math.Floor(samples / (float64(pixelWidth) * density))
	if f < 1 || math.IsNaN(f) {
		return 1
	}
	if f > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(f)
}

// LimitFactor is the smallest factor keeping a slice of samples at or below
// limit output blocks.
func LimitFactor(samples, limit int) int {
	if limit <= 0 || samples <= 0 {
		return 1
	}
	return (samples-1)/limit + 1
}

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
	"math"
	"sort"
)

type reduced struct {
	x, y []float64
}

// reduceCache holds full-row reductions of one channel keyed by factor.
// Entries are only valid for the matrix revision they were built from.
type reduceCache struct {
	method   Method
	revision uint64
	entries  map[int]reduced
}

func newReduceCache() *reduceCache {
	return &reduceCache{entries: make(map[int]reduced)}
}

// window returns the cached reduction of the full row restricted to [t0, t1].
func (c *reduceCache) window(m *Matrix, ch int, t0, t1 float64, spec DownsampleSpec) ([]float64, []float64, error) {
	if c.revision != m.Revision() || c.method != spec.Method {
		c.reset()
		c.revision = m.Revision()
		c.method = spec.Method
	}

	r, ok := c.entries[spec.Factor]
	if !ok {
		x, y, err := Reduce(m.Times(), m.Row(ch), spec)
		if err != nil {
			return nil, nil, err
		}
		r = reduced{x: x, y: y}
		c.entries[spec.Factor] = r
	}
	if len(r.x) == 0 {
		return r.x, r.y, nil
	}

	start := nearestIndex(r.x, t0, false)
	stop := nearestIndex(r.x, t1, true) + 1
	if start >= stop {
		return r.x[:0], r.y[:0], nil
	}
	return r.x[start:stop], r.y[start:stop], nil
}

func (c *reduceCache) reset() {
	clear(c.entries)
}

func (c *reduceCache) len() int { return len(c.entries) }

// nearestIndex returns argmin |xs[i] - v| over a non-decreasing xs. Among
// equal x values (peak pairs) it picks the first when last is false and the
// final one otherwise, so a [first, last] window never splits a pair.
func nearestIndex(xs []float64, v float64, last bool) int {
	i := sort.SearchFloat64s(xs, v)
	if i >= len(xs) {
		i = len(xs) - 1
	} else if i > 0 && math.Abs(xs[i-1]-v) <= math.Abs(xs[i]-v) {
		i--
	}

	target := xs[i]
	if last {
		for i+1 < len(xs) && xs[i+1] == target {
			i++
		}
	} else {
		for i > 0 && xs[i-1] == target {
			i--
		}
	}
	return i
}

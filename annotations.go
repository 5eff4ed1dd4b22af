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

// Annotation is an interval marker over the time axis.
type Annotation struct {
	Onset       float64 // seconds from the first sample
	Duration    float64 // seconds, zero for instantaneous events
	Description string
	Color       string
}

func (a Annotation) End() float64 { return a.Onset + a.Duration }

// Intersects reports whether the annotation overlaps [t0, t1).
func (a Annotation) Intersects(t0, t1 float64) bool {
	return a.End() >= t0 && a.Onset < t1
}

// AnnotationIndex answers which annotations overlap a time window.
type AnnotationIndex interface {
	RegionsIntersecting(t0, t1 float64) []Annotation
}

// MemoryAnnotations is an in-memory AnnotationIndex ordered by onset.
type MemoryAnnotations struct {
	items  []Annotation
	maxDur float64
}

func NewMemoryAnnotations(items ...Annotation) *MemoryAnnotations {
	a := &MemoryAnnotations{}
	for _, item := range items {
		a.Add(item)
	}
	return a
}

// Add inserts an annotation keeping onset order.
func (a *MemoryAnnotations) Add(item Annotation) {
	i := sort.Search(len(a.items), func(i int) bool { return a.items[i].Onset > item.Onset })
	a.items = append(a.items, Annotation{})
	copy(a.items[i+1:], a.items[i:])
	a.items[i] = item
	a.maxDur = max(a.maxDur, item.Duration)
}

func (a *MemoryAnnotations) Len() int { return len(a.items) }

// All returns every annotation in onset order.
func (a *MemoryAnnotations) All() []Annotation {
	return append([]Annotation(nil), a.items...)
}

// RegionsIntersecting returns the annotations with onset+duration >= t0 and
// onset < t1, in onset order.
func (a *MemoryAnnotations) RegionsIntersecting(t0, t1 float64) []Annotation {
	// Nothing starting before t0-maxDur can reach t0. The slack covers
	// rounding in t0-maxDur versus onset+duration.
	bound := t0 - a.maxDur
	bound -= 1e-9 * max(1, math.Abs(t0), a.maxDur)
	lo := sort.Search(len(a.items), func(i int) bool { return a.items[i].Onset >= bound })
	hi := sort.Search(len(a.items), func(i int) bool { return a.items[i].Onset >= t1 })

	var out []Annotation
	for _, item := range a.items[lo:max(lo, hi)] {
		if item.Intersects(t0, t1) {
			out = append(out, item)
		}
	}
	return out
}

// DiffAnnotations reports which annotations appear in next but not prev and
// which disappear.
func DiffAnnotations(prev, next []Annotation) (added, removed []Annotation) {
	seen := make(map[Annotation]int, len(prev))
	for _, a := range prev {
		seen[a]++
	}
	for _, a := range next {
		if seen[a] > 0 {
			seen[a]--
			continue
		}
		added = append(added, a)
	}

	still := make(map[Annotation]int, len(next))
	for _, a := range next {
		still[a]++
	}
	for _, a := range prev {
		if still[a] > 0 {
			still[a]--
			continue
		}
		removed = append(removed, a)
	}
	return added, removed
}

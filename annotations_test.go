// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

package sigview_test

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/OpenPSG/sigview"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func descriptions(as []sigview.Annotation) []string {
	var out []string
	for _, a := range as {
		out = append(out, a.Description)
	}
	return out
}

func TestRegionsIntersecting(t *testing.T) {
	idx := sigview.NewMemoryAnnotations(
		sigview.Annotation{Onset: 20, Duration: 1, Description: "c"},
		sigview.Annotation{Onset: 0, Duration: 1, Description: "a"},
		sigview.Annotation{Onset: 5, Description: "b"},
		sigview.Annotation{Onset: 2, Duration: 10, Description: "long"},
	)
	assert.Equal(t, 4, idx.Len())
	assert.Equal(t, []string{"a", "long", "b", "c"}, descriptions(idx.All()))

	assert.Equal(t, []string{"long", "b"}, descriptions(idx.RegionsIntersecting(4, 6)))
	assert.Equal(t, []string{"a"}, descriptions(idx.RegionsIntersecting(1, 2)), "end is inclusive, start exclusive")
	assert.Equal(t, []string{"long", "c"}, descriptions(idx.RegionsIntersecting(12, 21)))
	assert.Empty(t, idx.RegionsIntersecting(30, 40))
}

func TestRegionsIntersectingEndOnWindowStart(t *testing.T) {
	a := sigview.Annotation{Onset: 0.1, Duration: 0.2, Description: "edge"}
	idx := sigview.NewMemoryAnnotations(a)

	require.True(t, a.Intersects(a.End(), a.End()+1))
	assert.Equal(t, []string{"edge"}, descriptions(idx.RegionsIntersecting(a.End(), a.End()+1)))

	for _, onset := range []float64{0.7, 3.3, 1234.567, 1e6 + 0.1} {
		for _, duration := range []float64{0.1, 0.2, 0.3, 2.7} {
			b := sigview.Annotation{Onset: onset, Duration: duration}
			got := sigview.NewMemoryAnnotations(b).RegionsIntersecting(b.End(), b.End()+1)
			assert.Len(t, got, 1, "onset=%g duration=%g", onset, duration)
		}
	}
}

func TestRegionsIntersectingMatchesScan(t *testing.T) {
	rng := rand.New(rand.NewPCG(13, 17))

	var all []sigview.Annotation
	idx := sigview.NewMemoryAnnotations()
	for i := range 300 {
		a := sigview.Annotation{
			Onset:       rng.Float64() * 1000,
			Duration:    rng.ExpFloat64() * 5,
			Description: fmt.Sprintf("a%d", i),
		}
		all = append(all, a)
		idx.Add(a)
	}

	byName := cmpopts.SortSlices(func(a, b sigview.Annotation) bool { return a.Description < b.Description })
	for range 200 {
		t0 := rng.Float64()*1100 - 50
		t1 := t0 + rng.Float64()*60

		var want []sigview.Annotation
		for _, a := range all {
			if a.Onset+a.Duration >= t0 && a.Onset < t1 {
				want = append(want, a)
			}
		}

		got := idx.RegionsIntersecting(t0, t1)
		if diff := cmp.Diff(want, got, byName, cmpopts.EquateEmpty()); diff != "" {
			t.Fatalf("window [%g, %g) mismatch (-want +got):\n%s", t0, t1, diff)
		}
	}
}

func TestDiffAnnotations(t *testing.T) {
	a := sigview.Annotation{Onset: 1, Description: "a"}
	b := sigview.Annotation{Onset: 2, Description: "b"}
	c := sigview.Annotation{Onset: 3, Description: "c"}

	added, removed := sigview.DiffAnnotations([]sigview.Annotation{a, b}, []sigview.Annotation{b, c})
	assert.Equal(t, []sigview.Annotation{c}, added)
	assert.Equal(t, []sigview.Annotation{a}, removed)

	added, removed = sigview.DiffAnnotations([]sigview.Annotation{a, b}, []sigview.Annotation{a, b})
	assert.Empty(t, added)
	assert.Empty(t, removed)

	// Identical annotations are counted, not collapsed.
	added, removed = sigview.DiffAnnotations([]sigview.Annotation{a}, []sigview.Annotation{a, a})
	assert.Equal(t, []sigview.Annotation{a}, added)
	assert.Empty(t, removed)
}

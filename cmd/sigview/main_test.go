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
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/OpenPSG/sigview"
	"github.com/OpenPSG/sigview/edf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func synthFixture(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "rec.edf")
	var stderr bytes.Buffer
	require.NoError(t, runSynth([]string{"-out", path, "-channels", "6", "-seconds", "30", "-sfreq", "100"}, &stderr))
	assert.Contains(t, stderr.String(), "wrote synthetic recording")
	return path
}

func TestSynthLoads(t *testing.T) {
	path := synthFixture(t)

	f, err := os.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, f.Close())
	})

	m, annotations, err := edf.Load(f)
	require.NoError(t, err)
	assert.Equal(t, 6, m.NumChannels())
	assert.Equal(t, 3000, m.NumSamples())
	assert.Equal(t, sigview.EOG, m.Type(0))
	assert.Equal(t, sigview.ECG, m.Type(1))
	assert.Equal(t, sigview.EEG, m.Type(2))
	assert.Equal(t, 3, annotations.Len())
}

func TestSynthRejectsBadOptions(t *testing.T) {
	err := synthesize(synthOptions{out: filepath.Join(t.TempDir(), "x.edf"), channels: 0, seconds: 1, sfreq: 1})
	assert.Error(t, err)
}

func TestRender(t *testing.T) {
	path := synthFixture(t)
	dir := t.TempDir()

	config := filepath.Join(dir, "sigview.yaml")
	require.NoError(t, os.WriteFile(config, []byte("duration: 5\nlanes: 4\n"), 0o644))

	for _, name := range []string{"view.png", "view.html"} {
		out := filepath.Join(dir, name)
		var stderr bytes.Buffer
		require.NoError(t, runRender([]string{"-in", path, "-config", config, "-t0", "3", "-lane", "1", "-bads", "ECG", "-out", out}, &stderr))

		info, err := os.Stat(out)
		require.NoError(t, err)
		assert.NotZero(t, info.Size())
		assert.Contains(t, stderr.String(), "time=\"(3, 8)\"")
		assert.Contains(t, stderr.String(), "lanes=\"(1, 6)\"")
	}

	var stderr bytes.Buffer
	assert.Error(t, runRender([]string{"-in", path, "-out", filepath.Join(dir, "view.gif")}, &stderr))
	assert.Error(t, runRender([]string{"-out", filepath.Join(dir, "view.png")}, &stderr))
	assert.Error(t, runRender([]string{"-in", path, "-bads", "nope", "-out", filepath.Join(dir, "view.png")}, &stderr))
}

func TestSweep(t *testing.T) {
	path := synthFixture(t)

	var stderr bytes.Buffer
	require.NoError(t, runSweep([]string{"-in", path, "-ticks", "50", "-axis", "both"}, &stderr))
	assert.Contains(t, stderr.String(), "sweep finished")
	assert.Contains(t, stderr.String(), "ticks=50")

	assert.Error(t, runSweep([]string{"-in", path, "-axis", "diagonal"}, &stderr))
}

func TestSweepStats(t *testing.T) {
	s := sweepStats{}
	assert.Zero(t, s.rate())
	assert.Zero(t, s.meanPoints())

	s = sweepStats{ticks: 4, points: 100}
	assert.Equal(t, 25.0, s.meanPoints())
}

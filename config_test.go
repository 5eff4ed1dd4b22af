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
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/OpenPSG/sigview"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadConfig(t *testing.T) {
	cfg, err := sigview.ReadConfig(strings.NewReader(`
duration: 30
lanes: 8
anchor: left
downsample:
  method: mean
  max_points: 2000
  chunk_size: 4096
  cache: true
sweep:
  time_step: 0.5
  axis: both
`))
	require.NoError(t, err)

	want := sigview.DefaultConfig()
	want.Duration = 30
	want.Lanes = 8
	want.Anchor = sigview.AnchorLeft
	want.Downsample.Method = sigview.Mean
	want.Downsample.MaxPoints = 2000
	want.Downsample.ChunkSize = 4096
	want.Downsample.Cache = true
	want.Sweep.TimeStep = 0.5
	want.Sweep.Axis = sigview.AxisBoth
	assert.Equal(t, want, cfg)
}

func TestReadConfigEmpty(t *testing.T) {
	cfg, err := sigview.ReadConfig(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, sigview.DefaultConfig(), cfg)
}

func TestReadConfigRejectsUnknownFields(t *testing.T) {
	_, err := sigview.ReadConfig(strings.NewReader("durration: 5\n"))
	assert.Error(t, err)
}

func TestReadConfigRejectsBadValues(t *testing.T) {
	_, err := sigview.ReadConfig(strings.NewReader("downsample:\n  method: median\n"))
	assert.Error(t, err)

	_, err = sigview.ReadConfig(strings.NewReader("lanes: -1\npixel_width: -2\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lanes")
	assert.Contains(t, err.Error(), "pixel_width")
}

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sigview.yaml")
	require.NoError(t, os.WriteFile(path, []byte("pixel_width: 1920\n"), 0o644))

	cfg, err := sigview.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 1920, cfg.PixelWidth)
	assert.Equal(t, sigview.Peak, cfg.Downsample.Method)

	_, err = sigview.LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

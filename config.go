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
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Config collects the engine knobs that the prototypes forked classes over.
type Config struct {
	Duration   float64          `yaml:"duration"`    // initial visible seconds
	Lanes      int              `yaml:"lanes"`       // initial visible channels
	Anchor     Anchor           `yaml:"anchor"`      // zoom anchor
	PixelWidth int              `yaml:"pixel_width"` // render surface width
	Downsample DownsampleConfig `yaml:"downsample"`
	Sweep      SweepConfig      `yaml:"sweep"`
}

// DownsampleConfig picks the factor and reduction policy.
type DownsampleConfig struct {
	Method Method `yaml:"method"`
	// Factor fixes the factor when > 0. Otherwise it is derived per frame
	// from MaxPoints when set, else from Density.
	Factor    int     `yaml:"factor"`
	Density   float64 `yaml:"density"`    // samples per pixel
	MaxPoints int     `yaml:"max_points"` // cap on blocks per trace
	ChunkSize int     `yaml:"chunk_size"`
	Cache     bool    `yaml:"cache"`
}

type SweepConfig struct {
	TimeStep float64 `yaml:"time_step"`
	LaneStep int     `yaml:"lane_step"`
	Axis     Axis    `yaml:"axis"`
}

func DefaultConfig() Config {
	return Config{
		Duration:   10,
		Lanes:      20,
		Anchor:     AnchorCenter,
		PixelWidth: 1000,
		Downsample: DownsampleConfig{
			Method:  Peak,
			Density: 4,
		},
		Sweep: SweepConfig{
			TimeStep: 1,
			LaneStep: 1,
			Axis:     AxisTime,
		},
	}
}

// LoadConfig reads a YAML config file. Fields absent from the file keep
// their defaults.
func LoadConfig(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, fmt.Errorf("error opening config: %w", err)
	}
	defer f.Close()

	return ReadConfig(f)
}

// ReadConfig decodes a YAML config on top of DefaultConfig.
func ReadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	b, err := io.ReadAll(r)
	if err != nil {
		return Config{}, fmt.Errorf("error reading config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("error parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot honour.
func (c Config) Validate() error {
	var errs []error
	if c.Duration < 0 {
		errs = append(errs, fmt.Errorf("duration must not be negative, got %g", c.Duration))
	}
	if c.Lanes < 0 {
		errs = append(errs, fmt.Errorf("lanes must not be negative, got %d", c.Lanes))
	}
	if c.PixelWidth < 0 {
		errs = append(errs, fmt.Errorf("pixel_width must not be negative, got %d", c.PixelWidth))
	}
	if c.Downsample.Factor < 0 {
		errs = append(errs, fmt.Errorf("downsample.factor must not be negative, got %d", c.Downsample.Factor))
	}
	if c.Downsample.Density < 0 {
		errs = append(errs, fmt.Errorf("downsample.density must not be negative, got %g", c.Downsample.Density))
	}
	if c.Downsample.MaxPoints < 0 {
		errs = append(errs, fmt.Errorf("downsample.max_points must not be negative, got %d", c.Downsample.MaxPoints))
	}
	if c.Downsample.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("downsample.chunk_size must not be negative, got %d", c.Downsample.ChunkSize))
	}
	if c.Sweep.TimeStep < 0 || c.Sweep.LaneStep < 0 {
		errs = append(errs, fmt.Errorf("sweep steps must not be negative"))
	}
	return errors.Join(errs...)
}

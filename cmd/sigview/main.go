// SPDX-License-Identifier: MPL-2.0
/*
 * Copyright (C) 2024 Damian Peckett <damian@pecke.tt>.
 *
 * This Source Code Form is subject to the terms of the Mozilla Public
 * License, v. 2.0. If a copy of the MPL was not distributed with this
 * file, You can obtain one at http://mozilla.org/MPL/2.0/.
 */

// Command sigview synthesizes, renders and sweeps EDF recordings through the
// viewport engine.
package main

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
)

func main() {
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(1)
	}

	command := flag.Arg(0)
	args := flag.Args()[1:]

	var err error
	switch command {
	case "synth":
		err = runSynth(args, os.Stderr)
	case "render":
		err = runRender(args, os.Stderr)
	case "sweep":
		err = runSweep(args, os.Stderr)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "sigview %s: %v\n", command, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sigview - viewport-driven multichannel signal viewer

Usage: sigview <command> [options]

Commands:
  synth      Write a synthetic EDF+ recording
  render     Render one viewport of a recording to .png or .html
  sweep      Bounce the viewport across a recording and report throughput
  help       Show this help message

Examples:
  sigview synth -out rec.edf -channels 32 -seconds 60 -sfreq 250
  sigview render -in rec.edf -config sigview.yaml -t0 12.5 -out view.png
  sigview sweep -in rec.edf -ticks 500 -axis both`)
}

// newLogger builds the text logger shared by the subcommands.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

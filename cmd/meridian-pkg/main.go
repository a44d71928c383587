// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"io"
	"os"

	"github.com/meridian-index/meridian/cmd/meridian-pkg/cli"
	"github.com/meridian-index/meridian/lib/version"
)

// stdout is swapped out by tests.
var stdout io.Writer = os.Stdout

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	return rootCommand().Execute(os.Args[1:])
}

func rootCommand() *cli.Command {
	return &cli.Command{
		Name:        "meridian-pkg",
		Summary:     "Inspect on-chain packages and resolve type layouts",
		Description: "meridian-pkg inspects packages from a configured package store\nand resolves concrete type references to full memory layouts.",
		Subcommands: []*cli.Command{
			packageCommand(),
			layoutCommand(),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print build version information",
		Run: func(args []string) error {
			fmt.Fprintln(stdout, "meridian-pkg "+version.Full())
			return nil
		},
	}
}

// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command dispatch framework for
// meridian-pkg: a [Command] tree with pflag flag sets, structured
// help output, and subcommand routing.
package cli

// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

// Command meridian-pkg is the package resolver's inspection CLI.
//
// It reads its store configuration from the file named by
// MERIDIAN_CONFIG (or --config) and offers two operations:
//
//	meridian-pkg package <id>     show a package's modules and structs
//	meridian-pkg layout <type>    resolve a type reference to its layout
//
// The store behind the commands is either the indexer's read-only
// objects mirror ("db" mode) or a durable local table with a remote
// fetch fallback ("local" mode); see lib/config for the file format.
package main

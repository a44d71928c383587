// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test fixtures for resolver
// packages.
//
// [PackageObject] builds a serialized package envelope from module
// declarations, filling in type origins for the common case where
// every struct originates in the package itself. [CounterPackage] is
// the canonical one-module fixture used wherever a test just needs
// some valid package.
//
// [UniqueAddress] generates distinct object ids from a monotonic
// counter. Use it instead of hand-picked hex constants when a test
// needs several ids whose values do not matter.
//
// All helpers fail the test rather than returning errors, since
// fixture construction failures are not recoverable. They accept the
// small [TB] interface instead of *testing.T so helper packages and
// benchmarks can use them too.
//
// This package must not import lib/packages: it is consumed by that
// package's own tests.
package testutil

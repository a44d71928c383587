// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

// Package packages resolves on-chain package objects into typed,
// cached representations.
//
// The pieces, leaf-first:
//
//   - [Materialize] is a pure function from a raw object envelope to
//     a [Package]: decoded modules, per-struct type origins, and the
//     dependency linkage table. No I/O, no shared state.
//   - [Store] abstracts where package objects come from. [DBStore]
//     reads the indexer's objects mirror; [LocalStore] keeps a
//     durable local table and falls back to a remote fetch on miss.
//   - [Cache] is a bounded LRU over a Store, keyed by storage id,
//     with the version-aware invalidation and race policy that
//     system packages require.
//
// A Package is immutable after materialization and shared by
// pointer: the cache slot and every caller that obtained it hold the
// same instance, and eviction never invalidates a handle a caller
// already has.
//
// System packages are the one case where the object at a fixed
// storage id legitimately changes: upgrades replace its content and
// bump its version in place. The cache therefore re-validates cached
// system packages against the store's current version on every hit,
// and resolves concurrent fetch races by version, never regressing
// to an older package once a newer one has been exposed.
package packages

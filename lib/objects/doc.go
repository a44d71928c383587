// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

// Package objects defines the on-chain object envelope — the
// serialized form every store and the remote fetch endpoint exchange
// — and the narrow fetch client used as a fallback by the
// local-persistent package store.
//
// An [Object] is either a package (its [PackageData] payload is set)
// or some other on-chain value (opaque contents). The resolver only
// ever looks inside packages; everything else flows through
// unexamined so a caller feeding checkpoint objects into a store can
// pass them all without filtering.
//
// The wire and storage encoding is deterministic CBOR via lib/codec:
// the same logical object always serializes to identical bytes, in
// the indexer's objects table, in the local package table, and on
// the fetch endpoint.
package objects

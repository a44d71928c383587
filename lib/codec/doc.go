// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides Meridian's standard CBOR encoding
// configuration.
//
// The serialized form of every on-chain object — the bytes stored in
// the indexer's objects table, persisted in the local package table,
// and returned by the remote fetch endpoint — is CBOR produced by
// this package. The encoder uses Core Deterministic Encoding (RFC
// 8949 §4.2): sorted map keys, smallest integer encoding, no
// indefinite-length items. Same logical object always produces
// identical bytes, which is what makes stored-value checksums and
// content-derived object ids meaningful.
//
// Types with an encoding.TextMarshaler (notably addr.Address)
// serialize as CBOR text strings, so object ids are readable in
// diagnostic dumps of stored rows.
//
// For buffer-oriented operations:
//
//	data, err := codec.Marshal(value)
//	err = codec.Unmarshal(data, &value)
//
// For stream-oriented operations (the fetch client's response body):
//
//	decoder := codec.NewDecoder(body)
package codec

// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

// Package sqlitepool provides Meridian's standard SQLite connection
// pool.
//
// Both package stores are built on it: the database-backed store
// reads the indexer's objects mirror (read-only mode), and the
// local-persistent store owns its own package table (read-write).
// The pool wraps zombiezen.com/go/sqlite with defaults tuned for
// those workloads: WAL journal mode, NORMAL synchronous, busy
// timeout for write contention, memory-mapped I/O for the read-heavy
// mirror queries.
//
// The pool is built on zombiezen's sqlitex.Pool, which manages a
// fixed-size set of connections. Callers [Pool.Take] a connection,
// perform work, and [Pool.Put] it back. Connections are NOT safe for
// concurrent use — each goroutine must hold its own connection for
// the duration of its work.
//
// # Design
//
// This package is intentionally thin: it applies standard pragmas
// and exposes the underlying zombiezen types directly. Stores write
// SQL, use sqlitex.Execute for cached statements, and manage
// transactions with sqlitex.ImmediateTransaction. There is no query
// builder and no ORM — a shared foundation (one dependency, one set
// of pragmas, one pool pattern) without an abstraction layer that
// fights SQLite's strengths.
package sqlitepool

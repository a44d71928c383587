// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package packages

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/meridian-index/meridian/lib/addr"
	"github.com/meridian-index/meridian/lib/objects"
	"github.com/meridian-index/meridian/lib/sqlitepool"
)

// Store abstracts access to a store of live package objects. The
// interface is deliberately narrow — version, fetch, update — so new
// backings (an in-memory fake for tests, most obviously) are trivial
// to add. Implementations must be safe for concurrent use.
type Store interface {
	// Version returns the latest version of the object at id.
	Version(ctx context.Context, id addr.Address) (uint64, error)

	// Fetch reads and materializes the package at id. Fails if id
	// is not an object, not a package, or malformed.
	Fetch(ctx context.Context, id addr.Address) (*Package, error)

	// Update opportunistically ingests an object the caller already
	// has. A no-op for objects that are not packages, and for
	// read-only stores an error.
	Update(ctx context.Context, object *objects.Object) error
}

// DBStoreConfig holds the parameters for opening a database-backed
// store.
type DBStoreConfig struct {
	// Path is the SQLite file holding the indexer's objects mirror.
	// Required; must already exist — this store never creates or
	// writes it.
	Path string

	// PoolSize is the connection pool size. Defaults per
	// sqlitepool.
	PoolSize int

	// Logger receives operational messages. If nil, a no-op logger
	// is used.
	Logger *slog.Logger

	// Materialize controls optional materialization validation.
	Materialize MaterializeOptions
}

// DBStore is the database-backed Store: a read-only view over the
// indexer's objects table, keyed by object id with the latest
// version and serialized bytes per row. It is a mirror of ground
// truth, so Update is unsupported.
type DBStore struct {
	pool    *sqlitepool.Pool
	logger  *slog.Logger
	options MaterializeOptions
}

// OpenDBStore opens the objects mirror read-only.
func OpenDBStore(cfg DBStoreConfig) (*DBStore, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		ReadOnly: true,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("db package store: %w", err)
	}
	return &DBStore{pool: pool, logger: logger, options: cfg.Materialize}, nil
}

// Close closes the underlying connection pool.
func (s *DBStore) Close() error {
	return s.pool.Close()
}

// Version implements Store.
func (s *DBStore) Version(ctx context.Context, id addr.Address) (uint64, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return 0, &StorageError{Op: "version", Err: err}
	}
	defer s.pool.Put(conn)

	var version int64
	var found bool
	err = sqlitex.Execute(conn,
		"SELECT object_version FROM objects WHERE object_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{id[:]},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				version = stmt.ColumnInt64(0)
				found = true
				return nil
			},
		})
	if err != nil {
		return 0, &StorageError{Op: "version", Err: err}
	}
	if !found {
		return 0, &NotFoundError{ID: id}
	}
	if version < 0 {
		return 0, &StorageError{Op: "version", Err: fmt.Errorf("object %s has negative version %d", id.Short(), version)}
	}
	return uint64(version), nil
}

// Fetch implements Store.
func (s *DBStore) Fetch(ctx context.Context, id addr.Address) (*Package, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, &StorageError{Op: "fetch", Err: err}
	}
	defer s.pool.Put(conn)

	var version int64
	var serialized []byte
	var found bool
	err = sqlitex.Execute(conn,
		"SELECT object_version, serialized_object FROM objects WHERE object_id = ?",
		&sqlitex.ExecOptions{
			Args: []any{id[:]},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				version = stmt.ColumnInt64(0)
				serialized = make([]byte, stmt.ColumnLen(1))
				stmt.ColumnBytes(1, serialized)
				found = true
				return nil
			},
		})
	if err != nil {
		return nil, &StorageError{Op: "fetch", Err: err}
	}
	if !found {
		return nil, &NotFoundError{ID: id}
	}
	if version < 0 {
		return nil, &StorageError{Op: "fetch", Err: fmt.Errorf("object %s has negative version %d", id.Short(), version)}
	}

	object, err := objects.Decode(serialized)
	if err != nil {
		return nil, &DeserializeError{ID: id, Err: err}
	}
	return Materialize(id, uint64(version), object, s.options)
}

// Update implements Store. The mirror is read-only ground truth, so
// ingestion is rejected.
func (s *DBStore) Update(ctx context.Context, object *objects.Object) error {
	return &StorageError{Op: "update", Err: errors.New("objects mirror is read-only")}
}

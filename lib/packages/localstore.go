// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package packages

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"

	"github.com/zeebo/blake3"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/meridian-index/meridian/lib/addr"
	"github.com/meridian-index/meridian/lib/objects"
	"github.com/meridian-index/meridian/lib/sqlitepool"
)

// localSchema is the durable package table. Values are the full
// serialized object envelope, compressed per the compression column,
// with a blake3 checksum of the uncompressed bytes verified on every
// read.
const localSchema = `
	CREATE TABLE IF NOT EXISTS packages (
		object_id BLOB PRIMARY KEY,
		compression INTEGER NOT NULL,
		uncompressed_size INTEGER NOT NULL,
		checksum BLOB NOT NULL,
		serialized_object BLOB NOT NULL
	);
`

// LocalStoreConfig holds the parameters for opening a
// local-persistent store.
type LocalStoreConfig struct {
	// Path is the SQLite file for the local package table. Created
	// if it does not exist.
	Path string

	// PoolSize is the connection pool size. Defaults per
	// sqlitepool.
	PoolSize int

	// Fetcher retrieves objects missing from the local table.
	// Required.
	Fetcher objects.Fetcher

	// Compression selects how stored values are compressed.
	// Defaults to zstd.
	Compression CompressionTag

	// Logger receives operational messages. If nil, a no-op logger
	// is used.
	Logger *slog.Logger

	// Materialize controls optional materialization validation.
	Materialize MaterializeOptions
}

// LocalStore keeps package objects in a durable local table, with a
// remote fetch fallback for objects the table has not seen. The
// expectation is that a caller feeds new checkpoint objects in via
// Update as they are observed; the fallback exists purely to cover
// incomplete local history. Fetched objects are persisted before
// they are returned, so each id misses remotely at most once.
type LocalStore struct {
	pool        *sqlitepool.Pool
	fetcher     objects.Fetcher
	compression CompressionTag
	logger      *slog.Logger
	options     MaterializeOptions
}

// OpenLocalStore opens (creating if needed) the local package table.
func OpenLocalStore(cfg LocalStoreConfig) (*LocalStore, error) {
	if cfg.Fetcher == nil {
		return nil, fmt.Errorf("local package store: Fetcher is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	compression := cfg.Compression
	if compression == CompressionNone {
		compression = CompressionZstd
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: cfg.PoolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, localSchema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("local package store: %w", err)
	}

	return &LocalStore{
		pool:        pool,
		fetcher:     cfg.Fetcher,
		compression: compression,
		logger:      logger,
		options:     cfg.Materialize,
	}, nil
}

// Close closes the underlying connection pool.
func (s *LocalStore) Close() error {
	return s.pool.Close()
}

// Get returns the object at id, reading the local table first and
// falling back to the remote fetcher on miss. A fetched object is
// persisted (if it is a package) before it is returned. A remote
// fetch failure surfaces as a NotFoundError: from the resolver's
// point of view the id simply does not resolve.
func (s *LocalStore) Get(ctx context.Context, id addr.Address) (*objects.Object, error) {
	object, err := s.readLocal(ctx, id)
	if err != nil {
		return nil, err
	}
	if object != nil {
		return object, nil
	}

	s.logger.Debug("local miss, falling back to remote fetch", "id", id.Short())
	object, err = s.fetcher.Object(ctx, id)
	if err != nil {
		return nil, &NotFoundError{ID: id}
	}
	if err := s.Update(ctx, object); err != nil {
		return nil, err
	}
	return object, nil
}

// Version implements Store by routing through Get.
func (s *LocalStore) Version(ctx context.Context, id addr.Address) (uint64, error) {
	object, err := s.Get(ctx, id)
	if err != nil {
		return 0, err
	}
	return object.Version, nil
}

// Fetch implements Store by routing through Get.
func (s *LocalStore) Fetch(ctx context.Context, id addr.Address) (*Package, error) {
	object, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return Materialize(object.ID, object.Version, object, s.options)
}

// Update implements Store: unconditionally persist the object if it
// is a package, no-op otherwise. This is the path that keeps the
// local table current as new checkpoints are observed.
func (s *LocalStore) Update(ctx context.Context, object *objects.Object) error {
	if !object.IsPackage() {
		return nil
	}

	serialized, err := objects.Encode(object)
	if err != nil {
		return &StorageError{Op: "update", Err: err}
	}
	checksum := blake3.Sum256(serialized)
	stored, tag, err := compressValue(serialized, s.compression)
	if err != nil {
		return &StorageError{Op: "update", Err: err}
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return &StorageError{Op: "update", Err: err}
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn, `
		INSERT INTO packages (object_id, compression, uncompressed_size, checksum, serialized_object)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (object_id) DO UPDATE SET
			compression = excluded.compression,
			uncompressed_size = excluded.uncompressed_size,
			checksum = excluded.checksum,
			serialized_object = excluded.serialized_object
	`, &sqlitex.ExecOptions{
		Args: []any{object.ID[:], int64(tag), int64(len(serialized)), checksum[:], stored},
	})
	if err != nil {
		return &StorageError{Op: "update", Err: err}
	}

	s.logger.Debug("persisted package object",
		"id", object.ID.Short(),
		"version", object.Version,
		"compression", tag.String(),
		"stored_bytes", len(stored),
	)
	return nil
}

// readLocal returns the locally stored object, nil if the id is not
// in the table, or a StorageError for database failures and
// corrupted rows.
func (s *LocalStore) readLocal(ctx context.Context, id addr.Address) (*objects.Object, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}
	defer s.pool.Put(conn)

	var stored, checksum []byte
	var tag CompressionTag
	var uncompressedSize int
	var found bool
	err = sqlitex.Execute(conn, `
		SELECT compression, uncompressed_size, checksum, serialized_object
		FROM packages WHERE object_id = ?
	`, &sqlitex.ExecOptions{
		Args: []any{id[:]},
		ResultFunc: func(stmt *sqlite.Stmt) error {
			tag = CompressionTag(stmt.ColumnInt64(0))
			uncompressedSize = stmt.ColumnInt(1)
			checksum = make([]byte, stmt.ColumnLen(2))
			stmt.ColumnBytes(2, checksum)
			stored = make([]byte, stmt.ColumnLen(3))
			stmt.ColumnBytes(3, stored)
			found = true
			return nil
		},
	})
	if err != nil {
		return nil, &StorageError{Op: "get", Err: err}
	}
	if !found {
		return nil, nil
	}

	serialized, err := decompressValue(stored, tag, uncompressedSize)
	if err != nil {
		return nil, &StorageError{Op: "get", Err: fmt.Errorf("object %s: %w", id.Short(), err)}
	}
	digest := blake3.Sum256(serialized)
	if !bytes.Equal(digest[:], checksum) {
		return nil, &StorageError{Op: "get", Err: fmt.Errorf("object %s: checksum mismatch", id.Short())}
	}

	object, err := objects.Decode(serialized)
	if err != nil {
		return nil, &StorageError{Op: "get", Err: fmt.Errorf("object %s: %w", id.Short(), err)}
	}
	return object, nil
}

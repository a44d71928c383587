// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package packages

import (
	"context"
	"path/filepath"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/meridian-index/meridian/lib/addr"
	"github.com/meridian-index/meridian/lib/objects"
)

// objectsSchema mirrors the indexer's objects table.
const objectsSchema = `
	CREATE TABLE objects (
		object_id BLOB PRIMARY KEY,
		object_version INTEGER NOT NULL,
		serialized_object BLOB NOT NULL
	);
`

type objectRow struct {
	id         addr.Address
	version    int64
	serialized []byte
}

func createObjectsDB(t *testing.T, rows []objectRow) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "objects.db")
	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite|sqlite.OpenCreate)
	if err != nil {
		t.Fatalf("creating objects db: %v", err)
	}
	defer conn.Close()

	if err := sqlitex.ExecuteScript(conn, objectsSchema, nil); err != nil {
		t.Fatalf("creating objects table: %v", err)
	}
	for _, row := range rows {
		err := sqlitex.Execute(conn,
			"INSERT INTO objects (object_id, object_version, serialized_object) VALUES (?, ?, ?)",
			&sqlitex.ExecOptions{Args: []any{row.id[:], row.version, row.serialized}})
		if err != nil {
			t.Fatalf("inserting object %s: %v", row.id.Short(), err)
		}
	}
	return path
}

func encodeObject(t *testing.T, object *objects.Object) []byte {
	t.Helper()
	serialized, err := objects.Encode(object)
	if err != nil {
		t.Fatalf("encoding object %s: %v", object.ID.Short(), err)
	}
	return serialized
}

func openDBStore(t *testing.T, path string) *DBStore {
	t.Helper()
	store, err := OpenDBStore(DBStoreConfig{Path: path})
	if err != nil {
		t.Fatalf("OpenDBStore: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestDBStoreVersionAndFetch(t *testing.T) {
	ctx := context.Background()
	id := addr.MustParse("0x42")
	object := counterPackageObject(t, id, id, 3)
	store := openDBStore(t, createObjectsDB(t, []objectRow{
		{id: id, version: 3, serialized: encodeObject(t, object)},
	}))

	version, err := store.Version(ctx, id)
	if err != nil {
		t.Fatalf("Version: %v", err)
	}
	if version != 3 {
		t.Errorf("version = %d, want 3", version)
	}

	pkg, err := store.Fetch(ctx, id)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if pkg.StorageID != id || pkg.Version != 3 {
		t.Errorf("fetched %s@%d, want %s@3", pkg.StorageID.Short(), pkg.Version, id.Short())
	}
	if _, ok := pkg.Module("counter"); !ok {
		t.Error("module counter missing from fetched package")
	}
}

func TestDBStoreNotFound(t *testing.T) {
	ctx := context.Background()
	store := openDBStore(t, createObjectsDB(t, nil))
	id := addr.MustParse("0x42")

	if _, err := store.Version(ctx, id); !IsNotFound(err) {
		t.Errorf("Version: got %v, want NotFoundError", err)
	}
	if _, err := store.Fetch(ctx, id); !IsNotFound(err) {
		t.Errorf("Fetch: got %v, want NotFoundError", err)
	}
}

func TestDBStoreNotAPackage(t *testing.T) {
	ctx := context.Background()
	id := addr.MustParse("0x42")
	object := &objects.Object{ID: id, Version: 1, Contents: []byte{0xf6}}
	store := openDBStore(t, createObjectsDB(t, []objectRow{
		{id: id, version: 1, serialized: encodeObject(t, object)},
	}))

	if _, err := store.Fetch(ctx, id); !IsNotAPackage(err) {
		t.Fatalf("got %v, want NotAPackageError", err)
	}
}

func TestDBStoreCorruptEnvelope(t *testing.T) {
	ctx := context.Background()
	id := addr.MustParse("0x42")
	store := openDBStore(t, createObjectsDB(t, []objectRow{
		{id: id, version: 1, serialized: []byte("not cbor")},
	}))

	if _, err := store.Fetch(ctx, id); !IsDeserialize(err) {
		t.Fatalf("got %v, want DeserializeError", err)
	}
}

func TestDBStoreNegativeVersion(t *testing.T) {
	ctx := context.Background()
	id := addr.MustParse("0x42")
	object := counterPackageObject(t, id, id, 1)
	store := openDBStore(t, createObjectsDB(t, []objectRow{
		{id: id, version: -1, serialized: encodeObject(t, object)},
	}))

	if _, err := store.Version(ctx, id); !IsStorage(err) {
		t.Errorf("Version: got %v, want StorageError", err)
	}
	if _, err := store.Fetch(ctx, id); !IsStorage(err) {
		t.Errorf("Fetch: got %v, want StorageError", err)
	}
}

func TestDBStoreUpdateRejected(t *testing.T) {
	store := openDBStore(t, createObjectsDB(t, nil))
	object := counterPackageObject(t, addr.MustParse("0x42"), addr.MustParse("0x42"), 1)

	if err := store.Update(context.Background(), object); !IsStorage(err) {
		t.Fatalf("got %v, want StorageError", err)
	}
}

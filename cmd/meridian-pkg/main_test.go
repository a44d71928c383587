// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/meridian-index/meridian/lib/addr"
	"github.com/meridian-index/meridian/lib/objects"
	"github.com/meridian-index/meridian/lib/testutil"
)

// testApp builds a db-mode app over a fixture objects mirror holding
// the given envelopes.
func testApp(t *testing.T, fixtures ...*objects.Object) *resolverApp {
	t.Helper()
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "objects.db")

	conn, err := sqlite.OpenConn(dbPath, sqlite.OpenReadWrite|sqlite.OpenCreate)
	if err != nil {
		t.Fatalf("creating objects db: %v", err)
	}
	defer conn.Close()
	schema := `
		CREATE TABLE objects (
			object_id BLOB PRIMARY KEY,
			object_version INTEGER NOT NULL,
			serialized_object BLOB NOT NULL
		);
	`
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		t.Fatalf("creating objects table: %v", err)
	}
	for _, object := range fixtures {
		serialized, err := objects.Encode(object)
		if err != nil {
			t.Fatalf("encoding object: %v", err)
		}
		err = sqlitex.Execute(conn,
			"INSERT INTO objects (object_id, object_version, serialized_object) VALUES (?, ?, ?)",
			&sqlitex.ExecOptions{Args: []any{object.ID[:], int64(object.Version), serialized}})
		if err != nil {
			t.Fatalf("inserting object: %v", err)
		}
	}

	configPath := filepath.Join(dir, "meridian.yaml")
	configContent := fmt.Sprintf("store:\n  mode: db\n  db:\n    path: %s\n", dbPath)
	if err := os.WriteFile(configPath, []byte(configContent), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	app, err := openApp(configPath)
	if err != nil {
		t.Fatalf("openApp: %v", err)
	}
	t.Cleanup(func() { app.Close() })
	return app
}

func TestShowPackage(t *testing.T) {
	id := addr.MustParse("0x42")
	app := testApp(t, testutil.CounterPackage(t, id, id, 3))

	var out bytes.Buffer
	if err := showPackage(context.Background(), app, "0x42", &out); err != nil {
		t.Fatalf("showPackage: %v", err)
	}

	for _, want := range []string{
		"package 0x42",
		"version:    3",
		"module counter",
		"struct Counter",
	} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestShowPackageNotFound(t *testing.T) {
	app := testApp(t)

	var out bytes.Buffer
	err := showPackage(context.Background(), app, "0x42", &out)
	if err == nil {
		t.Fatal("expected an error for an absent package")
	}
}

func TestShowLayout(t *testing.T) {
	id := addr.MustParse("0x42")
	app := testApp(t, testutil.CounterPackage(t, id, id, 1))

	var out bytes.Buffer
	if err := showLayout(context.Background(), app, "0x42::counter::Counter", &out); err != nil {
		t.Fatalf("showLayout: %v", err)
	}

	want := "0x42::counter::Counter {\n  value: u64\n}\n"
	if out.String() != want {
		t.Errorf("layout output:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	previous := stdout
	stdout = &out
	defer func() { stdout = previous }()

	if err := rootCommand().Execute([]string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out.String(), "meridian-pkg ") {
		t.Errorf("unexpected version output: %q", out.String())
	}
}

func TestUnknownCommand(t *testing.T) {
	err := rootCommand().Execute([]string{"nonsense"})
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("got %v, want unknown command error", err)
	}
}

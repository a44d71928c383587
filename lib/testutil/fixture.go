// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"github.com/meridian-index/meridian/lib/addr"
	"github.com/meridian-index/meridian/lib/bytecode"
	"github.com/meridian-index/meridian/lib/objects"
)

// TB is the subset of testing.TB the fixture helpers need.
type TB interface {
	Helper()
	Fatalf(format string, args ...any)
}

// EncodeModule encodes a module binary, failing the test on error.
func EncodeModule(tb TB, module *bytecode.Module) []byte {
	tb.Helper()
	data, err := bytecode.Encode(module)
	if err != nil {
		tb.Fatalf("encoding module %s: %v", module.Name, err)
	}
	return data
}

// PackageSpec describes a package envelope fixture.
type PackageSpec struct {
	StorageID addr.Address
	Version   uint64
	Modules   []*bytecode.Module

	// TypeOrigins, when nil, defaults to one entry per declared
	// struct pointing at the declaring module's self address — the
	// shape of a freshly published, never-upgraded package.
	TypeOrigins []objects.TypeOrigin

	Linkage []objects.LinkageEntry
}

// PackageObject builds a package envelope from spec.
func PackageObject(tb TB, spec PackageSpec) *objects.Object {
	tb.Helper()

	encoded := make(map[string][]byte, len(spec.Modules))
	origins := spec.TypeOrigins
	for _, module := range spec.Modules {
		encoded[module.Name] = EncodeModule(tb, module)
		if spec.TypeOrigins == nil {
			for _, declaration := range module.Structs {
				origins = append(origins, objects.TypeOrigin{
					Module:  module.Name,
					Struct:  declaration.Name,
					Package: module.SelfAddress,
				})
			}
		}
	}

	return &objects.Object{
		ID:      spec.StorageID,
		Version: spec.Version,
		Package: &objects.PackageData{
			Modules:     encoded,
			TypeOrigins: origins,
			Linkage:     spec.Linkage,
		},
	}
}

// CounterPackage builds the canonical one-module fixture: module
// "counter" declaring struct Counter with a single u64 field.
func CounterPackage(tb TB, storageID, runtimeID addr.Address, version uint64) *objects.Object {
	tb.Helper()
	return PackageObject(tb, PackageSpec{
		StorageID: storageID,
		Version:   version,
		Modules: []*bytecode.Module{{
			SelfAddress: runtimeID,
			Name:        "counter",
			Structs: []bytecode.Struct{{
				Name: "Counter",
				Fields: []bytecode.Field{
					{Name: "value", Type: bytecode.Type{Kind: bytecode.KindU64}},
				},
			}},
		}},
	})
}

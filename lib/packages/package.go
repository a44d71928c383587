// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package packages

import (
	"fmt"
	"sort"

	"github.com/meridian-index/meridian/lib/addr"
	"github.com/meridian-index/meridian/lib/bytecode"
	"github.com/meridian-index/meridian/lib/objects"
)

// Module is one deserialized module of a package, paired with the
// slice of the package's type-origin table that belongs to it.
type Module struct {
	// Bytecode is the decoded module binary.
	Bytecode *bytecode.Module

	// origins maps struct name to the id of the package that first
	// declared that struct. Layout resolution looks structs up at
	// their defining package, never at whatever upgraded dependency
	// path reached them.
	origins map[string]addr.Address
}

// DefiningID returns the id of the package that first declared the
// named struct.
func (m *Module) DefiningID(structName string) (addr.Address, bool) {
	id, ok := m.origins[structName]
	return id, ok
}

// Package is a fully materialized package. It is immutable after
// construction and shared by pointer between the cache and callers;
// nothing may mutate it.
type Package struct {
	// StorageID names the on-chain object currently holding this
	// package's bytes.
	StorageID addr.Address

	// RuntimeID is the self address baked into the package's
	// bytecode at first publish, stable across upgrades.
	RuntimeID addr.Address

	// Version is the object version this package was materialized
	// from. Monotonically non-decreasing per storage id.
	Version uint64

	modules map[string]*Module
	linkage map[addr.Address]addr.Address
}

// Module returns the named module, or false.
func (p *Package) Module(name string) (*Module, bool) {
	module, ok := p.modules[name]
	return module, ok
}

// ModuleNames returns the package's module names in sorted order.
func (p *Package) ModuleNames() []string {
	names := make([]string, 0, len(p.modules))
	for name := range p.modules {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Relocate maps a dependency's runtime id to the storage id it
// resolves to at this package's version. The package's own runtime
// id maps to its own storage id.
func (p *Package) Relocate(runtimeID addr.Address) (addr.Address, error) {
	if runtimeID == p.RuntimeID {
		return p.StorageID, nil
	}
	storageID, ok := p.linkage[runtimeID]
	if !ok {
		return addr.Address{}, &UnresolvedTypeError{
			Reference: runtimeID.Short(),
			Reason:    fmt.Sprintf("package %s has no linkage entry for it", p.StorageID.Short()),
		}
	}
	return storageID, nil
}

// MaterializeOptions controls optional validation during
// materialization.
type MaterializeOptions struct {
	// StrictRuntimeID rejects packages whose modules disagree on
	// their self address. Disabled by default: the derivation is
	// last-module-wins, and well-formed toolchains always emit a
	// consistent address, but packages accepted historically are
	// not re-validated.
	StrictRuntimeID bool
}

// Materialize turns a raw object envelope into a Package. It is a
// pure function: no I/O, no shared state, and the result is fully
// immutable.
func Materialize(id addr.Address, version uint64, object *objects.Object, options MaterializeOptions) (*Package, error) {
	data := object.Package
	if data == nil {
		return nil, &NotAPackageError{ID: id}
	}

	// Index the type-origin table by module then struct.
	origins := make(map[string]map[string]addr.Address)
	for _, origin := range data.TypeOrigins {
		byStruct := origins[origin.Module]
		if byStruct == nil {
			byStruct = make(map[string]addr.Address)
			origins[origin.Module] = byStruct
		}
		byStruct[origin.Struct] = origin.Package
	}

	// Deterministic module order so the runtime id derivation (last
	// module wins on divergence, when not strict) does not depend
	// on map iteration order.
	names := make([]string, 0, len(data.Modules))
	for name := range data.Modules {
		names = append(names, name)
	}
	sort.Strings(names)

	var runtimeID addr.Address
	var haveRuntimeID bool
	modules := make(map[string]*Module, len(names))
	for _, name := range names {
		decoded, err := bytecode.Decode(data.Modules[name])
		if err != nil {
			return nil, &DeserializeError{ID: id, Module: name, Err: err}
		}

		if options.StrictRuntimeID && haveRuntimeID && decoded.SelfAddress != runtimeID {
			return nil, &DeserializeError{
				ID:     id,
				Module: name,
				Err: fmt.Errorf("self address %s disagrees with %s declared by earlier modules",
					decoded.SelfAddress.Short(), runtimeID.Short()),
			}
		}
		runtimeID = decoded.SelfAddress
		haveRuntimeID = true

		moduleOrigins := origins[name]
		for _, declaration := range decoded.Structs {
			if _, ok := moduleOrigins[declaration.Name]; !ok {
				return nil, &MissingTypeOriginError{ID: id, Module: name, Struct: declaration.Name}
			}
		}

		modules[name] = &Module{Bytecode: decoded, origins: moduleOrigins}
	}

	if !haveRuntimeID {
		return nil, &EmptyPackageError{ID: id}
	}

	linkage := make(map[addr.Address]addr.Address, len(data.Linkage))
	for _, entry := range data.Linkage {
		linkage[entry.Dependency] = entry.UpgradedID
	}

	return &Package{
		StorageID: id,
		RuntimeID: runtimeID,
		Version:   version,
		modules:   modules,
		linkage:   linkage,
	}, nil
}

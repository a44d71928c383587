// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package objects

import (
	"fmt"

	"github.com/meridian-index/meridian/lib/addr"
	"github.com/meridian-index/meridian/lib/codec"
)

// Object is the envelope for any on-chain object. Exactly one of
// Package or Contents is set: Package for contract packages,
// Contents (opaque to the resolver) for everything else.
type Object struct {
	// ID is the object's storage id.
	ID addr.Address `cbor:"id"`

	// Version increases monotonically with every mutation of the
	// object at this storage id. For non-package objects that is
	// every write; for packages it only moves on system package
	// upgrades, since regular packages are immutable once published.
	Version uint64 `cbor:"version"`

	// Package is the package payload, nil for non-package objects.
	Package *PackageData `cbor:"package,omitempty"`

	// Contents holds the raw payload of non-package objects. The
	// resolver never decodes it.
	Contents codec.RawMessage `cbor:"contents,omitempty"`
}

// PackageData is the package payload of a package object.
type PackageData struct {
	// Modules maps module name to module binary (lib/bytecode
	// format). The deterministic encoder sorts keys, so the encoded
	// form is ordered by name.
	Modules map[string][]byte `cbor:"modules"`

	// TypeOrigins records, for every struct ever declared in this
	// package lineage, the id of the package version that first
	// declared it. Upgrades append entries; existing entries never
	// change, which is what makes a struct's defining id stable.
	TypeOrigins []TypeOrigin `cbor:"type_origins"`

	// Linkage records, for each dependency (named by runtime id),
	// the storage id and version it resolves to at this package's
	// version.
	Linkage []LinkageEntry `cbor:"linkage"`
}

// TypeOrigin names the first-defining package of one struct.
type TypeOrigin struct {
	Module  string       `cbor:"module"`
	Struct  string       `cbor:"struct"`
	Package addr.Address `cbor:"package"`
}

// LinkageEntry pins one dependency to the concrete package version
// this package was built (or upgraded) against.
type LinkageEntry struct {
	// Dependency is the dependency's runtime id as it appears in
	// bytecode struct references.
	Dependency addr.Address `cbor:"dependency"`

	// UpgradedID is the storage id of the dependency version in
	// effect for this package.
	UpgradedID addr.Address `cbor:"upgraded_id"`

	// UpgradedVersion is that version's sequence number.
	UpgradedVersion uint64 `cbor:"upgraded_version"`
}

// IsPackage reports whether the object carries a package payload.
func (o *Object) IsPackage() bool {
	return o.Package != nil
}

// Encode serializes the object with the standard deterministic CBOR
// configuration. This is the byte format both stores persist and the
// fetch endpoint serves.
func Encode(object *Object) ([]byte, error) {
	if object.ID.IsZero() {
		return nil, fmt.Errorf("encoding object: id is zero")
	}
	data, err := codec.Marshal(object)
	if err != nil {
		return nil, fmt.Errorf("encoding object %s: %w", object.ID.Short(), err)
	}
	return data, nil
}

// Decode deserializes an object envelope.
func Decode(data []byte) (*Object, error) {
	var object Object
	if err := codec.Unmarshal(data, &object); err != nil {
		return nil, fmt.Errorf("decoding object: %w", err)
	}
	if object.ID.IsZero() {
		return nil, fmt.Errorf("decoding object: id is zero")
	}
	return &object, nil
}

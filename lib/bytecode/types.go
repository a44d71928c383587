// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package bytecode

import (
	"fmt"

	"github.com/meridian-index/meridian/lib/addr"
)

// Binary format constants. These are protocol values — changing them
// breaks compatibility with published packages.
const (
	// Magic is the first four bytes of every module binary,
	// "MVB1" read as a little-endian u32.
	Magic uint32 = 0x3142564d

	// FormatVersion is the only format revision this decoder
	// accepts.
	FormatVersion uint32 = 1

	// SectionStructs is the struct declaration section id.
	SectionStructs byte = 1
)

// TypeKind discriminates the variants of a type term.
type TypeKind uint8

// Type term tags as they appear on the wire. Primitive tags double
// as the in-memory kind.
const (
	KindBool TypeKind = iota
	KindU8
	KindU16
	KindU32
	KindU64
	KindU128
	KindU256
	KindAddress
	KindVector
	KindStruct
	KindTypeParam

	kindCount
)

// String returns the source-language spelling of the kind.
func (k TypeKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindU8:
		return "u8"
	case KindU16:
		return "u16"
	case KindU32:
		return "u32"
	case KindU64:
		return "u64"
	case KindU128:
		return "u128"
	case KindU256:
		return "u256"
	case KindAddress:
		return "address"
	case KindVector:
		return "vector"
	case KindStruct:
		return "struct"
	case KindTypeParam:
		return "typeparam"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(k))
	}
}

// IsPrimitive reports whether the kind is a leaf type with a fixed
// layout (everything except vector, struct, and typeparam).
func (k TypeKind) IsPrimitive() bool {
	return k < KindVector
}

// Type is a structural type term as declared in a field signature.
// Exactly the fields relevant to the Kind are set: Elem for vectors,
// Struct for struct references, ParamIndex for generic parameters.
type Type struct {
	Kind       TypeKind
	Elem       *Type
	Struct     *StructRef
	ParamIndex uint32
}

// StructRef names a struct declared in some package. The address is
// a runtime id — the self address of the defining package's bytecode
// at first publish — and must be relocated through a linkage table
// before it can be fetched from a store.
type StructRef struct {
	Address    addr.Address
	Module     string
	Name       string
	TypeParams []Type
}

// Field is a named struct field with its declared type.
type Field struct {
	Name string
	Type Type
}

// Struct is a struct declaration: name, generic arity, ordered
// fields.
type Struct struct {
	Name       string
	TypeParams uint32
	Fields     []Field
}

// Module is a fully decoded module binary.
type Module struct {
	// SelfAddress is the runtime id baked into the bytecode at
	// first publish.
	SelfAddress addr.Address

	// Name is the module's declared name.
	Name string

	// Structs holds declarations in declaration order.
	Structs []Struct
}

// Struct returns the declaration with the given name, or false.
func (m *Module) Struct(name string) (*Struct, bool) {
	for i := range m.Structs {
		if m.Structs[i].Name == name {
			return &m.Structs[i], true
		}
	}
	return nil, false
}

// StructNames returns declared struct names in declaration order.
func (m *Module) StructNames() []string {
	names := make([]string, len(m.Structs))
	for i := range m.Structs {
		names[i] = m.Structs[i].Name
	}
	return names
}

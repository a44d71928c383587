// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package bytecode

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/meridian-index/meridian/lib/addr"
)

// Decoding errors returned by Decode.
var (
	ErrInvalidMagic       = errors.New("invalid module magic")
	ErrUnsupportedVersion = errors.New("unsupported module format version")
)

// maxNameLength bounds identifier lengths so a corrupt length prefix
// cannot force a huge allocation.
const maxNameLength = 1 << 16

// maxTypeDepth bounds type-term nesting. No compiler emits terms this
// deep; unbounded recursion on hostile bytes would overflow the stack
// before any size limit is hit.
const maxTypeDepth = 128

// Decode parses a module binary. The returned Module shares no
// memory with data.
func Decode(data []byte) (*Module, error) {
	r := bytes.NewReader(data)

	var magic, version uint32
	if err := binary.Read(r, binary.LittleEndian, &magic); err != nil {
		return nil, fmt.Errorf("module header: %w", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}
	if err := binary.Read(r, binary.LittleEndian, &version); err != nil {
		return nil, fmt.Errorf("module header: %w", err)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedVersion, version)
	}

	module := &Module{}

	var rawAddress [addr.Length]byte
	if _, err := io.ReadFull(r, rawAddress[:]); err != nil {
		return nil, fmt.Errorf("self address: %w", err)
	}
	module.SelfAddress = addr.Address(rawAddress)

	name, err := readName(r)
	if err != nil {
		return nil, fmt.Errorf("module name: %w", err)
	}
	module.Name = name

	// Sections appear in strictly increasing id order. Format
	// version 1 defines only the struct section, but the ordering
	// check keeps future section additions backward-parsable.
	var lastSection byte
	for {
		sectionID, err := r.ReadByte()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("section header: %w", err)
		}
		if sectionID <= lastSection {
			return nil, fmt.Errorf("section %d appears out of order", sectionID)
		}
		lastSection = sectionID

		size, err := readULEB128(r)
		if err != nil {
			return nil, fmt.Errorf("section %d size: %w", sectionID, err)
		}
		if uint32(r.Len()) < size {
			return nil, fmt.Errorf("section %d: payload truncated (%d of %d bytes)", sectionID, r.Len(), size)
		}
		payload := make([]byte, size)
		if _, err := io.ReadFull(r, payload); err != nil {
			return nil, fmt.Errorf("section %d payload: %w", sectionID, err)
		}

		switch sectionID {
		case SectionStructs:
			if err := decodeStructSection(bytes.NewReader(payload), module); err != nil {
				return nil, fmt.Errorf("struct section: %w", err)
			}
		default:
			return nil, fmt.Errorf("unknown section id %d", sectionID)
		}
	}

	return module, nil
}

func decodeStructSection(r *bytes.Reader, module *Module) error {
	count, err := readULEB128(r)
	if err != nil {
		return fmt.Errorf("struct count: %w", err)
	}

	module.Structs = make([]Struct, 0, count)
	for i := uint32(0); i < count; i++ {
		declaration, err := decodeStruct(r)
		if err != nil {
			return fmt.Errorf("struct %d: %w", i, err)
		}
		for _, existing := range module.Structs {
			if existing.Name == declaration.Name {
				return fmt.Errorf("duplicate struct %q", declaration.Name)
			}
		}
		module.Structs = append(module.Structs, declaration)
	}

	if r.Len() != 0 {
		return fmt.Errorf("%d trailing bytes after %d structs", r.Len(), count)
	}
	return nil
}

func decodeStruct(r *bytes.Reader) (Struct, error) {
	var declaration Struct

	name, err := readName(r)
	if err != nil {
		return declaration, fmt.Errorf("name: %w", err)
	}
	declaration.Name = name

	arity, err := readULEB128(r)
	if err != nil {
		return declaration, fmt.Errorf("type param count: %w", err)
	}
	declaration.TypeParams = arity

	fieldCount, err := readULEB128(r)
	if err != nil {
		return declaration, fmt.Errorf("field count: %w", err)
	}
	declaration.Fields = make([]Field, 0, fieldCount)
	for i := uint32(0); i < fieldCount; i++ {
		fieldName, err := readName(r)
		if err != nil {
			return declaration, fmt.Errorf("field %d name: %w", i, err)
		}
		fieldType, err := decodeType(r, 0)
		if err != nil {
			return declaration, fmt.Errorf("field %q type: %w", fieldName, err)
		}
		declaration.Fields = append(declaration.Fields, Field{Name: fieldName, Type: fieldType})
	}

	return declaration, nil
}

func decodeType(r *bytes.Reader, depth int) (Type, error) {
	if depth > maxTypeDepth {
		return Type{}, fmt.Errorf("type nesting exceeds depth limit %d", maxTypeDepth)
	}

	tag, err := r.ReadByte()
	if err != nil {
		return Type{}, fmt.Errorf("type tag: %w", err)
	}
	kind := TypeKind(tag)
	if kind >= kindCount {
		return Type{}, fmt.Errorf("unknown type tag %d", tag)
	}

	switch kind {
	case KindVector:
		elem, err := decodeType(r, depth+1)
		if err != nil {
			return Type{}, fmt.Errorf("vector element: %w", err)
		}
		return Type{Kind: KindVector, Elem: &elem}, nil

	case KindStruct:
		ref, err := decodeStructRef(r, depth)
		if err != nil {
			return Type{}, err
		}
		return Type{Kind: KindStruct, Struct: ref}, nil

	case KindTypeParam:
		index, err := readULEB128(r)
		if err != nil {
			return Type{}, fmt.Errorf("type param index: %w", err)
		}
		return Type{Kind: KindTypeParam, ParamIndex: index}, nil

	default:
		return Type{Kind: kind}, nil
	}
}

func decodeStructRef(r *bytes.Reader, depth int) (*StructRef, error) {
	var rawAddress [addr.Length]byte
	if _, err := io.ReadFull(r, rawAddress[:]); err != nil {
		return nil, fmt.Errorf("struct ref address: %w", err)
	}

	moduleName, err := readName(r)
	if err != nil {
		return nil, fmt.Errorf("struct ref module: %w", err)
	}
	structName, err := readName(r)
	if err != nil {
		return nil, fmt.Errorf("struct ref name: %w", err)
	}

	paramCount, err := readULEB128(r)
	if err != nil {
		return nil, fmt.Errorf("struct ref type param count: %w", err)
	}
	params := make([]Type, 0, paramCount)
	for i := uint32(0); i < paramCount; i++ {
		param, err := decodeType(r, depth+1)
		if err != nil {
			return nil, fmt.Errorf("struct ref type param %d: %w", i, err)
		}
		params = append(params, param)
	}

	return &StructRef{
		Address:    addr.Address(rawAddress),
		Module:     moduleName,
		Name:       structName,
		TypeParams: params,
	}, nil
}

func readName(r *bytes.Reader) (string, error) {
	length, err := readULEB128(r)
	if err != nil {
		return "", err
	}
	if length == 0 {
		return "", errors.New("empty identifier")
	}
	if length > maxNameLength {
		return "", fmt.Errorf("identifier length %d exceeds limit %d", length, maxNameLength)
	}
	if uint32(r.Len()) < length {
		return "", fmt.Errorf("identifier truncated (%d of %d bytes)", r.Len(), length)
	}
	raw := make([]byte, length)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", err
	}
	if !utf8.Valid(raw) {
		return "", errors.New("identifier is not valid UTF-8")
	}
	return string(raw), nil
}

// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package bytecode

import (
	"encoding/binary"
	"fmt"
)

// Encode serializes a module to its binary form. Encode and Decode
// round-trip: fixture builders and the publishing toolchain use this
// to produce bytes the materializer will accept.
func Encode(module *Module) ([]byte, error) {
	if module.Name == "" {
		return nil, fmt.Errorf("module name is required")
	}

	buf := make([]byte, 0, 256)
	buf = binary.LittleEndian.AppendUint32(buf, Magic)
	buf = binary.LittleEndian.AppendUint32(buf, FormatVersion)
	buf = append(buf, module.SelfAddress[:]...)
	buf = appendName(buf, module.Name)

	if len(module.Structs) > 0 {
		section, err := encodeStructSection(module.Structs)
		if err != nil {
			return nil, err
		}
		buf = append(buf, SectionStructs)
		buf = appendULEB128(buf, uint32(len(section)))
		buf = append(buf, section...)
	}

	return buf, nil
}

func encodeStructSection(structs []Struct) ([]byte, error) {
	buf := appendULEB128(nil, uint32(len(structs)))
	for _, declaration := range structs {
		if declaration.Name == "" {
			return nil, fmt.Errorf("struct name is required")
		}
		buf = appendName(buf, declaration.Name)
		buf = appendULEB128(buf, declaration.TypeParams)
		buf = appendULEB128(buf, uint32(len(declaration.Fields)))
		for _, field := range declaration.Fields {
			if field.Name == "" {
				return nil, fmt.Errorf("struct %q: field name is required", declaration.Name)
			}
			buf = appendName(buf, field.Name)
			var err error
			buf, err = appendType(buf, field.Type, 0)
			if err != nil {
				return nil, fmt.Errorf("struct %q field %q: %w", declaration.Name, field.Name, err)
			}
		}
	}
	return buf, nil
}

func appendType(buf []byte, t Type, depth int) ([]byte, error) {
	if depth > maxTypeDepth {
		return nil, fmt.Errorf("type nesting exceeds depth limit %d", maxTypeDepth)
	}
	if t.Kind >= kindCount {
		return nil, fmt.Errorf("unknown type kind %d", t.Kind)
	}
	buf = append(buf, byte(t.Kind))

	switch t.Kind {
	case KindVector:
		if t.Elem == nil {
			return nil, fmt.Errorf("vector type has no element")
		}
		return appendType(buf, *t.Elem, depth+1)

	case KindStruct:
		if t.Struct == nil {
			return nil, fmt.Errorf("struct type has no reference")
		}
		ref := t.Struct
		buf = append(buf, ref.Address[:]...)
		buf = appendName(buf, ref.Module)
		buf = appendName(buf, ref.Name)
		buf = appendULEB128(buf, uint32(len(ref.TypeParams)))
		for _, param := range ref.TypeParams {
			var err error
			buf, err = appendType(buf, param, depth+1)
			if err != nil {
				return nil, err
			}
		}
		return buf, nil

	case KindTypeParam:
		return appendULEB128(buf, t.ParamIndex), nil

	default:
		return buf, nil
	}
}

func appendName(buf []byte, name string) []byte {
	buf = appendULEB128(buf, uint32(len(name)))
	return append(buf, name...)
}

// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package typelayout

import (
	"fmt"
	"strings"

	"github.com/meridian-index/meridian/lib/addr"
	"github.com/meridian-index/meridian/lib/bytecode"
)

// Tag is a concrete type reference: a primitive, a vector, or a
// fully applied struct. Unlike a bytecode type term, a Tag never
// contains generic parameters — every struct's type arguments are
// themselves concrete Tags.
type Tag struct {
	Kind   bytecode.TypeKind
	Elem   *Tag       // set when Kind is KindVector
	Struct *StructTag // set when Kind is KindStruct
}

// StructTag names a struct with its type arguments. After the gather
// phase the Address is always the struct's defining id.
type StructTag struct {
	Address    addr.Address
	Module     string
	Name       string
	TypeParams []Tag
}

// Clone returns a deep copy of the tag, sharing no memory with the
// original.
func (t Tag) Clone() Tag {
	if t.Elem != nil {
		elem := t.Elem.Clone()
		t.Elem = &elem
	}
	if t.Struct != nil {
		s := *t.Struct
		if len(s.TypeParams) > 0 {
			params := make([]Tag, len(s.TypeParams))
			for i, param := range s.TypeParams {
				params[i] = param.Clone()
			}
			s.TypeParams = params
		}
		t.Struct = &s
	}
	return t
}

// String renders the tag in source form, e.g.
// "0x2::table::Table<0x2::coin::MRD, vector<u8>>".
func (t Tag) String() string {
	switch t.Kind {
	case bytecode.KindVector:
		return "vector<" + t.Elem.String() + ">"
	case bytecode.KindStruct:
		var builder strings.Builder
		builder.WriteString(t.Struct.Address.Short())
		builder.WriteString("::")
		builder.WriteString(t.Struct.Module)
		builder.WriteString("::")
		builder.WriteString(t.Struct.Name)
		if len(t.Struct.TypeParams) > 0 {
			builder.WriteString("<")
			for i, param := range t.Struct.TypeParams {
				if i > 0 {
					builder.WriteString(", ")
				}
				builder.WriteString(param.String())
			}
			builder.WriteString(">")
		}
		return builder.String()
	default:
		return t.Kind.String()
	}
}

// ParseTag parses a type reference in source form. The grammar:
//
//	type   := prim | "vector" "<" type ">" | struct
//	struct := address "::" name "::" name [ "<" type ("," type)* ">" ]
//	prim   := "bool" | "u8" | "u16" | "u32" | "u64" | "u128" | "u256" | "address"
//
// Whitespace is permitted around commas and angle brackets.
func ParseTag(text string) (Tag, error) {
	parser := &tagParser{input: text}
	tag, err := parser.parseType()
	if err != nil {
		return Tag{}, fmt.Errorf("parsing type %q: %w", text, err)
	}
	parser.skipSpace()
	if parser.pos != len(parser.input) {
		return Tag{}, fmt.Errorf("parsing type %q: trailing input at offset %d", text, parser.pos)
	}
	return tag, nil
}

// MustParseTag parses a tag or panics. For tests and constants.
func MustParseTag(text string) Tag {
	tag, err := ParseTag(text)
	if err != nil {
		panic(err)
	}
	return tag
}

var primitiveKinds = map[string]bytecode.TypeKind{
	"bool":    bytecode.KindBool,
	"u8":      bytecode.KindU8,
	"u16":     bytecode.KindU16,
	"u32":     bytecode.KindU32,
	"u64":     bytecode.KindU64,
	"u128":    bytecode.KindU128,
	"u256":    bytecode.KindU256,
	"address": bytecode.KindAddress,
}

type tagParser struct {
	input string
	pos   int
}

func (p *tagParser) parseType() (Tag, error) {
	p.skipSpace()
	word := p.takeWord()
	if word == "" {
		return Tag{}, fmt.Errorf("expected a type at offset %d", p.pos)
	}

	if kind, ok := primitiveKinds[word]; ok {
		return Tag{Kind: kind}, nil
	}

	if word == "vector" {
		if err := p.expect('<'); err != nil {
			return Tag{}, err
		}
		elem, err := p.parseType()
		if err != nil {
			return Tag{}, err
		}
		if err := p.expect('>'); err != nil {
			return Tag{}, err
		}
		return Tag{Kind: bytecode.KindVector, Elem: &elem}, nil
	}

	// Anything else must be a struct reference starting with an
	// address.
	address, err := addr.Parse(word)
	if err != nil {
		return Tag{}, err
	}
	module, err := p.qualifier()
	if err != nil {
		return Tag{}, err
	}
	name, err := p.qualifier()
	if err != nil {
		return Tag{}, err
	}

	structTag := &StructTag{Address: address, Module: module, Name: name}
	p.skipSpace()
	if p.peek() == '<' {
		p.pos++
		for {
			param, err := p.parseType()
			if err != nil {
				return Tag{}, err
			}
			structTag.TypeParams = append(structTag.TypeParams, param)
			p.skipSpace()
			if p.peek() == ',' {
				p.pos++
				continue
			}
			break
		}
		if err := p.expect('>'); err != nil {
			return Tag{}, err
		}
	}
	return Tag{Kind: bytecode.KindStruct, Struct: structTag}, nil
}

// qualifier consumes "::" followed by an identifier.
func (p *tagParser) qualifier() (string, error) {
	if !strings.HasPrefix(p.input[p.pos:], "::") {
		return "", fmt.Errorf("expected \"::\" at offset %d", p.pos)
	}
	p.pos += 2
	word := p.takeWord()
	if word == "" {
		return "", fmt.Errorf("expected an identifier at offset %d", p.pos)
	}
	return word, nil
}

// takeWord consumes a run of identifier characters.
func (p *tagParser) takeWord() string {
	start := p.pos
	for p.pos < len(p.input) {
		c := p.input[p.pos]
		if c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' {
			p.pos++
			continue
		}
		break
	}
	return p.input[start:p.pos]
}

func (p *tagParser) skipSpace() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *tagParser) peek() byte {
	if p.pos < len(p.input) {
		return p.input[p.pos]
	}
	return 0
}

func (p *tagParser) expect(c byte) error {
	p.skipSpace()
	if p.peek() != c {
		return fmt.Errorf("expected %q at offset %d", string(c), p.pos)
	}
	p.pos++
	return nil
}

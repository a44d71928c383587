// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package typelayout

import (
	"strings"

	"github.com/meridian-index/meridian/lib/bytecode"
)

// Layout is the concrete memory layout of a value. It is one of
// [PrimitiveLayout], [VectorLayout], or [StructLayout].
type Layout interface {
	// Tag returns the type reference this layout describes. Struct
	// layouts always carry defining ids, so the tag is canonical.
	Tag() Tag

	render(builder *strings.Builder, indent int)
}

// PrimitiveLayout is the layout of a leaf type.
type PrimitiveLayout struct {
	Kind bytecode.TypeKind
}

// VectorLayout is the layout of a homogeneous vector.
type VectorLayout struct {
	Elem Layout
}

// StructLayout is the layout of a struct: its canonical type (by
// defining id) and its fields in declaration order, each resolved
// against the defining package's declaration.
type StructLayout struct {
	Type   StructTag
	Fields []FieldLayout
}

// FieldLayout is one named field's layout.
type FieldLayout struct {
	Name   string
	Layout Layout
}

// Tag implements Layout.
func (l PrimitiveLayout) Tag() Tag {
	return Tag{Kind: l.Kind}
}

// Tag implements Layout.
func (l VectorLayout) Tag() Tag {
	elem := l.Elem.Tag()
	return Tag{Kind: bytecode.KindVector, Elem: &elem}
}

// Tag implements Layout.
func (l StructLayout) Tag() Tag {
	structTag := l.Type
	return Tag{Kind: bytecode.KindStruct, Struct: &structTag}
}

// Render renders the layout as an indented tree, one line per
// field. Used by the inspection CLI.
func Render(layout Layout) string {
	var builder strings.Builder
	layout.render(&builder, 0)
	return builder.String()
}

func (l PrimitiveLayout) render(builder *strings.Builder, indent int) {
	builder.WriteString(l.Kind.String())
}

func (l VectorLayout) render(builder *strings.Builder, indent int) {
	builder.WriteString("vector of ")
	l.Elem.render(builder, indent)
}

func (l StructLayout) render(builder *strings.Builder, indent int) {
	builder.WriteString(l.Tag().String())
	builder.WriteString(" {")
	for _, field := range l.Fields {
		builder.WriteString("\n")
		builder.WriteString(strings.Repeat("  ", indent+1))
		builder.WriteString(field.Name)
		builder.WriteString(": ")
		field.Layout.render(builder, indent+1)
	}
	builder.WriteString("\n")
	builder.WriteString(strings.Repeat("  ", indent))
	builder.WriteString("}")
}

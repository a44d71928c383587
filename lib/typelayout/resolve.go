// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package typelayout

import (
	"context"
	"fmt"

	"github.com/meridian-index/meridian/lib/addr"
	"github.com/meridian-index/meridian/lib/bytecode"
	"github.com/meridian-index/meridian/lib/packages"
)

// maxResolutionDepth bounds type nesting in both phases. Well-formed
// type terms are finite, but the input is on-chain data; the guard
// turns a maliciously deep or cyclic definition into an error
// instead of a stack overflow.
const maxResolutionDepth = 128

// PackageSource supplies packages during the gather phase. It is
// implemented by *packages.Cache; tests use map-backed fakes.
type PackageSource interface {
	Package(ctx context.Context, id addr.Address) (*packages.Package, error)
}

// Resolver is the one-call face of the two-phase protocol: it builds
// a fresh Context per request, gathers, and resolves.
type Resolver struct {
	// Source supplies packages, normally the package cache.
	Source PackageSource
}

// TypeLayout resolves a concrete type reference to its layout. The
// caller's tag is not modified; gathering canonicalizes struct
// addresses on a private copy.
func (r Resolver) TypeLayout(ctx context.Context, tag Tag) (Layout, error) {
	tag = tag.Clone()
	resolution := NewContext()
	if err := resolution.AddTag(ctx, &tag, r.Source); err != nil {
		return nil, err
	}
	return resolution.Resolve(tag)
}

// structKey identifies one struct declaration in the working set.
type structKey struct {
	pkg    addr.Address
	module string
	name   string
}

// Context is the single-use state of one resolution request: the
// packages gathered so far, keyed by the storage id they were
// fetched under, and the set of struct declarations already walked.
type Context struct {
	packages map[addr.Address]*packages.Package
	visited  map[structKey]bool
}

// NewContext creates an empty resolution context.
func NewContext() *Context {
	return &Context{
		packages: make(map[addr.Address]*packages.Package),
		visited:  make(map[structKey]bool),
	}
}

// Seed registers an already-materialized package under its storage
// id, as if the gather phase had fetched it. Resolve-phase tests use
// this to run without any store.
func (c *Context) Seed(pkg *packages.Package) {
	c.packages[pkg.StorageID] = pkg
}

// AddTag is the gather phase: it fetches every package needed to
// resolve tag, and rewrites each struct reference in tag to name its
// defining id. The only I/O in a resolution request happens here.
func (c *Context) AddTag(ctx context.Context, tag *Tag, source PackageSource) error {
	return c.addTag(ctx, tag, source, 0)
}

func (c *Context) addTag(ctx context.Context, tag *Tag, source PackageSource, depth int) error {
	if depth > maxResolutionDepth {
		return &packages.UnresolvedTypeError{Reference: tag.String(), Reason: "nesting depth limit exceeded"}
	}

	switch tag.Kind {
	case bytecode.KindVector:
		return c.addTag(ctx, tag.Elem, source, depth+1)

	case bytecode.KindStruct:
		s := tag.Struct

		// Resolve the reference to its defining id through the
		// package the caller named.
		named, err := c.fetch(ctx, s.Address, source)
		if err != nil {
			return err
		}
		definingID, err := definingIDIn(named, s.Module, s.Name)
		if err != nil {
			return err
		}
		s.Address = definingID

		if err := c.addStruct(ctx, definingID, s.Module, s.Name, uint32(len(s.TypeParams)), source, depth); err != nil {
			return err
		}
		for i := range s.TypeParams {
			if err := c.addTag(ctx, &s.TypeParams[i], source, depth+1); err != nil {
				return err
			}
		}
		return nil

	case bytecode.KindTypeParam:
		return &packages.UnresolvedTypeError{Reference: tag.String(), Reason: "a concrete type cannot contain a generic parameter"}

	default:
		return nil
	}
}

// addStruct gathers the defining package of one struct and,
// transitively, the packages behind its field types. The visited set
// makes repeated references to the same declaration free.
func (c *Context) addStruct(ctx context.Context, definingID addr.Address, moduleName, structName string, arity uint32, source PackageSource, depth int) error {
	if depth > maxResolutionDepth {
		return &packages.UnresolvedTypeError{
			Reference: fmt.Sprintf("%s::%s::%s", definingID.Short(), moduleName, structName),
			Reason:    "nesting depth limit exceeded",
		}
	}

	pkg, err := c.fetch(ctx, definingID, source)
	if err != nil {
		return err
	}
	module, ok := pkg.Module(moduleName)
	if !ok {
		return &packages.UnresolvedTypeError{
			Reference: fmt.Sprintf("%s::%s::%s", definingID.Short(), moduleName, structName),
			Reason:    "defining package has no such module",
		}
	}
	declaration, ok := module.Bytecode.Struct(structName)
	if !ok {
		return &packages.UnresolvedTypeError{
			Reference: fmt.Sprintf("%s::%s::%s", definingID.Short(), moduleName, structName),
			Reason:    "defining module does not declare this struct",
		}
	}
	if declaration.TypeParams != arity {
		return &packages.UnresolvedTypeError{
			Reference: fmt.Sprintf("%s::%s::%s", definingID.Short(), moduleName, structName),
			Reason:    fmt.Sprintf("%d type arguments for a struct with %d parameters", arity, declaration.TypeParams),
		}
	}

	key := structKey{pkg: definingID, module: moduleName, name: structName}
	if c.visited[key] {
		return nil
	}
	c.visited[key] = true

	for _, field := range declaration.Fields {
		if err := c.addSignature(ctx, pkg, field.Type, source, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// addSignature gathers the packages behind one bytecode type term
// found in pkg's modules. Struct references carry runtime ids, which
// relocate through pkg's linkage table before fetching.
func (c *Context) addSignature(ctx context.Context, pkg *packages.Package, term bytecode.Type, source PackageSource, depth int) error {
	if depth > maxResolutionDepth {
		return &packages.UnresolvedTypeError{Reference: term.Kind.String(), Reason: "nesting depth limit exceeded"}
	}

	switch term.Kind {
	case bytecode.KindVector:
		return c.addSignature(ctx, pkg, *term.Elem, source, depth+1)

	case bytecode.KindStruct:
		ref := term.Struct
		storageID, err := pkg.Relocate(ref.Address)
		if err != nil {
			return err
		}
		referenced, err := c.fetch(ctx, storageID, source)
		if err != nil {
			return err
		}
		definingID, err := definingIDIn(referenced, ref.Module, ref.Name)
		if err != nil {
			return err
		}
		if err := c.addStruct(ctx, definingID, ref.Module, ref.Name, uint32(len(ref.TypeParams)), source, depth+1); err != nil {
			return err
		}
		for _, param := range ref.TypeParams {
			if err := c.addSignature(ctx, pkg, param, source, depth+1); err != nil {
				return err
			}
		}
		return nil

	default:
		// Primitives need no packages; generic parameters are
		// bound by the referencing tag, which is gathered
		// separately.
		return nil
	}
}

// fetch returns the package at id from the working set, consulting
// the source only on first sight.
func (c *Context) fetch(ctx context.Context, id addr.Address, source PackageSource) (*packages.Package, error) {
	if pkg, ok := c.packages[id]; ok {
		return pkg, nil
	}
	pkg, err := source.Package(ctx, id)
	if err != nil {
		return nil, err
	}
	c.packages[id] = pkg
	return pkg, nil
}

// definingIDIn looks up the defining id of moduleName::structName
// within pkg's type-origin data.
func definingIDIn(pkg *packages.Package, moduleName, structName string) (addr.Address, error) {
	module, ok := pkg.Module(moduleName)
	if !ok {
		return addr.Address{}, &packages.UnresolvedTypeError{
			Reference: fmt.Sprintf("%s::%s::%s", pkg.StorageID.Short(), moduleName, structName),
			Reason:    "package has no such module",
		}
	}
	if _, ok := module.Bytecode.Struct(structName); !ok {
		return addr.Address{}, &packages.UnresolvedTypeError{
			Reference: fmt.Sprintf("%s::%s::%s", pkg.StorageID.Short(), moduleName, structName),
			Reason:    "module does not declare this struct",
		}
	}
	definingID, ok := module.DefiningID(structName)
	if !ok {
		return addr.Address{}, &packages.UnresolvedTypeError{
			Reference: fmt.Sprintf("%s::%s::%s", pkg.StorageID.Short(), moduleName, structName),
			Reason:    "no type origin recorded for this struct",
		}
	}
	return definingID, nil
}

// Resolve is the resolve phase: a pure walk over the gathered
// working set. The tag must have been processed by AddTag (or the
// context seeded equivalently), so struct references carry defining
// ids. No I/O happens here, and no store errors can occur — only
// UnresolvedTypeError.
func (c *Context) Resolve(tag Tag) (Layout, error) {
	return c.resolveTag(tag, 0)
}

func (c *Context) resolveTag(tag Tag, depth int) (Layout, error) {
	if depth > maxResolutionDepth {
		return nil, &packages.UnresolvedTypeError{Reference: tag.String(), Reason: "nesting depth limit exceeded"}
	}

	switch tag.Kind {
	case bytecode.KindVector:
		elem, err := c.resolveTag(*tag.Elem, depth+1)
		if err != nil {
			return nil, err
		}
		return VectorLayout{Elem: elem}, nil

	case bytecode.KindStruct:
		s := tag.Struct
		params := make([]Layout, 0, len(s.TypeParams))
		for _, param := range s.TypeParams {
			resolved, err := c.resolveTag(param, depth+1)
			if err != nil {
				return nil, err
			}
			params = append(params, resolved)
		}
		return c.resolveStruct(s.Address, s.Module, s.Name, params, depth)

	case bytecode.KindTypeParam:
		return nil, &packages.UnresolvedTypeError{Reference: tag.String(), Reason: "a concrete type cannot contain a generic parameter"}

	default:
		return PrimitiveLayout{Kind: tag.Kind}, nil
	}
}

// resolveStruct builds a struct layout from its defining package's
// declaration, with the given already-resolved type arguments.
func (c *Context) resolveStruct(definingID addr.Address, moduleName, structName string, params []Layout, depth int) (Layout, error) {
	reference := fmt.Sprintf("%s::%s::%s", definingID.Short(), moduleName, structName)
	if depth > maxResolutionDepth {
		return nil, &packages.UnresolvedTypeError{Reference: reference, Reason: "nesting depth limit exceeded"}
	}

	pkg, ok := c.packages[definingID]
	if !ok {
		return nil, &packages.UnresolvedTypeError{Reference: reference, Reason: "defining package was not gathered"}
	}
	module, ok := pkg.Module(moduleName)
	if !ok {
		return nil, &packages.UnresolvedTypeError{Reference: reference, Reason: "defining package has no such module"}
	}
	declaration, ok := module.Bytecode.Struct(structName)
	if !ok {
		return nil, &packages.UnresolvedTypeError{Reference: reference, Reason: "defining module does not declare this struct"}
	}
	if declaration.TypeParams != uint32(len(params)) {
		return nil, &packages.UnresolvedTypeError{
			Reference: reference,
			Reason:    fmt.Sprintf("%d type arguments for a struct with %d parameters", len(params), declaration.TypeParams),
		}
	}

	paramTags := make([]Tag, 0, len(params))
	for _, param := range params {
		paramTags = append(paramTags, param.Tag())
	}

	fields := make([]FieldLayout, 0, len(declaration.Fields))
	for _, field := range declaration.Fields {
		resolved, err := c.resolveTerm(pkg, field.Type, params, depth+1)
		if err != nil {
			return nil, err
		}
		fields = append(fields, FieldLayout{Name: field.Name, Layout: resolved})
	}

	return StructLayout{
		Type: StructTag{
			Address:    definingID,
			Module:     moduleName,
			Name:       structName,
			TypeParams: paramTags,
		},
		Fields: fields,
	}, nil
}

// resolveTerm resolves one bytecode type term against the package it
// appears in, substituting generic parameters from params.
func (c *Context) resolveTerm(pkg *packages.Package, term bytecode.Type, params []Layout, depth int) (Layout, error) {
	if depth > maxResolutionDepth {
		return nil, &packages.UnresolvedTypeError{Reference: term.Kind.String(), Reason: "nesting depth limit exceeded"}
	}

	switch term.Kind {
	case bytecode.KindVector:
		elem, err := c.resolveTerm(pkg, *term.Elem, params, depth+1)
		if err != nil {
			return nil, err
		}
		return VectorLayout{Elem: elem}, nil

	case bytecode.KindTypeParam:
		if int(term.ParamIndex) >= len(params) {
			return nil, &packages.UnresolvedTypeError{
				Reference: fmt.Sprintf("type parameter %d", term.ParamIndex),
				Reason:    fmt.Sprintf("only %d type arguments are bound", len(params)),
			}
		}
		return params[term.ParamIndex], nil

	case bytecode.KindStruct:
		ref := term.Struct
		storageID, err := pkg.Relocate(ref.Address)
		if err != nil {
			return nil, err
		}
		referenced, ok := c.packages[storageID]
		if !ok {
			return nil, &packages.UnresolvedTypeError{
				Reference: fmt.Sprintf("%s::%s::%s", storageID.Short(), ref.Module, ref.Name),
				Reason:    "referenced package was not gathered",
			}
		}
		definingID, err := definingIDIn(referenced, ref.Module, ref.Name)
		if err != nil {
			return nil, err
		}

		nestedParams := make([]Layout, 0, len(ref.TypeParams))
		for _, param := range ref.TypeParams {
			resolved, err := c.resolveTerm(pkg, param, params, depth+1)
			if err != nil {
				return nil, err
			}
			nestedParams = append(nestedParams, resolved)
		}
		return c.resolveStruct(definingID, ref.Module, ref.Name, nestedParams, depth+1)

	default:
		return PrimitiveLayout{Kind: term.Kind}, nil
	}
}

// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package packages

import (
	"errors"
	"fmt"

	"github.com/meridian-index/meridian/lib/addr"
)

// The resolver's error taxonomy. Every failure surfaces as exactly
// one of these types, wrapped with context via %w where it crosses a
// component boundary. Nothing is retried internally — retries belong
// to the transport below and the caller above.

// NotFoundError reports that an id does not resolve to any known
// object in the store.
type NotFoundError struct {
	ID addr.Address
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("package %s not found", e.ID.Short())
}

// NotAPackageError reports that the object exists but does not carry
// a package payload.
type NotAPackageError struct {
	ID addr.Address
}

func (e *NotAPackageError) Error() string {
	return fmt.Sprintf("object %s is not a package", e.ID.Short())
}

// EmptyPackageError reports a package object with zero modules.
type EmptyPackageError struct {
	ID addr.Address
}

func (e *EmptyPackageError) Error() string {
	return fmt.Sprintf("package %s has no modules", e.ID.Short())
}

// DeserializeError reports malformed bytecode in one module of a
// package.
type DeserializeError struct {
	ID     addr.Address
	Module string
	Err    error
}

func (e *DeserializeError) Error() string {
	return fmt.Sprintf("package %s: module %q: %v", e.ID.Short(), e.Module, e.Err)
}

func (e *DeserializeError) Unwrap() error { return e.Err }

// MissingTypeOriginError reports a struct declared in bytecode with
// no corresponding entry in the package's type-origin table.
type MissingTypeOriginError struct {
	ID     addr.Address
	Module string
	Struct string
}

func (e *MissingTypeOriginError) Error() string {
	return fmt.Sprintf("package %s: no type origin for %s::%s", e.ID.Short(), e.Module, e.Struct)
}

// StorageError reports a failure of the underlying durable table or
// database, as opposed to the id merely being absent.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("package storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// UnresolvedTypeError reports a type reference that cannot be
// resolved against gathered package data: a struct absent from its
// claimed defining module, a dangling linkage entry, or a generic
// parameter out of range.
type UnresolvedTypeError struct {
	Reference string
	Reason    string
}

func (e *UnresolvedTypeError) Error() string {
	return fmt.Sprintf("cannot resolve type %s: %s", e.Reference, e.Reason)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsNotAPackage reports whether err is a NotAPackageError.
func IsNotAPackage(err error) bool {
	var target *NotAPackageError
	return errors.As(err, &target)
}

// IsEmptyPackage reports whether err is an EmptyPackageError.
func IsEmptyPackage(err error) bool {
	var target *EmptyPackageError
	return errors.As(err, &target)
}

// IsDeserialize reports whether err is a DeserializeError.
func IsDeserialize(err error) bool {
	var target *DeserializeError
	return errors.As(err, &target)
}

// IsMissingTypeOrigin reports whether err is a
// MissingTypeOriginError.
func IsMissingTypeOrigin(err error) bool {
	var target *MissingTypeOriginError
	return errors.As(err, &target)
}

// IsStorage reports whether err is a StorageError.
func IsStorage(err error) bool {
	var target *StorageError
	return errors.As(err, &target)
}

// IsUnresolvedType reports whether err is an UnresolvedTypeError.
func IsUnresolvedType(err error) bool {
	var target *UnresolvedTypeError
	return errors.As(err, &target)
}

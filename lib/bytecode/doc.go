// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

// Package bytecode decodes compiled contract modules from their
// binary form ("MVB1").
//
// A module binary carries a header (magic, format version, the
// module's self address, the module name) followed by sections. The
// self address is the runtime id of the package the module was first
// published under — every module in one package binary names the
// same self address, and the package materializer derives the
// package's runtime id from it.
//
// The only section defined by format version 1 is the struct
// section: each struct declares its name, generic arity, and fields,
// with field types encoded as tag-prefixed type terms. Struct
// references inside type terms name packages by runtime id; mapping
// those to storage ids is the linkage table's job, above this
// package.
//
// Decoding is structural only. No semantic verification happens
// here — a module that decodes cleanly may still reference structs
// or packages that do not exist.
package bytecode

// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

// Package typelayout resolves concrete type references into memory
// layouts, pulling in every package the reference depends on.
//
// Resolution is staged in two phases with a hard boundary between
// them:
//
//   - The gather phase ([Context.AddTag]) walks a type reference and
//     fetches, via a [PackageSource] (normally the package cache),
//     every distinct package needed to resolve it: the defining
//     package of each struct, and transitively the packages behind
//     each struct's field types. This is the only phase that
//     performs I/O or can fail with store errors. As a side effect
//     it rewrites each struct reference's address to the struct's
//     defining id, so the finished layout names structs canonically
//     no matter which upgraded dependency path reached them.
//   - The resolve phase ([Context.Resolve]) is a pure function over
//     the gathered working set: it walks the reference and the
//     gathered declarations and builds a [Layout], substituting
//     generic parameters. It performs no I/O, so it can be tested by
//     pre-seeding a Context with declarations and no store at all.
//
// A Context is short-lived: build one per top-level request, use it,
// drop it. [Resolver] packages the two phases behind the one-call
// TypeLayout API.
package typelayout

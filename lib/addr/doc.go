// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

// Package addr defines the fixed-length on-chain address type used
// throughout Meridian to name objects, packages, and accounts.
//
// An [Address] is 32 raw bytes. Its canonical text form is "0x"
// followed by 64 lowercase hex digits; [Parse] also accepts short
// forms ("0x2") which are zero-extended on the left, matching how
// system addresses are written in type references.
//
// Two address roles matter to the resolver and are deliberately the
// same Go type:
//
//   - A storage id names the on-chain object that currently holds a
//     package's bytes. It changes with every package upgrade.
//   - A runtime id is the address baked into a package's bytecode at
//     first publish. It is stable across upgrades and is what
//     dependency references in bytecode use.
//
// [IsSystem] identifies the reserved low range of addresses holding
// system packages — the one case where the object at a fixed storage
// id can legitimately change content over time.
package addr

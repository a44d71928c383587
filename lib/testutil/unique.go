// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"encoding/binary"
	"sync/atomic"

	"github.com/meridian-index/meridian/lib/addr"
)

var uniqueCounter atomic.Uint64

// UniqueAddress returns a distinct, deterministic non-system address
// on each call. The counter lands in the middle of the address so
// the ids never collide with the system range.
func UniqueAddress() addr.Address {
	var a addr.Address
	a[0] = 0x7e
	binary.BigEndian.PutUint64(a[8:16], uniqueCounter.Add(1))
	return a
}

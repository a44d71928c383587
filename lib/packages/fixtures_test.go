// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package packages

import (
	"testing"

	"github.com/meridian-index/meridian/lib/addr"
	"github.com/meridian-index/meridian/lib/bytecode"
	"github.com/meridian-index/meridian/lib/objects"
	"github.com/meridian-index/meridian/lib/testutil"
)

func encodeModule(t *testing.T, module *bytecode.Module) []byte {
	t.Helper()
	return testutil.EncodeModule(t, module)
}

func counterPackageObject(t *testing.T, storageID, runtimeID addr.Address, version uint64) *objects.Object {
	t.Helper()
	return testutil.CounterPackage(t, storageID, runtimeID, version)
}

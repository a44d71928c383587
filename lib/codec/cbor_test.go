// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"bytes"
	"strings"
	"testing"

	"github.com/meridian-index/meridian/lib/addr"
)

// sampleEnvelope mirrors the shape of an object envelope: typed id,
// integer version, opaque payload.
type sampleEnvelope struct {
	ID      addr.Address `cbor:"id"`
	Version uint64       `cbor:"version"`
	Payload []byte       `cbor:"payload,omitempty"`
}

func TestMarshalUnmarshalRoundtrip(t *testing.T) {
	original := sampleEnvelope{
		ID:      addr.MustParse("0xdee9"),
		Version: 42,
		Payload: []byte{0x01, 0x02, 0x03},
	}

	data, err := Marshal(original)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded sampleEnvelope
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.ID != original.ID || decoded.Version != original.Version || !bytes.Equal(decoded.Payload, original.Payload) {
		t.Errorf("roundtrip mismatch: got %+v, want %+v", decoded, original)
	}
}

func TestMarshalDeterministic(t *testing.T) {
	envelope := sampleEnvelope{ID: addr.MustParse("0x2"), Version: 7}

	first, err := Marshal(envelope)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	second, err := Marshal(envelope)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	if !bytes.Equal(first, second) {
		t.Error("identical values produced different encodings")
	}
}

func TestAddressEncodesAsText(t *testing.T) {
	data, err := Marshal(addr.MustParse("0x2"))
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	diagnostic, err := Diagnose(data)
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}
	if !strings.Contains(diagnostic, "\"0x") {
		t.Errorf("address did not encode as a text string: %s", diagnostic)
	}
}

func TestUnknownFieldsIgnored(t *testing.T) {
	// Encode a superset shape and decode into sampleEnvelope: the
	// extra field must be dropped, not rejected. This is the forward
	// compatibility contract for envelope revisions.
	data, err := Marshal(map[string]any{
		"id":      addr.MustParse("0x1").String(),
		"version": uint64(3),
		"owner":   "0xabc",
	})
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded sampleEnvelope
	if err := Unmarshal(data, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded.Version != 3 {
		t.Errorf("version = %d, want 3", decoded.Version)
	}
}

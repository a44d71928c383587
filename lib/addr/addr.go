// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package addr

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/blake3"
)

// Length is the size of an address in bytes.
const Length = 32

// Address is a fixed-length on-chain address. The zero value is the
// reserved null address; use IsZero to test for it.
type Address [Length]byte

// systemBoundary is the exclusive upper bound of the reserved system
// address range: addresses whose 32-byte value, read as a big-endian
// integer, is below 0x0100 name system packages.
const systemBoundary = 0x0100

// Parse parses an address from its text form. The "0x" prefix is
// required. Short hex strings are zero-extended on the left, so
// "0x2" and the full 64-digit form name the same address. Hex digits
// may be upper or lower case.
func Parse(text string) (Address, error) {
	var address Address
	rest, ok := strings.CutPrefix(text, "0x")
	if !ok {
		return address, fmt.Errorf("invalid address %q: missing 0x prefix", text)
	}
	if rest == "" {
		return address, fmt.Errorf("invalid address %q: no hex digits after prefix", text)
	}
	if len(rest) > 2*Length {
		return address, fmt.Errorf("invalid address %q: %d hex digits, max %d", text, len(rest), 2*Length)
	}
	if len(rest)%2 == 1 {
		rest = "0" + rest
	}
	decoded, err := hex.DecodeString(rest)
	if err != nil {
		return address, fmt.Errorf("invalid address %q: %w", text, err)
	}
	copy(address[Length-len(decoded):], decoded)
	return address, nil
}

// MustParse parses an address or panics. For constants and tests.
func MustParse(text string) Address {
	address, err := Parse(text)
	if err != nil {
		panic(err)
	}
	return address
}

// FromBytes constructs an address from exactly Length raw bytes.
func FromBytes(raw []byte) (Address, error) {
	var address Address
	if len(raw) != Length {
		return address, fmt.Errorf("invalid address: %d bytes, want %d", len(raw), Length)
	}
	copy(address[:], raw)
	return address, nil
}

// String returns the canonical text form: "0x" plus 64 lowercase hex
// digits.
func (a Address) String() string {
	return "0x" + hex.EncodeToString(a[:])
}

// Short returns a compact text form with leading zero bytes trimmed,
// e.g. "0x2" for the second system address. The null address renders
// as "0x0".
func (a Address) Short() string {
	trimmed := bytes.TrimLeft(a[:], "\x00")
	if len(trimmed) == 0 {
		return "0x0"
	}
	text := hex.EncodeToString(trimmed)
	// Drop a leading zero nibble so 0x02 renders as 0x2.
	if text[0] == '0' {
		text = text[1:]
	}
	return "0x" + text
}

// IsZero reports whether a is the null address.
func (a Address) IsZero() bool {
	return a == Address{}
}

// IsSystem reports whether a lies in the reserved system package
// range. Objects at system addresses keep their storage id across
// upgrades, so cached packages for them can go stale and must be
// re-validated against the store's current version.
func IsSystem(a Address) bool {
	for _, b := range a[:Length-2] {
		if b != 0 {
			return false
		}
	}
	return binary.BigEndian.Uint16(a[Length-2:]) < systemBoundary
}

// Derive computes the object id assigned to the nonce-th object
// created by publisher. The id is the blake3 digest of the publisher
// address followed by the little-endian nonce, truncated to Length
// bytes. Fixture builders and the publishing side share this rule.
func Derive(publisher Address, nonce uint64) Address {
	hasher := blake3.New()
	hasher.Write(publisher[:])
	var encoded [8]byte
	binary.LittleEndian.PutUint64(encoded[:], nonce)
	hasher.Write(encoded[:])

	var address Address
	copy(address[:], hasher.Sum(nil))
	return address
}

// MarshalText implements encoding.TextMarshaler using the canonical
// form. Addresses therefore serialize as text in CBOR and YAML.
func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := Parse(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

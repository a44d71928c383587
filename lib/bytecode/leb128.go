// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package bytecode

import (
	"errors"
	"io"
)

// ErrOverflow is returned when a ULEB128 value exceeds 32 bits.
var ErrOverflow = errors.New("uleb128: overflow")

// readULEB128 reads an unsigned LEB128 value of at most 32 bits.
func readULEB128(r io.ByteReader) (uint32, error) {
	var result uint32
	var shift uint
	for {
		b, err := r.ReadByte()
		if err != nil {
			return 0, err
		}
		// A fifth byte may carry only the top four bits of a 32-bit
		// value; anything more (including a continuation bit) would
		// shift past bit 31 and wrap.
		if shift == 28 && b > 0x0f {
			return 0, ErrOverflow
		}
		result |= uint32(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

// appendULEB128 appends the unsigned LEB128 encoding of v to buf.
func appendULEB128(buf []byte, v uint32) []byte {
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			buf = append(buf, b|0x80)
			continue
		}
		return append(buf, b)
	}
}

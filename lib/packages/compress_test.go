// Copyright 2026 The Meridian Authors
// SPDX-License-Identifier: Apache-2.0

package packages

import (
	"bytes"
	"testing"

	"github.com/zeebo/blake3"
)

// incompressibleData returns pseudorandom bytes that no codec can
// shrink, built deterministically from chained hashes.
func incompressibleData(size int) []byte {
	data := make([]byte, 0, size)
	digest := blake3.Sum256([]byte("seed"))
	for len(data) < size {
		digest = blake3.Sum256(digest[:])
		data = append(data, digest[:]...)
	}
	return data[:size]
}

func TestCompressRoundTrip(t *testing.T) {
	data := bytes.Repeat([]byte("package bytecode "), 256)

	for _, tag := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd} {
		stored, used, err := compressValue(data, tag)
		if err != nil {
			t.Fatalf("%s: compressValue: %v", tag, err)
		}
		if used != tag {
			t.Errorf("%s: compressValue used %s", tag, used)
		}
		if tag != CompressionNone && len(stored) >= len(data) {
			t.Errorf("%s: stored %d bytes for %d input", tag, len(stored), len(data))
		}

		restored, err := decompressValue(stored, used, len(data))
		if err != nil {
			t.Fatalf("%s: decompressValue: %v", tag, err)
		}
		if !bytes.Equal(restored, data) {
			t.Errorf("%s: round trip corrupted the value", tag)
		}
	}
}

func TestCompressIncompressibleFallsBack(t *testing.T) {
	data := incompressibleData(512)

	for _, tag := range []CompressionTag{CompressionLZ4, CompressionZstd} {
		stored, used, err := compressValue(data, tag)
		if err != nil {
			t.Fatalf("%s: compressValue: %v", tag, err)
		}
		if used != CompressionNone {
			t.Errorf("%s: tag = %s, want fallback to none", tag, used)
		}
		if !bytes.Equal(stored, data) {
			t.Errorf("%s: fallback altered the value", tag)
		}
	}
}

func TestDecompressSizeMismatch(t *testing.T) {
	data := bytes.Repeat([]byte("abc"), 100)

	for _, tag := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd} {
		stored, used, err := compressValue(data, tag)
		if err != nil {
			t.Fatalf("%s: compressValue: %v", tag, err)
		}
		if _, err := decompressValue(stored, used, len(data)-1); err == nil {
			t.Errorf("%s: size mismatch not detected", tag)
		}
	}
}

func TestParseCompressionTag(t *testing.T) {
	for _, tag := range []CompressionTag{CompressionNone, CompressionLZ4, CompressionZstd} {
		parsed, err := ParseCompressionTag(tag.String())
		if err != nil || parsed != tag {
			t.Errorf("ParseCompressionTag(%q) = %v, %v", tag.String(), parsed, err)
		}
	}
	if _, err := ParseCompressionTag("gzip"); err == nil {
		t.Error("unknown tag accepted")
	}
}

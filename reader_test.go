package immeta

import (
	"bytes"
	"testing"
)

func TestReaderSkipUntil(t *testing.T) {
	r := newReader(bytes.NewReader([]byte{0x01, 0x02, 0xFF, 0xC0}))

	found, err := r.skipUntil(0xFF)
	if err != nil {
		t.Fatalf("skipUntil failed: %v", err)
	}
	if !found {
		t.Fatal("delimiter not found")
	}

	// The delimiter itself is consumed; the next byte is the marker type.
	b, err := r.readU8()
	if err != nil {
		t.Fatalf("readU8 failed: %v", err)
	}
	if b != 0xC0 {
		t.Errorf("readU8 = 0x%02X, want 0xC0", b)
	}

	found, err = r.skipUntil(0xFF)
	if err != nil {
		t.Fatalf("skipUntil at EOF failed: %v", err)
	}
	if found {
		t.Error("delimiter reported found past end of stream")
	}
}

func TestReaderReadU16BigEndian(t *testing.T) {
	r := newReader(bytes.NewReader([]byte{0x00, 0x10, 0xAB, 0xCD}))

	v, err := r.readU16()
	if err != nil {
		t.Fatalf("readU16 failed: %v", err)
	}
	if v != 16 {
		t.Errorf("readU16 = %d, want 16", v)
	}

	v, err = r.readU16()
	if err != nil {
		t.Fatalf("readU16 failed: %v", err)
	}
	if v != 0xABCD {
		t.Errorf("readU16 = 0x%04X, want 0xABCD", v)
	}

	if _, err = r.readU16(); !isEOF(err) {
		t.Errorf("readU16 past end = %v, want EOF", err)
	}
}

func TestReaderSkip(t *testing.T) {
	r := newReader(bytes.NewReader([]byte{1, 2, 3, 4, 5}))

	if err := r.skip(4); err != nil {
		t.Fatalf("skip failed: %v", err)
	}

	b, err := r.readU8()
	if err != nil {
		t.Fatalf("readU8 failed: %v", err)
	}
	if b != 5 {
		t.Errorf("readU8 = %d, want 5", b)
	}

	if err := r.skip(1); !isEOF(err) {
		t.Errorf("skip past end = %v, want EOF", err)
	}
}

package immeta

import (
	"bufio"
	"encoding/binary"
	"io"
)

// reader wraps a forward-only byte source with the primitives the marker
// scanner and the header parsers need. The stream is only ever advanced;
// nothing here seeks or buffers beyond what bufio provides.
type reader struct {
	br *bufio.Reader
}

func newReader(r io.Reader) *reader {
	if br, ok := r.(*bufio.Reader); ok {
		return &reader{br: br}
	}

	return &reader{br: bufio.NewReader(r)}
}

// readU8 reads a single byte.
func (r *reader) readU8() (byte, error) {
	return r.br.ReadByte()
}

// readU16 reads a 16-bit big-endian unsigned integer, the byte order of all
// multi-byte fields in the JPEG marker structure.
func (r *reader) readU16() (uint16, error) {
	var buf [2]byte
	if _, err := io.ReadFull(r.br, buf[:]); err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint16(buf[:]), nil
}

// readFull fills buf completely or fails.
func (r *reader) readFull(buf []byte) error {
	_, err := io.ReadFull(r.br, buf)

	return err
}

// skipUntil consumes bytes up to and including the first occurrence of b.
// It reports whether b was found before the end of the stream.
func (r *reader) skipUntil(b byte) (bool, error) {
	for {
		c, err := r.br.ReadByte()
		if err != nil {
			if isEOF(err) {
				return false, nil
			}

			return false, err
		}

		if c == b {
			return true, nil
		}
	}
}

// skip discards exactly n bytes.
func (r *reader) skip(n int) error {
	if n <= 0 {
		return nil
	}

	discarded, err := r.br.Discard(n)
	if err == nil && discarded < n {
		return io.ErrUnexpectedEOF
	}

	return err
}

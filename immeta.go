// Package immeta extracts structural metadata from JPEG-encoded image
// streams without decoding any pixel data: dimensions, sample precision,
// coding process, entropy coding method and the baseline/differential flags,
// all read from the frame header in a single forward pass.
//
// The sole entry point is [Load]. It consumes the caller's stream only as far
// as the Start-Of-Frame segment; entropy-coded scan data is never read.
package immeta

import (
	"fmt"
	"io"
	"unicode/utf8"
)

// Dimensions is the size of an image in pixels, as stored in the stream.
//
// A Height of 0 is syntactically valid: it means the real height is deferred
// to a DNL segment after the first scan. Callers must treat it as "unknown,
// pending", not as a zero-pixel image.
type Dimensions struct {
	Width  uint16
	Height uint16
}

// String implements [fmt.Stringer].
func (d Dimensions) String() string {
	return fmt.Sprintf("%dx%d", d.Width, d.Height)
}

// Metadata holds the information contained in a JPEG frame header, including
// image dimensions, coding process type and entropy coding type. It is
// assembled once per [Load] call and never mutated afterwards.
type Metadata struct {
	// Dimensions is the image size.
	Dimensions Dimensions

	// SamplePrecision is the sample precision in bits.
	SamplePrecision uint8

	// CodingProcess is the image coding process type.
	CodingProcess CodingProcess

	// EntropyCoding is the image entropy coding type.
	EntropyCoding EntropyCoding

	// Baseline reports whether the image uses a baseline DCT encoding (SOF0).
	Baseline bool

	// Differential reports whether the image uses a differential encoding.
	Differential bool

	// Orientation is the EXIF orientation tag (1-8) for EXIF-wrapped streams
	// that carry one, and 0 otherwise.
	Orientation uint16
}

// containerType routes parsing after the first APPn segment is classified.
type containerType int

const (
	containerJFIF containerType = iota + 1
	containerEXIF
)

// Load reads JPEG metadata from r. The stream is read strictly forward and
// only as far as the frame header; it is never rewound. Load keeps no state
// between calls, so independent readers over the same bytes yield equal
// Metadata values.
//
// Failures are terminal for the call and satisfy errors.Is against either
// [ErrUnexpectedEOF] or [ErrInvalidFormat].
func Load(r io.Reader) (Metadata, error) {
	rd := newReader(r)

	// The SOI marker must be present in all JPEG files.
	if _, err := findMarker(rd, "SOI", func(m byte) bool { return m == markerSOI }); err != nil {
		return Metadata{}, err
	}

	// The APPn segment right after SOI decides whether the stream is stored
	// as JFIF or as EXIF. Some cameras write EXIF where others write JFIF, so
	// both APP0 and APP1 are accepted here and the identifier string inside
	// the segment decides.
	if _, err := findMarker(rd, "APP", isAppMarker); err != nil {
		return Metadata{}, err
	}

	length, err := rd.readU16()
	if err != nil {
		if isEOF(err) {
			return Metadata{}, eofErrf("when reading APP marker size")
		}

		return Metadata{}, err
	}
	// 2 length bytes plus at least a 6-byte identifier region.
	if length <= 8 {
		return Metadata{}, formatErrf("invalid JPEG APP header length: %d", length)
	}

	var ident [4]byte
	if err := rd.readFull(ident[:]); err != nil {
		if isEOF(err) {
			return Metadata{}, eofErrf("when reading APP segment identifier")
		}

		return Metadata{}, err
	}
	if !utf8.Valid(ident[:]) {
		return Metadata{}, formatErrf("non-UTF-8 JPEG APP segment identifier: % x", ident)
	}

	// Payload bytes left in the segment after the length field and the
	// 4-byte identifier.
	remaining := int(length) - 2 - len(ident)

	switch classifyContainer(ident) {
	case containerJFIF:
		// The rest of the JFIF APP0 payload (version, density, thumbnail
		// size) carries nothing the frame header doesn't, skip it whole.
		if err := rd.skip(remaining); err != nil {
			if isEOF(err) {
				return Metadata{}, eofErrf("when skipping APP0 segment payload")
			}

			return Metadata{}, err
		}

		return loadFrameHeader(rd)
	case containerEXIF:
		return loadExif(rd, remaining)
	}

	return Metadata{}, formatErrf("JPEG file is neither JFIF nor EXIF (identifier %q)", ident[:])
}

// classifyContainer maps the APPn identifier string to a container type.
// It returns 0 for unrecognized identifiers.
func classifyContainer(ident [4]byte) containerType {
	switch string(ident[:]) {
	case "JFIF":
		return containerJFIF
	case "Exif":
		return containerEXIF
	}

	return 0
}

package immeta

// JPEG marker type bytes. A marker is 0xFF followed by one of these; a 0x00
// type byte is not a marker but a stuffed literal 0xFF inside entropy-coded
// data.
const (
	markerTEM  = 0x01
	markerSOF0 = 0xC0 // SOFn = SOF0+n, n = 0-15 excluding 4, 8 and 12
	markerDHT  = 0xC4
	markerJPG  = 0xC8
	markerDAC  = 0xCC
	markerRST0 = 0xD0 // RSTn = RST0+n, n = 0-7
	markerSOI  = 0xD8
	markerEOI  = 0xD9
	markerAPP0 = 0xE0 // APPn = APP0+n, n = 0-15
	markerAPP1 = 0xE1
)

// isSOFMarker reports whether m is a Start-Of-Frame marker. 0xC4, 0xC8 and
// 0xCC sit inside the SOF range but are DHT, JPG and DAC markers, not frame
// headers.
func isSOFMarker(m byte) bool {
	switch m {
	case 0xC0, 0xC1, 0xC2, 0xC3, 0xC5, 0xC6, 0xC7,
		0xC9, 0xCA, 0xCB, 0xCD, 0xCE, 0xCF:
		return true
	}

	return false
}

// isAppMarker reports whether m is one of the APPn markers that can open a
// JFIF (APP0) or EXIF (APP1) container.
func isAppMarker(m byte) bool {
	return m == markerAPP0 || m == markerAPP1
}

// hasPayload reports whether a marker is followed by a length-prefixed
// segment. SOI, EOI, TEM and the restart markers stand alone.
func hasPayload(m byte) bool {
	switch {
	case m == markerTEM, m == markerSOI, m == markerEOI:
		return false
	case m >= markerRST0 && m <= markerRST0+7:
		return false
	}

	return true
}

// findMarker advances the stream to the next marker whose type byte satisfies
// match. A 0x00 candidate is a stuffed byte and is discarded; 0xFF candidates
// are fill bytes preceding the real type byte and are consumed. A candidate
// that fails match is skipped and the scan resumes after it.
//
// name identifies the search in the ErrUnexpectedEOF message when the stream
// ends first.
func findMarker(r *reader, name string, match func(byte) bool) (byte, error) {
	for {
		found, err := r.skipUntil(0xFF)
		if err != nil {
			return 0, err
		}
		if !found {
			return 0, eofErrf("when searching for %s marker", name)
		}

		marker, err := r.readU8()
		for err == nil && marker == 0xFF {
			// Fill bytes before the marker type are legal padding.
			marker, err = r.readU8()
		}
		if err != nil {
			if isEOF(err) {
				return 0, eofErrf("when reading marker type")
			}

			return 0, err
		}

		if marker == 0x00 {
			continue // stuffed byte, not a marker
		}

		if match(marker) {
			return marker, nil
		}
	}
}

// findSegment scans like findMarker but consumes the declared payload of
// every rejected marker that carries one, so that payload bytes can never be
// mistaken for markers. It requires the stream to be positioned between
// segments.
func findSegment(r *reader, name string, match func(byte) bool) (byte, error) {
	anyMarker := func(byte) bool { return true }

	for {
		marker, err := findMarker(r, name, anyMarker)
		if err != nil {
			return 0, err
		}

		if match(marker) {
			return marker, nil
		}

		if !hasPayload(marker) {
			continue
		}

		length, err := r.readU16()
		if err != nil {
			if isEOF(err) {
				return 0, eofErrf("when reading marker 0x%02X segment length", marker)
			}

			return 0, err
		}
		if length < 2 {
			return 0, formatErrf("invalid JPEG segment length: %d", length)
		}

		if err := r.skip(int(length) - 2); err != nil {
			if isEOF(err) {
				return 0, eofErrf("when skipping marker 0x%02X segment payload", marker)
			}

			return 0, err
		}
	}
}

// CodingProcess is the coding process used in an image, derived from the
// Start-Of-Frame marker code.
type CodingProcess int

const (
	// DctSequential is sequential DCT (discrete cosine transform) coding.
	DctSequential CodingProcess = iota + 1
	// DctProgressive is progressive DCT coding.
	DctProgressive
	// Lossless is lossless coding.
	Lossless
)

// String implements [fmt.Stringer].
func (p CodingProcess) String() string {
	switch p {
	case DctSequential:
		return "Sequential DCT"
	case DctProgressive:
		return "Progressive DCT"
	case Lossless:
		return "Lossless"
	}

	return "Unknown"
}

// codingProcessFromMarker maps a SOF marker code to its coding process.
// It returns 0 for the three non-SOF codes in the SOF range; inside a valid
// SOF marker the mapping is total.
func codingProcessFromMarker(marker byte) CodingProcess {
	switch marker {
	case 0xC0, 0xC1, 0xC5, 0xC9, 0xCD:
		return DctSequential
	case 0xC2, 0xC6, 0xCA, 0xCE:
		return DctProgressive
	case 0xC3, 0xC7, 0xCB, 0xCF:
		return Lossless
	}

	return 0
}

// EntropyCoding is the entropy coding method used in an image, derived from
// the Start-Of-Frame marker code.
type EntropyCoding int

const (
	// Huffman coding.
	Huffman EntropyCoding = iota + 1
	// Arithmetic coding.
	Arithmetic
)

// String implements [fmt.Stringer].
func (e EntropyCoding) String() string {
	switch e {
	case Huffman:
		return "Huffman"
	case Arithmetic:
		return "Arithmetic"
	}

	return "Unknown"
}

// entropyCodingFromMarker maps a SOF marker code to its entropy coding
// method. Like codingProcessFromMarker, the mapping is total inside a valid
// SOF marker.
func entropyCodingFromMarker(marker byte) EntropyCoding {
	switch marker {
	case 0xC0, 0xC1, 0xC2, 0xC3, 0xC5, 0xC6, 0xC7:
		return Huffman
	case 0xC9, 0xCA, 0xCB, 0xCD, 0xCE, 0xCF:
		return Arithmetic
	}

	return 0
}

// isDifferentialMarker reports whether a SOF marker code selects differential
// coding, where frame data is coded relative to a previous frame rather than
// absolutely.
func isDifferentialMarker(marker byte) bool {
	switch marker {
	case 0xC5, 0xC6, 0xC7, 0xCD, 0xCE, 0xCF:
		return true
	}

	return false
}

// loadFrameHeader locates the Start-Of-Frame segment and decodes it into
// Metadata. Nothing past the fixed header fields is consumed; scan data and
// subsequent segments are left unread.
func loadFrameHeader(r *reader) (Metadata, error) {
	// The SOF marker must be present in all JPEG files. Payloads of rejected
	// segments (DHT, DQT, COM, other APPn...) are skipped by their declared
	// length so their bytes cannot masquerade as markers.
	marker, err := findSegment(r, "SOF", isSOFMarker)
	if err != nil {
		return Metadata{}, err
	}

	size, err := r.readU16()
	if err != nil {
		if isEOF(err) {
			return Metadata{}, eofErrf("when reading SOF marker payload size")
		}

		return Metadata{}, err
	}
	// 2 bytes for the length itself, 6 bytes is the minimum header size.
	if size <= 8 {
		return Metadata{}, formatErrf("invalid JPEG frame header size: %d", size)
	}

	precision, err := r.readU8()
	if err != nil {
		if isEOF(err) {
			return Metadata{}, eofErrf("when reading sample precision of the frame")
		}

		return Metadata{}, err
	}

	// Field order on the wire is height first, then width.
	h, err := r.readU16()
	if err != nil {
		if isEOF(err) {
			return Metadata{}, eofErrf("when reading JPEG frame height")
		}

		return Metadata{}, err
	}

	w, err := r.readU16()
	if err != nil {
		if isEOF(err) {
			return Metadata{}, eofErrf("when reading JPEG frame width")
		}

		return Metadata{}, err
	}
	// h == 0 means the height is deferred to a DNL segment after the first
	// scan; it is passed through as-is.

	return Metadata{
		Dimensions:      Dimensions{Width: w, Height: h},
		SamplePrecision: precision,
		CodingProcess:   codingProcessFromMarker(marker),
		EntropyCoding:   entropyCodingFromMarker(marker),
		Baseline:        marker == markerSOF0, // there is only one baseline DCT marker
		Differential:    isDifferentialMarker(marker),
	}, nil
}

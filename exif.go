package immeta

// TIFF tags the EXIF path cares about: the width/height/precision
// equivalents of the frame header fields, plus the orientation tag.
const (
	tagImageWidth    = 0x0100
	tagImageLength   = 0x0101
	tagBitsPerSample = 0x0102
	tagOrientation   = 0x0112
)

// TIFF field data types.
const (
	typeUnsignedByte     = 1
	typeASCIIString      = 2
	typeUnsignedShort    = 3
	typeUnsignedLong     = 4
	typeUnsignedRational = 5
	typeSignedByte       = 6
	typeUndefined        = 7
	typeSignedShort      = 8
	typeSignedLong       = 9
	typeSignedRational   = 10
	typeSingleFloat      = 11
	typeDoubleFloat      = 12
)

// exifReader wraps the TIFF block of an APP1 segment with bounds-checked,
// endianness-aware integer reads. All offsets are relative to the start of
// the TIFF header, which is how the structure's own offsets are expressed.
type exifReader struct {
	data         []byte
	littleEndian bool
}

func (r *exifReader) uint16(offset int) uint16 {
	if offset < 0 || offset+1 >= len(r.data) {
		return 0
	}
	if r.littleEndian {
		return uint16(r.data[offset]) | (uint16(r.data[offset+1]) << 8)
	}

	return (uint16(r.data[offset]) << 8) | uint16(r.data[offset+1])
}

func (r *exifReader) uint32(offset int) uint32 {
	if offset < 0 || offset+3 >= len(r.data) {
		return 0
	}
	if r.littleEndian {
		return uint32(r.data[offset]) | (uint32(r.data[offset+1]) << 8) |
			(uint32(r.data[offset+2]) << 16) | (uint32(r.data[offset+3]) << 24)
	}

	return (uint32(r.data[offset]) << 24) | (uint32(r.data[offset+1]) << 16) |
		(uint32(r.data[offset+2]) << 8) | uint32(r.data[offset+3])
}

// exifIFD holds the values extracted from IFD0. Zero means "tag absent".
type exifIFD struct {
	width       uint32
	height      uint32
	precision   uint16
	orientation uint16
}

// loadExif parses the remainder of an APP1 segment whose identifier was
// "Exif" and then continues to the frame header, which stays authoritative
// for everything the TIFF block merely mirrors.
//
// remaining is the number of payload bytes left in the segment after the
// 4-byte identifier, as declared by the segment length; the TIFF block is
// bounded by it, so exactly the APP1 payload is consumed.
func loadExif(r *reader, remaining int) (Metadata, error) {
	// The identifier region is "Exif" followed by two null bytes.
	var pad [2]byte
	if err := r.readFull(pad[:]); err != nil {
		if isEOF(err) {
			return Metadata{}, eofErrf("when reading EXIF identifier padding")
		}

		return Metadata{}, err
	}
	if pad[0] != 0 || pad[1] != 0 {
		return Metadata{}, formatErrf("JPEG file with APP1 marker is not EXIF")
	}

	// The TIFF header alone is 8 bytes: byte order, magic, first IFD offset.
	tiffLen := remaining - len(pad)
	if tiffLen < 8 {
		return Metadata{}, formatErrf("EXIF data too short: %d bytes", tiffLen)
	}

	block := make([]byte, tiffLen)
	if err := r.readFull(block); err != nil {
		if isEOF(err) {
			return Metadata{}, eofErrf("when reading EXIF TIFF block")
		}

		return Metadata{}, err
	}

	er := &exifReader{data: block}
	switch {
	case block[0] == 0x49 && block[1] == 0x49: // II (Intel)
		er.littleEndian = true
	case block[0] == 0x4D && block[1] == 0x4D: // MM (Motorola)
		er.littleEndian = false
	default:
		return Metadata{}, formatErrf("invalid EXIF byte order marker: % x", block[:2])
	}

	if magic := er.uint16(2); magic != 42 {
		return Metadata{}, formatErrf("invalid EXIF magic number: %d", magic)
	}

	ifdOffset := er.uint32(4)
	if ifdOffset < 8 || int(ifdOffset) >= len(block) {
		return Metadata{}, formatErrf("invalid EXIF IFD offset: %d", ifdOffset)
	}

	ifd := parseIFD0(er, int(ifdOffset))

	// Coding process and entropy coding exist only in the frame header, so
	// the scan continues there; the stream now sits right after the APP1
	// segment.
	md, err := loadFrameHeader(r)
	if err != nil {
		return Metadata{}, err
	}

	if ifd.orientation >= 1 && ifd.orientation <= 8 {
		md.Orientation = ifd.orientation
	}

	// The IFD values stand in only for fields the frame header left
	// unresolved: a deferred (DNL) height or a zero precision.
	if md.Dimensions.Height == 0 && ifd.height > 0 && ifd.height <= 0xFFFF {
		md.Dimensions.Height = uint16(ifd.height)
	}
	if md.Dimensions.Width == 0 && ifd.width > 0 && ifd.width <= 0xFFFF {
		md.Dimensions.Width = uint16(ifd.width)
	}
	if md.SamplePrecision == 0 && ifd.precision > 0 && ifd.precision <= 0xFF {
		md.SamplePrecision = uint8(ifd.precision)
	}

	return md, nil
}

// parseIFD0 walks the first Image File Directory. Entries are 12 bytes: tag,
// type, count, then a value field that holds the value itself when it fits in
// 4 bytes and an offset to it otherwise. Truncated or inconsistent entries
// degrade to absent tags rather than errors.
func parseIFD0(er *exifReader, offset int) exifIFD {
	var ifd exifIFD

	if offset+1 >= len(er.data) {
		return ifd
	}

	numEntries := int(er.uint16(offset))
	offset += 2

	for i := 0; i < numEntries; i++ {
		entryOffset := offset + i*12
		if entryOffset+11 >= len(er.data) {
			break
		}

		tag := er.uint16(entryOffset)
		dataType := er.uint16(entryOffset + 2)
		count := er.uint32(entryOffset + 4)
		valueOffset := entryOffset + 8

		// Values wider than 4 bytes live elsewhere in the block.
		if getDataSize(dataType, count) > 4 {
			valueOffset = int(er.uint32(valueOffset))
			if valueOffset >= len(er.data) {
				continue
			}
		}

		switch tag {
		case tagImageWidth:
			if dataType == typeUnsignedShort {
				ifd.width = uint32(er.uint16(valueOffset))
			} else if dataType == typeUnsignedLong {
				ifd.width = er.uint32(valueOffset)
			}
		case tagImageLength:
			if dataType == typeUnsignedShort {
				ifd.height = uint32(er.uint16(valueOffset))
			} else if dataType == typeUnsignedLong {
				ifd.height = er.uint32(valueOffset)
			}
		case tagBitsPerSample:
			// Stored per component; the components share a precision, so the
			// first value suffices.
			if dataType == typeUnsignedShort && count >= 1 {
				ifd.precision = er.uint16(valueOffset)
			}
		case tagOrientation:
			if dataType == typeUnsignedShort && count == 1 {
				ifd.orientation = er.uint16(valueOffset)
			}
		}
	}

	return ifd
}

// getDataSize calculates the size in bytes of a TIFF field value for a given
// data type and count.
func getDataSize(dataType uint16, count uint32) int {
	var componentSize int
	switch dataType {
	case typeUnsignedByte, typeSignedByte, typeASCIIString, typeUndefined:
		componentSize = 1
	case typeUnsignedShort, typeSignedShort:
		componentSize = 2
	case typeUnsignedLong, typeSignedLong, typeSingleFloat:
		componentSize = 4
	case typeUnsignedRational, typeSignedRational, typeDoubleFloat:
		componentSize = 8
	default:
		componentSize = 1
	}

	return componentSize * int(count)
}

package ustar

/*
	ParseOctal decodes a fixed-width ASCII-octal numeric field.

	Leading spaces and zeros are padding.  Decoding stops at the first NUL,
	or at the first space once digits have begun.
	An empty or all-padding field is zero, and so is a field holding any
	character that is not an octal digit: tar readers are expected to be
	tolerant of junk in numeric fields, so we degrade rather than fail.
*/
func ParseOctal(field []byte) uint64 {
	var result uint64
	stillPadding := true
	for _, c := range field {
		if c == 0 {
			break
		}
		if c == ' ' || c == '0' {
			if stillPadding {
				continue
			}
			if c == ' ' {
				break
			}
		}
		if c < '0' || c > '7' {
			return 0
		}
		stillPadding = false
		result = (result << 3) + uint64(c-'0')
	}
	return result
}

/*
	FormatOctal encodes v into a new field of the given length:
	length-2 octal digits, right-justified and space padded, followed by
	a space and a NUL.

	Zero is written as a single '0' digit, never as a blank field.
	Values too large for the field silently lose their high digits.
*/
func FormatOctal(v uint64, length int) []byte {
	field := make([]byte, length)
	putOctal(field, v)
	return field
}

/*
	FormatChecksumOctal is FormatOctal with the terminators swapped:
	the checksum field ends in a NUL followed by a space.
*/
func FormatChecksumOctal(v uint64, length int) []byte {
	field := make([]byte, length)
	putChecksumOctal(field, v)
	return field
}

func putOctal(dst []byte, v uint64) {
	idx := len(dst) - 1
	dst[idx] = 0
	idx--
	dst[idx] = ' '
	idx--
	putDigits(dst[:idx+1], v)
}

func putChecksumOctal(dst []byte, v uint64) {
	putOctal(dst, v)
	dst[len(dst)-1] = ' '
	dst[len(dst)-2] = 0
}

// Size and mtime get one more digit than other fields: the terminating
// NUL is dropped, leaving length-1 digits and a trailing space.
func putLongOctal(dst []byte, v uint64) {
	idx := len(dst) - 1
	dst[idx] = ' '
	putDigits(dst[:idx], v)
}

// Right-justified digits, space padded on the left.
func putDigits(dst []byte, v uint64) {
	idx := len(dst) - 1
	if v == 0 && idx >= 0 {
		dst[idx] = '0'
		idx--
	}
	for ; idx >= 0 && v > 0; idx-- {
		dst[idx] = '0' + byte(v&7)
		v >>= 3
	}
	for ; idx >= 0; idx-- {
		dst[idx] = ' '
	}
}

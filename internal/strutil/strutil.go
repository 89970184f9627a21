package strutil

// EqualFold reports whether two ASCII strings match case-insensitively.
// Unlike strings.EqualFold it doesn't bother with Unicode, which octet-based
// protocol elements never contain anyway.
func EqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}

	for i := range a {
		if a[i]|0x20 != b[i]|0x20 {
			return false
		}
	}

	return true
}

// LStripWS strips leading spaces and horizontal tabs.
func LStripWS(b []byte) []byte {
	for i, c := range b {
		switch c {
		case ' ', '\t':
		default:
			return b[i:]
		}
	}

	return b[:0]
}

// RStripWS strips trailing spaces and horizontal tabs.
func RStripWS(b []byte) []byte {
	for i := len(b); i > 0; i-- {
		switch b[i-1] {
		case ' ', '\t':
		default:
			return b[:i]
		}
	}

	return b[:0]
}

// StripWS strips whitespace on both ends.
func StripWS(b []byte) []byte {
	return LStripWS(RStripWS(b))
}

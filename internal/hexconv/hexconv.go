package hexconv

// Invalid marks table entries of characters which aren't hexadecimal digits.
const Invalid = 0xff

// Halfbyte maps an ASCII character to the value of the hex digit it stands for.
var Halfbyte = [256]byte{}

func init() {
	for i := range Halfbyte {
		switch c := byte(i); {
		case c >= '0' && c <= '9':
			Halfbyte[i] = c - '0'
		case c >= 'a' && c <= 'f':
			Halfbyte[i] = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			Halfbyte[i] = c - 'A' + 10
		default:
			Halfbyte[i] = Invalid
		}
	}
}

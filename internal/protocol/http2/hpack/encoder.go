package hpack

// AppendIndexed appends an indexed field line referencing a table entry.
func AppendIndexed(dst []byte, index uint64) []byte {
	return EncodeInt(dst, index, 7, 0x80)
}

// AppendLiteralField appends a field line carrying both name and value as
// plain literals, without indexing and without Huffman coding.
func AppendLiteralField(dst []byte, name, value string) []byte {
	dst = append(dst, 0x00)
	dst = appendString(dst, name)

	return appendString(dst, value)
}

// AppendIndexedNameField appends a field line whose name references a table
// entry while the value stays a plain literal, without indexing.
func AppendIndexedNameField(dst []byte, nameIndex uint64, value string) []byte {
	dst = EncodeInt(dst, nameIndex, 4, 0x00)

	return appendString(dst, value)
}

// AppendTableSizeUpdate appends a dynamic table capacity update.
func AppendTableSizeUpdate(dst []byte, capacity uint32) []byte {
	return EncodeInt(dst, uint64(capacity), 5, 0x20)
}

func appendString(dst []byte, s string) []byte {
	dst = EncodeInt(dst, uint64(len(s)), 7, 0x00)

	return append(dst, s...)
}

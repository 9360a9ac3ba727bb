package bytecodec

// Signed builds a byte slice from signed literals, e.g. Signed(-101, 32, -87).
func Signed(vals ...int8) []byte {
	out := make([]byte, len(vals))
	for i, v := range vals {
		out[i] = byte(v)
	}
	return out
}

// Ints returns the signed view of data.
func Ints(data []byte) []int8 {
	out := make([]int8, len(data))
	for i, b := range data {
		out[i] = int8(b)
	}
	return out
}

// Residue reduces x into 0..255 regardless of sign.
func Residue(x int) byte {
	return byte(((x % 256) + 256) % 256)
}

// Add returns b+k in modular byte arithmetic, both read as signed values.
func Add(b, k byte) byte {
	return Residue(int(int8(b)) + int(int8(k)))
}

// Neg returns the arithmetic negation of k as a signed byte.
func Neg(k byte) byte {
	return Residue(-int(int8(k)))
}

// Index maps a byte onto 0..255 by shifting its signed value up by 128.
func Index(b byte) int {
	return int(int8(b)) + 128
}

// FromIndex is the inverse of Index.
func FromIndex(i int) byte {
	return Residue(i - 128)
}

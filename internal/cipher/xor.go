package cipher

// XOR combines every byte of input with key. It is its own inverse and
// follows the same space rule as Caesar.
func XOR(input []byte, key byte, encodeSpaces bool) []byte {
	out := make([]byte, len(input))
	for i, b := range input {
		if b == space && !encodeSpaces {
			out[i] = b
			continue
		}
		out[i] = b ^ key
	}
	return out
}

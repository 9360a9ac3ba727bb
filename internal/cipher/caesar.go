package cipher

import "github.com/RowanDark/cryptolab/internal/bytecodec"

const space byte = ' '

// Caesar shifts every byte of input by key modulo 256. Spaces are left as is
// unless encodeSpaces is set. Decoding is Caesar(cipher, -key).
func Caesar(input []byte, key byte, encodeSpaces bool) []byte {
	out := make([]byte, len(input))
	for i, b := range input {
		if b == space && !encodeSpaces {
			out[i] = b
			continue
		}
		out[i] = bytecodec.Add(b, key)
	}
	return out
}

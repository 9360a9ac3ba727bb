package cipher

import "github.com/RowanDark/cryptolab/internal/bytecodec"

// Vigenere applies a repeating Caesar shift. The key cursor only advances on
// bytes that are transformed, so skipped spaces do not consume key material.
func Vigenere(input, key []byte, encodeSpaces bool) ([]byte, error) {
	if err := requireKey("vigenere key", key); err != nil {
		return nil, err
	}

	out := make([]byte, len(input))
	cursor := 0
	for i, b := range input {
		if b == space && !encodeSpaces {
			out[i] = b
			continue
		}
		out[i] = bytecodec.Add(b, key[cursor])
		cursor = (cursor + 1) % len(key)
	}
	return out, nil
}

// Negate returns the component-wise arithmetic negation of key, which turns
// a Vigenère encoding key into its decoding key.
func Negate(key []byte) []byte {
	out := make([]byte, len(key))
	for i, k := range key {
		out[i] = bytecodec.Neg(k)
	}
	return out
}

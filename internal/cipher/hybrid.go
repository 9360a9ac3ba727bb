package cipher

// BlockTrace receives every block emitted by the CBC-Vigenère hybrid. block is
// the zero-based block number; pad and output alias internal buffers and are
// only valid for the duration of the call.
type BlockTrace func(block int, pad, output []byte)

// HybridEncrypt runs CBC chaining with a Vigenère block function. Plaintext is
// XORed into the pad; when the pad fills up, or the input ends, the whole pad
// is Vigenère-encoded with key and the leading bytes become ciphertext.
func HybridEncrypt(input, iv, key []byte) ([]byte, error) {
	return HybridEncryptTrace(input, iv, key, nil)
}

// HybridEncryptTrace is HybridEncrypt with a per-block callback.
func HybridEncryptTrace(input, iv, key []byte, trace BlockTrace) ([]byte, error) {
	if err := requireKey("iv", iv); err != nil {
		return nil, err
	}
	if err := requireKey("block key", key); err != nil {
		return nil, err
	}

	pad := append([]byte(nil), iv...)
	out := make([]byte, 0, len(input))
	block := 0
	for i, p := range input {
		idx := i % len(pad)
		pad[idx] ^= p
		if idx != len(pad)-1 && i != len(input)-1 {
			continue
		}

		enc, err := Vigenere(pad, key, true)
		if err != nil {
			return nil, err
		}
		pad = enc
		emit := pad[:idx+1]
		out = append(out, emit...)
		if trace != nil {
			trace(block, pad, emit)
		}
		block++
	}
	return out, nil
}

// HybridDecrypt inverts HybridEncrypt. Each ciphertext block is Vigenère
// decoded, XORed with the previous pad, and then becomes the next pad.
func HybridDecrypt(input, iv, key []byte) ([]byte, error) {
	if err := requireKey("iv", iv); err != nil {
		return nil, err
	}
	if err := requireKey("block key", key); err != nil {
		return nil, err
	}

	inverse := Negate(key)
	pad := append([]byte(nil), iv...)
	block := make([]byte, len(pad))
	out := make([]byte, len(input))
	start := 0
	for i, c := range input {
		idx := i % len(pad)
		block[idx] = c
		if idx != len(pad)-1 && i != len(input)-1 {
			continue
		}

		// Slots past idx hold the previous block on a short final block;
		// they decode to garbage that is never read.
		dec, err := Vigenere(block, inverse, true)
		if err != nil {
			return nil, err
		}
		for j := 0; j <= idx; j++ {
			out[start+j] = dec[j] ^ pad[j]
			pad[j] = input[start+j]
		}
		start = i + 1
	}
	return out, nil
}

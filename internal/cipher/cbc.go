package cipher

// CBCEncrypt chains input through a working pad seeded from iv. Every
// ciphertext byte is fed back into the pad slot it was produced from.
func CBCEncrypt(input, iv []byte) ([]byte, error) {
	if err := requireKey("iv", iv); err != nil {
		return nil, err
	}

	pad := append([]byte(nil), iv...)
	out := make([]byte, len(input))
	for i, b := range input {
		idx := i % len(pad)
		out[i] = b ^ pad[idx]
		pad[idx] = out[i]
	}
	return out, nil
}

// CBCDecrypt inverts CBCEncrypt. The ciphertext byte, not the recovered
// plaintext, re-enters the pad.
func CBCDecrypt(input, iv []byte) ([]byte, error) {
	if err := requireKey("iv", iv); err != nil {
		return nil, err
	}

	pad := append([]byte(nil), iv...)
	out := make([]byte, len(input))
	for i, c := range input {
		idx := i % len(pad)
		out[i] = c ^ pad[idx]
		pad[idx] = c
	}
	return out, nil
}

package cipher

import "fmt"

// OneTimePad XORs input with the leading bytes of pad. The pad must be at
// least as long as the input.
func OneTimePad(input, pad []byte) ([]byte, error) {
	if len(pad) < len(input) {
		return nil, fmt.Errorf("%w: pad has %d bytes, input has %d", ErrInvalidKeyLength, len(pad), len(input))
	}

	out := make([]byte, len(input))
	for i, b := range input {
		out[i] = b ^ pad[i]
	}
	return out, nil
}

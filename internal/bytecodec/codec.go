// Package bytecodec maps between the Latin-1 text representation used at the
// edges of cryptolab and the byte sequences the ciphers operate on.
//
// Every byte value 0x00..0xFF corresponds to exactly one rune U+0000..U+00FF,
// so the signed range -128..127 round-trips through text without loss.
package bytecodec

import (
	"errors"
	"fmt"

	"golang.org/x/text/encoding/charmap"
)

// ErrUnrepresentable is returned when text contains a rune outside Latin-1.
var ErrUnrepresentable = errors.New("text is not representable as latin-1")

// Encode converts text into its byte sequence.
func Encode(text string) ([]byte, error) {
	for i, r := range text {
		if r > 0xFF {
			return nil, fmt.Errorf("%w: rune %U at offset %d", ErrUnrepresentable, r, i)
		}
	}
	out, err := charmap.ISO8859_1.NewEncoder().Bytes([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnrepresentable, err)
	}
	return out, nil
}

// MustEncode is Encode for literals known to be Latin-1. It panics otherwise.
func MustEncode(text string) []byte {
	out, err := Encode(text)
	if err != nil {
		panic(err)
	}
	return out
}

// Decode converts a byte sequence back into text. It never fails.
func Decode(data []byte) string {
	out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
	if err != nil {
		// ISO-8859-1 defines every byte, the decoder cannot reject input.
		panic(fmt.Sprintf("bytecodec: latin-1 decode: %v", err))
	}
	return string(out)
}

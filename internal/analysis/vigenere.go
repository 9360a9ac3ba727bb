package analysis

import (
	"fmt"

	"github.com/RowanDark/cryptolab/internal/cipher"
)

// Columns splits text into length interleaved columns; column i holds the
// bytes at i, i+length, i+2*length and so on.
func Columns(text []byte, length int) [][]byte {
	cols := make([][]byte, length)
	for i, b := range text {
		cols[i%length] = append(cols[i%length], b)
	}
	return cols
}

// RecoverVigenereKey runs frequency analysis on every column of the
// space-stripped ciphertext and returns the decryption key, one byte per
// column.
func RecoverVigenereKey(stripped []byte, length int) []byte {
	if length <= 0 {
		return nil
	}
	key := make([]byte, length)
	for i, col := range Columns(stripped, length) {
		key[i] = CaesarKey(col)
	}
	return key
}

// DecryptVigenere finds the key length and key of a Vigenère ciphertext and
// decodes it. The returned key is the decryption key.
func DecryptVigenere(ciphertext []byte) (plain, key []byte, err error) {
	length, err := FindKeyLength(ciphertext)
	if err != nil {
		return nil, nil, err
	}

	key = RecoverVigenereKey(RemoveSpaces(ciphertext), length)
	plain, err = cipher.Vigenere(ciphertext, key, false)
	if err != nil {
		return nil, nil, fmt.Errorf("decode with recovered key: %w", err)
	}
	return plain, key, nil
}

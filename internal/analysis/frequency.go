// Package analysis recovers plaintext and keys from classical ciphertext
// without knowing the key: frequency correlation for Caesar, full keyspace
// enumeration for single-byte schemes, and coincidence counting followed by
// per-column frequency analysis for Vigenère.
package analysis

import (
	"github.com/RowanDark/cryptolab/internal/bytecodec"
)

// AlphabetSize is the number of distinct byte values.
const AlphabetSize = 256

// APosition is the frequency-table index of 'a' (97 shifted up by 128).
const APosition = 'a' + AlphabetSize/2

const space byte = ' '

// FrequencyTable holds the relative frequency of every byte value, indexed by
// bytecodec.Index.
type FrequencyTable [AlphabetSize]float64

// english holds a..z letter frequencies; see
// https://en.wikipedia.org/wiki/Letter_frequency.
var english = [26]float64{
	0.08497, 0.01492, 0.02202, 0.04253, 0.11162, 0.02228, 0.02015, 0.06094, 0.07546,
	0.00153, 0.01292, 0.04025, 0.02406, 0.06749, 0.07507, 0.01929, 0.00095, 0.07587,
	0.06327, 0.09356, 0.02758, 0.00978, 0.0256, 0.0015, 0.01994, 0.00077,
}

// ReferenceFrequencies returns a copy of the English a..z frequency table.
func ReferenceFrequencies() [26]float64 {
	return english
}

// ComputeFrequencies counts every non-space byte and normalises by the
// non-space length. Empty or all-space input gives an all-zero table.
func ComputeFrequencies(text []byte) FrequencyTable {
	var table FrequencyTable
	total := 0
	for _, b := range text {
		if b == space {
			continue
		}
		table[bytecodec.Index(b)]++
		total++
	}
	if total == 0 {
		return table
	}
	for i := range table {
		table[i] /= float64(total)
	}
	return table
}

// BestShift returns the shift whose alignment of the table with the English
// frequencies has the largest dot product. The first maximum wins, so an
// all-zero table yields 0.
func BestShift(table FrequencyTable) int {
	best, bestScore := 0, 0.0
	for s := 0; s < AlphabetSize; s++ {
		score := 0.0
		for j, f := range english {
			score += f * table[(j+s)%AlphabetSize]
		}
		if bestScore < score {
			bestScore = score
			best = s
		}
	}
	return best
}

// FindCaesarKey returns the decryption key for a Caesar ciphertext with the
// given frequency table: apply it with cipher.Caesar to recover plaintext.
func FindCaesarKey(table FrequencyTable) byte {
	return bytecodec.Residue(APosition - BestShift(table))
}

// CaesarKey is FindCaesarKey over ComputeFrequencies(text).
func CaesarKey(text []byte) byte {
	return FindCaesarKey(ComputeFrequencies(text))
}

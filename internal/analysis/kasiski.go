package analysis

import (
	"errors"
	"sort"
)

// ErrPeriodNotFound is returned when fewer than two coincidence peaks exist.
var ErrPeriodNotFound = errors.New("vigenere period not found")

// CoincidenceHistogram counts, for each distance d in 1..n-1, the positions j
// with text[j] == text[j+d]. Entry d-1 holds the count for distance d.
func CoincidenceHistogram(text []byte) []int {
	if len(text) < 2 {
		return []int{}
	}
	hist := make([]int, len(text)-1)
	for d := 1; d < len(text); d++ {
		count := 0
		for j := 0; j+d < len(text); j++ {
			if text[j] == text[j+d] {
				count++
			}
		}
		hist[d-1] = count
	}
	return hist
}

// LocalMaxima scans the first half of hist (rounded up) and keeps index i
// when hist[i] is strictly above its two neighbours on each side and above
// half the global maximum. Missing neighbours count as lower.
func LocalMaxima(hist []int) []int {
	if len(hist) == 0 {
		return nil
	}

	max := hist[0]
	for _, c := range hist {
		if max < c {
			max = c
		}
	}

	below := func(i, j int) bool {
		return j < 0 || j >= len(hist) || hist[j] < hist[i]
	}

	var maxima []int
	half := (len(hist) + 1) / 2
	for i := 0; i < half; i++ {
		if below(i, i-2) && below(i, i-1) && below(i, i+1) && below(i, i+2) && hist[i] > max/2 {
			maxima = append(maxima, i)
		}
	}
	return maxima
}

// EstimateKeyLength returns the most common distance between consecutive
// maxima. On a tie the smallest distance wins. Fewer than two maxima give 0.
func EstimateKeyLength(maxima []int) int {
	counts := make(map[int]int)
	for i := 0; i+1 < len(maxima); i++ {
		diff := maxima[i+1] - maxima[i]
		if diff < 0 {
			diff = -diff
		}
		counts[diff]++
	}

	diffs := make([]int, 0, len(counts))
	for d := range counts {
		diffs = append(diffs, d)
	}
	sort.Ints(diffs)

	length, best := 0, 0
	for _, d := range diffs {
		if best < counts[d] {
			best = counts[d]
			length = d
		}
	}
	return length
}

// RemoveSpaces returns text without its 0x20 bytes.
func RemoveSpaces(text []byte) []byte {
	out := make([]byte, 0, len(text))
	for _, b := range text {
		if b != space {
			out = append(out, b)
		}
	}
	return out
}

// FindKeyLength estimates the Vigenère key length of cipher, ignoring spaces.
func FindKeyLength(cipher []byte) (int, error) {
	stripped := RemoveSpaces(cipher)
	length := EstimateKeyLength(LocalMaxima(CoincidenceHistogram(stripped)))
	if length == 0 {
		return 0, ErrPeriodNotFound
	}
	return length, nil
}

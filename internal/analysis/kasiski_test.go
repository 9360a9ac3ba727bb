package analysis

import (
	"bytes"
	"errors"
	"fmt"
	"reflect"
	"testing"

	"github.com/RowanDark/cryptolab/internal/cipher"
)

func TestCoincidenceHistogram(t *testing.T) {
	got := CoincidenceHistogram([]byte("abcabc"))
	want := []int{0, 0, 3, 0, 0}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	if got := CoincidenceHistogram([]byte("a")); len(got) != 0 {
		t.Errorf("single byte should give an empty histogram, got %v", got)
	}
}

func TestLocalMaxima(t *testing.T) {
	tests := []struct {
		name string
		hist []int
		want []int
	}{
		{"regular peaks", []int{1, 9, 1, 1, 9, 1, 1, 9, 1, 1}, []int{1, 4}},
		{"below noise floor", []int{1, 20, 1, 1, 6, 1, 1, 1, 1, 1}, []int{1}},
		{"plateau", []int{5, 5, 5, 5}, nil},
		{"edge neighbours", []int{4, 1, 1, 1}, []int{0}},
		{"empty", []int{}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LocalMaxima(tt.hist)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestEstimateKeyLength(t *testing.T) {
	tests := []struct {
		name   string
		maxima []int
		want   int
	}{
		{"single difference", []int{1, 4}, 3},
		{"majority", []int{0, 3, 9, 12}, 3},
		{"tie picks smallest", []int{0, 4, 7}, 3},
		{"one maximum", []int{5}, 0},
		{"none", nil, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EstimateKeyLength(tt.maxima); got != tt.want {
				t.Errorf("expected %d, got %d", tt.want, got)
			}
		})
	}
}

func TestFindKeyLengthNotFound(t *testing.T) {
	for _, in := range [][]byte{nil, []byte("ab"), []byte("   ")} {
		length, err := FindKeyLength(in)
		if !errors.Is(err, ErrPeriodNotFound) || length != 0 {
			t.Errorf("%q: expected 0 and ErrPeriodNotFound, got %d, %v", in, length, err)
		}
	}

	if _, err := BreakVigenere([]byte("ab")); !errors.Is(err, ErrPeriodNotFound) {
		t.Errorf("expected ErrPeriodNotFound, got %v", err)
	}
}

// The spread keys sit at least 26 apart so columns never share a byte
// value. The word keys repeat letters and sit close together.
var vigenereKeys = [][]byte{
	{0, 80, 160},
	{0, 64, 128, 192},
	{10, 60, 110, 160, 210},
	{5, 45, 85, 125, 165, 205},
	[]byte("key"),
	[]byte("lemon"),
	[]byte("secret"),
	[]byte("zebra"),
}

func TestKasiskiFindsKeyLength(t *testing.T) {
	plain := loadCorpus(t)
	if len(plain) < 300 {
		t.Fatalf("corpus too short: %d", len(plain))
	}

	for _, key := range vigenereKeys {
		t.Run(fmt.Sprintf("length%d_%x", len(key), key), func(t *testing.T) {
			enc, err := cipher.Vigenere(plain, key, false)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			length, err := FindKeyLength(enc)
			if err != nil {
				t.Fatalf("find key length: %v", err)
			}
			if length != len(key) {
				t.Fatalf("expected key length %d, got %d", len(key), length)
			}
		})
	}
}

func TestBreakVigenereRecoversKeyAndPlaintext(t *testing.T) {
	plain := loadCorpus(t)

	for _, key := range vigenereKeys {
		t.Run(fmt.Sprintf("length%d_%x", len(key), key), func(t *testing.T) {
			enc, err := cipher.Vigenere(plain, key, false)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}

			result, err := BreakVigenere(enc)
			if err != nil {
				t.Fatalf("break failed: %v", err)
			}
			if !bytes.Equal(result.Key, cipher.Negate(key)) {
				t.Errorf("expected decryption key %v, got %v", cipher.Negate(key), result.Key)
			}
			if !bytes.Equal(result.Plaintext, plain) {
				t.Errorf("plaintext not recovered")
			}
		})
	}
}

func TestColumns(t *testing.T) {
	cols := Columns([]byte("abcdefg"), 3)
	want := [][]byte{[]byte("adg"), []byte("be"), []byte("cf")}
	if !reflect.DeepEqual(cols, want) {
		t.Fatalf("expected %q, got %q", want, cols)
	}
	if RecoverVigenereKey([]byte("abc"), 0) != nil {
		t.Error("zero length should recover no key")
	}
}

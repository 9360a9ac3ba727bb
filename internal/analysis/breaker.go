package analysis

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/RowanDark/cryptolab/internal/bytecodec"
	"github.com/RowanDark/cryptolab/internal/cipher"
)

// ErrNotBreakable is returned for schemes without a keyless attack.
var ErrNotBreakable = errors.New("no keyless attack for scheme")

// Method names the attack that produced a Result.
type Method string

const (
	MethodFrequency  Method = "frequency"
	MethodKasiski    Method = "kasiski"
	MethodBruteForce Method = "brute_force"
)

// Result is the outcome of a keyless attack. Key is the decryption key and is
// empty for brute force, where every key is reported in Candidates instead.
type Result struct {
	Scheme     cipher.Scheme `json:"scheme"`
	Method     Method        `json:"method"`
	Key        []byte        `json:"key,omitempty"`
	KeyLength  int           `json:"key_length"`
	Plaintext  []byte        `json:"plaintext,omitempty"`
	Candidates CandidateSet  `json:"candidates,omitempty"`
}

// Text renders the result as the engine reports it: the recovered plaintext,
// or every candidate on its own line for brute force.
func (r Result) Text() string {
	if r.Method != MethodBruteForce {
		return bytecodec.Decode(r.Plaintext)
	}
	lines := make([][]byte, len(r.Candidates))
	for i, c := range r.Candidates {
		lines[i] = c.Plaintext
	}
	return bytecodec.Decode(bytes.Join(lines, []byte{'\n'}))
}

// BreakCaesar recovers a Caesar ciphertext by frequency analysis.
func BreakCaesar(ciphertext []byte) Result {
	key := CaesarKey(ciphertext)
	return Result{
		Scheme:    cipher.SchemeCaesar,
		Method:    MethodFrequency,
		Key:       []byte{key},
		KeyLength: 1,
		Plaintext: cipher.Caesar(ciphertext, key, false),
	}
}

// BreakVigenere recovers a Vigenère ciphertext. It fails with
// ErrPeriodNotFound when no key length can be estimated.
func BreakVigenere(ciphertext []byte) (Result, error) {
	plain, key, err := DecryptVigenere(ciphertext)
	if err != nil {
		return Result{Scheme: cipher.SchemeVigenere, Method: MethodKasiski}, err
	}
	return Result{
		Scheme:    cipher.SchemeVigenere,
		Method:    MethodKasiski,
		Key:       key,
		KeyLength: len(key),
		Plaintext: plain,
	}, nil
}

// BreakXOR enumerates every single-byte XOR key.
func BreakXOR(ciphertext []byte) Result {
	return breakXOR(ciphertext, 0)
}

func breakXOR(ciphertext []byte, workers int) Result {
	return Result{
		Scheme:     cipher.SchemeXOR,
		Method:     MethodBruteForce,
		Candidates: BruteForceWorkers(ciphertext, xorDecode, workers),
	}
}

// BruteForceCaesar enumerates every Caesar decryption key.
func BruteForceCaesar(ciphertext []byte) Result {
	return Result{
		Scheme:     cipher.SchemeCaesar,
		Method:     MethodBruteForce,
		Candidates: BruteForce(ciphertext, caesarDecode),
	}
}

// Break dispatches to the attack for scheme.
func Break(ciphertext []byte, scheme cipher.Scheme) (Result, error) {
	return BreakWorkers(ciphertext, scheme, 0)
}

// BreakWorkers is Break with the brute-force worker count bounded by workers.
func BreakWorkers(ciphertext []byte, scheme cipher.Scheme, workers int) (Result, error) {
	switch scheme {
	case cipher.SchemeCaesar:
		return BreakCaesar(ciphertext), nil
	case cipher.SchemeVigenere:
		return BreakVigenere(ciphertext)
	case cipher.SchemeXOR:
		return breakXOR(ciphertext, workers), nil
	default:
		return Result{}, fmt.Errorf("%w: %s", ErrNotBreakable, scheme)
	}
}

func xorDecode(input []byte, key byte) []byte {
	return cipher.XOR(input, key, false)
}

func caesarDecode(input []byte, key byte) []byte {
	return cipher.Caesar(input, key, false)
}

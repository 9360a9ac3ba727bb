package cipher

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	mrand "math/rand/v2"
	"sync"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters for passphrase-derived pad streams.
const (
	argonTime    = 1
	argonMemory  = 64 * 1024
	argonThreads = 4
	seedSize     = 32
)

// PadGenerator produces pad, IV and key material from an injectable source.
// It is safe for concurrent use.
type PadGenerator struct {
	mu  sync.Mutex
	src io.Reader
}

// NewPadGenerator wraps src. A nil src falls back to crypto/rand.
func NewPadGenerator(src io.Reader) *PadGenerator {
	if src == nil {
		src = rand.Reader
	}
	return &PadGenerator{src: src}
}

// NewSeededGenerator returns a generator whose output is fully determined by
// seed.
func NewSeededGenerator(seed uint64) *PadGenerator {
	var s [seedSize]byte
	binary.LittleEndian.PutUint64(s[:], seed)
	return &PadGenerator{src: mrand.NewChaCha8(s)}
}

// NewPassphraseGenerator derives a deterministic stream from a passphrase and
// salt using Argon2id.
func NewPassphraseGenerator(passphrase string, salt []byte) *PadGenerator {
	key := argon2.IDKey([]byte(passphrase), salt, argonTime, argonMemory, argonThreads, seedSize)
	var s [seedSize]byte
	copy(s[:], key)
	return &PadGenerator{src: mrand.NewChaCha8(s)}
}

// Generate returns n bytes from the generator's source.
func (g *PadGenerator) Generate(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("pad length must not be negative, got %d", n)
	}
	pad := make([]byte, n)
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, err := io.ReadFull(g.src, pad); err != nil {
		return nil, fmt.Errorf("read pad source: %w", err)
	}
	return pad, nil
}

var defaultPads = NewPadGenerator(nil)

// GeneratePad returns n random bytes. Negative lengths yield an empty pad.
func GeneratePad(n int) []byte {
	if n <= 0 {
		return []byte{}
	}
	pad, err := defaultPads.Generate(n)
	if err != nil {
		panic(fmt.Sprintf("cipher: crypto/rand failed: %v", err))
	}
	return pad
}

package cipher

import (
	"bytes"
	"fmt"
	"testing"
)

const hybridSample = "the modified chaining mode runs a vigenere step over every pad block before it is emitted"

func TestHybridRoundTripPadAndKeySizes(t *testing.T) {
	pads := NewSeededGenerator(61)
	plain := []byte(hybridSample)

	for padSize := 1; padSize <= 9; padSize++ {
		for keySize := 1; keySize <= 9; keySize++ {
			iv, err := pads.Generate(padSize)
			if err != nil {
				t.Fatalf("generate iv: %v", err)
			}
			key, err := pads.Generate(keySize)
			if err != nil {
				t.Fatalf("generate key: %v", err)
			}

			t.Run(fmt.Sprintf("pad%d_key%d", padSize, keySize), func(t *testing.T) {
				// Every prefix length covers both full and partial final blocks.
				for n := 0; n <= 3*padSize+2 && n <= len(plain); n++ {
					enc, err := HybridEncrypt(plain[:n], iv, key)
					if err != nil {
						t.Fatalf("encrypt failed: %v", err)
					}
					if len(enc) != n {
						t.Fatalf("length %d: ciphertext has %d bytes", n, len(enc))
					}
					dec, err := HybridDecrypt(enc, iv, key)
					if err != nil {
						t.Fatalf("decrypt failed: %v", err)
					}
					if !bytes.Equal(dec, plain[:n]) {
						t.Fatalf("length %d: expected %q, got %q", n, plain[:n], dec)
					}
				}

				enc, err := HybridEncrypt(plain, iv, key)
				if err != nil {
					t.Fatalf("encrypt failed: %v", err)
				}
				dec, err := HybridDecrypt(enc, iv, key)
				if err != nil {
					t.Fatalf("decrypt failed: %v", err)
				}
				if !bytes.Equal(dec, plain) {
					t.Fatalf("expected %q, got %q", plain, dec)
				}
			})
		}
	}
}

func TestHybridFirstBlock(t *testing.T) {
	// One full block: pad = iv ^ plain, then vigenere over the whole pad.
	enc, err := HybridEncrypt([]byte{1, 2, 3}, []byte{0x10, 0x20, 0x30}, []byte{1, 2})
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	want := []byte{0x11 + 1, 0x22 + 2, 0x33 + 1}
	if !bytes.Equal(enc, want) {
		t.Errorf("expected %x, got %x", want, enc)
	}
}

func TestHybridTraceReportsBlocks(t *testing.T) {
	var blocks []int
	var emitted int
	_, err := HybridEncryptTrace([]byte("abcdefgh"), []byte{1, 2, 3}, []byte{4}, func(block int, pad, output []byte) {
		blocks = append(blocks, block)
		emitted += len(output)
		if len(pad) != 3 {
			t.Errorf("block %d: pad has %d bytes", block, len(pad))
		}
	})
	if err != nil {
		t.Fatalf("encrypt failed: %v", err)
	}
	if len(blocks) != 3 || blocks[2] != 2 {
		t.Errorf("expected blocks [0 1 2], got %v", blocks)
	}
	if emitted != 8 {
		t.Errorf("expected 8 emitted bytes, got %d", emitted)
	}
}

func TestHybridDiffersFromPlainCBC(t *testing.T) {
	iv := []byte{5, 6, 7}
	plain := []byte("same input")
	hybrid, err := HybridEncrypt(plain, iv, []byte{9})
	if err != nil {
		t.Fatalf("hybrid failed: %v", err)
	}
	cbc, err := CBCEncrypt(plain, iv)
	if err != nil {
		t.Fatalf("cbc failed: %v", err)
	}
	if bytes.Equal(hybrid, cbc) {
		t.Error("hybrid output should differ from plain CBC")
	}
}

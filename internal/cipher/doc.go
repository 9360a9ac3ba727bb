// Package cipher implements the classical byte ciphers of cryptolab and the
// operation registry that exposes them by name.
//
// # Overview
//
// All primitives work on raw bytes and return freshly allocated output:
//   - Caesar and XOR with a single key byte
//   - Vigenère with a repeating key
//   - One-Time Pad with a pad at least as long as the input
//   - CBC XOR chaining seeded by an IV
//   - CBC chaining with a Vigenère block function (HybridEncrypt)
//
// Spaces (0x20) pass through Caesar, XOR and Vigenère untouched unless the
// caller asks for them to be encoded. None of these ciphers offer real
// security.
//
// # Quick Start
//
//	enc := cipher.Caesar([]byte("i want"), 50, false)
//	dec := cipher.Caesar(enc, bytecodec.Neg(50), false)
//
//	vig, err := cipher.Vigenere(plain, key, false)
//	back, err := cipher.Vigenere(vig, cipher.Negate(key), false)
//
// # Operations and Pipelines
//
// Every primitive is registered as an Operation and can be chained:
//
//	pipeline := &cipher.Pipeline{
//	    Operations: []cipher.OperationConfig{
//	        {Name: "vigenere_encode", Parameters: map[string]interface{}{"key": "lemon"}},
//	        {Name: "cbc_encrypt", Parameters: map[string]interface{}{"iv": "seed"}},
//	    },
//	    Reversible: true,
//	}
//	encoded, _ := pipeline.Execute(ctx, input)
//	reversed, _ := pipeline.Reverse()
//	decoded, _ := reversed.Execute(ctx, encoded)
//
// Key material is passed as "key" / "iv" (Latin-1 text) or "key_bytes" /
// "iv_bytes" (signed integers). Decoders take the same parameters as their
// encoders, which is what makes Pipeline.Reverse work.
//
// # Thread Safety
//
// The registry and RecipeManager lock internally. Primitives hold no state.
// PadGenerator serialises reads from its source.
package cipher

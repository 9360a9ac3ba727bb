package analysis

import (
	"context"

	"github.com/RowanDark/cryptolab/internal/bytecodec"
	"github.com/RowanDark/cryptolab/internal/cipher"
)

// AttackOp exposes a keyless attack through the cipher operation registry.
// Its output is Result.Text encoded back to bytes.
type AttackOp struct {
	cipher.BaseOperation
	attack func([]byte) (Result, error)
}

func (op *AttackOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result, err := op.attack(input)
	if err != nil {
		return nil, err
	}
	return bytecodec.Encode(result.Text())
}

func infallible(fn func([]byte) Result) func([]byte) (Result, error) {
	return func(in []byte) (Result, error) { return fn(in), nil }
}

func init() {
	cipher.MustRegister(
		&AttackOp{
			BaseOperation: cipher.BaseOperation{
				NameValue:        "caesar_break",
				TypeValue:        cipher.OperationTypeAnalyze,
				DescriptionValue: "Recover Caesar plaintext by frequency analysis",
			},
			attack: infallible(BreakCaesar),
		},
		&AttackOp{
			BaseOperation: cipher.BaseOperation{
				NameValue:        "caesar_bruteforce",
				TypeValue:        cipher.OperationTypeAnalyze,
				DescriptionValue: "List the Caesar decryption under every key, one per line",
			},
			attack: infallible(BruteForceCaesar),
		},
		&AttackOp{
			BaseOperation: cipher.BaseOperation{
				NameValue:        "vigenere_break",
				TypeValue:        cipher.OperationTypeAnalyze,
				DescriptionValue: "Recover Vigenère plaintext by coincidence counting and frequency analysis",
			},
			attack: BreakVigenere,
		},
		&AttackOp{
			BaseOperation: cipher.BaseOperation{
				NameValue:        "xor_bruteforce",
				TypeValue:        cipher.OperationTypeAnalyze,
				DescriptionValue: "List the XOR decryption under every key, one per line",
			},
			attack: infallible(BreakXOR),
		},
	)
}

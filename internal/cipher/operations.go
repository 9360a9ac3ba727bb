package cipher

import (
	"context"

	"github.com/RowanDark/cryptolab/internal/bytecodec"
)

// Single-byte operations

// CaesarEncodeOp shifts every byte by the first key byte
type CaesarEncodeOp struct {
	BaseOperation
}

func (op *CaesarEncodeOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	key, err := singleKey(params)
	if err != nil {
		return nil, err
	}
	return Caesar(input, key, boolParam(params, "encode_spaces")), nil
}

// CaesarDecodeOp shifts every byte back by the first key byte
type CaesarDecodeOp struct {
	BaseOperation
}

func (op *CaesarDecodeOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	key, err := singleKey(params)
	if err != nil {
		return nil, err
	}
	return Caesar(input, bytecodec.Neg(key), boolParam(params, "encode_spaces")), nil
}

// XOROp combines every byte with the first key byte. It serves as both
// xor_encode and xor_decode.
type XOROp struct {
	BaseOperation
}

func (op *XOROp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	key, err := singleKey(params)
	if err != nil {
		return nil, err
	}
	return XOR(input, key, boolParam(params, "encode_spaces")), nil
}

// Keyed sequence operations

// VigenereOp applies the repeating key, negated when decoding
type VigenereOp struct {
	BaseOperation
	decode bool
}

func (op *VigenereOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	key, err := keyParam(params, "key")
	if err != nil {
		return nil, err
	}
	if op.decode {
		key = Negate(key)
	}
	return Vigenere(input, key, boolParam(params, "encode_spaces"))
}

// OneTimePadOp XORs the input with a pad at least as long as itself
type OneTimePadOp struct {
	BaseOperation
}

func (op *OneTimePadOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	pad, err := keyParam(params, "key")
	if err != nil {
		return nil, err
	}
	return OneTimePad(input, pad)
}

// Chaining operations

// CBCOp chains the input through an IV-seeded pad
type CBCOp struct {
	BaseOperation
	decrypt bool
}

func (op *CBCOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	iv, err := keyParam(params, "iv")
	if err != nil {
		return nil, err
	}
	if op.decrypt {
		return CBCDecrypt(input, iv)
	}
	return CBCEncrypt(input, iv)
}

// HybridOp is CBC chaining with a Vigenère block function
type HybridOp struct {
	BaseOperation
	decrypt bool
}

func (op *HybridOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	iv, err := keyParam(params, "iv")
	if err != nil {
		return nil, err
	}
	key, err := keyParam(params, "key")
	if err != nil {
		return nil, err
	}
	if op.decrypt {
		return HybridDecrypt(input, iv, key)
	}
	return HybridEncrypt(input, iv, key)
}

func singleKey(params map[string]interface{}) (byte, error) {
	key, err := keyParam(params, "key")
	if err != nil {
		return 0, err
	}
	if err := requireKey("key", key); err != nil {
		return 0, err
	}
	return key[0], nil
}

func init() {
	caesarEncode := &CaesarEncodeOp{
		BaseOperation: BaseOperation{
			NameValue:        "caesar_encode",
			TypeValue:        OperationTypeEncode,
			DescriptionValue: "Shift every byte by the first key byte",
		},
	}
	caesarDecode := &CaesarDecodeOp{
		BaseOperation: BaseOperation{
			NameValue:        "caesar_decode",
			TypeValue:        OperationTypeDecode,
			DescriptionValue: "Shift every byte back by the first key byte",
		},
	}
	caesarEncode.ReverseOp = caesarDecode
	caesarDecode.ReverseOp = caesarEncode

	xorEncode := &XOROp{
		BaseOperation: BaseOperation{
			NameValue:        "xor_encode",
			TypeValue:        OperationTypeEncode,
			DescriptionValue: "XOR every byte with the first key byte",
		},
	}
	xorDecode := &XOROp{
		BaseOperation: BaseOperation{
			NameValue:        "xor_decode",
			TypeValue:        OperationTypeDecode,
			DescriptionValue: "Undo xor_encode with the same key",
		},
	}
	xorEncode.ReverseOp = xorDecode
	xorDecode.ReverseOp = xorEncode

	vigenereEncode := &VigenereOp{
		BaseOperation: BaseOperation{
			NameValue:        "vigenere_encode",
			TypeValue:        OperationTypeEncode,
			DescriptionValue: "Shift bytes by a repeating key",
		},
	}
	vigenereDecode := &VigenereOp{
		BaseOperation: BaseOperation{
			NameValue:        "vigenere_decode",
			TypeValue:        OperationTypeDecode,
			DescriptionValue: "Shift bytes back by a repeating key",
		},
		decode: true,
	}
	vigenereEncode.ReverseOp = vigenereDecode
	vigenereDecode.ReverseOp = vigenereEncode

	otpEncode := &OneTimePadOp{
		BaseOperation: BaseOperation{
			NameValue:        "otp_encode",
			TypeValue:        OperationTypeEncode,
			DescriptionValue: "XOR with a pad at least as long as the input",
		},
	}
	otpDecode := &OneTimePadOp{
		BaseOperation: BaseOperation{
			NameValue:        "otp_decode",
			TypeValue:        OperationTypeDecode,
			DescriptionValue: "Undo otp_encode with the same pad",
		},
	}
	otpEncode.ReverseOp = otpDecode
	otpDecode.ReverseOp = otpEncode

	cbcEncrypt := &CBCOp{
		BaseOperation: BaseOperation{
			NameValue:        "cbc_encrypt",
			TypeValue:        OperationTypeEncrypt,
			DescriptionValue: "XOR-chain bytes through an IV-seeded pad",
		},
	}
	cbcDecrypt := &CBCOp{
		BaseOperation: BaseOperation{
			NameValue:        "cbc_decrypt",
			TypeValue:        OperationTypeDecrypt,
			DescriptionValue: "Undo cbc_encrypt with the same IV",
		},
		decrypt: true,
	}
	cbcEncrypt.ReverseOp = cbcDecrypt
	cbcDecrypt.ReverseOp = cbcEncrypt

	hybridEncrypt := &HybridOp{
		BaseOperation: BaseOperation{
			NameValue:        "cbc_vigenere_encrypt",
			TypeValue:        OperationTypeEncrypt,
			DescriptionValue: "CBC chaining with a Vigenère block function",
		},
	}
	hybridDecrypt := &HybridOp{
		BaseOperation: BaseOperation{
			NameValue:        "cbc_vigenere_decrypt",
			TypeValue:        OperationTypeDecrypt,
			DescriptionValue: "Undo cbc_vigenere_encrypt with the same IV and key",
		},
		decrypt: true,
	}
	hybridEncrypt.ReverseOp = hybridDecrypt
	hybridDecrypt.ReverseOp = hybridEncrypt

	MustRegister(
		caesarEncode, caesarDecode,
		xorEncode, xorDecode,
		vigenereEncode, vigenereDecode,
		otpEncode, otpDecode,
		cbcEncrypt, cbcDecrypt,
		hybridEncrypt, hybridDecrypt,
	)
}

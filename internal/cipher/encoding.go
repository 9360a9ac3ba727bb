package cipher

import (
	"context"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
)

// Text encodings

// codec turns arbitrary bytes into printable text and back. They carry
// ciphertext, which is full of control bytes, through JSON bodies,
// terminals and recipe files.
type codec struct {
	label  string
	encode func([]byte) string
	decode func(string) ([]byte, error)
}

// EncodingOp applies one direction of a codec.
type EncodingOp struct {
	BaseOperation
	codec  codec
	decode bool
}

func (op *EncodingOp) Execute(ctx context.Context, input []byte, params map[string]interface{}) ([]byte, error) {
	if !op.decode {
		return []byte(op.codec.encode(input)), nil
	}
	out, err := op.codec.decode(string(input))
	if err != nil {
		return nil, fmt.Errorf("%s decode failed: %w", op.codec.label, err)
	}
	return out, nil
}

var hexCodec = codec{
	label:  "hex",
	encode: hex.EncodeToString,
	decode: func(s string) ([]byte, error) {
		s = strings.TrimSpace(s)
		s = strings.TrimPrefix(s, "0x")
		s = strings.NewReplacer(" ", "", ":", "", "-", "", "\\x", "").Replace(s)
		return hex.DecodeString(s)
	},
}

var base64Codec = codec{
	label:  "base64",
	encode: base64.StdEncoding.EncodeToString,
	decode: func(s string) ([]byte, error) {
		return base64.StdEncoding.DecodeString(strings.TrimSpace(s))
	},
}

var base64URLCodec = codec{
	label:  "base64url",
	encode: base64.URLEncoding.EncodeToString,
	decode: func(s string) ([]byte, error) {
		s = strings.TrimSpace(s)
		out, err := base64.URLEncoding.DecodeString(s)
		if err != nil {
			// unpadded input
			return base64.RawURLEncoding.DecodeString(s)
		}
		return out, nil
	},
}

var binaryCodec = codec{
	label: "binary",
	encode: func(b []byte) string {
		groups := make([]string, len(b))
		for i, v := range b {
			groups[i] = fmt.Sprintf("%08b", v)
		}
		return strings.Join(groups, " ")
	},
	decode: func(s string) ([]byte, error) {
		s = strings.Join(strings.Fields(s), "")
		if len(s)%8 != 0 {
			return nil, fmt.Errorf("bit string length must be a multiple of 8, got %d", len(s))
		}
		out := make([]byte, 0, len(s)/8)
		for i := 0; i < len(s); i += 8 {
			v, err := strconv.ParseUint(s[i:i+8], 2, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid bits at position %d: %w", i, err)
			}
			out = append(out, byte(v))
		}
		return out, nil
	},
}

func encodingPair(name, what string, c codec) (*EncodingOp, *EncodingOp) {
	enc := &EncodingOp{
		BaseOperation: BaseOperation{
			NameValue:        name + "_encode",
			TypeValue:        OperationTypeEncode,
			DescriptionValue: "Render bytes as " + what,
		},
		codec: c,
	}
	dec := &EncodingOp{
		BaseOperation: BaseOperation{
			NameValue:        name + "_decode",
			TypeValue:        OperationTypeDecode,
			DescriptionValue: "Parse " + what + " back into bytes",
		},
		codec:  c,
		decode: true,
	}
	enc.ReverseOp = dec
	dec.ReverseOp = enc
	return enc, dec
}

func init() {
	hexEncode, hexDecode := encodingPair("hex", "lowercase hexadecimal", hexCodec)
	b64Encode, b64Decode := encodingPair("base64", "standard Base64", base64Codec)
	b64URLEncode, b64URLDecode := encodingPair("base64url", "URL-safe Base64", base64URLCodec)
	binEncode, binDecode := encodingPair("binary", "space-separated 8-bit groups", binaryCodec)

	MustRegister(
		hexEncode, hexDecode,
		b64Encode, b64Decode,
		b64URLEncode, b64URLDecode,
		binEncode, binDecode,
	)
}

package cipher

import (
	"bytes"
	"context"
	"errors"
	"testing"
)

func TestCipherOperationsRoundTrip(t *testing.T) {
	tests := []struct {
		name    string
		encoder string
		decoder string
		params  map[string]interface{}
	}{
		{"caesar text key", "caesar_encode", "caesar_decode", map[string]interface{}{"key": "k"}},
		{"caesar signed key", "caesar_encode", "caesar_decode", map[string]interface{}{"key_bytes": []interface{}{float64(-120)}}},
		{"xor", "xor_encode", "xor_decode", map[string]interface{}{"key": "2"}},
		{"vigenere", "vigenere_encode", "vigenere_decode", map[string]interface{}{"key": "lemon"}},
		{"vigenere encoded spaces", "vigenere_encode", "vigenere_decode", map[string]interface{}{"key": "lemon", "encode_spaces": true}},
		{"otp", "otp_encode", "otp_decode", map[string]interface{}{"key": "a pad that is long enough for it"}},
		{"cbc", "cbc_encrypt", "cbc_decrypt", map[string]interface{}{"iv": "ivx"}},
		{"cbc vigenere", "cbc_vigenere_encrypt", "cbc_vigenere_decrypt", map[string]interface{}{"iv": "abcd", "key": "xyz"}},
	}

	ctx := context.Background()
	input := []byte("attack at dawn")

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoder, err := LookupOperation(tt.encoder)
			if err != nil {
				t.Fatalf("lookup failed: %v", err)
			}
			decoder, err := LookupOperation(tt.decoder)
			if err != nil {
				t.Fatalf("lookup failed: %v", err)
			}

			encoded, err := encoder.Execute(ctx, input, tt.params)
			if err != nil {
				t.Fatalf("encode failed: %v", err)
			}
			if bytes.Equal(encoded, input) {
				t.Fatalf("encode left input unchanged")
			}

			decoded, err := decoder.Execute(ctx, encoded, tt.params)
			if err != nil {
				t.Fatalf("decode failed: %v", err)
			}
			if !bytes.Equal(decoded, input) {
				t.Errorf("decode: expected %q, got %q", input, decoded)
			}
		})
	}
}

func TestCipherOperationsMissingKey(t *testing.T) {
	ctx := context.Background()
	for _, name := range []string{"caesar_encode", "xor_encode", "vigenere_encode", "otp_encode", "cbc_encrypt", "cbc_vigenere_encrypt"} {
		op, _ := GetOperation(name)
		if _, err := op.Execute(ctx, []byte("data"), nil); !errors.Is(err, ErrInvalidKeyLength) {
			t.Errorf("%s: expected ErrInvalidKeyLength, got %v", name, err)
		}
	}

	op, _ := GetOperation("caesar_encode")
	if _, err := op.Execute(ctx, []byte("data"), map[string]interface{}{"key": ""}); !errors.Is(err, ErrInvalidKeyLength) {
		t.Errorf("empty caesar key: expected ErrInvalidKeyLength, got %v", err)
	}
}

func TestOTPOperationShortPad(t *testing.T) {
	op, _ := GetOperation("otp_encode")
	_, err := op.Execute(context.Background(), []byte("longer than pad"), map[string]interface{}{"key": "short"})
	if !errors.Is(err, ErrInvalidKeyLength) {
		t.Fatalf("expected ErrInvalidKeyLength, got %v", err)
	}
}

func TestParamsFromJSON(t *testing.T) {
	params, err := ParamsFromJSON(`{"key_bytes":[50,-10,100],"encode_spaces":true}`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}
	key, err := keyParam(params, "key")
	if err != nil {
		t.Fatalf("key param failed: %v", err)
	}
	if !bytes.Equal(key, []byte{50, 246, 100}) {
		t.Errorf("unexpected key bytes %v", key)
	}
	if !boolParam(params, "encode_spaces") {
		t.Error("encode_spaces should be true")
	}

	if params, err := ParamsFromJSON(""); err != nil || params != nil {
		t.Errorf("empty document: expected nil, nil; got %v, %v", params, err)
	}
	if _, err := ParamsFromJSON(`{"key":`); err == nil {
		t.Error("expected error for malformed document")
	}
	if _, err := ParamsFromJSON(`[1,2]`); err == nil {
		t.Error("expected error for non-object document")
	}
}

func TestKeyParamRejectsOutOfRange(t *testing.T) {
	_, err := keyParam(map[string]interface{}{"key_bytes": []interface{}{float64(300)}}, "key")
	if err == nil {
		t.Fatal("expected error for out-of-range byte")
	}
	_, err = keyParam(map[string]interface{}{"key": 12}, "key")
	if err == nil {
		t.Fatal("expected error for non-string key")
	}
}

func TestParseScheme(t *testing.T) {
	tests := []struct {
		in   string
		want Scheme
	}{
		{"caesar", SchemeCaesar},
		{"C", SchemeCaesar},
		{" vigenere ", SchemeVigenere},
		{"x", SchemeXOR},
		{"o", SchemeOneTimePad},
		{"b", SchemeCBC},
		{"hybrid", SchemeCBCVigenere},
	}
	for _, tt := range tests {
		got, err := ParseScheme(tt.in)
		if err != nil {
			t.Errorf("ParseScheme(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseScheme(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}

	if _, err := ParseScheme("enigma"); !errors.Is(err, ErrUnknownScheme) {
		t.Errorf("expected ErrUnknownScheme, got %v", err)
	}
}

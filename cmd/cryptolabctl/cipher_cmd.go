package main

import (
	"context"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/RowanDark/cryptolab/internal/cipher"
)

type cipherFlags struct {
	scheme *string
	key    *string
	keyHex *string
	iv     *string
	ivHex  *string
	out    *string
	format *string
	remote *string
	input  inputFlags
}

func addCipherFlags(fs *flag.FlagSet) cipherFlags {
	return cipherFlags{
		scheme: fs.String("scheme", "", "cipher scheme: caesar, vigenere, xor, otp, cbc or cbc_vigenere"),
		key:    fs.String("key", "", "key text"),
		keyHex: fs.String("key-hex", "", "key bytes as hex"),
		iv:     fs.String("iv", "", "initialisation vector text (cbc_vigenere)"),
		ivHex:  fs.String("iv-hex", "", "initialisation vector bytes as hex (cbc_vigenere)"),
		out:    fs.String("out", "", "write the result to this file instead of stdout"),
		format: fs.String("format", "text", "output format: text, hex or signed"),
		remote: fs.String("remote", "", "cryptolabd gRPC address; runs locally when empty"),
		input:  addInputFlags(fs),
	}
}

type cipherArgs struct {
	scheme cipher.Scheme
	key    string
	iv     string
	text   string
}

func (f cipherFlags) resolve() (cipherArgs, error) {
	if strings.TrimSpace(*f.scheme) == "" {
		return cipherArgs{}, errors.New("--scheme is required")
	}
	scheme, err := cipher.ParseScheme(*f.scheme)
	if err != nil {
		return cipherArgs{}, err
	}
	key, err := keyArg(*f.key, *f.keyHex)
	if err != nil {
		return cipherArgs{}, err
	}
	iv, err := keyArg(*f.iv, *f.ivHex)
	if err != nil {
		return cipherArgs{}, err
	}
	if scheme != cipher.SchemeCBCVigenere && iv != "" {
		return cipherArgs{}, fmt.Errorf("--iv only applies to %s", cipher.SchemeCBCVigenere)
	}
	text, err := f.input.read()
	if err != nil {
		return cipherArgs{}, err
	}
	return cipherArgs{scheme: scheme, key: key, iv: iv, text: text}, nil
}

func runEncode(args []string) int {
	fs := newFlagSet("encode")
	flags := addCipherFlags(fs)
	trace := fs.Bool("trace", false, "print each cbc_vigenere block pad and output to stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	return runCipher(flags, true, *trace)
}

func runDecode(args []string) int {
	fs := newFlagSet("decode")
	flags := addCipherFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	return runCipher(flags, false, false)
}

func runCipher(flags cipherFlags, encode, trace bool) int {
	req, err := flags.resolve()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	s, err := openSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer s.Close()

	ctx := context.Background()
	var output string
	switch {
	case trace:
		if req.scheme != cipher.SchemeCBCVigenere || *flags.remote != "" {
			fmt.Fprintf(os.Stderr, "--trace only applies to local %s encoding\n", cipher.SchemeCBCVigenere)
			return 2
		}
		output, err = s.engine.EncodeHybridTrace(ctx, req.text, req.iv, req.key, printBlock)
	default:
		b, berr := selectBackend(s, *flags.remote)
		if berr != nil {
			fmt.Fprintf(os.Stderr, "connect: %v\n", berr)
			return 1
		}
		defer b.close()
		if encode {
			output, err = b.encode(ctx, req.scheme, req.text, req.key, req.iv)
		} else {
			output, err = b.decode(ctx, req.scheme, req.text, req.key, req.iv)
		}
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s failed: %v\n", req.scheme, err)
		return 1
	}

	if err := writeOutput(*flags.out, *flags.format, output); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

func printBlock(block int, pad, output []byte) {
	fmt.Fprintf(os.Stderr, "block %d pad=%s out=%s\n", block, hex.EncodeToString(pad), hex.EncodeToString(output))
}

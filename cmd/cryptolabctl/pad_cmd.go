package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/RowanDark/cryptolab/internal/bytecodec"
	"github.com/RowanDark/cryptolab/internal/cipher"
	"github.com/RowanDark/cryptolab/internal/engine"
)

func runPad(args []string) int {
	fs := newFlagSet("pad")
	length := fs.Int("length", 0, "number of bytes to generate")
	seed := fs.Uint64("seed", 0, "derive the pad from a fixed seed (reproducible, not secret)")
	passphrase := fs.String("passphrase", "", "derive the pad from a passphrase with argon2id")
	salt := fs.String("salt", productName, "salt for --passphrase")
	format := fs.String("format", "hex", "output format: text, hex or signed")
	out := fs.String("out", "", "write the pad to this file instead of stdout")
	remote := fs.String("remote", "", "cryptolabd gRPC address; runs locally when empty")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *length < 0 {
		fmt.Fprintln(os.Stderr, "--length must not be negative")
		return 2
	}

	seeded := flagPassed(fs, "seed")
	if seeded && *passphrase != "" {
		fmt.Fprintln(os.Stderr, "use either --seed or --passphrase, not both")
		return 2
	}
	if *remote != "" && (seeded || *passphrase != "") {
		fmt.Fprintln(os.Stderr, "--seed and --passphrase only apply to local generation")
		return 2
	}

	var opts []engine.Option
	switch {
	case seeded:
		opts = append(opts, engine.WithPadGenerator(cipher.NewSeededGenerator(*seed)))
	case *passphrase != "":
		opts = append(opts, engine.WithPadGenerator(cipher.NewPassphraseGenerator(*passphrase, []byte(*salt))))
	}

	s, err := openSession(opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer s.Close()

	if *length > s.cfg.Analysis.MaxInputBytes {
		fmt.Fprintf(os.Stderr, "--length exceeds the configured limit of %d bytes\n", s.cfg.Analysis.MaxInputBytes)
		return 2
	}

	ctx := context.Background()
	var pad []byte
	if *remote != "" {
		b, err := selectBackend(s, *remote)
		if err != nil {
			fmt.Fprintf(os.Stderr, "connect: %v\n", err)
			return 1
		}
		defer b.close()
		pad, err = b.(remoteBackend).client.GeneratePad(ctx, *length)
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate pad: %v\n", err)
			return 1
		}
	} else {
		pad, err = s.engine.GeneratePad(ctx, *length)
		if err != nil {
			fmt.Fprintf(os.Stderr, "generate pad: %v\n", err)
			return 1
		}
	}

	if err := writeOutput(*out, *format, bytecodec.Decode(pad)); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

func flagPassed(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

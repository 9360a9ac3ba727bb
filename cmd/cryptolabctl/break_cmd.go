package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/tidwall/sjson"

	"github.com/RowanDark/cryptolab/internal/analysis"
	"github.com/RowanDark/cryptolab/internal/bytecodec"
	"github.com/RowanDark/cryptolab/internal/cipher"
)

func runBreak(args []string) int {
	fs := newFlagSet("break")
	schemeName := fs.String("scheme", string(cipher.SchemeVigenere), "scheme to attack: caesar, vigenere or xor")
	tryXOR := fs.Bool("try-xor", false, "write the vigenere report followed by every xor candidate")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	out := fs.String("out", "", "write the result to this file instead of stdout")
	remote := fs.String("remote", "", "cryptolabd gRPC address; runs locally when empty")
	input := addInputFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	scheme, err := cipher.ParseScheme(*schemeName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}
	if !scheme.Breakable() {
		fmt.Fprintf(os.Stderr, "%s cannot be broken without its key\n", scheme)
		return 2
	}
	if *tryXOR && (*asJSON || *remote != "") {
		fmt.Fprintln(os.Stderr, "--try-xor cannot be combined with --json or --remote")
		return 2
	}

	text, err := input.read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	s, err := openSession()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	defer s.Close()
	ctx := context.Background()

	if *tryXOR {
		report, err := s.engine.BreakFile(ctx, text, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "break failed: %v\n", err)
			return 1
		}
		return finishWrite(*out, report)
	}

	b, err := selectBackend(s, *remote)
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect: %v\n", err)
		return 1
	}
	defer b.close()

	outcome, err := b.breakCipher(ctx, scheme, text)
	if err != nil {
		if errors.Is(err, analysis.ErrPeriodNotFound) {
			fmt.Fprintln(os.Stderr, "key length not found")
			return 1
		}
		fmt.Fprintf(os.Stderr, "break failed: %v\n", err)
		return 1
	}

	if *asJSON {
		doc, err := breakJSON(outcome)
		if err != nil {
			fmt.Fprintf(os.Stderr, "render json: %v\n", err)
			return 1
		}
		return finishWrite(*out, doc)
	}
	if len(outcome.Key) > 0 {
		fmt.Fprintf(os.Stderr, "recovered key: %s (%d bytes)\n", formatSigned(outcome.Key), outcome.KeyLength)
	}
	return finishWrite(*out, outcome.Text)
}

func finishWrite(path, text string) int {
	if err := writeOutput(path, "text", text); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

// breakJSON renders an outcome as a JSON document. Text fields are escaped as
// UTF-8 so every Latin-1 character survives the round trip.
func breakJSON(o breakOutcome) (string, error) {
	doc := `{}`
	var err error
	set := func(path string, value interface{}) {
		if err != nil {
			return
		}
		doc, err = sjson.Set(doc, path, value)
	}
	set("scheme", o.Scheme)
	set("method", o.Method)
	set("key_length", o.KeyLength)
	if len(o.Key) > 0 {
		set("key", bytecodec.Ints(o.Key))
	}
	if o.Method == string(analysis.MethodBruteForce) {
		candidates := o.Candidates
		if candidates == nil {
			candidates = []breakCandidate{}
		}
		set("candidates", candidates)
	} else {
		set("plaintext", o.Text)
	}
	return doc, err
}

package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/RowanDark/cryptolab/internal/cipher"
	"github.com/RowanDark/cryptolab/internal/config"
)

func runClean(args []string) int {
	fs := newFlagSet("clean")
	in := fs.String("in", "", "read input from this file (default: stdin)")
	html := fs.Bool("html", false, "treat the input as HTML and extract its visible text")
	out := fs.String("out", "", "write the result to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	clean := true
	empty := ""
	input := inputFlags{text: &empty, in: in, clean: &clean, html: html}
	text, err := input.read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return finishWrite(*out, text)
}

func runOps(args []string) int {
	fs := newFlagSet("ops")
	opType := fs.String("type", "", "only list operations of this type (encode, decode, encrypt, decrypt, analyze)")
	asJSON := fs.Bool("json", false, "print operations as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var ops []cipher.Operation
	if t := strings.TrimSpace(*opType); t != "" {
		ops = cipher.ListOperationsByType(cipher.OperationType(t))
	} else {
		ops = cipher.ListOperations()
	}

	if *asJSON {
		type info struct {
			Name        string `json:"name"`
			Type        string `json:"type"`
			Description string `json:"description"`
			Reversible  bool   `json:"reversible"`
		}
		list := make([]info, 0, len(ops))
		for _, op := range ops {
			_, rev := op.Reverse()
			list = append(list, info{Name: op.Name(), Type: string(op.Type()), Description: op.Description(), Reversible: rev})
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(list); err != nil {
			fmt.Fprintf(os.Stderr, "encode operations: %v\n", err)
			return 1
		}
		return 0
	}
	for _, op := range ops {
		fmt.Printf("%-24s %-8s %s\n", op.Name(), op.Type(), op.Description())
	}
	return 0
}

func runConfig(args []string) int {
	fs := newFlagSet("config")
	file := fs.String("file", "", "load this file instead of the default search path (environment overrides still apply)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	var (
		cfg config.Config
		err error
	)
	if *file != "" {
		cfg, err = config.LoadFile(*file)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "render config: %v\n", err)
		return 1
	}
	os.Stdout.Write(data)
	return 0
}

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/RowanDark/cryptolab/internal/bytecodec"
	"github.com/RowanDark/cryptolab/internal/cipher"
	"github.com/RowanDark/cryptolab/internal/logging"
)

// parseSteps turns positional "name" or "name={json params}" arguments into
// pipeline steps.
func parseSteps(args []string) ([]cipher.OperationConfig, error) {
	if len(args) == 0 {
		return nil, errors.New("at least one operation is required")
	}
	steps := make([]cipher.OperationConfig, 0, len(args))
	for _, arg := range args {
		name, doc, _ := strings.Cut(arg, "=")
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("empty operation name in %q", arg)
		}
		if _, err := cipher.LookupOperation(name); err != nil {
			return nil, err
		}
		params, err := cipher.ParamsFromJSON(doc)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		steps = append(steps, cipher.OperationConfig{Name: name, Parameters: params})
	}
	return steps, nil
}

func runPipeline(args []string) int {
	fs := newFlagSet("pipeline")
	reverse := fs.Bool("reverse", false, "run the inverse pipeline (steps reversed, each replaced by its inverse)")
	out := fs.String("out", "", "write the result to this file instead of stdout")
	format := fs.String("format", "text", "output format: text, hex or signed")
	input := addInputFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}
	steps, err := parseSteps(fs.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 2
	}

	text, err := input.read()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	data, err := bytecodec.Encode(text)
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

	pipeline := &cipher.Pipeline{Operations: steps, Reversible: *reverse}
	if *reverse {
		if pipeline, err = pipeline.Reverse(); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			return 1
		}
	}
	result, err := pipeline.Execute(context.Background(), data)
	emitPipelineRun(s.audit, "", len(steps), *reverse, err)
	if err != nil {
		fmt.Fprintf(os.Stderr, "pipeline failed: %v\n", err)
		return 1
	}
	if err := writeOutput(*out, *format, bytecodec.Decode(result)); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	return 0
}

func emitPipelineRun(audit *logging.AuditLogger, recipe string, steps int, reverse bool, runErr error) {
	event := logging.AuditEvent{
		EventType: logging.EventPipelineRun,
		Outcome:   logging.OutcomeSuccess,
		Metadata:  map[string]any{"steps": steps, "reverse": reverse},
	}
	if recipe != "" {
		event.Metadata["recipe"] = recipe
	}
	if runErr != nil {
		event.Outcome = logging.OutcomeFailure
		event.Reason = runErr.Error()
	}
	_ = audit.Emit(event)
}

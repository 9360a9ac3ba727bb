package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"strings"

	"github.com/tidwall/sjson"

	"github.com/RowanDark/cryptolab/internal/analysis"
	"github.com/RowanDark/cryptolab/internal/bytecodec"
	"github.com/RowanDark/cryptolab/internal/cipher"
	"github.com/RowanDark/cryptolab/internal/config"
	"github.com/RowanDark/cryptolab/internal/engine"
	"github.com/RowanDark/cryptolab/internal/logging"
	"github.com/RowanDark/cryptolab/internal/rpc"
	"github.com/RowanDark/cryptolab/internal/textclean"
)

var version = "dev"

func versionString() string {
	return fmt.Sprintf("%s %s", productName, version)
}

func runVersion(args []string) int {
	fs := newFlagSet("version")
	asJSON := fs.Bool("json", false, "print version details as JSON")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() > 0 {
		fmt.Fprintln(os.Stderr, "version takes no arguments")
		return 2
	}
	if !*asJSON {
		fmt.Println(versionString())
		return 0
	}
	doc, _ := sjson.Set("", "product", productName)
	doc, _ = sjson.Set(doc, "version", version)
	doc, _ = sjson.Set(doc, "go", runtime.Version())
	fmt.Println(doc)
	return 0
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

// session bundles what a subcommand needs from the environment.
type session struct {
	cfg    config.Config
	engine *engine.Engine
	audit  *logging.AuditLogger
}

func openSession(opts ...engine.Option) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	audit := logging.NewDiscardLogger("cryptolabctl")
	if path := strings.TrimSpace(cfg.AuditLog); path != "" {
		audit, err = logging.NewAuditLogger("cryptolabctl", logging.WithoutStdout(), logging.WithFile(path))
		if err != nil {
			return nil, fmt.Errorf("open audit log: %w", err)
		}
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))
	base := []engine.Option{
		engine.WithAuditLogger(audit),
		engine.WithLogger(logger),
		engine.WithWorkers(cfg.Analysis.Workers),
	}
	return &session{
		cfg:    cfg,
		engine: engine.New(append(base, opts...)...),
		audit:  audit,
	}, nil
}

func (s *session) Close() {
	_ = s.audit.Close()
}

// backend runs cipher requests either in process or against cryptolabd.
type backend interface {
	encode(ctx context.Context, scheme cipher.Scheme, text, key, iv string) (string, error)
	decode(ctx context.Context, scheme cipher.Scheme, text, key, iv string) (string, error)
	breakCipher(ctx context.Context, scheme cipher.Scheme, text string) (breakOutcome, error)
	close() error
}

type breakOutcome struct {
	Scheme    string
	Method    string
	Key       []byte
	KeyLength int
	Text      string
	// Candidates is set for brute force, one entry per key from -128 to 127.
	Candidates []breakCandidate
}

type breakCandidate struct {
	Key       int    `json:"key"`
	Plaintext string `json:"plaintext"`
}

type localBackend struct {
	engine *engine.Engine
}

func (b localBackend) encode(ctx context.Context, scheme cipher.Scheme, text, key, iv string) (string, error) {
	if scheme == cipher.SchemeCBCVigenere {
		return b.engine.EncodeHybrid(ctx, text, iv, key)
	}
	return b.engine.Encode(ctx, text, key, scheme)
}

func (b localBackend) decode(ctx context.Context, scheme cipher.Scheme, text, key, iv string) (string, error) {
	if scheme == cipher.SchemeCBCVigenere {
		return b.engine.DecodeHybrid(ctx, text, iv, key)
	}
	return b.engine.DecodeKnownKey(ctx, text, key, scheme)
}

func (b localBackend) breakCipher(ctx context.Context, scheme cipher.Scheme, text string) (breakOutcome, error) {
	res, err := b.engine.Break(ctx, text, scheme)
	if err != nil {
		return breakOutcome{}, err
	}
	return outcomeFromResult(res), nil
}

func (localBackend) close() error { return nil }

func outcomeFromResult(res analysis.Result) breakOutcome {
	o := breakOutcome{
		Scheme:    string(res.Scheme),
		Method:    string(res.Method),
		Key:       res.Key,
		KeyLength: res.KeyLength,
		Text:      res.Text(),
	}
	for _, c := range res.Candidates {
		o.Candidates = append(o.Candidates, breakCandidate{Key: int(c.Key), Plaintext: bytecodec.Decode(c.Plaintext)})
	}
	return o
}

type remoteBackend struct {
	client *rpc.Client
}

func (b remoteBackend) encode(ctx context.Context, scheme cipher.Scheme, text, key, iv string) (string, error) {
	return b.client.Encode(ctx, string(scheme), text, key, iv)
}

func (b remoteBackend) decode(ctx context.Context, scheme cipher.Scheme, text, key, iv string) (string, error) {
	return b.client.Decode(ctx, string(scheme), text, key, iv)
}

func (b remoteBackend) breakCipher(ctx context.Context, scheme cipher.Scheme, text string) (breakOutcome, error) {
	reply, err := b.client.Break(ctx, string(scheme), text)
	if err != nil {
		return breakOutcome{}, err
	}
	o := breakOutcome{
		Scheme:    reply.Scheme,
		Method:    reply.Method,
		Key:       reply.Key,
		KeyLength: reply.KeyLength,
		Text:      reply.Plaintext,
	}
	for i, plain := range reply.Candidates {
		o.Candidates = append(o.Candidates, breakCandidate{Key: i - analysis.AlphabetSize/2, Plaintext: plain})
	}
	return o, nil
}

func (b remoteBackend) close() error { return b.client.Close() }

func selectBackend(s *session, remote string) (backend, error) {
	remote = strings.TrimSpace(remote)
	if remote == "" {
		return localBackend{engine: s.engine}, nil
	}
	client, err := rpc.Dial(remote, s.cfg.AuthToken)
	if err != nil {
		return nil, err
	}
	return remoteBackend{client: client}, nil
}

// inputFlags are shared by every command that reads text.
type inputFlags struct {
	text  *string
	in    *string
	clean *bool
	html  *bool
}

func addInputFlags(fs *flag.FlagSet) inputFlags {
	return inputFlags{
		text:  fs.String("text", "", "input text (default: read --in or stdin)"),
		in:    fs.String("in", "", "read input from this file"),
		clean: fs.Bool("clean", false, "lowercase the input and keep only letters and spaces"),
		html:  fs.Bool("html", false, "treat the input as HTML and extract its visible text (implies --clean)"),
	}
}

// read returns the input as a Latin-1 string. Raw file and stdin bytes map
// one-to-one onto characters; cleaned input is decoded as UTF-8 first.
func (f inputFlags) read() (string, error) {
	var raw []byte
	switch {
	case *f.text != "":
	case *f.in != "":
		data, err := os.ReadFile(*f.in)
		if err != nil {
			return "", fmt.Errorf("read input: %w", err)
		}
		raw = data
	default:
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		raw = data
	}

	switch {
	case *f.html:
		src := *f.text
		if raw != nil {
			src = string(raw)
		}
		return textclean.CleanHTML(strings.NewReader(src))
	case *f.clean:
		if raw != nil {
			return textclean.Clean(string(raw)), nil
		}
		return textclean.Clean(*f.text), nil
	case raw != nil:
		return bytecodec.Decode(raw), nil
	default:
		return *f.text, nil
	}
}

// writeOutput writes text to path, or to stdout when path is empty, in the
// requested format: raw bytes, hex, or comma-separated signed integers.
func writeOutput(path, format, text string) error {
	data, err := bytecodec.Encode(text)
	if err != nil {
		return err
	}
	var out []byte
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "text", "raw":
		out = data
	case "hex":
		out = []byte(hex.EncodeToString(data))
	case "signed":
		out = []byte(formatSigned(data))
	default:
		return fmt.Errorf("unknown output format %q", format)
	}

	if path == "" {
		if _, err := os.Stdout.Write(out); err != nil {
			return err
		}
		_, err := fmt.Fprintln(os.Stdout)
		return err
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func formatSigned(data []byte) string {
	parts := make([]string, len(data))
	for i, v := range bytecodec.Ints(data) {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}

// keyArg resolves key material given as text or as hex.
func keyArg(text, hexKey string) (string, error) {
	if hexKey == "" {
		return text, nil
	}
	if text != "" {
		return "", fmt.Errorf("use either the text or the hex form of a key, not both")
	}
	raw, err := hex.DecodeString(strings.TrimSpace(hexKey))
	if err != nil {
		return "", fmt.Errorf("decode hex key: %w", err)
	}
	return bytecodec.Decode(raw), nil
}

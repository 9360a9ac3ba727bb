// Package engine is the text-level facade over the cipher and analysis
// packages. Text crosses the boundary as Latin-1 so every byte value
// round-trips, and each call leaves an audit record and metric samples.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/RowanDark/cryptolab/internal/analysis"
	"github.com/RowanDark/cryptolab/internal/bytecodec"
	"github.com/RowanDark/cryptolab/internal/cipher"
	"github.com/RowanDark/cryptolab/internal/logging"
	"github.com/RowanDark/cryptolab/internal/observability/metrics"
	"github.com/RowanDark/cryptolab/internal/redact"
)

// ErrHybridNeedsIV is returned when the CBC-Vigenère scheme is used through
// the single-key entry points.
var ErrHybridNeedsIV = errors.New("cbc_vigenere takes an iv and a key; use the hybrid entry points")

// Metrics receives engine measurements.
type Metrics interface {
	RecordOperation(scheme, direction, outcome string)
	RecordBreak(scheme, method, outcome string, dur time.Duration)
	RecordPadBytes(n int)
}

type processMetrics struct{}

func (processMetrics) RecordOperation(scheme, direction, outcome string) {
	metrics.RecordOperation(scheme, direction, outcome)
}

func (processMetrics) RecordBreak(scheme, method, outcome string, dur time.Duration) {
	metrics.RecordBreak(scheme, method, outcome, dur)
}

func (processMetrics) RecordPadBytes(n int) {
	metrics.RecordPadBytes(n)
}

// Engine runs cipher and analysis requests.
type Engine struct {
	audit   *logging.AuditLogger
	logger  *slog.Logger
	pads    *cipher.PadGenerator
	metrics Metrics
	workers int
	now     func() time.Time
}

// Option customises an Engine.
type Option func(*Engine)

// WithAuditLogger sends audit events to l.
func WithAuditLogger(l *logging.AuditLogger) Option {
	return func(e *Engine) {
		if l != nil {
			e.audit = l
		}
	}
}

// WithLogger sets the operational logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithPadGenerator replaces the crypto/rand backed pad source.
func WithPadGenerator(g *cipher.PadGenerator) Option {
	return func(e *Engine) {
		if g != nil {
			e.pads = g
		}
	}
}

// WithMetrics replaces the process-wide metrics registry.
func WithMetrics(m Metrics) Option {
	return func(e *Engine) {
		if m != nil {
			e.metrics = m
		}
	}
}

// WithWorkers bounds brute-force parallelism. Zero means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(e *Engine) {
		if n >= 0 {
			e.workers = n
		}
	}
}

// New returns an Engine. Without options it audits nowhere, logs JSON to
// stdout and draws pads from crypto/rand.
func New(opts ...Option) *Engine {
	e := &Engine{
		audit:   logging.NewDiscardLogger("engine"),
		logger:  slog.New(slog.NewJSONHandler(os.Stdout, nil)),
		pads:    cipher.NewPadGenerator(nil),
		metrics: processMetrics{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Encode enciphers plaintext with key under scheme. Caesar and XOR use the
// first key byte; Vigenère uses the whole key; the One-Time Pad key must be
// at least as long as the plaintext; CBC uses the key as its IV.
func (e *Engine) Encode(ctx context.Context, plaintext, key string, scheme cipher.Scheme) (string, error) {
	return e.transform(ctx, plaintext, key, scheme, false)
}

// DecodeKnownKey inverts Encode.
func (e *Engine) DecodeKnownKey(ctx context.Context, ciphertext, key string, scheme cipher.Scheme) (string, error) {
	return e.transform(ctx, ciphertext, key, scheme, true)
}

func (e *Engine) transform(ctx context.Context, text, key string, scheme cipher.Scheme, decode bool) (string, error) {
	direction, event := "encode", logging.EventEncode
	if decode {
		direction, event = "decode", logging.EventDecode
	}

	out, err := e.apply(ctx, text, key, scheme, decode)
	e.finishOperation(event, scheme, direction, err, map[string]any{
		"key":         key,
		"input_bytes": len(text),
	})
	if err != nil {
		return "", err
	}
	return out, nil
}

func (e *Engine) apply(ctx context.Context, text, key string, scheme cipher.Scheme, decode bool) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	in, err := bytecodec.Encode(text)
	if err != nil {
		return "", fmt.Errorf("input: %w", err)
	}
	k, err := bytecodec.Encode(key)
	if err != nil {
		return "", fmt.Errorf("key: %w", err)
	}

	var out []byte
	switch scheme {
	case cipher.SchemeCaesar:
		if len(k) == 0 {
			return "", fmt.Errorf("%w: caesar key must not be empty", cipher.ErrInvalidKeyLength)
		}
		shift := k[0]
		if decode {
			shift = bytecodec.Neg(shift)
		}
		out = cipher.Caesar(in, shift, false)
	case cipher.SchemeXOR:
		if len(k) == 0 {
			return "", fmt.Errorf("%w: xor key must not be empty", cipher.ErrInvalidKeyLength)
		}
		out = cipher.XOR(in, k[0], false)
	case cipher.SchemeVigenere:
		if decode {
			k = cipher.Negate(k)
		}
		out, err = cipher.Vigenere(in, k, false)
	case cipher.SchemeOneTimePad:
		out, err = cipher.OneTimePad(in, k)
	case cipher.SchemeCBC:
		if decode {
			out, err = cipher.CBCDecrypt(in, k)
		} else {
			out, err = cipher.CBCEncrypt(in, k)
		}
	case cipher.SchemeCBCVigenere:
		return "", ErrHybridNeedsIV
	default:
		return "", fmt.Errorf("%w: %q", cipher.ErrUnknownScheme, scheme)
	}
	if err != nil {
		return "", err
	}
	return bytecodec.Decode(out), nil
}

// EncodeHybrid enciphers plaintext with the CBC-Vigenère hybrid.
func (e *Engine) EncodeHybrid(ctx context.Context, plaintext, iv, key string) (string, error) {
	return e.EncodeHybridTrace(ctx, plaintext, iv, key, nil)
}

// EncodeHybridTrace is EncodeHybrid reporting every emitted block to trace.
func (e *Engine) EncodeHybridTrace(ctx context.Context, plaintext, iv, key string, trace cipher.BlockTrace) (string, error) {
	out, err := e.hybrid(ctx, plaintext, iv, key, func(in, ivb, kb []byte) ([]byte, error) {
		return cipher.HybridEncryptTrace(in, ivb, kb, trace)
	})
	e.finishOperation(logging.EventEncode, cipher.SchemeCBCVigenere, "encode", err, map[string]any{
		"iv":          iv,
		"key":         key,
		"input_bytes": len(plaintext),
	})
	return out, err
}

// DecodeHybrid inverts EncodeHybrid.
func (e *Engine) DecodeHybrid(ctx context.Context, ciphertext, iv, key string) (string, error) {
	out, err := e.hybrid(ctx, ciphertext, iv, key, cipher.HybridDecrypt)
	e.finishOperation(logging.EventDecode, cipher.SchemeCBCVigenere, "decode", err, map[string]any{
		"iv":          iv,
		"key":         key,
		"input_bytes": len(ciphertext),
	})
	return out, err
}

func (e *Engine) hybrid(ctx context.Context, text, iv, key string, fn func(in, iv, key []byte) ([]byte, error)) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	in, err := bytecodec.Encode(text)
	if err != nil {
		return "", fmt.Errorf("input: %w", err)
	}
	ivb, err := bytecodec.Encode(iv)
	if err != nil {
		return "", fmt.Errorf("iv: %w", err)
	}
	kb, err := bytecodec.Encode(key)
	if err != nil {
		return "", fmt.Errorf("key: %w", err)
	}
	out, err := fn(in, ivb, kb)
	if err != nil {
		return "", err
	}
	return bytecodec.Decode(out), nil
}

func (e *Engine) finishOperation(event logging.EventType, scheme cipher.Scheme, direction string, err error, meta map[string]any) {
	outcome := logging.OutcomeSuccess
	reason := ""
	if err != nil {
		outcome = logging.OutcomeFailure
		reason = err.Error()
	}
	e.metrics.RecordOperation(string(scheme), direction, string(outcome))
	e.emit(logging.AuditEvent{
		EventType: event,
		Scheme:    string(scheme),
		Outcome:   outcome,
		Reason:    reason,
		Metadata:  meta,
	})
}

// BreakCipher recovers plaintext without the key. Caesar and Vigenère return
// the recovered plaintext; XOR returns all 256 candidates joined by newlines
// in key order.
func (e *Engine) BreakCipher(ctx context.Context, ciphertext string, scheme cipher.Scheme) (string, error) {
	res, err := e.Break(ctx, ciphertext, scheme)
	if err != nil {
		return "", err
	}
	return res.Text(), nil
}

// Break runs the keyless attack for scheme and returns the structured result.
func (e *Engine) Break(ctx context.Context, ciphertext string, scheme cipher.Scheme) (analysis.Result, error) {
	if err := ctx.Err(); err != nil {
		return analysis.Result{}, err
	}
	in, err := bytecodec.Encode(ciphertext)
	if err != nil {
		return analysis.Result{}, fmt.Errorf("input: %w", err)
	}

	done := metrics.TrackAnalysis()
	start := e.now()
	res, err := analysis.BreakWorkers(in, scheme, e.workers)
	elapsed := e.now().Sub(start)
	done()

	outcome := logging.OutcomeSuccess
	event := logging.EventBreak
	reason := ""
	switch {
	case errors.Is(err, analysis.ErrPeriodNotFound):
		outcome, event, reason = logging.OutcomeFailure, logging.EventPeriodNotFound, err.Error()
	case err != nil:
		outcome, reason = logging.OutcomeFailure, err.Error()
	}
	method := string(res.Method)
	e.metrics.RecordBreak(string(scheme), method, string(outcome), elapsed)

	meta := map[string]any{
		"method":      method,
		"input_bytes": len(in),
		"duration_ms": elapsed.Milliseconds(),
	}
	if res.KeyLength > 0 {
		meta["key_length"] = res.KeyLength
	}
	if len(res.Key) > 0 {
		meta["recovered_key"] = redact.Key(res.Key)
	}
	if res.Method == analysis.MethodBruteForce {
		meta["candidates"] = len(res.Candidates)
	}
	e.emit(logging.AuditEvent{
		EventType: event,
		Scheme:    string(scheme),
		Outcome:   outcome,
		Reason:    reason,
		Metadata:  meta,
	})

	if err != nil {
		return res, err
	}
	e.logger.Debug("cipher broken", slog.String("scheme", string(scheme)), slog.String("method", method), slog.Duration("elapsed", elapsed))
	return res, nil
}

const (
	vigenereHeading = "* Decryption with Vigenere:"
	xorHeading      = "* Decryption with XOR brute force:"
	periodUnknown   = "key length not found"
)

// BreakFile produces the decryption report for a ciphertext of unknown key:
// the Vigenère break, followed by every XOR candidate when tryXOR is set. A
// Vigenère period that cannot be found is noted in the report rather than
// failing it.
func (e *Engine) BreakFile(ctx context.Context, ciphertext string, tryXOR bool) (string, error) {
	var sb strings.Builder
	sb.WriteString(vigenereHeading)
	sb.WriteString("\n\n")

	plain, err := e.BreakCipher(ctx, ciphertext, cipher.SchemeVigenere)
	switch {
	case errors.Is(err, analysis.ErrPeriodNotFound):
		sb.WriteString(periodUnknown)
	case err != nil:
		return "", err
	default:
		sb.WriteString(plain)
	}

	if tryXOR {
		candidates, err := e.BreakCipher(ctx, ciphertext, cipher.SchemeXOR)
		if err != nil {
			return "", err
		}
		sb.WriteString("\n\n")
		sb.WriteString(xorHeading)
		sb.WriteString("\n\n")
		sb.WriteString(candidates)
	}
	return sb.String(), nil
}

// GeneratePad returns n bytes of pad material from the engine's generator.
func (e *Engine) GeneratePad(ctx context.Context, n int) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	pad, err := e.pads.Generate(n)
	outcome := logging.OutcomeSuccess
	reason := ""
	if err != nil {
		outcome, reason = logging.OutcomeFailure, err.Error()
	} else {
		e.metrics.RecordPadBytes(len(pad))
	}
	e.emit(logging.AuditEvent{
		EventType: logging.EventPadGenerated,
		Outcome:   outcome,
		Reason:    reason,
		Metadata:  map[string]any{"length": n},
	})
	return pad, err
}

func (e *Engine) emit(event logging.AuditEvent) {
	if err := e.audit.Emit(event); err != nil {
		e.logger.Warn("audit emit failed", slog.String("event_type", string(event.EventType)), slog.Any("error", err))
	}
}

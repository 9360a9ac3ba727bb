// Package logging writes the cryptolab audit trail: one JSON object per line
// for every cipher, analysis and recipe action.
package logging

import (
	"encoding/json"
	"errors"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RowanDark/cryptolab/internal/redact"
)

type EventType string

const (
	EventEncode          EventType = "encode"
	EventDecode          EventType = "decode"
	EventBreak           EventType = "break"
	EventPeriodNotFound  EventType = "period_not_found"
	EventPadGenerated    EventType = "pad_generated"
	EventPipelineRun     EventType = "pipeline_run"
	EventRecipeSaved     EventType = "recipe_saved"
	EventRecipeDeleted   EventType = "recipe_deleted"
	EventRPCCall         EventType = "rpc_call"
	EventHTTPRequest     EventType = "http_request"
	EventServerLifecycle EventType = "server_lifecycle"
	EventAuthDenied      EventType = "auth_denied"
)

type Outcome string

const (
	OutcomeSuccess Outcome = "success"
	OutcomeFailure Outcome = "failure"
	OutcomeDenied  Outcome = "denied"
)

type AuditEvent struct {
	ID        string         `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Component string         `json:"component"`
	EventType EventType      `json:"event_type"`
	Scheme    string         `json:"scheme,omitempty"`
	Outcome   Outcome        `json:"outcome,omitempty"`
	Reason    string         `json:"reason,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// normalize fills the fields callers usually leave empty and scrubs key
// material from the free-form parts of the event.
func (e AuditEvent) normalize(component string, now func() time.Time) AuditEvent {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Timestamp.IsZero() {
		e.Timestamp = now()
	}
	e.Timestamp = e.Timestamp.UTC()
	if e.Component == "" {
		e.Component = component
	}
	e.Reason = redact.String(e.Reason)
	if len(e.Metadata) > 0 {
		e.Metadata = redact.Map(e.Metadata)
	}
	return e
}

type options struct {
	stdout  bool
	writers []io.Writer
	closers []io.Closer
	now     func() time.Time
}

// Option configures where and how an AuditLogger writes.
type Option func(*options) error

func WithWriter(w io.Writer) Option {
	return func(o *options) error {
		if w == nil {
			return errors.New("writer cannot be nil")
		}
		o.writers = append(o.writers, w)
		return nil
	}
}

// WithFile appends events to path, creating it with 0600 permissions.
func WithFile(path string) Option {
	return func(o *options) error {
		if strings.TrimSpace(path) == "" {
			return errors.New("file path cannot be empty")
		}
		f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o600)
		if err != nil {
			return err
		}
		o.writers = append(o.writers, f)
		o.closers = append(o.closers, f)
		return nil
	}
}

// WithoutStdout stops the logger from mirroring events to standard output.
func WithoutStdout() Option {
	return func(o *options) error {
		o.stdout = false
		return nil
	}
}

// WithClock overrides the timestamp source for events that carry none.
func WithClock(now func() time.Time) Option {
	return func(o *options) error {
		if now == nil {
			return errors.New("clock cannot be nil")
		}
		o.now = now
		return nil
	}
}

// sink is shared by a logger and every logger derived from it.
type sink struct {
	mu      sync.Mutex
	enc     *json.Encoder
	closers []io.Closer
	now     func() time.Time
	counts  map[EventType]int
}

func (s *sink) write(event AuditEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.enc.Encode(event); err != nil {
		return err
	}
	s.counts[event.EventType]++
	return nil
}

// AuditLogger stamps events with its component name and writes them to a
// shared sink. Loggers derived with WithComponent share the sink but do not
// own its files.
type AuditLogger struct {
	component string
	sink      *sink
	owner     bool
}

func NewAuditLogger(component string, opts ...Option) (*AuditLogger, error) {
	o := &options{stdout: true, now: time.Now}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			for _, c := range o.closers {
				_ = c.Close()
			}
			return nil, err
		}
	}
	writers := o.writers
	if o.stdout {
		writers = append([]io.Writer{os.Stdout}, writers...)
	}
	if len(writers) == 0 {
		return nil, errors.New("no writers configured for audit logger")
	}

	enc := json.NewEncoder(io.MultiWriter(writers...))
	enc.SetEscapeHTML(false)
	return &AuditLogger{
		component: component,
		sink: &sink{
			enc:     enc,
			closers: o.closers,
			now:     o.now,
			counts:  make(map[EventType]int),
		},
		owner: true,
	}, nil
}

// NewDiscardLogger returns a logger that drops every event.
func NewDiscardLogger(component string) *AuditLogger {
	logger, _ := NewAuditLogger(component, WithoutStdout(), WithWriter(io.Discard))
	return logger
}

// Emit normalizes event and writes it as a single JSON line.
func (l *AuditLogger) Emit(event AuditEvent) error {
	if l == nil || l.sink == nil {
		return errors.New("nil audit logger")
	}
	return l.sink.write(event.normalize(l.component, l.sink.now))
}

func (l *AuditLogger) WithComponent(component string) *AuditLogger {
	if l == nil || l.sink == nil {
		return nil
	}
	return &AuditLogger{component: component, sink: l.sink}
}

// Counts reports how many events of each type the shared sink has written.
func (l *AuditLogger) Counts() map[EventType]int {
	if l == nil || l.sink == nil {
		return nil
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	out := make(map[EventType]int, len(l.sink.counts))
	for k, v := range l.sink.counts {
		out[k] = v
	}
	return out
}

// Close releases files opened by WithFile. It is a no-op on derived loggers.
func (l *AuditLogger) Close() error {
	if l == nil || !l.owner || l.sink == nil {
		return nil
	}
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	var firstErr error
	for _, c := range l.sink.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	l.sink.closers = nil
	return firstErr
}

package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAuditLoggerEmit(t *testing.T) {
	buf := &bytes.Buffer{}
	logger, err := NewAuditLogger("test", WithoutStdout(), WithWriter(buf))
	if err != nil {
		t.Fatalf("NewAuditLogger: %v", err)
	}

	event := AuditEvent{
		EventType: EventEncode,
		Scheme:    "vigenere",
		Outcome:   OutcomeSuccess,
		Metadata:  map[string]any{"key": "lemon", "length": 12},
	}
	if err := logger.Emit(event); err != nil {
		t.Fatalf("Emit: %v", err)
	}

	var decoded AuditEvent
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("json.Unmarshal: %v", err)
	}

	if decoded.Component != "test" {
		t.Fatalf("expected component 'test', got %q", decoded.Component)
	}
	if decoded.EventType != EventEncode {
		t.Fatalf("expected event type %q, got %q", EventEncode, decoded.EventType)
	}
	if _, err := uuid.Parse(decoded.ID); err != nil {
		t.Fatalf("expected uuid event id, got %q", decoded.ID)
	}
	if decoded.Timestamp.IsZero() {
		t.Fatalf("expected timestamp to be set")
	}
	if strings.Contains(buf.String(), "lemon") {
		t.Fatalf("key material leaked into audit log: %s", buf.String())
	}
}

func TestAuditLoggerWithComponentSharesWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	root, err := NewAuditLogger("root", WithoutStdout(), WithWriter(buf))
	if err != nil {
		t.Fatalf("NewAuditLogger: %v", err)
	}
	child := root.WithComponent("engine")

	if err := child.Emit(AuditEvent{EventType: EventBreak}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := child.Close(); err != nil {
		t.Fatalf("child Close: %v", err)
	}
	if err := root.Emit(AuditEvent{EventType: EventBreak}); err != nil {
		t.Fatalf("Emit after child close: %v", err)
	}

	scanner := bufio.NewScanner(buf)
	var components []string
	for scanner.Scan() {
		var ev AuditEvent
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("decode line: %v", err)
		}
		components = append(components, ev.Component)
	}
	if len(components) != 2 || components[0] != "engine" || components[1] != "root" {
		t.Fatalf("unexpected components %v", components)
	}
}

func TestAuditLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.jsonl")
	logger, err := NewAuditLogger("file", WithoutStdout(), WithFile(path))
	if err != nil {
		t.Fatalf("NewAuditLogger: %v", err)
	}
	if err := logger.Emit(AuditEvent{EventType: EventPadGenerated}); err != nil {
		t.Fatalf("Emit: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read audit file: %v", err)
	}
	if !strings.Contains(string(data), `"event_type":"pad_generated"`) {
		t.Fatalf("unexpected audit file contents %s", data)
	}
}

func TestAuditLoggerRequiresWriter(t *testing.T) {
	if _, err := NewAuditLogger("none", WithoutStdout()); err == nil {
		t.Fatal("expected error without writers")
	}
	var nilLogger *AuditLogger
	if err := nilLogger.Emit(AuditEvent{}); err == nil {
		t.Fatal("expected error from nil logger")
	}
}

func TestAuditLoggerClockAndCounts(t *testing.T) {
	buf := &bytes.Buffer{}
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	logger, err := NewAuditLogger("clock", WithoutStdout(), WithWriter(buf), WithClock(func() time.Time { return fixed }))
	if err != nil {
		t.Fatalf("NewAuditLogger: %v", err)
	}
	child := logger.WithComponent("api")
	for _, ev := range []EventType{EventEncode, EventEncode, EventBreak} {
		if err := child.Emit(AuditEvent{EventType: ev}); err != nil {
			t.Fatalf("Emit: %v", err)
		}
	}

	var first AuditEvent
	line, _, _ := strings.Cut(buf.String(), "\n")
	if err := json.Unmarshal([]byte(line), &first); err != nil {
		t.Fatalf("decode first event: %v", err)
	}
	if !first.Timestamp.Equal(fixed) {
		t.Fatalf("timestamp = %v, want %v", first.Timestamp, fixed)
	}
	if !strings.Contains(line, `"timestamp":"2024-03-01T11:00:00Z"`) {
		t.Fatalf("timestamp not written in UTC: %s", line)
	}

	counts := logger.Counts()
	if counts[EventEncode] != 2 || counts[EventBreak] != 1 {
		t.Fatalf("counts = %v", counts)
	}
	counts[EventEncode] = 99
	if logger.Counts()[EventEncode] != 2 {
		t.Fatal("Counts returned a shared map")
	}

	if _, err := NewAuditLogger("clock", WithClock(nil)); err == nil {
		t.Fatal("expected error for nil clock")
	}
}

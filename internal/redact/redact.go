// Package redact keeps key material out of logs and audit trails.
package redact

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"regexp"
	"strings"
)

const redactedSecret = "[REDACTED_SECRET]"

// sensitiveFields are parameter names whose values are always masked.
var sensitiveFields = map[string]struct{}{
	"key":        {},
	"key_bytes":  {},
	"iv":         {},
	"iv_bytes":   {},
	"pad":        {},
	"passphrase": {},
	"salt":       {},
	"token":      {},
	"auth_token": {},
}

var (
	kvSecretRe = regexp.MustCompile(`(?i)\b((?:key|iv|pad|passphrase|token|secret)(?:_bytes)?\s*[:=]\s*)(['"]?)([^\s'",}]+)(['"]?)`)
	bearerRe   = regexp.MustCompile(`(?i)\b(bearer)\s+([A-Za-z0-9._\-]{6,})`)
)

// String masks key=value style secrets and bearer tokens inside free text.
func String(in string) string {
	if strings.TrimSpace(in) == "" {
		return in
	}
	masked := kvSecretRe.ReplaceAllString(in, `$1$2`+redactedSecret+`$4`)
	return bearerRe.ReplaceAllString(masked, `$1 `+redactedSecret)
}

// Key describes key material without revealing it: its length and the first
// eight hex digits of its SHA-256.
func Key(key []byte) string {
	if len(key) == 0 {
		return "len=0"
	}
	sum := sha256.Sum256(key)
	return fmt.Sprintf("len=%d sha256=%s", len(key), hex.EncodeToString(sum[:4]))
}

// Sensitive reports whether a parameter name carries key material.
func Sensitive(name string) bool {
	_, ok := sensitiveFields[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// Map returns a copy of in with sensitive fields replaced by a fingerprint
// (for byte and string values) or a placeholder, and free text scrubbed.
func Map(in map[string]any) map[string]any {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		if Sensitive(k) {
			out[k] = maskValue(v)
			continue
		}
		out[k] = Interface(v)
	}
	return out
}

// Interface scrubs strings found in nested values.
func Interface(value any) any {
	switch v := value.(type) {
	case string:
		return String(v)
	case fmt.Stringer:
		return String(v.String())
	case []string:
		out := make([]string, len(v))
		for i, s := range v {
			out[i] = String(s)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, elem := range v {
			out[i] = Interface(elem)
		}
		return out
	case map[string]any:
		return Map(v)
	default:
		return value
	}
}

func maskValue(v any) any {
	switch val := v.(type) {
	case []byte:
		return Key(val)
	case string:
		return Key([]byte(val))
	default:
		return redactedSecret
	}
}

package textclean

import (
	"strings"
	"testing"
)

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lower case", "Hello World", "hello world"},
		{"punctuation", "i want, to go!", "i want to go"},
		{"whitespace runs", "  a \t\n b   c  ", "a b c"},
		{"accents", "Café déjà vu", "cafe deja vu"},
		{"digits", "room 101 is free", "room is free"},
		{"empty", "", ""},
		{"only symbols", "!!! ??", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestExtractHTML(t *testing.T) {
	doc := `<html><head><title>Notes</title><style>p{color:red}</style></head>
<body><h1>Keeper's Log</h1><script>var x = 1;</script><p>Fog all <b>night</b>.</p></body></html>`

	text, err := ExtractHTML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("extract failed: %v", err)
	}
	if strings.Contains(text, "color") || strings.Contains(text, "var x") {
		t.Errorf("style or script leaked into %q", text)
	}
	if !strings.Contains(text, "Keeper's Log") || !strings.Contains(text, "night") {
		t.Errorf("visible text missing from %q", text)
	}

	cleaned, err := CleanHTML(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("clean failed: %v", err)
	}
	if cleaned != "notes keeper s log fog all night" {
		t.Errorf("unexpected cleaned text %q", cleaned)
	}
}

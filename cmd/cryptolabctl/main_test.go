package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/tidwall/gjson"

	"github.com/RowanDark/cryptolab/internal/analysis"
	"github.com/RowanDark/cryptolab/internal/cipher"
)

func silenceOutput(t *testing.T) func() {
	t.Helper()
	devNull, err := os.OpenFile(os.DevNull, os.O_WRONLY, 0)
	if err != nil {
		t.Fatalf("open dev null: %v", err)
	}
	stdout := os.Stdout
	stderr := os.Stderr
	os.Stdout = devNull
	os.Stderr = devNull
	return func() {
		os.Stdout = stdout
		os.Stderr = stderr
		if err := devNull.Close(); err != nil {
			t.Fatalf("close dev null: %v", err)
		}
	}
}

// captureStdout runs fn with stdout redirected to a temp file and returns
// what it wrote.
func captureStdout(t *testing.T, fn func() int) (string, int) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "stdout")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create capture file: %v", err)
	}
	stdout := os.Stdout
	os.Stdout = f
	code := fn()
	os.Stdout = stdout
	if err := f.Close(); err != nil {
		t.Fatalf("close capture file: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read capture file: %v", err)
	}
	return string(data), code
}

// isolate points config discovery and storage at a fresh directory.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	t.Setenv("CRYPTOLAB_RECIPES_DIR", filepath.Join(dir, "recipes"))
	t.Setenv("CRYPTOLAB_AUDIT_LOG", filepath.Join(dir, "audit.log"))
	t.Setenv("CRYPTOLAB_AUTH_TOKEN", "")
	return dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func writeCorpus(t *testing.T, dir string) (string, string) {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("..", "..", "internal", "analysis", "testdata", "english.txt"))
	if err != nil {
		t.Fatalf("read corpus: %v", err)
	}
	corpus := bytes.TrimSpace(data)
	path := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(path, corpus, 0o644); err != nil {
		t.Fatalf("write corpus: %v", err)
	}
	return path, string(corpus)
}

func TestRunEncodeDecodeFiles(t *testing.T) {
	restore := silenceOutput(t)
	defer restore()
	dir := isolate(t)

	plain := filepath.Join(dir, "plain.txt")
	if err := os.WriteFile(plain, []byte("attack at dawn"), 0o644); err != nil {
		t.Fatalf("write plaintext: %v", err)
	}
	schemes := []struct {
		scheme string
		args   []string
	}{
		{"caesar", []string{"--key", "2"}},
		{"vigenere", []string{"--key", "lemon"}},
		{"xor", []string{"--key-hex", "9c"}},
		{"otp", []string{"--key", "a pad at least as long"}},
		{"cbc", []string{"--key", "iv"}},
		{"cbc_vigenere", []string{"--iv", "abcd", "--key", "secret"}},
	}
	for _, tc := range schemes {
		t.Run(tc.scheme, func(t *testing.T) {
			enc := filepath.Join(dir, tc.scheme+".enc")
			dec := filepath.Join(dir, tc.scheme+".dec")
			args := append([]string{"--scheme", tc.scheme, "--in", plain, "--out", enc}, tc.args...)
			if code := runEncode(args); code != 0 {
				t.Fatalf("encode exit code %d", code)
			}
			if readFile(t, enc) == "attack at dawn" {
				t.Fatalf("ciphertext equals plaintext")
			}
			args = append([]string{"--scheme", tc.scheme, "--in", enc, "--out", dec}, tc.args...)
			if code := runDecode(args); code != 0 {
				t.Fatalf("decode exit code %d", code)
			}
			if got := readFile(t, dec); got != "attack at dawn" {
				t.Fatalf("round trip = %q", got)
			}
		})
	}
}

func TestRunEncodeXORLiteral(t *testing.T) {
	restore := silenceOutput(t)
	defer restore()
	dir := isolate(t)

	out := filepath.Join(dir, "out")
	if code := runEncode([]string{"--scheme", "x", "--key-hex", "03", "--text", "abc", "--out", out}); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if got := readFile(t, out); got != "ba`" {
		t.Fatalf("xor = %q, want %q", got, "ba`")
	}

	if code := runEncode([]string{"--scheme", "xor", "--key-hex", "03", "--text", "abc", "--format", "signed", "--out", out}); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if got := readFile(t, out); got != "98,97,96" {
		t.Fatalf("signed = %q", got)
	}
}

func TestRunCipherUsageErrors(t *testing.T) {
	restore := silenceOutput(t)
	defer restore()
	isolate(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"missing scheme", []string{"--key", "k", "--text", "abc"}, 2},
		{"unknown scheme", []string{"--scheme", "rot13", "--key", "k", "--text", "abc"}, 2},
		{"unknown flag", []string{"--nope"}, 2},
		{"iv on caesar", []string{"--scheme", "caesar", "--key", "k", "--iv", "x", "--text", "abc"}, 2},
		{"both key forms", []string{"--scheme", "xor", "--key", "k", "--key-hex", "01", "--text", "abc"}, 2},
		{"bad hex", []string{"--scheme", "xor", "--key-hex", "zz", "--text", "abc"}, 2},
		{"empty key", []string{"--scheme", "vigenere", "--text", "abc"}, 1},
		{"hybrid without iv", []string{"--scheme", "cbc_vigenere", "--key", "k", "--text", "abc"}, 1},
		{"missing input file", []string{"--scheme", "caesar", "--key", "k", "--in", "/does/not/exist"}, 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := runEncode(tc.args); got != tc.want {
				t.Fatalf("exit code = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRunEncodeTraceRequiresHybrid(t *testing.T) {
	restore := silenceOutput(t)
	defer restore()
	dir := isolate(t)

	if code := runEncode([]string{"--scheme", "caesar", "--key", "k", "--text", "abc", "--trace"}); code != 2 {
		t.Fatalf("exit code = %d, want 2", code)
	}
	out := filepath.Join(dir, "out")
	if code := runEncode([]string{"--scheme", "hybrid", "--iv", "abcd", "--key", "k", "--text", "abcdefgh", "--trace", "--out", out}); code != 0 {
		t.Fatalf("exit code = %d", code)
	}
	if got := readFile(t, out); len(got) != len("abcdefgh") {
		t.Fatalf("ciphertext length = %d", len(got))
	}
}

func TestRunBreakCaesar(t *testing.T) {
	restore := silenceOutput(t)
	defer restore()
	dir := isolate(t)
	plain, corpus := writeCorpus(t, dir)

	enc := filepath.Join(dir, "corpus.enc")
	if code := runEncode([]string{"--scheme", "caesar", "--key", "d", "--in", plain, "--out", enc}); code != 0 {
		t.Fatalf("encode exit code %d", code)
	}
	out := filepath.Join(dir, "broken.txt")
	if code := runBreak([]string{"--scheme", "caesar", "--in", enc, "--out", out}); code != 0 {
		t.Fatalf("break exit code %d", code)
	}
	if got := readFile(t, out); got != corpus {
		t.Fatalf("recovered plaintext differs from corpus")
	}

	jsonOut := filepath.Join(dir, "broken.json")
	if code := runBreak([]string{"--scheme", "caesar", "--in", enc, "--json", "--out", jsonOut}); code != 0 {
		t.Fatalf("break --json exit code %d", code)
	}
	doc := readFile(t, jsonOut)
	for _, want := range []string{`"scheme":"caesar"`, `"method":"frequency"`, `"key_length":1`} {
		if !strings.Contains(doc, want) {
			t.Fatalf("json report missing %s: %s", want, doc[:80])
		}
	}
}

func TestBreakJSONKeepsCandidatesByKey(t *testing.T) {
	plain := []byte("attack at dawn")
	res := analysis.BreakXOR(cipher.XOR(plain, 50, false))

	doc, err := breakJSON(outcomeFromResult(res))
	if err != nil {
		t.Fatalf("breakJSON: %v", err)
	}
	if !gjson.Valid(doc) {
		t.Fatalf("invalid json: %s", doc)
	}
	candidates := gjson.Get(doc, "candidates").Array()
	if len(candidates) != 256 {
		t.Fatalf("got %d candidates, want 256", len(candidates))
	}
	newlines := 0
	for i, c := range candidates {
		if got := c.Get("key").Int(); got != int64(i-128) {
			t.Fatalf("candidates[%d].key = %d, want %d", i, got, i-128)
		}
		if strings.Contains(c.Get("plaintext").String(), "\n") {
			newlines++
		}
	}
	if newlines == 0 {
		t.Fatal("expected at least one candidate containing a newline")
	}
	if got := gjson.Get(doc, "candidates.178.plaintext").String(); got != string(plain) {
		t.Fatalf("candidate for key 50 = %q", got)
	}
	if gjson.Get(doc, "plaintext").Exists() {
		t.Fatal("brute force report should not carry a plaintext field")
	}
}

func TestRunBreakTryXORReport(t *testing.T) {
	restore := silenceOutput(t)
	defer restore()
	dir := isolate(t)

	out := filepath.Join(dir, "report.txt")
	if code := runBreak([]string{"--text", "short", "--try-xor", "--out", out}); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	report := readFile(t, out)
	if !strings.HasPrefix(report, "* Decryption with Vigenere:\n\n") {
		t.Fatalf("report heading missing: %q", report[:40])
	}
	if !strings.Contains(report, "* Decryption with XOR brute force:") {
		t.Fatalf("xor section missing")
	}
	if got := strings.Count(report, "\n"); got < 255 {
		t.Fatalf("report has %d lines, want every xor candidate", got)
	}
}

func TestRunBreakUsageErrors(t *testing.T) {
	restore := silenceOutput(t)
	defer restore()
	isolate(t)

	tests := []struct {
		name string
		args []string
		want int
	}{
		{"keyed scheme", []string{"--scheme", "otp", "--text", "abc"}, 2},
		{"unknown scheme", []string{"--scheme", "enigma", "--text", "abc"}, 2},
		{"try-xor with json", []string{"--try-xor", "--json", "--text", "abc"}, 2},
		{"period not found", []string{"--text", "abc"}, 1},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := runBreak(tc.args); got != tc.want {
				t.Fatalf("exit code = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestRunPadSeeded(t *testing.T) {
	restore := silenceOutput(t)
	defer restore()
	dir := isolate(t)

	first := filepath.Join(dir, "a.hex")
	second := filepath.Join(dir, "b.hex")
	for _, path := range []string{first, second} {
		if code := runPad([]string{"--length", "16", "--seed", "42", "--out", path}); code != 0 {
			t.Fatalf("exit code %d", code)
		}
	}
	a, b := readFile(t, first), readFile(t, second)
	if a != b {
		t.Fatalf("seeded pads differ: %s vs %s", a, b)
	}
	if len(a) != 32 {
		t.Fatalf("hex pad length = %d, want 32", len(a))
	}

	if code := runPad([]string{"--length", "16", "--passphrase", "hunter2", "--out", second}); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if readFile(t, second) == a {
		t.Fatalf("passphrase pad matches seeded pad")
	}

	if code := runPad([]string{"--length", "16", "--seed", "1", "--passphrase", "x"}); code != 2 {
		t.Fatalf("seed with passphrase exit code = %d, want 2", code)
	}
	if code := runPad([]string{"--length", "-1"}); code != 2 {
		t.Fatalf("negative length exit code = %d, want 2", code)
	}
	if code := runPad([]string{"--length", "1000000"}); code != 2 {
		t.Fatalf("oversized length exit code = %d, want 2", code)
	}
}

func TestRunCleanHTML(t *testing.T) {
	restore := silenceOutput(t)
	defer restore()
	dir := isolate(t)

	in := filepath.Join(dir, "page.html")
	page := `<html><head><title>T</title><script>var x = 1;</script></head><body><p>Hello, World!</p></body></html>`
	if err := os.WriteFile(in, []byte(page), 0o644); err != nil {
		t.Fatalf("write page: %v", err)
	}
	out := filepath.Join(dir, "clean.txt")
	if code := runClean([]string{"--in", in, "--html", "--out", out}); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	got := readFile(t, out)
	if !strings.Contains(got, "hello world") || strings.Contains(got, "var") {
		t.Fatalf("clean html = %q", got)
	}
}

func TestRunOpsFiltersByType(t *testing.T) {
	isolate(t)
	out, code := captureStdout(t, func() int { return runOps([]string{"--type", "analyze"}) })
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	for _, name := range []string{"caesar_break", "vigenere_break", "xor_bruteforce"} {
		if !strings.Contains(out, name) {
			t.Fatalf("ops output missing %s:\n%s", name, out)
		}
	}
	if strings.Contains(out, "caesar_encode") {
		t.Fatalf("ops output includes non-analyze operations:\n%s", out)
	}
}

func TestRunPipelineAndReverse(t *testing.T) {
	restore := silenceOutput(t)
	defer restore()
	dir := isolate(t)

	enc := filepath.Join(dir, "enc")
	steps := []string{`caesar_encode={"key":"2"}`, `vigenere_encode={"key":"lemon"}`}
	if code := runPipeline(append([]string{"--text", "the quick brown fox", "--out", enc}, steps...)); code != 0 {
		t.Fatalf("pipeline exit code %d", code)
	}
	dec := filepath.Join(dir, "dec")
	if code := runPipeline(append([]string{"--reverse", "--in", enc, "--out", dec}, steps...)); code != 0 {
		t.Fatalf("reverse exit code %d", code)
	}
	if got := readFile(t, dec); got != "the quick brown fox" {
		t.Fatalf("reverse = %q", got)
	}

	if code := runPipeline([]string{"--text", "abc", "nope"}); code != 2 {
		t.Fatalf("unknown operation exit code = %d, want 2", code)
	}
	if code := runPipeline([]string{"--text", "abc", `caesar_encode={bad`}); code != 2 {
		t.Fatalf("bad params exit code = %d, want 2", code)
	}
	if code := runPipeline([]string{"--text", "abc"}); code != 2 {
		t.Fatalf("empty pipeline exit code = %d, want 2", code)
	}
}

func TestRecipeLifecycle(t *testing.T) {
	restore := silenceOutput(t)
	defer restore()
	dir := isolate(t)

	save := []string{"--name", "double", "--tags", "demo, caesar", "--reversible",
		`caesar_encode={"key":"a"}`, `caesar_encode={"key":"b"}`}
	if code := runRecipeSave(save); code != 0 {
		t.Fatalf("save exit code %d", code)
	}
	if _, err := os.Stat(filepath.Join(dir, "recipes")); err != nil {
		t.Fatalf("recipes dir not created: %v", err)
	}
	if code := runRecipeShow([]string{"double"}); code != 0 {
		t.Fatalf("show exit code %d", code)
	}

	enc := filepath.Join(dir, "enc")
	if code := runRecipeRun([]string{"--text", "hello", "--out", enc, "double"}); code != 0 {
		t.Fatalf("run exit code %d", code)
	}
	dec := filepath.Join(dir, "dec")
	if code := runRecipeRun([]string{"--reverse", "--in", enc, "--out", dec, "double"}); code != 0 {
		t.Fatalf("reverse run exit code %d", code)
	}
	if got := readFile(t, dec); got != "hello" {
		t.Fatalf("reverse run = %q", got)
	}

	if code := runRecipeList([]string{"--q", "demo"}); code != 0 {
		t.Fatalf("list exit code %d", code)
	}
	if code := runRecipeDelete([]string{"double"}); code != 0 {
		t.Fatalf("delete exit code %d", code)
	}
	if code := runRecipeShow([]string{"double"}); code != 1 {
		t.Fatalf("show after delete exit code = %d, want 1", code)
	}
	if code := runRecipeDelete([]string{"double"}); code != 1 {
		t.Fatalf("second delete exit code = %d, want 1", code)
	}
	if code := runRecipeShow(nil); code != 2 {
		t.Fatalf("show without name exit code = %d, want 2", code)
	}

	audit := readFile(t, filepath.Join(dir, "audit.log"))
	for _, event := range []string{`"recipe_saved"`, `"pipeline_run"`, `"recipe_deleted"`} {
		if !strings.Contains(audit, event) {
			t.Fatalf("audit log missing %s", event)
		}
	}
}

func TestRunConfigMasksToken(t *testing.T) {
	isolate(t)
	t.Setenv("CRYPTOLAB_AUTH_TOKEN", "s3cret")
	t.Setenv("CRYPTOLAB_WORKERS", "3")

	out, code := captureStdout(t, func() int { return runConfig(nil) })
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if strings.Contains(out, "s3cret") {
		t.Fatalf("config output leaks token:\n%s", out)
	}
	if !strings.Contains(out, "workers: 3") {
		t.Fatalf("config output missing worker override:\n%s", out)
	}

	restore := silenceOutput(t)
	defer restore()
	if code := runConfig([]string{"--file", "/does/not/exist.yml"}); code != 1 {
		t.Fatalf("missing file exit code = %d, want 1", code)
	}
}

func TestRunVersionJSON(t *testing.T) {
	out, code := captureStdout(t, func() int { return runVersion([]string{"--json"}) })
	if code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if !strings.Contains(out, `"product":"cryptolab"`) || !strings.Contains(out, `"version":"dev"`) {
		t.Fatalf("version json = %s", out)
	}
	if code := runVersion([]string{"extra"}); code != 2 {
		t.Fatalf("extra args exit code = %d, want 2", code)
	}
}

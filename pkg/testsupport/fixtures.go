package testsupport

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-packgen/pkg/jsonvalue"
	"github.com/goliatone/go-packgen/pkg/resolver"
)

//go:embed fixtures/*
var fixtures embed.FS

// Fixture names bundled with the package.
const (
	// PackFixture is the constants + template input with shared palettes,
	// field lists reused through constants, and a blocks field.
	PackFixture = "pack.json"
	// PackResolvedFixture is PackFixture's template after resolution.
	PackResolvedFixture = "pack.resolved.json"
	// PackYAMLFixture is a YAML input that relies on anchors and constants.
	PackYAMLFixture = "pack.yaml"
)

// Fixtures exposes the embedded fixture tree rooted at its directory.
func Fixtures() fs.FS {
	sub, err := fs.Sub(fixtures, "fixtures")
	if err != nil {
		panic(err)
	}
	return sub
}

// FixtureBytes returns the raw bytes of an embedded fixture.
func FixtureBytes(name string) ([]byte, error) {
	if name == "" {
		return nil, errors.New("testsupport: fixture name is required")
	}
	data, err := fs.ReadFile(Fixtures(), name)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read fixture %s: %w", name, err)
	}
	return data, nil
}

// MustFixtureValue decodes an embedded JSON or YAML fixture into the ordered
// value model.
func MustFixtureValue(t *testing.T, name string) any {
	t.Helper()

	data, err := FixtureBytes(name)
	if err != nil {
		t.Fatalf("load fixture: %v", err)
	}
	value, err := jsonvalue.Decode(data, name)
	if err != nil {
		t.Fatalf("decode fixture %s: %v", name, err)
	}
	return value
}

// MustFixtureInput decodes an embedded fixture into a resolver input.
func MustFixtureInput(t *testing.T, name string) resolver.Input {
	t.Helper()

	input, err := resolver.InputFromValue(MustFixtureValue(t, name))
	if err != nil {
		t.Fatalf("fixture %s input: %v", name, err)
	}
	return input
}

// MustDecode decodes an inline JSON or YAML document.
func MustDecode(t *testing.T, raw string) any {
	t.Helper()

	value, err := jsonvalue.Decode([]byte(raw), "")
	if err != nil {
		t.Fatalf("decode inline document: %v", err)
	}
	return value
}

// LoadValue reads a JSON or YAML file from disk, returning an error for callers
// managing setup outside of *testing.T.
func LoadValue(path string) (any, error) {
	if path == "" {
		return nil, errors.New("testsupport: value path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: read value: %w", err)
	}
	value, err := jsonvalue.Decode(data, path)
	if err != nil {
		return nil, fmt.Errorf("testsupport: decode value: %w", err)
	}
	return value, nil
}

// AssertSameValue fails when the two trees differ, printing both as indented
// JSON so the diff stays readable.
func AssertSameValue(t *testing.T, want, got any) {
	t.Helper()

	if jsonvalue.Equal(want, got) {
		return
	}
	wantJSON, err := jsonvalue.MarshalIndent(want, "", "  ")
	if err != nil {
		t.Fatalf("marshal want: %v", err)
	}
	gotJSON, err := jsonvalue.MarshalIndent(got, "", "  ")
	if err != nil {
		t.Fatalf("marshal got: %v", err)
	}
	t.Fatalf("value mismatch (-want +got):\n%s", cmp.Diff(string(wantJSON), string(gotJSON)))
}

// CompareGolden returns a diff string if the values differ.
func CompareGolden(want, got any) string {
	return cmp.Diff(want, got)
}

// MustReadGolden reads a golden file and returns its raw bytes.
func MustReadGolden(t *testing.T, path string) []byte {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read golden: %v", err)
	}
	return data
}

// MustReadGoldenString reads a golden file and returns its string content.
func MustReadGoldenString(t *testing.T, path string) string {
	t.Helper()
	return string(MustReadGolden(t, path))
}

// WriteMaybeGolden updates a golden file when UPDATE_GOLDENS is set. Returns
// true if the golden was written (test should exit early).
func WriteMaybeGolden(t *testing.T, path string, data []byte) bool {
	t.Helper()
	if os.Getenv("UPDATE_GOLDENS") == "" {
		return false
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir golden dir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write golden: %v", err)
	}
	return true
}

// Context returns a background context for tests.
func Context() context.Context {
	return context.Background()
}

// CaptureTemplateOutput executes a render function that writes to an io.Writer,
// returning both the string result and the writer contents.
func CaptureTemplateOutput(t *testing.T, render func(io.Writer) (string, error)) (string, string) {
	t.Helper()

	var buf bytes.Buffer
	out, err := render(&buf)
	if err != nil {
		t.Fatalf("render template: %v", err)
	}
	return out, buf.String()
}

// Package sink defines where rendered artifacts end up. Implementations live
// in subpackages: fsys writes a directory tree, sqlstore upserts rows into a
// database catalog table.
package sink

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"path"
	"sort"
	"strings"
)

// Kind classifies an artifact.
type Kind string

const (
	KindSchema  Kind = "schema"
	KindTypes   Kind = "types"
	KindOpenAPI Kind = "openapi"
)

// Artifact is one generated file. Path is slash separated and relative to
// the sink root.
type Artifact struct {
	Path        string
	Kind        Kind
	ContentType string
	// Unit is the section key, "settings", or empty for pack wide artifacts.
	Unit string
	Data []byte
}

// Checksum returns the hex encoded SHA-256 of the artifact data.
func (a Artifact) Checksum() string {
	sum := sha256.Sum256(a.Data)
	return hex.EncodeToString(sum[:])
}

// Sink persists artifacts.
type Sink interface {
	Write(ctx context.Context, artifacts []Artifact) error
}

// Func adapts a function to the Sink interface.
type Func func(ctx context.Context, artifacts []Artifact) error

// Write calls f.
func (f Func) Write(ctx context.Context, artifacts []Artifact) error {
	return f(ctx, artifacts)
}

// CleanPath normalises an artifact path and rejects absolute paths and paths
// escaping the sink root.
func CleanPath(p string) (string, error) {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		return "", fmt.Errorf("sink: artifact path is required")
	}
	if strings.Contains(trimmed, "\\") {
		return "", fmt.Errorf("sink: artifact path %q must use forward slashes", p)
	}
	cleaned := path.Clean(trimmed)
	if path.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, "../") {
		return "", fmt.Errorf("sink: artifact path %q escapes the output root", p)
	}
	return cleaned, nil
}

// Validate checks every path and rejects duplicates.
func Validate(artifacts []Artifact) error {
	seen := make(map[string]struct{}, len(artifacts))
	for _, artifact := range artifacts {
		cleaned, err := CleanPath(artifact.Path)
		if err != nil {
			return err
		}
		if _, dup := seen[cleaned]; dup {
			return fmt.Errorf("sink: duplicate artifact path %q", cleaned)
		}
		seen[cleaned] = struct{}{}
	}
	return nil
}

// Sorted returns a copy of artifacts ordered by path.
func Sorted(artifacts []Artifact) []Artifact {
	out := append([]Artifact(nil), artifacts...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Path < out[j].Path
	})
	return out
}

// Multi fans a write out to several sinks in order, stopping at the first
// failure.
func Multi(sinks ...Sink) Sink {
	return Func(func(ctx context.Context, artifacts []Artifact) error {
		for _, s := range sinks {
			if s == nil {
				continue
			}
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := s.Write(ctx, artifacts); err != nil {
				return err
			}
		}
		return nil
	})
}

// Memory collects artifacts in memory, keyed by path. Later writes replace
// earlier ones.
type Memory struct {
	Artifacts map[string]Artifact
}

// NewMemory returns an empty Memory sink.
func NewMemory() *Memory {
	return &Memory{Artifacts: make(map[string]Artifact)}
}

// Write stores the artifacts.
func (m *Memory) Write(ctx context.Context, artifacts []Artifact) error {
	if err := Validate(artifacts); err != nil {
		return err
	}
	if m.Artifacts == nil {
		m.Artifacts = make(map[string]Artifact, len(artifacts))
	}
	for _, artifact := range artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		cleaned, _ := CleanPath(artifact.Path)
		artifact.Path = cleaned
		m.Artifacts[cleaned] = artifact
	}
	return nil
}

// Paths lists stored paths in sorted order.
func (m *Memory) Paths() []string {
	out := make([]string, 0, len(m.Artifacts))
	for p := range m.Artifacts {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

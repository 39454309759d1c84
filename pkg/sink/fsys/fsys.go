// Package fsys writes artifacts below a directory on disk.
package fsys

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	packerrors "github.com/goliatone/go-packgen/pkg/errors"
	"github.com/goliatone/go-packgen/pkg/sink"
)

// Option configures a Writer.
type Option func(*Writer)

// WithFileMode sets the permission bits of written files.
func WithFileMode(mode os.FileMode) Option {
	return func(w *Writer) {
		if mode != 0 {
			w.fileMode = mode
		}
	}
}

// WithDirMode sets the permission bits of created directories.
func WithDirMode(mode os.FileMode) Option {
	return func(w *Writer) {
		if mode != 0 {
			w.dirMode = mode
		}
	}
}

// Writer is a sink.Sink backed by the local filesystem. Each file is written
// to a temporary sibling and renamed into place so readers never observe a
// partially written artifact.
type Writer struct {
	root     string
	fileMode os.FileMode
	dirMode  os.FileMode
}

var _ sink.Sink = (*Writer)(nil)

// New returns a Writer rooted at dir.
func New(dir string, options ...Option) (*Writer, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return nil, fmt.Errorf("fsys: output directory is required")
	}
	w := &Writer{root: dir, fileMode: 0o644, dirMode: 0o755}
	for _, opt := range options {
		if opt != nil {
			opt(w)
		}
	}
	return w, nil
}

// Root returns the output directory.
func (w *Writer) Root() string { return w.root }

// Write persists every artifact. Paths are validated up front so an invalid
// batch writes nothing.
func (w *Writer) Write(ctx context.Context, artifacts []sink.Artifact) error {
	if err := sink.Validate(artifacts); err != nil {
		return packerrors.Wrap(packerrors.CodeIO, "", "invalid artifact batch", err)
	}
	for _, artifact := range artifacts {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.writeOne(artifact); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeOne(artifact sink.Artifact) error {
	rel, err := sink.CleanPath(artifact.Path)
	if err != nil {
		return packerrors.Wrap(packerrors.CodeIO, artifact.Path, "invalid artifact path", err)
	}
	target := filepath.Join(w.root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(target), w.dirMode); err != nil {
		return packerrors.Wrap(packerrors.CodeIO, rel, "create directory", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return packerrors.Wrap(packerrors.CodeIO, rel, "create temp file", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(artifact.Data); err != nil {
		_ = tmp.Close()
		cleanup()
		return packerrors.Wrap(packerrors.CodeIO, rel, "write artifact", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return packerrors.Wrap(packerrors.CodeIO, rel, "close artifact", err)
	}
	if err := os.Chmod(tmpName, w.fileMode); err != nil {
		cleanup()
		return packerrors.Wrap(packerrors.CodeIO, rel, "chmod artifact", err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		cleanup()
		return packerrors.Wrap(packerrors.CodeIO, rel, "rename artifact", err)
	}
	return nil
}

// IsEmptyDir reports whether dir is missing or contains no entries. The CLI
// uses it to decide whether to prompt before overwriting.
func IsEmptyDir(dir string) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return true, nil
		}
		return false, err
	}
	return len(entries) == 0, nil
}

// Package source describes where pack documents come from and the loader
// contract used to fetch them. Implementations live under internal/loader.
package source

import (
	"fmt"
	"net/url"
	"path/filepath"
)

// Source identifies where a document originated so loaders can operate on
// files, fs.FS entries, or URLs without leaking implementation details.
type Source interface {
	Kind() Kind
	Location() string
}

// Kind enumerates the loader modalities.
type Kind string

const (
	KindFile Kind = "file"
	KindFS   Kind = "fs"
	KindURL  Kind = "url"
)

type fileSource struct {
	path string
}

func (s fileSource) Location() string { return s.path }
func (s fileSource) Kind() Kind       { return KindFile }

// FromFile returns a Source pointing to a file path.
func FromFile(path string) Source {
	return fileSource{path: filepath.Clean(path)}
}

type fsSource struct {
	name string
}

func (s fsSource) Location() string { return s.name }
func (s fsSource) Kind() Kind       { return KindFS }

// FromFS returns a Source identifying a resource inside an fs.FS.
func FromFS(name string) Source {
	return fsSource{name: name}
}

type urlSource struct {
	raw string
}

func (s urlSource) Location() string { return s.raw }
func (s urlSource) Kind() Kind       { return KindURL }

// FromURL parses the supplied URL string and returns a Source.
func FromURL(raw string) (Source, error) {
	if raw == "" {
		return nil, fmt.Errorf("source: empty URL")
	}
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, fmt.Errorf("source: invalid URL %q: %w", raw, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("source: unsupported URL scheme %q", parsed.Scheme)
	}
	return urlSource{raw: raw}, nil
}

// MustFromURL is FromURL for static configuration; it panics on error.
func MustFromURL(raw string) Source {
	src, err := FromURL(raw)
	if err != nil {
		panic(err)
	}
	return src
}

// Parse picks a Source for a command-line style location: http(s) URLs
// become URL sources and everything else is treated as a file path.
func Parse(location string) (Source, error) {
	if location == "" {
		return nil, fmt.Errorf("source: location is required")
	}
	if parsed, err := url.Parse(location); err == nil && (parsed.Scheme == "http" || parsed.Scheme == "https") {
		return FromURL(location)
	}
	return FromFile(location), nil
}

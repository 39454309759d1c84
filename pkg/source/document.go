package source

import (
	"errors"

	packerrors "github.com/goliatone/go-packgen/pkg/errors"
	"github.com/goliatone/go-packgen/pkg/jsonvalue"
)

// Document wraps the raw payload and its origin.
type Document struct {
	source Source
	raw    []byte
}

// NewDocument constructs a Document wrapper while validating the inputs.
func NewDocument(src Source, raw []byte) (Document, error) {
	if src == nil {
		return Document{}, errors.New("source: source is required")
	}
	if len(raw) == 0 {
		return Document{}, packerrors.New(packerrors.CodeIO, src.Location(), "document is empty")
	}
	clone := append([]byte(nil), raw...)
	return Document{source: src, raw: clone}, nil
}

// MustNewDocument panics if the document cannot be created. Useful for tests.
func MustNewDocument(src Source, raw []byte) Document {
	doc, err := NewDocument(src, raw)
	if err != nil {
		panic(err)
	}
	return doc
}

// Source returns the origin metadata for the document.
func (d Document) Source() Source {
	return d.source
}

// Raw returns a copy of the payload.
func (d Document) Raw() []byte {
	return append([]byte(nil), d.raw...)
}

// Location returns the string identifier for the origin.
func (d Document) Location() string {
	if d.source == nil {
		return ""
	}
	return d.source.Location()
}

// Value decodes the payload into an ordered JSON value. The location's
// extension selects YAML for .yaml and .yml documents.
func (d Document) Value() (any, error) {
	value, err := jsonvalue.Decode(d.raw, d.Location())
	if err != nil {
		return nil, packerrors.Wrap(packerrors.CodeMalformedSchema, d.Location(), "decode document", err)
	}
	return value, nil
}

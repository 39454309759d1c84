package orchestrator

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-packgen/pkg/packschema"
)

// Transformer mutates the decoded PackSchema before types are synthesized.
type Transformer interface {
	Transform(ctx context.Context, schema *packschema.PackSchema) error
}

// TransformerFunc adapts plain functions to the Transformer interface.
type TransformerFunc func(ctx context.Context, schema *packschema.PackSchema) error

// Transform executes the wrapped function when non-nil.
func (fn TransformerFunc) Transform(ctx context.Context, schema *packschema.PackSchema) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, schema)
}

// SectionPresetTransformer overrides section labels and categories from a
// declarative document, so one pack can be regrouped per storefront without
// editing the template:
//
//	sections:
//	  hero:
//	    label: Hero banner
//	    category: marketing
//
// The patched values are written to both the typed section and its raw
// object, so schema artifacts and subset filtering agree.
type SectionPresetTransformer struct {
	document presetDocument
}

type presetDocument struct {
	Sections map[string]sectionPatch `json:"sections" yaml:"sections"`
}

type sectionPatch struct {
	Label    string `json:"label" yaml:"label"`
	Category string `json:"category" yaml:"category"`
}

// NewSectionPresetTransformer constructs a transformer from raw JSON or YAML.
func NewSectionPresetTransformer(data []byte) (*SectionPresetTransformer, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, errors.New("section preset transformer: document is empty")
	}
	var document presetDocument
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("section preset transformer: parse document: %w", err)
	}
	return &SectionPresetTransformer{document: document}, nil
}

// NewSectionPresetTransformerFromFS loads a preset document from the provided
// filesystem path.
func NewSectionPresetTransformerFromFS(fsys fs.FS, path string) (*SectionPresetTransformer, error) {
	if fsys == nil {
		return nil, errors.New("section preset transformer: fs is nil")
	}
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("section preset transformer: path is required")
	}
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("section preset transformer: read %s: %w", path, err)
	}
	return NewSectionPresetTransformer(data)
}

// Transform applies the patches. Patching a section the schema does not
// declare is an error.
func (t *SectionPresetTransformer) Transform(ctx context.Context, schema *packschema.PackSchema) error {
	if schema == nil {
		return errors.New("section preset transformer: schema is nil")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	index := make(map[string]int, len(schema.Sections))
	for i, section := range schema.Sections {
		index[section.Key] = i
	}
	for key, patch := range t.document.Sections {
		i, ok := index[key]
		if !ok {
			return fmt.Errorf("section preset transformer: section %q not found", key)
		}
		section := &schema.Sections[i]
		if patch.Label != "" {
			section.Label = patch.Label
			if section.Raw != nil {
				section.Raw.Set("label", patch.Label)
			}
		}
		if patch.Category != "" {
			section.Category = patch.Category
			if section.Raw != nil {
				section.Raw.Set("category", patch.Category)
			}
		}
	}
	return nil
}

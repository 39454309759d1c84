// Package schemajson writes the resolved schema of each section, and the
// resolved settings list, as indented JSON next to the generated types.
package schemajson

import (
	"context"
	"fmt"

	"github.com/goliatone/go-packgen/pkg/jsonvalue"
	"github.com/goliatone/go-packgen/pkg/render"
	"github.com/goliatone/go-packgen/pkg/sink"
	"github.com/goliatone/go-packgen/pkg/typegen"
)

// Name is the registry name of the renderer.
const Name = "schema"

// Option configures the renderer.
type Option func(*Renderer)

// WithIndent overrides the indentation string. An empty string produces
// compact output.
func WithIndent(indent string) Option {
	return func(r *Renderer) {
		r.indent = indent
	}
}

// Renderer implements render.Renderer for resolved schema documents.
type Renderer struct {
	indent string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer with two-space indentation.
func New(options ...Option) *Renderer {
	r := &Renderer{indent: "  "}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Name() string { return Name }

func (r *Renderer) ContentType() string { return "application/json" }

// Render emits one schema document per section plus the settings document.
func (r *Renderer) Render(ctx context.Context, input render.Input, _ render.RenderOptions) ([]sink.Artifact, error) {
	artifacts := make([]sink.Artifact, 0, len(input.Schema.Sections)+1)
	for _, section := range input.Schema.Sections {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := render.CheckUnitKey(section.Key); err != nil {
			return nil, err
		}
		var raw any = section.Raw
		if section.Raw == nil {
			raw = jsonvalue.NewObject()
		}
		artifact, err := r.artifact(render.SectionSchemaPath(section.Key), section.Key, raw)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, artifact)
	}

	settings, err := r.artifact(render.SettingsSchemaPath, typegen.SettingsKey, input.Schema.SettingsRaw())
	if err != nil {
		return nil, err
	}
	return append(artifacts, settings), nil
}

func (r *Renderer) artifact(artifactPath, unitKey string, value any) (sink.Artifact, error) {
	var (
		data []byte
		err  error
	)
	if r.indent == "" {
		data, err = jsonvalue.Marshal(value)
	} else {
		data, err = jsonvalue.MarshalIndent(value, "", r.indent)
	}
	if err != nil {
		return sink.Artifact{}, fmt.Errorf("schema renderer: encode %s: %w", unitKey, err)
	}
	return sink.Artifact{
		Path:        artifactPath,
		Kind:        sink.KindSchema,
		ContentType: r.ContentType(),
		Unit:        unitKey,
		Data:        append(data, '\n'),
	}, nil
}

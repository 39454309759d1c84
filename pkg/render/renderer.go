package render

import (
	"context"

	"github.com/goliatone/go-packgen/pkg/packschema"
	"github.com/goliatone/go-packgen/pkg/sink"
	"github.com/goliatone/go-packgen/pkg/typegen"
)

// Input is everything a renderer may draw from for one compilation run.
type Input struct {
	// Schema is the typed, resolved pack schema.
	Schema packschema.PackSchema
	// Types holds one declaration unit per section plus settings.
	Types typegen.Result
	// ReferenceTypes lists the external type names declarations may refer to
	// (MediaCms, LinkCms, ...).
	ReferenceTypes []string
}

// Renderer converts a compilation result into artifacts (TypeScript, JSON,
// OpenAPI documents).
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, input Input, options RenderOptions) ([]sink.Artifact, error)
}

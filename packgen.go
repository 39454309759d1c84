// Package packgen compiles pack documents (a constant table plus a template
// describing sections and settings) into resolved schema documents and
// TypeScript declarations. The helpers here cover the common entry points;
// pkg/orchestrator exposes the full pipeline.
package packgen

import (
	"context"

	"github.com/goliatone/go-packgen/pkg/orchestrator"
	"github.com/goliatone/go-packgen/pkg/packschema"
	"github.com/goliatone/go-packgen/pkg/render"
	"github.com/goliatone/go-packgen/pkg/resolver"
	"github.com/goliatone/go-packgen/pkg/source"
	"github.com/goliatone/go-packgen/pkg/typegen"
)

// Input is the compiler's sole input: constants plus template.
type Input = resolver.Input

// RenderOptions describes per-run output choices shared by every renderer.
type RenderOptions = render.RenderOptions

// SectionSubset aliases render.SectionSubset for callers rendering only some
// sections.
type SectionSubset = render.SectionSubset

// NewOrchestrator exposes the orchestrator constructor from the top-level
// module.
func NewOrchestrator(options ...orchestrator.Option) *orchestrator.Orchestrator {
	return orchestrator.New(options...)
}

// Compile resolves the input's constants and decodes the result into a
// PackSchema.
func Compile(input Input, options ...resolver.Option) (packschema.PackSchema, error) {
	resolved, err := resolver.New(options...).Resolve(input.Template, input.Context())
	if err != nil {
		return packschema.PackSchema{}, err
	}
	return packschema.Decode(resolved)
}

// Types compiles the input and synthesizes one declaration unit per section
// plus the settings unit.
func Types(input Input, options ...typegen.Option) (typegen.Result, error) {
	schema, err := Compile(input)
	if err != nil {
		return typegen.Result{}, err
	}
	return typegen.New(options...).Synthesize(schema)
}

// Generate loads a combined document from src and renders it with the
// default renderers.
func Generate(ctx context.Context, src source.Source, renderOptions RenderOptions, options ...orchestrator.Option) (orchestrator.Result, error) {
	return orchestrator.New(options...).Compile(ctx, orchestrator.Request{
		Source:        src,
		RenderOptions: renderOptions,
	})
}

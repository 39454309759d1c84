package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"time"

	"github.com/goliatone/go-packgen/internal/loader"
	"github.com/goliatone/go-packgen/pkg/packschema"
	"github.com/goliatone/go-packgen/pkg/render"
	"github.com/goliatone/go-packgen/pkg/renderers/openapi"
	"github.com/goliatone/go-packgen/pkg/renderers/schemajson"
	"github.com/goliatone/go-packgen/pkg/renderers/typescript"
	"github.com/goliatone/go-packgen/pkg/resolver"
	"github.com/goliatone/go-packgen/pkg/sink"
	"github.com/goliatone/go-packgen/pkg/source"
	"github.com/goliatone/go-packgen/pkg/typegen"
)

// DefaultRenderers are used when neither the request nor WithRenderers names
// any.
var DefaultRenderers = []string{typescript.Name, schemajson.Name}

// Option customises the orchestrator configuration.
type Option func(*Orchestrator)

// WithLoader injects a custom document loader.
func WithLoader(l source.Loader) Option {
	return func(o *Orchestrator) {
		o.loader = l
	}
}

// WithResolver injects a configured constant resolver.
func WithResolver(r *resolver.Resolver) Option {
	return func(o *Orchestrator) {
		o.resolver = r
	}
}

// WithSynthesizer injects a configured type synthesizer.
func WithSynthesizer(s *typegen.Synthesizer) Option {
	return func(o *Orchestrator) {
		o.synthesizer = s
	}
}

// WithRegistry injects a renderer registry.
func WithRegistry(registry *render.Registry) Option {
	return func(o *Orchestrator) {
		o.registry = registry
	}
}

// WithRenderers overrides the renderers used when a request names none.
func WithRenderers(names ...string) Option {
	return func(o *Orchestrator) {
		if len(names) > 0 {
			o.renderers = append([]string(nil), names...)
		}
	}
}

// WithDecodeOptions forwards options to packschema.Decode.
func WithDecodeOptions(options ...packschema.DecodeOption) Option {
	return func(o *Orchestrator) {
		o.decodeOptions = append(o.decodeOptions, options...)
	}
}

// WithTransformer registers a Transformer that runs between schema decoding
// and type synthesis. Transformers run in registration order.
func WithTransformer(t Transformer) Option {
	return func(o *Orchestrator) {
		if t != nil {
			o.transformers = append(o.transformers, t)
		}
	}
}

// WithLogger traces pipeline stages. Nil discards.
func WithLogger(logger *log.Logger) Option {
	return func(o *Orchestrator) {
		o.logger = logger
	}
}

// Orchestrator coordinates the full pipeline from pack document to rendered
// artifacts. Every dependency has a built-in default; the zero configuration
// reads local files and renders TypeScript plus schema JSON.
type Orchestrator struct {
	loader        source.Loader
	resolver      *resolver.Resolver
	synthesizer   *typegen.Synthesizer
	registry      *render.Registry
	renderers     []string
	decodeOptions []packschema.DecodeOption
	transformers  []Transformer
	logger        *log.Logger
	initialiseErr error
}

// New constructs an Orchestrator applying any provided options. Missing
// dependencies are initialised with the built-in implementations.
func New(options ...Option) *Orchestrator {
	o := &Orchestrator{}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(o)
	}
	o.applyDefaults()
	return o
}

// Request describes one compilation. Exactly one of Input, Source or
// Template must be set.
type Request struct {
	// Input bypasses the loader when the caller already holds the constant
	// table and template.
	Input *resolver.Input

	// Source is a combined document {"constants": ..., "template": ...}.
	Source source.Source

	// Template and Constants load the two halves from separate documents.
	// Constants is optional.
	Template  source.Source
	Constants source.Source

	// Renderers names the renderers to run. Empty falls back to the
	// orchestrator's configured list.
	Renderers []string

	RenderOptions render.RenderOptions
}

// Result is the outcome of one compilation.
type Result struct {
	// Resolved is the template after constant resolution.
	Resolved any
	Schema   packschema.PackSchema
	// Types holds every unit, before subset filtering.
	Types     typegen.Result
	Artifacts []sink.Artifact
}

// Artifact looks up an artifact by path.
func (r Result) Artifact(path string) (sink.Artifact, bool) {
	for _, artifact := range r.Artifacts {
		if artifact.Path == path {
			return artifact, true
		}
	}
	return sink.Artifact{}, false
}

// Compile runs load → resolve → decode → transform → synthesize → render.
// Any failure aborts the run; no partial result is returned.
func (o *Orchestrator) Compile(ctx context.Context, req Request) (Result, error) {
	if ctx == nil {
		return Result{}, errors.New("orchestrator: context is required")
	}
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if err := o.initialiseErr; err != nil {
		return Result{}, err
	}
	started := time.Now()

	input, err := o.resolveInput(ctx, req)
	if err != nil {
		return Result{}, err
	}
	o.logf("loaded input with %d constants", len(input.Constants))

	resolved, err := o.resolver.Resolve(input.Template, input.Context())
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: resolve constants: %w", err)
	}

	schema, err := packschema.Decode(resolved, o.decodeOptions...)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: decode schema: %w", err)
	}
	o.logf("decoded %d sections and %d settings", len(schema.Sections), len(schema.Settings))

	for _, transformer := range o.transformers {
		if err := transformer.Transform(ctx, &schema); err != nil {
			return Result{}, fmt.Errorf("orchestrator: transform schema: %w", err)
		}
	}

	types, err := o.synthesizer.Synthesize(schema)
	if err != nil {
		return Result{}, fmt.Errorf("orchestrator: synthesize types: %w", err)
	}

	renderInput := render.ApplySubset(render.Input{
		Schema:         schema,
		Types:          types,
		ReferenceTypes: o.synthesizer.ReferenceTypeNames(),
	}, req.RenderOptions.Subset)
	if !req.RenderOptions.Subset.Empty() {
		o.logf("subset keeps %d of %d sections", len(renderInput.Schema.Sections), len(schema.Sections))
	}

	artifacts, err := o.render(ctx, renderInput, req)
	if err != nil {
		return Result{}, err
	}
	o.logf("rendered %d artifacts in %s", len(artifacts), time.Since(started).Round(time.Millisecond))

	return Result{
		Resolved:  resolved,
		Schema:    schema,
		Types:     types,
		Artifacts: artifacts,
	}, nil
}

// Write persists the result's artifacts to every sink, in order.
func (o *Orchestrator) Write(ctx context.Context, result Result, sinks ...sink.Sink) error {
	if len(sinks) == 0 {
		return errors.New("orchestrator: at least one sink is required")
	}
	if err := sink.Multi(sinks...).Write(ctx, result.Artifacts); err != nil {
		return fmt.Errorf("orchestrator: write artifacts: %w", err)
	}
	o.logf("wrote %d artifacts to %d sinks", len(result.Artifacts), len(sinks))
	return nil
}

// Registry exposes the renderer registry so callers can list or extend it.
func (o *Orchestrator) Registry() *render.Registry {
	return o.registry
}

func (o *Orchestrator) render(ctx context.Context, input render.Input, req Request) ([]sink.Artifact, error) {
	names := req.Renderers
	if len(names) == 0 {
		names = o.renderers
	}
	renderers, err := o.registry.Resolve(names...)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	if len(renderers) == 0 {
		return nil, errors.New("orchestrator: no renderers selected")
	}

	var artifacts []sink.Artifact
	for _, renderer := range renderers {
		out, err := renderer.Render(ctx, input, req.RenderOptions)
		if err != nil {
			return nil, fmt.Errorf("orchestrator: render %s: %w", renderer.Name(), err)
		}
		artifacts = append(artifacts, out...)
	}
	if err := sink.Validate(artifacts); err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return artifacts, nil
}

func (o *Orchestrator) resolveInput(ctx context.Context, req Request) (resolver.Input, error) {
	switch {
	case req.Input != nil:
		return *req.Input, nil
	case req.Source != nil:
		value, err := o.loadValue(ctx, req.Source)
		if err != nil {
			return resolver.Input{}, err
		}
		input, err := resolver.InputFromValue(value)
		if err != nil {
			return resolver.Input{}, fmt.Errorf("orchestrator: %s: %w", req.Source.Location(), err)
		}
		return input, nil
	case req.Template != nil:
		template, err := o.loadValue(ctx, req.Template)
		if err != nil {
			return resolver.Input{}, err
		}
		constants := map[string]any{}
		if req.Constants != nil {
			value, err := o.loadValue(ctx, req.Constants)
			if err != nil {
				return resolver.Input{}, err
			}
			constants, err = resolver.ConstantsFromValue(value)
			if err != nil {
				return resolver.Input{}, fmt.Errorf("orchestrator: %s: %w", req.Constants.Location(), err)
			}
		}
		return resolver.Input{Constants: constants, Template: template}, nil
	default:
		return resolver.Input{}, errors.New("orchestrator: input, source or template is required")
	}
}

func (o *Orchestrator) loadValue(ctx context.Context, src source.Source) (any, error) {
	doc, err := o.loader.Load(ctx, src)
	if err != nil {
		return nil, fmt.Errorf("orchestrator: load document: %w", err)
	}
	value, err := doc.Value()
	if err != nil {
		return nil, fmt.Errorf("orchestrator: %w", err)
	}
	return value, nil
}

func (o *Orchestrator) logf(format string, args ...any) {
	o.logger.Printf(format, args...)
}

func (o *Orchestrator) applyDefaults() {
	if o.loader == nil {
		o.loader = loader.New(source.NewLoaderOptions())
	}
	if o.resolver == nil {
		o.resolver = resolver.New()
	}
	if o.synthesizer == nil {
		o.synthesizer = typegen.New()
	}
	if len(o.renderers) == 0 {
		o.renderers = append([]string(nil), DefaultRenderers...)
	}
	if o.logger == nil {
		o.logger = log.New(io.Discard, "", 0)
	}
	if o.registry == nil {
		registry, err := DefaultRegistry()
		if err != nil {
			o.initialiseErr = fmt.Errorf("orchestrator: default renderers: %w", err)
			return
		}
		o.registry = registry
	}
}

// DefaultRegistry returns a registry holding the built-in renderers:
// typescript, schema and openapi.
func DefaultRegistry(options ...typescript.Option) (*render.Registry, error) {
	registry := render.NewRegistry()
	ts, err := typescript.New(options...)
	if err != nil {
		return nil, err
	}
	registry.MustRegister(ts)
	registry.MustRegister(schemajson.New())
	registry.MustRegister(openapi.New())
	return registry, nil
}

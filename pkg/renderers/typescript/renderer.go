// Package typescript renders declaration units as TypeScript files, one per
// section plus one for settings.
package typescript

import (
	"context"
	"fmt"
	"io/fs"
	"strings"

	"github.com/goliatone/go-packgen/pkg/render"
	rendertemplate "github.com/goliatone/go-packgen/pkg/render/template"
	"github.com/goliatone/go-packgen/pkg/render/template/pongo"
	"github.com/goliatone/go-packgen/pkg/sink"
	"github.com/goliatone/go-packgen/pkg/typegen"
)

// Name is the registry name of the renderer.
const Name = "typescript"

const unitTemplate = "unit.ts.tpl"

// Option configures the renderer.
type Option func(*config)

type config struct {
	templateDir      string
	templateFS       fs.FS
	templateRenderer rendertemplate.TemplateRenderer
	sanitize         func(string) string
}

// WithTemplatesFS supplies templates that shadow the built-in bundle.
func WithTemplatesFS(files fs.FS) Option {
	return func(cfg *config) {
		cfg.templateFS = files
	}
}

// WithTemplatesDir loads shadowing templates from a directory on disk.
func WithTemplatesDir(path string) Option {
	return func(cfg *config) {
		cfg.templateDir = path
	}
}

// WithTemplateRenderer injects a custom template renderer implementation.
func WithTemplateRenderer(renderer rendertemplate.TemplateRenderer) Option {
	return func(cfg *config) {
		if renderer != nil {
			cfg.templateRenderer = renderer
		}
	}
}

// WithSanitizer replaces SanitizeDoc for doc comments.
func WithSanitizer(fn func(string) string) Option {
	return func(cfg *config) {
		if fn != nil {
			cfg.sanitize = fn
		}
	}
}

// Renderer implements render.Renderer for TypeScript declarations.
type Renderer struct {
	templates rendertemplate.TemplateRenderer
	sanitize  func(string) string
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer.
func New(options ...Option) (*Renderer, error) {
	cfg := config{sanitize: SanitizeDoc}
	for _, opt := range options {
		if opt != nil {
			opt(&cfg)
		}
	}

	renderer := cfg.templateRenderer
	if renderer == nil {
		engineOptions := []pongo.Option{}
		if cfg.templateDir != "" {
			engineOptions = append(engineOptions, pongo.WithBaseDir(cfg.templateDir))
		}
		if cfg.templateFS != nil {
			engineOptions = append(engineOptions, pongo.WithFS(cfg.templateFS))
		}
		engineOptions = append(engineOptions, pongo.WithFS(TemplatesFS()))
		engine, err := pongo.New(engineOptions...)
		if err != nil {
			return nil, fmt.Errorf("typescript renderer: configure template renderer: %w", err)
		}
		renderer = engine
	}
	return &Renderer{templates: renderer, sanitize: cfg.sanitize}, nil
}

func (r *Renderer) Name() string { return Name }

func (r *Renderer) ContentType() string { return "application/typescript" }

// Render emits one artifact per unit.
func (r *Renderer) Render(ctx context.Context, input render.Input, options render.RenderOptions) ([]sink.Artifact, error) {
	if r.templates == nil {
		return nil, fmt.Errorf("typescript renderer: template renderer is nil")
	}

	units := input.Types.Units()
	artifacts := make([]sink.Artifact, 0, len(units))
	for _, unit := range units {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !unit.Settings {
			if err := render.CheckUnitKey(unit.Key); err != nil {
				return nil, err
			}
		}
		text, err := r.RenderUnit(unit, input.ReferenceTypes, options)
		if err != nil {
			return nil, err
		}
		artifacts = append(artifacts, sink.Artifact{
			Path:        render.TypesPath(unit),
			Kind:        sink.KindTypes,
			ContentType: r.ContentType(),
			Unit:        unit.Key,
			Data:        []byte(text),
		})
	}
	return artifacts, nil
}

// RenderUnit renders a single unit through the file template.
func (r *Renderer) RenderUnit(unit typegen.Unit, referenceTypes []string, options render.RenderOptions) (string, error) {
	var sanitize func(string) string
	if options.DocComments {
		sanitize = r.sanitize
	}
	body := typegen.Print(unit, options.PrintOptions(sanitize))

	imports := ""
	if options.ImportFrom != "" {
		imports = strings.Join(UsedReferenceTypes(unit, referenceTypes), ", ")
	}

	out, err := r.templates.RenderTemplate(unitTemplate, map[string]any{
		"banner":      options.BannerText(),
		"imports":     imports,
		"import_from": options.ImportFrom,
		"unit_key":    unit.Key,
		"root":        unit.Root,
		"body":        body,
	})
	if err != nil {
		return "", fmt.Errorf("typescript renderer: render %s: %w", unit.Key, err)
	}
	return out, nil
}

// UsedReferenceTypes returns the subset of referenceTypes that the unit's
// declarations mention, in referenceTypes order.
func UsedReferenceTypes(unit typegen.Unit, referenceTypes []string) []string {
	if len(referenceTypes) == 0 {
		return nil
	}
	used := make(map[string]struct{})
	for _, decl := range unit.Declarations {
		for _, member := range decl.Members {
			collectNames(member.Type, used)
		}
	}
	out := make([]string, 0, len(referenceTypes))
	for _, name := range referenceTypes {
		if _, ok := used[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func collectNames(expr typegen.TypeExpr, into map[string]struct{}) {
	switch typed := expr.(type) {
	case typegen.Named:
		into[typed.Name] = struct{}{}
	case typegen.Array:
		collectNames(typed.Elem, into)
	case typegen.Union:
		for _, option := range typed.Options {
			collectNames(option, into)
		}
	}
}

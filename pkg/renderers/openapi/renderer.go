// Package openapi renders every declaration unit into a single OpenAPI 3
// document whose components.schemas mirror the generated TypeScript types.
// API gateways and non-TypeScript consumers can validate content against it.
package openapi

import (
	"bytes"
	"context"
	"fmt"
	"sort"

	"github.com/getkin/kin-openapi/openapi3"
	json "github.com/goccy/go-json"

	packerrors "github.com/goliatone/go-packgen/pkg/errors"
	"github.com/goliatone/go-packgen/pkg/render"
	"github.com/goliatone/go-packgen/pkg/sink"
	"github.com/goliatone/go-packgen/pkg/typegen"
)

// Name is the registry name of the renderer.
const Name = "openapi"

const (
	openAPIVersion = "3.0.3"
	schemaRefBase  = "#/components/schemas/"
)

// Option configures the renderer.
type Option func(*Renderer)

// WithTitle sets info.title.
func WithTitle(title string) Option {
	return func(r *Renderer) {
		if title != "" {
			r.title = title
		}
	}
}

// WithVersion sets info.version.
func WithVersion(version string) Option {
	return func(r *Renderer) {
		if version != "" {
			r.version = version
		}
	}
}

// WithValidation toggles document validation before the artifact is
// emitted. Enabled by default.
func WithValidation(enabled bool) Option {
	return func(r *Renderer) {
		r.validate = enabled
	}
}

// Renderer implements render.Renderer for OpenAPI components documents.
type Renderer struct {
	title    string
	version  string
	validate bool
}

var _ render.Renderer = (*Renderer)(nil)

// New constructs the renderer.
func New(options ...Option) *Renderer {
	r := &Renderer{title: "Pack content types", version: "1.0.0", validate: true}
	for _, opt := range options {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Renderer) Name() string { return Name }

func (r *Renderer) ContentType() string { return "application/json" }

// Render emits openapi.json.
func (r *Renderer) Render(ctx context.Context, input render.Input, _ render.RenderOptions) ([]sink.Artifact, error) {
	doc, err := r.Document(ctx, input)
	if err != nil {
		return nil, err
	}
	raw, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("openapi renderer: marshal document: %w", err)
	}
	var out bytes.Buffer
	if err := json.Indent(&out, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("openapi renderer: indent document: %w", err)
	}
	out.WriteByte('\n')
	return []sink.Artifact{{
		Path:        render.OpenAPIPath,
		Kind:        sink.KindOpenAPI,
		ContentType: r.ContentType(),
		Data:        out.Bytes(),
	}}, nil
}

// Document builds the OpenAPI document. Auxiliary declarations that share a
// name across units are emitted once when identical; a differing one is
// namespaced as "<Root>.<Name>" so every unit keeps its own shape.
func (r *Renderer) Document(ctx context.Context, input render.Input) (*openapi3.T, error) {
	doc := &openapi3.T{
		OpenAPI: openAPIVersion,
		Info:    &openapi3.Info{Title: r.title, Version: r.version},
		Paths:   openapi3.NewPaths(),
		Components: &openapi3.Components{
			Schemas: make(openapi3.Schemas),
		},
	}
	b := &docBuilder{schemas: doc.Components.Schemas}

	for _, name := range input.ReferenceTypes {
		external := openapi3.NewObjectSchema()
		external.Description = "Reference type supplied by the content platform."
		b.schemas[name] = openapi3.NewSchemaRef("", external)
	}

	for _, unit := range input.Types.Units() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.unit(unit); err != nil {
			return nil, err
		}
	}

	if r.validate {
		if err := doc.Validate(ctx); err != nil {
			return nil, fmt.Errorf("openapi renderer: validate document: %w", err)
		}
	}
	return doc, nil
}

type docBuilder struct {
	schemas openapi3.Schemas
}

func (b *docBuilder) unit(unit typegen.Unit) error {
	names := make(map[string]string, len(unit.Declarations))
	for _, decl := range unit.Declarations {
		schema, err := b.declaration(decl, names)
		if err != nil {
			return err
		}
		component := decl.Name
		if existing, ok := b.schemas[component]; ok {
			if sameSchema(existing.Value, schema) {
				names[decl.Name] = component
				continue
			}
			component = unit.Root + "." + decl.Name
			if _, taken := b.schemas[component]; taken {
				return packerrors.Newf(packerrors.CodeNameCollision, decl.Source, "component %s already defined", component)
			}
		}
		names[decl.Name] = component
		b.schemas[component] = openapi3.NewSchemaRef("", schema)
	}
	return nil
}

func (b *docBuilder) declaration(decl typegen.Declaration, names map[string]string) (*openapi3.Schema, error) {
	schema := openapi3.NewObjectSchema()
	schema.Title = decl.Name
	schema.Description = decl.Doc
	schema.Properties = make(openapi3.Schemas, len(decl.Members))
	var required []string
	for _, member := range decl.Members {
		ref, err := b.typeRef(member.Type, names, decl.Source)
		if err != nil {
			return nil, err
		}
		if member.Doc != "" && ref.Ref == "" {
			ref.Value.Description = member.Doc
		}
		schema.Properties[member.Name] = ref
		if !member.Optional {
			required = append(required, member.Name)
		}
	}
	sort.Strings(required)
	schema.Required = required
	return schema, nil
}

func (b *docBuilder) typeRef(expr typegen.TypeExpr, names map[string]string, source string) (*openapi3.SchemaRef, error) {
	switch typed := expr.(type) {
	case typegen.Named:
		switch typed.Name {
		case typegen.TypeString.Name:
			return openapi3.NewSchemaRef("", openapi3.NewStringSchema()), nil
		case typegen.TypeNumber.Name:
			return openapi3.NewSchemaRef("", openapi3.NewFloat64Schema()), nil
		case typegen.TypeBoolean.Name:
			return openapi3.NewSchemaRef("", openapi3.NewBoolSchema()), nil
		}
		component := typed.Name
		if mapped, ok := names[typed.Name]; ok {
			component = mapped
		}
		target, ok := b.schemas[component]
		if !ok {
			return nil, packerrors.Newf(packerrors.CodeMalformedSchema, source, "type %s is referenced before it is declared", typed.Name)
		}
		return openapi3.NewSchemaRef(schemaRefBase+component, target.Value), nil
	case typegen.Array:
		items, err := b.typeRef(typed.Elem, names, source)
		if err != nil {
			return nil, err
		}
		array := openapi3.NewArraySchema()
		array.Items = items
		return openapi3.NewSchemaRef("", array), nil
	case typegen.Union:
		union := openapi3.NewSchema()
		if len(typed.Options) == 0 {
			union.Not = openapi3.NewSchemaRef("", openapi3.NewSchema())
			return openapi3.NewSchemaRef("", union), nil
		}
		for _, option := range typed.Options {
			ref, err := b.typeRef(option, names, source)
			if err != nil {
				return nil, err
			}
			union.OneOf = append(union.OneOf, ref)
		}
		return openapi3.NewSchemaRef("", union), nil
	case typegen.Literal:
		return openapi3.NewSchemaRef("", openapi3.NewStringSchema().WithEnum(typed.Value)), nil
	default:
		return nil, packerrors.Newf(packerrors.CodeMalformedSchema, source, "unsupported type expression %T", expr)
	}
}

func sameSchema(a, b *openapi3.Schema) bool {
	if a == nil || b == nil {
		return a == b
	}
	left, err := a.MarshalJSON()
	if err != nil {
		return false
	}
	right, err := b.MarshalJSON()
	if err != nil {
		return false
	}
	return bytes.Equal(left, right)
}

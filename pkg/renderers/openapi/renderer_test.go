package openapi_test

import (
	"context"
	"sort"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-packgen/pkg/jsonvalue"
	"github.com/goliatone/go-packgen/pkg/packschema"
	"github.com/goliatone/go-packgen/pkg/render"
	"github.com/goliatone/go-packgen/pkg/renderers/openapi"
	"github.com/goliatone/go-packgen/pkg/resolver"
	"github.com/goliatone/go-packgen/pkg/sink"
	"github.com/goliatone/go-packgen/pkg/testsupport"
	"github.com/goliatone/go-packgen/pkg/typegen"
)

func inputFor(t *testing.T, raw string) render.Input {
	t.Helper()
	value, err := jsonvalue.DecodeJSON([]byte(raw))
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}
	schema, err := packschema.Decode(value)
	if err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	synth := typegen.New()
	types, err := synth.Synthesize(schema)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	return render.Input{Schema: schema, Types: types, ReferenceTypes: synth.ReferenceTypeNames()}
}

func componentNames(doc *openapi3.T) []string {
	names := make([]string, 0, len(doc.Components.Schemas))
	for name := range doc.Components.Schemas {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func TestRenderer_PackFixtureValidates(t *testing.T) {
	in := testsupport.MustFixtureInput(t, testsupport.PackFixture)
	resolved, err := resolver.New().Resolve(in.Template, in.Context())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	schema, err := packschema.Decode(resolved)
	if err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	synth := typegen.New()
	types, err := synth.Synthesize(schema)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}
	input := render.Input{Schema: schema, Types: types, ReferenceTypes: synth.ReferenceTypeNames()}

	artifacts, err := openapi.New().Render(context.Background(), input, render.RenderOptions{})
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if len(artifacts) != 1 {
		t.Fatalf("expected a single artifact, got %d", len(artifacts))
	}
	if artifacts[0].Path != render.OpenAPIPath || artifacts[0].Kind != sink.KindOpenAPI {
		t.Fatalf("unexpected artifact %+v", artifacts[0])
	}

	loaded, err := openapi3.NewLoader().LoadFromData(artifacts[0].Data)
	if err != nil {
		t.Fatalf("load rendered document: %v", err)
	}
	if err := loaded.Validate(context.Background()); err != nil {
		t.Fatalf("rendered document does not validate: %v", err)
	}

	want := []string{
		"CollectionCms",
		"FirstTemplateCms",
		"GroupListNameGroupCms",
		"GroupNameGroupCms",
		"LinkCms",
		"MediaCms",
		"MenuGroupCms",
		"ProductBundleCms",
		"ProductCms",
		"SecondTemplateCms",
		"SettingsCms",
		"TestSectionCms",
	}
	if diff := cmp.Diff(want, componentNames(loaded)); diff != "" {
		t.Fatalf("components mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderer_TemplatesAreTagged(t *testing.T) {
	input := inputFor(t, `{"sections": [{"key": "page", "fields": [
  {"name": "body", "component": "blocks", "templates": {
    "quote": {"fields": [{"name": "text", "component": "text"}]},
    "photo": {"fields": [{"name": "src", "component": "image"}]}
  }}
]}]}`)

	doc, err := openapi.New().Document(context.Background(), input)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	quote := doc.Components.Schemas["QuoteTemplateCms"]
	if quote == nil || quote.Value == nil {
		t.Fatalf("missing QuoteTemplateCms component")
	}
	if diff := cmp.Diff([]string{typegen.TemplateTag}, quote.Value.Required); diff != "" {
		t.Fatalf("required mismatch (-want +got):\n%s", diff)
	}
	tag := quote.Value.Properties[typegen.TemplateTag]
	if tag == nil || len(tag.Value.Enum) != 1 || tag.Value.Enum[0] != "quote" {
		t.Fatalf("unexpected template tag schema %+v", tag)
	}

	photo := doc.Components.Schemas["PhotoTemplateCms"]
	if photo == nil {
		t.Fatalf("missing PhotoTemplateCms component")
	}
	src := photo.Value.Properties["src"]
	if src == nil || src.Ref != "#/components/schemas/MediaCms" {
		t.Fatalf("expected src to reference MediaCms, got %+v", src)
	}

	page := doc.Components.Schemas["PageSectionCms"]
	body := page.Value.Properties["body"]
	if body == nil || body.Value.Items == nil {
		t.Fatalf("expected body to be an array")
	}
	var refs []string
	for _, option := range body.Value.Items.Value.OneOf {
		refs = append(refs, option.Ref)
	}
	wantRefs := []string{"#/components/schemas/QuoteTemplateCms", "#/components/schemas/PhotoTemplateCms"}
	if diff := cmp.Diff(wantRefs, refs); diff != "" {
		t.Fatalf("oneOf mismatch (-want +got):\n%s", diff)
	}
}

func TestRenderer_NamespacesConflictingAuxiliaryTypes(t *testing.T) {
	input := inputFor(t, `{"sections": [
  {"key": "a", "fields": [{"name": "meta", "component": "group", "fields": [{"name": "x", "component": "text"}]}]},
  {"key": "b", "fields": [{"name": "meta", "component": "group", "fields": [{"name": "y", "component": "number"}]}]},
  {"key": "c", "fields": [{"name": "meta", "component": "group", "fields": [{"name": "x", "component": "text"}]}]}
]}`)

	doc, err := openapi.New().Document(context.Background(), input)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc.Components.Schemas["MetaGroupCms"] == nil {
		t.Fatalf("expected shared MetaGroupCms component")
	}
	if doc.Components.Schemas["BSectionCms.MetaGroupCms"] == nil {
		t.Fatalf("expected namespaced BSectionCms.MetaGroupCms component")
	}
	if doc.Components.Schemas["CSectionCms.MetaGroupCms"] != nil {
		t.Fatalf("identical declaration must reuse the shared component")
	}
	if got := doc.Components.Schemas["BSectionCms"].Value.Properties["meta"].Ref; got != "#/components/schemas/BSectionCms.MetaGroupCms" {
		t.Fatalf("unexpected meta ref %q", got)
	}
	if got := doc.Components.Schemas["CSectionCms"].Value.Properties["meta"].Ref; got != "#/components/schemas/MetaGroupCms" {
		t.Fatalf("unexpected meta ref %q", got)
	}
}

func TestRenderer_TitleAndVersion(t *testing.T) {
	input := inputFor(t, `{"settings": []}`)
	doc, err := openapi.New(openapi.WithTitle("Theme"), openapi.WithVersion("2.1.0")).Document(context.Background(), input)
	if err != nil {
		t.Fatalf("document: %v", err)
	}
	if doc.Info.Title != "Theme" || doc.Info.Version != "2.1.0" {
		t.Fatalf("unexpected info %+v", doc.Info)
	}
	if doc.OpenAPI != "3.0.3" {
		t.Fatalf("unexpected openapi version %s", doc.OpenAPI)
	}
}

func TestRenderer_HonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := openapi.New().Document(ctx, inputFor(t, `{"settings": []}`)); err == nil {
		t.Fatalf("expected context error")
	}
}

package orchestrator_test

import (
	"bytes"
	"context"
	"log"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-packgen/internal/loader"
	packerrors "github.com/goliatone/go-packgen/pkg/errors"
	"github.com/goliatone/go-packgen/pkg/orchestrator"
	"github.com/goliatone/go-packgen/pkg/packschema"
	"github.com/goliatone/go-packgen/pkg/render"
	"github.com/goliatone/go-packgen/pkg/resolver"
	"github.com/goliatone/go-packgen/pkg/sink"
	"github.com/goliatone/go-packgen/pkg/source"
	"github.com/goliatone/go-packgen/pkg/testsupport"
)

func fixtureLoader() source.Loader {
	return loader.New(source.NewLoaderOptions(source.WithFileSystem(testsupport.Fixtures())))
}

func artifactPaths(artifacts []sink.Artifact) []string {
	paths := make([]string, 0, len(artifacts))
	for _, artifact := range artifacts {
		paths = append(paths, artifact.Path)
	}
	return paths
}

func TestCompile_CombinedSource(t *testing.T) {
	gen := orchestrator.New(orchestrator.WithLoader(fixtureLoader()))

	result, err := gen.Compile(context.Background(), orchestrator.Request{
		Source: source.FromFS(testsupport.PackFixture),
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	want := []string{
		"sections/test/test.types.ts",
		"settings/settings.types.ts",
		"sections/test/test.schema.json",
		"settings/settings.schema.json",
	}
	if diff := cmp.Diff(want, artifactPaths(result.Artifacts)); diff != "" {
		t.Fatalf("artifact paths mismatch (-want +got):\n%s", diff)
	}

	testsupport.AssertSameValue(t, testsupport.MustFixtureValue(t, testsupport.PackResolvedFixture), result.Resolved)

	types, ok := result.Artifact("sections/test/test.types.ts")
	if !ok {
		t.Fatalf("missing section types artifact")
	}
	if !strings.Contains(string(types.Data), "type TestSectionCms = {") {
		t.Fatalf("section types missing root declaration:\n%s", types.Data)
	}
	if _, ok := result.Types.Section("test"); !ok {
		t.Fatalf("expected synthesized unit for section test")
	}
}

func TestCompile_TemplateAndConstantsDocuments(t *testing.T) {
	files := fstest.MapFS{
		"template.yaml":  &fstest.MapFile{Data: []byte("sections:\n  - key: promo\n    fields: $constants.PROMO_FIELDS\n")},
		"constants.json": &fstest.MapFile{Data: []byte(`{"PROMO_FIELDS": [{"name": "code", "component": "text"}]}`)},
	}
	gen := orchestrator.New(
		orchestrator.WithLoader(loader.New(source.NewLoaderOptions(source.WithFileSystem(files)))),
		orchestrator.WithRenderers("typescript"),
	)

	result, err := gen.Compile(context.Background(), orchestrator.Request{
		Template:      source.FromFS("template.yaml"),
		Constants:     source.FromFS("constants.json"),
		RenderOptions: render.RenderOptions{Export: true, Banner: "generated"},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	promo, ok := result.Artifact("sections/promo/promo.types.ts")
	if !ok {
		t.Fatalf("missing promo artifact in %v", artifactPaths(result.Artifacts))
	}
	want := "// generated\n\nexport type PromoSectionCms = { code?: string; };\n"
	if diff := cmp.Diff(want, string(promo.Data)); diff != "" {
		t.Fatalf("promo mismatch (-want +got):\n%s", diff)
	}
}

func TestCompile_YAMLFixtureWithOpenAPI(t *testing.T) {
	gen := orchestrator.New(orchestrator.WithLoader(fixtureLoader()))

	result, err := gen.Compile(context.Background(), orchestrator.Request{
		Source:    source.FromFS(testsupport.PackYAMLFixture),
		Renderers: []string{"typescript", "openapi", "typescript"},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	want := []string{
		"sections/hero-banner/hero-banner.types.ts",
		"settings/settings.types.ts",
		render.OpenAPIPath,
	}
	if diff := cmp.Diff(want, artifactPaths(result.Artifacts)); diff != "" {
		t.Fatalf("artifact paths mismatch (-want +got):\n%s", diff)
	}
	openapiDoc, _ := result.Artifact(render.OpenAPIPath)
	if !bytes.Contains(openapiDoc.Data, []byte(`"HeroBannerSectionCms"`)) {
		t.Fatalf("openapi document missing section component")
	}
}

func TestCompile_SubsetKeepsSettings(t *testing.T) {
	input := resolver.Input{
		Constants: map[string]any{},
		Template: testsupport.MustDecode(t, `{
  "sections": [
    {"key": "hero", "category": "marketing", "fields": []},
    {"key": "footer", "category": "layout", "fields": []},
    {"key": "faq", "fields": []}
  ],
  "settings": []
}`),
	}
	gen := orchestrator.New(orchestrator.WithRenderers("schema"))

	result, err := gen.Compile(context.Background(), orchestrator.Request{
		Input:         &input,
		RenderOptions: render.RenderOptions{Subset: render.ParseSubset("faq", "Marketing")},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	want := []string{
		"sections/hero/hero.schema.json",
		"sections/faq/faq.schema.json",
		"settings/settings.schema.json",
	}
	if diff := cmp.Diff(want, artifactPaths(result.Artifacts)); diff != "" {
		t.Fatalf("artifact paths mismatch (-want +got):\n%s", diff)
	}
	if len(result.Types.Sections) != 3 {
		t.Fatalf("types must cover every section, got %d", len(result.Types.Sections))
	}
}

func TestCompile_Errors(t *testing.T) {
	cases := []struct {
		name     string
		template string
		code     packerrors.Code
	}{
		{name: "unresolved", template: `{"sections": [{"key": "a", "fields": "$constants.MISSING"}]}`, code: packerrors.CodeUnresolvedConstant},
		{name: "unknown component", template: `{"settings": [{"name": "x", "component": "slider"}]}`, code: packerrors.CodeMalformedField},
		{name: "not an object", template: `[]`, code: packerrors.CodeMalformedSchema},
		{name: "duplicate sibling", template: `{"settings": [{"name": "x", "component": "text"}, {"name": "x", "component": "text"}]}`, code: packerrors.CodeNameCollision},
	}
	gen := orchestrator.New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			input := resolver.Input{Constants: map[string]any{}, Template: testsupport.MustDecode(t, tc.template)}
			_, err := gen.Compile(context.Background(), orchestrator.Request{Input: &input})
			if !packerrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestCompile_RequestValidation(t *testing.T) {
	gen := orchestrator.New()
	if _, err := gen.Compile(context.Background(), orchestrator.Request{}); err == nil {
		t.Fatalf("expected error for empty request")
	}

	input := resolver.Input{Template: testsupport.MustDecode(t, `{}`)}
	if _, err := gen.Compile(context.Background(), orchestrator.Request{Input: &input, Renderers: []string{"pdf"}}); err == nil {
		t.Fatalf("expected error for unknown renderer")
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gen.Compile(ctx, orchestrator.Request{Input: &input}); err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestCompile_TransformerAndLogger(t *testing.T) {
	preset, err := orchestrator.NewSectionPresetTransformer([]byte("sections:\n  faq:\n    category: support\n"))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	var logs bytes.Buffer
	gen := orchestrator.New(
		orchestrator.WithTransformer(preset),
		orchestrator.WithRenderers("schema"),
		orchestrator.WithLogger(log.New(&logs, "", 0)),
	)
	input := resolver.Input{Template: testsupport.MustDecode(t, `{"sections": [{"key": "faq", "fields": []}]}`)}

	result, err := gen.Compile(context.Background(), orchestrator.Request{
		Input:         &input,
		RenderOptions: render.RenderOptions{Subset: render.SectionSubset{Categories: []string{"support"}}},
	})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	faq, ok := result.Artifact("sections/faq/faq.schema.json")
	if !ok {
		t.Fatalf("preset category must select faq, got %v", artifactPaths(result.Artifacts))
	}
	if !bytes.Contains(faq.Data, []byte(`"category": "support"`)) {
		t.Fatalf("raw section must carry the patched category:\n%s", faq.Data)
	}
	if !strings.Contains(logs.String(), "decoded 1 sections") {
		t.Fatalf("expected stage logs, got %q", logs.String())
	}

	unknown, err := orchestrator.NewSectionPresetTransformer([]byte(`{"sections": {"nope": {"label": "x"}}}`))
	if err != nil {
		t.Fatalf("preset: %v", err)
	}
	gen = orchestrator.New(orchestrator.WithTransformer(unknown))
	if _, err := gen.Compile(context.Background(), orchestrator.Request{Input: &input}); err == nil {
		t.Fatalf("expected error for unknown preset section")
	}
}

func TestCompile_TransformerFunc(t *testing.T) {
	calls := 0
	gen := orchestrator.New(orchestrator.WithTransformer(orchestrator.TransformerFunc(func(_ context.Context, schema *packschema.PackSchema) error {
		calls++
		schema.Settings = nil
		return nil
	})))
	input := resolver.Input{Template: testsupport.MustDecode(t, `{"settings": [{"name": "x", "component": "text"}]}`)}
	result, err := gen.Compile(context.Background(), orchestrator.Request{Input: &input})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected one transformer call, got %d", calls)
	}
	if len(result.Types.Settings.Declarations) != 1 || len(result.Types.Settings.Declarations[0].Members) != 0 {
		t.Fatalf("expected empty settings declaration, got %+v", result.Types.Settings)
	}
}

func TestWrite_MemoryAndFuncSinks(t *testing.T) {
	gen := orchestrator.New()
	input := testsupport.MustFixtureInput(t, testsupport.PackFixture)
	result, err := gen.Compile(context.Background(), orchestrator.Request{Input: &input})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	memory := sink.NewMemory()
	var seen int
	counter := sink.Func(func(_ context.Context, artifacts []sink.Artifact) error {
		seen = len(artifacts)
		return nil
	})
	if err := gen.Write(context.Background(), result, memory, counter); err != nil {
		t.Fatalf("write: %v", err)
	}
	if diff := cmp.Diff(artifactPaths(sink.Sorted(result.Artifacts)), memory.Paths()); diff != "" {
		t.Fatalf("memory paths mismatch (-want +got):\n%s", diff)
	}
	if seen != len(result.Artifacts) {
		t.Fatalf("func sink saw %d artifacts, want %d", seen, len(result.Artifacts))
	}
	if err := gen.Write(context.Background(), result); err == nil {
		t.Fatalf("expected error without sinks")
	}
}

func TestCompile_SectionKeyedSettings(t *testing.T) {
	input := resolver.Input{Template: testsupport.MustDecode(t, `{
  "sections": [{"key": "settings", "fields": [{"name": "title", "component": "text"}]}],
  "settings": [{"name": "accent", "component": "color"}]
}`)}
	gen := orchestrator.New()

	result, err := gen.Compile(context.Background(), orchestrator.Request{Input: &input})
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	want := []string{
		"sections/settings/settings.types.ts",
		"settings/settings.types.ts",
		"sections/settings/settings.schema.json",
		"settings/settings.schema.json",
	}
	if diff := cmp.Diff(want, artifactPaths(result.Artifacts)); diff != "" {
		t.Fatalf("artifact paths mismatch (-want +got):\n%s", diff)
	}

	units := result.Types.Units()
	if len(units) != 2 || units[0].Settings || !units[1].Settings {
		t.Fatalf("expected section unit followed by settings unit, got %+v", units)
	}
	section, _ := result.Artifact("sections/settings/settings.types.ts")
	if !strings.Contains(string(section.Data), "type SettingsSectionCms = {") {
		t.Fatalf("section artifact holds the wrong unit:\n%s", section.Data)
	}
	settings, _ := result.Artifact("settings/settings.types.ts")
	if !strings.Contains(string(settings.Data), "type SettingsCms = {") {
		t.Fatalf("settings artifact holds the wrong unit:\n%s", settings.Data)
	}
}

package typegen_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-packgen/pkg/packschema"
	"github.com/goliatone/go-packgen/pkg/resolver"
	"github.com/goliatone/go-packgen/pkg/testsupport"
	"github.com/goliatone/go-packgen/pkg/typegen"
)

func TestPrint_PackFixture(t *testing.T) {
	input := testsupport.MustFixtureInput(t, testsupport.PackFixture)
	resolved, err := resolver.New().Resolve(input.Template, input.Context())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	schema, err := packschema.Decode(resolved)
	if err != nil {
		t.Fatalf("decode schema: %v", err)
	}
	result, err := typegen.New().Synthesize(schema)
	if err != nil {
		t.Fatalf("synthesize: %v", err)
	}

	section := strings.Join([]string{
		"type GroupNameGroupCms = { message?: string; };",
		"type GroupListNameGroupCms = { message?: string; };",
		`type FirstTemplateCms = { _template: "first"; message?: string; };`,
		`type SecondTemplateCms = { _template: "second"; color?: string; };`,
		"type TestSectionCms = { color?: string; groupName?: GroupNameGroupCms; groupListName?: GroupListNameGroupCms[]; mixedType?: (FirstTemplateCms | SecondTemplateCms)[]; };",
	}, "\n")
	if diff := cmp.Diff(section, typegen.Print(result.Sections[0], typegen.PrintOptions{})); diff != "" {
		t.Fatalf("section mismatch (-want +got):\n%s", diff)
	}

	settings := strings.Join([]string{
		"type MenuGroupCms = { message?: string; };",
		"type SettingsCms = { menu?: MenuGroupCms; };",
	}, "\n")
	if diff := cmp.Diff(settings, typegen.Print(result.Settings, typegen.PrintOptions{})); diff != "" {
		t.Fatalf("settings mismatch (-want +got):\n%s", diff)
	}
}

func TestFormatType(t *testing.T) {
	cases := []struct {
		name string
		expr typegen.TypeExpr
		want string
	}{
		{name: "named", expr: typegen.TypeNumber, want: "number"},
		{name: "array", expr: typegen.Array{Elem: typegen.TypeString}, want: "string[]"},
		{name: "literal", expr: typegen.Literal{Value: `say "hi"`}, want: `"say \"hi\""`},
		{name: "empty union", expr: typegen.Union{}, want: "never"},
		{name: "single union in array", expr: typegen.Array{Elem: typegen.Union{Options: []typegen.TypeExpr{typegen.Named{Name: "A"}}}}, want: "A[]"},
		{
			name: "union in array",
			expr: typegen.Array{Elem: typegen.Union{Options: []typegen.TypeExpr{typegen.Named{Name: "A"}, typegen.Named{Name: "B"}}}},
			want: "(A | B)[]",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := typegen.FormatType(tc.expr); got != tc.want {
				t.Fatalf("want %s, got %s", tc.want, got)
			}
		})
	}
}

func TestPrintDeclaration_DocComments(t *testing.T) {
	decl := typegen.Declaration{
		Name: "HeroSectionCms",
		Doc:  "Hero   banner",
		Members: []typegen.Member{
			{Name: "title", Type: typegen.TypeString, Optional: true, Doc: "Shown */ above"},
			{Name: "2col", Type: typegen.TypeBoolean, Optional: true},
		},
	}
	got := typegen.PrintDeclaration(decl, typegen.PrintOptions{
		Export:      true,
		DocComments: true,
		Sanitize:    strings.ToUpper,
	})
	want := "/** HERO BANNER */\n" +
		`export type HeroSectionCms = { /** SHOWN *\/ ABOVE */ title?: string; "2col"?: boolean; };`
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
}

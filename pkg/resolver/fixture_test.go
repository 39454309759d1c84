package resolver_test

import (
	"testing"

	"github.com/goliatone/go-packgen/pkg/resolver"
	"github.com/goliatone/go-packgen/pkg/testsupport"
)

func TestResolver_PackFixture(t *testing.T) {
	input := testsupport.MustFixtureInput(t, testsupport.PackFixture)

	got, err := resolver.New().Resolve(input.Template, input.Context())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := testsupport.MustFixtureValue(t, testsupport.PackResolvedFixture)
	testsupport.AssertSameValue(t, want, got)
}

func TestResolver_YAMLFixture(t *testing.T) {
	input := testsupport.MustFixtureInput(t, testsupport.PackYAMLFixture)

	got, err := resolver.New().Resolve(input.Template, input.Context())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	want := testsupport.MustFixtureValue(t, "pack.yaml.resolved.json")
	testsupport.AssertSameValue(t, want, got)
}

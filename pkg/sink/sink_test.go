package sink

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCleanPath(t *testing.T) {
	cases := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "sections/hero/hero.types.ts", want: "sections/hero/hero.types.ts"},
		{in: "./settings//settings.schema.json", want: "settings/settings.schema.json"},
		{in: "", wantErr: true},
		{in: "/etc/passwd", wantErr: true},
		{in: "../outside.ts", wantErr: true},
		{in: "sections/../../x", wantErr: true},
		{in: `sections\hero.ts`, wantErr: true},
	}
	for _, tc := range cases {
		got, err := CleanPath(tc.in)
		if tc.wantErr {
			if err == nil {
				t.Errorf("%q: expected error, got %q", tc.in, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%q: unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%q: want %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestValidate_RejectsDuplicates(t *testing.T) {
	err := Validate([]Artifact{{Path: "a/b.ts"}, {Path: "a/./b.ts"}})
	if err == nil {
		t.Fatalf("expected duplicate path error")
	}
}

func TestMemory_WriteAndPaths(t *testing.T) {
	mem := NewMemory()
	err := mem.Write(context.Background(), []Artifact{
		{Path: "settings/settings.types.ts", Kind: KindTypes, Data: []byte("x")},
		{Path: "./openapi.json", Kind: KindOpenAPI, Data: []byte("{}")},
	})
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	if diff := cmp.Diff([]string{"openapi.json", "settings/settings.types.ts"}, mem.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

func TestMulti_StopsAtFirstError(t *testing.T) {
	boom := errors.New("boom")
	var calls []string
	first := Func(func(context.Context, []Artifact) error {
		calls = append(calls, "first")
		return boom
	})
	second := Func(func(context.Context, []Artifact) error {
		calls = append(calls, "second")
		return nil
	})
	if err := Multi(first, nil, second).Write(context.Background(), nil); !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if diff := cmp.Diff([]string{"first"}, calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
}

func TestArtifact_Checksum(t *testing.T) {
	got := Artifact{Data: []byte("abc")}.Checksum()
	want := "ba7816bf8f01cfea414140de5dae2223b00361a396177a9cb410ff61f20015ad"
	if got != want {
		t.Fatalf("want %s, got %s", want, got)
	}
}

package source

import "testing"

func TestParse(t *testing.T) {
	cases := []struct {
		in   string
		kind Kind
	}{
		{in: "pack.json", kind: KindFile},
		{in: "./packs/../pack.yaml", kind: KindFile},
		{in: "https://example.com/pack.json", kind: KindURL},
		{in: "http://localhost:8080/pack", kind: KindURL},
	}
	for _, tc := range cases {
		src, err := Parse(tc.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tc.in, err)
		}
		if src.Kind() != tc.kind {
			t.Errorf("Parse(%q) kind = %s, want %s", tc.in, src.Kind(), tc.kind)
		}
	}
	if src, _ := Parse("./packs/../pack.yaml"); src.Location() != "pack.yaml" {
		t.Errorf("expected cleaned path, got %s", src.Location())
	}
	if _, err := Parse(""); err == nil {
		t.Errorf("expected error for empty location")
	}
}

func TestFromURLRejectsOtherSchemes(t *testing.T) {
	if _, err := FromURL("ftp://example.com/pack.json"); err == nil {
		t.Fatalf("expected scheme error")
	}
}

func TestDocumentValue(t *testing.T) {
	doc := MustNewDocument(FromFile("pack.yaml"), []byte("template:\n  settings: []\n"))
	if _, err := doc.Value(); err != nil {
		t.Fatalf("decode: %v", err)
	}
	raw := doc.Raw()
	raw[0] = 'X'
	if doc.Raw()[0] == 'X' {
		t.Fatalf("Raw must return a copy")
	}
	if _, err := NewDocument(FromFile("pack.json"), nil); err == nil {
		t.Fatalf("expected error for empty payload")
	}
}

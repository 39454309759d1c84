package packschema

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	packerrors "github.com/goliatone/go-packgen/pkg/errors"
	"github.com/goliatone/go-packgen/pkg/jsonvalue"
)

func mustDecodeSchema(t *testing.T, raw string) (PackSchema, error) {
	t.Helper()
	value, err := jsonvalue.DecodeJSON([]byte(raw))
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}
	return Decode(value)
}

type fieldShape struct {
	Name      string
	Kind      Kind
	Children  []fieldShape
	Templates []string
}

func shapeOf(fields []Field) []fieldShape {
	out := make([]fieldShape, 0, len(fields))
	for _, field := range fields {
		shape := fieldShape{Name: field.FieldName(), Kind: field.Component()}
		switch typed := field.(type) {
		case GroupField:
			shape.Children = shapeOf(typed.Fields)
		case GroupListField:
			shape.Children = shapeOf(typed.Fields)
		case ListField:
			shape.Children = shapeOf([]Field{typed.Item})
		case BlocksField:
			for _, tpl := range typed.Templates {
				shape.Templates = append(shape.Templates, tpl.Key)
				shape.Children = append(shape.Children, shapeOf(tpl.Fields)...)
			}
		}
		out = append(out, shape)
	}
	return out
}

func TestDecode_AllVariants(t *testing.T) {
	schema, err := mustDecodeSchema(t, `{
  "sections": [{
    "key": "test", "label": "Test", "category": "demo",
    "fields": [
      {"name": "title", "component": "text", "label": "Title"},
      {"name": "tags", "component": "tags"},
      {"name": "gallery", "component": "list", "field": {"component": "image"}},
      {"name": "contact", "component": "group", "fields": [{"name": "email", "component": "text"}]},
      {"name": "links", "component": "group-list", "fields": [{"name": "href", "component": "link"}]},
      {"name": "body", "component": "blocks", "templates": {
        "quote": {"fields": [{"name": "cite", "component": "text"}]},
        "hero": {"label": "Hero"}
      }}
    ]
  }],
  "settings": [{"name": "dark", "component": "toggle"}]
}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(schema.Sections) != 1 {
		t.Fatalf("expected one section, got %d", len(schema.Sections))
	}
	section := schema.Sections[0]
	if section.Key != "test" || section.Label != "Test" || section.Category != "demo" {
		t.Fatalf("unexpected section header %+v", section)
	}

	want := []fieldShape{
		{Name: "title", Kind: KindText},
		{Name: "tags", Kind: KindTags},
		{Name: "gallery", Kind: KindList, Children: []fieldShape{{Kind: KindImage}}},
		{Name: "contact", Kind: KindGroup, Children: []fieldShape{{Name: "email", Kind: KindText}}},
		{Name: "links", Kind: KindGroupList, Children: []fieldShape{{Name: "href", Kind: KindLink}}},
		{Name: "body", Kind: KindBlocks, Templates: []string{"quote", "hero"}, Children: []fieldShape{{Name: "cite", Kind: KindText}}},
	}
	if diff := cmp.Diff(want, shapeOf(section.Fields)); diff != "" {
		t.Fatalf("field shape mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]fieldShape{{Name: "dark", Kind: KindToggle}}, shapeOf(schema.Settings)); diff != "" {
		t.Fatalf("settings shape mismatch (-want +got):\n%s", diff)
	}

	title := section.Fields[0].Metadata()
	if title.Label != "Title" || title.Path != "$.sections[0].fields[0]" {
		t.Fatalf("unexpected metadata %+v", title)
	}
	if _, ok := schema.Section("test"); !ok {
		t.Fatalf("expected Section lookup to find test")
	}
}

func TestDecode_EmptyPack(t *testing.T) {
	schema, err := mustDecodeSchema(t, `{"sections": [], "settings": []}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(schema.Sections) != 0 || len(schema.Settings) != 0 {
		t.Fatalf("expected empty schema, got %+v", schema)
	}
	out, err := jsonvalue.Marshal(schema.SettingsRaw())
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != "[]" {
		t.Fatalf("unexpected raw settings %s", out)
	}
}

func TestDecode_Errors(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		code packerrors.Code
		path string
	}{
		{
			name: "unknown component",
			raw:  `{"settings": [{"name": "x", "component": "wysiwyg"}]}`,
			code: packerrors.CodeMalformedField,
			path: "$.settings[0]",
		},
		{
			name: "missing component",
			raw:  `{"settings": [{"name": "x"}]}`,
			code: packerrors.CodeMalformedField,
			path: "$.settings[0]",
		},
		{
			name: "missing name",
			raw:  `{"settings": [{"component": "text"}]}`,
			code: packerrors.CodeMalformedField,
			path: "$.settings[0]",
		},
		{
			name: "group without fields",
			raw:  `{"settings": [{"name": "g", "component": "group"}]}`,
			code: packerrors.CodeMalformedField,
			path: "$.settings[0].fields",
		},
		{
			name: "blocks templates not object",
			raw:  `{"settings": [{"name": "b", "component": "blocks", "templates": []}]}`,
			code: packerrors.CodeMalformedField,
			path: "$.settings[0].templates",
		},
		{
			name: "list without item",
			raw:  `{"settings": [{"name": "l", "component": "list"}]}`,
			code: packerrors.CodeMalformedField,
			path: "$.settings[0]",
		},
		{
			name: "duplicate sibling names",
			raw:  `{"settings": [{"name": "a", "component": "text"}, {"name": "a", "component": "number"}]}`,
			code: packerrors.CodeNameCollision,
			path: "$.settings[1]",
		},
		{
			name: "duplicate section keys",
			raw:  `{"sections": [{"key": "hero", "fields": []}, {"key": "hero", "fields": []}]}`,
			code: packerrors.CodeNameCollision,
			path: "$.sections[1]",
		},
		{
			name: "section without key",
			raw:  `{"sections": [{"fields": []}]}`,
			code: packerrors.CodeMalformedSchema,
			path: "$.sections[0]",
		},
		{
			name: "settings not array",
			raw:  `{"settings": {}}`,
			code: packerrors.CodeMalformedSchema,
			path: "$.settings",
		},
		{
			name: "root not object",
			raw:  `[]`,
			code: packerrors.CodeMalformedSchema,
			path: "$",
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := mustDecodeSchema(t, tc.raw)
			if !packerrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
			var perr *packerrors.Error
			if !asError(err, &perr) || perr.Path != tc.path {
				t.Fatalf("expected path %q, got %v", tc.path, err)
			}
		})
	}
}

func TestDecode_ListCompositeItems(t *testing.T) {
	schema, err := mustDecodeSchema(t, `{"settings": [
  {"name": "nested", "component": "list", "field": {"component": "group"}},
  {"name": "rows", "component": "list", "field": {"component": "blocks", "label": "Rows"}},
  {"name": "matrix", "component": "list", "field": {"component": "list"}}
]}`)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := []Kind{KindGroup, KindBlocks, KindList}
	for i, field := range schema.Settings {
		list, ok := field.(ListField)
		if !ok {
			t.Fatalf("field %d: expected ListField, got %T", i, field)
		}
		item, ok := list.Item.(OpaqueItemField)
		if !ok {
			t.Fatalf("field %d: expected OpaqueItemField item, got %T", i, list.Item)
		}
		if item.Kind != want[i] {
			t.Fatalf("field %d: expected kind %s, got %s", i, want[i], item.Kind)
		}
	}
	if label := schema.Settings[1].(ListField).Item.Metadata().Label; label != "Rows" {
		t.Fatalf("expected item label Rows, got %q", label)
	}

	_, err = mustDecodeSchema(t, `{"settings": [{"name": "l", "component": "list", "field": {"component": "slider"}}]}`)
	if !packerrors.IsCode(err, packerrors.CodeMalformedField) {
		t.Fatalf("unknown item component must stay malformed_field, got %v", err)
	}
}

func TestDecode_DepthLimit(t *testing.T) {
	value, err := jsonvalue.DecodeJSON([]byte(`{"settings": [
  {"name": "a", "component": "group", "fields": [
    {"name": "b", "component": "group", "fields": [
      {"name": "c", "component": "text"}
    ]}
  ]}
]}`))
	if err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if _, err := Decode(value, WithMaxDepth(3)); err != nil {
		t.Fatalf("depth three should decode: %v", err)
	}
	if _, err := Decode(value, WithMaxDepth(2)); !packerrors.IsCode(err, packerrors.CodeRecursionLimit) {
		t.Fatalf("expected recursion_limit, got %v", err)
	}
}

func TestKind_Classification(t *testing.T) {
	for _, kind := range ScalarKinds() {
		if !kind.IsScalar() || !kind.Valid() {
			t.Errorf("%s should be a valid scalar kind", kind)
		}
	}
	for _, kind := range []Kind{KindList, KindGroup, KindGroupList, KindBlocks} {
		if kind.IsScalar() || !kind.Valid() {
			t.Errorf("%s should be a valid composite kind", kind)
		}
	}
	if Kind("wysiwyg").Valid() {
		t.Errorf("unknown kinds must not be valid")
	}
}

func asError(err error, target **packerrors.Error) bool {
	typed, ok := err.(*packerrors.Error)
	if ok {
		*target = typed
	}
	return ok
}

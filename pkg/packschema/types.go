// Package packschema defines the typed, fully resolved pack schema: sections
// and settings made of form fields. Fields form a closed set of variants
// (ScalarField, ListField, GroupField, GroupListField, BlocksField) behind the
// sealed Field interface; Decode builds them from a resolved JSON tree.
package packschema

import "github.com/goliatone/go-packgen/pkg/jsonvalue"

// Kind is the component discriminant of a form field.
type Kind string

const (
	KindColor          Kind = "color"
	KindDate           Kind = "date"
	KindHTML           Kind = "html"
	KindMarkdown       Kind = "markdown"
	KindRadioGroup     Kind = "radio-group"
	KindRichText       Kind = "rich-text"
	KindSelect         Kind = "select"
	KindText           Kind = "text"
	KindTextarea       Kind = "textarea"
	KindImage          Kind = "image"
	KindNumber         Kind = "number"
	KindToggle         Kind = "toggle"
	KindProductSearch  Kind = "productSearch"
	KindCollections    Kind = "collections"
	KindProductBundles Kind = "productBundles"
	KindLink           Kind = "link"
	KindTags           Kind = "tags"
	KindList           Kind = "list"
	KindGroup          Kind = "group"
	KindGroupList      Kind = "group-list"
	KindBlocks         Kind = "blocks"
)

var scalarKinds = map[Kind]struct{}{
	KindColor:          {},
	KindDate:           {},
	KindHTML:           {},
	KindMarkdown:       {},
	KindRadioGroup:     {},
	KindRichText:       {},
	KindSelect:         {},
	KindText:           {},
	KindTextarea:       {},
	KindImage:          {},
	KindNumber:         {},
	KindToggle:         {},
	KindProductSearch:  {},
	KindCollections:    {},
	KindProductBundles: {},
	KindLink:           {},
	KindTags:           {},
}

// ScalarKinds lists every leaf component in declaration order.
func ScalarKinds() []Kind {
	return []Kind{
		KindColor, KindDate, KindHTML, KindMarkdown, KindRadioGroup, KindRichText,
		KindSelect, KindText, KindTextarea, KindImage, KindNumber, KindToggle,
		KindProductSearch, KindCollections, KindProductBundles, KindLink, KindTags,
	}
}

// IsScalar reports whether k is a leaf component carried by ScalarField.
func (k Kind) IsScalar() bool {
	_, ok := scalarKinds[k]
	return ok
}

// Valid reports whether k is a recognised component.
func (k Kind) Valid() bool {
	switch k {
	case KindList, KindGroup, KindGroupList, KindBlocks:
		return true
	}
	return k.IsScalar()
}

// FieldMeta holds the descriptive attributes every field carries alongside its
// variant payload.
type FieldMeta struct {
	Label       string
	Description string
	// Path is the JSON path of the field inside the resolved document.
	Path string
	// Raw is the resolved field object, including attributes the compiler does
	// not interpret (colors, itemProps, validation hints).
	Raw *jsonvalue.Object
}

// Metadata returns the descriptive attributes.
func (m FieldMeta) Metadata() FieldMeta { return m }

// Field is one form field. The interface is sealed: only the variants in this
// package implement it.
type Field interface {
	FieldName() string
	Component() Kind
	Metadata() FieldMeta
	isField()
}

// ScalarField covers every leaf component (string-like kinds, image, number,
// toggle, reference kinds and tags).
type ScalarField struct {
	FieldMeta
	Name string
	Kind Kind
}

func (f ScalarField) FieldName() string { return f.Name }
func (f ScalarField) Component() Kind   { return f.Kind }
func (ScalarField) isField()            {}

// ListField is a homogeneous sequence of Item's mapped type.
type ListField struct {
	FieldMeta
	Name string
	Item Field
}

func (f ListField) FieldName() string { return f.Name }
func (ListField) Component() Kind     { return KindList }
func (ListField) isField()            {}

// OpaqueItemField is a composite component used as a list item. List types
// map composite items to string, so the payload stays in Raw undecoded.
type OpaqueItemField struct {
	FieldMeta
	Name string
	Kind Kind
}

func (f OpaqueItemField) FieldName() string { return f.Name }
func (f OpaqueItemField) Component() Kind   { return f.Kind }
func (OpaqueItemField) isField()            {}

// GroupField is a nested record.
type GroupField struct {
	FieldMeta
	Name   string
	Fields []Field
}

func (f GroupField) FieldName() string { return f.Name }
func (GroupField) Component() Kind     { return KindGroup }
func (GroupField) isField()            {}

// GroupListField is a sequence of nested records.
type GroupListField struct {
	FieldMeta
	Name   string
	Fields []Field
}

func (f GroupListField) FieldName() string { return f.Name }
func (GroupListField) Component() Kind     { return KindGroupList }
func (GroupListField) isField()            {}

// BlocksField is a discriminated union of templates, in document order.
type BlocksField struct {
	FieldMeta
	Name      string
	Templates []BlockTemplate
}

func (f BlocksField) FieldName() string { return f.Name }
func (BlocksField) Component() Kind     { return KindBlocks }
func (BlocksField) isField()            {}

// BlockTemplate is one variant of a BlocksField. Key doubles as the literal
// _template tag of the variant.
type BlockTemplate struct {
	Key    string
	Label  string
	Fields []Field
	Raw    *jsonvalue.Object
}

// SectionSchema is a named group of fields representing one editable region.
type SectionSchema struct {
	Key      string
	Label    string
	Category string
	Fields   []Field
	Raw      *jsonvalue.Object
}

// PackSchema is one fully resolved compilation unit. Settings behaves as an
// implicit, unkeyed section.
type PackSchema struct {
	Sections []SectionSchema
	Settings []Field
	Raw      *jsonvalue.Object
}

// Section looks up a section by key.
func (s PackSchema) Section(key string) (SectionSchema, bool) {
	for _, section := range s.Sections {
		if section.Key == key {
			return section, true
		}
	}
	return SectionSchema{}, false
}

// SettingsRaw returns the resolved settings array as authored.
func (s PackSchema) SettingsRaw() any {
	if s.Raw == nil {
		return []any{}
	}
	value, ok := s.Raw.Get("settings")
	if !ok || value == nil || jsonvalue.IsUndefined(value) {
		return []any{}
	}
	return value
}

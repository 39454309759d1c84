package packschema

import (
	"strings"

	packerrors "github.com/goliatone/go-packgen/pkg/errors"
	"github.com/goliatone/go-packgen/pkg/jsonvalue"
)

const defaultMaxDepth = 64

// DecodeOptions configures Decode.
type DecodeOptions struct {
	// MaxDepth caps field nesting (groups, group-lists, blocks, lists).
	MaxDepth int
}

// DecodeOption mutates DecodeOptions.
type DecodeOption func(*DecodeOptions)

// WithMaxDepth caps field nesting depth.
func WithMaxDepth(depth int) DecodeOption {
	return func(opts *DecodeOptions) {
		opts.MaxDepth = depth
	}
}

// Decode converts a resolved JSON tree into a PackSchema. Fields with an
// unknown component fail with malformed_field; sibling fields sharing a name
// and sections sharing a key fail with name_collision.
func Decode(value any, options ...DecodeOption) (PackSchema, error) {
	opts := DecodeOptions{MaxDepth: defaultMaxDepth}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}
	d := &decoder{opts: opts}

	root, ok := value.(*jsonvalue.Object)
	if !ok {
		return PackSchema{}, packerrors.Newf(packerrors.CodeMalformedSchema, jsonvalue.RootPath, "pack schema must be an object, got %s", typeName(value))
	}

	schema := PackSchema{Raw: root}

	sectionsPath := jsonvalue.JoinKey("", "sections")
	rawSections, err := optionalArray(root, "sections", sectionsPath, packerrors.CodeMalformedSchema)
	if err != nil {
		return PackSchema{}, err
	}
	seenKeys := make(map[string]string, len(rawSections))
	for i, rawSection := range rawSections {
		path := jsonvalue.JoinIndex(sectionsPath, i)
		section, err := d.section(rawSection, path)
		if err != nil {
			return PackSchema{}, err
		}
		if first, dup := seenKeys[section.Key]; dup {
			return PackSchema{}, packerrors.Newf(packerrors.CodeNameCollision, path, "section key %q already used at %s", section.Key, first)
		}
		seenKeys[section.Key] = path
		schema.Sections = append(schema.Sections, section)
	}

	settingsPath := jsonvalue.JoinKey("", "settings")
	rawSettings, err := optionalArray(root, "settings", settingsPath, packerrors.CodeMalformedSchema)
	if err != nil {
		return PackSchema{}, err
	}
	schema.Settings, err = d.fields(rawSettings, settingsPath, 0)
	if err != nil {
		return PackSchema{}, err
	}
	return schema, nil
}

type decoder struct {
	opts DecodeOptions
}

func (d *decoder) section(value any, path string) (SectionSchema, error) {
	obj, ok := value.(*jsonvalue.Object)
	if !ok {
		return SectionSchema{}, packerrors.Newf(packerrors.CodeMalformedSchema, path, "section must be an object, got %s", typeName(value))
	}
	key, _ := obj.String("key")
	if strings.TrimSpace(key) == "" {
		return SectionSchema{}, packerrors.New(packerrors.CodeMalformedSchema, path, "section key is required")
	}
	label, _ := obj.String("label")
	category, _ := obj.String("category")

	fieldsPath := jsonvalue.JoinKey(path, "fields")
	rawFields, err := optionalArray(obj, "fields", fieldsPath, packerrors.CodeMalformedSchema)
	if err != nil {
		return SectionSchema{}, err
	}
	fields, err := d.fields(rawFields, fieldsPath, 0)
	if err != nil {
		return SectionSchema{}, err
	}
	return SectionSchema{
		Key:      key,
		Label:    label,
		Category: category,
		Fields:   fields,
		Raw:      obj,
	}, nil
}

func (d *decoder) fields(values []any, path string, depth int) ([]Field, error) {
	out := make([]Field, 0, len(values))
	seen := make(map[string]string, len(values))
	for i, value := range values {
		fieldPath := jsonvalue.JoinIndex(path, i)
		field, err := d.field(value, fieldPath, depth, true)
		if err != nil {
			return nil, err
		}
		name := field.FieldName()
		if first, dup := seen[name]; dup {
			return nil, packerrors.Newf(packerrors.CodeNameCollision, fieldPath, "field name %q already used by sibling at %s", name, first)
		}
		seen[name] = fieldPath
		out = append(out, field)
	}
	return out, nil
}

func (d *decoder) field(value any, path string, depth int, requireName bool) (Field, error) {
	if depth >= d.opts.MaxDepth {
		return nil, packerrors.Newf(packerrors.CodeRecursionLimit, path, "field nesting exceeds %d levels", d.opts.MaxDepth)
	}
	obj, ok := value.(*jsonvalue.Object)
	if !ok {
		return nil, packerrors.Newf(packerrors.CodeMalformedField, path, "field must be an object, got %s", typeName(value))
	}

	name, _ := obj.String("name")
	if requireName && strings.TrimSpace(name) == "" {
		return nil, packerrors.New(packerrors.CodeMalformedField, path, "field name is required")
	}
	component, ok := obj.String("component")
	if !ok {
		return nil, packerrors.Newf(packerrors.CodeMalformedField, path, "field %q has no component", name)
	}
	kind := Kind(component)
	if !kind.Valid() {
		return nil, packerrors.Newf(packerrors.CodeMalformedField, path, "field %q has unknown component %q", name, component)
	}

	meta := FieldMeta{Path: path, Raw: obj}
	meta.Label, _ = obj.String("label")
	meta.Description, _ = obj.String("description")

	switch kind {
	case KindList:
		itemPath := jsonvalue.JoinKey(path, "field")
		rawItem, ok := obj.Get("field")
		if !ok || rawItem == nil || jsonvalue.IsUndefined(rawItem) {
			return nil, packerrors.Newf(packerrors.CodeMalformedField, path, "list field %q requires an item field", name)
		}
		item, err := d.listItem(rawItem, itemPath, depth+1)
		if err != nil {
			return nil, err
		}
		return ListField{FieldMeta: meta, Name: name, Item: item}, nil
	case KindGroup, KindGroupList:
		fieldsPath := jsonvalue.JoinKey(path, "fields")
		rawFields, err := requiredArray(obj, "fields", fieldsPath, name)
		if err != nil {
			return nil, err
		}
		fields, err := d.fields(rawFields, fieldsPath, depth+1)
		if err != nil {
			return nil, err
		}
		if kind == KindGroup {
			return GroupField{FieldMeta: meta, Name: name, Fields: fields}, nil
		}
		return GroupListField{FieldMeta: meta, Name: name, Fields: fields}, nil
	case KindBlocks:
		templates, err := d.templates(obj, path, name, depth)
		if err != nil {
			return nil, err
		}
		return BlocksField{FieldMeta: meta, Name: name, Templates: templates}, nil
	default:
		return ScalarField{FieldMeta: meta, Name: name, Kind: kind}, nil
	}
}

// listItem decodes the item of a list field. Composite items only contribute
// their component, so their payload is not required.
func (d *decoder) listItem(value any, path string, depth int) (Field, error) {
	obj, ok := value.(*jsonvalue.Object)
	if !ok {
		return d.field(value, path, depth, false)
	}
	component, _ := obj.String("component")
	kind := Kind(component)
	if !kind.Valid() || kind.IsScalar() {
		return d.field(value, path, depth, false)
	}
	if depth >= d.opts.MaxDepth {
		return nil, packerrors.Newf(packerrors.CodeRecursionLimit, path, "field nesting exceeds %d levels", d.opts.MaxDepth)
	}
	name, _ := obj.String("name")
	meta := FieldMeta{Path: path, Raw: obj}
	meta.Label, _ = obj.String("label")
	meta.Description, _ = obj.String("description")
	return OpaqueItemField{FieldMeta: meta, Name: name, Kind: kind}, nil
}

func (d *decoder) templates(obj *jsonvalue.Object, path, name string, depth int) ([]BlockTemplate, error) {
	templatesPath := jsonvalue.JoinKey(path, "templates")
	rawTemplates, ok := obj.Get("templates")
	if !ok || rawTemplates == nil || jsonvalue.IsUndefined(rawTemplates) {
		return nil, packerrors.Newf(packerrors.CodeMalformedField, path, "blocks field %q requires templates", name)
	}
	templatesObj, ok := rawTemplates.(*jsonvalue.Object)
	if !ok {
		return nil, packerrors.Newf(packerrors.CodeMalformedField, templatesPath, "blocks field %q templates must be an object, got %s", name, typeName(rawTemplates))
	}

	out := make([]BlockTemplate, 0, templatesObj.Len())
	var err error
	templatesObj.Range(func(key string, value any) bool {
		templatePath := jsonvalue.JoinKey(templatesPath, key)
		templateObj, isObj := value.(*jsonvalue.Object)
		if !isObj {
			err = packerrors.Newf(packerrors.CodeMalformedField, templatePath, "template %q must be an object, got %s", key, typeName(value))
			return false
		}
		fieldsPath := jsonvalue.JoinKey(templatePath, "fields")
		var rawFields []any
		rawFields, err = optionalArray(templateObj, "fields", fieldsPath, packerrors.CodeMalformedField)
		if err != nil {
			return false
		}
		var fields []Field
		fields, err = d.fields(rawFields, fieldsPath, depth+1)
		if err != nil {
			return false
		}
		label, _ := templateObj.String("label")
		out = append(out, BlockTemplate{Key: key, Label: label, Fields: fields, Raw: templateObj})
		return true
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func optionalArray(obj *jsonvalue.Object, key, path string, code packerrors.Code) ([]any, error) {
	value, ok := obj.Get(key)
	if !ok || value == nil || jsonvalue.IsUndefined(value) {
		return nil, nil
	}
	items, ok := value.([]any)
	if !ok {
		return nil, packerrors.Newf(code, path, "%s must be an array, got %s", key, typeName(value))
	}
	return items, nil
}

func requiredArray(obj *jsonvalue.Object, key, path, name string) ([]any, error) {
	value, ok := obj.Get(key)
	if !ok || value == nil || jsonvalue.IsUndefined(value) {
		return nil, packerrors.Newf(packerrors.CodeMalformedField, path, "field %q requires %s", name, key)
	}
	items, ok := value.([]any)
	if !ok {
		return nil, packerrors.Newf(packerrors.CodeMalformedField, path, "field %q %s must be an array, got %s", name, key, typeName(value))
	}
	return items, nil
}

func typeName(value any) string {
	switch value.(type) {
	case nil:
		return "null"
	case *jsonvalue.Object:
		return "object"
	case []any:
		return "array"
	case string:
		return "string"
	case bool:
		return "boolean"
	}
	if jsonvalue.IsUndefined(value) {
		return "undefined"
	}
	return "number"
}

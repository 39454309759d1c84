package typegen

import (
	"fmt"
	"strings"

	"github.com/goliatone/go-packgen/internal/naming"
	packerrors "github.com/goliatone/go-packgen/pkg/errors"
	"github.com/goliatone/go-packgen/pkg/packschema"
)

const (
	// DefaultSuffix is appended to every generated type name.
	DefaultSuffix = "Cms"
	// TemplateTag is the discriminant member of block template variants.
	TemplateTag = "_template"

	defaultMaxDepth = 64
)

// Options configures a Synthesizer.
type Options struct {
	// Suffix is appended to generated and reference type names.
	Suffix string
	// ReferenceTypes maps reference components (image, productSearch,
	// collections, productBundles, link) to type names. Missing entries use
	// the default base name plus Suffix.
	ReferenceTypes map[packschema.Kind]string
	// MaxDepth caps field nesting.
	MaxDepth int
}

// Option mutates Options.
type Option func(*Options)

// WithSuffix overrides the type name suffix.
func WithSuffix(suffix string) Option {
	return func(opts *Options) {
		opts.Suffix = suffix
	}
}

// WithReferenceTypes overrides the type names used for reference components.
func WithReferenceTypes(types map[packschema.Kind]string) Option {
	return func(opts *Options) {
		if len(types) == 0 {
			return
		}
		if opts.ReferenceTypes == nil {
			opts.ReferenceTypes = make(map[packschema.Kind]string, len(types))
		}
		for kind, name := range types {
			if strings.TrimSpace(name) != "" {
				opts.ReferenceTypes[kind] = strings.TrimSpace(name)
			}
		}
	}
}

// WithMaxDepth caps field nesting.
func WithMaxDepth(depth int) Option {
	return func(opts *Options) {
		opts.MaxDepth = depth
	}
}

var referenceBaseNames = map[packschema.Kind]string{
	packschema.KindImage:          "Media",
	packschema.KindProductSearch:  "Product",
	packschema.KindCollections:    "Collection",
	packschema.KindProductBundles: "ProductBundle",
	packschema.KindLink:           "Link",
}

// Synthesizer turns a resolved PackSchema into declaration units. It keeps no
// per-run state and is safe for concurrent use.
type Synthesizer struct {
	opts       Options
	references map[packschema.Kind]string
}

// New constructs a Synthesizer.
func New(options ...Option) *Synthesizer {
	opts := Options{Suffix: DefaultSuffix}
	for _, opt := range options {
		if opt != nil {
			opt(&opts)
		}
	}
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = defaultMaxDepth
	}

	references := make(map[packschema.Kind]string, len(referenceBaseNames))
	for kind, base := range referenceBaseNames {
		references[kind] = base + opts.Suffix
	}
	for kind, name := range opts.ReferenceTypes {
		if _, ok := referenceBaseNames[kind]; ok {
			references[kind] = name
		}
	}
	return &Synthesizer{opts: opts, references: references}
}

// ReferenceTypeNames returns the external type names referenced by generated
// declarations, in a stable order.
func (s *Synthesizer) ReferenceTypeNames() []string {
	order := []packschema.Kind{
		packschema.KindImage,
		packschema.KindProductSearch,
		packschema.KindCollections,
		packschema.KindProductBundles,
		packschema.KindLink,
	}
	out := make([]string, 0, len(order))
	for _, kind := range order {
		out = append(out, s.references[kind])
	}
	return out
}

// Synthesize produces one unit per section plus the settings unit.
func (s *Synthesizer) Synthesize(schema packschema.PackSchema) (Result, error) {
	result := Result{Sections: make([]Unit, 0, len(schema.Sections))}
	for _, section := range schema.Sections {
		unit, err := s.SynthesizeSection(section)
		if err != nil {
			return Result{}, err
		}
		result.Sections = append(result.Sections, unit)
	}
	settings, err := s.SynthesizeSettings(schema.Settings)
	if err != nil {
		return Result{}, err
	}
	result.Settings = settings
	return result, nil
}

// SynthesizeSection builds the unit for one section.
func (s *Synthesizer) SynthesizeSection(section packschema.SectionSchema) (Unit, error) {
	root := s.SectionTypeName(section.Key)
	source := ""
	if section.Raw != nil {
		source = "section:" + section.Key
	}
	return s.unit(section.Key, root, section.Label, source, section.Fields)
}

// SynthesizeSettings builds the settings unit.
func (s *Synthesizer) SynthesizeSettings(fields []packschema.Field) (Unit, error) {
	unit, err := s.unit(SettingsKey, s.SettingsTypeName(), "", "settings", fields)
	if err != nil {
		return Unit{}, err
	}
	unit.Settings = true
	return unit, nil
}

// SectionTypeName derives the root type name for a section key.
func (s *Synthesizer) SectionTypeName(key string) string {
	return naming.PascalCase(key) + "Section" + s.opts.Suffix
}

// SettingsTypeName is the root type name of the settings unit.
func (s *Synthesizer) SettingsTypeName() string {
	return "Settings" + s.opts.Suffix
}

// GroupTypeName derives the auxiliary type name for a group or group-list.
func (s *Synthesizer) GroupTypeName(fieldName string) string {
	return naming.PascalCase(fieldName) + "Group" + s.opts.Suffix
}

// TemplateTypeName derives the auxiliary type name for a block template.
func (s *Synthesizer) TemplateTypeName(templateKey string) string {
	return naming.PascalCase(templateKey) + "Template" + s.opts.Suffix
}

// ScalarType maps a leaf component to its member type. It reports false for
// composite kinds.
func (s *Synthesizer) ScalarType(kind packschema.Kind) (TypeExpr, bool) {
	switch kind {
	case packschema.KindColor,
		packschema.KindDate,
		packschema.KindHTML,
		packschema.KindMarkdown,
		packschema.KindRadioGroup,
		packschema.KindRichText,
		packschema.KindSelect,
		packschema.KindText,
		packschema.KindTextarea:
		return TypeString, true
	case packschema.KindNumber:
		return TypeNumber, true
	case packschema.KindToggle:
		return TypeBoolean, true
	case packschema.KindImage,
		packschema.KindProductSearch,
		packschema.KindCollections,
		packschema.KindProductBundles,
		packschema.KindLink:
		return Named{Name: s.references[kind]}, true
	case packschema.KindTags:
		return Array{Elem: TypeString}, true
	default:
		return nil, false
	}
}

func (s *Synthesizer) unit(key, root, doc, source string, fields []packschema.Field) (Unit, error) {
	b := &unitBuilder{s: s, index: make(map[string]int)}
	members, err := b.members(fields, 0)
	if err != nil {
		return Unit{}, err
	}
	b.decls = append(b.decls, Declaration{
		Name:    root,
		Kind:    DeclarationRoot,
		Doc:     doc,
		Members: members,
		Source:  source,
	})
	return Unit{Key: key, Root: root, Declarations: b.decls}, nil
}

// unitBuilder accumulates the auxiliary declarations of one unit.
type unitBuilder struct {
	s     *Synthesizer
	decls []Declaration
	index map[string]int
}

func (b *unitBuilder) members(fields []packschema.Field, depth int) ([]Member, error) {
	out := make([]Member, 0, len(fields))
	for _, field := range fields {
		member, err := b.member(field, depth)
		if err != nil {
			return nil, err
		}
		out = append(out, member)
	}
	return out, nil
}

func (b *unitBuilder) member(field packschema.Field, depth int) (Member, error) {
	meta := field.Metadata()
	if depth >= b.s.opts.MaxDepth {
		return Member{}, packerrors.Newf(packerrors.CodeRecursionLimit, meta.Path, "field nesting exceeds %d levels", b.s.opts.MaxDepth)
	}
	member := Member{Name: field.FieldName(), Optional: true, Doc: docFor(meta)}

	switch typed := field.(type) {
	case packschema.ScalarField:
		expr, ok := b.s.ScalarType(typed.Kind)
		if !ok {
			return Member{}, packerrors.Newf(packerrors.CodeMalformedField, meta.Path, "field %q has non-scalar component %q", typed.Name, typed.Kind)
		}
		member.Type = expr
	case packschema.ListField:
		elem := TypeExpr(TypeString)
		if typed.Item != nil {
			if expr, ok := b.s.ScalarType(typed.Item.Component()); ok {
				elem = expr
			}
		}
		member.Type = Array{Elem: elem}
	case packschema.GroupField:
		name, err := b.group(typed.Name, meta, typed.Fields, depth)
		if err != nil {
			return Member{}, err
		}
		member.Type = Named{Name: name}
	case packschema.GroupListField:
		name, err := b.group(typed.Name, meta, typed.Fields, depth)
		if err != nil {
			return Member{}, err
		}
		member.Type = Array{Elem: Named{Name: name}}
	case packschema.BlocksField:
		variants := make([]TypeExpr, 0, len(typed.Templates))
		for _, tpl := range typed.Templates {
			name, err := b.template(tpl, meta.Path, depth)
			if err != nil {
				return Member{}, err
			}
			variants = append(variants, Named{Name: name})
		}
		member.Type = Array{Elem: Union{Options: variants}}
	default:
		return Member{}, packerrors.Newf(packerrors.CodeMalformedField, meta.Path, "field %q has unsupported variant %T", field.FieldName(), field)
	}
	return member, nil
}

func (b *unitBuilder) group(fieldName string, meta packschema.FieldMeta, fields []packschema.Field, depth int) (string, error) {
	name := b.s.GroupTypeName(fieldName)
	members, err := b.members(fields, depth+1)
	if err != nil {
		return "", err
	}
	decl := Declaration{
		Name:    name,
		Kind:    DeclarationGroup,
		Doc:     docFor(meta),
		Members: members,
		Source:  meta.Path,
	}
	return name, b.add(decl)
}

func (b *unitBuilder) template(tpl packschema.BlockTemplate, fieldPath string, depth int) (string, error) {
	name := b.s.TemplateTypeName(tpl.Key)
	members, err := b.members(tpl.Fields, depth+1)
	if err != nil {
		return "", err
	}
	tag := Member{Name: TemplateTag, Type: Literal{Value: tpl.Key}}
	decl := Declaration{
		Name:    name,
		Kind:    DeclarationTemplate,
		Doc:     tpl.Label,
		Members: append([]Member{tag}, members...),
		Source:  fieldPath + ".templates." + tpl.Key,
	}
	return name, b.add(decl)
}

// add appends an auxiliary declaration. A repeated name is accepted only when
// the declaration is structurally identical to the first one, which is then
// reused; otherwise the unit would contain two conflicting types.
func (b *unitBuilder) add(decl Declaration) error {
	if i, exists := b.index[decl.Name]; exists {
		existing := b.decls[i]
		if sameShape(existing, decl) {
			return nil
		}
		return packerrors.Newf(packerrors.CodeNameCollision, decl.Source, "type %s conflicts with the declaration generated from %s", decl.Name, existing.Source)
	}
	b.index[decl.Name] = len(b.decls)
	b.decls = append(b.decls, decl)
	return nil
}

func sameShape(a, b Declaration) bool {
	if a.Kind != b.Kind || len(a.Members) != len(b.Members) {
		return false
	}
	for i := range a.Members {
		left, right := a.Members[i], b.Members[i]
		if left.Name != right.Name || left.Optional != right.Optional {
			return false
		}
		if FormatType(left.Type) != FormatType(right.Type) {
			return false
		}
	}
	return true
}

func docFor(meta packschema.FieldMeta) string {
	if text := strings.TrimSpace(meta.Description); text != "" {
		return text
	}
	return strings.TrimSpace(meta.Label)
}

// String renders a unit with default print options. It satisfies fmt.Stringer
// for debugging.
func (u Unit) String() string {
	return Print(u, PrintOptions{Export: true})
}

var _ fmt.Stringer = Unit{}

package typegen

// TypeExpr is a type reference inside a member declaration. The set of
// expressions is closed: Named, Array, Union and Literal.
type TypeExpr interface {
	isTypeExpr()
}

// Named references a primitive (string, number, boolean) or a declared type.
type Named struct {
	Name string
}

// Array is a sequence of Elem.
type Array struct {
	Elem TypeExpr
}

// Union is one of Options.
type Union struct {
	Options []TypeExpr
}

// Literal is a string literal type, used for block template tags.
type Literal struct {
	Value string
}

func (Named) isTypeExpr()   {}
func (Array) isTypeExpr()   {}
func (Union) isTypeExpr()   {}
func (Literal) isTypeExpr() {}

// Primitive type names.
var (
	TypeString  = Named{Name: "string"}
	TypeNumber  = Named{Name: "number"}
	TypeBoolean = Named{Name: "boolean"}
)

// Member is one property of a record declaration.
type Member struct {
	Name     string
	Type     TypeExpr
	Optional bool
	// Doc is the field label or description, unsanitised.
	Doc string
}

// DeclarationKind tells root declarations apart from auxiliary ones.
type DeclarationKind string

const (
	DeclarationRoot     DeclarationKind = "root"
	DeclarationGroup    DeclarationKind = "group"
	DeclarationTemplate DeclarationKind = "template"
)

// Declaration is a named record type.
type Declaration struct {
	Name    string
	Kind    DeclarationKind
	Doc     string
	Members []Member
	// Source is the JSON path of the field, template or section that produced
	// the declaration.
	Source string
}

// Unit is the declaration block generated for one section, or for settings.
// Declarations holds the auxiliary declarations in visit order followed by
// the root declaration.
type Unit struct {
	// Key is the section key, or SettingsKey for settings. A section may be
	// keyed "settings" too; use Settings to tell the two apart.
	Key          string
	// Settings marks the settings unit.
	Settings     bool
	Root         string
	Declarations []Declaration
}

// RootDeclaration returns the unit's root declaration.
func (u Unit) RootDeclaration() (Declaration, bool) {
	if len(u.Declarations) == 0 {
		return Declaration{}, false
	}
	last := u.Declarations[len(u.Declarations)-1]
	return last, last.Kind == DeclarationRoot
}

// Auxiliary returns the declarations emitted for nested composite fields.
func (u Unit) Auxiliary() []Declaration {
	if len(u.Declarations) == 0 {
		return nil
	}
	return u.Declarations[:len(u.Declarations)-1]
}

// Declaration looks up a declaration by name.
func (u Unit) Declaration(name string) (Declaration, bool) {
	for _, decl := range u.Declarations {
		if decl.Name == name {
			return decl, true
		}
	}
	return Declaration{}, false
}

// SettingsKey identifies the settings unit.
const SettingsKey = "settings"

// Result holds one unit per section, in schema order, plus the settings unit.
type Result struct {
	Sections []Unit
	Settings Unit
}

// Section looks up a section unit by key.
func (r Result) Section(key string) (Unit, bool) {
	for _, unit := range r.Sections {
		if unit.Key == key {
			return unit, true
		}
	}
	return Unit{}, false
}

// Units returns the section units followed by the settings unit.
func (r Result) Units() []Unit {
	out := make([]Unit, 0, len(r.Sections)+1)
	out = append(out, r.Sections...)
	return append(out, r.Settings)
}

package typegen

import (
	"strconv"
	"strings"
	"unicode"
)

// PrintOptions controls how declarations are rendered to text.
type PrintOptions struct {
	// Export prefixes each declaration with the export keyword.
	Export bool
	// DocComments emits field labels and descriptions as /** */ comments.
	DocComments bool
	// Sanitize cleans doc text before it is written. Nil keeps the text as is
	// apart from comment terminators.
	Sanitize func(string) string
}

// Print renders every declaration of the unit, auxiliary ones first, one
// declaration per line.
func Print(unit Unit, opts PrintOptions) string {
	lines := make([]string, 0, len(unit.Declarations))
	for _, decl := range unit.Declarations {
		lines = append(lines, PrintDeclaration(decl, opts))
	}
	return strings.Join(lines, "\n")
}

// PrintDeclaration renders a single declaration:
//
//	export type HeroSectionCms = { title?: string; };
func PrintDeclaration(decl Declaration, opts PrintOptions) string {
	var b strings.Builder
	if opts.DocComments {
		if doc := docText(decl.Doc, opts); doc != "" {
			b.WriteString("/** ")
			b.WriteString(doc)
			b.WriteString(" */\n")
		}
	}
	if opts.Export {
		b.WriteString("export ")
	}
	b.WriteString("type ")
	b.WriteString(decl.Name)
	b.WriteString(" = {")
	for _, member := range decl.Members {
		b.WriteByte(' ')
		if opts.DocComments {
			if doc := docText(member.Doc, opts); doc != "" {
				b.WriteString("/** ")
				b.WriteString(doc)
				b.WriteString(" */ ")
			}
		}
		b.WriteString(memberName(member.Name))
		if member.Optional {
			b.WriteByte('?')
		}
		b.WriteString(": ")
		b.WriteString(FormatType(member.Type))
		b.WriteByte(';')
	}
	if len(decl.Members) > 0 {
		b.WriteByte(' ')
	}
	b.WriteString("};")
	return b.String()
}

// FormatType renders a type expression.
func FormatType(expr TypeExpr) string {
	switch typed := expr.(type) {
	case Named:
		return typed.Name
	case Array:
		elem := FormatType(typed.Elem)
		if union, ok := typed.Elem.(Union); ok && len(union.Options) > 1 {
			elem = "(" + elem + ")"
		}
		return elem + "[]"
	case Union:
		if len(typed.Options) == 0 {
			return "never"
		}
		parts := make([]string, 0, len(typed.Options))
		for _, option := range typed.Options {
			parts = append(parts, FormatType(option))
		}
		return strings.Join(parts, " | ")
	case Literal:
		return strconv.Quote(typed.Value)
	default:
		return "unknown"
	}
}

func memberName(name string) string {
	if isIdentifier(name) {
		return name
	}
	return strconv.Quote(name)
}

func isIdentifier(name string) bool {
	if name == "" {
		return false
	}
	for i, r := range name {
		switch {
		case r == '_' || r == '$' || unicode.IsLetter(r):
		case i > 0 && unicode.IsDigit(r):
		default:
			return false
		}
	}
	return true
}

func docText(text string, opts PrintOptions) string {
	if opts.Sanitize != nil {
		text = opts.Sanitize(text)
	}
	text = strings.Join(strings.Fields(text), " ")
	return strings.ReplaceAll(text, "*/", "*\\/")
}

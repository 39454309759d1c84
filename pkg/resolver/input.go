package resolver

import (
	packerrors "github.com/goliatone/go-packgen/pkg/errors"
	"github.com/goliatone/go-packgen/pkg/jsonvalue"
)

// Input is the compiler's sole input: a constant table and the template that
// references it.
type Input struct {
	Constants map[string]any
	Template  any
}

// Context returns the resolution context for the input's constant table.
func (in Input) Context() Context {
	return Context{Constants: in.Constants}
}

// InputFromValue splits a combined document of the shape
// {"constants": {...}, "template": {...}}. A missing constants entry yields an
// empty table.
func InputFromValue(value any) (Input, error) {
	root, ok := value.(*jsonvalue.Object)
	if !ok {
		return Input{}, packerrors.Newf(packerrors.CodeMalformedSchema, jsonvalue.RootPath, "input must be an object, got %T", value)
	}
	template, ok := root.Get("template")
	if !ok {
		return Input{}, packerrors.New(packerrors.CodeMalformedSchema, jsonvalue.RootPath, "input is missing \"template\"")
	}
	constants, err := ConstantsFromValue(valueOf(root, "constants"))
	if err != nil {
		return Input{}, err
	}
	return Input{Constants: constants, Template: template}, nil
}

// ConstantsFromValue converts a decoded constants object into a lookup table.
// A nil value yields an empty table.
func ConstantsFromValue(value any) (map[string]any, error) {
	if value == nil {
		return map[string]any{}, nil
	}
	obj, ok := value.(*jsonvalue.Object)
	if !ok {
		return nil, packerrors.Newf(packerrors.CodeMalformedSchema, jsonvalue.JoinKey("", "constants"), "constants must be an object, got %T", value)
	}
	out := make(map[string]any, obj.Len())
	obj.Range(func(key string, v any) bool {
		out[key] = v
		return true
	})
	return out, nil
}

func valueOf(obj *jsonvalue.Object, key string) any {
	value, _ := obj.Get(key)
	return value
}
